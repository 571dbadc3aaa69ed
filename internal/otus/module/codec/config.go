package codec

import (
	"time"

	"github.com/otus6-project/otus6/internal/otus/module/codec/reassembly6"
)

// ProcessorConfig configures an IPv4 or IPv6 packet processor. Loaded the
// same way as the rest of the otus6 pipeline's module configs (viper →
// mapstructure), see internal/otus/config/loader.go.
type ProcessorConfig struct {
	FragmentTimeout     time.Duration `mapstructure:"fragment_timeout" yaml:"fragment_timeout"`
	EnableTCPReassembly bool          `mapstructure:"enable_tcp_reassembly" yaml:"enable_tcp_reassembly"`
	MetricsInterval     time.Duration `mapstructure:"metrics_interval" yaml:"metrics_interval"`
	OutputChannelSize   int           `mapstructure:"output_channel_size" yaml:"output_channel_size"`

	// IPv6Reassembly configures IPv6PacketProcessor's fragment reassembly
	// engine. Left nil to use reassembly6.DefaultConfig().
	IPv6Reassembly *reassembly6.Config `mapstructure:"ipv6_reassembly" yaml:"ipv6_reassembly"`
}

// DefaultProcessorConfig returns the recommended defaults.
func DefaultProcessorConfig() *ProcessorConfig {
	return &ProcessorConfig{
		FragmentTimeout:     30 * time.Second,
		EnableTCPReassembly: true,
		MetricsInterval:     10 * time.Second,
		OutputChannelSize:   1024,
		IPv6Reassembly:      reassembly6.DefaultConfig(),
	}
}
