package reassembly6

import "fmt"

// Config is the declarative form of the engine's construction
// parameters, loaded the way the rest of the otus6 pipeline loads its
// module configs (viper → mapstructure, see
// internal/otus/config/loader.go).
type Config struct {
	TableSize                uint16 `mapstructure:"table_size" yaml:"table_size"`
	PerSourceMemoryLimit     uint32 `mapstructure:"per_source_memory_limit" yaml:"per_source_memory_limit"`
	TotalMemoryLimit         uint32 `mapstructure:"total_memory_limit" yaml:"total_memory_limit"`
	ReassemblyTimeoutSeconds uint8  `mapstructure:"reassembly_timeout_seconds" yaml:"reassembly_timeout_seconds"`
	EnforceMinimumMTU        bool   `mapstructure:"enforce_minimum_mtu" yaml:"enforce_minimum_mtu"`
}

// DefaultConfig returns the recommended defaults from spec.md §6.
func DefaultConfig() *Config {
	return &Config{
		TableSize:                256,
		PerSourceMemoryLimit:     DefaultPerSourceMemoryLimit,
		TotalMemoryLimit:         DefaultTotalMemoryLimit,
		ReassemblyTimeoutSeconds: DefaultReassemblyTimeout,
		EnforceMinimumMTU:        true,
	}
}

// Validate reports configuration errors that would otherwise surface
// only as silent, hard-to-diagnose behavior (an engine that evicts
// everything immediately, or a zero-size hash table).
func (c *Config) Validate() error {
	if c.TableSize == 0 {
		return fmt.Errorf("reassembly6: table_size must be > 0")
	}
	if c.PerSourceMemoryLimit > c.TotalMemoryLimit {
		return fmt.Errorf("reassembly6: per_source_memory_limit (%d) exceeds total_memory_limit (%d)", c.PerSourceMemoryLimit, c.TotalMemoryLimit)
	}
	return nil
}

// NewEngineFromConfig builds an Engine from cfg, falling back to
// DefaultConfig for a nil cfg.
func NewEngineFromConfig(cfg *Config) (*Engine, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	e := NewEngine(cfg.TableSize)
	e.SetPerHostMemoryLimit(cfg.PerSourceMemoryLimit)
	e.SetTotalMemoryLimit(cfg.TotalMemoryLimit)
	e.SetReassemblyTimeout(cfg.ReassemblyTimeoutSeconds)
	e.SetEnforceMinimumMTU(cfg.EnforceMinimumMTU)
	return e, nil
}
