package config

import (
	"testing"

	"github.com/otus6-project/otus6/internal/otus/module/codec/reassembly6"
)

func validTaskConfigForIPv6Test() *TaskConfig {
	return &TaskConfig{
		ID: "ipv6-reassembly-task",
		Capture: CaptureConfig{
			Name:      "afpacket",
			Interface: "eth0",
		},
		Reporters: []ReporterConfig{
			{Name: "console"},
		},
	}
}

func TestTaskConfigValidateIPv6ReassemblyNil(t *testing.T) {
	tc := validTaskConfigForIPv6Test()
	if err := tc.Validate(); err != nil {
		t.Fatalf("expected nil IPv6Reassembly config to validate, got %v", err)
	}
}

func TestTaskConfigValidateIPv6ReassemblyOK(t *testing.T) {
	tc := validTaskConfigForIPv6Test()
	tc.Decoder.IPv6Reassembly = reassembly6.DefaultConfig()
	if err := tc.Validate(); err != nil {
		t.Fatalf("expected default IPv6Reassembly config to validate, got %v", err)
	}
}

func TestTaskConfigValidateIPv6ReassemblyZeroTableSize(t *testing.T) {
	tc := validTaskConfigForIPv6Test()
	cfg := reassembly6.DefaultConfig()
	cfg.TableSize = 0
	tc.Decoder.IPv6Reassembly = cfg

	if err := tc.Validate(); err == nil {
		t.Error("expected a zero table_size to be rejected")
	}
}

func TestTaskConfigValidateIPv6ReassemblyPerSourceExceedsTotal(t *testing.T) {
	tc := validTaskConfigForIPv6Test()
	cfg := reassembly6.DefaultConfig()
	cfg.TotalMemoryLimit = 1 << 20
	cfg.PerSourceMemoryLimit = cfg.TotalMemoryLimit + 1
	tc.Decoder.IPv6Reassembly = cfg

	if err := tc.Validate(); err == nil {
		t.Error("expected per_source_memory_limit > total_memory_limit to be rejected")
	}
}
