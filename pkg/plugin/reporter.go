// Package plugin defines plugin interfaces.
package plugin

import (
	"context"

	"github.com/otus6-project/otus6/internal/core"
)

// Reporter sends output packets to external systems.
type Reporter interface {
	Plugin
	Report(ctx context.Context, pkt *core.OutputPacket) error
	Flush(ctx context.Context) error
}

// BatchReporter is a Reporter that can also send several packets in one call.
type BatchReporter interface {
	Reporter
	ReportBatch(ctx context.Context, pkts []*core.OutputPacket) error
}
