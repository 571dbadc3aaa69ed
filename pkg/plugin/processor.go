// Package plugin defines plugin interfaces.
package plugin

import "github.com/otus6-project/otus6/internal/core"

// Processor processes output packets.
type Processor interface {
Plugin
Process(pkt *core.OutputPacket) (keep bool)
}
