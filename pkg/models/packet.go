// Package models re-exports core types for external use.
package models

import "github.com/otus6-project/otus6/internal/core"

// Re-export core packet types for plugins
type (
RawPacket     = core.RawPacket
DecodedPacket = core.DecodedPacket
OutputPacket  = core.OutputPacket
Labels        = core.Labels
)
