// Package plugin defines plugin interfaces.
package plugin

import "github.com/otus6-project/otus6/internal/core"

// Parser parses application-layer protocols.
type Parser interface {
Plugin
CanHandle(pkt *core.DecodedPacket) bool
Handle(pkt *core.DecodedPacket) (payload any, labels core.Labels, err error)
}
