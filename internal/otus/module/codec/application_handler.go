package codec

import "sync/atomic"

// SIP and RTCP port/heuristic conventions mirrored from
// plugins/parser/sip and plugins/parser/rtp.
const (
	sipPort  = 5060
	sipPortTLS = 5061

	rtcpPayloadTypeMin = 200
	rtcpPayloadTypeMax = 209
	rtpMinLength       = 12
	rtcpMinLength      = 8
)

// ApplicationProcessor classifies transport-layer messages into the
// application protocols the pipeline cares about (SIP signaling, RTP/RTCP
// media) by port and header heuristic, without the full session/SDP
// correlation the plugins/parser/sip and plugins/parser/rtp packages do —
// this is the lightweight classification used on the capture hot path,
// ahead of any flow-registry enrichment those parsers perform downstream.
type ApplicationProcessor struct {
	metrics *ProcessorMetrics
}

// NewApplicationProcessor creates an ApplicationProcessor that reports into
// the given metrics instance.
func NewApplicationProcessor(metrics *ProcessorMetrics) *ApplicationProcessor {
	return &ApplicationProcessor{metrics: metrics}
}

// ProcessMessage classifies msg's protocol and tags it, always returning
// the (possibly annotated) message unless it should be dropped.
func (a *ApplicationProcessor) ProcessMessage(msg *NetworkMessage) (*NetworkMessage, error) {
	if msg == nil {
		return nil, nil
	}

	if msg.TransportProto == 17 { // UDP
		switch {
		case isSIPPort(msg.SourcePort) || isSIPPort(msg.DestinationPort):
			msg.Protocol = "sip"
			atomic.AddUint64(&a.metrics.SIPMessages, 1)
		case looksLikeRTCP(msg.Content):
			msg.Protocol = "rtcp"
			atomic.AddUint64(&a.metrics.RTCPPackets, 1)
		case looksLikeRTP(msg.Content):
			msg.Protocol = "rtp"
			atomic.AddUint64(&a.metrics.RTPPackets, 1)
		}
	}

	return msg, nil
}

func isSIPPort(port uint16) bool {
	return port == sipPort || port == sipPortTLS
}

// looksLikeRTP and looksLikeRTCP apply the same V=2/PT-range/min-length
// checks plugins/parser/rtp uses as its heuristic fallback.
func looksLikeRTP(payload []byte) bool {
	if len(payload) < rtpMinLength {
		return false
	}
	if (payload[0]>>6)&0x3 != 2 {
		return false
	}
	pt := payload[1] & 0x7F
	return pt < 128
}

func looksLikeRTCP(payload []byte) bool {
	if len(payload) < rtcpMinLength {
		return false
	}
	if (payload[0]>>6)&0x3 != 2 {
		return false
	}
	pt := payload[1]
	return pt >= rtcpPayloadTypeMin && pt <= rtcpPayloadTypeMax
}
