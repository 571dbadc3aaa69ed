package decoder

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/gopacket/layers"
)

// IPv4Fragment 表示一个 IPv4 分片
type IPv4Fragment struct {
	data      []byte
	offset    uint16
	moreFrags bool
	timestamp time.Time
}

// IPv4ReassemblyKey 用于标识属于同一个 IP 数据报的分片
type IPv4ReassemblyKey struct {
	srcIP    string
	dstIP    string
	id       uint16
	protocol layers.IPProtocol
}

// IPv4ReassemblyBuffer 存储待重组的分片
type IPv4ReassemblyBuffer struct {
	fragments  []*IPv4Fragment
	totalSize  uint16
	received   map[uint16]bool // 已接收的偏移量
	firstSeen  time.Time
	lastUpdate time.Time
}

// ipv4Reassembler 管理 IPv4 分片重组
type ipv4Reassembler struct {
	buffers map[IPv4ReassemblyKey]*IPv4ReassemblyBuffer
	mu      sync.RWMutex
	timeout time.Duration // 分片超时时间
}

func newIPv4Reassembler(timeout time.Duration) *ipv4Reassembler {
	return &ipv4Reassembler{
		buffers: make(map[IPv4ReassemblyKey]*IPv4ReassemblyBuffer),
		timeout: timeout,
	}
}

// reassembleIPv4 重组 IPv4 分片（调用前已确认是分片包）
func (d *Decoder) reassembleIPv4(ip4 layers.IPv4, timestamp time.Time) (*layers.IPv4, error) {
	// 构建重组键
	key := IPv4ReassemblyKey{
		srcIP:    ip4.SrcIP.String(),
		dstIP:    ip4.DstIP.String(),
		id:       ip4.Id,
		protocol: ip4.Protocol,
	}

	d.reassembler.mu.Lock()
	defer d.reassembler.mu.Unlock()

	// 清理超时的分片缓冲区
	d.cleanupExpiredBuffers(timestamp)

	// 获取或创建重组缓冲区
	buffer, exists := d.reassembler.buffers[key]
	if !exists {
		buffer = &IPv4ReassemblyBuffer{
			fragments:  make([]*IPv4Fragment, 0),
			received:   make(map[uint16]bool),
			firstSeen:  timestamp,
			lastUpdate: timestamp,
		}
		d.reassembler.buffers[key] = buffer
	}

	// 检查是否超时
	if timestamp.Sub(buffer.firstSeen) > d.reassembler.timeout {
		delete(d.reassembler.buffers, key)
		return nil, fmt.Errorf("fragment reassembly timeout")
	}

	// 添加新分片
	fragOffset := ip4.FragOffset * 8 // 偏移量以 8 字节为单位

	// 检查是否已经收到此偏移的分片（防止重复）
	if buffer.received[fragOffset] {
		return nil, fmt.Errorf("duplicate fragment at offset %d", fragOffset)
	}

	fragment := &IPv4Fragment{
		data:      ip4.Payload,
		offset:    fragOffset,
		moreFrags: ip4.Flags&layers.IPv4MoreFragments != 0,
		timestamp: timestamp,
	}

	buffer.fragments = append(buffer.fragments, fragment)
	buffer.received[fragOffset] = true
	buffer.lastUpdate = timestamp

	// 如果是最后一个分片，记录总大小
	if !fragment.moreFrags {
		buffer.totalSize = fragOffset + uint16(len(fragment.data))
	}

	// 检查是否收集完所有分片
	if buffer.totalSize > 0 && d.isReassemblyComplete(buffer) {
		// 重组完成
		reassembled, err := d.assembleFragments(buffer, &ip4)
		if err != nil {
			delete(d.reassembler.buffers, key)
			return nil, err
		}

		// 清理缓冲区
		delete(d.reassembler.buffers, key)
		return reassembled, nil
	}

	// 还需要更多分片
	return nil, fmt.Errorf("waiting for more fragments")
}

// isReassemblyComplete 检查是否收集到了所有分片
func (d *Decoder) isReassemblyComplete(buffer *IPv4ReassemblyBuffer) bool {
	if buffer.totalSize == 0 {
		return false
	}

	// 检查是否所有偏移量都已收到
	var offset uint16
	for offset < buffer.totalSize {
		if !buffer.received[offset] {
			return false
		}
		// 找到下一个偏移量
		found := false
		for _, frag := range buffer.fragments {
			if frag.offset > offset {
				if !found || frag.offset < offset {
					offset = frag.offset
					found = true
				}
			}
		}
		if !found {
			// 没有更大的偏移量了，检查是否覆盖到 totalSize
			break
		}
	}

	return true
}

// assembleFragments 组装分片为完整的 IPv4 包
func (d *Decoder) assembleFragments(buffer *IPv4ReassemblyBuffer, template *layers.IPv4) (*layers.IPv4, error) {
	// 创建完整的载荷缓冲区
	payload := make([]byte, buffer.totalSize)

	// 按偏移量排序并拷贝数据
	for _, frag := range buffer.fragments {
		if frag.offset+uint16(len(frag.data)) > buffer.totalSize {
			return nil, fmt.Errorf("fragment overflow: offset=%d, len=%d, total=%d",
				frag.offset, len(frag.data), buffer.totalSize)
		}
		copy(payload[frag.offset:], frag.data)
	}

	// 创建重组后的 IPv4 包
	reassembled := &layers.IPv4{
		Version:    template.Version,
		IHL:        template.IHL,
		TOS:        template.TOS,
		Length:     uint16(20 + len(payload)), // IP 头部(20) + 载荷
		Id:         template.Id,
		Flags:      0, // 清除分片标志
		FragOffset: 0,
		TTL:        template.TTL,
		Protocol:   template.Protocol,
		Checksum:   0, // 需要重新计算
		SrcIP:      template.SrcIP,
		DstIP:      template.DstIP,
		Options:    template.Options,
		Padding:    template.Padding,
	}
	reassembled.Payload = payload

	return reassembled, nil
}

// cleanupExpiredBuffers 清理超时的分片缓冲区
func (d *Decoder) cleanupExpiredBuffers(now time.Time) {
	expiredKeys := make([]IPv4ReassemblyKey, 0)

	for key, buffer := range d.reassembler.buffers {
		if now.Sub(buffer.firstSeen) > d.reassembler.timeout {
			expiredKeys = append(expiredKeys, key)
		}
	}

	for _, key := range expiredKeys {
		delete(d.reassembler.buffers, key)
	}
}

// reassembleIPv6 feeds one IPv6 fragment through the shared reassembly6
// engine (d.ip6 and d.ip6Frag are the layer structs the caller's
// DecodeLayers just populated) and returns the reassembled datagram
// buffer once the last fragment needed arrives, or nil while a flow is
// still incomplete, dropped, or evicted — the engine collapses every
// failure mode to nil rather than an error (see reassembly6.ManageFragment).
func (d *Decoder) reassembleIPv6(rawPacket []byte, timestamp time.Time) []byte {
	unfrag := append([]byte(nil), d.ip6.Contents...)

	return d.ipv6Engine.ManageFragment(reassembly6.FragmentInput{
		SrcAddr:        reassembly6.AddrFrom16(d.ip6.SrcIP),
		DstAddr:        reassembly6.AddrFrom16(d.ip6.DstIP),
		Identification: d.ip6Frag.Identification,
		NextHeader:     uint8(d.ip6Frag.NextHeader),
		Unfragmentable: unfrag,
		Fragmentable:   d.ip6Frag.Payload,
		Offset:         d.ip6Frag.FragmentOffset * 8,
		MoreFragments:  d.ip6Frag.MoreFragments,
		Now:            timestamp.Unix(),
	})
}
