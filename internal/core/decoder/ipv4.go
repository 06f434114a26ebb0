// Package decoder implements protocol decoding.
package decoder

import (
	"fmt"

	"firestige.xyz/strix/internal/core"
)

const (
	ipv4HeaderMinLen = 20
	portFieldsLen    = 4

	// Protocol numbers
	protocolTCP = 6
	protocolUDP = 17
)

// decodeIPv4 parses the IPv4 header starting at data[0] and, for TCP/UDP,
// the transport port fields. data is the captured tail of the packet, which
// may be shorter than the lengths the header declares.
func decodeIPv4(d *core.DecodedPacket, data []byte) error {
	if len(data) < ipv4HeaderMinLen {
		return core.ErrPacketTooShort
	}

	// Version (high nibble) and IHL in 32-bit words (low nibble)
	if data[0]>>4 != 4 {
		return core.ErrUnsupportedProto
	}
	headerLen := int(data[0]&0x0F) * 4
	if headerLen < ipv4HeaderMinLen || len(data) < headerLen {
		return core.ErrPacketTooShort
	}

	totalLen := int(be16(data[2:4]))
	if totalLen < headerLen {
		return fmt.Errorf("%w: total %d, header %d",
			core.ErrLengthInconsistent, totalLen, headerLen)
	}

	d.Protocol = data[9]
	d.SrcAddr = be32(data[12:16])
	d.DstAddr = be32(data[16:20])
	d.Network = data
	d.PayloadLen = totalLen - headerLen

	if d.Protocol == protocolTCP || d.Protocol == protocolUDP {
		if len(data) < headerLen+portFieldsLen {
			return core.ErrPacketTooShort
		}
		d.SrcPort = be16(data[headerLen : headerLen+2])
		d.DstPort = be16(data[headerLen+2 : headerLen+4])
	}
	return nil
}
