// Package decoder implements link/network/transport header decoding over
// untrusted capture bytes. Every multi-byte read is bounds-checked against
// the captured length; header fields are never trusted.
package decoder

import (
	"github.com/google/gopacket/layers"

	"firestige.xyz/strix/internal/core"
)

// Decode resolves the link layer for the given capture link type, strips any
// stacked VLAN tags and parses the IPv4 and transport port fields. Packets
// that carry no decodable IPv4 header are rejected with a recoverable
// sentinel error; only core.ErrLengthInconsistent is fatal to the run.
func Decode(linkType layers.LinkType, raw core.RawPacket) (core.DecodedPacket, error) {
	data := raw.Data
	if int(raw.CaptureLen) < len(data) {
		data = data[:raw.CaptureLen]
	}

	etherType, offset, err := resolveLink(linkType, data)
	if err != nil {
		return core.DecodedPacket{}, err
	}

	decoded := core.DecodedPacket{
		Timestamp:  raw.Timestamp,
		CaptureLen: raw.CaptureLen,
		OrigLen:    raw.OrigLen,
	}

	// Strip stacked VLAN tags. The innermost id identifies the flow.
	for etherType == etherTypeVLAN || etherType == etherTypeQinQ {
		if len(data) < offset+vlanHeaderLen {
			return decoded, core.ErrPacketTooShort
		}
		tci := be16(data[offset : offset+2])
		decoded.VLAN = tci & 0x0FFF
		decoded.Tagged = true
		etherType = be16(data[offset+2 : offset+4])
		offset += vlanHeaderLen
	}

	if etherType != etherTypeIPv4 {
		// IPv6 and non-IP traffic is counted upstream but not decoded.
		return decoded, core.ErrUnsupportedEther
	}

	if err := decodeIPv4(&decoded, data[offset:]); err != nil {
		return decoded, err
	}
	return decoded, nil
}
