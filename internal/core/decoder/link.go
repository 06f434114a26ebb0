// Package decoder implements protocol decoding.
package decoder

import (
	"encoding/binary"

	"github.com/google/gopacket/layers"

	"firestige.xyz/strix/internal/core"
)

const (
	// Header lengths
	nullHeaderLen     = 4
	ethernetHeaderLen = 14
	sllHeaderLen      = 16
	vlanHeaderLen     = 4

	// EtherType values
	etherTypeIPv4 = 0x0800
	etherTypeIPv6 = 0x86DD
	etherTypeVLAN = 0x8100
	etherTypeQinQ = 0x88A8
)

func be16(b []byte) uint16 { return binary.BigEndian.Uint16(b) }
func be32(b []byte) uint32 { return binary.BigEndian.Uint32(b) }

// linkDecoder resolves one link-layer variant to the carried ethertype and
// the byte offset of the network header.
type linkDecoder func(data []byte) (etherType uint16, offset int, err error)

// Closed set of supported link layers. Anything else is excluded from flow
// accounting via core.ErrUnsupportedLinkType.
var linkDecoders = map[layers.LinkType]linkDecoder{
	layers.LinkTypeNull:     decodeRawIP,
	layers.LinkTypeLoop:     decodeRawIP,
	layers.LinkTypeEthernet: decodeEthernet,
	layers.LinkTypeLinuxSLL: decodeLinuxSLL,
}

func resolveLink(linkType layers.LinkType, data []byte) (uint16, int, error) {
	decode, ok := linkDecoders[linkType]
	if !ok {
		return 0, 0, core.ErrUnsupportedLinkType
	}
	return decode(data)
}

// decodeRawIP handles captures with a 4-byte address-family pseudo-header.
// The family is written in the capturing host's byte order, so 2 (AF_INET)
// is accepted in either representation.
func decodeRawIP(data []byte) (uint16, int, error) {
	if len(data) < nullHeaderLen {
		return 0, 0, core.ErrPacketTooShort
	}
	family := binary.BigEndian.Uint32(data[0:4])
	if family == 2 || binary.LittleEndian.Uint32(data[0:4]) == 2 {
		return etherTypeIPv4, nullHeaderLen, nil
	}
	return etherTypeIPv6, nullHeaderLen, nil
}

// decodeEthernet reads the type field of a standard Ethernet frame.
func decodeEthernet(data []byte) (uint16, int, error) {
	if len(data) < ethernetHeaderLen {
		return 0, 0, core.ErrPacketTooShort
	}
	return be16(data[12:14]), ethernetHeaderLen, nil
}

// decodeLinuxSLL reads the protocol field of a Linux cooked capture header.
func decodeLinuxSLL(data []byte) (uint16, int, error) {
	if len(data) < sllHeaderLen {
		return 0, 0, core.ErrPacketTooShort
	}
	return be16(data[14:16]), sllHeaderLen, nil
}
