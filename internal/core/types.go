// Package core defines core data structures with zero external dependencies.
package core

import "time"

// RawPacket is one captured packet record as delivered by the packet source.
type RawPacket struct {
	Data       []byte    // Raw frame data, zero-copy slice
	Timestamp  time.Time // Capture timestamp
	CaptureLen uint32    // Actual captured length
	OrigLen    uint32    // Original on-wire length
}

// DecodedPacket is the result of link/network/transport header decoding for
// one accounted IPv4 packet. Addresses are kept in numeric big-endian form
// because flow canonicalization orders them as unsigned 32-bit integers.
type DecodedPacket struct {
	Timestamp time.Time
	VLAN      uint16 // innermost VLAN id, 0 when untagged
	Tagged    bool   // at least one VLAN tag was stripped
	Protocol  uint8  // TCP=6, UDP=17, others carried as-is
	SrcAddr   uint32
	DstAddr   uint32
	SrcPort   uint16 // zero unless TCP or UDP
	DstPort   uint16

	// Network is the captured bytes starting at the IPv4 header. The
	// classifier receives this slice together with PayloadLen.
	Network    []byte
	PayloadLen int // IPv4 total length minus header length, never negative
	CaptureLen uint32
	OrigLen    uint32
}
