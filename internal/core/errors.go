// Package core defines sentinel errors.
package core

import "errors"

// Sentinel errors for the decode path. Callers classify them with errors.Is:
// everything except ErrLengthInconsistent is recoverable and only excludes
// the offending packet from flow accounting.
var (
	// Packet decoding errors
	ErrPacketTooShort      = errors.New("strix: packet too short")
	ErrUnsupportedLinkType = errors.New("strix: unsupported link type")
	ErrUnsupportedEther    = errors.New("strix: unsupported ethertype")
	ErrUnsupportedProto    = errors.New("strix: unsupported protocol")

	// ErrLengthInconsistent means an IPv4 header declared a total length
	// smaller than its own header length. The capture is corrupt and the
	// run must stop rather than feed negative lengths downstream.
	ErrLengthInconsistent = errors.New("strix: ip total length smaller than header length")

	// Configuration errors
	ErrConfigInvalid = errors.New("strix: invalid configuration")
)
