package flow

import (
	"encoding/binary"
	"net/netip"

	"firestige.xyz/strix/internal/classify"
)

// DetectionState tracks how far classification has progressed for a flow.
type DetectionState uint8

const (
	// Undetected flows are still eligible for classifier calls.
	Undetected DetectionState = iota
	// Detected means the classifier matched payload content.
	Detected
	// Guessed means only the heuristic port fallback matched.
	Guessed
)

// Terminal reports whether classification is finished for good.
func (s DetectionState) Terminal() bool { return s != Undetected }

func (s DetectionState) String() string {
	switch s {
	case Detected:
		return "detected"
	case Guessed:
		return "guessed"
	default:
		return "undetected"
	}
}

// Flow is the aggregate state of one bidirectional conversation. Created on
// first sight of its canonical key, it lives for the rest of the run.
type Flow struct {
	Key      Key
	LowAddr  netip.Addr
	HighAddr netip.Addr

	NumPackets uint64
	NumBytes   uint64
	FirstSeen  uint64 // tick of the creating packet
	LastSeen   uint64

	State  DetectionState
	Result classify.Result

	// Classifier-owned state: one context per flow, one identity per
	// physical endpoint. Allocated at creation, never reassigned.
	Ctx     *classify.FlowContext
	lowEnd  *classify.Endpoint
	highEnd *classify.Endpoint
}

func newFlow(key Key, tick uint64) *Flow {
	return &Flow{
		Key:       key,
		LowAddr:   addrFrom(key.LowAddr),
		HighAddr:  addrFrom(key.HighAddr),
		FirstSeen: tick,
		LastSeen:  tick,
		Ctx:       &classify.FlowContext{},
		lowEnd:    &classify.Endpoint{},
		highEnd:   &classify.Endpoint{},
	}
}

// Endpoints returns the flow's two identity handles ordered as the observed
// packet's (source, destination). The classifier therefore sees a stable
// logical direction even though physical capture direction alternates.
func (f *Flow) Endpoints(swapped bool) (src, dst *classify.Endpoint) {
	if swapped {
		return f.highEnd, f.lowEnd
	}
	return f.lowEnd, f.highEnd
}

// Account records one packet against the flow's counters.
func (f *Flow) Account(origLen uint32, tick uint64) {
	f.NumPackets++
	f.NumBytes += uint64(origLen)
	f.LastSeen = tick
}

func addrFrom(a uint32) netip.Addr {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], a)
	return netip.AddrFrom4(b)
}
