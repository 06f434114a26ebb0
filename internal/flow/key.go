// Package flow maintains per-flow identity and state across packets.
package flow

// Key identifies a bidirectional flow independent of the direction any
// given packet was captured in. It is a fixed-width comparable value, which
// makes it a collision-free map key without any string formatting.
type Key struct {
	VLAN     uint16
	Protocol uint8
	LowAddr  uint32
	HighAddr uint32
	LowPort  uint16
	HighPort uint16
}

// NewKey canonicalizes the observed (src, dst) endpoints into (low, high)
// order: the smaller address wins, ports break ties. The returned flag tells
// whether the physical direction was reversed relative to canonical order.
func NewKey(vlan uint16, protocol uint8, srcAddr uint32, srcPort uint16, dstAddr uint32, dstPort uint16) (Key, bool) {
	swapped := srcAddr > dstAddr || (srcAddr == dstAddr && srcPort > dstPort)

	key := Key{VLAN: vlan, Protocol: protocol}
	if swapped {
		key.LowAddr, key.LowPort = dstAddr, dstPort
		key.HighAddr, key.HighPort = srcAddr, srcPort
	} else {
		key.LowAddr, key.LowPort = srcAddr, srcPort
		key.HighAddr, key.HighPort = dstAddr, dstPort
	}
	return key, swapped
}
