// Package classify determines a flow's application protocol from payload
// content or, failing that, from connection metadata alone.
package classify

// Protocol identifies an application protocol known to the engine.
type Protocol uint16

const (
	ProtoUnknown Protocol = iota
	ProtoHTTP
	ProtoTLS
	ProtoDNS
	ProtoSSH
	ProtoSIP
	ProtoNTP
	ProtoDHCP
	ProtoSMTP
	ProtoFTP
	ProtoPOP3
	ProtoIMAP
	protoMax
)

var protoNames = [protoMax]string{
	ProtoUnknown: "Unknown",
	ProtoHTTP:    "HTTP",
	ProtoTLS:     "TLS",
	ProtoDNS:     "DNS",
	ProtoSSH:     "SSH",
	ProtoSIP:     "SIP",
	ProtoNTP:     "NTP",
	ProtoDHCP:    "DHCP",
	ProtoSMTP:    "SMTP",
	ProtoFTP:     "FTP",
	ProtoPOP3:    "POP3",
	ProtoIMAP:    "IMAP",
}

func (p Protocol) String() string {
	if p < protoMax {
		return protoNames[p]
	}
	return "Unknown"
}

// ProtocolByName resolves a case-exact protocol name, ProtoUnknown if absent.
func ProtocolByName(name string) Protocol {
	for p, n := range protoNames {
		if n == name {
			return Protocol(p)
		}
	}
	return ProtoUnknown
}

// Result is one classification outcome. Master carries the envelope protocol
// when App was refined from it (e.g. TLS carrying HTTPS); both unknown means
// the packet did not match.
type Result struct {
	Master Protocol
	App    Protocol
}

// Bitmask selects which protocols the engine may report.
type Bitmask uint64

// AllProtocols enables every protocol the engine knows.
func AllProtocols() Bitmask { return Bitmask(1)<<uint(protoMax) - 1 }

func (m Bitmask) Has(p Protocol) bool { return m&(1<<uint(p)) != 0 }

func (m Bitmask) Without(p Protocol) Bitmask { return m &^ (1 << uint(p)) }

// FlowContext is per-flow classifier state, owned by the flow for its
// lifetime and opaque to everything outside this package.
type FlowContext struct {
	packets     uint64
	emptyChunks uint64
}

// Endpoint is per-physical-endpoint classifier state. One pair is allocated
// per flow and reused, in swap-consistent order, for every packet.
type Endpoint struct {
	packets uint64
}

// Packets reports how many packets this endpoint has sent so far.
func (e *Endpoint) Packets() uint64 { return e.packets }

// Classifier is the application-protocol detection contract the flow engine
// drives. Implementations are synchronous and must not retain the network
// slice past the call.
type Classifier interface {
	// ProcessPacket inspects one packet. network starts at the IPv4
	// header; payloadLen is the declared application payload length.
	ProcessPacket(ctx *FlowContext, src, dst *Endpoint, network []byte, payloadLen int, tick uint64) Result

	// GuessUndetected produces a best-effort result from the canonical
	// 5-tuple only, for flows whose payload never matched.
	GuessUndetected(protocol uint8, lowAddr uint32, lowPort uint16, highAddr uint32, highPort uint16) Result

	// ProtocolName maps a protocol id to its display name.
	ProtocolName(p Protocol) string

	// Version identifies the detection engine build for reporting.
	Version() string
}
