package classify

import (
	"bytes"
	"encoding/binary"
)

const engineVersion = "strix-dpi/0.4.2"

const (
	protocolTCP = 6
	protocolUDP = 17
)

// defaultPorts is the well-known-port table used by the heuristic guess and
// for refining TLS matches on implicit-TLS ports.
var defaultPorts = map[uint16]Protocol{
	21:   ProtoFTP,
	22:   ProtoSSH,
	25:   ProtoSMTP,
	53:   ProtoDNS,
	67:   ProtoDHCP,
	68:   ProtoDHCP,
	80:   ProtoHTTP,
	110:  ProtoPOP3,
	123:  ProtoNTP,
	143:  ProtoIMAP,
	443:  ProtoTLS,
	465:  ProtoSMTP,
	587:  ProtoSMTP,
	993:  ProtoIMAP,
	995:  ProtoPOP3,
	5060: ProtoSIP,
	8080: ProtoHTTP,
}

// Engine is the built-in payload-signature classifier.
type Engine struct {
	resolution uint64
	enabled    Bitmask
	ports      map[uint16]Protocol
}

// Option configures an Engine.
type Option func(*Engine)

// WithEnabled restricts the set of reportable protocols.
func WithEnabled(mask Bitmask) Option {
	return func(e *Engine) { e.enabled = mask }
}

// WithPortOverrides merges extra port-to-protocol entries into the guess
// table, overriding defaults on conflict.
func WithPortOverrides(ports map[uint16]Protocol) Option {
	return func(e *Engine) {
		for port, proto := range ports {
			e.ports[port] = proto
		}
	}
}

// NewEngine builds a classifier operating at the given tick resolution with
// all protocols enabled unless options say otherwise.
func NewEngine(tickResolution uint64, opts ...Option) *Engine {
	e := &Engine{
		resolution: tickResolution,
		enabled:    AllProtocols(),
		ports:      make(map[uint16]Protocol, len(defaultPorts)),
	}
	for port, proto := range defaultPorts {
		e.ports[port] = proto
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) Version() string { return engineVersion }

func (e *Engine) ProtocolName(p Protocol) string { return p.String() }

// ProcessPacket inspects one packet's application payload for protocol
// signatures. network starts at the IPv4 header, exactly as captured.
func (e *Engine) ProcessPacket(ctx *FlowContext, src, dst *Endpoint, network []byte, payloadLen int, tick uint64) Result {
	ctx.packets++
	src.packets++

	proto, srcPort, dstPort, payload := splitTransport(network)
	if len(payload) == 0 {
		ctx.emptyChunks++
		return Result{}
	}
	if len(payload) > payloadLen {
		payload = payload[:payloadLen]
	}

	if r := e.matchPayload(proto, srcPort, dstPort, payload); e.enabled.Has(r.App) {
		return r
	}
	return Result{}
}

// GuessUndetected maps the canonical 5-tuple onto the well-known-port table.
func (e *Engine) GuessUndetected(protocol uint8, lowAddr uint32, lowPort uint16, highAddr uint32, highPort uint16) Result {
	if protocol != protocolTCP && protocol != protocolUDP {
		return Result{}
	}
	for _, port := range [2]uint16{lowPort, highPort} {
		if p, ok := e.ports[port]; ok && e.enabled.Has(p) {
			return Result{App: p}
		}
	}
	return Result{}
}

func (e *Engine) matchPayload(proto uint8, srcPort, dstPort uint16, payload []byte) Result {
	switch {
	case matchHTTP(payload):
		return Result{App: ProtoHTTP}
	case matchTLS(payload):
		// Implicit-TLS ports identify the carried protocol.
		for _, port := range [2]uint16{srcPort, dstPort} {
			if p, ok := e.ports[port]; ok && p != ProtoTLS && e.enabled.Has(p) {
				return Result{Master: ProtoTLS, App: p}
			}
		}
		return Result{App: ProtoTLS}
	case matchSSH(payload):
		return Result{App: ProtoSSH}
	case matchSIP(payload):
		return Result{App: ProtoSIP}
	case matchDNS(srcPort, dstPort, payload):
		return Result{App: ProtoDNS}
	case matchNTP(proto, srcPort, dstPort, payload):
		return Result{App: ProtoNTP}
	case matchDHCP(proto, srcPort, dstPort, payload):
		return Result{App: ProtoDHCP}
	}
	return Result{}
}

var httpPrefixes = [][]byte{
	[]byte("GET "),
	[]byte("POST "),
	[]byte("PUT "),
	[]byte("HEAD "),
	[]byte("DELETE "),
	[]byte("OPTIONS "),
	[]byte("HTTP/1."),
}

func matchHTTP(payload []byte) bool {
	for _, prefix := range httpPrefixes {
		if bytes.HasPrefix(payload, prefix) {
			// SIP requests share the method verbs; the request line
			// ends with a SIP version instead of an HTTP one.
			return !bytes.Contains(firstLine(payload), []byte("SIP/2.0"))
		}
	}
	return false
}

// matchTLS accepts a TLS record header: handshake type, version 3.x.
func matchTLS(payload []byte) bool {
	return len(payload) >= 3 && payload[0] == 0x16 && payload[1] == 0x03 && payload[2] <= 0x04
}

func matchSSH(payload []byte) bool {
	return bytes.HasPrefix(payload, []byte("SSH-"))
}

var sipPrefixes = [][]byte{
	[]byte("SIP/2.0 "),
	[]byte("INVITE "),
	[]byte("REGISTER "),
	[]byte("ACK "),
	[]byte("BYE "),
	[]byte("CANCEL "),
}

func matchSIP(payload []byte) bool {
	for _, prefix := range sipPrefixes {
		if bytes.HasPrefix(payload, prefix) {
			return true
		}
	}
	return false
}

// matchDNS requires port 53 plus a sane message header: a known opcode and a
// plausible question count.
func matchDNS(srcPort, dstPort uint16, payload []byte) bool {
	if srcPort != 53 && dstPort != 53 {
		return false
	}
	if len(payload) < 12 {
		return false
	}
	opcode := (payload[2] >> 3) & 0x0F
	qdcount := binary.BigEndian.Uint16(payload[4:6])
	return opcode <= 5 && qdcount >= 1 && qdcount < 16
}

func matchNTP(proto uint8, srcPort, dstPort uint16, payload []byte) bool {
	if proto != protocolUDP || (srcPort != 123 && dstPort != 123) {
		return false
	}
	if len(payload) < 48 {
		return false
	}
	version := (payload[0] >> 3) & 0x07
	mode := payload[0] & 0x07
	return version >= 1 && version <= 4 && mode >= 1 && mode <= 5
}

func matchDHCP(proto uint8, srcPort, dstPort uint16, payload []byte) bool {
	if proto != protocolUDP {
		return false
	}
	if (srcPort != 67 && srcPort != 68) || (dstPort != 67 && dstPort != 68) {
		return false
	}
	// BOOTP fixed header; op 1/2, hardware type Ethernet.
	return len(payload) >= 236 && (payload[0] == 1 || payload[0] == 2) && payload[1] == 1
}

func firstLine(payload []byte) []byte {
	if i := bytes.IndexByte(payload, '\n'); i >= 0 {
		return payload[:i]
	}
	return payload
}

// splitTransport recovers protocol, ports and the application payload from a
// captured IPv4 packet. Truncated headers yield an empty payload.
func splitTransport(network []byte) (proto uint8, srcPort, dstPort uint16, payload []byte) {
	if len(network) < 20 {
		return 0, 0, 0, nil
	}
	headerLen := int(network[0]&0x0F) * 4
	if headerLen < 20 || len(network) < headerLen {
		return 0, 0, 0, nil
	}
	// Ethernet minimum-frame padding may trail the IP datagram; cap the
	// view at the declared total length.
	if totalLen := int(binary.BigEndian.Uint16(network[2:4])); totalLen >= headerLen && totalLen < len(network) {
		network = network[:totalLen]
	}
	proto = network[9]
	l4 := network[headerLen:]

	switch proto {
	case protocolTCP:
		if len(l4) < 20 {
			return proto, 0, 0, nil
		}
		srcPort = binary.BigEndian.Uint16(l4[0:2])
		dstPort = binary.BigEndian.Uint16(l4[2:4])
		tcpHeaderLen := int(l4[12]>>4) * 4
		if tcpHeaderLen < 20 || len(l4) < tcpHeaderLen {
			return proto, srcPort, dstPort, nil
		}
		payload = l4[tcpHeaderLen:]
	case protocolUDP:
		if len(l4) < 8 {
			return proto, 0, 0, nil
		}
		srcPort = binary.BigEndian.Uint16(l4[0:2])
		dstPort = binary.BigEndian.Uint16(l4[2:4])
		payload = l4[8:]
	}
	return proto, srcPort, dstPort, payload
}
