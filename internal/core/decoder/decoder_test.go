package decoder

import (
	"errors"
	"testing"
	"time"

	"github.com/google/gopacket/layers"

	"firestige.xyz/strix/internal/core"
)

// Helper function to create a simple Ethernet + IPv4 + UDP packet
func makeEthernetUDPPacket() []byte {
	packet := make([]byte, 42) // Ethernet + IPv4 + UDP headers

	// Ethernet header (14 bytes)
	// Dst MAC: 00:11:22:33:44:55
	packet[0], packet[1], packet[2] = 0x00, 0x11, 0x22
	packet[3], packet[4], packet[5] = 0x33, 0x44, 0x55
	// Src MAC: AA:BB:CC:DD:EE:FF
	packet[6], packet[7], packet[8] = 0xAA, 0xBB, 0xCC
	packet[9], packet[10], packet[11] = 0xDD, 0xEE, 0xFF
	// EtherType: IPv4 (0x0800)
	packet[12], packet[13] = 0x08, 0x00

	// IPv4 header (20 bytes)
	packet[14] = 0x45                   // Version 4, IHL 5
	packet[15] = 0x00                   // DSCP, ECN
	packet[16], packet[17] = 0x00, 0x1C // Total Length: 28 bytes
	packet[18], packet[19] = 0x12, 0x34 // Identification
	packet[20], packet[21] = 0x00, 0x00 // Flags, Fragment Offset
	packet[22] = 0x40                   // TTL: 64
	packet[23] = 0x11                   // Protocol: UDP (17)
	packet[24], packet[25] = 0x00, 0x00 // Checksum (not calculated)
	// Src IP: 192.168.1.1
	packet[26], packet[27], packet[28], packet[29] = 192, 168, 1, 1
	// Dst IP: 192.168.1.2
	packet[30], packet[31], packet[32], packet[33] = 192, 168, 1, 2

	// UDP header (8 bytes)
	packet[34], packet[35] = 0x13, 0x88 // Src Port: 5000
	packet[36], packet[37] = 0x13, 0x89 // Dst Port: 5001
	packet[38], packet[39] = 0x00, 0x08 // Length: 8 bytes
	packet[40], packet[41] = 0x00, 0x00 // Checksum (not calculated)

	return packet
}

func rawFrom(data []byte) core.RawPacket {
	return core.RawPacket{
		Data:       data,
		Timestamp:  time.Now(),
		CaptureLen: uint32(len(data)),
		OrigLen:    uint32(len(data)),
	}
}

func TestDecodeEthernetUDP(t *testing.T) {
	decoded, err := Decode(layers.LinkTypeEthernet, rawFrom(makeEthernetUDPPacket()))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}

	if decoded.Protocol != 17 {
		t.Errorf("Expected protocol 17 (UDP), got %d", decoded.Protocol)
	}
	if decoded.SrcAddr != 0xC0A80101 { // 192.168.1.1
		t.Errorf("Expected SrcAddr 0xC0A80101, got 0x%08X", decoded.SrcAddr)
	}
	if decoded.DstAddr != 0xC0A80102 { // 192.168.1.2
		t.Errorf("Expected DstAddr 0xC0A80102, got 0x%08X", decoded.DstAddr)
	}
	if decoded.SrcPort != 5000 {
		t.Errorf("Expected SrcPort 5000, got %d", decoded.SrcPort)
	}
	if decoded.DstPort != 5001 {
		t.Errorf("Expected DstPort 5001, got %d", decoded.DstPort)
	}
	if decoded.Tagged {
		t.Error("Expected untagged packet")
	}
	if decoded.PayloadLen != 8 { // 28 total - 20 header
		t.Errorf("Expected PayloadLen 8, got %d", decoded.PayloadLen)
	}
	if len(decoded.Network) != 28 {
		t.Errorf("Expected 28 network bytes, got %d", len(decoded.Network))
	}
}

func TestDecodeVLANTagged(t *testing.T) {
	base := makeEthernetUDPPacket()

	// Insert a single 802.1Q tag (VLAN 100) between MACs and EtherType.
	packet := make([]byte, 0, len(base)+4)
	packet = append(packet, base[:12]...)
	packet = append(packet, 0x81, 0x00, 0x00, 0x64) // TPID, TCI: VLAN 100
	packet = append(packet, 0x08, 0x00)             // inner EtherType: IPv4
	packet = append(packet, base[14:]...)

	decoded, err := Decode(layers.LinkTypeEthernet, rawFrom(packet))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if !decoded.Tagged {
		t.Error("Expected tagged packet")
	}
	if decoded.VLAN != 100 {
		t.Errorf("Expected VLAN 100, got %d", decoded.VLAN)
	}
	if decoded.SrcPort != 5000 {
		t.Errorf("Expected SrcPort 5000 after tag strip, got %d", decoded.SrcPort)
	}
}

func TestDecodeStackedVLAN(t *testing.T) {
	base := makeEthernetUDPPacket()

	// QinQ: outer 0x88A8 tag (VLAN 200), inner 0x8100 tag (VLAN 300).
	packet := make([]byte, 0, len(base)+8)
	packet = append(packet, base[:12]...)
	packet = append(packet, 0x88, 0xA8, 0x00, 0xC8) // outer: VLAN 200
	packet = append(packet, 0x81, 0x00, 0x01, 0x2C) // inner: VLAN 300
	packet = append(packet, 0x08, 0x00)
	packet = append(packet, base[14:]...)

	decoded, err := Decode(layers.LinkTypeEthernet, rawFrom(packet))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if decoded.VLAN != 300 {
		t.Errorf("Expected innermost VLAN 300, got %d", decoded.VLAN)
	}
}

func TestDecodeUnsupportedLinkType(t *testing.T) {
	_, err := Decode(layers.LinkTypePPP, rawFrom(makeEthernetUDPPacket()))
	if !errors.Is(err, core.ErrUnsupportedLinkType) {
		t.Errorf("Expected ErrUnsupportedLinkType, got %v", err)
	}
}

func TestDecodeNonIPEtherType(t *testing.T) {
	packet := makeEthernetUDPPacket()
	packet[12], packet[13] = 0x08, 0x06 // ARP

	_, err := Decode(layers.LinkTypeEthernet, rawFrom(packet))
	if !errors.Is(err, core.ErrUnsupportedEther) {
		t.Errorf("Expected ErrUnsupportedEther, got %v", err)
	}
}

func TestDecodeIPv6Excluded(t *testing.T) {
	packet := makeEthernetUDPPacket()
	packet[12], packet[13] = 0x86, 0xDD

	_, err := Decode(layers.LinkTypeEthernet, rawFrom(packet))
	if !errors.Is(err, core.ErrUnsupportedEther) {
		t.Errorf("Expected ErrUnsupportedEther for IPv6, got %v", err)
	}
}

func TestDecodeRawIPFamilies(t *testing.T) {
	ipPart := makeEthernetUDPPacket()[14:]

	cases := []struct {
		name   string
		family [4]byte
		ipv4   bool
	}{
		{"af_inet little-endian", [4]byte{2, 0, 0, 0}, true},
		{"af_inet big-endian", [4]byte{0, 0, 0, 2}, true},
		{"af_inet6", [4]byte{0, 0, 0, 30}, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			packet := append(tc.family[:], ipPart...)
			decoded, err := Decode(layers.LinkTypeNull, rawFrom(packet))
			if tc.ipv4 {
				if err != nil {
					t.Fatalf("Decode failed: %v", err)
				}
				if decoded.SrcPort != 5000 {
					t.Errorf("Expected SrcPort 5000, got %d", decoded.SrcPort)
				}
			} else if !errors.Is(err, core.ErrUnsupportedEther) {
				t.Errorf("Expected ErrUnsupportedEther, got %v", err)
			}
		})
	}
}

func TestDecodeLinuxCooked(t *testing.T) {
	ipPart := makeEthernetUDPPacket()[14:]

	// SLL header: 16 bytes, protocol field at offset 14.
	sll := make([]byte, sllHeaderLen)
	sll[14], sll[15] = 0x08, 0x00
	packet := append(sll, ipPart...)

	decoded, err := Decode(layers.LinkTypeLinuxSLL, rawFrom(packet))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if decoded.DstPort != 5001 {
		t.Errorf("Expected DstPort 5001, got %d", decoded.DstPort)
	}
}

func TestDecodeTruncated(t *testing.T) {
	packet := makeEthernetUDPPacket()

	cases := []struct {
		name string
		n    int
	}{
		{"empty", 0},
		{"partial ethernet", 10},
		{"partial ip header", 20},
		{"missing ports", 35},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Decode(layers.LinkTypeEthernet, rawFrom(packet[:tc.n]))
			if !errors.Is(err, core.ErrPacketTooShort) {
				t.Errorf("Expected ErrPacketTooShort, got %v", err)
			}
		})
	}
}

func TestDecodeCaptureLenLimit(t *testing.T) {
	// CaptureLen below the slice length must bound all reads.
	raw := rawFrom(makeEthernetUDPPacket())
	raw.CaptureLen = 30

	_, err := Decode(layers.LinkTypeEthernet, raw)
	if !errors.Is(err, core.ErrPacketTooShort) {
		t.Errorf("Expected ErrPacketTooShort, got %v", err)
	}
}

func TestDecodeBadIPVersion(t *testing.T) {
	packet := makeEthernetUDPPacket()
	packet[14] = 0x75 // version 7

	_, err := Decode(layers.LinkTypeEthernet, rawFrom(packet))
	if !errors.Is(err, core.ErrUnsupportedProto) {
		t.Errorf("Expected ErrUnsupportedProto, got %v", err)
	}
}

func TestDecodeLengthInconsistency(t *testing.T) {
	packet := makeEthernetUDPPacket()
	// Total length 16 < header length 20: mutually inconsistent.
	packet[16], packet[17] = 0x00, 0x10

	_, err := Decode(layers.LinkTypeEthernet, rawFrom(packet))
	if !errors.Is(err, core.ErrLengthInconsistent) {
		t.Errorf("Expected ErrLengthInconsistent, got %v", err)
	}
}

func BenchmarkDecode(b *testing.B) {
	raw := rawFrom(makeEthernetUDPPacket())

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, err := Decode(layers.LinkTypeEthernet, raw)
		if err != nil {
			b.Fatal(err)
		}
	}
}
