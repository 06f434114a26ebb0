// Package file reads captured packets from a pcap file.
package file

import (
	"fmt"
	"io"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcap"
)

// Source is a lazy, non-restartable packet source over one capture file.
type Source struct {
	path   string
	handle *pcap.Handle
}

// Open opens the capture for reading. A non-empty BPF filter is applied to
// the handle before any packet is read.
func Open(path, filter string) (*Source, error) {
	handle, err := pcap.OpenOffline(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open pcap file %s: %w", path, err)
	}
	if filter != "" {
		if err := handle.SetBPFFilter(filter); err != nil {
			handle.Close()
			return nil, fmt.Errorf("failed to set BPF filter %q: %w", filter, err)
		}
	}
	return &Source{path: path, handle: handle}, nil
}

// ReadPacket returns the next packet record, io.EOF at end of capture.
func (s *Source) ReadPacket() ([]byte, gopacket.CaptureInfo, error) {
	data, ci, err := s.handle.ReadPacketData()
	if err != nil {
		if err == io.EOF {
			return nil, gopacket.CaptureInfo{}, io.EOF
		}
		return nil, gopacket.CaptureInfo{}, fmt.Errorf("failed to read packet: %w", err)
	}
	return data, ci, nil
}

// LinkType reports the capture's link layer.
func (s *Source) LinkType() layers.LinkType {
	return s.handle.LinkType()
}

// Path returns the capture file path.
func (s *Source) Path() string { return s.path }

// Close releases the pcap handle.
func (s *Source) Close() error {
	if s.handle != nil {
		s.handle.Close()
		s.handle = nil
	}
	return nil
}
