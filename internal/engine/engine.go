// Package engine sequences captured packets through header decoding, flow
// identity, per-flow accounting and application-protocol classification.
package engine

import (
	"errors"
	"fmt"
	"io"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"

	"firestige.xyz/strix/internal/classify"
	"firestige.xyz/strix/internal/clock"
	"firestige.xyz/strix/internal/core"
	"firestige.xyz/strix/internal/core/decoder"
	"firestige.xyz/strix/internal/flow"
	"firestige.xyz/strix/internal/log"
)

const (
	protocolTCP = 6
	protocolUDP = 17

	// Packets without a payload match before the heuristic fallback kicks in.
	defaultTCPGuessAfter = 10
	defaultUDPGuessAfter = 8
)

// PacketSource produces a finite sequence of captured packets. ReadPacket
// returns io.EOF when the capture is exhausted.
type PacketSource interface {
	ReadPacket() (data []byte, ci gopacket.CaptureInfo, err error)
	LinkType() layers.LinkType
}

// Config tunes the engine. Zero values select defaults.
type Config struct {
	TickResolution uint64
	TCPGuessAfter  uint64
	UDPGuessAfter  uint64
}

// Stats are the run-wide aggregate counters.
type Stats struct {
	Packets    uint64 // records read from the source
	Accounted  uint64 // packets that reached flow accounting
	Skipped    uint64 // excluded: unsupported link, non-IPv4, truncated
	Bytes      uint64 // original on-wire bytes of all records
	VLANTagged uint64
}

// Engine owns all per-run state: the flow table, the timestamp normalizer
// and the aggregate counters. Processing is strictly sequential.
type Engine struct {
	classifier    classify.Classifier
	table         *flow.Table
	clock         *clock.Normalizer
	log           log.Logger
	stats         Stats
	tcpGuessAfter uint64
	udpGuessAfter uint64
}

// New creates an engine around the given classifier.
func New(classifier classify.Classifier, cfg Config) *Engine {
	if cfg.TCPGuessAfter == 0 {
		cfg.TCPGuessAfter = defaultTCPGuessAfter
	}
	if cfg.UDPGuessAfter == 0 {
		cfg.UDPGuessAfter = defaultUDPGuessAfter
	}
	return &Engine{
		classifier:    classifier,
		table:         flow.NewTable(),
		clock:         clock.NewNormalizer(cfg.TickResolution),
		log:           log.GetLogger(),
		tcpGuessAfter: cfg.TCPGuessAfter,
		udpGuessAfter: cfg.UDPGuessAfter,
	}
}

// Run drains the source. It returns an error only for fatal conditions:
// source failures and length-inconsistent captures. Recoverable decode
// problems are counted and skipped.
func (e *Engine) Run(src PacketSource) error {
	linkType := src.LinkType()
	for {
		data, ci, err := src.ReadPacket()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read packet: %w", err)
		}
		if err := e.ProcessPacket(linkType, data, ci); err != nil {
			return err
		}
	}
}

// ProcessPacket runs one captured packet through the pipeline.
func (e *Engine) ProcessPacket(linkType layers.LinkType, data []byte, ci gopacket.CaptureInfo) error {
	e.stats.Packets++
	e.stats.Bytes += uint64(ci.Length)

	raw := core.RawPacket{
		Data:       data,
		Timestamp:  ci.Timestamp,
		CaptureLen: uint32(ci.CaptureLength),
		OrigLen:    uint32(ci.Length),
	}

	decoded, err := decoder.Decode(linkType, raw)
	if decoded.Tagged {
		e.stats.VLANTagged++
	}
	if err != nil {
		if errors.Is(err, core.ErrLengthInconsistent) {
			return fmt.Errorf("malformed capture at packet %d: %w", e.stats.Packets, err)
		}
		e.stats.Skipped++
		if e.log.IsTraceEnabled() {
			e.log.WithError(err).Tracef("packet %d excluded from flow accounting", e.stats.Packets)
		}
		return nil
	}

	tick := e.clock.Tick(decoded.Timestamp)

	key, swapped := flow.NewKey(decoded.VLAN, decoded.Protocol,
		decoded.SrcAddr, decoded.SrcPort, decoded.DstAddr, decoded.DstPort)
	f, created := e.table.LookupOrCreate(key, tick)
	f.Account(decoded.OrigLen, tick)
	e.stats.Accounted++

	if e.log.IsTraceEnabled() {
		e.log.WithFields(map[string]interface{}{
			"key":     fmt.Sprintf("%+v", key),
			"swapped": swapped,
			"created": created,
			"tick":    tick,
		}).Trace("flow key computed")
	}

	e.classifyPacket(f, &decoded, swapped, tick)
	return nil
}

// classifyPacket applies the detection state machine. Detected and Guessed
// are terminal: classified flows never reach the classifier again.
func (e *Engine) classifyPacket(f *flow.Flow, d *core.DecodedPacket, swapped bool, tick uint64) {
	if f.State.Terminal() {
		return
	}

	src, dst := f.Endpoints(swapped)
	res := e.classifier.ProcessPacket(f.Ctx, src, dst, d.Network, d.PayloadLen, tick)
	if res.App != classify.ProtoUnknown {
		f.State = flow.Detected
		f.Result = res
		return
	}

	guessAfter := e.tcpGuessAfter
	if f.Key.Protocol == protocolUDP {
		guessAfter = e.udpGuessAfter
	}
	if f.NumPackets <= guessAfter {
		return
	}

	// No retry cap: an unmatched flow past the threshold is re-guessed on
	// every subsequent packet. TODO: cap retries once the port table
	// stops being the only guess source; today repeated calls are pure
	// overhead since the tuple never changes.
	res = e.classifier.GuessUndetected(f.Key.Protocol,
		f.Key.LowAddr, f.Key.LowPort, f.Key.HighAddr, f.Key.HighPort)
	if res.App != classify.ProtoUnknown {
		f.State = flow.Guessed
		f.Result = res
	}
}

// Table exposes the flow table for reporting.
func (e *Engine) Table() *flow.Table { return e.table }

// Clock exposes the timestamp normalizer for reporting.
func (e *Engine) Clock() *clock.Normalizer { return e.clock }

// Stats returns a copy of the aggregate counters.
func (e *Engine) Stats() Stats { return e.stats }
