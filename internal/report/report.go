// Package report renders the end-of-run summary.
package report

import (
	"fmt"
	"io"
	"text/tabwriter"

	"firestige.xyz/strix/internal/classify"
	"firestige.xyz/strix/internal/engine"
	"firestige.xyz/strix/internal/flow"
)

// Summary collects everything the printed report needs.
type Summary struct {
	InputPath     string
	EngineVersion string
	Resolution    uint64
	Begin         uint64
	End           uint64
	Repaired      uint64
	Stats         engine.Stats
	Flows         []*flow.Flow
	ProtocolName  func(classify.Protocol) string
}

// Write prints the per-flow table and the aggregate counters.
func (s Summary) Write(w io.Writer) error {
	fmt.Fprintf(w, "strix (detection engine %s)\n", s.EngineVersion)
	fmt.Fprintf(w, "input: %s\n\n", s.InputPath)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tLOW\tHIGH\tPROTO\tVLAN\tPACKETS\tBYTES\tDETECTED")
	for i, f := range s.Flows {
		fmt.Fprintf(tw, "%d\t%s:%d\t%s:%d\t%s\t%s\t%d\t%d\t%s\n",
			i+1,
			f.LowAddr, f.Key.LowPort,
			f.HighAddr, f.Key.HighPort,
			transportName(f.Key.Protocol),
			vlanLabel(f.Key.VLAN),
			f.NumPackets,
			f.NumBytes,
			s.detectedLabel(f),
		)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(w, "\npackets: %d (accounted %d, skipped %d)\n",
		s.Stats.Packets, s.Stats.Accounted, s.Stats.Skipped)
	fmt.Fprintf(w, "bytes: %d\n", s.Stats.Bytes)
	fmt.Fprintf(w, "flows: %d\n", len(s.Flows))
	fmt.Fprintf(w, "vlan-tagged packets: %d\n", s.Stats.VLANTagged)
	fmt.Fprintf(w, "capture span: %d ticks at %d/s", s.End-s.Begin, s.Resolution)
	if s.Repaired > 0 {
		fmt.Fprintf(w, " (%d timestamps repaired)", s.Repaired)
	}
	fmt.Fprintln(w)
	return nil
}

// detectedLabel renders the classification column: "TLS.IMAP" when a master
// protocol refined the match, a "(guessed)" suffix for port heuristics.
func (s Summary) detectedLabel(f *flow.Flow) string {
	if !f.State.Terminal() {
		return "Unknown"
	}
	name := s.ProtocolName(f.Result.App)
	if f.Result.Master != classify.ProtoUnknown {
		name = s.ProtocolName(f.Result.Master) + "." + name
	}
	if f.State == flow.Guessed {
		name += " (guessed)"
	}
	return name
}

func transportName(protocol uint8) string {
	switch protocol {
	case 1:
		return "ICMP"
	case 6:
		return "TCP"
	case 17:
		return "UDP"
	case 132:
		return "SCTP"
	default:
		return fmt.Sprintf("%d", protocol)
	}
}

func vlanLabel(vlan uint16) string {
	if vlan == 0 {
		return "-"
	}
	return fmt.Sprintf("%d", vlan)
}
