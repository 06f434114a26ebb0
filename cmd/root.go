// Package cmd implements the CLI using the cobra framework.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"firestige.xyz/strix/internal/classify"
	"firestige.xyz/strix/internal/config"
	"firestige.xyz/strix/internal/engine"
	"firestige.xyz/strix/internal/log"
	"firestige.xyz/strix/internal/report"
	"firestige.xyz/strix/internal/source/file"
)

// defaultCapture is the bundled sample processed when no file is given.
const defaultCapture = "testdata/sample.pcap"

var (
	configFile string
	filterExpr string
)

var rootCmd = &cobra.Command{
	Use:   "strix [capture-file]",
	Short: "Strix - offline traffic flow inspection",
	Long: `Strix reads a packet capture file, reconstructs bidirectional traffic
flows, classifies each flow's application protocol and prints a per-flow
summary report.

Set STRIX_TRACE=1 to enable verbose tracing of header decoding and
flow-key computation.

Examples:
  strix                         # inspect the bundled sample capture
  strix traffic.pcap            # inspect a capture file
  strix -f "port 443" big.pcap  # inspect only matching packets`,
	Version:       "0.1.0",
	Args:          cobra.MaximumNArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          run,
}

// Execute runs the root command. This is called by main.main().
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.Flags().StringVarP(&configFile, "config", "c", "", "config file path")
	rootCmd.Flags().StringVarP(&filterExpr, "filter", "f", "", "BPF filter applied to the capture")
}

func run(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configFile)
	if err != nil {
		return err
	}
	if os.Getenv("STRIX_TRACE") != "" {
		cfg.Log.Level = "trace"
	}
	if err := log.Init(cfg.Log); err != nil {
		return err
	}
	logger := log.GetLogger()

	input := defaultCapture
	if len(args) > 0 {
		input = args[0]
	}
	filter := cfg.Filter
	if filterExpr != "" {
		filter = filterExpr
	}

	classifier, err := buildClassifier(cfg)
	if err != nil {
		return err
	}

	src, err := file.Open(input, filter)
	if err != nil {
		return err
	}
	defer src.Close()

	eng := engine.New(classifier, engine.Config{
		TickResolution: cfg.Engine.TickResolution,
		TCPGuessAfter:  cfg.Engine.TCPGuessAfter,
		UDPGuessAfter:  cfg.Engine.UDPGuessAfter,
	})

	logger.WithField("input", input).Info("processing capture")
	if err := eng.Run(src); err != nil {
		return err
	}

	stats := eng.Stats()
	summary := report.Summary{
		InputPath:     input,
		EngineVersion: classifier.Version(),
		Resolution:    eng.Clock().Resolution(),
		Begin:         eng.Clock().Begin(),
		End:           eng.Clock().End(),
		Repaired:      eng.Clock().Repaired(),
		Stats:         stats,
		Flows:         eng.Table().Flows(),
		ProtocolName:  classifier.ProtocolName,
	}
	if err := summary.Write(os.Stdout); err != nil {
		return err
	}

	logger.WithFields(map[string]interface{}{
		"packets": stats.Packets,
		"flows":   eng.Table().Len(),
		"skipped": stats.Skipped,
	}).Info("capture processed")
	return nil
}

func buildClassifier(cfg *config.Config) (*classify.Engine, error) {
	var opts []classify.Option

	if len(cfg.Classifier.Disabled) > 0 {
		mask := classify.AllProtocols()
		for _, name := range cfg.Classifier.Disabled {
			p := classify.ProtocolByName(name)
			if p == classify.ProtoUnknown {
				return nil, fmt.Errorf("unknown protocol in classifier.disabled: %q", name)
			}
			mask = mask.Without(p)
		}
		opts = append(opts, classify.WithEnabled(mask))
	}

	if cfg.Classifier.PortsFile != "" {
		overrides, err := classify.LoadPortOverrides(cfg.Classifier.PortsFile)
		if err != nil {
			return nil, err
		}
		opts = append(opts, classify.WithPortOverrides(overrides))
	}

	return classify.NewEngine(cfg.Engine.TickResolution, opts...), nil
}
