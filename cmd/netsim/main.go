// Command netsim runs the discrete-event network simulator against a
// topology document.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/virtclock/netsim/internal"
	"github.com/virtclock/netsim/internal/config"
	"github.com/virtclock/netsim/internal/pcapexport"
	"github.com/virtclock/netsim/internal/simmetrics"
	"github.com/virtclock/netsim/internal/topology"
	"github.com/virtclock/netsim/internal/tracesink"
)

var (
	topologyFile string
	configFile   string
	pcapFile     string
	verbose      bool
)

var rootCmd = &cobra.Command{
	Use:   "netsim",
	Short: "Discrete-event network simulator",
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a simulation to completion and print a summary",
	RunE: func(cmd *cobra.Command, args []string) error {
		doc, cfg, err := loadInputs()
		if err != nil {
			return err
		}

		logger := &internal.ApexLogger{Verbose: verbose || cfg.Verbose}
		sim, err := topology.Build(doc, cfg, logger)
		if err != nil {
			return fmt.Errorf("netsim: build topology: %w", err)
		}

		metrics := simmetrics.New()
		collector := simmetrics.NewCollector(metrics, sim.Context().Recorder)

		var pcapWriter *pcapexport.Writer
		if pcapFile != "" {
			f, err := os.Create(pcapFile)
			if err != nil {
				return fmt.Errorf("netsim: create %s: %w", pcapFile, err)
			}
			defer f.Close()
			pcapWriter, err = pcapexport.New(f, time.Unix(0, 0))
			if err != nil {
				return fmt.Errorf("netsim: init pcap writer: %w", err)
			}
		}

		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer cancel()

		var g errgroup.Group
		g.Go(collector.Run)
		if pcapWriter != nil {
			g.Go(func() error {
				return pcapWriter.Drain(sim.Context().Recorder.SentChan())
			})
		}
		if verbose || cfg.Verbose {
			trace := tracesink.New(os.Stdout)
			g.Go(func() error {
				return trace.Run(sim.Context().Recorder)
			})
		}

		summary, runErr := sim.Run(ctx)
		if err := g.Wait(); err != nil {
			logger.Warnf("netsim: sink drain: %s", err.Error())
		}
		if runErr != nil {
			return fmt.Errorf("netsim: run: %w", runErr)
		}

		fmt.Printf("finished at t=%.6fs, %d events processed\n", summary.FinalTime, summary.EventsProcessed)
		for id, fs := range summary.Flows {
			fmt.Printf("  flow %s: finished=%v bytes_remaining=%d final_window=%.2f\n",
				id, fs.Finished, fs.BytesRemaining, fs.FinalWindow)
		}
		return nil
	},
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Parse and wire a topology without running it",
	RunE: func(cmd *cobra.Command, args []string) error {
		doc, cfg, err := loadInputs()
		if err != nil {
			return err
		}
		if _, err := topology.Build(doc, cfg, &internal.NullLogger{}); err != nil {
			return fmt.Errorf("netsim: invalid topology: %w", err)
		}
		fmt.Println("topology OK")
		return nil
	},
}

func loadInputs() (*topology.Document, *config.Config, error) {
	if topologyFile == "" {
		return nil, nil, fmt.Errorf("netsim: --topology is required")
	}
	raw, err := os.ReadFile(topologyFile)
	if err != nil {
		return nil, nil, fmt.Errorf("netsim: read %s: %w", topologyFile, err)
	}
	doc := &topology.Document{}
	if err := json.Unmarshal(raw, doc); err != nil {
		return nil, nil, fmt.Errorf("netsim: parse %s: %w", topologyFile, err)
	}
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, nil, err
	}
	return doc, cfg, nil
}

func init() {
	rootCmd.PersistentFlags().StringVar(&topologyFile, "topology", "", "path to a topology JSON document")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "path to a YAML simulation configuration file")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "enable human-readable tracing")

	runCmd.Flags().StringVar(&pcapFile, "pcap-out", "", "optional path to write a synthetic pcap capture")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(validateCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
