package main

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/davecgh/go-spew/spew"
	"github.com/mfs409/llvm-transmem/internal/pass"
	"github.com/mfs409/llvm-transmem/internal/sample"
	"github.com/mfs409/llvm-transmem/ir"
	"github.com/spf13/cobra"
)

var root = &cobra.Command{
	Use:   "tmpass",
	Short: "Transactional-memory instrumentation for a host compiler's IR",
}

func main() {
	root.AddCommand(
		instrumentCmd(),
		describeCmd(),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var (
	flagLogPath       string
	flagInstrumentRds bool
	flagPureOverrides []string
	flagDiffOut       string
)

func panicOnError(err error) {
	if err != nil {
		panic(err)
	}
}

func instrumentCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "instrument",
		Short: "Run discovery, cloning, and instrumentation over the built-in sample module",
		Long: "instrument builds the package's in-memory sample module (standing in for a module handed " +
			"off by the host compiler), runs the full pass over it, and prints the result. A real " +
			"integration calls pass.Run directly against the host's own ir.Module instead of shelling " +
			"out to this binary.",
		RunE: runInstrument,
	}

	fs := cmd.Flags()
	fs.StringVar(&flagLogPath, "log", "", "Path for verbose trace output")
	fs.BoolVar(&flagInstrumentRds, "instrument-reads", true, "Instrument non-volatile, non-atomic loads in addition to stores")
	fs.StringSliceVar(&flagPureOverrides, "pure", nil, "Additional function names to seed into the pure set")
	fs.StringVar(&flagDiffOut, "diff", "", "Path to write the pre-instrumentation module text, for comparison against the post-instrumentation dump")

	return cmd
}

func describeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "describe",
		Short: "Print the pass's default configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			spew.Fdump(cmd.OutOrStdout(), pass.DefaultConfig())
			return nil
		},
	}
}

func runInstrument(cmd *cobra.Command, args []string) error {
	var logWriter io.Writer
	if flagLogPath != "" {
		logFile, err := os.Create(flagLogPath)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		defer logFile.Close()

		logBuf := bufio.NewWriter(logFile)
		defer logBuf.Flush()
		logWriter = logBuf
	}

	m := sample.BuildModule()

	if flagDiffOut != "" {
		if err := os.WriteFile(flagDiffOut, []byte(ir.Text(m)), 0o644); err != nil {
			return fmt.Errorf("write pre-instrumentation dump: %w", err)
		}
	}

	cfg := pass.DefaultConfig()
	cfg.InstrumentReads = flagInstrumentRds
	cfg.DiscoveryPureOverrides = flagPureOverrides

	state := pass.NewState(m, cfg)
	if logWriter != nil {
		state.Trace = func(format string, a ...any) {
			fmt.Fprintf(logWriter, format+"\n", a...)
		}
	}

	if err := pass.Run(state); err != nil {
		return fmt.Errorf("run pass: %w", err)
	}

	ir.Dump(cmd.OutOrStdout(), m)
	return nil
}
