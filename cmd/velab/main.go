// Command velab runs the elaboration stage standalone: it loads a netlist
// description and the global options, flattens the hierarchy into scopes,
// and optionally dumps the resulting scope tree.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/ynivin/verilator/internal/ast"
	"github.com/ynivin/verilator/internal/config"
	"github.com/ynivin/verilator/internal/ctxlog"
	"github.com/ynivin/verilator/internal/elab"
	"github.com/ynivin/verilator/internal/hclnet"
)

func main() {
	if err := run(os.Stdout, os.Args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// run encapsulates the driver logic for easier testing and error handling.
func run(outW io.Writer, args []string) error {
	flagSet := flag.NewFlagSet("velab", flag.ContinueOnError)
	flagSet.SetOutput(outW)

	netlistFlag := flagSet.String("netlist", "", "Path to the HCL netlist description.")
	optionsFlag := flagSet.String("options", "", "Path to the HCL options file (clock name lists).")
	logLevelFlag := flagSet.String("log-level", "info", "Logging level: 'debug', 'info', 'warn', 'error'.")
	logFormatFlag := flagSet.String("log-format", "text", "Log output format: 'text' or 'json'.")
	dumpFlag := flagSet.Bool("dump", false, "Dump the elaborated scope tree to stdout.")

	if err := flagSet.Parse(args); err != nil {
		return err
	}
	if *netlistFlag == "" {
		flagSet.Usage()
		return fmt.Errorf("velab: -netlist is required")
	}

	logger := newLogger(*logLevelFlag, *logFormatFlag, os.Stderr)
	ctx := ctxlog.WithLogger(context.Background(), logger)

	var opts *config.Options
	if *optionsFlag != "" {
		var err error
		if opts, err = config.LoadFile(*optionsFlag); err != nil {
			return err
		}
	}

	nl, err := hclnet.LoadFile(*netlistFlag)
	if err != nil {
		return err
	}

	if err := elab.ScopeAll(ctx, nl, opts); err != nil {
		return fmt.Errorf("elaboration failed: %w", err)
	}
	logger.Info("Elaboration complete.", "modules", len(nl.Modules))

	if *dumpFlag {
		ast.DumpScopes(outW, nl)
	}
	return nil
}

// newLogger creates a slog.Logger without touching the process default, so
// tests can run drivers with isolated loggers.
func newLogger(levelStr, formatStr string, outW io.Writer) *slog.Logger {
	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	handlerOpts := &slog.HandlerOptions{Level: level}
	if formatStr == "json" {
		return slog.New(slog.NewJSONHandler(outW, handlerOpts))
	}
	return slog.New(slog.NewTextHandler(outW, handlerOpts))
}
