// Command dotfmt formats demolang source (see package demolang) using the
// linewrap core, reading from stdin and writing the formatted result to
// stdout.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime"
	"runtime/pprof"

	"github.com/teleivo/linewrap"
	"github.com/teleivo/linewrap/align"
	"github.com/teleivo/linewrap/driver"
	"github.com/teleivo/linewrap/internal/demolang"
	"github.com/teleivo/linewrap/internal/version"
	"github.com/teleivo/linewrap/search"
	"github.com/teleivo/linewrap/token"
)

func main() {
	if err := run(os.Args, os.Stdin, os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}

func run(args []string, r io.Reader, w io.Writer, wErr io.Writer) error {
	flags := flag.NewFlagSet(args[0], flag.ExitOnError)
	flags.SetOutput(wErr)
	showVersion := flags.Bool("version", false, "print the dotfmt version and exit")
	verbose := flags.Bool("verbose", false, "log formatting decisions to stderr")
	columnLimit := flags.Int("column-limit", 100, "target maximum column width")
	indentSpaces := flags.Int("indent", 4, "number of spaces per indentation level")
	maxStates := flags.Int("max-states", 100_000, "maximum wrap-search states per partition before greedily finishing; 0 means unbounded")
	cpuProfile := flags.String("cpuprofile", "", "write cpu profile to `file`")
	memProfile := flags.String("memprofile", "", "write memory profile to `file`")

	if err := flags.Parse(args[1:]); err != nil {
		return err
	}

	if *showVersion {
		fmt.Fprintln(w, version.Version())
		return nil
	}

	logLevel := slog.LevelWarn
	if *verbose {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(wErr, &slog.HandlerOptions{Level: logLevel}))

	if *cpuProfile != "" {
		f, err := os.Create(*cpuProfile)
		if err != nil {
			return fmt.Errorf("could not create CPU profile: %v", err)
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			return fmt.Errorf("could not start CPU profile: %v", err)
		}
		defer pprof.StopCPUProfile()
	}

	src, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("error reading input: %v", err)
	}

	style := linewrap.Style{
		IndentationSpaces:      *indentSpaces,
		WrapSpaces:             *indentSpaces,
		ColumnLimit:            *columnLimit,
		OverColumnLimitPenalty: 1000,
		LineBreakPenalty:       1,
	}

	out, err := formatSource(string(src), style, search.MaxStates(*maxStates), logger)
	var incomplete *linewrap.IncompleteError
	switch {
	case err == nil:
		fmt.Fprint(w, out)
	case errors.As(err, &incomplete):
		logger.Warn("formatting completed with greedily finished partitions", "partitions", incomplete.Partitions)
		fmt.Fprint(w, out)
	default:
		return err
	}

	if *memProfile != "" {
		f, err := os.Create(*memProfile)
		if err != nil {
			return fmt.Errorf("could not create memory profile: %v", err)
		}
		defer f.Close()
		runtime.GC() // materialize all statistics
		if err := pprof.WriteHeapProfile(f); err != nil {
			return fmt.Errorf("could not write memory profile: %v", err)
		}
	}

	return nil
}

// formatSource builds the Partition Tree for src and runs it through
// [driver.Format]. It returns the best text produced even when err wraps
// [linewrap.ErrResourceExhausted]: a greedily finished line is still usable
// output, just not provably optimal.
func formatSource(src string, style linewrap.Style, maxStates search.MaxStates, logger *slog.Logger) (string, error) {
	tree, tokens, err := demolang.Build(src)
	if err != nil {
		return "", fmt.Errorf("failed to parse input: %w", err)
	}
	logger.Debug("built partition tree", "tokens", len(tokens))

	alignCfg := driver.AlignConfig{
		Schema: demolang.Schema,
		Policy: align.PolicyAlign,
	}
	var diagnose driver.Diagnose
	if logger.Enabled(context.Background(), slog.LevelDebug) {
		diagnose = func(name, report string) {
			logger.Debug("search diagnostics", "partition", name, "report", report)
		}
	}
	return driver.Format(tree, tokens, src, style, maxStates, token.DisabledRanges{}, alignCfg, diagnose)
}
