package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"time"

	"golang.org/x/term"

	"github.com/wudi/epsfix"
	"github.com/wudi/epsfix/convert"
	"github.com/wudi/epsfix/convert/inkscape"
	"github.com/wudi/epsfix/observability"
	"github.com/wudi/epsfix/scanner"
	"github.com/wudi/epsfix/writer"
)

var errUsage = errors.New("usage")

type options struct {
	input    string
	output   string
	inkscape string
	noConv   bool
	keepTemp bool
	timeout  time.Duration
	sync     bool
	maxLine  int64
	psLevel  int
	verbose  bool
	quiet    bool
}

func main() {
	opts, err := parseFlags(flag.CommandLine, os.Args[1:])
	if err != nil {
		if !errors.Is(err, flag.ErrHelp) {
			fmt.Fprintf(os.Stderr, "fixeps: %v\n", err)
		}
		os.Exit(2)
	}

	logger := newLogger(os.Stderr, opts)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, opts, logger); err != nil {
		logger.Error("fix failed", observability.Error("error", err))
		stop()
		os.Exit(1)
	}
}

func parseFlags(fs *flag.FlagSet, args []string) (options, error) {
	var opts options
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: fixeps [flags] <input.eps> <output.eps>\n\n")
		fmt.Fprintf(fs.Output(), "Fixes EPS figures exported by MATLAB 2014b and later.\n\nFlags:\n")
		fs.PrintDefaults()
	}
	fs.StringVar(&opts.inkscape, "inkscape", "", "Path to the Inkscape binary (default: $"+inkscape.EnvBinary+", then PATH)")
	fs.BoolVar(&opts.noConv, "no-convert", false, "Skip Inkscape; the input is already normalized")
	fs.BoolVar(&opts.keepTemp, "keep-temp", false, "Keep the normalized intermediate file")
	fs.DurationVar(&opts.timeout, "timeout", 2*time.Minute, "Timeout for the conversion step")
	fs.BoolVar(&opts.sync, "sync", false, "Flush the output to stable storage before replacing it")
	fs.Int64Var(&opts.maxLine, "max-line", scanner.DefaultMaxLineLength, "Longest line accepted in the converted file, in bytes")
	fs.IntVar(&opts.psLevel, "ps-level", 0, "PostScript language level passed to Inkscape (2 or 3)")
	fs.BoolVar(&opts.verbose, "v", false, "Verbose logging")
	fs.BoolVar(&opts.quiet, "q", false, "Only log errors")
	if err := fs.Parse(args); err != nil {
		return options{}, err
	}

	if fs.NArg() != 2 {
		fs.Usage()
		return options{}, fmt.Errorf("%w: expected input and output paths, got %d argument(s)", errUsage, fs.NArg())
	}
	opts.input = fs.Arg(0)
	opts.output = fs.Arg(1)
	if opts.verbose && opts.quiet {
		return options{}, fmt.Errorf("%w: -v and -q are mutually exclusive", errUsage)
	}
	if opts.psLevel != 0 && opts.psLevel != 2 && opts.psLevel != 3 {
		return options{}, fmt.Errorf("%w: -ps-level must be 2 or 3, got %d", errUsage, opts.psLevel)
	}
	if opts.maxLine <= 0 {
		return options{}, fmt.Errorf("%w: -max-line must be positive", errUsage)
	}
	return opts, nil
}

// newLogger logs text to a terminal and JSON otherwise.
func newLogger(w *os.File, opts options) observability.Logger {
	level := slog.LevelInfo
	switch {
	case opts.verbose:
		level = slog.LevelDebug
	case opts.quiet:
		level = slog.LevelError
	}
	return observability.NewSlogLogger(slog.New(newHandler(w, term.IsTerminal(int(w.Fd())), level)))
}

func newHandler(w io.Writer, interactive bool, level slog.Level) slog.Handler {
	hopts := &slog.HandlerOptions{Level: level}
	if interactive {
		return slog.NewTextHandler(w, hopts)
	}
	return slog.NewJSONHandler(w, hopts)
}

func run(ctx context.Context, opts options, logger observability.Logger) error {
	var conv convert.Converter
	switch {
	case opts.noConv:
		conv = convert.Copy()
	case opts.inkscape != "":
		conv = inkscape.New(inkscape.WithBinary(opts.inkscape))
	default:
		conv = convert.DefaultConverter()
	}

	if opts.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.timeout)
		defer cancel()
	}

	fixOpts := []epsfix.Option{
		epsfix.WithConverter(conv),
		epsfix.WithLogger(logger),
		epsfix.WithKeepTemp(opts.keepTemp),
		epsfix.WithScannerConfig(scanner.Config{MaxLineLength: opts.maxLine}),
		epsfix.WithWriterConfig(writer.Config{Sync: opts.sync}),
	}
	if opts.psLevel != 0 {
		fixOpts = append(fixOpts, epsfix.WithRequestOptions(
			convert.WithMetadata(map[string]string{"ps-level": strconv.Itoa(opts.psLevel)})))
	}
	_, err := epsfix.New(fixOpts...).Fix(ctx, opts.input, opts.output)
	return err
}
