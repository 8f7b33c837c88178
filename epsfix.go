// Package epsfix repairs EPS figures exported by MATLAB 2014b and later.
//
// A Fixer runs three stages. It converts the input through an external
// converter (Inkscape by default) into a per-run temporary file. It rewrites
// the patch and color-bar sequences of the normalized file. It then writes
// the result to the output path in one atomic step.
//
//	f := epsfix.New(epsfix.WithLogger(logger))
//	report, err := f.Fix(ctx, "figure.eps", "figure-fixed.eps")
//
// The converter is probed before any file is touched. If the probe or the
// conversion fails, no output file is written.
package epsfix

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/wudi/epsfix/contentstream"
	"github.com/wudi/epsfix/convert"
	"github.com/wudi/epsfix/dsc"
	"github.com/wudi/epsfix/observability"
	"github.com/wudi/epsfix/scanner"
	"github.com/wudi/epsfix/writer"
)

// Fixer runs the convert, rewrite and write stages.
type Fixer struct {
	converter convert.Converter
	logger    observability.Logger
	tracer    observability.Tracer
	scanCfg   scanner.Config
	writeCfg  writer.Config
	tempDir   string
	keepTemp  bool
	reqOpts   []convert.RequestOption

	createTemp func(dir, pattern string) (*os.File, error)
}

// Report summarizes one Fix call.
type Report struct {
	Input  string
	Output string
	// Header is the DSC header of the input as exported.
	Header     dsc.Header
	Conversion convert.Result
	Stats      contentstream.Stats
	// TempPath is the normalized intermediate file. It is only set when the
	// file was kept.
	TempPath string
	Bytes    int
	Elapsed  time.Duration
}

// New returns a Fixer that uses convert.DefaultConverter unless an option
// says otherwise.
func New(opts ...Option) *Fixer {
	f := &Fixer{
		converter: convert.DefaultConverter(),
		logger:    observability.NopLogger{},
		tracer:    observability.NopTracer(),

		createTemp: os.CreateTemp,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fix repairs input and writes the corrected EPS to output.
func (f *Fixer) Fix(ctx context.Context, input, output string) (Report, error) {
	start := time.Now()
	rep := Report{Input: input, Output: output}
	log := f.logger.With(observability.String("input", input))

	if err := f.probe(ctx, log); err != nil {
		return rep, err
	}

	hdr, err := f.inspect(input, log)
	if err != nil {
		return rep, err
	}
	rep.Header = hdr

	tmp, err := f.createTemp(f.tempDir, "epsfix-*.eps")
	if err != nil {
		return rep, fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return rep, fmt.Errorf("close temp file: %w", err)
	}
	if f.keepTemp {
		rep.TempPath = tmpPath
		log.Info("keeping intermediate file", observability.String("path", tmpPath))
	} else {
		defer os.Remove(tmpPath)
	}

	res, err := f.convert(ctx, input, tmpPath, log)
	if err != nil {
		return rep, err
	}
	rep.Conversion = res

	out, stats, err := f.rewrite(ctx, tmpPath, log)
	if err != nil {
		return rep, err
	}
	rep.Stats = stats

	_, span := f.tracer.StartSpan(ctx, observability.SpanWrite)
	err = writer.WriteFile(output, out, f.writeCfg)
	span.SetError(err)
	span.Finish()
	if err != nil {
		return rep, fmt.Errorf("write %s: %w", output, err)
	}
	rep.Bytes = len(out)
	rep.Elapsed = time.Since(start)

	log.Info("wrote corrected EPS",
		observability.String("output", output),
		observability.String("size", humanize.Bytes(uint64(len(out)))),
		observability.Int64("bytes", int64(len(out))),
		observability.Int("patch_groups", stats.GroupedFlushes),
		observability.Int("colorbars_merged", stats.ColorbarsMerged),
		observability.Duration("elapsed", rep.Elapsed))
	return rep, nil
}

func (f *Fixer) probe(ctx context.Context, log observability.Logger) error {
	p, ok := f.converter.(convert.Prober)
	if !ok {
		return nil
	}
	ctx, span := f.tracer.StartSpan(ctx, observability.SpanProbe)
	defer span.Finish()

	v, err := p.Probe(ctx)
	if err != nil {
		span.SetError(err)
		return fmt.Errorf("%s is needed to convert images to a parsable format: %w", f.converter.Name(), err)
	}
	span.SetTag("version", v.String())
	log.Debug("converter available",
		observability.String("converter", f.converter.Name()),
		observability.String("version", v.String()))
	return nil
}

// inspect reads the DSC header of the input. Only an unreadable file is an
// error; unexpected producers are logged and processed anyway.
func (f *Fixer) inspect(input string, log observability.Logger) (dsc.Header, error) {
	file, err := os.Open(input)
	if err != nil {
		return dsc.Header{}, fmt.Errorf("open input: %w", err)
	}
	defer file.Close()

	hdr, err := dsc.Parse(file)
	switch {
	case errors.Is(err, dsc.ErrNotPostScript):
		log.Warn("input does not look like PostScript")
		return hdr, nil
	case err != nil:
		return hdr, fmt.Errorf("read input header: %w", err)
	}
	log.Debug("input header",
		observability.String("creator", hdr.Creator),
		observability.String("title", hdr.Title),
		observability.String("epsf", hdr.EPSFVersion))
	if !hdr.IsEPS() {
		log.Warn("input is PostScript but not EPS")
	}
	if !hdr.FromMATLAB() {
		log.Warn("input was not exported by MATLAB", observability.String("creator", hdr.Creator))
	}
	return hdr, nil
}

func (f *Fixer) convert(ctx context.Context, input, tmpPath string, log observability.Logger) (convert.Result, error) {
	ctx, span := f.tracer.StartSpan(ctx, observability.SpanConvert)
	defer span.Finish()

	res, err := f.converter.Convert(ctx, convert.NewRequest(input, tmpPath, f.reqOpts...))
	if err != nil {
		span.SetError(err)
		return res, fmt.Errorf("convert %s: %w", input, err)
	}
	if res.Diagnostics != "" {
		log.Debug("converter diagnostics", observability.String("stderr", res.Diagnostics))
	}
	return res, nil
}

func (f *Fixer) rewrite(ctx context.Context, tmpPath string, log observability.Logger) ([]byte, contentstream.Stats, error) {
	ctx, span := f.tracer.StartSpan(ctx, observability.SpanRewrite)
	defer span.Finish()

	src, err := os.Open(tmpPath)
	if err != nil {
		span.SetError(err)
		return nil, contentstream.Stats{}, fmt.Errorf("open converted file: %w", err)
	}
	defer src.Close()

	var buf bytes.Buffer
	stats, err := contentstream.Rewrite(ctx, src, &buf, f.scanCfg, log)
	if err != nil {
		span.SetError(err)
		return nil, stats, fmt.Errorf("rewrite: %w", err)
	}
	span.SetTag("lines", stats.LinesRead)
	log.Debug("rewrote content",
		observability.Int("lines_read", stats.LinesRead),
		observability.Int("lines_written", stats.LinesWritten),
		observability.Int("discarded_fills", stats.DiscardedFills),
		observability.Int("generic_flushes", stats.GenericFlushes),
		observability.Int("colorbars_flushed", stats.ColorbarsFlushed))
	return buf.Bytes(), stats, nil
}
