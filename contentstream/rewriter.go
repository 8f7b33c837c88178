package contentstream

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/wudi/epsfix/observability"
	"github.com/wudi/epsfix/scanner"
)

// Rewriter holds the state of one rewrite pass. It is not safe for
// concurrent use.
type Rewriter struct {
	out bytes.Buffer

	// Patch accumulation: run is the patch being built, group the finished
	// runs sharing the current fill color.
	inPatch bool
	run     []string
	group   [][]string

	// Color-bar accumulation: colorbar is the block being built, template the
	// first complete block still waiting for a partner.
	inColorbar bool
	colorbar   []string
	template   []string

	closed bool
	stats  Stats
	logger observability.Logger
}

// NewRewriter returns an empty Rewriter. A nil logger discards messages.
func NewRewriter(logger observability.Logger) *Rewriter {
	if logger == nil {
		logger = observability.NopLogger{}
	}
	return &Rewriter{logger: logger}
}

// WriteLine feeds one raw line, terminator included, through the pass.
func (r *Rewriter) WriteLine(line string) {
	if r.closed {
		panic("contentstream: WriteLine after Close")
	}
	r.stats.LinesRead++
	c := Classify(line)

	if r.inPatch && c.Has(MoveFill) {
		r.stats.DiscardedFills++
		return
	}

	if r.inPatch && c.Has(CloseFill) {
		r.run = append(r.run, strings.ReplaceAll(line, "f", "h"))
		r.finishRun()
		return
	}

	if r.inPatch && len(r.group) > 0 && (c.Has(ColorSet) || c.Has(PushPop)) {
		r.inPatch = false
		r.flushGroupReversed()
	} else if c.Has(GrayColorSet) || c.Has(EndOfPage) {
		r.inColorbar = false
		r.inPatch = false
		if len(r.run) > 0 {
			r.finishRun()
		}
		r.flushGroup()
		if len(r.colorbar) > 0 {
			r.logger.Debug("flushing unterminated color-bar", observability.Int("lines", len(r.colorbar)))
			r.emitAll(r.colorbar)
			r.colorbar = nil
		}
	}

	if c.Has(RGBColorSet) {
		r.inPatch = true
		r.emit(line)
		return
	}

	if c.Has(ColorbarStart) {
		r.inColorbar = true
		r.colorbar = append(r.colorbar, line)
		return
	}

	if r.inColorbar {
		r.colorbar = append(r.colorbar, line)
	}

	if endsColorbar(r.colorbar) {
		r.inColorbar = false
		if r.template != nil {
			r.mergeColorbar()
		} else {
			r.template = r.colorbar
		}
		r.colorbar = nil
		return
	}

	if !r.inColorbar && r.template != nil {
		r.emitAll(r.template)
		r.template = nil
		r.stats.ColorbarsFlushed++
	}

	switch {
	case r.inPatch:
		r.run = append(r.run, line)
		if c.Has(PathEnd) {
			r.finishRun()
		}
	case !r.inColorbar:
		r.emit(line)
	}
}

// Close flushes everything still pending at the end of the stream: the
// color-bar template, the patch run and group, then any unterminated
// color-bar block. Close is idempotent.
func (r *Rewriter) Close() {
	if r.closed {
		return
	}
	r.closed = true
	if r.template != nil {
		r.emitAll(r.template)
		r.template = nil
		r.stats.ColorbarsFlushed++
	}
	if len(r.run) > 0 {
		r.finishRun()
	}
	if len(r.group) > 0 {
		r.flushGroup()
	}
	if len(r.colorbar) > 0 {
		r.emitAll(r.colorbar)
		r.colorbar = nil
	}
	r.inPatch = false
	r.inColorbar = false
}

// Bytes returns the output accumulated so far.
func (r *Rewriter) Bytes() []byte { return r.out.Bytes() }

// Stats reports counters for the lines processed so far.
func (r *Rewriter) Stats() Stats { return r.stats }

// Pending reports whether any line is still held back from the output.
func (r *Rewriter) Pending() bool {
	return len(r.run) > 0 || len(r.group) > 0 || len(r.colorbar) > 0 || r.template != nil
}

func (r *Rewriter) finishRun() {
	r.group = append(r.group, r.run)
	r.run = nil
}

// flushGroupReversed emits the group last run first and closes it with one
// fill built from the move-to of the first run.
func (r *Rewriter) flushGroupReversed() {
	for i := len(r.group) - 1; i >= 0; i-- {
		r.emitAll(r.group[i])
	}
	r.emit(closingFill(r.group[0][0]))
	r.logger.Debug("reordered patch group", observability.Int("runs", len(r.group)))
	r.group = nil
	r.stats.GroupedFlushes++
}

func (r *Rewriter) flushGroup() {
	if len(r.group) == 0 {
		return
	}
	for _, run := range r.group {
		r.emitAll(run)
	}
	r.group = nil
	r.stats.GenericFlushes++
}

// mergeColorbar emits the current block with the template's close-path lines
// inserted in front of each of its own close-path lines.
func (r *Rewriter) mergeColorbar() {
	var closers []string
	for _, line := range r.template {
		if Classify(line).Has(ClosePath) {
			closers = append(closers, line)
		}
	}
	for _, line := range r.colorbar {
		if Classify(line).Has(ClosePath) {
			r.emitAll(closers)
		}
		r.emit(line)
	}
	r.logger.Debug("merged color-bar",
		observability.Int("template_lines", len(r.template)),
		observability.Int("lines", len(r.colorbar)))
	r.template = nil
	r.stats.ColorbarsMerged++
}

func (r *Rewriter) emit(line string) {
	r.out.WriteString(line)
	r.stats.LinesWritten++
}

func (r *Rewriter) emitAll(lines []string) {
	for _, line := range lines {
		r.emit(line)
	}
}

// closingFill turns the first line of a run into the fill that closes its
// group: everything before the first "m", then "m f".
func closingFill(first string) string {
	prefix := first
	if i := strings.IndexByte(first, 'm'); i >= 0 {
		prefix = first[:i]
	}
	return prefix + "m f\n"
}

// Rewrite runs a complete pass over src and writes the result to dst in a
// single Write call. Nothing is written when reading fails.
func Rewrite(ctx context.Context, src io.Reader, dst io.Writer, cfg scanner.Config, logger observability.Logger) (Stats, error) {
	rw := NewRewriter(logger)
	s := scanner.New(src, cfg)
	for {
		if err := ctx.Err(); err != nil {
			return rw.Stats(), err
		}
		line, err := s.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return rw.Stats(), fmt.Errorf("read line %d: %w", s.Line()+1, err)
		}
		rw.WriteLine(line)
	}
	rw.Close()
	if _, err := dst.Write(rw.Bytes()); err != nil {
		return rw.Stats(), fmt.Errorf("write output: %w", err)
	}
	return rw.Stats(), nil
}
