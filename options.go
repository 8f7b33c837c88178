package epsfix

import (
	"github.com/wudi/epsfix/convert"
	"github.com/wudi/epsfix/observability"
	"github.com/wudi/epsfix/scanner"
	"github.com/wudi/epsfix/writer"
)

// Option configures a Fixer.
type Option func(*Fixer)

// WithConverter replaces the default converter.
func WithConverter(c convert.Converter) Option {
	return func(f *Fixer) { f.converter = c }
}

// WithLogger sets the logger. A nil logger discards messages.
func WithLogger(l observability.Logger) Option {
	return func(f *Fixer) {
		if l == nil {
			l = observability.NopLogger{}
		}
		f.logger = l
	}
}

// WithTracer sets the tracer that wraps each stage in a span.
func WithTracer(t observability.Tracer) Option {
	return func(f *Fixer) { f.tracer = t }
}

// WithTempDir sets where the intermediate file is created. Empty means
// os.TempDir.
func WithTempDir(dir string) Option {
	return func(f *Fixer) { f.tempDir = dir }
}

// WithKeepTemp keeps the intermediate file after the run.
func WithKeepTemp(keep bool) Option {
	return func(f *Fixer) { f.keepTemp = keep }
}

// WithScannerConfig sets line limits for reading the converted file.
func WithScannerConfig(cfg scanner.Config) Option {
	return func(f *Fixer) { f.scanCfg = cfg }
}

// WithWriterConfig sets how the output file is written.
func WithWriterConfig(cfg writer.Config) Option {
	return func(f *Fixer) { f.writeCfg = cfg }
}

// WithRequestOptions adds options to every conversion request.
func WithRequestOptions(opts ...convert.RequestOption) Option {
	return func(f *Fixer) { f.reqOpts = append(f.reqOpts, opts...) }
}
