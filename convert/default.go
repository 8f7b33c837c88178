package convert

import (
	"context"
	"fmt"
	"io"
	"os"
)

var defaultConverter Converter = copyConverter{}

// DefaultConverter returns the registered default converter. It is Inkscape
// once the inkscape package is imported, and Copy otherwise.
func DefaultConverter() Converter {
	return defaultConverter
}

// SetDefaultConverter replaces the default converter.
func SetDefaultConverter(c Converter) {
	defaultConverter = c
}

// Copy returns a converter that copies the input unchanged. Use it when the
// input was already normalized.
func Copy() Converter { return copyConverter{} }

type copyConverter struct{}

func (copyConverter) Name() string { return "copy" }

func (c copyConverter) Convert(ctx context.Context, req Request) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	src, err := os.Open(req.Input)
	if err != nil {
		return Result{}, fmt.Errorf("open input: %w", err)
	}
	defer src.Close()

	dst, err := os.Create(req.Output)
	if err != nil {
		return Result{}, fmt.Errorf("create output: %w", err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return Result{}, fmt.Errorf("copy input: %w", err)
	}
	if err := dst.Close(); err != nil {
		return Result{}, fmt.Errorf("close output: %w", err)
	}
	return Result{Output: req.Output, Converter: c.Name()}, nil
}
