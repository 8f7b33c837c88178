package convert

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	// ErrUnavailable means the converter binary cannot be found or does not
	// answer a version probe.
	ErrUnavailable = errors.New("converter unavailable")
	// ErrConversionFailed means the converter ran and exited non-zero.
	ErrConversionFailed = errors.New("conversion failed")
)

// Request describes one conversion.
type Request struct {
	// Input is the EPS file as exported by the plotting tool.
	Input string
	// Output is where the normalized EPS is written. It is overwritten.
	Output string
	// ExportAreaPage asks the converter to export the full page area rather
	// than the drawing's bounding box.
	ExportAreaPage bool
	// Metadata passes converter-specific knobs through without widening the
	// API surface.
	Metadata map[string]string
}

// Result reports a finished conversion.
type Result struct {
	Output    string
	Converter string
	Version   Version
	// Diagnostics is whatever the converter wrote to stderr.
	Diagnostics string
}

// Converter turns a plotting-tool EPS into a normalized EPS.
type Converter interface {
	Name() string
	Convert(ctx context.Context, req Request) (Result, error)
}

// Prober is implemented by converters that can check their availability
// before any file is touched.
type Prober interface {
	Probe(ctx context.Context) (Version, error)
}

// ExitError reports a converter that exited with a non-zero status.
type ExitError struct {
	Converter string
	Code      int
	Stderr    string
}

func (e *ExitError) Error() string {
	msg := fmt.Sprintf("%s exited with status %d", e.Converter, e.Code)
	if s := strings.TrimSpace(e.Stderr); s != "" {
		msg += ": " + firstLine(s)
	}
	return msg
}

func (e *ExitError) Unwrap() error { return ErrConversionFailed }

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

// Version is a converter release number.
type Version struct {
	Major, Minor, Patch int
	Raw                 string
}

var versionRe = regexp.MustCompile(`(\d+)\.(\d+)(?:\.(\d+))?`)

// ParseVersion extracts the first dotted release number from a version
// banner such as "Inkscape 0.92.4 (5da689c313, 2019-01-14)".
func ParseVersion(banner string) (Version, error) {
	m := versionRe.FindStringSubmatch(banner)
	if m == nil {
		return Version{}, fmt.Errorf("no version number in %q", strings.TrimSpace(banner))
	}
	v := Version{Raw: strings.TrimSpace(banner)}
	v.Major, _ = strconv.Atoi(m[1])
	v.Minor, _ = strconv.Atoi(m[2])
	if m[3] != "" {
		v.Patch, _ = strconv.Atoi(m[3])
	}
	return v, nil
}

// AtLeast reports whether v is major.minor or newer.
func (v Version) AtLeast(major, minor int) bool {
	if v.Major != major {
		return v.Major > major
	}
	return v.Minor >= minor
}

func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}
