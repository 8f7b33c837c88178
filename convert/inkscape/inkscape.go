package inkscape

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"sync"

	"github.com/wudi/epsfix/convert"
)

// EnvBinary names the environment variable that overrides the binary path.
const EnvBinary = "EPSFIX_INKSCAPE"

// bundlePaths are tried when inkscape is not on PATH. They cover the macOS
// application bundle layouts before and after the 1.0 release.
var bundlePaths = []string{
	"/Applications/Inkscape.app/Contents/MacOS/inkscape",
	"/Applications/Inkscape.app/Contents/Resources/bin/inkscape-bin",
	"/Applications/Inkscape.app/Contents/Resources/bin/inkscape",
}

func init() {
	convert.SetDefaultConverter(New())
}

// Converter runs the Inkscape command line to normalize EPS files.
type Converter struct {
	binary   string
	lookPath func(string) (string, error)
	getenv   func(string) string

	mu      sync.Mutex
	probed  bool
	version convert.Version
	path    string
}

// Option configures a Converter.
type Option func(*Converter)

// WithBinary pins the binary. A bare name is resolved on PATH.
func WithBinary(path string) Option {
	return func(c *Converter) { c.binary = path }
}

// New constructs an Inkscape-backed converter.
func New(opts ...Option) *Converter {
	c := &Converter{lookPath: exec.LookPath, getenv: os.Getenv}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Converter) Name() string { return "inkscape" }

// Resolve finds the binary: the pinned path, then $EPSFIX_INKSCAPE, then
// PATH, then the macOS bundle.
func (c *Converter) Resolve() (string, error) {
	for _, explicit := range []string{c.binary, c.getenv(EnvBinary)} {
		if explicit == "" {
			continue
		}
		p, err := c.lookPath(explicit)
		if err != nil {
			return "", fmt.Errorf("%w: %s: %v", convert.ErrUnavailable, explicit, err)
		}
		return p, nil
	}
	if p, err := c.lookPath("inkscape"); err == nil {
		return p, nil
	}
	for _, p := range bundlePaths {
		if st, err := os.Stat(p); err == nil && !st.IsDir() {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w: inkscape not found on PATH; set %s", convert.ErrUnavailable, EnvBinary)
}

// Probe resolves the binary and asks it for its version. Only a successful
// probe is cached; a failed or canceled one is retried on the next call.
func (c *Converter) Probe(ctx context.Context) (convert.Version, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.probed {
		return c.version, nil
	}

	path, err := c.Resolve()
	if err != nil {
		return convert.Version{}, err
	}
	out, err := exec.CommandContext(ctx, path, "--version").Output()
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return convert.Version{}, ctxErr
		}
		return convert.Version{}, fmt.Errorf("%w: %s --version: %v", convert.ErrUnavailable, path, err)
	}
	v, err := convert.ParseVersion(string(out))
	if err != nil {
		return convert.Version{}, fmt.Errorf("%w: %v", convert.ErrUnavailable, err)
	}
	c.path, c.version, c.probed = path, v, true
	return v, nil
}

// Convert runs the export. The working copy is written to req.Output.
func (c *Converter) Convert(ctx context.Context, req convert.Request) (convert.Result, error) {
	v, err := c.Probe(ctx)
	if err != nil {
		return convert.Result{}, err
	}

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, c.path, Args(v, req)...)
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return convert.Result{}, ctxErr
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return convert.Result{}, &convert.ExitError{
				Converter: c.Name(),
				Code:      exitErr.ExitCode(),
				Stderr:    stderr.String(),
			}
		}
		return convert.Result{}, fmt.Errorf("run %s: %w", c.path, err)
	}
	return convert.Result{
		Output:      req.Output,
		Converter:   c.Name(),
		Version:     v,
		Diagnostics: stderr.String(),
	}, nil
}

// Args builds the command line for version v. Inkscape 1.0 replaced the
// per-format --export-eps flag with --export-type and --export-filename.
func Args(v convert.Version, req convert.Request) []string {
	var args []string
	if req.ExportAreaPage {
		args = append(args, "--export-area-page")
	}
	if v.AtLeast(1, 0) {
		args = append(args, "--export-type=eps", "--export-filename="+req.Output)
	} else {
		args = append(args, "--export-eps="+req.Output)
	}
	if level := req.Metadata["ps-level"]; level != "" {
		args = append(args, "--export-ps-level="+level)
	}
	return append(args, req.Input)
}
