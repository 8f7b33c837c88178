package inkscape

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/wudi/epsfix/convert"
)

const fakeScript = `#!/bin/sh
if [ "$1" = "--version" ]; then
  echo "Inkscape VERSION (b0a8486541, 2022-12-01)"
  exit 0
fi
out=""
in=""
for a in "$@"; do
  case "$a" in
    --export-filename=*) out="${a#--export-filename=}" ;;
    --export-eps=*) out="${a#--export-eps=}" ;;
    --*) ;;
    *) in="$a" ;;
  esac
done
if [ ! -f "$in" ]; then
  echo "** (inkscape): cannot open $in" >&2
  exit 3
fi
echo "$@" > "$out.args"
cp "$in" "$out"
`

// fakeInkscape writes a shell script that mimics the Inkscape command line.
func fakeInkscape(t *testing.T, version string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell script converter not supported on windows")
	}
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not installed in PATH")
	}
	path := filepath.Join(t.TempDir(), "inkscape")
	script := strings.Replace(fakeScript, "VERSION", version, 1)
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
		t.Fatalf("write fake inkscape: %v", err)
	}
	return path
}

func TestArgs(t *testing.T) {
	req := convert.NewRequest("fig.eps", "/tmp/out.eps")

	old := Args(convert.Version{Major: 0, Minor: 92}, req)
	want := []string{"--export-area-page", "--export-eps=/tmp/out.eps", "fig.eps"}
	if strings.Join(old, " ") != strings.Join(want, " ") {
		t.Fatalf("0.92 args = %v, want %v", old, want)
	}

	req = convert.NewRequest("fig.eps", "/tmp/out.eps", convert.WithMetadata(map[string]string{"ps-level": "3"}))
	current := Args(convert.Version{Major: 1, Minor: 2}, req)
	want = []string{"--export-area-page", "--export-type=eps", "--export-filename=/tmp/out.eps", "--export-ps-level=3", "fig.eps"}
	if strings.Join(current, " ") != strings.Join(want, " ") {
		t.Fatalf("1.x args = %v, want %v", current, want)
	}
}

func TestResolveOrder(t *testing.T) {
	lookups := []string{}
	c := New()
	c.getenv = func(string) string { return "/opt/inkscape/bin/inkscape" }
	c.lookPath = func(name string) (string, error) {
		lookups = append(lookups, name)
		return name, nil
	}
	p, err := c.Resolve()
	if err != nil || p != "/opt/inkscape/bin/inkscape" {
		t.Fatalf("expected env binary, got %q (%v)", p, err)
	}

	c = New(WithBinary("/usr/local/bin/inkscape"))
	c.getenv = func(string) string { return "/opt/inkscape/bin/inkscape" }
	c.lookPath = func(name string) (string, error) { return name, nil }
	if p, _ := c.Resolve(); p != "/usr/local/bin/inkscape" {
		t.Fatalf("pinned binary should win, got %q", p)
	}
	if len(lookups) != 1 {
		t.Fatalf("unexpected lookups: %v", lookups)
	}
}

func TestResolveUnavailable(t *testing.T) {
	c := New(WithBinary("/nonexistent/inkscape"))
	c.lookPath = func(name string) (string, error) { return "", exec.ErrNotFound }

	_, err := c.Probe(context.Background())
	if !errors.Is(err, convert.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
	_, err = c.Convert(context.Background(), convert.NewRequest("a.eps", "b.eps"))
	if !errors.Is(err, convert.ErrUnavailable) {
		t.Fatalf("convert should report ErrUnavailable, got %v", err)
	}
}

func TestProbeRetriesAfterCanceledContext(t *testing.T) {
	bin := fakeInkscape(t, "1.2.2")
	c := New(WithBinary(bin))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := c.Probe(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}

	v, err := c.Probe(context.Background())
	if err != nil {
		t.Fatalf("second probe: %v", err)
	}
	if v.Major != 1 || v.Minor != 2 {
		t.Fatalf("unexpected version %s", v)
	}
}

func TestConvertCurrentDialect(t *testing.T) {
	bin := fakeInkscape(t, "1.2.2")
	dir := t.TempDir()
	in := filepath.Join(dir, "fig.eps")
	out := filepath.Join(dir, "norm.eps")
	if err := os.WriteFile(in, []byte("%!PS-Adobe-3.0 EPSF-3.0\n"), 0o644); err != nil {
		t.Fatalf("write input: %v", err)
	}

	c := New(WithBinary(bin))
	res, err := c.Convert(context.Background(), convert.NewRequest(in, out))
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	if res.Version.Major != 1 || res.Version.Minor != 2 || res.Converter != "inkscape" {
		t.Fatalf("unexpected result: %+v", res)
	}
	args, err := os.ReadFile(out + ".args")
	if err != nil {
		t.Fatalf("read recorded args: %v", err)
	}
	if !strings.Contains(string(args), "--export-type=eps") {
		t.Fatalf("expected 1.x dialect, got %q", args)
	}
	if data, _ := os.ReadFile(out); string(data) != "%!PS-Adobe-3.0 EPSF-3.0\n" {
		t.Fatalf("unexpected converted output %q", data)
	}
}

func TestConvertLegacyDialect(t *testing.T) {
	bin := fakeInkscape(t, "0.92.4")
	dir := t.TempDir()
	in := filepath.Join(dir, "fig.eps")
	out := filepath.Join(dir, "norm.eps")
	if err := os.WriteFile(in, []byte("q\nQ\n"), 0o644); err != nil {
		t.Fatalf("write input: %v", err)
	}

	if _, err := New(WithBinary(bin)).Convert(context.Background(), convert.NewRequest(in, out)); err != nil {
		t.Fatalf("convert: %v", err)
	}
	args, err := os.ReadFile(out + ".args")
	if err != nil {
		t.Fatalf("read recorded args: %v", err)
	}
	if !strings.Contains(string(args), "--export-eps=") {
		t.Fatalf("expected 0.92 dialect, got %q", args)
	}
}

func TestConvertExitError(t *testing.T) {
	bin := fakeInkscape(t, "1.2.2")
	dir := t.TempDir()

	_, err := New(WithBinary(bin)).Convert(context.Background(),
		convert.NewRequest(filepath.Join(dir, "missing.eps"), filepath.Join(dir, "norm.eps")))
	var exitErr *convert.ExitError
	if !errors.As(err, &exitErr) {
		t.Fatalf("expected ExitError, got %v", err)
	}
	if exitErr.Code != 3 || !strings.Contains(exitErr.Stderr, "cannot open") {
		t.Fatalf("unexpected exit error: %+v", exitErr)
	}
	if !errors.Is(err, convert.ErrConversionFailed) {
		t.Fatalf("expected ErrConversionFailed")
	}
}

func TestRegistersDefault(t *testing.T) {
	if convert.DefaultConverter().Name() != "inkscape" {
		t.Fatalf("expected inkscape to be the default converter, got %s", convert.DefaultConverter().Name())
	}
}
