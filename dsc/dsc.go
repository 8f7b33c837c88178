// Package dsc reads the Document Structuring Convention header of an EPS
// file: the "%!PS-Adobe" marker and the "%%Key: value" comments that precede
// "%%EndComments".
//
// Comment values that are not valid UTF-8 are decoded from ISO 8859-1,
// which is what PostScript producers such as MATLAB write for non-ASCII
// titles.
package dsc

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// ErrNotPostScript is returned when the stream does not start with "%!".
var ErrNotPostScript = errors.New("not a PostScript file")

// maxHeaderLines bounds how far Parse reads when %%EndComments is missing.
const maxHeaderLines = 256

// Header holds the DSC comments of interest.
type Header struct {
	// PSVersion and EPSFVersion come from the first line, for example
	// "%!PS-Adobe-3.0 EPSF-3.0". EPSFVersion is empty for plain PostScript.
	PSVersion   string
	EPSFVersion string

	Creator      string
	Title        string
	CreationDate string

	// BoundingBox is llx, lly, urx, ury in points. HasBoundingBox is false
	// when the comment is absent or deferred with "(atend)".
	BoundingBox    [4]int
	HasBoundingBox bool

	LanguageLevel int
	Pages         int
}

// IsEPS reports whether the header declares an encapsulated file.
func (h Header) IsEPS() bool { return h.EPSFVersion != "" }

// FromMATLAB reports whether the file was produced by MATLAB's exporter.
func (h Header) FromMATLAB() bool {
	return strings.Contains(strings.ToLower(h.Creator), "matlab")
}

// Parse reads the header comments from r. Reading stops at %%EndComments,
// at the first line that is not a comment, or after maxHeaderLines lines.
func Parse(r io.Reader) (Header, error) {
	var h Header
	br := bufio.NewReader(r)
	dec := charmap.ISO8859_1.NewDecoder()

	first, err := br.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return h, fmt.Errorf("read header: %w", err)
	}
	first = strings.TrimRight(first, "\r\n")
	if !strings.HasPrefix(first, "%!") {
		return h, ErrNotPostScript
	}
	parseMagic(&h, first)

	for n := 0; n < maxHeaderLines; n++ {
		line, err := br.ReadString('\n')
		line = strings.TrimRight(line, "\r\n")
		if line != "" {
			if !strings.HasPrefix(line, "%") || strings.HasPrefix(line, "%%EndComments") {
				break
			}
			if key, val, ok := splitComment(line); ok {
				if !utf8.ValidString(val) {
					if utf, derr := dec.String(val); derr == nil {
						val = utf
					}
				}
				apply(&h, key, val)
			}
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return h, fmt.Errorf("read header: %w", err)
		}
	}
	return h, nil
}

func parseMagic(h *Header, line string) {
	for _, field := range strings.Fields(strings.TrimPrefix(line, "%!")) {
		switch {
		case strings.HasPrefix(field, "PS-Adobe-"):
			h.PSVersion = strings.TrimPrefix(field, "PS-Adobe-")
		case strings.HasPrefix(field, "EPSF-"):
			h.EPSFVersion = strings.TrimPrefix(field, "EPSF-")
		}
	}
}

func splitComment(line string) (key, val string, ok bool) {
	if !strings.HasPrefix(line, "%%") {
		return "", "", false
	}
	key, val, ok = strings.Cut(line[2:], ":")
	if !ok {
		return "", "", false
	}
	return key, strings.TrimSpace(val), true
}

func apply(h *Header, key, val string) {
	switch key {
	case "Creator":
		h.Creator = val
	case "Title":
		h.Title = val
	case "CreationDate":
		h.CreationDate = val
	case "BoundingBox":
		h.BoundingBox, h.HasBoundingBox = parseBBox(val)
	case "LanguageLevel":
		if n, err := strconv.Atoi(val); err == nil {
			h.LanguageLevel = n
		}
	case "Pages":
		if n, err := strconv.Atoi(val); err == nil {
			h.Pages = n
		}
	}
}

func parseBBox(val string) ([4]int, bool) {
	var box [4]int
	fields := strings.Fields(val)
	if len(fields) != 4 {
		return box, false
	}
	for i, f := range fields {
		// Some producers write real numbers here despite the convention.
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return [4]int{}, false
		}
		box[i] = int(v)
	}
	return box, true
}
