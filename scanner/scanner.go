// Package scanner splits an EPS byte stream into lines.
//
// Lines are returned with their terminator attached so that a
// consumer can write them back byte for byte. The final line of a stream may
// have no terminator at all.
package scanner

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ErrLineTooLong is returned when a single line exceeds Config.MaxLineLength.
var ErrLineTooLong = errors.New("line too long")

// DefaultMaxLineLength bounds a single line when Config.MaxLineLength is zero.
const DefaultMaxLineLength = 1 << 20

type Scanner interface {
	// Next returns the next line including its terminator, or io.EOF.
	Next() (string, error)
	// Position is the byte offset of the first unread byte.
	Position() int64
	// Line is the 1-based number of the last line returned.
	Line() int
}

type Config struct {
	MaxLineLength int64
	WindowSize    int
}

// lineScanner buffers the underlying reader in fixed-size windows and
// assembles lines that span several windows.
type lineScanner struct {
	r    *bufio.Reader
	cfg  Config
	pos  int64
	line int
}

func New(r io.Reader, cfg Config) Scanner {
	window := cfg.WindowSize
	if window <= 0 {
		window = 64 * 1024
	}
	if cfg.MaxLineLength <= 0 {
		cfg.MaxLineLength = DefaultMaxLineLength
	}
	return &lineScanner{r: bufio.NewReaderSize(r, window), cfg: cfg}
}

func (s *lineScanner) Position() int64 { return s.pos }
func (s *lineScanner) Line() int       { return s.line }

func (s *lineScanner) Next() (string, error) {
	var buf []byte
	for {
		chunk, err := s.r.ReadSlice('\n')
		buf = append(buf, chunk...)
		if int64(len(buf)) > s.cfg.MaxLineLength {
			return "", fmt.Errorf("line %d at offset %d: %w", s.line+1, s.pos, ErrLineTooLong)
		}
		if errors.Is(err, bufio.ErrBufferFull) {
			continue
		}
		if err != nil {
			if errors.Is(err, io.EOF) && len(buf) > 0 {
				break
			}
			return "", err
		}
		break
	}
	s.pos += int64(len(buf))
	s.line++
	return string(buf), nil
}

// Body strips the line terminator ("\n" or "\r\n") from line.
func Body(line string) string {
	line = strings.TrimSuffix(line, "\n")
	return strings.TrimSuffix(line, "\r")
}
