package contentstream

import (
	"strings"

	"github.com/wudi/epsfix/scanner"
)

// Classify computes the class of one raw line. The terminator is ignored.
func Classify(line string) Class {
	body := scanner.Body(line)
	var k Kind

	if strings.Contains(body, " m f") {
		k |= MoveFill
	}
	if strings.Contains(body, " f") {
		k |= CloseFill
	}
	if strings.HasSuffix(body, "g") {
		k |= ColorSet
	}
	if strings.HasSuffix(body, " g") {
		k |= GrayColorSet
	}
	if strings.HasSuffix(body, "rg") {
		k |= RGBColorSet
	}
	switch body {
	case "Q Q":
		k |= PushPop
	case "Q q":
		k |= ColorbarStart
	}
	if strings.HasSuffix(body, "showpage") {
		k |= EndOfPage
	}
	if strings.HasSuffix(body, " h") {
		k |= ClosePath
	}
	if strings.HasSuffix(body, "h") || strings.HasSuffix(body, "f") {
		k |= PathEnd
	}
	return Class{kinds: k}
}

// endsColorbar reports whether the block's last three lines are the
// color-bar end marker.
func endsColorbar(block []string) bool {
	n := len(block)
	if n < len(colorbarEnd) {
		return false
	}
	for i, want := range colorbarEnd {
		if scanner.Body(block[n-len(colorbarEnd)+i]) != want {
			return false
		}
	}
	return true
}
