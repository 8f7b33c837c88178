package contentstream

// Kind tags one pattern a line of the page body can match. A single line
// often matches several patterns ("0 0 1 rg" is both RGBColorSet and
// ColorSet), so classification yields a Class bit set.
type Kind uint16

const (
	// MoveFill is an intermediate "x y m f" fill marker inside a patch.
	MoveFill Kind = 1 << iota
	// CloseFill is any line carrying a " f" fill operator.
	CloseFill
	// ColorSet is any color-setting command (line ends in "g").
	ColorSet
	// GrayColorSet is a bare gray-level command (line ends in " g").
	GrayColorSet
	// RGBColorSet sets the fill color from RGB operands (line ends in "rg").
	RGBColorSet
	// PushPop is the "Q Q" sequence that closes a patch group.
	PushPop
	// ColorbarStart is the "Q q" sequence that opens a color-bar block.
	ColorbarStart
	// EndOfPage is the showpage operator.
	EndOfPage
	// ClosePath is a line ending in the " h" close-path operator.
	ClosePath
	// PathEnd is any line ending in "h" or "f".
	PathEnd
)

// Other is the empty class: the line matches no pattern.
const Other Kind = 0

var kindNames = []struct {
	k    Kind
	name string
}{
	{MoveFill, "MoveFill"},
	{CloseFill, "CloseFill"},
	{ColorSet, "ColorSet"},
	{GrayColorSet, "GrayColorSet"},
	{RGBColorSet, "RGBColorSet"},
	{PushPop, "PushPop"},
	{ColorbarStart, "ColorbarStart"},
	{EndOfPage, "EndOfPage"},
	{ClosePath, "ClosePath"},
	{PathEnd, "PathEnd"},
}

// Class is the set of kinds a line matches.
type Class struct {
	kinds Kind
}

// Has reports whether the class includes k.
func (c Class) Has(k Kind) bool { return c.kinds&k != 0 }

// IsOther reports whether the line matched nothing.
func (c Class) IsOther() bool { return c.kinds == Other }

func (c Class) String() string {
	if c.IsOther() {
		return "Other"
	}
	s := ""
	for _, kn := range kindNames {
		if c.Has(kn.k) {
			if s != "" {
				s += "|"
			}
			s += kn.name
		}
	}
	return s
}

// colorbarEnd is the fixed three-line marker that closes a color-bar block.
var colorbarEnd = [3]string{"Q", "  Q", "Q"}

// Stats counts what a rewrite pass did.
type Stats struct {
	LinesRead        int
	LinesWritten     int
	DiscardedFills   int
	GroupedFlushes   int
	GenericFlushes   int
	ColorbarsMerged  int
	ColorbarsFlushed int
}
