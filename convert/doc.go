// Package convert defines the contract for the external vector-graphics
// converter that normalizes an EPS file before it is rewritten. The
// normalized file has one drawing command or operand group per line, which
// is the only input shape the contentstream rewriter understands.
//
// The default converter is Inkscape, registered by importing
// github.com/wudi/epsfix/convert/inkscape. Copy is a pass-through converter
// for input that is already normalized.
package convert
