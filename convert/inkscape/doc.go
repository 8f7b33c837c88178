// Package inkscape implements convert.Converter with the Inkscape command
// line. Importing it registers the converter as convert.DefaultConverter.
//
// Inkscape re-emits the EPS through cairo, one drawing command per line,
// which is the form the rewriter expects. Both the 0.92 and the 1.x command
// lines are supported; the dialect is chosen from the probed version.
package inkscape
