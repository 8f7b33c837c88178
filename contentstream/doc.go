// Package contentstream rewrites the page body of EPS files exported by
// MATLAB 2014b and later, after the file has been normalized to one drawing
// command per line.
//
// The exporter splits every colored surface patch into redundant segments,
// each closed by its own fill, and draws color-bar legends without the
// close-path segments of the first bar. The Rewriter walks the body once and
// repairs both defects:
//
//   - Patches that share one fill color are collected into runs. When the
//     color changes, the runs are emitted in reverse order and followed by a
//     single "x y m f" fill built from the first run's move-to.
//   - The first color-bar block is held back as a template. The close-path
//     lines of the template are inserted in front of every close-path line
//     of the next block.
//
// Lines that match neither defect are copied through unchanged and in order.
//
//	rw := contentstream.NewRewriter(nil)
//	for _, line := range lines {
//	    rw.WriteLine(line)
//	}
//	rw.Close()
//	os.WriteFile(out, rw.Bytes(), 0o644)
package contentstream
