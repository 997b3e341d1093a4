// Package naming derives output paths for compressed files: the suffixed
// sibling used for single-file runs, the mirrored path used for directory
// runs, and in-run collision resolution when two inputs map to one output.
//
// Layout:
//
//	File:      <dir>/<name><suffix><ext>            (report.pdf → report-compressed.pdf)
//	Directory: <outputRoot>/<rel dir>/<name><suffix><ext>
//
// A suffix is never applied twice, so re-running over an in-place output
// tree does not produce report-compressed-compressed.pdf.
package naming
