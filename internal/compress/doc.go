// Package compress runs the single-file compression pipeline.
//
// A [Compressor] copies the source into a private [Workspace], runs the
// four stages in fixed order (metadata strip, image recompression, quality
// reduction, page optimization), copies the final artifact to the
// destination, and reports sizes as a [CompressionResult]. A stage that
// fails logs a warning and hands its input to the next stage unchanged;
// only failures before the stages run, or while writing the output, fail
// the call.
package compress
