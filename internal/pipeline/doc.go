// Package pipeline drives the compressor over a directory tree: discovery,
// bounded parallel per-file processing, progress notification, aggregate
// statistics, and the optional journal, upload and report hooks.
//
// Flow of [Batch.ProcessDirectory]:
//
//	Discover → for each file in discovery order:
//	  notify progress → mirror destination → compress → (journal, upload)
//	→ fold results in discovery order → summary
//
// A failing file is recorded and the batch continues. Cancelling the context
// lets in-flight files finish and skips the rest.
package pipeline
