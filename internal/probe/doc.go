// Package probe inspects PDF files: a cheap header sniff that needs no
// external tools, and a single pdfcpu JSON call for document properties
// (version, page count, encryption, info dictionary).
package probe
