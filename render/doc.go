// Package render exports a document as HTML. The export is lossy and
// one-way: it is meant for inspection and downstream text processing, not
// for reconstructing the package. Output is deterministic for an unchanged
// document.
package render
