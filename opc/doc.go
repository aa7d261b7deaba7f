// Package opc reads and writes Open Packaging Convention containers, the
// ZIP-based part-and-relationship format that presentation files are stored
// in. The container is loaded fully into memory; parts the caller never
// rewrites are emitted byte-for-byte on save, which is what makes the
// round-trip guarantees of the higher layers possible.
package opc
