// Package model defines the in-memory presentation tree: a Document owning
// ordered slides, slides owning ordered shapes (sequence position is paint
// order), and reference-counted media shared by pictures.
//
// The tree is pure data with no I/O. Parsing and serialization live in the
// pml package; rendering lives in the render package. A Document must not be
// mutated from multiple goroutines; callers needing concurrency serialize
// externally or work on a clone.
package model
