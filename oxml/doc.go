// Package oxml provides a low-level markup tree for Office Open XML parts.
//
// Unlike struct-based unmarshaling, the tree keeps every element, attribute
// (in document order), and text segment it encounters, so markup the caller
// never touches can be re-emitted without loss. Format-specific knowledge
// lives in the pml package; oxml only knows how to read and write nodes.
package oxml
