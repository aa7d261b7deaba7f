// Package pml translates PresentationML parts into the model shape tree and
// back. It is the only place format-specific knowledge lives.
//
// Parsing keeps the source element of every shape it understands; saving
// patches those elements in place instead of regenerating them, so markup
// the model does not describe survives the round-trip verbatim. A malformed
// shape node degrades to a generic shape with a recorded warning rather
// than failing the whole load, unless strict parsing is requested.
package pml
