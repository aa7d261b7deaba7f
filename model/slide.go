package model

import (
	"github.com/Force1ess/PPTParse/oxml"
)

// Slide is one presentation page: an ordered shape sequence (paint order),
// a weak layout reference and optional speaker notes.
type Slide struct {
	PartName string `json:"part_name,omitempty"`

	// LayoutPart names the slide layout this slide inherits placeholders
	// from. It is a key into Document.Layouts, never a pointer.
	LayoutPart string `json:"layout_part,omitempty"`

	Shapes []Shape `json:"-"`

	Notes string `json:"notes,omitempty"`

	// Background is the raw background element when present; kept opaque.
	background *oxml.Element

	// root is the source part tree this slide was parsed from. Nil for
	// slides built in memory, which are synthesized from scratch at save.
	root *oxml.Element
}

// Root returns the source part tree, or nil for in-memory slides.
func (s *Slide) Root() *oxml.Element { return s.root }

// SetRoot attaches the source part tree.
func (s *Slide) SetRoot(root *oxml.Element) { s.root = root }

// Background returns the raw background element, or nil.
func (s *Slide) Background() *oxml.Element { return s.background }

// SetBackground attaches a raw background element.
func (s *Slide) SetBackground(bg *oxml.Element) { s.background = bg }

// InsertShape inserts a shape at index i, clamping to the valid range, and
// re-indexes paint order. Media referenced by the inserted subtree is
// retained.
func (s *Slide) InsertShape(d *Document, i int, sh Shape) {
	s.Shapes = insertShape(s.Shapes, i, sh)
	if d != nil {
		d.retainShapeMedia(sh)
	}
	reindex(s.Shapes)
}

// AppendShape appends a shape in front of everything painted so far.
func (s *Slide) AppendShape(d *Document, sh Shape) {
	s.InsertShape(d, len(s.Shapes), sh)
}

// RemoveShape removes and returns the shape at index i, releasing any media
// the removed subtree holds. Returns nil if i is out of range.
func (s *Slide) RemoveShape(d *Document, i int) Shape {
	if i < 0 || i >= len(s.Shapes) {
		return nil
	}
	sh := s.Shapes[i]
	s.Shapes = append(s.Shapes[:i], s.Shapes[i+1:]...)
	if d != nil {
		d.releaseShapeMedia(sh)
	}
	reindex(s.Shapes)
	return sh
}

// MoveShape moves the shape at index from to index to, shifting the shapes
// in between, and re-indexes paint order.
func (s *Slide) MoveShape(from, to int) bool {
	var ok bool
	s.Shapes, ok = moveShape(s.Shapes, from, to)
	if ok {
		reindex(s.Shapes)
	}
	return ok
}

// Layout is a slide layout: the placeholder templates slides inherit from.
type Layout struct {
	PartName   string  `json:"part_name"`
	Name       string  `json:"name,omitempty"`
	MasterPart string  `json:"master_part,omitempty"`
	Shapes     []Shape `json:"-"`

	root *oxml.Element
}

// Root returns the source part tree, or nil.
func (l *Layout) Root() *oxml.Element { return l.root }

// SetRoot attaches the source part tree.
func (l *Layout) SetRoot(root *oxml.Element) { l.root = root }

// Placeholder returns the layout placeholder matching the given index, or
// nil. Title placeholders match on type since their index is implicit.
func (l *Layout) Placeholder(phType string, idx int) *Placeholder {
	var byIdx, byType *Placeholder
	for _, sh := range l.Shapes {
		ph, ok := sh.(*Placeholder)
		if !ok {
			continue
		}
		if ph.Index == idx && byIdx == nil {
			byIdx = ph
		}
		if isTitleType(phType) && isTitleType(ph.PhType) && byType == nil {
			byType = ph
		}
	}
	if isTitleType(phType) && byType != nil {
		return byType
	}
	return byIdx
}

// Master is a slide master: the final stop of the inheritance walk.
type Master struct {
	PartName string  `json:"part_name"`
	Shapes   []Shape `json:"-"`

	root *oxml.Element
}

// Root returns the source part tree, or nil.
func (m *Master) Root() *oxml.Element { return m.root }

// SetRoot attaches the source part tree.
func (m *Master) SetRoot(root *oxml.Element) { m.root = root }

// Placeholder returns the master placeholder matching the given index or
// title type, or nil.
func (m *Master) Placeholder(phType string, idx int) *Placeholder {
	for _, sh := range m.Shapes {
		ph, ok := sh.(*Placeholder)
		if !ok {
			continue
		}
		if isTitleType(phType) && isTitleType(ph.PhType) {
			return ph
		}
		if ph.Index == idx {
			return ph
		}
	}
	return nil
}

func isTitleType(phType string) bool {
	return phType == "title" || phType == "ctrTitle"
}

func insertShape(shapes []Shape, i int, sh Shape) []Shape {
	if i < 0 {
		i = 0
	}
	if i >= len(shapes) {
		return append(shapes, sh)
	}
	shapes = append(shapes, nil)
	copy(shapes[i+1:], shapes[i:])
	shapes[i] = sh
	return shapes
}

func moveShape(shapes []Shape, from, to int) ([]Shape, bool) {
	if from < 0 || from >= len(shapes) || to < 0 || to >= len(shapes) || from == to {
		return shapes, false
	}
	sh := shapes[from]
	shapes = append(shapes[:from], shapes[from+1:]...)
	shapes = append(shapes, nil)
	copy(shapes[to+1:], shapes[to:])
	shapes[to] = sh
	return shapes, true
}

// reindex renumbers paint order contiguously from zero.
func reindex(shapes []Shape) {
	for i, sh := range shapes {
		sh.common().ZOrder = i
	}
}

// ReindexShapes renumbers paint order contiguously from zero. It is used by
// the translator after building a shape sequence.
func ReindexShapes(shapes []Shape) {
	reindex(shapes)
}
