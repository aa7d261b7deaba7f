package model

import (
	"github.com/Force1ess/PPTParse/oxml"
)

// Document is the root aggregate: ordered slides, the layout and master
// tables placeholders resolve against, and the shared media set.
type Document struct {
	SlideWidth  oxml.EMU `json:"slide_width"`
	SlideHeight oxml.EMU `json:"slide_height"`

	Slides []*Slide `json:"slides"`

	// Layouts and Masters are keyed by part name. Slides reference layouts
	// by part name only, never by pointer, so structural edits cannot leave
	// dangling references.
	Layouts map[string]*Layout `json:"layouts,omitempty"`
	Masters map[string]*Master `json:"masters,omitempty"`

	// Media is keyed by part name. Entries leave the set when their last
	// holder releases them; the backing package part is dropped at save.
	Media map[string]*Media `json:"media,omitempty"`

	Metadata Metadata `json:"metadata"`

	// Warnings collects non-fatal degradations recorded during parse.
	Warnings []Warning `json:"-"`
}

// Metadata holds document properties carried from docProps parts.
type Metadata struct {
	Title          string `json:"title,omitempty"`
	Subject        string `json:"subject,omitempty"`
	Author         string `json:"author,omitempty"`
	Keywords       string `json:"keywords,omitempty"`
	LastModifiedBy string `json:"last_modified_by,omitempty"`
	Application    string `json:"application,omitempty"`
}

// NewDocument creates an empty document with standard 4:3 slide dimensions.
func NewDocument() *Document {
	return &Document{
		SlideWidth:  9144000,
		SlideHeight: 6858000,
		Layouts:     make(map[string]*Layout),
		Masters:     make(map[string]*Master),
		Media:       make(map[string]*Media),
	}
}

// AddSlide appends a slide.
func (d *Document) AddSlide(s *Slide) {
	d.Slides = append(d.Slides, s)
}

// Slide returns the slide at index, or nil if out of range.
func (d *Document) Slide(index int) *Slide {
	if index < 0 || index >= len(d.Slides) {
		return nil
	}
	return d.Slides[index]
}

// SlideCount returns the number of slides.
func (d *Document) SlideCount() int {
	return len(d.Slides)
}

// Layout returns the layout a slide inherits from, or nil.
func (d *Document) Layout(s *Slide) *Layout {
	if s == nil || s.LayoutPart == "" {
		return nil
	}
	return d.Layouts[s.LayoutPart]
}

// Master returns the master a layout inherits from, or nil.
func (d *Document) Master(l *Layout) *Master {
	if l == nil || l.MasterPart == "" {
		return nil
	}
	return d.Masters[l.MasterPart]
}

// Warn records a non-fatal degradation.
func (d *Document) Warn(w Warning) {
	d.Warnings = append(d.Warnings, w)
}

// RetainMedia increments the reference count of a media entry, registering
// it if new.
func (d *Document) RetainMedia(m *Media) {
	if d.Media == nil {
		d.Media = make(map[string]*Media)
	}
	if existing, ok := d.Media[m.PartName]; ok {
		existing.refs++
		return
	}
	m.refs = 1
	d.Media[m.PartName] = m
}

// ReleaseMedia decrements the reference count for a media part name.
// Reaching zero removes the entry from the active set; the underlying
// package part is only dropped at save.
func (d *Document) ReleaseMedia(partName string) {
	m, ok := d.Media[partName]
	if !ok {
		return
	}
	m.refs--
	if m.refs <= 0 {
		delete(d.Media, partName)
	}
}

// releaseShapeMedia releases every media reference held by a shape subtree.
func (d *Document) releaseShapeMedia(s Shape) {
	switch sh := s.(type) {
	case *Picture:
		if sh.MediaPart != "" {
			d.ReleaseMedia(sh.MediaPart)
		}
	case *Group:
		for _, child := range sh.Shapes {
			d.releaseShapeMedia(child)
		}
	}
}

// retainShapeMedia retains every media reference held by a shape subtree.
func (d *Document) retainShapeMedia(s Shape) {
	switch sh := s.(type) {
	case *Picture:
		if m, ok := d.Media[sh.MediaPart]; ok {
			m.refs++
		}
	case *Group:
		for _, child := range sh.Shapes {
			d.retainShapeMedia(child)
		}
	}
}
