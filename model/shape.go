package model

import (
	"github.com/Force1ess/PPTParse/oxml"
)

// ShapeKind discriminates the shape variants.
type ShapeKind int

const (
	KindGeneric ShapeKind = iota
	KindTextBox
	KindPicture
	KindGroup
	KindPlaceholder
	KindGraphicFrame
)

func (k ShapeKind) String() string {
	switch k {
	case KindTextBox:
		return "textbox"
	case KindPicture:
		return "picture"
	case KindGroup:
		return "group"
	case KindPlaceholder:
		return "placeholder"
	case KindGraphicFrame:
		return "graphic_frame"
	default:
		return "generic"
	}
}

// Shape is the interface all slide shapes implement. Every shape belongs to
// exactly one parent, a slide or a group.
type Shape interface {
	Kind() ShapeKind
	ID() int
	Name() string
	Frame() *Frame
	ZIndex() int
	// Raw returns the source element this shape was parsed from, or nil
	// for shapes created in memory.
	Raw() *oxml.Element

	common() *ShapeCommon
}

// Frame is shape geometry: offset and extent in EMU, rotation in degrees.
// A nil Frame on a shape means the geometry is inherited.
type Frame struct {
	X        oxml.EMU `json:"x"`
	Y        oxml.EMU `json:"y"`
	Width    oxml.EMU `json:"width"`
	Height   oxml.EMU `json:"height"`
	Rotation float64  `json:"rotation,omitempty"`
	FlipH    bool     `json:"flip_h,omitempty"`
	FlipV    bool     `json:"flip_v,omitempty"`
}

// ShapeCommon carries the attributes shared by every variant.
type ShapeCommon struct {
	ShapeID   int    `json:"id"`
	ShapeName string `json:"name,omitempty"`
	ZOrder    int    `json:"z_order"`

	FrameVal *Frame `json:"frame,omitempty"`

	raw *oxml.Element
}

func (c *ShapeCommon) ID() int              { return c.ShapeID }
func (c *ShapeCommon) Name() string         { return c.ShapeName }
func (c *ShapeCommon) Frame() *Frame        { return c.FrameVal }
func (c *ShapeCommon) ZIndex() int          { return c.ZOrder }
func (c *ShapeCommon) Raw() *oxml.Element   { return c.raw }
func (c *ShapeCommon) common() *ShapeCommon { return c }

// SetRaw attaches the source element the shape was parsed from.
func (c *ShapeCommon) SetRaw(el *oxml.Element) { c.raw = el }

// TextBox is a shape whose content is a text frame.
type TextBox struct {
	ShapeCommon
	Text *TextFrame `json:"text,omitempty"`
}

func (*TextBox) Kind() ShapeKind { return KindTextBox }

// Picture references a media entry by part name; the blob itself is owned
// by the document's media set.
type Picture struct {
	ShapeCommon
	MediaPart string `json:"media_part,omitempty"`
	// Crop is the source rectangle inset as fractions of the image, or nil.
	Crop *Crop `json:"crop,omitempty"`
	// AltText is the picture description, possibly produced by OCR.
	AltText string `json:"alt_text,omitempty"`
}

func (*Picture) Kind() ShapeKind { return KindPicture }

// Crop is a srcRect inset: each side as a fraction of the image dimension.
type Crop struct {
	Left   float64 `json:"left,omitempty"`
	Top    float64 `json:"top,omitempty"`
	Right  float64 `json:"right,omitempty"`
	Bottom float64 `json:"bottom,omitempty"`
}

// Group recursively owns child shapes. Child coordinates live in the group's
// child coordinate space.
type Group struct {
	ShapeCommon
	Shapes []Shape `json:"-"`

	// Child coordinate space origin and extent.
	ChildX      oxml.EMU `json:"child_x,omitempty"`
	ChildY      oxml.EMU `json:"child_y,omitempty"`
	ChildWidth  oxml.EMU `json:"child_width,omitempty"`
	ChildHeight oxml.EMU `json:"child_height,omitempty"`
}

func (*Group) Kind() ShapeKind { return KindGroup }

// InsertShape inserts a child shape at index i and re-indexes paint order.
func (g *Group) InsertShape(d *Document, i int, sh Shape) {
	g.Shapes = insertShape(g.Shapes, i, sh)
	if d != nil {
		d.retainShapeMedia(sh)
	}
	reindex(g.Shapes)
}

// RemoveShape removes and returns the child at index i, releasing media the
// removed subtree holds.
func (g *Group) RemoveShape(d *Document, i int) Shape {
	if i < 0 || i >= len(g.Shapes) {
		return nil
	}
	sh := g.Shapes[i]
	g.Shapes = append(g.Shapes[:i], g.Shapes[i+1:]...)
	if d != nil {
		d.releaseShapeMedia(sh)
	}
	reindex(g.Shapes)
	return sh
}

// MoveShape moves a child between indexes and re-indexes paint order.
func (g *Group) MoveShape(from, to int) bool {
	var ok bool
	g.Shapes, ok = moveShape(g.Shapes, from, to)
	if ok {
		reindex(g.Shapes)
	}
	return ok
}

// Placeholder is a shape inheriting unset attributes from the layout
// placeholder of the same index, which in turn inherits from the master.
type Placeholder struct {
	ShapeCommon
	PhType string     `json:"ph_type,omitempty"`
	Index  int        `json:"index"`
	Text   *TextFrame `json:"text,omitempty"`
}

func (*Placeholder) Kind() ShapeKind { return KindPlaceholder }

// GraphicFrame holds tabular or chart content. Only tables are modeled;
// anything else stays raw.
type GraphicFrame struct {
	ShapeCommon
	URI   string `json:"uri,omitempty"`
	Table *Table `json:"table,omitempty"`
}

func (*GraphicFrame) Kind() ShapeKind { return KindGraphicFrame }

// Table is tabular content inside a graphic frame.
type Table struct {
	ColWidths []oxml.EMU `json:"col_widths,omitempty"`
	Rows      []TableRow `json:"rows"`
}

// TableRow is one table row.
type TableRow struct {
	Height oxml.EMU    `json:"height,omitempty"`
	Cells  []TableCell `json:"cells"`
}

// TableCell is one table cell.
type TableCell struct {
	Text    string `json:"text,omitempty"`
	RowSpan int    `json:"row_span,omitempty"`
	ColSpan int    `json:"col_span,omitempty"`
	Merged  bool   `json:"merged,omitempty"`
}

// Generic wraps markup the translator does not understand. The raw element
// is re-emitted unchanged at save, and carried as text through map
// conversion.
type Generic struct {
	ShapeCommon
	// XML is the marshaled source element, kept so unknown shapes survive
	// map conversion as well as write-back.
	XML string `json:"xml,omitempty"`
}

func (*Generic) Kind() ShapeKind { return KindGeneric }

// WalkShapes visits every shape in a slide depth-first, groups before their
// children.
func WalkShapes(shapes []Shape, fn func(Shape)) {
	for _, sh := range shapes {
		fn(sh)
		if g, ok := sh.(*Group); ok {
			WalkShapes(g.Shapes, fn)
		}
	}
}
