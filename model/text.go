package model

import (
	"strings"

	"github.com/Force1ess/PPTParse/oxml"
)

// TextFrame is the text content of a shape: an ordered paragraph sequence.
type TextFrame struct {
	Paragraphs []*Paragraph `json:"paragraphs"`
	// Anchor is the vertical anchor (t, ctr, b), empty when inherited.
	Anchor string `json:"anchor,omitempty"`

	raw *oxml.Element
}

// Raw returns the source txBody element, or nil.
func (tf *TextFrame) Raw() *oxml.Element { return tf.raw }

// SetRaw attaches the source txBody element.
func (tf *TextFrame) SetRaw(el *oxml.Element) { tf.raw = el }

// Text returns the plain text of the frame, paragraphs joined by newlines.
func (tf *TextFrame) Text() string {
	if tf == nil {
		return ""
	}
	parts := make([]string, 0, len(tf.Paragraphs))
	for _, p := range tf.Paragraphs {
		parts = append(parts, p.Text())
	}
	return strings.Join(parts, "\n")
}

// Paragraph is an ordered run sequence with paragraph-level properties.
type Paragraph struct {
	Runs []*Run `json:"runs"`
	// Level is the outline level (0-8).
	Level int `json:"level,omitempty"`
	// Alignment is l, ctr, r or just; empty when inherited.
	Alignment string `json:"alignment,omitempty"`
	// Bullet describes the bullet, nil when inherited.
	Bullet *Bullet `json:"bullet,omitempty"`

	raw *oxml.Element
}

// Raw returns the source paragraph element, or nil.
func (p *Paragraph) Raw() *oxml.Element { return p.raw }

// SetRaw attaches the source paragraph element.
func (p *Paragraph) SetRaw(el *oxml.Element) { p.raw = el }

// Text returns the concatenated run text.
func (p *Paragraph) Text() string {
	var sb strings.Builder
	for _, r := range p.Runs {
		sb.WriteString(r.Text)
	}
	return sb.String()
}

// Bullet describes paragraph bulleting.
type Bullet struct {
	// None suppresses inherited bullets.
	None bool `json:"none,omitempty"`
	// Char is the bullet character for character bullets.
	Char string `json:"char,omitempty"`
	// AutoNum is the numbering scheme for numbered bullets.
	AutoNum string `json:"auto_num,omitempty"`
	StartAt int    `json:"start_at,omitempty"`
}

// Run is a text span with uniform character formatting. Line breaks and
// field codes are runs too, flagged so serialization can reproduce them.
type Run struct {
	Text string `json:"text"`
	Font Font   `json:"font"`
	// Break marks a line break run (an a:br element).
	Break bool `json:"break,omitempty"`
	// Field is the field type (slidenum, datetime, ...) for field runs.
	Field string `json:"field,omitempty"`
	// FieldID is the field instance id carried alongside Field.
	FieldID string `json:"field_id,omitempty"`

	raw *oxml.Element
}

// Raw returns the source run element, or nil.
func (r *Run) Raw() *oxml.Element { return r.raw }

// SetRaw attaches the source run element.
func (r *Run) SetRaw(el *oxml.Element) { r.raw = el }

// Font is character formatting. Nil fields are unset and inherit from the
// placeholder, layout and master chain.
type Font struct {
	Name      *string          `json:"name,omitempty"`
	Size      *oxml.Centipoints `json:"size,omitempty"`
	Bold      *bool            `json:"bold,omitempty"`
	Italic    *bool            `json:"italic,omitempty"`
	Underline *string          `json:"underline,omitempty"`
	// Color is a hex RGB value like "FF0000".
	Color *string `json:"color,omitempty"`
}

// IsZero reports whether every field is unset.
func (f Font) IsZero() bool {
	return f.Name == nil && f.Size == nil && f.Bold == nil &&
		f.Italic == nil && f.Underline == nil && f.Color == nil
}

// Merge returns f with unset fields filled from other. Explicitly set
// fields always win over inherited ones.
func (f Font) Merge(other Font) Font {
	if f.Name == nil {
		f.Name = other.Name
	}
	if f.Size == nil {
		f.Size = other.Size
	}
	if f.Bold == nil {
		f.Bold = other.Bold
	}
	if f.Italic == nil {
		f.Italic = other.Italic
	}
	if f.Underline == nil {
		f.Underline = other.Underline
	}
	if f.Color == nil {
		f.Color = other.Color
	}
	return f
}

// FirstFont returns the font of the first run in the frame, or a zero Font.
func (tf *TextFrame) FirstFont() Font {
	if tf == nil {
		return Font{}
	}
	for _, p := range tf.Paragraphs {
		for _, r := range p.Runs {
			return r.Font
		}
	}
	return Font{}
}
