package opc

import (
	"encoding/xml"
	"fmt"
	"path"
	"strconv"
	"strings"
)

// Relationship namespace and common relationship types.
const (
	nsRelationships = "http://schemas.openxmlformats.org/package/2006/relationships"

	RelTypeOfficeDocument = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument"
	RelTypeSlide          = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/slide"
	RelTypeSlideLayout    = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/slideLayout"
	RelTypeSlideMaster    = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/slideMaster"
	RelTypeNotesSlide     = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/notesSlide"
	RelTypeImage          = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/image"
)

// Relationship is one typed, identified link from a part to another part or
// to an external resource.
type Relationship struct {
	ID         string
	Type       string
	Target     string
	TargetMode string // "External" for external targets, empty otherwise
}

// External reports whether the relationship points outside the package.
func (r Relationship) External() bool {
	return r.TargetMode == "External"
}

// Relationships is an ordered relationship set for one part.
type Relationships struct {
	Rels []Relationship
}

type relationshipsXML struct {
	XMLName      xml.Name          `xml:"Relationships"`
	Relationship []relationshipXML `xml:"Relationship"`
}

type relationshipXML struct {
	ID         string `xml:"Id,attr"`
	Type       string `xml:"Type,attr"`
	Target     string `xml:"Target,attr"`
	TargetMode string `xml:"TargetMode,attr"`
}

// ParseRelationships parses a .rels part, preserving document order and
// external targets verbatim.
func ParseRelationships(data []byte) (*Relationships, error) {
	var raw relationshipsXML
	if err := xml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: bad relationships part: %v", ErrPackageCorrupt, err)
	}
	rels := &Relationships{Rels: make([]Relationship, 0, len(raw.Relationship))}
	for _, r := range raw.Relationship {
		rels.Rels = append(rels.Rels, Relationship{
			ID:         r.ID,
			Type:       r.Type,
			Target:     r.Target,
			TargetMode: r.TargetMode,
		})
	}
	return rels, nil
}

// Marshal serializes the relationship set in document order.
func (r *Relationships) Marshal() []byte {
	var sb strings.Builder
	sb.WriteString(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>`)
	sb.WriteString("\r\n")
	sb.WriteString(`<Relationships xmlns="` + nsRelationships + `">`)
	for _, rel := range r.Rels {
		sb.WriteString(`<Relationship Id="`)
		xmlEscape(&sb, rel.ID)
		sb.WriteString(`" Type="`)
		xmlEscape(&sb, rel.Type)
		sb.WriteString(`" Target="`)
		xmlEscape(&sb, rel.Target)
		sb.WriteString(`"`)
		if rel.TargetMode != "" {
			sb.WriteString(` TargetMode="`)
			xmlEscape(&sb, rel.TargetMode)
			sb.WriteString(`"`)
		}
		sb.WriteString(`/>`)
	}
	sb.WriteString(`</Relationships>`)
	return []byte(sb.String())
}

// ByID returns the relationship with the given id, or nil.
func (r *Relationships) ByID(id string) *Relationship {
	for i := range r.Rels {
		if r.Rels[i].ID == id {
			return &r.Rels[i]
		}
	}
	return nil
}

// ByType returns the first relationship of the given type, or nil.
func (r *Relationships) ByType(relType string) *Relationship {
	for i := range r.Rels {
		if r.Rels[i].Type == relType {
			return &r.Rels[i]
		}
	}
	return nil
}

// AllOfType returns every relationship of the given type in document order.
func (r *Relationships) AllOfType(relType string) []Relationship {
	var out []Relationship
	for _, rel := range r.Rels {
		if rel.Type == relType {
			out = append(out, rel)
		}
	}
	return out
}

// Add appends a relationship under the next free rId and returns the id.
func (r *Relationships) Add(relType, target string) string {
	max := 0
	for _, rel := range r.Rels {
		if n, err := strconv.Atoi(strings.TrimPrefix(rel.ID, "rId")); err == nil && n > max {
			max = n
		}
	}
	id := "rId" + strconv.Itoa(max+1)
	r.Rels = append(r.Rels, Relationship{ID: id, Type: relType, Target: target})
	return id
}

// Remove deletes the relationship with the given id.
func (r *Relationships) Remove(id string) bool {
	for i := range r.Rels {
		if r.Rels[i].ID == id {
			r.Rels = append(r.Rels[:i], r.Rels[i+1:]...)
			return true
		}
	}
	return false
}

// RelsPartName returns the relationship part name for a part, or the package
// relationship part when partName is empty.
func RelsPartName(partName string) string {
	if partName == "" {
		return "_rels/.rels"
	}
	dir := path.Dir(partName)
	base := path.Base(partName)
	if dir == "." {
		return path.Join("_rels", base+".rels")
	}
	return path.Join(dir, "_rels", base+".rels")
}

// ResolveTarget resolves a relationship target relative to the part holding
// the relationship. External targets are returned unchanged.
func ResolveTarget(partName string, rel Relationship) string {
	if rel.External() {
		return rel.Target
	}
	if strings.HasPrefix(rel.Target, "/") {
		return strings.TrimPrefix(rel.Target, "/")
	}
	base := "."
	if partName != "" {
		base = path.Dir(partName)
	}
	return path.Clean(path.Join(base, rel.Target))
}

func xmlEscape(sb *strings.Builder, s string) {
	xml.EscapeText(sb, []byte(s))
}
