package opc

import (
	"encoding/xml"
	"strings"
)

const nsContentTypes = "http://schemas.openxmlformats.org/package/2006/content-types"

// Content types the higher layers care about.
const (
	ContentTypePresentation = "application/vnd.openxmlformats-officedocument.presentationml.presentation.main+xml"
	ContentTypeSlide        = "application/vnd.openxmlformats-officedocument.presentationml.slide+xml"
	ContentTypeSlideLayout  = "application/vnd.openxmlformats-officedocument.presentationml.slideLayout+xml"
	ContentTypeSlideMaster  = "application/vnd.openxmlformats-officedocument.presentationml.slideMaster+xml"
)

// ContentTypes is the package content-type index: extension defaults plus
// per-part overrides, kept in document order.
type ContentTypes struct {
	Defaults  []TypeDefault
	Overrides []TypeOverride
}

// TypeDefault maps a file extension to a content type.
type TypeDefault struct {
	Extension   string
	ContentType string
}

// TypeOverride maps one part name to a content type.
type TypeOverride struct {
	PartName    string
	ContentType string
}

type contentTypesXML struct {
	XMLName  xml.Name `xml:"Types"`
	Default  []struct {
		Extension   string `xml:"Extension,attr"`
		ContentType string `xml:"ContentType,attr"`
	} `xml:"Default"`
	Override []struct {
		PartName    string `xml:"PartName,attr"`
		ContentType string `xml:"ContentType,attr"`
	} `xml:"Override"`
}

// NewContentTypes returns an index carrying the baseline defaults every
// package needs.
func NewContentTypes() *ContentTypes {
	return &ContentTypes{
		Defaults: []TypeDefault{
			{Extension: "rels", ContentType: "application/vnd.openxmlformats-package.relationships+xml"},
			{Extension: "xml", ContentType: "application/xml"},
		},
	}
}

// ParseContentTypes parses the [Content_Types].xml part.
func ParseContentTypes(data []byte) (*ContentTypes, error) {
	var raw contentTypesXML
	if err := xml.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	ct := &ContentTypes{}
	for _, d := range raw.Default {
		ct.Defaults = append(ct.Defaults, TypeDefault{Extension: d.Extension, ContentType: d.ContentType})
	}
	for _, o := range raw.Override {
		ct.Overrides = append(ct.Overrides, TypeOverride{PartName: o.PartName, ContentType: o.ContentType})
	}
	return ct, nil
}

// Marshal serializes the index in document order.
func (ct *ContentTypes) Marshal() []byte {
	var sb strings.Builder
	sb.WriteString(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>`)
	sb.WriteString("\r\n")
	sb.WriteString(`<Types xmlns="` + nsContentTypes + `">`)
	for _, d := range ct.Defaults {
		sb.WriteString(`<Default Extension="`)
		xmlEscape(&sb, d.Extension)
		sb.WriteString(`" ContentType="`)
		xmlEscape(&sb, d.ContentType)
		sb.WriteString(`"/>`)
	}
	for _, o := range ct.Overrides {
		sb.WriteString(`<Override PartName="`)
		xmlEscape(&sb, o.PartName)
		sb.WriteString(`" ContentType="`)
		xmlEscape(&sb, o.ContentType)
		sb.WriteString(`"/>`)
	}
	sb.WriteString(`</Types>`)
	return []byte(sb.String())
}

// TypeOf returns the content type for a part name, consulting overrides
// first and extension defaults second.
func (ct *ContentTypes) TypeOf(partName string) string {
	withSlash := "/" + strings.TrimPrefix(partName, "/")
	for _, o := range ct.Overrides {
		if o.PartName == withSlash {
			return o.ContentType
		}
	}
	if i := strings.LastIndex(partName, "."); i >= 0 {
		ext := strings.ToLower(partName[i+1:])
		for _, d := range ct.Defaults {
			if strings.ToLower(d.Extension) == ext {
				return d.ContentType
			}
		}
	}
	return ""
}

// PartOfType returns the first part name overridden to the given type, or "".
func (ct *ContentTypes) PartOfType(contentType string) string {
	for _, o := range ct.Overrides {
		if o.ContentType == contentType {
			return strings.TrimPrefix(o.PartName, "/")
		}
	}
	return ""
}

// EnsureDefault adds an extension default if no mapping exists yet.
func (ct *ContentTypes) EnsureDefault(extension, contentType string) {
	ext := strings.ToLower(extension)
	for _, d := range ct.Defaults {
		if strings.ToLower(d.Extension) == ext {
			return
		}
	}
	ct.Defaults = append(ct.Defaults, TypeDefault{Extension: ext, ContentType: contentType})
}

// AddOverride adds or replaces a per-part override.
func (ct *ContentTypes) AddOverride(partName, contentType string) {
	withSlash := "/" + strings.TrimPrefix(partName, "/")
	for i, o := range ct.Overrides {
		if o.PartName == withSlash {
			ct.Overrides[i].ContentType = contentType
			return
		}
	}
	ct.Overrides = append(ct.Overrides, TypeOverride{PartName: withSlash, ContentType: contentType})
}

// RemoveOverride deletes the override for a part name.
func (ct *ContentTypes) RemoveOverride(partName string) {
	withSlash := "/" + strings.TrimPrefix(partName, "/")
	for i, o := range ct.Overrides {
		if o.PartName == withSlash {
			ct.Overrides = append(ct.Overrides[:i], ct.Overrides[i+1:]...)
			return
		}
	}
}
