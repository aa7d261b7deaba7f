package oxml

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding/htmlindex"
)

// xmlNamespace is the URL the decoder substitutes for the reserved "xml" prefix.
const xmlNamespace = "http://www.w3.org/XML/1998/namespace"

// Parse-related errors.
var (
	ErrMalformed = errors.New("oxml: malformed markup")
	ErrNoRoot    = errors.New("oxml: no root element")
)

// Node is one node in a markup tree: *Element, CharData, Comment or ProcInst.
type Node interface {
	node()
}

// CharData is a text segment between elements.
type CharData string

func (CharData) node() {}

// Comment is a <!-- --> comment preserved in place.
type Comment string

func (Comment) node() {}

// ProcInst is a processing instruction preserved in place.
type ProcInst struct {
	Target string
	Inst   []byte
}

func (ProcInst) node() {}

// Element is a markup element with ordered attributes and children.
type Element struct {
	Name     xml.Name
	Attrs    []xml.Attr
	Children []Node
}

func (*Element) node() {}

// Parse builds an element tree from a complete XML part. Parts declaring a
// non-UTF-8 encoding are transcoded via x/text before decoding.
func Parse(data []byte) (*Element, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.CharsetReader = charsetReader

	var root *Element
	stack := make([]*Element, 0, 8)

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			el := &Element{
				Name:  t.Name,
				Attrs: append([]xml.Attr(nil), t.Attr...),
			}
			if len(stack) == 0 {
				if root != nil {
					return nil, fmt.Errorf("%w: multiple root elements", ErrMalformed)
				}
				root = el
			} else {
				parent := stack[len(stack)-1]
				parent.Children = append(parent.Children, el)
			}
			stack = append(stack, el)
		case xml.EndElement:
			if len(stack) == 0 {
				return nil, fmt.Errorf("%w: unexpected end element", ErrMalformed)
			}
			stack = stack[:len(stack)-1]
		case xml.CharData:
			if len(stack) > 0 {
				cur := stack[len(stack)-1]
				cur.Children = append(cur.Children, CharData(t))
			}
		case xml.Comment:
			if len(stack) > 0 {
				cur := stack[len(stack)-1]
				cur.Children = append(cur.Children, Comment(t))
			}
		case xml.ProcInst:
			// The <?xml?> declaration is re-synthesized on marshal; keep
			// any other instruction in place.
			if len(stack) > 0 {
				cur := stack[len(stack)-1]
				cur.Children = append(cur.Children, ProcInst{Target: t.Target, Inst: append([]byte(nil), t.Inst...)})
			}
		}
	}

	if root == nil {
		return nil, ErrNoRoot
	}
	if len(stack) != 0 {
		return nil, fmt.Errorf("%w: unclosed element", ErrMalformed)
	}
	return root, nil
}

// charsetReader transcodes legacy part encodings to UTF-8.
func charsetReader(charset string, input io.Reader) (io.Reader, error) {
	enc, err := htmlindex.Get(charset)
	if err != nil {
		return nil, fmt.Errorf("oxml: unsupported encoding %q", charset)
	}
	return enc.NewDecoder().Reader(input), nil
}

// nsScope tracks in-scope namespace prefix declarations during marshaling.
type nsScope struct {
	parent     *nsScope
	prefixes   map[string]string // namespace URL -> prefix
	defaultURL string
}

func (s *nsScope) push(attrs []xml.Attr) *nsScope {
	child := &nsScope{parent: s, defaultURL: s.defaultURL}
	for _, a := range attrs {
		switch {
		case a.Name.Space == "xmlns":
			if child.prefixes == nil {
				child.prefixes = make(map[string]string)
			}
			child.prefixes[a.Value] = a.Name.Local
		case a.Name.Space == "" && a.Name.Local == "xmlns":
			child.defaultURL = a.Value
		}
	}
	return child
}

func (s *nsScope) prefixFor(url string) (string, bool) {
	for sc := s; sc != nil; sc = sc.parent {
		if p, ok := sc.prefixes[url]; ok {
			return p, true
		}
	}
	return "", false
}

// Marshal serializes the element subtree. Attribute order, text segments and
// namespace prefixes are reproduced exactly as parsed, so marshal(parse(x))
// is stable under repeated round-trips.
func (e *Element) Marshal() []byte {
	var buf bytes.Buffer
	e.marshal(&buf, &nsScope{})
	return buf.Bytes()
}

// MarshalDocument serializes a complete part with the XML declaration used
// by mainstream presentation producers.
func MarshalDocument(root *Element) []byte {
	var buf bytes.Buffer
	buf.WriteString(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>`)
	buf.WriteString("\r\n")
	root.marshal(&buf, &nsScope{})
	return buf.Bytes()
}

func (e *Element) marshal(buf *bytes.Buffer, scope *nsScope) {
	scope = scope.push(e.Attrs)

	buf.WriteByte('<')
	buf.WriteString(scope.qualify(e.Name, false))
	for _, a := range e.Attrs {
		buf.WriteByte(' ')
		buf.WriteString(scope.qualify(a.Name, true))
		buf.WriteString(`="`)
		writeEscaped(buf, a.Value)
		buf.WriteByte('"')
	}

	if len(e.Children) == 0 {
		buf.WriteString("/>")
		return
	}

	buf.WriteByte('>')
	for _, child := range e.Children {
		switch c := child.(type) {
		case *Element:
			c.marshal(buf, scope)
		case CharData:
			writeEscaped(buf, string(c))
		case Comment:
			buf.WriteString("<!--")
			buf.WriteString(string(c))
			buf.WriteString("-->")
		case ProcInst:
			buf.WriteString("<?")
			buf.WriteString(c.Target)
			buf.WriteByte(' ')
			buf.Write(c.Inst)
			buf.WriteString("?>")
		}
	}
	buf.WriteString("</")
	buf.WriteString(scope.qualify(e.Name, false))
	buf.WriteByte('>')
}

// qualify maps a decoded name back to its prefixed form using the in-scope
// namespace declarations.
func (s *nsScope) qualify(name xml.Name, isAttr bool) string {
	switch name.Space {
	case "":
		return name.Local
	case "xmlns":
		return "xmlns:" + name.Local
	case xmlNamespace:
		return "xml:" + name.Local
	}
	if !isAttr && name.Space == s.defaultURL {
		return name.Local
	}
	if p, ok := s.prefixFor(name.Space); ok {
		return p + ":" + name.Local
	}
	// The decoder leaves undeclared prefixes in Space verbatim.
	return name.Space + ":" + name.Local
}

func writeEscaped(buf *bytes.Buffer, s string) {
	// xml.EscapeText escapes newlines and tabs too, which keeps attribute
	// values well-formed.
	xml.EscapeText(buf, []byte(s))
}

// Find returns the first direct child element with the given local name.
func (e *Element) Find(local string) *Element {
	for _, child := range e.Children {
		if el, ok := child.(*Element); ok && el.Name.Local == local {
			return el
		}
	}
	return nil
}

// FindAll returns all direct child elements with the given local name.
func (e *Element) FindAll(local string) []*Element {
	var out []*Element
	for _, child := range e.Children {
		if el, ok := child.(*Element); ok && el.Name.Local == local {
			out = append(out, el)
		}
	}
	return out
}

// Path descends through successive Find calls, returning nil if any step
// is missing.
func (e *Element) Path(locals ...string) *Element {
	cur := e
	for _, l := range locals {
		cur = cur.Find(l)
		if cur == nil {
			return nil
		}
	}
	return cur
}

// Elements returns all direct child elements in order.
func (e *Element) Elements() []*Element {
	var out []*Element
	for _, child := range e.Children {
		if el, ok := child.(*Element); ok {
			out = append(out, el)
		}
	}
	return out
}

// Attr returns the value of the attribute with the given local name, or "".
func (e *Element) Attr(local string) string {
	for _, a := range e.Attrs {
		if a.Name.Local == local {
			return a.Value
		}
	}
	return ""
}

// AttrNS returns the value of the attribute with the given namespace URL and
// local name, or "".
func (e *Element) AttrNS(space, local string) string {
	for _, a := range e.Attrs {
		if a.Name.Space == space && a.Name.Local == local {
			return a.Value
		}
	}
	return ""
}

// SetAttr sets or appends an attribute by local name, keeping its position
// if it already exists.
func (e *Element) SetAttr(local, value string) {
	for i, a := range e.Attrs {
		if a.Name.Local == local && a.Name.Space == "" {
			e.Attrs[i].Value = value
			return
		}
	}
	e.Attrs = append(e.Attrs, xml.Attr{Name: xml.Name{Local: local}, Value: value})
}

// SetAttrNS sets or appends a namespaced attribute, keeping its position if
// it already exists.
func (e *Element) SetAttrNS(space, local, value string) {
	for i, a := range e.Attrs {
		if a.Name.Space == space && a.Name.Local == local {
			e.Attrs[i].Value = value
			return
		}
	}
	e.Attrs = append(e.Attrs, xml.Attr{Name: xml.Name{Space: space, Local: local}, Value: value})
}

// RemoveAttr removes the attribute with the given local name.
func (e *Element) RemoveAttr(local string) {
	for i, a := range e.Attrs {
		if a.Name.Local == local {
			e.Attrs = append(e.Attrs[:i], e.Attrs[i+1:]...)
			return
		}
	}
}

// Text returns the concatenated character data of direct children.
func (e *Element) Text() string {
	var sb strings.Builder
	for _, child := range e.Children {
		if cd, ok := child.(CharData); ok {
			sb.WriteString(string(cd))
		}
	}
	return sb.String()
}

// SetText replaces all direct character data with a single segment, keeping
// child elements in place.
func (e *Element) SetText(text string) {
	kept := e.Children[:0]
	for _, child := range e.Children {
		if _, ok := child.(CharData); !ok {
			kept = append(kept, child)
		}
	}
	e.Children = append(kept, CharData(text))
}

// AppendChild appends a child element.
func (e *Element) AppendChild(child *Element) {
	e.Children = append(e.Children, child)
}

// InsertChild inserts a child element before index i among all children.
func (e *Element) InsertChild(i int, child *Element) {
	if i < 0 {
		i = 0
	}
	if i >= len(e.Children) {
		e.Children = append(e.Children, child)
		return
	}
	e.Children = append(e.Children, nil)
	copy(e.Children[i+1:], e.Children[i:])
	e.Children[i] = child
}

// RemoveChild removes the first occurrence of the given child element.
func (e *Element) RemoveChild(child *Element) bool {
	for i, c := range e.Children {
		if c == child {
			e.Children = append(e.Children[:i], e.Children[i+1:]...)
			return true
		}
	}
	return false
}

// Clone returns a deep copy of the element subtree.
func (e *Element) Clone() *Element {
	out := &Element{
		Name:  e.Name,
		Attrs: append([]xml.Attr(nil), e.Attrs...),
	}
	for _, child := range e.Children {
		switch c := child.(type) {
		case *Element:
			out.Children = append(out.Children, c.Clone())
		case ProcInst:
			out.Children = append(out.Children, ProcInst{Target: c.Target, Inst: append([]byte(nil), c.Inst...)})
		default:
			out.Children = append(out.Children, c)
		}
	}
	return out
}

// NewElement creates an element in the given namespace URL. The prefix is
// resolved from declarations already in scope when the tree is marshaled.
func NewElement(space, local string) *Element {
	return &Element{Name: xml.Name{Space: space, Local: local}}
}
