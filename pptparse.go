// Package pptparse loads OOXML presentation packages into a typed, mutable
// shape model and saves them back with round-trip fidelity. Markup the
// translator does not understand is preserved verbatim and re-emitted
// unchanged.
//
// Basic usage:
//
//	doc, err := pptparse.Load("deck.pptx", pptparse.NewConfig("", ""))
//	if err != nil {
//	    // handle error
//	}
//	if len(doc.Warnings) > 0 {
//	    log.Println("Warnings:", pptparse.FormatWarnings(doc.Warnings))
//	}
//	doc.Slide(0).RemoveShape(doc.Document, 2)
//	err = doc.Save("deck-edited.pptx")
//
// With a per-run scratch directory for extracted media:
//
//	cfg := pptparse.NewSessionConfig("runs")
//	defer cfg.RemoveAll()
//	doc, err := pptparse.Load("deck.pptx", cfg)
//
// For advanced use cases, the lower-level opc, oxml, model, pml and render
// packages are also available.
package pptparse

import (
	"fmt"
	"io"
	"strings"

	"github.com/Force1ess/PPTParse/model"
	"github.com/Force1ess/PPTParse/opc"
	"github.com/Force1ess/PPTParse/pml"
	"github.com/Force1ess/PPTParse/render"
)

// Document is a loaded presentation: the shape model plus the backing
// package it round-trips through.
type Document struct {
	*model.Document

	container *opc.Container
	cfg       Config
}

// Load reads a presentation file into a document.
func Load(path string, cfg Config) (*Document, error) {
	c, err := opc.Open(path)
	if err != nil {
		return nil, err
	}
	return fromContainer(c, cfg)
}

// LoadReader reads a presentation package from an io.ReaderAt.
func LoadReader(ra io.ReaderAt, size int64, cfg Config) (*Document, error) {
	c, err := opc.OpenReader(ra, size)
	if err != nil {
		return nil, err
	}
	return fromContainer(c, cfg)
}

// FromContainer builds a document from an already-opened package. The
// document takes ownership of the container.
func FromContainer(c *opc.Container, cfg Config) (*Document, error) {
	return fromContainer(c, cfg)
}

func fromContainer(c *opc.Container, cfg Config) (*Document, error) {
	m, err := pml.Parse(c, pml.Options{
		ImageDir:   cfg.ImageDir(),
		Strictness: cfg.Strictness(),
		Logger:     cfg.Logger(),
	})
	if err != nil {
		return nil, err
	}
	return &Document{Document: m, container: c, cfg: cfg}, nil
}

// New creates an empty presentation with standard slide dimensions. A
// minimal backing package is synthesized on the first save.
func New(cfg Config) *Document {
	return &Document{Document: model.NewDocument(), cfg: cfg}
}

// FromMap reconstructs a document from the map form produced by ToMap.
// The backing package is synthesized on the first save, so layout and
// master inheritance from the original package is not available.
func FromMap(m map[string]any, cfg Config) (*Document, error) {
	md, err := model.FromMap(m)
	if err != nil {
		return nil, err
	}
	return &Document{Document: md, cfg: cfg}, nil
}

// Save writes the presentation to a file. It can be called repeatedly with
// any path; the in-memory package stays consistent across saves.
func (d *Document) Save(path string) error {
	if err := d.sync(); err != nil {
		return err
	}
	return d.container.WriteFile(path)
}

// Write emits the presentation package to a writer.
func (d *Document) Write(w io.Writer) error {
	if err := d.sync(); err != nil {
		return err
	}
	_, err := d.container.WriteTo(w)
	return err
}

// Container returns the backing package after syncing the model into it.
// Mostly useful for inspecting parts in tests and tooling.
func (d *Document) Container() (*opc.Container, error) {
	if err := d.sync(); err != nil {
		return nil, err
	}
	return d.container, nil
}

func (d *Document) sync() error {
	if d.container == nil {
		c, err := pml.Build(d.Document)
		if err != nil {
			return err
		}
		d.container = c
		return nil
	}
	return pml.Save(d.Document, d.container)
}

// Export renders the document in a lossy, one-way textual format.
// Supported formats: "html" (full markup via the render registry) and
// "text" (plain text, slides separated by blank lines).
func (d *Document) Export(format string) (string, error) {
	switch format {
	case "html":
		return render.HTML(d.Document, render.Options{ShowImages: true, InlineStyles: true})
	case "text":
		return exportText(d.Document), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
}

func exportText(doc *model.Document) string {
	var sb strings.Builder
	for i, slide := range doc.Slides {
		if i > 0 {
			sb.WriteString("\n")
		}
		model.WalkShapes(slide.Shapes, func(sh model.Shape) {
			var tf *model.TextFrame
			switch v := sh.(type) {
			case *model.TextBox:
				tf = v.Text
			case *model.Placeholder:
				tf = v.Text
			}
			if text := tf.Text(); text != "" {
				sb.WriteString(text)
				sb.WriteString("\n")
			}
		})
	}
	return sb.String()
}
