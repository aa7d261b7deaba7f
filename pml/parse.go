package pml

import (
	"encoding/xml"
	"errors"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/Force1ess/PPTParse/model"
	"github.com/Force1ess/PPTParse/opc"
	"github.com/Force1ess/PPTParse/oxml"
)

// XML namespaces of the presentation markup.
const (
	nsPresentationML = "http://schemas.openxmlformats.org/presentationml/2006/main"
	nsDrawingML      = "http://schemas.openxmlformats.org/drawingml/2006/main"
	nsRelationships  = "http://schemas.openxmlformats.org/officeDocument/2006/relationships"
)

// Translation errors.
var (
	ErrNotPresentation = errors.New("pml: package does not contain a presentation part")
	ErrMalformedShape  = errors.New("pml: malformed shape node")
)

// parser carries shared state for one load.
type parser struct {
	c   *opc.Container
	cfg Options
	doc *model.Document
	log *zap.Logger
}

// Parse builds a model document from a presentation package. Structural
// problems abort with an error and no document; shape-level problems follow
// the configured strictness.
func Parse(c *opc.Container, cfg Options) (*model.Document, error) {
	ct, err := c.ContentTypes()
	if err != nil {
		return nil, err
	}
	presPart := ct.PartOfType(opc.ContentTypePresentation)
	if presPart == "" {
		// Some producers omit the override; fall back to the well-known name.
		if c.HasPart("ppt/presentation.xml") {
			presPart = "ppt/presentation.xml"
		} else {
			return nil, ErrNotPresentation
		}
	}

	p := &parser{c: c, cfg: cfg, doc: model.NewDocument(), log: cfg.logger()}

	if err := p.parsePresentation(presPart); err != nil {
		return nil, err
	}
	p.parseProperties()
	return p.doc, nil
}

func (p *parser) parsePresentation(presPart string) error {
	data, err := p.c.Part(presPart)
	if err != nil {
		return fmt.Errorf("%w: %v", opc.ErrPackageCorrupt, err)
	}
	root, err := oxml.Parse(data)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", opc.ErrPackageCorrupt, presPart, err)
	}
	if root.Name.Local != "presentation" {
		return ErrNotPresentation
	}

	if sz := root.Find("sldSz"); sz != nil {
		if cx, err := strconv.ParseInt(sz.Attr("cx"), 10, 64); err == nil {
			p.doc.SlideWidth = oxml.EMU(cx)
		}
		if cy, err := strconv.ParseInt(sz.Attr("cy"), 10, 64); err == nil {
			p.doc.SlideHeight = oxml.EMU(cy)
		}
	}

	rels, err := p.c.Relationships(presPart)
	if err != nil {
		return err
	}

	list := root.Find("sldIdLst")
	if list == nil {
		return fmt.Errorf("%w: presentation has no slide list", opc.ErrPackageCorrupt)
	}
	for _, sldID := range list.FindAll("sldId") {
		rid := sldID.AttrNS(nsRelationships, "id")
		rel := rels.ByID(rid)
		if rel == nil {
			return fmt.Errorf("%w: slide relationship %s missing", opc.ErrPackageCorrupt, rid)
		}
		slidePart := opc.ResolveTarget(presPart, *rel)
		slide, err := p.parseSlide(slidePart)
		if err != nil {
			return err
		}
		p.doc.AddSlide(slide)
	}
	return nil
}

func (p *parser) parseSlide(partName string) (*model.Slide, error) {
	data, err := p.c.Part(partName)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", opc.ErrPackageCorrupt, err)
	}
	root, err := oxml.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", opc.ErrPackageCorrupt, partName, err)
	}

	slide := &model.Slide{PartName: partName}
	slide.SetRoot(root)

	rels, err := p.c.Relationships(partName)
	if err != nil {
		return nil, err
	}

	cSld := root.Find("cSld")
	if cSld == nil {
		return nil, fmt.Errorf("%w: %s has no cSld", opc.ErrPackageCorrupt, partName)
	}
	if bg := cSld.Find("bg"); bg != nil {
		slide.SetBackground(bg)
	}
	spTree := cSld.Find("spTree")
	if spTree == nil {
		return nil, fmt.Errorf("%w: %s has no shape tree", opc.ErrPackageCorrupt, partName)
	}

	shapes, err := p.parseShapeTree(spTree, partName, rels, true)
	if err != nil {
		return nil, err
	}
	slide.Shapes = shapes

	if rel := rels.ByType(opc.RelTypeSlideLayout); rel != nil {
		layoutPart := opc.ResolveTarget(partName, *rel)
		slide.LayoutPart = layoutPart
		if err := p.parseLayout(layoutPart); err != nil {
			return nil, err
		}
	}
	if rel := rels.ByType(opc.RelTypeNotesSlide); rel != nil {
		p.parseNotes(slide, opc.ResolveTarget(partName, *rel))
	}

	return slide, nil
}

// parseLayout parses a slide layout once; later slides referencing the same
// layout reuse the entry.
func (p *parser) parseLayout(partName string) error {
	if _, done := p.doc.Layouts[partName]; done {
		return nil
	}
	data, err := p.c.Part(partName)
	if err != nil {
		return fmt.Errorf("%w: %v", opc.ErrPackageCorrupt, err)
	}
	root, err := oxml.Parse(data)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", opc.ErrPackageCorrupt, partName, err)
	}

	layout := &model.Layout{PartName: partName}
	layout.SetRoot(root)
	if cSld := root.Find("cSld"); cSld != nil {
		layout.Name = cSld.Attr("name")
		if spTree := cSld.Find("spTree"); spTree != nil {
			rels, err := p.c.Relationships(partName)
			if err != nil {
				return err
			}
			shapes, err := p.parseShapeTree(spTree, partName, rels, false)
			if err != nil {
				return err
			}
			layout.Shapes = shapes
		}
	}
	p.doc.Layouts[partName] = layout

	rels, err := p.c.Relationships(partName)
	if err != nil {
		return err
	}
	if rel := rels.ByType(opc.RelTypeSlideMaster); rel != nil {
		masterPart := opc.ResolveTarget(partName, *rel)
		layout.MasterPart = masterPart
		if err := p.parseMaster(masterPart); err != nil {
			return err
		}
	}
	return nil
}

func (p *parser) parseMaster(partName string) error {
	if _, done := p.doc.Masters[partName]; done {
		return nil
	}
	data, err := p.c.Part(partName)
	if err != nil {
		return fmt.Errorf("%w: %v", opc.ErrPackageCorrupt, err)
	}
	root, err := oxml.Parse(data)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", opc.ErrPackageCorrupt, partName, err)
	}

	master := &model.Master{PartName: partName}
	master.SetRoot(root)
	if spTree := root.Path("cSld", "spTree"); spTree != nil {
		rels, err := p.c.Relationships(partName)
		if err != nil {
			return err
		}
		shapes, err := p.parseShapeTree(spTree, partName, rels, false)
		if err != nil {
			return err
		}
		master.Shapes = shapes
	}
	p.doc.Masters[partName] = master
	return nil
}

// parseNotes extracts speaker notes text. Notes parts are pass-through at
// save, so only the text is lifted.
func (p *parser) parseNotes(slide *model.Slide, partName string) {
	data, err := p.c.Part(partName)
	if err != nil {
		return
	}
	root, err := oxml.Parse(data)
	if err != nil {
		return
	}
	spTree := root.Path("cSld", "spTree")
	if spTree == nil {
		return
	}
	var text string
	for _, sp := range spTree.FindAll("sp") {
		if ph := sp.Path("nvSpPr", "nvPr", "ph"); ph != nil && ph.Attr("type") == "sldImg" {
			continue
		}
		if txBody := sp.Find("txBody"); txBody != nil {
			for _, para := range txBody.FindAll("p") {
				line := ""
				for _, r := range para.FindAll("r") {
					if t := r.Find("t"); t != nil {
						line += t.Text()
					}
				}
				if line != "" {
					if text != "" {
						text += "\n"
					}
					text += line
				}
			}
		}
	}
	slide.Notes = text
}

// parseProperties lifts docProps metadata when present.
func (p *parser) parseProperties() {
	if data, err := p.c.Part("docProps/core.xml"); err == nil {
		var core struct {
			Title          string `xml:"title"`
			Subject        string `xml:"subject"`
			Creator        string `xml:"creator"`
			Keywords       string `xml:"keywords"`
			LastModifiedBy string `xml:"lastModifiedBy"`
		}
		if xml.Unmarshal(data, &core) == nil {
			p.doc.Metadata.Title = core.Title
			p.doc.Metadata.Subject = core.Subject
			p.doc.Metadata.Author = core.Creator
			p.doc.Metadata.Keywords = core.Keywords
			p.doc.Metadata.LastModifiedBy = core.LastModifiedBy
		}
	}
	if data, err := p.c.Part("docProps/app.xml"); err == nil {
		var app struct {
			Application string `xml:"Application"`
		}
		if xml.Unmarshal(data, &app) == nil {
			p.doc.Metadata.Application = app.Application
		}
	}
}
