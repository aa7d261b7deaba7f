package pml

import (
	"encoding/xml"
	"fmt"
	"path"
	"strconv"
	"strings"

	"github.com/Force1ess/PPTParse/model"
	"github.com/Force1ess/PPTParse/opc"
	"github.com/Force1ess/PPTParse/oxml"
)

// findPresentationPart locates the main presentation part via the content
// type index, falling back to the conventional name.
func findPresentationPart(c *opc.Container) (string, error) {
	ct, err := c.ContentTypes()
	if err != nil {
		return "", err
	}
	if part := ct.PartOfType(opc.ContentTypePresentation); part != "" {
		return part, nil
	}
	if c.HasPart("ppt/presentation.xml") {
		return "ppt/presentation.xml", nil
	}
	return "", ErrNotPresentation
}

// saver carries shared state for one save.
type saver struct {
	doc *model.Document
	c   *opc.Container
	ct  *opc.ContentTypes
}

// Save serializes the document back into the container. Slide and layout
// parts are re-emitted from their source trees with model state patched in;
// every other part passes through byte-identical. The container is expected
// to be the one the document was parsed from, or one built by Build.
func Save(doc *model.Document, c *opc.Container) error {
	ct, err := c.ContentTypes()
	if err != nil {
		return err
	}
	s := &saver{doc: doc, c: c, ct: ct}

	presPart, err := findPresentationPart(c)
	if err != nil {
		return err
	}
	if err := s.syncPresentation(presPart); err != nil {
		return err
	}
	for _, slide := range doc.Slides {
		if err := s.saveSlide(slide); err != nil {
			return fmt.Errorf("pml: saving %s: %w", slide.PartName, err)
		}
	}
	if err := s.saveLayouts(); err != nil {
		return err
	}
	s.dropOrphanedMedia()
	c.SetContentTypes(s.ct)
	return nil
}

// Build creates a minimal container for a document that has no backing
// package, such as one reconstructed via model.FromMap. Layout and master
// parts are not synthesized; slides keep their content but inherit nothing.
func Build(doc *model.Document) (*opc.Container, error) {
	c := opc.New()

	pkgRels := &opc.Relationships{}
	pkgRels.Add(opc.RelTypeOfficeDocument, "ppt/presentation.xml")
	c.SetRelationships("", pkgRels)

	pres := oxml.NewElement(nsPresentationML, "presentation")
	pres.Attrs = append(pres.Attrs,
		xml.Attr{Name: xml.Name{Space: "xmlns", Local: "a"}, Value: nsDrawingML},
		xml.Attr{Name: xml.Name{Space: "xmlns", Local: "r"}, Value: nsRelationships},
		xml.Attr{Name: xml.Name{Space: "xmlns", Local: "p"}, Value: nsPresentationML},
	)
	pres.AppendChild(oxml.NewElement(nsPresentationML, "sldIdLst"))
	sldSz := oxml.NewElement(nsPresentationML, "sldSz")
	sldSz.SetAttr("cx", strconv.FormatInt(int64(doc.SlideWidth), 10))
	sldSz.SetAttr("cy", strconv.FormatInt(int64(doc.SlideHeight), 10))
	pres.AppendChild(sldSz)
	c.SetPart("ppt/presentation.xml", oxml.MarshalDocument(pres))

	ct, err := c.ContentTypes()
	if err != nil {
		return nil, err
	}
	ct.AddOverride("ppt/presentation.xml", opc.ContentTypePresentation)
	c.SetContentTypes(ct)

	// Slides parsed from another package keep part names that do not exist
	// here; clear them so the save path allocates fresh parts.
	for _, slide := range doc.Slides {
		if !c.HasPart(slide.PartName) {
			slide.PartName = ""
			slide.SetRoot(nil)
		}
	}

	if err := Save(doc, c); err != nil {
		return nil, err
	}
	return c, nil
}

// syncPresentation rebuilds the slide id list to match the document's slide
// order, allocating parts for new slides and dropping parts for removed
// ones.
func (s *saver) syncPresentation(presPart string) error {
	data, err := s.c.Part(presPart)
	if err != nil {
		return err
	}
	root, err := oxml.Parse(data)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", opc.ErrPackageCorrupt, presPart, err)
	}
	rels, err := s.c.Relationships(presPart)
	if err != nil {
		return err
	}

	list := root.Find("sldIdLst")
	if list == nil {
		list = oxml.NewElement(nsPresentationML, "sldIdLst")
		root.InsertChild(0, list)
	}

	// Existing entries, keyed by resolved slide part.
	type entry struct {
		el  *oxml.Element
		rid string
	}
	existing := make(map[string]entry)
	maxID := 255
	for _, sldID := range list.FindAll("sldId") {
		rid := sldID.AttrNS(nsRelationships, "id")
		if n, err := strconv.Atoi(sldID.Attr("id")); err == nil && n > maxID {
			maxID = n
		}
		if rel := rels.ByID(rid); rel != nil {
			existing[opc.ResolveTarget(presPart, *rel)] = entry{el: sldID, rid: rid}
		}
	}

	kept := make(map[string]bool, len(s.doc.Slides))
	var newChildren []oxml.Node
	for _, slide := range s.doc.Slides {
		if slide.PartName == "" || !s.c.HasPart(slide.PartName) {
			if err := s.allocateSlide(slide, presPart); err != nil {
				return err
			}
		}
		kept[slide.PartName] = true
		if e, ok := existing[slide.PartName]; ok {
			newChildren = append(newChildren, e.el)
			continue
		}
		rid := rels.Add(opc.RelTypeSlide, relativeTarget(presPart, slide.PartName))
		maxID++
		sldID := oxml.NewElement(nsPresentationML, "sldId")
		sldID.SetAttr("id", strconv.Itoa(maxID))
		sldID.SetAttrNS(nsRelationships, "id", rid)
		newChildren = append(newChildren, sldID)
	}
	list.Children = newChildren

	// Slides dropped from the document lose their parts and wiring.
	for part, e := range existing {
		if kept[part] {
			continue
		}
		rels.Remove(e.rid)
		s.c.RemovePart(part)
		s.c.RemovePart(opc.RelsPartName(part))
		s.ct.RemoveOverride(part)
	}

	if sz := root.Find("sldSz"); sz != nil {
		sz.SetAttr("cx", strconv.FormatInt(int64(s.doc.SlideWidth), 10))
		sz.SetAttr("cy", strconv.FormatInt(int64(s.doc.SlideHeight), 10))
	}

	s.c.SetRelationships(presPart, rels)
	s.c.SetPart(presPart, oxml.MarshalDocument(root))
	return nil
}

// allocateSlide gives an in-memory slide a fresh part, relationship set and
// content-type override.
func (s *saver) allocateSlide(slide *model.Slide, presPart string) error {
	n := 0
	for _, part := range s.c.Parts() {
		if strings.HasPrefix(part, "ppt/slides/slide") && strings.HasSuffix(part, ".xml") {
			var num int
			fmt.Sscanf(strings.TrimPrefix(part, "ppt/slides/slide"), "%d", &num)
			if num > n {
				n = num
			}
		}
	}
	slide.PartName = fmt.Sprintf("ppt/slides/slide%d.xml", n+1)
	slide.SetRoot(nil)

	rels := &opc.Relationships{}
	if slide.LayoutPart != "" && s.c.HasPart(slide.LayoutPart) {
		rels.Add(opc.RelTypeSlideLayout, relativeTarget(slide.PartName, slide.LayoutPart))
	}
	s.c.SetRelationships(slide.PartName, rels)
	s.ct.AddOverride(slide.PartName, opc.ContentTypeSlide)
	// Placeholder bytes so the part exists before saveSlide fills it in.
	s.c.SetPart(slide.PartName, nil)
	return nil
}

func (s *saver) saveSlide(slide *model.Slide) error {
	root := slide.Root()
	if root == nil {
		root = synthSlideRoot()
		slide.SetRoot(root)
	}

	rels, err := s.c.Relationships(slide.PartName)
	if err != nil {
		return err
	}
	embed, err := s.syncImageRels(slide.PartName, slide.Shapes, rels)
	if err != nil {
		return err
	}
	s.c.SetRelationships(slide.PartName, rels)

	cSld := root.Find("cSld")
	if cSld == nil {
		return fmt.Errorf("slide tree has no cSld")
	}
	if bg := slide.Background(); bg != nil && cSld.Find("bg") == nil {
		cSld.InsertChild(0, bg)
	}
	spTree := cSld.Find("spTree")
	if spTree == nil {
		return fmt.Errorf("slide tree has no spTree")
	}
	if err := rebuildShapeTree(spTree, slide.Shapes, embed); err != nil {
		return err
	}

	s.c.SetPart(slide.PartName, oxml.MarshalDocument(root))
	return nil
}

// rebuildShapeTree replaces the shape children of an spTree (or group) with
// the model's shapes in paint order, keeping non-shape bookkeeping children
// in place.
func rebuildShapeTree(tree *oxml.Element, shapes []model.Shape, embed map[string]string) error {
	var kept []oxml.Node
	for _, child := range tree.Children {
		el, ok := child.(*oxml.Element)
		if ok && isShapeElement(el.Name.Local) {
			continue
		}
		if cd, isText := child.(oxml.CharData); isText && strings.TrimSpace(string(cd)) == "" {
			continue
		}
		kept = append(kept, child)
	}
	for _, sh := range shapes {
		el, err := serializeShape(sh, embed)
		if err != nil {
			return err
		}
		kept = append(kept, el)
	}
	tree.Children = kept
	return nil
}

// syncImageRels reconciles a part's image relationships with the pictures
// actually in its shape tree, returning the media part to rId mapping used
// when patching blip references. Missing media parts are materialized from
// the document media set. Used for slides and layouts alike.
func (s *saver) syncImageRels(partName string, shapes []model.Shape, rels *opc.Relationships) (map[string]string, error) {
	used := make(map[string]string)
	var walkErr error
	model.WalkShapes(shapes, func(sh model.Shape) {
		pic, ok := sh.(*model.Picture)
		if !ok || pic.MediaPart == "" || walkErr != nil {
			return
		}
		if _, done := used[pic.MediaPart]; done {
			return
		}
		if err := s.ensureMediaPart(pic.MediaPart); err != nil {
			walkErr = err
			return
		}
		for _, rel := range rels.AllOfType(opc.RelTypeImage) {
			if !rel.External() && opc.ResolveTarget(partName, rel) == pic.MediaPart {
				used[pic.MediaPart] = rel.ID
				break
			}
		}
		if _, ok := used[pic.MediaPart]; !ok {
			used[pic.MediaPart] = rels.Add(opc.RelTypeImage, relativeTarget(partName, pic.MediaPart))
		}
	})
	if walkErr != nil {
		return nil, walkErr
	}

	// Image relationships no picture references anymore are dropped.
	for _, rel := range rels.AllOfType(opc.RelTypeImage) {
		if rel.External() {
			continue
		}
		target := opc.ResolveTarget(partName, rel)
		if _, ok := used[target]; !ok {
			rels.Remove(rel.ID)
		}
	}
	return used, nil
}

// ensureMediaPart writes a media blob into the container if its part does
// not exist yet, registering a content-type default for its extension.
func (s *saver) ensureMediaPart(partName string) error {
	if s.c.HasPart(partName) {
		return nil
	}
	m, ok := s.doc.Media[partName]
	if !ok || len(m.Data) == 0 {
		return fmt.Errorf("media part %s has no backing data", partName)
	}
	s.c.SetPart(partName, m.Data)
	ext := strings.TrimPrefix(strings.ToLower(path.Ext(partName)), ".")
	contentType := m.ContentType
	if contentType == "" {
		contentType = "image/" + ext
	}
	s.ct.EnsureDefault(ext, contentType)
	return nil
}

func (s *saver) saveLayouts() error {
	for _, layout := range s.doc.Layouts {
		root := layout.Root()
		if root == nil {
			continue
		}
		spTree := root.Path("cSld", "spTree")
		if spTree == nil {
			continue
		}
		rels, err := s.c.Relationships(layout.PartName)
		if err != nil {
			return err
		}
		embed, err := s.syncImageRels(layout.PartName, layout.Shapes, rels)
		if err != nil {
			return fmt.Errorf("pml: saving %s: %w", layout.PartName, err)
		}
		s.c.SetRelationships(layout.PartName, rels)
		if err := rebuildShapeTree(spTree, layout.Shapes, embed); err != nil {
			return fmt.Errorf("pml: saving %s: %w", layout.PartName, err)
		}
		if cSld := root.Find("cSld"); cSld != nil && layout.Name != "" {
			cSld.SetAttr("name", layout.Name)
		}
		s.c.SetPart(layout.PartName, oxml.MarshalDocument(root))
	}
	return nil
}

// dropOrphanedMedia removes media parts no relationship references anymore.
// Parts still wired from layouts, masters or notes survive.
func (s *saver) dropOrphanedMedia() {
	referenced := make(map[string]bool)
	for _, part := range s.c.Parts() {
		if !strings.HasSuffix(part, ".rels") {
			continue
		}
		source := sourceOfRelsPart(part)
		rels, err := s.c.Relationships(source)
		if err != nil {
			continue
		}
		for _, rel := range rels.Rels {
			if !rel.External() {
				referenced[opc.ResolveTarget(source, rel)] = true
			}
		}
	}
	for _, part := range s.c.Parts() {
		if strings.HasPrefix(part, "ppt/media/") && !referenced[part] {
			s.c.RemovePart(part)
		}
	}
}

// sourceOfRelsPart inverts RelsPartName: ppt/slides/_rels/slide1.xml.rels
// belongs to ppt/slides/slide1.xml; _rels/.rels belongs to the package.
func sourceOfRelsPart(relsPart string) string {
	if relsPart == "_rels/.rels" {
		return ""
	}
	dir := path.Dir(path.Dir(relsPart))
	base := strings.TrimSuffix(path.Base(relsPart), ".rels")
	if dir == "." {
		return base
	}
	return path.Join(dir, base)
}

// relativeTarget computes the relationship target string for toPart as seen
// from fromPart's directory.
func relativeTarget(fromPart, toPart string) string {
	from := strings.Split(path.Dir(fromPart), "/")
	to := strings.Split(toPart, "/")
	i := 0
	for i < len(from) && i < len(to) && from[i] == to[i] {
		i++
	}
	var out []string
	for j := i; j < len(from); j++ {
		out = append(out, "..")
	}
	out = append(out, to[i:]...)
	return strings.Join(out, "/")
}

// synthSlideRoot builds the minimal slide part skeleton.
func synthSlideRoot() *oxml.Element {
	root := oxml.NewElement(nsPresentationML, "sld")
	root.Attrs = append(root.Attrs,
		xml.Attr{Name: xml.Name{Space: "xmlns", Local: "a"}, Value: nsDrawingML},
		xml.Attr{Name: xml.Name{Space: "xmlns", Local: "r"}, Value: nsRelationships},
		xml.Attr{Name: xml.Name{Space: "xmlns", Local: "p"}, Value: nsPresentationML},
	)
	cSld := oxml.NewElement(nsPresentationML, "cSld")
	spTree := oxml.NewElement(nsPresentationML, "spTree")

	nvGrpSpPr := oxml.NewElement(nsPresentationML, "nvGrpSpPr")
	cNvPr := oxml.NewElement(nsPresentationML, "cNvPr")
	cNvPr.SetAttr("id", "1")
	cNvPr.SetAttr("name", "")
	nvGrpSpPr.AppendChild(cNvPr)
	nvGrpSpPr.AppendChild(oxml.NewElement(nsPresentationML, "cNvGrpSpPr"))
	nvGrpSpPr.AppendChild(oxml.NewElement(nsPresentationML, "nvPr"))
	spTree.AppendChild(nvGrpSpPr)

	grpSpPr := oxml.NewElement(nsPresentationML, "grpSpPr")
	xfrm := oxml.NewElement(nsDrawingML, "xfrm")
	for _, name := range []string{"off", "chOff"} {
		el := oxml.NewElement(nsDrawingML, name)
		el.SetAttr("x", "0")
		el.SetAttr("y", "0")
		xfrm.AppendChild(el)
	}
	for _, name := range []string{"ext", "chExt"} {
		el := oxml.NewElement(nsDrawingML, name)
		el.SetAttr("cx", "0")
		el.SetAttr("cy", "0")
		xfrm.AppendChild(el)
	}
	grpSpPr.AppendChild(xfrm)
	spTree.AppendChild(grpSpPr)

	cSld.AppendChild(spTree)
	root.AppendChild(cSld)
	return root
}
