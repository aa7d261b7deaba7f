package pml

import (
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/Force1ess/PPTParse/model"
	"github.com/Force1ess/PPTParse/opc"
	"github.com/Force1ess/PPTParse/oxml"
)

// shapeLocals are the spTree children that are shapes. Everything else in
// the tree (nvGrpSpPr, grpSpPr, extLst) is non-shape bookkeeping.
func isShapeElement(local string) bool {
	switch local {
	case "sp", "pic", "grpSp", "graphicFrame", "cxnSp", "contentPart":
		return true
	}
	return false
}

// parseShapeTree translates the shape children of an spTree or grpSp in
// document order. retainMedia is true for slides, whose pictures hold
// references in the document media set.
func (p *parser) parseShapeTree(tree *oxml.Element, partName string, rels *opc.Relationships, retainMedia bool) ([]model.Shape, error) {
	var shapes []model.Shape
	for _, el := range tree.Elements() {
		if !isShapeElement(el.Name.Local) {
			continue
		}
		sh, err := p.parseShape(el, partName, rels, retainMedia)
		if err != nil {
			if p.cfg.Strictness == Abort {
				return nil, fmt.Errorf("%w: %s: %v", ErrMalformedShape, partName, err)
			}
			sh = degrade(el)
			p.doc.Warn(model.Warning{Part: partName, ShapeID: sh.ID(), Message: err.Error()})
			p.log.Warn("shape degraded to generic passthrough",
				zap.String("part", partName),
				zap.String("element", el.Name.Local),
				zap.Error(err))
		}
		shapes = append(shapes, sh)
	}
	model.ReindexShapes(shapes)
	return shapes, nil
}

// degrade wraps an element the translator could not make sense of. The raw
// node is kept and re-emitted unchanged.
func degrade(el *oxml.Element) *model.Generic {
	// The stored markup re-declares the standard namespaces so it can be
	// parsed standalone when a document is rebuilt from a map.
	clone := el.Clone()
	clone.SetAttrNS("xmlns", "a", nsDrawingML)
	clone.SetAttrNS("xmlns", "r", nsRelationships)
	clone.SetAttrNS("xmlns", "p", nsPresentationML)
	g := &model.Generic{XML: string(clone.Marshal())}
	g.SetRaw(el)
	if cNvPr := findCNvPr(el); cNvPr != nil {
		if id, err := strconv.Atoi(cNvPr.Attr("id")); err == nil {
			g.ShapeID = id
		}
		g.ShapeName = cNvPr.Attr("name")
	}
	return g
}

// parseShape dispatches on the element name to the matching variant.
// Unrecognized element names are not an error; they become generic shapes
// directly.
func (p *parser) parseShape(el *oxml.Element, partName string, rels *opc.Relationships, retainMedia bool) (model.Shape, error) {
	switch el.Name.Local {
	case "sp":
		return p.parseSp(el)
	case "pic":
		return p.parsePic(el, partName, rels, retainMedia)
	case "grpSp":
		return p.parseGrpSp(el, partName, rels, retainMedia)
	case "graphicFrame":
		return p.parseGraphicFrame(el)
	default:
		return degrade(el), nil
	}
}

func (p *parser) parseSp(el *oxml.Element) (model.Shape, error) {
	nv := el.Find("nvSpPr")
	if nv == nil {
		return nil, fmt.Errorf("sp has no nvSpPr")
	}
	common, err := parseCommon(nv, el.Find("spPr"))
	if err != nil {
		return nil, err
	}

	var tf *model.TextFrame
	if txBody := el.Find("txBody"); txBody != nil {
		tf, err = parseTextFrame(txBody)
		if err != nil {
			return nil, err
		}
	}

	if ph := nv.Path("nvPr", "ph"); ph != nil {
		idx := 0
		if v := ph.Attr("idx"); v != "" {
			idx, err = strconv.Atoi(v)
			if err != nil {
				return nil, fmt.Errorf("bad placeholder idx %q", v)
			}
		}
		sh := &model.Placeholder{ShapeCommon: common, PhType: ph.Attr("type"), Index: idx, Text: tf}
		sh.SetRaw(el)
		return sh, nil
	}

	sh := &model.TextBox{ShapeCommon: common, Text: tf}
	sh.SetRaw(el)
	return sh, nil
}

func (p *parser) parsePic(el *oxml.Element, partName string, rels *opc.Relationships, retainMedia bool) (model.Shape, error) {
	nv := el.Find("nvPicPr")
	if nv == nil {
		return nil, fmt.Errorf("pic has no nvPicPr")
	}
	common, err := parseCommon(nv, el.Find("spPr"))
	if err != nil {
		return nil, err
	}

	pic := &model.Picture{ShapeCommon: common}
	pic.SetRaw(el)
	if cNvPr := nv.Find("cNvPr"); cNvPr != nil {
		pic.AltText = cNvPr.Attr("descr")
	}

	blipFill := el.Find("blipFill")
	if blipFill == nil {
		return nil, fmt.Errorf("pic has no blipFill")
	}
	if blip := blipFill.Find("blip"); blip != nil {
		rid := blip.AttrNS(nsRelationships, "embed")
		if rid != "" {
			rel := rels.ByID(rid)
			if rel == nil {
				return nil, fmt.Errorf("image relationship %s missing", rid)
			}
			if !rel.External() {
				pic.MediaPart = opc.ResolveTarget(partName, *rel)
				if err := p.loadMedia(pic.MediaPart, partName, retainMedia); err != nil {
					return nil, err
				}
			}
		}
	}
	if srcRect := blipFill.Find("srcRect"); srcRect != nil {
		pic.Crop = parseSrcRect(srcRect)
	}
	return pic, nil
}

// parseSrcRect converts srcRect insets (1000ths of a percent) to fractions.
func parseSrcRect(el *oxml.Element) *model.Crop {
	frac := func(attr string) float64 {
		n, err := strconv.Atoi(el.Attr(attr))
		if err != nil {
			return 0
		}
		return float64(n) / 100000
	}
	c := &model.Crop{Left: frac("l"), Top: frac("t"), Right: frac("r"), Bottom: frac("b")}
	if c.Left == 0 && c.Top == 0 && c.Right == 0 && c.Bottom == 0 {
		return nil
	}
	return c
}

func (p *parser) parseGrpSp(el *oxml.Element, partName string, rels *opc.Relationships, retainMedia bool) (model.Shape, error) {
	nv := el.Find("nvGrpSpPr")
	if nv == nil {
		return nil, fmt.Errorf("grpSp has no nvGrpSpPr")
	}
	common, err := parseCommon(nv, el.Find("grpSpPr"))
	if err != nil {
		return nil, err
	}

	g := &model.Group{ShapeCommon: common}
	g.SetRaw(el)
	if xfrm := el.Path("grpSpPr", "xfrm"); xfrm != nil {
		if chOff := xfrm.Find("chOff"); chOff != nil {
			g.ChildX = emuAttr(chOff, "x")
			g.ChildY = emuAttr(chOff, "y")
		}
		if chExt := xfrm.Find("chExt"); chExt != nil {
			g.ChildWidth = emuAttr(chExt, "cx")
			g.ChildHeight = emuAttr(chExt, "cy")
		}
	}

	children, err := p.parseShapeTree(el, partName, rels, retainMedia)
	if err != nil {
		return nil, err
	}
	g.Shapes = children
	return g, nil
}

func (p *parser) parseGraphicFrame(el *oxml.Element) (model.Shape, error) {
	nv := el.Find("nvGraphicFramePr")
	if nv == nil {
		return nil, fmt.Errorf("graphicFrame has no nvGraphicFramePr")
	}
	common, err := parseCommon(nv, el)
	if err != nil {
		return nil, err
	}

	gf := &model.GraphicFrame{ShapeCommon: common}
	gf.SetRaw(el)
	if data := el.Path("graphic", "graphicData"); data != nil {
		gf.URI = data.Attr("uri")
		if tbl := data.Find("tbl"); tbl != nil {
			gf.Table = parseTable(tbl)
		}
	}
	return gf, nil
}

func parseTable(tbl *oxml.Element) *model.Table {
	table := &model.Table{}
	if grid := tbl.Find("tblGrid"); grid != nil {
		for _, col := range grid.FindAll("gridCol") {
			table.ColWidths = append(table.ColWidths, emuAttr(col, "w"))
		}
	}
	for _, tr := range tbl.FindAll("tr") {
		row := model.TableRow{Height: emuAttr(tr, "h")}
		for _, tc := range tr.FindAll("tc") {
			cell := model.TableCell{RowSpan: 1, ColSpan: 1}
			if n, err := strconv.Atoi(tc.Attr("rowSpan")); err == nil && n > 0 {
				cell.RowSpan = n
			}
			if n, err := strconv.Atoi(tc.Attr("gridSpan")); err == nil && n > 0 {
				cell.ColSpan = n
			}
			if tc.Attr("vMerge") != "" || tc.Attr("hMerge") != "" {
				cell.Merged = true
			}
			if txBody := tc.Find("txBody"); txBody != nil {
				if tf, err := parseTextFrame(txBody); err == nil {
					cell.Text = tf.Text()
				}
			}
			row.Cells = append(row.Cells, cell)
		}
		table.Rows = append(table.Rows, row)
	}
	return table
}

// parseCommon lifts the id, name and geometry shared by all variants. nv is
// the variant's non-visual properties element; props holds the xfrm.
func parseCommon(nv, props *oxml.Element) (model.ShapeCommon, error) {
	var common model.ShapeCommon
	cNvPr := nv.Find("cNvPr")
	if cNvPr == nil {
		return common, fmt.Errorf("missing cNvPr")
	}
	id, err := strconv.Atoi(cNvPr.Attr("id"))
	if err != nil {
		return common, fmt.Errorf("bad shape id %q", cNvPr.Attr("id"))
	}
	common.ShapeID = id
	common.ShapeName = cNvPr.Attr("name")

	if props != nil {
		if xfrm := props.Find("xfrm"); xfrm != nil {
			frame, err := parseXfrm(xfrm)
			if err != nil {
				return common, err
			}
			common.FrameVal = frame
		}
	}
	return common, nil
}

func parseXfrm(xfrm *oxml.Element) (*model.Frame, error) {
	frame := &model.Frame{}
	if off := xfrm.Find("off"); off != nil {
		x, err := strconv.ParseInt(off.Attr("x"), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("bad xfrm offset x %q", off.Attr("x"))
		}
		y, err := strconv.ParseInt(off.Attr("y"), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("bad xfrm offset y %q", off.Attr("y"))
		}
		frame.X, frame.Y = oxml.EMU(x), oxml.EMU(y)
	}
	if ext := xfrm.Find("ext"); ext != nil {
		cx, err := strconv.ParseInt(ext.Attr("cx"), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("bad xfrm extent cx %q", ext.Attr("cx"))
		}
		cy, err := strconv.ParseInt(ext.Attr("cy"), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("bad xfrm extent cy %q", ext.Attr("cy"))
		}
		frame.Width, frame.Height = oxml.EMU(cx), oxml.EMU(cy)
	}
	if rot := xfrm.Attr("rot"); rot != "" {
		n, err := strconv.ParseInt(rot, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("bad rotation %q", rot)
		}
		frame.Rotation = float64(n) / 60000
	}
	frame.FlipH = xfrm.Attr("flipH") == "1"
	frame.FlipV = xfrm.Attr("flipV") == "1"
	return frame, nil
}

func parseTextFrame(txBody *oxml.Element) (*model.TextFrame, error) {
	tf := &model.TextFrame{}
	tf.SetRaw(txBody)
	if bodyPr := txBody.Find("bodyPr"); bodyPr != nil {
		tf.Anchor = bodyPr.Attr("anchor")
	}
	for _, pEl := range txBody.FindAll("p") {
		para, err := parseParagraph(pEl)
		if err != nil {
			return nil, err
		}
		tf.Paragraphs = append(tf.Paragraphs, para)
	}
	return tf, nil
}

func parseParagraph(pEl *oxml.Element) (*model.Paragraph, error) {
	para := &model.Paragraph{}
	para.SetRaw(pEl)
	if pPr := pEl.Find("pPr"); pPr != nil {
		if v := pPr.Attr("lvl"); v != "" {
			lvl, err := strconv.Atoi(v)
			if err != nil {
				return nil, fmt.Errorf("bad paragraph level %q", v)
			}
			para.Level = lvl
		}
		para.Alignment = pPr.Attr("algn")
		switch {
		case pPr.Find("buNone") != nil:
			para.Bullet = &model.Bullet{None: true}
		case pPr.Find("buChar") != nil:
			para.Bullet = &model.Bullet{Char: pPr.Find("buChar").Attr("char")}
		case pPr.Find("buAutoNum") != nil:
			auto := pPr.Find("buAutoNum")
			b := &model.Bullet{AutoNum: auto.Attr("type")}
			if n, err := strconv.Atoi(auto.Attr("startAt")); err == nil {
				b.StartAt = n
			}
			para.Bullet = b
		}
	}

	// Runs, breaks and fields in document order.
	for _, child := range pEl.Elements() {
		switch child.Name.Local {
		case "r":
			run := &model.Run{}
			run.SetRaw(child)
			if t := child.Find("t"); t != nil {
				run.Text = t.Text()
			}
			if rPr := child.Find("rPr"); rPr != nil {
				run.Font = parseFont(rPr)
			}
			para.Runs = append(para.Runs, run)
		case "br":
			run := &model.Run{Break: true}
			run.SetRaw(child)
			para.Runs = append(para.Runs, run)
		case "fld":
			run := &model.Run{Field: child.Attr("type"), FieldID: child.Attr("id")}
			run.SetRaw(child)
			if t := child.Find("t"); t != nil {
				run.Text = t.Text()
			}
			if rPr := child.Find("rPr"); rPr != nil {
				run.Font = parseFont(rPr)
			}
			para.Runs = append(para.Runs, run)
		}
	}
	return para, nil
}

func parseFont(rPr *oxml.Element) model.Font {
	var f model.Font
	if v := rPr.Attr("sz"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			sz := oxml.Centipoints(n)
			f.Size = &sz
		}
	}
	if v := rPr.Attr("b"); v != "" {
		b := v == "1"
		f.Bold = &b
	}
	if v := rPr.Attr("i"); v != "" {
		i := v == "1"
		f.Italic = &i
	}
	if v := rPr.Attr("u"); v != "" {
		u := v
		f.Underline = &u
	}
	if latin := rPr.Find("latin"); latin != nil {
		if tf := latin.Attr("typeface"); tf != "" {
			name := tf
			f.Name = &name
		}
	}
	if clr := rPr.Path("solidFill", "srgbClr"); clr != nil {
		if v := clr.Attr("val"); v != "" {
			val := v
			f.Color = &val
		}
	}
	return f
}

func emuAttr(el *oxml.Element, attr string) oxml.EMU {
	n, err := strconv.ParseInt(el.Attr(attr), 10, 64)
	if err != nil {
		return 0
	}
	return oxml.EMU(n)
}

// findCNvPr digs out the cNvPr element of any shape variant.
func findCNvPr(el *oxml.Element) *oxml.Element {
	for _, child := range el.Elements() {
		if cNvPr := child.Find("cNvPr"); cNvPr != nil {
			return cNvPr
		}
	}
	return nil
}
