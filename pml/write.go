package pml

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/Force1ess/PPTParse/model"
	"github.com/Force1ess/PPTParse/oxml"
)

// serializeShape emits the markup for one shape, patching the retained
// source element in place when the shape was parsed from a package and
// synthesizing a fresh element otherwise. embed maps media part names to
// the rIds of the owning part's image relationships.
func serializeShape(sh model.Shape, embed map[string]string) (*oxml.Element, error) {
	switch v := sh.(type) {
	case *model.Generic:
		return serializeGeneric(v)
	case *model.TextBox:
		return serializeSp(v.Raw(), &v.ShapeCommon, v.Text, nil)
	case *model.Placeholder:
		return serializeSp(v.Raw(), &v.ShapeCommon, v.Text, v)
	case *model.Picture:
		return serializePic(v, embed)
	case *model.Group:
		return serializeGroup(v, embed)
	case *model.GraphicFrame:
		return serializeGraphicFrame(v)
	default:
		return nil, fmt.Errorf("unknown shape kind %v", sh.Kind())
	}
}

// serializeGeneric re-emits unknown markup unchanged. Generics built from
// map conversion carry only the marshaled text and are re-parsed here.
func serializeGeneric(g *model.Generic) (*oxml.Element, error) {
	if raw := g.Raw(); raw != nil {
		return raw, nil
	}
	if g.XML == "" {
		return nil, fmt.Errorf("generic shape %d has no markup", g.ShapeID)
	}
	el, err := oxml.Parse([]byte(g.XML))
	if err != nil {
		return nil, fmt.Errorf("generic shape %d: %w", g.ShapeID, err)
	}
	g.SetRaw(el)
	return el, nil
}

func serializeSp(raw *oxml.Element, common *model.ShapeCommon, tf *model.TextFrame, ph *model.Placeholder) (*oxml.Element, error) {
	el := raw
	if el == nil {
		el = synthSp()
		common.SetRaw(el)
	}

	nv := el.Find("nvSpPr")
	if nv == nil {
		return nil, fmt.Errorf("sp %d has no nvSpPr", common.ShapeID)
	}
	patchCNvPr(nv, common, "", false)

	nvPr := getOrCreate(nv, nsPresentationML, "nvPr")
	if ph != nil {
		phEl := getOrCreate(nvPr, nsPresentationML, "ph")
		setOrRemoveAttr(phEl, "type", ph.PhType)
		if ph.Index != 0 {
			phEl.SetAttr("idx", strconv.Itoa(ph.Index))
		} else {
			phEl.RemoveAttr("idx")
		}
	} else if phEl := nvPr.Find("ph"); phEl != nil {
		nvPr.RemoveChild(phEl)
	}

	spPr := getOrCreate(el, nsPresentationML, "spPr")
	patchFrame(spPr, common.FrameVal, nsDrawingML)

	if tf == nil {
		if txBody := el.Find("txBody"); txBody != nil {
			el.RemoveChild(txBody)
		}
		return el, nil
	}
	txBody, err := serializeTextFrame(tf)
	if err != nil {
		return nil, err
	}
	replaceOrAppendChild(el, "txBody", txBody)
	return el, nil
}

func serializePic(pic *model.Picture, embed map[string]string) (*oxml.Element, error) {
	el := pic.Raw()
	if el == nil {
		el = synthPic()
		pic.SetRaw(el)
	}

	nv := el.Find("nvPicPr")
	if nv == nil {
		return nil, fmt.Errorf("pic %d has no nvPicPr", pic.ShapeID)
	}
	patchCNvPr(nv, &pic.ShapeCommon, pic.AltText, true)

	blipFill := getOrCreate(el, nsPresentationML, "blipFill")
	blip := getOrCreate(blipFill, nsDrawingML, "blip")
	if pic.MediaPart != "" {
		rid, ok := embed[pic.MediaPart]
		if !ok {
			return nil, fmt.Errorf("pic %d: no relationship for media %s", pic.ShapeID, pic.MediaPart)
		}
		blip.SetAttrNS(nsRelationships, "embed", rid)
	}

	if pic.Crop != nil {
		srcRect := getOrCreate(blipFill, nsDrawingML, "srcRect")
		setCropAttr(srcRect, "l", pic.Crop.Left)
		setCropAttr(srcRect, "t", pic.Crop.Top)
		setCropAttr(srcRect, "r", pic.Crop.Right)
		setCropAttr(srcRect, "b", pic.Crop.Bottom)
	} else if srcRect := blipFill.Find("srcRect"); srcRect != nil {
		blipFill.RemoveChild(srcRect)
	}

	spPr := getOrCreate(el, nsPresentationML, "spPr")
	patchFrame(spPr, pic.FrameVal, nsDrawingML)
	return el, nil
}

func serializeGroup(g *model.Group, embed map[string]string) (*oxml.Element, error) {
	el := g.Raw()
	if el == nil {
		el = synthGrpSp()
		g.SetRaw(el)
	}

	nv := el.Find("nvGrpSpPr")
	if nv == nil {
		return nil, fmt.Errorf("grpSp %d has no nvGrpSpPr", g.ShapeID)
	}
	patchCNvPr(nv, &g.ShapeCommon, "", false)

	grpSpPr := getOrCreate(el, nsPresentationML, "grpSpPr")
	patchFrame(grpSpPr, g.FrameVal, nsDrawingML)
	if xfrm := grpSpPr.Find("xfrm"); xfrm != nil {
		chOff := getOrCreate(xfrm, nsDrawingML, "chOff")
		chOff.SetAttr("x", emuString(g.ChildX))
		chOff.SetAttr("y", emuString(g.ChildY))
		chExt := getOrCreate(xfrm, nsDrawingML, "chExt")
		chExt.SetAttr("cx", emuString(g.ChildWidth))
		chExt.SetAttr("cy", emuString(g.ChildHeight))
	}

	if err := rebuildShapeTree(el, g.Shapes, embed); err != nil {
		return nil, err
	}
	return el, nil
}

func serializeGraphicFrame(gf *model.GraphicFrame) (*oxml.Element, error) {
	el := gf.Raw()
	if el == nil {
		el = synthGraphicFrame(gf)
		gf.SetRaw(el)
	}

	nv := el.Find("nvGraphicFramePr")
	if nv == nil {
		return nil, fmt.Errorf("graphicFrame %d has no nvGraphicFramePr", gf.ShapeID)
	}
	patchCNvPr(nv, &gf.ShapeCommon, "", false)

	// The frame's own transform lives directly on the element, in the
	// presentation namespace.
	patchFrame(el, gf.FrameVal, nsPresentationML)
	return el, nil
}

// patchCNvPr writes the shared id and name, plus the alt text for pictures.
func patchCNvPr(nv *oxml.Element, common *model.ShapeCommon, descr string, setDescr bool) {
	cNvPr := nv.Find("cNvPr")
	if cNvPr == nil {
		cNvPr = oxml.NewElement(nsPresentationML, "cNvPr")
		nv.InsertChild(0, cNvPr)
	}
	cNvPr.SetAttr("id", strconv.Itoa(common.ShapeID))
	cNvPr.SetAttr("name", common.ShapeName)
	if setDescr {
		setOrRemoveAttr(cNvPr, "descr", descr)
	}
}

// patchFrame writes geometry into the xfrm below props, creating or removing
// it as the model dictates. xfrmNS is the namespace the xfrm element lives
// in, which differs between shape properties and graphic frames.
func patchFrame(props *oxml.Element, frame *model.Frame, xfrmNS string) {
	xfrm := props.Find("xfrm")
	if frame == nil {
		if xfrm != nil {
			props.RemoveChild(xfrm)
		}
		return
	}
	if xfrm == nil {
		xfrm = oxml.NewElement(xfrmNS, "xfrm")
		// On a graphic frame props is the shape element itself and the
		// transform belongs after the nv* header; in property containers
		// it comes first.
		idx := 0
		for i, child := range props.Children {
			if e, ok := child.(*oxml.Element); ok && strings.HasPrefix(e.Name.Local, "nv") {
				idx = i + 1
			}
		}
		props.InsertChild(idx, xfrm)
	}

	if frame.Rotation != 0 {
		xfrm.SetAttr("rot", strconv.FormatInt(int64(math.Round(frame.Rotation*60000)), 10))
	} else {
		xfrm.RemoveAttr("rot")
	}
	if frame.FlipH {
		xfrm.SetAttr("flipH", "1")
	} else {
		xfrm.RemoveAttr("flipH")
	}
	if frame.FlipV {
		xfrm.SetAttr("flipV", "1")
	} else {
		xfrm.RemoveAttr("flipV")
	}

	off := xfrm.Find("off")
	if off == nil {
		off = oxml.NewElement(nsDrawingML, "off")
		xfrm.InsertChild(0, off)
	}
	off.SetAttr("x", emuString(frame.X))
	off.SetAttr("y", emuString(frame.Y))

	ext := xfrm.Find("ext")
	if ext == nil {
		ext = oxml.NewElement(nsDrawingML, "ext")
		xfrm.InsertChild(1, ext)
	}
	ext.SetAttr("cx", emuString(frame.Width))
	ext.SetAttr("cy", emuString(frame.Height))
}

// serializeTextFrame rebuilds a txBody from the model, patching the retained
// element when present. Non-paragraph bookkeeping (bodyPr, lstStyle) keeps
// its place.
func serializeTextFrame(tf *model.TextFrame) (*oxml.Element, error) {
	el := tf.Raw()
	if el == nil {
		el = oxml.NewElement(nsPresentationML, "txBody")
		el.AppendChild(oxml.NewElement(nsDrawingML, "bodyPr"))
		tf.SetRaw(el)
	}

	bodyPr := el.Find("bodyPr")
	if bodyPr == nil {
		bodyPr = oxml.NewElement(nsDrawingML, "bodyPr")
		el.InsertChild(0, bodyPr)
	}
	setOrRemoveAttr(bodyPr, "anchor", tf.Anchor)

	var kept []oxml.Node
	for _, child := range el.Children {
		if e, ok := child.(*oxml.Element); ok && e.Name.Local == "p" {
			continue
		}
		kept = append(kept, child)
	}
	for _, para := range tf.Paragraphs {
		pEl, err := serializeParagraph(para)
		if err != nil {
			return nil, err
		}
		kept = append(kept, pEl)
	}
	el.Children = kept
	return el, nil
}

func serializeParagraph(para *model.Paragraph) (*oxml.Element, error) {
	el := para.Raw()
	if el == nil {
		el = oxml.NewElement(nsDrawingML, "p")
		para.SetRaw(el)
	}

	pPr := el.Find("pPr")
	needsPPr := para.Level != 0 || para.Alignment != "" || para.Bullet != nil
	if pPr == nil && needsPPr {
		pPr = oxml.NewElement(nsDrawingML, "pPr")
		el.InsertChild(0, pPr)
	}
	if pPr != nil {
		if para.Level != 0 {
			pPr.SetAttr("lvl", strconv.Itoa(para.Level))
		} else {
			pPr.RemoveAttr("lvl")
		}
		setOrRemoveAttr(pPr, "algn", para.Alignment)
		for _, name := range []string{"buNone", "buChar", "buAutoNum"} {
			if bu := pPr.Find(name); bu != nil {
				pPr.RemoveChild(bu)
			}
		}
		if b := para.Bullet; b != nil {
			switch {
			case b.None:
				pPr.AppendChild(oxml.NewElement(nsDrawingML, "buNone"))
			case b.Char != "":
				bu := oxml.NewElement(nsDrawingML, "buChar")
				bu.SetAttr("char", b.Char)
				pPr.AppendChild(bu)
			case b.AutoNum != "":
				bu := oxml.NewElement(nsDrawingML, "buAutoNum")
				bu.SetAttr("type", b.AutoNum)
				if b.StartAt != 0 {
					bu.SetAttr("startAt", strconv.Itoa(b.StartAt))
				}
				pPr.AppendChild(bu)
			}
		}
	}

	// Rebuild: pPr first, runs in model order, trailing endParaRPr kept.
	var kept []oxml.Node
	if pPr != nil {
		kept = append(kept, pPr)
	}
	for _, run := range para.Runs {
		kept = append(kept, serializeRun(run))
	}
	if end := el.Find("endParaRPr"); end != nil {
		kept = append(kept, end)
	}
	el.Children = kept
	return el, nil
}

func serializeRun(run *model.Run) *oxml.Element {
	el := run.Raw()
	switch {
	case run.Break:
		if el == nil || el.Name.Local != "br" {
			el = oxml.NewElement(nsDrawingML, "br")
			run.SetRaw(el)
		}
		patchFont(el, run.Font)
		return el
	case run.Field != "":
		if el == nil || el.Name.Local != "fld" {
			el = oxml.NewElement(nsDrawingML, "fld")
			run.SetRaw(el)
		}
		// fld requires a GUID id. Mint one for runs built in memory and
		// keep it on the run so repeated saves stay stable.
		if run.FieldID == "" {
			run.FieldID = "{" + strings.ToUpper(uuid.NewString()) + "}"
		}
		el.SetAttr("id", run.FieldID)
		el.SetAttr("type", run.Field)
	default:
		if el == nil || el.Name.Local != "r" {
			el = oxml.NewElement(nsDrawingML, "r")
			run.SetRaw(el)
		}
	}

	patchFont(el, run.Font)
	t := el.Find("t")
	if t == nil {
		t = oxml.NewElement(nsDrawingML, "t")
		el.AppendChild(t)
	}
	t.SetText(run.Text)
	return el
}

// patchFont reconciles an rPr with the model font. Nil fields mean inherit
// and clear the matching markup; set fields overwrite it. A solidFill that
// does not carry an srgbClr (scheme colors, gradients) is outside the model
// and survives untouched.
func patchFont(runEl *oxml.Element, f model.Font) {
	rPr := runEl.Find("rPr")
	if rPr == nil {
		if f.IsZero() {
			return
		}
		rPr = oxml.NewElement(nsDrawingML, "rPr")
		runEl.InsertChild(0, rPr)
	}

	if f.Size != nil {
		rPr.SetAttr("sz", strconv.Itoa(int(*f.Size)))
	} else {
		rPr.RemoveAttr("sz")
	}
	if f.Bold != nil {
		rPr.SetAttr("b", boolAttr(*f.Bold))
	} else {
		rPr.RemoveAttr("b")
	}
	if f.Italic != nil {
		rPr.SetAttr("i", boolAttr(*f.Italic))
	} else {
		rPr.RemoveAttr("i")
	}
	if f.Underline != nil {
		rPr.SetAttr("u", *f.Underline)
	} else {
		rPr.RemoveAttr("u")
	}

	if f.Name != nil {
		latin := getOrCreate(rPr, nsDrawingML, "latin")
		latin.SetAttr("typeface", *f.Name)
	} else if latin := rPr.Find("latin"); latin != nil {
		rPr.RemoveChild(latin)
	}

	fill := rPr.Find("solidFill")
	switch {
	case f.Color != nil:
		if fill == nil {
			fill = oxml.NewElement(nsDrawingML, "solidFill")
			rPr.InsertChild(0, fill)
		}
		clr := fill.Find("srgbClr")
		if clr == nil {
			fill.Children = nil
			clr = oxml.NewElement(nsDrawingML, "srgbClr")
			fill.AppendChild(clr)
		}
		clr.SetAttr("val", *f.Color)
	case fill != nil && fill.Find("srgbClr") != nil:
		rPr.RemoveChild(fill)
	}
}

// ====================================================================
// Synthesized skeletons for shapes built in memory
// ====================================================================

func synthSp() *oxml.Element {
	el := oxml.NewElement(nsPresentationML, "sp")
	nv := oxml.NewElement(nsPresentationML, "nvSpPr")
	nv.AppendChild(oxml.NewElement(nsPresentationML, "cNvPr"))
	nv.AppendChild(oxml.NewElement(nsPresentationML, "cNvSpPr"))
	nv.AppendChild(oxml.NewElement(nsPresentationML, "nvPr"))
	el.AppendChild(nv)
	el.AppendChild(oxml.NewElement(nsPresentationML, "spPr"))
	return el
}

func synthPic() *oxml.Element {
	el := oxml.NewElement(nsPresentationML, "pic")
	nv := oxml.NewElement(nsPresentationML, "nvPicPr")
	nv.AppendChild(oxml.NewElement(nsPresentationML, "cNvPr"))
	nv.AppendChild(oxml.NewElement(nsPresentationML, "cNvPicPr"))
	nv.AppendChild(oxml.NewElement(nsPresentationML, "nvPr"))
	el.AppendChild(nv)

	blipFill := oxml.NewElement(nsPresentationML, "blipFill")
	blipFill.AppendChild(oxml.NewElement(nsDrawingML, "blip"))
	stretch := oxml.NewElement(nsDrawingML, "stretch")
	stretch.AppendChild(oxml.NewElement(nsDrawingML, "fillRect"))
	blipFill.AppendChild(stretch)
	el.AppendChild(blipFill)

	el.AppendChild(oxml.NewElement(nsPresentationML, "spPr"))
	return el
}

func synthGrpSp() *oxml.Element {
	el := oxml.NewElement(nsPresentationML, "grpSp")
	nv := oxml.NewElement(nsPresentationML, "nvGrpSpPr")
	nv.AppendChild(oxml.NewElement(nsPresentationML, "cNvPr"))
	nv.AppendChild(oxml.NewElement(nsPresentationML, "cNvGrpSpPr"))
	nv.AppendChild(oxml.NewElement(nsPresentationML, "nvPr"))
	el.AppendChild(nv)
	el.AppendChild(oxml.NewElement(nsPresentationML, "grpSpPr"))
	return el
}

func synthGraphicFrame(gf *model.GraphicFrame) *oxml.Element {
	el := oxml.NewElement(nsPresentationML, "graphicFrame")
	nv := oxml.NewElement(nsPresentationML, "nvGraphicFramePr")
	nv.AppendChild(oxml.NewElement(nsPresentationML, "cNvPr"))
	nv.AppendChild(oxml.NewElement(nsPresentationML, "cNvGraphicFramePr"))
	nv.AppendChild(oxml.NewElement(nsPresentationML, "nvPr"))
	el.AppendChild(nv)

	graphic := oxml.NewElement(nsDrawingML, "graphic")
	data := oxml.NewElement(nsDrawingML, "graphicData")
	uri := gf.URI
	if uri == "" && gf.Table != nil {
		uri = "http://schemas.openxmlformats.org/drawingml/2006/table"
	}
	data.SetAttr("uri", uri)
	if gf.Table != nil {
		data.AppendChild(synthTable(gf.Table))
	}
	graphic.AppendChild(data)
	el.AppendChild(graphic)
	return el
}

func synthTable(t *model.Table) *oxml.Element {
	tbl := oxml.NewElement(nsDrawingML, "tbl")
	grid := oxml.NewElement(nsDrawingML, "tblGrid")
	for _, w := range t.ColWidths {
		col := oxml.NewElement(nsDrawingML, "gridCol")
		col.SetAttr("w", emuString(w))
		grid.AppendChild(col)
	}
	tbl.AppendChild(grid)

	for _, row := range t.Rows {
		tr := oxml.NewElement(nsDrawingML, "tr")
		if row.Height != 0 {
			tr.SetAttr("h", emuString(row.Height))
		}
		for _, cell := range row.Cells {
			tc := oxml.NewElement(nsDrawingML, "tc")
			if cell.RowSpan > 1 {
				tc.SetAttr("rowSpan", strconv.Itoa(cell.RowSpan))
			}
			if cell.ColSpan > 1 {
				tc.SetAttr("gridSpan", strconv.Itoa(cell.ColSpan))
			}
			if cell.Merged {
				tc.SetAttr("vMerge", "1")
			}
			txBody := oxml.NewElement(nsDrawingML, "txBody")
			txBody.AppendChild(oxml.NewElement(nsDrawingML, "bodyPr"))
			p := oxml.NewElement(nsDrawingML, "p")
			if cell.Text != "" {
				r := oxml.NewElement(nsDrawingML, "r")
				tEl := oxml.NewElement(nsDrawingML, "t")
				tEl.SetText(cell.Text)
				r.AppendChild(tEl)
				p.AppendChild(r)
			}
			txBody.AppendChild(p)
			tc.AppendChild(txBody)
			tc.AppendChild(oxml.NewElement(nsDrawingML, "tcPr"))
			tr.AppendChild(tc)
		}
		tbl.AppendChild(tr)
	}
	return tbl
}

// ====================================================================
// Small element helpers
// ====================================================================

func getOrCreate(parent *oxml.Element, space, local string) *oxml.Element {
	if el := parent.Find(local); el != nil {
		return el
	}
	el := oxml.NewElement(space, local)
	parent.AppendChild(el)
	return el
}

// replaceOrAppendChild swaps the first child with the given local name for
// el, or appends el when no such child exists.
func replaceOrAppendChild(parent *oxml.Element, local string, el *oxml.Element) {
	for i, child := range parent.Children {
		if e, ok := child.(*oxml.Element); ok && e.Name.Local == local {
			parent.Children[i] = el
			return
		}
	}
	parent.AppendChild(el)
}

func setOrRemoveAttr(el *oxml.Element, local, value string) {
	if value != "" {
		el.SetAttr(local, value)
	} else {
		el.RemoveAttr(local)
	}
}

func setCropAttr(el *oxml.Element, local string, frac float64) {
	if frac != 0 {
		el.SetAttr(local, strconv.Itoa(int(math.Round(frac*100000))))
	} else {
		el.RemoveAttr(local)
	}
}

func boolAttr(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

func emuString(v oxml.EMU) string {
	return strconv.FormatInt(int64(v), 10)
}
