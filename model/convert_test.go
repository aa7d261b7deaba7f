package model

import (
	"testing"

	"github.com/Force1ess/PPTParse/oxml"
)

func buildConvertDoc() *Document {
	d := NewDocument()
	d.SlideWidth = 12192000
	d.SlideHeight = 6858000
	d.Metadata.Title = "Quarterly review"

	d.RetainMedia(&Media{PartName: "ppt/media/image1.png", ContentType: "image/png", Data: []byte{1, 2, 3}, Width: 64, Height: 32})

	tb := &TextBox{ShapeCommon: ShapeCommon{ShapeID: 2, ShapeName: "Box", FrameVal: &Frame{X: 100, Y: 200, Width: 300, Height: 400, Rotation: 90}}}
	tb.Text = &TextFrame{
		Anchor: "ctr",
		Paragraphs: []*Paragraph{{
			Level:     1,
			Alignment: "ctr",
			Bullet:    &Bullet{Char: "•"},
			Runs: []*Run{
				{Text: "bold bit", Font: Font{Bold: boolPtr(true), Size: szPtr(2400)}},
				{Break: true},
				{Text: "plain bit"},
			},
		}},
	}

	pic := &Picture{ShapeCommon: ShapeCommon{ShapeID: 3}, MediaPart: "ppt/media/image1.png", AltText: "logo", Crop: &Crop{Left: 0.1, Right: 0.25}}

	grp := &Group{ShapeCommon: ShapeCommon{ShapeID: 4}, ChildWidth: 500, ChildHeight: 600}
	grp.Shapes = []Shape{&Placeholder{ShapeCommon: ShapeCommon{ShapeID: 5}, PhType: "body", Index: 1}}

	gf := &GraphicFrame{ShapeCommon: ShapeCommon{ShapeID: 6}, URI: "http://schemas.openxmlformats.org/drawingml/2006/table"}
	gf.Table = &Table{
		ColWidths: []oxml.EMU{914400, 914400},
		Rows: []TableRow{
			{Height: 370840, Cells: []TableCell{{Text: "a", RowSpan: 1, ColSpan: 2}, {Merged: true, RowSpan: 1, ColSpan: 1}}},
		},
	}

	gen := &Generic{ShapeCommon: ShapeCommon{ShapeID: 7}, XML: `<p:cxnSp xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main"/>`}

	s := &Slide{PartName: "ppt/slides/slide1.xml", Notes: "presenter notes"}
	s.Shapes = []Shape{tb, pic, grp, gf, gen}
	ReindexShapes(s.Shapes)
	d.AddSlide(s)
	return d
}

func TestToMapFromMapRoundTrip(t *testing.T) {
	d := buildConvertDoc()
	m, err := d.ToMap()
	if err != nil {
		t.Fatalf("ToMap failed: %v", err)
	}

	back, err := FromMap(m)
	if err != nil {
		t.Fatalf("FromMap failed: %v", err)
	}

	if back.SlideWidth != d.SlideWidth || back.SlideHeight != d.SlideHeight {
		t.Errorf("slide size = %dx%d", back.SlideWidth, back.SlideHeight)
	}
	if back.Metadata.Title != "Quarterly review" {
		t.Errorf("title = %q", back.Metadata.Title)
	}
	if len(back.Slides) != 1 {
		t.Fatalf("slides = %d", len(back.Slides))
	}
	s := back.Slides[0]
	if s.Notes != "presenter notes" {
		t.Errorf("notes = %q", s.Notes)
	}
	if len(s.Shapes) != 5 {
		t.Fatalf("shapes = %d", len(s.Shapes))
	}

	// Kind discriminators drive reconstruction.
	kinds := []ShapeKind{KindTextBox, KindPicture, KindGroup, KindGraphicFrame, KindGeneric}
	for i, want := range kinds {
		if got := s.Shapes[i].Kind(); got != want {
			t.Errorf("shape %d kind = %v, want %v", i, got, want)
		}
	}

	tb := s.Shapes[0].(*TextBox)
	if tb.FrameVal == nil || tb.FrameVal.Rotation != 90 {
		t.Errorf("frame = %+v", tb.FrameVal)
	}
	para := tb.Text.Paragraphs[0]
	if para.Bullet == nil || para.Bullet.Char != "•" {
		t.Errorf("bullet = %+v", para.Bullet)
	}
	if !para.Runs[1].Break {
		t.Error("break run lost")
	}
	run := para.Runs[0]
	if run.Font.Bold == nil || !*run.Font.Bold || run.Font.Size == nil || *run.Font.Size != 2400 {
		t.Errorf("run font = %+v", run.Font)
	}

	pic := s.Shapes[1].(*Picture)
	if pic.Crop == nil || pic.Crop.Left != 0.1 || pic.Crop.Right != 0.25 {
		t.Errorf("crop = %+v", pic.Crop)
	}
	if pic.AltText != "logo" {
		t.Errorf("alt = %q", pic.AltText)
	}

	grp := s.Shapes[2].(*Group)
	if len(grp.Shapes) != 1 || grp.Shapes[0].Kind() != KindPlaceholder {
		t.Errorf("group children = %v", grp.Shapes)
	}
	if grp.ChildWidth != 500 {
		t.Errorf("child extent = %d", grp.ChildWidth)
	}

	gf := s.Shapes[3].(*GraphicFrame)
	if gf.Table == nil || len(gf.Table.Rows) != 1 || gf.Table.Rows[0].Cells[0].ColSpan != 2 {
		t.Errorf("table = %+v", gf.Table)
	}
	if !gf.Table.Rows[0].Cells[1].Merged {
		t.Error("merged flag lost")
	}

	gen := s.Shapes[4].(*Generic)
	if gen.XML == "" {
		t.Error("generic markup lost")
	}
}

// Reference counts are recomputed from the picture graph, not trusted from
// the map; unreferenced media is dropped.
func TestFromMapRecomputesRefcounts(t *testing.T) {
	d := buildConvertDoc()
	m, err := d.ToMap()
	if err != nil {
		t.Fatalf("ToMap failed: %v", err)
	}
	back, err := FromMap(m)
	if err != nil {
		t.Fatalf("FromMap failed: %v", err)
	}

	media := back.Media["ppt/media/image1.png"]
	if media == nil {
		t.Fatal("media entry lost")
	}
	if got := media.RefCount(); got != 1 {
		t.Errorf("refs = %d, want 1", got)
	}
	if len(media.Data) != 3 {
		t.Errorf("data = %v", media.Data)
	}

	// Drop the picture from the map; its media must not survive.
	slides := m["slides"].([]any)
	sm := slides[0].(map[string]any)
	shapes := sm["shapes"].([]any)
	sm["shapes"] = append(shapes[:1:1], shapes[2:]...)

	back, err = FromMap(m)
	if err != nil {
		t.Fatalf("FromMap failed: %v", err)
	}
	if len(back.Media) != 0 {
		t.Errorf("unreferenced media survived: %v", back.Media)
	}
}

func TestFromMapBadShape(t *testing.T) {
	d := buildConvertDoc()
	m, _ := d.ToMap()
	slides := m["slides"].([]any)
	sm := slides[0].(map[string]any)
	shapes := sm["shapes"].([]any)
	shapes[0].(map[string]any)["kind"] = "hologram"

	if _, err := FromMap(m); err == nil {
		t.Error("expected error for unknown kind")
	}
}
