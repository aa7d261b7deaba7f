package model

import "testing"

func picture(id int, part string) *Picture {
	return &Picture{ShapeCommon: ShapeCommon{ShapeID: id}, MediaPart: part}
}

func TestRetainReleaseMedia(t *testing.T) {
	d := NewDocument()
	m := &Media{PartName: "ppt/media/image1.png"}

	d.RetainMedia(m)
	if got := m.RefCount(); got != 1 {
		t.Fatalf("refs = %d, want 1", got)
	}
	d.RetainMedia(&Media{PartName: "ppt/media/image1.png"})
	if got := m.RefCount(); got != 2 {
		t.Fatalf("refs after second retain = %d, want 2", got)
	}
	if len(d.Media) != 1 {
		t.Fatalf("media set has %d entries", len(d.Media))
	}

	d.ReleaseMedia("ppt/media/image1.png")
	if got := m.RefCount(); got != 1 {
		t.Errorf("refs after release = %d", got)
	}
	d.ReleaseMedia("ppt/media/image1.png")
	if _, ok := d.Media["ppt/media/image1.png"]; ok {
		t.Error("entry still present at zero refs")
	}

	// Releasing an unknown part is a no-op.
	d.ReleaseMedia("ppt/media/missing.png")
}

func TestRemoveShapeReleasesMedia(t *testing.T) {
	d := NewDocument()
	d.RetainMedia(&Media{PartName: "ppt/media/image1.png"})
	d.RetainMedia(&Media{PartName: "ppt/media/image1.png"}) // two pictures share it

	s := &Slide{}
	s.Shapes = []Shape{picture(1, "ppt/media/image1.png"), picture(2, "ppt/media/image1.png")}
	ReindexShapes(s.Shapes)
	d.AddSlide(s)

	s.RemoveShape(d, 0)
	if got := d.Media["ppt/media/image1.png"].RefCount(); got != 1 {
		t.Fatalf("refs = %d, want 1", got)
	}
	s.RemoveShape(d, 0)
	if _, ok := d.Media["ppt/media/image1.png"]; ok {
		t.Error("media survives with no referencing pictures")
	}
}

func TestRemoveGroupReleasesNestedMedia(t *testing.T) {
	d := NewDocument()
	d.RetainMedia(&Media{PartName: "ppt/media/image1.png"})

	g := &Group{ShapeCommon: ShapeCommon{ShapeID: 1}}
	g.Shapes = []Shape{picture(2, "ppt/media/image1.png")}
	s := &Slide{Shapes: []Shape{g}}
	ReindexShapes(s.Shapes)
	d.AddSlide(s)

	s.RemoveShape(d, 0)
	if _, ok := d.Media["ppt/media/image1.png"]; ok {
		t.Error("nested media not released with its group")
	}
}

func TestInsertShapeRetainsMedia(t *testing.T) {
	d := NewDocument()
	d.RetainMedia(&Media{PartName: "ppt/media/image1.png"})

	s := &Slide{}
	d.AddSlide(s)
	s.AppendShape(d, picture(1, "ppt/media/image1.png"))
	if got := d.Media["ppt/media/image1.png"].RefCount(); got != 2 {
		t.Errorf("refs = %d, want 2", got)
	}
}

func TestLayoutMasterLookup(t *testing.T) {
	d := NewDocument()
	layout := &Layout{PartName: "ppt/slideLayouts/slideLayout1.xml", MasterPart: "ppt/slideMasters/slideMaster1.xml"}
	master := &Master{PartName: "ppt/slideMasters/slideMaster1.xml"}
	d.Layouts[layout.PartName] = layout
	d.Masters[master.PartName] = master

	s := &Slide{LayoutPart: layout.PartName}
	if got := d.Layout(s); got != layout {
		t.Error("Layout lookup failed")
	}
	if got := d.Master(layout); got != master {
		t.Error("Master lookup failed")
	}

	// Weak references: a dangling part name resolves to nil, never panics.
	if d.Layout(&Slide{LayoutPart: "ppt/slideLayouts/gone.xml"}) != nil {
		t.Error("dangling layout reference resolved")
	}
	if d.Layout(nil) != nil || d.Master(nil) != nil {
		t.Error("nil lookups should return nil")
	}
}
