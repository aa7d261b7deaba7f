package pptparse

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Force1ess/PPTParse/model"
	"github.com/Force1ess/PPTParse/opc"
)

const testDeckSlide = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\r\n" +
	`<p:sld xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main" xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships" xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main">` +
	`<p:cSld><p:spTree>` +
	`<p:nvGrpSpPr><p:cNvPr id="1" name=""/><p:cNvGrpSpPr/><p:nvPr/></p:nvGrpSpPr><p:grpSpPr/>` +
	`<p:sp><p:nvSpPr><p:cNvPr id="2" name="Title 1"/><p:cNvSpPr/><p:nvPr><p:ph type="title"/></p:nvPr></p:nvSpPr><p:spPr/><p:txBody><a:bodyPr/><a:p><a:r><a:t>Quarterly results</a:t></a:r></a:p></p:txBody></p:sp>` +
	`<p:sp><p:nvSpPr><p:cNvPr id="3" name="Body 2"/><p:cNvSpPr/><p:nvPr/></p:nvSpPr><p:spPr/><p:txBody><a:bodyPr/><a:p><a:r><a:t>Revenue up</a:t></a:r></a:p></p:txBody></p:sp>` +
	`</p:spTree></p:cSld></p:sld>`

const testDeckPresentation = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\r\n" +
	`<p:presentation xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main" xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships" xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main">` +
	`<p:sldIdLst><p:sldId id="256" r:id="rId1"/></p:sldIdLst><p:sldSz cx="12192000" cy="6858000"/></p:presentation>`

// writeTestDeck builds a minimal one-slide package on disk.
func writeTestDeck(t *testing.T) string {
	t.Helper()
	c := opc.New()

	ct, err := c.ContentTypes()
	if err != nil {
		t.Fatalf("content types: %v", err)
	}
	ct.AddOverride("ppt/presentation.xml", opc.ContentTypePresentation)
	ct.AddOverride("ppt/slides/slide1.xml", opc.ContentTypeSlide)
	c.SetContentTypes(ct)

	pkgRels := &opc.Relationships{}
	pkgRels.Add(opc.RelTypeOfficeDocument, "ppt/presentation.xml")
	c.SetRelationships("", pkgRels)

	c.SetPart("ppt/presentation.xml", []byte(testDeckPresentation))
	presRels := &opc.Relationships{}
	presRels.Add(opc.RelTypeSlide, "slides/slide1.xml")
	c.SetRelationships("ppt/presentation.xml", presRels)
	c.SetPart("ppt/slides/slide1.xml", []byte(testDeckSlide))

	path := filepath.Join(t.TempDir(), "deck.pptx")
	if err := c.WriteFile(path); err != nil {
		t.Fatalf("write deck: %v", err)
	}
	return path
}

func TestLoadEditSave(t *testing.T) {
	path := writeTestDeck(t)
	cfg := NewConfig("", "test-session")

	doc, err := Load(path, cfg)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if doc.SlideCount() != 1 {
		t.Fatalf("slides = %d", doc.SlideCount())
	}
	ph := doc.Slide(0).Shapes[0].(*model.Placeholder)
	if ph.Text.Text() != "Quarterly results" {
		t.Fatalf("title = %q", ph.Text.Text())
	}

	ph.Text.Paragraphs[0].Runs[0].Text = "Annual results"
	out := filepath.Join(filepath.Dir(path), "edited.pptx")
	if err := doc.Save(out); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	doc2, err := Load(out, cfg)
	if err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	ph2 := doc2.Slide(0).Shapes[0].(*model.Placeholder)
	if ph2.Text.Text() != "Annual results" {
		t.Errorf("title after reload = %q", ph2.Text.Text())
	}
}

func TestLoadReader(t *testing.T) {
	path := writeTestDeck(t)
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	doc, err := LoadReader(bytes.NewReader(data), int64(len(data)), NewConfig("", ""))
	if err != nil {
		t.Fatalf("LoadReader failed: %v", err)
	}
	if doc.SlideCount() != 1 {
		t.Errorf("slides = %d", doc.SlideCount())
	}
}

func TestLoadNotAPackage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "junk.pptx")
	if err := os.WriteFile(path, []byte("not a zip"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path, NewConfig("", "")); !errors.Is(err, ErrPackageCorrupt) {
		t.Errorf("err = %v, want ErrPackageCorrupt", err)
	}
}

func TestNewDocumentSave(t *testing.T) {
	doc := New(NewConfig("", ""))
	tb := &model.TextBox{ShapeCommon: model.ShapeCommon{ShapeID: 2, ShapeName: "Box"}}
	tb.Text = &model.TextFrame{Paragraphs: []*model.Paragraph{{Runs: []*model.Run{{Text: "built from scratch"}}}}}
	slide := &model.Slide{}
	slide.AppendShape(doc.Document, tb)
	doc.AddSlide(slide)

	path := filepath.Join(t.TempDir(), "new.pptx")
	if err := doc.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	doc2, err := Load(path, NewConfig("", ""))
	if err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	got, ok := doc2.Slide(0).Shapes[0].(*model.TextBox)
	if !ok || got.Text.Text() != "built from scratch" {
		t.Errorf("shape = %+v", doc2.Slide(0).Shapes[0])
	}
}

func TestFromMapRoundTrip(t *testing.T) {
	doc, err := Load(writeTestDeck(t), NewConfig("", ""))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	m, err := doc.ToMap()
	if err != nil {
		t.Fatalf("ToMap failed: %v", err)
	}

	rebuilt, err := FromMap(m, NewConfig("", ""))
	if err != nil {
		t.Fatalf("FromMap failed: %v", err)
	}
	var buf bytes.Buffer
	if err := rebuilt.Write(&buf); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	doc2, err := LoadReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()), NewConfig("", ""))
	if err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	ph := doc2.Slide(0).Shapes[0].(*model.Placeholder)
	if ph.Text.Text() != "Quarterly results" {
		t.Errorf("title = %q", ph.Text.Text())
	}
}

func TestExport(t *testing.T) {
	doc, err := Load(writeTestDeck(t), NewConfig("", ""))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	t.Run("html", func(t *testing.T) {
		out, err := doc.Export("html")
		if err != nil {
			t.Fatalf("Export failed: %v", err)
		}
		if !strings.HasPrefix(out, "<!DOCTYPE html>") {
			t.Error("not an HTML page")
		}
		if !strings.Contains(out, "Quarterly results") {
			t.Error("content missing")
		}
	})

	t.Run("text", func(t *testing.T) {
		out, err := doc.Export("text")
		if err != nil {
			t.Fatalf("Export failed: %v", err)
		}
		if out != "Quarterly results\nRevenue up\n" {
			t.Errorf("text = %q", out)
		}
	})

	t.Run("unsupported", func(t *testing.T) {
		if _, err := doc.Export("pdf"); !errors.Is(err, ErrUnsupportedFormat) {
			t.Errorf("err = %v, want ErrUnsupportedFormat", err)
		}
	})
}

func TestConfig(t *testing.T) {
	cfg := NewConfig("", "")
	if cfg.SessionID() == "" {
		t.Error("empty session id not replaced")
	}
	if cfg.ImageDir() != "" {
		t.Error("extraction enabled without a scratch dir")
	}
	if err := cfg.RemoveAll(); err != nil {
		t.Errorf("RemoveAll without scratch dir: %v", err)
	}

	base := t.TempDir()
	sc := NewSessionConfig(base)
	if filepath.Dir(sc.ScratchDir()) != base {
		t.Errorf("scratch dir = %q, want under %q", sc.ScratchDir(), base)
	}
	if filepath.Base(sc.ScratchDir()) != sc.SessionID() {
		t.Error("scratch dir not named after the session")
	}
	if sc.ImageDir() != filepath.Join(sc.ScratchDir(), "images") {
		t.Errorf("image dir = %q", sc.ImageDir())
	}

	strict := sc.WithStrictness(Abort)
	if strict.Strictness() != Abort {
		t.Error("strictness not applied")
	}
	if sc.Strictness() != Degrade {
		t.Error("With method mutated the receiver")
	}
}

func TestConfigScratchCleanup(t *testing.T) {
	cfg := NewSessionConfig(t.TempDir())
	dir := filepath.Join(cfg.ScratchDir(), "images")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := cfg.RemoveAll(); err != nil {
		t.Fatalf("RemoveAll failed: %v", err)
	}
	if _, err := os.Stat(cfg.ScratchDir()); !os.IsNotExist(err) {
		t.Error("scratch dir survived RemoveAll")
	}
}
