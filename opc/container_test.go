package opc

import (
	"archive/zip"
	"bytes"
	"errors"
	"testing"
)

// ====================================================================
// Part access
// ====================================================================

func TestNewContainer(t *testing.T) {
	c := New()
	if !c.HasPart("[Content_Types].xml") {
		t.Fatal("new container missing content-type index")
	}
	ct, err := c.ContentTypes()
	if err != nil {
		t.Fatalf("ContentTypes failed: %v", err)
	}
	if got := ct.TypeOf("_rels/.rels"); got != "application/vnd.openxmlformats-package.relationships+xml" {
		t.Errorf("rels default = %q", got)
	}
}

func TestPartAccess(t *testing.T) {
	c := New()
	c.SetPart("ppt/presentation.xml", []byte("<presentation/>"))

	data, err := c.Part("ppt/presentation.xml")
	if err != nil {
		t.Fatalf("Part failed: %v", err)
	}
	if string(data) != "<presentation/>" {
		t.Errorf("part data = %q", data)
	}

	if _, err := c.Part("ppt/missing.xml"); !errors.Is(err, ErrPartNotFound) {
		t.Errorf("missing part error = %v, want ErrPartNotFound", err)
	}

	c.RemovePart("ppt/presentation.xml")
	if c.HasPart("ppt/presentation.xml") {
		t.Error("part still present after RemovePart")
	}
	// Removing again is a no-op.
	c.RemovePart("ppt/presentation.xml")
}

func TestPartsOrdered(t *testing.T) {
	c := New()
	c.SetPart("b.xml", nil)
	c.SetPart("a.xml", nil)
	c.SetPart("b.xml", []byte("updated")) // re-set keeps position

	parts := c.Parts()
	want := []string{"[Content_Types].xml", "b.xml", "a.xml"}
	if len(parts) != len(want) {
		t.Fatalf("parts = %v", parts)
	}
	for i := range want {
		if parts[i] != want[i] {
			t.Errorf("parts[%d] = %q, want %q", i, parts[i], want[i])
		}
	}
}

func TestClone(t *testing.T) {
	c := New()
	c.SetPart("a.xml", []byte("original"))
	clone := c.Clone()
	clone.SetPart("a.xml", []byte("changed"))

	data, _ := c.Part("a.xml")
	if string(data) != "original" {
		t.Errorf("clone edit leaked into original: %q", data)
	}
}

// ====================================================================
// ZIP round-trip
// ====================================================================

func TestWriteAndReopen(t *testing.T) {
	c := New()
	c.SetPart("ppt/presentation.xml", []byte("<presentation/>"))
	c.SetPart("ppt/media/image1.png", []byte{0x89, 'P', 'N', 'G'})

	var buf bytes.Buffer
	n, err := c.WriteTo(&buf)
	if err != nil {
		t.Fatalf("WriteTo failed: %v", err)
	}
	if n != int64(buf.Len()) {
		t.Errorf("WriteTo reported %d bytes, wrote %d", n, buf.Len())
	}

	reopened, err := OpenReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	if err != nil {
		t.Fatalf("OpenReader failed: %v", err)
	}
	for _, name := range c.Parts() {
		want, _ := c.Part(name)
		got, err := reopened.Part(name)
		if err != nil {
			t.Fatalf("reopened missing %s: %v", name, err)
		}
		if !bytes.Equal(got, want) {
			t.Errorf("part %s changed across write/reopen", name)
		}
	}
}

func TestOpenReaderErrors(t *testing.T) {
	// Not a ZIP at all.
	junk := []byte("this is not a zip archive")
	if _, err := OpenReader(bytes.NewReader(junk), int64(len(junk))); !errors.Is(err, ErrPackageCorrupt) {
		t.Errorf("junk archive error = %v, want ErrPackageCorrupt", err)
	}

	// Valid ZIP without a content-type index.
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	fw, err := zw.Create("whatever.xml")
	if err != nil {
		t.Fatalf("zip create failed: %v", err)
	}
	fw.Write([]byte("<x/>"))
	if err := zw.Close(); err != nil {
		t.Fatalf("zip close failed: %v", err)
	}
	if _, err := OpenReader(bytes.NewReader(buf.Bytes()), int64(buf.Len())); !errors.Is(err, ErrPackageCorrupt) {
		t.Errorf("missing index error = %v, want ErrPackageCorrupt", err)
	}
}

// ====================================================================
// Relationship plumbing
// ====================================================================

func TestContainerRelationships(t *testing.T) {
	c := New()

	// A part with no .rels gives an empty, addable set.
	rels, err := c.Relationships("ppt/slides/slide1.xml")
	if err != nil {
		t.Fatalf("Relationships failed: %v", err)
	}
	if len(rels.Rels) != 0 {
		t.Fatalf("expected empty set, got %v", rels.Rels)
	}

	id := rels.Add(RelTypeImage, "../media/image1.png")
	if id != "rId1" {
		t.Errorf("first id = %q, want rId1", id)
	}
	c.SetRelationships("ppt/slides/slide1.xml", rels)

	if !c.HasPart("ppt/slides/_rels/slide1.xml.rels") {
		t.Fatal("rels part not written")
	}
	back, err := c.Relationships("ppt/slides/slide1.xml")
	if err != nil {
		t.Fatalf("reread failed: %v", err)
	}
	rel := back.ByID("rId1")
	if rel == nil || rel.Target != "../media/image1.png" {
		t.Errorf("rereads rel = %+v", rel)
	}
}
