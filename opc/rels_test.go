package opc

import (
	"strings"
	"testing"
)

const sampleRels = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships"><Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/slideLayout" Target="../slideLayouts/slideLayout1.xml"/><Relationship Id="rId2" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/image" Target="../media/image1.png"/><Relationship Id="rId3" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/hyperlink" Target="https://example.com/page" TargetMode="External"/></Relationships>`

func TestParseRelationships(t *testing.T) {
	rels, err := ParseRelationships([]byte(sampleRels))
	if err != nil {
		t.Fatalf("ParseRelationships failed: %v", err)
	}
	if len(rels.Rels) != 3 {
		t.Fatalf("got %d rels, want 3", len(rels.Rels))
	}
	if rels.Rels[0].ID != "rId1" || rels.Rels[1].ID != "rId2" {
		t.Error("document order not preserved")
	}
	ext := rels.ByID("rId3")
	if ext == nil || !ext.External() || ext.Target != "https://example.com/page" {
		t.Errorf("external rel = %+v", ext)
	}
}

func TestParseRelationshipsBad(t *testing.T) {
	if _, err := ParseRelationships([]byte("<not-closed")); err == nil {
		t.Error("expected error for bad markup")
	}
}

func TestRelationshipsMarshal(t *testing.T) {
	rels, err := ParseRelationships([]byte(sampleRels))
	if err != nil {
		t.Fatalf("ParseRelationships failed: %v", err)
	}
	out := string(rels.Marshal())
	if !strings.Contains(out, `TargetMode="External"`) {
		t.Error("external mode dropped")
	}
	if strings.Count(out, "TargetMode") != 1 {
		t.Error("TargetMode emitted for internal rels")
	}

	back, err := ParseRelationships([]byte(out))
	if err != nil {
		t.Fatalf("remarshal parse failed: %v", err)
	}
	for i := range rels.Rels {
		if back.Rels[i] != rels.Rels[i] {
			t.Errorf("rel %d changed: %+v vs %+v", i, back.Rels[i], rels.Rels[i])
		}
	}
}

func TestAddAllocatesNextID(t *testing.T) {
	rels, _ := ParseRelationships([]byte(sampleRels))
	if id := rels.Add(RelTypeImage, "../media/image2.png"); id != "rId4" {
		t.Errorf("Add = %q, want rId4", id)
	}
	rels.Remove("rId2")
	// Highest id still wins; removed ids are not reused below it.
	if id := rels.Add(RelTypeImage, "../media/image3.png"); id != "rId5" {
		t.Errorf("Add after remove = %q, want rId5", id)
	}
}

func TestRelsPartName(t *testing.T) {
	tests := []struct {
		part string
		want string
	}{
		{"", "_rels/.rels"},
		{"ppt/presentation.xml", "ppt/_rels/presentation.xml.rels"},
		{"ppt/slides/slide1.xml", "ppt/slides/_rels/slide1.xml.rels"},
		{"root.xml", "_rels/root.xml.rels"},
	}
	for _, tt := range tests {
		if got := RelsPartName(tt.part); got != tt.want {
			t.Errorf("RelsPartName(%q) = %q, want %q", tt.part, got, tt.want)
		}
	}
}

func TestResolveTarget(t *testing.T) {
	tests := []struct {
		name string
		part string
		rel  Relationship
		want string
	}{
		{"relative up", "ppt/slides/slide1.xml", Relationship{Target: "../media/image1.png"}, "ppt/media/image1.png"},
		{"sibling", "ppt/presentation.xml", Relationship{Target: "slides/slide1.xml"}, "ppt/slides/slide1.xml"},
		{"absolute", "ppt/slides/slide1.xml", Relationship{Target: "/ppt/media/image1.png"}, "ppt/media/image1.png"},
		{"from package root", "", Relationship{Target: "ppt/presentation.xml"}, "ppt/presentation.xml"},
		{"external untouched", "ppt/slides/slide1.xml", Relationship{Target: "https://example.com/x", TargetMode: "External"}, "https://example.com/x"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ResolveTarget(tt.part, tt.rel); got != tt.want {
				t.Errorf("ResolveTarget = %q, want %q", got, tt.want)
			}
		})
	}
}
