package model

// Media is one binary resource (usually an image) shared by possibly many
// pictures across slides. Its lifetime is the longest holder: the entry
// stays in the document set until the last referencing picture is removed.
type Media struct {
	// PartName is the package part holding the blob, e.g. ppt/media/image1.png.
	PartName    string `json:"part_name"`
	ContentType string `json:"content_type,omitempty"`
	Data        []byte `json:"data,omitempty"`

	// ExtractedPath is where the blob was written under the configured
	// scratch directory during parse, empty if extraction was skipped.
	ExtractedPath string `json:"extracted_path,omitempty"`

	// Pixel dimensions probed from the blob, zero when the format could
	// not be decoded.
	Width  int `json:"width,omitempty"`
	Height int `json:"height,omitempty"`

	refs int
}

// RefCount returns the number of pictures currently referencing the entry.
func (m *Media) RefCount() int { return m.refs }

// setRefs is used by map conversion to restore reference counts.
func (m *Media) setRefs(n int) { m.refs = n }
