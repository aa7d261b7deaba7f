package opc

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/flate"
)

// Container-related errors.
var (
	ErrPackageCorrupt = errors.New("opc: invalid or corrupted package")
	ErrPartNotFound   = errors.New("opc: part not found")
)

// contentTypesPart is the one part every package must carry.
const contentTypesPart = "[Content_Types].xml"

// Container is an in-memory packaged document: an ordered set of named parts.
type Container struct {
	names []string
	parts map[string][]byte
}

// Open reads a package from a file.
func Open(path string) (*Container, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPackageCorrupt, err)
	}
	defer zr.Close()
	return load(&zr.Reader)
}

// OpenReader reads a package from an io.ReaderAt.
func OpenReader(ra io.ReaderAt, size int64) (*Container, error) {
	zr, err := zip.NewReader(ra, size)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPackageCorrupt, err)
	}
	return load(zr)
}

func load(zr *zip.Reader) (*Container, error) {
	c := &Container{parts: make(map[string][]byte, len(zr.File))}
	for _, f := range zr.File {
		if f.FileInfo().IsDir() {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("%w: reading %s: %v", ErrPackageCorrupt, f.Name, err)
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("%w: reading %s: %v", ErrPackageCorrupt, f.Name, err)
		}
		if _, dup := c.parts[f.Name]; !dup {
			c.names = append(c.names, f.Name)
		}
		c.parts[f.Name] = data
	}
	if _, ok := c.parts[contentTypesPart]; !ok {
		return nil, fmt.Errorf("%w: missing %s", ErrPackageCorrupt, contentTypesPart)
	}
	return c, nil
}

// New creates an empty container with a content-type index.
func New() *Container {
	c := &Container{parts: make(map[string][]byte)}
	c.SetPart(contentTypesPart, NewContentTypes().Marshal())
	return c
}

// Part returns the bytes of a named part.
func (c *Container) Part(name string) ([]byte, error) {
	data, ok := c.parts[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrPartNotFound, name)
	}
	return data, nil
}

// HasPart reports whether a named part exists.
func (c *Container) HasPart(name string) bool {
	_, ok := c.parts[name]
	return ok
}

// SetPart stores part bytes, appending the name to the part order if new.
func (c *Container) SetPart(name string, data []byte) {
	if _, ok := c.parts[name]; !ok {
		c.names = append(c.names, name)
	}
	c.parts[name] = data
}

// RemovePart deletes a part. Removing a missing part is a no-op.
func (c *Container) RemovePart(name string) {
	if _, ok := c.parts[name]; !ok {
		return
	}
	delete(c.parts, name)
	for i, n := range c.names {
		if n == name {
			c.names = append(c.names[:i], c.names[i+1:]...)
			break
		}
	}
}

// Parts returns all part names in package order.
func (c *Container) Parts() []string {
	return append([]string(nil), c.names...)
}

// Clone returns a deep copy of the container.
func (c *Container) Clone() *Container {
	out := &Container{
		names: append([]string(nil), c.names...),
		parts: make(map[string][]byte, len(c.parts)),
	}
	for name, data := range c.parts {
		out.parts[name] = append([]byte(nil), data...)
	}
	return out
}

// Relationships returns the relationship set of a part, or of the package
// itself when partName is empty. A part with no relationship part yields an
// empty, addable set.
func (c *Container) Relationships(partName string) (*Relationships, error) {
	data, err := c.Part(RelsPartName(partName))
	if errors.Is(err, ErrPartNotFound) {
		return &Relationships{}, nil
	}
	if err != nil {
		return nil, err
	}
	return ParseRelationships(data)
}

// SetRelationships writes a part's relationship set back into the package.
func (c *Container) SetRelationships(partName string, rels *Relationships) {
	c.SetPart(RelsPartName(partName), rels.Marshal())
}

// ContentTypes returns the parsed content-type index.
func (c *Container) ContentTypes() (*ContentTypes, error) {
	data, err := c.Part(contentTypesPart)
	if err != nil {
		return nil, err
	}
	ct, err := ParseContentTypes(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPackageCorrupt, err)
	}
	return ct, nil
}

// SetContentTypes writes the content-type index back into the package.
func (c *Container) SetContentTypes(ct *ContentTypes) {
	c.SetPart(contentTypesPart, ct.Marshal())
}

// WriteTo emits the container as a ZIP archive. The content-type index is
// written first, then every other part in package order. Deflate runs
// through klauspost/compress for throughput.
func (c *Container) WriteTo(w io.Writer) (int64, error) {
	cw := &countingWriter{w: w}
	zw := zip.NewWriter(cw)
	zw.RegisterCompressor(zip.Deflate, func(out io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(out, flate.DefaultCompression)
	})

	write := func(name string) error {
		fw, err := zw.CreateHeader(&zip.FileHeader{Name: name, Method: zip.Deflate})
		if err != nil {
			return err
		}
		_, err = fw.Write(c.parts[name])
		return err
	}

	if err := write(contentTypesPart); err != nil {
		zw.Close()
		return cw.n, err
	}
	for _, name := range c.names {
		if name == contentTypesPart {
			continue
		}
		if err := write(name); err != nil {
			zw.Close()
			return cw.n, err
		}
	}
	if err := zw.Close(); err != nil {
		return cw.n, err
	}
	return cw.n, nil
}

// WriteFile writes the container to a file path.
func (c *Container) WriteFile(path string) error {
	var buf bytes.Buffer
	if _, err := c.WriteTo(&buf); err != nil {
		return err
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (cw *countingWriter) Write(p []byte) (int, error) {
	n, err := cw.w.Write(p)
	cw.n += int64(n)
	return n, err
}
