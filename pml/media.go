package pml

import (
	"bytes"
	"fmt"
	"image"
	"os"
	"path"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	// Decoders for dimension probing. GIF, JPEG and PNG come from the
	// standard library; BMP, TIFF and WebP register via x/image.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/Force1ess/PPTParse/model"
)

// imageExtensions are the media extensions whose dimensions can be probed.
// Vector formats like wmf/emf are retained but never decoded.
var imageExtensions = map[string]bool{
	"bmp": true, "gif": true, "jpg": true, "jpeg": true,
	"pgm": true, "png": true, "ppm": true, "tif": true,
	"tiff": true, "webp": true,
}

// loadMedia registers the media part behind a picture, probing dimensions
// and extracting the blob to the scratch directory on first sight. Pictures
// on layouts and masters do not hold references in the document set.
func (p *parser) loadMedia(partName, refPart string, retain bool) error {
	if !retain {
		return nil
	}
	if existing, ok := p.doc.Media[partName]; ok {
		p.doc.RetainMedia(existing)
		return nil
	}

	data, err := p.c.Part(partName)
	if err != nil {
		return fmt.Errorf("media part %s missing", partName)
	}

	m := &model.Media{PartName: partName, Data: data}
	if ct, err := p.c.ContentTypes(); err == nil {
		m.ContentType = ct.TypeOf(partName)
	}

	ext := strings.TrimPrefix(strings.ToLower(path.Ext(partName)), ".")
	if imageExtensions[ext] {
		if cfg, _, err := image.DecodeConfig(bytes.NewReader(data)); err == nil {
			m.Width, m.Height = cfg.Width, cfg.Height
		} else {
			p.doc.Warn(model.Warning{Part: partName, Message: fmt.Sprintf("undecodable %s image: %v", ext, err)})
		}
	} else {
		p.doc.Warn(model.Warning{Part: partName, Message: fmt.Sprintf("unsupported image type %q", ext)})
	}

	if p.cfg.ImageDir != "" {
		if err := p.extract(m); err != nil {
			p.doc.Warn(model.Warning{Part: partName, Message: fmt.Sprintf("media extraction failed: %v", err)})
			p.log.Warn("media extraction failed", zap.String("part", partName), zap.Error(err))
		}
	}

	p.doc.RetainMedia(m)
	return nil
}

// extract writes the blob under the image directory, skipping files that
// already exist so shared media is written once per run.
func (p *parser) extract(m *model.Media) error {
	if err := os.MkdirAll(p.cfg.ImageDir, 0o755); err != nil {
		return err
	}
	dest := filepath.Join(p.cfg.ImageDir, path.Base(m.PartName))
	if _, err := os.Stat(dest); err == nil {
		m.ExtractedPath = dest
		return nil
	}
	if err := os.WriteFile(dest, m.Data, 0o644); err != nil {
		return err
	}
	m.ExtractedPath = dest
	return nil
}
