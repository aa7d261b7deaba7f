package model

import (
	"encoding/json"
	"fmt"
)

// Map conversion gives a lossless two-way bridge between the shape tree and
// plain nested maps, suitable for JSON storage. It is driven by the json
// struct tags on the model types plus a per-shape kind discriminator, so a
// new field on any shape variant is picked up without conversion glue.

// ToMap converts the document to a plain nested-map representation.
func (d *Document) ToMap() (map[string]any, error) {
	m, err := structToMap(d)
	if err != nil {
		return nil, err
	}

	slides := make([]any, len(d.Slides))
	for i, s := range d.Slides {
		sm, err := structToMap(s)
		if err != nil {
			return nil, err
		}
		shapes, err := shapesToMaps(s.Shapes)
		if err != nil {
			return nil, err
		}
		sm["shapes"] = shapes
		slides[i] = sm
	}
	m["slides"] = slides

	if len(d.Layouts) > 0 {
		layouts := make(map[string]any, len(d.Layouts))
		for name, l := range d.Layouts {
			lm, err := structToMap(l)
			if err != nil {
				return nil, err
			}
			shapes, err := shapesToMaps(l.Shapes)
			if err != nil {
				return nil, err
			}
			lm["shapes"] = shapes
			layouts[name] = lm
		}
		m["layouts"] = layouts
	}

	if len(d.Masters) > 0 {
		masters := make(map[string]any, len(d.Masters))
		for name, ms := range d.Masters {
			mm, err := structToMap(ms)
			if err != nil {
				return nil, err
			}
			shapes, err := shapesToMaps(ms.Shapes)
			if err != nil {
				return nil, err
			}
			mm["shapes"] = shapes
			masters[name] = mm
		}
		m["masters"] = masters
	}

	if media, ok := m["media"].(map[string]any); ok {
		for name, entry := range media {
			if em, ok := entry.(map[string]any); ok {
				em["ref_count"] = d.Media[name].RefCount()
			}
		}
	}

	return m, nil
}

// FromMap reconstructs a document from its nested-map representation.
// Media reference counts are recomputed from the picture graph rather than
// trusted from the input.
func FromMap(m map[string]any) (*Document, error) {
	doc := NewDocument()
	if err := mapToStruct(m, doc); err != nil {
		return nil, err
	}

	rawSlides, _ := m["slides"].([]any)
	for i, rs := range rawSlides {
		sm, ok := rs.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("model: slide %d is not a map", i)
		}
		if i < len(doc.Slides) {
			shapes, err := shapesFromMaps(sm["shapes"])
			if err != nil {
				return nil, fmt.Errorf("model: slide %d: %w", i, err)
			}
			doc.Slides[i].Shapes = shapes
			reindex(shapes)
		}
	}

	if rawLayouts, ok := m["layouts"].(map[string]any); ok {
		for name, rl := range rawLayouts {
			lm, ok := rl.(map[string]any)
			if !ok {
				continue
			}
			if layout := doc.Layouts[name]; layout != nil {
				shapes, err := shapesFromMaps(lm["shapes"])
				if err != nil {
					return nil, fmt.Errorf("model: layout %s: %w", name, err)
				}
				layout.Shapes = shapes
			}
		}
	}

	if rawMasters, ok := m["masters"].(map[string]any); ok {
		for name, rm := range rawMasters {
			mm, ok := rm.(map[string]any)
			if !ok {
				continue
			}
			if master := doc.Masters[name]; master != nil {
				shapes, err := shapesFromMaps(mm["shapes"])
				if err != nil {
					return nil, fmt.Errorf("model: master %s: %w", name, err)
				}
				master.Shapes = shapes
			}
		}
	}

	// Reference counts follow from the picture graph.
	for _, media := range doc.Media {
		media.setRefs(0)
	}
	for _, s := range doc.Slides {
		WalkShapes(s.Shapes, func(sh Shape) {
			if pic, ok := sh.(*Picture); ok && pic.MediaPart != "" {
				if media, ok := doc.Media[pic.MediaPart]; ok {
					media.setRefs(media.RefCount() + 1)
				}
			}
		})
	}
	for name, media := range doc.Media {
		if media.RefCount() == 0 {
			delete(doc.Media, name)
		}
	}

	return doc, nil
}

func shapesToMaps(shapes []Shape) ([]any, error) {
	out := make([]any, len(shapes))
	for i, sh := range shapes {
		m, err := shapeToMap(sh)
		if err != nil {
			return nil, err
		}
		out[i] = m
	}
	return out, nil
}

func shapeToMap(sh Shape) (map[string]any, error) {
	m, err := structToMap(sh)
	if err != nil {
		return nil, err
	}
	m["kind"] = sh.Kind().String()
	if g, ok := sh.(*Group); ok {
		children, err := shapesToMaps(g.Shapes)
		if err != nil {
			return nil, err
		}
		m["shapes"] = children
	}
	return m, nil
}

func shapesFromMaps(v any) ([]Shape, error) {
	raw, _ := v.([]any)
	shapes := make([]Shape, 0, len(raw))
	for i, rs := range raw {
		m, ok := rs.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("shape %d is not a map", i)
		}
		sh, err := shapeFromMap(m)
		if err != nil {
			return nil, fmt.Errorf("shape %d: %w", i, err)
		}
		shapes = append(shapes, sh)
	}
	return shapes, nil
}

func shapeFromMap(m map[string]any) (Shape, error) {
	kind, _ := m["kind"].(string)
	var sh Shape
	switch kind {
	case "textbox":
		sh = &TextBox{}
	case "picture":
		sh = &Picture{}
	case "group":
		sh = &Group{}
	case "placeholder":
		sh = &Placeholder{}
	case "graphic_frame":
		sh = &GraphicFrame{}
	case "generic", "":
		sh = &Generic{}
	default:
		return nil, fmt.Errorf("unknown shape kind %q", kind)
	}
	if err := mapToStruct(m, sh); err != nil {
		return nil, err
	}
	if g, ok := sh.(*Group); ok {
		children, err := shapesFromMaps(m["shapes"])
		if err != nil {
			return nil, err
		}
		g.Shapes = children
	}
	return sh, nil
}

func structToMap(v any) (map[string]any, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, err
	}
	return m, nil
}

func mapToStruct(m map[string]any, v any) error {
	b, err := json.Marshal(m)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, v)
}
