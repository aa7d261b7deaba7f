package model

// ResolvePlaceholderFont returns the effective character formatting for a
// placeholder on a slide. Explicitly set fields win; unset fields walk
// slide -> layout -> master. The walk happens on every call, so editing a
// layout after parse changes what dependent placeholders resolve to.
func (d *Document) ResolvePlaceholderFont(s *Slide, p *Placeholder) Font {
	font := p.Text.FirstFont()
	layout := d.Layout(s)
	if layout != nil {
		if lp := layout.Placeholder(p.PhType, p.Index); lp != nil {
			font = font.Merge(lp.Text.FirstFont())
		}
		if master := d.Master(layout); master != nil {
			if mp := master.Placeholder(p.PhType, p.Index); mp != nil {
				font = font.Merge(mp.Text.FirstFont())
			}
		}
	}
	return font
}

// ResolvePlaceholderFrame returns the effective geometry for a placeholder:
// its own frame when set, otherwise the layout's, otherwise the master's.
// Nil means no level of the chain positions the placeholder.
func (d *Document) ResolvePlaceholderFrame(s *Slide, p *Placeholder) *Frame {
	if p.FrameVal != nil {
		return p.FrameVal
	}
	layout := d.Layout(s)
	if layout == nil {
		return nil
	}
	if lp := layout.Placeholder(p.PhType, p.Index); lp != nil && lp.FrameVal != nil {
		return lp.FrameVal
	}
	if master := d.Master(layout); master != nil {
		if mp := master.Placeholder(p.PhType, p.Index); mp != nil {
			return mp.FrameVal
		}
	}
	return nil
}
