package render

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/Force1ess/PPTParse/model"
)

// Options controls the HTML export.
type Options struct {
	// ShowImages emits <img> tags pointing at extracted media files.
	// Disabled, pictures render as captioned figure stubs.
	ShowImages bool
	// InlineStyles emits per-element style attributes carrying geometry and
	// character formatting. Disabled, only structural classes are emitted.
	InlineStyles bool
}

// Context is what a renderer sees: the document and slide the shape lives
// on, the export options, and the registry for recursing into groups.
type Context struct {
	Doc   *model.Document
	Slide *model.Slide
	Opts  Options

	registry *Registry
}

// Renderer draws one shape variant. Returning nil skips the shape.
type Renderer func(ctx *Context, sh model.Shape) *html.Node

// Registry maps shape kinds to renderers. A fresh registry carries the
// built-in renderers; Register swaps individual variants out.
type Registry struct {
	renderers map[model.ShapeKind]Renderer
}

// NewRegistry returns a registry with the built-in renderers.
func NewRegistry() *Registry {
	r := &Registry{renderers: make(map[model.ShapeKind]Renderer)}
	r.Register(model.KindTextBox, renderTextBox)
	r.Register(model.KindPlaceholder, renderPlaceholder)
	r.Register(model.KindPicture, renderPicture)
	r.Register(model.KindGroup, renderGroup)
	r.Register(model.KindGraphicFrame, renderGraphicFrame)
	r.Register(model.KindGeneric, renderGeneric)
	return r
}

// Register installs a renderer for one shape kind, replacing the built-in.
func (r *Registry) Register(kind model.ShapeKind, fn Renderer) {
	r.renderers[kind] = fn
}

// HTML renders the document through the default registry.
func HTML(doc *model.Document, opts Options) (string, error) {
	return NewRegistry().HTML(doc, opts)
}

// HTML renders the whole document as a standalone page, slides in order,
// shapes in paint order.
func (r *Registry) HTML(doc *model.Document, opts Options) (string, error) {
	if doc == nil {
		return "", fmt.Errorf("render: nil document")
	}

	head := elem("head")
	head.AppendChild(elem("meta", attr("charset", "utf-8")))
	title := elem("title")
	title.AppendChild(text(doc.Metadata.Title))
	head.AppendChild(title)
	if !opts.InlineStyles {
		style := elem("style")
		style.AppendChild(text(stylesheet))
		head.AppendChild(style)
	}

	body := elem("body")
	for i, slide := range doc.Slides {
		section := elem("section",
			attr("class", "slide"),
			attr("id", fmt.Sprintf("slide-%d", i+1)))
		if opts.InlineStyles {
			setStyle(section, fmt.Sprintf("position:relative;width:%.2fpt;height:%.2fpt",
				doc.SlideWidth.Points(), doc.SlideHeight.Points()))
		}
		ctx := &Context{Doc: doc, Slide: slide, Opts: opts, registry: r}
		for _, sh := range slide.Shapes {
			if node := r.render(ctx, sh); node != nil {
				section.AppendChild(node)
			}
		}
		body.AppendChild(section)
	}

	root := elem("html")
	root.AppendChild(head)
	root.AppendChild(body)
	page := &html.Node{Type: html.DocumentNode}
	page.AppendChild(&html.Node{Type: html.DoctypeNode, Data: "html"})
	page.AppendChild(root)

	var sb strings.Builder
	if err := html.Render(&sb, page); err != nil {
		return "", fmt.Errorf("render: %w", err)
	}
	return sb.String(), nil
}

func (r *Registry) render(ctx *Context, sh model.Shape) *html.Node {
	fn, ok := r.renderers[sh.Kind()]
	if !ok {
		return nil
	}
	return fn(ctx, sh)
}

// stylesheet is the class-based fallback used when inline styles are off.
const stylesheet = `.slide{position:relative;border:1px solid #ccc;margin:8px}
.textbox,.placeholder,.picture,.group,.graphic-frame{margin:4px}
.picture figcaption{color:#666;font-style:italic}
table{border-collapse:collapse}
td{border:1px solid #999;padding:2px 6px}`

// ====================================================================
// Built-in renderers
// ====================================================================

func renderTextBox(ctx *Context, sh model.Shape) *html.Node {
	tb := sh.(*model.TextBox)
	div := shapeDiv(ctx, sh, "textbox")
	appendTextFrame(ctx, div, tb.Text, model.Font{})
	return div
}

func renderPlaceholder(ctx *Context, sh model.Shape) *html.Node {
	ph := sh.(*model.Placeholder)
	class := "placeholder"
	if ph.PhType != "" {
		class += " placeholder-" + ph.PhType
	}
	div := elem("div", attr("class", class))
	if ctx.Opts.InlineStyles {
		if frame := ctx.Doc.ResolvePlaceholderFrame(ctx.Slide, ph); frame != nil {
			setStyle(div, frameStyle(frame))
		}
	}
	inherited := ctx.Doc.ResolvePlaceholderFont(ctx.Slide, ph)
	appendTextFrame(ctx, div, ph.Text, inherited)
	return div
}

func renderPicture(ctx *Context, sh model.Shape) *html.Node {
	pic := sh.(*model.Picture)
	fig := shapeDiv(ctx, sh, "picture")
	fig.Data = "figure"
	fig.DataAtom = atom.Figure

	if ctx.Opts.ShowImages {
		src := pic.MediaPart
		if m, ok := ctx.Doc.Media[pic.MediaPart]; ok && m.ExtractedPath != "" {
			src = m.ExtractedPath
		}
		fig.AppendChild(elem("img", attr("src", src), attr("alt", pic.AltText)))
	}
	caption := pic.AltText
	if caption == "" {
		caption = pic.Name()
	}
	if caption != "" {
		figcaption := elem("figcaption")
		figcaption.AppendChild(text(caption))
		fig.AppendChild(figcaption)
	}
	return fig
}

func renderGroup(ctx *Context, sh model.Shape) *html.Node {
	g := sh.(*model.Group)
	div := shapeDiv(ctx, sh, "group")
	for _, child := range g.Shapes {
		if node := ctx.registry.render(ctx, child); node != nil {
			div.AppendChild(node)
		}
	}
	return div
}

func renderGraphicFrame(ctx *Context, sh model.Shape) *html.Node {
	gf := sh.(*model.GraphicFrame)
	div := shapeDiv(ctx, sh, "graphic-frame")
	if gf.Table == nil {
		return div
	}

	table := elem("table")
	for _, row := range gf.Table.Rows {
		tr := elem("tr")
		for _, cell := range row.Cells {
			if cell.Merged {
				continue
			}
			var attrs []html.Attribute
			if cell.ColSpan > 1 {
				attrs = append(attrs, attr("colspan", fmt.Sprintf("%d", cell.ColSpan)))
			}
			if cell.RowSpan > 1 {
				attrs = append(attrs, attr("rowspan", fmt.Sprintf("%d", cell.RowSpan)))
			}
			td := elem("td", attrs...)
			td.AppendChild(text(cell.Text))
			tr.AppendChild(td)
		}
		table.AppendChild(tr)
	}
	div.AppendChild(table)
	return div
}

// Unknown markup has no visual interpretation.
func renderGeneric(*Context, model.Shape) *html.Node {
	return nil
}

// ====================================================================
// Helpers
// ====================================================================

func appendTextFrame(ctx *Context, parent *html.Node, tf *model.TextFrame, inherited model.Font) {
	if tf == nil {
		return
	}
	for _, para := range tf.Paragraphs {
		p := elem("p")
		if para.Level > 0 {
			p.Attr = append(p.Attr, attr("class", fmt.Sprintf("level-%d", para.Level)))
		}
		for _, run := range para.Runs {
			if run.Break {
				p.AppendChild(elem("br"))
				continue
			}
			if !ctx.Opts.InlineStyles {
				p.AppendChild(text(run.Text))
				continue
			}
			span := elem("span")
			if style := fontStyle(run.Font.Merge(inherited)); style != "" {
				setStyle(span, style)
			}
			span.AppendChild(text(run.Text))
			p.AppendChild(span)
		}
		parent.AppendChild(p)
	}
}

// fontStyle emits character formatting as CSS, properties in a fixed order
// so output stays deterministic.
func fontStyle(f model.Font) string {
	var parts []string
	if f.Name != nil {
		parts = append(parts, "font-family:"+*f.Name)
	}
	if f.Size != nil {
		parts = append(parts, fmt.Sprintf("font-size:%.1fpt", f.Size.Points()))
	}
	if f.Bold != nil && *f.Bold {
		parts = append(parts, "font-weight:bold")
	}
	if f.Italic != nil && *f.Italic {
		parts = append(parts, "font-style:italic")
	}
	if f.Underline != nil && *f.Underline != "none" {
		parts = append(parts, "text-decoration:underline")
	}
	if f.Color != nil {
		parts = append(parts, "color:#"+*f.Color)
	}
	return strings.Join(parts, ";")
}

func frameStyle(frame *model.Frame) string {
	return fmt.Sprintf("position:absolute;left:%.2fpt;top:%.2fpt;width:%.2fpt;height:%.2fpt",
		frame.X.Points(), frame.Y.Points(), frame.Width.Points(), frame.Height.Points())
}

// shapeDiv builds the standard wrapper for a shape: class plus, when inline
// styles are on, absolute geometry.
func shapeDiv(ctx *Context, sh model.Shape, class string) *html.Node {
	div := elem("div", attr("class", class))
	if ctx.Opts.InlineStyles {
		if frame := sh.Frame(); frame != nil {
			setStyle(div, frameStyle(frame))
		}
	}
	return div
}

func elem(tag string, attrs ...html.Attribute) *html.Node {
	return &html.Node{
		Type:     html.ElementNode,
		Data:     tag,
		DataAtom: atom.Lookup([]byte(tag)),
		Attr:     attrs,
	}
}

func text(s string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: s}
}

func attr(key, val string) html.Attribute {
	return html.Attribute{Key: key, Val: val}
}

func setStyle(n *html.Node, style string) {
	n.Attr = append(n.Attr, attr("style", style))
}
