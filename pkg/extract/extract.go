// Package extract builds a layer model from SVG markup.
//
// [Build] is pure: it walks the parsed document and returns the layer
// forest together with the asset requests needed to materialize the image
// files the layers reference. The caller runs the requests (see
// [asset.Runner]), normalizes the geometry and persists the model.
//
// Every top-level group becomes a top-level layer. Primitives nested in
// deeper groups are flattened into their top-level group. Group roles are
// read from the group name:
//
//	color        solid swatch per primitive
//	size         label tile per primitive
//	text         one type layer per <text> element
//	x2a_path     one textpath layer following the group's path
//	copy         not emitted; defines the document copy offset
//	otherwise    one pixel layer per raster image or vector path
package extract

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/matzehuels/mockup/pkg/asset"
	"github.com/matzehuels/mockup/pkg/errors"
	"github.com/matzehuels/mockup/pkg/layer"
	"github.com/matzehuels/mockup/pkg/naming"
	"github.com/matzehuels/mockup/pkg/svgdoc"
	"github.com/matzehuels/mockup/pkg/transform"
)

// Text metric heuristics used in place of real font measurement.
const (
	textWidthFactor     = 0.52
	textMinChars        = 10
	textPathWidthFactor = 0.8
	textPathMinChars    = 5
	lineHeightFactor    = 1.5

	DefaultFontSize     = 27
	DefaultPathFontSize = 100
	DefaultFill         = "black"
	DefaultFont         = "Arial"
	DefaultSwatchFill   = "#FF0000"
	DefaultPathColor    = "#000000"
)

// Options configures Build.
type Options struct {
	// OutputDir receives the generated images under OutputDir/images.
	OutputDir string

	// NewID returns ids for primitives without an id attribute. The default
	// returns the first eight characters of a random UUID.
	NewID func() string
}

func (o *Options) setDefaults() {
	if o.NewID == nil {
		o.NewID = func() string { return uuid.NewString()[:8] }
	}
}

// Result is the output of Build.
type Result struct {
	Document *layer.Document
	Requests []asset.Request
}

// BuildFile parses the SVG file at path and builds its layer model.
func BuildFile(path string, opts Options) (*Result, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "open %s", path)
		}
		return nil, errors.Wrap(errors.ErrCodeInvalidPath, err, "open %s", path)
	}
	defer f.Close()

	src, err := svgdoc.Parse(f)
	if err != nil {
		return nil, err
	}
	return Build(src, path, opts), nil
}

// Build converts src, read from path, into a layer model.
func Build(src *svgdoc.Document, path string, opts Options) *Result {
	opts.setDefaults()
	b := &builder{
		src:    src,
		opts:   opts,
		imgDir: filepath.Join(opts.OutputDir, "images"),
		canvas: canvasOf(src),
	}
	b.bgX, b.bgY, b.hasBG = backgroundOrigin(src)

	var layers []*layer.Layer
	var copyOffset *layer.Offset
	zIndex := 1
	for _, g := range src.Groups() {
		zIndex++
		name := g.DataName()
		if name == "" {
			continue
		}
		if naming.Has(name, naming.RoleCopy) {
			if off, ok := copyOffsetOf(g); ok {
				copyOffset = &off
			}
			continue
		}
		layers = append(layers, b.group(g, name, zIndex))
	}

	doc := layer.NewDocument(path, layers)
	doc.CopyOffset = copyOffset
	return &Result{Document: doc, Requests: b.reqs}
}

type builder struct {
	src    *svgdoc.Document
	opts   Options
	imgDir string
	canvas svgdoc.Rect

	bgX, bgY float64
	hasBG    bool

	reqs []asset.Request
}

func canvasOf(src *svgdoc.Document) svgdoc.Rect {
	if r, ok := svgdoc.ParseViewBox(src.ViewBox()); ok {
		return r
	}
	return svgdoc.Rect{W: src.Root.Num("width"), H: src.Root.Num("height")}
}

// backgroundOrigin returns the minimum document-space corner of all raster
// images whose id mentions "background". Vector layers are shifted by it so
// that they line up with the raster background.
func backgroundOrigin(src *svgdoc.Document) (x, y float64, ok bool) {
	x, y = math.Inf(1), math.Inf(1)
	for _, g := range src.Groups() {
		if g.ID() == "" {
			continue
		}
		for _, p := range svgdoc.Primitives(g) {
			if p.Attr("href") == "" || !naming.Has(p.ID(), naming.RoleBackground) {
				continue
			}
			r, found := p.DocumentBounds()
			if !found {
				continue
			}
			x, y, ok = math.Min(x, r.X), math.Min(y, r.Y), true
		}
	}
	if !ok {
		return 0, 0, false
	}
	return x, y, true
}

// copyOffsetOf returns the displacement of the "copy" primitive relative to
// the "base" primitive of a copy group.
func copyOffsetOf(g *svgdoc.Node) (layer.Offset, bool) {
	var base, cp *svgdoc.Rect
	for _, p := range svgdoc.Primitives(g) {
		r, ok := p.DocumentBounds()
		if !ok {
			continue
		}
		switch name := p.DataName(); {
		case naming.Has(name, naming.RoleCopy):
			cp = &r
		case naming.Has(name, naming.RoleBase):
			base = &r
		}
	}
	if base == nil || cp == nil {
		return layer.Offset{}, false
	}
	return layer.Offset{X: cp.X - base.X, Y: cp.Y - base.Y}, true
}

func (b *builder) group(g *svgdoc.Node, name string, zIndex int) *layer.Layer {
	lower := strings.ToLower(name)
	gid := g.ID()

	var children []*layer.Layer
	prepend := func(l *layer.Layer) { children = append([]*layer.Layer{l}, children...) }

	isTextPath := strings.Contains(lower, naming.TextPathMarker)
	if gid != "" {
		for _, p := range svgdoc.Primitives(g) {
			if p.Tag == "text" && lower != naming.RoleSize && !strings.Contains(lower, naming.RoleColor) {
				continue
			}
			if isTextPath && p.Tag == "path" {
				continue
			}
			if l := b.primitive(p, gid, lower, zIndex); l != nil {
				prepend(l)
			}
		}
	}

	if strings.Contains(lower, naming.RoleText) && !isTextPath {
		for _, te := range g.FindAll("text") {
			prepend(b.text(te))
		}
	}
	if isTextPath {
		if l := b.textPath(g); l != nil {
			prepend(l)
		}
	}

	out := layer.NewGroup(naming.DisplayName(name), children...)
	out.ZIndex = zIndex
	if r, ok := g.Bounds(); ok {
		out.Width, out.Height = r.W, r.H
	}
	if len(children) == 0 {
		out.Kind = layer.KindPixel
		out.Pixel = &layer.Pixel{}
	}
	return out
}

// leafName returns the display name of a primitive: the part of its
// data-name before the first '-', or its id.
func leafName(p *svgdoc.Node, id string) string {
	if n, _, _ := strings.Cut(p.Attr("data-name"), "-"); n != "" {
		return n
	}
	return id
}

func (b *builder) primitive(p *svgdoc.Node, gid, group string, zIndex int) *layer.Layer {
	id := p.ID()
	if id == "" {
		id = b.opts.NewID()
	}
	href := p.Attr("href")
	d, hasPath := p.PathData()
	if href == "" && !hasPath && group != naming.RoleSize && group != naming.RoleColor {
		return nil
	}

	name := leafName(p, id)
	req := asset.Request{Dir: b.imgDir, Name: gid + "_" + id}

	switch {
	case strings.Contains(group, naming.RoleColor):
		fill := b.src.Styles.Computed(p).Get("fill")
		if fill == "" {
			fill = DefaultSwatchFill
		}
		req.Kind, req.Fill = asset.KindSwatch, fill
		req.Width, req.Height = asset.SwatchSize, asset.SwatchSize
		b.reqs = append(b.reqs, req)

		l := layer.NewPixel(name, layer.Pixel{
			ImagePath:      req.ImagePath(),
			RawImagePath:   req.ImagePath(),
			CropImagePath:  req.ThumbPath(),
			ThumbImagePath: req.ThumbPath(),
			FillColor:      fill,
		})
		l.LayerID = id
		l.Visible = false
		l.Width, l.Height = asset.SwatchSize, asset.SwatchSize
		return l

	case group == naming.RoleSize:
		req.Kind, req.Text = asset.KindLabel, name
		b.reqs = append(b.reqs, req)

		l := layer.NewPixel(name, layer.Pixel{
			ImagePath:      req.ImagePath(),
			RawImagePath:   req.ImagePath(),
			CropImagePath:  req.CropPath(),
			ThumbImagePath: req.ThumbPath(),
		})
		l.LayerID = id
		l.Visible = false
		l.ZIndex = zIndex
		l.Width, l.Height = asset.LabelSize, asset.LabelSize
		if r, ok := b.geometry(p, d, hasPath, href); ok {
			l.X, l.Y, l.Width, l.Height = r.X, r.Y, r.W, r.H
		}
		return l
	}

	var pixel layer.Pixel
	var r svgdoc.Rect
	if hasPath {
		bounds, ok := svgdoc.PathBounds(d)
		if !ok {
			return nil
		}
		req.Kind = asset.KindVector
		req.PathData, req.Canvas, req.Bounds = d, b.canvas, bounds
		req.Outline = naming.Has(req.Name, naming.RoleVector)
		pixel.SVGPath = req.RawSVGPath()
		r = b.shifted(bounds)
	} else {
		req.Kind, req.Href = asset.KindRaster, href
		r, _ = b.geometry(p, "", false, href)
	}
	b.reqs = append(b.reqs, req)

	pixel.ImagePath = req.ImagePath()
	pixel.RawImagePath = req.ImagePath()
	pixel.CropImagePath = req.CropPath()
	pixel.ThumbImagePath = req.ThumbPath()

	l := layer.NewPixel(name, pixel)
	l.LayerID = id
	l.Visible = false
	l.ZIndex = zIndex
	l.Transform = p.Transform()
	l.X, l.Y, l.Width, l.Height = r.X, r.Y, r.W, r.H
	return l
}

// geometry returns the placement of a primitive: the cropped path box
// shifted by the background origin for vectors, or the document-space
// corner and declared size for rasters.
func (b *builder) geometry(p *svgdoc.Node, d string, hasPath bool, href string) (svgdoc.Rect, bool) {
	if hasPath {
		bounds, ok := svgdoc.PathBounds(d)
		if !ok {
			return svgdoc.Rect{}, false
		}
		return b.shifted(bounds), true
	}
	if href == "" {
		return svgdoc.Rect{}, false
	}
	r, _ := p.DocumentBounds()
	return svgdoc.Rect{X: r.X, Y: r.Y, W: p.Num("width"), H: p.Num("height")}, true
}

func (b *builder) shifted(r svgdoc.Rect) svgdoc.Rect {
	if b.hasBG {
		r.X += b.bgX
		r.Y += b.bgY
	}
	return r
}

func (b *builder) text(te *svgdoc.Node) *layer.Layer {
	id := te.ID()
	if id == "" {
		id = b.opts.NewID()
	}
	name := leafName(te, id)
	style := b.src.Styles.TextCascade(te)

	t := layer.Text{
		Text:        strings.TrimSpace(te.TextContent()),
		FontName:    fontFamily(style),
		FontSize:    DefaultFontSize,
		FillColor:   style.Get("fill"),
		StrokeColor: style.Get("stroke"),
	}
	if t.Text == "" {
		t.Text = name
	}
	if t.FillColor == "" {
		t.FillColor = DefaultFill
	}
	if size, ok := style.Length("font-size", "fontSize"); ok && size > 0 {
		t.FontSize = size
	}
	t.StrokeWidth, _ = style.Length("stroke-width", "strokeWidth")

	l := layer.NewText(name, layer.KindType, t)
	l.LayerID = id
	l.ZIndex = layer.TextZIndex
	l.Transform = te.Transform()
	l.X, l.Y = l.Transform.TranslateX, l.Transform.TranslateY
	l.Width = t.FontSize * float64(max(utf8.RuneCountInString(t.Text), textMinChars)) * textWidthFactor
	l.Height = t.FontSize * lineHeightFactor
	return l
}

func (b *builder) textPath(g *svgdoc.Node) *layer.Layer {
	path := g.Find("path")
	te := g.Find("text")
	if path == nil || te == nil {
		return nil
	}
	span := te.Find("tspan")
	if span == nil {
		span = te
	}
	d, _ := path.PathData()
	spanStyle := b.src.Styles.Computed(span)

	t := layer.Text{
		Text:        strings.TrimSpace(span.TextContent()),
		FontName:    fontFamily(spanStyle),
		FontSize:    DefaultPathFontSize,
		FillColor:   b.src.Styles.Computed(path).Get("fill"),
		StrokeColor: spanStyle.Get("stroke"),
		TextPath:    d,
	}
	if t.FillColor == "" || t.FillColor == "none" {
		t.FillColor = DefaultPathColor
	}
	if t.StrokeColor == "" {
		t.StrokeColor = DefaultPathColor
	}
	if size, ok := spanStyle.Length("font-size", "fontSize"); ok && size > 0 {
		t.FontSize = size
	}
	t.StrokeWidth, _ = spanStyle.Length("stroke-width", "strokeWidth")

	id := b.opts.NewID()
	if t.Text == "" {
		t.Text = id
	}
	l := layer.NewText(id, layer.KindTextPath, t)
	l.LayerID = id
	l.ZIndex = layer.TextZIndex
	l.Transform = transform.Identity()
	l.Transform.Rotate = span.Num("rotate")

	var r svgdoc.Rect
	if pr, ok := path.DocumentBounds(); ok {
		r = pr
	} else if tr, ok := te.DocumentBounds(); ok {
		r = tr
	}
	l.X = r.X
	l.Y = r.Y - t.FontSize*0.5
	l.Width = t.FontSize * float64(max(utf8.RuneCountInString(t.Text), textPathMinChars)) * textPathWidthFactor
	l.Height = t.FontSize * lineHeightFactor
	return l
}

func fontFamily(s svgdoc.Style) string {
	f := strings.Trim(s.Get("font-family", "fontFamily"), `"' `)
	if f == "" {
		return DefaultFont
	}
	if first, _, ok := strings.Cut(f, ","); ok {
		return strings.Trim(first, `"' `)
	}
	return f
}
