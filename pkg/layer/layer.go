// Package layer defines the mockup layer model: a forest of [Layer] nodes
// wrapped in a [Document].
//
// A Layer is a tagged variant. [Layer.Kind] selects which payload is set:
//
//	KindPixel     -> Pixel (raster and vector image references)
//	KindType      -> Text
//	KindTextPath  -> Text with TextPath set
//	KindGroup     -> Children only
//
// A layer is a group iff it has at least one child; [Layer.IsGroup] derives
// that from Children and the JSON field is_group is written from it, never
// read back.
//
// Geometry is in document space. X and Y are the top-left corner before the
// scale in Transform is applied; the rendered extent is Width*ScaleX by
// Height*ScaleY.
package layer

import (
	"github.com/matzehuels/mockup/pkg/naming"
	"github.com/matzehuels/mockup/pkg/transform"
)

// Kind is the rendering strategy of a layer.
type Kind string

const (
	KindPixel    Kind = "pixel"
	KindType     Kind = "type"
	KindTextPath Kind = "textpath"
	KindGroup    Kind = "group"
)

// IsText reports whether k renders live text.
func (k Kind) IsText() bool { return k == KindType || k == KindTextPath }

// Default attribute values written for every layer.
const (
	DefaultOpacity   = 255
	DefaultBlendMode = "NORMAL"
)

// TextZIndex is the paint order assigned to text layers so they stay above
// every image regardless of their source z-index.
const TextZIndex = 1000

// Layer is one node of the mockup model.
type Layer struct {
	Name      string
	Kind      Kind
	LayerID   string
	Visible   bool
	Opacity   int
	BlendMode string

	X, Y          float64
	Width, Height float64
	Transform     transform.T
	ZIndex        int

	Children []*Layer

	Pixel *Pixel
	Text  *Text
}

// Pixel holds the asset references of an image layer. Empty strings mean
// the asset does not exist.
type Pixel struct {
	ImagePath      string
	RawImagePath   string
	CropImagePath  string
	ThumbImagePath string
	SVGPath        string
	FillColor      string
}

// Text holds the content and style of a text layer.
type Text struct {
	Text        string
	FontName    string
	FontSize    float64
	FillColor   string
	StrokeColor string
	StrokeWidth float64
	FontPath    string
	TextPath    string // path "d" data; set only for KindTextPath
}

// NewGroup returns a visible group layer holding children.
func NewGroup(name string, children ...*Layer) *Layer {
	return &Layer{
		Name:      name,
		Kind:      KindGroup,
		Visible:   true,
		Opacity:   DefaultOpacity,
		BlendMode: DefaultBlendMode,
		Transform: transform.Identity(),
		Children:  children,
	}
}

// NewPixel returns a pixel layer referencing p.
func NewPixel(name string, p Pixel) *Layer {
	return &Layer{
		Name:      name,
		Kind:      KindPixel,
		Visible:   true,
		Opacity:   DefaultOpacity,
		BlendMode: DefaultBlendMode,
		Transform: transform.Identity(),
		Pixel:     &p,
	}
}

// NewText returns a text layer of kind (KindType or KindTextPath).
func NewText(name string, kind Kind, t Text) *Layer {
	return &Layer{
		Name:      name,
		Kind:      kind,
		Visible:   true,
		Opacity:   DefaultOpacity,
		BlendMode: DefaultBlendMode,
		Transform: transform.Identity(),
		Text:      &t,
	}
}

// IsGroup reports whether l has children.
func (l *Layer) IsGroup() bool { return len(l.Children) > 0 }

// Class returns the naming classification of l.Name.
func (l *Layer) Class() naming.Name { return naming.Classify(l.Name) }

// ScaledWidth returns the rendered width.
func (l *Layer) ScaledWidth() float64 { return l.Width * l.Transform.ScaleX }

// ScaledHeight returns the rendered height.
func (l *Layer) ScaledHeight() float64 { return l.Height * l.Transform.ScaleY }

// ImagePath returns the pixel image path, or "" for non-pixel layers.
func (l *Layer) ImagePath() string {
	if l.Pixel == nil {
		return ""
	}
	return l.Pixel.ImagePath
}

// SortName implements naming.Sortable.
func (l *Layer) SortName() string { return l.Name }

// SortZ implements naming.Sortable.
func (l *Layer) SortZ() int { return l.ZIndex }

// Clone returns a deep copy of l.
func (l *Layer) Clone() *Layer {
	if l == nil {
		return nil
	}
	c := *l
	if l.Pixel != nil {
		p := *l.Pixel
		c.Pixel = &p
	}
	if l.Text != nil {
		t := *l.Text
		c.Text = &t
	}
	if l.Children != nil {
		c.Children = make([]*Layer, len(l.Children))
		for i, child := range l.Children {
			c.Children[i] = child.Clone()
		}
	}
	return &c
}

// Walk calls fn for every layer in the forest in depth-first pre-order,
// passing the parent (nil at top level). Returning false from fn skips the
// layer's children.
func Walk(layers []*Layer, fn func(l, parent *Layer) bool) {
	walk(layers, nil, fn)
}

func walk(layers []*Layer, parent *Layer, fn func(l, parent *Layer) bool) {
	for _, l := range layers {
		if l == nil {
			continue
		}
		if fn(l, parent) {
			walk(l.Children, l, fn)
		}
	}
}

// Leaves returns every non-group layer below layers in pre-order.
func Leaves(layers []*Layer) []*Layer {
	var out []*Layer
	Walk(layers, func(l, _ *Layer) bool {
		if !l.IsGroup() {
			out = append(out, l)
		}
		return true
	})
	return out
}

// Count returns the number of layers in the forest, groups included.
func Count(layers []*Layer) int {
	n := 0
	Walk(layers, func(*Layer, *Layer) bool {
		n++
		return true
	})
	return n
}
