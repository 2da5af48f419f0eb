package extract

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/matzehuels/mockup/pkg/asset"
	"github.com/matzehuels/mockup/pkg/errors"
	"github.com/matzehuels/mockup/pkg/layer"
	"github.com/matzehuels/mockup/pkg/svgdoc"
)

const mockupSVG = `<svg xmlns="http://www.w3.org/2000/svg" xmlns:xlink="http://www.w3.org/1999/xlink" viewBox="0 0 800 600">
<style>.t{font-size:40px;font-family:'Roboto', sans-serif;fill:#111}</style>
<g id="Background"><image id="background_img" width="800" height="600" xlink:href="data:image/png;base64,AAAA" transform="translate(-10 -20)"/></g>
<g id="Color"><rect id="red" x="0" y="0" width="5" height="5" style="fill:#ff0000"/><rect id="blue" width="5" height="5" fill="#0000ff"/></g>
<g id="Logo" data-name="Logo#front">
  <path id="l1" data-name="Star-1" d="M10 10H30V20H10Z" transform="matrix(2 0 0 2 5 5)"/>
  <g><path d="M0 0H1V1Z"/></g>
</g>
<g id="Size"><text id="xl" data-name="XL">XL</text></g>
<g id="Front_Text"><text id="title" class="t" transform="translate(100 200)">Hello</text></g>
<g id="Curve" data-name="Curve x2a_path">
  <path id="cp" d="M50 50 Q100 0 150 50" style="fill:none"/>
  <text><textPath><tspan style="font-size:20px">Around</tspan></textPath></text>
</g>
<g id="Sleeve-Vector"><path id="s1" d="M0 0H5V5Z"/></g>
<g id="Empty"></g>
<g id="Copy"><rect data-name="base" x="0" y="0" width="10" height="10"/><rect data-name="copy" x="300" y="40" width="10" height="10"/></g>
<g><path d="M0 0H1V1Z"/></g>
</svg>`

func counterIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("id%d", n)
	}
}

func build(t *testing.T, markup string) *Result {
	t.Helper()
	src, err := svgdoc.ParseBytes([]byte(markup))
	if err != nil {
		t.Fatal(err)
	}
	return Build(src, "designs/shirt.svg", Options{OutputDir: "out", NewID: counterIDs()})
}

func near(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestBuildGroups(t *testing.T) {
	res := build(t, mockupSVG)
	doc := res.Document

	want := []string{"Background", "Choose Color", "Choose Logo#front", "Choose Size", "Front_Text", "Choose Curve x2a_path", "Choose Sleeve-Vector", "Choose Empty"}
	if len(doc.Layers) != len(want) {
		t.Fatalf("got %d top-level layers, want %d", len(doc.Layers), len(want))
	}
	for i, l := range doc.Layers {
		if l.Name != want[i] {
			t.Errorf("layer %d = %q, want %q", i, l.Name, want[i])
		}
	}
	if doc.Name != "shirt" {
		t.Errorf("document name = %q", doc.Name)
	}
	if doc.CopyOffset == nil || doc.CopyOffset.X != 300 || doc.CopyOffset.Y != 40 {
		t.Errorf("copy offset = %+v", doc.CopyOffset)
	}
	if doc.Find("Choose Empty").Kind != layer.KindPixel {
		t.Error("childless group should be a pixel layer")
	}
	if z := doc.Find("Background").ZIndex; z != 2 {
		t.Errorf("first group z-index = %d, want 2", z)
	}
	if len(res.Requests) != 7 {
		t.Errorf("got %d asset requests, want 7", len(res.Requests))
	}
}

func TestBuildRaster(t *testing.T) {
	doc := build(t, mockupSVG).Document
	bg := doc.Find("Background").Children[0]
	if bg.Name != "background_img" || bg.Kind != layer.KindPixel || bg.Visible {
		t.Errorf("background leaf = %+v", bg)
	}
	if bg.X != -10 || bg.Y != -20 || bg.Width != 800 || bg.Height != 600 {
		t.Errorf("background geometry = (%v, %v, %v, %v)", bg.X, bg.Y, bg.Width, bg.Height)
	}
	if bg.Transform.TranslateX != -10 {
		t.Errorf("transform not stored: %+v", bg.Transform)
	}
	if got := bg.Pixel.ImagePath; got != filepath.Join("out", "images", "Background_background_img.png") {
		t.Errorf("image path = %s", got)
	}
}

func TestBuildVectorShiftedByBackground(t *testing.T) {
	res := build(t, mockupSVG)
	logo := res.Document.Find("Choose Logo#front")
	if len(logo.Children) != 2 {
		t.Fatalf("logo children = %d", len(logo.Children))
	}
	// Children are prepended: the nested path comes first.
	if logo.Children[0].LayerID != "id1" || logo.Children[1].LayerID != "l1" {
		t.Errorf("child order = %s, %s", logo.Children[0].LayerID, logo.Children[1].LayerID)
	}
	star := logo.Children[1]
	if star.Name != "Star" {
		t.Errorf("leaf name = %q", star.Name)
	}
	if star.X != 0 || star.Y != -10 || star.Width != 20 || star.Height != 10 {
		t.Errorf("star geometry = (%v, %v, %v, %v)", star.X, star.Y, star.Width, star.Height)
	}
	if star.Transform.ScaleX != 2 || star.Pixel.SVGPath == "" {
		t.Errorf("star = %+v %+v", star.Transform, star.Pixel)
	}

	var outlined, plain int
	for _, r := range res.Requests {
		if r.Kind != asset.KindVector {
			continue
		}
		if r.Outline {
			outlined++
		} else {
			plain++
		}
		if r.Canvas != (svgdoc.Rect{W: 800, H: 600}) {
			t.Errorf("canvas = %+v", r.Canvas)
		}
	}
	if outlined != 1 || plain != 2 {
		t.Errorf("vector requests outlined=%d plain=%d", outlined, plain)
	}
}

func TestBuildSwatches(t *testing.T) {
	color := build(t, mockupSVG).Document.Find("Choose Color")
	if len(color.Children) != 2 {
		t.Fatalf("swatches = %d", len(color.Children))
	}
	blue, red := color.Children[0], color.Children[1]
	if red.Pixel.FillColor != "#ff0000" || blue.Pixel.FillColor != "#0000ff" {
		t.Errorf("fills = %s, %s", red.Pixel.FillColor, blue.Pixel.FillColor)
	}
	if red.Width != 100 || red.Height != 100 || red.X != 0 || red.ZIndex != 0 || red.Visible {
		t.Errorf("swatch = %+v", red)
	}
	if red.Pixel.ThumbImagePath != red.Pixel.CropImagePath {
		t.Error("swatch crop should be its thumbnail")
	}
}

func TestBuildSizeLabel(t *testing.T) {
	res := build(t, mockupSVG)
	size := res.Document.Find("Choose Size")
	if len(size.Children) != 1 || size.Children[0].Name != "XL" {
		t.Fatalf("size children = %+v", size.Children)
	}
	found := false
	for _, r := range res.Requests {
		if r.Kind == asset.KindLabel && r.Text == "XL" {
			found = true
		}
	}
	if !found {
		t.Error("no label request for XL")
	}
}

func TestBuildText(t *testing.T) {
	group := build(t, mockupSVG).Document.Find("Front_Text")
	if len(group.Children) != 1 {
		t.Fatalf("text children = %d", len(group.Children))
	}
	l := group.Children[0]
	if l.Kind != layer.KindType || !l.Visible || l.ZIndex != layer.TextZIndex {
		t.Errorf("text layer = %+v", l)
	}
	td := l.Text
	if td.Text != "Hello" || td.FontSize != 40 || td.FontName != "Roboto" || td.FillColor != "#111" {
		t.Errorf("text data = %+v", td)
	}
	if l.X != 100 || l.Y != 200 {
		t.Errorf("position = (%v, %v)", l.X, l.Y)
	}
	if !near(l.Width, 40*10*0.52) || !near(l.Height, 60) {
		t.Errorf("size = %vx%v", l.Width, l.Height)
	}
}

func TestBuildTextPath(t *testing.T) {
	group := build(t, mockupSVG).Document.Find("Choose Curve x2a_path")
	if len(group.Children) != 1 {
		t.Fatalf("textpath children = %d", len(group.Children))
	}
	l := group.Children[0]
	if l.Kind != layer.KindTextPath || l.Name != "id2" {
		t.Errorf("textpath layer = %+v", l)
	}
	td := l.Text
	if td.Text != "Around" || td.FontSize != 20 || td.FillColor != "#000000" || td.StrokeColor != "#000000" {
		t.Errorf("text data = %+v", td)
	}
	if td.TextPath != "M50 50 Q100 0 150 50" {
		t.Errorf("text path = %q", td.TextPath)
	}
	if !near(l.X, 50) || !near(l.Y, 15) {
		t.Errorf("position = (%v, %v), want (50, 15)", l.X, l.Y)
	}
	if !near(l.Width, 96) || !near(l.Height, 30) {
		t.Errorf("size = %vx%v", l.Width, l.Height)
	}
}

func TestBuildWithoutBackground(t *testing.T) {
	res := build(t, `<svg viewBox="0 0 10 10"><g id="Logo"><path id="p" d="M1 2H4V6Z"/></g></svg>`)
	p := res.Document.Layers[0].Children[0]
	if p.X != 1 || p.Y != 2 {
		t.Errorf("unshifted vector = (%v, %v)", p.X, p.Y)
	}
}

func TestBuildSkipsPrimitivesWithoutGeometry(t *testing.T) {
	res := build(t, `<svg><g id="Logo"><text>x</text><image id="i"/><path d=""/></g></svg>`)
	if n := len(res.Document.Layers[0].Children); n != 0 {
		t.Errorf("got %d children, want 0", n)
	}
	if len(res.Requests) != 0 {
		t.Errorf("got %d requests, want 0", len(res.Requests))
	}
}

func TestBuildFile(t *testing.T) {
	p := filepath.Join(t.TempDir(), "shirt.svg")
	if err := os.WriteFile(p, []byte(mockupSVG), 0o644); err != nil {
		t.Fatal(err)
	}
	res, err := BuildFile(p, Options{OutputDir: t.TempDir()})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Document.Layers) != 8 {
		t.Errorf("layers = %d", len(res.Document.Layers))
	}

	if _, err := BuildFile(filepath.Join(t.TempDir(), "missing.svg"), Options{}); !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("missing file error = %v", err)
	}
}
