package layer

import (
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/matzehuels/mockup/pkg/errors"
)

const decoderJSON = `{
  "layers": [
    {
      "name": "Background",
      "kind": "group",
      "is_group": true,
      "children": [
        {"name": "bg", "kind": "pixel", "x": -5, "y": "10px", "width": 400, "height": 300,
         "scaleX": null, "scaleY": 2, "image_path": "out/images/a/b/bg.png", "z_index": null}
      ]
    },
    {
      "name": "Text",
      "kind": "group",
      "children": [
        {"name": "headline", "kind": "type", "x": 12, "y": 40, "width": 140, "height": 40,
         "text_data": {"text": "Hello", "font_name": "Arial", "font_size": "27px",
                       "fill_color": "#000", "stroke_color": "", "stroke_width": 0, "font_path": ""}}
      ]
    },
    {"name": "stray", "kind": "shape", "x": 1, "y": 2, "width": 3, "height": 4}
  ],
  "width": 400,
  "height": 600
}`

func TestDecode(t *testing.T) {
	doc, err := Decode([]byte(decoderJSON))
	if err != nil {
		t.Fatal(err)
	}
	if len(doc.Layers) != 3 {
		t.Fatalf("layers = %d, want 3", len(doc.Layers))
	}

	bg := doc.Layers[0]
	if !bg.IsGroup() || bg.Kind != KindGroup {
		t.Errorf("Background should be a group, kind=%s", bg.Kind)
	}
	leaf := bg.Children[0]
	if leaf.Kind != KindPixel || leaf.Pixel == nil {
		t.Fatalf("bg leaf kind = %s", leaf.Kind)
	}
	if leaf.X != -5 || leaf.Y != 10 {
		t.Errorf("position = (%v, %v), want (-5, 10)", leaf.X, leaf.Y)
	}
	if leaf.Transform.ScaleX != 1 || leaf.Transform.ScaleY != 2 {
		t.Errorf("scale = (%v, %v), want (1, 2)", leaf.Transform.ScaleX, leaf.Transform.ScaleY)
	}
	if leaf.Pixel.ImagePath != "out/images/a/b/bg.png" {
		t.Errorf("image_path = %q", leaf.Pixel.ImagePath)
	}
	if !leaf.Visible || leaf.Opacity != DefaultOpacity || leaf.BlendMode != DefaultBlendMode {
		t.Errorf("defaults not applied: %+v", leaf)
	}

	text := doc.Layers[1].Children[0]
	if text.Kind != KindType || text.Text == nil {
		t.Fatalf("text kind = %s", text.Kind)
	}
	if text.Text.FontSize != 27 {
		t.Errorf("font size = %v, want 27", text.Text.FontSize)
	}

	if stray := doc.Layers[2]; stray.Kind != KindPixel || stray.IsGroup() {
		t.Errorf("unknown kinds should decode as pixel, got %s", stray.Kind)
	}
	if doc.MissingFonts == nil {
		t.Error("missing_fonts should default to an empty list")
	}
}

func TestDecodeInvalid(t *testing.T) {
	_, err := Decode([]byte(`{"layers": [`))
	if !errors.Is(err, errors.ErrCodeInvalidFormat) {
		t.Errorf("err = %v, want INVALID_FORMAT", err)
	}
}

func TestMarshalIsGroupDerived(t *testing.T) {
	g := NewGroup("Choose Shirt", NewPixel("red", Pixel{ImagePath: "red.png"}))
	data, err := json.Marshal(g)
	if err != nil {
		t.Fatal(err)
	}
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatal(err)
	}
	if raw["is_group"] != true {
		t.Errorf("is_group = %v, want true", raw["is_group"])
	}
	child := raw["children"].([]any)[0].(map[string]any)
	if child["is_group"] != false || child["children"] != nil {
		t.Errorf("leaf is_group/children = %v/%v", child["is_group"], child["children"])
	}
	if child["svg_path"] != nil {
		t.Errorf("empty asset references should be null, got %v", child["svg_path"])
	}

	// is_group on input is ignored in favour of children.
	var l Layer
	if err := json.Unmarshal([]byte(`{"name":"x","kind":"group","is_group":true,"children":[]}`), &l); err != nil {
		t.Fatal(err)
	}
	if l.IsGroup() {
		t.Error("layer without children must not be a group")
	}
}

func TestDocumentWriteRead(t *testing.T) {
	doc := NewDocument("designs/shirt.svg", []*Layer{
		NewGroup("Text", NewText("title", KindTextPath, Text{Text: "Hi", FontSize: 30, TextPath: "M0 0 L10 10"})),
	})
	doc.Width, doc.Height = 800, 600
	doc.CopyOffset = &Offset{X: 400}

	path := filepath.Join(t.TempDir(), "out", FileName)
	if err := doc.WriteFile(path); err != nil {
		t.Fatal(err)
	}
	got, err := ReadDocument(path)
	if err != nil {
		t.Fatal(err)
	}
	if got.Name != "shirt" || got.ColorMode != ColorModeRGB || got.Version != DocumentVersion {
		t.Errorf("header = %q %d %d", got.Name, got.ColorMode, got.Version)
	}
	if got.LayersCount != 1 || got.Width != 800 || got.CopyOffset == nil || got.CopyOffset.X != 400 {
		t.Errorf("document fields not preserved: %+v", got)
	}
	tp := got.Layers[0].Children[0]
	if tp.Kind != KindTextPath || tp.Text.TextPath != "M0 0 L10 10" {
		t.Errorf("textpath layer = %+v", tp)
	}

	if _, err := ReadDocument(filepath.Join(t.TempDir(), "missing.json")); !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("missing file err = %v", err)
	}
}

func TestClone(t *testing.T) {
	orig := NewGroup("g", NewPixel("a", Pixel{ImagePath: "a.png"}))
	c := orig.Clone()
	c.Children[0].X = 99
	c.Children[0].Pixel.ImagePath = "b.png"
	if orig.Children[0].X != 0 || orig.Children[0].Pixel.ImagePath != "a.png" {
		t.Error("Clone must not share children or payloads")
	}
}

func TestWalk(t *testing.T) {
	forest := []*Layer{
		NewGroup("a", NewPixel("a1", Pixel{}), NewGroup("a2", NewPixel("a2x", Pixel{}))),
		NewPixel("b", Pixel{}),
	}
	var names []string
	Walk(forest, func(l, parent *Layer) bool {
		names = append(names, l.Name)
		return l.Name != "a2"
	})
	if got := strings.Join(names, ","); got != "a,a1,a2,b" {
		t.Errorf("walk order = %s", got)
	}
	if n := Count(forest); n != 5 {
		t.Errorf("Count = %d, want 5", n)
	}
	if n := len(Leaves(forest)); n != 3 {
		t.Errorf("Leaves = %d, want 3", n)
	}
}

func TestValidate(t *testing.T) {
	leaf := func(name string) *Layer { return NewPixel(name, Pixel{}) }

	tests := []struct {
		name   string
		layers []*Layer
		ok     bool
	}{
		{
			name:   "single hashtag group",
			layers: []*Layer{NewGroup("#shirt", leaf("red"), leaf("blue"))},
			ok:     true,
		},
		{
			name:   "direct nesting",
			layers: []*Layer{NewGroup("#shirt", NewGroup("#sleeve", leaf("x")))},
		},
		{
			name: "nesting through plain groups",
			layers: []*Layer{NewGroup("#shirt",
				NewGroup("inner", NewGroup("deeper", NewGroup("#logo", leaf("x")))))},
		},
		{
			name: "sibling hashtag groups",
			layers: []*Layer{
				NewGroup("#a", leaf("x")),
				NewGroup("#b", leaf("y")),
			},
			ok: true,
		},
		{
			name:   "background is not inspected",
			layers: []*Layer{NewGroup("BACKGROUND", NewGroup("#a", NewGroup("#b", leaf("x"))))},
			ok:     true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(&Document{Layers: tt.layers})
			if tt.ok && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if !tt.ok && !errors.Is(err, errors.ErrCodeInvalidStructure) {
				t.Errorf("err = %v, want INVALID_STRUCTURE", err)
			}
		})
	}
}

func TestValidateRenamesBlankLeaves(t *testing.T) {
	doc := &Document{Layers: []*Layer{
		NewGroup("Choose Shirt", NewPixel("  ", Pixel{}), NewPixel("ok", Pixel{}), NewPixel("", Pixel{})),
	}}
	if err := Validate(doc); err != nil {
		t.Fatal(err)
	}
	c := doc.Layers[0].Children
	if c[0].Name != "Unknown_1" || c[1].Name != "ok" || c[2].Name != "Unknown_2" {
		t.Errorf("names = %q %q %q", c[0].Name, c[1].Name, c[2].Name)
	}
}
