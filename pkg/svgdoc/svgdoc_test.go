package svgdoc

import (
	"math"
	"strings"
	"testing"
	"time"
)

const illustratorSVG = `<?xml version="1.0" encoding="utf-8"?>
<svg xmlns="http://www.w3.org/2000/svg" xmlns:xlink="http://www.w3.org/1999/xlink" viewBox="0 0 800 600">
  <defs><style>.cls-1{fill:#00ff00;}.cls-2,.cls-3{font-size:40px;font-family:Roboto}</style></defs>
  <switch>
    <foreignObject width="1" height="1" x="0" y="0" requiredExtensions="http://ns.adobe.com/AdobeIllustrator/10.0/"/>
    <g>
      <g id="Background">
        <image id="background_1" width="800" height="600" xlink:href="bg.png" transform="translate(-10 -20)"/>
      </g>
      <g id="Shirt" data-name="Shirt#front">
        <path id="red" class="cls-1" d="M10 10 L110 10 L110 60 Z"/>
        <g transform="translate(100 0)">
          <rect id="blue" x="0" y="0" width="20" height="30"/>
        </g>
      </g>
      <g id="Text">
        <text id="title" class="cls-2" style="font-size:12px;fill:#123456" transform="translate(5 7)">He<tspan>llo</tspan>!</text>
      </g>
    </g>
  </switch>
</svg>`

func mustParse(t *testing.T, s string) *Document {
	t.Helper()
	doc, err := ParseBytes([]byte(s))
	if err != nil {
		t.Fatal(err)
	}
	return doc
}

func TestGroupsUnwrapSwitch(t *testing.T) {
	doc := mustParse(t, illustratorSVG)
	var ids []string
	for _, g := range doc.Groups() {
		ids = append(ids, g.ID())
	}
	if got := strings.Join(ids, ","); got != "Background,Shirt,Text" {
		t.Errorf("groups = %s", got)
	}
	if doc.ViewBox() != "0 0 800 600" {
		t.Errorf("viewBox = %q", doc.ViewBox())
	}
}

func TestAttributesAndText(t *testing.T) {
	doc := mustParse(t, illustratorSVG)
	img := doc.Root.Find("image")
	if img.Attr("href") != "bg.png" {
		t.Errorf("xlink:href = %q", img.Attr("href"))
	}
	shirt := doc.Groups()[1]
	if shirt.DataName() != "Shirt#front" {
		t.Errorf("DataName = %q", shirt.DataName())
	}
	if got := doc.Root.Find("text").TextContent(); got != "Hello!" {
		t.Errorf("TextContent = %q", got)
	}
}

func TestPrimitivesFlatten(t *testing.T) {
	doc := mustParse(t, illustratorSVG)
	prims := Primitives(doc.Groups()[1])
	if len(prims) != 2 || prims[0].ID() != "red" || prims[1].ID() != "blue" {
		t.Fatalf("primitives = %v", prims)
	}
	r, ok := prims[1].DocumentBounds()
	if !ok || r != (Rect{X: 100, Y: 0, W: 20, H: 30}) {
		t.Errorf("nested rect bounds = %+v", r)
	}
}

func TestStyles(t *testing.T) {
	doc := mustParse(t, illustratorSVG)
	path := doc.Root.Find("path")
	if fill := doc.Styles.Computed(path).Get("fill"); fill != "#00ff00" {
		t.Errorf("class fill = %q", fill)
	}

	text := doc.Root.Find("text")
	computed := doc.Styles.Computed(text)
	if v, _ := computed.Length("font-size"); v != 12 {
		t.Errorf("inline should win in Computed, font-size = %v", v)
	}
	cascade := doc.Styles.TextCascade(text)
	if v, _ := cascade.Length("font-size", "fontSize"); v != 40 {
		t.Errorf("class should win in TextCascade, font-size = %v", v)
	}
	if cascade.Get("fill") != "#123456" {
		t.Errorf("inline fill should survive when class sets none, got %q", cascade.Get("fill"))
	}
	if doc.Styles["cls-3"].Get("font-family") != "Roboto" {
		t.Error("comma separated selectors should share declarations")
	}
}

func TestParseInline(t *testing.T) {
	s := ParseInline(" fill : red ; stroke-width:2px;;bogus")
	if s["fill"] != "red" || s["stroke-width"] != "2px" || len(s) != 2 {
		t.Errorf("ParseInline = %v", s)
	}
}

func TestPathBounds(t *testing.T) {
	tests := []struct {
		d    string
		want Rect
	}{
		{"M10 10 L110 10 L110 60 Z", Rect{10, 10, 100, 50}},
		{"m10,10 h20 v5 h-20 z", Rect{10, 10, 20, 5}},
		{"M0 0 10 10 20 0", Rect{0, 0, 20, 10}},
		{"M1-2L3-4", Rect{1, -4, 2, 2}},
		{"M0 0 C0 10 10 10 10 0", Rect{0, 0, 10, 7.5}},
		{"M0 0 Q5 10 10 0", Rect{0, 0, 10, 5}},
		{"M0 0 A5 5 0 0 1 10 0", Rect{0, -5, 10, 5}},
		{"M0 0a5 5 0 0010 0", Rect{0, 0, 10, 5}},
		{"M.5.5L1.5 1.5", Rect{0.5, 0.5, 1, 1}},
	}
	for _, tt := range tests {
		t.Run(tt.d, func(t *testing.T) {
			got, ok := PathBounds(tt.d)
			if !ok {
				t.Fatal("PathBounds reported no geometry")
			}
			if !near(got.X, tt.want.X) || !near(got.Y, tt.want.Y) || !near(got.W, tt.want.W) || !near(got.H, tt.want.H) {
				t.Errorf("PathBounds(%q) = %+v, want %+v", tt.d, got, tt.want)
			}
		})
	}

	for _, d := range []string{"", "   ", "10 10"} {
		if _, ok := PathBounds(d); ok {
			t.Errorf("PathBounds(%q) should report no geometry", d)
		}
	}
}

func TestPathBoundsMalformed(t *testing.T) {
	tests := []struct {
		name string
		d    string
		want Rect
		ok   bool
	}{
		{"number after close", "M0 0H10V10Z 5", Rect{0, 0, 10, 10}, true},
		{"pairs after close", "M0 0 10 10 Z 1 2 3", Rect{0, 0, 10, 10}, true},
		{"repeated close", "M0 0 L10 10 zz", Rect{0, 0, 10, 10}, true},
		{"truncated lineto", "M0 0 L10", Rect{0, 0, 0, 0}, true},
		{"missing curve argument", "M0 0 C1 1 2", Rect{0, 0, 0, 0}, true},
		{"bad arc flag", "M0 0 A5 5 0 2 1 10 0", Rect{0, 0, 0, 0}, true},
		{"stray letter", "M0 0 L10 10 X 5", Rect{0, 0, 10, 10}, true},
		{"bare moveto", "M", Rect{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			type result struct {
				r  Rect
				ok bool
			}
			tt := tt
			done := make(chan result, 1)
			go func() {
				r, ok := PathBounds(tt.d)
				done <- result{r, ok}
			}()
			select {
			case res := <-done:
				if res.ok != tt.ok {
					t.Fatalf("PathBounds(%q) ok = %v, want %v", tt.d, res.ok, tt.ok)
				}
				if res.r != tt.want {
					t.Errorf("PathBounds(%q) = %+v, want %+v", tt.d, res.r, tt.want)
				}
			case <-time.After(2 * time.Second):
				t.Fatalf("PathBounds(%q) did not return", tt.d)
			}
		})
	}
}

func near(a, b float64) bool { return math.Abs(a-b) < 1e-6 }

func TestShapePaths(t *testing.T) {
	doc := mustParse(t, `<svg><circle cx="50" cy="50" r="10"/><ellipse cx="0" cy="0" rx="4" ry="2"/><polygon points="0,0 10,0 5,8"/><line x1="1" y1="1" x2="4" y2="9"/></svg>`)
	want := []Rect{{40, 40, 20, 20}, {-4, -2, 8, 4}, {0, 0, 10, 8}, {1, 1, 3, 8}}
	for i, el := range doc.Root.Elements() {
		r, ok := el.Bounds()
		if !ok {
			t.Fatalf("%s: no bounds", el.Tag)
		}
		w := want[i]
		if !near(r.X, w.X) || !near(r.Y, w.Y) || !near(r.W, w.W) || !near(r.H, w.H) {
			t.Errorf("%s bounds = %+v, want %+v", el.Tag, r, w)
		}
	}
}

func TestImageBoundsWithTransform(t *testing.T) {
	doc := mustParse(t, illustratorSVG)
	r, ok := doc.Root.Find("image").DocumentBounds()
	if !ok || r != (Rect{X: -10, Y: -20, W: 800, H: 600}) {
		t.Errorf("image bounds = %+v", r)
	}
}

func TestParseErrors(t *testing.T) {
	for _, s := range []string{"", "<html></html>"} {
		if _, err := ParseBytes([]byte(s)); err == nil {
			t.Errorf("ParseBytes(%q) should fail", s)
		}
	}
}

func TestMarkupRoundTrip(t *testing.T) {
	vb := Rect{X: 10, Y: 10, W: 100, H: 50}
	data := PathSVG("M10 10 L110 60", vb, true)
	doc, err := ParseBytes(data)
	if err != nil {
		t.Fatalf("generated markup does not parse: %v\n%s", err, data)
	}
	if doc.ViewBox() != "10 10 100 50" {
		t.Errorf("viewBox = %q", doc.ViewBox())
	}
	p := doc.Root.Find("path")
	if p.Attr("stroke") != "red" || p.Attr("fill") != "none" {
		t.Errorf("outline attrs missing: %s", data)
	}

	el := NewElement("text", Attr{Name: "data-name", Value: `a"b<c`}).AppendText("x & y")
	if got := string(el.Markup()); got != `<text data-name="a&#34;b&lt;c">x &amp; y</text>` {
		t.Errorf("Markup = %s", got)
	}
}

func TestParseViewBox(t *testing.T) {
	r, ok := ParseViewBox("0,0 800 600")
	if !ok || r.W != 800 || r.H != 600 {
		t.Errorf("ParseViewBox = %+v %v", r, ok)
	}
	if _, ok := ParseViewBox("0 0 800"); ok {
		t.Error("short viewBox should fail")
	}
}
