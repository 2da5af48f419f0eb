package svgexport

import (
	"context"
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/disintegration/imaging"

	"github.com/matzehuels/mockup/pkg/asset"
	"github.com/matzehuels/mockup/pkg/layer"
)

func sampleDoc(imageDir string) *layer.Document {
	red := layer.NewPixel("Red", layer.Pixel{ImagePath: filepath.Join(imageDir, "red.png"), FillColor: "#ff0000"})
	red.X, red.Y, red.Width, red.Height = 10, 20, 100, 100

	logo := layer.NewPixel("Star", layer.Pixel{ImagePath: filepath.Join(imageDir, "missing.png")})
	logo.Width, logo.Height = 50, 40
	logo.Transform.ScaleX, logo.Transform.ScaleY = 2, 2
	logo.Transform.TranslateX, logo.Transform.TranslateY = 5, 6

	name := layer.NewText("Name", layer.KindType, layer.Text{Text: "Hello", FontName: "Arial", FontSize: 27})
	name.X, name.Y = 100, 200

	doc := layer.NewDocument("shirt.svg", []*layer.Layer{
		layer.NewGroup("Choose Color", red),
		layer.NewGroup("Logo", logo),
		layer.NewGroup("Front Text", name),
		layer.NewPixel("Background", layer.Pixel{ImagePath: "bg.png"}),
	})
	doc.Width, doc.Height = 800, 600
	return doc
}

func TestRender(t *testing.T) {
	svg := string(Render(sampleDoc("img"), WithViewBox()))
	for _, want := range []string{
		`viewBox="0 0 800 600"`,
		`<g id="Choose Color">`,
		`xlink:href="Red.png"`,
		`style="stroke:#000;stroke-miterlimit:10;stroke-width:5px;fill:#ff0000"`,
		`transform="matrix(1,0,0,1,10,20)"`,
		`transform="matrix(2,0,0,2,5,6)"`,
		`style="font-family:Arial;font-size:27px"`,
		`>Hello</text>`,
	} {
		if !strings.Contains(svg, want) {
			t.Errorf("missing %s in\n%s", want, svg)
		}
	}
	if strings.Contains(svg, "Background") {
		t.Error("top-level leaves are not exported")
	}
}

func TestRenderRotatedText(t *testing.T) {
	l := layer.NewText("Arc", layer.KindType, layer.Text{Text: "x", FontSize: 10})
	// matrix(0,1,-1,0,30,40): a quarter turn
	l.Transform.ScaleX, l.Transform.SkewY, l.Transform.SkewX, l.Transform.ScaleY = 0, 1, -1, 0
	l.Transform.TranslateX, l.Transform.TranslateY = 30, 40
	svg := string(Render(layer.NewDocument("a.svg", []*layer.Layer{layer.NewGroup("Text", l)})))
	if !strings.Contains(svg, "rotate(90)") || !strings.Contains(svg, "translate(30 40)") {
		t.Errorf("rotation not written:\n%s", svg)
	}
}

func TestRenderImageExt(t *testing.T) {
	svg := string(Render(sampleDoc("img"), WithImageExt(".webp")))
	if !strings.Contains(svg, `xlink:href="Red.webp"`) {
		t.Errorf("ext not applied:\n%s", svg)
	}
	if strings.Contains(svg, "viewBox") {
		t.Error("viewBox written without WithViewBox")
	}
}

func TestDownload(t *testing.T) {
	imgDir := t.TempDir()
	if err := imaging.Save(imaging.New(4, 4, color.NRGBA{R: 255, A: 255}), filepath.Join(imgDir, "red.png")); err != nil {
		t.Fatal(err)
	}
	out := filepath.Join(t.TempDir(), "download")
	if err := os.MkdirAll(out, 0o755); err != nil {
		t.Fatal(err)
	}
	stale := filepath.Join(out, "stale.png")
	if err := os.WriteFile(stale, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	path, failed, err := Download(context.Background(), sampleDoc(imgDir), out, asset.NewFetcher(nil, ""), nil)
	if err != nil {
		t.Fatal(err)
	}
	if path != filepath.Join(out, FileName) {
		t.Errorf("path = %s", path)
	}
	if len(failed) != 1 || failed[0].Name != "Star" {
		t.Errorf("failed = %v", failed)
	}
	if _, err := os.Stat(filepath.Join(out, "Red.png")); err != nil {
		t.Error(err)
	}
	if _, err := os.Stat(stale); !os.IsNotExist(err) {
		t.Error("stale files should be removed")
	}
}
