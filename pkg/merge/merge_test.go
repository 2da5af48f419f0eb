package merge

import (
	"context"
	"image/color"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/disintegration/imaging"

	"github.com/matzehuels/mockup/pkg/errors"
	"github.com/matzehuels/mockup/pkg/svgdoc"
)

var red = color.NRGBA{R: 255, A: 255}

func writePNG(t *testing.T, dir, name string, w, h int) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := imaging.Save(imaging.New(w, h, red), p); err != nil {
		t.Fatal(err)
	}
	return p
}

func writeSVG(t *testing.T, dir, name, body string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	doc := `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 100 100">` + body + `</svg>`
	if err := os.WriteFile(p, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestGroup(t *testing.T) {
	groups, other := group([]string{"a#front.svg", "b#front.svg", "c#front.png", "d.jpg", "notes.txt"})
	if len(other) != 1 || other[0] != "notes.txt" {
		t.Errorf("other = %v", other)
	}
	if got := groups[groupKey{FormatSVG, "front"}]; len(got) != 2 {
		t.Errorf("svg front = %v", got)
	}
	if got := groups[groupKey{FormatPNG, "front"}]; len(got) != 1 {
		t.Errorf("png front = %v", got)
	}
	if got := groups[groupKey{FormatPNG, "0"}]; len(got) != 1 || got[0] != "d.jpg" {
		t.Errorf("png default = %v", got)
	}
}

func TestOutputPath(t *testing.T) {
	if got := OutputPath("out", "merged", "front", 0, 1, "png"); got != filepath.Join("out", "merged-#front.png") {
		t.Errorf("single sheet = %q", got)
	}
	if got := OutputPath("out", "merged", "front", 2, 3, "svg"); got != filepath.Join("out", "merged-#front-2.svg") {
		t.Errorf("multi sheet = %q", got)
	}
}

func TestMergePNG(t *testing.T) {
	in, out := t.TempDir(), t.TempDir()
	files := []string{
		writePNG(t, in, "a#front.png", 30, 30),
		writePNG(t, in, "b#front.png", 30, 30),
	}
	res, err := Merge(context.Background(), files, Options{ExportDir: out, Width: 100, Height: 100, Gap: 10})
	if err != nil {
		t.Fatal(err)
	}
	if err := res.Err(); err != nil {
		t.Fatal(err)
	}
	if len(res.Outputs) != 1 || len(res.Outputs[0].Paths) != 1 {
		t.Fatalf("outputs = %+v", res.Outputs)
	}
	path := res.Outputs[0].Paths[0]
	if filepath.Base(path) != "merged-#front.png" {
		t.Errorf("path = %s", path)
	}

	img, err := imaging.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	if b := img.Bounds(); b.Dx() != 100 || b.Dy() != 100 {
		t.Fatalf("sheet size = %v", b)
	}
	// First element sits on the bottom shelf at (20, 50).
	if c := color.NRGBAModel.Convert(img.At(35, 65)).(color.NRGBA); c != red {
		t.Errorf("element pixel = %v", c)
	}
	if _, _, _, a := img.At(5, 50).RGBA(); a != 0 {
		t.Errorf("margin pixel alpha = %d, want transparent", a)
	}
}

func TestMergeMultipleSheets(t *testing.T) {
	in, out := t.TempDir(), t.TempDir()
	var files []string
	for _, n := range []string{"a#x.png", "b#x.png", "c#x.png"} {
		files = append(files, writePNG(t, in, n, 70, 70))
	}
	res, err := Merge(context.Background(), files, Options{ExportDir: out, Width: 100, Height: 100, Gap: 10})
	if err != nil {
		t.Fatal(err)
	}
	if got := res.Sheets(); got != 3 {
		t.Fatalf("sheets = %d, want 3", got)
	}
	for i, p := range res.Outputs[0].Paths {
		want := OutputPath(out, DefaultBaseName, "x", i, 3, "png")
		if p != want {
			t.Errorf("path %d = %s, want %s", i, p, want)
		}
		if _, err := os.Stat(p); err != nil {
			t.Error(err)
		}
	}
}

func TestMergeIsolatesOversizedGroup(t *testing.T) {
	in, out := t.TempDir(), t.TempDir()
	files := []string{
		writePNG(t, in, "big#big.png", 200, 20),
		writePNG(t, in, "ok#small.png", 20, 20),
	}
	res, err := Merge(context.Background(), files, Options{ExportDir: out, Width: 100, Height: 100, Gap: 10})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Errors) != 1 || res.Errors[0].Group != "#big" {
		t.Fatalf("errors = %v", res.Errors)
	}
	if !errors.Is(res.Errors[0].Err, errors.ErrCodeSizeExceeded) {
		t.Errorf("error code = %s", errors.GetCode(res.Errors[0].Err))
	}
	if !strings.Contains(res.Errors[0].Err.Error(), "width") {
		t.Errorf("message %q does not name the width", res.Errors[0].Err)
	}
	if len(res.Outputs) != 1 || res.Outputs[0].Key != "small" {
		t.Fatalf("outputs = %+v", res.Outputs)
	}
	if _, err := os.Stat(res.Outputs[0].Paths[0]); err != nil {
		t.Error(err)
	}
	if res.Err() == nil {
		t.Error("Err() = nil with a failed group")
	}
}

func TestMergeSVG(t *testing.T) {
	in, out := t.TempDir(), t.TempDir()
	files := []string{
		writeSVG(t, in, "a#back.svg", `<path d="M0 0H40V20H0Z" transform="translate(5 5)"/>`),
		writeSVG(t, in, "b#back.svg", `<g><path d="M10 10H30V30H10Z"/></g>`),
		writeSVG(t, in, "empty#back.svg", `<rect width="10" height="10"/>`),
	}
	res, err := Merge(context.Background(), files, Options{ExportDir: out, Width: 200, Height: 100, Gap: 10})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Skipped) != 1 || filepath.Base(res.Skipped[0]) != "empty#back.svg" {
		t.Errorf("skipped = %v", res.Skipped)
	}
	if res.Sheets() != 1 {
		t.Fatalf("sheets = %d", res.Sheets())
	}
	data, err := os.ReadFile(res.Outputs[0].Paths[0])
	if err != nil {
		t.Fatal(err)
	}
	svg := string(data)
	for _, want := range []string{`viewBox="0 0 200 100"`, `<g id="a#back"`, `<g id="b#back"`, `d="M10 10H30V30H10Z"`} {
		if !strings.Contains(svg, want) {
			t.Errorf("output missing %s:\n%s", want, svg)
		}
	}
	if n := strings.Count(svg, "<line"); n != 8 {
		t.Errorf("got %d guide lines, want 8", n)
	}
}

func TestMergeSVGNestedTransform(t *testing.T) {
	in, out := t.TempDir(), t.TempDir()
	files := []string{
		writeSVG(t, in, "nested#front.svg", `<g transform="translate(50 50)"><path d="M0 0H10V10H0Z"/></g>`),
	}
	res, err := Merge(context.Background(), files, Options{ExportDir: out, Width: 100, Height: 100, Gap: 10})
	if err != nil {
		t.Fatal(err)
	}
	if res.Sheets() != 1 {
		t.Fatalf("sheets = %d", res.Sheets())
	}
	data, err := os.ReadFile(res.Outputs[0].Paths[0])
	if err != nil {
		t.Fatal(err)
	}
	doc, err := svgdoc.ParseBytes(data)
	if err != nil {
		t.Fatal(err)
	}
	p := doc.Root.Find("path")
	if p == nil {
		t.Fatalf("no path in output:\n%s", data)
	}
	b, ok := p.DocumentBounds()
	if !ok {
		t.Fatal("placed path has no bounds")
	}
	if b.X < 0 || b.Y < 0 || b.MaxX() > 100 || b.MaxY() > 100 {
		t.Errorf("placed path %v lies outside the 100x100 sheet", b)
	}
	if !approx(b.W, 10) || !approx(b.H, 10) {
		t.Errorf("placed path size = %vx%v, want 10x10", b.W, b.H)
	}
}

func approx(a, b float64) bool { return math.Abs(a-b) < 1e-6 }

func TestMergeNoInput(t *testing.T) {
	res, err := Merge(context.Background(), nil, Options{ExportDir: t.TempDir()})
	if err != nil {
		t.Fatal(err)
	}
	if res.Sheets() != 0 || res.Err() != nil {
		t.Errorf("res = %+v", res)
	}
}

func TestMergeValidate(t *testing.T) {
	if _, err := Merge(context.Background(), nil, Options{}); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("err = %v", err)
	}
	for _, name := range []string{"../escape", "sub/sheet", ".."} {
		_, err := Merge(context.Background(), nil, Options{ExportDir: t.TempDir(), BaseName: name})
		if !errors.Is(err, errors.ErrCodeInvalidInput) {
			t.Errorf("BaseName %q: err = %v", name, err)
		}
	}
}
