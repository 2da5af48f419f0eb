package cli

import (
	"bytes"
	"context"
	"encoding/base64"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/disintegration/imaging"

	"github.com/matzehuels/mockup/pkg/config"
	"github.com/matzehuels/mockup/pkg/errors"
	"github.com/matzehuels/mockup/pkg/layer"
	"github.com/matzehuels/mockup/pkg/session"
)

// testCLI returns a CLI with a quiet logger and a config file that keeps
// every directory below one temp dir.
func testCLI(t *testing.T, extra string) (*CLI, string) {
	t.Helper()
	for _, k := range []string{config.EnvOutputDir, config.EnvExportDir, config.EnvTemplatesURL, config.EnvRedisAddr} {
		t.Setenv(k, "")
	}
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	dir := t.TempDir()
	cfg := `output_dir = "` + filepath.Join(dir, "output") + `"
export_dir = "` + filepath.Join(dir, "export") + `"
download_dir = "` + filepath.Join(dir, "download") + `"

[cache]
backend = "none"
` + extra
	path := filepath.Join(dir, "mockup.toml")
	if err := os.WriteFile(path, []byte(cfg), 0o644); err != nil {
		t.Fatal(err)
	}
	c := New(&bytes.Buffer{}, log.InfoLevel)
	c.ConfigPath = path
	return c, dir
}

func execute(t *testing.T, c *CLI, args ...string) error {
	t.Helper()
	root := c.RootCommand()
	root.SetArgs(args)
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	return root.ExecuteContext(context.Background())
}

func writeSVG(t *testing.T, dir string) string {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, imaging.New(4, 3, color.NRGBA{R: 255, A: 255})); err != nil {
		t.Fatal(err)
	}
	uri := "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes())
	markup := `<svg xmlns="http://www.w3.org/2000/svg" xmlns:xlink="http://www.w3.org/1999/xlink" viewBox="0 0 400 300">
<g id="Background"><image id="bg" width="400" height="300" xlink:href="` + uri + `"/></g>
<g id="Color"><rect id="red" width="5" height="5" fill="#ff0000"/><rect id="blue" width="5" height="5" fill="#0000ff"/></g>
</svg>`
	p := filepath.Join(dir, "shirt.svg")
	if err := os.WriteFile(p, []byte(markup), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestRootCommandRegistersCommands(t *testing.T) {
	c := New(&bytes.Buffer{}, log.InfoLevel)
	var names []string
	for _, cmd := range c.RootCommand().Commands() {
		names = append(names, cmd.Name())
	}
	sort.Strings(names)
	want := "cache completion decode download-svg export inspect merge serve templates validate watch"
	if got := strings.Join(names, " "); got != want {
		t.Errorf("commands = %s\nwant       %s", got, want)
	}
}

func TestCacheDir(t *testing.T) {
	if dir, _ := cacheDir(&config.Config{Cache: config.Cache{Dir: "/srv/cache"}}); dir != "/srv/cache" {
		t.Errorf("configured dir = %q", dir)
	}

	t.Setenv("XDG_CACHE_HOME", "/tmp/custom-cache")
	if dir, _ := cacheDir(nil); dir != filepath.Join("/tmp/custom-cache", appName) {
		t.Errorf("XDG dir = %q", dir)
	}

	t.Setenv("XDG_CACHE_HOME", "")
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}
	if dir, _ := cacheDir(nil); dir != filepath.Join(home, ".cache", appName) {
		t.Errorf("default dir = %q", dir)
	}
}

func TestLoadConfig(t *testing.T) {
	c, dir := testCLI(t, "[merge]\nwidth = 640\n")
	cfg, err := c.loadConfig()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.OutputDir != filepath.Join(dir, "output") || cfg.Merge.Width != 640 || cfg.Cache.Backend != config.CacheNone {
		t.Errorf("config = %+v", cfg)
	}

	c.ConfigPath = filepath.Join(dir, "missing.toml")
	if _, err := c.loadConfig(); !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("missing config: %v", err)
	}
}

func TestDecodeValidateInspectDownload(t *testing.T) {
	c, dir := testCLI(t, "")
	svg := writeSVG(t, t.TempDir())

	if err := execute(t, c, "decode", svg); err != nil {
		t.Fatal(err)
	}
	model := filepath.Join(dir, "output", layer.FileName)
	if _, err := os.Stat(model); err != nil {
		t.Fatalf("model not written: %v", err)
	}

	if err := execute(t, c, "validate", model); err != nil {
		t.Errorf("validate: %v", err)
	}
	if err := execute(t, c, "inspect", model, "--tree"); err != nil {
		t.Errorf("inspect: %v", err)
	}
	if err := execute(t, c, "inspect", model, "--toggle", "No/Such/Item"); !errors.Is(err, errors.ErrCodeNotFound) {
		t.Errorf("inspect unknown toggle: %v", err)
	}
	if err := execute(t, c, "inspect", model, "--text", "missing-equals"); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("inspect bad text: %v", err)
	}

	if err := execute(t, c, "download-svg", model); err != nil {
		t.Fatalf("download-svg: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "download", "download.svg")); err != nil {
		t.Error(err)
	}
}

func TestDecodeUnsupported(t *testing.T) {
	c, _ := testCLI(t, "")
	if err := execute(t, c, "decode", "notes.txt"); !errors.Is(err, errors.ErrCodeUnsupported) {
		t.Errorf("decode notes.txt: %v", err)
	}
	if err := execute(t, c, "watch", "mug.psd"); !errors.Is(err, errors.ErrCodeUnsupported) {
		t.Errorf("watch mug.psd: %v", err)
	}
}

func TestValidateRejectsNestedHashtags(t *testing.T) {
	doc := layer.NewDocument("bad.svg", []*layer.Layer{
		layer.NewGroup("#outer", layer.NewGroup("#inner", layer.NewPixel("a", layer.Pixel{}))),
	})
	path := filepath.Join(t.TempDir(), "bad.json")
	if err := doc.WriteFile(path); err != nil {
		t.Fatal(err)
	}
	c, _ := testCLI(t, "")
	if err := execute(t, c, "validate", path); !errors.Is(err, errors.ErrCodeInvalidStructure) {
		t.Errorf("validate nested: %v", err)
	}
}

func TestMerge(t *testing.T) {
	c, dir := testCLI(t, "")
	in := t.TempDir()
	var files []string
	for _, name := range []string{"a#front.png", "b#front.png"} {
		p := filepath.Join(in, name)
		if err := imaging.Save(imaging.New(20, 20, color.NRGBA{B: 255, A: 255}), p); err != nil {
			t.Fatal(err)
		}
		files = append(files, p)
	}

	if err := execute(t, c, append([]string{"merge"}, files...)...); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("merge without size: %v", err)
	}
	args := append([]string{"merge", "--width", "200", "--height", "100", "--name", "sheet"}, files...)
	if err := execute(t, c, args...); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(filepath.Join(dir, "export", "sheet-#front.png")); err != nil {
		t.Error(err)
	}
}

func TestExportRequestFile(t *testing.T) {
	c, dir := testCLI(t, "")
	img := filepath.Join(t.TempDir(), "bg.png")
	if err := imaging.Save(imaging.New(10, 10, color.NRGBA{G: 255, A: 255}), img); err != nil {
		t.Fatal(err)
	}
	req := `{"fileName": "shirt.png", "scale": 1, "images": [
		{"groupName": "background", "layerHashtag": "bg", "imagePath": "` + img + `", "width": 20, "height": 20, "scaleX": 1, "scaleY": 1}
	]}`
	path := filepath.Join(t.TempDir(), "request.json")
	if err := os.WriteFile(path, []byte(req), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := execute(t, c, "export", path); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(filepath.Join(dir, "export", "shirt-#bg.png")); err != nil {
		t.Error(err)
	}
}

func TestReadExportRequest(t *testing.T) {
	dir := t.TempDir()
	write := func(name, body string) string {
		p := filepath.Join(dir, name)
		if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
		return p
	}

	req, err := readExportRequest(write("req.json", `{"fileName":"a.png","scale":1,"images":[]}`), exportFlags{scale: 2})
	if err != nil || req.FileName != "a.png" || req.Scale != 2 {
		t.Errorf("request = %+v, %v", req, err)
	}
	if _, err := readExportRequest(write("empty.json", `{"layers":[],"name":"empty"}`), exportFlags{}); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("model without selection: %v", err)
	}
	if _, err := readExportRequest(write("bad.json", `{`), exportFlags{}); !errors.Is(err, errors.ErrCodeInvalidFormat) {
		t.Errorf("bad json: %v", err)
	}
	if _, err := readExportRequest(filepath.Join(dir, "missing.json"), exportFlags{}); !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("missing: %v", err)
	}
}

func TestTemplatesGet(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		switch r.URL.Path {
		case "/templates":
			w.Write([]byte(`{"success":true,"message":"ok","data":[{"id":"t1","name":"Shirt"}]}`))
		case "/templates/t1":
			w.Write([]byte(`{"success":true,"message":"ok","data":{"id":"t1","name":"Shirt","psdData":{"name":"shirt","width":800,"height":600,"layers":[{"name":"Background","kind":"pixel","image_path":"bg.png"}]}}}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	c, _ := testCLI(t, "[templates]\nurl = \""+srv.URL+"\"\n")
	if err := execute(t, c, "templates", "list"); err != nil {
		t.Fatal(err)
	}
	out := filepath.Join(t.TempDir(), "shirt.json")
	if err := execute(t, c, "templates", "get", "t1", "-o", out); err != nil {
		t.Fatal(err)
	}
	doc, err := layer.ReadDocument(out)
	if err != nil {
		t.Fatal(err)
	}
	if doc.Width != 800 || doc.Find("Background") == nil {
		t.Errorf("document = %+v", doc)
	}
	if err := execute(t, c, "templates", "get", "nope"); !errors.Is(err, errors.ErrCodeNotFound) {
		t.Errorf("missing template: %v", err)
	}
	if hits.Load() < 3 {
		t.Errorf("server hits = %d", hits.Load())
	}
}

func TestTemplatesWithoutCatalog(t *testing.T) {
	c, _ := testCLI(t, "")
	if err := execute(t, c, "templates", "list"); !errors.Is(err, errors.ErrCodeUnsupported) {
		t.Errorf("no catalog: %v", err)
	}
}

func TestWatchFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "shirt.svg")
	if err := os.WriteFile(path, []byte("<svg/>"), 0o644); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	changed := make(chan struct{}, 4)
	errc := make(chan error, 1)
	go func() {
		errc <- watchFile(ctx, path, 100*time.Millisecond, func() { changed <- struct{}{} })
	}()

	time.Sleep(100 * time.Millisecond)
	if err := os.WriteFile(filepath.Join(dir, "other.svg"), []byte("<svg/>"), 0o644); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 3; i++ {
		if err := os.WriteFile(path, []byte("<svg></svg>"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	select {
	case <-changed:
	case <-time.After(2 * time.Second):
		t.Fatal("no change reported")
	}
	cancel()
	if err := <-errc; err != context.Canceled {
		t.Errorf("watchFile = %v, want context.Canceled", err)
	}
	if n := len(changed); n != 0 {
		t.Errorf("burst produced %d extra callbacks", n)
	}
}

func TestOptionListModel(t *testing.T) {
	m := NewOptionListModel([]string{"*Short", "*Long", "*Hoodie"}, "*Long")
	if m.Cursor != 1 {
		t.Fatalf("cursor = %d, want 1", m.Cursor)
	}

	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyDown})
	m = next.(OptionListModel)
	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyDown})
	m = next.(OptionListModel)
	if m.Cursor != 2 {
		t.Errorf("cursor = %d, want 2 (clamped)", m.Cursor)
	}

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = next.(OptionListModel)
	if m.Selected != "*Hoodie" || cmd == nil {
		t.Errorf("selected = %q", m.Selected)
	}
	if view := m.View(); !strings.Contains(view, "Choose Hoodie") || !strings.Contains(view, "Select Option") {
		t.Errorf("view = %q", view)
	}
}

func TestRenderTree(t *testing.T) {
	hidden := layer.NewPixel("Blue", layer.Pixel{})
	hidden.Visible = false
	out := renderTree([]*layer.Layer{
		layer.NewGroup("Choose Color", layer.NewPixel("Red", layer.Pixel{}), hidden),
	})
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 3 || !strings.HasPrefix(lines[1], "  ") || !strings.Contains(lines[1], "pixel") {
		t.Errorf("tree = %q", out)
	}
}

func TestPruneSessionsLogsFailure(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "sessions")
	store, err := session.NewFileStore(dir)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.RemoveAll(dir); err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	c := New(&buf, log.InfoLevel)
	c.pruneSessions(context.Background(), store)
	if out := buf.String(); !strings.Contains(out, "pruning expired sessions failed") || !strings.Contains(out, dir) {
		t.Errorf("log = %q", out)
	}
}
