package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/matzehuels/mockup/pkg/errors"
)

func write(t *testing.T, name, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

func clearEnv(t *testing.T) {
	for _, k := range []string{EnvOutputDir, EnvExportDir, EnvTemplatesURL, EnvRedisAddr} {
		t.Setenv(k, "")
	}
}

func TestDefault(t *testing.T) {
	c := Default()
	if c.OutputDir != DefaultOutputDir || c.ExportDir != DefaultExportDir || c.DownloadDir != DefaultDownloadDir {
		t.Errorf("dirs = %s %s %s", c.OutputDir, c.ExportDir, c.DownloadDir)
	}
	if c.Merge.Gap != 10 || c.Fallback.Width != 1000 || c.Fallback.Height != 1000 {
		t.Errorf("merge = %+v, fallback = %+v", c.Merge, c.Fallback)
	}
	if c.Cache.Backend != CacheFile || c.Cache.TTL.Std() != DefaultCacheTTL || c.Server.Addr != ":8080" {
		t.Errorf("cache = %+v, server = %+v", c.Cache, c.Server)
	}
	if err := c.Validate(); err != nil {
		t.Error(err)
	}
}

func TestLoadTOML(t *testing.T) {
	clearEnv(t)
	p := write(t, "mockup.toml", `
output_dir = "out"

[merge]
gap = 4
width = 2000
height = 1500

[decoder]
command = "decode-psd"
args = ["--fast"]

[cache]
ttl = "2h"
`)
	c, err := Load(p)
	if err != nil {
		t.Fatal(err)
	}
	if c.OutputDir != "out" || c.ExportDir != DefaultExportDir {
		t.Errorf("dirs = %s %s", c.OutputDir, c.ExportDir)
	}
	if c.Merge != (Merge{Gap: 4, Width: 2000, Height: 1500}) {
		t.Errorf("merge = %+v", c.Merge)
	}
	if c.Decoder.Command != "decode-psd" || len(c.Decoder.Args) != 1 {
		t.Errorf("decoder = %+v", c.Decoder)
	}
	if c.Cache.TTL.Std() != 2*time.Hour {
		t.Errorf("ttl = %v", c.Cache.TTL.Std())
	}
}

func TestLoadYAML(t *testing.T) {
	clearEnv(t)
	p := write(t, "mockup.yaml", `
export_dir: exports
templates:
  url: https://templates.example.com
cache:
  backend: none
  ttl: 30m
`)
	c, err := Load(p)
	if err != nil {
		t.Fatal(err)
	}
	if c.ExportDir != "exports" || c.Templates.URL != "https://templates.example.com" {
		t.Errorf("config = %+v", c)
	}
	if c.Cache.Backend != CacheNone || c.Cache.TTL.Std() != 30*time.Minute {
		t.Errorf("cache = %+v", c.Cache)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv(EnvOutputDir, "/srv/out")
	t.Setenv(EnvExportDir, "")
	t.Setenv(EnvTemplatesURL, "http://catalog")
	t.Setenv(EnvRedisAddr, "localhost:6379")
	c, err := Load(write(t, "mockup.toml", `output_dir = "file-out"`))
	if err != nil {
		t.Fatal(err)
	}
	if c.OutputDir != "/srv/out" || c.ExportDir != DefaultExportDir {
		t.Errorf("dirs = %s %s", c.OutputDir, c.ExportDir)
	}
	if c.Templates.URL != "http://catalog" {
		t.Errorf("templates url = %s", c.Templates.URL)
	}
	if c.Cache.Backend != CacheRedis || c.Cache.RedisAddr != "localhost:6379" {
		t.Errorf("cache = %+v", c.Cache)
	}
}

func TestLoadErrors(t *testing.T) {
	clearEnv(t)
	if _, err := Load(filepath.Join(t.TempDir(), "nope.toml")); !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("missing file: %v", err)
	}
	if _, err := Load(write(t, "mockup.json", `{}`)); !errors.Is(err, errors.ErrCodeInvalidFormat) {
		t.Errorf("unknown ext: %v", err)
	}
	if _, err := Load(write(t, "mockup.toml", "[merge\n")); !errors.Is(err, errors.ErrCodeInvalidFormat) {
		t.Errorf("bad toml: %v", err)
	}
	if _, err := Load(write(t, "mockup.toml", "[cache]\nbackend = \"redis\"\n")); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("redis without addr: %v", err)
	}
	if _, err := Load(write(t, "mockup.toml", "[merge]\ngap = -1\n")); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("negative gap: %v", err)
	}
	if _, err := Load(write(t, "mockup.toml", "[templates]\nurl = \"ftp://catalog\"\n")); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("non-http templates url: %v", err)
	}
}

func TestFind(t *testing.T) {
	dir := t.TempDir()
	if got := Find(dir); got != "" {
		t.Errorf("Find = %s", got)
	}
	yml := filepath.Join(dir, "mockup.yml")
	if err := os.WriteFile(yml, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	if got := Find(dir); got != yml {
		t.Errorf("Find = %s", got)
	}
}
