package asset

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/matzehuels/mockup/pkg/cache"
	"github.com/matzehuels/mockup/pkg/errors"
	"github.com/matzehuels/mockup/pkg/httputil"
	"github.com/matzehuels/mockup/pkg/observability"
)

// MaxAssetBytes bounds a single fetched asset.
const MaxAssetBytes = 64 << 20

// Fetcher resolves image references to bytes. Remote responses are cached;
// data URIs and local files are read directly.
type Fetcher struct {
	http    *http.Client
	cache   cache.Cache
	keyer   cache.Keyer
	baseDir string
}

// NewFetcher returns a Fetcher resolving relative paths against baseDir.
// A nil cache disables caching.
func NewFetcher(c cache.Cache, baseDir string) *Fetcher {
	if c == nil {
		c = cache.NewNullCache()
	}
	return &Fetcher{
		http:    &http.Client{Timeout: 30 * time.Second},
		cache:   c,
		keyer:   cache.NewDefaultKeyer(),
		baseDir: baseDir,
	}
}

// WithBaseDir returns a copy of f resolving relative paths against dir.
func (f *Fetcher) WithBaseDir(dir string) *Fetcher {
	c := *f
	c.baseDir = dir
	return &c
}

// Fetch returns the bytes behind ref: a data URI, an http(s) URL or a file
// path. Relative paths are resolved against the base directory with "%20"
// read as a space.
func (f *Fetcher) Fetch(ctx context.Context, ref string) ([]byte, error) {
	switch {
	case ref == "":
		return nil, errors.New(errors.ErrCodeAssetUnavailable, "empty image reference")
	case strings.HasPrefix(ref, "data:"):
		_, data, err := ParseDataURI(ref)
		return data, err
	case strings.HasPrefix(ref, "http://"), strings.HasPrefix(ref, "https://"):
		return f.fetchRemote(ctx, ref)
	}
	return f.readFile(ref)
}

func (f *Fetcher) readFile(ref string) ([]byte, error) {
	p := strings.ReplaceAll(ref, "%20", " ")
	if !filepath.IsAbs(p) && f.baseDir != "" {
		p = filepath.Join(f.baseDir, p)
	}
	data, err := os.ReadFile(p)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "image %s not found", ref)
		}
		return nil, errors.Wrap(errors.ErrCodeAssetUnavailable, err, "read image %s", ref)
	}
	return data, nil
}

func (f *Fetcher) fetchRemote(ctx context.Context, ref string) ([]byte, error) {
	key := f.keyer.AssetKey(ref)
	if data, ok, _ := f.cache.Get(ctx, key); ok {
		observability.Cache().OnCacheHit(ctx, "asset")
		return data, nil
	}
	observability.Cache().OnCacheMiss(ctx, "asset")

	var data []byte
	err := httputil.RetryWithBackoff(ctx, func() error {
		var err error
		data, err = httputil.Get(ctx, f.http, ref, MaxAssetBytes)
		return err
	})
	if err != nil {
		return nil, err
	}

	if err := f.cache.Set(ctx, key, data, cache.AssetTTL); err == nil {
		observability.Cache().OnCacheSet(ctx, "asset", len(data))
	}
	return data, nil
}

// ParseDataURI decodes a data URI, returning its media type and payload.
func ParseDataURI(s string) (string, []byte, error) {
	rest, ok := strings.CutPrefix(s, "data:")
	if !ok {
		return "", nil, errors.New(errors.ErrCodeInvalidFormat, "not a data URI")
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return "", nil, errors.New(errors.ErrCodeInvalidFormat, "data URI has no payload")
	}
	mime, _, _ := strings.Cut(meta, ";")
	if strings.HasSuffix(meta, ";base64") {
		data, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			return "", nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "data URI payload")
		}
		return mime, data, nil
	}
	text, err := url.PathUnescape(payload)
	if err != nil {
		return "", nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "data URI payload")
	}
	return mime, []byte(text), nil
}

// DataURI encodes data as a base64 data URI of the given media type.
func DataURI(mime string, data []byte) string {
	return fmt.Sprintf("data:%s;base64,%s", mime, base64.StdEncoding.EncodeToString(data))
}
