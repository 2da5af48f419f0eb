package httputil

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/matzehuels/mockup/pkg/buildinfo"
	"github.com/matzehuels/mockup/pkg/errors"
	"github.com/matzehuels/mockup/pkg/observability"
)

// MaxBody bounds a response body read by Get.
const MaxBody = 64 << 20

// Get fetches url and returns at most limit bytes of a 200 response body.
func Get(ctx context.Context, client *http.Client, url string, limit int64) ([]byte, error) {
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "bad url %s", url)
	}
	req.Header.Set("Accept", "application/json, image/*;q=0.9, */*;q=0.8")
	req.Header.Set("User-Agent", buildinfo.UserAgent())

	hooks, start := observability.HTTP(), time.Now()
	host, path := req.URL.Host, req.URL.Path
	hooks.OnRequest(ctx, req.Method, host, path)
	resp, err := client.Do(req)
	if err != nil {
		hooks.OnError(ctx, req.Method, host, path, err)
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &RetryableError{Err: errors.Wrap(errors.ErrCodeNetwork, err, "GET %s", url)}
	}
	defer resp.Body.Close()
	hooks.OnResponse(ctx, req.Method, host, path, resp.StatusCode, time.Since(start))

	if err := checkStatus(url, resp.StatusCode); err != nil {
		return nil, err
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, limit))
	if err != nil {
		return nil, &RetryableError{Err: errors.Wrap(errors.ErrCodeNetwork, err, "read %s", url)}
	}
	return data, nil
}

func checkStatus(url string, status int) error {
	switch {
	case status == http.StatusOK:
		return nil
	case status == http.StatusNotFound:
		return errors.New(errors.ErrCodeNotFound, "GET %s: not found", url)
	case status == http.StatusTooManyRequests || status >= 500:
		return &RetryableError{Err: errors.New(errors.ErrCodeNetwork, "GET %s: status %d", url, status)}
	}
	return errors.New(errors.ErrCodeAssetUnavailable, "GET %s: status %d", url, status)
}
