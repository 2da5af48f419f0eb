// Package observability provides hooks for metrics, progress reporting and
// tracing.
//
// Libraries emit events through the registered hooks; the defaults do
// nothing. Consumers register implementations once at startup:
//
//	func main() {
//	    observability.SetPipelineHooks(&myPipelineHooks{})
//	    observability.SetProgressHooks(&progressBar{})
//	    // ... run application
//	}
//
// Libraries call hooks to emit events:
//
//	observability.Pipeline().OnDecodeStart(ctx, path)
//	// ... decode ...
//	observability.Pipeline().OnDecodeComplete(ctx, path, layers, duration, err)
//
// Hooks are registered by main, not by libraries, so the packages that emit
// events never import a metrics backend.
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Pipeline Hooks
// =============================================================================

// PipelineHooks receives events from decode, merge and export runs.
type PipelineHooks interface {
	// Decode events
	OnDecodeStart(ctx context.Context, source string)
	OnDecodeComplete(ctx context.Context, source string, layerCount int, duration time.Duration, err error)

	// Merge events
	OnMergeStart(ctx context.Context, fileCount int)
	OnMergeComplete(ctx context.Context, sheetCount int, duration time.Duration, err error)

	// Export events
	OnExportStart(ctx context.Context, imageCount int)
	OnExportComplete(ctx context.Context, outputCount int, duration time.Duration, err error)
}

// =============================================================================
// Progress Hooks
// =============================================================================

// ProgressHooks receives coarse progress counts for long operations.
type ProgressHooks interface {
	// OnProgress reports that done of total units of stage have finished.
	OnProgress(ctx context.Context, stage string, done, total int)
}

// Progress stages.
const (
	StageDecode = "decode"
	StageAssets = "assets"
	StageMerge  = "merge"
	StageExport = "export"
)

// =============================================================================
// Cache Hooks
// =============================================================================

// CacheHooks receives events from cache operations.
type CacheHooks interface {
	// OnCacheHit records a cache hit.
	OnCacheHit(ctx context.Context, keyType string)

	// OnCacheMiss records a cache miss.
	OnCacheMiss(ctx context.Context, keyType string)

	// OnCacheSet records a cache write.
	OnCacheSet(ctx context.Context, keyType string, size int)
}

// =============================================================================
// HTTP Hooks
// =============================================================================

// HTTPHooks receives events from HTTP client operations.
type HTTPHooks interface {
	// OnRequest records an outgoing HTTP request.
	OnRequest(ctx context.Context, method, host, path string)

	// OnResponse records an HTTP response.
	OnResponse(ctx context.Context, method, host, path string, statusCode int, duration time.Duration)

	// OnError records an HTTP error (network failure, timeout).
	OnError(ctx context.Context, method, host, path string, err error)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopPipelineHooks is a no-op implementation of PipelineHooks.
type NoopPipelineHooks struct{}

func (NoopPipelineHooks) OnDecodeStart(context.Context, string) {}
func (NoopPipelineHooks) OnDecodeComplete(context.Context, string, int, time.Duration, error) {
}
func (NoopPipelineHooks) OnMergeStart(context.Context, int)                           {}
func (NoopPipelineHooks) OnMergeComplete(context.Context, int, time.Duration, error)  {}
func (NoopPipelineHooks) OnExportStart(context.Context, int)                          {}
func (NoopPipelineHooks) OnExportComplete(context.Context, int, time.Duration, error) {}

// NoopProgressHooks is a no-op implementation of ProgressHooks.
type NoopProgressHooks struct{}

func (NoopProgressHooks) OnProgress(context.Context, string, int, int) {}

// NoopCacheHooks is a no-op implementation of CacheHooks.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

// NoopHTTPHooks is a no-op implementation of HTTPHooks.
type NoopHTTPHooks struct{}

func (NoopHTTPHooks) OnRequest(context.Context, string, string, string)                      {}
func (NoopHTTPHooks) OnResponse(context.Context, string, string, string, int, time.Duration) {}
func (NoopHTTPHooks) OnError(context.Context, string, string, string, error)                 {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	pipelineHooks PipelineHooks = NoopPipelineHooks{}
	progressHooks ProgressHooks = NoopProgressHooks{}
	cacheHooks    CacheHooks    = NoopCacheHooks{}
	httpHooks     HTTPHooks     = NoopHTTPHooks{}
	hooksMu       sync.RWMutex
)

// SetPipelineHooks registers custom pipeline hooks.
// This should be called once at application startup before any pipeline operations.
func SetPipelineHooks(h PipelineHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		pipelineHooks = h
	}
}

// SetProgressHooks registers custom progress hooks.
func SetProgressHooks(h ProgressHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		progressHooks = h
	}
}

// SetCacheHooks registers custom cache hooks.
// This should be called once at application startup before any cache operations.
func SetCacheHooks(h CacheHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		cacheHooks = h
	}
}

// SetHTTPHooks registers custom HTTP hooks.
func SetHTTPHooks(h HTTPHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		httpHooks = h
	}
}

// Pipeline returns the registered pipeline hooks.
func Pipeline() PipelineHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return pipelineHooks
}

// Progress returns the registered progress hooks.
func Progress() ProgressHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return progressHooks
}

// Cache returns the registered cache hooks.
func Cache() CacheHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return cacheHooks
}

// HTTP returns the registered HTTP hooks.
func HTTP() HTTPHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return httpHooks
}

// Reset restores all hooks to their no-op defaults.
// This is primarily useful for testing.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	pipelineHooks = NoopPipelineHooks{}
	progressHooks = NoopProgressHooks{}
	cacheHooks = NoopCacheHooks{}
	httpHooks = NoopHTTPHooks{}
}
