// Package observability provides hooks for metrics, tracing, and logging.
//
// This package enables optional instrumentation without adding hard dependencies
// on specific observability backends. Consumers register hooks at startup to
// receive events about layout passes, change dispatch, rendering and caching.
//
// # Architecture
//
// The package uses a simple hooks pattern:
//   - Define hook interfaces for different event categories
//   - Provide no-op default implementations
//   - Allow registration of custom implementations at startup
//
// The Prometheus implementation lives in [github.com/matzehuels/ddlayout/pkg/metrics]
// and is registered by the CLI.
//
// # Usage
//
//	func main() {
//	    observability.SetLayoutHooks(metrics.NewLayoutHooks())
//	    // ... run application
//	}
//
// Libraries call hooks to emit events:
//
//	observability.Layout().OnLayoutStart(passID, groupCount)
//	// ... compute layout ...
//	observability.Layout().OnLayoutComplete(passID, stats, err)
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Layout Hooks
// =============================================================================

// LayoutStats summarises a single layout pass.
type LayoutStats struct {
	Duration  time.Duration
	Groups    int  // real node groups laid out
	Dummies   int  // synthetic routing groups inserted
	Layers    int  // number of layers
	Crossings int  // edge crossings of the final ordering
	Unchanged bool // pass produced no visible change
}

// LayoutHooks receives events from layout passes run by the drawing orchestrator.
type LayoutHooks interface {
	OnLayoutStart(passID string, groups int)
	OnLayoutComplete(passID string, stats LayoutStats, err error)
	// OnLayoutDiscarded records a pass whose result was dropped because a newer
	// change arrived while it was running.
	OnLayoutDiscarded(passID string)
}

// =============================================================================
// Change Hooks
// =============================================================================

// ChangeHooks receives events from change-notification hubs.
type ChangeHooks interface {
	// OnDispatch records a batch dispatch with its size and the number of
	// listeners that received it.
	OnDispatch(changes, listeners int)
}

// =============================================================================
// Render Hooks
// =============================================================================

// RenderHooks receives events from renderers.
type RenderHooks interface {
	OnRender(renderer string, duration time.Duration, err error)
}

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
// No-op Implementations
// =============================================================================

// NoopLayoutHooks is a no-op implementation of LayoutHooks.
type NoopLayoutHooks struct{}

func (NoopLayoutHooks) OnLayoutStart(string, int)                   {}
func (NoopLayoutHooks) OnLayoutComplete(string, LayoutStats, error) {}
func (NoopLayoutHooks) OnLayoutDiscarded(string)                    {}

// NoopChangeHooks is a no-op implementation of ChangeHooks.
type NoopChangeHooks struct{}

func (NoopChangeHooks) OnDispatch(int, int) {}

// NoopRenderHooks is a no-op implementation of RenderHooks.
type NoopRenderHooks struct{}

func (NoopRenderHooks) OnRender(string, time.Duration, error) {}

// NoopCacheHooks is a no-op implementation of CacheHooks.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	layoutHooks LayoutHooks = NoopLayoutHooks{}
	changeHooks ChangeHooks = NoopChangeHooks{}
	renderHooks RenderHooks = NoopRenderHooks{}
	cacheHooks  CacheHooks  = NoopCacheHooks{}
	hooksMu     sync.RWMutex
)

// SetLayoutHooks registers custom layout hooks.
// This should be called once at application startup before any layout pass.
func SetLayoutHooks(h LayoutHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		layoutHooks = h
	}
}

// SetChangeHooks registers custom change hooks.
func SetChangeHooks(h ChangeHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		changeHooks = h
	}
}

// SetRenderHooks registers custom render hooks.
func SetRenderHooks(h RenderHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		renderHooks = h
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

// Layout returns the registered layout hooks.
func Layout() LayoutHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return layoutHooks
}

// Changes returns the registered change hooks.
func Changes() ChangeHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return changeHooks
}

// Render returns the registered render hooks.
func Render() RenderHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return renderHooks
}

// Cache returns the registered cache hooks.
func Cache() CacheHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return cacheHooks
}

// Reset restores all hooks to their no-op defaults.
// This is primarily useful for testing.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	layoutHooks = NoopLayoutHooks{}
	changeHooks = NoopChangeHooks{}
	renderHooks = NoopRenderHooks{}
	cacheHooks = NoopCacheHooks{}
}
