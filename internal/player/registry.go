package player

import (
	"context"
	"fmt"
	"sync"
)

// Loader produces the SDK. It runs at most once per successful [Registry.Load].
type Loader func(ctx context.Context) (SDK, error)

// Registry is the process-wide registration point for the player SDK.
//
// Loading is idempotent and subscribers registered before the SDK is ready fire once it loads.
type Registry struct {
	loadMu sync.Mutex
	mu     sync.Mutex
	sdk    SDK
	subs   []func(SDK)
}

// DefaultRegistry is shared by every controller in the process.
var DefaultRegistry = NewRegistry()

// NewRegistry creates an empty Registry
func NewRegistry() *Registry {
	return &Registry{}
}

// Load returns the loaded SDK, calling loader if nothing has loaded yet.
// A failed load leaves the registry empty so a later call may retry.
func (r *Registry) Load(ctx context.Context, loader Loader) (SDK, error) {
	if sdk := r.SDK(); sdk != nil {
		return sdk, nil
	}

	r.loadMu.Lock()
	defer r.loadMu.Unlock()

	if sdk := r.SDK(); sdk != nil {
		return sdk, nil
	}
	if loader == nil {
		return nil, fmt.Errorf("no player sdk loader configured")
	}

	sdk, err := loader(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load player sdk: %w", err)
	}

	r.mu.Lock()
	r.sdk = sdk
	subs := r.subs
	r.subs = nil
	r.mu.Unlock()

	for _, fn := range subs {
		fn(sdk)
	}
	return sdk, nil
}

// SDK returns the loaded SDK or nil.
func (r *Registry) SDK() SDK {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sdk
}

// OnReady runs fn with the SDK, immediately when already loaded.
func (r *Registry) OnReady(fn func(SDK)) {
	r.mu.Lock()
	if r.sdk == nil {
		r.subs = append(r.subs, fn)
		r.mu.Unlock()
		return
	}
	sdk := r.sdk
	r.mu.Unlock()
	fn(sdk)
}
