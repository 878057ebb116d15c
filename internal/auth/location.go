package auth

import (
	"context"
	"net/url"
	"sync"

	"github.com/desertthunder/arcana/internal/shared"
)

// Location is the current callback address and the means to rewrite it.
type Location interface {
	URL() *url.URL
	// Replace swaps the visible address without a navigation.
	Replace(u *url.URL)
}

// Navigator sends the user to the provider's authorize page.
type Navigator interface {
	Navigate(ctx context.Context, target string) error
}

// NavigatorFunc adapts a function to [Navigator].
type NavigatorFunc func(ctx context.Context, target string) error

func (f NavigatorFunc) Navigate(ctx context.Context, target string) error { return f(ctx, target) }

// BrowserNavigator opens the authorize URL in the system browser.
var BrowserNavigator = NavigatorFunc(shared.OpenBrowser)

// StaticLocation is a [Location] over a fixed URL that records replacements.
//
// The callback route builds one per request.
type StaticLocation struct {
	mu       sync.Mutex
	current  *url.URL
	replaced bool
}

// NewStaticLocation parses raw into a StaticLocation
func NewStaticLocation(raw string) (*StaticLocation, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, err
	}
	return &StaticLocation{current: u}, nil
}

// LocationFromURL wraps an already parsed URL.
func LocationFromURL(u *url.URL) *StaticLocation {
	c := *u
	return &StaticLocation{current: &c}
}

func (l *StaticLocation) URL() *url.URL {
	l.mu.Lock()
	defer l.mu.Unlock()
	c := *l.current
	return &c
}

func (l *StaticLocation) Replace(u *url.URL) {
	l.mu.Lock()
	defer l.mu.Unlock()
	c := *u
	l.current = &c
	l.replaced = true
}

// Replaced reports whether [StaticLocation.Replace] was called.
func (l *StaticLocation) Replaced() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.replaced
}

// stripped returns u without query or fragment.
func stripped(u *url.URL) *url.URL {
	c := *u
	c.RawQuery = ""
	c.ForceQuery = false
	c.Fragment = ""
	c.RawFragment = ""
	return &c
}
