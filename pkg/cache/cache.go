// Package cache stores finished layouts and renders keyed by a hash of their
// inputs.
//
// Four backends implement [Cache]: [NullCache] disables caching,
// [FileCache] keeps entries on local disk for the CLI, and [RedisCache] and
// [MongoCache] share entries between instances of the HTTP service. Keys are
// built by a [Keyer] so that callers never format them by hand.
package cache

import (
	"context"
	"time"
)

// Cache is a byte store with per-entry expiry.
type Cache interface {
	// Get returns the value stored under key. A miss is (nil, false, nil);
	// an error means the backend could not be asked.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A ttl of zero or less never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases the backend's resources.
	Close() error
}

// Default lifetimes of cached values.
const (
	TTLLayout = 7 * 24 * time.Hour
	TTLRender = 7 * 24 * time.Hour
)

// Key types reported to observability hooks.
const (
	KeyTypeLayout = "layout"
	KeyTypeRender = "render"
)

// LayoutKeyOpts is every option that changes the result of a layout run.
type LayoutKeyOpts struct {
	Pipeline  string  `json:"pipeline"`
	Rankdir   string  `json:"rankdir"`
	Nodesep   float64 `json:"nodesep"`
	Ranksep   float64 `json:"ranksep"`
	Edgesep   float64 `json:"edgesep"`
	Marginx   float64 `json:"marginx"`
	Marginy   float64 `json:"marginy"`
	Ranker    string  `json:"ranker"`
	Acyclicer string  `json:"acyclicer"`
	Align     string  `json:"align"`
}

// RenderKeyOpts is every option that changes a rendered artifact.
type RenderKeyOpts struct {
	Format string `json:"format"`
}

// Keyer builds cache keys.
type Keyer interface {
	// LayoutKey returns the key of the layout of the document with the given
	// content hash.
	LayoutKey(docHash string, opts LayoutKeyOpts) string

	// RenderKey returns the key of a render of the layout with the given
	// content hash.
	RenderKey(layoutHash string, opts RenderKeyOpts) string
}

// DefaultKeyer hashes the inputs of every key.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default keyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// LayoutKey implements Keyer.
func (DefaultKeyer) LayoutKey(docHash string, opts LayoutKeyOpts) string {
	return contentKey(KeyTypeLayout, docHash, opts)
}

// RenderKey implements Keyer.
func (DefaultKeyer) RenderKey(layoutHash string, opts RenderKeyOpts) string {
	return contentKey(KeyTypeRender, layoutHash, opts)
}
