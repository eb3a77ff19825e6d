package changefeed

import (
	"context"
	"fmt"
	"sync"
)

// Cache holds the latest snapshot of one collection. Before the first
// delivery it is not ready; an error delivery settles it with the previous
// items kept.
type Cache[T any] struct {
	mu    sync.RWMutex
	items []T
	ready bool
	err   error
}

// Items returns a copy of the cached snapshot and whether one has arrived.
func (c *Cache[T]) Items() ([]T, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]T, len(c.items))
	copy(out, c.items)
	return out, c.ready
}

// Err returns the most recent load error, cleared by the next good snapshot.
func (c *Cache[T]) Err() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.err
}

func (c *Cache[T]) deliver(snapshot interface{}, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ready = true
	if err != nil {
		c.err = err
		return
	}
	items, ok := snapshot.([]T)
	if !ok {
		c.err = fmt.Errorf("changefeed: unexpected snapshot type %T", snapshot)
		return
	}
	c.items = items
	c.err = nil
}

// Bind subscribes the cache to a registered collection.
func Bind[T any](f *Feed, name string, c *Cache[T]) error {
	return f.Subscribe(name, c.deliver)
}

// TypedLoader adapts a typed list function to a Loader. A nil result is
// normalised to an empty slice so subscribers see a non-nil snapshot.
func TypedLoader[T any](list func(ctx context.Context) ([]T, error)) Loader {
	return func(ctx context.Context) (interface{}, error) {
		items, err := list(ctx)
		if err != nil {
			return nil, err
		}
		if items == nil {
			items = []T{}
		}
		return items, nil
	}
}
