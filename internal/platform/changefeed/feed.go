// Package changefeed turns every Record Store write into a full-collection
// snapshot pushed to in-process caches and outbound publishers.
package changefeed

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

type Action string

const (
	ActionUpsert   Action = "upsert"
	ActionDelete   Action = "delete"
	ActionComplete Action = "complete"
)

// Notifier is what services call after a successful write.
type Notifier interface {
	Changed(ctx context.Context, collection, id string, action Action)
}

type discard struct{}

func (discard) Changed(context.Context, string, string, Action) {}

// Discard is a Notifier that drops every change.
var Discard Notifier = discard{}

// Loader reads the whole current collection.
type Loader func(ctx context.Context) (interface{}, error)

// Subscriber receives the full snapshot after every change, or the load error.
type Subscriber func(snapshot interface{}, err error)

// Change is handed to publishers once the new snapshot is loaded.
type Change struct {
	Collection string
	ID         string
	Action     Action
	Snapshot   interface{}
	At         time.Time
}

// Publisher forwards changes outside the process.
type Publisher interface {
	Publish(ctx context.Context, change Change) error
}

type collection struct {
	mu     sync.Mutex // serialises load + fan-out so snapshots arrive in order
	loader Loader
	subs   []Subscriber
}

type Feed struct {
	mu          sync.RWMutex
	collections map[string]*collection
	publishers  []Publisher
	logger      zerolog.Logger
	now         func() time.Time
}

func New(logger zerolog.Logger) *Feed {
	return &Feed{
		collections: make(map[string]*collection),
		logger:      logger.With().Str("component", "changefeed").Logger(),
		now:         time.Now,
	}
}

// Register installs the loader for a collection. It must be called before
// Subscribe or Changed reference the collection.
func (f *Feed) Register(name string, loader Loader) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if c, ok := f.collections[name]; ok {
		c.loader = loader
		return
	}
	f.collections[name] = &collection{loader: loader}
}

func (f *Feed) Subscribe(name string, sub Subscriber) error {
	c, err := f.get(name)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.subs = append(c.subs, sub)
	c.mu.Unlock()
	return nil
}

func (f *Feed) AddPublisher(p Publisher) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.publishers = append(f.publishers, p)
}

// Collections lists the registered collection names.
func (f *Feed) Collections() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	names := make([]string, 0, len(f.collections))
	for name := range f.collections {
		names = append(names, name)
	}
	return names
}

func (f *Feed) get(name string) (*collection, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	c, ok := f.collections[name]
	if !ok {
		return nil, fmt.Errorf("changefeed: unknown collection %q", name)
	}
	return c, nil
}

// Snapshot loads the current state of a collection without notifying anyone.
func (f *Feed) Snapshot(ctx context.Context, name string) (interface{}, error) {
	c, err := f.get(name)
	if err != nil {
		return nil, err
	}
	return c.loader(ctx)
}

// Changed reloads the collection and hands the whole snapshot to every
// subscriber, then to every publisher. Failures are logged and delivered to
// subscribers; they never propagate to the writer whose change succeeded.
func (f *Feed) Changed(ctx context.Context, name, id string, action Action) {
	c, err := f.get(name)
	if err != nil {
		f.logger.Error().Err(err).Str("id", id).Msg("change for unregistered collection")
		return
	}

	c.mu.Lock()
	snapshot, loadErr := c.loader(ctx)
	subs := append([]Subscriber(nil), c.subs...)
	for _, sub := range subs {
		sub(snapshot, loadErr)
	}
	c.mu.Unlock()

	if loadErr != nil {
		f.logger.Error().Err(loadErr).Str("collection", name).Str("id", id).Msg("snapshot load failed")
		return
	}

	f.mu.RLock()
	pubs := append([]Publisher(nil), f.publishers...)
	f.mu.RUnlock()

	change := Change{Collection: name, ID: id, Action: action, Snapshot: snapshot, At: f.now()}
	for _, p := range pubs {
		if err := p.Publish(ctx, change); err != nil {
			f.logger.Warn().Err(err).Str("collection", name).Str("id", id).Msg("publish change failed")
		}
	}
}

// Prime delivers an initial snapshot of every collection to its subscribers.
func (f *Feed) Prime(ctx context.Context) {
	for _, name := range f.Collections() {
		f.Changed(ctx, name, "", ActionUpsert)
	}
}
