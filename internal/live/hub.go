// Package live keeps in-memory snapshots of store collections and pushes every
// new snapshot to subscribers.
package live

import (
	"bytes"
	"context"
	"fmt"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
)

// Loader reads a whole collection.
type Loader interface {
	LoadRaw(ctx context.Context, collection string) ([]bson.Raw, error)
}

// Watcher reports collection names whenever they may have changed.
type Watcher interface {
	Watch(ctx context.Context, collections []string, changed func(collection string)) error
}

// Snapshot is the full content of a collection at a point in time.
type Snapshot struct {
	Collection string
	Docs       []bson.Raw
	At         time.Time
}

// Callback receives full snapshots.
type Callback func(Snapshot)

// Hub fans snapshots out to per-collection subscribers.
type Hub struct {
	loader Loader

	retryMin time.Duration
	retryMax time.Duration

	mu     sync.Mutex
	nextID uint64
	subs   map[string]map[uint64]Callback
	last   map[string]Snapshot
	locks  map[string]*sync.Mutex
}

// NewHub creates a hub reading from loader.
func NewHub(loader Loader) *Hub {
	return &Hub{
		loader:   loader,
		retryMin: time.Second,
		retryMax: 30 * time.Second,
		subs:   make(map[string]map[uint64]Callback),
		last:   make(map[string]Snapshot),
		locks:  make(map[string]*sync.Mutex),
	}
}

// Subscribe registers cb for collection. cb gets the current snapshot right
// away (loading it if the hub has none) and every later change.
func (h *Hub) Subscribe(ctx context.Context, collection string, cb Callback) (*Subscription, error) {
	h.mu.Lock()
	h.nextID++
	id := h.nextID
	if h.subs[collection] == nil {
		h.subs[collection] = make(map[uint64]Callback)
	}
	h.subs[collection][id] = cb
	snap, cached := h.last[collection]
	h.mu.Unlock()

	sub := &Subscription{hub: h, collection: collection, id: id}
	if cached {
		cb(snap)
		return sub, nil
	}
	if err := h.Refresh(ctx, collection); err != nil {
		sub.Unsubscribe()
		return nil, err
	}
	return sub, nil
}

// Current returns the last snapshot of collection.
func (h *Hub) Current(collection string) (Snapshot, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	snap, ok := h.last[collection]
	return snap, ok
}

// Refresh reloads collection and notifies subscribers when its content changed.
// Handlers call it after their own writes so readers see them without waiting
// for the watcher.
func (h *Hub) Refresh(ctx context.Context, collection string) error {
	lock := h.collectionLock(collection)
	lock.Lock()
	defer lock.Unlock()

	docs, err := h.loader.LoadRaw(ctx, collection)
	if err != nil {
		return fmt.Errorf("load %s: %w", collection, err)
	}
	if docs == nil {
		docs = []bson.Raw{}
	}

	h.mu.Lock()
	prev, seen := h.last[collection]
	if seen && sameDocs(prev.Docs, docs) {
		h.mu.Unlock()
		return nil
	}
	snap := Snapshot{Collection: collection, Docs: docs, At: time.Now()}
	h.last[collection] = snap
	cbs := make([]Callback, 0, len(h.subs[collection]))
	for _, cb := range h.subs[collection] {
		cbs = append(cbs, cb)
	}
	h.mu.Unlock()

	for _, cb := range cbs {
		cb(snap)
	}
	return nil
}

// Run refreshes collections whenever w reports a change. A watcher that fails is
// restarted with a doubling delay, and every collection is reloaded once it is back
// so writes made in between are not missed. Run returns when ctx is done or when
// w stops without an error.
func (h *Hub) Run(ctx context.Context, w Watcher, collections []string) {
	refresh := func(collection string) {
		if err := h.Refresh(ctx, collection); err != nil && ctx.Err() == nil {
			log.WithError(err).WithField("collection", collection).Warn("Failed to refresh snapshot")
		}
	}
	delay := h.retryMin
	for {
		started := time.Now()
		err := w.Watch(ctx, collections, refresh)
		if err == nil || ctx.Err() != nil {
			return
		}
		if time.Since(started) > h.retryMax {
			delay = h.retryMin
		}
		log.WithError(err).WithField("retry_in", delay).Warn("Change watcher failed, restarting")

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
		for _, c := range collections {
			refresh(c)
		}
		delay = min(delay*2, h.retryMax)
	}
}

func (h *Hub) collectionLock(collection string) *sync.Mutex {
	h.mu.Lock()
	defer h.mu.Unlock()
	l, ok := h.locks[collection]
	if !ok {
		l = &sync.Mutex{}
		h.locks[collection] = l
	}
	return l
}

func (h *Hub) remove(collection string, id uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.subs[collection], id)
}

func sameDocs(a, b []bson.Raw) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !bytes.Equal(a[i], b[i]) {
			return false
		}
	}
	return true
}

// Subscription is one registered callback.
type Subscription struct {
	hub        *Hub
	collection string
	id         uint64
	once       sync.Once
}

// Unsubscribe stops deliveries. Safe to call more than once.
func (s *Subscription) Unsubscribe() {
	s.once.Do(func() { s.hub.remove(s.collection, s.id) })
}

// Group releases several subscriptions at once.
type Group struct {
	mu   sync.Mutex
	subs []*Subscription
}

// Add tracks sub.
func (g *Group) Add(sub *Subscription) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.subs = append(g.subs, sub)
}

// Close unsubscribes everything added so far.
func (g *Group) Close() {
	g.mu.Lock()
	subs := g.subs
	g.subs = nil
	g.mu.Unlock()
	for _, s := range subs {
		s.Unsubscribe()
	}
}

// Decode unmarshals every document of docs into a T, skipping none: the first
// malformed document aborts with an error.
func Decode[T any](docs []bson.Raw) ([]T, error) {
	out := make([]T, 0, len(docs))
	for i, raw := range docs {
		var v T
		if err := bson.Unmarshal(raw, &v); err != nil {
			return nil, fmt.Errorf("decode document %d: %w", i, err)
		}
		out = append(out, v)
	}
	return out, nil
}
