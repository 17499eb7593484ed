// Package livesync keeps an in-memory, ordered copy of a document collection
// and pushes the full snapshot to subscribers whenever the collection changes.
package livesync

import (
	"context"
	"fmt"
	"log"
	"sync"

	"club-site/internal/docstore"
)

// Source is the ordered listing plus change feed of one collection.
type Source[T any] interface {
	List(ctx context.Context) ([]T, error)
	Changes(ctx context.Context) (docstore.ChangeStream, error)
}

type Adapter[T any] struct {
	name   string
	source Source[T]
	logger *log.Logger

	mu     sync.RWMutex
	items  []T
	loaded bool
	subs   map[*Subscription[T]]struct{}
}

func New[T any](name string, source Source[T], logger *log.Logger) *Adapter[T] {
	if logger == nil {
		logger = log.Default()
	}

	return &Adapter[T]{
		name:   name,
		source: source,
		logger: logger,
		items:  make([]T, 0),
		subs:   make(map[*Subscription[T]]struct{}),
	}
}

func (a *Adapter[T]) Name() string {
	return a.name
}

// Run watches the collection until ctx is cancelled or the change stream
// ends. The stream is opened before the initial load so no change between
// the two is missed. If the stream cannot be opened the list stays empty
// and the error is returned; there is no retry.
func (a *Adapter[T]) Run(ctx context.Context) error {
	stream, err := a.source.Changes(ctx)
	if err != nil {
		a.logger.Printf("livesync: %s: failed to open change stream: %v", a.name, err)
		return fmt.Errorf("livesync: watch %s: %w", a.name, err)
	}
	defer stream.Close(context.Background())

	a.reload(ctx)
	a.logger.Printf("livesync: %s: watching change stream...", a.name)

	for stream.Next(ctx) {
		a.reload(ctx)
	}

	if err := stream.Err(); err != nil && ctx.Err() == nil {
		a.logger.Printf("livesync: %s: change stream closed with error: %v", a.name, err)
		return err
	}
	a.logger.Printf("livesync: %s: change stream stopped", a.name)
	return nil
}

// reload replaces the list wholesale. A failed listing keeps the previous
// snapshot.
func (a *Adapter[T]) reload(ctx context.Context) {
	items, err := a.source.List(ctx)
	if err != nil {
		a.logger.Printf("livesync: %s: failed to load snapshot: %v", a.name, err)
		return
	}
	if items == nil {
		items = make([]T, 0)
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	a.items = items
	a.loaded = true
	for sub := range a.subs {
		sub.offer(items)
	}
}

// Current returns the latest snapshot. The slice is shared and must not be
// modified.
func (a *Adapter[T]) Current() []T {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.items
}

// Subscribe registers for snapshots. If a snapshot is already loaded it is
// delivered immediately. Callers must Unsubscribe when done.
func (a *Adapter[T]) Subscribe() *Subscription[T] {
	sub := &Subscription[T]{
		ch:     make(chan []T, 1),
		remove: a.remove,
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	a.subs[sub] = struct{}{}
	if a.loaded {
		sub.offer(a.items)
	}
	return sub
}

func (a *Adapter[T]) remove(sub *Subscription[T]) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if _, ok := a.subs[sub]; ok {
		delete(a.subs, sub)
		close(sub.ch)
	}
}

// Subscription is a cancellable handle on a stream of full snapshots. Only
// the most recent undelivered snapshot is kept; slow readers skip stale ones.
type Subscription[T any] struct {
	ch     chan []T
	remove func(*Subscription[T])
	once   sync.Once
}

// C is closed after Unsubscribe.
func (s *Subscription[T]) C() <-chan []T {
	return s.ch
}

func (s *Subscription[T]) Unsubscribe() {
	s.once.Do(func() { s.remove(s) })
}

// offer is called with the adapter lock held.
func (s *Subscription[T]) offer(items []T) {
	select {
	case <-s.ch:
	default:
	}
	s.ch <- items
}
