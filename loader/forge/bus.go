package forge

import (
	"context"
	"errors"
	"sync"
)

// ConstructModEvent is posted once per mod while the loader constructs mods.
type ConstructModEvent struct {
	ModID string
}

// Listener handles a ConstructModEvent.
type Listener func(ctx context.Context, ev ConstructModEvent) error

// Bus is the mod event bus.
type Bus struct {
	mu        sync.Mutex
	listeners []Listener
}

// NewBus returns an empty bus.
func NewBus() *Bus {
	return &Bus{}
}

// AddListener subscribes l to construct events.
func (b *Bus) AddListener(l Listener) {
	b.mu.Lock()
	b.listeners = append(b.listeners, l)
	b.mu.Unlock()
}

// Post delivers ev to every listener in subscription order and joins
// their errors.
func (b *Bus) Post(ctx context.Context, ev ConstructModEvent) error {
	b.mu.Lock()
	listeners := append([]Listener(nil), b.listeners...)
	b.mu.Unlock()

	var errs []error
	for _, l := range listeners {
		if err := l(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
