package strategy

import (
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"
)

// Registry maps strategy names to implementations. Names are trimmed and
// lowercased, so "SMTP" and "smtp" select the same entry.
type Registry[S any] struct {
	mu    sync.RWMutex
	items map[string]S
}

func NewRegistry[S any]() *Registry[S] {
	return &Registry[S]{items: make(map[string]S)}
}

// Register adds s under name. Empty and already registered names are rejected.
func (r *Registry[S]) Register(name string, s S) error {
	key := normalize(name)
	if key == "" {
		return ErrEmptyName
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.items[key]; exists {
		return fmt.Errorf("%w: %q", ErrAlreadyRegistered, key)
	}
	r.items[key] = s
	return nil
}

// MustRegister is like Register but panics on error.
func (r *Registry[S]) MustRegister(name string, s S) {
	if err := r.Register(name, s); err != nil {
		panic(err)
	}
}

// Replace adds or overwrites the strategy registered under name.
func (r *Registry[S]) Replace(name string, s S) error {
	key := normalize(name)
	if key == "" {
		return ErrEmptyName
	}

	r.mu.Lock()
	r.items[key] = s
	r.mu.Unlock()
	return nil
}

// Get returns the strategy registered under name.
func (r *Registry[S]) Get(name string) (S, error) {
	r.mu.RLock()
	s, ok := r.items[normalize(name)]
	r.mu.RUnlock()

	if !ok {
		var zero S
		return zero, fmt.Errorf("%w: %q (available: %s)", ErrNotFound, name, strings.Join(r.Names(), ", "))
	}
	return s, nil
}

func (r *Registry[S]) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.items[normalize(name)]
	return ok
}

// Names returns the registered names in sorted order.
func (r *Registry[S]) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Sorted(maps.Keys(r.items))
}

func normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
