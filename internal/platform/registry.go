package platform

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// ErrNotRegistered is returned for provider names nobody registered.
var ErrNotRegistered = errors.New("provider not registered")

var (
	registry = make(map[string]Adapter)
	mu       sync.RWMutex
)

// Register adds adapter under name, replacing any earlier adapter with that name.
func Register(name string, adapter Adapter) {
	mu.Lock()
	defer mu.Unlock()
	registry[name] = adapter
}

// Get returns the adapter registered as name, or an error wrapping ErrNotRegistered.
func Get(name string) (Adapter, error) {
	mu.RLock()
	defer mu.RUnlock()
	a, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("provider %q: %w", name, ErrNotRegistered)
	}
	return a, nil
}

// Select returns the adapters for names, in that order.
func Select(names []string) ([]Adapter, error) {
	out := make([]Adapter, 0, len(names))
	for _, n := range names {
		a, err := Get(n)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}

// List returns the registered provider names, sorted.
func List() []string {
	mu.RLock()
	defer mu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
