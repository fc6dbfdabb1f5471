package host

import (
	"fmt"
	"sort"
	"sync"
)

var (
	mu       sync.RWMutex
	registry = make(map[string]Host)
)

// Register adds a backend to the registry. Backends call it from package
// init; the main package blank-imports them.
func Register(h Host) {
	mu.Lock()
	defer mu.Unlock()
	if _, exists := registry[h.Name()]; exists {
		panic(fmt.Sprintf("host backend %s already registered", h.Name()))
	}
	registry[h.Name()] = h
}

// Open returns the named backend, or an error listing the registered ones.
func Open(name string) (Host, error) {
	mu.RLock()
	defer mu.RUnlock()
	h, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("unknown host backend %q (available: %v)", name, names())
	}
	return h, nil
}

// List returns the registered backend names, sorted.
func List() []string {
	mu.RLock()
	defer mu.RUnlock()
	return names()
}

func names() []string {
	out := make([]string, 0, len(registry))
	for name := range registry {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
