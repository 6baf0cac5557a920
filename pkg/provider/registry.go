package provider

import (
	"fmt"
	"log"
	"sync"
)

// Factory builds a provider bound to a single user. Providers carry
// per-user credentials, so the registry holds constructors rather than
// instances.
type Factory func(userID string) HealthProvider

var (
	registryMu sync.RWMutex
	registry   = make(map[string]Factory)
)

// Register adds a provider factory to the registry. The composition root
// registers the factories it knows how to build; duplicate tags are a
// programming error.
func Register(name string, f Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()

	if _, exists := registry[name]; exists {
		log.Panicf("Provider factory already registered for name: %s", name)
	}
	registry[name] = f
}

// New constructs the named provider for the given user.
func New(name, userID string) (HealthProvider, error) {
	registryMu.RLock()
	f, ok := registry[name]
	registryMu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("unknown provider %q", name)
	}
	return f(userID), nil
}

// Names returns the tags of all registered providers.
func Names() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	return names
}

// ClearRegistry removes all factories (useful for tests)
func ClearRegistry() {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry = make(map[string]Factory)
}
