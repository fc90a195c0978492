package compute

import "sync"

// Factory creates a new backend instance.
type Factory func() (Backend, error)

var (
	registryMu sync.RWMutex
	backends   = make(map[string]Factory)
	// priority is the selection order for Auto: first registered-and-
	// constructible name wins. CUDA leads the list per the capability
	// abstraction's documented priority (CUDA > WGPU > CPU); no CUDA
	// binding exists in this module so it is never registered, and Auto
	// simply falls through to WGPU then CPU.
	priority = []string{"cuda", "wgpu", "cpu"}
)

// Register adds a backend factory under name, replacing any existing
// registration. Typically called from an init() in the backend's own file.
func Register(name string, factory Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	backends[name] = factory
}

// Unregister removes a backend registration; useful for tests.
func Unregister(name string) {
	registryMu.Lock()
	defer registryMu.Unlock()
	delete(backends, name)
}

// Available lists registered backend names.
func Available() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(backends))
	for name := range backends {
		names = append(names, name)
	}
	return names
}

// Get constructs the named backend, or returns an Unsupported BackendError
// if nothing is registered under that name.
func Get(name string) (Backend, error) {
	registryMu.RLock()
	factory, ok := backends[name]
	registryMu.RUnlock()
	if !ok {
		return nil, &BackendError{Kind: Unsupported, Backend: name, Message: "no backend registered under this name"}
	}
	return factory()
}

// Auto selects the highest-priority backend that is both registered and
// successfully constructible, trying cuda, then wgpu, then cpu. A backend
// that is registered but fails to construct (e.g. WGPU with no adapter)
// is skipped rather than returned as an error, since a lower-priority
// backend may still work.
func Auto() (Backend, error) {
	registryMu.RLock()
	snapshot := make(map[string]Factory, len(backends))
	for k, v := range backends {
		snapshot[k] = v
	}
	registryMu.RUnlock()

	for _, name := range priority {
		factory, ok := snapshot[name]
		if !ok {
			continue
		}
		b, err := factory()
		if err == nil && b != nil {
			return b, nil
		}
	}
	// Fallback: any remaining registered backend not in the priority list.
	for name, factory := range snapshot {
		skip := false
		for _, p := range priority {
			if p == name {
				skip = true
				break
			}
		}
		if skip {
			continue
		}
		if b, err := factory(); err == nil && b != nil {
			return b, nil
		}
	}
	return nil, &BackendError{Kind: Unsupported, Message: "no compute backend available"}
}
