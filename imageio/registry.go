package imageio

import (
	"path/filepath"
	"strings"
	"sync"
)

// registry follows the same name-keyed map, mutex-guarded shape as the
// compute backend registry, resolved by exact match here since format
// identity — unlike compute backend preference — has no "best available"
// ordering to express.
var (
	mu       sync.RWMutex
	drivers  = map[string]Driver{}
	byExtMap = map[string]Driver{}
)

// Register adds a driver under its own name and every extension it claims.
// A later Register for the same name or extension replaces the earlier one.
func Register(d Driver) {
	mu.Lock()
	defer mu.Unlock()
	drivers[d.Name()] = d
	for _, ext := range d.Extensions() {
		byExtMap[strings.ToLower(ext)] = d
	}
}

// Get returns the driver registered under name.
func Get(name string) (Driver, bool) {
	mu.RLock()
	defer mu.RUnlock()
	d, ok := drivers[name]
	return d, ok
}

// ByExtension resolves a driver from a file path's extension.
func ByExtension(path string) (Driver, bool) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	mu.RLock()
	defer mu.RUnlock()
	d, ok := byExtMap[ext]
	return d, ok
}

// Available lists every registered driver name.
func Available() []string {
	mu.RLock()
	defer mu.RUnlock()
	names := make([]string, 0, len(drivers))
	for name := range drivers {
		names = append(names, name)
	}
	return names
}

// Probe resolves a driver by magic bytes first, falling back to nothing if
// no registered Sniff matches. head should be at least 32 bytes when
// available; shorter reads still work since every Sniff bounds-checks.
func Probe(head []byte) (Driver, bool) {
	mu.RLock()
	defer mu.RUnlock()
	for _, d := range drivers {
		if d.Sniff(head) {
			return d, true
		}
	}
	return nil, false
}

// Resolve picks a driver for path's contents: magic bytes first (if head is
// non-empty), extension second.
func Resolve(path string, head []byte) (Driver, error) {
	if len(head) > 0 {
		if d, ok := Probe(head); ok {
			return d, nil
		}
	}
	if d, ok := ByExtension(path); ok {
		return d, nil
	}
	return nil, &IoError{Kind: UnsupportedFormat, Message: "no driver matches " + path}
}
