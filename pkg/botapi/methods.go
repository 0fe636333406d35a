package botapi

import (
	"fmt"
	"regexp"
	"strings"
	"sync"
)

var allowedMethodName = regexp.MustCompile(`^[a-z]([a-z_]+)?$`)

// MethodCache maps caller-facing method names (get_updates) to wire names
// (getupdates). Entries are immutable once stored and never evicted.
type MethodCache struct {
	mu    sync.RWMutex
	names map[string]string
}

// DefaultMethods is shared by every client that does not bring its own cache.
var DefaultMethods = NewMethodCache()

// NewMethodCache returns an empty cache.
func NewMethodCache() *MethodCache {
	return &MethodCache{
		names: make(map[string]string),
	}
}

// Normalize returns the wire name for name, validating it on first use.
func (m *MethodCache) Normalize(name string) (string, error) {
	m.mu.RLock()
	wireName, ok := m.names[name]
	m.mu.RUnlock()
	if ok {
		return wireName, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	// Someone may have populated it while we waited for the lock.
	if wireName, ok := m.names[name]; ok {
		return wireName, nil
	}

	if !allowedMethodName.MatchString(name) {
		return "", fmt.Errorf("%w: %q, %s is expected", ErrInvalidMethodName, name, allowedMethodName)
	}

	wireName = strings.ReplaceAll(name, "_", "")
	m.names[name] = wireName

	return wireName, nil
}

// Len returns the number of cached names.
func (m *MethodCache) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.names)
}
