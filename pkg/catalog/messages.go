package catalog

import (
	"fmt"
	"sync"
)

// Messages is a listener's translation bag. Keys missing from every
// overlay render as the key itself so a gap is visible in chat.
type Messages struct {
	mu       sync.RWMutex
	catalog  *Catalog
	bag      string
	texts    map[string]string
	fallback map[string]string
}

// NewMessages builds a standalone bag from fixed texts
func NewMessages(texts map[string]string) *Messages {
	m := &Messages{texts: map[string]string{}}
	for k, v := range texts {
		m.texts[k] = v
	}
	return m
}

// Reload overlays the default texts and then each version's texts in order.
// With clear the previous texts are dropped first.
func (m *Messages) Reload(versions []string, clear bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if clear || m.texts == nil {
		m.texts = map[string]string{}
	}
	if m.catalog == nil {
		return
	}
	for _, v := range append([]string{DefaultVersion}, versions...) {
		for k, text := range m.catalog.Texts[v][m.bag] {
			m.texts[k] = text
		}
	}
}

// WithFallback sets texts used for keys no overlay defines and returns m
func (m *Messages) WithFallback(texts map[string]string) *Messages {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fallback = texts
	return m
}

// Get renders key with args
func (m *Messages) Get(key string, args ...interface{}) string {
	if m == nil {
		return key
	}
	m.mu.RLock()
	text, ok := m.texts[key]
	if !ok {
		text, ok = m.fallback[key]
	}
	m.mu.RUnlock()
	if !ok {
		return key
	}
	if len(args) > 0 {
		return fmt.Sprintf(text, args...)
	}
	return text
}

// Has reports whether key is defined
func (m *Messages) Has(key string) bool {
	if m == nil {
		return false
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if _, ok := m.texts[key]; ok {
		return true
	}
	_, ok := m.fallback[key]
	return ok
}
