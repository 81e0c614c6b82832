// Package model holds the attribute state shared by the sync layers.
package model

import (
	"encoding/json"
	"sync"
)

// Model is a mutable attribute map safe for concurrent use.
type Model struct {
	mu    sync.RWMutex
	attrs map[string]interface{}
}

// New creates a model holding a copy of attrs.
func New(attrs map[string]interface{}) *Model {
	return &Model{attrs: clone(attrs)}
}

// Get returns the value stored under key.
func (m *Model) Get(key string) (interface{}, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.attrs[key]
	return v, ok
}

// Has reports whether key is set.
func (m *Model) Has(key string) bool {
	_, ok := m.Get(key)
	return ok
}

// Set stores value under key.
func (m *Model) Set(key string, value interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.attrs == nil {
		m.attrs = make(map[string]interface{})
	}
	m.attrs[key] = value
}

// SetAll merges attrs into the model.
func (m *Model) SetAll(attrs map[string]interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.attrs == nil {
		m.attrs = make(map[string]interface{}, len(attrs))
	}
	for k, v := range attrs {
		m.attrs[k] = v
	}
}

// Unset removes key.
func (m *Model) Unset(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.attrs, key)
}

// Reset replaces every attribute with attrs. A nil map empties the model.
func (m *Model) Reset(attrs map[string]interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.attrs = clone(attrs)
}

// Attributes returns a shallow copy of the attributes.
func (m *Model) Attributes() map[string]interface{} {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return clone(m.attrs)
}

// Len returns the number of attributes.
func (m *Model) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.attrs)
}

// IsEmpty reports whether the model has no attributes.
func (m *Model) IsEmpty() bool {
	return m.Len() == 0
}

// ToJSON serializes the attributes as a JSON object.
func (m *Model) ToJSON() ([]byte, error) {
	return json.Marshal(m.Attributes())
}

// MarshalJSON implements json.Marshaler.
func (m *Model) MarshalJSON() ([]byte, error) {
	return m.ToJSON()
}

func clone(attrs map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(attrs))
	for k, v := range attrs {
		out[k] = v
	}
	return out
}
