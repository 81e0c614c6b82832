package model

import (
	"encoding/json"
	"sync"
)

// Collection is an ordered list of attribute maps.
type Collection struct {
	mu    sync.RWMutex
	items []map[string]interface{}
}

// NewCollection creates a collection holding copies of items.
func NewCollection(items ...map[string]interface{}) *Collection {
	c := &Collection{}
	c.Reset(items)
	return c
}

// Add appends items.
func (c *Collection) Add(items ...map[string]interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, item := range items {
		c.items = append(c.items, clone(item))
	}
}

// At returns a copy of the item at i.
func (c *Collection) At(i int) (map[string]interface{}, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if i < 0 || i >= len(c.items) {
		return nil, false
	}
	return clone(c.items[i]), true
}

// Reset replaces the contents with items. A nil slice empties the collection.
func (c *Collection) Reset(items []map[string]interface{}) {
	next := make([]map[string]interface{}, len(items))
	for i, item := range items {
		next[i] = clone(item)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = next
}

// Records returns copies of every item in order.
func (c *Collection) Records() []map[string]interface{} {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]map[string]interface{}, len(c.items))
	for i, item := range c.items {
		out[i] = clone(item)
	}
	return out
}

// Len returns the number of items.
func (c *Collection) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// IsEmpty reports whether the collection has no items.
func (c *Collection) IsEmpty() bool {
	return c.Len() == 0
}

// ToJSON serializes the items as a JSON array.
func (c *Collection) ToJSON() ([]byte, error) {
	return json.Marshal(c.Records())
}

// MarshalJSON implements json.Marshaler.
func (c *Collection) MarshalJSON() ([]byte, error) {
	return c.ToJSON()
}
