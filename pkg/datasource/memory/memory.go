// Package memory implements a data source over an in-process ordered
// sequence. Connecting always succeeds and every operation completes before
// it returns. The sequence itself is the collection, so operations only
// require a connection; the collection name is a label.
package memory

import (
	"context"
	"sync"

	"github.com/redbco/redb-datasync/pkg/datasource"
	"github.com/redbco/redb-datasync/pkg/future"
)

func init() {
	datasource.Register(datasource.TypeMemory, func(client interface{}, opts ...datasource.Option) datasource.DataSource {
		return New(opts...)
	})
}

// DataSource stores items in insertion order.
type DataSource struct {
	*datasource.Base

	mu    sync.RWMutex
	items []interface{}
}

var _ datasource.DataSource = (*DataSource)(nil)

// New creates an empty memory data source. It needs no native client.
func New(opts ...datasource.Option) *DataSource {
	return &DataSource{
		Base:  datasource.NewBase(datasource.TypeMemory, datasource.StyleArray, datasource.ApplyOptions(opts...)),
		items: make([]interface{}, 0),
	}
}

// Connect marks the data source connected. It never fails; connecting an
// adapter that is already connected resolves false and changes nothing.
func (m *DataSource) Connect(ctx context.Context, url, collection string) *future.Future[bool] {
	if m.IsConnected() {
		m.Logger().Warn("memory datasource %s already connected", m.ID())
		return future.Resolved(false)
	}

	m.mu.Lock()
	if m.items == nil {
		m.items = make([]interface{}, 0)
	}
	m.mu.Unlock()

	m.Mutate(func(s *datasource.ConnState) {
		s.Connected = true
		s.URL = url
		s.Style = datasource.StyleArray
		if collection != "" {
			s.Collection = collection
		}
	})
	m.Logger().Debug("memory datasource connected: %s", url)
	return future.Resolved(true)
}

// Close drops the stored items. Calling it on a closed data source does nothing.
func (m *DataSource) Close() error {
	closed := false
	m.Mutate(func(s *datasource.ConnState) {
		if !s.Connected {
			return
		}
		s.Connected = false
		s.Collection = ""
		closed = true
	})
	if closed {
		m.mu.Lock()
		m.items = nil
		m.mu.Unlock()
	}
	return nil
}

// SetCollection binds the collection label.
func (m *DataSource) SetCollection(name string) {
	if !datasource.ValidCollectionName(name) {
		m.Logger().Debug("no collection set")
		return
	}
	m.Mutate(func(s *datasource.ConnState) {
		s.Collection = name
	})
}

// Items returns a copy of the stored sequence.
func (m *DataSource) Items() []interface{} {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]interface{}, len(m.items))
	copy(out, m.items)
	return out
}

// Len returns the number of stored items.
func (m *DataSource) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.items)
}

// Insert appends data. A sequence payload appends each element in order.
func (m *DataSource) Insert(ctx context.Context, data interface{}, onDone func(datasource.InsertResult)) *future.Future[datasource.InsertResult] {
	if err := m.GuardConnected("insert"); err != nil {
		return future.Failed[datasource.InsertResult](err)
	}

	elems := datasource.Elements(data)

	m.mu.Lock()
	start := len(m.items)
	m.items = append(m.items, elems...)
	m.mu.Unlock()

	ids := make([]interface{}, len(elems))
	for i := range elems {
		ids[i] = start + i
	}
	result := datasource.InsertResult{
		InsertedIDs: ids,
		Count:       int64(len(elems)),
		Bulk:        datasource.IsSequence(data),
	}

	if onDone != nil {
		if err := datasource.SafeCall(func() { onDone(result) }); err != nil {
			return future.Failed[datasource.InsertResult](err)
		}
	}
	return future.Resolved(result)
}

// Update merges data into every record matching query. data must be a
// Record; items that are not records are replaced by it.
func (m *DataSource) Update(ctx context.Context, query datasource.Criterion, data interface{}, onDone func(interface{})) *future.Future[interface{}] {
	if err := m.GuardConnected("update"); err != nil {
		return future.Failed[interface{}](err)
	}

	fields, isRecord := data.(datasource.Record)
	if !isRecord {
		opErr := datasource.NewOperationError(datasource.TypeMemory, "update", datasource.ErrInvalidUpdate)
		m.Logger().Error("%v", opErr)
		return future.Failed[interface{}](opErr)
	}
	filter := query.Resolve()

	m.mu.Lock()
	for i, item := range m.items {
		if !datasource.Match(filter, item) {
			continue
		}
		rec, ok := item.(datasource.Record)
		if !ok {
			m.items[i] = fields
			continue
		}
		merged := make(datasource.Record, len(rec)+len(fields))
		for k, v := range rec {
			merged[k] = v
		}
		for k, v := range fields {
			merged[k] = v
		}
		m.items[i] = merged
	}
	m.mu.Unlock()

	if onDone != nil {
		if err := datasource.SafeCall(func() { onDone(data) }); err != nil {
			return future.Failed[interface{}](err)
		}
	}
	return future.Resolved(data)
}

// Remove deletes every item matching query.
func (m *DataSource) Remove(ctx context.Context, query datasource.Criterion, onDone func()) *future.Future[int64] {
	if err := m.GuardConnected("remove"); err != nil {
		return future.Failed[int64](err)
	}

	filter := query.Resolve()

	m.mu.Lock()
	kept := m.items[:0]
	var removed int64
	for _, item := range m.items {
		if datasource.Match(filter, item) {
			removed++
			continue
		}
		kept = append(kept, item)
	}
	m.items = kept
	m.mu.Unlock()

	if onDone != nil {
		if err := datasource.SafeCall(onDone); err != nil {
			return future.Failed[int64](err)
		}
	}
	return future.Resolved(removed)
}

// Query returns copies of the records matching query in insertion order.
// Items that are not records are skipped.
func (m *DataSource) Query(ctx context.Context, query datasource.Criterion, onDone func([]datasource.Record)) *future.Future[[]datasource.Record] {
	if err := m.GuardConnected("query"); err != nil {
		return future.Failed[[]datasource.Record](err)
	}

	filter := query.Resolve()
	results := make([]datasource.Record, 0)

	m.mu.RLock()
	for _, item := range m.items {
		rec, ok := item.(datasource.Record)
		if !ok || !datasource.Match(filter, rec) {
			continue
		}
		out := make(datasource.Record, len(rec))
		for k, v := range rec {
			out[k] = v
		}
		results = append(results, out)
	}
	m.mu.RUnlock()

	if onDone != nil {
		if err := datasource.SafeCall(func() { onDone(results) }); err != nil {
			return future.Failed[[]datasource.Record](err)
		}
	}
	return future.Resolved(results)
}
