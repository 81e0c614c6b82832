package datasource

import (
	"context"

	"github.com/redbco/redb-datasync/pkg/future"
)

// Null is the base contract with every operation left at its default: it
// never connects, writes nothing, reads nothing and never invokes callbacks.
// Backends without native support for a verb delegate to it.
type Null struct {
	*Base
}

// NewNull creates a null data source reporting as typ.
func NewNull(typ Type, opts ...Option) *Null {
	return &Null{Base: NewBase(typ, StyleDatabase, ApplyOptions(opts...))}
}

// Connect never succeeds.
func (n *Null) Connect(ctx context.Context, url, collection string) *future.Future[bool] {
	return future.Resolved(false)
}

// Close is a no-op.
func (n *Null) Close() error {
	return nil
}

// SetCollection is a no-op.
func (n *Null) SetCollection(name string) {}

// Insert stores nothing and reports an empty result.
func (n *Null) Insert(ctx context.Context, data interface{}, onDone func(InsertResult)) *future.Future[InsertResult] {
	return future.Resolved(InsertResult{Bulk: IsSequence(data)})
}

// Update changes nothing and echoes data back.
func (n *Null) Update(ctx context.Context, query Criterion, data interface{}, onDone func(interface{})) *future.Future[interface{}] {
	return future.Resolved(data)
}

// Remove deletes nothing.
func (n *Null) Remove(ctx context.Context, query Criterion, onDone func()) *future.Future[int64] {
	return future.Resolved(int64(0))
}

// Query returns an empty result set.
func (n *Null) Query(ctx context.Context, query Criterion, onDone func([]Record)) *future.Future[[]Record] {
	return future.Resolved([]Record{})
}

// IsNull reports whether ds is a null data source.
func IsNull(ds DataSource) bool {
	_, ok := ds.(*Null)
	return ok
}
