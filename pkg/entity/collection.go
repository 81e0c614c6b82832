package entity

import (
	"context"
	"fmt"

	"github.com/redbco/redb-datasync/pkg/datasource"
	"github.com/redbco/redb-datasync/pkg/future"
	"github.com/redbco/redb-datasync/pkg/model"
)

// Collection is an ordered set of records kept in step with a data source.
type Collection struct {
	*model.Collection
	*binding
}

// NewCollection creates a collection over ds. ds may be nil and set later.
func NewCollection(ds datasource.DataSource, opts ...Option) *Collection {
	s := applyOptions(opts...)
	return &Collection{
		Collection: model.NewCollection(s.records...),
		binding:    newBinding(ds, s),
	}
}

// errCollectionUpdate rejects an update verb on a whole collection, whose
// items cannot be applied as a single set of fields.
var errCollectionUpdate = fmt.Errorf("%w: use Collection.Update with the fields to write", datasource.ErrInvalidUpdate)

// Sync runs method against the data source. Create inserts every item in
// one bulk call; a read replaces the items with the result set. Update is
// rejected; Update takes the fields to write.
func (c *Collection) Sync(ctx context.Context, method Method, opts Options) *future.Future[interface{}] {
	return c.sync(ctx, method, opts, reconciler{
		updateErr: errCollectionUpdate,
		payload: func() interface{} {
			return c.Records()
		},
		created: func(payload interface{}) {
			c.Reset(payload.([]datasource.Record))
		},
		read: func(records []datasource.Record) interface{} {
			c.Reset(records)
			return records
		},
		deleted: func() {
			c.Reset(nil)
		},
	})
}

// Fetch reads the collection.
func (c *Collection) Fetch(ctx context.Context, opts Options) *future.Future[interface{}] {
	return c.Sync(ctx, MethodRead, opts)
}

// Save inserts every item.
func (c *Collection) Save(ctx context.Context, opts Options) *future.Future[interface{}] {
	return c.Sync(ctx, MethodCreate, opts)
}

// Update writes data to every record matching the query.
func (c *Collection) Update(ctx context.Context, data datasource.Record, opts Options) *future.Future[interface{}] {
	return c.sync(ctx, MethodUpdate, opts, reconciler{
		payload: func() interface{} { return data },
	})
}

// Destroy removes the records matching the query and empties the collection.
func (c *Collection) Destroy(ctx context.Context, opts Options) *future.Future[interface{}] {
	return c.Sync(ctx, MethodDelete, opts)
}
