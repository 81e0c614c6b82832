package entity

import (
	"context"

	"github.com/redbco/redb-datasync/pkg/datasource"
	"github.com/redbco/redb-datasync/pkg/future"
	"github.com/redbco/redb-datasync/pkg/model"
)

// Entity is a single record kept in step with a data source.
type Entity struct {
	*model.Model
	*binding

	id string
}

// New creates an entity over ds. ds may be nil and set later.
func New(ds datasource.DataSource, opts ...Option) *Entity {
	s := applyOptions(opts...)
	return &Entity{
		Model:   model.New(s.attributes),
		binding: newBinding(ds, s),
		id:      s.id,
	}
}

// ID returns the entity identifier.
func (e *Entity) ID() string {
	return e.id
}

// Sync runs method against the data source. A read keeps the first record
// returned, or empties the entity when nothing matched.
func (e *Entity) Sync(ctx context.Context, method Method, opts Options) *future.Future[interface{}] {
	return e.sync(ctx, method, opts, reconciler{
		payload: func() interface{} {
			return datasource.Record(e.Attributes())
		},
		created: func(payload interface{}) {
			e.Reset(payload.(datasource.Record))
		},
		read: func(records []datasource.Record) interface{} {
			if len(records) == 0 {
				e.Reset(nil)
				return datasource.Record{}
			}
			e.Reset(records[0])
			return records[0]
		},
		deleted: func() {
			e.Reset(nil)
		},
	})
}

// Fetch reads the entity.
func (e *Entity) Fetch(ctx context.Context, opts Options) *future.Future[interface{}] {
	return e.Sync(ctx, MethodRead, opts)
}

// Save creates the entity.
func (e *Entity) Save(ctx context.Context, opts Options) *future.Future[interface{}] {
	return e.Sync(ctx, MethodCreate, opts)
}

// Update writes the entity's attributes to every record matching the query.
func (e *Entity) Update(ctx context.Context, opts Options) *future.Future[interface{}] {
	return e.Sync(ctx, MethodUpdate, opts)
}

// Destroy removes the records matching the query and empties the entity.
func (e *Entity) Destroy(ctx context.Context, opts Options) *future.Future[interface{}] {
	return e.Sync(ctx, MethodDelete, opts)
}
