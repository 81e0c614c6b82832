// Package entity binds domain objects to a data source. An Entity holds a
// single record and a Collection holds many; both synchronize through the
// four verbs create, read, update and delete.
//
// The data source is shared, not owned: several objects may hold the same
// adapter, and closing it through one is observed by all of them.
package entity

import (
	"context"
	"sync"

	"github.com/redbco/redb-datasync/pkg/datasource"
	"github.com/redbco/redb-datasync/pkg/future"
	"github.com/redbco/redb-datasync/pkg/logger"
	"github.com/redbco/redb-datasync/pkg/model"
)

// Method is a sync verb.
type Method = model.Method

const (
	MethodCreate = model.MethodCreate
	MethodRead   = model.MethodRead
	MethodUpdate = model.MethodUpdate
	MethodDelete = model.MethodDelete
)

// Options carries the per-call criterion and result callbacks. Exactly one
// of Success or Error is invoked, once, before the returned future settles.
type Options struct {
	Query   datasource.Criterion
	Success func(result interface{})
	Error   func(err error)
}

// reconciler folds adapter results back into the object's state.
type reconciler struct {
	// updateErr, when set, rejects the update verb before any backend call
	updateErr error
	payload   func() interface{}
	created func(payload interface{})
	read    func(records []datasource.Record) interface{}
	deleted func()
}

// binding is the data source reference and addressing shared by Entity and
// Collection.
type binding struct {
	mu    sync.RWMutex
	ds    datasource.DataSource
	query datasource.Criterion
	url   string
	name  string
	log   *logger.Logger
}

// newBinding binds the object's collection name on ds. Without a name the
// object adopts the collection ds already has.
func newBinding(ds datasource.DataSource, s settings) *binding {
	b := &binding{ds: ds, query: s.query, url: s.url, name: s.name, log: s.log}
	if ds == nil {
		return b
	}
	if b.url == "" {
		b.url = ds.URL()
	}
	if b.name != "" {
		ds.SetCollection(b.name)
	} else {
		b.name = ds.Collection()
	}
	return b
}

// DataSource returns the bound data source.
func (b *binding) DataSource() datasource.DataSource {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.ds
}

// SetDataSource replaces the bound data source and binds the collection
// name on it.
func (b *binding) SetDataSource(ds datasource.DataSource) {
	b.mu.Lock()
	b.ds = ds
	name := b.name
	b.mu.Unlock()

	if ds != nil && name != "" {
		ds.SetCollection(name)
	}
}

// SetDataSourceCollection binds name on the shared data source and records
// it as this object's collection name.
func (b *binding) SetDataSourceCollection(name string) {
	b.mu.Lock()
	b.name = name
	ds := b.ds
	b.mu.Unlock()

	if ds != nil {
		ds.SetCollection(name)
	}
}

// Query returns the standing criterion.
func (b *binding) Query() datasource.Criterion {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.query
}

// SetQuery replaces the standing criterion.
func (b *binding) SetQuery(query datasource.Criterion) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.query = query
}

// URL returns the URL captured at construction.
func (b *binding) URL() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.url
}

// Name returns the collection name.
func (b *binding) Name() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.name
}

func (b *binding) snapshot() (datasource.DataSource, datasource.Criterion) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.ds, b.query
}

func (b *binding) sync(ctx context.Context, method Method, opts Options, r reconciler) *future.Future[interface{}] {
	out := future.New[interface{}]()
	var once sync.Once
	finish := func(v interface{}, err error) {
		once.Do(func() {
			b.notify(method, opts, v, err)
			out.Settle(v, err)
		})
	}

	ds, standing := b.snapshot()
	if ds == nil {
		b.log.Warn("no datasource")
		finish(nil, datasource.ErrNoDataSource)
		return out
	}
	query := opts.Query.Or(standing)

	err := datasource.SafeCall(func() {
		switch method {
		case MethodCreate:
			payload := r.payload()
			ds.Insert(ctx, payload, nil).Observe(func(res datasource.InsertResult, err error) {
				if err != nil {
					finish(nil, err)
					return
				}
				finish(res, datasource.SafeCall(func() { r.created(payload) }))
			})

		case MethodUpdate:
			if r.updateErr != nil {
				finish(nil, r.updateErr)
				return
			}
			ds.Update(ctx, query, r.payload(), nil).Observe(finish)

		case MethodDelete:
			ds.Remove(ctx, query, nil).Observe(func(n int64, err error) {
				if err != nil {
					finish(nil, err)
					return
				}
				finish(n, datasource.SafeCall(r.deleted))
			})

		case MethodRead:
			ds.Query(ctx, query, nil).Observe(func(records []datasource.Record, err error) {
				if err != nil {
					finish(nil, err)
					return
				}
				if records == nil {
					finish(nil, datasource.ErrNoData)
					return
				}
				var result interface{}
				err = datasource.SafeCall(func() { result = r.read(records) })
				finish(result, err)
			})

		default:
			finish(nil, &datasource.UnknownMethodError{Method: string(method)})
		}
	})
	if err != nil {
		finish(nil, err)
	}
	return out
}

func (b *binding) notify(method Method, opts Options, v interface{}, err error) {
	if err != nil {
		b.log.Debug("sync %s failed: %v", method, err)
		if opts.Error == nil {
			return
		}
		if perr := datasource.SafeCall(func() { opts.Error(err) }); perr != nil {
			b.log.Error("error callback for %s: %v", method, perr)
		}
		return
	}
	if opts.Success == nil {
		return
	}
	if perr := datasource.SafeCall(func() { opts.Success(v) }); perr != nil {
		b.log.Error("success callback for %s: %v", method, perr)
	}
}
