package datasource

import (
	"context"

	"github.com/redbco/redb-datasync/pkg/future"
	"github.com/redbco/redb-datasync/pkg/logger"
)

// Type is the factory token identifying a backend.
type Type string

const (
	TypeMemory        Type = "memory"
	TypeMongoDB       Type = "mongodb"
	TypeSolr          Type = "solr"
	TypeElasticsearch Type = "elasticsearch"
)

// Style describes how a backend stores data.
type Style string

const (
	StyleArray    Style = "array"
	StyleDatabase Style = "database"
	StyleSearch   Style = "search"
)

// Record is a single stored document.
type Record = map[string]interface{}

// InsertResult normalizes single and bulk insert results.
type InsertResult struct {
	InsertedIDs []interface{} `json:"insertedIds,omitempty"`
	Count       int64         `json:"count"`
	Bulk        bool          `json:"bulk"`
}

// DataSource is a pluggable storage backend.
//
// A DataSource is shared, not owned: several domain objects may hold the same
// instance and all of them observe its connection state. Closing it through
// one holder breaks every other holder.
type DataSource interface {
	// Identity and status
	ID() string
	Type() Type
	Style() Style
	URL() string
	IsConnected() bool

	// Connect starts connecting to url and optionally binds collection. The
	// future resolves true once the backend confirmed the connection.
	Connect(ctx context.Context, url, collection string) *future.Future[bool]

	// Close is idempotent and releases the bound collection.
	Close() error

	// Collection binding
	SetCollection(name string)
	Collection() string

	// CRUD. onDone callbacks are optional and fire only after the backend
	// confirmed success, before the returned future resolves.
	Insert(ctx context.Context, data interface{}, onDone func(InsertResult)) *future.Future[InsertResult]
	Update(ctx context.Context, query Criterion, data interface{}, onDone func(interface{})) *future.Future[interface{}]
	Remove(ctx context.Context, query Criterion, onDone func()) *future.Future[int64]
	Query(ctx context.Context, query Criterion, onDone func([]Record)) *future.Future[[]Record]
}

// Options carries settings shared by every adapter constructor.
type Options struct {
	Logger *logger.Logger
}

// Option configures an adapter.
type Option func(*Options)

// WithLogger injects the logger an adapter reports through.
func WithLogger(l *logger.Logger) Option {
	return func(o *Options) {
		o.Logger = l
	}
}

// ApplyOptions resolves opts over the defaults.
func ApplyOptions(opts ...Option) Options {
	o := Options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.Logger == nil {
		o.Logger = logger.Default()
	}
	return o
}

// IsSequence reports whether data should take a bulk insert path.
func IsSequence(data interface{}) bool {
	switch data.(type) {
	case []Record, []interface{}:
		return true
	default:
		return false
	}
}

// Elements flattens a sequence payload into a slice. Non-sequences become a
// one-element slice.
func Elements(data interface{}) []interface{} {
	switch v := data.(type) {
	case []interface{}:
		return v
	case []Record:
		out := make([]interface{}, len(v))
		for i, r := range v {
			out[i] = r
		}
		return out
	default:
		return []interface{}{data}
	}
}
