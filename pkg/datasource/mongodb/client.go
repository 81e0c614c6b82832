package mongodb

import (
	"context"

	"github.com/redbco/redb-datasync/pkg/datasource"
)

// Client opens a database handle for a connection URL. NewDriverClient returns
// the production implementation; tests supply their own.
type Client interface {
	Connect(ctx context.Context, url string) (Database, error)
}

// Database is a connected database handle.
type Database interface {
	Collection(name string) Collection
	Disconnect(ctx context.Context) error
}

// Collection is the subset of collection operations the adapter issues.
type Collection interface {
	Find(ctx context.Context, filter interface{}) ([]datasource.Record, error)
	InsertOne(ctx context.Context, document interface{}) (interface{}, error)
	InsertMany(ctx context.Context, documents []interface{}) ([]interface{}, error)
	UpdateMany(ctx context.Context, filter interface{}, update interface{}) (int64, error)
	DeleteMany(ctx context.Context, filter interface{}) (int64, error)
}
