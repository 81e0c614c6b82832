package resource

import (
	"context"
	"encoding/json"

	"github.com/redbco/redb-datasync/pkg/future"
	"github.com/redbco/redb-datasync/pkg/model"
)

// Collection is a remote list of objects.
type Collection struct {
	*model.Collection
	*transport
}

// NewCollection creates a collection at url. The URL may be set later with
// SetURL.
func NewCollection(url string, opts ...Option) *Collection {
	s := applyOptions(url, opts...)
	return &Collection{
		Collection: model.NewCollection(),
		transport:  newTransport(s),
	}
}

// Sync runs method against the URL. A successful read replaces the items
// with the response array.
func (c *Collection) Sync(ctx context.Context, method model.Method, opts Options) *future.Future[Result] {
	return c.run(ctx, method, opts, c.ToJSON, func(data []byte) error {
		var items []map[string]interface{}
		if err := json.Unmarshal(data, &items); err != nil {
			return err
		}
		c.Reset(items)
		return nil
	})
}

// Fetch issues a GET.
func (c *Collection) Fetch(ctx context.Context, opts Options) *future.Future[Result] {
	return c.Sync(ctx, model.MethodRead, opts)
}

// Save issues a POST with every item.
func (c *Collection) Save(ctx context.Context, opts Options) *future.Future[Result] {
	return c.Sync(ctx, model.MethodCreate, opts)
}
