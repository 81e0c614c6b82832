// Package resource synchronizes domain objects with a REST endpoint. The
// four sync verbs map to POST, GET, PUT and DELETE, and the secure flag picks
// HTTP or HTTPS on every call.
package resource

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/redbco/redb-datasync/pkg/future"
	"github.com/redbco/redb-datasync/pkg/model"
)

var errNotObject = errors.New("response is not a JSON object")

// Resource is a single remote object.
type Resource struct {
	*model.Model
	*transport

	id string
}

// New creates a resource at url. Use WithURLFunc for a URL computed per call.
func New(url string, opts ...Option) *Resource {
	s := applyOptions(url, opts...)
	return &Resource{
		Model:     model.New(s.attributes),
		transport: newTransport(s),
		id:        s.id,
	}
}

// ID returns the resource identifier.
func (r *Resource) ID() string {
	return r.id
}

// Sync runs method against the URL. Create and update send the attributes
// as JSON; a successful read replaces them with the response object.
func (r *Resource) Sync(ctx context.Context, method model.Method, opts Options) *future.Future[Result] {
	return r.run(ctx, method, opts, r.ToJSON, func(data []byte) error {
		var attrs map[string]interface{}
		if err := json.Unmarshal(data, &attrs); err != nil {
			return err
		}
		if attrs == nil {
			return errNotObject
		}
		r.Reset(attrs)
		return nil
	})
}

// Fetch issues a GET.
func (r *Resource) Fetch(ctx context.Context, opts Options) *future.Future[Result] {
	return r.Sync(ctx, model.MethodRead, opts)
}

// Save issues a POST.
func (r *Resource) Save(ctx context.Context, opts Options) *future.Future[Result] {
	return r.Sync(ctx, model.MethodCreate, opts)
}

// Update issues a PUT.
func (r *Resource) Update(ctx context.Context, opts Options) *future.Future[Result] {
	return r.Sync(ctx, model.MethodUpdate, opts)
}

// Destroy issues a DELETE.
func (r *Resource) Destroy(ctx context.Context, opts Options) *future.Future[Result] {
	return r.Sync(ctx, model.MethodDelete, opts)
}
