// Package solr implements a search-index data source that only verifies
// connectivity. Its CRUD verbs check the connection and then resolve empty
// results without reaching the index.
package solr

import (
	"context"
	"net/http"
	"sync"

	"github.com/redbco/redb-datasync/pkg/datasource"
	"github.com/redbco/redb-datasync/pkg/future"
)

func init() {
	datasource.Register(datasource.TypeSolr, func(client interface{}, opts ...datasource.Option) datasource.DataSource {
		switch c := client.(type) {
		case Pinger:
			return New(c, opts...)
		case *http.Client:
			return New(NewHTTPPinger(c), opts...)
		default:
			return New(nil, opts...)
		}
	})
}

// DataSource is the search-index adapter.
type DataSource struct {
	*datasource.Base

	pinger Pinger
	stubs  *datasource.Null

	mu         sync.Mutex
	connecting bool
	gen        uint64
}

var _ datasource.DataSource = (*DataSource)(nil)

// New creates an adapter that checks connectivity through pinger.
func New(pinger Pinger, opts ...datasource.Option) *DataSource {
	o := datasource.ApplyOptions(opts...)
	return &DataSource{
		Base:   datasource.NewBase(datasource.TypeSolr, datasource.StyleSearch, o),
		pinger: pinger,
		stubs:  datasource.NewNull(datasource.TypeSolr, datasource.WithLogger(o.Logger)),
	}
}

// Connect pings url in the background. On success the collection name is
// stored as a label.
func (s *DataSource) Connect(ctx context.Context, url, collection string) *future.Future[bool] {
	log := s.Logger()

	if s.pinger == nil {
		log.Error("no client was passed.")
		return future.Failed[bool](datasource.NewConnectionError(datasource.TypeSolr, url, datasource.ErrNoClient))
	}

	s.mu.Lock()
	if s.connecting || s.IsConnected() {
		s.mu.Unlock()
		log.Warn("solr datasource %s already connected", s.ID())
		return future.Resolved(false)
	}
	s.connecting = true
	gen := s.gen
	s.mu.Unlock()

	result := future.New[bool]()
	go func() {
		err := s.pinger.Ping(ctx, url)

		s.mu.Lock()
		stale := s.gen != gen
		if !stale {
			s.connecting = false
		}
		s.mu.Unlock()

		if stale {
			log.Warn("solr datasource %s closed while connecting", s.ID())
			result.Resolve(false)
			return
		}
		if err != nil {
			connErr := datasource.NewConnectionError(datasource.TypeSolr, url, err)
			log.Error("%v", connErr)
			result.Reject(connErr)
			return
		}

		s.Mutate(func(st *datasource.ConnState) {
			st.Connected = true
			st.URL = url
			st.Style = datasource.StyleSearch
			st.Collection = collection
		})
		log.Info("Connected to search index at %s", url)
		result.Resolve(true)
	}()
	return result
}

// Close forgets the connection. Calling it twice is safe.
func (s *DataSource) Close() error {
	s.mu.Lock()
	s.connecting = false
	s.gen++
	s.mu.Unlock()

	s.Mutate(func(st *datasource.ConnState) {
		st.Connected = false
		st.Collection = ""
	})
	return nil
}

// SetCollection stores name as the collection label.
func (s *DataSource) SetCollection(name string) {
	if !datasource.ValidCollectionName(name) {
		s.Logger().Debug("no collection set")
		return
	}
	s.Mutate(func(st *datasource.ConnState) {
		st.Collection = name
	})
}

// Insert resolves an empty result once the guard passes.
func (s *DataSource) Insert(ctx context.Context, data interface{}, onDone func(datasource.InsertResult)) *future.Future[datasource.InsertResult] {
	if err := s.Guard("insert"); err != nil {
		return future.Failed[datasource.InsertResult](err)
	}
	return s.stubs.Insert(ctx, data, onDone)
}

// Update resolves with data once the guard passes.
func (s *DataSource) Update(ctx context.Context, query datasource.Criterion, data interface{}, onDone func(interface{})) *future.Future[interface{}] {
	if err := s.Guard("update"); err != nil {
		return future.Failed[interface{}](err)
	}
	return s.stubs.Update(ctx, query, data, onDone)
}

// Remove resolves zero once the guard passes.
func (s *DataSource) Remove(ctx context.Context, query datasource.Criterion, onDone func()) *future.Future[int64] {
	if err := s.Guard("remove"); err != nil {
		return future.Failed[int64](err)
	}
	return s.stubs.Remove(ctx, query, onDone)
}

// Query resolves an empty slice once the guard passes.
func (s *DataSource) Query(ctx context.Context, query datasource.Criterion, onDone func([]datasource.Record)) *future.Future[[]datasource.Record] {
	if err := s.Guard("query"); err != nil {
		return future.Failed[[]datasource.Record](err)
	}
	s.Logger().Debug("The query: %v", query)
	return s.stubs.Query(ctx, query, onDone)
}
