// Package mongodb implements a document-database data source. Connecting runs
// in the background and the returned future settles once the native client
// has answered.
package mongodb

import (
	"context"
	"strings"
	"sync"

	"github.com/redbco/redb-datasync/pkg/datasource"
	"github.com/redbco/redb-datasync/pkg/future"
)

func init() {
	datasource.Register(datasource.TypeMongoDB, func(client interface{}, opts ...datasource.Option) datasource.DataSource {
		c, _ := client.(Client)
		return New(c, opts...)
	})
}

// DataSource talks to a document database through a native Client.
type DataSource struct {
	*datasource.Base

	client Client

	mu         sync.RWMutex
	db         Database
	coll       Collection
	connecting bool
	// bumped by Close so a connect still in flight is discarded
	gen uint64
}

var _ datasource.DataSource = (*DataSource)(nil)

// New creates an adapter over client. A nil client is accepted; Connect will
// then fail with ErrNoClient.
func New(client Client, opts ...datasource.Option) *DataSource {
	return &DataSource{
		Base:   datasource.NewBase(datasource.TypeMongoDB, datasource.StyleDatabase, datasource.ApplyOptions(opts...)),
		client: client,
	}
}

// Connect opens the database at url and binds collection when it is not
// empty. The future resolves true on success and false with a
// *ConnectionError on failure. Connecting an adapter that is already
// connected, or has a connect in flight, resolves false without error.
func (m *DataSource) Connect(ctx context.Context, url, collection string) *future.Future[bool] {
	log := m.Logger()

	if m.client == nil {
		log.Error("no client was passed.")
		return future.Failed[bool](datasource.NewConnectionError(datasource.TypeMongoDB, url, datasource.ErrNoClient))
	}

	m.mu.Lock()
	if m.connecting || m.IsConnected() {
		m.mu.Unlock()
		log.Warn("mongodb datasource %s already connected", m.ID())
		return future.Resolved(false)
	}
	m.connecting = true
	gen := m.gen
	m.mu.Unlock()

	result := future.New[bool]()
	go func() {
		db, err := m.client.Connect(ctx, url)
		if err != nil {
			m.mu.Lock()
			if m.gen == gen {
				m.connecting = false
			}
			m.mu.Unlock()

			connErr := datasource.NewConnectionError(datasource.TypeMongoDB, url, err)
			log.Error("%v", connErr)
			result.Reject(connErr)
			return
		}

		m.mu.Lock()
		if m.gen != gen {
			m.mu.Unlock()
			log.Warn("mongodb datasource %s closed while connecting", m.ID())
			_ = db.Disconnect(context.Background())
			result.Resolve(false)
			return
		}
		m.db = db
		if collection != "" {
			m.coll = db.Collection(collection)
		}
		m.connecting = false
		m.mu.Unlock()

		m.Mutate(func(s *datasource.ConnState) {
			s.Connected = true
			s.URL = url
			s.Style = datasource.StyleDatabase
			s.Collection = collection
		})
		log.Info("Connected to %s", redactURL(url))
		result.Resolve(true)
	}()
	return result
}

// Close disconnects the native database. Calling it twice is safe.
func (m *DataSource) Close() error {
	m.mu.Lock()
	db := m.db
	m.db = nil
	m.coll = nil
	m.connecting = false
	m.gen++
	m.mu.Unlock()

	m.Mutate(func(s *datasource.ConnState) {
		s.Connected = false
		s.Collection = ""
	})

	if db == nil {
		return nil
	}
	if err := db.Disconnect(context.Background()); err != nil {
		return datasource.WrapError(datasource.TypeMongoDB, "close", err)
	}
	return nil
}

// SetCollection binds name. It does nothing before a database is open.
func (m *DataSource) SetCollection(name string) {
	if !datasource.ValidCollectionName(name) {
		m.Logger().Debug("no collection set")
		return
	}

	m.mu.Lock()
	if m.db == nil {
		m.mu.Unlock()
		m.Logger().Debug("no database to bind collection %s to", name)
		return
	}
	m.coll = m.db.Collection(name)
	m.mu.Unlock()

	m.Mutate(func(s *datasource.ConnState) {
		s.Collection = name
	})
}

func (m *DataSource) collection(op string) (Collection, error) {
	m.mu.RLock()
	coll := m.coll
	m.mu.RUnlock()

	if coll == nil {
		s := m.State()
		err := datasource.NewNotConnectedError(datasource.TypeMongoDB, op, s.Connected, s.Collection)
		m.Logger().Error("%s", err.Error())
		return nil, err
	}
	if err := m.Guard(op); err != nil {
		return nil, err
	}
	return coll, nil
}

// Insert stores data. A sequence goes through InsertMany, anything else
// through InsertOne.
func (m *DataSource) Insert(ctx context.Context, data interface{}, onDone func(datasource.InsertResult)) *future.Future[datasource.InsertResult] {
	coll, err := m.collection("insert")
	if err != nil {
		return future.Failed[datasource.InsertResult](err)
	}

	result := future.New[datasource.InsertResult]()
	go func() {
		var res datasource.InsertResult
		if datasource.IsSequence(data) {
			ids, err := coll.InsertMany(ctx, datasource.Elements(data))
			if err != nil {
				m.fail(result, "insert", err)
				return
			}
			res = datasource.InsertResult{InsertedIDs: ids, Count: int64(len(ids)), Bulk: true}
		} else {
			id, err := coll.InsertOne(ctx, data)
			if err != nil {
				m.fail(result, "insert", err)
				return
			}
			res = datasource.InsertResult{InsertedIDs: []interface{}{id}, Count: 1}
		}

		if onDone != nil {
			if err := datasource.SafeCall(func() { onDone(res) }); err != nil {
				result.Reject(err)
				return
			}
		}
		result.Resolve(res)
	}()
	return result
}

// Update applies data to every document matching query. data must be a
// Record. Plain field maps are wrapped in $set without their _id; documents
// that already carry update operators are sent as they are.
func (m *DataSource) Update(ctx context.Context, query datasource.Criterion, data interface{}, onDone func(interface{})) *future.Future[interface{}] {
	coll, err := m.collection("update")
	if err != nil {
		return future.Failed[interface{}](err)
	}
	rec, ok := data.(datasource.Record)
	if !ok {
		opErr := datasource.NewOperationError(datasource.TypeMongoDB, "update", datasource.ErrInvalidUpdate)
		m.Logger().Error("%v", opErr)
		return future.Failed[interface{}](opErr)
	}

	filter := query.Resolve()
	result := future.New[interface{}]()
	go func() {
		if _, err := coll.UpdateMany(ctx, filter, updateDocument(rec)); err != nil {
			m.fail(result, "update", err)
			return
		}
		if onDone != nil {
			if err := datasource.SafeCall(func() { onDone(data) }); err != nil {
				result.Reject(err)
				return
			}
		}
		result.Resolve(data)
	}()
	return result
}

// Remove deletes every document matching query.
func (m *DataSource) Remove(ctx context.Context, query datasource.Criterion, onDone func()) *future.Future[int64] {
	coll, err := m.collection("remove")
	if err != nil {
		return future.Failed[int64](err)
	}

	filter := query.Resolve()
	result := future.New[int64]()
	go func() {
		n, err := coll.DeleteMany(ctx, filter)
		if err != nil {
			m.fail(result, "remove", err)
			return
		}
		if onDone != nil {
			if err := datasource.SafeCall(onDone); err != nil {
				result.Reject(err)
				return
			}
		}
		result.Resolve(n)
	}()
	return result
}

// Query returns the documents matching query.
func (m *DataSource) Query(ctx context.Context, query datasource.Criterion, onDone func([]datasource.Record)) *future.Future[[]datasource.Record] {
	coll, err := m.collection("query")
	if err != nil {
		return future.Failed[[]datasource.Record](err)
	}

	filter := query.Resolve()
	m.Logger().Debug("The query: %v", filter)

	result := future.New[[]datasource.Record]()
	go func() {
		docs, err := coll.Find(ctx, filter)
		if err != nil {
			m.fail(result, "query", err)
			return
		}
		if docs == nil {
			docs = []datasource.Record{}
		}
		if onDone != nil {
			if err := datasource.SafeCall(func() { onDone(docs) }); err != nil {
				result.Reject(err)
				return
			}
		}
		result.Resolve(docs)
	}()
	return result
}

type rejecter interface {
	Reject(err error) bool
}

func (m *DataSource) fail(f rejecter, op string, err error) {
	opErr := datasource.WrapError(datasource.TypeMongoDB, op, err)
	m.Logger().Error("%v", opErr)
	f.Reject(opErr)
}

func updateDocument(rec datasource.Record) datasource.Record {
	for k := range rec {
		if strings.HasPrefix(k, "$") {
			return rec
		}
	}
	fields := make(datasource.Record, len(rec))
	for k, v := range rec {
		if k == "_id" {
			continue
		}
		fields[k] = v
	}
	return datasource.Record{"$set": fields}
}
