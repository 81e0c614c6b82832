package mongodb

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/redbco/redb-datasync/pkg/datasource"
	"github.com/redbco/redb-datasync/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClient struct {
	err   error
	gate  chan struct{}
	db    *fakeDatabase
	calls int
}

func (c *fakeClient) Connect(ctx context.Context, url string) (Database, error) {
	c.calls++
	if c.gate != nil {
		<-c.gate
	}
	if c.err != nil {
		return nil, c.err
	}
	return c.db, nil
}

type fakeDatabase struct {
	coll        *fakeCollection
	disconnects int
}

func (d *fakeDatabase) Collection(name string) Collection {
	d.coll.name = name
	return d.coll
}

func (d *fakeDatabase) Disconnect(ctx context.Context) error {
	d.disconnects++
	return nil
}

type fakeCollection struct {
	mu         sync.Mutex
	name       string
	insertOne  []interface{}
	insertMany [][]interface{}
	lastFilter interface{}
	lastUpdate interface{}
	docs       []datasource.Record
	err        error
}

func (c *fakeCollection) Find(ctx context.Context, filter interface{}) ([]datasource.Record, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastFilter = filter
	return c.docs, c.err
}

func (c *fakeCollection) InsertOne(ctx context.Context, document interface{}) (interface{}, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return nil, c.err
	}
	c.insertOne = append(c.insertOne, document)
	return "id-1", nil
}

func (c *fakeCollection) InsertMany(ctx context.Context, documents []interface{}) ([]interface{}, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return nil, c.err
	}
	c.insertMany = append(c.insertMany, documents)
	ids := make([]interface{}, len(documents))
	for i := range documents {
		ids[i] = i
	}
	return ids, nil
}

func (c *fakeCollection) UpdateMany(ctx context.Context, filter interface{}, update interface{}) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastFilter = filter
	c.lastUpdate = update
	return 1, c.err
}

func (c *fakeCollection) DeleteMany(ctx context.Context, filter interface{}) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastFilter = filter
	return 3, c.err
}

func quietLogger() *logger.Logger {
	l := logger.New("mongodb-test")
	l.DisableConsoleOutput()
	return l
}

func connected(t *testing.T) (*DataSource, *fakeCollection, *fakeDatabase) {
	t.Helper()
	coll := &fakeCollection{}
	db := &fakeDatabase{coll: coll}
	ds := New(&fakeClient{db: db}, datasource.WithLogger(quietLogger()))

	ok, err := ds.Connect(context.Background(), "mongodb://localhost:27017/app", "users").Wait(context.Background())
	require.NoError(t, err)
	require.True(t, ok)
	return ds, coll, db
}

func TestConnectWithoutClient(t *testing.T) {
	ds := New(nil, datasource.WithLogger(quietLogger()))

	ok, err := ds.Connect(context.Background(), "mongodb://localhost", "users").Wait(context.Background())

	assert.False(t, ok)
	assert.True(t, datasource.IsConnectionError(err))
	assert.ErrorIs(t, err, datasource.ErrNoClient)
	assert.False(t, ds.IsConnected())
}

func TestConnectIsAsynchronous(t *testing.T) {
	gate := make(chan struct{})
	client := &fakeClient{gate: gate, db: &fakeDatabase{coll: &fakeCollection{}}}
	ds := New(client, datasource.WithLogger(quietLogger()))

	f := ds.Connect(context.Background(), "mongodb://localhost/app", "users")
	assert.False(t, f.IsSettled())
	assert.False(t, ds.IsConnected())

	again, err := ds.Connect(context.Background(), "mongodb://localhost/app", "users").Result()
	require.NoError(t, err)
	assert.False(t, again)

	close(gate)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	ok, err := f.Wait(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, ds.IsConnected())
	assert.Equal(t, "users", ds.Collection())
	assert.Equal(t, datasource.StyleDatabase, ds.Style())
	assert.Equal(t, 1, client.calls)
}

func TestConnectFailure(t *testing.T) {
	ds := New(&fakeClient{err: errors.New("refused")}, datasource.WithLogger(quietLogger()))

	ok, err := ds.Connect(context.Background(), "mongodb://localhost", "users").Wait(context.Background())

	assert.False(t, ok)
	assert.True(t, datasource.IsConnectionError(err))
	assert.False(t, ds.IsConnected())
}

func TestCloseDuringConnectDiscardsConnection(t *testing.T) {
	gate := make(chan struct{})
	db := &fakeDatabase{coll: &fakeCollection{}}
	ds := New(&fakeClient{gate: gate, db: db}, datasource.WithLogger(quietLogger()))

	f := ds.Connect(context.Background(), "mongodb://localhost/app", "users")
	require.NoError(t, ds.Close())
	close(gate)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	ok, err := f.Wait(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.False(t, ds.IsConnected())
	assert.Equal(t, 1, db.disconnects)

	_, err = ds.Query(ctx, datasource.Criterion{}, nil).Wait(ctx)
	assert.True(t, datasource.IsNotConnected(err))
}

func TestInsertDispatch(t *testing.T) {
	ctx := context.Background()
	ds, coll, _ := connected(t)

	single, err := ds.Insert(ctx, datasource.Record{"name": "x"}, nil).Wait(ctx)
	require.NoError(t, err)
	assert.False(t, single.Bulk)
	assert.Equal(t, []interface{}{"id-1"}, single.InsertedIDs)

	var got datasource.InsertResult
	bulk, err := ds.Insert(ctx, []datasource.Record{{"a": 1}, {"a": 2}}, func(r datasource.InsertResult) {
		got = r
	}).Wait(ctx)
	require.NoError(t, err)
	assert.True(t, bulk.Bulk)
	assert.Equal(t, int64(2), bulk.Count)
	assert.Equal(t, bulk, got)

	assert.Len(t, coll.insertOne, 1)
	require.Len(t, coll.insertMany, 1)
	assert.Len(t, coll.insertMany[0], 2)
}

func TestOperationsRequireCollection(t *testing.T) {
	ctx := context.Background()
	ds := New(&fakeClient{db: &fakeDatabase{coll: &fakeCollection{}}}, datasource.WithLogger(quietLogger()))

	called := false
	_, err := ds.Query(ctx, datasource.Criterion{}, func([]datasource.Record) { called = true }).Wait(ctx)
	assert.True(t, datasource.IsNotConnected(err))

	ok, err := ds.Connect(ctx, "mongodb://localhost/app", "").Wait(ctx)
	require.NoError(t, err)
	require.True(t, ok)

	_, err = ds.Insert(ctx, datasource.Record{"a": 1}, nil).Wait(ctx)
	assert.True(t, datasource.IsNotConnected(err))
	assert.False(t, called)

	ds.SetCollection("users")
	_, err = ds.Insert(ctx, datasource.Record{"a": 1}, nil).Wait(ctx)
	assert.NoError(t, err)
}

func TestUpdateWrapsPlainFields(t *testing.T) {
	ctx := context.Background()
	ds, coll, _ := connected(t)

	var done interface{}
	data := datasource.Record{"name": "z"}
	res, err := ds.Update(ctx, datasource.Where(datasource.Record{"id": 2}), data, func(d interface{}) { done = d }).Wait(ctx)
	require.NoError(t, err)
	assert.Equal(t, data, res)
	assert.Equal(t, data, done)
	assert.Equal(t, datasource.Record{"id": 2}, coll.lastFilter)
	assert.Equal(t, datasource.Record{"$set": data}, coll.lastUpdate)

	inc := datasource.Record{"$inc": datasource.Record{"n": 1}}
	_, err = ds.Update(ctx, datasource.Criterion{}, inc, nil).Wait(ctx)
	require.NoError(t, err)
	assert.Equal(t, inc, coll.lastUpdate)
}

func TestUpdateDropsDocumentID(t *testing.T) {
	ctx := context.Background()
	ds, coll, _ := connected(t)

	fetched := datasource.Record{"_id": "65f1c2a9e4b0a1b2c3d4e5f6", "name": "z"}
	_, err := ds.Update(ctx, datasource.Where(datasource.Record{"_id": fetched["_id"]}), fetched, nil).Wait(ctx)
	require.NoError(t, err)
	assert.Equal(t, datasource.Record{"$set": datasource.Record{"name": "z"}}, coll.lastUpdate)
	assert.Equal(t, "65f1c2a9e4b0a1b2c3d4e5f6", fetched["_id"])
}

func TestUpdateRejectsNonRecordData(t *testing.T) {
	ctx := context.Background()
	ds, coll, _ := connected(t)

	called := false
	_, err := ds.Update(ctx, datasource.Criterion{}, []datasource.Record{{"name": "z"}}, func(interface{}) { called = true }).Wait(ctx)
	require.Error(t, err)
	assert.True(t, datasource.IsOperationError(err))
	assert.ErrorIs(t, err, datasource.ErrInvalidUpdate)
	assert.False(t, called)
	assert.Nil(t, coll.lastUpdate)
}

func TestQueryResolvesLazyCriterion(t *testing.T) {
	ctx := context.Background()
	ds, coll, _ := connected(t)
	coll.docs = []datasource.Record{{"name": "x"}}

	id := 1
	crit := datasource.Lazy(func() interface{} { return datasource.Record{"id": id} })

	_, err := ds.Query(ctx, crit, nil).Wait(ctx)
	require.NoError(t, err)
	assert.Equal(t, datasource.Record{"id": 1}, coll.lastFilter)

	id = 2
	docs, err := ds.Query(ctx, crit, nil).Wait(ctx)
	require.NoError(t, err)
	assert.Equal(t, datasource.Record{"id": 2}, coll.lastFilter)
	assert.Equal(t, coll.docs, docs)
}

func TestOperationErrorsSkipCallback(t *testing.T) {
	ctx := context.Background()
	ds, coll, _ := connected(t)
	coll.err = errors.New("boom")

	called := false
	_, err := ds.Remove(ctx, datasource.Criterion{}, func() { called = true }).Wait(ctx)

	assert.True(t, datasource.IsOperationError(err))
	assert.False(t, called)
}

func TestCallbackPanicRejects(t *testing.T) {
	ctx := context.Background()
	ds, _, _ := connected(t)

	_, err := ds.Remove(ctx, datasource.Criterion{}, func() { panic("bad callback") }).Wait(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad callback")
}

func TestCloseTwice(t *testing.T) {
	ds, _, db := connected(t)

	require.NoError(t, ds.Close())
	require.NoError(t, ds.Close())
	assert.Equal(t, 1, db.disconnects)
	assert.False(t, ds.IsConnected())
}

func TestFactoryRegistration(t *testing.T) {
	ds := datasource.New("MongoDB", nil, datasource.WithLogger(quietLogger()))
	require.NotNil(t, ds)
	assert.Equal(t, datasource.TypeMongoDB, ds.Type())

	_, err := ds.Connect(context.Background(), "mongodb://localhost", "users").Wait(context.Background())
	assert.ErrorIs(t, err, datasource.ErrNoClient)
}
