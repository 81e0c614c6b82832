package memory

import (
	"context"
	"testing"

	"github.com/redbco/redb-datasync/pkg/datasource"
	"github.com/redbco/redb-datasync/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSource(t *testing.T) *DataSource {
	t.Helper()
	log := logger.New("memory-test")
	log.DisableConsoleOutput()
	return New(datasource.WithLogger(log))
}

func TestConnectIsSynchronous(t *testing.T) {
	ds := newTestSource(t)

	f := ds.Connect(context.Background(), "mem://local", "users")

	assert.True(t, f.IsSettled())
	ok, err := f.Result()
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, ds.IsConnected())
	assert.Equal(t, datasource.StyleArray, ds.Style())
	assert.Equal(t, "mem://local", ds.URL())
	assert.Equal(t, "users", ds.Collection())
}

func TestInsertPreservesOrder(t *testing.T) {
	ctx := context.Background()
	ds := newTestSource(t)
	ds.Connect(ctx, "mem://local", "")

	ds.Insert(ctx, "monkey", nil)
	ds.Insert(ctx, datasource.Record{"name": "ape"}, nil)
	ds.Insert(ctx, []interface{}{"a", "b"}, nil)

	assert.Equal(t, []interface{}{"monkey", datasource.Record{"name": "ape"}, "a", "b"}, ds.Items())
}

func TestInsertReportsToCallback(t *testing.T) {
	ctx := context.Background()
	ds := newTestSource(t)
	ds.Connect(ctx, "mem://local", "users")

	var got datasource.InsertResult
	res, err := ds.Insert(ctx, []datasource.Record{{"a": 1}, {"a": 2}}, func(r datasource.InsertResult) {
		got = r
	}).Wait(ctx)

	require.NoError(t, err)
	assert.Equal(t, res, got)
	assert.True(t, res.Bulk)
	assert.Equal(t, int64(2), res.Count)
	assert.Equal(t, []interface{}{0, 1}, res.InsertedIDs)
}

func TestOperationsRequireConnection(t *testing.T) {
	ctx := context.Background()
	ds := newTestSource(t)

	called := false
	_, err := ds.Insert(ctx, "monkey", func(datasource.InsertResult) { called = true }).Wait(ctx)

	assert.True(t, datasource.IsNotConnected(err))
	assert.False(t, called)
	assert.Zero(t, ds.Len())
}

func TestQueryUpdateRemove(t *testing.T) {
	ctx := context.Background()
	ds := newTestSource(t)
	ds.Connect(ctx, "mem://local", "users")
	ds.Insert(ctx, []datasource.Record{
		{"id": 1, "name": "x"},
		{"id": 2, "name": "y"},
		{"id": 3, "name": "x"},
	}, nil)

	records, err := ds.Query(ctx, datasource.Where(datasource.Record{"name": "x"}), nil).Wait(ctx)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, 1, records[0]["id"])
	assert.Equal(t, 3, records[1]["id"])

	_, err = ds.Update(ctx, datasource.Where(datasource.Record{"id": 2}), datasource.Record{"name": "z"}, nil).Wait(ctx)
	require.NoError(t, err)

	records, err = ds.Query(ctx, datasource.Lazy(func() interface{} {
		return datasource.Record{"id": 2}
	}), nil).Wait(ctx)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "z", records[0]["name"])

	removeCalled := false
	removed, err := ds.Remove(ctx, datasource.Where(datasource.Record{"name": "x"}), func() { removeCalled = true }).Wait(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), removed)
	assert.True(t, removeCalled)
	assert.Equal(t, 1, ds.Len())
}

func TestQueryReturnsCopies(t *testing.T) {
	ctx := context.Background()
	ds := newTestSource(t)
	ds.Connect(ctx, "mem://local", "users")
	ds.Insert(ctx, datasource.Record{"name": "x"}, nil)

	records, _ := ds.Query(ctx, datasource.Criterion{}, nil).Wait(ctx)
	records[0]["name"] = "mutated"

	again, _ := ds.Query(ctx, datasource.Criterion{}, nil).Wait(ctx)
	assert.Equal(t, "x", again[0]["name"])
}

func TestCloseIsIdempotent(t *testing.T) {
	ctx := context.Background()
	ds := newTestSource(t)
	ds.Connect(ctx, "mem://local", "users")
	ds.Insert(ctx, "monkey", nil)

	require.NoError(t, ds.Close())
	assert.False(t, ds.IsConnected())
	assert.Empty(t, ds.Collection())
	assert.Zero(t, ds.Len())

	require.NoError(t, ds.Close())
	assert.False(t, ds.IsConnected())
}

func TestSetCollectionIgnoresInvalidNames(t *testing.T) {
	ds := newTestSource(t)

	ds.SetCollection("users")
	ds.SetCollection("not valid")

	assert.Equal(t, "users", ds.Collection())
}

func TestFactoryRegistration(t *testing.T) {
	ds := datasource.New("memory", nil)
	require.NotNil(t, ds)

	ok, err := ds.Connect(context.Background(), "mem://local", "").Wait(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, datasource.StyleArray, ds.Style())

	assert.Nil(t, datasource.New("unknown-token", nil))
}

func TestConnectTwiceIsNoOp(t *testing.T) {
	ctx := context.Background()
	ds := newTestSource(t)

	ok, err := ds.Connect(ctx, "mem://local", "users").Wait(ctx)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = ds.Connect(ctx, "mem://other", "orders").Wait(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, "mem://local", ds.URL())
	assert.Equal(t, "users", ds.Collection())
}

func TestCallbackPanicRejects(t *testing.T) {
	ctx := context.Background()
	ds := newTestSource(t)
	ds.Connect(ctx, "mem://local", "users")

	var err error
	assert.NotPanics(t, func() {
		_, err = ds.Insert(ctx, datasource.Record{"a": 1}, func(datasource.InsertResult) { panic("boom") }).Wait(ctx)
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")

	assert.NotPanics(t, func() {
		_, err = ds.Query(ctx, datasource.Criterion{}, func([]datasource.Record) { panic("boom") }).Wait(ctx)
	})
	assert.Contains(t, err.Error(), "boom")

	assert.NotPanics(t, func() {
		_, err = ds.Remove(ctx, datasource.Criterion{}, func() { panic("boom") }).Wait(ctx)
	})
	assert.Contains(t, err.Error(), "boom")
}

func TestUpdateRejectsNonRecordData(t *testing.T) {
	ctx := context.Background()
	ds := newTestSource(t)
	ds.Connect(ctx, "mem://local", "users")
	ds.Insert(ctx, []datasource.Record{{"id": 1, "name": "a"}, {"id": 2, "name": "b"}}, nil)

	called := false
	_, err := ds.Update(ctx, datasource.Where(datasource.Record{"id": 1}),
		[]datasource.Record{{"id": 1, "name": "z"}}, func(interface{}) { called = true }).Wait(ctx)

	assert.True(t, datasource.IsOperationError(err))
	assert.ErrorIs(t, err, datasource.ErrInvalidUpdate)
	assert.False(t, called)

	records, err := ds.Query(ctx, datasource.Criterion{}, nil).Wait(ctx)
	require.NoError(t, err)
	assert.Len(t, records, 2)
	assert.Equal(t, "a", records[0]["name"])
}
