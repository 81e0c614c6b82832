package solr

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/redbco/redb-datasync/pkg/datasource"
	"github.com/redbco/redb-datasync/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *logger.Logger {
	l := logger.New("solr-test")
	l.DisableConsoleOutput()
	return l
}

func pingServer(t *testing.T, status int) (*httptest.Server, *string) {
	t.Helper()
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/solr/books/admin/ping" {
			http.NotFound(w, r)
			return
		}
		if u, p, ok := r.BasicAuth(); ok {
			auth = u + ":" + p
		}
		w.WriteHeader(status)
		w.Write([]byte(`{"status":"OK"}`))
	}))
	t.Cleanup(srv.Close)
	return srv, &auth
}

func TestConnectPingsCore(t *testing.T) {
	srv, auth := pingServer(t, http.StatusOK)
	ds := New(NewHTTPPinger(srv.Client()), datasource.WithLogger(quietLogger()))

	base := strings.Replace(srv.URL, "http://", "http://solr:secret@", 1) + "/solr/books"
	ok, err := ds.Connect(context.Background(), base, "books").Wait(context.Background())

	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, ds.IsConnected())
	assert.Equal(t, datasource.StyleSearch, ds.Style())
	assert.Equal(t, "books", ds.Collection())
	assert.Equal(t, "solr:secret", *auth)
}

func TestConnectPingFailure(t *testing.T) {
	srv, _ := pingServer(t, http.StatusServiceUnavailable)
	ds := New(NewHTTPPinger(srv.Client()), datasource.WithLogger(quietLogger()))

	ok, err := ds.Connect(context.Background(), srv.URL+"/solr/books", "books").Wait(context.Background())

	assert.False(t, ok)
	assert.True(t, datasource.IsConnectionError(err))
	assert.Contains(t, err.Error(), "503")
	assert.False(t, ds.IsConnected())
}

func TestConnectWithoutClient(t *testing.T) {
	ds := New(nil, datasource.WithLogger(quietLogger()))

	ok, err := ds.Connect(context.Background(), "http://localhost:8983/solr/books", "books").Wait(context.Background())

	assert.False(t, ok)
	assert.ErrorIs(t, err, datasource.ErrNoClient)
}

func TestOperationsAreGuardedStubs(t *testing.T) {
	ctx := context.Background()
	srv, _ := pingServer(t, http.StatusOK)
	ds := New(NewHTTPPinger(srv.Client()), datasource.WithLogger(quietLogger()))

	_, err := ds.Query(ctx, datasource.Criterion{}, nil).Wait(ctx)
	assert.True(t, datasource.IsNotConnected(err))

	_, err = ds.Connect(ctx, srv.URL+"/solr/books", "books").Wait(ctx)
	require.NoError(t, err)

	called := false
	res, err := ds.Insert(ctx, []datasource.Record{{"a": 1}}, func(datasource.InsertResult) { called = true }).Wait(ctx)
	require.NoError(t, err)
	assert.True(t, res.Bulk)
	assert.Zero(t, res.Count)

	data, err := ds.Update(ctx, datasource.Criterion{}, datasource.Record{"a": 2}, nil).Wait(ctx)
	require.NoError(t, err)
	assert.Equal(t, datasource.Record{"a": 2}, data)

	removed, err := ds.Remove(ctx, datasource.Criterion{}, func() { called = true }).Wait(ctx)
	require.NoError(t, err)
	assert.Zero(t, removed)

	records, err := ds.Query(ctx, datasource.Where(datasource.Record{"a": 1}), nil).Wait(ctx)
	require.NoError(t, err)
	assert.Empty(t, records)
	assert.False(t, called)
}

func TestFactoryAcceptsHTTPClient(t *testing.T) {
	srv, _ := pingServer(t, http.StatusOK)

	ds := datasource.New("solr", srv.Client(), datasource.WithLogger(quietLogger()))
	require.NotNil(t, ds)

	ok, err := ds.Connect(context.Background(), srv.URL+"/solr/books", "books").Wait(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestCloseTwice(t *testing.T) {
	ctx := context.Background()
	srv, _ := pingServer(t, http.StatusOK)
	ds := New(NewHTTPPinger(srv.Client()), datasource.WithLogger(quietLogger()))

	_, err := ds.Connect(ctx, srv.URL+"/solr/books", "books").Wait(ctx)
	require.NoError(t, err)

	require.NoError(t, ds.Close())
	require.NoError(t, ds.Close())
	assert.False(t, ds.IsConnected())
	assert.Empty(t, ds.Collection())

	_, err = ds.Query(ctx, datasource.Criterion{}, nil).Wait(ctx)
	assert.True(t, datasource.IsNotConnected(err))
}

type gatedPinger struct {
	gate chan struct{}
}

func (p gatedPinger) Ping(ctx context.Context, url string) error {
	<-p.gate
	return nil
}

func TestCloseDuringConnectDiscardsConnection(t *testing.T) {
	gate := make(chan struct{})
	ds := New(gatedPinger{gate: gate}, datasource.WithLogger(quietLogger()))

	f := ds.Connect(context.Background(), "http://localhost:8983/solr/books", "books")
	require.NoError(t, ds.Close())
	close(gate)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	ok, err := f.Wait(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.False(t, ds.IsConnected())
}
