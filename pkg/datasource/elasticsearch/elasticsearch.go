// Package elasticsearch implements a search-index data source on an
// Elasticsearch cluster. The collection is the index name and every write is
// refreshed so the next query sees it.
package elasticsearch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/redbco/redb-datasync/pkg/datasource"
	"github.com/redbco/redb-datasync/pkg/future"
)

func init() {
	datasource.Register(datasource.TypeElasticsearch, func(client interface{}, opts ...datasource.Option) datasource.DataSource {
		c, _ := client.(*elasticsearch.Client)
		return New(c, opts...)
	})
}

// DataSource is the Elasticsearch adapter.
type DataSource struct {
	*datasource.Base

	client *elasticsearch.Client

	mu         sync.Mutex
	connecting bool
	gen        uint64
}

var _ datasource.DataSource = (*DataSource)(nil)

// New creates an adapter over client.
func New(client *elasticsearch.Client, opts ...datasource.Option) *DataSource {
	return &DataSource{
		Base:   datasource.NewBase(datasource.TypeElasticsearch, datasource.StyleSearch, datasource.ApplyOptions(opts...)),
		client: client,
	}
}

// Connect checks the cluster answers and binds index.
func (e *DataSource) Connect(ctx context.Context, url, index string) *future.Future[bool] {
	log := e.Logger()

	if e.client == nil {
		log.Error("no client was passed.")
		return future.Failed[bool](datasource.NewConnectionError(datasource.TypeElasticsearch, url, datasource.ErrNoClient))
	}

	e.mu.Lock()
	if e.connecting || e.IsConnected() {
		e.mu.Unlock()
		log.Warn("elasticsearch datasource %s already connected", e.ID())
		return future.Resolved(false)
	}
	e.connecting = true
	gen := e.gen
	e.mu.Unlock()

	result := future.New[bool]()
	go func() {
		err := e.ping(ctx)

		e.mu.Lock()
		stale := e.gen != gen
		if !stale {
			e.connecting = false
		}
		e.mu.Unlock()

		if stale {
			log.Warn("elasticsearch datasource %s closed while connecting", e.ID())
			result.Resolve(false)
			return
		}
		if err != nil {
			connErr := datasource.NewConnectionError(datasource.TypeElasticsearch, url, err)
			log.Error("%v", connErr)
			result.Reject(connErr)
			return
		}

		e.Mutate(func(s *datasource.ConnState) {
			s.Connected = true
			s.URL = url
			s.Style = datasource.StyleSearch
			s.Collection = index
		})
		log.Info("Connected to Elasticsearch at %s", url)
		result.Resolve(true)
	}()
	return result
}

func (e *DataSource) ping(ctx context.Context) error {
	res, err := e.client.Info(e.client.Info.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("error connecting to Elasticsearch: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("error response from Elasticsearch: %s", res.String())
	}
	return nil
}

// Close forgets the connection. The HTTP transport is left to the caller.
// Calling it twice is safe.
func (e *DataSource) Close() error {
	e.mu.Lock()
	e.connecting = false
	e.gen++
	e.mu.Unlock()

	e.Mutate(func(s *datasource.ConnState) {
		s.Connected = false
		s.Collection = ""
	})
	return nil
}

// SetCollection binds the index name.
func (e *DataSource) SetCollection(name string) {
	if !datasource.ValidCollectionName(name) {
		e.Logger().Debug("no collection set")
		return
	}
	e.Mutate(func(s *datasource.ConnState) {
		s.Collection = name
	})
}

// Insert indexes one document, or a sequence through the bulk API.
func (e *DataSource) Insert(ctx context.Context, data interface{}, onDone func(datasource.InsertResult)) *future.Future[datasource.InsertResult] {
	if err := e.Guard("insert"); err != nil {
		return future.Failed[datasource.InsertResult](err)
	}
	index := e.Collection()

	result := future.New[datasource.InsertResult]()
	go func() {
		var (
			res datasource.InsertResult
			err error
		)
		if datasource.IsSequence(data) {
			res, err = e.bulkIndex(ctx, index, datasource.Elements(data))
		} else {
			res, err = e.indexOne(ctx, index, data)
		}
		if err != nil {
			e.fail(result, "insert", err)
			return
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

func (e *DataSource) indexOne(ctx context.Context, index string, doc interface{}) (datasource.InsertResult, error) {
	body, id, err := encodeDocument(doc)
	if err != nil {
		return datasource.InsertResult{}, err
	}

	opts := []func(*esapi.IndexRequest){
		e.client.Index.WithContext(ctx),
		e.client.Index.WithRefresh("true"),
	}
	if id != "" {
		opts = append(opts, e.client.Index.WithDocumentID(id))
	}

	res, err := e.client.Index(index, bytes.NewReader(body), opts...)
	if err != nil {
		return datasource.InsertResult{}, fmt.Errorf("error indexing document: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return datasource.InsertResult{}, fmt.Errorf("error response from Elasticsearch: %s", res.String())
	}

	var indexResponse struct {
		ID string `json:"_id"`
	}
	if err := json.NewDecoder(res.Body).Decode(&indexResponse); err != nil {
		return datasource.InsertResult{}, fmt.Errorf("error parsing index response: %w", err)
	}

	return datasource.InsertResult{InsertedIDs: []interface{}{indexResponse.ID}, Count: 1}, nil
}

func (e *DataSource) bulkIndex(ctx context.Context, index string, docs []interface{}) (datasource.InsertResult, error) {
	res := datasource.InsertResult{InsertedIDs: []interface{}{}, Bulk: true}
	if len(docs) == 0 {
		return res, nil
	}

	var buf bytes.Buffer
	for _, doc := range docs {
		body, id, err := encodeDocument(doc)
		if err != nil {
			return res, err
		}

		meta := map[string]interface{}{"_index": index}
		if id != "" {
			meta["_id"] = id
		}
		if err := json.NewEncoder(&buf).Encode(map[string]interface{}{"index": meta}); err != nil {
			return res, fmt.Errorf("error encoding action: %w", err)
		}
		buf.Write(body)
		buf.WriteByte('\n')
	}

	bulkRes, err := e.client.Bulk(
		bytes.NewReader(buf.Bytes()),
		e.client.Bulk.WithContext(ctx),
		e.client.Bulk.WithIndex(index),
		e.client.Bulk.WithRefresh("true"),
	)
	if err != nil {
		return res, fmt.Errorf("error executing bulk request: %w", err)
	}
	defer bulkRes.Body.Close()

	if bulkRes.IsError() {
		return res, fmt.Errorf("error response from Elasticsearch: %s", bulkRes.String())
	}

	var bulkResponse struct {
		Errors bool `json:"errors"`
		Items  []map[string]struct {
			ID     string          `json:"_id"`
			Status int             `json:"status"`
			Error  json.RawMessage `json:"error"`
		} `json:"items"`
	}
	if err := json.NewDecoder(bulkRes.Body).Decode(&bulkResponse); err != nil {
		return res, fmt.Errorf("error parsing bulk response: %w", err)
	}

	var (
		firstErr string
		failed   int64
	)
	for _, item := range bulkResponse.Items {
		op, ok := item["index"]
		if !ok {
			continue
		}
		if len(op.Error) > 0 {
			if firstErr == "" {
				firstErr = string(op.Error)
			}
			failed++
			continue
		}
		res.InsertedIDs = append(res.InsertedIDs, op.ID)
		res.Count++
	}
	if failed > 0 || bulkResponse.Errors {
		return res, datasource.NewOperationError(datasource.TypeElasticsearch, "insert",
			fmt.Errorf("bulk request failed for %d of %d documents: %s", failed, len(docs), firstErr)).
			WithContext("indexed", res.Count).
			WithContext("failed", failed).
			WithContext("indexed_ids", res.InsertedIDs)
	}
	return res, nil
}

// Update assigns the fields of data on every document matching query.
func (e *DataSource) Update(ctx context.Context, query datasource.Criterion, data interface{}, onDone func(interface{})) *future.Future[interface{}] {
	if err := e.Guard("update"); err != nil {
		return future.Failed[interface{}](err)
	}
	index := e.Collection()

	doc, ok := data.(datasource.Record)
	if !ok {
		err := datasource.NewOperationError(datasource.TypeElasticsearch, "update",
			fmt.Errorf("%w, got %T", datasource.ErrInvalidUpdate, data))
		e.Logger().Error("%v", err)
		return future.Failed[interface{}](err)
	}

	body, err := queryBody(query.Resolve())
	if err != nil {
		return future.Failed[interface{}](datasource.WrapError(datasource.TypeElasticsearch, "update", err))
	}
	body["script"] = updateScript(doc)

	result := future.New[interface{}]()
	go func() {
		if _, err := e.byQuery(ctx, "update", index, body); err != nil {
			e.fail(result, "update", err)
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
func (e *DataSource) Remove(ctx context.Context, query datasource.Criterion, onDone func()) *future.Future[int64] {
	if err := e.Guard("remove"); err != nil {
		return future.Failed[int64](err)
	}
	index := e.Collection()

	body, err := queryBody(query.Resolve())
	if err != nil {
		return future.Failed[int64](datasource.WrapError(datasource.TypeElasticsearch, "remove", err))
	}

	result := future.New[int64]()
	go func() {
		n, err := e.byQuery(ctx, "remove", index, body)
		if err != nil {
			e.fail(result, "remove", err)
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

func (e *DataSource) byQuery(ctx context.Context, op, index string, body map[string]interface{}) (int64, error) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return 0, fmt.Errorf("error encoding query: %w", err)
	}

	var (
		res *esapi.Response
		err error
	)
	if op == "update" {
		res, err = e.client.UpdateByQuery(
			[]string{index},
			e.client.UpdateByQuery.WithContext(ctx),
			e.client.UpdateByQuery.WithBody(&buf),
			e.client.UpdateByQuery.WithRefresh(true),
			e.client.UpdateByQuery.WithConflicts("proceed"),
		)
	} else {
		res, err = e.client.DeleteByQuery(
			[]string{index},
			&buf,
			e.client.DeleteByQuery.WithContext(ctx),
			e.client.DeleteByQuery.WithRefresh(true),
			e.client.DeleteByQuery.WithConflicts("proceed"),
		)
	}
	if err != nil {
		return 0, fmt.Errorf("error executing %s by query: %w", op, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return 0, fmt.Errorf("error response from Elasticsearch: %s", res.String())
	}

	var byQueryResponse struct {
		Updated int64 `json:"updated"`
		Deleted int64 `json:"deleted"`
	}
	if err := json.NewDecoder(res.Body).Decode(&byQueryResponse); err != nil {
		return 0, fmt.Errorf("error parsing %s response: %w", op, err)
	}
	if op == "update" {
		return byQueryResponse.Updated, nil
	}
	return byQueryResponse.Deleted, nil
}

// Query searches the index. Each hit's source is returned with its _id.
func (e *DataSource) Query(ctx context.Context, query datasource.Criterion, onDone func([]datasource.Record)) *future.Future[[]datasource.Record] {
	if err := e.Guard("query"); err != nil {
		return future.Failed[[]datasource.Record](err)
	}
	index := e.Collection()

	filter := query.Resolve()
	e.Logger().Debug("The query: %v", filter)

	body, err := searchBody(filter)
	if err != nil {
		return future.Failed[[]datasource.Record](datasource.WrapError(datasource.TypeElasticsearch, "query", err))
	}

	result := future.New[[]datasource.Record]()
	go func() {
		docs, err := e.search(ctx, index, body)
		if err != nil {
			e.fail(result, "query", err)
			return
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

func (e *DataSource) search(ctx context.Context, index string, body map[string]interface{}) ([]datasource.Record, error) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return nil, fmt.Errorf("error encoding query: %w", err)
	}

	res, err := e.client.Search(
		e.client.Search.WithContext(ctx),
		e.client.Search.WithIndex(index),
		e.client.Search.WithBody(&buf),
	)
	if err != nil {
		return nil, fmt.Errorf("error searching index %s: %w", index, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("error response from Elasticsearch: %s", res.String())
	}

	var searchResponse struct {
		Hits struct {
			Hits []struct {
				ID     string                 `json:"_id"`
				Source map[string]interface{} `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&searchResponse); err != nil {
		return nil, fmt.Errorf("error parsing response: %w", err)
	}

	docs := make([]datasource.Record, 0, len(searchResponse.Hits.Hits))
	for _, hit := range searchResponse.Hits.Hits {
		if hit.Source == nil {
			continue
		}
		hit.Source["_id"] = hit.ID
		docs = append(docs, hit.Source)
	}
	return docs, nil
}

type rejecter interface {
	Reject(err error) bool
}

func (e *DataSource) fail(f rejecter, op string, err error) {
	opErr := datasource.WrapError(datasource.TypeElasticsearch, op, err)
	e.Logger().Error("%v", opErr)
	f.Reject(opErr)
}

// encodeDocument serializes doc for indexing. An _id field on a record is
// lifted out and used as the document id.
func encodeDocument(doc interface{}) ([]byte, string, error) {
	var id string
	if rec, ok := doc.(datasource.Record); ok {
		if raw, has := rec["_id"]; has {
			id = fmt.Sprintf("%v", raw)
			trimmed := make(datasource.Record, len(rec)-1)
			for k, v := range rec {
				if k != "_id" {
					trimmed[k] = v
				}
			}
			doc = trimmed
		}
	}

	body, err := json.Marshal(doc)
	if err != nil {
		return nil, "", fmt.Errorf("error encoding document: %w", err)
	}
	return body, id, nil
}
