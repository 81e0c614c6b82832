package elasticsearch

import (
	"fmt"
	"sort"

	"github.com/redbco/redb-datasync/pkg/datasource"
)

const defaultSearchSize = 1000

// searchBody turns a resolved criterion into a search request body. A record
// that already has a "query" key is sent unchanged; other records become
// match filters on each field.
func searchBody(filter interface{}) (map[string]interface{}, error) {
	q, err := queryClause(filter)
	if err != nil {
		return nil, err
	}
	if body, ok := q.(datasource.Record); ok {
		if _, full := body["query"]; full {
			return body, nil
		}
	}
	return map[string]interface{}{
		"query": q,
		"size":  defaultSearchSize,
	}, nil
}

// queryBody is searchBody without paging, for the by-query write APIs.
func queryBody(filter interface{}) (map[string]interface{}, error) {
	q, err := queryClause(filter)
	if err != nil {
		return nil, err
	}
	if body, ok := q.(datasource.Record); ok {
		if inner, full := body["query"]; full {
			return map[string]interface{}{"query": inner}, nil
		}
	}
	return map[string]interface{}{"query": q}, nil
}

func queryClause(filter interface{}) (interface{}, error) {
	switch f := filter.(type) {
	case nil:
		return matchAll(), nil
	case string:
		if f == "" {
			return matchAll(), nil
		}
		return map[string]interface{}{
			"query_string": map[string]interface{}{"query": f},
		}, nil
	case datasource.Record:
		if _, full := f["query"]; full {
			return f, nil
		}
		if len(f) == 0 {
			return matchAll(), nil
		}
		keys := make([]string, 0, len(f))
		for k := range f {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		clauses := make([]interface{}, 0, len(keys))
		for _, k := range keys {
			clauses = append(clauses, fieldClause(k, f[k]))
		}
		return map[string]interface{}{
			"bool": map[string]interface{}{"filter": clauses},
		}, nil
	default:
		return nil, fmt.Errorf("%w: cannot translate %T into a search query", datasource.ErrOperationNotSupported, filter)
	}
}

// fieldClause matches one field value. Text fields are analyzed, so every
// token must match; keyword and numeric fields compare exactly.
func fieldClause(field string, value interface{}) map[string]interface{} {
	if field == "_id" {
		return map[string]interface{}{
			"ids": map[string]interface{}{"values": []interface{}{value}},
		}
	}
	return map[string]interface{}{
		"match": map[string]interface{}{
			field: map[string]interface{}{"query": value, "operator": "and"},
		},
	}
}

func matchAll() map[string]interface{} {
	return map[string]interface{}{"match_all": map[string]interface{}{}}
}

// updateScript assigns every field of doc on the matched documents. The _id
// that queries add to each hit is metadata and is left out.
func updateScript(doc datasource.Record) map[string]interface{} {
	fields := make(map[string]interface{}, len(doc))
	for k, v := range doc {
		if k == "_id" {
			continue
		}
		fields[k] = v
	}
	return map[string]interface{}{
		"source": "for (entry in params.doc.entrySet()) { ctx._source[entry.getKey()] = entry.getValue() }",
		"lang":   "painless",
		"params": map[string]interface{}{"doc": fields},
	}
}
