package mongodb

import (
	"time"

	"github.com/redbco/redb-datasync/pkg/datasource"
	"go.mongodb.org/mongo-driver/v2/bson"
)

// toFilter converts a resolved criterion into a driver filter. A nil filter
// matches every document.
func toFilter(filter interface{}) interface{} {
	switch f := filter.(type) {
	case nil:
		return bson.D{}
	case datasource.Record:
		doc := toBSONDoc(f)
		for i, e := range doc {
			if e.Key == "_id" {
				doc[i].Value = objectID(e.Value)
			}
		}
		return doc
	default:
		return f
	}
}

// objectID turns the hex form that reads hand out back into an ObjectID.
func objectID(v interface{}) interface{} {
	hex, ok := v.(string)
	if !ok {
		return v
	}
	if oid, err := bson.ObjectIDFromHex(hex); err == nil {
		return oid
	}
	return v
}

func toDocument(doc interface{}) interface{} {
	if rec, ok := doc.(datasource.Record); ok {
		return toBSONDoc(rec)
	}
	return doc
}

func toBSONDoc(m map[string]interface{}) bson.D {
	doc := bson.D{}
	for k, v := range m {
		doc = append(doc, bson.E{Key: k, Value: toBSONValue(v)})
	}
	return doc
}

func toBSONValue(v interface{}) interface{} {
	switch val := v.(type) {
	case map[string]interface{}:
		return toBSONDoc(val)
	case []interface{}:
		arr := make(bson.A, len(val))
		for i, item := range val {
			arr[i] = toBSONValue(item)
		}
		return arr
	default:
		return v
	}
}

// convertBSONTypes rewrites driver types in doc into plain values that
// serialize cleanly to JSON.
func convertBSONTypes(doc map[string]interface{}) {
	for k, v := range doc {
		doc[k] = fromBSONValue(v)
	}
}

func fromBSONValue(v interface{}) interface{} {
	switch val := v.(type) {
	case bson.ObjectID:
		return val.Hex()
	case bson.DateTime:
		return time.UnixMilli(int64(val)).UTC().Format(time.RFC3339)
	case bson.Binary:
		return string(val.Data)
	case bson.Decimal128:
		return val.String()
	case bson.D:
		nested := make(map[string]interface{}, len(val))
		for _, elem := range val {
			nested[elem.Key] = fromBSONValue(elem.Value)
		}
		return nested
	case map[string]interface{}:
		convertBSONTypes(val)
		return val
	case bson.A:
		arr := make([]interface{}, len(val))
		for i, item := range val {
			arr[i] = fromBSONValue(item)
		}
		return arr
	case []interface{}:
		for i, item := range val {
			val[i] = fromBSONValue(item)
		}
		return val
	default:
		return v
	}
}
