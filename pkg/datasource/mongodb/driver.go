package mongodb

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/redbco/redb-datasync/pkg/datasource"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"
)

const (
	defaultPingTimeout = 10 * time.Second
	defaultDatabase    = "test"
)

// DriverClient implements Client with the official MongoDB driver.
type DriverClient struct {
	PingTimeout time.Duration
}

// NewDriverClient returns a driver-backed Client.
func NewDriverClient() *DriverClient {
	return &DriverClient{PingTimeout: defaultPingTimeout}
}

// Connect dials url, pings the primary and opens the database named in the
// URL path.
func (c *DriverClient) Connect(ctx context.Context, rawURL string) (Database, error) {
	clientOptions := options.Client().ApplyURI(rawURL)

	client, err := mongo.Connect(clientOptions)
	if err != nil {
		return nil, fmt.Errorf("error connecting to database: %w", err)
	}

	timeout := c.PingTimeout
	if timeout <= 0 {
		timeout = defaultPingTimeout
	}
	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		client.Disconnect(context.Background())
		return nil, fmt.Errorf("error pinging database: %w", err)
	}

	return &driverDatabase{db: client.Database(databaseName(rawURL))}, nil
}

func databaseName(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return defaultDatabase
	}
	name := strings.Trim(u.Path, "/")
	if name == "" {
		return defaultDatabase
	}
	return name
}

func redactURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	return u.Redacted()
}

type driverDatabase struct {
	db *mongo.Database
}

func (d *driverDatabase) Collection(name string) Collection {
	return &driverCollection{coll: d.db.Collection(name)}
}

func (d *driverDatabase) Disconnect(ctx context.Context) error {
	return d.db.Client().Disconnect(ctx)
}

type driverCollection struct {
	coll *mongo.Collection
}

func (c *driverCollection) Find(ctx context.Context, filter interface{}) ([]datasource.Record, error) {
	cursor, err := c.coll.Find(ctx, toFilter(filter))
	if err != nil {
		return nil, fmt.Errorf("error querying collection %s: %w", c.coll.Name(), err)
	}
	defer cursor.Close(ctx)

	var result []map[string]interface{}
	if err := cursor.All(ctx, &result); err != nil {
		return nil, fmt.Errorf("error decoding documents: %w", err)
	}

	records := make([]datasource.Record, len(result))
	for i := range result {
		convertBSONTypes(result[i])
		records[i] = result[i]
	}
	return records, nil
}

func (c *driverCollection) InsertOne(ctx context.Context, document interface{}) (interface{}, error) {
	res, err := c.coll.InsertOne(ctx, toDocument(document))
	if err != nil {
		return nil, fmt.Errorf("error inserting document: %w", err)
	}
	return normalizeID(res.InsertedID), nil
}

func (c *driverCollection) InsertMany(ctx context.Context, documents []interface{}) ([]interface{}, error) {
	if len(documents) == 0 {
		return []interface{}{}, nil
	}

	docs := make([]interface{}, len(documents))
	for i, doc := range documents {
		docs[i] = toDocument(doc)
	}

	res, err := c.coll.InsertMany(ctx, docs)
	if err != nil {
		return nil, fmt.Errorf("error inserting documents: %w", err)
	}

	ids := make([]interface{}, len(res.InsertedIDs))
	for i, id := range res.InsertedIDs {
		ids[i] = normalizeID(id)
	}
	return ids, nil
}

func (c *driverCollection) UpdateMany(ctx context.Context, filter interface{}, update interface{}) (int64, error) {
	res, err := c.coll.UpdateMany(ctx, toFilter(filter), toDocument(update))
	if err != nil {
		return 0, fmt.Errorf("error updating documents: %w", err)
	}
	return res.ModifiedCount, nil
}

func (c *driverCollection) DeleteMany(ctx context.Context, filter interface{}) (int64, error) {
	res, err := c.coll.DeleteMany(ctx, toFilter(filter))
	if err != nil {
		return 0, fmt.Errorf("error deleting documents: %w", err)
	}
	return res.DeletedCount, nil
}

func normalizeID(id interface{}) interface{} {
	if oid, ok := id.(bson.ObjectID); ok {
		return oid.Hex()
	}
	return id
}
