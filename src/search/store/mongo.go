package store

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Protocol-Lattice/research-agent/src/search"
)

const mongoCloseTimeout = 5 * time.Second

// Mongo stores one document per key. Expired documents are ignored on read;
// a TTL index on expires_at lets the server reap them.
type Mongo struct {
	client     *mongo.Client
	collection *mongo.Collection
	ttl        time.Duration
	now        func() time.Time
}

type mongoEntry struct {
	Key       string          `bson:"_id"`
	Results   []search.Result `bson:"results"`
	ExpiresAt *time.Time      `bson:"expires_at,omitempty"`
}

// NewMongo connects, pings and ensures the expiry index.
func NewMongo(ctx context.Context, uri, database, collection string, ttl time.Duration) (*Mongo, error) {
	if uri == "" {
		return nil, errors.New("mongo uri is required")
	}
	if database == "" {
		return nil, errors.New("mongo database name is required")
	}
	if collection == "" {
		return nil, errors.New("mongo collection name is required")
	}
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	coll := client.Database(database).Collection(collection)
	_, err = coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "expires_at", Value: 1}},
		Options: options.Index().SetExpireAfterSeconds(0),
	})
	if err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	return &Mongo{client: client, collection: coll, ttl: ttl, now: time.Now}, nil
}

func (m *Mongo) Get(ctx context.Context, key string) ([]search.Result, bool, error) {
	var doc mongoEntry
	err := m.collection.FindOne(ctx, bson.M{"_id": key}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	if expired(doc.ExpiresAt, m.now()) {
		return nil, false, nil
	}
	return doc.Results, true, nil
}

func (m *Mongo) Put(ctx context.Context, key string, results []search.Result) error {
	doc := mongoEntry{Key: key, Results: results, ExpiresAt: expiry(m.now(), m.ttl)}
	_, err := m.collection.ReplaceOne(ctx, bson.M{"_id": key}, doc, options.Replace().SetUpsert(true))
	return err
}

// Close disconnects the client.
func (m *Mongo) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), mongoCloseTimeout)
	defer cancel()
	return m.client.Disconnect(ctx)
}

var _ search.Store = (*Mongo)(nil)
