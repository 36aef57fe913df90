package providers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"nf_gateway/internal/config"
)

// MongoRecordStore implements RecordStore on a MongoDB collection
type MongoRecordStore struct {
	client     *mongo.Client
	collection *mongo.Collection
	keyField   string
}

// NewMongoRecordStore connects to MongoDB and verifies the connection
func NewMongoRecordStore(ctx context.Context, cfg config.DatabaseConfig) (RecordStore, error) {
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	// Configure client options with connection pooling
	clientOptions := options.Client().
		ApplyURI(cfg.URL).
		SetMaxPoolSize(uint64(max(cfg.MaxOpenConns, 1))).
		SetMaxConnIdleTime(30 * time.Second).
		SetServerSelectionTimeout(5 * time.Second).
		SetConnectTimeout(10 * time.Second)

	client, err := mongo.Connect(connectCtx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err := client.Ping(connectCtx, readpref.Primary()); err != nil {
		client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	return &MongoRecordStore{
		client:     client,
		collection: client.Database(cfg.Name).Collection(cfg.Collection),
		keyField:   cfg.KeyField,
	}, nil
}

// Name returns the provider name
func (s *MongoRecordStore) Name() string {
	return config.RecordsDocument
}

// Get returns the first document whose key field equals key. The document
// _id is not part of the record data.
func (s *MongoRecordStore) Get(ctx context.Context, key string) (*Record, error) {
	var doc bson.M
	err := s.collection.FindOne(ctx, bson.M{s.keyField: key}, options.FindOne().SetProjection(bson.M{"_id": 0})).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrRecordNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find record: %w", err)
	}

	return &Record{Key: key, Data: map[string]any(doc)}, nil
}

// Close closes the MongoDB connection
func (s *MongoRecordStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}
