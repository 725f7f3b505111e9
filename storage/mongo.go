package storage

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const collectionName = "captions"

type MongoStorage struct {
	client     *mongo.Client
	collection *mongo.Collection
	log        *slog.Logger
}

func NewMongoStorage(uri, database string, log *slog.Logger) (*MongoStorage, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connecting to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("pinging MongoDB: %w", err)
	}

	collection := client.Database(database).Collection(collectionName)

	// Create index on user_id + created_at for history queries
	_, err = collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}},
	})
	if err != nil {
		log.Warn("creating index", slog.String("error", err.Error()))
	}

	return &MongoStorage{
		client:     client,
		collection: collection,
		log:        log,
	}, nil
}

func (m *MongoStorage) GetUserCaptions(userId int64, limit int) ([]Caption, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	if limit > 0 {
		opts = opts.SetLimit(int64(limit))
	}

	cursor, err := m.collection.Find(ctx, bson.M{"user_id": userId}, opts)
	if err != nil {
		return nil, fmt.Errorf("finding captions: %w", err)
	}
	defer func(cursor *mongo.Cursor, ctx context.Context) {
		err := cursor.Close(ctx)
		if err != nil {
			m.log.Warn("closing cursor", slog.String("error", err.Error()))
		}
	}(cursor, ctx)

	var captions []Caption
	if err := cursor.All(ctx, &captions); err != nil {
		return nil, fmt.Errorf("decoding captions: %w", err)
	}
	return captions, nil
}

func (m *MongoStorage) SaveCaption(caption Caption) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if caption.CreatedAt.IsZero() {
		caption.CreatedAt = time.Now()
	}

	_, err := m.collection.InsertOne(ctx, caption)
	return err
}

func (m *MongoStorage) ClearUserCaptions(userId int64) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := m.collection.DeleteMany(ctx, bson.M{"user_id": userId})
	return err
}

func (m *MongoStorage) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return m.client.Disconnect(ctx)
}

// GetClient returns the MongoDB client for sharing with other storages
func (m *MongoStorage) GetClient() *mongo.Client {
	return m.client
}

// GetDatabase returns the database name
func (m *MongoStorage) GetDatabase() string {
	return m.collection.Database().Name()
}
