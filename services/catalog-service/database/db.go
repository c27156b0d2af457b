package database

import (
	"context"
	"fmt"
	"time"

	"github.com/yashrajoria/laptop-admin/backend/services/catalog-service/repository"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

var (
	MongoClient *mongo.Client
	DB          *mongo.Database
)

// ConnectWithConfig connects to MongoDB using the provided URI and database name.
func ConnectWithConfig(mongoURL, dbName string) error {
	timeoutCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(timeoutCtx, options.Client().ApplyURI(mongoURL))
	if err != nil {
		return fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	if err := client.Ping(timeoutCtx, nil); err != nil {
		return fmt.Errorf("failed to ping MongoDB: %w", err)
	}
	MongoClient = client
	DB = client.Database(dbName)
	zap.L().Info("Connected to MongoDB", zap.String("database", dbName))
	return nil
}

type uniqueIndex struct {
	collection string
	field      string
	collation  *options.Collation
}

// identifierIndexes back the application-level uniqueness checks. Name
// indexes share the case-insensitive collation used by the lookups.
var identifierIndexes = []uniqueIndex{
	{repository.Brands, "brandName", repository.CaseInsensitive},
	{repository.Categories, "categoryName", repository.CaseInsensitive},
	{repository.Components, "componentName", repository.CaseInsensitive},
	{repository.ComponentItems, "slug", nil},
	{repository.Accessories, "slug", nil},
}

// EnsureIndexes creates the unique identifier indexes and the createdAt
// sort indexes. It is idempotent.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	for _, idx := range identifierIndexes {
		opts := options.Index().SetUnique(true).SetName(idx.field + "_unique")
		if idx.collation != nil {
			opts.SetCollation(idx.collation)
		}
		coll := db.Collection(idx.collection)
		_, err := coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
			{Keys: bson.D{{Key: idx.field, Value: 1}}, Options: opts},
			{Keys: bson.D{{Key: "createdAt", Value: -1}}},
		})
		if err != nil {
			return fmt.Errorf("failed to create indexes on %s: %w", idx.collection, err)
		}
	}
	return nil
}

// Close disconnects from MongoDB.
func Close() error {
	if MongoClient == nil {
		return nil
	}
	disconnectCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := MongoClient.Disconnect(disconnectCtx); err != nil {
		return fmt.Errorf("failed to disconnect from MongoDB: %w", err)
	}
	zap.L().Info("Disconnected from MongoDB")
	return nil
}
