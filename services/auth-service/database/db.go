package database

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

var (
	MongoClient *mongo.Client
	DB          *mongo.Database
)

// Connect opens the MongoDB connection, retrying while the server comes up.
func Connect(mongoURL, dbName string) error {
	var lastErr error
	for attempt := 1; attempt <= 5; attempt++ {
		client, err := dial(mongoURL)
		if err == nil {
			MongoClient = client
			DB = client.Database(dbName)
			zap.L().Info("Connected to MongoDB", zap.String("database", dbName))
			return nil
		}
		lastErr = err
		zap.L().Warn("MongoDB connection failed", zap.Int("attempt", attempt), zap.Error(err))
		time.Sleep(2 * time.Second)
	}
	return fmt.Errorf("failed to connect to MongoDB after retries: %w", lastErr)
}

func dial(mongoURL string) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(mongoURL))
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return client, nil
}

// Close closes the database connection gracefully
func Close() error {
	if MongoClient == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := MongoClient.Disconnect(ctx); err != nil {
		return fmt.Errorf("failed to disconnect from MongoDB: %w", err)
	}
	return nil
}
