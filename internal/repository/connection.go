package repository

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const (
	mongoConnectTimeout   = 10 * time.Second
	mongoSelectionTimeout = 5 * time.Second
)

// ConnectMongoDB returns the named database once the primary answers a ping.
// Carts, products and user profiles all live in it.
func ConnectMongoDB(ctx context.Context, uri, database string) (*mongo.Database, error) {
	client, err := mongo.Connect(ctx, options.Client().
		ApplyURI(uri).
		SetAppName("go_shop").
		SetConnectTimeout(mongoConnectTimeout).
		SetServerSelectionTimeout(mongoSelectionTimeout).
		SetRetryWrites(true).
		SetMaxPoolSize(100).
		SetMinPoolSize(10))
	if err != nil {
		return nil, fmt.Errorf("connect mongodb: %w", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongodb: %w", err)
	}
	return client.Database(database), nil
}
