package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/fjod/go_shop/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type mongoProductRepository struct {
	collection *mongo.Collection
}

func NewMongoProductRepository(db *mongo.Database) ProductRepository {
	return &mongoProductRepository{collection: db.Collection("products")}
}

// PutProduct creates or fully overwrites the product document.
func (m *mongoProductRepository) PutProduct(ctx context.Context, p *domain.Product) error {
	opts := options.Replace().SetUpsert(true)
	if _, err := m.collection.ReplaceOne(ctx, bson.M{"_id": p.ProductID}, p, opts); err != nil {
		return fmt.Errorf("failed to put product: %w", err)
	}
	return nil
}

func (m *mongoProductRepository) GetProduct(ctx context.Context, productID string) (*domain.Product, error) {
	var p domain.Product
	err := m.collection.FindOne(ctx, bson.M{"_id": productID}).Decode(&p)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	return &p, nil
}

func (m *mongoProductRepository) ListProducts(ctx context.Context) ([]*domain.Product, error) {
	cursor, err := m.collection.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	defer cursor.Close(ctx)

	products := []*domain.Product{}
	if err := cursor.All(ctx, &products); err != nil {
		return nil, fmt.Errorf("failed to decode products: %w", err)
	}
	return products, nil
}

// ReplaceProduct overwrites an existing product and returns the stored
// document as it is after the write.
func (m *mongoProductRepository) ReplaceProduct(ctx context.Context, p *domain.Product) (*domain.Product, error) {
	opts := options.FindOneAndReplace().SetReturnDocument(options.After)

	var updated domain.Product
	err := m.collection.FindOneAndReplace(ctx, bson.M{"_id": p.ProductID}, p, opts).Decode(&updated)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to replace product: %w", err)
	}
	return &updated, nil
}

func (m *mongoProductRepository) DeleteProduct(ctx context.Context, productID string) error {
	if _, err := m.collection.DeleteOne(ctx, bson.M{"_id": productID}); err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}
	return nil
}
