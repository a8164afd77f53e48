package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fjod/go_shop/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

type mongoCartRepository struct {
	collection *mongo.Collection
	now        func() time.Time
}

// cartDocument is the stored shape; the user id is the document key.
type cartDocument struct {
	UserID    string            `bson:"_id"`
	Items     []domain.CartItem `bson:"items"`
	Version   int64             `bson:"version"`
	CreatedAt time.Time         `bson:"created_at"`
	UpdatedAt time.Time         `bson:"updated_at"`
}

func NewMongoCartRepository(db *mongo.Database) CartRepository {
	return &mongoCartRepository{
		collection: db.Collection("carts"),
		now:        time.Now,
	}
}

func (m *mongoCartRepository) GetCart(ctx context.Context, userID string) (*domain.Cart, error) {
	var doc cartDocument

	err := m.collection.FindOne(ctx, bson.M{"_id": userID}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrCartNotFound
		}
		return nil, fmt.Errorf("failed to get cart: %w", err)
	}

	items := doc.Items
	if items == nil {
		items = []domain.CartItem{}
	}
	return &domain.Cart{
		UserID:    doc.UserID,
		Items:     items,
		Version:   doc.Version,
		CreatedAt: doc.CreatedAt,
		UpdatedAt: doc.UpdatedAt,
	}, nil
}

func (m *mongoCartRepository) SaveCart(ctx context.Context, cart *domain.Cart) error {
	now := m.now()
	items := cart.Items
	if items == nil {
		items = []domain.CartItem{}
	}

	if cart.Version == 0 {
		doc := cartDocument{
			UserID:    cart.UserID,
			Items:     items,
			Version:   1,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if _, err := m.collection.InsertOne(ctx, doc); err != nil {
			if mongo.IsDuplicateKeyError(err) {
				return ErrVersionConflict
			}
			return fmt.Errorf("failed to create cart: %w", err)
		}
		cart.Version = 1
		cart.CreatedAt = now
		cart.UpdatedAt = now
		return nil
	}

	filter := bson.M{"_id": cart.UserID, "version": cart.Version}
	update := bson.M{
		"$set": bson.M{
			"items":      items,
			"updated_at": now,
		},
		"$inc": bson.M{"version": 1},
	}

	result, err := m.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to save cart: %w", err)
	}
	if result.MatchedCount == 0 {
		return ErrVersionConflict
	}

	cart.Version++
	cart.UpdatedAt = now
	return nil
}
