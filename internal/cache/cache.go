package cache

import (
	"context"
	"errors"
	"time"

	"github.com/fjod/go_shop/internal/domain"
)

type CartCache interface {
	Get(ctx context.Context, userID string) (*domain.Cart, error)
	// Set stores cart unless the cached copy already has the same or a
	// newer version, so a slow reader cannot overwrite a fresher write.
	Set(ctx context.Context, userID string, cart *domain.Cart) error
	Delete(ctx context.Context, userID string) error
}

var ErrCacheMiss = errors.New("cache miss")

// MaxTTL bounds how long any cart entry can live.
const MaxTTL = cartTTL + maxTTLJitter*time.Minute
