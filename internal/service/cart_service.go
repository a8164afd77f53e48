package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/fjod/go_shop/internal/cache"
	"github.com/fjod/go_shop/internal/domain"
	"github.com/fjod/go_shop/internal/logger"
	"github.com/fjod/go_shop/internal/repository"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
)

const (
	DefaultCartMaxRetries = 5

	cartLoadTimeout  = 5 * time.Second
	cacheOpTimeout   = time.Second
	staleCacheWindow = cache.MaxTTL + cartLoadTimeout
)

// CartService owns the per-user cart document. Every mutation is a
// read-modify-write guarded by the document version and retried on conflict.
// Saved carts are written through to the cache.
type CartService struct {
	repo       repository.CartRepository
	cache      cache.CartCache
	sfg        singleflight.Group // Prevents cache stampede
	maxRetries int
	log        logrus.FieldLogger
	now        func() time.Time

	// users whose cache entry may be stale after a failed write-through,
	// mapped to when reads may trust the cache again
	bypassMu sync.Mutex
	bypass   map[string]time.Time
}

func NewCartService(repo repository.CartRepository, cache cache.CartCache, maxRetries int, log logrus.FieldLogger) *CartService {
	if maxRetries <= 0 {
		maxRetries = DefaultCartMaxRetries
	}
	return &CartService{
		repo:       repo,
		cache:      cache,
		maxRetries: maxRetries,
		log:        log,
		now:        time.Now,
		bypass:     map[string]time.Time{},
	}
}

func (s *CartService) AddItem(ctx context.Context, userID, productID string, quantity int, price float64) ([]domain.CartItem, error) {
	return s.Execute(ctx, AddItemCommand{UserID: userID, ProductID: productID, Quantity: quantity, Price: price})
}

func (s *CartService) RemoveItem(ctx context.Context, userID, productID string) ([]domain.CartItem, error) {
	return s.Execute(ctx, RemoveItemCommand{UserID: userID, ProductID: productID})
}

func (s *CartService) GetCart(ctx context.Context, userID string) ([]domain.CartItem, error) {
	return s.Execute(ctx, GetCartCommand{UserID: userID})
}

func (s *CartService) addItem(ctx context.Context, cmd AddItemCommand) ([]domain.CartItem, error) {
	items, err := s.mutate(ctx, cmd.UserID, true, func(c *domain.Cart) error {
		c.AddItem(cmd.ProductID, cmd.Quantity, cmd.Price)
		return nil
	})
	if err != nil {
		return nil, err
	}
	logger.WithContext(ctx, s.log).WithFields(logrus.Fields{
		"user_id":    cmd.UserID,
		"product_id": cmd.ProductID,
		"quantity":   cmd.Quantity,
	}).Info("product added to cart")
	return items, nil
}

func (s *CartService) removeItem(ctx context.Context, cmd RemoveItemCommand) ([]domain.CartItem, error) {
	items, err := s.mutate(ctx, cmd.UserID, false, func(c *domain.Cart) error {
		if !c.RemoveItem(cmd.ProductID) {
			return notFoundf("product %s not in cart", cmd.ProductID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	logger.WithContext(ctx, s.log).WithFields(logrus.Fields{
		"user_id":    cmd.UserID,
		"product_id": cmd.ProductID,
	}).Info("product removed from cart")
	return items, nil
}

func (s *CartService) getCart(ctx context.Context, cmd GetCartCommand) ([]domain.CartItem, error) {
	userID := cmd.UserID
	// Use singleflight to prevent multiple concurrent cache misses for same key.
	// The load is shared, so it runs detached from any one caller's context.
	ch := s.sfg.DoChan(userID, func() (interface{}, error) {
		loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cartLoadTimeout)
		defer cancel()
		return s.loadCart(loadCtx, userID)
	})

	select {
	case <-ctx.Done():
		return nil, storage("get cart", ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		// Callers sharing a flight must not alias each other's slice.
		return res.Val.(*domain.Cart).Clone().Items, nil
	}
}

func (s *CartService) loadCart(ctx context.Context, userID string) (*domain.Cart, error) {
	log := logger.WithContext(ctx, s.log).WithField("user_id", userID)

	useCache := s.cacheTrusted(userID)
	if useCache {
		cart, err := s.cache.Get(ctx, userID)
		if err == nil {
			return cart, nil
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			log.WithError(err).Warn("cache get error")
		}
	}

	cart, err := s.repo.GetCart(ctx, userID)
	if errors.Is(err, repository.ErrCartNotFound) {
		return nil, notFoundf("cart not found for user %s", userID)
	}
	if err != nil {
		return nil, storage("get cart", err)
	}

	if useCache {
		// Rejected by the cache when a newer version was written meanwhile.
		if errSet := s.cache.Set(ctx, userID, cart); errSet != nil {
			log.WithError(errSet).Warn("cache set error")
		}
	}
	return cart, nil
}

// mutate runs apply against a fresh copy of the stored cart and writes it back
// conditionally. A missing cart is created only when create is set.
func (s *CartService) mutate(ctx context.Context, userID string, create bool, apply func(*domain.Cart) error) ([]domain.CartItem, error) {
	for attempt := 1; attempt <= s.maxRetries; attempt++ {
		cart, err := s.repo.GetCart(ctx, userID)
		switch {
		case errors.Is(err, repository.ErrCartNotFound):
			if !create {
				return nil, notFoundf("cart not found for user %s", userID)
			}
			cart = &domain.Cart{UserID: userID, Items: []domain.CartItem{}}
		case err != nil:
			return nil, storage("get cart", err)
		}

		if err := apply(cart); err != nil {
			return nil, err
		}

		err = s.repo.SaveCart(ctx, cart)
		if err == nil {
			s.writeThrough(ctx, cart)
			return cart.Items, nil
		}
		if !errors.Is(err, repository.ErrVersionConflict) {
			return nil, storage("save cart", err)
		}
		logger.WithContext(ctx, s.log).WithFields(logrus.Fields{
			"user_id": userID,
			"attempt": attempt,
		}).Debug("cart version conflict, retrying")
	}

	return nil, storage("save cart", ErrConflict)
}

// writeThrough caches the saved cart. If that fails the cached entry may be
// older than the store, so reads skip the cache until any such entry has expired.
func (s *CartService) writeThrough(ctx context.Context, cart *domain.Cart) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cacheOpTimeout)
	defer cancel()

	err := s.cache.Set(ctx, cart.UserID, cart)
	if err == nil {
		return
	}
	log := logger.WithContext(ctx, s.log).WithField("user_id", cart.UserID)
	log.WithError(err).Warn("cache write-through failed, reading from store")

	s.distrustCache(cart.UserID)
	if errDel := s.cache.Delete(ctx, cart.UserID); errDel != nil {
		log.WithError(errDel).Warn("cache invalidate error")
	}
}

func (s *CartService) distrustCache(userID string) {
	s.bypassMu.Lock()
	defer s.bypassMu.Unlock()
	s.bypass[userID] = s.now().Add(staleCacheWindow)
}

func (s *CartService) cacheTrusted(userID string) bool {
	s.bypassMu.Lock()
	defer s.bypassMu.Unlock()
	until, ok := s.bypass[userID]
	if !ok {
		return true
	}
	if s.now().Before(until) {
		return false
	}
	delete(s.bypass, userID)
	return true
}
