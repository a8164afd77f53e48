package service

import (
	"context"
	"io"
	"sync"

	"github.com/fjod/go_shop/internal/cache"
	"github.com/fjod/go_shop/internal/domain"
	"github.com/fjod/go_shop/internal/repository"
	"github.com/sirupsen/logrus"
)

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.Out = io.Discard
	return log
}

// mockCartRepository stores carts by value and enforces versions like the Mongo store.
type mockCartRepository struct {
	m         sync.RWMutex
	carts     map[string]domain.Cart
	getErr    error
	saveErr   error
	conflicts int // number of SaveCart calls to reject before succeeding
	gets      int
	saves     int
	afterGet  func() // runs once, after the next read, outside the lock
}

func newMockCartRepository() *mockCartRepository {
	return &mockCartRepository{carts: map[string]domain.Cart{}}
}

func (m *mockCartRepository) GetCart(ctx context.Context, userID string) (*domain.Cart, error) {
	m.m.Lock()
	m.gets++
	getErr := m.getErr
	c, ok := m.carts[userID]
	hook := m.afterGet
	m.afterGet = nil
	m.m.Unlock()

	if hook != nil {
		hook()
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if getErr != nil {
		return nil, getErr
	}
	if !ok {
		return nil, repository.ErrCartNotFound
	}
	return c.Clone(), nil
}

func (m *mockCartRepository) getCount() int {
	m.m.RLock()
	defer m.m.RUnlock()
	return m.gets
}

func (m *mockCartRepository) SaveCart(_ context.Context, cart *domain.Cart) error {
	m.m.Lock()
	defer m.m.Unlock()
	m.saves++
	if m.saveErr != nil {
		return m.saveErr
	}
	if m.conflicts > 0 {
		m.conflicts--
		return repository.ErrVersionConflict
	}
	stored, ok := m.carts[cart.UserID]
	if (!ok && cart.Version != 0) || (ok && stored.Version != cart.Version) {
		return repository.ErrVersionConflict
	}
	cart.Version++
	m.carts[cart.UserID] = *cart.Clone()
	return nil
}

func (m *mockCartRepository) stored(userID string) (domain.Cart, bool) {
	m.m.RLock()
	defer m.m.RUnlock()
	c, ok := m.carts[userID]
	return c, ok
}

// mockCache orders writes by cart version like the Redis cache.
type mockCache struct {
	m         sync.RWMutex
	carts     map[string]*domain.Cart
	getErr    error
	setErr    error
	deleteErr error
	deletes   int
}

func newMockCache() *mockCache {
	return &mockCache{carts: map[string]*domain.Cart{}}
}

func (m *mockCache) Get(_ context.Context, userID string) (*domain.Cart, error) {
	m.m.RLock()
	defer m.m.RUnlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	c, ok := m.carts[userID]
	if !ok {
		return nil, cache.ErrCacheMiss
	}
	return c.Clone(), nil
}

func (m *mockCache) Set(_ context.Context, userID string, cart *domain.Cart) error {
	m.m.Lock()
	defer m.m.Unlock()
	if m.setErr != nil {
		return m.setErr
	}
	if cur, ok := m.carts[userID]; ok && cur.Version >= cart.Version {
		return nil
	}
	m.carts[userID] = cart.Clone()
	return nil
}

func (m *mockCache) Delete(_ context.Context, userID string) error {
	m.m.Lock()
	defer m.m.Unlock()
	m.deletes++
	if m.deleteErr != nil {
		return m.deleteErr
	}
	delete(m.carts, userID)
	return nil
}

func (m *mockCache) version(userID string) int64 {
	m.m.RLock()
	defer m.m.RUnlock()
	if c, ok := m.carts[userID]; ok {
		return c.Version
	}
	return -1
}

func (m *mockCache) has(userID string) bool {
	m.m.RLock()
	defer m.m.RUnlock()
	_, ok := m.carts[userID]
	return ok
}
