package service

import (
	"context"
	"errors"
	"time"

	"github.com/fjod/go_shop/internal/domain"
	"github.com/fjod/go_shop/internal/logger"
	"github.com/fjod/go_shop/internal/repository"
	"github.com/sirupsen/logrus"
)

type CatalogService struct {
	repo repository.ProductRepository
	log  logrus.FieldLogger
	now  func() time.Time
}

func NewCatalogService(repo repository.ProductRepository, log logrus.FieldLogger) *CatalogService {
	return &CatalogService{repo: repo, log: log, now: time.Now}
}

func (s *CatalogService) CreateProduct(ctx context.Context, p domain.Product) (*domain.Product, error) {
	if p.ProductID == "" || p.Name == "" || p.Price <= 0 || p.Stock <= 0 {
		return nil, invalidf("productId, name, price and stock are required")
	}

	now := s.now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now
	if err := s.repo.PutProduct(ctx, &p); err != nil {
		return nil, storage("put product", err)
	}

	logger.WithContext(ctx, s.log).WithField("product_id", p.ProductID).Info("product created")
	return &p, nil
}

// UpdateProduct merges patch over the stored product and returns the result.
func (s *CatalogService) UpdateProduct(ctx context.Context, productID string, patch domain.ProductPatch) (*domain.Product, error) {
	if productID == "" {
		return nil, invalidf("productId is required")
	}

	current, err := s.repo.GetProduct(ctx, productID)
	if errors.Is(err, repository.ErrProductNotFound) {
		return nil, notFoundf("product %s not found", productID)
	}
	if err != nil {
		return nil, storage("get product", err)
	}

	patch.Apply(current, s.now().UTC())
	updated, err := s.repo.ReplaceProduct(ctx, current)
	if errors.Is(err, repository.ErrProductNotFound) {
		return nil, notFoundf("product %s not found", productID)
	}
	if err != nil {
		return nil, storage("replace product", err)
	}

	logger.WithContext(ctx, s.log).WithField("product_id", productID).Info("product updated")
	return updated, nil
}

func (s *CatalogService) GetProduct(ctx context.Context, productID string) (*domain.Product, error) {
	if productID == "" {
		return nil, invalidf("productId is required")
	}

	p, err := s.repo.GetProduct(ctx, productID)
	if errors.Is(err, repository.ErrProductNotFound) {
		return nil, notFoundf("product %s not found", productID)
	}
	if err != nil {
		return nil, storage("get product", err)
	}
	return p, nil
}

func (s *CatalogService) ListProducts(ctx context.Context) ([]*domain.Product, error) {
	products, err := s.repo.ListProducts(ctx)
	if err != nil {
		return nil, storage("list products", err)
	}
	if products == nil {
		products = []*domain.Product{}
	}
	return products, nil
}

// DeleteProduct succeeds whether or not the product existed.
func (s *CatalogService) DeleteProduct(ctx context.Context, productID string) error {
	if productID == "" {
		return invalidf("productId is required")
	}
	if err := s.repo.DeleteProduct(ctx, productID); err != nil {
		return storage("delete product", err)
	}
	logger.WithContext(ctx, s.log).WithField("product_id", productID).Info("product deleted")
	return nil
}
