package http

import (
	"context"
	"net/http"
	"time"

	"github.com/fjod/go_shop/internal/domain"
	"github.com/sirupsen/logrus"
)

type Catalog interface {
	CreateProduct(ctx context.Context, p domain.Product) (*domain.Product, error)
	UpdateProduct(ctx context.Context, productID string, patch domain.ProductPatch) (*domain.Product, error)
	GetProduct(ctx context.Context, productID string) (*domain.Product, error)
	ListProducts(ctx context.Context) ([]*domain.Product, error)
	DeleteProduct(ctx context.Context, productID string) error
}

type CatalogHandler struct {
	catalog Catalog
	timeout time.Duration
	log     logrus.FieldLogger
}

func NewCatalogHandler(catalog Catalog, timeout time.Duration, log logrus.FieldLogger) *CatalogHandler {
	return &CatalogHandler{catalog: catalog, timeout: timeout, log: log}
}

type CatalogRequestDTO struct {
	Action      string  `json:"action"`
	ProductID   string  `json:"productId"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	Size        string  `json:"size"`
	Color       string  `json:"color"`
	Stock       int     `json:"stock"`
}

type ProductCreatedResponse struct {
	Message string          `json:"message"`
	Product *domain.Product `json:"product"`
}

type ProductUpdatedResponse struct {
	Message        string          `json:"message"`
	UpdatedProduct *domain.Product `json:"updatedProduct"`
}

func (h *CatalogHandler) Handle(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req CatalogRequestDTO
	if !decodeBody(w, r, &req) {
		return
	}

	switch req.Action {
	case "create":
		p, err := h.catalog.CreateProduct(ctx, domain.Product{
			ProductID:   req.ProductID,
			Name:        req.Name,
			Description: req.Description,
			Price:       req.Price,
			Size:        req.Size,
			Color:       req.Color,
			Stock:       req.Stock,
		})
		if err != nil {
			handleServiceError(ctx, w, h.log, err, "error creating product")
			return
		}
		respondJSON(w, http.StatusCreated, ProductCreatedResponse{Message: "Product created successfully", Product: p})

	case "update":
		p, err := h.catalog.UpdateProduct(ctx, req.ProductID, domain.ProductPatch{
			Name:        req.Name,
			Description: req.Description,
			Price:       req.Price,
			Size:        req.Size,
			Color:       req.Color,
			Stock:       req.Stock,
		})
		if err != nil {
			handleServiceError(ctx, w, h.log, err, "error updating product")
			return
		}
		respondJSON(w, http.StatusOK, ProductUpdatedResponse{Message: "Product updated successfully", UpdatedProduct: p})

	case "get":
		p, err := h.catalog.GetProduct(ctx, req.ProductID)
		if err != nil {
			handleServiceError(ctx, w, h.log, err, "error getting product")
			return
		}
		respondJSON(w, http.StatusOK, p)

	case "list":
		products, err := h.catalog.ListProducts(ctx)
		if err != nil {
			handleServiceError(ctx, w, h.log, err, "error listing products")
			return
		}
		respondJSON(w, http.StatusOK, products)

	case "delete":
		if err := h.catalog.DeleteProduct(ctx, req.ProductID); err != nil {
			handleServiceError(ctx, w, h.log, err, "error deleting product")
			return
		}
		respondJSON(w, http.StatusOK, MessageResponse{Message: "Product deleted successfully"})

	default:
		h.log.WithField("action", req.Action).Warn("invalid catalog action")
		respondInvalidAction(w)
	}
}
