package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/daedong-rise/portal/internal/domain"
	"github.com/daedong-rise/portal/internal/repository"
)

// ProductService handles catalog business logic.
type ProductService struct {
	productRepo domain.ProductRepository
	logger      *zap.Logger
}

// NewProductService creates a new ProductService.
func NewProductService(productRepo domain.ProductRepository, logger *zap.Logger) *ProductService {
	return &ProductService{
		productRepo: productRepo,
		logger:      logger,
	}
}

// CreateProduct validates and stores a new catalog item. SKUs are unique.
func (s *ProductService) CreateProduct(ctx context.Context, product *domain.Product) error {
	if err := product.Validate(); err != nil {
		return err
	}

	existing, err := s.productRepo.GetBySKU(ctx, product.SKU)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("failed to check existing sku: %w", err)
	}
	if existing != nil {
		return fmt.Errorf("product with sku %q already exists", product.SKU)
	}

	if err := s.productRepo.Create(ctx, product); err != nil {
		return fmt.Errorf("failed to create product: %w", err)
	}

	s.logger.Info("product created",
		zap.String("id", product.ID.String()),
		zap.String("sku", product.SKU),
		zap.String("category", string(product.Category)),
	)
	return nil
}

// GetProduct retrieves a product by ID.
func (s *ProductService) GetProduct(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	return s.productRepo.GetByID(ctx, id)
}

// ListProducts retrieves catalog items with pagination and optional filters.
func (s *ProductService) ListProducts(ctx context.Context, page, pageSize int, filter *domain.ProductListFilter) ([]*domain.Product, int, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	offset := (page - 1) * pageSize

	products, err := s.productRepo.List(ctx, filter, pageSize, offset)
	if err != nil {
		return nil, 0, err
	}

	total, err := s.productRepo.Count(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	return products, total, nil
}

// UpdateProduct validates and stores product changes.
func (s *ProductService) UpdateProduct(ctx context.Context, product *domain.Product) error {
	if err := product.Validate(); err != nil {
		return err
	}

	if err := s.productRepo.Update(ctx, product); err != nil {
		return fmt.Errorf("failed to update product: %w", err)
	}

	s.logger.Info("product updated", zap.String("id", product.ID.String()))
	return nil
}

// DeleteProduct removes a product from the catalog.
func (s *ProductService) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	if err := s.productRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}

	s.logger.Info("product deleted", zap.String("id", id.String()))
	return nil
}
