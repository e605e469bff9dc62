package service

import (
	"context"
	"fmt"

	"product-api/internal/domain"
	"product-api/internal/repository"

	"go.uber.org/zap"
)

// ProductService defines the interface for product business logic
type ProductService interface {
	ListProducts(ctx context.Context, query domain.ListQuery) (domain.ProductPage, error)
	GetProduct(ctx context.Context, id string) (domain.Product, error)
	CreateProduct(ctx context.Context, input domain.ProductInput) (domain.Product, error)
	UpdateProduct(ctx context.Context, id string, patch domain.ProductPatch) (domain.Product, error)
	DeleteProduct(ctx context.Context, id string) error
	SearchProducts(ctx context.Context, name string) ([]domain.Product, error)
	GetStats(ctx context.Context) (domain.Stats, error)
}

type productService struct {
	productRepo repository.ProductRepository
	logger      *zap.Logger
}

// NewProductService creates a new instance of ProductService
func NewProductService(productRepo repository.ProductRepository, logger *zap.Logger) ProductService {
	return &productService{
		productRepo: productRepo,
		logger:      logger,
	}
}

// ListProducts returns a filtered, paginated view of the catalog
func (s *productService) ListProducts(ctx context.Context, query domain.ListQuery) (domain.ProductPage, error) {
	page, err := s.productRepo.List(ctx, query)
	if err != nil {
		return domain.ProductPage{}, fmt.Errorf("failed to list products: %w", err)
	}
	return page, nil
}

// GetProduct retrieves a product by id
func (s *productService) GetProduct(ctx context.Context, id string) (domain.Product, error) {
	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		return domain.Product{}, fmt.Errorf("failed to get product %s: %w", id, err)
	}
	return product, nil
}

// CreateProduct validates the input and stores a new product
func (s *productService) CreateProduct(ctx context.Context, input domain.ProductInput) (domain.Product, error) {
	if err := domain.ValidateInput(input); err != nil {
		return domain.Product{}, err
	}

	product, err := s.productRepo.Create(ctx, domain.NewProduct(input))
	if err != nil {
		return domain.Product{}, fmt.Errorf("failed to create product: %w", err)
	}

	s.logger.Info("Product created",
		zap.String("product_id", product.ID),
		zap.String("category", product.Category),
	)
	return product, nil
}

// UpdateProduct validates the supplied fields and merges them onto the product.
// Price is only checked when the patch carries one.
func (s *productService) UpdateProduct(ctx context.Context, id string, patch domain.ProductPatch) (domain.Product, error) {
	if err := domain.ValidatePatch(patch); err != nil {
		return domain.Product{}, err
	}

	product, err := s.productRepo.Update(ctx, id, patch)
	if err != nil {
		return domain.Product{}, fmt.Errorf("failed to update product %s: %w", id, err)
	}

	s.logger.Info("Product updated", zap.String("product_id", product.ID))
	return product, nil
}

// DeleteProduct removes a product by id
func (s *productService) DeleteProduct(ctx context.Context, id string) error {
	if err := s.productRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete product %s: %w", id, err)
	}

	s.logger.Info("Product deleted", zap.String("product_id", id))
	return nil
}

// SearchProducts finds products by case-insensitive name substring
func (s *productService) SearchProducts(ctx context.Context, name string) ([]domain.Product, error) {
	if name == "" {
		return nil, domain.Validation("name query parameter is required",
			domain.FieldError{Field: "name", Message: "this field is required"},
		)
	}

	products, err := s.productRepo.Search(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("failed to search products: %w", err)
	}
	return products, nil
}

// GetStats aggregates stock and category counts
func (s *productService) GetStats(ctx context.Context) (domain.Stats, error) {
	stats, err := s.productRepo.Stats(ctx)
	if err != nil {
		return domain.Stats{}, fmt.Errorf("failed to compute product stats: %w", err)
	}
	return stats, nil
}
