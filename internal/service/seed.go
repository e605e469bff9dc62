package service

import (
	"context"
	"fmt"

	"product-api/internal/domain"
)

// SampleProducts returns the catalog preloaded on startup when seeding is enabled
func SampleProducts() []domain.ProductInput {
	return []domain.ProductInput{
		sample("Laptop", "High-performance laptop with 16GB RAM", 1200, "electronics", true),
		sample("Smartphone", "Latest model with 128GB storage", 800, "electronics", true),
		sample("Coffee Maker", "Programmable coffee maker with timer", 50, "kitchen", false),
	}
}

// Seed creates every input through the service, stopping at the first failure
func Seed(ctx context.Context, svc ProductService, inputs []domain.ProductInput) ([]domain.Product, error) {
	created := make([]domain.Product, 0, len(inputs))
	for _, in := range inputs {
		p, err := svc.CreateProduct(ctx, in)
		if err != nil {
			return created, fmt.Errorf("failed to seed products: %w", err)
		}
		created = append(created, p)
	}
	return created, nil
}

func sample(name, description string, price float64, category string, inStock bool) domain.ProductInput {
	return domain.ProductInput{
		Name:        &name,
		Description: &description,
		Price:       &price,
		Category:    &category,
		InStock:     &inStock,
	}
}
