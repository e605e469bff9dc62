package repository

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"product-api/internal/domain"

	"github.com/google/uuid"
)

var (
	ErrProductNotFound = domain.NotFound("product not found")
)

// ProductRepository defines the interface for product data access
type ProductRepository interface {
	Create(ctx context.Context, product domain.Product) (domain.Product, error)
	Update(ctx context.Context, id string, patch domain.ProductPatch) (domain.Product, error)
	Delete(ctx context.Context, id string) error
	FindByID(ctx context.Context, id string) (domain.Product, error)
	List(ctx context.Context, query domain.ListQuery) (domain.ProductPage, error)
	Search(ctx context.Context, name string) ([]domain.Product, error)
	Stats(ctx context.Context) (domain.Stats, error)
}

type memoryProductRepository struct {
	mu       sync.RWMutex
	products []domain.Product
	newID    func() string
}

// NewProductRepository creates an empty in-memory ProductRepository
func NewProductRepository() ProductRepository {
	return newMemoryProductRepository(uuid.NewString)
}

func newMemoryProductRepository(newID func() string) *memoryProductRepository {
	return &memoryProductRepository{
		products: []domain.Product{},
		newID:    newID,
	}
}

// Create assigns a fresh id and appends the product
func (r *memoryProductRepository) Create(ctx context.Context, product domain.Product) (domain.Product, error) {
	if err := ctx.Err(); err != nil {
		return domain.Product{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	product.ID = r.newID()
	if r.indexOf(product.ID) != -1 {
		return domain.Product{}, fmt.Errorf("failed to create product: duplicate id %s", product.ID)
	}

	r.products = append(r.products, product)
	return product, nil
}

// Update merges the patch onto the stored product
func (r *memoryProductRepository) Update(ctx context.Context, id string, patch domain.ProductPatch) (domain.Product, error) {
	if err := ctx.Err(); err != nil {
		return domain.Product{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexOf(id)
	if i == -1 {
		return domain.Product{}, ErrProductNotFound
	}

	r.products[i] = patch.Apply(r.products[i])
	return r.products[i], nil
}

// Delete removes a product by id
func (r *memoryProductRepository) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexOf(id)
	if i == -1 {
		return ErrProductNotFound
	}

	r.products = append(r.products[:i], r.products[i+1:]...)
	return nil
}

// FindByID retrieves a product by id
func (r *memoryProductRepository) FindByID(ctx context.Context, id string) (domain.Product, error) {
	if err := ctx.Err(); err != nil {
		return domain.Product{}, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	i := r.indexOf(id)
	if i == -1 {
		return domain.Product{}, ErrProductNotFound
	}
	return r.products[i], nil
}

// List returns one page of the products matching every supplied filter.
// Out-of-range pages, including pages below 1, return an empty Data slice.
func (r *memoryProductRepository) List(ctx context.Context, query domain.ListQuery) (domain.ProductPage, error) {
	if err := ctx.Err(); err != nil {
		return domain.ProductPage{}, err
	}

	if query.Limit < 1 {
		query.Limit = domain.DefaultLimit
	}

	r.mu.RLock()
	filtered := []domain.Product{}
	for _, p := range r.products {
		if matchesQuery(p, query) {
			filtered = append(filtered, p)
		}
	}
	r.mu.RUnlock()

	start, end := pageBounds(query.Page, query.Limit, len(filtered))

	return domain.ProductPage{
		Data:  filtered[start:end],
		Total: len(filtered),
		Page:  query.Page,
		Limit: query.Limit,
	}, nil
}

// Search returns products whose name contains name, ignoring case
func (r *memoryProductRepository) Search(ctx context.Context, name string) ([]domain.Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	needle := strings.ToLower(name)

	r.mu.RLock()
	defer r.mu.RUnlock()

	results := []domain.Product{}
	for _, p := range r.products {
		if strings.Contains(strings.ToLower(p.Name), needle) {
			results = append(results, p)
		}
	}
	return results, nil
}

// Stats counts products over the whole collection
func (r *memoryProductRepository) Stats(ctx context.Context) (domain.Stats, error) {
	if err := ctx.Err(); err != nil {
		return domain.Stats{}, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	stats := domain.Stats{
		Total:      len(r.products),
		ByCategory: make(map[string]int),
	}
	for _, p := range r.products {
		if p.InStock {
			stats.InStock++
		} else {
			stats.OutOfStock++
		}
		stats.ByCategory[p.Category]++
	}
	return stats, nil
}

// indexOf must be called with r.mu held
func (r *memoryProductRepository) indexOf(id string) int {
	for i, p := range r.products {
		if p.ID == id {
			return i
		}
	}
	return -1
}

func matchesQuery(p domain.Product, q domain.ListQuery) bool {
	if q.Category != "" && !strings.EqualFold(p.Category, q.Category) {
		return false
	}
	// Negated so a NaN bound matches nothing
	if q.MinPrice != nil && !(p.Price >= *q.MinPrice) {
		return false
	}
	if q.MaxPrice != nil && !(p.Price <= *q.MaxPrice) {
		return false
	}
	if q.InStock != nil && p.InStock != *q.InStock {
		return false
	}
	return true
}

// pageBounds returns the [start, end) slice bounds of a 1-based page over n items.
// Pages below 1 or past the end yield start == end == n.
func pageBounds(page, limit, n int) (int, int) {
	if page < 1 || page-1 > n/limit {
		return n, n
	}
	start := clamp((page-1)*limit, 0, n)
	return start, start + min(limit, n-start)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
