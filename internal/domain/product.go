package domain

// Product represents a product in the catalog
type Product struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	Category    string  `json:"category"`
	InStock     bool    `json:"inStock"`
}

// ProductInput is the creation payload. Pointer fields distinguish absent from zero.
type ProductInput struct {
	Name        *string  `json:"name" validate:"required,min=1"`
	Description *string  `json:"description"`
	Price       *float64 `json:"price" validate:"required,gt=0"`
	Category    *string  `json:"category" validate:"required,min=1"`
	InStock     *bool    `json:"inStock"`
}

// ProductPatch is the update payload; only supplied fields are merged
type ProductPatch struct {
	Name        *string  `json:"name" validate:"omitempty,min=1"`
	Description *string  `json:"description"`
	Price       *float64 `json:"price" validate:"omitempty,gt=0"`
	Category    *string  `json:"category" validate:"omitempty,min=1"`
	InStock     *bool    `json:"inStock"`
}

// NewProduct builds a product from a validated input, applying defaults
func NewProduct(in ProductInput) Product {
	p := Product{InStock: true}
	if in.Name != nil {
		p.Name = *in.Name
	}
	if in.Description != nil {
		p.Description = *in.Description
	}
	if in.Price != nil {
		p.Price = *in.Price
	}
	if in.Category != nil {
		p.Category = *in.Category
	}
	if in.InStock != nil {
		p.InStock = *in.InStock
	}
	return p
}

// Apply merges the supplied patch fields onto p. The id is never touched.
func (patch ProductPatch) Apply(p Product) Product {
	if patch.Name != nil {
		p.Name = *patch.Name
	}
	if patch.Description != nil {
		p.Description = *patch.Description
	}
	if patch.Price != nil {
		p.Price = *patch.Price
	}
	if patch.Category != nil {
		p.Category = *patch.Category
	}
	if patch.InStock != nil {
		p.InStock = *patch.InStock
	}
	return p
}

// ListQuery holds the filters and pagination for listing products
type ListQuery struct {
	Category string
	MinPrice *float64
	MaxPrice *float64
	InStock  *bool
	Page     int
	Limit    int
}

const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
)

// ProductPage is one page of a filtered listing
type ProductPage struct {
	Data  []Product `json:"data"`
	Total int       `json:"total"`
	Page  int       `json:"page"`
	Limit int       `json:"limit"`
}

// Stats aggregates counts over the whole collection
type Stats struct {
	Total      int            `json:"total"`
	InStock    int            `json:"inStock"`
	OutOfStock int            `json:"outOfStock"`
	ByCategory map[string]int `json:"byCategory"`
}
