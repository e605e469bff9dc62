package transport

import (
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"product-api/internal/domain"
	"product-api/internal/middleware"
	"product-api/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// ProductHandler handles HTTP requests for product operations
type ProductHandler struct {
	productService service.ProductService
	logger         *zap.Logger
}

// NewProductHandler creates a new ProductHandler
func NewProductHandler(productService service.ProductService, logger *zap.Logger) *ProductHandler {
	return &ProductHandler{
		productService: productService,
		logger:         logger,
	}
}

// RegisterRoutes registers all product routes
func (h *ProductHandler) RegisterRoutes(r chi.Router, authMiddleware func(http.Handler) http.Handler) {
	r.Route("/api/products", func(r chi.Router) {
		// Public routes
		r.Get("/", h.ListProducts)
		r.Get("/search", h.SearchProducts)
		r.Get("/stats", h.GetStats)
		r.Get("/{id}", h.GetProduct)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware)
			r.Post("/", h.CreateProduct)
			r.Put("/{id}", h.UpdateProduct)
			r.Delete("/{id}", h.DeleteProduct)
		})
	})
}

// ListProducts godoc
// @Summary List products
// @Description Filter and paginate the catalog
// @Tags products
// @Produce json
// @Param category query string false "Category, case-insensitive"
// @Param page query int false "Page number; pages outside the result are empty" default(1)
// @Param limit query int false "Page size, capped at 100" default(10)
// @Param minPrice query number false "Minimum price, inclusive"
// @Param maxPrice query number false "Maximum price, inclusive"
// @Param inStock query bool false "Stock status"
// @Success 200 {object} domain.ProductPage
// @Router /api/products [get]
func (h *ProductHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	page, err := h.productService.ListProducts(r.Context(), parseListQuery(r.URL.Query()))
	if err != nil {
		middleware.RespondWithAppError(w, r, h.logger, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, page)
}

// SearchProducts godoc
// @Summary Search products by name
// @Tags products
// @Produce json
// @Param name query string true "Case-insensitive name fragment"
// @Success 200 {array} domain.Product
// @Failure 400 {object} middleware.ErrorResponse
// @Router /api/products/search [get]
func (h *ProductHandler) SearchProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.productService.SearchProducts(r.Context(), r.URL.Query().Get("name"))
	if err != nil {
		middleware.RespondWithAppError(w, r, h.logger, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, products)
}

// GetStats godoc
// @Summary Catalog statistics
// @Tags products
// @Produce json
// @Success 200 {object} domain.Stats
// @Router /api/products/stats [get]
func (h *ProductHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.productService.GetStats(r.Context())
	if err != nil {
		middleware.RespondWithAppError(w, r, h.logger, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, stats)
}

// GetProduct godoc
// @Summary Get product by ID
// @Tags products
// @Produce json
// @Param id path string true "Product ID"
// @Success 200 {object} domain.Product
// @Failure 404 {object} middleware.ErrorResponse
// @Router /api/products/{id} [get]
func (h *ProductHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	product, err := h.productService.GetProduct(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		middleware.RespondWithAppError(w, r, h.logger, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, product)
}

// CreateProduct godoc
// @Summary Create a product
// @Tags products
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param product body domain.ProductInput true "Product to add"
// @Success 201 {object} domain.Product
// @Failure 400 {object} middleware.ErrorResponse
// @Failure 401 {object} middleware.ErrorResponse
// @Router /api/products [post]
func (h *ProductHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var input domain.ProductInput
	if err := middleware.DecodeJSON(w, r, &input); err != nil {
		middleware.RespondWithAppError(w, r, h.logger, err)
		return
	}

	product, err := h.productService.CreateProduct(r.Context(), input)
	if err != nil {
		middleware.RespondWithAppError(w, r, h.logger, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusCreated, product)
}

// UpdateProduct godoc
// @Summary Update a product
// @Description Merges the supplied fields onto the product; the id never changes
// @Tags products
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "Product ID"
// @Param product body domain.ProductPatch true "Fields to change"
// @Success 200 {object} domain.Product
// @Failure 400 {object} middleware.ErrorResponse
// @Failure 401 {object} middleware.ErrorResponse
// @Failure 404 {object} middleware.ErrorResponse
// @Router /api/products/{id} [put]
func (h *ProductHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	var patch domain.ProductPatch
	if err := middleware.DecodeJSON(w, r, &patch); err != nil {
		middleware.RespondWithAppError(w, r, h.logger, err)
		return
	}

	product, err := h.productService.UpdateProduct(r.Context(), chi.URLParam(r, "id"), patch)
	if err != nil {
		middleware.RespondWithAppError(w, r, h.logger, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, product)
}

// DeleteProduct godoc
// @Summary Delete a product
// @Tags products
// @Security ApiKeyAuth
// @Param id path string true "Product ID"
// @Success 204 "Deleted"
// @Failure 401 {object} middleware.ErrorResponse
// @Failure 404 {object} middleware.ErrorResponse
// @Router /api/products/{id} [delete]
func (h *ProductHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	if err := h.productService.DeleteProduct(r.Context(), chi.URLParam(r, "id")); err != nil {
		middleware.RespondWithAppError(w, r, h.logger, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// parseListQuery reads list filters. Malformed values never fail the request:
// page and limit fall back to their defaults, limit is capped at MaxLimit, an
// unparseable price bound matches nothing and any inStock other than "true"
// selects out-of-stock products.
func parseListQuery(q url.Values) domain.ListQuery {
	query := domain.ListQuery{
		Category: q.Get("category"),
		Page:     domain.DefaultPage,
		Limit:    domain.DefaultLimit,
		MinPrice: parsePriceBound(q.Get("minPrice")),
		MaxPrice: parsePriceBound(q.Get("maxPrice")),
	}

	// Pages below 1 are kept so the store answers them with an empty page
	if page, err := strconv.Atoi(q.Get("page")); err == nil {
		query.Page = page
	}

	if limit, err := strconv.Atoi(q.Get("limit")); err == nil && limit >= 1 {
		query.Limit = min(limit, domain.MaxLimit)
	}

	if s := q.Get("inStock"); s != "" {
		query.InStock = boolPtr(strings.EqualFold(s, "true"))
	}

	return query
}

// parsePriceBound returns nil for an absent bound and NaN for an unparseable one
func parsePriceBound(s string) *float64 {
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		v = math.NaN()
	}
	return &v
}

func boolPtr(b bool) *bool {
	return &b
}
