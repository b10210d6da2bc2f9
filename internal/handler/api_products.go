package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/daedong-rise/portal/internal/domain"
	"github.com/daedong-rise/portal/internal/repository"
	"github.com/daedong-rise/portal/internal/service"
)

// ProductAPIHandler handles catalog API endpoints. Reads are public; writes
// require an authenticated admin (enforced by route wiring).
type ProductAPIHandler struct {
	productService *service.ProductService
	logger         *zap.Logger
}

// NewProductAPIHandler creates a new ProductAPIHandler.
func NewProductAPIHandler(productService *service.ProductService, logger *zap.Logger) *ProductAPIHandler {
	return &ProductAPIHandler{
		productService: productService,
		logger:         logger,
	}
}

// RegisterPublicRoutes registers the read-only catalog routes.
func (h *ProductAPIHandler) RegisterPublicRoutes(r chi.Router) {
	r.Get("/products", h.ListProducts)
	r.Get("/products/{productID}", h.GetProduct)
}

// RegisterAdminRoutes registers the catalog write routes.
func (h *ProductAPIHandler) RegisterAdminRoutes(r chi.Router) {
	r.Post("/products", h.CreateProduct)
	r.Put("/products/{productID}", h.UpdateProduct)
	r.Delete("/products/{productID}", h.DeleteProduct)
}

// ListProducts handles GET /api/products.
func (h *ProductAPIHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	page, pageSize := parsePagination(r)
	filter := productFilterFromQuery(r)

	products, total, err := h.productService.ListProducts(r.Context(), page, pageSize, filter)
	if err != nil {
		h.logger.Error("failed to list products", zap.Error(err))
		APIError(w, http.StatusInternalServerError, "failed to list products")
		return
	}

	JSON(w, http.StatusOK, PagedResponse{
		Data:     products,
		Total:    total,
		Page:     page,
		PageSize: pageSize,
	})
}

// GetProduct handles GET /api/products/{productID}.
func (h *ProductAPIHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "productID"))
	if err != nil {
		APIError(w, http.StatusBadRequest, "invalid product id")
		return
	}

	product, err := h.productService.GetProduct(r.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			APIError(w, http.StatusNotFound, "product not found")
			return
		}
		h.logger.Error("failed to get product", zap.String("id", id.String()), zap.Error(err))
		APIError(w, http.StatusInternalServerError, "failed to get product")
		return
	}

	JSON(w, http.StatusOK, product)
}

// ProductRequest is the API request body for creating or updating a product.
type ProductRequest struct {
	SKU            string          `json:"sku"`
	NameKo         string          `json:"nameKo"`
	NameEn         string          `json:"nameEn"`
	DescriptionKo  string          `json:"descriptionKo,omitempty"`
	DescriptionEn  string          `json:"descriptionEn,omitempty"`
	Category       string          `json:"category"`
	Brand          string          `json:"brand"`
	Images         []string        `json:"images,omitempty"`
	Tags           []string        `json:"tags,omitempty"`
	Specifications json.RawMessage `json:"specifications,omitempty"`
	Featured       bool            `json:"featured"`
	Status         string          `json:"status,omitempty"`
}

// CreateProduct handles POST /api/products.
func (h *ProductAPIHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req ProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		APIError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	product := domain.NewProduct(req.SKU, req.NameKo, req.NameEn, domain.ProductCategory(req.Category), req.Brand)
	applyProductRequest(product, &req)

	if err := h.productService.CreateProduct(r.Context(), product); err != nil {
		h.logger.Warn("failed to create product", zap.String("sku", req.SKU), zap.Error(err))
		APIError(w, http.StatusBadRequest, err.Error())
		return
	}

	JSON(w, http.StatusCreated, product)
}

// UpdateProduct handles PUT /api/products/{productID}.
func (h *ProductAPIHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "productID"))
	if err != nil {
		APIError(w, http.StatusBadRequest, "invalid product id")
		return
	}

	var req ProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		APIError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	product, err := h.productService.GetProduct(r.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			APIError(w, http.StatusNotFound, "product not found")
			return
		}
		h.logger.Error("failed to get product", zap.String("id", id.String()), zap.Error(err))
		APIError(w, http.StatusInternalServerError, "failed to get product")
		return
	}

	product.SKU = req.SKU
	product.NameKo = req.NameKo
	product.NameEn = req.NameEn
	product.Category = domain.ProductCategory(req.Category)
	product.Brand = req.Brand
	applyProductRequest(product, &req)

	if err := h.productService.UpdateProduct(r.Context(), product); err != nil {
		h.logger.Warn("failed to update product", zap.String("id", id.String()), zap.Error(err))
		APIError(w, http.StatusBadRequest, err.Error())
		return
	}

	JSON(w, http.StatusOK, product)
}

// DeleteProduct handles DELETE /api/products/{productID}.
func (h *ProductAPIHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "productID"))
	if err != nil {
		APIError(w, http.StatusBadRequest, "invalid product id")
		return
	}

	if err := h.productService.DeleteProduct(r.Context(), id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			APIError(w, http.StatusNotFound, "product not found")
			return
		}
		h.logger.Error("failed to delete product", zap.String("id", id.String()), zap.Error(err))
		APIError(w, http.StatusInternalServerError, "failed to delete product")
		return
	}

	JSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// applyProductRequest copies optional fields from the request to a product.
func applyProductRequest(product *domain.Product, req *ProductRequest) {
	if req.DescriptionKo != "" {
		product.DescriptionKo = &req.DescriptionKo
	}
	if req.DescriptionEn != "" {
		product.DescriptionEn = &req.DescriptionEn
	}
	product.Images = req.Images
	product.Tags = req.Tags
	product.Specifications = req.Specifications
	product.Featured = req.Featured
	if req.Status != "" {
		product.Status = domain.ProductStatus(req.Status)
	}
}

// productFilterFromQuery builds a catalog filter from query parameters.
func productFilterFromQuery(r *http.Request) *domain.ProductListFilter {
	q := r.URL.Query()
	filter := &domain.ProductListFilter{
		Search: q.Get("search"),
	}
	if v := q.Get("category"); v != "" {
		category := domain.ProductCategory(v)
		filter.Category = &category
	}
	if v := q.Get("brand"); v != "" {
		filter.Brand = &v
	}
	if v := q.Get("status"); v != "" {
		status := domain.ProductStatus(v)
		filter.Status = &status
	}
	if v := q.Get("featured"); v != "" {
		featured := v == "true"
		filter.Featured = &featured
	}
	return filter
}
