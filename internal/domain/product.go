package domain

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ProductCategory groups catalog items by product family.
type ProductCategory string

const (
	CategoryPipeCutting ProductCategory = "PIPE_CUTTING"
	CategoryConsumables ProductCategory = "CONSUMABLES"
	CategoryTape        ProductCategory = "TAPE"
	CategoryAbrasive    ProductCategory = "ABRASIVE"
	CategorySafety      ProductCategory = "SAFETY"
	CategoryOther       ProductCategory = "OTHER"
)

// IsValid reports whether the category is known.
func (c ProductCategory) IsValid() bool {
	switch c {
	case CategoryPipeCutting, CategoryConsumables, CategoryTape, CategoryAbrasive, CategorySafety, CategoryOther:
		return true
	}
	return false
}

// ProductStatus represents catalog availability.
type ProductStatus string

const (
	ProductActive       ProductStatus = "ACTIVE"
	ProductInactive     ProductStatus = "INACTIVE"
	ProductOutOfStock   ProductStatus = "OUT_OF_STOCK"
	ProductDiscontinued ProductStatus = "DISCONTINUED"
)

// Product is a catalog item shown on the marketing site. Names are bilingual
// (Korean primary market, English international).
type Product struct {
	ID             uuid.UUID       `json:"id"`
	SKU            string          `json:"sku"`
	NameKo         string          `json:"name_ko"`
	NameEn         string          `json:"name_en"`
	DescriptionKo  *string         `json:"description_ko,omitempty"`
	DescriptionEn  *string         `json:"description_en,omitempty"`
	Category       ProductCategory `json:"category"`
	Brand          string          `json:"brand"`
	Images         []string        `json:"images"`
	Tags           []string        `json:"tags"`
	Specifications json.RawMessage `json:"specifications,omitempty"`
	Featured       bool            `json:"featured"`
	Status         ProductStatus   `json:"status"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// NewProduct creates an active product.
func NewProduct(sku, nameKo, nameEn string, category ProductCategory, brand string) *Product {
	now := time.Now().UTC()
	return &Product{
		ID:        uuid.New(),
		SKU:       sku,
		NameKo:    nameKo,
		NameEn:    nameEn,
		Category:  category,
		Brand:     brand,
		Status:    ProductActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Validate checks required product fields.
func (p *Product) Validate() error {
	if p.SKU == "" {
		return fmt.Errorf("sku is required")
	}
	if p.NameKo == "" || p.NameEn == "" {
		return fmt.Errorf("both Korean and English names are required")
	}
	if !p.Category.IsValid() {
		return fmt.Errorf("unknown category %q", p.Category)
	}
	if p.Brand == "" {
		return fmt.Errorf("brand is required")
	}
	return nil
}

// ProductListFilter defines optional catalog filters.
type ProductListFilter struct {
	Category *ProductCategory
	Brand    *string
	Status   *ProductStatus
	Featured *bool
	Search   string
}
