package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/daedong-rise/portal/internal/domain"
)

const productColumns = `
	id, sku, name_ko, name_en, description_ko, description_en, category,
	brand, images, tags, specifications, featured, status, created_at, updated_at`

// ProductRepository implements domain.ProductRepository using PostgreSQL.
type ProductRepository struct {
	pool *pgxpool.Pool
}

// NewProductRepository creates a new ProductRepository.
func NewProductRepository(pool *pgxpool.Pool) *ProductRepository {
	return &ProductRepository{pool: pool}
}

// Create inserts a new product.
func (r *ProductRepository) Create(ctx context.Context, product *domain.Product) error {
	ctx, cancel := WithWriteTimeout(ctx)
	defer cancel()

	imagesJSON, tagsJSON, err := marshalProductLists(product)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO products (
			id, sku, name_ko, name_en, description_ko, description_en, category,
			brand, images, tags, specifications, featured, status, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15
		)`

	_, err = r.pool.Exec(ctx, query,
		product.ID,
		product.SKU,
		product.NameKo,
		product.NameEn,
		product.DescriptionKo,
		product.DescriptionEn,
		product.Category,
		product.Brand,
		imagesJSON,
		tagsJSON,
		product.Specifications,
		product.Featured,
		product.Status,
		product.CreatedAt,
		product.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert product: %w", err)
	}

	return nil
}

// GetByID retrieves a product by ID.
func (r *ProductRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	ctx, cancel := WithQueryTimeout(ctx)
	defer cancel()

	query := `SELECT` + productColumns + ` FROM products WHERE id = $1`
	return r.scanProduct(ctx, query, id)
}

// GetBySKU retrieves a product by SKU.
func (r *ProductRepository) GetBySKU(ctx context.Context, sku string) (*domain.Product, error) {
	ctx, cancel := WithQueryTimeout(ctx)
	defer cancel()

	query := `SELECT` + productColumns + ` FROM products WHERE sku = $1`
	return r.scanProduct(ctx, query, sku)
}

// List retrieves products with optional filters and pagination.
func (r *ProductRepository) List(ctx context.Context, filter *domain.ProductListFilter, limit, offset int) ([]*domain.Product, error) {
	ctx, cancel := WithListQueryTimeout(ctx)
	defer cancel()

	where, args := productFilterClause(filter)
	args = append(args, limit, offset)
	query := fmt.Sprintf(`SELECT %s FROM products %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		productColumns, where, len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	var products []*domain.Product
	for rows.Next() {
		product, err := scanProductRow(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, product)
	}

	return products, rows.Err()
}

// Count returns the number of products matching the filter.
func (r *ProductRepository) Count(ctx context.Context, filter *domain.ProductListFilter) (int, error) {
	ctx, cancel := WithQueryTimeout(ctx)
	defer cancel()

	where, args := productFilterClause(filter)
	var count int
	err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM products "+where, args...).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count products: %w", err)
	}
	return count, nil
}

// Update updates an existing product.
func (r *ProductRepository) Update(ctx context.Context, product *domain.Product) error {
	ctx, cancel := WithWriteTimeout(ctx)
	defer cancel()

	product.UpdatedAt = time.Now().UTC()

	imagesJSON, tagsJSON, err := marshalProductLists(product)
	if err != nil {
		return err
	}

	query := `
		UPDATE products SET
			sku = $2,
			name_ko = $3,
			name_en = $4,
			description_ko = $5,
			description_en = $6,
			category = $7,
			brand = $8,
			images = $9,
			tags = $10,
			specifications = $11,
			featured = $12,
			status = $13,
			updated_at = $14
		WHERE id = $1`

	result, err := r.pool.Exec(ctx, query,
		product.ID,
		product.SKU,
		product.NameKo,
		product.NameEn,
		product.DescriptionKo,
		product.DescriptionEn,
		product.Category,
		product.Brand,
		imagesJSON,
		tagsJSON,
		product.Specifications,
		product.Featured,
		product.Status,
		product.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update product: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a product from the catalog.
func (r *ProductRepository) Delete(ctx context.Context, id uuid.UUID) error {
	ctx, cancel := WithWriteTimeout(ctx)
	defer cancel()

	result, err := r.pool.Exec(ctx, "DELETE FROM products WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// scanProduct scans a single product from a query.
func (r *ProductRepository) scanProduct(ctx context.Context, query string, args ...interface{}) (*domain.Product, error) {
	row := r.pool.QueryRow(ctx, query, args...)
	product, err := scanProductRow(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return product, nil
}

// rowScanner covers both pgx.Row and pgx.Rows.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanProductRow(row rowScanner) (*domain.Product, error) {
	product := &domain.Product{}
	var imagesJSON, tagsJSON []byte

	err := row.Scan(
		&product.ID,
		&product.SKU,
		&product.NameKo,
		&product.NameEn,
		&product.DescriptionKo,
		&product.DescriptionEn,
		&product.Category,
		&product.Brand,
		&imagesJSON,
		&tagsJSON,
		&product.Specifications,
		&product.Featured,
		&product.Status,
		&product.CreatedAt,
		&product.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, pgx.ErrNoRows
		}
		return nil, fmt.Errorf("failed to scan product: %w", err)
	}

	if len(imagesJSON) > 0 {
		if err := json.Unmarshal(imagesJSON, &product.Images); err != nil {
			return nil, fmt.Errorf("failed to unmarshal images: %w", err)
		}
	}
	if len(tagsJSON) > 0 {
		if err := json.Unmarshal(tagsJSON, &product.Tags); err != nil {
			return nil, fmt.Errorf("failed to unmarshal tags: %w", err)
		}
	}

	return product, nil
}

// productFilterClause builds the WHERE clause for product list queries.
func productFilterClause(filter *domain.ProductListFilter) (string, []interface{}) {
	if filter == nil {
		return "", nil
	}

	var conds []string
	var args []interface{}
	if filter.Category != nil {
		args = append(args, *filter.Category)
		conds = append(conds, fmt.Sprintf("category = $%d", len(args)))
	}
	if filter.Brand != nil {
		args = append(args, *filter.Brand)
		conds = append(conds, fmt.Sprintf("brand = $%d", len(args)))
	}
	if filter.Status != nil {
		args = append(args, *filter.Status)
		conds = append(conds, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.Featured != nil {
		args = append(args, *filter.Featured)
		conds = append(conds, fmt.Sprintf("featured = $%d", len(args)))
	}
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		n := len(args)
		conds = append(conds, fmt.Sprintf("(name_ko ILIKE $%d OR name_en ILIKE $%d OR sku ILIKE $%d)", n, n, n))
	}
	if len(conds) == 0 {
		return "", nil
	}
	return "WHERE " + strings.Join(conds, " AND "), args
}

// marshalProductLists serializes the image and tag lists for JSONB storage.
func marshalProductLists(product *domain.Product) ([]byte, []byte, error) {
	images := product.Images
	if images == nil {
		images = []string{}
	}
	imagesJSON, err := json.Marshal(images)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to marshal images: %w", err)
	}

	tags := product.Tags
	if tags == nil {
		tags = []string{}
	}
	tagsJSON, err := json.Marshal(tags)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to marshal tags: %w", err)
	}

	return imagesJSON, tagsJSON, nil
}
