package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tzkusman/live-storefront/internal/domain"
)

// GormCatalogRepository implements CatalogRepository using GORM.
type GormCatalogRepository struct {
	db *gorm.DB
}

// NewGormCatalogRepository creates a new GORM-based catalog repository.
func NewGormCatalogRepository(db *gorm.DB) *GormCatalogRepository {
	return &GormCatalogRepository{db: db}
}

// Probe issues the lightweight existence check the readiness state machine
// is driven by: one id from products, limit 1.
func (r *GormCatalogRepository) Probe(ctx context.Context) error {
	var ids []string
	result := r.db.WithContext(ctx).
		Model(&domain.ProductModel{}).
		Select("id").
		Limit(1).
		Find(&ids)
	if result.Error != nil {
		return classifySchemaError(result.Error)
	}
	return nil
}

// ListProducts returns all products, newest first.
func (r *GormCatalogRepository) ListProducts(ctx context.Context) ([]domain.Product, error) {
	var models []domain.ProductModel
	result := r.db.WithContext(ctx).
		Order("created_at DESC").
		Find(&models)
	if result.Error != nil {
		return nil, classifySchemaError(result.Error)
	}

	products := make([]domain.Product, 0, len(models))
	for i := range models {
		products = append(products, models[i].ToDomain())
	}
	return products, nil
}

// ListCategories returns all categories.
func (r *GormCatalogRepository) ListCategories(ctx context.Context) ([]domain.Category, error) {
	var models []domain.CategoryModel
	result := r.db.WithContext(ctx).Find(&models)
	if result.Error != nil {
		return nil, classifySchemaError(result.Error)
	}

	categories := make([]domain.Category, 0, len(models))
	for i := range models {
		categories = append(categories, models[i].ToDomain())
	}
	return categories, nil
}

// GetProduct retrieves a single product by ID.
func (r *GormCatalogRepository) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	var model domain.ProductModel
	result := r.db.WithContext(ctx).First(&model, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, classifySchemaError(result.Error)
	}
	p := model.ToDomain()
	return &p, nil
}

// CreateProduct inserts a single product. The insert is atomic; there is no
// partial write to clean up on failure.
func (r *GormCatalogRepository) CreateProduct(ctx context.Context, p *domain.Product) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}

	model := domain.ProductModel{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price,
		Stock:       p.Stock,
		ImageURL:    p.ImageURL,
	}
	if p.CategoryID != "" {
		categoryID := p.CategoryID
		model.CategoryID = &categoryID
	}

	result := r.db.WithContext(ctx).Create(&model)
	if result.Error != nil {
		return classifySchemaError(result.Error)
	}

	p.CreatedAt = model.CreatedAt
	return nil
}

// classifySchemaError maps the Postgres undefined_table error class
// (SQLSTATE 42P01) to ErrSchemaMissing. Everything else passes through and
// is treated as connectivity trouble by the caller.
func classifySchemaError(err error) error {
	if err == nil {
		return nil
	}
	if strings.Contains(err.Error(), "42P01") {
		return ErrSchemaMissing
	}
	return err
}
