package domain

import (
	"time"
)

// Product is a catalog product as served to clients.
type Product struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Price       float64   `json:"price"`
	Stock       int       `json:"stock"`
	ImageURL    string    `json:"image_url"`
	CategoryID  string    `json:"category_id,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Category groups products for filtering.
type Category struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// ProductModel is the GORM model for the products table. The table itself is
// provisioned by the operator-run bootstrap script, never auto-migrated, so a
// fresh database reports it missing until the script has been applied.
type ProductModel struct {
	ID          string    `gorm:"type:uuid;primaryKey"`
	Name        string    `gorm:"type:text;not null"`
	Description string    `gorm:"type:text"`
	Price       float64   `gorm:"type:numeric;not null"`
	Stock       int       `gorm:"not null"`
	ImageURL    string    `gorm:"column:image_url;type:text"`
	CategoryID  *string   `gorm:"type:uuid"`
	CreatedAt   time.Time `gorm:"autoCreateTime"`
}

// TableName specifies the table name for ProductModel.
func (ProductModel) TableName() string {
	return "products"
}

// ToDomain converts ProductModel to domain Product.
func (m *ProductModel) ToDomain() Product {
	p := Product{
		ID:          m.ID,
		Name:        m.Name,
		Description: m.Description,
		Price:       m.Price,
		Stock:       m.Stock,
		ImageURL:    m.ImageURL,
		CreatedAt:   m.CreatedAt,
	}
	if m.CategoryID != nil {
		p.CategoryID = *m.CategoryID
	}
	return p
}

// CategoryModel is the GORM model for the categories table.
type CategoryModel struct {
	ID        string    `gorm:"type:uuid;primaryKey"`
	Name      string    `gorm:"type:text;not null"`
	Slug      string    `gorm:"type:text;uniqueIndex;not null"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

// TableName specifies the table name for CategoryModel.
func (CategoryModel) TableName() string {
	return "categories"
}

// ToDomain converts CategoryModel to domain Category.
func (m *CategoryModel) ToDomain() Category {
	return Category{
		ID:   m.ID,
		Name: m.Name,
		Slug: m.Slug,
	}
}

// ProductDraft is an unvalidated product submission. Price and stock arrive
// as strings and are only type-coerced, matching the add-product form.
type ProductDraft struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	Price       string `json:"price" binding:"required"`
	Stock       string `json:"stock" binding:"required"`
	ImageURL    string `json:"image_url"`
	CategoryID  string `json:"category_id"`
}

// Catalog is the wholesale projection returned by every list (and re-fetched
// after every successful insert, rather than merging the new record).
type Catalog struct {
	Products   []Product  `json:"products"`
	Categories []Category `json:"categories"`
}

// FilterByCategory returns the products belonging to the given category.
// An empty category is the identity filter.
func (c *Catalog) FilterByCategory(categoryID string) []Product {
	if categoryID == "" {
		return c.Products
	}
	filtered := make([]Product, 0, len(c.Products))
	for _, p := range c.Products {
		if p.CategoryID == categoryID {
			filtered = append(filtered, p)
		}
	}
	return filtered
}
