package repository

import (
	"context"
	"errors"

	"github.com/tzkusman/live-storefront/internal/domain"
)

var (
	ErrUserNotFound    = errors.New("user not found")
	ErrEmailExists     = errors.New("email already exists")
	ErrUsernameExists  = errors.New("username already exists")
	ErrProductNotFound = errors.New("product not found")

	// ErrSchemaMissing is returned when the catalog tables have not been
	// provisioned yet (the operator has not run the bootstrap script).
	ErrSchemaMissing = errors.New("catalog schema missing")
)

// UserRepository manages user records.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
}

// CatalogRepository reads and writes the product catalog.
type CatalogRepository interface {
	// Probe runs a minimal existence query against the products table.
	Probe(ctx context.Context) error
	ListProducts(ctx context.Context) ([]domain.Product, error)
	GetProduct(ctx context.Context, id string) (*domain.Product, error)
	ListCategories(ctx context.Context) ([]domain.Category, error)
	CreateProduct(ctx context.Context, p *domain.Product) error
}
