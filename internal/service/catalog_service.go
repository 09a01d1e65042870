package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/tzkusman/live-storefront/internal/domain"
	"github.com/tzkusman/live-storefront/internal/log"
	"github.com/tzkusman/live-storefront/internal/repository"
)

// ErrValidation marks a malformed product draft. The caller keeps the draft
// and corrects it; nothing was written.
var ErrValidation = errors.New("validation error")

type catalogService struct {
	repo repository.CatalogRepository
}

// NewCatalogService creates a new catalog service.
func NewCatalogService(repo repository.CatalogRepository) CatalogService {
	return &catalogService{repo: repo}
}

// List fetches all products (newest first) and all categories, replacing
// any cached projection wholesale. A failure fails the whole operation.
func (s *catalogService) List(ctx context.Context) (*domain.Catalog, error) {
	products, err := s.repo.ListProducts(ctx)
	if err != nil {
		return nil, err
	}
	categories, err := s.repo.ListCategories(ctx)
	if err != nil {
		return nil, err
	}
	return &domain.Catalog{Products: products, Categories: categories}, nil
}

// Create coerces the draft's numeric fields, inserts the product, and
// re-fetches the entire catalog rather than merging the single new record.
func (s *catalogService) Create(ctx context.Context, draft *domain.ProductDraft) (*domain.Catalog, error) {
	product, err := coerceDraft(draft)
	if err != nil {
		return nil, err
	}

	if err := s.repo.CreateProduct(ctx, product); err != nil {
		l := log.Ctx(ctx)
		l.Error().Err(err).Str("product_name", product.Name).Msg("failed to insert product")
		return nil, err
	}

	return s.List(ctx)
}

// GetProduct returns one product by ID.
func (s *catalogService) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	return s.repo.GetProduct(ctx, id)
}

// coerceDraft applies the only validation a draft gets: numeric parsing of
// price and stock.
func coerceDraft(draft *domain.ProductDraft) (*domain.Product, error) {
	price, err := strconv.ParseFloat(strings.TrimSpace(draft.Price), 64)
	if err != nil {
		return nil, fmt.Errorf("%w: price %q is not a number", ErrValidation, draft.Price)
	}
	stock, err := strconv.Atoi(strings.TrimSpace(draft.Stock))
	if err != nil {
		return nil, fmt.Errorf("%w: stock %q is not an integer", ErrValidation, draft.Stock)
	}

	return &domain.Product{
		Name:        draft.Name,
		Description: draft.Description,
		Price:       price,
		Stock:       stock,
		ImageURL:    draft.ImageURL,
		CategoryID:  draft.CategoryID,
	}, nil
}
