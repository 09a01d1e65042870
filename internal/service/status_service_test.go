package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tzkusman/live-storefront/internal/domain"
	"github.com/tzkusman/live-storefront/internal/repository"
)

// fakeCatalogRepo is a scriptable CatalogRepository for service tests.
type fakeCatalogRepo struct {
	probeErr   error
	probeCalls int

	products   []domain.Product
	categories []domain.Category
	listErr    error

	created   []*domain.Product
	createErr error
}

func (f *fakeCatalogRepo) Probe(ctx context.Context) error {
	f.probeCalls++
	return f.probeErr
}

func (f *fakeCatalogRepo) ListProducts(ctx context.Context) ([]domain.Product, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.products, nil
}

func (f *fakeCatalogRepo) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	for i := range f.products {
		if f.products[i].ID == id {
			return &f.products[i], nil
		}
	}
	return nil, repository.ErrProductNotFound
}

func (f *fakeCatalogRepo) ListCategories(ctx context.Context) ([]domain.Category, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.categories, nil
}

func (f *fakeCatalogRepo) CreateProduct(ctx context.Context, p *domain.Product) error {
	if f.createErr != nil {
		return f.createErr
	}
	p.ID = fmt.Sprintf("p%d", len(f.created)+1)
	f.created = append(f.created, p)
	f.products = append([]domain.Product{*p}, f.products...)
	return nil
}

func TestStatusStartsUnauthenticated(t *testing.T) {
	svc := NewStatusService(&fakeCatalogRepo{})
	assert.Equal(t, StateUnauthenticated, svc.Current().State)
}

func TestRefreshClassifiesProbeOutcome(t *testing.T) {
	tests := []struct {
		name     string
		probeErr error
		want     StoreState
	}{
		{"probe succeeds", nil, StateReady},
		{"schema missing", repository.ErrSchemaMissing, StateSchemaMissing},
		{"wrapped schema missing", fmt.Errorf("probe: %w", repository.ErrSchemaMissing), StateSchemaMissing},
		{"connection refused", errors.New("dial tcp: connection refused"), StateUnreachable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &fakeCatalogRepo{probeErr: tt.probeErr}
			svc := NewStatusService(repo)

			status := svc.Refresh(context.Background())
			assert.Equal(t, tt.want, status.State)
			assert.Equal(t, status, svc.Current())
			assert.Equal(t, 1, repo.probeCalls)
		})
	}
}

func TestRefreshCarriesDetailOnFailure(t *testing.T) {
	svc := NewStatusService(&fakeCatalogRepo{probeErr: repository.ErrSchemaMissing})
	status := svc.Refresh(context.Background())
	assert.Contains(t, status.Detail, "setup script")

	svc = NewStatusService(&fakeCatalogRepo{probeErr: errors.New("dial tcp: connection refused")})
	status = svc.Refresh(context.Background())
	assert.Contains(t, status.Detail, "connection refused")
}

func TestSignInDrivesProbe(t *testing.T) {
	repo := &fakeCatalogRepo{}
	svc := NewStatusService(repo)

	svc.OnSessionChange(SessionEvent{UserID: "u1", SignedIn: true})

	assert.Equal(t, StateReady, svc.Current().State)
	assert.Equal(t, 1, repo.probeCalls)
}

func TestSignOutReturnsToUnauthenticated(t *testing.T) {
	repo := &fakeCatalogRepo{}
	svc := NewStatusService(repo)

	svc.OnSessionChange(SessionEvent{UserID: "u1", SignedIn: true})
	require.Equal(t, StateReady, svc.Current().State)

	svc.OnSessionChange(SessionEvent{UserID: "u1", SignedIn: false})
	assert.Equal(t, StateUnauthenticated, svc.Current().State)
	assert.Equal(t, 1, repo.probeCalls, "sign-out must not probe")
}

func TestRecoveryAfterSchemaProvisioned(t *testing.T) {
	repo := &fakeCatalogRepo{probeErr: repository.ErrSchemaMissing}
	svc := NewStatusService(repo)

	status := svc.Refresh(context.Background())
	require.Equal(t, StateSchemaMissing, status.State)

	// Operator runs the setup script; the next manual refresh recovers.
	repo.probeErr = nil
	status = svc.Refresh(context.Background())
	assert.Equal(t, StateReady, status.State)
}
