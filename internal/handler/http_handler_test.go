package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tzkusman/live-storefront/internal/domain"
	"github.com/tzkusman/live-storefront/internal/middleware"
	"github.com/tzkusman/live-storefront/internal/repository"
	"github.com/tzkusman/live-storefront/internal/service"
	"github.com/tzkusman/live-storefront/internal/token"
)

type memUserRepo struct {
	byID    map[string]*domain.User
	byEmail map[string]*domain.User
}

func (f *memUserRepo) Create(_ context.Context, user *domain.User) error {
	if _, ok := f.byEmail[user.Email]; ok {
		return repository.ErrEmailExists
	}
	user.ID = uuid.New().String()
	user.ConfirmedAt = time.Now()
	f.byID[user.ID] = user
	f.byEmail[user.Email] = user
	return nil
}

func (f *memUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	if u, ok := f.byID[id]; ok {
		return u, nil
	}
	return nil, repository.ErrUserNotFound
}

func (f *memUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	if u, ok := f.byEmail[email]; ok {
		return u, nil
	}
	return nil, repository.ErrUserNotFound
}

type memCatalogRepo struct {
	err        error
	products   []domain.Product
	categories []domain.Category
}

func (f *memCatalogRepo) Probe(context.Context) error { return f.err }

func (f *memCatalogRepo) ListProducts(context.Context) ([]domain.Product, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.products, nil
}

func (f *memCatalogRepo) GetProduct(_ context.Context, id string) (*domain.Product, error) {
	if f.err != nil {
		return nil, f.err
	}
	for i := range f.products {
		if f.products[i].ID == id {
			return &f.products[i], nil
		}
	}
	return nil, repository.ErrProductNotFound
}

func (f *memCatalogRepo) ListCategories(context.Context) ([]domain.Category, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.categories, nil
}

func (f *memCatalogRepo) CreateProduct(_ context.Context, p *domain.Product) error {
	if f.err != nil {
		return f.err
	}
	p.ID = fmt.Sprintf("p%d", len(f.products)+1)
	f.products = append([]domain.Product{*p}, f.products...)
	return nil
}

type testEnv struct {
	router  *gin.Engine
	catalog *memCatalogRepo
	cart    service.CartService
}

// newTestEnv wires the full stack the way main does, over in-memory storage.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	users := &memUserRepo{byID: map[string]*domain.User{}, byEmail: map[string]*domain.User{}}
	catalog := &memCatalogRepo{
		products: []domain.Product{
			{ID: "p1", Name: "Quantum Pro Headphones", Price: 299.99, CategoryID: "audio"},
			{ID: "p2", Name: "Nebula Smart Watch", Price: 199.50, CategoryID: "wearables"},
		},
		categories: []domain.Category{
			{ID: "audio", Name: "Audio", Slug: "audio"},
			{ID: "wearables", Name: "Wearables", Slug: "wearables"},
		},
	}

	tokens, err := token.NewManager(15*time.Minute, 24*time.Hour, "live-storefront")
	require.NoError(t, err)

	authSvc := service.NewAuthService(users, tokens)
	catalogSvc := service.NewCatalogService(catalog)
	cartSvc := service.NewCartService()
	statusSvc := service.NewStatusService(catalog)

	authSvc.SubscribeSessionChanges(statusSvc.OnSessionChange)
	authSvc.SubscribeSessionChanges(func(ev service.SessionEvent) {
		if !ev.SignedIn {
			cartSvc.Clear(ev.UserID)
		}
	})

	h := NewHandler(authSvc, catalogSvc, cartSvc, statusSvc, middleware.NewAuthMiddleware(authSvc))
	router := gin.New()
	h.RegisterRoutes(router)

	return &testEnv{router: router, catalog: catalog, cart: cartSvc}
}

func (e *testEnv) do(t *testing.T, method, path, bearer, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

// signUp registers a user and returns the session's access token and user ID.
func (e *testEnv) signUp(t *testing.T, email, username string) (accessToken, userID string) {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/api/v1/auth/register", "", fmt.Sprintf(
		`{"email":%q,"username":%q,"password":"hunter22"}`, email, username))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp struct {
		Data domain.AuthResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp.Data.AccessToken, resp.Data.User.ID
}

func TestHealthCheck(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestProtectedRoutesRejectAnonymous(t *testing.T) {
	env := newTestEnv(t)

	for _, path := range []string{"/api/v1/products", "/api/v1/cart", "/api/v1/status", "/api/v1/setup/script"} {
		rec := env.do(t, http.MethodGet, path, "", "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code, path)
	}

	rec := env.do(t, http.MethodGet, "/api/v1/products", "not-a-token", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLoginEndpoint(t *testing.T) {
	env := newTestEnv(t)
	env.signUp(t, "alice@example.com", "alice")

	rec := env.do(t, http.MethodPost, "/api/v1/auth/login", "", `{"email":"alice@example.com","password":"hunter22"}`)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/v1/auth/login", "", `{"email":"alice@example.com","password":"wrong"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/v1/auth/register", "", `{"email":"alice@example.com","username":"alice2","password":"hunter22"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestSignInMovesStatusToReady(t *testing.T) {
	env := newTestEnv(t)
	access, _ := env.signUp(t, "alice@example.com", "alice")

	rec := env.do(t, http.MethodGet, "/api/v1/status", access, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"state":"ready"`)
}

func TestStatusRefreshRecoversAfterProvisioning(t *testing.T) {
	env := newTestEnv(t)
	env.catalog.err = repository.ErrSchemaMissing
	access, _ := env.signUp(t, "alice@example.com", "alice")

	rec := env.do(t, http.MethodGet, "/api/v1/status", access, "")
	assert.Contains(t, rec.Body.String(), `"state":"schema_missing"`)

	env.catalog.err = nil
	rec = env.do(t, http.MethodPost, "/api/v1/status/refresh", access, "")
	assert.Contains(t, rec.Body.String(), `"state":"ready"`)
}

func TestListProductsWithCategoryFilter(t *testing.T) {
	env := newTestEnv(t)
	access, _ := env.signUp(t, "alice@example.com", "alice")

	rec := env.do(t, http.MethodGet, "/api/v1/products", access, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data domain.Catalog `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Len(t, resp.Data.Products, 2)
	assert.Len(t, resp.Data.Categories, 2)

	rec = env.do(t, http.MethodGet, "/api/v1/products?category=audio", access, "")
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Data.Products, 1)
	assert.Equal(t, "Quantum Pro Headphones", resp.Data.Products[0].Name)
}

func TestListProductsSchemaMissing(t *testing.T) {
	env := newTestEnv(t)
	access, _ := env.signUp(t, "alice@example.com", "alice")
	env.catalog.err = repository.ErrSchemaMissing

	rec := env.do(t, http.MethodGet, "/api/v1/products", access, "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "SCHEMA_MISSING")
}

func TestCreateProduct(t *testing.T) {
	env := newTestEnv(t)
	access, _ := env.signUp(t, "alice@example.com", "alice")

	rec := env.do(t, http.MethodPost, "/api/v1/products", access,
		`{"name":"Vertex VR Headset","price":"499.99","stock":"12"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp struct {
		Data domain.Catalog `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Data.Products, 3, "the response is the re-fetched catalog")
	assert.Equal(t, "Vertex VR Headset", resp.Data.Products[0].Name)

	rec = env.do(t, http.MethodPost, "/api/v1/products", access,
		`{"name":"Broken","price":"cheap","stock":"1"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCartFlow(t *testing.T) {
	env := newTestEnv(t)
	access, _ := env.signUp(t, "alice@example.com", "alice")

	rec := env.do(t, http.MethodGet, "/api/v1/cart", access, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"lines":[]`)

	rec = env.do(t, http.MethodPost, "/api/v1/cart/items", access, `{"product_id":"p1"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/v1/cart/items", access, `{"product_id":"p1"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data domain.CartResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Data.Lines, 1)
	assert.Equal(t, 2, resp.Data.Lines[0].Quantity)
	assert.InDelta(t, 2*299.99, resp.Data.Total, 1e-9)

	rec = env.do(t, http.MethodPost, "/api/v1/cart/items", access, `{"product_id":"missing"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(t, http.MethodDelete, "/api/v1/cart/items/p1", access, "")
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Empty(t, resp.Data.Lines)
}

func TestLogoutEndsSessionAndDropsCart(t *testing.T) {
	env := newTestEnv(t)
	access, userID := env.signUp(t, "alice@example.com", "alice")

	env.do(t, http.MethodPost, "/api/v1/cart/items", access, `{"product_id":"p1"}`)

	rec := env.do(t, http.MethodPost, "/api/v1/auth/logout", access, "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/v1/cart", access, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code, "revoked token no longer works")

	assert.Empty(t, env.cart.Get(userID).Lines, "the session's cart dies with it")
}

func TestSetupScriptServedVerbatim(t *testing.T) {
	env := newTestEnv(t)
	access, _ := env.signUp(t, "alice@example.com", "alice")

	rec := env.do(t, http.MethodGet, "/api/v1/setup/script", access, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "CREATE TABLE IF NOT EXISTS public.products")
	assert.Contains(t, rec.Body.String(), "handle_local_user_confirm")
}
