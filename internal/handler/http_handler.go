package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tzkusman/live-storefront/internal/bootstrap"
	"github.com/tzkusman/live-storefront/internal/domain"
	"github.com/tzkusman/live-storefront/internal/log"
	"github.com/tzkusman/live-storefront/internal/middleware"
	"github.com/tzkusman/live-storefront/internal/repository"
	"github.com/tzkusman/live-storefront/internal/response"
	"github.com/tzkusman/live-storefront/internal/service"
)

// Handler handles HTTP requests for the storefront API.
type Handler struct {
	auth           service.AuthService
	catalog        service.CatalogService
	cart           service.CartService
	status         service.StatusService
	authMiddleware *middleware.AuthMiddleware
}

// NewHandler creates a new HTTP handler.
func NewHandler(
	auth service.AuthService,
	catalog service.CatalogService,
	cart service.CartService,
	status service.StatusService,
	authMiddleware *middleware.AuthMiddleware,
) *Handler {
	return &Handler{
		auth:           auth,
		catalog:        catalog,
		cart:           cart,
		status:         status,
		authMiddleware: authMiddleware,
	}
}

// RegisterRoutes registers all routes.
func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", h.HealthCheck)

	api := r.Group("/api/v1")
	{
		auth := api.Group("/auth")
		{
			auth.POST("/register", h.Register)
			auth.POST("/login", h.Login)
			auth.POST("/refresh", h.RefreshToken)
			auth.POST("/logout", h.authMiddleware.RequireAuth(), h.Logout)
		}

		protected := api.Group("")
		protected.Use(h.authMiddleware.RequireAuth())
		{
			protected.GET("/users/me", h.GetMe)

			protected.GET("/status", h.GetStatus)
			protected.POST("/status/refresh", h.RefreshStatus)

			protected.GET("/products", h.ListCatalog)
			protected.POST("/products", h.CreateProduct)

			protected.GET("/cart", h.GetCart)
			protected.POST("/cart/items", h.AddCartItem)
			protected.DELETE("/cart/items/:productID", h.RemoveCartItem)

			protected.GET("/setup/script", h.SetupScript)
		}
	}
}

// HealthCheck reports process liveness.
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Register handles sign-up.
func (h *Handler) Register(c *gin.Context) {
	ctx := c.Request.Context()
	l := log.Ctx(ctx)
	var req domain.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		l.Warn().Err(err).Msg("invalid register request")
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.auth.Register(ctx, &req)
	if err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			response.Conflict(c, "email already exists")
			return
		}
		if errors.Is(err, repository.ErrUsernameExists) {
			response.Conflict(c, "username already exists")
			return
		}
		l.Error().Err(err).Msg("register failed")
		response.InternalError(c, "failed to register user")
		return
	}

	response.Created(c, result)
}

// Login handles sign-in.
func (h *Handler) Login(c *gin.Context) {
	ctx := c.Request.Context()
	l := log.Ctx(ctx)
	var req domain.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		l.Warn().Err(err).Msg("invalid login request")
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.auth.Login(ctx, &req)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			response.Unauthorized(c, "invalid email or password")
			return
		}
		l.Error().Err(err).Msg("login failed")
		response.InternalError(c, "failed to login")
		return
	}

	response.Success(c, result)
}

// RefreshToken handles token refresh.
func (h *Handler) RefreshToken(c *gin.Context) {
	ctx := c.Request.Context()
	l := log.Ctx(ctx)
	var req domain.RefreshTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		l.Warn().Err(err).Msg("invalid refresh token request")
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.auth.Refresh(ctx, &req)
	if err != nil {
		l.Warn().Err(err).Msg("refresh token failed")
		response.Unauthorized(c, "invalid or expired refresh token")
		return
	}

	response.Success(c, result)
}

// Logout handles sign-out. The session's cart dies with it.
func (h *Handler) Logout(c *gin.Context) {
	ctx := c.Request.Context()
	l := log.Ctx(ctx)
	userID := middleware.GetUserID(c)

	if err := h.auth.Logout(ctx, userID); err != nil {
		l.Error().Err(err).Str(log.FieldUserID, userID).Msg("logout failed")
		response.InternalError(c, "failed to logout")
		return
	}

	response.Success(c, gin.H{"message": "logged out successfully"})
}

// GetMe returns current user info.
func (h *Handler) GetMe(c *gin.Context) {
	ctx := c.Request.Context()
	l := log.Ctx(ctx)
	userID := middleware.GetUserID(c)

	user, err := h.auth.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			response.NotFound(c, "user not found")
			return
		}
		l.Error().Err(err).Str(log.FieldUserID, userID).Msg("get user failed")
		response.InternalError(c, "failed to get user")
		return
	}

	response.Success(c, user.ToResponse())
}

// GetStatus returns the gateway's current readiness state.
func (h *Handler) GetStatus(c *gin.Context) {
	response.Success(c, h.status.Current())
}

// RefreshStatus re-runs the readiness probe ("try again").
func (h *Handler) RefreshStatus(c *gin.Context) {
	response.Success(c, h.status.Refresh(c.Request.Context()))
}

// ListCatalog returns the wholesale catalog projection. An optional
// category query applies the pure category filter to the product list.
func (h *Handler) ListCatalog(c *gin.Context) {
	ctx := c.Request.Context()
	l := log.Ctx(ctx)

	catalog, err := h.catalog.List(ctx)
	if err != nil {
		h.writeCatalogError(c, err)
		l.Error().Err(err).Msg("list catalog failed")
		return
	}

	if categoryID := c.Query("category"); categoryID != "" {
		catalog.Products = catalog.FilterByCategory(categoryID)
	}

	response.Success(c, catalog)
}

// CreateProduct validates and inserts a product draft, answering with the
// re-fetched catalog.
func (h *Handler) CreateProduct(c *gin.Context) {
	ctx := c.Request.Context()
	l := log.Ctx(ctx)

	var draft domain.ProductDraft
	if err := c.ShouldBindJSON(&draft); err != nil {
		l.Warn().Err(err).Msg("invalid product draft")
		response.BadRequest(c, err.Error())
		return
	}

	catalog, err := h.catalog.Create(ctx, &draft)
	if err != nil {
		if errors.Is(err, service.ErrValidation) {
			response.BadRequest(c, err.Error())
			return
		}
		h.writeCatalogError(c, err)
		l.Error().Err(err).Msg("create product failed")
		return
	}

	response.Created(c, catalog)
}

// GetCart returns the session's cart.
func (h *Handler) GetCart(c *gin.Context) {
	response.Success(c, h.cart.Get(middleware.GetUserID(c)))
}

// AddCartItem merges a product into the session's cart.
func (h *Handler) AddCartItem(c *gin.Context) {
	ctx := c.Request.Context()
	l := log.Ctx(ctx)

	var req struct {
		ProductID string `json:"product_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	product, err := h.catalog.GetProduct(ctx, req.ProductID)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			response.NotFound(c, "product not found")
			return
		}
		h.writeCatalogError(c, err)
		l.Error().Err(err).Str("product_id", req.ProductID).Msg("add cart item failed")
		return
	}

	response.Success(c, h.cart.Add(middleware.GetUserID(c), *product))
}

// RemoveCartItem deletes a line from the session's cart.
func (h *Handler) RemoveCartItem(c *gin.Context) {
	productID := c.Param("productID")
	response.Success(c, h.cart.Remove(middleware.GetUserID(c), productID))
}

// SetupScript returns the provisioning SQL verbatim for manual execution.
func (h *Handler) SetupScript(c *gin.Context) {
	c.String(http.StatusOK, bootstrap.Script())
}

// writeCatalogError maps storage failures onto the error taxonomy: missing
// schema is recoverable via the setup script, everything else reads as the
// store being unreachable.
func (h *Handler) writeCatalogError(c *gin.Context, err error) {
	if errors.Is(err, repository.ErrSchemaMissing) {
		response.ServiceUnavailable(c, "SCHEMA_MISSING", "catalog tables are missing; run the setup script")
		return
	}
	response.ServiceUnavailable(c, "STORE_UNREACHABLE", "store is unreachable: "+err.Error())
}
