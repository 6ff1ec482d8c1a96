package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"  // import the Echo web framework to handle routing
	"github.com/redis/go-redis/v9" // Redis client used by the rate-limit and cache middleware

	"github.com/iliyamo/restaurant-pos/internal/config"     // middleware configuration loaded from the environment
	"github.com/iliyamo/restaurant-pos/internal/handler"    // import the handlers that implement business logic
	"github.com/iliyamo/restaurant-pos/internal/middleware" // import middleware for JWT authentication and role enforcement
	"github.com/iliyamo/restaurant-pos/internal/model"
)

// RegisterRoutes registers routes that do not require authentication on the
// provided Echo instance.  Currently it exposes only a health check.
func RegisterRoutes(e *echo.Echo) {
	// Map the GET request at path "/healthz" to the Health handler.  This
	// endpoint can be used by load balancers or monitoring systems to verify
	// that the service is up and running.
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers all authentication-related routes.  Unauthenticated
// operations live under /v1/auth; the authenticated profile endpoint lives
// under /v1 behind the JWT middleware.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	// Create a route group under the /v1/auth prefix for operations that do
	// not require an existing session (register, login, refresh).  Each of
	// these handlers is responsible for generating or exchanging tokens.
	g := e.Group("/v1/auth")
	// Register a POST endpoint to handle user registration at /v1/auth/register.
	g.POST("/register", a.Register)
	// Register a POST endpoint to handle user login at /v1/auth/login.
	g.POST("/login", a.Login)
    // Register a POST endpoint to refresh access tokens at /v1/auth/refresh. This rotates the refresh token.
    g.POST("/refresh", a.Refresh)
    // Register a POST endpoint to issue a new access token without rotating the refresh token.
    g.POST("/refresh-access", a.RefreshAccess)
	// Logout does not require JWT authentication.  The handler accepts a JSON
	// body containing a `refresh_token` and invalidates that token, returning
	// 204 on success.
	g.POST("/logout", a.Logout)

	// Routes below require a valid access token.  All handlers registered on
	// this group execute the JWTAuth middleware before being invoked.
	auth := e.Group("/v1")
	auth.Use(middleware.JWTAuth(jwtSecret))
	auth.Use(middleware.RequireRole(model.RoleAdmin, model.RoleWaiter))
	// Register a GET endpoint at /v1/me that returns the authenticated user's information.
	auth.GET("/me", a.Me)
}

// APIHandlers bundles the resource handlers the protected API is built from,
// so callers wire them up once in main and pass a single value here.
type APIHandlers struct {
	Tables   *handler.TableHandler
	Orders   *handler.OrderHandler
	Products *handler.ProductHandler
	Sales    *handler.SaleHandler
	Users    *handler.UserHandler
	Billing  *handler.BillingHandler
}

// RegisterAPI registers the protected restaurant endpoints under /v1.  Every
// route requires a valid access token; mutations on the catalog, the floor
// plan and the staff roster additionally require the ADMIN role.  When a
// Redis client is supplied, the whole group is rate limited and selected
// read endpoints are served from the response cache.
func RegisterAPI(e *echo.Echo, h APIHandlers, jwtSecret string, rdb *redis.Client, rl config.RateLimitConfig, cache config.CacheConfig) {
	api := e.Group("/v1")
	api.Use(middleware.JWTAuth(jwtSecret))
	api.Use(middleware.RequireRole(model.RoleAdmin, model.RoleWaiter))
	// Rate limiting applies to every authenticated route.  The middleware is
	// a no-op when disabled or when Redis is unavailable.
	api.Use(middleware.RateLimit(rl, rdb))

	// The response cache only makes sense on read endpoints whose payloads
	// change rarely: the product catalog and the floor plan.
	cached := middleware.ResponseCache(cache, rdb)

	admin := middleware.RequireRole(model.RoleAdmin)

	// Floor plan.  Every member of staff can browse tables and occupy one;
	// creating, reshaping and deleting tables is an admin concern.
	api.GET("/tables", h.Tables.List, cached)
	api.GET("/tables/:id", h.Tables.Get)
	api.POST("/tables", h.Tables.Create, admin)
	api.PUT("/tables/:id", h.Tables.Update, admin)
	api.POST("/tables/:id/occupy", h.Tables.Occupy)
	api.GET("/tables/:id/orders", h.Tables.ListOrders)
	api.DELETE("/tables/:id", h.Tables.Delete, admin)

	// Billing: the ticket preview and the close action that records the
	// sale, clears the table's orders and frees the table.
	api.GET("/tables/:id/bill", h.Billing.GetBill)
	api.POST("/tables/:id/close", h.Billing.CloseTable)

	// Orders.  Waiters create and advance orders from the floor.
	api.GET("/orders", h.Orders.List)
	api.GET("/orders/:id", h.Orders.Get)
	api.POST("/orders", h.Orders.Create)
	api.PUT("/orders/:id", h.Orders.UpdateStatus)
	api.DELETE("/orders/:id", h.Orders.Delete)

	// Product catalog.  Browsing is open to all staff and cached; edits
	// are admin only.
	api.GET("/products", h.Products.List, cached)
	api.GET("/products/:id", h.Products.Get)
	api.POST("/products", h.Products.Create, admin)
	api.PUT("/products/:id", h.Products.Update, admin)
	api.PUT("/products/:id/image", h.Products.SetImage, admin)
	api.DELETE("/products/:id/image", h.Products.DeleteImage, admin)
	api.DELETE("/products/:id", h.Products.Delete, admin)

	// Sales ledger and reporting.  Reading the ledger is restricted to
	// admins; sales themselves are only ever written by the billing flow.
	api.GET("/sales", h.Sales.List, admin)
	api.GET("/sales/stats", h.Sales.Stats, admin)
	api.GET("/sales/:id", h.Sales.Get, admin)
	api.POST("/sales", h.Sales.Create, admin)

	// Staff management.
	api.GET("/users", h.Users.List, admin)
	api.GET("/users/:id", h.Users.Get, admin)
	api.PUT("/users/:id", h.Users.Update, admin)
	api.PUT("/users/:id/active", h.Users.SetActive, admin)
	api.DELETE("/users/:id", h.Users.Delete, admin)
}
