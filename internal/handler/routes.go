package handler

import (
	"github.com/SamuelMMedeiros/BV-Celular-sub002/internal/middleware"

	"github.com/labstack/echo/v4"
)

// Routes groups the handlers mounted by Register
type Routes struct {
	Health    *HealthHandler
	Auth      *AuthHandler
	Products  *ProductHandler
	Stores    *StoreHandler
	Employees *EmployeeHandler
	Push      *PushHandler
	Pages     *PageHandler
}

// Public storefront pages
var storefrontPages = []string{"/", "/produtos", "/produtos/:id", "/lojas", "/login", "/cadastro"}

// Register mounts the API and the gated page routes. sessionChain must
// resolve the session (JWT parsing followed by session resolution).
func (r *Routes) Register(e *echo.Echo, sessionChain ...echo.MiddlewareFunc) {
	e.HTTPErrorHandler = ErrorHandler

	e.GET("/health", r.Health.Check)

	api := e.Group("/api", sessionChain...)

	auth := api.Group("/auth")
	auth.POST("/register", r.Auth.Register)
	auth.POST("/login", r.Auth.Login)
	auth.POST("/logout", r.Auth.Logout)

	api.GET("/session", GetSession)

	products := api.Group("/products")
	products.GET("", r.Products.List)
	products.GET("/:id", r.Products.Get)
	products.POST("", r.Products.Create, middleware.RequireEmployee)
	products.PUT("/:id", r.Products.Update, middleware.RequireEmployee)
	products.DELETE("/:id", r.Products.Delete, middleware.RequireEmployee)

	stores := api.Group("/stores")
	stores.GET("", r.Stores.List)
	stores.GET("/:id", r.Stores.Get)
	stores.POST("", r.Stores.Create, middleware.RequireEmployee)
	stores.PUT("/:id", r.Stores.Update, middleware.RequireEmployee)
	stores.DELETE("/:id", r.Stores.Delete, middleware.RequireEmployee)

	employees := api.Group("/employees", middleware.RequireEmployee)
	employees.GET("", r.Employees.List)
	employees.GET("/:id", r.Employees.Get)
	employees.POST("", r.Employees.Create)
	employees.PUT("/:id", r.Employees.Update)
	employees.DELETE("/:id", r.Employees.Delete)

	api.GET("/push/vapid-public-key", r.Push.VAPIDPublicKey)
	api.POST("/push/subscriptions", r.Push.Subscribe, middleware.RequireAuth)
	api.DELETE("/push/subscriptions", r.Push.Unsubscribe, middleware.RequireAuth)
	api.POST("/notifications", r.Push.Broadcast, middleware.RequireEmployee)

	public := gated(sessionChain, middleware.PublicRoute)
	for _, path := range storefrontPages {
		e.GET(path, r.Pages.Index, public...)
	}
	admin := gated(sessionChain, middleware.AdminRoute)
	e.GET("/admin", r.Pages.Index, admin...)
	e.GET("/admin/*", r.Pages.Index, admin...)
}

func gated(sessionChain []echo.MiddlewareFunc, gate echo.MiddlewareFunc) []echo.MiddlewareFunc {
	chain := make([]echo.MiddlewareFunc, 0, len(sessionChain)+1)
	chain = append(chain, sessionChain...)
	return append(chain, gate)
}
