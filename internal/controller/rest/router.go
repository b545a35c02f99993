package rest

import (
	"github.com/gin-gonic/gin"

	"BakeryStore/internal/auth"
	"BakeryStore/internal/controller/rest/handlers"
	"BakeryStore/internal/domain/user"
	"BakeryStore/pkg/health"
	"BakeryStore/pkg/metrics"
)

type Router struct {
	session        *handlers.SessionHandler
	product        *handlers.ProductHandler
	cart           *handlers.CartHandler
	order          *handlers.OrderHandler
	stats          *handlers.StatsHandler
	users          *handlers.UserHandler
	tokens         *auth.TokenIssuer
	healthRegistry *health.Registry
}

func (r *Router) SetUp(engine *gin.Engine) {
	// Health checks (Kubernetes-style)
	engine.GET("/health/live", health.LivenessHandler())
	engine.GET("/health/ready", health.ReadinessHandler(r.healthRegistry, health.DefaultTimeout))

	engine.GET("/metrics", gin.WrapH(metrics.Handler()))

	// Public
	engine.POST("/sessions", r.session.Login)
	engine.POST("/users", r.session.Register)
	engine.GET("/products", r.product.List)
	engine.GET("/products/:id", r.product.Get)

	authed := engine.Group("/", auth.Middleware(r.tokens))
	authed.DELETE("/sessions", r.session.Logout)

	staff := authed.Group("/", auth.RequireRoles(user.RoleAdmin, user.RoleVendor))
	staff.POST("/products", r.product.Create)
	staff.PUT("/products/:id", r.product.Update)
	staff.PUT("/products/:id/stock", r.product.Restock)
	staff.DELETE("/products/:id", r.product.Delete)
	staff.GET("/stats", r.stats.Get)

	admin := authed.Group("/admin", auth.RequireRoles(user.RoleAdmin))
	admin.GET("/users", r.users.List)
	admin.POST("/users", r.users.Create)
	admin.PUT("/users/:username", r.users.Update)
	admin.DELETE("/users/:username", r.users.Delete)

	authed.GET("/cart", r.cart.Get)
	authed.DELETE("/cart", r.cart.Clear)
	authed.POST("/cart/items", r.cart.AddItem)
	authed.PATCH("/cart/items/:product_id", r.cart.ChangeQuantity)
	authed.DELETE("/cart/items/:product_id", r.cart.RemoveItem)
	authed.POST("/checkout", r.cart.Checkout)

	authed.GET("/orders", r.order.Filter)
	authed.GET("/orders/:order_id", r.order.Get)
	authed.PATCH("/orders/:order_id", r.order.Update)
	authed.GET("/orders/:order_id/events", r.order.GetEvents)
}

func NewRouter(
	session *handlers.SessionHandler,
	product *handlers.ProductHandler,
	cart *handlers.CartHandler,
	order *handlers.OrderHandler,
	stats *handlers.StatsHandler,
	users *handlers.UserHandler,
	tokens *auth.TokenIssuer,
	healthRegistry *health.Registry,
) *Router {
	return &Router{
		session:        session,
		product:        product,
		cart:           cart,
		order:          order,
		stats:          stats,
		users:          users,
		tokens:         tokens,
		healthRegistry: healthRegistry,
	}
}
