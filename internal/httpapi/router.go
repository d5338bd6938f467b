package httpapi

import (
	"io"
	"log/slog"
	"net/http"

	"coffee-shop/internal/auth"
	"coffee-shop/internal/rbac"
	"coffee-shop/pkg/logger"

	"github.com/gin-gonic/gin"
)

type Deps struct {
	Logger   *slog.Logger
	Verifier auth.TokenVerifier
	Handlers Handlers
}

// NewRouter builds the gin engine with every route and its guards.
// Keep this free of business logic; handlers delegate to internal modules.
func NewRouter(d Deps) *gin.Engine {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}

	r := gin.New()
	r.HandleMethodNotAllowed = true
	// Client IPs come from the socket; no proxy headers are trusted.
	_ = r.SetTrustedProxies(nil)

	r.Use(logger.Middleware(d.Logger))
	r.Use(gin.CustomRecoveryWithWriter(io.Discard, func(c *gin.Context, rec any) {
		logger.FromGin(c).Error("panic recovered", "panic", rec)
		abortWithStatus(c, http.StatusInternalServerError)
	}))

	r.NoRoute(func(c *gin.Context) { abortWithStatus(c, http.StatusNotFound) })
	r.NoMethod(func(c *gin.Context) { abortWithStatus(c, http.StatusMethodNotAllowed) })

	h := d.Handlers

	// public
	r.GET("/healthz", h.Health)
	r.GET("/drinks", h.ListDrinks)

	// protected: token first, then permission
	authn := auth.RequireAccessToken(d.Verifier)
	r.GET("/drinks-detail", authn, rbac.RequirePermission(rbac.PermGetDrinksDetail), h.ListDrinksDetail)
	r.POST("/drinks", authn, rbac.RequirePermission(rbac.PermPostDrinks), h.CreateDrink)
	r.PATCH("/drinks/:id", authn, rbac.RequirePermission(rbac.PermPatchDrinks), h.UpdateDrink)
	r.DELETE("/drinks/:id", authn, rbac.RequirePermission(rbac.PermDeleteDrinks), h.DeleteDrink)

	return r
}
