package httpserver

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"

	"github.com/Skotchmaster/cms_admin/internal/graphql"
	authmw "github.com/Skotchmaster/cms_admin/internal/middleware/auth"
	loggingmw "github.com/Skotchmaster/cms_admin/internal/middleware/logging"
)

type Deps struct {
	Logger   *slog.Logger
	GraphQL  *graphql.GraphQLHTTP
	Verifier authmw.Verifier

	// Ready reports whether backing stores are reachable. Nil means always ready.
	Ready func(ctx context.Context) error

	RateLimit float64
	RateBurst int
}

func Register(e *echo.Echo, d *Deps) {
	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(
		middleware.Recover(),
		middleware.RequestID(),
		loggingmw.RequestLogger(d.Logger),
		middleware.CORSWithConfig(middleware.CORSConfig{
			AllowOrigins: []string{"*"},
			AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowHeaders: []string{echo.HeaderContentType, echo.HeaderAuthorization},
		}),
	)

	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error {
		if d.Ready == nil {
			return c.NoContent(http.StatusOK)
		}
		ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
		defer cancel()
		if err := d.Ready(ctx); err != nil {
			return c.JSON(http.StatusServiceUnavailable, map[string]string{"error": "not ready"})
		}
		return c.NoContent(http.StatusOK)
	})

	api := []echo.MiddlewareFunc{authmw.Authenticate(d.Verifier)}
	if d.RateLimit > 0 {
		store := middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
			Rate:      rate.Limit(d.RateLimit),
			Burst:     d.RateBurst,
			ExpiresIn: 3 * time.Minute,
		})
		api = append([]echo.MiddlewareFunc{middleware.RateLimiter(store)}, api...)
	}

	e.POST("/graphql", d.GraphQL.Serve, api...)
}
