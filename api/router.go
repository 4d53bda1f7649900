package api

import (
	"context"
	"net/http"
	"slices"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/use-agent/mcxwatch/api/handler"
	"github.com/use-agent/mcxwatch/api/middleware"
	"github.com/use-agent/mcxwatch/config"
	"github.com/use-agent/mcxwatch/history"
	"github.com/use-agent/mcxwatch/refresh"
	"github.com/use-agent/mcxwatch/state"
)

// NewRouter creates a configured Gin engine with all routes and middleware.
//
// Middleware chain:
//
//	Global:  Recovery → Logger → CORS
//	/scrape: Auth (if enabled) → RateLimit
//
// Only /scrape starts a browser, so it is the only guarded route. ctx bounds
// the rate limiter's background sweep.
func NewRouter(ctx context.Context, cfg *config.Config, svc *refresh.Service, store *state.Store, hist *history.Store, startTime time.Time) *gin.Engine {
	gin.SetMode(cfg.Server.Mode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.Logger())
	r.Use(cors.New(corsConfig(cfg.CORS)))

	r.GET("/", handler.Index())
	r.GET("/latest", handler.Latest(store))
	r.GET("/stream", handler.Stream(store, svc.Interval()))
	r.GET("/download", handler.Download(hist))
	r.GET("/health", handler.Health(store, svc, startTime))

	guarded := r.Group("")
	if cfg.Auth.Enabled {
		guarded.Use(middleware.Auth(cfg.Auth.APIKeys))
	}
	guarded.Use(middleware.RateLimit(ctx, cfg.RateLimit))
	guarded.GET("/scrape", handler.Scrape(svc, store))

	return r
}

func corsConfig(cfg config.CORSConfig) cors.Config {
	c := cors.Config{
		AllowMethods:  []string{http.MethodGet, http.MethodOptions},
		AllowHeaders:  []string{"Origin", "Accept", "Authorization", "X-API-Key", "Cache-Control"},
		ExposeHeaders: []string{"Content-Disposition", "Retry-After"},
		MaxAge:        12 * time.Hour,
	}
	if len(cfg.AllowOrigins) == 0 || slices.Contains(cfg.AllowOrigins, "*") {
		c.AllowAllOrigins = true
	} else {
		c.AllowOrigins = cfg.AllowOrigins
	}
	return c
}
