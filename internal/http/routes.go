package http

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"echoboard/internal/board"
	"echoboard/internal/config"
	"echoboard/internal/events"
)

// SetupRoutes configures all application routes and middleware.
func SetupRoutes(router *gin.Engine, svc *board.Service, hub *events.Hub, cfg config.Config) {

	// --- Dependencies ---
	env := &Env{Board: svc, Hub: hub, Cfg: cfg}

	// --- Middleware ---
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(SecurityHeadersMiddleware())

	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{cfg.CORSOrigin},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "X-Fingerprint", "X-Admin-Token"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
	}))

	// --- Rate Limiter Setup ---
	limiter := NewIPRateLimiter(rate.Limit(rateLimitRPS), rateLimitBurst)
	go limiter.PruneLoop(10 * time.Minute)

	// --- API Routes ---
	api := router.Group("/api")
	{
		api.GET("/posts", env.GetPosts)
		api.GET("/trending", env.GetTrendingPosts)
		api.GET("/posts/:id", env.GetPost)
		api.GET("/codename", env.GetCodename)
		api.GET("/policy", env.GetPolicy)
		api.POST("/posts", RateLimitMiddleware(limiter), env.CreatePost)
		api.POST("/posts/:id/vote", RateLimitMiddleware(limiter), env.VoteOnPost)
		api.POST("/posts/:id/report", RateLimitMiddleware(limiter), env.ReportPost)

		api.GET("/stream", env.StreamEvents)

		admin := api.Group("", AdminAuthMiddleware(cfg.AdminToken))
		{
			admin.DELETE("/posts/:id", env.DeletePost)
			admin.GET("/reports", env.ListReports)
			admin.POST("/bans", env.CreateBan)
		}
	}

	// --- WebSocket Route ---
	router.GET("/ws", env.ServeWS)
}
