package api

import (
	"net/http"
	"time"

	"condo-whatsapp/internal/middleware"
	"condo-whatsapp/internal/webhook"
	"condo-whatsapp/internal/ws"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RouterDeps are the collaborators wired into the HTTP surface. Optional
// ones (Hub, RateLimiter, Extra) may be nil.
type RouterDeps struct {
	Notifications *NotificationHandler
	Webhook       *webhook.Handler
	Auth          middleware.Authenticator
	Hub           *ws.Hub
	RateLimiter   *middleware.RateLimiter
	CORSOrigins   []string

	// Extra runs first, e.g. the tracing middleware.
	Extra []gin.HandlerFunc
}

func NewRouter(d RouterDeps) *gin.Engine {
	r := gin.New()
	r.Use(d.Extra...)
	r.Use(middleware.RequestID(), middleware.Logger(), middleware.Recovery(), middleware.Metrics())
	r.Use(cors.New(corsConfig(d.CORSOrigins)))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Gateways retry on anything but 200; no auth, no rate limit.
	r.GET("/webhook/whatsapp", d.Webhook.VerifyWebhook)
	r.POST("/webhook/whatsapp", d.Webhook.HandleStatus)

	authed := []gin.HandlerFunc{middleware.Auth(d.Auth)}
	if d.RateLimiter != nil {
		authed = append(authed, d.RateLimiter.Handler())
	}

	fn := r.Group("/functions/v1", authed...)
	{
		n := d.Notifications
		fn.POST("/notify-package-arrival", n.NotifyPackageArrival)
		fn.POST("/notify-resident-decision", n.NotifyResidentDecision)
		fn.POST("/notify-sindico-defense", n.NotifySindicoDefense)
		fn.POST("/send-party-hall-notification", n.SendPartyHallNotification)
		fn.POST("/send-whatsapp-notification", n.SendOccurrenceNotification)
		fn.POST("/test-whatsapp-connection", n.TestConnection)
	}

	apiGroup := r.Group("/api", gzip.Gzip(gzip.DefaultCompression))
	apiGroup.Use(authed...)
	{
		apiGroup.GET("/whatsapp/logs", d.Notifications.RecentLogs)
	}

	if d.Hub != nil {
		// Browsers cannot set headers on a websocket handshake.
		r.GET("/ws", tokenFromQuery(), middleware.Auth(d.Auth), func(c *gin.Context) {
			d.Hub.ServeWs(c.Writer, c.Request)
		})
	}
	return r
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Request-ID", "apikey", "x-client-info"},
		ExposeHeaders:    []string{middleware.RequestIDHeader},
		AllowCredentials: len(origins) > 0,
		MaxAge:           12 * time.Hour,
	}
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cfg
}

func tokenFromQuery() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetHeader("Authorization") == "" {
			if t := c.Query("token"); t != "" {
				c.Request.Header.Set("Authorization", "Bearer "+t)
			}
		}
		c.Next()
	}
}
