// Package web is the HTML/HTTP surface of the board: routes, middleware,
// templates and the HTTP server.
package web

import (
	"context"
	"fmt"
	"net/http"

	"github.com/dmitrijs2005/swapboard/internal/logging"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Pinger reports storage health.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Options struct {
	MaxBodyBytes int64
	// UploadDir is served under /static/uploads when non-empty.
	UploadDir string
	Registry  *prometheus.Registry
	Limiter   *RateLimiter
	Pinger    Pinger
}

func NewRouter(svc ListingService, o Options, logger logging.Logger) (*gin.Engine, error) {
	tmpl, err := parseTemplates(svc.ImageURL)
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}

	h := NewHandler(svc, logger)

	r := gin.New()
	r.SetHTMLTemplate(tmpl)
	r.Use(gin.Recovery(), RequestID(), AccessLog(logger.With("module", "access")))

	if o.Registry != nil {
		r.Use(newHTTPMetrics(o.Registry).middleware())
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(o.Registry, promhttp.HandlerOpts{})))
	}

	r.GET("/", h.Index)
	r.POST("/post", o.Limiter.Middleware(), BodyLimit(o.MaxBodyBytes), h.Create)
	r.GET("/complete/:id", h.Complete)

	if o.UploadDir != "" {
		r.Static("/static/uploads", o.UploadDir)
	}

	r.GET("/healthz", func(c *gin.Context) {
		if o.Pinger != nil {
			if err := o.Pinger.Ping(c.Request.Context()); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	return r, nil
}
