/*
This file is part of the AtomBPMN (R) project.
Copyright (c) 2025 Matreska Market LLC (ООО «Matreska Market»).
Authors: Matreska Team.

This project is dual-licensed under AGPL-3.0 and AtomBPMN Commercial License.
*/

package restapi

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"cepengine/internal/engine"
	"cepengine/internal/logger"
	"cepengine/internal/metrics"
)

// Config configures the HTTP listener.
type Config struct {
	Host string
	Port int
}

// Server is the REST API process, grounded on the teacher's
// restapi.Server (src/core/restapi/server.go) but wired to a single
// engine.Engine instead of the teacher's CoreTypedInterface.
type Server struct {
	cfg        Config
	httpServer *http.Server
	router     *gin.Engine
	eng        *engine.Engine
	log        logger.ComponentLogger
}

// New builds a Server around eng. reg is nil-safe: when nil, /metrics
// is not mounted.
func New(cfg Config, eng *engine.Engine, reg *metrics.Registry, log logger.ComponentLogger) *Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestLogger(log))

	s := &Server{cfg: cfg, router: router, eng: eng, log: log}
	s.registerRoutes(reg)
	return s
}

// requestLogger is a minimal structured-logging middleware, grounded on
// the teacher's LoggingMiddleware (src/core/restapi/middleware/logging_middleware.go)
// narrowed to one line per request.
func requestLogger(log logger.ComponentLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Info("http request",
			logger.String("method", c.Request.Method),
			logger.String("path", c.Request.URL.Path),
			logger.Int("status", c.Writer.Status()),
			logger.Any("durationMs", time.Since(start).Milliseconds()),
		)
	}
}

func (s *Server) registerRoutes(reg *metrics.Registry) {
	s.router.GET("/healthz", s.handleHealthz)
	if reg != nil {
		s.router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg.Gatherer, promhttp.HandlerOpts{})))
	}

	v1 := s.router.Group("/v1")
	v1.POST("/events", s.handlePostEvent)
	v1.POST("/rules", s.handlePostRule)
	v1.DELETE("/rules/:id", s.handleDeleteRule)
	v1.GET("/instances", s.handleGetInstances)
	v1.GET("/rules/:id/instances", s.handleGetRuleInstances)
	v1.GET("/timers", s.handleGetTimers)
	v1.GET("/timers/:name", s.handleGetTimer)
	v1.GET("/matches/recent", s.handleRecentMatches)
}

func (s *Server) handleHealthz(c *gin.Context) {
	ok(c, http.StatusOK, gin.H{"status": "ok"})
}

// Start begins serving HTTP in the background.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	s.httpServer = &http.Server{Addr: addr, Handler: s.router}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", addr, err)
	}

	go func() {
		if err := s.httpServer.Serve(ln); err != nil && err != http.ErrServerClosed {
			s.log.Error("rest api server stopped", logger.Err(err))
		}
	}()

	s.log.Info("rest api server listening", logger.String("address", addr))
	return nil
}

// Stop gracefully shuts the HTTP server down.
func (s *Server) Stop(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}
