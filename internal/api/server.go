// Package api serves the sfl REST surface and the MCP endpoint over HTTP.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/pbaille/sfl/internal/logger"
	"github.com/pbaille/sfl/internal/service"
)

// TokenStore checks bearer tokens issued to clients.
type TokenStore interface {
	TokenExists(ctx context.Context, token string) (bool, error)
}

// Config configures a Server.
type Config struct {
	Addr        string
	APIKey      string
	CORSOrigins []string
	ServiceName string
}

// Server handles HTTP requests for the idea graph.
type Server struct {
	svc    *service.Service
	tokens TokenStore
	mcp    http.Handler
	log    *logger.Logger
	cfg    Config
	engine *gin.Engine
	http   *http.Server
}

// New builds the router. mcp may be nil, in which case /mcp is not mounted.
func New(cfg Config, svc *service.Service, tokens TokenStore, mcp http.Handler, log *logger.Logger) *Server {
	if cfg.ServiceName == "" {
		cfg.ServiceName = "sfl"
	}
	s := &Server{svc: svc, tokens: tokens, mcp: mcp, log: log, cfg: cfg}
	s.engine = s.routes()
	return s
}

// Handler exposes the router, mostly for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(otelgin.Middleware(s.cfg.ServiceName))
	r.Use(requestLog(s.log))
	r.Use(corsMiddleware(s.cfg.CORSOrigins))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	protected := r.Group("/")
	protected.Use(requireAuth(s.cfg.APIKey, s.tokens, s.log))
	{
		protected.GET("/ideas", s.listIdeas)
		protected.POST("/ideas", s.createIdea)
		protected.GET("/ideas/search", s.searchIdeas)
		protected.GET("/ideas/:id", s.getIdea)
		protected.PUT("/ideas/:id", s.updateIdea)
		protected.DELETE("/ideas/:id", s.deleteIdea)
		protected.POST("/ideas/:id/fetch-content", s.fetchContent)

		protected.POST("/ideas/:id/notes", s.addNote)
		protected.PUT("/notes/:id", s.updateNote)
		protected.DELETE("/notes/:id", s.deleteNote)

		protected.POST("/ideas/:id/media", s.uploadMedia)
		protected.POST("/ideas/:id/media/fetch", s.fetchMedia)
		protected.GET("/media/:id/url", s.serveMedia)
		protected.DELETE("/media/:id", s.deleteMedia)

		protected.POST("/connections", s.createConnection)
		protected.DELETE("/connections/:id", s.deleteConnection)

		protected.GET("/tags", s.listTags)
		protected.GET("/graph", s.graph)
		protected.GET("/graph/:id/neighbors", s.neighbors)

		if s.mcp != nil {
			protected.POST("/mcp", gin.WrapH(s.mcp))
		}
	}
	return r
}

// Run listens on the configured address until Shutdown is called.
func (s *Server) Run() error {
	s.http = &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.log.Info("http server listening", "addr", s.cfg.Addr)
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("listen %s: %w", s.cfg.Addr, err)
	}
	return nil
}

// Shutdown stops accepting connections and waits for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.http == nil {
		return nil
	}
	return s.http.Shutdown(ctx)
}
