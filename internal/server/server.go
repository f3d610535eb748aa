// Package server exposes the deepdiff engine as Model Context Protocol tools
// over stdio or streamable HTTP
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/qri-io/deepdiff-mcp/internal/config"
)

const shutdownTimeout = 10 * time.Second

// Server hosts the deepdiff tools
type Server struct {
	cfg     *config.Config
	logger  *zap.Logger
	version string
	mcp     *mcp.Server
}

// New creates a server & registers its tools. compare_files is only
// registered when cfg.Server.AllowFileAccess is set
func New(cfg *config.Config, logger *zap.Logger, version string) *Server {
	s := &Server{
		cfg:     cfg,
		logger:  logger,
		version: version,
		mcp:     mcp.NewServer(&mcp.Implementation{Name: cfg.Server.Name, Version: version}, nil),
	}
	s.registerTools()
	return s
}

// MCP returns the underlying MCP server
func (s *Server) MCP() *mcp.Server {
	return s.mcp
}

// Run serves on the configured transport until ctx is done
func (s *Server) Run(ctx context.Context) error {
	switch s.cfg.Server.Transport {
	case "stdio":
		s.logger.Info("serving over stdio", zap.String("name", s.cfg.Server.Name))
		if err := s.mcp.Run(ctx, &mcp.StdioTransport{}); err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("stdio transport: %w", err)
		}
		return nil
	case "http":
		return s.serveHTTP(ctx)
	}
	return fmt.Errorf("unknown transport %q", s.cfg.Server.Transport)
}

func (s *Server) serveHTTP(ctx context.Context) error {
	addr := net.JoinHostPort(s.cfg.Server.Host, strconv.Itoa(s.cfg.Server.Port))
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.logger.Info("serving over http", zap.String("addr", addr), zap.String("path", s.cfg.Server.Path))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http transport: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(sctx)
	})
	return g.Wait()
}

// Handler routes the streamable HTTP transport at the configured path, plus a
// /healthz probe
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.accessLog)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{
			"status":  "ok",
			"name":    s.cfg.Server.Name,
			"version": s.version,
		})
	})

	r.Handle(s.cfg.Server.Path, mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return s.mcp
	}, nil))
	return r
}

func (s *Server) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("took", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}
