// Package server 暴露问答 HTTP 接口。
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/liao/quimicai/internal/assistant"
	"github.com/liao/quimicai/internal/metrics"
)

// Asker 由 assistant.Assistant 实现
type Asker interface {
	Ask(ctx context.Context, question string) (*assistant.Answer, error)
	Ready() bool
}

type Options struct {
	Addr           string
	Debug          bool
	AllowedOrigins []string
	CorpusUnits    int
	Metrics        *metrics.Metrics
}

type Server struct {
	asker       Asker
	corpusUnits int
	engine      *gin.Engine
	http        *http.Server
}

func New(asker Asker, opts Options) *Server {
	if !opts.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &Server{
		asker:       asker,
		corpusUnits: opts.CorpusUnits,
	}

	r := gin.New()
	r.Use(gin.Recovery(), requestID(), requestLogger(), corsMiddleware(opts.AllowedOrigins))

	api := r.Group("/api")
	api.POST("/ask", s.ask)
	api.GET("/health", s.health)
	r.GET("/metrics", gin.WrapH(opts.Metrics.Handler()))

	s.engine = r
	s.http = &http.Server{
		Addr:              opts.Addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler 供测试直接使用
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run 阻塞直到 ctx 取消，然后优雅关闭
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		slog.Info("http server listening", "addr", s.http.Addr)
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("shutting down http server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.http.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
