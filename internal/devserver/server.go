// Package devserver is a local backend of record for the TEO client. It serves
// the same REST surface the client consumes, backed by a store.BackendStore.
package devserver

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"teo-client-go/internal/models"
	"teo-client-go/internal/store"
)

type Server struct {
	echo  *echo.Echo
	store store.BackendStore
	cfg   models.DevServerConfig
	now   func() time.Time
}

type Option func(*Server)

// WithClock overrides the time source used for expiry and token checks.
func WithClock(now func() time.Time) Option {
	return func(s *Server) {
		s.now = now
	}
}

func New(cfg models.DevServerConfig, st store.BackendStore, opts ...Option) (*Server, error) {
	if st == nil {
		return nil, fmt.Errorf("store cannot be nil")
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("jwt secret cannot be empty")
	}
	if cfg.ChallengeTTL <= 0 {
		return nil, fmt.Errorf("challenge ttl must be positive, got %v", cfg.ChallengeTTL)
	}
	if cfg.TokenTTL <= 0 {
		return nil, fmt.Errorf("token ttl must be positive, got %v", cfg.TokenTTL)
	}

	s := &Server{
		store: st,
		cfg:   cfg,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = errorHandler

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			zap.L().Debug("Request handled",
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency),
				zap.String("request_id", v.RequestID))
			return nil
		},
	}))

	s.echo = e
	s.registerRoutes()
	return s, nil
}

func (s *Server) registerRoutes() {
	s.echo.GET("/health", s.healthCheck)

	api := s.echo.Group("/api", s.requireAuth)

	wallet := api.Group("/wallet")
	wallet.GET("", s.getWallet)
	wallet.POST("/challenge", s.issueChallenge)
	wallet.POST("/link", s.linkWallet)
	wallet.POST("/unlink", s.unlinkWallet)
	wallet.POST("/burn-credit", s.creditBurn)
	wallet.POST("/withdrawals", s.requestWithdrawal)
	wallet.POST("/stake", s.stake)

	decisions := api.Group("/discount-decisions")
	decisions.GET("/pending", s.listPending)
	decisions.GET("/pending/count", s.countPending)
	decisions.POST("/backfill", s.backfill)
	decisions.GET("/:id", s.getDecision)
	decisions.POST("/:id/accept", s.acceptDecision)
	decisions.POST("/:id/decline", s.declineDecision)
}

// Handler exposes the router, e.g. for httptest.
func (s *Server) Handler() http.Handler {
	return s.echo
}

func (s *Server) Start() error {
	zap.L().Info("Starting reference backend", zap.String("addr", s.cfg.ListenAddr))
	if err := s.echo.Start(s.cfg.ListenAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server start failed: %w", err)
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.echo.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	zap.L().Info("Reference backend stopped")
	return nil
}

func (s *Server) healthCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, models.APIResponse{
		Success: true,
		Message: "TEO reference backend is healthy",
		Data:    map[string]string{"status": "ok"},
	})
}
