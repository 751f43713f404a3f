package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/hitoshi/loginserver/internal/auth"
	"github.com/hitoshi/loginserver/internal/metrics"
	"github.com/hitoshi/loginserver/internal/middleware"
	"github.com/prometheus/client_golang/prometheus"
)

// defaultMaxBodyBytes はリクエストボディの上限のデフォルト値（100KB）。
const defaultMaxBodyBytes = 100 << 10

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	Logger             *slog.Logger
	CORSAllowedOrigins []string
	RateLimiter        *middleware.RateLimiter
	MaxBodyBytes       int64

	// trueの場合のみX-Forwarded-For等からクライアントIPを決定する。
	// 信頼できるリバースプロキシの背後でのみ有効にすること。
	TrustProxyHeaders bool

	// 認証
	Verifier auth.TokenVerifier

	// 死活監視
	HealthChecker HealthChecker

	// メトリクス（Gathererがnilの場合は/metricsを公開しない）
	Metrics         metrics.MetricsCollector
	MetricsGatherer prometheus.Gatherer
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	RequestID → (RealIP) → Logging → Metrics → Recovery → CORS → SecurityHeaders → RequestSize
//
// RealIPはTrustProxyHeadersが有効な場合のみ適用する。
// /api/login にはさらにクライアントIPごとのレート制限を適用する。
func NewRouter(deps *RouterDeps) http.Handler {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	collector := deps.Metrics
	if collector == nil {
		collector = metrics.NopCollector{}
	}
	maxBodyBytes := deps.MaxBodyBytes
	if maxBodyBytes <= 0 {
		maxBodyBytes = defaultMaxBodyBytes
	}

	r := chi.NewRouter()

	r.Use(middleware.NewRequestIDMiddleware())
	if deps.TrustProxyHeaders {
		r.Use(chimw.RealIP)
	}
	r.Use(middleware.NewLoggingMiddleware(logger))
	r.Use(middleware.NewMetricsMiddleware(collector))
	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewCORSMiddleware(middleware.DefaultCORSConfig(deps.CORSAllowedOrigins)))
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(chimw.RequestSize(maxBodyBytes))

	authHandler := NewAuthHandler(deps.Verifier, collector)
	healthHandler := NewHealthHandler(deps.HealthChecker)

	r.Get("/health", healthHandler.Health)
	if deps.MetricsGatherer != nil {
		r.Method(http.MethodGet, "/metrics", metrics.Handler(deps.MetricsGatherer))
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/test", healthHandler.Test)

		login := r.With()
		if deps.RateLimiter != nil {
			login = r.With(deps.RateLimiter.Middleware())
		}
		login.Post("/login", authHandler.Login)
	})

	return r
}
