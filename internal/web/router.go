package web

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/jusunglee/uzscript/internal/conversion"
	"github.com/jusunglee/uzscript/internal/db"
	"github.com/jusunglee/uzscript/internal/web/handlers"
	"github.com/jusunglee/uzscript/internal/web/middleware"
)

const (
	maxBodyBytes      = 1 << 20
	maxBatchBodyBytes = 8 << 20
)

type Config struct {
	AllowedOrigins []string
	// AdminPassword enables GET /api/v1/feedback behind basic auth.
	AdminPassword string
	// RateLimit is the number of POST requests allowed per IP per minute.
	RateLimit int
}

type Router struct {
	repo db.Repository
	conv *conversion.Converter
	log  *slog.Logger
	cfg  Config
}

func NewRouter(repo db.Repository, conv *conversion.Converter, log *slog.Logger, cfg Config) *Router {
	if cfg.RateLimit <= 0 {
		cfg.RateLimit = 60
	}
	return &Router{repo: repo, conv: conv, log: log, cfg: cfg}
}

func (r *Router) Handler() http.Handler {
	mux := http.NewServeMux()

	transliterateHandler := handlers.NewTransliterateHandler(r.conv, r.log)
	conversionHandler := handlers.NewConversionHandler(r.repo, r.log)
	feedbackHandler := handlers.NewFeedbackHandler(r.conv, r.repo, r.log)

	rateLimiter := middleware.NewRateLimiter(r.cfg.RateLimit, time.Minute)

	mux.Handle("POST /api/v1/transliterate",
		middleware.Chain(
			http.HandlerFunc(transliterateHandler.Transliterate),
			middleware.PrometheusMetrics(),
			middleware.RequestLogger(r.log),
			middleware.RateLimit(rateLimiter),
			middleware.MaxBytes(maxBodyBytes),
		),
	)

	mux.Handle("POST /api/v1/transliterate/batch",
		middleware.Chain(
			http.HandlerFunc(transliterateHandler.Batch),
			middleware.PrometheusMetrics(),
			middleware.RequestLogger(r.log),
			middleware.RateLimit(rateLimiter),
			middleware.MaxBytes(maxBatchBodyBytes),
		),
	)

	mux.Handle("GET /api/v1/detect",
		middleware.Chain(
			http.HandlerFunc(transliterateHandler.Detect),
			middleware.PrometheusMetrics(),
			middleware.RequestLogger(r.log),
			middleware.CacheControl("public, max-age=3600"),
		),
	)

	mux.Handle("GET /api/v1/conversions",
		middleware.Chain(
			http.HandlerFunc(conversionHandler.List),
			middleware.PrometheusMetrics(),
			middleware.RequestLogger(r.log),
			middleware.CacheControl("public, s-maxage=5, max-age=0"),
		),
	)

	mux.Handle("GET /api/v1/conversions/{id}",
		middleware.Chain(
			http.HandlerFunc(conversionHandler.Get),
			middleware.PrometheusMetrics(),
			middleware.RequestLogger(r.log),
			middleware.CacheControl("public, s-maxage=60, max-age=0"),
		),
	)

	mux.Handle("POST /api/v1/conversions/{id}/feedback",
		middleware.Chain(
			http.HandlerFunc(feedbackHandler.Create),
			middleware.PrometheusMetrics(),
			middleware.RequestLogger(r.log),
			middleware.RateLimit(rateLimiter),
			middleware.MaxBytes(maxBodyBytes),
		),
	)

	if r.cfg.AdminPassword != "" {
		mux.Handle("GET /api/v1/feedback",
			middleware.Chain(
				http.HandlerFunc(feedbackHandler.List),
				middleware.PrometheusMetrics(),
				middleware.RequestLogger(r.log),
				middleware.BasicAuth(r.cfg.AdminPassword),
				middleware.CacheControl("no-store"),
			),
		)
	}

	return middleware.CORS(r.cfg.AllowedOrigins)(mux)
}
