package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/roofledger/scopediff/internal/ingestion"
	"github.com/roofledger/scopediff/internal/reconciliation"
	"github.com/roofledger/scopediff/internal/repository"
)

// Deps are the collaborators the handlers need.
type Deps struct {
	Estimates      *repository.EstimateRepo
	Reconciliation *reconciliation.Service
	Ingestion      *ingestion.Service
	Gatherer       prometheus.Gatherer
	AllowedOrigins []string
	Logger         *slog.Logger
}

// NewRouter creates the Chi router with all API routes mounted.
func NewRouter(d Deps) http.Handler {
	h := &Handlers{
		estimates:    d.Estimates,
		reconSvc:     d.Reconciliation,
		ingestionSvc: d.Ingestion,
		logger:       d.Logger.With("component", "api"),
	}

	r := chi.NewRouter()

	// Middleware.
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: d.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", h.Health)
	if d.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.SetHeader("Content-Type", "application/json"))

		// Stateless comparison.
		r.Post("/delta", h.ComputeDelta)

		r.Route("/claims/{claimID}", func(r chi.Router) {
			// Estimates.
			r.Post("/estimates", h.IngestEstimate)
			r.Get("/estimates", h.ListEstimates)

			// Comparisons.
			r.Post("/reconcile", h.Reconcile)
			r.Get("/comparisons/latest", h.GetLatestComparison)

			// Variances.
			r.Get("/variances", h.ListVariances)
			r.Get("/variances/summary", h.GetVarianceSummary)
		})
	})

	return r
}
