package httpserver

import (
	"log"
	"net/http"

	"github.com/labforge/estudo-insights-back/internal/http/handlers"
	"github.com/labforge/estudo-insights-back/internal/http/middleware"
	"github.com/labforge/estudo-insights-back/internal/metrics"
)

type RouterDependencies struct {
	API            *handlers.API
	Logger         *log.Logger
	AuthToken      string
	CORSOrigins    []string
	RateLimitRPS   float64
	RateLimitBurst int
}

func NewRouter(deps RouterDependencies) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", deps.API.Health)
	mux.Handle("/metrics", metrics.Handler())
	mux.HandleFunc("/v1/index/run", deps.API.RunIndexBatch)
	mux.HandleFunc("/v1/jobs/", deps.API.JobStatus)
	mux.HandleFunc("/v1/verify/tabular", deps.API.VerifyTabular)
	mux.HandleFunc("/v1/intent/tabular", deps.API.DetectIntent)
	mux.HandleFunc("/v1/projects/", deps.API.ProjectRoutes)

	handler := http.Handler(mux)
	handler = middleware.Auth(deps.AuthToken)(handler)
	handler = middleware.RateLimit(deps.RateLimitRPS, deps.RateLimitBurst)(handler)
	handler = middleware.CORS(middleware.CORSConfig{
		AllowedOrigins: deps.CORSOrigins,
	})(handler)
	handler = middleware.Trace(deps.Logger)(handler)
	handler = middleware.RequestID(handler)

	return handler
}
