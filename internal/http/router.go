package httpserver

import (
	"log"
	"net/http"

	"github.com/iago/outreach-leadgen/internal/http/handlers"
	"github.com/iago/outreach-leadgen/internal/http/middleware"
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
	mux.HandleFunc("/v1/leadgen/jobs", deps.API.CreateJob)
	mux.HandleFunc("/v1/leadgen/jobs/", deps.API.JobStatus)
	mux.HandleFunc("/v1/leadgen/run", deps.API.RunJob)
	mux.HandleFunc("/v1/icp/draft", deps.API.DraftICP)

	handler := http.Handler(mux)
	handler = middleware.Auth(deps.AuthToken)(handler)
	handler = middleware.RateLimit(middleware.RateLimitConfig{
		RPS:   deps.RateLimitRPS,
		Burst: deps.RateLimitBurst,
	})(handler)
	handler = middleware.CORS(middleware.CORSConfig{
		AllowedOrigins: deps.CORSOrigins,
	})(handler)
	handler = middleware.Trace(deps.Logger)(handler)
	handler = middleware.RequestID(handler)

	return handler
}
