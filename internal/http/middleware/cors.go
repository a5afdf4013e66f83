package middleware

import (
	"net/http"
	"strconv"
	"strings"
)

const defaultCORSMaxAgeSeconds = 600

var (
	defaultCORSAllowedMethods = []string{
		http.MethodGet,
		http.MethodPost,
		http.MethodOptions,
	}
	defaultCORSAllowedHeaders = []string{
		"Accept",
		"Authorization",
		"Content-Type",
		"Idempotency-Key",
		RequestIDHeader,
	}
	// Browsers hide these from polling clients unless they are exposed.
	defaultCORSExposedHeaders = []string{
		"Retry-After",
		"Idempotent-Replayed",
		RequestIDHeader,
		JobIDHeader,
		JobStatusHeader,
	}
)

type CORSConfig struct {
	AllowedOrigins []string
	AllowedMethods []string
	AllowedHeaders []string
	ExposedHeaders []string
	MaxAgeSeconds  int
}

type corsPolicy struct {
	origins      []string
	anyOrigin    bool
	allowMethods string
	allowHeaders string
	exposeHeader string
	maxAge       string
}

func newCORSPolicy(cfg CORSConfig) corsPolicy {
	policy := corsPolicy{
		origins:      normalizeStringList(cfg.AllowedOrigins),
		allowMethods: strings.Join(withDefault(cfg.AllowedMethods, defaultCORSAllowedMethods), ", "),
		allowHeaders: strings.Join(withDefault(cfg.AllowedHeaders, defaultCORSAllowedHeaders), ", "),
		exposeHeader: strings.Join(withDefault(cfg.ExposedHeaders, defaultCORSExposedHeaders), ", "),
	}
	for _, origin := range policy.origins {
		if origin == "*" {
			policy.anyOrigin = true
			break
		}
	}

	maxAge := cfg.MaxAgeSeconds
	if maxAge <= 0 {
		maxAge = defaultCORSMaxAgeSeconds
	}
	policy.maxAge = strconv.Itoa(maxAge)
	return policy
}

func (p corsPolicy) allows(origin string) bool {
	return p.anyOrigin || containsFold(p.origins, origin)
}

// CORS answers preflights for allowed origins and decorates their actual
// requests. Requests from other origins pass through untouched.
func CORS(cfg CORSConfig) func(http.Handler) http.Handler {
	policy := newCORSPolicy(cfg)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := strings.TrimSpace(r.Header.Get("Origin"))
			if origin == "" || !policy.allows(origin) {
				next.ServeHTTP(w, r)
				return
			}

			header := w.Header()
			header.Add("Vary", "Origin")
			if policy.anyOrigin {
				header.Set("Access-Control-Allow-Origin", "*")
			} else {
				header.Set("Access-Control-Allow-Origin", origin)
			}

			if r.Method == http.MethodOptions {
				header.Add("Vary", "Access-Control-Request-Method")
				header.Add("Vary", "Access-Control-Request-Headers")
				header.Set("Access-Control-Allow-Methods", policy.allowMethods)
				header.Set("Access-Control-Allow-Headers", policy.allowHeaders)
				header.Set("Access-Control-Max-Age", policy.maxAge)
				w.WriteHeader(http.StatusNoContent)
				return
			}

			header.Set("Access-Control-Expose-Headers", policy.exposeHeader)
			next.ServeHTTP(w, r)
		})
	}
}

func withDefault(values, fallback []string) []string {
	normalized := normalizeStringList(values)
	if len(normalized) == 0 {
		return append([]string(nil), fallback...)
	}
	return normalized
}

func normalizeStringList(values []string) []string {
	result := make([]string, 0, len(values))
	for _, raw := range values {
		if value := strings.TrimSpace(raw); value != "" {
			result = append(result, value)
		}
	}
	return result
}

func containsFold(values []string, target string) bool {
	for _, value := range values {
		if strings.EqualFold(value, target) {
			return true
		}
	}
	return false
}
