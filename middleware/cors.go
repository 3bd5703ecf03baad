package middleware

import (
	"net/http"
	"strconv"
	"strings"

	"golang.org/x/exp/slices"
)

// CORSConfig holds the configuration for CORS middleware. Empty lists
// fall back to the defaults of DefaultCORSConfig.
type CORSConfig struct {
	// AllowedOrigins lists the origins allowed to call the server. "*"
	// allows every origin.
	AllowedOrigins []string `yaml:"allowed_origins"`
	AllowedMethods []string `yaml:"allowed_methods"`
	AllowedHeaders []string `yaml:"allowed_headers"`
	ExposedHeaders []string `yaml:"exposed_headers"`

	// AllowCredentials echoes the requesting origin instead of "*", since
	// browsers reject a wildcard together with credentials.
	AllowCredentials bool `yaml:"allow_credentials"`

	// MaxAge is the preflight cache lifetime in seconds; 0 leaves it unset.
	MaxAge int `yaml:"max_age" validate:"gte=0"`
}

// DefaultCORSConfig allows every origin to describe and call the registry.
func DefaultCORSConfig() *CORSConfig {
	return &CORSConfig{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
	}
}

type corsPolicy struct {
	origins     []string
	wildcard    bool
	credentials bool
	methods     string
	headers     string
	exposed     string
	maxAge      string
}

func newCORSPolicy(cfg *CORSConfig) *corsPolicy {
	def := DefaultCORSConfig()
	if cfg == nil {
		cfg = def
	}
	orDefault := func(v, d []string) []string {
		if len(v) == 0 {
			return d
		}
		return v
	}
	p := &corsPolicy{
		origins:     orDefault(cfg.AllowedOrigins, def.AllowedOrigins),
		credentials: cfg.AllowCredentials,
		methods:     strings.Join(orDefault(cfg.AllowedMethods, def.AllowedMethods), ", "),
		headers:     strings.Join(orDefault(cfg.AllowedHeaders, def.AllowedHeaders), ", "),
		exposed:     strings.Join(cfg.ExposedHeaders, ", "),
	}
	p.wildcard = slices.Contains(p.origins, "*")
	if cfg.MaxAge > 0 {
		p.maxAge = strconv.Itoa(cfg.MaxAge)
	}
	return p
}

// allowOrigin returns the Access-Control-Allow-Origin value for origin,
// or "" when the origin is not allowed.
func (p *corsPolicy) allowOrigin(origin string) string {
	switch {
	case p.wildcard && (origin == "" || !p.credentials):
		return "*"
	case p.wildcard:
		return origin
	case origin != "" && slices.Contains(p.origins, origin):
		return origin
	}
	return ""
}

// CORS returns an HTTP middleware that answers preflight requests and sets
// CORS headers. A nil cfg uses DefaultCORSConfig.
func CORS(cfg *CORSConfig) func(http.Handler) http.Handler {
	p := newCORSPolicy(cfg)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			if allow := p.allowOrigin(r.Header.Get("Origin")); allow != "" {
				h.Set("Access-Control-Allow-Origin", allow)
				if allow != "*" {
					h.Add("Vary", "Origin")
				}
				if p.credentials {
					h.Set("Access-Control-Allow-Credentials", "true")
				}
			}
			if r.Method != http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}
			h.Set("Access-Control-Allow-Methods", p.methods)
			h.Set("Access-Control-Allow-Headers", p.headers)
			if p.exposed != "" {
				h.Set("Access-Control-Expose-Headers", p.exposed)
			}
			if p.maxAge != "" {
				h.Set("Access-Control-Max-Age", p.maxAge)
			}
			w.WriteHeader(http.StatusNoContent)
		})
	}
}
