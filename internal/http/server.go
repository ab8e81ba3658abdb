package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"expensetracker/internal/log"
	"expensetracker/internal/middleware/ratelimit"
	"expensetracker/internal/middleware/security"
	"expensetracker/internal/middleware/trace"
	"expensetracker/internal/tools"
)

// ToolRegistry lists and dispatches ledger tools.
type ToolRegistry interface {
	Descriptors() []tools.Descriptor
	Call(ctx context.Context, name string, args map[string]any) (any, error)
}

// Pinger reports whether the store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// CategoryReader returns the categories resource body.
type CategoryReader interface {
	Read() (string, error)
}

// RateLimitRecorder counts rejected requests and samples how many clients the
// limiter is tracking.
type RateLimitRecorder interface {
	RecordRateLimited()
	TrackRateLimitClients(count func() int) error
}

// Options wires the server's collaborators. MCP and Metrics may be nil, in
// which case their routes are not mounted.
type Options struct {
	Addr            string
	MCPPath         string
	RateLimitPerMin int

	Logger     *log.Logger
	Tools      ToolRegistry
	Store      Pinger
	Categories CategoryReader
	MCP        http.Handler
	Metrics    http.Handler
	RateLimits RateLimitRecorder
}

type Server struct {
	http.Server

	tools      ToolRegistry
	store      Pinger
	categories CategoryReader
	logger     *log.Logger
	started    time.Time

	rateLimiter *ratelimit.Limiter
	rateLimits  RateLimitRecorder
	detector    *security.Detector

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run http.Server.
func NewServer(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	logger = logger.WithComponent(log.ComponentHTTP)

	s := &Server{
		tools:      opts.Tools,
		store:      opts.Store,
		categories: opts.Categories,
		logger:     logger,
		started:    time.Now(),
		rateLimiter: ratelimit.NewLimiter(ratelimit.Config{
			RequestsPerMinute: opts.RateLimitPerMin,
		}),
		rateLimits: opts.RateLimits,
		detector:   security.NewDetector(),
	}

	if s.rateLimits != nil {
		if err := s.rateLimits.TrackRateLimitClients(s.rateLimiter.ActiveClients); err != nil {
			logger.Warn("Rate limiter client gauge not registered", log.FieldError, err.Error())
		}
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /tools", s.handleListTools)
	mux.HandleFunc("POST /tools/{name}", s.handleCallTool)
	mux.HandleFunc("GET /resources/categories", s.handleCategories)
	if opts.Metrics != nil {
		mux.Handle("GET /metrics", opts.Metrics)
	}
	if opts.MCP != nil {
		path := opts.MCPPath
		if path == "" {
			path = "/mcp"
		}
		mux.Handle(path, opts.MCP)
	}

	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	tracer := trace.NewMiddleware(logger, s.detector.ExtractClientIP)

	var handler http.Handler = mux
	handler = s.limitWrites(handler)
	handler = s.flagSuspicious(handler)
	handler = tracer.Middleware(handler)
	handler = headers.Middleware(handler)

	s.Server = http.Server{
		Addr:              opts.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	return s
}

// limitWrites applies the per-client limiter to POST requests only.
func (s *Server) limitWrites(next http.Handler) http.Handler {
	limited := s.rateLimiter.Middleware(s.detector.ExtractClientIP, s.onRateLimited)(next)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			next.ServeHTTP(w, r)
			return
		}
		limited.ServeHTTP(w, r)
	})
}

func (s *Server) onRateLimited(w http.ResponseWriter, r *http.Request) {
	if s.rateLimits != nil {
		s.rateLimits.RecordRateLimited()
	}
	log.FromContext(r.Context()).WithComponent(log.ComponentRateLimit).WarnContext(r.Context(), "Rate limit exceeded",
		log.FieldClientIP, s.detector.ExtractClientIP(r),
		log.FieldPath, r.URL.Path)
	TooManyRequestsError("Rate limit exceeded. Please try again later.").Write(w)
}

// flagSuspicious logs requests matching attack heuristics. They are still served.
func (s *Server) flagSuspicious(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.detector.DetectSuspiciousRequest(r) {
			log.FromContext(r.Context()).WarnContext(r.Context(), "Suspicious request",
				log.FieldClientIP, s.detector.ExtractClientIP(r),
				log.FieldMethod, r.Method,
				log.FieldPath, r.URL.Path,
				log.FieldUserAgent, r.UserAgent())
		}
		next.ServeHTTP(w, r)
	})
}

// Shutdown gracefully shuts down the server and the limiter's cleanup goroutine.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.rateLimiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}
