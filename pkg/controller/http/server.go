package http

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/onnxify/pkg/domain/interfaces"
)

// config holds internal HTTP server configuration
type config struct {
	addr       string
	hubBaseURL string
}

// Option is a functional option for Server configuration
type Option func(*config)

// WithAddr sets the server address
func WithAddr(addr string) Option {
	return func(c *config) {
		c.addr = addr
	}
}

// WithHubBaseURL sets the hub URL used for repository links
func WithHubBaseURL(url string) Option {
	return func(c *config) {
		c.hubBaseURL = url
	}
}

// Server represents the HTTP server
type Server struct {
	*http.Server
}

// NewServer creates a new HTTP server
func NewServer(
	ctx context.Context,
	pipelineUC interfaces.PipelineUseCase,
	opts ...Option,
) (*Server, error) {
	// Default configuration
	cfg := &config{
		addr:       "localhost:8080",
		hubBaseURL: "https://huggingface.co",
	}

	// Apply options
	for _, opt := range opts {
		opt(cfg)
	}

	formHandler, err := NewFormHandler(pipelineUC, cfg.hubBaseURL)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create form handler")
	}

	router := chi.NewRouter()

	// Global middleware
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(LoggingMiddleware(ctx))
	router.Use(middleware.Recoverer)

	// Health check
	router.Get("/health", handleHealth)

	// Conversion form
	router.Get("/", formHandler.Index)
	router.Post("/confirm", formHandler.Confirm)
	router.Post("/convert", formHandler.Convert)

	server := &Server{
		Server: &http.Server{
			Addr:              cfg.addr,
			Handler:           router,
			ReadHeaderTimeout: 15 * time.Second,
		},
	}

	return server, nil
}
