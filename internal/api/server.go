package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"vidsub/internal/catalog"
	"vidsub/internal/config"
	"vidsub/internal/logging"
	"vidsub/internal/workflow"
)

// Options wires a Server to the controller it exposes.
type Options struct {
	Controller     *workflow.Controller
	Catalog        *catalog.Catalog
	Downloader     workflow.SubtitleDownloader
	OutputDir      string
	Bind           string
	AllowedOrigins []string
	Logger         *slog.Logger
}

// OptionsFromConfig fills the config-derived fields of Options.
func OptionsFromConfig(cfg *config.Config) Options {
	if cfg == nil {
		return Options{}
	}
	return Options{
		OutputDir:      cfg.Paths.OutputDir,
		Bind:           cfg.Paths.APIBind,
		AllowedOrigins: append([]string(nil), cfg.API.AllowedOrigins...),
	}
}

// Server serves the control API.
type Server struct {
	bind       string
	logger     *slog.Logger
	controller *workflow.Controller
	catalog    *catalog.Catalog
	downloader workflow.SubtitleDownloader
	outputDir  string
	handler    http.Handler

	mu       sync.Mutex
	runCtx   context.Context
	listener net.Listener
	server   *http.Server
}

// New builds a Server. Runs started through the API use context.Background
// until Start supplies the serving context.
func New(opts Options) (*Server, error) {
	if opts.Controller == nil {
		return nil, errors.New("api: controller is required")
	}
	s := &Server{
		bind:       strings.TrimSpace(opts.Bind),
		logger:     logging.NewComponentLogger(opts.Logger, "api"),
		controller: opts.Controller,
		catalog:    opts.Catalog,
		downloader: opts.Downloader,
		outputDir:  opts.OutputDir,
		runCtx:     context.Background(),
	}
	s.handler = s.routes(opts.AllowedOrigins)
	return s, nil
}

func (s *Server) routes(origins []string) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Use(chimw.RealIP)
	r.Use(requestLogger(s.logger))
	r.Use(cors.Handler(corsOptions(origins)))

	r.Route("/api", func(r chi.Router) {
		r.Get("/state", s.handleState)
		r.Get("/languages", s.handleLanguages)
		r.Get("/events", s.handleEvents)

		r.Group(func(r chi.Router) {
			r.Use(maxBodySize(maxJSONBody))
			r.Post("/select", s.handleSelect)
			r.Post("/target", s.handleTarget)
			r.Post("/start", s.handleStart)
			r.Post("/reset", s.handleReset)
			r.Post("/dismiss", s.handleDismiss)
			r.Post("/download", s.handleDownload)
		})
	})
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "Not Found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "Method Not Allowed")
	})
	return r
}

// Handler returns the router, for embedding or tests.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Start listens on the configured bind address and serves until ctx ends.
// Runs started through the API are bound to ctx.
func (s *Server) Start(ctx context.Context) error {
	if s.bind == "" {
		return errors.New("api: bind address is empty")
	}
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}

	server := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	s.mu.Lock()
	s.runCtx = ctx
	s.listener = listener
	s.server = server
	s.mu.Unlock()

	go func() {
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("api server error", logging.Error(err))
		}
	}()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.Shutdown(shutdownCtx)
	}()

	s.logger.Info("api server listening", logging.String("address", listener.Addr().String()))
	return nil
}

// Addr returns the bound address once Start succeeded.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Shutdown stops accepting requests and waits for active ones.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	server := s.server
	s.server = nil
	s.listener = nil
	s.mu.Unlock()
	if server == nil {
		return nil
	}
	return server.Shutdown(ctx)
}

func (s *Server) runContext() context.Context {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.runCtx
}
