package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/felixge/httpsnoop"
	"github.com/go-playground/validator/v10"

	"github.com/jonathan/module-builder/internal/config"
	"github.com/jonathan/module-builder/internal/db"
	"github.com/jonathan/module-builder/internal/modules"
	"github.com/jonathan/module-builder/internal/pipeline"
	"github.com/jonathan/module-builder/internal/server/middleware"
	"github.com/jonathan/module-builder/internal/validation"
)

// Server represents the HTTP server
type Server struct {
	httpServer *http.Server
	store      db.Store
	modules    *modules.Registry
	tokens     *Tokens
	pipeline   pipeline.Options
	blueprints *validation.Validator
	validator  *validator.Validate
}

// Config holds server configuration. Store, Modules and Tokens are optional:
// without a store the run history answers 503, and without token settings
// every module route answers 401.
type Config struct {
	Port     int
	Store    db.Store
	Modules  *modules.Registry
	Tokens   *config.TokenConfig
	Pipeline pipeline.Options
}

// New creates a new server instance
func New(cfg Config) (*Server, error) {
	blueprints, err := validation.New()
	if err != nil {
		return nil, fmt.Errorf("failed to create blueprint validator: %w", err)
	}

	s := &Server{
		store:      cfg.Store,
		modules:    cfg.Modules,
		pipeline:   cfg.Pipeline,
		blueprints: blueprints,
		validator:  validator.New(),
	}
	if s.modules == nil {
		if s.modules, err = modules.NewRegistry(); err != nil {
			return nil, err
		}
	}
	if cfg.Tokens != nil {
		if s.tokens, err = NewTokens(cfg.Tokens); err != nil {
			return nil, fmt.Errorf("invalid token settings: %w", err)
		}
	}

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 300 * time.Second, // Long timeout for preparation runs
		IdleTimeout:  60 * time.Second,
	}
	return s, nil
}

// Handler returns the routed handler with logging and CORS applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)

	mux.HandleFunc("POST /blueprints/validate", s.handleValidateBlueprint)
	mux.HandleFunc("POST /blueprints/plan", s.handlePlanBlueprint)
	mux.HandleFunc("POST /blueprints/prepare", s.handlePrepareBlueprint)
	mux.HandleFunc("POST /blueprints/prepare/stream", s.handlePrepareStream)

	mux.HandleFunc("GET /runs", s.handleListRuns)
	mux.HandleFunc("GET /runs/{id}", s.handleGetRun)
	mux.HandleFunc("GET /checkpoints", s.handleListCheckpoints)

	mux.HandleFunc("GET /modules", s.handleListModules)
	auth := s.requireTenant()
	mux.Handle("GET /modules/{module}", auth(http.HandlerFunc(s.handleListRows)))
	mux.Handle("POST /modules/{module}", auth(http.HandlerFunc(s.handleCreateRow)))
	mux.Handle("GET /modules/{module}/{id}", auth(http.HandlerFunc(s.handleGetRow)))
	mux.Handle("PUT /modules/{module}/{id}", auth(http.HandlerFunc(s.handleUpdateRow)))
	mux.Handle("DELETE /modules/{module}/{id}", auth(http.HandlerFunc(s.handleDeleteRow)))

	return s.withLogging(s.withCORS(mux))
}

// requireTenant scopes module routes by bearer token. Without token settings
// the resolver stays nil and every request is rejected.
func (s *Server) requireTenant() func(http.Handler) http.Handler {
	var resolver middleware.TenantResolver
	if s.tokens != nil {
		resolver = s.tokens
	}
	return middleware.RequireTenant(resolver)
}

// Start serves until ctx is cancelled, then drains in-flight requests for up
// to 30 seconds and closes the store. A listen failure is returned at once.
func (s *Server) Start(ctx context.Context) error {
	serveErr := make(chan error, 1)
	go func() {
		log.Printf("Module host listening on %s (%d module(s))", s.httpServer.Addr, len(s.modules.Names()))
		serveErr <- s.httpServer.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		s.closeStore()
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}
	log.Println("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	err := s.httpServer.Shutdown(shutdownCtx)
	s.closeStore()
	if err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	log.Println("Server stopped")
	return nil
}

func (s *Server) closeStore() {
	if s.store != nil {
		s.store.Close()
	}
}

// withCORS answers preflight requests and marks every response as
// readable from any origin.
func (s *Server) withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		h.Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		h.Set("Access-Control-Max-Age", "600")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// withLogging logs one line per request with its status and duration.
func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m := httpsnoop.CaptureMetrics(next, w, r)
		log.Printf("[%s] %s -> %d (%d bytes) in %v", r.Method, r.URL.Path, m.Code, m.Written, m.Duration)
	})
}

// healthStatus is the body of GET /health.
type healthStatus struct {
	Status  string   `json:"status"`
	Store   bool     `json:"store"`
	Auth    bool     `json:"auth"`
	Modules []string `json:"modules"`
}

// handleHealth reports liveness and which optional parts are configured.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	names := s.modules.Names()
	if names == nil {
		names = []string{}
	}
	s.jsonResponse(w, http.StatusOK, healthStatus{
		Status:  "ok",
		Store:   s.store != nil,
		Auth:    s.tokens != nil,
		Modules: names,
	})
}

// jsonResponse writes a JSON response
func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("Error encoding JSON response: %v", err)
	}
}

// errorResponse writes an error JSON response
func (s *Server) errorResponse(w http.ResponseWriter, status int, message string) {
	s.jsonResponse(w, status, map[string]string{"error": message})
}

// fail maps err to its status and writes it.
func (s *Server) fail(w http.ResponseWriter, err error) {
	status := HTTPStatus(err)
	if status == http.StatusInternalServerError {
		log.Printf("Internal error: %v", err)
	}
	s.errorResponse(w, status, err.Error())
}
