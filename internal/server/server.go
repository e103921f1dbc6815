// Package server exposes the wizard over HTTP: one in-memory session per
// browser, server-rendered steps, multipart image uploads and preview
// streaming.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	theme "github.com/goliatone/go-theme"

	"github.com/goliatone/go-formwizard/internal/logging"
	"github.com/goliatone/go-formwizard/pkg/attachments"
	"github.com/goliatone/go-formwizard/pkg/listing"
	"github.com/goliatone/go-formwizard/pkg/render"
	"github.com/goliatone/go-formwizard/pkg/renderers/tui"
	"github.com/goliatone/go-formwizard/pkg/renderers/vanilla"
	"github.com/goliatone/go-formwizard/pkg/steps"
	"github.com/goliatone/go-formwizard/pkg/wizard"
)

// Route paths.
const (
	WizardPath  = "/wizard"
	AssetsPath  = "/assets/"
	HealthzPath = "/healthz"
)

// Option configures a Server.
type Option func(*Server)

// WithRenderers replaces the renderer registry.
func WithRenderers(registry *render.Registry) Option {
	return func(s *Server) {
		if registry != nil {
			s.renderers = registry
		}
	}
}

// WithDefaultRenderer picks the renderer used when a request does not name
// one with ?renderer=.
func WithDefaultRenderer(name string) Option {
	return func(s *Server) {
		if name = strings.TrimSpace(name); name != "" {
			s.renderer = name
		}
	}
}

// WithCatalog replaces the embedded catalog.
func WithCatalog(catalog listing.Catalog) Option {
	return func(s *Server) {
		s.catalog = catalog
	}
}

// WithTheme passes a resolved theme to every render.
func WithTheme(cfg *theme.RendererConfig) Option {
	return func(s *Server) {
		s.theme = cfg
	}
}

// WithSteps sets the step registry shared by all sessions.
func WithSteps(registry *steps.Registry) Option {
	return func(s *Server) {
		if registry != nil {
			s.steps = registry
		}
	}
}

// WithPreviewStore sets the store preview handles are minted in.
func WithPreviewStore(store *attachments.MemoryStore) Option {
	return func(s *Server) {
		if store != nil {
			s.previews = store
		}
	}
}

// WithReporter receives every successful submission.
func WithReporter(reporter wizard.Reporter) Option {
	return func(s *Server) {
		s.reporter = reporter
	}
}

// WithLogger sets the base logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithSessionTTL sets how long an idle session is kept.
func WithSessionTTL(ttl time.Duration) Option {
	return func(s *Server) {
		if ttl > 0 {
			s.sessionTTL = ttl
		}
	}
}

// WithMaxUploadBytes bounds a whole POST body.
func WithMaxUploadBytes(n int64) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxUpload = n
		}
	}
}

// Server holds the wizard sessions and the HTTP handlers serving them.
type Server struct {
	renderers  *render.Registry
	renderer   string
	catalog    listing.Catalog
	theme      *theme.RendererConfig
	steps      *steps.Registry
	previews   *attachments.MemoryStore
	reporter   wizard.Reporter
	logger     *slog.Logger
	sessionTTL time.Duration
	maxUpload  int64

	sessions *sessionStore
}

// New builds a server. Without options it renders HTML with the vanilla
// renderer, keeps sessions for 30 minutes and logs submissions.
func New(opts ...Option) (*Server, error) {
	s := &Server{
		renderer:   vanilla.Name,
		catalog:    listing.DefaultCatalog(),
		steps:      steps.Default(),
		logger:     logging.Discard(),
		sessionTTL: 30 * time.Minute,
		maxUpload:  32 << 20,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}

	if s.renderers == nil {
		registry, err := DefaultRenderers(s.catalog)
		if err != nil {
			return nil, err
		}
		s.renderers = registry
	}
	if _, err := s.renderers.Get(s.renderer); err != nil {
		return nil, fmt.Errorf("server: default renderer %q: %w", s.renderer, err)
	}
	if s.previews == nil {
		// Handles live as long as the owning session; eviction releases them.
		s.previews = attachments.NewMemoryStore()
	}
	if s.reporter == nil {
		s.reporter = wizard.LogReporter(s.logger)
	}
	s.sessions = newSessionStore(s.sessionTTL, s.newController)
	return s, nil
}

// DefaultRenderers registers the HTML renderer, linking the embedded
// stylesheet, and the plain text renderer. htmlOpts are applied after the
// stylesheet link.
func DefaultRenderers(catalog listing.Catalog, htmlOpts ...vanilla.Option) (*render.Registry, error) {
	opts := append([]vanilla.Option{vanilla.WithStylesheet(AssetsPath + vanilla.StylesheetName)}, htmlOpts...)
	html, err := vanilla.New(opts...)
	if err != nil {
		return nil, err
	}
	text, err := tui.New(tui.WithOutput(io.Discard), tui.WithCatalog(catalog), tui.WithOutputFormat(tui.OutputFormatPrettyText))
	if err != nil {
		return nil, err
	}
	return render.NewRegistry(html, text), nil
}

func (s *Server) newController(id string) *wizard.Controller {
	return wizard.New(
		wizard.WithRegistry(s.steps),
		wizard.WithStager(attachments.NewStager(s.previews)),
		wizard.WithReporter(s.reporter),
		wizard.WithLogger(s.logger.With("session", id)),
	)
}

// Handler returns the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, WizardPath, http.StatusFound)
	})
	r.Get(WizardPath, s.handleView)
	r.Post(WizardPath, s.handlePost)
	r.Get(strings.TrimSuffix(s.previews.Prefix(), "/")+"/{id}", s.handlePreview)
	r.Handle(AssetsPath+"*", http.StripPrefix(AssetsPath, http.FileServerFS(vanilla.AssetsFS())))
	r.Get(HealthzPath, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return r
}

// Close releases every session and preview.
func (s *Server) Close() {
	s.sessions.close()
	s.previews.Close()
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger := s.logger.With("request_id", middleware.GetReqID(r.Context()))
		ctx := logging.WithLogger(r.Context(), logger)

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r.WithContext(ctx))

		logger.Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
		)
	})
}

// ListenAndServe serves h on addr until ctx is done, then shuts down,
// waiting at most grace for in-flight requests.
func ListenAndServe(ctx context.Context, addr string, h http.Handler, grace time.Duration, logger *slog.Logger) error {
	if logger == nil {
		logger = logging.Discard()
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("server: listen %s: %w", addr, err)
	}

	httpServer := &http.Server{
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}
	logger.Info("listening", "addr", ln.Addr().String())

	errChan := make(chan error, 1)
	go func() {
		if err := httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
		close(errChan)
	}()

	select {
	case err := <-errChan:
		if err != nil {
			return fmt.Errorf("server: serve: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), grace)
	defer cancel()

	logger.Info("shutting down", "grace", grace)
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}
	return nil
}
