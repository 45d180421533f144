package server

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humago"

	"github.com/joeblew999/plat-geo-widgets/internal/api"
	"github.com/joeblew999/plat-geo-widgets/internal/api/editor"
	"github.com/joeblew999/plat-geo-widgets/internal/config"
	"github.com/joeblew999/plat-geo-widgets/internal/humastar"
	"github.com/joeblew999/plat-geo-widgets/internal/mapview"
	"github.com/joeblew999/plat-geo-widgets/internal/metrics"
	"github.com/joeblew999/plat-geo-widgets/internal/service"
	"github.com/joeblew999/plat-geo-widgets/internal/templates"
)

// Config holds the server configuration.
type Config struct {
	Host     string
	Port     string
	Defaults config.MapDefaults
	Logger   *slog.Logger
	// Engine renders widget maps; nil selects the headless engine.
	Engine mapview.Engine
}

// Server is the widget HTTP server.
type Server struct {
	config   Config
	mux      *http.ServeMux
	handler  http.Handler
	humaAPI  huma.API
	pages    *service.PageService
	bus      *service.EventBus
	renderer *templates.Renderer
	links    *humastar.Links
	log      *slog.Logger
}

// New creates a new widget server.
func New(cfg Config) (*Server, error) {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Engine == nil {
		cfg.Engine = mapview.NewHeadless()
	}

	renderer, err := templates.New()
	if err != nil {
		return nil, fmt.Errorf("server: loading fragments: %w", err)
	}

	bus := service.NewEventBus()
	factory := mapview.NewFactory(cfg.Engine)
	factory.Style = cfg.Defaults.Style
	s := &Server{
		config:   cfg,
		mux:      http.NewServeMux(),
		bus:      bus,
		pages:    service.NewPageService(factory, bus, cfg.Logger),
		renderer: renderer,
		log:      cfg.Logger,
	}

	humaConfig := huma.DefaultConfig("plat-geo-widgets API", api.Version)
	humaConfig.Info.Description = "Server-side polygon chooser and point map viewer widgets driven over Datastar SSE."
	humaConfig.Servers = []*huma.Server{
		{URL: fmt.Sprintf("http://%s:%s", cfg.Host, cfg.Port), Description: "Local server"},
	}
	// Disable $schema property in responses (cleaner JSON)
	humaConfig.CreateHooks = []func(huma.Config) huma.Config{}
	humaConfig.Transformers = append(humaConfig.Transformers, s.transformLinks)
	s.humaAPI = humago.New(s.mux, humaConfig)

	s.routes()
	s.handler = metrics.Middleware(routePattern, s.accessLog(s.mux))
	return s, nil
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// OpenAPI returns the generated OpenAPI document.
func (s *Server) OpenAPI() *huma.OpenAPI {
	return s.humaAPI.OpenAPI()
}

// Pages returns the page service.
func (s *Server) Pages() *service.PageService {
	return s.pages
}

func (s *Server) routes() {
	// REST (OpenAPI-documented JSON endpoints)
	huma.AutoRegister(s.humaAPI, api.NewAPIHandler(s.pages, s.config.Defaults))
	huma.AutoRegister(s.humaAPI, api.NewInfoHandler(s.config.Defaults))

	// Datastar SSE
	huma.AutoRegister(s.humaAPI, editor.NewPageHandler(s.pages, s.renderer, s.log))
	huma.AutoRegister(s.humaAPI, editor.NewEventHandler(s.bus, s.renderer, s.log))

	s.links = humastar.AutoLinks(s.humaAPI)

	s.mux.Handle("GET /metrics", metrics.Handler())
	s.mux.HandleFunc("/", s.handleRoot)
}

func (s *Server) transformLinks(ctx huma.Context, status string, v any) (any, error) {
	return s.links.Transform(ctx, status, v)
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	for _, link := range s.links.Root() {
		w.Header().Add("Link", link)
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"service": "plat-geo-widgets",
		"status":  "running",
	})
}

// routePattern labels metrics with the matched mux pattern.
func routePattern(r *http.Request) string {
	if r.Pattern == "" {
		return "unmatched"
	}
	return r.Pattern
}

type loggingWriter struct {
	http.ResponseWriter
	status int
}

func (w *loggingWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *loggingWriter) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (w *loggingWriter) Unwrap() http.ResponseWriter { return w.ResponseWriter }

// accessLog logs one line per request. Event streams log when they end.
func (s *Server) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lw := &loggingWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(lw, r)

		level := slog.LevelDebug
		if lw.status >= http.StatusInternalServerError {
			level = slog.LevelError
		} else if strings.HasPrefix(r.URL.Path, "/api/") && r.Method != http.MethodGet {
			level = slog.LevelInfo
		}
		s.log.Log(r.Context(), level, "http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", lw.status,
			"duration", time.Since(start),
		)
	})
}
