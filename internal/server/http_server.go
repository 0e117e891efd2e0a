package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"github.com/oggyb/campus-match/internal/app"
	apperr "github.com/oggyb/campus-match/internal/errors"
	"github.com/oggyb/campus-match/internal/web"
)

// NewRouter builds the HTTP handler: access log and panic recovery on every
// route, a protected subrouter behind bearer auth, and CORS for the
// configured origins.
func NewRouter(appCtx *app.AppContext, registrars ...RouteRegistrar) http.Handler {
	r := mux.NewRouter()
	r.Use(web.RequestLogger, web.Recoverer)
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		web.Error(w, req, apperr.NotFound("route not found"))
	})

	protected := r.NewRoute().Subrouter()
	protected.Use(web.RequireAuth(appCtx.Auth))

	for _, reg := range registrars {
		reg.RegisterRoutes(r, protected)
	}

	c := cors.New(cors.Options{
		AllowedOrigins:   appCtx.Config.HTTP.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
	})
	return c.Handler(r)
}

type HTTPServer struct {
	srv *http.Server
	log *slog.Logger
}

func NewHTTPServer(addr string, handler http.Handler, log *slog.Logger) *HTTPServer {
	return &HTTPServer{
		srv: &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		},
		log: log,
	}
}

// Start listens and serves until Shutdown is called.
func (s *HTTPServer) Start() error {
	lis, err := net.Listen("tcp", s.srv.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.srv.Addr, err)
	}
	s.log.Info("starting HTTP server", "addr", s.srv.Addr)
	return s.Serve(lis)
}

func (s *HTTPServer) Serve(lis net.Listener) error {
	if err := s.srv.Serve(lis); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting connections and waits for active requests.
// Hijacked connections (WebSocket) are not tracked.
func (s *HTTPServer) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
