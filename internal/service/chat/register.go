package chat

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/oggyb/campus-match/internal/app"
	"github.com/oggyb/campus-match/internal/auth"
	"github.com/oggyb/campus-match/internal/relay"
)

// Registrar ties the chat REST endpoints and both relay transports into the
// HTTP router
type Registrar struct {
	appCtx *app.AppContext
	sio    *relay.SocketIOServer
}

// NewRegistrar creates a new Registrar for the chat service
func NewRegistrar(appCtx *app.AppContext) *Registrar {
	return &Registrar{appCtx: appCtx}
}

// RegisterRoutes mounts /chat/*, /ws and /socket.io/. The relay endpoints
// sit on the public router because they authenticate at connect time.
func (r *Registrar) RegisterRoutes(public, protected *mux.Router) {
	svc := NewService(r.appCtx)
	h := &handler{svc: svc}

	c := protected.PathPrefix("/chat").Subrouter()
	c.HandleFunc("/conversations", h.conversations).Methods(http.MethodGet)
	c.HandleFunc("/messages/{matchId}", h.history).Methods(http.MethodGet)
	c.HandleFunc("/messages/{matchId}", h.send).Methods(http.MethodPost)
	c.HandleFunc("/messages/{matchId}/read", h.markRead).Methods(http.MethodPut)

	authFn := RelayAuth(r.appCtx.Auth)
	log := r.appCtx.Logger.With("component", "relay")

	public.Handle("/ws", relay.NewWSHandler(r.appCtx.Hub, svc, authFn, r.appCtx.Config.HTTP.AllowedOrigins, log))

	r.sio = relay.NewSocketIOServer(r.appCtx.Hub, svc, authFn, log)
	go func() {
		if err := r.sio.Serve(); err != nil {
			log.Error("socket.io server stopped", "err", err)
		}
	}()
	public.PathPrefix("/socket.io/").Handler(r.sio)
}

// Close stops the Socket.IO engine.
func (r *Registrar) Close() error {
	if r.sio == nil {
		return nil
	}
	return r.sio.Close()
}

// RelayAuth adapts the shared authenticator to relay connections.
func RelayAuth(a *auth.Authenticator) relay.AuthFunc {
	return func(ctx context.Context, token string) (relay.Identity, error) {
		u, err := a.Authenticate(ctx, token)
		if err != nil {
			return relay.Identity{}, err
		}
		return relay.Identity{UserID: u.ID, Name: u.Name, Avatar: u.Avatar}, nil
	}
}
