package match

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/oggyb/campus-match/internal/app"
)

// Registrar ties the match endpoints into the HTTP router
type Registrar struct {
	appCtx *app.AppContext
}

// NewRegistrar creates a new Registrar for the match service
func NewRegistrar(appCtx *app.AppContext) *Registrar {
	return &Registrar{appCtx: appCtx}
}

// RegisterRoutes mounts /matches/*. Every route requires a bearer token.
func (r *Registrar) RegisterRoutes(_, protected *mux.Router) {
	h := &handler{svc: NewService(r.appCtx)}

	m := protected.PathPrefix("/matches").Subrouter()
	m.HandleFunc("/discover", h.discover).Methods(http.MethodGet)
	m.HandleFunc("/like/{userId}", h.like).Methods(http.MethodPost)
	m.HandleFunc("/accept/{matchId}", h.accept).Methods(http.MethodPost)
	m.HandleFunc("/reject/{matchId}", h.reject).Methods(http.MethodPost)
	m.HandleFunc("/pending", h.pending).Methods(http.MethodGet)
	m.HandleFunc("/pending/count", h.pendingCount).Methods(http.MethodGet)
	m.HandleFunc("/my-matches", h.myMatches).Methods(http.MethodGet)
}
