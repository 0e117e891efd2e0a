package feed

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/oggyb/campus-match/internal/app"
)

// Registrar ties the feed endpoints into the HTTP router
type Registrar struct {
	appCtx *app.AppContext
}

// NewRegistrar creates a new Registrar for the feed service
func NewRegistrar(appCtx *app.AppContext) *Registrar {
	return &Registrar{appCtx: appCtx}
}

// RegisterRoutes mounts /feed/*. Every route requires a bearer token.
func (r *Registrar) RegisterRoutes(_, protected *mux.Router) {
	h := &handler{svc: NewService(r.appCtx)}

	f := protected.PathPrefix("/feed").Subrouter()
	f.HandleFunc("/posts", h.list).Methods(http.MethodGet)
	f.HandleFunc("/posts", h.create).Methods(http.MethodPost)
	f.HandleFunc("/posts/{postId}", h.delete).Methods(http.MethodDelete)
	f.HandleFunc("/posts/{postId}/like", h.like).Methods(http.MethodPost)
	f.HandleFunc("/posts/{postId}/like", h.unlike).Methods(http.MethodDelete)
	f.HandleFunc("/posts/{postId}/comments", h.comments).Methods(http.MethodGet)
	f.HandleFunc("/posts/{postId}/comments", h.comment).Methods(http.MethodPost)
	f.HandleFunc("/comments/{commentId}", h.deleteComment).Methods(http.MethodDelete)
}
