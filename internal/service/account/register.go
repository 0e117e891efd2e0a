package account

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/oggyb/campus-match/internal/app"
)

// Registrar ties the account endpoints into the HTTP router
type Registrar struct {
	appCtx *app.AppContext
}

// NewRegistrar creates a new Registrar for the account service
func NewRegistrar(appCtx *app.AppContext) *Registrar {
	return &Registrar{appCtx: appCtx}
}

// RegisterRoutes mounts /auth/*
func (r *Registrar) RegisterRoutes(public, protected *mux.Router) {
	h := &handler{svc: NewService(r.appCtx)}

	public.HandleFunc("/auth/register", h.register).Methods(http.MethodPost)
	public.HandleFunc("/auth/login", h.login).Methods(http.MethodPost)
	protected.HandleFunc("/auth/me", h.me).Methods(http.MethodGet)
	protected.HandleFunc("/auth/me", h.update).Methods(http.MethodPut)
}
