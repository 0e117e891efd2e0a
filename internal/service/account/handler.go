package account

import (
	"net/http"

	"github.com/oggyb/campus-match/internal/web"
)

type handler struct {
	svc *Service
}

func (h *handler) register(w http.ResponseWriter, r *http.Request) {
	var in RegisterInput
	if err := web.Decode(r, &in); err != nil {
		web.Error(w, r, err)
		return
	}
	sess, err := h.svc.Register(r.Context(), in)
	if err != nil {
		web.Error(w, r, err)
		return
	}
	web.JSON(w, http.StatusCreated, sess)
}

func (h *handler) login(w http.ResponseWriter, r *http.Request) {
	var in LoginInput
	if err := web.Decode(r, &in); err != nil {
		web.Error(w, r, err)
		return
	}
	sess, err := h.svc.Login(r.Context(), in)
	if err != nil {
		web.Error(w, r, err)
		return
	}
	web.JSON(w, http.StatusOK, sess)
}

func (h *handler) me(w http.ResponseWriter, r *http.Request) {
	u, err := web.MustUser(r)
	if err != nil {
		web.Error(w, r, err)
		return
	}
	p, err := h.svc.Me(r.Context(), u.ID)
	if err != nil {
		web.Error(w, r, err)
		return
	}
	web.JSON(w, http.StatusOK, p)
}

func (h *handler) update(w http.ResponseWriter, r *http.Request) {
	u, err := web.MustUser(r)
	if err != nil {
		web.Error(w, r, err)
		return
	}
	var in UpdateInput
	if err := web.Decode(r, &in); err != nil {
		web.Error(w, r, err)
		return
	}
	p, err := h.svc.Update(r.Context(), u.ID, in)
	if err != nil {
		web.Error(w, r, err)
		return
	}
	web.JSON(w, http.StatusOK, p)
}
