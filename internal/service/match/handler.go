package match

import (
	"net/http"

	"github.com/oggyb/campus-match/internal/web"
)

type handler struct {
	svc *Service
}

func (h *handler) discover(w http.ResponseWriter, r *http.Request) {
	u, err := web.MustUser(r)
	if err != nil {
		web.Error(w, r, err)
		return
	}
	users, err := h.svc.Discover(r.Context(), u.ID)
	if err != nil {
		web.Error(w, r, err)
		return
	}
	web.JSON(w, http.StatusOK, users)
}

func (h *handler) like(w http.ResponseWriter, r *http.Request) {
	u, err := web.MustUser(r)
	if err != nil {
		web.Error(w, r, err)
		return
	}
	targetID, err := web.PathUint(r, "userId")
	if err != nil {
		web.Error(w, r, err)
		return
	}
	res, err := h.svc.Like(r.Context(), u.ID, targetID)
	if err != nil {
		web.Error(w, r, err)
		return
	}
	web.JSON(w, http.StatusCreated, res)
}

func (h *handler) accept(w http.ResponseWriter, r *http.Request) {
	u, err := web.MustUser(r)
	if err != nil {
		web.Error(w, r, err)
		return
	}
	matchID, err := web.PathUint(r, "matchId")
	if err != nil {
		web.Error(w, r, err)
		return
	}
	res, err := h.svc.Accept(r.Context(), u.ID, matchID)
	if err != nil {
		web.Error(w, r, err)
		return
	}
	web.JSON(w, http.StatusOK, res)
}

func (h *handler) reject(w http.ResponseWriter, r *http.Request) {
	u, err := web.MustUser(r)
	if err != nil {
		web.Error(w, r, err)
		return
	}
	matchID, err := web.PathUint(r, "matchId")
	if err != nil {
		web.Error(w, r, err)
		return
	}
	if err := h.svc.Reject(r.Context(), u.ID, matchID); err != nil {
		web.Error(w, r, err)
		return
	}
	web.JSON(w, http.StatusOK, map[string]bool{"rejected": true})
}

func (h *handler) pending(w http.ResponseWriter, r *http.Request) {
	u, err := web.MustUser(r)
	if err != nil {
		web.Error(w, r, err)
		return
	}
	rows, err := h.svc.Pending(r.Context(), u.ID)
	if err != nil {
		web.Error(w, r, err)
		return
	}
	web.JSON(w, http.StatusOK, rows)
}

func (h *handler) pendingCount(w http.ResponseWriter, r *http.Request) {
	u, err := web.MustUser(r)
	if err != nil {
		web.Error(w, r, err)
		return
	}
	res, err := h.svc.PendingCount(r.Context(), u.ID)
	if err != nil {
		web.Error(w, r, err)
		return
	}
	web.JSON(w, http.StatusOK, res)
}

func (h *handler) myMatches(w http.ResponseWriter, r *http.Request) {
	u, err := web.MustUser(r)
	if err != nil {
		web.Error(w, r, err)
		return
	}
	rows, err := h.svc.Matches(r.Context(), u.ID)
	if err != nil {
		web.Error(w, r, err)
		return
	}
	web.JSON(w, http.StatusOK, rows)
}
