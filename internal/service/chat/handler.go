package chat

import (
	"net/http"

	"github.com/oggyb/campus-match/internal/web"
)

type handler struct {
	svc *Service
}

type sendRequest struct {
	Content string `json:"content"`
}

func (h *handler) conversations(w http.ResponseWriter, r *http.Request) {
	u, err := web.MustUser(r)
	if err != nil {
		web.Error(w, r, err)
		return
	}
	out, err := h.svc.Conversations(r.Context(), u.ID)
	if err != nil {
		web.Error(w, r, err)
		return
	}
	web.JSON(w, http.StatusOK, out)
}

func (h *handler) history(w http.ResponseWriter, r *http.Request) {
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
	out, err := h.svc.History(r.Context(), u.ID, matchID)
	if err != nil {
		web.Error(w, r, err)
		return
	}
	web.JSON(w, http.StatusOK, out)
}

func (h *handler) send(w http.ResponseWriter, r *http.Request) {
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
	var req sendRequest
	if err := web.Decode(r, &req); err != nil {
		web.Error(w, r, err)
		return
	}
	msg, err := h.svc.Send(r.Context(), u.ID, matchID, req.Content)
	if err != nil {
		web.Error(w, r, err)
		return
	}
	web.JSON(w, http.StatusCreated, msg)
}

func (h *handler) markRead(w http.ResponseWriter, r *http.Request) {
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
	res, err := h.svc.MarkRead(r.Context(), u.ID, matchID)
	if err != nil {
		web.Error(w, r, err)
		return
	}
	web.JSON(w, http.StatusOK, res)
}
