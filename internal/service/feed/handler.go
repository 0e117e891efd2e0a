package feed

import (
	"net/http"

	"github.com/oggyb/campus-match/internal/web"
)

type handler struct {
	svc *Service
}

func (h *handler) list(w http.ResponseWriter, r *http.Request) {
	u, err := web.MustUser(r)
	if err != nil {
		web.Error(w, r, err)
		return
	}
	page, err := h.svc.List(r.Context(), u.ID, r.URL.Query().Get("token"))
	if err != nil {
		web.Error(w, r, err)
		return
	}
	web.JSON(w, http.StatusOK, page)
}

func (h *handler) create(w http.ResponseWriter, r *http.Request) {
	u, err := web.MustUser(r)
	if err != nil {
		web.Error(w, r, err)
		return
	}
	var in CreatePostInput
	if err := web.Decode(r, &in); err != nil {
		web.Error(w, r, err)
		return
	}
	post, err := h.svc.Create(r.Context(), u.ID, in)
	if err != nil {
		web.Error(w, r, err)
		return
	}
	web.JSON(w, http.StatusCreated, post)
}

func (h *handler) delete(w http.ResponseWriter, r *http.Request) {
	u, err := web.MustUser(r)
	if err != nil {
		web.Error(w, r, err)
		return
	}
	postID, err := web.PathUint(r, "postId")
	if err != nil {
		web.Error(w, r, err)
		return
	}
	if err := h.svc.Delete(r.Context(), u.ID, postID); err != nil {
		web.Error(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) like(w http.ResponseWriter, r *http.Request) {
	u, err := web.MustUser(r)
	if err != nil {
		web.Error(w, r, err)
		return
	}
	postID, err := web.PathUint(r, "postId")
	if err != nil {
		web.Error(w, r, err)
		return
	}
	res, err := h.svc.Like(r.Context(), u.ID, postID)
	if err != nil {
		web.Error(w, r, err)
		return
	}
	web.JSON(w, http.StatusCreated, res)
}

func (h *handler) unlike(w http.ResponseWriter, r *http.Request) {
	u, err := web.MustUser(r)
	if err != nil {
		web.Error(w, r, err)
		return
	}
	postID, err := web.PathUint(r, "postId")
	if err != nil {
		web.Error(w, r, err)
		return
	}
	res, err := h.svc.Unlike(r.Context(), u.ID, postID)
	if err != nil {
		web.Error(w, r, err)
		return
	}
	web.JSON(w, http.StatusOK, res)
}

func (h *handler) comments(w http.ResponseWriter, r *http.Request) {
	u, err := web.MustUser(r)
	if err != nil {
		web.Error(w, r, err)
		return
	}
	postID, err := web.PathUint(r, "postId")
	if err != nil {
		web.Error(w, r, err)
		return
	}
	out, err := h.svc.Comments(r.Context(), u.ID, postID)
	if err != nil {
		web.Error(w, r, err)
		return
	}
	web.JSON(w, http.StatusOK, out)
}

func (h *handler) comment(w http.ResponseWriter, r *http.Request) {
	u, err := web.MustUser(r)
	if err != nil {
		web.Error(w, r, err)
		return
	}
	postID, err := web.PathUint(r, "postId")
	if err != nil {
		web.Error(w, r, err)
		return
	}
	var in CreateCommentInput
	if err := web.Decode(r, &in); err != nil {
		web.Error(w, r, err)
		return
	}
	c, err := h.svc.Comment(r.Context(), u.ID, postID, in)
	if err != nil {
		web.Error(w, r, err)
		return
	}
	web.JSON(w, http.StatusCreated, c)
}

func (h *handler) deleteComment(w http.ResponseWriter, r *http.Request) {
	u, err := web.MustUser(r)
	if err != nil {
		web.Error(w, r, err)
		return
	}
	commentID, err := web.PathUint(r, "commentId")
	if err != nil {
		web.Error(w, r, err)
		return
	}
	res, err := h.svc.DeleteComment(r.Context(), u.ID, commentID)
	if err != nil {
		web.Error(w, r, err)
		return
	}
	web.JSON(w, http.StatusOK, res)
}
