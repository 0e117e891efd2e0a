package media

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/oggyb/campus-match/internal/web"
)

type presignRequest struct {
	Kind        string `json:"kind"`
	ContentType string `json:"content_type"`
}

// Registrar mounts POST /media/presign.
type Registrar struct {
	presigner *Presigner
}

func NewRegistrar(p *Presigner) *Registrar {
	return &Registrar{presigner: p}
}

func (r *Registrar) RegisterRoutes(_, protected *mux.Router) {
	protected.HandleFunc("/media/presign", r.presign).Methods(http.MethodPost)
}

func (r *Registrar) presign(w http.ResponseWriter, req *http.Request) {
	u, err := web.MustUser(req)
	if err != nil {
		web.Error(w, req, err)
		return
	}
	var in presignRequest
	if err := web.Decode(req, &in); err != nil {
		web.Error(w, req, err)
		return
	}
	out, err := r.presigner.Presign(req.Context(), u.ID, in.Kind, in.ContentType)
	if err != nil {
		web.Error(w, req, err)
		return
	}
	web.JSON(w, http.StatusOK, out)
}
