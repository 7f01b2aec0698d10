package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/Jonsrn/PDSI-LegislaNet-MVP-sub001/internal/access"
	"github.com/Jonsrn/PDSI-LegislaNet-MVP-sub001/internal/repo"
)

// Directory lê os cadastros mantidos fora da votação.
type Directory interface {
	GetCamara(ctx context.Context, id uuid.UUID) (repo.Camara, error)
	ListVereadoresByCamara(ctx context.Context, camaraID uuid.UUID, somenteAtivos bool) ([]repo.Vereador, error)
	ListSessoesByCamara(ctx context.Context, camaraID uuid.UUID) ([]repo.Sessao, error)
}

// PublicVereadores lista vereadores ativos de uma câmara para o portal público.
func (h *Handler) PublicVereadores(w http.ResponseWriter, r *http.Request) {
	if err := access.Guard(nil, access.OpListarVereadoresPublico, uuid.Nil); err != nil {
		writeAccessError(w, r, err)
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "id inválido", nil)
		return
	}

	camara, err := h.directory.GetCamara(r.Context(), id)
	if errors.Is(err, repo.ErrNotFound) {
		WriteError(w, http.StatusNotFound, "NOT_FOUND", "câmara não encontrada", nil)
		return
	}
	if err != nil {
		writeAccessError(w, r, err)
		return
	}

	vereadores, err := h.directory.ListVereadoresByCamara(r.Context(), camara.ID, true)
	if err != nil {
		writeAccessError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"camara": camara, "vereadores": vereadores})
}

// ListVereadores lista vereadores da câmara do usuário (super_admin informa camara_id).
func (h *Handler) ListVereadores(w http.ResponseWriter, r *http.Request) {
	camara, ok := h.scopedCamara(w, r, access.OpListarVereadores)
	if !ok {
		return
	}
	vereadores, err := h.directory.ListVereadoresByCamara(r.Context(), camara, false)
	if err != nil {
		writeAccessError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, vereadores)
}

// ListSessoes lista sessões legislativas da câmara do usuário.
func (h *Handler) ListSessoes(w http.ResponseWriter, r *http.Request) {
	camara, ok := h.scopedCamara(w, r, access.OpListarSessoes)
	if !ok {
		return
	}
	sessoes, err := h.directory.ListSessoesByCamara(r.Context(), camara)
	if err != nil {
		writeAccessError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, sessoes)
}

func (h *Handler) scopedCamara(w http.ResponseWriter, r *http.Request, op access.Operation) (uuid.UUID, bool) {
	rc := access.FromContext(r.Context())
	if err := access.Guard(rc, op, uuid.Nil); err != nil {
		writeAccessError(w, r, err)
		return uuid.Nil, false
	}

	var requested uuid.UUID
	if raw := r.URL.Query().Get("camara_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			WriteError(w, http.StatusBadRequest, "VALIDATION", "camara_id inválido", nil)
			return uuid.Nil, false
		}
		requested = id
	}
	camara, err := access.ScopeCamara(*rc, requested)
	if err != nil {
		writeAccessError(w, r, err)
		return uuid.Nil, false
	}
	if camara == uuid.Nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "camara_id é obrigatório", nil)
		return uuid.Nil, false
	}
	return camara, true
}
