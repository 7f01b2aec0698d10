package votacao

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/Jonsrn/PDSI-LegislaNet-MVP-sub001/internal/access"
)

// Handler expõe pautas, votos e estatísticas.
type Handler struct {
	pautas *PautaService
	ledger *Ledger
	stats  *Aggregator
}

func NewHandler(pautas *PautaService, ledger *Ledger, stats *Aggregator) *Handler {
	return &Handler{pautas: pautas, ledger: ledger, stats: stats}
}

// RegisterRoutes monta as rotas; espera rodar atrás do middleware de autenticação.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/pautas", func(r chi.Router) {
		r.Get("/", h.handleListPautas)
		r.Post("/", h.handleCreatePauta)
		r.Get("/{id}", h.handleGetPauta)
		r.Put("/{id}", h.handleUpdatePauta)
		r.Delete("/{id}", h.handleDeletePauta)
		r.Put("/{id}/status", h.handleChangeStatus)
		r.Put("/{id}/resultado", h.handleFinalize)
		r.Get("/{id}/estatisticas", h.handleEstatisticas)
		r.Get("/{id}/apuracao", h.handleApuracao)
	})

	r.Route("/votos", func(r chi.Router) {
		r.Post("/", h.handleCastVote)
		r.Get("/meus-votos", h.handleMeusVotos)
		r.Get("/pauta/{id}", h.handleVotosDaPauta)
		r.Get("/pauta/{id}/estatisticas", h.handleEstatisticas)
	})
}

type pautaPayload struct {
	SessaoID    string `json:"sessao_id"`
	Titulo      string `json:"titulo"`
	Nome        string `json:"nome"`
	Descricao   string `json:"descricao"`
	Autor       string `json:"autor"`
	TipoVotacao string `json:"tipo_votacao"`
	Ordem       int    `json:"ordem"`
}

func (p pautaPayload) titulo() string {
	if strings.TrimSpace(p.Titulo) != "" {
		return p.Titulo
	}
	return p.Nome
}

func (h *Handler) handleListPautas(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := PautaFilter{Search: q.Get("search")}
	f.Page, _ = strconv.Atoi(q.Get("page"))
	f.Limit, _ = strconv.Atoi(q.Get("limit"))

	if raw := q.Get("status"); raw != "" {
		status, ok := ParseStatus(raw)
		if !ok {
			writeError(w, http.StatusBadRequest, "VALIDATION", "status desconhecido", nil)
			return
		}
		f.Status = status
	}
	var ok bool
	if f.SessaoID, ok = optionalUUID(w, q.Get("sessao_id"), "sessao_id"); !ok {
		return
	}
	if f.CamaraID, ok = optionalUUID(w, q.Get("camara_id"), "camara_id"); !ok {
		return
	}

	page, err := h.pautas.List(r.Context(), access.FromContext(r.Context()), f)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (h *Handler) handleCreatePauta(w http.ResponseWriter, r *http.Request) {
	var payload pautaPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", "payload inválido", nil)
		return
	}
	sessaoID, ok := optionalUUID(w, payload.SessaoID, "sessao_id")
	if !ok {
		return
	}

	pauta, err := h.pautas.Create(r.Context(), access.FromContext(r.Context()), CreatePautaInput{
		SessaoID:    sessaoID,
		Titulo:      payload.titulo(),
		Descricao:   payload.Descricao,
		Autor:       payload.Autor,
		TipoVotacao: payload.TipoVotacao,
		Ordem:       payload.Ordem,
	})
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, pauta)
}

func (h *Handler) handleGetPauta(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r)
	if !ok {
		return
	}
	pauta, err := h.pautas.Get(r.Context(), access.FromContext(r.Context()), id)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, pauta)
}

func (h *Handler) handleUpdatePauta(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r)
	if !ok {
		return
	}
	var payload pautaPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", "payload inválido", nil)
		return
	}
	pauta, err := h.pautas.Update(r.Context(), access.FromContext(r.Context()), id, PautaChanges{
		Titulo:      payload.titulo(),
		Descricao:   payload.Descricao,
		Autor:       payload.Autor,
		TipoVotacao: payload.TipoVotacao,
		Ordem:       payload.Ordem,
	})
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, pauta)
}

func (h *Handler) handleDeletePauta(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r)
	if !ok {
		return
	}
	if err := h.pautas.Delete(r.Context(), access.FromContext(r.Context()), id); err != nil {
		handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"id": id, "removida": true})
}

func (h *Handler) handleChangeStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r)
	if !ok {
		return
	}
	var payload struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", "payload inválido", nil)
		return
	}
	pauta, err := h.pautas.ChangeStatus(r.Context(), access.FromContext(r.Context()), id, payload.Status)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, pauta)
}

func (h *Handler) handleFinalize(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r)
	if !ok {
		return
	}
	var payload struct {
		ResultadoVotacao string `json:"resultado_votacao"`
		Resultado        string `json:"resultado"`
		VotosSim         *int   `json:"votos_sim"`
		VotosNao         *int   `json:"votos_nao"`
		Abstencoes       *int   `json:"abstencoes"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", "payload inválido", nil)
		return
	}
	resultado := payload.ResultadoVotacao
	if resultado == "" {
		resultado = payload.Resultado
	}
	pauta, err := h.pautas.Finalize(r.Context(), access.FromContext(r.Context()), id, FinalizeInput{
		Resultado:  resultado,
		VotosSim:   payload.VotosSim,
		VotosNao:   payload.VotosNao,
		Abstencoes: payload.Abstencoes,
	})
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, pauta)
}

func (h *Handler) handleEstatisticas(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r)
	if !ok {
		return
	}
	est, err := h.stats.Statistics(r.Context(), access.FromContext(r.Context()), id)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, est)
}

func (h *Handler) handleApuracao(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r)
	if !ok {
		return
	}
	apuracao, err := h.stats.Apuracao(r.Context(), access.FromContext(r.Context()), id)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, apuracao)
}

func (h *Handler) handleCastVote(w http.ResponseWriter, r *http.Request) {
	rc := access.FromContext(r.Context())
	if err := access.Guard(rc, access.OpVotar, uuid.Nil); err != nil {
		handleDomainError(w, r, err)
		return
	}
	var payload struct {
		PautaID string `json:"pauta_id"`
		Voto    string `json:"voto"`
		Valor   string `json:"valor"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", "payload inválido", nil)
		return
	}
	pautaID, ok := optionalUUID(w, payload.PautaID, "pauta_id")
	if !ok {
		return
	}
	valor := payload.Voto
	if valor == "" {
		valor = payload.Valor
	}

	voto, created, err := h.ledger.CastVote(r.Context(), rc, CastVoteInput{PautaID: pautaID, Valor: valor})
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	writeJSON(w, status, voto)
}

func (h *Handler) handleMeusVotos(w http.ResponseWriter, r *http.Request) {
	votos, err := h.ledger.ListVotesForVereador(r.Context(), access.FromContext(r.Context()))
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"votos": votos})
}

// handleVotosDaPauta responde conforme o papel: o vereador vê só o próprio voto,
// painéis e administração veem o placar nominal.
func (h *Handler) handleVotosDaPauta(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r)
	if !ok {
		return
	}
	rc := access.FromContext(r.Context())

	if rc != nil && rc.Role == access.RoleVereador {
		voto, err := h.ledger.GetVote(r.Context(), rc, id)
		if errors.Is(err, ErrVotoNotFound) {
			writeJSON(w, http.StatusOK, map[string]any{"voto": nil})
			return
		}
		if err != nil {
			handleDomainError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"voto": voto})
		return
	}

	resultado, err := h.ledger.ListVotesForPauta(r.Context(), rc, id)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resultado)
}

func pathUUID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", "id inválido", nil)
		return uuid.Nil, false
	}
	return id, true
}

// optionalUUID aceita vazio como uuid.Nil; valor malformado responde 400.
func optionalUUID(w http.ResponseWriter, raw, field string) (uuid.UUID, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return uuid.Nil, true
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", field+" inválido", map[string]string{"field": field})
		return uuid.Nil, false
	}
	return id, true
}

func handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *ValidationError
	switch {
	case errors.As(err, &verr):
		writeError(w, http.StatusBadRequest, "VALIDATION", verr.Message, map[string]string{"field": verr.Field})
	case errors.Is(err, access.ErrUnauthenticated):
		writeError(w, http.StatusUnauthorized, "AUTH", "não autenticado", nil)
	case errors.Is(err, access.ErrForbidden), errors.Is(err, ErrNotEligible):
		writeError(w, http.StatusForbidden, "FORBIDDEN", err.Error(), nil)
	case errors.Is(err, ErrPautaNotFound), errors.Is(err, ErrSessaoNotFound), errors.Is(err, ErrVereadorNotFound):
		writeError(w, http.StatusNotFound, "NOT_FOUND", err.Error(), nil)
	case errors.Is(err, ErrInvalidTransition), errors.Is(err, ErrInvalidState):
		writeError(w, http.StatusBadRequest, "INVALID_STATE", err.Error(), nil)
	default:
		log.Error().Err(err).Str("request_id", chimiddleware.GetReqID(r.Context())).
			Str("path", r.URL.Path).Msg("votacao handler error")
		writeError(w, http.StatusInternalServerError, "INTERNAL", "erro interno", nil)
	}
}

type successEnvelope struct {
	Data  any `json:"data"`
	Error any `json:"error"`
}

type errorEnvelope struct {
	Data  any            `json:"data"`
	Error *errorResponse `json:"error"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(successEnvelope{Data: payload, Error: nil})
}

func writeError(w http.ResponseWriter, status int, code, message string, details any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorEnvelope{Error: &errorResponse{Code: code, Message: message, Details: details}})
}
