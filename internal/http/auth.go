package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/Jonsrn/PDSI-LegislaNet-MVP-sub001/internal/access"
	httpmiddleware "github.com/Jonsrn/PDSI-LegislaNet-MVP-sub001/internal/http/middleware"
	"github.com/Jonsrn/PDSI-LegislaNet-MVP-sub001/internal/service"
)

// Authenticator é o que o roteador precisa do serviço de autenticação.
type Authenticator interface {
	httpmiddleware.TokenResolver
	Login(ctx context.Context, email, password string) (*service.LoginResult, error)
	Logout(ctx context.Context, token string) error
	Me(ctx context.Context, rc *access.RoleContext) (service.Profile, error)
}

// Login autentica por e-mail e senha (aceita "password" ou "senha").
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Email    string `json:"email"`
		Password string `json:"password"`
		Senha    string `json:"senha"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "JSON inválido", nil)
		return
	}
	if payload.Password == "" {
		payload.Password = payload.Senha
	}
	if strings.TrimSpace(payload.Email) == "" || payload.Password == "" {
		WriteError(w, http.StatusBadRequest, "VALIDATION", service.ErrMissingCredentials.Error(), nil)
		return
	}

	result, err := h.auth.Login(r.Context(), payload.Email, payload.Password)
	switch {
	case err == nil:
		WriteJSON(w, http.StatusOK, result)
	case errors.Is(err, service.ErrMissingCredentials):
		WriteError(w, http.StatusBadRequest, "VALIDATION", err.Error(), nil)
	case errors.Is(err, service.ErrInvalidCredentials), errors.Is(err, service.ErrAccountDisabled):
		// conta desativada não é distinguida de credencial errada
		WriteError(w, http.StatusUnauthorized, "AUTH", service.ErrInvalidCredentials.Error(), nil)
	default:
		writeAccessError(w, r, err)
	}
}

// Logout revoga o token da requisição.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	token, _ := httpmiddleware.BearerToken(r)
	if err := h.auth.Logout(r.Context(), token); err != nil {
		writeAccessError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"status": "logged_out"})
}

// Me retorna o perfil do usuário autenticado.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	profile, err := h.auth.Me(r.Context(), access.FromContext(r.Context()))
	if err != nil {
		writeAccessError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, profile)
}
