package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/Jonsrn/PDSI-LegislaNet-MVP-sub001/internal/access"
)

// TokenResolver converte o bearer token em identidade.
type TokenResolver interface {
	Resolve(ctx context.Context, token string) (access.RoleContext, error)
}

// BearerToken extrai o token do cabeçalho Authorization.
func BearerToken(r *http.Request) (string, bool) {
	parts := strings.SplitN(r.Header.Get("Authorization"), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	return token, token != ""
}

// Auth exige token válido e injeta o RoleContext resolvido na requisição.
func Auth(resolver TokenResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := BearerToken(r)
			if !ok {
				writeError(w, http.StatusUnauthorized, "AUTH", "token ausente")
				return
			}

			rc, err := resolver.Resolve(r.Context(), token)
			if errors.Is(err, access.ErrUnauthenticated) {
				writeError(w, http.StatusUnauthorized, "AUTH", "token inválido ou expirado")
				return
			}
			if err != nil {
				log.Error().Err(err).Msg("auth: resolver sessão")
				writeError(w, http.StatusInternalServerError, "INTERNAL", "erro interno")
				return
			}

			if slot, ok := r.Context().Value(identitySlotKey{}).(*access.RoleContext); ok {
				*slot = rc
			}
			next.ServeHTTP(w, r.WithContext(access.WithRoleContext(r.Context(), rc)))
		})
	}
}

type identitySlotKey struct{}

func withIdentitySlot(ctx context.Context, slot *access.RoleContext) context.Context {
	return context.WithValue(ctx, identitySlotKey{}, slot)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"data": nil,
		"error": map[string]any{
			"code":    code,
			"message": message,
		},
	})
}
