package middleware

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Jonsrn/PDSI-LegislaNet-MVP-sub001/internal/access"
)

// Logging registra uma linha estruturada por requisição, com a identidade quando houver.
func Logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		// O RoleContext só aparece depois do Auth; guardamos um ponteiro para lê-lo ao final.
		var who access.RoleContext
		r = r.WithContext(withIdentitySlot(r.Context(), &who))

		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		var event *zerolog.Event
		switch {
		case status >= 500:
			event = log.Error()
		case status >= 400:
			event = log.Warn()
		default:
			event = log.Info()
		}
		event = event.Str("method", r.Method).Str("path", r.URL.Path).
			Int("status", status).Dur("duration", time.Since(start)).
			Str("ip", clientIP(r))

		if reqID := middleware.GetReqID(r.Context()); reqID != "" {
			event = event.Str("request_id", reqID)
		}
		if who.Role != "" {
			event = event.Str("user_id", who.UserID.String()).Str("role", string(who.Role))
			if who.CamaraID != nil {
				event = event.Str("camara_id", who.CamaraID.String())
			}
		}
		event.Msg("http_request")
	})
}
