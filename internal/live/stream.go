package live

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/Jonsrn/PDSI-LegislaNet-MVP-sub001/internal/access"
)

const heartbeatInterval = 25 * time.Second

// StreamHandler retransmite o canal da câmara como Server-Sent Events para painéis de TV.
type StreamHandler struct {
	client    *redis.Client
	prefix    string
	heartbeat time.Duration
}

func NewStreamHandler(client *redis.Client, prefix string) *StreamHandler {
	if prefix == "" {
		prefix = "votacao"
	}
	return &StreamHandler{client: client, prefix: prefix, heartbeat: heartbeatInterval}
}

func (h *StreamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	rc := access.FromContext(r.Context())
	if err := access.Guard(rc, access.OpAcompanharVotacao, uuid.Nil); err != nil {
		writeAccessError(w, err)
		return
	}

	var requested uuid.UUID
	if raw := r.URL.Query().Get("camara_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "VALIDATION", "camara_id inválido")
			return
		}
		requested = id
	}
	camara, err := access.ScopeCamara(*rc, requested)
	if err != nil {
		writeAccessError(w, err)
		return
	}
	if camara == uuid.Nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", "camara_id é obrigatório")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "INTERNAL", "streaming não suportado")
		return
	}

	ctx := r.Context()
	sub := h.client.Subscribe(ctx, Channel(h.prefix, camara))
	defer sub.Close()
	if _, err := sub.Receive(ctx); err != nil {
		log.Error().Err(err).Str("camara_id", camara.String()).Msg("falha ao assinar canal ao vivo")
		writeError(w, http.StatusServiceUnavailable, "UNAVAILABLE", "canal ao vivo indisponível")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, ": conectado %s\n\n", camara)
	flusher.Flush()

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()
	msgs := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			fmt.Fprint(w, ": ping\n\n")
			flusher.Flush()
		case msg, ok := <-msgs:
			if !ok {
				return
			}
			var ev struct {
				Tipo string `json:"tipo"`
			}
			_ = json.Unmarshal([]byte(msg.Payload), &ev)
			if ev.Tipo != "" {
				fmt.Fprintf(w, "event: %s\n", ev.Tipo)
			}
			fmt.Fprintf(w, "data: %s\n\n", msg.Payload)
			flusher.Flush()
		}
	}
}

func writeAccessError(w http.ResponseWriter, err error) {
	if errors.Is(err, access.ErrUnauthenticated) {
		writeError(w, http.StatusUnauthorized, "AUTH", "não autenticado")
		return
	}
	writeError(w, http.StatusForbidden, "FORBIDDEN", "acesso negado")
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
