package votacao

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Tipos de evento ao vivo.
const (
	EventoVoto      = "voto"
	EventoStatus    = "status"
	EventoResultado = "resultado"
	EventoRemovida  = "removida"
)

// Totais resume a contagem corrente de uma pauta.
type Totais struct {
	Sim       int `json:"sim"`
	Nao       int `json:"nao"`
	Abstencao int `json:"abstencao"`
	Total     int `json:"total"`
}

func totaisOf(t Tally) *Totais {
	return &Totais{Sim: t.Sim, Nao: t.Nao, Abstencao: t.Abstencao, Total: t.Total()}
}

// Evento é o aviso enviado aos painéis da câmara e aos tablets.
type Evento struct {
	Tipo      string     `json:"tipo"`
	PautaID   uuid.UUID  `json:"pauta_id"`
	CamaraID  uuid.UUID  `json:"camara_id"`
	Status    Status     `json:"status,omitempty"`
	Resultado *Resultado `json:"resultado,omitempty"`
	Totais    *Totais    `json:"totais,omitempty"`
	Voto      *Voto      `json:"voto,omitempty"`
	Em        time.Time  `json:"em"`
}

// Publisher entrega eventos ao vivo. Falha na entrega nunca desfaz a operação.
type Publisher interface {
	Publish(ctx context.Context, ev Evento) error
}

func publish(ctx context.Context, p Publisher, ev Evento) {
	if p == nil {
		return
	}
	ev.Em = time.Now().UTC()
	if err := p.Publish(ctx, ev); err != nil {
		log.Warn().Err(err).Str("tipo", ev.Tipo).Str("pauta_id", ev.PautaID.String()).Msg("falha ao publicar evento ao vivo")
	}
}
