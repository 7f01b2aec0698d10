package votacao

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/Jonsrn/PDSI-LegislaNet-MVP-sub001/internal/access"
)

// CastVoteInput é o voto enviado pelo tablet.
type CastVoteInput struct {
	PautaID uuid.UUID
	Valor   string
}

// ResultadoPauta é a visão completa de uma pauta para painéis e administração.
type ResultadoPauta struct {
	Pauta        Pauta        `json:"pauta"`
	Votos        []Voto       `json:"votos"`
	Estatisticas Estatisticas `json:"estatisticas"`
}

// Ledger registra os votos: um por vereador e pauta, substituído a cada novo envio
// enquanto a pauta estiver em votação.
type Ledger struct {
	store  Store
	stats  *Aggregator
	events Publisher
}

// NewLedger cria o livro de votos. events pode ser nil.
func NewLedger(store Store, stats *Aggregator, events Publisher) *Ledger {
	return &Ledger{store: store, stats: stats, events: events}
}

// CastVote grava ou substitui o voto do vereador autenticado. created indica primeiro voto.
func (l *Ledger) CastVote(ctx context.Context, rc *access.RoleContext, in CastVoteInput) (Voto, bool, error) {
	if err := access.Guard(rc, access.OpVotar, uuid.Nil); err != nil {
		return Voto{}, false, err
	}
	if in.PautaID == uuid.Nil {
		return Voto{}, false, invalid("pauta_id", "pauta_id é obrigatório")
	}
	if strings.TrimSpace(in.Valor) == "" {
		return Voto{}, false, invalid("voto", "voto é obrigatório")
	}
	valor, ok := ParseValor(in.Valor)
	if !ok {
		return Voto{}, false, invalid("voto", "voto deve ser Sim, Não ou Abstenção")
	}

	p, err := loadPauta(ctx, l.store, rc, access.OpVotar, in.PautaID)
	if err != nil {
		return Voto{}, false, err
	}
	if p.Status != StatusEmVotacao {
		return Voto{}, false, ErrInvalidState
	}

	ver, err := l.store.GetVereador(ctx, rc.Vereador())
	if errors.Is(err, ErrVereadorNotFound) {
		return Voto{}, false, access.ErrForbidden
	}
	if err != nil {
		return Voto{}, false, err
	}
	if ver.CamaraID != p.CamaraID {
		return Voto{}, false, access.ErrForbidden
	}
	if !ver.IsActive {
		return Voto{}, false, ErrNotEligible
	}

	saved, created, err := l.store.UpsertVoto(ctx, Voto{
		PautaID:           p.ID,
		VereadorID:        ver.ID,
		Valor:             valor,
		EraPresidente:     ver.IsPresidente,
		EraVicePresidente: ver.IsVicePresidente,
		PartidoID:         ver.PartidoID,
	})
	if err != nil {
		return Voto{}, false, err
	}
	saved.NomeParlamentar = ver.NomeParlamentar

	log.Info().Str("pauta_id", p.ID.String()).Str("vereador_id", ver.ID.String()).
		Bool("primeiro_voto", created).Msg("voto registrado")

	ev := Evento{Tipo: EventoVoto, PautaID: p.ID, CamaraID: p.CamaraID, Status: StatusEmVotacao, Voto: &saved}
	if t, err := l.store.TallyPauta(ctx, p.ID); err == nil {
		ev.Totais = totaisOf(t)
	} else {
		log.Warn().Err(err).Str("pauta_id", p.ID.String()).Msg("contagem para evento indisponível")
	}
	publish(ctx, l.events, ev)
	return saved, created, nil
}

// GetVote devolve o voto do vereador autenticado. ErrVotoNotFound significa "ainda não votou".
func (l *Ledger) GetVote(ctx context.Context, rc *access.RoleContext, pautaID uuid.UUID) (Voto, error) {
	if _, err := loadPauta(ctx, l.store, rc, access.OpLerMeuVoto, pautaID); err != nil {
		return Voto{}, err
	}
	return l.store.GetVoto(ctx, pautaID, rc.Vereador())
}

// ListVotesForPauta devolve pauta, votos nominais e estatísticas para quem pode ver o placar.
func (l *Ledger) ListVotesForPauta(ctx context.Context, rc *access.RoleContext, pautaID uuid.UUID) (ResultadoPauta, error) {
	p, err := loadPauta(ctx, l.store, rc, access.OpLerVotosDaPauta, pautaID)
	if err != nil {
		return ResultadoPauta{}, err
	}

	out := ResultadoPauta{Pauta: p}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		votos, err := l.store.ListVotosByPauta(gctx, pautaID)
		out.Votos = votos
		return err
	})
	g.Go(func() error {
		est, err := l.stats.compute(gctx, p)
		out.Estatisticas = est
		return err
	})
	if err := g.Wait(); err != nil {
		return ResultadoPauta{}, err
	}
	return out, nil
}

// ListVotesForVereador devolve os votos do vereador autenticado em todas as pautas.
func (l *Ledger) ListVotesForVereador(ctx context.Context, rc *access.RoleContext) ([]VotoDoVereador, error) {
	if err := access.Guard(rc, access.OpLerMeusVotos, uuid.Nil); err != nil {
		return nil, err
	}
	return l.store.ListVotosByVereador(ctx, rc.Vereador())
}
