package votacao

import (
	"context"
	"encoding/json"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/Jonsrn/PDSI-LegislaNet-MVP-sub001/internal/access"
)

// Estatisticas é a apuração corrente (ou congelada) de uma pauta.
type Estatisticas struct {
	PautaID             uuid.UUID `json:"pauta_id"`
	Status              Status    `json:"status"`
	Sim                 int       `json:"sim"`
	Nao                 int       `json:"nao"`
	Abstencao           int       `json:"abstencao"`
	Total               int       `json:"total"`
	PercentualSim       float64   `json:"percentual_sim"`
	PercentualNao       float64   `json:"percentual_nao"`
	PercentualAbstencao float64   `json:"percentual_abstencao"`
	Eleitores           int       `json:"eleitores"`
	Ausentes            int       `json:"ausentes"`
	VotoPresidente      *Valor    `json:"voto_presidente"`
	Congelada           bool      `json:"congelada"`
}

// Apuracao é o resultado sugerido pela regra de maioria com voto de minerva.
type Apuracao struct {
	Resultado        Resultado `json:"resultado_sugerido"`
	Motivo           string    `json:"motivo"`
	SimSemPresidente int       `json:"sim_sem_presidente"`
	NaoSemPresidente int       `json:"nao_sem_presidente"`
	VotoPresidente   *Valor    `json:"voto_presidente"`
}

// Apurar aplica a regra da câmara: maioria simples entre os votos que não são do
// presidente; em empate decide o presidente, e sem voto Sim dele a pauta é rejeitada.
// Abstenções não entram na comparação.
func Apurar(t Tally) Apuracao {
	sim, nao := t.Sim, t.Nao
	if t.VotoPresidente != nil {
		switch *t.VotoPresidente {
		case ValorSim:
			sim--
		case ValorNao:
			nao--
		}
	}
	a := Apuracao{SimSemPresidente: sim, NaoSemPresidente: nao, VotoPresidente: t.VotoPresidente}

	switch {
	case sim > nao:
		a.Resultado, a.Motivo = ResultadoAprovada, "maioria simples dos vereadores"
	case sim < nao:
		a.Resultado, a.Motivo = ResultadoRejeitada, "maioria simples dos vereadores"
	case t.VotoPresidente == nil:
		a.Resultado, a.Motivo = ResultadoRejeitada, "empate e presidente não votou"
	case *t.VotoPresidente == ValorSim:
		a.Resultado, a.Motivo = ResultadoAprovada, "empate decidido pelo voto do presidente"
	case *t.VotoPresidente == ValorNao:
		a.Resultado, a.Motivo = ResultadoRejeitada, "empate decidido pelo voto do presidente"
	default:
		a.Resultado, a.Motivo = ResultadoRejeitada, "empate e presidente se absteve"
	}
	return a
}

// Aggregator deriva estatísticas do livro de votos. Pautas finalizadas usam o
// instantâneo gravado na finalização e ficam em cache no Redis.
type Aggregator struct {
	store Store
	cache *redis.Client
	ttl   time.Duration
}

// NewAggregator cria o agregador. cache pode ser nil.
func NewAggregator(store Store, cache *redis.Client, ttl time.Duration) *Aggregator {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &Aggregator{store: store, cache: cache, ttl: ttl}
}

func statsKey(pautaID uuid.UUID) string {
	return "votacao:estatisticas:" + pautaID.String()
}

// Statistics devolve as estatísticas da pauta em qualquer status.
func (a *Aggregator) Statistics(ctx context.Context, rc *access.RoleContext, pautaID uuid.UUID) (Estatisticas, error) {
	p, err := loadPauta(ctx, a.store, rc, access.OpLerEstatisticas, pautaID)
	if err != nil {
		return Estatisticas{}, err
	}
	return a.compute(ctx, p)
}

// Apuracao calcula o resultado sugerido sem alterar a pauta.
func (a *Aggregator) Apuracao(ctx context.Context, rc *access.RoleContext, pautaID uuid.UUID) (Apuracao, error) {
	if _, err := loadPauta(ctx, a.store, rc, access.OpLerEstatisticas, pautaID); err != nil {
		return Apuracao{}, err
	}
	t, err := a.store.TallyPauta(ctx, pautaID)
	if err != nil {
		return Apuracao{}, err
	}
	return Apurar(t), nil
}

func (a *Aggregator) compute(ctx context.Context, p Pauta) (Estatisticas, error) {
	frozen := p.Status.Terminal()
	if frozen && a.cache != nil {
		if data, err := a.cache.Get(ctx, statsKey(p.ID)).Bytes(); err == nil {
			var cached Estatisticas
			if json.Unmarshal(data, &cached) == nil {
				return cached, nil
			}
		}
	}

	t, err := a.store.TallyPauta(ctx, p.ID)
	if err != nil {
		return Estatisticas{}, err
	}
	eleitores, err := a.store.CountVereadoresAtivos(ctx, p.CamaraID)
	if err != nil {
		return Estatisticas{}, err
	}

	est := Estatisticas{
		PautaID:        p.ID,
		Status:         p.Status,
		Sim:            t.Sim,
		Nao:            t.Nao,
		Abstencao:      t.Abstencao,
		Eleitores:      eleitores,
		VotoPresidente: t.VotoPresidente,
		Congelada:      frozen,
	}
	if frozen {
		est.Sim, est.Nao, est.Abstencao = p.VotosSim, p.VotosNao, p.Abstencoes
	}
	est.Total = est.Sim + est.Nao + est.Abstencao
	est.PercentualSim = percent(est.Sim, est.Total)
	est.PercentualNao = percent(est.Nao, est.Total)
	est.PercentualAbstencao = percent(est.Abstencao, est.Total)
	if est.Eleitores > est.Total {
		est.Ausentes = est.Eleitores - est.Total
	}

	if frozen && a.cache != nil {
		if payload, err := json.Marshal(est); err == nil {
			if err := a.cache.Set(ctx, statsKey(p.ID), payload, a.ttl).Err(); err != nil {
				log.Warn().Err(err).Str("pauta_id", p.ID.String()).Msg("cache de estatísticas indisponível")
			}
		}
	}
	return est, nil
}

func (a *Aggregator) invalidate(ctx context.Context, pautaID uuid.UUID) {
	if a == nil || a.cache == nil {
		return
	}
	_ = a.cache.Del(ctx, statsKey(pautaID)).Err()
}

func percent(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(part)*10000/float64(total)) / 100
}
