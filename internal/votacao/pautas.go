package votacao

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/Jonsrn/PDSI-LegislaNet-MVP-sub001/internal/access"
)

const (
	defaultPageLimit = 8
	maxPageLimit     = 100
)

// CreatePautaInput são os dados de criação de uma pauta.
type CreatePautaInput struct {
	SessaoID    uuid.UUID
	Titulo      string
	Descricao   string
	Autor       string
	TipoVotacao string
	Ordem       int
}

// FinalizeInput é o pedido explícito de finalização. As contagens informadas são
// apenas conferidas contra o livro de votos.
type FinalizeInput struct {
	Resultado  string
	VotosSim   *int
	VotosNao   *int
	Abstencoes *int
}

// PautaService controla o ciclo de vida das pautas.
type PautaService struct {
	store  Store
	stats  *Aggregator
	events Publisher
	now    func() time.Time
}

// NewPautaService cria o serviço. stats e events podem ser nil.
func NewPautaService(store Store, stats *Aggregator, events Publisher) *PautaService {
	return &PautaService{
		store:  store,
		stats:  stats,
		events: events,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// loadPauta confere o papel antes de tocar na store e a câmara depois de conhecer a dona.
func loadPauta(ctx context.Context, store Store, rc *access.RoleContext, op access.Operation, id uuid.UUID) (Pauta, error) {
	if err := access.Guard(rc, op, uuid.Nil); err != nil {
		return Pauta{}, err
	}
	p, err := store.GetPauta(ctx, id)
	if err != nil {
		return Pauta{}, err
	}
	if err := access.CheckCamara(*rc, p.CamaraID); err != nil {
		return Pauta{}, err
	}
	return p, nil
}

// Create cria pauta Pendente na sessão informada.
func (s *PautaService) Create(ctx context.Context, rc *access.RoleContext, in CreatePautaInput) (Pauta, error) {
	if err := access.Guard(rc, access.OpGerenciarPautas, uuid.Nil); err != nil {
		return Pauta{}, err
	}
	titulo := strings.TrimSpace(in.Titulo)
	if titulo == "" {
		return Pauta{}, invalid("titulo", "titulo é obrigatório")
	}
	if in.SessaoID == uuid.Nil {
		return Pauta{}, invalid("sessao_id", "sessao_id é obrigatório")
	}
	if in.Ordem < 0 {
		return Pauta{}, invalid("ordem", "ordem não pode ser negativa")
	}

	sessao, err := s.store.GetSessao(ctx, in.SessaoID)
	if errors.Is(err, ErrSessaoNotFound) {
		return Pauta{}, invalid("sessao_id", "sessão não encontrada")
	}
	if err != nil {
		return Pauta{}, err
	}
	if err := access.CheckCamara(*rc, sessao.CamaraID); err != nil {
		return Pauta{}, err
	}

	tipo := strings.TrimSpace(in.TipoVotacao)
	if tipo == "" {
		tipo = "Nominal"
	}
	p := Pauta{
		ID:          uuid.New(),
		SessaoID:    sessao.ID,
		CamaraID:    sessao.CamaraID,
		Titulo:      titulo,
		Descricao:   strings.TrimSpace(in.Descricao),
		Autor:       strings.TrimSpace(in.Autor),
		TipoVotacao: tipo,
		Ordem:       in.Ordem,
		Status:      StatusPendente,
	}
	if err := s.store.InsertPauta(ctx, p); err != nil {
		return Pauta{}, err
	}
	log.Info().Str("pauta_id", p.ID.String()).Str("camara_id", p.CamaraID.String()).Msg("pauta criada")
	return s.store.GetPauta(ctx, p.ID)
}

// Get devolve uma pauta da câmara do chamador.
func (s *PautaService) Get(ctx context.Context, rc *access.RoleContext, id uuid.UUID) (Pauta, error) {
	return loadPauta(ctx, s.store, rc, access.OpLerPauta, id)
}

// List pagina as pautas da câmara do chamador.
func (s *PautaService) List(ctx context.Context, rc *access.RoleContext, f PautaFilter) (PautaPage, error) {
	if err := access.Guard(rc, access.OpListarPautas, uuid.Nil); err != nil {
		return PautaPage{}, err
	}
	camara, err := access.ScopeCamara(*rc, f.CamaraID)
	if err != nil {
		return PautaPage{}, err
	}
	f.CamaraID = camara
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 {
		f.Limit = defaultPageLimit
	}
	if f.Limit > maxPageLimit {
		f.Limit = maxPageLimit
	}

	pautas, total, err := s.store.ListPautas(ctx, f)
	if err != nil {
		return PautaPage{}, err
	}
	return PautaPage{Pautas: pautas, Total: total, Page: f.Page, Limit: f.Limit}, nil
}

// Update edita os campos descritivos; status só muda pelas transições.
func (s *PautaService) Update(ctx context.Context, rc *access.RoleContext, id uuid.UUID, c PautaChanges) (Pauta, error) {
	if err := access.Guard(rc, access.OpGerenciarPautas, uuid.Nil); err != nil {
		return Pauta{}, err
	}
	c.Titulo = strings.TrimSpace(c.Titulo)
	if c.Titulo == "" {
		return Pauta{}, invalid("titulo", "titulo é obrigatório")
	}
	if c.Ordem < 0 {
		return Pauta{}, invalid("ordem", "ordem não pode ser negativa")
	}
	current, err := loadPauta(ctx, s.store, rc, access.OpGerenciarPautas, id)
	if err != nil {
		return Pauta{}, err
	}
	if strings.TrimSpace(c.TipoVotacao) == "" {
		c.TipoVotacao = current.TipoVotacao
	}
	return s.store.UpdatePauta(ctx, id, c)
}

// Delete remove a pauta e, junto, seus votos.
func (s *PautaService) Delete(ctx context.Context, rc *access.RoleContext, id uuid.UUID) error {
	p, err := loadPauta(ctx, s.store, rc, access.OpGerenciarPautas, id)
	if err != nil {
		return err
	}
	if err := s.store.DeletePauta(ctx, id); err != nil {
		return err
	}
	s.stats.invalidate(ctx, id)
	log.Info().Str("pauta_id", id.String()).Msg("pauta removida")
	publish(ctx, s.events, Evento{Tipo: EventoRemovida, PautaID: id, CamaraID: p.CamaraID})
	return nil
}

// OpenForVoting move a pauta de Pendente para Em Votação.
func (s *PautaService) OpenForVoting(ctx context.Context, rc *access.RoleContext, id uuid.UUID) (Pauta, error) {
	if _, err := loadPauta(ctx, s.store, rc, access.OpGerenciarPautas, id); err != nil {
		return Pauta{}, err
	}
	out, err := s.store.TransitionPauta(ctx, id, StatusPendente, func(p Pauta, _ Tally) (Pauta, error) {
		p.Status = StatusEmVotacao
		return p, nil
	})
	if err != nil {
		return Pauta{}, err
	}
	log.Info().Str("pauta_id", id.String()).Msg("votação aberta")
	publish(ctx, s.events, Evento{Tipo: EventoStatus, PautaID: id, CamaraID: out.CamaraID, Status: out.Status})
	return out, nil
}

// Finalize encerra a votação com o resultado informado.
func (s *PautaService) Finalize(ctx context.Context, rc *access.RoleContext, id uuid.UUID, in FinalizeInput) (Pauta, error) {
	if err := access.Guard(rc, access.OpGerenciarPautas, uuid.Nil); err != nil {
		return Pauta{}, err
	}
	if strings.TrimSpace(in.Resultado) == "" {
		return Pauta{}, invalid("resultado_votacao", "resultado_votacao é obrigatório")
	}
	resultado, ok := ParseResultado(in.Resultado)
	if !ok {
		return Pauta{}, invalid("resultado_votacao", "resultado deve ser Aprovada ou Rejeitada")
	}
	if _, err := loadPauta(ctx, s.store, rc, access.OpGerenciarPautas, id); err != nil {
		return Pauta{}, err
	}
	return s.finalize(ctx, id, func(Tally) Resultado { return resultado }, &in)
}

// FinalizeByApuracao encerra a votação aplicando a regra de apuração ao livro de votos.
func (s *PautaService) FinalizeByApuracao(ctx context.Context, rc *access.RoleContext, id uuid.UUID) (Pauta, error) {
	if _, err := loadPauta(ctx, s.store, rc, access.OpGerenciarPautas, id); err != nil {
		return Pauta{}, err
	}
	return s.finalize(ctx, id, func(t Tally) Resultado { return Apurar(t).Resultado }, nil)
}

// ChangeStatus atende o endpoint genérico de status.
func (s *PautaService) ChangeStatus(ctx context.Context, rc *access.RoleContext, id uuid.UUID, raw string) (Pauta, error) {
	if err := access.Guard(rc, access.OpGerenciarPautas, uuid.Nil); err != nil {
		return Pauta{}, err
	}
	if strings.TrimSpace(raw) == "" {
		return Pauta{}, invalid("status", "status é obrigatório")
	}
	if normalize(raw) == "finalizada" {
		return s.FinalizeByApuracao(ctx, rc, id)
	}
	status, ok := ParseStatus(raw)
	if !ok {
		return Pauta{}, invalid("status", "status desconhecido")
	}
	switch status {
	case StatusEmVotacao:
		return s.OpenForVoting(ctx, rc, id)
	case StatusAprovada, StatusRejeitada:
		return s.Finalize(ctx, rc, id, FinalizeInput{Resultado: string(status)})
	}
	if _, err := loadPauta(ctx, s.store, rc, access.OpGerenciarPautas, id); err != nil {
		return Pauta{}, err
	}
	return Pauta{}, ErrInvalidTransition
}

func (s *PautaService) finalize(ctx context.Context, id uuid.UUID, decide func(Tally) Resultado, supplied *FinalizeInput) (Pauta, error) {
	out, err := s.store.TransitionPauta(ctx, id, StatusEmVotacao, func(p Pauta, t Tally) (Pauta, error) {
		r := decide(t)
		now := s.now()
		p.Status = r.Status()
		p.Resultado = &r
		p.VotosSim, p.VotosNao, p.Abstencoes = t.Sim, t.Nao, t.Abstencao
		p.FinalizadaEm = &now
		if supplied != nil {
			checkSuppliedCounts(id, *supplied, t)
		}
		return p, nil
	})
	if err != nil {
		return Pauta{}, err
	}
	s.stats.invalidate(ctx, id)
	log.Info().Str("pauta_id", id.String()).Str("resultado", string(*out.Resultado)).
		Int("sim", out.VotosSim).Int("nao", out.VotosNao).Int("abstencoes", out.Abstencoes).
		Msg("votação finalizada")
	publish(ctx, s.events, Evento{
		Tipo:      EventoResultado,
		PautaID:   id,
		CamaraID:  out.CamaraID,
		Status:    out.Status,
		Resultado: out.Resultado,
		Totais:    &Totais{Sim: out.VotosSim, Nao: out.VotosNao, Abstencao: out.Abstencoes, Total: out.VotosSim + out.VotosNao + out.Abstencoes},
	})
	return out, nil
}

func checkSuppliedCounts(id uuid.UUID, in FinalizeInput, t Tally) {
	mismatch := (in.VotosSim != nil && *in.VotosSim != t.Sim) ||
		(in.VotosNao != nil && *in.VotosNao != t.Nao) ||
		(in.Abstencoes != nil && *in.Abstencoes != t.Abstencao)
	if mismatch {
		log.Warn().Str("pauta_id", id.String()).
			Int("livro_sim", t.Sim).Int("livro_nao", t.Nao).Int("livro_abstencoes", t.Abstencao).
			Msg("contagem informada diverge do livro de votos; gravando contagem do livro")
	}
}
