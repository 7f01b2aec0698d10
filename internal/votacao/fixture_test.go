package votacao

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/Jonsrn/PDSI-LegislaNet-MVP-sub001/internal/access"
	"github.com/Jonsrn/PDSI-LegislaNet-MVP-sub001/internal/repo"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []Evento
}

func (p *recordingPublisher) Publish(_ context.Context, ev Evento) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return nil
}

func (p *recordingPublisher) tipos() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, ev := range p.events {
		out = append(out, ev.Tipo)
	}
	return out
}

// fixture monta uma câmara com sessão, presidente e três vereadores, mais uma
// segunda câmara para os testes de isolamento.
type fixture struct {
	store  *MemoryStore
	events *recordingPublisher
	stats  *Aggregator
	pautas *PautaService
	ledger *Ledger

	camara      uuid.UUID
	outraCamara uuid.UUID
	sessao      uuid.UUID
	outraSessao uuid.UUID
	presidente  repo.Vereador
	vereadores  []repo.Vereador
	inativo     repo.Vereador
	estrangeiro repo.Vereador
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		store:       NewMemoryStore(),
		events:      &recordingPublisher{},
		camara:      uuid.New(),
		outraCamara: uuid.New(),
		sessao:      uuid.New(),
		outraSessao: uuid.New(),
	}
	f.stats = NewAggregator(f.store, nil, time.Minute)
	f.pautas = NewPautaService(f.store, f.stats, f.events)
	f.ledger = NewLedger(f.store, f.stats, f.events)

	f.store.AddSessao(repo.Sessao{ID: f.sessao, CamaraID: f.camara, Tipo: "Ordinária", DataSessao: time.Now()})
	f.store.AddSessao(repo.Sessao{ID: f.outraSessao, CamaraID: f.outraCamara, Tipo: "Ordinária", DataSessao: time.Now()})

	partido := uuid.New()
	f.presidente = repo.Vereador{ID: uuid.New(), CamaraID: f.camara, PartidoID: &partido, NomeParlamentar: "Presidente", IsPresidente: true, IsActive: true}
	f.store.AddVereador(f.presidente)
	for _, nome := range []string{"Ana", "Bruno", "Carla"} {
		v := repo.Vereador{ID: uuid.New(), CamaraID: f.camara, NomeParlamentar: nome, IsActive: true}
		f.vereadores = append(f.vereadores, v)
		f.store.AddVereador(v)
	}
	f.inativo = repo.Vereador{ID: uuid.New(), CamaraID: f.camara, NomeParlamentar: "Licenciado", IsActive: false}
	f.store.AddVereador(f.inativo)
	f.estrangeiro = repo.Vereador{ID: uuid.New(), CamaraID: f.outraCamara, NomeParlamentar: "Visitante", IsActive: true}
	f.store.AddVereador(f.estrangeiro)
	return f
}

func (f *fixture) admin() *access.RoleContext {
	camara := f.camara
	return &access.RoleContext{UserID: uuid.New(), Role: access.RoleAdminCamara, CamaraID: &camara}
}

func (f *fixture) outroAdmin() *access.RoleContext {
	camara := f.outraCamara
	return &access.RoleContext{UserID: uuid.New(), Role: access.RoleAdminCamara, CamaraID: &camara}
}

func (f *fixture) tv() *access.RoleContext {
	camara := f.camara
	return &access.RoleContext{UserID: uuid.New(), Role: access.RoleTV, CamaraID: &camara}
}

func (f *fixture) superAdmin() *access.RoleContext {
	return &access.RoleContext{UserID: uuid.New(), Role: access.RoleSuperAdmin}
}

func vereadorCtx(v repo.Vereador) *access.RoleContext {
	camara, id := v.CamaraID, v.ID
	return &access.RoleContext{UserID: uuid.New(), Role: access.RoleVereador, CamaraID: &camara, VereadorID: &id}
}

func (f *fixture) createPauta(t *testing.T, titulo string) Pauta {
	t.Helper()
	p, err := f.pautas.Create(context.Background(), f.admin(), CreatePautaInput{SessaoID: f.sessao, Titulo: titulo})
	if err != nil {
		t.Fatalf("create pauta: %v", err)
	}
	return p
}

func (f *fixture) openPauta(t *testing.T, titulo string) Pauta {
	t.Helper()
	p := f.createPauta(t, titulo)
	opened, err := f.pautas.OpenForVoting(context.Background(), f.admin(), p.ID)
	if err != nil {
		t.Fatalf("open pauta: %v", err)
	}
	return opened
}

func (f *fixture) vote(t *testing.T, v repo.Vereador, pautaID uuid.UUID, valor string) Voto {
	t.Helper()
	voto, _, err := f.ledger.CastVote(context.Background(), vereadorCtx(v), CastVoteInput{PautaID: pautaID, Valor: valor})
	if err != nil {
		t.Fatalf("cast vote %s: %v", v.NomeParlamentar, err)
	}
	return voto
}
