package votacao

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/Jonsrn/PDSI-LegislaNet-MVP-sub001/internal/access"
)

func assertResultadoInvariant(t *testing.T, p Pauta) {
	t.Helper()
	if !p.Status.Valid() {
		t.Fatalf("status fora do conjunto: %q", p.Status)
	}
	if (p.Resultado != nil) != p.Status.Terminal() {
		t.Fatalf("resultado %v incoerente com status %s", p.Resultado, p.Status)
	}
}

func TestPautaLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	p := f.createPauta(t, "Projeto de Lei 1/2025")
	if p.Status != StatusPendente || p.CamaraID != f.camara {
		t.Fatalf("pauta criada inesperada: %+v", p)
	}
	assertResultadoInvariant(t, p)

	if _, err := f.pautas.Finalize(ctx, f.admin(), p.ID, FinalizeInput{Resultado: "Aprovada"}); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("finalizar pendente: esperado transição inválida, obtido %v", err)
	}

	opened, err := f.pautas.OpenForVoting(ctx, f.admin(), p.ID)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if opened.Status != StatusEmVotacao {
		t.Fatalf("status após abrir: %s", opened.Status)
	}
	assertResultadoInvariant(t, opened)

	if _, err := f.pautas.OpenForVoting(ctx, f.admin(), p.ID); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("reabrir: esperado transição inválida, obtido %v", err)
	}

	final, err := f.pautas.Finalize(ctx, f.admin(), p.ID, FinalizeInput{Resultado: "Reprovada"})
	if err != nil {
		t.Fatalf("finalize: %v", err)
	}
	if final.Status != StatusRejeitada || *final.Resultado != ResultadoRejeitada || final.FinalizadaEm == nil {
		t.Fatalf("finalização inesperada: %+v", final)
	}
	assertResultadoInvariant(t, final)

	for _, status := range []string{"Em Votação", "Aprovada", "Pendente"} {
		if _, err := f.pautas.ChangeStatus(ctx, f.admin(), p.ID, status); !errors.Is(err, ErrInvalidTransition) {
			t.Fatalf("%s após final: esperado transição inválida, obtido %v", status, err)
		}
	}

	want := []string{EventoStatus, EventoResultado}
	got := f.events.tipos()
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Fatalf("eventos: esperado %v, obtido %v", want, got)
	}
}

func TestPautaUnknownID(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := uuid.New()

	if _, err := f.pautas.OpenForVoting(ctx, f.admin(), id); !errors.Is(err, ErrPautaNotFound) {
		t.Fatalf("open: %v", err)
	}
	if _, err := f.pautas.Finalize(ctx, f.admin(), id, FinalizeInput{Resultado: "Aprovada"}); !errors.Is(err, ErrPautaNotFound) {
		t.Fatalf("finalize: %v", err)
	}
	if _, err := f.pautas.Update(ctx, f.admin(), id, PautaChanges{Titulo: "x"}); !errors.Is(err, ErrPautaNotFound) {
		t.Fatalf("update: %v", err)
	}
	if err := f.pautas.Delete(ctx, f.admin(), id); !errors.Is(err, ErrPautaNotFound) {
		t.Fatalf("delete: %v", err)
	}
}

func TestCreatePautaValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tests := []struct {
		name  string
		in    CreatePautaInput
		field string
	}{
		{"sem titulo", CreatePautaInput{SessaoID: f.sessao}, "titulo"},
		{"titulo em branco", CreatePautaInput{SessaoID: f.sessao, Titulo: "   "}, "titulo"},
		{"sem sessao", CreatePautaInput{Titulo: "X"}, "sessao_id"},
		{"sessao desconhecida", CreatePautaInput{SessaoID: uuid.New(), Titulo: "X"}, "sessao_id"},
		{"ordem negativa", CreatePautaInput{SessaoID: f.sessao, Titulo: "X", Ordem: -1}, "ordem"},
	}
	for _, tc := range tests {
		_, err := f.pautas.Create(ctx, f.admin(), tc.in)
		var verr *ValidationError
		if !errors.As(err, &verr) || verr.Field != tc.field {
			t.Errorf("%s: esperado erro de validação em %s, obtido %v", tc.name, tc.field, err)
		}
	}

	page, err := f.pautas.List(ctx, f.admin(), PautaFilter{})
	if err != nil || page.Total != 0 {
		t.Fatalf("validação não pode gravar nada: total=%d err=%v", page.Total, err)
	}
}

func TestCreatePautaAuthorization(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	in := CreatePautaInput{SessaoID: f.sessao, Titulo: "X"}

	if _, err := f.pautas.Create(ctx, nil, in); !errors.Is(err, access.ErrUnauthenticated) {
		t.Fatalf("anônimo: %v", err)
	}
	if _, err := f.pautas.Create(ctx, f.tv(), in); !errors.Is(err, access.ErrForbidden) {
		t.Fatalf("tv: %v", err)
	}
	if _, err := f.pautas.Create(ctx, vereadorCtx(f.vereadores[0]), in); !errors.Is(err, access.ErrForbidden) {
		t.Fatalf("vereador: %v", err)
	}
	if _, err := f.pautas.Create(ctx, f.superAdmin(), in); !errors.Is(err, access.ErrForbidden) {
		t.Fatalf("super_admin: %v", err)
	}
	if _, err := f.pautas.Create(ctx, f.outroAdmin(), in); !errors.Is(err, access.ErrForbidden) {
		t.Fatalf("admin de outra câmara: %v", err)
	}
}

func TestPautaTenantIsolation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.createPauta(t, "Requerimento")

	if _, err := f.pautas.Get(ctx, f.outroAdmin(), p.ID); !errors.Is(err, access.ErrForbidden) {
		t.Fatalf("leitura cruzada: %v", err)
	}
	if _, err := f.pautas.OpenForVoting(ctx, f.outroAdmin(), p.ID); !errors.Is(err, access.ErrForbidden) {
		t.Fatalf("abertura cruzada: %v", err)
	}
	if err := f.pautas.Delete(ctx, f.outroAdmin(), p.ID); !errors.Is(err, access.ErrForbidden) {
		t.Fatalf("remoção cruzada: %v", err)
	}
	if _, err := f.pautas.Get(ctx, f.superAdmin(), p.ID); err != nil {
		t.Fatalf("super_admin lê qualquer câmara: %v", err)
	}
	if _, err := f.pautas.Get(ctx, f.tv(), p.ID); err != nil {
		t.Fatalf("tv da câmara lê pauta: %v", err)
	}

	page, err := f.pautas.List(ctx, f.outroAdmin(), PautaFilter{})
	if err != nil || page.Total != 0 {
		t.Fatalf("listagem de outra câmara vazou pautas: %+v %v", page, err)
	}
	if _, err := f.pautas.List(ctx, f.outroAdmin(), PautaFilter{CamaraID: f.camara}); !errors.Is(err, access.ErrForbidden) {
		t.Fatalf("filtro por câmara alheia: %v", err)
	}
	if _, err := f.pautas.List(ctx, f.tv(), PautaFilter{}); !errors.Is(err, access.ErrForbidden) {
		t.Fatalf("tv não lista pautas: %v", err)
	}
}

func TestListPautasFilters(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	for i := 0; i < 10; i++ {
		f.createPauta(t, "Indicação")
	}
	aberta := f.openPauta(t, "Moção de aplauso")

	page, err := f.pautas.List(ctx, f.admin(), PautaFilter{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if page.Total != 11 || len(page.Pautas) != defaultPageLimit || page.Page != 1 {
		t.Fatalf("paginação padrão: total=%d len=%d page=%d", page.Total, len(page.Pautas), page.Page)
	}

	page, _ = f.pautas.List(ctx, f.admin(), PautaFilter{Page: 2})
	if len(page.Pautas) != 3 {
		t.Fatalf("segunda página: %d", len(page.Pautas))
	}

	page, _ = f.pautas.List(ctx, f.admin(), PautaFilter{Status: StatusEmVotacao})
	if page.Total != 1 || page.Pautas[0].ID != aberta.ID {
		t.Fatalf("filtro de status: %+v", page)
	}

	page, _ = f.pautas.List(ctx, f.admin(), PautaFilter{Search: "moção"})
	if page.Total != 1 {
		t.Fatalf("busca: %d", page.Total)
	}

	page, _ = f.pautas.List(ctx, f.superAdmin(), PautaFilter{CamaraID: f.camara, Limit: 500})
	if page.Total != 11 || page.Limit != maxPageLimit {
		t.Fatalf("super_admin com câmara: %+v", page)
	}
}

func TestUpdatePauta(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.openPauta(t, "Original")

	updated, err := f.pautas.Update(ctx, f.admin(), p.ID, PautaChanges{Titulo: "Editada", Descricao: "nova", Ordem: 3})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Titulo != "Editada" || updated.Ordem != 3 || updated.Status != StatusEmVotacao || updated.TipoVotacao != "Nominal" {
		t.Fatalf("update inesperado: %+v", updated)
	}

	var verr *ValidationError
	if _, err := f.pautas.Update(ctx, f.admin(), p.ID, PautaChanges{}); !errors.As(err, &verr) {
		t.Fatalf("update sem titulo: %v", err)
	}
}

func TestDeletePautaCascadesVotes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.openPauta(t, "Para remover")
	f.vote(t, f.vereadores[0], p.ID, "Sim")
	f.vote(t, f.vereadores[1], p.ID, "Não")

	if err := f.pautas.Delete(ctx, f.admin(), p.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := f.pautas.Get(ctx, f.admin(), p.ID); !errors.Is(err, ErrPautaNotFound) {
		t.Fatalf("pauta ainda existe: %v", err)
	}
	votos, _ := f.store.ListVotosByVereador(ctx, f.vereadores[0].ID)
	if len(votos) != 0 {
		t.Fatalf("votos órfãos: %+v", votos)
	}
	tally, _ := f.store.TallyPauta(ctx, p.ID)
	if tally.Total() != 0 {
		t.Fatalf("contagem órfã: %+v", tally)
	}
}

func TestFinalizeStoresLedgerSnapshot(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.openPauta(t, "Contagem")
	f.vote(t, f.vereadores[0], p.ID, "Sim")
	f.vote(t, f.vereadores[1], p.ID, "Sim")
	f.vote(t, f.vereadores[2], p.ID, "Abstenção")

	wrong := 99
	final, err := f.pautas.Finalize(ctx, f.admin(), p.ID, FinalizeInput{Resultado: "Aprovada", VotosSim: &wrong, VotosNao: &wrong})
	if err != nil {
		t.Fatalf("finalize: %v", err)
	}
	if final.VotosSim != 2 || final.VotosNao != 0 || final.Abstencoes != 1 {
		t.Fatalf("contagem gravada deve vir do livro: %+v", final)
	}
}

func TestFinalizeValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.openPauta(t, "Resultado")

	for _, raw := range []string{"", "Talvez"} {
		var verr *ValidationError
		if _, err := f.pautas.Finalize(ctx, f.admin(), p.ID, FinalizeInput{Resultado: raw}); !errors.As(err, &verr) {
			t.Fatalf("resultado %q: %v", raw, err)
		}
	}
	got, _ := f.pautas.Get(ctx, f.admin(), p.ID)
	if got.Status != StatusEmVotacao {
		t.Fatalf("validação alterou status: %s", got.Status)
	}
	if _, err := f.pautas.ChangeStatus(ctx, f.admin(), p.ID, "Arquivada"); err == nil {
		t.Fatalf("status desconhecido aceito")
	}
}

func TestChangeStatusFinalizadaUsesApuracao(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.openPauta(t, "Empate")
	f.vote(t, f.vereadores[0], p.ID, "Sim")
	f.vote(t, f.vereadores[1], p.ID, "Não")
	f.vote(t, f.presidente, p.ID, "Sim")

	final, err := f.pautas.ChangeStatus(ctx, f.admin(), p.ID, "Finalizada")
	if err != nil {
		t.Fatalf("finalizada: %v", err)
	}
	if final.Status != StatusAprovada || final.VotosSim != 2 || final.VotosNao != 1 {
		t.Fatalf("voto de minerva não aplicado: %+v", final)
	}
}
