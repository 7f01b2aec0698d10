package votacao

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

func TestStatisticsZeroVotes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.createPauta(t, "Sem votos")

	est, err := f.stats.Statistics(ctx, f.admin(), p.ID)
	if err != nil {
		t.Fatalf("statistics: %v", err)
	}
	if est.Sim != 0 || est.Nao != 0 || est.Abstencao != 0 || est.Total != 0 {
		t.Fatalf("esperado tudo zero: %+v", est)
	}
	if est.PercentualSim != 0 || est.PercentualNao != 0 || est.PercentualAbstencao != 0 {
		t.Fatalf("percentuais sem votos: %+v", est)
	}
	if est.Eleitores != 4 || est.Ausentes != 4 || est.Congelada {
		t.Fatalf("eleitores/ausentes: %+v", est)
	}
}

func TestStatisticsCountsLatestVotePerVoter(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.openPauta(t, "Contagem")

	f.vote(t, f.vereadores[0], p.ID, "Não")
	f.vote(t, f.vereadores[0], p.ID, "Sim")
	f.vote(t, f.vereadores[1], p.ID, "Sim")
	f.vote(t, f.vereadores[2], p.ID, "Abstenção")
	f.vote(t, f.presidente, p.ID, "Não")
	f.vote(t, f.vereadores[2], p.ID, "Abstenção")

	est, err := f.stats.Statistics(ctx, f.tv(), p.ID)
	if err != nil {
		t.Fatalf("statistics: %v", err)
	}
	if est.Sim != 2 || est.Nao != 1 || est.Abstencao != 1 || est.Total != 4 {
		t.Fatalf("contagem: %+v", est)
	}
	if est.PercentualSim != 50 || est.PercentualNao != 25 || est.Ausentes != 0 {
		t.Fatalf("percentuais: %+v", est)
	}
	if est.VotoPresidente == nil || *est.VotoPresidente != ValorNao {
		t.Fatalf("voto do presidente: %v", est.VotoPresidente)
	}
}

func TestStatisticsNotFoundAndAccess(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.stats.Statistics(ctx, f.admin(), uuid.New()); !errors.Is(err, ErrPautaNotFound) {
		t.Fatalf("pauta desconhecida: %v", err)
	}
	p := f.createPauta(t, "Acesso")
	if _, err := f.stats.Statistics(ctx, vereadorCtx(f.vereadores[0]), p.ID); err != nil {
		t.Fatalf("vereador lê estatísticas: %v", err)
	}
	if _, err := f.stats.Statistics(ctx, vereadorCtx(f.estrangeiro), p.ID); err == nil {
		t.Fatalf("vereador de outra câmara leu estatísticas")
	}
}

func TestStatisticsFrozenAfterFinalizeIsCached(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	f := newFixture(t)
	f.stats = NewAggregator(f.store, client, time.Minute)
	f.pautas = NewPautaService(f.store, f.stats, f.events)
	ctx := context.Background()

	p := f.openPauta(t, "Congelada")
	f.vote(t, f.vereadores[0], p.ID, "Sim")
	f.vote(t, f.vereadores[1], p.ID, "Não")
	f.vote(t, f.presidente, p.ID, "Sim")

	live, err := f.stats.Statistics(ctx, f.admin(), p.ID)
	if err != nil || live.Congelada {
		t.Fatalf("estatística ao vivo: %+v %v", live, err)
	}
	if mr.Exists(statsKey(p.ID)) {
		t.Fatalf("pauta em votação não deve ir para o cache")
	}

	final, err := f.pautas.ChangeStatus(ctx, f.admin(), p.ID, "Finalizada")
	if err != nil {
		t.Fatalf("finalizar: %v", err)
	}

	est, err := f.stats.Statistics(ctx, f.admin(), p.ID)
	if err != nil {
		t.Fatalf("statistics: %v", err)
	}
	if !est.Congelada || est.Sim != final.VotosSim || est.Nao != final.VotosNao || est.Abstencao != final.Abstencoes {
		t.Fatalf("estatística congelada difere do instantâneo: %+v vs %+v", est, final)
	}
	if !mr.Exists(statsKey(p.ID)) {
		t.Fatalf("estatística final deveria estar em cache")
	}
	if ttl := mr.TTL(statsKey(p.ID)); ttl <= 0 || ttl > time.Minute {
		t.Fatalf("ttl inesperado: %v", ttl)
	}

	if err := f.pautas.Delete(ctx, f.admin(), p.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if mr.Exists(statsKey(p.ID)) {
		t.Fatalf("remoção deve invalidar o cache")
	}
}

func TestApurar(t *testing.T) {
	sim, nao, abst := ValorSim, ValorNao, ValorAbstencao
	tests := []struct {
		name string
		t    Tally
		want Resultado
	}{
		{"maioria sim", Tally{Sim: 3, Nao: 1}, ResultadoAprovada},
		{"maioria não", Tally{Sim: 1, Nao: 2}, ResultadoRejeitada},
		{"abstenções não contam", Tally{Sim: 1, Abstencao: 5}, ResultadoAprovada},
		{"empate sem presidente", Tally{Sim: 2, Nao: 2}, ResultadoRejeitada},
		{"empate presidente sim", Tally{Sim: 3, Nao: 2, VotoPresidente: &sim}, ResultadoAprovada},
		{"empate presidente não", Tally{Sim: 2, Nao: 3, VotoPresidente: &nao}, ResultadoRejeitada},
		{"empate presidente abstém", Tally{Sim: 2, Nao: 2, Abstencao: 1, VotoPresidente: &abst}, ResultadoRejeitada},
		{"presidente não vira maioria", Tally{Sim: 2, Nao: 2, VotoPresidente: &nao}, ResultadoAprovada},
		{"sem votos", Tally{}, ResultadoRejeitada},
	}
	for _, tc := range tests {
		if got := Apurar(tc.t); got.Resultado != tc.want {
			t.Errorf("%s: esperado %s, obtido %s (%s)", tc.name, tc.want, got.Resultado, got.Motivo)
		}
	}
}

func TestApuracaoReadOnly(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.openPauta(t, "Sugestão")
	f.vote(t, f.vereadores[0], p.ID, "Sim")

	a, err := f.stats.Apuracao(ctx, f.admin(), p.ID)
	if err != nil || a.Resultado != ResultadoAprovada {
		t.Fatalf("apuração: %+v %v", a, err)
	}
	got, _ := f.pautas.Get(ctx, f.admin(), p.ID)
	if got.Status != StatusEmVotacao {
		t.Fatalf("apuração não pode alterar a pauta: %s", got.Status)
	}
}
