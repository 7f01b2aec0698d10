package votacao

import (
	"context"

	"github.com/google/uuid"

	"github.com/Jonsrn/PDSI-LegislaNet-MVP-sub001/internal/repo"
)

// TransitionFunc recebe a pauta travada e a contagem do livro de votos no mesmo
// instante e devolve a pauta com o novo status.
type TransitionFunc func(p Pauta, t Tally) (Pauta, error)

// Store persiste pautas e votos. As operações que combinam leitura de status com
// escrita (UpsertVoto e TransitionPauta) são atômicas: um voto nunca é gravado em
// pauta já finalizada e a finalização enxerga uma contagem consistente.
type Store interface {
	GetSessao(ctx context.Context, id uuid.UUID) (repo.Sessao, error)
	GetVereador(ctx context.Context, id uuid.UUID) (repo.Vereador, error)
	CountVereadoresAtivos(ctx context.Context, camaraID uuid.UUID) (int, error)

	InsertPauta(ctx context.Context, p Pauta) error
	GetPauta(ctx context.Context, id uuid.UUID) (Pauta, error)
	ListPautas(ctx context.Context, f PautaFilter) ([]Pauta, int, error)
	UpdatePauta(ctx context.Context, id uuid.UUID, c PautaChanges) (Pauta, error)
	DeletePauta(ctx context.Context, id uuid.UUID) error

	// TransitionPauta trava a pauta, exige que o status atual seja from e grava o
	// resultado de fn. Status diferente devolve ErrInvalidTransition.
	TransitionPauta(ctx context.Context, id uuid.UUID, from Status, fn TransitionFunc) (Pauta, error)

	// UpsertVoto grava ou substitui o voto do vereador. Devolve created=true no primeiro
	// voto. Pauta fora de votação devolve ErrInvalidState.
	UpsertVoto(ctx context.Context, v Voto) (saved Voto, created bool, err error)
	GetVoto(ctx context.Context, pautaID, vereadorID uuid.UUID) (Voto, error)
	ListVotosByPauta(ctx context.Context, pautaID uuid.UUID) ([]Voto, error)
	ListVotosByVereador(ctx context.Context, vereadorID uuid.UUID) ([]VotoDoVereador, error)
	TallyPauta(ctx context.Context, pautaID uuid.UUID) (Tally, error)
}
