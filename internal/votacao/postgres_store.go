package votacao

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Jonsrn/PDSI-LegislaNet-MVP-sub001/internal/db"
	"github.com/Jonsrn/PDSI-LegislaNet-MVP-sub001/internal/repo"
)

const dbTimeout = 3 * time.Second

// PostgresStore implementa Store sobre pgx. Voto e finalização disputam a mesma linha
// de pauta: o voto a trava em modo compartilhado, a finalização em modo exclusivo.
type PostgresStore struct {
	pool    *pgxpool.Pool
	queries *repo.Queries
}

// NewPostgresStore cria a store sobre o pool informado.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool, queries: repo.New(pool)}
}

func (s *PostgresStore) GetSessao(ctx context.Context, id uuid.UUID) (repo.Sessao, error) {
	sessao, err := s.queries.GetSessao(ctx, id)
	if errors.Is(err, repo.ErrNotFound) {
		return repo.Sessao{}, ErrSessaoNotFound
	}
	return sessao, err
}

func (s *PostgresStore) GetVereador(ctx context.Context, id uuid.UUID) (repo.Vereador, error) {
	v, err := s.queries.GetVereador(ctx, id)
	if errors.Is(err, repo.ErrNotFound) {
		return repo.Vereador{}, ErrVereadorNotFound
	}
	return v, err
}

func (s *PostgresStore) CountVereadoresAtivos(ctx context.Context, camaraID uuid.UUID) (int, error) {
	return s.queries.CountVereadoresAtivos(ctx, camaraID)
}

const pautaSelect = `
	SELECT p.id, p.sessao_id, s.camara_id, p.titulo, p.descricao, p.autor, p.tipo_votacao, p.ordem,
	       p.status, p.resultado, p.votos_sim, p.votos_nao, p.abstencoes,
	       p.created_at, p.updated_at, p.finalizada_em
	FROM pautas p
	JOIN sessoes s ON s.id = p.sessao_id
`

func scanPauta(row pgx.Row) (Pauta, error) {
	var (
		p         Pauta
		status    string
		resultado *string
	)
	err := row.Scan(&p.ID, &p.SessaoID, &p.CamaraID, &p.Titulo, &p.Descricao, &p.Autor, &p.TipoVotacao, &p.Ordem,
		&status, &resultado, &p.VotosSim, &p.VotosNao, &p.Abstencoes,
		&p.CriadoEm, &p.AtualizadoEm, &p.FinalizadaEm)
	if errors.Is(err, pgx.ErrNoRows) {
		return Pauta{}, ErrPautaNotFound
	}
	if err != nil {
		return Pauta{}, err
	}
	p.Status = Status(status)
	if resultado != nil {
		r := Resultado(*resultado)
		p.Resultado = &r
	}
	return p, nil
}

func (s *PostgresStore) InsertPauta(ctx context.Context, p Pauta) error {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	_, err := s.pool.Exec(ctx, `
		INSERT INTO pautas (id, sessao_id, titulo, descricao, autor, tipo_votacao, ordem, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, p.ID, p.SessaoID, p.Titulo, p.Descricao, p.Autor, p.TipoVotacao, p.Ordem, string(p.Status))
	return err
}

func (s *PostgresStore) GetPauta(ctx context.Context, id uuid.UUID) (Pauta, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	return scanPauta(s.pool.QueryRow(ctx, pautaSelect+` WHERE p.id = $1`, id))
}

const pautaFilterClause = `
	WHERE ($1::uuid IS NULL OR s.camara_id = $1)
	  AND ($2::uuid IS NULL OR p.sessao_id = $2)
	  AND ($3 = '' OR p.status = $3)
	  AND ($4 = '' OR p.titulo ILIKE '%' || $4 || '%' OR p.descricao ILIKE '%' || $4 || '%')
`

func nullableID(id uuid.UUID) *uuid.UUID {
	if id == uuid.Nil {
		return nil
	}
	return &id
}

func (s *PostgresStore) ListPautas(ctx context.Context, f PautaFilter) ([]Pauta, int, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	args := []any{nullableID(f.CamaraID), nullableID(f.SessaoID), string(f.Status), f.Search}

	var total int
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM pautas p JOIN sessoes s ON s.id = p.sessao_id`+pautaFilterClause, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := s.pool.Query(ctx, pautaSelect+pautaFilterClause+`
		ORDER BY p.created_at DESC, p.id
		LIMIT $5 OFFSET $6
	`, append(args, f.Limit, (f.Page-1)*f.Limit)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	pautas := []Pauta{}
	for rows.Next() {
		p, err := scanPauta(rows)
		if err != nil {
			return nil, 0, err
		}
		pautas = append(pautas, p)
	}
	return pautas, total, rows.Err()
}

func (s *PostgresStore) UpdatePauta(ctx context.Context, id uuid.UUID, c PautaChanges) (Pauta, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	tag, err := s.pool.Exec(ctx, `
		UPDATE pautas
		SET titulo = $2, descricao = $3, autor = $4, tipo_votacao = $5, ordem = $6, updated_at = now()
		WHERE id = $1
	`, id, c.Titulo, c.Descricao, c.Autor, c.TipoVotacao, c.Ordem)
	if err != nil {
		return Pauta{}, err
	}
	if tag.RowsAffected() == 0 {
		return Pauta{}, ErrPautaNotFound
	}
	return scanPauta(s.pool.QueryRow(ctx, pautaSelect+` WHERE p.id = $1`, id))
}

// DeletePauta remove a pauta; os votos saem junto pelo ON DELETE CASCADE.
func (s *PostgresStore) DeletePauta(ctx context.Context, id uuid.UUID) error {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	tag, err := s.pool.Exec(ctx, `DELETE FROM pautas WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrPautaNotFound
	}
	return nil
}

func (s *PostgresStore) TransitionPauta(ctx context.Context, id uuid.UUID, from Status, fn TransitionFunc) (Pauta, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	var out Pauta
	err := db.WithTx(ctx, s.pool, func(ctx context.Context, tx pgx.Tx) error {
		p, err := scanPauta(tx.QueryRow(ctx, pautaSelect+` WHERE p.id = $1 FOR UPDATE OF p`, id))
		if err != nil {
			return err
		}
		if p.Status != from {
			return ErrInvalidTransition
		}
		t, err := tallyWith(ctx, tx, id)
		if err != nil {
			return err
		}
		next, err := fn(p, t)
		if err != nil {
			return err
		}

		var resultado *string
		if next.Resultado != nil {
			r := string(*next.Resultado)
			resultado = &r
		}
		err = tx.QueryRow(ctx, `
			UPDATE pautas
			SET status = $2, resultado = $3, votos_sim = $4, votos_nao = $5, abstencoes = $6,
			    finalizada_em = $7, updated_at = now()
			WHERE id = $1
			RETURNING updated_at
		`, id, string(next.Status), resultado, next.VotosSim, next.VotosNao, next.Abstencoes, next.FinalizadaEm).
			Scan(&next.AtualizadoEm)
		if err != nil {
			return err
		}
		out = next
		return nil
	})
	return out, err
}

func (s *PostgresStore) UpsertVoto(ctx context.Context, v Voto) (Voto, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	var created bool
	err := db.WithTx(ctx, s.pool, func(ctx context.Context, tx pgx.Tx) error {
		var status string
		err := tx.QueryRow(ctx, `SELECT status FROM pautas WHERE id = $1 FOR SHARE`, v.PautaID).Scan(&status)
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrPautaNotFound
		}
		if err != nil {
			return err
		}
		if Status(status) != StatusEmVotacao {
			return ErrInvalidState
		}

		return tx.QueryRow(ctx, `
			INSERT INTO votos (id, pauta_id, vereador_id, voto, era_presidente, era_vice_presidente, partido_id)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			ON CONFLICT (pauta_id, vereador_id) DO UPDATE
			SET voto = EXCLUDED.voto,
			    era_presidente = EXCLUDED.era_presidente,
			    era_vice_presidente = EXCLUDED.era_vice_presidente,
			    partido_id = EXCLUDED.partido_id,
			    updated_at = now()
			RETURNING id, created_at, updated_at, (xmax = 0)
		`, v.ID, v.PautaID, v.VereadorID, string(v.Valor), v.EraPresidente, v.EraVicePresidente, v.PartidoID).
			Scan(&v.ID, &v.CriadoEm, &v.AtualizadoEm, &created)
	})
	if err != nil {
		return Voto{}, false, err
	}
	return v, created, nil
}

const votoColumns = `v.id, v.pauta_id, v.vereador_id, v.voto, v.era_presidente, v.era_vice_presidente, v.partido_id,
	ver.nome_parlamentar, v.created_at, v.updated_at`

func scanVoto(row pgx.Row, extra ...any) (Voto, error) {
	var (
		v     Voto
		valor string
	)
	dest := append([]any{&v.ID, &v.PautaID, &v.VereadorID, &valor, &v.EraPresidente, &v.EraVicePresidente, &v.PartidoID,
		&v.NomeParlamentar, &v.CriadoEm, &v.AtualizadoEm}, extra...)
	if err := row.Scan(dest...); err != nil {
		return Voto{}, err
	}
	v.Valor = Valor(valor)
	return v, nil
}

func (s *PostgresStore) GetVoto(ctx context.Context, pautaID, vereadorID uuid.UUID) (Voto, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	v, err := scanVoto(s.pool.QueryRow(ctx, `
		SELECT `+votoColumns+`
		FROM votos v
		JOIN vereadores ver ON ver.id = v.vereador_id
		WHERE v.pauta_id = $1 AND v.vereador_id = $2
	`, pautaID, vereadorID))
	if errors.Is(err, pgx.ErrNoRows) {
		return Voto{}, ErrVotoNotFound
	}
	return v, err
}

func (s *PostgresStore) ListVotosByPauta(ctx context.Context, pautaID uuid.UUID) ([]Voto, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	rows, err := s.pool.Query(ctx, `
		SELECT `+votoColumns+`
		FROM votos v
		JOIN vereadores ver ON ver.id = v.vereador_id
		WHERE v.pauta_id = $1
		ORDER BY v.created_at
	`, pautaID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	votos := []Voto{}
	for rows.Next() {
		v, err := scanVoto(rows)
		if err != nil {
			return nil, err
		}
		votos = append(votos, v)
	}
	return votos, rows.Err()
}

func (s *PostgresStore) ListVotosByVereador(ctx context.Context, vereadorID uuid.UUID) ([]VotoDoVereador, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	rows, err := s.pool.Query(ctx, `
		SELECT `+votoColumns+`, p.titulo, p.status
		FROM votos v
		JOIN vereadores ver ON ver.id = v.vereador_id
		JOIN pautas p ON p.id = v.pauta_id
		WHERE v.vereador_id = $1
		ORDER BY v.created_at DESC
	`, vereadorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	votos := []VotoDoVereador{}
	for rows.Next() {
		var (
			titulo string
			status string
		)
		v, err := scanVoto(rows, &titulo, &status)
		if err != nil {
			return nil, err
		}
		votos = append(votos, VotoDoVereador{Voto: v, PautaTitulo: titulo, PautaStatus: Status(status)})
	}
	return votos, rows.Err()
}

func (s *PostgresStore) TallyPauta(ctx context.Context, pautaID uuid.UUID) (Tally, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	return tallyWith(ctx, s.pool, pautaID)
}

type rowQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func tallyWith(ctx context.Context, q rowQuerier, pautaID uuid.UUID) (Tally, error) {
	var (
		t          Tally
		presidente *string
	)
	err := q.QueryRow(ctx, `
		SELECT COUNT(*) FILTER (WHERE voto = 'Sim'),
		       COUNT(*) FILTER (WHERE voto = 'Não'),
		       COUNT(*) FILTER (WHERE voto = 'Abstenção'),
		       (SELECT voto FROM votos WHERE pauta_id = $1 AND era_presidente LIMIT 1)
		FROM votos
		WHERE pauta_id = $1
	`, pautaID).Scan(&t.Sim, &t.Nao, &t.Abstencao, &presidente)
	if err != nil {
		return Tally{}, err
	}
	if presidente != nil {
		v := Valor(*presidente)
		t.VotoPresidente = &v
	}
	return t, nil
}
