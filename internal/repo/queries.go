package repo

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const dbTimeout = 3 * time.Second

// Queries concentra o acesso aos cadastros simples (usuários, câmaras, partidos,
// vereadores e sessões).
type Queries struct {
	pool *pgxpool.Pool
}

// New cria Queries sobre o pool informado.
func New(pool *pgxpool.Pool) *Queries {
	return &Queries{pool: pool}
}

const usuarioColumns = `id, email, senha_hash, role, camara_id, vereador_id, ativo, created_at`

func scanUsuario(row pgx.Row) (Usuario, error) {
	var u Usuario
	err := row.Scan(&u.ID, &u.Email, &u.SenhaHash, &u.Role, &u.CamaraID, &u.VereadorID, &u.Ativo, &u.CriadoEm)
	if errors.Is(err, pgx.ErrNoRows) {
		return Usuario{}, ErrNotFound
	}
	return u, err
}

// GetUsuarioByEmail busca usuário pelo e-mail normalizado.
func (q *Queries) GetUsuarioByEmail(ctx context.Context, email string) (Usuario, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	row := q.pool.QueryRow(ctx, `SELECT `+usuarioColumns+` FROM usuarios WHERE email = $1`,
		strings.ToLower(strings.TrimSpace(email)))
	return scanUsuario(row)
}

// GetUsuarioByID busca usuário pelo identificador.
func (q *Queries) GetUsuarioByID(ctx context.Context, id uuid.UUID) (Usuario, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	row := q.pool.QueryRow(ctx, `SELECT `+usuarioColumns+` FROM usuarios WHERE id = $1`, id)
	return scanUsuario(row)
}

// GetCamara busca câmara pelo identificador.
func (q *Queries) GetCamara(ctx context.Context, id uuid.UUID) (Camara, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	var c Camara
	err := q.pool.QueryRow(ctx, `
		SELECT id, nome_camara, municipio, uf, site_url, facebook_url, instagram_url, youtube_url, created_at
		FROM camaras
		WHERE id = $1
	`, id).Scan(&c.ID, &c.NomeCamara, &c.Municipio, &c.UF, &c.SiteURL, &c.Facebook, &c.Instagram, &c.YouTube, &c.CriadoEm)
	if errors.Is(err, pgx.ErrNoRows) {
		return Camara{}, ErrNotFound
	}
	return c, err
}

const vereadorSelect = `
	SELECT v.id, v.camara_id, v.partido_id, p.sigla, v.nome_parlamentar, v.nome_completo, v.cargo,
	       v.is_presidente, v.is_vice_presidente, v.is_active, v.foto_url
	FROM vereadores v
	LEFT JOIN partidos p ON p.id = v.partido_id
`

func scanVereador(row pgx.Row) (Vereador, error) {
	var v Vereador
	err := row.Scan(&v.ID, &v.CamaraID, &v.PartidoID, &v.PartidoSigla, &v.NomeParlamentar, &v.NomeCompleto,
		&v.Cargo, &v.IsPresidente, &v.IsVicePresidente, &v.IsActive, &v.FotoURL)
	return v, err
}

// GetVereador busca vereador pelo identificador.
func (q *Queries) GetVereador(ctx context.Context, id uuid.UUID) (Vereador, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	v, err := scanVereador(q.pool.QueryRow(ctx, vereadorSelect+` WHERE v.id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Vereador{}, ErrNotFound
	}
	return v, err
}

// ListVereadoresByCamara lista vereadores da câmara ordenados pelo nome parlamentar.
func (q *Queries) ListVereadoresByCamara(ctx context.Context, camaraID uuid.UUID, somenteAtivos bool) ([]Vereador, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	rows, err := q.pool.Query(ctx, vereadorSelect+`
		WHERE v.camara_id = $1 AND (NOT $2::bool OR v.is_active)
		ORDER BY v.nome_parlamentar
	`, camaraID, somenteAtivos)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	vereadores := []Vereador{}
	for rows.Next() {
		v, err := scanVereador(rows)
		if err != nil {
			return nil, err
		}
		vereadores = append(vereadores, v)
	}
	return vereadores, rows.Err()
}

// CountVereadoresAtivos conta vereadores ativos da câmara: o colégio de eleitores.
func (q *Queries) CountVereadoresAtivos(ctx context.Context, camaraID uuid.UUID) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	var n int
	err := q.pool.QueryRow(ctx, `SELECT COUNT(*) FROM vereadores WHERE camara_id = $1 AND is_active`, camaraID).Scan(&n)
	return n, err
}

const sessaoColumns = `id, camara_id, nome, tipo, data_sessao, hora_inicio, numero_sessao`

func scanSessao(row pgx.Row) (Sessao, error) {
	var s Sessao
	err := row.Scan(&s.ID, &s.CamaraID, &s.Nome, &s.Tipo, &s.DataSessao, &s.HoraInicio, &s.NumeroSessao)
	return s, err
}

// GetSessao busca sessão pelo identificador.
func (q *Queries) GetSessao(ctx context.Context, id uuid.UUID) (Sessao, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	s, err := scanSessao(q.pool.QueryRow(ctx, `SELECT `+sessaoColumns+` FROM sessoes WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Sessao{}, ErrNotFound
	}
	return s, err
}

// ListSessoesByCamara lista sessões da câmara, mais recentes primeiro.
func (q *Queries) ListSessoesByCamara(ctx context.Context, camaraID uuid.UUID) ([]Sessao, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	rows, err := q.pool.Query(ctx, `
		SELECT `+sessaoColumns+`
		FROM sessoes
		WHERE camara_id = $1
		ORDER BY data_sessao DESC, numero_sessao DESC
	`, camaraID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sessoes := []Sessao{}
	for rows.Next() {
		s, err := scanSessao(rows)
		if err != nil {
			return nil, err
		}
		sessoes = append(sessoes, s)
	}
	return sessoes, rows.Err()
}

// UpsertCamara grava câmara mantendo o identificador informado.
func (q *Queries) UpsertCamara(ctx context.Context, c Camara) error {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	_, err := q.pool.Exec(ctx, `
		INSERT INTO camaras (id, nome_camara, municipio, uf, site_url, facebook_url, instagram_url, youtube_url)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE
		SET nome_camara = EXCLUDED.nome_camara,
		    municipio = EXCLUDED.municipio,
		    uf = EXCLUDED.uf,
		    site_url = EXCLUDED.site_url,
		    facebook_url = EXCLUDED.facebook_url,
		    instagram_url = EXCLUDED.instagram_url,
		    youtube_url = EXCLUDED.youtube_url
	`, c.ID, c.NomeCamara, c.Municipio, c.UF, c.SiteURL, c.Facebook, c.Instagram, c.YouTube)
	return err
}

// UpsertPartido grava partido. Sigla é única em todo o sistema.
func (q *Queries) UpsertPartido(ctx context.Context, p Partido) error {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	_, err := q.pool.Exec(ctx, `
		INSERT INTO partidos (id, sigla, nome, numero, logo_url)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE
		SET sigla = EXCLUDED.sigla, nome = EXCLUDED.nome, numero = EXCLUDED.numero, logo_url = EXCLUDED.logo_url
	`, p.ID, strings.ToUpper(strings.TrimSpace(p.Sigla)), p.Nome, p.Numero, p.LogoURL)
	return mapConflict(err)
}

// UpsertVereador grava vereador.
func (q *Queries) UpsertVereador(ctx context.Context, v Vereador) error {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	_, err := q.pool.Exec(ctx, `
		INSERT INTO vereadores (id, camara_id, partido_id, nome_parlamentar, nome_completo, cargo,
		                        is_presidente, is_vice_presidente, is_active, foto_url)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO UPDATE
		SET camara_id = EXCLUDED.camara_id,
		    partido_id = EXCLUDED.partido_id,
		    nome_parlamentar = EXCLUDED.nome_parlamentar,
		    nome_completo = EXCLUDED.nome_completo,
		    cargo = EXCLUDED.cargo,
		    is_presidente = EXCLUDED.is_presidente,
		    is_vice_presidente = EXCLUDED.is_vice_presidente,
		    is_active = EXCLUDED.is_active,
		    foto_url = EXCLUDED.foto_url
	`, v.ID, v.CamaraID, v.PartidoID, v.NomeParlamentar, v.NomeCompleto, v.Cargo,
		v.IsPresidente, v.IsVicePresidente, v.IsActive, v.FotoURL)
	return err
}

// UpsertSessao grava sessão legislativa.
func (q *Queries) UpsertSessao(ctx context.Context, s Sessao) error {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	_, err := q.pool.Exec(ctx, `
		INSERT INTO sessoes (id, camara_id, nome, tipo, data_sessao, hora_inicio, numero_sessao)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE
		SET nome = EXCLUDED.nome, tipo = EXCLUDED.tipo, data_sessao = EXCLUDED.data_sessao,
		    hora_inicio = EXCLUDED.hora_inicio, numero_sessao = EXCLUDED.numero_sessao
	`, s.ID, s.CamaraID, s.Nome, s.Tipo, s.DataSessao, s.HoraInicio, s.NumeroSessao)
	return err
}

// UpsertUsuario grava credencial; e-mail é único.
func (q *Queries) UpsertUsuario(ctx context.Context, u Usuario) error {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	_, err := q.pool.Exec(ctx, `
		INSERT INTO usuarios (id, email, senha_hash, role, camara_id, vereador_id, ativo)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE
		SET email = EXCLUDED.email, senha_hash = EXCLUDED.senha_hash, role = EXCLUDED.role,
		    camara_id = EXCLUDED.camara_id, vereador_id = EXCLUDED.vereador_id, ativo = EXCLUDED.ativo
	`, u.ID, strings.ToLower(strings.TrimSpace(u.Email)), u.SenhaHash, u.Role, u.CamaraID, u.VereadorID, u.Ativo)
	return mapConflict(err)
}

func mapConflict(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrConflict
	}
	return err
}
