// Package seed carrega cadastros iniciais (câmaras, partidos, vereadores, sessões e usuários)
// de um arquivo YAML.
package seed

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"github.com/Jonsrn/PDSI-LegislaNet-MVP-sub001/internal/access"
	"github.com/Jonsrn/PDSI-LegislaNet-MVP-sub001/internal/auth"
	"github.com/Jonsrn/PDSI-LegislaNet-MVP-sub001/internal/repo"
	"github.com/Jonsrn/PDSI-LegislaNet-MVP-sub001/internal/util"
)

// File espelha o formato do arquivo de seed.
type File struct {
	Camaras    []Camara   `yaml:"camaras"`
	Partidos   []Partido  `yaml:"partidos"`
	Vereadores []Vereador `yaml:"vereadores"`
	Sessoes    []Sessao   `yaml:"sessoes"`
	Usuarios   []Usuario  `yaml:"usuarios"`
}

type Camara struct {
	ID         uuid.UUID `yaml:"id"`
	NomeCamara string    `yaml:"nome_camara"`
	Municipio  string    `yaml:"municipio"`
	UF         string    `yaml:"uf"`
	SiteURL    string    `yaml:"site_url"`
}

type Partido struct {
	ID     uuid.UUID `yaml:"id"`
	Sigla  string    `yaml:"sigla"`
	Nome   string    `yaml:"nome"`
	Numero int       `yaml:"numero"`
}

// Vereador referencia o partido pela sigla.
type Vereador struct {
	ID               uuid.UUID `yaml:"id"`
	CamaraID         uuid.UUID `yaml:"camara_id"`
	Partido          string    `yaml:"partido"`
	NomeParlamentar  string    `yaml:"nome_parlamentar"`
	NomeCompleto     string    `yaml:"nome_completo"`
	Cargo            string    `yaml:"cargo"`
	IsPresidente     bool      `yaml:"is_presidente"`
	IsVicePresidente bool      `yaml:"is_vice_presidente"`
	Inativo          bool      `yaml:"inativo"`
}

// Sessao usa data no formato AAAA-MM-DD.
type Sessao struct {
	ID           uuid.UUID `yaml:"id"`
	CamaraID     uuid.UUID `yaml:"camara_id"`
	Nome         string    `yaml:"nome"`
	Tipo         string    `yaml:"tipo"`
	Data         string    `yaml:"data"`
	HoraInicio   string    `yaml:"hora_inicio"`
	NumeroSessao int       `yaml:"numero_sessao"`
}

// Usuario traz a senha em claro; ela é convertida em hash Argon2id antes de gravar.
type Usuario struct {
	ID         uuid.UUID  `yaml:"id"`
	Email      string     `yaml:"email"`
	Senha      string     `yaml:"senha"`
	Role       string     `yaml:"role"`
	CamaraID   *uuid.UUID `yaml:"camara_id"`
	VereadorID *uuid.UUID `yaml:"vereador_id"`
	Inativo    bool       `yaml:"inativo"`
}

// Writer grava os registros; repo.Queries satisfaz.
type Writer interface {
	UpsertCamara(ctx context.Context, c repo.Camara) error
	UpsertPartido(ctx context.Context, p repo.Partido) error
	UpsertVereador(ctx context.Context, v repo.Vereador) error
	UpsertSessao(ctx context.Context, s repo.Sessao) error
	UpsertUsuario(ctx context.Context, u repo.Usuario) error
}

// Load lê e valida o arquivo.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("ler seed: %w", err)
	}
	return Parse(data)
}

// Parse decodifica e valida o conteúdo YAML.
func Parse(data []byte) (*File, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("interpretar seed: %w", err)
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

// Validate confere identificadores e referências entre seções.
func (f *File) Validate() error {
	var errs []error
	camaras := map[uuid.UUID]bool{}
	for i, c := range f.Camaras {
		if c.ID == uuid.Nil || strings.TrimSpace(c.NomeCamara) == "" {
			errs = append(errs, fmt.Errorf("camaras[%d]: id e nome_camara são obrigatórios", i))
		}
		camaras[c.ID] = true
	}

	siglas := map[string]bool{}
	for i, p := range f.Partidos {
		sigla := strings.ToUpper(strings.TrimSpace(p.Sigla))
		if p.ID == uuid.Nil || sigla == "" {
			errs = append(errs, fmt.Errorf("partidos[%d]: id e sigla são obrigatórios", i))
		}
		if siglas[sigla] {
			errs = append(errs, fmt.Errorf("partidos[%d]: sigla %s repetida", i, sigla))
		}
		siglas[sigla] = true
	}

	vereadores := map[uuid.UUID]uuid.UUID{}
	presidentes := map[uuid.UUID]int{}
	for i, v := range f.Vereadores {
		if v.ID == uuid.Nil || strings.TrimSpace(v.NomeParlamentar) == "" {
			errs = append(errs, fmt.Errorf("vereadores[%d]: id e nome_parlamentar são obrigatórios", i))
		}
		if !camaras[v.CamaraID] {
			errs = append(errs, fmt.Errorf("vereadores[%d]: camara_id desconhecida", i))
		}
		if v.Partido != "" && !siglas[strings.ToUpper(strings.TrimSpace(v.Partido))] {
			errs = append(errs, fmt.Errorf("vereadores[%d]: partido %s desconhecido", i, v.Partido))
		}
		if v.IsPresidente && !v.Inativo {
			presidentes[v.CamaraID]++
		}
		vereadores[v.ID] = v.CamaraID
	}
	for camara, n := range presidentes {
		if n > 1 {
			errs = append(errs, fmt.Errorf("câmara %s com %d presidentes ativos", camara, n))
		}
	}

	for i, s := range f.Sessoes {
		if s.ID == uuid.Nil || !camaras[s.CamaraID] {
			errs = append(errs, fmt.Errorf("sessoes[%d]: id e camara_id válidos são obrigatórios", i))
		}
		if _, err := time.Parse(time.DateOnly, s.Data); err != nil {
			errs = append(errs, fmt.Errorf("sessoes[%d]: data deve estar no formato AAAA-MM-DD", i))
		}
	}

	for i, u := range f.Usuarios {
		if u.ID == uuid.Nil || strings.TrimSpace(u.Email) == "" || u.Senha == "" {
			errs = append(errs, fmt.Errorf("usuarios[%d]: id, email e senha são obrigatórios", i))
			continue
		}
		if err := util.ValidateEmail(u.Email); err != nil {
			errs = append(errs, fmt.Errorf("usuarios[%d]: %w", i, err))
		}
		if err := util.ValidateSenha(u.Senha); err != nil {
			errs = append(errs, fmt.Errorf("usuarios[%d]: %w", i, err))
		}
		role, ok := access.ParseRole(u.Role)
		if !ok {
			errs = append(errs, fmt.Errorf("usuarios[%d]: papel %q desconhecido", i, u.Role))
			continue
		}
		rc := access.RoleContext{UserID: u.ID, Role: role, CamaraID: u.CamaraID, VereadorID: u.VereadorID}
		if err := rc.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("usuarios[%d]: papel %s exige camara_id (e vereador_id para vereador)", i, role))
			continue
		}
		if u.CamaraID != nil && !camaras[*u.CamaraID] {
			errs = append(errs, fmt.Errorf("usuarios[%d]: camara_id desconhecida", i))
		}
		if u.VereadorID != nil {
			camara, ok := vereadores[*u.VereadorID]
			if !ok || u.CamaraID == nil || camara != *u.CamaraID {
				errs = append(errs, fmt.Errorf("usuarios[%d]: vereador_id não pertence à câmara", i))
			}
		}
	}
	return errors.Join(errs...)
}

// Apply grava tudo na ordem das dependências. Reaplicar o mesmo arquivo é idempotente.
func Apply(ctx context.Context, w Writer, f *File) error {
	for _, c := range f.Camaras {
		if err := w.UpsertCamara(ctx, repo.Camara{
			ID: c.ID, NomeCamara: c.NomeCamara, Municipio: c.Municipio, UF: strings.ToUpper(c.UF), SiteURL: optional(c.SiteURL),
		}); err != nil {
			return fmt.Errorf("câmara %s: %w", c.NomeCamara, err)
		}
	}

	partidos := make(map[string]uuid.UUID, len(f.Partidos))
	for _, p := range f.Partidos {
		sigla := strings.ToUpper(strings.TrimSpace(p.Sigla))
		if err := w.UpsertPartido(ctx, repo.Partido{ID: p.ID, Sigla: sigla, Nome: p.Nome, Numero: p.Numero}); err != nil {
			return fmt.Errorf("partido %s: %w", sigla, err)
		}
		partidos[sigla] = p.ID
	}

	for _, v := range f.Vereadores {
		rec := repo.Vereador{
			ID:               v.ID,
			CamaraID:         v.CamaraID,
			NomeParlamentar:  v.NomeParlamentar,
			NomeCompleto:     v.NomeCompleto,
			Cargo:            v.Cargo,
			IsPresidente:     v.IsPresidente,
			IsVicePresidente: v.IsVicePresidente,
			IsActive:         !v.Inativo,
		}
		if id, ok := partidos[strings.ToUpper(strings.TrimSpace(v.Partido))]; ok {
			rec.PartidoID = &id
		}
		if err := w.UpsertVereador(ctx, rec); err != nil {
			return fmt.Errorf("vereador %s: %w", v.NomeParlamentar, err)
		}
	}

	for _, s := range f.Sessoes {
		data, _ := time.Parse(time.DateOnly, s.Data)
		if err := w.UpsertSessao(ctx, repo.Sessao{
			ID: s.ID, CamaraID: s.CamaraID, Nome: s.Nome, Tipo: s.Tipo, DataSessao: data, HoraInicio: s.HoraInicio, NumeroSessao: s.NumeroSessao,
		}); err != nil {
			return fmt.Errorf("sessão %s: %w", s.Nome, err)
		}
	}

	for _, u := range f.Usuarios {
		hash, err := auth.Hash(u.Senha)
		if err != nil {
			return fmt.Errorf("usuário %s: %w", u.Email, err)
		}
		role, _ := access.ParseRole(u.Role)
		if err := w.UpsertUsuario(ctx, repo.Usuario{
			ID: u.ID, Email: u.Email, SenhaHash: hash, Role: string(role),
			CamaraID: u.CamaraID, VereadorID: u.VereadorID, Ativo: !u.Inativo,
		}); err != nil {
			return fmt.Errorf("usuário %s: %w", u.Email, err)
		}
	}

	log.Info().
		Int("camaras", len(f.Camaras)).
		Int("partidos", len(f.Partidos)).
		Int("vereadores", len(f.Vereadores)).
		Int("sessoes", len(f.Sessoes)).
		Int("usuarios", len(f.Usuarios)).
		Msg("seed aplicado")
	return nil
}

func optional(s string) *string {
	if s = strings.TrimSpace(s); s == "" {
		return nil
	}
	return &s
}
