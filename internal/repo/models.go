package repo

import (
	"time"

	"github.com/google/uuid"
)

// Usuario representa uma credencial de acesso ao sistema.
type Usuario struct {
	ID         uuid.UUID
	Email      string
	SenhaHash  string
	Role       string
	CamaraID   *uuid.UUID
	VereadorID *uuid.UUID
	Ativo      bool
	CriadoEm   time.Time
}

// Camara representa o tenant: uma câmara municipal.
type Camara struct {
	ID         uuid.UUID `json:"id"`
	NomeCamara string    `json:"nome_camara"`
	Municipio  string    `json:"municipio"`
	UF         string    `json:"uf"`
	SiteURL    *string   `json:"site_url,omitempty"`
	Facebook   *string   `json:"facebook_url,omitempty"`
	Instagram  *string   `json:"instagram_url,omitempty"`
	YouTube    *string   `json:"youtube_url,omitempty"`
	CriadoEm   time.Time `json:"created_at"`
}

// Partido representa partido político referenciado por vereadores.
type Partido struct {
	ID      uuid.UUID `json:"id"`
	Sigla   string    `json:"sigla"`
	Nome    string    `json:"nome"`
	Numero  int       `json:"numero"`
	LogoURL *string   `json:"logo_url,omitempty"`
}

// Vereador representa parlamentar e eleitor das pautas da sua câmara.
type Vereador struct {
	ID               uuid.UUID  `json:"id"`
	CamaraID         uuid.UUID  `json:"camara_id"`
	PartidoID        *uuid.UUID `json:"partido_id"`
	PartidoSigla     *string    `json:"partido_sigla,omitempty"`
	NomeParlamentar  string     `json:"nome_parlamentar"`
	NomeCompleto     string     `json:"nome_completo"`
	Cargo            string     `json:"cargo"`
	IsPresidente     bool       `json:"is_presidente"`
	IsVicePresidente bool       `json:"is_vice_presidente"`
	IsActive         bool       `json:"is_active"`
	FotoURL          *string    `json:"foto_url,omitempty"`
}

// Sessao representa sessão legislativa que agrupa pautas.
type Sessao struct {
	ID           uuid.UUID `json:"id"`
	CamaraID     uuid.UUID `json:"camara_id"`
	Nome         string    `json:"nome"`
	Tipo         string    `json:"tipo"`
	DataSessao   time.Time `json:"data_sessao"`
	HoraInicio   string    `json:"hora_inicio"`
	NumeroSessao int       `json:"numero_sessao"`
}
