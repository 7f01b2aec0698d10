package votacao

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Status é o estado de uma pauta. Transições só avançam:
// Pendente → Em Votação → {Aprovada, Rejeitada}.
type Status string

const (
	StatusPendente  Status = "Pendente"
	StatusEmVotacao Status = "Em Votação"
	StatusAprovada  Status = "Aprovada"
	StatusRejeitada Status = "Rejeitada"
)

// Terminal informa se a pauta já foi finalizada.
func (s Status) Terminal() bool {
	return s == StatusAprovada || s == StatusRejeitada
}

// Valid informa se o status pertence ao conjunto conhecido.
func (s Status) Valid() bool {
	switch s {
	case StatusPendente, StatusEmVotacao, StatusAprovada, StatusRejeitada:
		return true
	}
	return false
}

// ParseStatus aceita grafias com ou sem acento.
func ParseStatus(raw string) (Status, bool) {
	switch normalize(raw) {
	case "pendente":
		return StatusPendente, true
	case "em votacao", "emvotacao", "em_votacao":
		return StatusEmVotacao, true
	case "aprovada":
		return StatusAprovada, true
	case "rejeitada", "reprovada":
		return StatusRejeitada, true
	}
	return "", false
}

// Resultado é o desfecho gravado na finalização.
type Resultado string

const (
	ResultadoAprovada  Resultado = "Aprovada"
	ResultadoRejeitada Resultado = "Rejeitada"
)

// ParseResultado aceita também a grafia legada "Reprovada".
func ParseResultado(raw string) (Resultado, bool) {
	switch normalize(raw) {
	case "aprovada":
		return ResultadoAprovada, true
	case "rejeitada", "reprovada":
		return ResultadoRejeitada, true
	}
	return "", false
}

// Status devolve o status terminal correspondente.
func (r Resultado) Status() Status {
	if r == ResultadoAprovada {
		return StatusAprovada
	}
	return StatusRejeitada
}

// Valor é o conteúdo de um voto.
type Valor string

const (
	ValorSim       Valor = "Sim"
	ValorNao       Valor = "Não"
	ValorAbstencao Valor = "Abstenção"
)

// ParseValor aceita variações de caixa e acento vindas dos tablets.
func ParseValor(raw string) (Valor, bool) {
	switch normalize(raw) {
	case "sim":
		return ValorSim, true
	case "nao":
		return ValorNao, true
	case "abstencao":
		return ValorAbstencao, true
	}
	return "", false
}

var accents = strings.NewReplacer("ã", "a", "á", "a", "â", "a", "ç", "c", "é", "e", "ê", "e", "í", "i", "ó", "o", "õ", "o", "ú", "u")

func normalize(raw string) string {
	return accents.Replace(strings.ToLower(strings.TrimSpace(raw)))
}

// Pauta é um item de votação dentro de uma sessão.
type Pauta struct {
	ID           uuid.UUID  `json:"id"`
	SessaoID     uuid.UUID  `json:"sessao_id"`
	CamaraID     uuid.UUID  `json:"camara_id"`
	Titulo       string     `json:"titulo"`
	Descricao    string     `json:"descricao"`
	Autor        string     `json:"autor"`
	TipoVotacao  string     `json:"tipo_votacao"`
	Ordem        int        `json:"ordem"`
	Status       Status     `json:"status"`
	Resultado    *Resultado `json:"resultado_votacao"`
	VotosSim     int        `json:"votos_sim"`
	VotosNao     int        `json:"votos_nao"`
	Abstencoes   int        `json:"abstencoes"`
	CriadoEm     time.Time  `json:"created_at"`
	AtualizadoEm time.Time  `json:"updated_at"`
	FinalizadaEm *time.Time `json:"finalizada_em,omitempty"`
}

// Voto é a cédula de um vereador numa pauta. Existe no máximo um por (pauta, vereador).
type Voto struct {
	ID                uuid.UUID  `json:"id"`
	PautaID           uuid.UUID  `json:"pauta_id"`
	VereadorID        uuid.UUID  `json:"vereador_id"`
	Valor             Valor      `json:"voto"`
	EraPresidente     bool       `json:"era_presidente_no_voto"`
	EraVicePresidente bool       `json:"era_vice_presidente_no_voto"`
	PartidoID         *uuid.UUID `json:"partido_id_no_voto"`
	NomeParlamentar   string     `json:"nome_parlamentar,omitempty"`
	CriadoEm          time.Time  `json:"created_at"`
	AtualizadoEm      time.Time  `json:"updated_at"`
}

// VotoDoVereador acompanha o voto com dados da pauta para "meus votos".
type VotoDoVereador struct {
	Voto
	PautaTitulo string `json:"pauta_titulo"`
	PautaStatus Status `json:"pauta_status"`
}

// Tally é a contagem bruta do livro de votos de uma pauta.
type Tally struct {
	Sim            int
	Nao            int
	Abstencao      int
	VotoPresidente *Valor
}

// Total soma todos os votos registrados.
func (t Tally) Total() int {
	return t.Sim + t.Nao + t.Abstencao
}

func (t *Tally) add(v Voto) {
	switch v.Valor {
	case ValorSim:
		t.Sim++
	case ValorNao:
		t.Nao++
	case ValorAbstencao:
		t.Abstencao++
	}
	if v.EraPresidente {
		val := v.Valor
		t.VotoPresidente = &val
	}
}

// PautaFilter restringe a listagem de pautas.
type PautaFilter struct {
	CamaraID uuid.UUID
	SessaoID uuid.UUID
	Status   Status
	Search   string
	Page     int
	Limit    int
}

// PautaPage é uma página da listagem.
type PautaPage struct {
	Pautas []Pauta `json:"pautas"`
	Total  int     `json:"total"`
	Page   int     `json:"page"`
	Limit  int     `json:"limit"`
}

// PautaChanges são os campos editáveis de uma pauta.
type PautaChanges struct {
	Titulo      string
	Descricao   string
	Autor       string
	TipoVotacao string
	Ordem       int
}
