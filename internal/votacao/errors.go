package votacao

import "errors"

var (
	ErrPautaNotFound    = errors.New("pauta não encontrada")
	ErrSessaoNotFound   = errors.New("sessão não encontrada")
	ErrVereadorNotFound = errors.New("vereador não encontrado")
	ErrVotoNotFound     = errors.New("vereador ainda não votou nesta pauta")

	// ErrInvalidTransition indica mudança de status não permitida a partir do status atual.
	ErrInvalidTransition = errors.New("transição de status inválida")
	// ErrInvalidState indica voto em pauta que não está em votação.
	ErrInvalidState = errors.New("esta pauta não está em votação")
	// ErrNotEligible indica vereador inativo tentando votar.
	ErrNotEligible = errors.New("vereador não habilitado a votar")
)

// ValidationError descreve campo obrigatório ausente ou malformado.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func invalid(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}
