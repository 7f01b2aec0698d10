package util

import (
	"errors"
	"net/mail"
	"strings"
)

// MinSenha é o tamanho mínimo aceito para senhas cadastradas.
const MinSenha = 8

// ValidateEmail rejeita e-mail vazio ou fora do formato de endereço simples.
func ValidateEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return errors.New("email obrigatório")
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return errors.New("email inválido")
	}
	return nil
}

// ValidateSenha verifica requisitos mínimos de senha.
func ValidateSenha(senha string) error {
	if len([]rune(senha)) < MinSenha {
		return errors.New("senha deve ter pelo menos 8 caracteres")
	}
	return nil
}
