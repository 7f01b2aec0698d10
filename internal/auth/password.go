package auth

import (
	"errors"

	"github.com/alexedwards/argon2id"
)

var params = &argon2id.Params{
	Memory:      64 * 1024, // 64 MB
	Iterations:  3,
	Parallelism: 1,
	SaltLength:  16,
	KeyLength:   32,
}

// ErrEmptyPassword impede hash de senha vazia.
var ErrEmptyPassword = errors.New("senha vazia")

// dummyHash é comparado quando o e-mail não existe, para o tempo de resposta não revelar cadastros.
var dummyHash, _ = argon2id.CreateHash("legislanet-dummy", params)

// Hash gera um hash Argon2id (inclui os parâmetros dentro do próprio hash).
func Hash(password string) (string, error) {
	if password == "" {
		return "", ErrEmptyPassword
	}
	return argon2id.CreateHash(password, params)
}

// Verify compara a senha com o hash Argon2id (lendo parâmetros do próprio hash).
func Verify(password, encodedHash string) (bool, error) {
	return argon2id.ComparePasswordAndHash(password, encodedHash)
}

// VerifyDummy consome o mesmo tempo de um Verify real e sempre falha.
func VerifyDummy(password string) {
	_, _ = argon2id.ComparePasswordAndHash(password, dummyHash)
}
