package auth

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RevokedRedisKey monta a chave da lista de tokens revogados.
func RevokedRedisKey(jti string) string {
	return fmt.Sprintf("sessao:revogado:%s", jti)
}

// MinIssuedAtRedisKey monta a chave do menor iat aceito para o usuário.
func MinIssuedAtRedisKey(userID uuid.UUID) string {
	return fmt.Sprintf("sessao:min_iat:%s", userID)
}

// SessionStore guarda no Redis o estado que o JWT não carrega: revogação por logout e
// sessão única por usuário (um login novo invalida tokens emitidos antes dele).
type SessionStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewSessionStore cria a store; ttl deve ser a validade dos tokens de acesso.
func NewSessionStore(client *redis.Client, ttl time.Duration) *SessionStore {
	return &SessionStore{client: client, ttl: ttl}
}

// Start registra um novo login: tokens com iat anterior deixam de valer.
func (s *SessionStore) Start(ctx context.Context, userID uuid.UUID, issuedAt time.Time) error {
	return s.client.Set(ctx, MinIssuedAtRedisKey(userID), issuedAt.Unix(), s.ttl).Err()
}

// Revoke invalida um token específico até sua expiração natural.
func (s *SessionStore) Revoke(ctx context.Context, jti string, expiresAt time.Time) error {
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return nil
	}
	return s.client.Set(ctx, RevokedRedisKey(jti), 1, ttl).Err()
}

// Valid informa se o token ainda vale: não revogado e emitido depois do último login.
func (s *SessionStore) Valid(ctx context.Context, userID uuid.UUID, jti string, issuedAt time.Time) (bool, error) {
	n, err := s.client.Exists(ctx, RevokedRedisKey(jti)).Result()
	if err != nil {
		return false, err
	}
	if n > 0 {
		return false, nil
	}

	raw, err := s.client.Get(ctx, MinIssuedAtRedisKey(userID)).Result()
	if errors.Is(err, redis.Nil) {
		return true, nil
	}
	if err != nil {
		return false, err
	}
	minIat, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return false, err
	}
	return issuedAt.Unix() >= minIat, nil
}
