package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/Jonsrn/PDSI-LegislaNet-MVP-sub001/internal/access"
	"github.com/Jonsrn/PDSI-LegislaNet-MVP-sub001/internal/auth"
	"github.com/Jonsrn/PDSI-LegislaNet-MVP-sub001/internal/repo"
)

var (
	// ErrMissingCredentials indica e-mail ou senha ausentes no login.
	ErrMissingCredentials = errors.New("email e senha são obrigatórios")
	// ErrInvalidCredentials indica falha na autenticação.
	ErrInvalidCredentials = errors.New("credenciais inválidas")
	// ErrAccountDisabled indica conta desativada.
	ErrAccountDisabled = errors.New("conta desativada")
)

type authRepository interface {
	GetUsuarioByEmail(ctx context.Context, email string) (repo.Usuario, error)
	GetUsuarioByID(ctx context.Context, id uuid.UUID) (repo.Usuario, error)
	GetCamara(ctx context.Context, id uuid.UUID) (repo.Camara, error)
	GetVereador(ctx context.Context, id uuid.UUID) (repo.Vereador, error)
}

type sessionStore interface {
	Start(ctx context.Context, userID uuid.UUID, issuedAt time.Time) error
	Revoke(ctx context.Context, jti string, expiresAt time.Time) error
	Valid(ctx context.Context, userID uuid.UUID, jti string, issuedAt time.Time) (bool, error)
}

// AuthService emite e resolve credenciais. Todo o resto da API consome só o RoleContext.
type AuthService struct {
	repo     authRepository
	sessions sessionStore
	jwt      *auth.JWTManager
}

// NewAuthService cria novo serviço.
func NewAuthService(r *repo.Queries, sessions *auth.SessionStore, jwtMgr *auth.JWTManager) *AuthService {
	return &AuthService{repo: r, sessions: sessions, jwt: jwtMgr}
}

// Profile descreve o usuário autenticado.
type Profile struct {
	ID         uuid.UUID      `json:"id"`
	Email      string         `json:"email"`
	Role       access.Role    `json:"role"`
	CamaraID   *uuid.UUID     `json:"camara_id"`
	VereadorID *uuid.UUID     `json:"vereador_id,omitempty"`
	Camara     *repo.Camara   `json:"camara,omitempty"`
	Vereador   *repo.Vereador `json:"vereador,omitempty"`
}

// LoginResult representa retorno do login.
type LoginResult struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	User      Profile   `json:"user"`
}

// Login autentica por e-mail e senha. Um login novo encerra as sessões anteriores do usuário.
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, ErrMissingCredentials
	}

	user, err := s.repo.GetUsuarioByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			auth.VerifyDummy(password)
			log.Warn().Msg("login: usuário não encontrado")
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	ok, err := auth.Verify(password, user.SenhaHash)
	if err != nil {
		log.Warn().Err(err).Msg("login: verify password failed")
		return nil, ErrInvalidCredentials
	}
	if !ok {
		log.Warn().Str("user_id", user.ID.String()).Msg("login: senha inválida")
		return nil, ErrInvalidCredentials
	}
	if !user.Ativo {
		return nil, ErrAccountDisabled
	}

	rc, err := roleContextOf(user)
	if err != nil {
		log.Error().Err(err).Str("user_id", user.ID.String()).Msg("login: cadastro com papel inconsistente")
		return nil, ErrInvalidCredentials
	}

	issued, err := s.jwt.GenerateAccessToken(rc)
	if err != nil {
		return nil, err
	}
	if err := s.sessions.Start(ctx, user.ID, issued.IssuedAt); err != nil {
		return nil, fmt.Errorf("registrar sessão: %w", err)
	}

	log.Info().Str("user_id", user.ID.String()).Str("role", string(rc.Role)).Msg("login")
	return &LoginResult{Token: issued.Token, ExpiresAt: issued.ExpiresAt, User: s.profile(ctx, user, rc)}, nil
}

// Resolve converte o bearer token em RoleContext. Token ausente, malformado, expirado,
// revogado ou substituído por login mais novo resultam todos em access.ErrUnauthenticated.
func (s *AuthService) Resolve(ctx context.Context, token string) (access.RoleContext, error) {
	claims, err := s.jwt.ParseAndValidate(token)
	if err != nil {
		return access.RoleContext{}, access.ErrUnauthenticated
	}
	rc, err := claims.RoleContext()
	if err != nil {
		return access.RoleContext{}, access.ErrUnauthenticated
	}
	if claims.IssuedAt == nil {
		return access.RoleContext{}, access.ErrUnauthenticated
	}

	valid, err := s.sessions.Valid(ctx, rc.UserID, claims.ID, claims.IssuedAt.Time)
	if err != nil {
		return access.RoleContext{}, fmt.Errorf("validar sessão: %w", err)
	}
	if !valid {
		return access.RoleContext{}, access.ErrUnauthenticated
	}
	return rc, nil
}

// Logout revoga o token informado até sua expiração.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	claims, err := s.jwt.ParseAndValidate(token)
	if err != nil {
		return access.ErrUnauthenticated
	}
	if claims.ExpiresAt == nil {
		return access.ErrUnauthenticated
	}
	return s.sessions.Revoke(ctx, claims.ID, claims.ExpiresAt.Time)
}

// Me devolve o perfil de quem está autenticado.
func (s *AuthService) Me(ctx context.Context, rc *access.RoleContext) (Profile, error) {
	if err := access.Guard(rc, access.OpLerPerfil, uuid.Nil); err != nil {
		return Profile{}, err
	}
	user, err := s.repo.GetUsuarioByID(ctx, rc.UserID)
	if errors.Is(err, repo.ErrNotFound) {
		return Profile{}, access.ErrUnauthenticated
	}
	if err != nil {
		return Profile{}, err
	}
	return s.profile(ctx, user, *rc), nil
}

func (s *AuthService) profile(ctx context.Context, user repo.Usuario, rc access.RoleContext) Profile {
	p := Profile{ID: user.ID, Email: user.Email, Role: rc.Role, CamaraID: rc.CamaraID, VereadorID: rc.VereadorID}
	if rc.CamaraID != nil {
		if c, err := s.repo.GetCamara(ctx, *rc.CamaraID); err == nil {
			p.Camara = &c
		}
	}
	if rc.VereadorID != nil {
		if v, err := s.repo.GetVereador(ctx, *rc.VereadorID); err == nil {
			p.Vereador = &v
		}
	}
	return p
}

func roleContextOf(user repo.Usuario) (access.RoleContext, error) {
	role, ok := access.ParseRole(user.Role)
	if !ok {
		return access.RoleContext{}, fmt.Errorf("papel desconhecido %q", user.Role)
	}
	rc := access.RoleContext{UserID: user.ID, Role: role, CamaraID: user.CamaraID, VereadorID: user.VereadorID}
	if role == access.RoleSuperAdmin {
		rc.CamaraID, rc.VereadorID = nil, nil
	}
	if role != access.RoleVereador {
		rc.VereadorID = nil
	}
	return rc, rc.Validate()
}
