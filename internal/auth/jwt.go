package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/Jonsrn/PDSI-LegislaNet-MVP-sub001/internal/access"
)

// Audience fixa o destinatário dos tokens emitidos pela API.
const Audience = "legislanet"

// Claims representa as informações presentes em um JWT de acesso.
type Claims struct {
	Role       string `json:"role"`
	CamaraID   string `json:"camara_id,omitempty"`
	VereadorID string `json:"vereador_id,omitempty"`
	jwt.RegisteredClaims
}

// RoleContext reconstrói a identidade a partir das claims.
func (c *Claims) RoleContext() (access.RoleContext, error) {
	userID, err := uuid.Parse(c.Subject)
	if err != nil {
		return access.RoleContext{}, errors.New("subject inválido")
	}
	role, ok := access.ParseRole(c.Role)
	if !ok {
		return access.RoleContext{}, errors.New("papel desconhecido")
	}
	rc := access.RoleContext{UserID: userID, Role: role}
	if c.CamaraID != "" {
		id, err := uuid.Parse(c.CamaraID)
		if err != nil {
			return access.RoleContext{}, errors.New("camara_id inválido")
		}
		rc.CamaraID = &id
	}
	if c.VereadorID != "" {
		id, err := uuid.Parse(c.VereadorID)
		if err != nil {
			return access.RoleContext{}, errors.New("vereador_id inválido")
		}
		rc.VereadorID = &id
	}
	return rc, rc.Validate()
}

// JWTManager encapsula geração e validação de tokens.
type JWTManager struct {
	secret    []byte
	accessTTL time.Duration
	now       func() time.Time
}

// NewJWTManager cria o gerenciador com segredo e TTL configurados.
func NewJWTManager(secret string, accessTTL time.Duration) *JWTManager {
	return &JWTManager{secret: []byte(secret), accessTTL: accessTTL, now: func() time.Time { return time.Now().UTC() }}
}

// NewJWTManagerWithClock permite fixar o relógio usado em iat, exp e validação.
func NewJWTManagerWithClock(secret string, accessTTL time.Duration, now func() time.Time) *JWTManager {
	return &JWTManager{secret: []byte(secret), accessTTL: accessTTL, now: now}
}

// AccessTTL devolve a validade dos tokens emitidos.
func (m *JWTManager) AccessTTL() time.Duration {
	return m.accessTTL
}

// IssuedToken é um JWT assinado com seus metadados.
type IssuedToken struct {
	Token     string
	JTI       string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// GenerateAccessToken cria um JWT HS256 carregando papel, câmara e vereador.
func (m *JWTManager) GenerateAccessToken(rc access.RoleContext) (IssuedToken, error) {
	now := m.now().Truncate(time.Second)
	issued := IssuedToken{JTI: uuid.NewString(), IssuedAt: now, ExpiresAt: now.Add(m.accessTTL)}

	claims := Claims{
		Role: string(rc.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   rc.UserID.String(),
			Audience:  jwt.ClaimStrings{Audience},
			ExpiresAt: jwt.NewNumericDate(issued.ExpiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        issued.JTI,
		},
	}
	if rc.CamaraID != nil {
		claims.CamaraID = rc.CamaraID.String()
	}
	if rc.VereadorID != nil {
		claims.VereadorID = rc.VereadorID.String()
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return IssuedToken{}, err
	}
	issued.Token = signed
	return issued, nil
}

// ParseAndValidate verifica assinatura, audience e expiração.
func (m *JWTManager) ParseAndValidate(tokenString string) (*Claims, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithAudience(Audience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)

	token, err := parser.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return m.secret, nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("token inválido")
	}

	return claims, nil
}
