package auth

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/Jonsrn/PDSI-LegislaNet-MVP-sub001/internal/access"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func vereadorRC() access.RoleContext {
	camara, vereador := uuid.New(), uuid.New()
	return access.RoleContext{UserID: uuid.New(), Role: access.RoleVereador, CamaraID: &camara, VereadorID: &vereador}
}

func TestJWTRoundTrip(t *testing.T) {
	m := NewJWTManager(testSecret, time.Hour)
	rc := vereadorRC()

	issued, err := m.GenerateAccessToken(rc)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if issued.JTI == "" || !issued.ExpiresAt.After(issued.IssuedAt) {
		t.Fatalf("metadados do token: %+v", issued)
	}

	claims, err := m.ParseAndValidate(issued.Token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	got, err := claims.RoleContext()
	if err != nil {
		t.Fatalf("role context: %v", err)
	}
	if got.UserID != rc.UserID || got.Role != rc.Role || *got.CamaraID != *rc.CamaraID || *got.VereadorID != *rc.VereadorID {
		t.Fatalf("identidade divergente: %+v vs %+v", got, rc)
	}
}

func TestJWTRejectsInvalidTokens(t *testing.T) {
	m := NewJWTManager(testSecret, time.Hour)
	issued, _ := m.GenerateAccessToken(vereadorRC())

	expired, _ := NewJWTManager(testSecret, -time.Minute).GenerateAccessToken(vereadorRC())
	otherSecret, _ := NewJWTManager(strings.Repeat("x", 32), time.Hour).GenerateAccessToken(vereadorRC())

	for name, token := range map[string]string{
		"lixo":          "nao-e-um-jwt",
		"vazio":         "",
		"adulterado":    issued.Token + "x",
		"expirado":      expired.Token,
		"outro segredo": otherSecret.Token,
	} {
		if _, err := m.ParseAndValidate(token); err == nil {
			t.Errorf("%s: token aceito", name)
		}
	}
}

func TestClaimsRoleContextValidation(t *testing.T) {
	c := &Claims{Role: "vereador"}
	c.Subject = uuid.NewString()
	if _, err := c.RoleContext(); err == nil {
		t.Fatalf("vereador sem câmara aceito")
	}
	c.Role = "root"
	if _, err := c.RoleContext(); err == nil {
		t.Fatalf("papel desconhecido aceito")
	}
	c = &Claims{Role: "super_admin"}
	c.Subject = uuid.NewString()
	if _, err := c.RoleContext(); err != nil {
		t.Fatalf("super_admin: %v", err)
	}
}

func TestPasswordHash(t *testing.T) {
	hash, err := Hash("segredo-forte")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if ok, err := Verify("segredo-forte", hash); err != nil || !ok {
		t.Fatalf("verify correta: %v %v", ok, err)
	}
	if ok, _ := Verify("errada", hash); ok {
		t.Fatalf("senha errada aceita")
	}
	if _, err := Hash(""); err != ErrEmptyPassword {
		t.Fatalf("senha vazia: %v", err)
	}
}

func TestSessionStore(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	ctx := context.Background()
	store := NewSessionStore(client, time.Hour)
	user := uuid.New()
	old := time.Now().Add(-time.Minute)

	if ok, err := store.Valid(ctx, user, "jti-1", old); err != nil || !ok {
		t.Fatalf("sem sessão registrada o token vale: %v %v", ok, err)
	}

	if err := store.Start(ctx, user, time.Now()); err != nil {
		t.Fatalf("start: %v", err)
	}
	if ok, _ := store.Valid(ctx, user, "jti-1", old); ok {
		t.Fatalf("token anterior ao último login ainda vale")
	}
	if ok, _ := store.Valid(ctx, user, "jti-2", time.Now()); !ok {
		t.Fatalf("token do login atual deveria valer")
	}

	if err := store.Revoke(ctx, "jti-2", time.Now().Add(time.Hour)); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if ok, _ := store.Valid(ctx, user, "jti-2", time.Now()); ok {
		t.Fatalf("token revogado ainda vale")
	}
	if !mr.Exists(RevokedRedisKey("jti-2")) {
		t.Fatalf("chave de revogação ausente")
	}
	if err := store.Revoke(ctx, "jti-3", time.Now().Add(-time.Second)); err != nil || mr.Exists(RevokedRedisKey("jti-3")) {
		t.Fatalf("token já expirado não precisa de revogação: %v", err)
	}
}
