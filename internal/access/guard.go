package access

import (
	"context"

	"github.com/google/uuid"
)

// Guard aplica matriz de papéis e isolamento de câmara para uma operação.
//
// rc nil significa requisição anônima: só operações públicas passam. ownerCamara é a
// câmara dona do recurso; uuid.Nil quando a operação não é escopada (listagens do
// próprio contexto ou cadastros globais).
func Guard(rc *RoleContext, op Operation, ownerCamara uuid.UUID) error {
	if op.Public() {
		return nil
	}
	if rc == nil {
		return ErrUnauthenticated
	}
	if err := rc.Validate(); err != nil {
		return err
	}
	if Authorize(rc.Role, op) == Deny {
		return ErrForbidden
	}
	return CheckCamara(*rc, ownerCamara)
}

// CheckCamara compara a câmara do contexto com a dona do recurso. super_admin não é escopado.
func CheckCamara(rc RoleContext, ownerCamara uuid.UUID) error {
	if rc.Role == RoleSuperAdmin || ownerCamara == uuid.Nil {
		return nil
	}
	if rc.CamaraID == nil || *rc.CamaraID != ownerCamara {
		return ErrForbidden
	}
	return nil
}

// ScopeCamara escolhe a câmara de uma listagem: a do contexto, ou a pedida pelo super_admin.
func ScopeCamara(rc RoleContext, requested uuid.UUID) (uuid.UUID, error) {
	if rc.Role == RoleSuperAdmin {
		return requested, nil
	}
	if requested != uuid.Nil && requested != rc.Camara() {
		return uuid.Nil, ErrForbidden
	}
	return rc.Camara(), nil
}

type ctxKey struct{}

// WithRoleContext injeta a identidade resolvida no contexto da requisição.
func WithRoleContext(ctx context.Context, rc RoleContext) context.Context {
	return context.WithValue(ctx, ctxKey{}, rc)
}

// FromContext recupera a identidade; nil para requisições anônimas.
func FromContext(ctx context.Context) *RoleContext {
	rc, ok := ctx.Value(ctxKey{}).(RoleContext)
	if !ok {
		return nil
	}
	return &rc
}
