package access

import (
	"errors"
	"strings"

	"github.com/google/uuid"
)

var (
	// ErrUnauthenticated cobre token ausente, malformado, expirado ou revogado.
	ErrUnauthenticated = errors.New("não autenticado")
	// ErrForbidden indica papel sem permissão ou câmara diferente.
	ErrForbidden = errors.New("acesso negado")
)

// Role é o conjunto fechado de papéis aceitos pela API.
type Role string

const (
	RoleSuperAdmin  Role = "super_admin"
	RoleAdminCamara Role = "admin_camara"
	RoleTV          Role = "tv"
	RoleVereador    Role = "vereador"
)

// Roles lista todos os papéis conhecidos.
var Roles = []Role{RoleSuperAdmin, RoleAdminCamara, RoleTV, RoleVereador}

// ParseRole converte texto livre em Role. Papéis desconhecidos são rejeitados.
func ParseRole(raw string) (Role, bool) {
	switch Role(strings.ToLower(strings.TrimSpace(raw))) {
	case RoleSuperAdmin:
		return RoleSuperAdmin, true
	case RoleAdminCamara:
		return RoleAdminCamara, true
	case RoleTV:
		return RoleTV, true
	case RoleVereador:
		return RoleVereador, true
	}
	return "", false
}

// RoleContext é a identidade resolvida de quem faz a requisição.
type RoleContext struct {
	UserID     uuid.UUID  `json:"user_id"`
	Role       Role       `json:"role"`
	CamaraID   *uuid.UUID `json:"camara_id"`
	VereadorID *uuid.UUID `json:"vereador_id,omitempty"`
}

// Validate garante a forma do contexto para cada papel.
func (rc RoleContext) Validate() error {
	if rc.UserID == uuid.Nil {
		return ErrUnauthenticated
	}
	switch rc.Role {
	case RoleSuperAdmin:
		return nil
	case RoleAdminCamara, RoleTV:
		if rc.CamaraID == nil {
			return ErrUnauthenticated
		}
		return nil
	case RoleVereador:
		if rc.CamaraID == nil || rc.VereadorID == nil {
			return ErrUnauthenticated
		}
		return nil
	}
	return ErrUnauthenticated
}

// Camara devolve a câmara do contexto ou uuid.Nil para super_admin.
func (rc RoleContext) Camara() uuid.UUID {
	if rc.CamaraID == nil {
		return uuid.Nil
	}
	return *rc.CamaraID
}

// Vereador devolve o vereador do contexto ou uuid.Nil.
func (rc RoleContext) Vereador() uuid.UUID {
	if rc.VereadorID == nil {
		return uuid.Nil
	}
	return *rc.VereadorID
}
