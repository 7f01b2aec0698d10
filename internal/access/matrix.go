package access

// Operation identifica uma ação protegida. O conjunto é fechado: toda operação nova
// precisa de uma linha em policies, o que é verificado nos testes.
type Operation int

const (
	OpGerenciarCamaras Operation = iota
	OpGerenciarPartidos
	OpGerenciarVereadores
	OpListarVereadoresPublico
	OpListarVereadores
	OpLerPerfil
	OpListarSessoes
	OpListarPautas
	OpLerPauta
	OpGerenciarPautas
	OpLerEstatisticas
	OpAcompanharVotacao
	OpVotar
	OpLerMeuVoto
	OpLerMeusVotos
	OpLerVotosDaPauta

	numOperations
)

// Decision é o resultado do Authorize.
type Decision bool

const (
	Deny  Decision = false
	Allow Decision = true
)

type policy struct {
	name string
	// public dispensa autenticação e isolamento de câmara.
	public bool
	roles  map[Role]bool
}

func allow(roles ...Role) map[Role]bool {
	m := make(map[Role]bool, len(roles))
	for _, r := range roles {
		m[r] = true
	}
	return m
}

var policies = [numOperations]policy{
	OpGerenciarCamaras:        {name: "gerenciar_camaras", roles: allow(RoleSuperAdmin)},
	OpGerenciarPartidos:       {name: "gerenciar_partidos", roles: allow(RoleSuperAdmin)},
	OpGerenciarVereadores:     {name: "gerenciar_vereadores", roles: allow(RoleSuperAdmin)},
	OpListarVereadoresPublico: {name: "listar_vereadores_publico", public: true},
	OpListarVereadores:        {name: "listar_vereadores", roles: allow(RoleSuperAdmin, RoleAdminCamara, RoleTV, RoleVereador)},
	OpLerPerfil:               {name: "ler_perfil", roles: allow(RoleSuperAdmin, RoleAdminCamara, RoleTV, RoleVereador)},
	OpListarSessoes:           {name: "listar_sessoes", roles: allow(RoleSuperAdmin, RoleAdminCamara, RoleTV, RoleVereador)},
	OpListarPautas:            {name: "listar_pautas", roles: allow(RoleSuperAdmin, RoleAdminCamara, RoleVereador)},
	OpLerPauta:                {name: "ler_pauta", roles: allow(RoleSuperAdmin, RoleAdminCamara, RoleTV, RoleVereador)},
	OpGerenciarPautas:         {name: "gerenciar_pautas", roles: allow(RoleAdminCamara)},
	OpLerEstatisticas:         {name: "ler_estatisticas", roles: allow(RoleSuperAdmin, RoleAdminCamara, RoleTV, RoleVereador)},
	OpAcompanharVotacao:       {name: "acompanhar_votacao", roles: allow(RoleSuperAdmin, RoleAdminCamara, RoleTV, RoleVereador)},
	OpVotar:                   {name: "votar", roles: allow(RoleVereador)},
	OpLerMeuVoto:              {name: "ler_meu_voto", roles: allow(RoleVereador)},
	OpLerMeusVotos:            {name: "ler_meus_votos", roles: allow(RoleVereador)},
	OpLerVotosDaPauta:         {name: "ler_votos_da_pauta", roles: allow(RoleSuperAdmin, RoleAdminCamara, RoleTV)},
}

// Operations lista todas as operações conhecidas.
func Operations() []Operation {
	ops := make([]Operation, 0, numOperations)
	for op := Operation(0); op < numOperations; op++ {
		ops = append(ops, op)
	}
	return ops
}

func (op Operation) String() string {
	if op < 0 || op >= numOperations {
		return "operacao_desconhecida"
	}
	return policies[op].name
}

// Public informa se a operação dispensa autenticação.
func (op Operation) Public() bool {
	return op >= 0 && op < numOperations && policies[op].public
}

// Mutating informa se a operação altera estado. Papel tv nunca recebe operações mutáveis.
func (op Operation) Mutating() bool {
	switch op {
	case OpGerenciarCamaras, OpGerenciarPartidos, OpGerenciarVereadores, OpGerenciarPautas, OpVotar:
		return true
	}
	return false
}

// Authorize consulta a matriz (papel, operação). Operações públicas liberam qualquer papel.
func Authorize(role Role, op Operation) Decision {
	if op < 0 || op >= numOperations {
		return Deny
	}
	p := policies[op]
	if p.public {
		return Allow
	}
	return Decision(p.roles[role])
}
