package votacao

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Jonsrn/PDSI-LegislaNet-MVP-sub001/internal/repo"
)

type votoKey struct {
	pauta    uuid.UUID
	vereador uuid.UUID
}

// MemoryStore mantém pautas e votos em memória. Um único mutex cobre todos os mapas,
// então checagem de status e gravação acontecem sem intercalação.
type MemoryStore struct {
	mu         sync.RWMutex
	sessoes    map[uuid.UUID]repo.Sessao
	vereadores map[uuid.UUID]repo.Vereador
	pautas     map[uuid.UUID]Pauta
	votos      map[votoKey]Voto
	now        func() time.Time
}

// NewMemoryStore cria store vazia.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessoes:    make(map[uuid.UUID]repo.Sessao),
		vereadores: make(map[uuid.UUID]repo.Vereador),
		pautas:     make(map[uuid.UUID]Pauta),
		votos:      make(map[votoKey]Voto),
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// AddSessao registra sessão conhecida.
func (m *MemoryStore) AddSessao(s repo.Sessao) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessoes[s.ID] = s
}

// AddVereador registra vereador conhecido.
func (m *MemoryStore) AddVereador(v repo.Vereador) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.vereadores[v.ID] = v
}

func (m *MemoryStore) GetSessao(_ context.Context, id uuid.UUID) (repo.Sessao, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessoes[id]
	if !ok {
		return repo.Sessao{}, ErrSessaoNotFound
	}
	return s, nil
}

func (m *MemoryStore) GetVereador(_ context.Context, id uuid.UUID) (repo.Vereador, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.vereadores[id]
	if !ok {
		return repo.Vereador{}, ErrVereadorNotFound
	}
	return v, nil
}

func (m *MemoryStore) CountVereadoresAtivos(_ context.Context, camaraID uuid.UUID) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, v := range m.vereadores {
		if v.CamaraID == camaraID && v.IsActive {
			n++
		}
	}
	return n, nil
}

func (m *MemoryStore) InsertPauta(_ context.Context, p Pauta) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessoes[p.SessaoID]; !ok {
		return ErrSessaoNotFound
	}
	if _, ok := m.pautas[p.ID]; ok {
		return repo.ErrConflict
	}
	now := m.now()
	p.CriadoEm, p.AtualizadoEm = now, now
	m.pautas[p.ID] = p
	return nil
}

func (m *MemoryStore) GetPauta(_ context.Context, id uuid.UUID) (Pauta, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.pautas[id]
	if !ok {
		return Pauta{}, ErrPautaNotFound
	}
	return p, nil
}

func (m *MemoryStore) ListPautas(_ context.Context, f PautaFilter) ([]Pauta, int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	search := strings.ToLower(strings.TrimSpace(f.Search))
	matched := make([]Pauta, 0)
	for _, p := range m.pautas {
		if f.CamaraID != uuid.Nil && p.CamaraID != f.CamaraID {
			continue
		}
		if f.SessaoID != uuid.Nil && p.SessaoID != f.SessaoID {
			continue
		}
		if f.Status != "" && p.Status != f.Status {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(p.Titulo), search) &&
			!strings.Contains(strings.ToLower(p.Descricao), search) {
			continue
		}
		matched = append(matched, p)
	}
	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CriadoEm.Equal(matched[j].CriadoEm) {
			return matched[i].CriadoEm.After(matched[j].CriadoEm)
		}
		return matched[i].ID.String() < matched[j].ID.String()
	})

	total := len(matched)
	start := (f.Page - 1) * f.Limit
	if start >= total {
		return []Pauta{}, total, nil
	}
	end := start + f.Limit
	if end > total {
		end = total
	}
	return matched[start:end], total, nil
}

func (m *MemoryStore) UpdatePauta(_ context.Context, id uuid.UUID, c PautaChanges) (Pauta, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.pautas[id]
	if !ok {
		return Pauta{}, ErrPautaNotFound
	}
	p.Titulo, p.Descricao, p.Autor, p.TipoVotacao, p.Ordem = c.Titulo, c.Descricao, c.Autor, c.TipoVotacao, c.Ordem
	p.AtualizadoEm = m.now()
	m.pautas[id] = p
	return p, nil
}

func (m *MemoryStore) DeletePauta(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.pautas[id]; !ok {
		return ErrPautaNotFound
	}
	delete(m.pautas, id)
	for k := range m.votos {
		if k.pauta == id {
			delete(m.votos, k)
		}
	}
	return nil
}

func (m *MemoryStore) TransitionPauta(_ context.Context, id uuid.UUID, from Status, fn TransitionFunc) (Pauta, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.pautas[id]
	if !ok {
		return Pauta{}, ErrPautaNotFound
	}
	if p.Status != from {
		return Pauta{}, ErrInvalidTransition
	}
	next, err := fn(p, m.tallyLocked(id))
	if err != nil {
		return Pauta{}, err
	}
	next.AtualizadoEm = m.now()
	m.pautas[id] = next
	return next, nil
}

func (m *MemoryStore) UpsertVoto(_ context.Context, v Voto) (Voto, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.pautas[v.PautaID]
	if !ok {
		return Voto{}, false, ErrPautaNotFound
	}
	if p.Status != StatusEmVotacao {
		return Voto{}, false, ErrInvalidState
	}

	now := m.now()
	key := votoKey{pauta: v.PautaID, vereador: v.VereadorID}
	existing, found := m.votos[key]
	if found {
		v.ID = existing.ID
		v.CriadoEm = existing.CriadoEm
	} else {
		if v.ID == uuid.Nil {
			v.ID = uuid.New()
		}
		v.CriadoEm = now
	}
	v.AtualizadoEm = now
	m.votos[key] = v
	return v, !found, nil
}

func (m *MemoryStore) GetVoto(_ context.Context, pautaID, vereadorID uuid.UUID) (Voto, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.votos[votoKey{pauta: pautaID, vereador: vereadorID}]
	if !ok {
		return Voto{}, ErrVotoNotFound
	}
	return v, nil
}

func (m *MemoryStore) ListVotosByPauta(_ context.Context, pautaID uuid.UUID) ([]Voto, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	votos := make([]Voto, 0)
	for k, v := range m.votos {
		if k.pauta != pautaID {
			continue
		}
		if ver, ok := m.vereadores[v.VereadorID]; ok {
			v.NomeParlamentar = ver.NomeParlamentar
		}
		votos = append(votos, v)
	}
	sort.Slice(votos, func(i, j int) bool { return votos[i].CriadoEm.Before(votos[j].CriadoEm) })
	return votos, nil
}

func (m *MemoryStore) ListVotosByVereador(_ context.Context, vereadorID uuid.UUID) ([]VotoDoVereador, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	votos := make([]VotoDoVereador, 0)
	for k, v := range m.votos {
		if k.vereador != vereadorID {
			continue
		}
		p := m.pautas[k.pauta]
		votos = append(votos, VotoDoVereador{Voto: v, PautaTitulo: p.Titulo, PautaStatus: p.Status})
	}
	sort.Slice(votos, func(i, j int) bool { return votos[i].CriadoEm.After(votos[j].CriadoEm) })
	return votos, nil
}

func (m *MemoryStore) TallyPauta(_ context.Context, pautaID uuid.UUID) (Tally, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.tallyLocked(pautaID), nil
}

func (m *MemoryStore) tallyLocked(pautaID uuid.UUID) Tally {
	var t Tally
	for k, v := range m.votos {
		if k.pauta == pautaID {
			t.add(v)
		}
	}
	return t
}
