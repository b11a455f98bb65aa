package testutils

import (
	"context"
	"strings"
	"sync"

	"github.com/ahrav/go-tribunal/internal/domain"
	"github.com/ahrav/go-tribunal/internal/ports"
)

// MemStore is an in-memory ports.DocumentStore for tests that do not want
// a bbolt file on disk.
type MemStore struct {
	mu     sync.RWMutex
	judges map[string]domain.JudgeSpec
	panels map[string]domain.PanelSpec
}

var _ ports.DocumentStore = (*MemStore)(nil)

// NewMemStore creates an empty in-memory document store.
func NewMemStore() *MemStore {
	return &MemStore{
		judges: make(map[string]domain.JudgeSpec),
		panels: make(map[string]domain.PanelSpec),
	}
}

// GetJudge implements ports.JudgeStore.
func (s *MemStore) GetJudge(ctx context.Context, id string) (domain.JudgeSpec, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	spec, ok := s.judges[id]
	if !ok {
		return domain.JudgeSpec{}, ports.ErrNotFound
	}
	return spec, nil
}

// PutJudge implements ports.JudgeStore.
func (s *MemStore) PutJudge(ctx context.Context, spec domain.JudgeSpec) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.judges[spec.ID] = spec
	return nil
}

// DeleteJudge implements ports.JudgeStore.
func (s *MemStore) DeleteJudge(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.judges[id]; !ok {
		return ports.ErrNotFound
	}
	delete(s.judges, id)
	return nil
}

// ListJudges implements ports.JudgeStore with substring name matching.
func (s *MemStore) ListJudges(ctx context.Context, nameFilter string) ([]domain.JudgeSpec, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.JudgeSpec
	for _, spec := range s.judges {
		if nameFilter == "" || strings.Contains(strings.ToLower(spec.Name), strings.ToLower(nameFilter)) {
			out = append(out, spec)
		}
	}
	return out, nil
}

// GetPanel implements ports.PanelStore.
func (s *MemStore) GetPanel(ctx context.Context, id string) (domain.PanelSpec, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	spec, ok := s.panels[id]
	if !ok {
		return domain.PanelSpec{}, ports.ErrNotFound
	}
	return spec, nil
}

// PutPanel implements ports.PanelStore.
func (s *MemStore) PutPanel(ctx context.Context, spec domain.PanelSpec) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.panels[spec.ID] = spec
	return nil
}

// DeletePanel implements ports.PanelStore.
func (s *MemStore) DeletePanel(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.panels[id]; !ok {
		return ports.ErrNotFound
	}
	delete(s.panels, id)
	return nil
}

// ListPanels implements ports.PanelStore with role label matching.
func (s *MemStore) ListPanels(ctx context.Context, roleFilter string) ([]domain.PanelSpec, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.PanelSpec
	for _, spec := range s.panels {
		if roleFilter == "" || hasRole(spec.Roles, roleFilter) {
			out = append(out, spec)
		}
	}
	return out, nil
}

// Close implements ports.DocumentStore.
func (s *MemStore) Close() error { return nil }

func hasRole(roles []string, role string) bool {
	for _, r := range roles {
		if strings.EqualFold(r, role) {
			return true
		}
	}
	return false
}
