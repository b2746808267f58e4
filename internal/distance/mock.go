package distance

import (
	"context"
	"fmt"
	"sync"

	"github.com/ukydev/fleet-emissions/internal/models"
)

// Mock returns fixed distances keyed by location names and counts calls.
type Mock struct {
	mu     sync.Mutex
	km     map[string]float64
	Source string
	Calls  int
}

// NewMock creates a mock provider from "from|to" → km pairs.
func NewMock(pairs map[string]float64) *Mock {
	return &Mock{km: pairs, Source: models.SourceOther}
}

// Distance implements Provider.
func (m *Mock) Distance(ctx context.Context, from, to models.Location) (Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls++

	km, ok := m.km[from.Name+"|"+to.Name]
	if !ok {
		return Result{}, fmt.Errorf("missing pair %q -> %q: %w", from.Name, to.Name, ErrNoRoute)
	}
	return Result{Km: km, Source: m.Source}, nil
}
