// Package operations reads payment operations recorded by the back-office
// so statements can be reconciled against them. The core never writes here.
package operations

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/jask/cashledger/internal/ledger"
)

// Source lists the operations of an account dated in [start, end) that
// carry a movement number.
type Source interface {
	ForMatching(ctx context.Context, accountID string, start, end time.Time) ([]ledger.Operation, error)
}

// Memory is an in-process Source. It backs tests and deployments without an
// operations database.
type Memory struct {
	mu        sync.RWMutex
	byAccount map[string][]ledger.Operation
}

func NewMemory() *Memory {
	return &Memory{byAccount: make(map[string][]ledger.Operation)}
}

// Add records operations for accountID.
func (m *Memory) Add(accountID string, ops ...ledger.Operation) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byAccount[accountID] = append(m.byAccount[accountID], ops...)
}

func (m *Memory) ForMatching(_ context.Context, accountID string, start, end time.Time) ([]ledger.Operation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []ledger.Operation
	for _, op := range m.byAccount[accountID] {
		if strings.TrimSpace(op.MovementNumber) == "" {
			continue
		}
		if op.Date.Before(start) || !op.Date.Before(end) {
			continue
		}
		out = append(out, op)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}
