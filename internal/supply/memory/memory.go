// Package memory is an in-process entity supplier. It backs tests and the
// default backend when no external store is configured.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"finboard/internal/core"
)

type Store struct {
	mu    sync.Mutex
	data  map[string]*core.Snapshot
	fails map[string]error
}

func New() *Store {
	return &Store{
		data:  make(map[string]*core.Snapshot),
		fails: make(map[string]error),
	}
}

// NewSeeded builds a store preloaded with the given snapshots.
func NewSeeded(snaps ...*core.Snapshot) *Store {
	s := New()
	for _, snap := range snaps {
		s.Put(snap)
	}
	return s
}

// Put replaces the stored snapshot for its workspace.
func (s *Store) Put(snap *core.Snapshot) {
	if snap == nil || snap.WorkspaceID == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[snap.WorkspaceID] = snap
	delete(s.fails, snap.WorkspaceID)
}

// AddExpense appends one expense to its workspace, creating the workspace
// when absent.
func (s *Store) AddExpense(workspaceID string, e core.Expense) error {
	if e.WorkspaceID == "" {
		e.WorkspaceID = workspaceID
	}
	if err := e.Validate(); err != nil {
		return fmt.Errorf("add expense: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := s.data[workspaceID]
	if snap == nil {
		snap = &core.Snapshot{WorkspaceID: workspaceID}
		s.data[workspaceID] = snap
	}
	snap.Expenses = append(snap.Expenses, e)
	return nil
}

// FailWith makes Snapshot return err for the given workspace. Used in tests
// to exercise partial-scope degradation.
func (s *Store) FailWith(workspaceID string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fails[workspaceID] = err
}

// Snapshot returns a normalized copy of the workspace's data. An unknown
// workspace yields an empty snapshot, not an error.
func (s *Store) Snapshot(_ context.Context, workspaceID string) (*core.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.fails[workspaceID]; err != nil {
		return nil, err
	}

	src := s.data[workspaceID]
	if src == nil {
		return (&core.Snapshot{WorkspaceID: workspaceID}).Normalize(), nil
	}

	out := &core.Snapshot{
		WorkspaceID: src.WorkspaceID,
		Expenses:    append([]core.Expense(nil), src.Expenses...),
		Budgets:     append([]core.Budget(nil), src.Budgets...),
		CostCenters: append([]core.CostCenter(nil), src.CostCenters...),
		Projects:    append([]core.Project(nil), src.Projects...),
		Tasks:       append([]core.Task(nil), src.Tasks...),
		Invoices:    append([]core.Invoice(nil), src.Invoices...),
	}
	return out.Normalize(), nil
}

// Workspaces lists known workspace ids in sorted order.
func (s *Store) Workspaces(_ context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.data))
	for id := range s.data {
		out = append(out, id)
	}
	sort.Strings(out)
	return out, nil
}
