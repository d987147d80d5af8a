package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"finboard/internal/analytics"
	"finboard/internal/core"
	"finboard/internal/supply"
	"finboard/internal/supply/memory"
)

var serviceNow = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

func newTestService(store *memory.Store) *AnalyticsService {
	svc := NewAnalyticsService(store, nil, DefaultAnalyticsServiceConfig())
	svc.now = func() time.Time { return serviceNow }
	return svc
}

func testWindow() core.TimeWindow {
	return core.TimeWindow{From: serviceNow.AddDate(0, -1, 0), To: serviceNow}
}

func snapshotWithExpenses(workspaceID string, amounts map[string]float64) *core.Snapshot {
	snap := &core.Snapshot{WorkspaceID: workspaceID}
	i := 0
	for category, amount := range amounts {
		i++
		snap.Expenses = append(snap.Expenses, core.Expense{
			ID:          workspaceID + "-e" + category,
			WorkspaceID: workspaceID,
			Amount:      amount,
			Category:    category,
			Status:      core.ExpenseApproved,
			Date:        serviceNow.AddDate(0, 0, -i),
		})
	}
	return snap
}

func TestAnalyticsService_Report_SingleWorkspace(t *testing.T) {
	store := memory.NewSeeded(snapshotWithExpenses("ws1", map[string]float64{
		"Food":   300,
		"Travel": 100,
	}))
	svc := newTestService(store)

	report, err := svc.Report(context.Background(), core.NewWorkspaceScope("ws1"), testWindow())
	if err != nil {
		t.Fatalf("Report returned error: %v", err)
	}

	if report.Scope.String() != "ws1" {
		t.Errorf("Scope = %q, want %q", report.Scope.String(), "ws1")
	}
	if report.Overview.TotalSpent != 400 {
		t.Errorf("TotalSpent = %v, want 400", report.Overview.TotalSpent)
	}
	if !report.GeneratedAt.Equal(serviceNow) {
		t.Errorf("GeneratedAt = %v, want %v", report.GeneratedAt, serviceNow)
	}
	if len(report.Warnings) != 0 {
		t.Errorf("Warnings = %v, want none", report.Warnings)
	}
}

func TestAnalyticsService_Report_MergesScope(t *testing.T) {
	store := memory.NewSeeded(
		snapshotWithExpenses("ws1", map[string]float64{"Food": 150}),
		snapshotWithExpenses("ws2", map[string]float64{"Food": 50, "Travel": 25}),
	)
	svc := newTestService(store)

	report, err := svc.Report(context.Background(), core.NewWorkspaceScope("ws1", "ws2"), testWindow())
	if err != nil {
		t.Fatalf("Report returned error: %v", err)
	}

	if report.Scope.String() != "ws1,ws2" {
		t.Errorf("Scope = %q, want %q", report.Scope.String(), "ws1,ws2")
	}
	if report.Overview.TotalSpent != 225 {
		t.Errorf("TotalSpent = %v, want 225", report.Overview.TotalSpent)
	}
}

func TestAnalyticsService_Report_PartialFailure(t *testing.T) {
	store := memory.NewSeeded(snapshotWithExpenses("ws1", map[string]float64{"Food": 100}))
	store.FailWith("ws2", errors.New("sheet unavailable"))
	svc := newTestService(store)

	report, err := svc.Report(context.Background(), core.NewWorkspaceScope("ws1", "ws2"), testWindow())
	if err != nil {
		t.Fatalf("Report should tolerate a failed workspace, got error: %v", err)
	}

	if report.Overview.TotalSpent != 100 {
		t.Errorf("TotalSpent = %v, want 100", report.Overview.TotalSpent)
	}
	if len(report.Warnings) != 1 {
		t.Fatalf("Warnings = %v, want exactly one", report.Warnings)
	}
	if report.Warnings[0].WorkspaceID != "ws2" {
		t.Errorf("Warning workspace = %q, want %q", report.Warnings[0].WorkspaceID, "ws2")
	}
	if !strings.Contains(report.Warnings[0].Message, "sheet unavailable") {
		t.Errorf("Warning message = %q, want it to mention the cause", report.Warnings[0].Message)
	}
}

func TestAnalyticsService_Report_AllWorkspacesFailed(t *testing.T) {
	store := memory.New()
	store.FailWith("ws1", errors.New("down"))
	store.FailWith("ws2", errors.New("down"))
	svc := newTestService(store)

	_, err := svc.Report(context.Background(), core.NewWorkspaceScope("ws1", "ws2"), testWindow())
	if err == nil {
		t.Fatal("Report should fail when no workspace can be read")
	}
}

func TestAnalyticsService_Report_EmptyScope(t *testing.T) {
	svc := newTestService(memory.New())

	_, err := svc.Report(context.Background(), core.NewWorkspaceScope(), testWindow())
	if err == nil {
		t.Fatal("Report should reject an empty scope")
	}
}

func TestAnalyticsService_Report_CacheHit(t *testing.T) {
	store := memory.NewSeeded(snapshotWithExpenses("ws1", map[string]float64{"Food": 100}))
	svc := newTestService(store)
	scope := core.NewWorkspaceScope("ws1")
	window := testWindow()

	first, err := svc.Report(context.Background(), scope, window)
	if err != nil {
		t.Fatalf("first Report returned error: %v", err)
	}

	// Change the underlying data; the cached report must still be served.
	store.Put(snapshotWithExpenses("ws1", map[string]float64{"Food": 999}))

	second, err := svc.Report(context.Background(), scope, window)
	if err != nil {
		t.Fatalf("second Report returned error: %v", err)
	}
	if second.Overview.TotalSpent != first.Overview.TotalSpent {
		t.Errorf("cached TotalSpent = %v, want %v", second.Overview.TotalSpent, first.Overview.TotalSpent)
	}

	svc.Invalidate(scope, window)

	third, err := svc.Report(context.Background(), scope, window)
	if err != nil {
		t.Fatalf("third Report returned error: %v", err)
	}
	if third.Overview.TotalSpent != 999 {
		t.Errorf("recomputed TotalSpent = %v, want 999", third.Overview.TotalSpent)
	}
}

func TestAnalyticsService_Report_DistinctWindowsCachedSeparately(t *testing.T) {
	store := memory.NewSeeded(snapshotWithExpenses("ws1", map[string]float64{"Food": 100}))
	svc := newTestService(store)
	scope := core.NewWorkspaceScope("ws1")

	wide := testWindow()
	narrow := core.TimeWindow{From: serviceNow.AddDate(0, 0, -1), To: serviceNow}

	if _, err := svc.Report(context.Background(), scope, wide); err != nil {
		t.Fatalf("Report(wide) returned error: %v", err)
	}
	if _, err := svc.Report(context.Background(), scope, narrow); err != nil {
		t.Fatalf("Report(narrow) returned error: %v", err)
	}

	if size := svc.ReportCache().Size(); size != 2 {
		t.Errorf("cache size = %d, want 2", size)
	}
}

// readerOnly hides the memory store's Workspaces method
type readerOnly struct {
	store *memory.Store
}

func (r readerOnly) Snapshot(ctx context.Context, workspaceID string) (*core.Snapshot, error) {
	return r.store.Snapshot(ctx, workspaceID)
}

var _ supply.Reader = readerOnly{}

func TestAnalyticsService_Workspaces(t *testing.T) {
	t.Run("lister backend", func(t *testing.T) {
		store := memory.NewSeeded(
			snapshotWithExpenses("beta", nil),
			snapshotWithExpenses("alpha", nil),
		)
		svc := newTestService(store)

		ids, err := svc.Workspaces(context.Background(), "default")
		if err != nil {
			t.Fatalf("Workspaces returned error: %v", err)
		}
		if len(ids) != 2 || ids[0] != "alpha" || ids[1] != "beta" {
			t.Errorf("Workspaces = %v, want [alpha beta]", ids)
		}
	})

	t.Run("non-lister backend falls back", func(t *testing.T) {
		svc := NewAnalyticsService(readerOnly{store: memory.New()}, nil, DefaultAnalyticsServiceConfig())

		ids, err := svc.Workspaces(context.Background(), "default")
		if err != nil {
			t.Fatalf("Workspaces returned error: %v", err)
		}
		if len(ids) != 1 || ids[0] != "default" {
			t.Errorf("Workspaces = %v, want [default]", ids)
		}
	})

	t.Run("empty lister falls back", func(t *testing.T) {
		svc := newTestService(memory.New())

		ids, err := svc.Workspaces(context.Background(), "default")
		if err != nil {
			t.Fatalf("Workspaces returned error: %v", err)
		}
		if len(ids) != 1 || ids[0] != "default" {
			t.Errorf("Workspaces = %v, want [default]", ids)
		}
	})
}

func TestAnalyticsService_Report_ContainsAlerts(t *testing.T) {
	snap := snapshotWithExpenses("ws1", map[string]float64{"Food": 950})
	snap.Budgets = []core.Budget{
		{ID: "b1", Amount: 1000, Scope: core.ScopeWorkspace, WorkspaceID: "ws1"},
	}
	store := memory.NewSeeded(snap)
	svc := newTestService(store)

	report, err := svc.Report(context.Background(), core.NewWorkspaceScope("ws1"), testWindow())
	if err != nil {
		t.Fatalf("Report returned error: %v", err)
	}

	var found bool
	for _, a := range report.Alerts {
		if a.Kind == analytics.AlertBudgetWarning {
			found = true
		}
	}
	if !found {
		t.Errorf("Alerts = %v, want a budget warning at 95%% utilization", report.Alerts)
	}
}

func TestAnalyticsService_Close(t *testing.T) {
	svc := newTestService(memory.New())

	if err := svc.Close(); err != nil {
		t.Fatalf("Close without AMQP client should not error: %v", err)
	}
}
