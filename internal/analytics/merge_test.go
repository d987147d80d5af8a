package analytics

import (
	"testing"

	"finboard/internal/core"
)

func workspaceSnapshot(id string, expenses []core.Expense, budgets []core.Budget) *core.Snapshot {
	return (&core.Snapshot{
		WorkspaceID: id,
		Expenses:    expenses,
		Budgets:     budgets,
	}).Normalize()
}

func TestMergeAdditiveUnion(t *testing.T) {
	opts := testOptions()

	a := Build(workspaceSnapshot("ws1", []core.Expense{
		{ID: "e1", Amount: 100, Category: "food", Status: "approved", Date: reportNow.AddDate(0, 0, -1)},
	}, nil), opts)
	b := Build(workspaceSnapshot("ws2", []core.Expense{
		{ID: "e2", Amount: 50, Category: "food", Status: "approved", Date: reportNow.AddDate(0, 0, -2)},
		{ID: "e3", Amount: 20, Category: "transport", Status: "approved", Date: reportNow.AddDate(0, 0, -2)},
	}, nil), opts)

	m := Merge([]*Report{a, b}, nil, opts)

	want := map[string]float64{"food": 150, "transport": 20}
	if len(m.ByCategory) != len(want) {
		t.Fatalf("got %d categories, want %d: %+v", len(m.ByCategory), len(want), m.ByCategory)
	}
	for _, g := range m.ByCategory {
		if g.Sum != want[g.Key] {
			t.Errorf("category %s = %v, want %v", g.Key, g.Sum, want[g.Key])
		}
	}
	if m.Overview.TotalSpent != 170 {
		t.Errorf("total spent = %v, want 170", m.Overview.TotalSpent)
	}
	if got := m.Scope.String(); got != "ws1,ws2" {
		t.Errorf("scope = %q, want %q", got, "ws1,ws2")
	}
}

func TestMergeWithFailedWorkspace(t *testing.T) {
	opts := testOptions()

	ok := Build(workspaceSnapshot("ws1", []core.Expense{
		{ID: "e1", Amount: 300, Category: "food", Status: "approved", Date: reportNow.AddDate(0, 0, -1)},
	}, []core.Budget{
		{ID: "b1", Amount: 600, Scope: core.ScopeWorkspace},
	}), opts)

	warnings := []Warning{{WorkspaceID: "ws2", Message: "fetch failed: connection refused"}}
	m := Merge([]*Report{ok}, warnings, opts)

	// The failure contributes nothing; no error surfaces.
	if m.Overview.TotalSpent != ok.Overview.TotalSpent {
		t.Errorf("merged spent = %v, want %v", m.Overview.TotalSpent, ok.Overview.TotalSpent)
	}
	if m.Overview.TotalBudget != ok.Overview.TotalBudget {
		t.Errorf("merged budget = %v, want %v", m.Overview.TotalBudget, ok.Overview.TotalBudget)
	}
	if m.Overview.UtilizationPercent != 50 {
		t.Errorf("utilization = %v, want 50", m.Overview.UtilizationPercent)
	}
	if len(m.Warnings) != 1 || m.Warnings[0].WorkspaceID != "ws2" {
		t.Errorf("warnings not carried: %+v", m.Warnings)
	}
}

func TestMergeEmpty(t *testing.T) {
	warnings := []Warning{{WorkspaceID: "ws1", Message: "fetch failed"}}
	m := Merge(nil, warnings, testOptions())

	if m == nil {
		t.Fatal("merging zero reports must yield an empty report, not nil")
	}
	if m.Overview.TotalSpent != 0 || len(m.ByCategory) != 0 {
		t.Errorf("empty merge must carry zero totals: %+v", m.Overview)
	}
	if len(m.Warnings) != 1 {
		t.Errorf("warnings dropped: %+v", m.Warnings)
	}
	if m.Expenses.CountsByStatus == nil || m.Invoices.CountsByStatus == nil {
		t.Error("status maps must be initialized")
	}
}

func TestMergeRecomputesRatiosFromSums(t *testing.T) {
	// ws1: current month 100, previous 100 (0% change).
	a := Build(workspaceSnapshot("ws1", []core.Expense{
		{ID: "e1", Amount: 100, Category: "ops", Status: "approved", Date: reportNow.AddDate(0, 0, -1)},
		{ID: "e2", Amount: 100, Category: "ops", Status: "approved", Date: reportNow.AddDate(0, -1, 0)},
	}, nil), Options{Now: reportNow})
	// ws2: current month 300, previous 100 (+200% change).
	b := Build(workspaceSnapshot("ws2", []core.Expense{
		{ID: "e3", Amount: 300, Category: "ops", Status: "approved", Date: reportNow.AddDate(0, 0, -1)},
		{ID: "e4", Amount: 100, Category: "ops", Status: "approved", Date: reportNow.AddDate(0, -1, 0)},
	}, nil), Options{Now: reportNow})

	m := Merge([]*Report{a, b}, nil, Options{Now: reportNow})

	// (400-200)/200 = +100%, not the mean of the per-workspace percentages.
	if m.Expenses.MonthOverMonthPercent != 100 {
		t.Errorf("month-over-month = %v, want 100", m.Expenses.MonthOverMonthPercent)
	}
	if m.Expenses.CurrentMonthAmount != 400 || m.Expenses.PreviousMonthAmount != 200 {
		t.Errorf("month sums wrong: %v / %v", m.Expenses.CurrentMonthAmount, m.Expenses.PreviousMonthAmount)
	}
}

func TestMergeBucketsAlignByIndex(t *testing.T) {
	opts := testOptions()

	a := Build(workspaceSnapshot("ws1", []core.Expense{
		{ID: "e1", Amount: 40, Category: "ops", Status: "approved", Date: reportNow.AddDate(0, -2, 0)},
	}, nil), opts)
	b := Build(workspaceSnapshot("ws2", []core.Expense{
		{ID: "e2", Amount: 60, Category: "ops", Status: "approved", Date: reportNow.AddDate(0, -2, 0)},
	}, nil), opts)

	m := Merge([]*Report{a, b}, nil, opts)

	if len(m.Trend.Buckets) != DefaultTrendMonths {
		t.Fatalf("got %d buckets, want %d", len(m.Trend.Buckets), DefaultTrendMonths)
	}
	idx := DefaultTrendMonths - 3 // two months back
	bucket := m.Trend.Buckets[idx]
	if bucket.Sum != 100 || bucket.Count != 2 {
		t.Errorf("bucket %s = %v/%d, want 100/2", bucket.Label, bucket.Sum, bucket.Count)
	}
	for i, bk := range m.Trend.Buckets {
		if bk.Label != a.Trend.Buckets[i].Label {
			t.Errorf("bucket %d label %q diverged from source %q", i, bk.Label, a.Trend.Buckets[i].Label)
		}
	}
}

func TestMergeDedupesEntityRows(t *testing.T) {
	opts := testOptions()
	snap := workspaceSnapshot("ws1", nil, []core.Budget{
		{ID: "b1", Amount: 100, Scope: core.ScopeWorkspace},
	})

	// The same workspace appearing twice must not double its rows.
	r := Build(snap, opts)
	m := Merge([]*Report{r, r}, nil, opts)

	if len(m.Budgets) != 1 {
		t.Errorf("got %d budget rows, want 1", len(m.Budgets))
	}
	// Totals still sum; deduplication applies to entity rows only.
	if m.Overview.TotalBudget != 200 {
		t.Errorf("total budget = %v, want 200", m.Overview.TotalBudget)
	}
}

func TestMergeAggregateAlerts(t *testing.T) {
	opts := testOptions()
	opts.Thresholds = AlertThresholds{BudgetWarningPercent: 80, PendingBacklog: 10}

	// Each workspace alone sits under the backlog threshold.
	mk := func(ws string, pending int) *Report {
		var expenses []core.Expense
		for i := 0; i < pending; i++ {
			expenses = append(expenses, core.Expense{
				ID: ws + "-e" + string(rune('a'+i)), Amount: 10, Category: "ops",
				Status: "submitted", Date: reportNow.AddDate(0, 0, -1),
			})
		}
		return Build(workspaceSnapshot(ws, expenses, nil), opts)
	}
	a, b := mk("ws1", 6), mk("ws2", 6)
	if len(a.Alerts) != 0 || len(b.Alerts) != 0 {
		t.Fatalf("per-workspace reports should be quiet: %+v %+v", a.Alerts, b.Alerts)
	}

	m := Merge([]*Report{a, b}, nil, opts)
	var found bool
	for _, al := range m.Alerts {
		if al.Kind == AlertPendingBacklog {
			found = true
		}
	}
	if !found {
		t.Errorf("aggregate backlog of 12 must fire an alert, got %+v", m.Alerts)
	}
}
