package analytics

import (
	"reflect"
	"testing"
)

func TestGenerateAlerts(t *testing.T) {
	budgets := []BudgetSummary{
		{ID: "b1", Name: "Engineering", Allocated: 1000, UtilizationPercent: 110},
		{ID: "b2", Name: "Marketing", Allocated: 1000, UtilizationPercent: 85},
		{ID: "b3", Name: "Ops", Allocated: 1000, UtilizationPercent: 50},
	}

	alerts := GenerateAlerts(budgets, 12, 2, DefaultThresholds())

	if len(alerts) != 4 {
		t.Fatalf("got %d alerts, want 4: %+v", len(alerts), alerts)
	}
	if alerts[0].Kind != AlertBudgetExceeded || alerts[0].Severity != SeverityCritical || alerts[0].RelatedEntityID != "b1" {
		t.Errorf("exceeded alert wrong: %+v", alerts[0])
	}
	if alerts[1].Kind != AlertBudgetWarning || alerts[1].Severity != SeverityWarning || alerts[1].RelatedEntityID != "b2" {
		t.Errorf("warning alert wrong: %+v", alerts[1])
	}
	if alerts[2].Kind != AlertPendingBacklog || alerts[2].Severity != SeverityWarning {
		t.Errorf("backlog alert wrong: %+v", alerts[2])
	}
	if alerts[3].Kind != AlertOverdueInvoices || alerts[3].Severity != SeverityCritical {
		t.Errorf("overdue invoice alert wrong: %+v", alerts[3])
	}
}

func TestGenerateAlertsQuietWhenHealthy(t *testing.T) {
	budgets := []BudgetSummary{{ID: "b1", Name: "Ops", UtilizationPercent: 40}}
	if alerts := GenerateAlerts(budgets, 10, 0, DefaultThresholds()); len(alerts) != 0 {
		t.Fatalf("expected no alerts, got %+v", alerts)
	}
	// Backlog fires strictly above the threshold, not at it.
	if alerts := GenerateAlerts(nil, 11, 0, DefaultThresholds()); len(alerts) != 1 {
		t.Fatal("backlog of 11 must fire with threshold 10")
	}
}

func TestGenerateAlertsIdempotent(t *testing.T) {
	budgets := []BudgetSummary{{ID: "b1", Name: "Eng", UtilizationPercent: 120}}
	first := GenerateAlerts(budgets, 20, 1, DefaultThresholds())
	second := GenerateAlerts(budgets, 20, 1, DefaultThresholds())
	if !reflect.DeepEqual(first, second) {
		t.Fatal("same inputs must yield the same alert set")
	}
	// Inputs untouched.
	if budgets[0].UtilizationPercent != 120 {
		t.Fatal("alert generation must not mutate its inputs")
	}
}

func TestGenerateAlertsZeroThresholdsGetDefaults(t *testing.T) {
	alerts := GenerateAlerts(nil, 11, 0, AlertThresholds{})
	if len(alerts) != 1 || alerts[0].Kind != AlertPendingBacklog {
		t.Fatalf("zero thresholds must fall back to defaults: %+v", alerts)
	}
}
