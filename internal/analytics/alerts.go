package analytics

import "fmt"

// Alert kinds.
const (
	AlertBudgetExceeded  AlertKind = "budget_exceeded"
	AlertBudgetWarning   AlertKind = "budget_warning"
	AlertPendingBacklog  AlertKind = "pending_backlog"
	AlertOverdueInvoices AlertKind = "overdue_invoices"
)

// Alert severities.
const (
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

type (
	AlertKind string
	Severity  string
)

// Alert is a structured threshold-breach record. Generation is pure and
// idempotent; deduplication across invocations is the caller's concern.
type Alert struct {
	Kind            AlertKind `json:"kind"`
	Severity        Severity  `json:"severity"`
	Message         string    `json:"message"`
	RelatedEntityID string    `json:"relatedEntityId,omitempty"`
}

// AlertThresholds are the configurable breach levels.
type AlertThresholds struct {
	// BudgetWarningPercent is the utilization above which a budget gets a
	// warning alert. Exceeding 100% is always critical.
	BudgetWarningPercent float64
	// PendingBacklog is the pending-expense count above which a backlog
	// warning fires.
	PendingBacklog int
}

// DefaultThresholds returns the standard alert levels.
func DefaultThresholds() AlertThresholds {
	return AlertThresholds{BudgetWarningPercent: 80, PendingBacklog: 10}
}

// GenerateAlerts scans computed metrics for threshold breaches. It reads
// its inputs and nothing else, and never mutates them.
func GenerateAlerts(budgets []BudgetSummary, pendingExpenses int, overdueInvoices int, th AlertThresholds) []Alert {
	if th.BudgetWarningPercent <= 0 {
		th.BudgetWarningPercent = 80
	}
	if th.PendingBacklog <= 0 {
		th.PendingBacklog = 10
	}

	var alerts []Alert
	for _, b := range budgets {
		switch {
		case b.UtilizationPercent > 100:
			alerts = append(alerts, Alert{
				Kind:            AlertBudgetExceeded,
				Severity:        SeverityCritical,
				Message:         fmt.Sprintf("%s is over budget: %.1f%% of %.2f used", b.Name, b.UtilizationPercent, b.Allocated),
				RelatedEntityID: b.ID,
			})
		case b.UtilizationPercent > th.BudgetWarningPercent:
			alerts = append(alerts, Alert{
				Kind:            AlertBudgetWarning,
				Severity:        SeverityWarning,
				Message:         fmt.Sprintf("%s is at %.1f%% of its budget", b.Name, b.UtilizationPercent),
				RelatedEntityID: b.ID,
			})
		}
	}

	if pendingExpenses > th.PendingBacklog {
		alerts = append(alerts, Alert{
			Kind:     AlertPendingBacklog,
			Severity: SeverityWarning,
			Message:  fmt.Sprintf("%d expenses await approval", pendingExpenses),
		})
	}

	if overdueInvoices > 0 {
		alerts = append(alerts, Alert{
			Kind:     AlertOverdueInvoices,
			Severity: SeverityCritical,
			Message:  fmt.Sprintf("%d invoices are overdue", overdueInvoices),
		})
	}

	return alerts
}
