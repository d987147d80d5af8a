package core

import "strings"

// Snapshot bundles the collections fetched for one workspace. The engine
// treats a snapshot as immutable input and never writes back.
type Snapshot struct {
	WorkspaceID string
	Expenses    []Expense
	Budgets     []Budget
	CostCenters []CostCenter
	Projects    []Project
	Tasks       []Task
	Invoices    []Invoice
}

// Normalize coerces malformed values on every record in place and returns
// the snapshot. It runs once per snapshot at ingestion; downstream code
// relies on amounts being finite and non-negative and on statuses being
// canonical.
func (s *Snapshot) Normalize() *Snapshot {
	for i := range s.Expenses {
		e := &s.Expenses[i]
		e.Amount = SanitizeAmount(e.Amount)
		e.Status = canonicalExpenseStatus(e.Status)
		if strings.TrimSpace(e.Category) == "" {
			e.Category = "Uncategorized"
		}
		if e.WorkspaceID == "" {
			e.WorkspaceID = s.WorkspaceID
		}
	}
	for i := range s.Budgets {
		b := &s.Budgets[i]
		b.Amount = SanitizeAmount(b.Amount)
		if b.WorkspaceID == "" {
			b.WorkspaceID = s.WorkspaceID
		}
	}
	for i := range s.CostCenters {
		c := &s.CostCenters[i]
		c.Budget = SanitizeAmount(c.Budget)
		if c.WorkspaceID == "" {
			c.WorkspaceID = s.WorkspaceID
		}
	}
	for i := range s.Invoices {
		inv := &s.Invoices[i]
		inv.Total = SanitizeAmount(inv.Total)
		if inv.WorkspaceID == "" {
			inv.WorkspaceID = s.WorkspaceID
		}
	}
	for i := range s.Projects {
		if s.Projects[i].WorkspaceID == "" {
			s.Projects[i].WorkspaceID = s.WorkspaceID
		}
	}
	return s
}

// canonicalExpenseStatus maps upstream spellings onto the stored enum.
func canonicalExpenseStatus(st ExpenseStatus) ExpenseStatus {
	switch ExpenseStatus(strings.ToLower(strings.TrimSpace(string(st)))) {
	case "submitted", ExpensePending:
		return ExpensePending
	case ExpenseDraft, ExpenseApproved, ExpenseRejected, ExpensePaid:
		return ExpenseStatus(strings.ToLower(strings.TrimSpace(string(st))))
	default:
		return ExpenseDraft
	}
}
