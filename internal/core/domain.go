package core

import (
	"errors"
	"strings"
	"time"
)

// Expense statuses as stored. "submitted" from upstream systems is
// normalized to Pending (see Normalize).
const (
	ExpenseDraft    ExpenseStatus = "draft"
	ExpensePending  ExpenseStatus = "pending"
	ExpenseApproved ExpenseStatus = "approved"
	ExpenseRejected ExpenseStatus = "rejected"
	ExpensePaid     ExpenseStatus = "paid"
)

const (
	ProjectPlanning  ProjectStatus = "planning"
	ProjectActive    ProjectStatus = "active"
	ProjectCompleted ProjectStatus = "completed"
	ProjectArchived  ProjectStatus = "archived"
)

const (
	TaskTodo       TaskStatus = "todo"
	TaskInProgress TaskStatus = "in-progress"
	TaskCompleted  TaskStatus = "completed"
)

const (
	InvoiceDraft     InvoiceStatus = "draft"
	InvoiceSent      InvoiceStatus = "sent"
	InvoicePaid      InvoiceStatus = "paid"
	InvoiceOverdue   InvoiceStatus = "overdue"
	InvoiceCancelled InvoiceStatus = "cancelled"
)

// Budget scope types.
const (
	ScopeCostCenter BudgetScope = "costCenter"
	ScopeDepartment BudgetScope = "department"
	ScopeProject    BudgetScope = "project"
	ScopeWorkspace  BudgetScope = "workspace"
)

// PriorityUrgent marks a task as blocking while incomplete.
const PriorityUrgent = "urgent"

type (
	ExpenseStatus string
	ProjectStatus string
	TaskStatus    string
	InvoiceStatus string
	BudgetScope   string

	// Expense is a single money-bearing record in a normalized base currency.
	// Department, CostCenterID and ProjectID are optional references.
	Expense struct {
		ID           string
		Amount       float64
		Category     string
		Department   string
		CostCenterID string
		ProjectID    string
		Status       ExpenseStatus
		Date         time.Time
		WorkspaceID  string
	}

	Budget struct {
		ID          string
		Amount      float64
		Scope       BudgetScope
		ScopeID     string
		Period      string
		WorkspaceID string
	}

	// CostCenter carries a nominal budget used as fallback when no
	// explicit Budget record targets it.
	CostCenter struct {
		ID          string
		Name        string
		Code        string
		Budget      float64
		Active      bool
		WorkspaceID string
	}

	Project struct {
		ID          string
		Name        string
		Status      ProjectStatus
		DueDate     time.Time // zero when unset
		CreatedAt   time.Time
		WorkspaceID string
	}

	Task struct {
		ID        string
		ProjectID string
		Status    TaskStatus
		Priority  string
		DueDate   time.Time // zero when unset
		UpdatedAt time.Time
	}

	Invoice struct {
		ID          string
		Total       float64
		Status      InvoiceStatus
		IssueDate   time.Time
		DueDate     time.Time
		PaidDate    time.Time // zero when unpaid
		WorkspaceID string
	}
)

var (
	ErrInvalidAmount  = errors.New("invalid amount")
	ErrEmptyID        = errors.New("empty id")
	ErrEmptyWorkspace = errors.New("empty workspace id")
)

// IsPending reports whether the expense waits for approval.
func (s ExpenseStatus) IsPending() bool {
	return s == ExpensePending
}

// CountsAsSpent reports whether the expense amount contributes to spend
// totals. Draft and rejected expenses never do.
func (s ExpenseStatus) CountsAsSpent() bool {
	return s == ExpenseApproved || s == ExpensePaid || s == ExpensePending
}

func (e Expense) Validate() error {
	if strings.TrimSpace(e.ID) == "" {
		return ErrEmptyID
	}
	if strings.TrimSpace(e.WorkspaceID) == "" {
		return ErrEmptyWorkspace
	}
	if !IsValidAmount(e.Amount) {
		return ErrInvalidAmount
	}
	return nil
}

// DaysOverdue returns whole days past the due date, or 0 when the project
// has no due date, is completed, or is not yet due.
func (p Project) DaysOverdue(now time.Time) int {
	if p.DueDate.IsZero() || p.Status == ProjectCompleted {
		return 0
	}
	if !p.DueDate.Before(now) {
		return 0
	}
	return int(now.Sub(p.DueDate).Hours() / 24)
}

// IsOverdue reports whether the task has a due date strictly in the past
// and is not completed.
func (t Task) IsOverdue(now time.Time) bool {
	if t.DueDate.IsZero() || t.Status == TaskCompleted {
		return false
	}
	return t.DueDate.Before(now)
}

// IsBlocked reports whether the task is urgent and incomplete.
func (t Task) IsBlocked() bool {
	return t.Priority == PriorityUrgent && t.Status != TaskCompleted
}

// CompletedOnTime reports whether the task finished no later than its due
// date, judged by its last-updated timestamp. Tasks without a due date
// count as on time.
func (t Task) CompletedOnTime() bool {
	if t.Status != TaskCompleted {
		return false
	}
	if t.DueDate.IsZero() {
		return true
	}
	return !t.UpdatedAt.After(t.DueDate)
}

// EffectiveStatus returns the status an invoice must be displayed and
// counted under: a sent invoice past its due date is overdue regardless of
// the stored value. The record itself is never mutated.
func (i Invoice) EffectiveStatus(now time.Time) InvoiceStatus {
	if i.Status == InvoiceSent && !i.DueDate.IsZero() && i.DueDate.Before(now) {
		return InvoiceOverdue
	}
	return i.Status
}

// PaymentDays returns the number of days between issue and payment, and
// whether the invoice has been paid.
func (i Invoice) PaymentDays() (float64, bool) {
	if i.PaidDate.IsZero() || i.IssueDate.IsZero() {
		return 0, false
	}
	d := i.PaidDate.Sub(i.IssueDate).Hours() / 24
	if d < 0 {
		d = 0
	}
	return d, true
}
