// Package storage is the SQLite-backed entity supplier. The engine only
// reads from it; the upsert methods exist for ingestion tooling and tests.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"finboard/internal/core"
	"finboard/internal/supply"

	_ "modernc.org/sqlite"
)

const dateFormat = time.RFC3339

type Repository struct {
	db *sql.DB
}

var (
	_ supply.Reader          = (*Repository)(nil)
	_ supply.WorkspaceLister = (*Repository)(nil)
)

func New(dbPath string) (*Repository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Repository{db: db}, nil
}

func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Snapshot loads every entity collection for one workspace and returns the
// normalized bundle.
func (r *Repository) Snapshot(ctx context.Context, workspaceID string) (*core.Snapshot, error) {
	snap := &core.Snapshot{WorkspaceID: workspaceID}

	var err error
	if snap.Expenses, err = r.expenses(ctx, workspaceID); err != nil {
		return nil, err
	}
	if snap.Budgets, err = r.budgets(ctx, workspaceID); err != nil {
		return nil, err
	}
	if snap.CostCenters, err = r.costCenters(ctx, workspaceID); err != nil {
		return nil, err
	}
	if snap.Projects, err = r.projects(ctx, workspaceID); err != nil {
		return nil, err
	}
	if snap.Tasks, err = r.tasks(ctx, workspaceID); err != nil {
		return nil, err
	}
	if snap.Invoices, err = r.invoices(ctx, workspaceID); err != nil {
		return nil, err
	}

	return snap.Normalize(), nil
}

// Workspaces lists the distinct workspace ids present in any entity table.
func (r *Repository) Workspaces(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT workspace_id FROM expenses
		UNION SELECT workspace_id FROM budgets
		UNION SELECT workspace_id FROM cost_centers
		UNION SELECT workspace_id FROM projects
		UNION SELECT workspace_id FROM invoices
		ORDER BY workspace_id`)
	if err != nil {
		return nil, fmt.Errorf("list workspaces: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan workspace: %w", err)
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

func (r *Repository) expenses(ctx context.Context, workspaceID string) ([]core.Expense, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, amount, category, department, cost_center_id, project_id, status, expense_date
		FROM expenses WHERE workspace_id = ? ORDER BY expense_date, id`, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("query expenses: %w", err)
	}
	defer rows.Close()

	var out []core.Expense
	for rows.Next() {
		var e core.Expense
		var date string
		if err := rows.Scan(&e.ID, &e.Amount, &e.Category, &e.Department, &e.CostCenterID, &e.ProjectID, &e.Status, &date); err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		e.Date = parseStoredDate(date)
		e.WorkspaceID = workspaceID
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *Repository) budgets(ctx context.Context, workspaceID string) ([]core.Budget, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, amount, scope, scope_id, period
		FROM budgets WHERE workspace_id = ? ORDER BY id`, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("query budgets: %w", err)
	}
	defer rows.Close()

	var out []core.Budget
	for rows.Next() {
		var b core.Budget
		if err := rows.Scan(&b.ID, &b.Amount, &b.Scope, &b.ScopeID, &b.Period); err != nil {
			return nil, fmt.Errorf("scan budget: %w", err)
		}
		b.WorkspaceID = workspaceID
		out = append(out, b)
	}
	return out, rows.Err()
}

func (r *Repository) costCenters(ctx context.Context, workspaceID string) ([]core.CostCenter, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, code, budget, active
		FROM cost_centers WHERE workspace_id = ? ORDER BY id`, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("query cost centers: %w", err)
	}
	defer rows.Close()

	var out []core.CostCenter
	for rows.Next() {
		var c core.CostCenter
		if err := rows.Scan(&c.ID, &c.Name, &c.Code, &c.Budget, &c.Active); err != nil {
			return nil, fmt.Errorf("scan cost center: %w", err)
		}
		c.WorkspaceID = workspaceID
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *Repository) projects(ctx context.Context, workspaceID string) ([]core.Project, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, status, due_date, created_at
		FROM projects WHERE workspace_id = ? ORDER BY id`, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("query projects: %w", err)
	}
	defer rows.Close()

	var out []core.Project
	for rows.Next() {
		var p core.Project
		var due, created string
		if err := rows.Scan(&p.ID, &p.Name, &p.Status, &due, &created); err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		p.DueDate = parseStoredDate(due)
		p.CreatedAt = parseStoredDate(created)
		p.WorkspaceID = workspaceID
		out = append(out, p)
	}
	return out, rows.Err()
}

// tasks joins through projects because the task table carries no workspace
// column of its own.
func (r *Repository) tasks(ctx context.Context, workspaceID string) ([]core.Task, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT t.id, t.project_id, t.status, t.priority, t.due_date, t.updated_at
		FROM tasks t JOIN projects p ON p.id = t.project_id
		WHERE p.workspace_id = ? ORDER BY t.id`, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("query tasks: %w", err)
	}
	defer rows.Close()

	var out []core.Task
	for rows.Next() {
		var t core.Task
		var due, updated string
		if err := rows.Scan(&t.ID, &t.ProjectID, &t.Status, &t.Priority, &due, &updated); err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		t.DueDate = parseStoredDate(due)
		t.UpdatedAt = parseStoredDate(updated)
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *Repository) invoices(ctx context.Context, workspaceID string) ([]core.Invoice, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, total, status, issue_date, due_date, paid_date
		FROM invoices WHERE workspace_id = ? ORDER BY issue_date, id`, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("query invoices: %w", err)
	}
	defer rows.Close()

	var out []core.Invoice
	for rows.Next() {
		var inv core.Invoice
		var issue, due, paid string
		if err := rows.Scan(&inv.ID, &inv.Total, &inv.Status, &issue, &due, &paid); err != nil {
			return nil, fmt.Errorf("scan invoice: %w", err)
		}
		inv.IssueDate = parseStoredDate(issue)
		inv.DueDate = parseStoredDate(due)
		inv.PaidDate = parseStoredDate(paid)
		inv.WorkspaceID = workspaceID
		out = append(out, inv)
	}
	return out, rows.Err()
}

// UpsertExpense inserts or replaces one expense row.
func (r *Repository) UpsertExpense(ctx context.Context, e core.Expense) error {
	if err := e.Validate(); err != nil {
		return fmt.Errorf("upsert expense: %w", err)
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO expenses (id, workspace_id, amount, category, department, cost_center_id, project_id, status, expense_date)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			workspace_id=excluded.workspace_id, amount=excluded.amount,
			category=excluded.category, department=excluded.department,
			cost_center_id=excluded.cost_center_id, project_id=excluded.project_id,
			status=excluded.status, expense_date=excluded.expense_date`,
		e.ID, e.WorkspaceID, e.Amount, e.Category, e.Department, e.CostCenterID, e.ProjectID, e.Status, formatStoredDate(e.Date))
	if err != nil {
		return fmt.Errorf("upsert expense: %w", err)
	}
	return nil
}

func (r *Repository) UpsertBudget(ctx context.Context, b core.Budget) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO budgets (id, workspace_id, amount, scope, scope_id, period)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			workspace_id=excluded.workspace_id, amount=excluded.amount,
			scope=excluded.scope, scope_id=excluded.scope_id, period=excluded.period`,
		b.ID, b.WorkspaceID, b.Amount, b.Scope, b.ScopeID, b.Period)
	if err != nil {
		return fmt.Errorf("upsert budget: %w", err)
	}
	return nil
}

func (r *Repository) UpsertCostCenter(ctx context.Context, c core.CostCenter) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO cost_centers (id, workspace_id, name, code, budget, active)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			workspace_id=excluded.workspace_id, name=excluded.name,
			code=excluded.code, budget=excluded.budget, active=excluded.active`,
		c.ID, c.WorkspaceID, c.Name, c.Code, c.Budget, c.Active)
	if err != nil {
		return fmt.Errorf("upsert cost center: %w", err)
	}
	return nil
}

func (r *Repository) UpsertProject(ctx context.Context, p core.Project) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO projects (id, workspace_id, name, status, due_date, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			workspace_id=excluded.workspace_id, name=excluded.name,
			status=excluded.status, due_date=excluded.due_date, created_at=excluded.created_at`,
		p.ID, p.WorkspaceID, p.Name, p.Status, formatStoredDate(p.DueDate), formatStoredDate(p.CreatedAt))
	if err != nil {
		return fmt.Errorf("upsert project: %w", err)
	}
	return nil
}

func (r *Repository) UpsertTask(ctx context.Context, t core.Task) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO tasks (id, project_id, status, priority, due_date, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			project_id=excluded.project_id, status=excluded.status,
			priority=excluded.priority, due_date=excluded.due_date, updated_at=excluded.updated_at`,
		t.ID, t.ProjectID, t.Status, t.Priority, formatStoredDate(t.DueDate), formatStoredDate(t.UpdatedAt))
	if err != nil {
		return fmt.Errorf("upsert task: %w", err)
	}
	return nil
}

func (r *Repository) UpsertInvoice(ctx context.Context, inv core.Invoice) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO invoices (id, workspace_id, total, status, issue_date, due_date, paid_date)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			workspace_id=excluded.workspace_id, total=excluded.total,
			status=excluded.status, issue_date=excluded.issue_date,
			due_date=excluded.due_date, paid_date=excluded.paid_date`,
		inv.ID, inv.WorkspaceID, inv.Total, inv.Status, formatStoredDate(inv.IssueDate), formatStoredDate(inv.DueDate), formatStoredDate(inv.PaidDate))
	if err != nil {
		return fmt.Errorf("upsert invoice: %w", err)
	}
	return nil
}

// Seed loads a full snapshot via the upsert statements. Used at startup
// when a seed file is configured, and by tests.
func (r *Repository) Seed(ctx context.Context, snap *core.Snapshot) error {
	for _, e := range snap.Expenses {
		if e.WorkspaceID == "" {
			e.WorkspaceID = snap.WorkspaceID
		}
		if err := r.UpsertExpense(ctx, e); err != nil {
			return err
		}
	}
	for _, b := range snap.Budgets {
		if b.WorkspaceID == "" {
			b.WorkspaceID = snap.WorkspaceID
		}
		if err := r.UpsertBudget(ctx, b); err != nil {
			return err
		}
	}
	for _, c := range snap.CostCenters {
		if c.WorkspaceID == "" {
			c.WorkspaceID = snap.WorkspaceID
		}
		if err := r.UpsertCostCenter(ctx, c); err != nil {
			return err
		}
	}
	for _, p := range snap.Projects {
		if p.WorkspaceID == "" {
			p.WorkspaceID = snap.WorkspaceID
		}
		if err := r.UpsertProject(ctx, p); err != nil {
			return err
		}
	}
	for _, t := range snap.Tasks {
		if err := r.UpsertTask(ctx, t); err != nil {
			return err
		}
	}
	for _, inv := range snap.Invoices {
		if inv.WorkspaceID == "" {
			inv.WorkspaceID = snap.WorkspaceID
		}
		if err := r.UpsertInvoice(ctx, inv); err != nil {
			return err
		}
	}
	return nil
}

func formatStoredDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(dateFormat)
}

func parseStoredDate(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(dateFormat, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
