package google

import (
	"fmt"
	"strings"
	"time"

	"finboard/internal/core"
)

// Row parsing for the entity tabs. Each tab starts with a header row; column
// order is free because lookup is by header name. Rows missing an ID are
// skipped, malformed cells coerce to their zero value. Parsing is
// best-effort by design: one bad row never fails the snapshot.

func parseExpenses(values [][]interface{}) ([]core.Expense, error) {
	if len(values) == 0 {
		return nil, nil
	}
	headers := toStrings(values[0])
	cols, err := requireColumns(headers, "ID", "Amount")
	if err != nil {
		return nil, err
	}

	var out []core.Expense
	for _, raw := range values[1:] {
		row := toStrings(raw)
		id := safeGet(row, cols["ID"])
		if id == "" {
			continue
		}
		amount, _ := core.ParseAmount(safeGet(row, cols["Amount"]))
		out = append(out, core.Expense{
			ID:           id,
			Amount:       amount,
			Category:     safeGet(row, indexOf(headers, "Category")),
			Department:   safeGet(row, indexOf(headers, "Department")),
			CostCenterID: safeGet(row, indexOf(headers, "CostCenter")),
			ProjectID:    safeGet(row, indexOf(headers, "Project")),
			Status:       core.ExpenseStatus(safeGet(row, indexOf(headers, "Status"))),
			Date:         parseDate(safeGet(row, indexOf(headers, "Date"))),
			WorkspaceID:  safeGet(row, indexOf(headers, "Workspace")),
		})
	}
	return out, nil
}

func parseBudgets(values [][]interface{}) ([]core.Budget, error) {
	if len(values) == 0 {
		return nil, nil
	}
	headers := toStrings(values[0])
	cols, err := requireColumns(headers, "ID", "Amount")
	if err != nil {
		return nil, err
	}

	var out []core.Budget
	for _, raw := range values[1:] {
		row := toStrings(raw)
		id := safeGet(row, cols["ID"])
		if id == "" {
			continue
		}
		amount, _ := core.ParseAmount(safeGet(row, cols["Amount"]))
		out = append(out, core.Budget{
			ID:          id,
			Amount:      amount,
			Scope:       core.BudgetScope(safeGet(row, indexOf(headers, "Scope"))),
			ScopeID:     safeGet(row, indexOf(headers, "ScopeID")),
			Period:      safeGet(row, indexOf(headers, "Period")),
			WorkspaceID: safeGet(row, indexOf(headers, "Workspace")),
		})
	}
	return out, nil
}

func parseCostCenters(values [][]interface{}) ([]core.CostCenter, error) {
	if len(values) == 0 {
		return nil, nil
	}
	headers := toStrings(values[0])
	cols, err := requireColumns(headers, "ID", "Name")
	if err != nil {
		return nil, err
	}

	var out []core.CostCenter
	for _, raw := range values[1:] {
		row := toStrings(raw)
		id := safeGet(row, cols["ID"])
		if id == "" {
			continue
		}
		budget, _ := core.ParseAmount(safeGet(row, indexOf(headers, "Budget")))
		out = append(out, core.CostCenter{
			ID:          id,
			Name:        safeGet(row, cols["Name"]),
			Code:        safeGet(row, indexOf(headers, "Code")),
			Budget:      budget,
			Active:      parseBool(safeGet(row, indexOf(headers, "Active")), true),
			WorkspaceID: safeGet(row, indexOf(headers, "Workspace")),
		})
	}
	return out, nil
}

func parseProjects(values [][]interface{}) ([]core.Project, error) {
	if len(values) == 0 {
		return nil, nil
	}
	headers := toStrings(values[0])
	cols, err := requireColumns(headers, "ID", "Name")
	if err != nil {
		return nil, err
	}

	var out []core.Project
	for _, raw := range values[1:] {
		row := toStrings(raw)
		id := safeGet(row, cols["ID"])
		if id == "" {
			continue
		}
		out = append(out, core.Project{
			ID:          id,
			Name:        safeGet(row, cols["Name"]),
			Status:      core.ProjectStatus(safeGet(row, indexOf(headers, "Status"))),
			DueDate:     parseDate(safeGet(row, indexOf(headers, "DueDate"))),
			CreatedAt:   parseDate(safeGet(row, indexOf(headers, "CreatedAt"))),
			WorkspaceID: safeGet(row, indexOf(headers, "Workspace")),
		})
	}
	return out, nil
}

func parseTasks(values [][]interface{}) ([]core.Task, error) {
	if len(values) == 0 {
		return nil, nil
	}
	headers := toStrings(values[0])
	cols, err := requireColumns(headers, "ID", "Project")
	if err != nil {
		return nil, err
	}

	var out []core.Task
	for _, raw := range values[1:] {
		row := toStrings(raw)
		id := safeGet(row, cols["ID"])
		if id == "" {
			continue
		}
		out = append(out, core.Task{
			ID:        id,
			ProjectID: safeGet(row, cols["Project"]),
			Status:    core.TaskStatus(safeGet(row, indexOf(headers, "Status"))),
			Priority:  strings.ToLower(safeGet(row, indexOf(headers, "Priority"))),
			DueDate:   parseDate(safeGet(row, indexOf(headers, "DueDate"))),
			UpdatedAt: parseDate(safeGet(row, indexOf(headers, "UpdatedAt"))),
		})
	}
	return out, nil
}

func parseInvoices(values [][]interface{}) ([]core.Invoice, error) {
	if len(values) == 0 {
		return nil, nil
	}
	headers := toStrings(values[0])
	cols, err := requireColumns(headers, "ID", "Total")
	if err != nil {
		return nil, err
	}

	var out []core.Invoice
	for _, raw := range values[1:] {
		row := toStrings(raw)
		id := safeGet(row, cols["ID"])
		if id == "" {
			continue
		}
		total, _ := core.ParseAmount(safeGet(row, cols["Total"]))
		out = append(out, core.Invoice{
			ID:          id,
			Total:       total,
			Status:      core.InvoiceStatus(safeGet(row, indexOf(headers, "Status"))),
			IssueDate:   parseDate(safeGet(row, indexOf(headers, "IssueDate"))),
			DueDate:     parseDate(safeGet(row, indexOf(headers, "DueDate"))),
			PaidDate:    parseDate(safeGet(row, indexOf(headers, "PaidDate"))),
			WorkspaceID: safeGet(row, indexOf(headers, "Workspace")),
		})
	}
	return out, nil
}

// requireColumns resolves the named headers, failing when any is absent so
// the caller can report a layout problem instead of silently parsing nothing.
func requireColumns(headers []string, names ...string) (map[string]int, error) {
	cols := make(map[string]int, len(names))
	var missing []string
	for _, name := range names {
		i := indexOf(headers, name)
		if i == -1 {
			missing = append(missing, name)
			continue
		}
		cols[name] = i
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("unexpected header: missing %s; got headers=%v", strings.Join(missing, ","), headers)
	}
	return cols, nil
}

func toStrings(in []interface{}) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = strings.TrimSpace(fmt.Sprint(v))
	}
	return out
}

func indexOf(arr []string, target string) int {
	for i, v := range arr {
		if strings.EqualFold(strings.TrimSpace(v), strings.TrimSpace(target)) {
			return i
		}
	}
	return -1
}

func safeGet(arr []string, idx int) string {
	if idx < 0 || idx >= len(arr) {
		return ""
	}
	return arr[idx]
}

var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	time.RFC3339,
	"02/01/2006",
}

// parseDate tries the supported layouts; anything else is the zero time,
// which downstream treats as "unset".
func parseDate(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

func parseBool(s string, fallback bool) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "yes", "y", "1", "active":
		return true
	case "false", "no", "n", "0", "inactive":
		return false
	default:
		return fallback
	}
}
