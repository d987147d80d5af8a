package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"finboard/internal/core"
	"finboard/internal/supply"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

// Client reads entity collections from one spreadsheet, one tab per entity
// kind. Rows carry an optional Workspace column; blank means the row belongs
// to every workspace.
type Client struct {
	svc           *gsheet.Service
	spreadsheetID string

	expensesSheet    string
	budgetsSheet     string
	costCentersSheet string
	projectsSheet    string
	tasksSheet       string
	invoicesSheet    string
}

// Ensure interface conformance
var _ supply.Reader = (*Client)(nil)

// NewFromEnv creates a Sheets client using environment variables.
// Required: GOOGLE_SPREADSHEET_ID
// Credentials: GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or
// GOOGLE_APPLICATION_CREDENTIALS.
// Optional tab names: SHEET_EXPENSES, SHEET_BUDGETS, SHEET_COST_CENTERS,
// SHEET_PROJECTS, SHEET_TASKS, SHEET_INVOICES.
func NewFromEnv(ctx context.Context) (*Client, error) {
	spreadsheetID := strings.TrimSpace(os.Getenv("GOOGLE_SPREADSHEET_ID"))
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}

	svc, err := newSheetsService(ctx)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}

	return &Client{
		svc:              svc,
		spreadsheetID:    spreadsheetID,
		expensesSheet:    envOr("SHEET_EXPENSES", "Expenses"),
		budgetsSheet:     envOr("SHEET_BUDGETS", "Budgets"),
		costCentersSheet: envOr("SHEET_COST_CENTERS", "CostCenters"),
		projectsSheet:    envOr("SHEET_PROJECTS", "Projects"),
		tasksSheet:       envOr("SHEET_TASKS", "Tasks"),
		invoicesSheet:    envOr("SHEET_INVOICES", "Invoices"),
	}, nil
}

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

// newSheetsService initializes a Sheets Service using Service Account
// credentials from GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE,
// or GOOGLE_APPLICATION_CREDENTIALS.
func newSheetsService(ctx context.Context) (*gsheet.Service, error) {
	serviceAccountJSON := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"))
	serviceAccountFile := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"))
	if serviceAccountJSON == "" && serviceAccountFile == "" {
		serviceAccountFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	var credentialsJSON []byte
	var err error
	switch {
	case serviceAccountJSON != "":
		credentialsJSON = []byte(serviceAccountJSON)
	case serviceAccountFile != "":
		credentialsJSON, err = os.ReadFile(serviceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsReadonlyScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return service, nil
}

// Snapshot reads all entity tabs and assembles the workspace's bundle. A tab
// that does not exist in the spreadsheet contributes nothing; any other read
// failure aborts the snapshot.
func (c *Client) Snapshot(ctx context.Context, workspaceID string) (*core.Snapshot, error) {
	if c.svc == nil {
		return nil, errors.New("sheets service not initialized")
	}

	snap := &core.Snapshot{WorkspaceID: workspaceID}

	expenses, err := c.readTab(ctx, c.expensesSheet)
	if err != nil {
		return nil, err
	}
	if snap.Expenses, err = parseExpenses(expenses); err != nil {
		return nil, fmt.Errorf("parse %s: %w", c.expensesSheet, err)
	}

	budgets, err := c.readTab(ctx, c.budgetsSheet)
	if err != nil {
		return nil, err
	}
	if snap.Budgets, err = parseBudgets(budgets); err != nil {
		return nil, fmt.Errorf("parse %s: %w", c.budgetsSheet, err)
	}

	centers, err := c.readTab(ctx, c.costCentersSheet)
	if err != nil {
		return nil, err
	}
	if snap.CostCenters, err = parseCostCenters(centers); err != nil {
		return nil, fmt.Errorf("parse %s: %w", c.costCentersSheet, err)
	}

	projects, err := c.readTab(ctx, c.projectsSheet)
	if err != nil {
		return nil, err
	}
	if snap.Projects, err = parseProjects(projects); err != nil {
		return nil, fmt.Errorf("parse %s: %w", c.projectsSheet, err)
	}

	tasks, err := c.readTab(ctx, c.tasksSheet)
	if err != nil {
		return nil, err
	}
	if snap.Tasks, err = parseTasks(tasks); err != nil {
		return nil, fmt.Errorf("parse %s: %w", c.tasksSheet, err)
	}

	invoices, err := c.readTab(ctx, c.invoicesSheet)
	if err != nil {
		return nil, err
	}
	if snap.Invoices, err = parseInvoices(invoices); err != nil {
		return nil, fmt.Errorf("parse %s: %w", c.invoicesSheet, err)
	}

	filterWorkspace(snap, workspaceID)
	return snap.Normalize(), nil
}

// readTab fetches the full used range of one tab. A missing tab is treated
// as empty so a spreadsheet can start with just the tabs it needs.
func (c *Client) readTab(ctx context.Context, sheetName string) ([][]interface{}, error) {
	rng := fmt.Sprintf("%s!A:Z", sheetName)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		if strings.Contains(err.Error(), "Unable to parse range") {
			slog.WarnContext(ctx, "sheet tab missing, treating as empty", "sheet", sheetName)
			return nil, nil
		}
		return nil, fmt.Errorf("read %s: %w", rng, err)
	}
	return resp.Values, nil
}

// filterWorkspace keeps rows belonging to the requested workspace. A row
// with a blank workspace column belongs to every workspace.
func filterWorkspace(snap *core.Snapshot, workspaceID string) {
	match := func(ws string) bool { return ws == "" || ws == workspaceID }

	snap.Expenses = filter(snap.Expenses, func(e core.Expense) bool { return match(e.WorkspaceID) })
	snap.Budgets = filter(snap.Budgets, func(b core.Budget) bool { return match(b.WorkspaceID) })
	snap.CostCenters = filter(snap.CostCenters, func(c core.CostCenter) bool { return match(c.WorkspaceID) })
	snap.Projects = filter(snap.Projects, func(p core.Project) bool { return match(p.WorkspaceID) })
	snap.Invoices = filter(snap.Invoices, func(i core.Invoice) bool { return match(i.WorkspaceID) })

	// Tasks have no workspace column; they follow their project.
	keep := make(map[string]bool, len(snap.Projects))
	for _, p := range snap.Projects {
		keep[p.ID] = true
	}
	snap.Tasks = filter(snap.Tasks, func(t core.Task) bool { return t.ProjectID == "" || keep[t.ProjectID] })
}

func filter[T any](in []T, pred func(T) bool) []T {
	out := in[:0:0]
	for _, v := range in {
		if pred(v) {
			out = append(out, v)
		}
	}
	return out
}
