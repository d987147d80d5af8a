package analytics

import (
	"time"

	"finboard/internal/core"
)

// Output structures consumed by the presentation layer. Plain values,
// recomputed from current inputs on every invocation.

type Overview struct {
	TotalBudget          float64 `json:"totalBudget"`
	TotalSpent           float64 `json:"totalSpent"`
	TotalRemaining       float64 `json:"totalRemaining"`
	UtilizationPercent   float64 `json:"utilizationPercent"`
	BurnRatePercent      float64 `json:"burnRatePercent"`
	SpendingTrendPercent float64 `json:"spendingTrendPercent"`
}

type CategoryShare struct {
	Category     string  `json:"category"`
	Amount       float64 `json:"amount"`
	Count        int     `json:"count"`
	SharePercent float64 `json:"sharePercent"`
}

type ExpenseAnalytics struct {
	CountsByStatus        map[core.ExpenseStatus]int `json:"countsByStatus"`
	TotalAmount           float64                    `json:"totalAmount"`
	ApprovedAmount        float64                    `json:"approvedAmount"`
	PendingAmount         float64                    `json:"pendingAmount"`
	PendingCount          int                        `json:"pendingCount"`
	TopCategories         []CategoryShare            `json:"topCategories"`
	CurrentMonthAmount    float64                    `json:"currentMonthAmount"`
	PreviousMonthAmount   float64                    `json:"previousMonthAmount"`
	MonthOverMonthPercent float64                    `json:"monthOverMonthPercent"`
}

type InvoiceAnalytics struct {
	// CountsByStatus is keyed by effective status: a sent invoice past its
	// due date counts as overdue here, never as sent.
	CountsByStatus        map[core.InvoiceStatus]int `json:"countsByStatus"`
	TotalAmount           float64                    `json:"totalAmount"`
	OverdueCount          int                        `json:"overdueCount"`
	PaidCount             int                        `json:"paidCount"`
	PaymentDaysTotal      float64                    `json:"-"`
	AveragePaymentDays    float64                    `json:"averagePaymentDays"`
	CurrentMonthAmount    float64                    `json:"currentMonthAmount"`
	PreviousMonthAmount   float64                    `json:"previousMonthAmount"`
	MonthOverMonthPercent float64                    `json:"monthOverMonthPercent"`
}

// Budget row statuses.
const (
	BudgetOnTrack  = "on-track"
	BudgetWarning  = "warning"
	BudgetExceeded = "exceeded"
)

type BudgetSummary struct {
	ID                 string           `json:"id"`
	Name               string           `json:"name"`
	Scope              core.BudgetScope `json:"scope"`
	WorkspaceID        string           `json:"workspaceId"`
	Allocated          float64          `json:"allocated"`
	Spent              float64          `json:"spent"`
	Remaining          float64          `json:"remaining"`
	UtilizationPercent float64          `json:"utilizationPercent"`
	Status             string           `json:"status"`
}

type ProjectHealth struct {
	ProjectID      string             `json:"projectId"`
	Name           string             `json:"name"`
	Status         core.ProjectStatus `json:"status"`
	WorkspaceID    string             `json:"workspaceId"`
	TotalTasks     int                `json:"totalTasks"`
	CompletedTasks int                `json:"completedTasks"`
	OverdueTasks   int                `json:"overdueTasks"`
	BlockedTasks   int                `json:"blockedTasks"`
	CompletionRate float64            `json:"completionRate"`
	OnTimeRate     float64            `json:"onTimeRate"`
	DaysOverdue    int                `json:"daysOverdue"`
	RiskScore      int                `json:"riskScore"`
	Tier           HealthTier         `json:"tier"`
}

type CostCenterRow struct {
	ID                 string            `json:"id"`
	Name               string            `json:"name"`
	Code               string            `json:"code"`
	WorkspaceID        string            `json:"workspaceId"`
	Budget             float64           `json:"budget"`
	Spent              float64           `json:"spent"`
	Remaining          float64           `json:"remaining"`
	ExpenseCount       int               `json:"expenseCount"`
	UtilizationPercent float64           `json:"utilizationPercent"`
	VariancePercent    float64           `json:"variancePercent"`
	Efficiency         float64           `json:"efficiency"`
	AverageExpense     float64           `json:"averageExpense"`
	BudgetAccuracy     float64           `json:"budgetAccuracy"`
	Performance        PerformanceRating `json:"performance"`
	Risk               RiskTier          `json:"risk"`
}

type CategoryTrend struct {
	Category      string         `json:"category"`
	CurrentSum    float64        `json:"currentSum"`
	PreviousSum   float64        `json:"previousSum"`
	ChangePercent float64        `json:"changePercent"`
	Direction     TrendDirection `json:"direction"`
}

type TrendReport struct {
	Buckets            []MonthBucket   `json:"buckets"`
	MonthlyBudget      float64         `json:"monthlyBudget"`
	AvgMonthlyVelocity float64         `json:"avgMonthlyVelocity"`
	ForecastedSpend    float64         `json:"forecastedSpend"`
	CategoryTrends     []CategoryTrend `json:"categoryTrends"`
}

// Warning records a workspace whose fetch failed; its contribution is
// treated as empty and the computation proceeds.
type Warning struct {
	WorkspaceID string `json:"workspaceId"`
	Message     string `json:"message"`
}

// Report is the full derived-analytics set for one scope and window.
type Report struct {
	Scope       core.WorkspaceScope `json:"scope"`
	GeneratedAt time.Time           `json:"generatedAt"`
	Overview    Overview            `json:"overview"`
	Expenses    ExpenseAnalytics    `json:"expenses"`
	Invoices    InvoiceAnalytics    `json:"invoices"`
	Budgets     []BudgetSummary     `json:"budgets"`
	Projects    []ProjectHealth     `json:"projects"`
	CostCenters []CostCenterRow     `json:"costCenters"`
	ByCategory  []Group             `json:"byCategory"`
	Trend       TrendReport         `json:"trend"`
	Alerts      []Alert             `json:"alerts"`
	Warnings    []Warning           `json:"warnings,omitempty"`
}

// Options tune a report computation. The zero value gets sensible
// defaults from Build.
type Options struct {
	// Window selects which expenses and invoices enter totals and period
	// comparisons. Zero means unbounded.
	Window core.TimeWindow
	// TrendMonths is the monthly-bucket lookback (3, 6, 12 or 24).
	TrendMonths int
	// TopCategories limits the category breakdown, default 5.
	TopCategories int
	Thresholds    AlertThresholds
	// Now anchors all date comparisons; zero means time.Now().
	Now time.Time
}

func (o Options) withDefaults() Options {
	if o.Now.IsZero() {
		o.Now = time.Now()
	}
	o.TrendMonths = ClampTrendMonths(o.TrendMonths)
	if o.TopCategories <= 0 {
		o.TopCategories = 5
	}
	if o.Thresholds == (AlertThresholds{}) {
		o.Thresholds = DefaultThresholds()
	}
	return o
}

// Build computes the full report for a single normalized workspace
// snapshot. It is pure: fixed inputs produce identical output, and the
// snapshot is never mutated.
func Build(snap *core.Snapshot, opts Options) *Report {
	opts = opts.withDefaults()
	now := opts.Now

	windowed := filterExpenses(snap.Expenses, opts.Window)
	spent := spentExpenses(windowed)

	byCategory := GroupSum(spent,
		func(e core.Expense) string { return e.Category },
		func(e core.Expense) float64 { return e.Amount })
	totalSpent := TotalSum(byCategory)
	totalBudget := totalBudget(snap.Budgets, snap.CostCenters)

	budgets := buildBudgetSummaries(snap, windowed)
	projects := buildProjectHealth(snap, now)
	costCenters := buildCostCenterRows(snap, windowed)
	expenses := buildExpenseAnalytics(windowed, snap.Expenses, byCategory, totalSpent, opts)
	invoices := buildInvoiceAnalytics(snap.Invoices, opts.Window, now)
	trend := buildTrend(snap.Expenses, byCategory, totalBudget, totalSpent, opts)

	overview := Overview{
		TotalBudget:          totalBudget,
		TotalSpent:           totalSpent,
		TotalRemaining:       totalBudget - totalSpent,
		UtilizationPercent:   UtilizationPercent(totalSpent, totalBudget),
		SpendingTrendPercent: ChangePercent(monthSums(snap.Expenses, now)),
	}
	overview.BurnRatePercent = overview.UtilizationPercent / float64(opts.Window.Months())

	alerts := GenerateAlerts(budgets, expenses.PendingCount, invoices.OverdueCount, opts.Thresholds)

	return &Report{
		Scope:       core.NewWorkspaceScope(snap.WorkspaceID),
		GeneratedAt: now,
		Overview:    overview,
		Expenses:    expenses,
		Invoices:    invoices,
		Budgets:     budgets,
		Projects:    projects,
		CostCenters: costCenters,
		ByCategory:  byCategory,
		Trend:       trend,
		Alerts:      alerts,
	}
}

func filterExpenses(expenses []core.Expense, w core.TimeWindow) []core.Expense {
	if w.IsZero() {
		return expenses
	}
	var out []core.Expense
	for _, e := range expenses {
		if w.Contains(e.Date) {
			out = append(out, e)
		}
	}
	return out
}

// spentExpenses keeps the records whose amounts count toward spend totals.
func spentExpenses(expenses []core.Expense) []core.Expense {
	var out []core.Expense
	for _, e := range expenses {
		if e.Status.CountsAsSpent() {
			out = append(out, e)
		}
	}
	return out
}

// totalBudget sums explicit budget records plus the nominal budget of any
// cost center not covered by one.
func totalBudget(budgets []core.Budget, centers []core.CostCenter) float64 {
	var total float64
	covered := make(map[string]bool)
	for _, b := range budgets {
		total += b.Amount
		if b.Scope == core.ScopeCostCenter {
			covered[b.ScopeID] = true
		}
	}
	for _, c := range centers {
		if !covered[c.ID] {
			total += c.Budget
		}
	}
	return total
}

// costCenterBudget resolves the budget for one cost center: the explicit
// record wins, the nominal amount is the fallback.
func costCenterBudget(c core.CostCenter, budgets []core.Budget) float64 {
	for _, b := range budgets {
		if b.Scope == core.ScopeCostCenter && b.ScopeID == c.ID {
			return b.Amount
		}
	}
	return c.Budget
}

func buildExpenseAnalytics(windowed, all []core.Expense, byCategory []Group, totalSpent float64, opts Options) ExpenseAnalytics {
	out := ExpenseAnalytics{
		CountsByStatus: make(map[core.ExpenseStatus]int),
		TotalAmount:    totalSpent,
	}
	for _, e := range windowed {
		out.CountsByStatus[e.Status]++
		switch {
		case e.Status == core.ExpenseApproved || e.Status == core.ExpensePaid:
			out.ApprovedAmount += e.Amount
		case e.Status.IsPending():
			out.PendingAmount += e.Amount
			out.PendingCount++
		}
	}

	top := TopN(byCategory, opts.TopCategories)
	out.TopCategories = make([]CategoryShare, 0, len(top))
	for _, g := range top {
		out.TopCategories = append(out.TopCategories, CategoryShare{
			Category:     g.Key,
			Amount:       g.Sum,
			Count:        g.Count,
			SharePercent: UtilizationPercent(g.Sum, totalSpent),
		})
	}

	// Month comparisons always look at whole calendar months. A short
	// window must not truncate the previous month's total.
	out.CurrentMonthAmount, out.PreviousMonthAmount = monthSums(all, opts.Now)
	out.MonthOverMonthPercent = ChangePercent(out.CurrentMonthAmount, out.PreviousMonthAmount)
	return out
}

// monthSums totals the current and previous calendar month's spend, from
// real aggregates rather than placeholders.
func monthSums(expenses []core.Expense, now time.Time) (current, previous float64) {
	prev := now.AddDate(0, -1, 0)
	for _, e := range expenses {
		if e.Date.IsZero() || !e.Status.CountsAsSpent() {
			continue
		}
		switch monthKey(e.Date) {
		case monthKey(now):
			current += e.Amount
		case monthKey(prev):
			previous += e.Amount
		}
	}
	return current, previous
}

func buildInvoiceAnalytics(invoices []core.Invoice, w core.TimeWindow, now time.Time) InvoiceAnalytics {
	out := InvoiceAnalytics{
		CountsByStatus: make(map[core.InvoiceStatus]int),
	}
	prev := now.AddDate(0, -1, 0)

	for _, inv := range invoices {
		// Month comparisons span whole calendar months regardless of the
		// report window.
		status := inv.EffectiveStatus(now)
		if !inv.IssueDate.IsZero() && status != core.InvoiceCancelled {
			switch monthKey(inv.IssueDate) {
			case monthKey(now):
				out.CurrentMonthAmount += inv.Total
			case monthKey(prev):
				out.PreviousMonthAmount += inv.Total
			}
		}

		if !w.IsZero() && !w.Contains(inv.IssueDate) {
			continue
		}
		out.CountsByStatus[status]++
		if status == core.InvoiceOverdue {
			out.OverdueCount++
		}
		if status != core.InvoiceCancelled {
			out.TotalAmount += inv.Total
		}
		if d, ok := inv.PaymentDays(); ok {
			out.PaymentDaysTotal += d
			out.PaidCount++
		}
	}

	out.AveragePaymentDays = AverageAmount(out.PaymentDaysTotal, out.PaidCount)
	out.MonthOverMonthPercent = ChangePercent(out.CurrentMonthAmount, out.PreviousMonthAmount)
	return out
}

func buildBudgetSummaries(snap *core.Snapshot, windowed []core.Expense) []BudgetSummary {
	spent := spentExpenses(windowed)
	names := make(map[string]string, len(snap.CostCenters))
	for _, c := range snap.CostCenters {
		names[c.ID] = c.Name
	}

	var rows []BudgetSummary
	covered := make(map[string]bool)
	for _, b := range snap.Budgets {
		row := BudgetSummary{
			ID:          b.ID,
			Name:        budgetName(b, names),
			Scope:       b.Scope,
			WorkspaceID: b.WorkspaceID,
			Allocated:   b.Amount,
			Spent:       scopedSpend(spent, b.Scope, b.ScopeID),
		}
		finishBudgetRow(&row)
		rows = append(rows, row)
		if b.Scope == core.ScopeCostCenter {
			covered[b.ScopeID] = true
		}
	}

	// Cost centers without an explicit budget fall back to their nominal
	// amount so every center still gets a row.
	for _, c := range snap.CostCenters {
		if covered[c.ID] {
			continue
		}
		row := BudgetSummary{
			ID:          c.ID,
			Name:        c.Name,
			Scope:       core.ScopeCostCenter,
			WorkspaceID: c.WorkspaceID,
			Allocated:   c.Budget,
			Spent:       scopedSpend(spent, core.ScopeCostCenter, c.ID),
		}
		finishBudgetRow(&row)
		rows = append(rows, row)
	}

	return rows
}

func budgetName(b core.Budget, costCenterNames map[string]string) string {
	if b.Scope == core.ScopeCostCenter {
		if n, ok := costCenterNames[b.ScopeID]; ok {
			return n
		}
	}
	if b.ScopeID != "" {
		return string(b.Scope) + " " + b.ScopeID
	}
	return string(b.Scope)
}

func scopedSpend(spent []core.Expense, scope core.BudgetScope, scopeID string) float64 {
	var total float64
	for _, e := range spent {
		switch scope {
		case core.ScopeCostCenter:
			if e.CostCenterID == scopeID {
				total += e.Amount
			}
		case core.ScopeDepartment:
			if e.Department == scopeID {
				total += e.Amount
			}
		case core.ScopeProject:
			if e.ProjectID == scopeID {
				total += e.Amount
			}
		case core.ScopeWorkspace:
			total += e.Amount
		}
	}
	return total
}

func finishBudgetRow(row *BudgetSummary) {
	row.Remaining = row.Allocated - row.Spent
	row.UtilizationPercent = UtilizationPercent(row.Spent, row.Allocated)
	switch {
	case row.UtilizationPercent > 100:
		row.Status = BudgetExceeded
	case row.UtilizationPercent > 80:
		row.Status = BudgetWarning
	default:
		row.Status = BudgetOnTrack
	}
}

func buildProjectHealth(snap *core.Snapshot, now time.Time) []ProjectHealth {
	tasksByProject := make(map[string][]core.Task)
	for _, t := range snap.Tasks {
		tasksByProject[t.ProjectID] = append(tasksByProject[t.ProjectID], t)
	}

	rows := make([]ProjectHealth, 0, len(snap.Projects))
	for _, p := range snap.Projects {
		tasks := tasksByProject[p.ID]
		row := ProjectHealth{
			ProjectID:   p.ID,
			Name:        p.Name,
			Status:      p.Status,
			WorkspaceID: p.WorkspaceID,
			TotalTasks:  len(tasks),
			DaysOverdue: p.DaysOverdue(now),
		}

		var onTime int
		for _, t := range tasks {
			if t.Status == core.TaskCompleted {
				row.CompletedTasks++
				if t.CompletedOnTime() {
					onTime++
				}
			}
			if t.IsOverdue(now) {
				row.OverdueTasks++
			}
			if t.IsBlocked() {
				row.BlockedTasks++
			}
		}
		row.CompletionRate = CompletionRate(row.CompletedTasks, row.TotalTasks)
		row.OnTimeRate = OnTimeDeliveryRate(onTime, row.CompletedTasks)

		row.RiskScore = ProjectRiskFactors{
			Status:             p.Status,
			DaysOverdue:        row.DaysOverdue,
			CompletionRate:     row.CompletionRate,
			OverdueTaskPercent: CompletionRate(row.OverdueTasks, row.TotalTasks),
			BlockedTasks:       row.BlockedTasks,
			OnTimeRate:         row.OnTimeRate,
		}.Score()
		row.Tier = TierForScore(row.RiskScore)

		rows = append(rows, row)
	}
	return rows
}

func buildCostCenterRows(snap *core.Snapshot, windowed []core.Expense) []CostCenterRow {
	spent := spentExpenses(windowed)
	byCenter := GroupSum(spent,
		func(e core.Expense) string { return e.CostCenterID },
		func(e core.Expense) float64 { return e.Amount })
	sums := make(map[string]Group, len(byCenter))
	for _, g := range byCenter {
		sums[g.Key] = g
	}

	rows := make([]CostCenterRow, 0, len(snap.CostCenters))
	for _, c := range snap.CostCenters {
		if !c.Active {
			continue
		}
		g := sums[c.ID]
		budget := costCenterBudget(c, snap.Budgets)
		util := UtilizationPercent(g.Sum, budget)
		variance := VariancePercent(g.Sum, budget)

		rows = append(rows, CostCenterRow{
			ID:                 c.ID,
			Name:               c.Name,
			Code:               c.Code,
			WorkspaceID:        c.WorkspaceID,
			Budget:             budget,
			Spent:              g.Sum,
			Remaining:          budget - g.Sum,
			ExpenseCount:       g.Count,
			UtilizationPercent: util,
			VariancePercent:    variance,
			Efficiency:         Efficiency(g.Count, budget),
			AverageExpense:     AverageAmount(g.Sum, g.Count),
			BudgetAccuracy:     BudgetAccuracy(variance),
			Performance:        CostCenterPerformance(util),
			Risk:               CostCenterRisk(util, variance),
		})
	}
	return rows
}

func buildTrend(all []core.Expense, byCategory []Group, totalBudget, totalSpent float64, opts Options) TrendReport {
	spent := spentExpenses(all)
	buckets := MonthlyBuckets(spent,
		func(e core.Expense) time.Time { return e.Date },
		func(e core.Expense) float64 { return e.Amount },
		opts.TrendMonths, opts.Now)

	report := TrendReport{
		Buckets:            buckets,
		MonthlyBudget:      totalBudget / 12,
		AvgMonthlyVelocity: AverageVelocity(buckets),
		ForecastedSpend:    ForecastSpend(totalSpent, buckets),
	}

	report.CategoryTrends = categoryTrends(spent, byCategory, opts)
	return report
}

// categoryTrends compares each category's current-period spend against an
// equal-length previous period.
func categoryTrends(spent []core.Expense, byCategory []Group, opts Options) []CategoryTrend {
	w := opts.Window
	if w.From.IsZero() {
		w = core.TimeWindow{From: opts.Now.AddDate(0, -1, 0), To: opts.Now}
	}
	length := opts.Now.Sub(w.From)
	if length <= 0 {
		return nil
	}
	previous := core.TimeWindow{From: w.From.Add(-length), To: w.From}
	current := core.TimeWindow{From: w.From, To: opts.Now}

	currentSums := make(map[string]float64)
	previousSums := make(map[string]float64)
	for _, e := range spent {
		switch {
		case current.Contains(e.Date):
			currentSums[e.Category] += e.Amount
		case previous.Contains(e.Date):
			previousSums[e.Category] += e.Amount
		}
	}

	trends := make([]CategoryTrend, 0, len(byCategory))
	for _, g := range byCategory {
		cur, prev := currentSums[g.Key], previousSums[g.Key]
		trends = append(trends, CategoryTrend{
			Category:      g.Key,
			CurrentSum:    cur,
			PreviousSum:   prev,
			ChangePercent: ChangePercent(cur, prev),
			Direction:     Direction(cur, prev),
		})
	}
	return trends
}
