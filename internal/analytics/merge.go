package analytics

import "finboard/internal/core"

// DedupeByID concatenates per-entity rows across scopes keeping the first
// occurrence of each id. An entity belongs to exactly one workspace, so
// rows are never merged, only deduplicated.
func DedupeByID[T any](rows []T, id func(T) string) []T {
	seen := make(map[string]struct{}, len(rows))
	out := make([]T, 0, len(rows))
	for _, r := range rows {
		k := id(r)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, r)
	}
	return out
}

// Merge combines per-workspace reports into one consolidated view: keyed
// sums by additive union, numeric totals summed, per-entity rows
// concatenated and deduplicated by id, ratios recomputed from the merged
// totals. Workspaces whose fetch failed appear only in warnings; merging
// zero reports yields an empty-but-valid result.
func Merge(reports []*Report, warnings []Warning, opts Options) *Report {
	opts = opts.withDefaults()

	merged := &Report{
		GeneratedAt: opts.Now,
		Warnings:    warnings,
		Expenses: ExpenseAnalytics{
			CountsByStatus: make(map[core.ExpenseStatus]int),
		},
		Invoices: InvoiceAnalytics{
			CountsByStatus: make(map[core.InvoiceStatus]int),
		},
	}

	var scopes []string
	categorySets := make([][]Group, 0, len(reports))
	bucketSets := make([][]MonthBucket, 0, len(reports))

	for _, r := range reports {
		if r == nil {
			continue
		}
		scopes = append(scopes, r.Scope...)
		categorySets = append(categorySets, r.ByCategory)
		bucketSets = append(bucketSets, r.Trend.Buckets)

		merged.Overview.TotalBudget += r.Overview.TotalBudget
		merged.Overview.TotalSpent += r.Overview.TotalSpent

		for st, n := range r.Expenses.CountsByStatus {
			merged.Expenses.CountsByStatus[st] += n
		}
		merged.Expenses.TotalAmount += r.Expenses.TotalAmount
		merged.Expenses.ApprovedAmount += r.Expenses.ApprovedAmount
		merged.Expenses.PendingAmount += r.Expenses.PendingAmount
		merged.Expenses.PendingCount += r.Expenses.PendingCount
		merged.Expenses.CurrentMonthAmount += r.Expenses.CurrentMonthAmount
		merged.Expenses.PreviousMonthAmount += r.Expenses.PreviousMonthAmount

		for st, n := range r.Invoices.CountsByStatus {
			merged.Invoices.CountsByStatus[st] += n
		}
		merged.Invoices.TotalAmount += r.Invoices.TotalAmount
		merged.Invoices.OverdueCount += r.Invoices.OverdueCount
		merged.Invoices.PaidCount += r.Invoices.PaidCount
		merged.Invoices.PaymentDaysTotal += r.Invoices.PaymentDaysTotal
		merged.Invoices.CurrentMonthAmount += r.Invoices.CurrentMonthAmount
		merged.Invoices.PreviousMonthAmount += r.Invoices.PreviousMonthAmount

		merged.Budgets = append(merged.Budgets, r.Budgets...)
		merged.Projects = append(merged.Projects, r.Projects...)
		merged.CostCenters = append(merged.CostCenters, r.CostCenters...)
	}

	merged.Scope = core.NewWorkspaceScope(scopes...)
	merged.ByCategory = MergeGroups(categorySets...)

	merged.Budgets = DedupeByID(merged.Budgets, func(b BudgetSummary) string { return b.ID })
	merged.Projects = DedupeByID(merged.Projects, func(p ProjectHealth) string { return p.ProjectID })
	merged.CostCenters = DedupeByID(merged.CostCenters, func(c CostCenterRow) string { return c.ID })

	finishMergedOverview(merged, opts)
	finishMergedExpenses(merged, opts)
	finishMergedInvoices(merged)
	merged.Trend = mergeTrends(bucketSets, reports, merged.Overview, opts)

	// Alerts regenerate on the consolidated metrics: a backlog that only
	// crosses the threshold in aggregate still fires here.
	merged.Alerts = GenerateAlerts(merged.Budgets, merged.Expenses.PendingCount, merged.Invoices.OverdueCount, opts.Thresholds)

	return merged
}

func finishMergedOverview(r *Report, opts Options) {
	o := &r.Overview
	o.TotalRemaining = o.TotalBudget - o.TotalSpent
	o.UtilizationPercent = UtilizationPercent(o.TotalSpent, o.TotalBudget)
	o.BurnRatePercent = o.UtilizationPercent / float64(opts.Window.Months())
	o.SpendingTrendPercent = ChangePercent(r.Expenses.CurrentMonthAmount, r.Expenses.PreviousMonthAmount)
}

func finishMergedExpenses(r *Report, opts Options) {
	e := &r.Expenses
	e.MonthOverMonthPercent = ChangePercent(e.CurrentMonthAmount, e.PreviousMonthAmount)

	top := TopN(r.ByCategory, opts.TopCategories)
	e.TopCategories = make([]CategoryShare, 0, len(top))
	for _, g := range top {
		e.TopCategories = append(e.TopCategories, CategoryShare{
			Category:     g.Key,
			Amount:       g.Sum,
			Count:        g.Count,
			SharePercent: UtilizationPercent(g.Sum, e.TotalAmount),
		})
	}
}

func finishMergedInvoices(r *Report) {
	i := &r.Invoices
	i.AveragePaymentDays = AverageAmount(i.PaymentDaysTotal, i.PaidCount)
	i.MonthOverMonthPercent = ChangePercent(i.CurrentMonthAmount, i.PreviousMonthAmount)
}

// mergeTrends adds bucket series element-wise. All reports in a run share
// the same window and reference instant, so the series align by index.
func mergeTrends(bucketSets [][]MonthBucket, reports []*Report, overview Overview, opts Options) TrendReport {
	buckets := make([]MonthBucket, 0, opts.TrendMonths)
	for _, set := range bucketSets {
		for i, b := range set {
			if i == len(buckets) {
				buckets = append(buckets, MonthBucket{Label: b.Label, Start: b.Start})
			}
			if i < len(buckets) {
				buckets[i].Sum += b.Sum
				buckets[i].Count += b.Count
			}
		}
	}

	trend := TrendReport{
		Buckets:            buckets,
		MonthlyBudget:      overview.TotalBudget / 12,
		AvgMonthlyVelocity: AverageVelocity(buckets),
		ForecastedSpend:    ForecastSpend(overview.TotalSpent, buckets),
	}

	// Category trends merge on current/previous sums, then reclassify.
	type pair struct{ cur, prev float64 }
	sums := make(map[string]pair)
	var order []string
	for _, r := range reports {
		if r == nil {
			continue
		}
		for _, ct := range r.Trend.CategoryTrends {
			if _, ok := sums[ct.Category]; !ok {
				order = append(order, ct.Category)
			}
			p := sums[ct.Category]
			p.cur += ct.CurrentSum
			p.prev += ct.PreviousSum
			sums[ct.Category] = p
		}
	}
	for _, cat := range order {
		p := sums[cat]
		trend.CategoryTrends = append(trend.CategoryTrends, CategoryTrend{
			Category:      cat,
			CurrentSum:    p.cur,
			PreviousSum:   p.prev,
			ChangePercent: ChangePercent(p.cur, p.prev),
			Direction:     Direction(p.cur, p.prev),
		})
	}

	return trend
}
