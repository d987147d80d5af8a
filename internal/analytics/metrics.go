package analytics

import "math"

// Ratio metrics derived from aggregates. Every function short-circuits a
// zero or negative denominator to 0 so no NaN or Inf ever escapes.
// Percentages are not clamped here; display-level clamping is up to the
// caller.

// UtilizationPercent is spent over budget as a percentage, 0 when the
// budget is not positive.
func UtilizationPercent(spent, budget float64) float64 {
	if budget <= 0 {
		return 0
	}
	return spent / budget * 100
}

// VariancePercent is the budget overrun as a percentage; positive means
// over budget.
func VariancePercent(spent, budget float64) float64 {
	if budget <= 0 {
		return 0
	}
	return (spent - budget) / budget * 100
}

// Efficiency is a unit-less transaction-density score: expense count per
// thousand budget units. Used only for relative comparison.
func Efficiency(expenseCount int, budget float64) float64 {
	if budget <= 0 {
		return 0
	}
	return float64(expenseCount) / budget * 1000
}

// AverageAmount is sum over count, 0 on an empty group.
func AverageAmount(sum float64, count int) float64 {
	if count <= 0 {
		return 0
	}
	return sum / float64(count)
}

// CompletionRate is the completed share of total as a percentage.
func CompletionRate(completed, total int) float64 {
	if total <= 0 {
		return 0
	}
	return float64(completed) / float64(total) * 100
}

// OnTimeDeliveryRate is the on-time share of completed tasks as a
// percentage, where on time means last updated no later than the due date.
func OnTimeDeliveryRate(completedOnTime, completed int) float64 {
	if completed <= 0 {
		return 0
	}
	return float64(completedOnTime) / float64(completed) * 100
}

// BudgetAccuracy scores how close spend landed to budget: 100 at exact,
// falling toward 0 as absolute variance grows.
func BudgetAccuracy(variancePercent float64) float64 {
	return math.Max(0, 100-math.Abs(variancePercent))
}
