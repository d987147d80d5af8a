package analytics

import "finboard/internal/core"

// Health tiers for projects.
const (
	TierHealthy  HealthTier = "healthy"
	TierWarning  HealthTier = "warning"
	TierCritical HealthTier = "critical"
)

// Cost-center performance ratings, used in the comparison view. These rank
// centers relative to each other and deliberately do not agree with the
// risk tiers below.
const (
	RatingExcellent PerformanceRating = "excellent"
	RatingGood      PerformanceRating = "good"
	RatingAverage   PerformanceRating = "average"
	RatingPoor      PerformanceRating = "poor"
)

// Cost-center risk tiers, used in the detailed-analysis view. Variance
// aware and independent of the performance rating: a center can be "good"
// performance and "medium" risk at the same time.
const (
	RiskLow    RiskTier = "low"
	RiskMedium RiskTier = "medium"
	RiskHigh   RiskTier = "high"
)

type (
	HealthTier        string
	PerformanceRating string
	RiskTier          string
)

// ProjectRiskFactors are the derived inputs to the project risk score.
type ProjectRiskFactors struct {
	Status             core.ProjectStatus
	DaysOverdue        int
	CompletionRate     float64
	OverdueTaskPercent float64
	BlockedTasks       int
	OnTimeRate         float64
}

// Score applies the additive weighted rule set and caps the result at 100.
func (f ProjectRiskFactors) Score() int {
	score := 0

	switch f.Status {
	case core.ProjectPlanning:
		score += 10
	case core.ProjectArchived:
		score += 5
	}

	switch {
	case f.DaysOverdue > 30:
		score += 40
	case f.DaysOverdue > 7:
		score += 30
	case f.DaysOverdue > 0:
		score += 20
	}

	switch {
	case f.CompletionRate < 30:
		score += 25
	case f.CompletionRate < 60:
		score += 15
	case f.CompletionRate < 80:
		score += 5
	}

	switch {
	case f.OverdueTaskPercent > 50:
		score += 20
	case f.OverdueTaskPercent > 25:
		score += 10
	}

	score += 5 * f.BlockedTasks

	switch {
	case f.OnTimeRate < 70:
		score += 15
	case f.OnTimeRate < 85:
		score += 10
	}

	if score > 100 {
		score = 100
	}
	return score
}

// TierForScore maps a risk score onto a health tier.
func TierForScore(score int) HealthTier {
	switch {
	case score >= 70:
		return TierCritical
	case score >= 40:
		return TierWarning
	default:
		return TierHealthy
	}
}

// CostCenterPerformance classifies utilization into mutually exclusive
// rating bands.
func CostCenterPerformance(utilization float64) PerformanceRating {
	switch {
	case utilization > 100:
		return RatingPoor
	case utilization > 90:
		return RatingGood
	case utilization >= 70:
		return RatingExcellent
	default:
		return RatingAverage
	}
}

// CostCenterRisk classifies a cost center by utilization and variance.
func CostCenterRisk(utilization, variance float64) RiskTier {
	switch {
	case utilization > 100 || variance > 20:
		return RiskHigh
	case utilization > 85 || variance > 10:
		return RiskMedium
	default:
		return RiskLow
	}
}
