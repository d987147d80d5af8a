package analytics

import (
	"testing"

	"finboard/internal/core"
)

func TestProjectRiskScoreHealthy(t *testing.T) {
	f := ProjectRiskFactors{
		Status:         core.ProjectActive,
		CompletionRate: 100,
		OnTimeRate:     100,
	}
	if got := f.Score(); got != 0 {
		t.Fatalf("healthy project must score 0, got %d", got)
	}
	if TierForScore(0) != TierHealthy {
		t.Fatal("score 0 must be healthy")
	}
}

func TestProjectRiskScoreCritical(t *testing.T) {
	// 45 days overdue (+40), 20% completion (+25), 60% overdue tasks (+20).
	f := ProjectRiskFactors{
		Status:             core.ProjectActive,
		DaysOverdue:        45,
		CompletionRate:     20,
		OverdueTaskPercent: 60,
		OnTimeRate:         100,
	}
	got := f.Score()
	if got < 85 {
		t.Fatalf("got %d, want at least 85", got)
	}
	if TierForScore(got) != TierCritical {
		t.Fatalf("score %d must be critical", got)
	}
}

func TestProjectRiskScoreCap(t *testing.T) {
	f := ProjectRiskFactors{
		Status:             core.ProjectPlanning,
		DaysOverdue:        90,
		CompletionRate:     0,
		OverdueTaskPercent: 100,
		BlockedTasks:       10,
		OnTimeRate:         0,
	}
	if got := f.Score(); got != 100 {
		t.Fatalf("score must cap at 100, got %d", got)
	}
}

func TestProjectRiskBands(t *testing.T) {
	cases := []struct {
		name string
		f    ProjectRiskFactors
		want int
	}{
		{"planning status", ProjectRiskFactors{Status: core.ProjectPlanning, CompletionRate: 100, OnTimeRate: 100}, 10},
		{"archived status", ProjectRiskFactors{Status: core.ProjectArchived, CompletionRate: 100, OnTimeRate: 100}, 5},
		{"5 days overdue", ProjectRiskFactors{Status: core.ProjectActive, DaysOverdue: 5, CompletionRate: 100, OnTimeRate: 100}, 20},
		{"20 days overdue", ProjectRiskFactors{Status: core.ProjectActive, DaysOverdue: 20, CompletionRate: 100, OnTimeRate: 100}, 30},
		{"completion 45", ProjectRiskFactors{Status: core.ProjectActive, CompletionRate: 45, OnTimeRate: 100}, 15},
		{"completion 70", ProjectRiskFactors{Status: core.ProjectActive, CompletionRate: 70, OnTimeRate: 100}, 5},
		{"overdue tasks 30%", ProjectRiskFactors{Status: core.ProjectActive, CompletionRate: 100, OnTimeRate: 100, OverdueTaskPercent: 30}, 10},
		{"two blocked tasks", ProjectRiskFactors{Status: core.ProjectActive, CompletionRate: 100, OnTimeRate: 100, BlockedTasks: 2}, 10},
		{"on-time 75", ProjectRiskFactors{Status: core.ProjectActive, CompletionRate: 100, OnTimeRate: 75}, 10},
		{"on-time 50", ProjectRiskFactors{Status: core.ProjectActive, CompletionRate: 100, OnTimeRate: 50}, 15},
	}
	for _, tc := range cases {
		if got := tc.f.Score(); got != tc.want {
			t.Errorf("%s: got %d, want %d", tc.name, got, tc.want)
		}
	}
}

func TestTierForScore(t *testing.T) {
	cases := []struct {
		score int
		want  HealthTier
	}{
		{0, TierHealthy}, {39, TierHealthy},
		{40, TierWarning}, {69, TierWarning},
		{70, TierCritical}, {100, TierCritical},
	}
	for _, tc := range cases {
		if got := TierForScore(tc.score); got != tc.want {
			t.Errorf("TierForScore(%d) = %s, want %s", tc.score, got, tc.want)
		}
	}
}

func TestCostCenterPerformance(t *testing.T) {
	cases := []struct {
		util float64
		want PerformanceRating
	}{
		{70, RatingExcellent}, {90, RatingExcellent},
		{90.5, RatingGood}, {100, RatingGood},
		{100.1, RatingPoor},
		{69.9, RatingAverage}, {0, RatingAverage},
	}
	for _, tc := range cases {
		if got := CostCenterPerformance(tc.util); got != tc.want {
			t.Errorf("CostCenterPerformance(%v) = %s, want %s", tc.util, got, tc.want)
		}
	}
}

func TestCostCenterRisk(t *testing.T) {
	cases := []struct {
		util, variance float64
		want           RiskTier
	}{
		{101, 0, RiskHigh},
		{50, 25, RiskHigh},
		{86, 0, RiskMedium},
		{50, 15, RiskMedium},
		{80, 5, RiskLow},
		{0, 0, RiskLow},
	}
	for _, tc := range cases {
		if got := CostCenterRisk(tc.util, tc.variance); got != tc.want {
			t.Errorf("CostCenterRisk(%v, %v) = %s, want %s", tc.util, tc.variance, got, tc.want)
		}
	}
}

// A center can rate well and still carry risk; the two classifications
// answer different questions and must stay independent.
func TestPerformanceAndRiskDiverge(t *testing.T) {
	util, variance := 95.0, 12.0
	if CostCenterPerformance(util) != RatingGood {
		t.Error("95% utilization must rate good")
	}
	if CostCenterRisk(util, variance) != RiskMedium {
		t.Error("95% utilization with 12% variance must be medium risk")
	}
}
