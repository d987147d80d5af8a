package analytics

import (
	"math"
	"testing"
	"time"

	"finboard/internal/core"
)

var trendNow = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

func expenseAt(amount float64, date time.Time) core.Expense {
	return core.Expense{Amount: amount, Date: date, Status: core.ExpenseApproved}
}

func expenseDate(e core.Expense) time.Time { return e.Date }

func buildBuckets(records []core.Expense, window int) []MonthBucket {
	return MonthlyBuckets(records, expenseDate, expenseAmount, window, trendNow)
}

func TestMonthlyBucketsShape(t *testing.T) {
	for _, window := range []int{3, 6, 12, 24} {
		buckets := buildBuckets(nil, window)
		if len(buckets) != window {
			t.Fatalf("window %d: got %d buckets", window, len(buckets))
		}
		// Oldest first, consecutive months, no gaps, ending at "now".
		for i := 1; i < len(buckets); i++ {
			if !buckets[i].Start.Equal(buckets[i-1].Start.AddDate(0, 1, 0)) {
				t.Fatalf("window %d: gap between bucket %d and %d", window, i-1, i)
			}
		}
		last := buckets[len(buckets)-1].Start
		if last.Year() != trendNow.Year() || last.Month() != trendNow.Month() {
			t.Fatalf("window %d: last bucket %v not the current month", window, last)
		}
		for _, b := range buckets {
			if b.Sum != 0 || b.Count != 0 {
				t.Fatalf("empty input bucket must be zero: %+v", b)
			}
		}
	}
}

func TestMonthlyBucketsAssignment(t *testing.T) {
	records := []core.Expense{
		expenseAt(100, time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)),
		expenseAt(50, time.Date(2025, 6, 28, 0, 0, 0, 0, time.UTC)),
		expenseAt(200, time.Date(2025, 4, 10, 0, 0, 0, 0, time.UTC)),
		expenseAt(999, time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)), // outside window
		expenseAt(1, time.Time{}),                                   // undated, skipped
	}

	buckets := buildBuckets(records, 6)
	if got := buckets[5].Sum; got != 150 {
		t.Errorf("June sum = %v, want 150", got)
	}
	if got := buckets[5].Count; got != 2 {
		t.Errorf("June count = %d, want 2", got)
	}
	if got := buckets[3].Sum; got != 200 {
		t.Errorf("April sum = %v, want 200", got)
	}
	if got := buckets[0].Sum; got != 0 {
		t.Errorf("January must be empty, got %v", got)
	}
}

func TestMonthlyBucketsLabel(t *testing.T) {
	buckets := buildBuckets(nil, 3)
	if buckets[0].Label != "Apr 2025" || buckets[2].Label != "Jun 2025" {
		t.Errorf("unexpected labels: %q, %q", buckets[0].Label, buckets[2].Label)
	}
}

func TestAverageVelocity(t *testing.T) {
	buckets := []MonthBucket{{Sum: 10}, {Sum: 100}, {Sum: 200}, {Sum: 300}}
	if got := AverageVelocity(buckets); got != 200 {
		t.Errorf("got %v, want mean of last 3 = 200", got)
	}

	short := []MonthBucket{{Sum: 100}, {Sum: 200}}
	if got := AverageVelocity(short); got != 150 {
		t.Errorf("got %v, want mean of available = 150", got)
	}

	if got := AverageVelocity(nil); got != 0 {
		t.Errorf("no buckets velocity = %v, want 0", got)
	}
}

func TestForecastFinite(t *testing.T) {
	got := ForecastSpend(500, []MonthBucket{{Sum: 100}})
	if got != 800 {
		t.Errorf("got %v, want 500 + 100*3 = 800", got)
	}

	// Fewer than 3 buckets must still be finite and non-negative.
	for _, buckets := range [][]MonthBucket{nil, {{Sum: 0}}, {{Sum: 10}, {Sum: 20}}} {
		f := ForecastSpend(0, buckets)
		if math.IsNaN(f) || math.IsInf(f, 0) || f < 0 {
			t.Errorf("forecast %v must be finite and non-negative", f)
		}
	}
}

func TestDirection(t *testing.T) {
	cases := []struct {
		current, previous float64
		want              TrendDirection
	}{
		{120, 100, TrendUp},
		{80, 100, TrendDown},
		{105, 100, TrendStable},
		{95, 100, TrendStable},
		{500, 0, TrendStable}, // no previous base, never infinite growth
		{0, 0, TrendStable},
	}
	for _, tc := range cases {
		if got := Direction(tc.current, tc.previous); got != tc.want {
			t.Errorf("Direction(%v, %v) = %s, want %s", tc.current, tc.previous, got, tc.want)
		}
	}
}

func TestChangePercent(t *testing.T) {
	if got := ChangePercent(150, 100); got != 50 {
		t.Errorf("got %v, want 50", got)
	}
	if got := ChangePercent(150, 0); got != 0 {
		t.Errorf("zero base change = %v, want 0", got)
	}
}

func TestClampTrendMonths(t *testing.T) {
	for in, want := range map[int]int{3: 3, 6: 6, 12: 12, 24: 24, 0: 6, 7: 6, -1: 6} {
		if got := ClampTrendMonths(in); got != want {
			t.Errorf("ClampTrendMonths(%d) = %d, want %d", in, got, want)
		}
	}
}
