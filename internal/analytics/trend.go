package analytics

import (
	"time"

	"finboard/internal/core"
)

// DefaultTrendMonths is the lookback window when none is configured.
const DefaultTrendMonths = 6

// velocityMonths is the trailing sub-window used for forecasting.
const velocityMonths = 3

// Trend directions for segment period-over-period comparison.
const (
	TrendUp     TrendDirection = "up"
	TrendDown   TrendDirection = "down"
	TrendStable TrendDirection = "stable"
)

type TrendDirection string

// MonthBucket is one calendar month of aggregated spend.
type MonthBucket struct {
	Label string    `json:"label"` // e.g. "Jan 2025"
	Start time.Time `json:"periodStart"`
	Sum   float64   `json:"sum"`
	Count int       `json:"count"`
}

// ClampTrendMonths snaps a requested window onto the supported sizes.
func ClampTrendMonths(months int) int {
	switch months {
	case 3, 6, 12, 24:
		return months
	default:
		return DefaultTrendMonths
	}
}

// MonthlyBuckets builds exactly `window` consecutive calendar-month
// buckets ending at the month containing now, oldest first. Months with no
// matching records still appear with zero sum and count; records without a
// usable date are skipped.
func MonthlyBuckets[T any](records []T, date func(T) time.Time, amount func(T) float64, window int, now time.Time) []MonthBucket {
	if window < 1 {
		window = DefaultTrendMonths
	}

	buckets := make([]MonthBucket, window)
	index := make(map[string]int, window)
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location()).AddDate(0, -(window - 1), 0)
	for i := range buckets {
		start := first.AddDate(0, i, 0)
		buckets[i] = MonthBucket{
			Label: start.Format("Jan 2006"),
			Start: start,
		}
		index[monthKey(start)] = i
	}

	for _, r := range records {
		d := date(r)
		if d.IsZero() {
			continue
		}
		i, ok := index[monthKey(d)]
		if !ok {
			continue
		}
		buckets[i].Sum += core.SanitizeAmount(amount(r))
		buckets[i].Count++
	}

	return buckets
}

func monthKey(t time.Time) string {
	return t.Format("2006-01")
}

// AverageVelocity is the mean monthly spend over the last three buckets,
// or over however many exist when fewer.
func AverageVelocity(buckets []MonthBucket) float64 {
	n := len(buckets)
	if n == 0 {
		return 0
	}
	take := velocityMonths
	if n < take {
		take = n
	}
	var sum float64
	for _, b := range buckets[n-take:] {
		sum += b.Sum
	}
	return sum / float64(take)
}

// ForecastSpend projects spend three months ahead from recent velocity.
func ForecastSpend(totalSpentToDate float64, buckets []MonthBucket) float64 {
	return totalSpentToDate + AverageVelocity(buckets)*velocityMonths
}

// ChangePercent is the relative change from previous to current, 0 when
// there is no previous-period base to compare against.
func ChangePercent(current, previous float64) float64 {
	if previous <= 0 {
		return 0
	}
	return (current - previous) / previous * 100
}

// Direction classifies a period-over-period change: more than +10% is up,
// less than -10% is down. A segment with no previous-period spend is
// always stable, never infinite growth.
func Direction(current, previous float64) TrendDirection {
	if previous <= 0 {
		return TrendStable
	}
	change := ChangePercent(current, previous)
	switch {
	case change > 10:
		return TrendUp
	case change < -10:
		return TrendDown
	default:
		return TrendStable
	}
}
