// Package analytics turns raw financial and project records into derived
// analytics: utilization and variance percentages, risk and health scores,
// monthly trend series, short-term forecasts, and threshold alerts.
//
// Everything here is a pure input-to-output transformation. Inputs are
// normalized core.Snapshot values; outputs are plain structs. Nothing is
// persisted, no I/O happens, and a fixed input always produces the same
// output for a fixed reference instant.
//
// Cost centers carry two deliberately independent classifications: the
// PerformanceRating ranks centers against each other by utilization band
// (comparison view), while the RiskTier flags absolute overrun risk from
// utilization and variance (detailed-analysis view). The same center can
// be rated "good" and still sit at "medium" risk; do not unify them.
package analytics
