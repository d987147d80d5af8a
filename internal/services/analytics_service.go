package services

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"finboard/internal/amqp"
	"finboard/internal/analytics"
	"finboard/internal/cache"
	"finboard/internal/core"
	"finboard/internal/log"
	"finboard/internal/supply"
)

// AnalyticsServiceConfig holds tuning knobs for report computation
type AnalyticsServiceConfig struct {
	// FanOutLimit caps concurrent per-workspace snapshot fetches (default: 4)
	FanOutLimit int

	// CacheSize is the max number of reports kept in memory (default: 128)
	CacheSize int

	// CacheTTL is how long a cached report stays fresh (default: 1m)
	CacheTTL time.Duration

	// TrendMonths is the monthly-trend lookback (default: 6)
	TrendMonths int

	// TopCategories limits category breakdowns (default: 5)
	TopCategories int

	// Thresholds drive alert generation
	Thresholds analytics.AlertThresholds
}

// DefaultAnalyticsServiceConfig returns sensible defaults
func DefaultAnalyticsServiceConfig() AnalyticsServiceConfig {
	return AnalyticsServiceConfig{
		FanOutLimit:   4,
		CacheSize:     128,
		CacheTTL:      time.Minute,
		TrendMonths:   analytics.DefaultTrendMonths,
		TopCategories: 5,
		Thresholds:    analytics.DefaultThresholds(),
	}
}

// AnalyticsService orchestrates report computation across the supply
// backend and AMQP. Reports are cached per scope and window; alerts found
// during a fresh computation are published best-effort.
type AnalyticsService struct {
	supplier   supply.Reader
	amqpClient *amqp.Client
	reports    *cache.LRUCache[*analytics.Report]
	config     AnalyticsServiceConfig

	// now is replaceable in tests
	now func() time.Time
}

func NewAnalyticsService(supplier supply.Reader, amqpClient *amqp.Client, config AnalyticsServiceConfig) *AnalyticsService {
	if config.FanOutLimit <= 0 {
		config.FanOutLimit = 4
	}
	if config.CacheSize <= 0 {
		config.CacheSize = 128
	}
	if config.CacheTTL <= 0 {
		config.CacheTTL = time.Minute
	}
	return &AnalyticsService{
		supplier:   supplier,
		amqpClient: amqpClient,
		reports:    cache.NewLRUCache[*analytics.Report](config.CacheSize, config.CacheTTL),
		config:     config,
		now:        time.Now,
	}
}

// ReportCache exposes the underlying cache for cleanup registration
func (s *AnalyticsService) ReportCache() *cache.LRUCache[*analytics.Report] {
	return s.reports
}

// Report computes the full analytics report for the given scope and window.
// Multi-workspace scopes fan out concurrently; a workspace whose snapshot
// cannot be fetched becomes a warning on the merged report rather than an
// error, as long as at least one workspace succeeds.
func (s *AnalyticsService) Report(ctx context.Context, scope core.WorkspaceScope, window core.TimeWindow) (*analytics.Report, error) {
	if len(scope) == 0 {
		return nil, fmt.Errorf("empty workspace scope")
	}

	key := reportCacheKey(scope, window)
	if cached, ok := s.reports.Get(key); ok {
		slog.DebugContext(ctx, "Report cache hit", "key", key)
		return cached, nil
	}

	opts := analytics.Options{
		Window:        window,
		TrendMonths:   s.config.TrendMonths,
		TopCategories: s.config.TopCategories,
		Thresholds:    s.config.Thresholds,
		Now:           s.now(),
	}

	built := make([]*analytics.Report, len(scope))
	failures := make([]error, len(scope))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.config.FanOutLimit)
	for i, workspaceID := range scope {
		g.Go(func() error {
			snap, err := s.supplier.Snapshot(gctx, workspaceID)
			if err != nil {
				failures[i] = err
				return nil
			}
			built[i] = analytics.Build(snap, opts)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("fetch snapshots: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var (
		reports  []*analytics.Report
		warnings []analytics.Warning
	)
	for i, workspaceID := range scope {
		if failures[i] != nil {
			slog.WarnContext(ctx, "Workspace snapshot failed",
				log.FieldWorkspaceID, workspaceID, log.FieldError, failures[i])
			warnings = append(warnings, analytics.Warning{
				WorkspaceID: workspaceID,
				Message:     failures[i].Error(),
			})
			continue
		}
		reports = append(reports, built[i])
	}
	if len(reports) == 0 {
		return nil, fmt.Errorf("no workspace in scope %q could be read", scope.String())
	}

	var report *analytics.Report
	if len(reports) == 1 && len(warnings) == 0 {
		report = reports[0]
	} else {
		report = analytics.Merge(reports, warnings, opts)
	}

	s.reports.Set(key, report)
	s.publishAlerts(ctx, report)

	return report, nil
}

// Workspaces lists the workspace ids known to the supply backend, sorted.
// Backends that cannot enumerate workspaces yield just the fallback id.
func (s *AnalyticsService) Workspaces(ctx context.Context, fallback string) ([]string, error) {
	lister, ok := s.supplier.(supply.WorkspaceLister)
	if !ok {
		return []string{fallback}, nil
	}
	ids, err := lister.Workspaces(ctx)
	if err != nil {
		return nil, fmt.Errorf("list workspaces: %w", err)
	}
	if len(ids) == 0 {
		return []string{fallback}, nil
	}
	sort.Strings(ids)
	return ids, nil
}

// Invalidate drops the cached report for a scope and window, forcing the
// next request to recompute.
func (s *AnalyticsService) Invalidate(scope core.WorkspaceScope, window core.TimeWindow) {
	s.reports.Delete(reportCacheKey(scope, window))
}

// publishAlerts pushes freshly generated alerts to the broker. Delivery is
// best-effort: a missing client or a publish failure degrades to a log line
// and never fails the analytics request.
func (s *AnalyticsService) publishAlerts(ctx context.Context, report *analytics.Report) {
	if s.amqpClient == nil || len(report.Alerts) == 0 {
		return
	}
	for _, alert := range report.Alerts {
		if err := s.amqpClient.PublishAlert(ctx, report.Scope, alert); err != nil {
			fields := log.NewFields().
				WithOperation(log.OpPublish).
				WithScope(report.Scope.String()).
				WithAlert(string(alert.Kind), string(alert.Severity)).
				WithError(err)
			slog.WarnContext(ctx, "Failed to publish alert", fields.ToSlice()...)
		}
	}
}

// Close releases the AMQP connection if one was configured
func (s *AnalyticsService) Close() error {
	if s.amqpClient == nil {
		return nil
	}
	if err := s.amqpClient.Close(); err != nil {
		return fmt.Errorf("close analytics service: %w", err)
	}
	return nil
}

func reportCacheKey(scope core.WorkspaceScope, window core.TimeWindow) string {
	return fmt.Sprintf("%s|%d|%d", scope.String(), window.From.Unix(), window.To.Unix())
}
