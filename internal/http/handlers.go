package http

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"finboard/internal/analytics"
	"finboard/internal/core"
)

// envelope is the common JSON response shape: report metadata plus the
// endpoint-specific payload.
type envelope struct {
	Scope       core.WorkspaceScope `json:"scope"`
	GeneratedAt time.Time           `json:"generatedAt"`
	Warnings    []analytics.Warning `json:"warnings,omitempty"`
	Data        any                 `json:"data"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// parseScope reads the workspaces query parameter into a scope, falling
// back to the configured default workspace.
func (s *Server) parseScope(r *http.Request) core.WorkspaceScope {
	raw := strings.TrimSpace(r.URL.Query().Get("workspaces"))
	if raw == "" {
		return core.NewWorkspaceScope(s.defaultWorkspace)
	}
	return core.NewWorkspaceScope(strings.Split(raw, ",")...)
}

// parseWindow reads the window query parameter: either a preset name
// (last-30-days, last-quarter, ...) or a plain month count. Absent means
// the last 30 days.
func (s *Server) parseWindow(r *http.Request) (core.TimeWindow, error) {
	raw := strings.TrimSpace(r.URL.Query().Get("window"))
	now := s.now()
	if raw == "" {
		return core.ResolvePreset(core.WindowLast30Days, now)
	}
	if months, err := strconv.Atoi(raw); err == nil {
		if months < 1 || months > 120 {
			return core.TimeWindow{}, fmt.Errorf("window months must be between 1 and 120, got %d", months)
		}
		return core.TimeWindow{From: now.AddDate(0, -months, 0), To: now}, nil
	}
	return core.ResolvePreset(core.WindowPreset(raw), now)
}

// report resolves scope and window from the request and computes (or
// fetches from cache) the full report. A false return means the response
// has already been written.
func (s *Server) report(w http.ResponseWriter, r *http.Request) (*analytics.Report, bool) {
	window, err := s.parseWindow(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return nil, false
	}
	scope := s.parseScope(r)

	rep, err := s.svc.Report(r.Context(), scope, window)
	if err != nil {
		slog.ErrorContext(r.Context(), "Report computation failed",
			"scope", scope.String(), "error", err)
		writeError(w, http.StatusInternalServerError, "report computation failed")
		return nil, false
	}
	return rep, true
}

func (s *Server) respond(w http.ResponseWriter, rep *analytics.Report, data any) {
	writeJSON(w, http.StatusOK, envelope{
		Scope:       rep.Scope,
		GeneratedAt: rep.GeneratedAt,
		Warnings:    rep.Warnings,
		Data:        data,
	})
}

func (s *Server) handleOverview(w http.ResponseWriter, r *http.Request) {
	rep, ok := s.report(w, r)
	if !ok {
		return
	}
	s.respond(w, rep, rep.Overview)
}

func (s *Server) handleExpenseAnalytics(w http.ResponseWriter, r *http.Request) {
	rep, ok := s.report(w, r)
	if !ok {
		return
	}
	data := struct {
		analytics.ExpenseAnalytics
		ByCategory []analytics.Group `json:"byCategory"`
	}{rep.Expenses, rep.ByCategory}
	s.respond(w, rep, data)
}

func (s *Server) handleInvoiceAnalytics(w http.ResponseWriter, r *http.Request) {
	rep, ok := s.report(w, r)
	if !ok {
		return
	}
	s.respond(w, rep, rep.Invoices)
}

func (s *Server) handleTrend(w http.ResponseWriter, r *http.Request) {
	rep, ok := s.report(w, r)
	if !ok {
		return
	}
	s.respond(w, rep, rep.Trend)
}

func (s *Server) handleBudgets(w http.ResponseWriter, r *http.Request) {
	rep, ok := s.report(w, r)
	if !ok {
		return
	}
	s.respond(w, rep, rep.Budgets)
}

func (s *Server) handleProjectHealth(w http.ResponseWriter, r *http.Request) {
	rep, ok := s.report(w, r)
	if !ok {
		return
	}
	s.respond(w, rep, rep.Projects)
}

func (s *Server) handleCostCenters(w http.ResponseWriter, r *http.Request) {
	rep, ok := s.report(w, r)
	if !ok {
		return
	}
	s.respond(w, rep, rep.CostCenters)
}

func (s *Server) handleAlerts(w http.ResponseWriter, r *http.Request) {
	rep, ok := s.report(w, r)
	if !ok {
		return
	}
	s.respond(w, rep, rep.Alerts)
}

func (s *Server) handleWorkspaces(w http.ResponseWriter, r *http.Request) {
	ids, err := s.svc.Workspaces(r.Context(), s.defaultWorkspace)
	if err != nil {
		slog.ErrorContext(r.Context(), "Workspace listing failed", "error", err)
		writeError(w, http.StatusInternalServerError, "workspace listing failed")
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Workspaces []string `json:"workspaces"`
	}{ids})
}
