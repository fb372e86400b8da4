package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/gilppon/kaikebu/internal/core"
	"github.com/gilppon/kaikebu/internal/ledger"
	"github.com/gilppon/kaikebu/internal/report"
)

const maxBodyBytes = 1 << 20

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func readJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return false
	}
	return true
}

func scopeParam(r *http.Request) (core.Scope, bool) {
	raw := strings.TrimSpace(r.URL.Query().Get("scope"))
	if raw == "" {
		return report.ScopeAll, true
	}
	scope := core.Scope(raw)
	return scope, scope.Valid()
}

type transactionRequest struct {
	Kind       core.Kind  `json:"kind"`
	Scope      core.Scope `json:"scope"`
	Amount     string     `json:"amount"`
	CategoryID string     `json:"categoryId"`
	Date       core.Date  `json:"date"`
	Memo       string     `json:"memo"`
	ReceiptRef string     `json:"receiptRef"`
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	scope, ok := scopeParam(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid scope")
		return
	}
	limit := 50
	if v := strings.TrimSpace(r.URL.Query().Get("limit")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"transactions": s.svc.Aggregator().RecentTransactions(scope, limit),
	})
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req transactionRequest
	if !readJSON(w, r, &req) {
		return
	}

	units, err := core.ParseDecimalToUnits(req.Amount)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "invalid amount")
		return
	}

	draft := core.TransactionDraft{
		Kind:       req.Kind,
		Scope:      req.Scope,
		Amount:     core.Money{Units: units},
		CategoryID: req.CategoryID,
		Date:       req.Date,
		Memo:       req.Memo,
		ReceiptRef: req.ReceiptRef,
	}
	tx, err := s.svc.RecordTransaction(r.Context(), draft)
	if err != nil {
		if errors.Is(err, ledger.ErrNoActiveUser) {
			writeError(w, http.StatusConflict, err.Error())
			return
		}
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, tx)
}

type transactionPatchRequest struct {
	Kind       *core.Kind  `json:"kind"`
	Scope      *core.Scope `json:"scope"`
	Amount     *string     `json:"amount"`
	CategoryID *string     `json:"categoryId"`
	Date       *core.Date  `json:"date"`
	Memo       *string     `json:"memo"`
	ReceiptRef *string     `json:"receiptRef"`
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	var req transactionPatchRequest
	if !readJSON(w, r, &req) {
		return
	}

	patch := ledger.TransactionPatch{
		Kind:       req.Kind,
		Scope:      req.Scope,
		CategoryID: req.CategoryID,
		Date:       req.Date,
		Memo:       req.Memo,
		ReceiptRef: req.ReceiptRef,
	}
	if req.Amount != nil {
		units, err := core.ParseDecimalToUnits(*req.Amount)
		if err != nil {
			writeError(w, http.StatusUnprocessableEntity, "invalid amount")
			return
		}
		patch.Amount = &core.Money{Units: units}
	}
	if req.Kind != nil && !req.Kind.Valid() {
		writeError(w, http.StatusUnprocessableEntity, "invalid kind")
		return
	}
	if req.Scope != nil && !req.Scope.Valid() {
		writeError(w, http.StatusUnprocessableEntity, "invalid scope")
		return
	}

	s.svc.EditTransaction(r.Context(), id, patch)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	s.svc.DeleteTransaction(r.Context(), r.PathValue("id"))
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"categories": s.svc.Store().Categories(),
	})
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	var req core.Category
	if !readJSON(w, r, &req) {
		return
	}
	created, err := s.svc.CreateCategory(r.Context(), req)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	s.svc.DeleteCategory(r.Context(), r.PathValue("id"))
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListBudgets(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"budgets": s.svc.Store().Budgets(),
	})
}

type budgetRequest struct {
	HouseholdID     string            `json:"householdId"`
	Month           string            `json:"month"`
	Scope           core.Scope        `json:"scope"`
	Total           string            `json:"totalBudget"`
	CategoryBudgets map[string]string `json:"categoryBudgets"`
}

func (s *Server) handleSetBudget(w http.ResponseWriter, r *http.Request) {
	var req budgetRequest
	if !readJSON(w, r, &req) {
		return
	}

	total, err := core.ParseDecimalToUnits(req.Total)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "invalid total budget")
		return
	}
	budget := core.Budget{
		HouseholdID: req.HouseholdID,
		Month:       req.Month,
		Scope:       req.Scope,
		Total:       core.Money{Units: total},
	}
	if len(req.CategoryBudgets) > 0 {
		budget.CategoryBudgets = make(map[string]core.Money, len(req.CategoryBudgets))
		for cat, raw := range req.CategoryBudgets {
			units, err := core.ParseDecimalToUnits(raw)
			if err != nil {
				writeError(w, http.StatusUnprocessableEntity, "invalid category budget for "+cat)
				return
			}
			budget.CategoryBudgets[cat] = core.Money{Units: units}
		}
	}

	if err := s.svc.SetBudget(r.Context(), budget); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	resp := map[string]any{
		"users": s.svc.Store().Users(),
	}
	if user, ok := s.svc.Store().ActiveUser(); ok {
		resp["activeUserId"] = user.ID
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSwitchUser(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID string `json:"userId"`
	}
	if !readJSON(w, r, &req) {
		return
	}
	s.svc.SwitchUser(r.Context(), req.UserID)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSetTone(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Tone core.Tone `json:"tone"`
	}
	if !readJSON(w, r, &req) {
		return
	}
	if err := s.svc.SetTone(r.Context(), r.PathValue("id"), req.Tone); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	scope, ok := scopeParam(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid scope")
		return
	}
	dash, err := s.svc.BuildDashboard(r.Context(), scope, s.now())
	if err != nil {
		if errors.Is(err, ledger.ErrNoActiveUser) {
			writeError(w, http.StatusConflict, err.Error())
			return
		}
		slog.ErrorContext(r.Context(), "Dashboard build failed", "error", err)
		writeError(w, http.StatusInternalServerError, "dashboard unavailable")
		return
	}
	writeJSON(w, http.StatusOK, dash)
}

func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="transactions-`+s.now().Format("2006-01-02")+`.csv"`)
	if err := s.svc.ExportCSV(w); err != nil {
		slog.ErrorContext(r.Context(), "CSV export failed", "error", err)
	}
}

func (s *Server) handleImportCSV(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 8<<20)
	n, err := s.svc.ImportCSV(r.Context(), r.Body)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"imported": n})
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	s.svc.ResetData(r.Context())
	w.WriteHeader(http.StatusNoContent)
}
