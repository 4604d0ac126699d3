// Package server exposes the ledger over a JSON HTTP API.
package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/codetoailtt/stalk-finance-by-Codetoli-Technology-sub000/internal/ledger"
	"github.com/codetoailtt/stalk-finance-by-Codetoli-Technology-sub000/internal/store"
	"github.com/codetoailtt/stalk-finance-by-Codetoli-Technology-sub000/pkg/emi"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type handler struct {
	ledger  *ledger.Ledger
	logger  *zap.Logger
	version string
}

// NewHandler constructs the HTTP handler that serves the ledger API.
func NewHandler(logger *zap.Logger, l *ledger.Ledger, version string) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}

	trimmedVersion := strings.TrimSpace(version)
	if trimmedVersion == "" {
		trimmedVersion = "dev"
	}

	h := &handler{ledger: l, logger: logger, version: trimmedVersion}

	router := mux.NewRouter()
	router.HandleFunc("/api/loans", h.handleCreateLoan).Methods(http.MethodPost)
	router.HandleFunc("/api/loans", h.handleListLoans).Methods(http.MethodGet)
	router.HandleFunc("/api/loans/{id}", h.handleGetLoan).Methods(http.MethodGet)
	router.HandleFunc("/api/loans/{id}/status", h.handleSetStatus).Methods(http.MethodPost)
	router.HandleFunc("/api/loans/{id}/emi/start", h.handleStartEMI).Methods(http.MethodPost)
	router.HandleFunc("/api/loans/{id}/emi/status", h.handleEMIStatus).Methods(http.MethodGet)
	router.HandleFunc("/api/loans/{id}/schedule", h.handleSchedule).Methods(http.MethodGet)
	router.HandleFunc("/api/loans/{id}/payments", h.handleRecordPayment).Methods(http.MethodPost)
	router.HandleFunc("/api/loans/{id}/penalty/refresh", h.handleRefreshPenalty).Methods(http.MethodPost)
	router.HandleFunc("/api/loans/{id}/penalty/waive", h.handleWaivePenalty).Methods(http.MethodPost)
	router.HandleFunc("/api/version", h.handleVersion).Methods(http.MethodGet)

	return router
}

type createLoanRequest struct {
	Principal    decimal.Decimal `json:"principalAmount"`
	AnnualRate   decimal.Decimal `json:"annualRatePercent"`
	TenureMonths int             `json:"tenureMonths"`
}

func (h *handler) handleCreateLoan(w http.ResponseWriter, r *http.Request) {
	var req createLoanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}

	loan, err := h.ledger.CreateLoan(req.Principal, req.AnnualRate, req.TenureMonths, time.Now())
	if err != nil {
		h.respondLedgerError(w, "server.handleCreateLoan", err)
		return
	}
	h.writeJSON(w, http.StatusCreated, loan)
}

func (h *handler) handleListLoans(w http.ResponseWriter, r *http.Request) {
	loans, err := h.ledger.ListLoans()
	if err != nil {
		h.respondLedgerError(w, "server.handleListLoans", err)
		return
	}
	h.writeJSON(w, http.StatusOK, loans)
}

func (h *handler) handleGetLoan(w http.ResponseWriter, r *http.Request) {
	id, ok := h.loanID(w, r)
	if !ok {
		return
	}
	loan, err := h.ledger.GetLoan(id)
	if err != nil {
		h.respondLedgerError(w, "server.handleGetLoan", err)
		return
	}
	h.writeJSON(w, http.StatusOK, loan)
}

type setStatusRequest struct {
	Status string `json:"status"`
}

func (h *handler) handleSetStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := h.loanID(w, r)
	if !ok {
		return
	}
	var req setStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}

	loan, err := h.ledger.SetStatus(r.Context(), id, emi.Status(req.Status), time.Now())
	if err != nil {
		h.respondLedgerError(w, "server.handleSetStatus", err)
		return
	}
	h.writeJSON(w, http.StatusOK, loan)
}

type startEMIRequest struct {
	DueDay int `json:"emiDueDay"`
}

func (h *handler) handleStartEMI(w http.ResponseWriter, r *http.Request) {
	id, ok := h.loanID(w, r)
	if !ok {
		return
	}
	var req startEMIRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}

	loan, err := h.ledger.StartEMI(r.Context(), id, req.DueDay, time.Now())
	if err != nil {
		h.respondLedgerError(w, "server.handleStartEMI", err)
		return
	}
	h.writeJSON(w, http.StatusOK, loan)
}

func (h *handler) handleEMIStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := h.loanID(w, r)
	if !ok {
		return
	}
	now, explicit, err := h.asOf(r)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	// Injected instants must not be answered from the wall-clock snapshot.
	var derivation emi.Derivation
	if explicit {
		derivation, err = h.ledger.SummaryAt(r.Context(), id, now)
	} else {
		derivation, err = h.ledger.Summary(r.Context(), id, now)
	}
	if err != nil {
		h.respondLedgerError(w, "server.handleEMIStatus", err)
		return
	}
	h.writeJSON(w, http.StatusOK, derivation)
}

func (h *handler) handleSchedule(w http.ResponseWriter, r *http.Request) {
	id, ok := h.loanID(w, r)
	if !ok {
		return
	}
	now, _, err := h.asOf(r)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	entries, err := h.ledger.ScheduleFor(id, now)
	if err != nil {
		h.respondLedgerError(w, "server.handleSchedule", err)
		return
	}
	h.writeJSON(w, http.StatusOK, entries)
}

type recordPaymentRequest struct {
	Amount         decimal.Decimal `json:"amount"`
	IncludePenalty bool            `json:"includePenalty"`
}

func (h *handler) handleRecordPayment(w http.ResponseWriter, r *http.Request) {
	id, ok := h.loanID(w, r)
	if !ok {
		return
	}
	var req recordPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}

	payment, err := h.ledger.RecordPayment(r.Context(), id, req.Amount, req.IncludePenalty, time.Now())
	if err != nil {
		h.respondLedgerError(w, "server.handleRecordPayment", err)
		return
	}
	h.writeJSON(w, http.StatusCreated, payment)
}

func (h *handler) handleRefreshPenalty(w http.ResponseWriter, r *http.Request) {
	id, ok := h.loanID(w, r)
	if !ok {
		return
	}
	loan, err := h.ledger.RefreshPenalty(r.Context(), id, time.Now())
	if err != nil {
		h.respondLedgerError(w, "server.handleRefreshPenalty", err)
		return
	}
	h.writeJSON(w, http.StatusOK, loan)
}

func (h *handler) handleWaivePenalty(w http.ResponseWriter, r *http.Request) {
	id, ok := h.loanID(w, r)
	if !ok {
		return
	}
	loan, err := h.ledger.WaivePenalty(r.Context(), id, time.Now())
	if err != nil {
		h.respondLedgerError(w, "server.handleWaivePenalty", err)
		return
	}
	h.writeJSON(w, http.StatusOK, loan)
}

func (h *handler) handleVersion(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{
		"version": h.version,
	})
}

func (h *handler) loanID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	idStr := mux.Vars(r)["id"]
	id, err := uuid.Parse(idStr)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, fmt.Sprintf("invalid loan id %q", idStr))
		return uuid.Nil, false
	}
	return id, true
}

// asOf reads the optional "at" query parameter so clients (and tests) can
// inject the derivation instant; defaults to the current wall clock. The
// second return reports whether the instant was explicitly injected.
func (h *handler) asOf(r *http.Request) (time.Time, bool, error) {
	raw := strings.TrimSpace(r.URL.Query().Get("at"))
	if raw == "" {
		return time.Now(), false, nil
	}
	at, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("invalid at parameter %q, expected RFC3339", raw)
	}
	return at, true, nil
}

func (h *handler) respondLedgerError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, store.ErrLoanNotFound):
		h.respondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, store.ErrPeriodAlreadyPaid),
		errors.Is(err, ledger.ErrInvalidTransition),
		errors.Is(err, ledger.ErrNotApproved),
		errors.Is(err, ledger.ErrEMIAlreadyStarted),
		errors.Is(err, ledger.ErrEMINotStarted):
		h.respondError(w, http.StatusConflict, err.Error())
	default:
		// Remaining ledger errors are input validation failures.
		h.logger.Warn(err.Error(), zap.String("op", op))
		h.respondError(w, http.StatusBadRequest, err.Error())
	}
}

func (h *handler) respondError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}

func (h *handler) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Warn("failed to encode response",
			zap.String("op", "server.writeJSON"),
			zap.Error(err),
		)
	}
}
