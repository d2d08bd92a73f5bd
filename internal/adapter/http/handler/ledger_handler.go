package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/iho/atmcore/internal/adapter/http/dto"
	"github.com/iho/atmcore/internal/adapter/http/middleware"
	"github.com/iho/atmcore/internal/domain"
	"github.com/iho/atmcore/internal/infrastructure/metrics"
	"github.com/iho/atmcore/internal/usecase"
)

// LedgerHandler exposes the four money-movement operations.
type LedgerHandler struct {
	ledgerUC *usecase.LedgerUseCase
	metrics  *metrics.Metrics
}

// NewLedgerHandler creates a new LedgerHandler.
func NewLedgerHandler(ledgerUC *usecase.LedgerUseCase, m *metrics.Metrics) *LedgerHandler {
	return &LedgerHandler{ledgerUC: ledgerUC, metrics: m}
}

// Deposit credits the account and returns the new balance.
func (h *LedgerHandler) Deposit(w http.ResponseWriter, r *http.Request) {
	accountID, ok := h.authorizedAccount(w, r)
	if !ok {
		return
	}

	var req dto.AmountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDomainError(w, domain.ErrInvalidAmount)
		return
	}

	balance, err := h.observe("deposit", func() (domain.Money, error) {
		return h.ledgerUC.Deposit(r.Context(), accountID, req.Amount)
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.BalanceResponse{Balance: balance})
}

// Withdraw debits the account and returns the new balance.
func (h *LedgerHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	accountID, ok := h.authorizedAccount(w, r)
	if !ok {
		return
	}

	var req dto.AmountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDomainError(w, domain.ErrInvalidAmount)
		return
	}

	balance, err := h.observe("withdraw", func() (domain.Money, error) {
		return h.ledgerUC.Withdraw(r.Context(), accountID, req.Amount)
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.BalanceResponse{Balance: balance})
}

// Transfer moves money to another user's account and returns the
// source's new balance.
func (h *LedgerHandler) Transfer(w http.ResponseWriter, r *http.Request) {
	accountID, ok := h.authorizedAccount(w, r)
	if !ok {
		return
	}

	var req dto.TransferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDomainError(w, domain.ErrInvalidAmount)
		return
	}

	balance, err := h.observe("transfer", func() (domain.Money, error) {
		return h.ledgerUC.Transfer(r.Context(), req.ToUseCaseInput(accountID))
	})
	if err != nil {
		if errors.Is(err, domain.ErrTransferAborted) {
			h.metrics.TransfersAborted.Inc()
		}

		writeDomainError(w, err)

		return
	}

	writeJSON(w, http.StatusOK, dto.BalanceResponse{Balance: balance})
}

// History lists the account's ledger entries, newest first.
func (h *LedgerHandler) History(w http.ResponseWriter, r *http.Request) {
	accountID, ok := h.authorizedAccount(w, r)
	if !ok {
		return
	}

	limit := parseIntQuery(r, "limit", 20)
	offset := parseIntQuery(r, "offset", 0)

	entries, err := h.ledgerUC.History(r.Context(), accountID, limit, offset)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.TransactionsFromDomain(entries))
}

// authorizedAccount checks that the URL's account matches the session's
// account. The engine itself never re-checks identity.
func (h *LedgerHandler) authorizedAccount(w http.ResponseWriter, r *http.Request) (string, bool) {
	accountID := chi.URLParam(r, "id")
	if accountID == "" {
		writeError(w, http.StatusBadRequest, "missing account ID")
		return "", false
	}

	sessionAccountID, ok := middleware.ContextAccountID(r.Context())
	if !ok || sessionAccountID != accountID {
		writeError(w, http.StatusForbidden, "account does not match session")
		return "", false
	}

	return accountID, true
}

func (h *LedgerHandler) observe(operation string, fn func() (domain.Money, error)) (domain.Money, error) {
	start := time.Now()
	balance, err := fn()
	h.metrics.OperationDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())

	status := "success"
	if err != nil {
		status = "failure"
	}

	h.metrics.OperationsTotal.WithLabelValues(operation, status).Inc()

	return balance, err
}
