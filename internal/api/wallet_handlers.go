package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/glamora/booking-core/internal/wallet"
)

func walletBalanceHandler(svc *wallet.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := parseUserIDParam(w, r)
		if !ok {
			return
		}

		balance, err := svc.Balance(r.Context(), userID)
		if err != nil {
			handleWalletError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"user_id": userID,
			"balance": balance,
		})
	}
}

func walletCreditHandler(svc *wallet.Service) http.HandlerFunc {
	return walletMutationHandler(svc.Credit)
}

func walletDebitHandler(svc *wallet.Service) http.HandlerFunc {
	return walletMutationHandler(svc.Debit)
}

func walletMutationHandler(apply func(ctx context.Context, userID uuid.UUID, amount int64, reference string) (*wallet.Transaction, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := parseUserIDParam(w, r)
		if !ok {
			return
		}

		var req WalletMutationRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}
		if err := validate.Struct(req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
			return
		}

		txn, err := apply(r.Context(), userID, req.Amount, req.Reference)
		if err != nil && !errors.Is(err, wallet.ErrInsufficientBalance) {
			handleWalletError(w, err)
			return
		}

		resp := WalletTransactionResponse{
			TransactionID: txn.ID,
			Type:          string(txn.Type),
			Status:        string(txn.Status),
			Amount:        txn.Amount,
			BalanceBefore: txn.BalanceBefore,
			BalanceAfter:  txn.BalanceAfter,
		}

		// A failed (insufficient balance) debit still produced a ledger
		// entry worth returning.
		status := http.StatusOK
		if errors.Is(err, wallet.ErrInsufficientBalance) {
			status = http.StatusUnprocessableEntity
		}
		writeJSON(w, status, resp)
	}
}

func handleWalletError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, wallet.ErrWalletNotFound):
		writeError(w, http.StatusNotFound, "wallet_not_found", err.Error())
	case errors.Is(err, wallet.ErrInvalidAmount):
		writeError(w, http.StatusBadRequest, "invalid_amount", err.Error())
	case errors.Is(err, wallet.ErrInsufficientBalance):
		writeError(w, http.StatusUnprocessableEntity, "insufficient_balance", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}

func parseUserIDParam(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "userID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_user_id", "userID must be a valid UUID")
		return uuid.Nil, false
	}
	return id, true
}
