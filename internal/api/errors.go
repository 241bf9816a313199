package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/tellerline/teller/internal/auth"
	"github.com/tellerline/teller/internal/directory"
	"github.com/tellerline/teller/internal/engine"
	"github.com/tellerline/teller/internal/model"
)

// errorBody carries the receipt or customer when the change took effect in
// memory but could not be persisted.
type errorBody struct {
	Error    string        `json:"error"`
	Code     string        `json:"code"`
	Receipt  *receiptView  `json:"receipt,omitempty"`
	Customer *customerView `json:"customer,omitempty"`
}

var errorCodes = []struct {
	err    error
	status int
	code   string
}{
	{directory.ErrPersistence, http.StatusInternalServerError, "persistence_failed"},
	{auth.ErrInvalidCredentials, http.StatusUnauthorized, "invalid_credentials"},
	{auth.ErrSessionClosed, http.StatusUnauthorized, "session_closed"},
	{auth.ErrUnknownSession, http.StatusUnauthorized, "unknown_session"},
	{model.ErrInvalidAmount, http.StatusUnprocessableEntity, "invalid_amount"},
	{model.ErrAmountTooLarge, http.StatusUnprocessableEntity, "amount_too_large"},
	{model.ErrInsufficientOverdraftRoom, http.StatusUnprocessableEntity, "insufficient_overdraft_room"},
	{model.ErrUnknownAccountKind, http.StatusBadRequest, "unknown_account_kind"},
	{engine.ErrInsufficientFunds, http.StatusUnprocessableEntity, "insufficient_funds"},
	{engine.ErrSameAccount, http.StatusUnprocessableEntity, "same_account"},
	{engine.ErrTransferWouldDeactivate, http.StatusUnprocessableEntity, "transfer_would_deactivate"},
	{engine.ErrDestinationNotFound, http.StatusNotFound, "destination_not_found"},
	{directory.ErrNotFound, http.StatusNotFound, "not_found"},
	{directory.ErrDuplicateAccountID, http.StatusConflict, "duplicate_account_id"},
	{directory.ErrInvalidAccountID, http.StatusBadRequest, "invalid_account_id"},
}

// classify maps an error to an HTTP status and a stable code.
func classify(err error) (int, string) {
	for _, ec := range errorCodes {
		if errors.Is(err, ec.err) {
			return ec.status, ec.code
		}
	}
	return http.StatusInternalServerError, "internal"
}

func (s *Server) fail(w http.ResponseWriter, err error) {
	s.failWith(w, err, errorBody{})
}

// failWith writes err over whatever body already holds.
func (s *Server) failWith(w http.ResponseWriter, err error, body errorBody) {
	status, code := classify(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", zap.String("code", code), zap.Error(err))
	}
	body.Error = err.Error()
	body.Code = code
	writeJSON(w, status, body)
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, errorBody{Error: msg, Code: code})
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}
