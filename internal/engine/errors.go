package engine

import (
	"errors"

	"github.com/tellerline/teller/internal/directory"
)

var (
	ErrInsufficientFunds   = errors.New("amount exceeds available funds plus overdraft allowance")
	ErrSameAccount         = errors.New("source and destination are the same account")
	ErrDestinationNotFound = errors.New("destination account not found")
	// ErrTransferWouldDeactivate is only returned with StrictExternalTransfers.
	ErrTransferWouldDeactivate = errors.New("transfer would deactivate the source account")
	// ErrPersistence matches the *directory.PersistError returned when the
	// ledger changed in memory but could not be written.
	ErrPersistence = directory.ErrPersistence
)
