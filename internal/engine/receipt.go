package engine

import (
	"github.com/shopspring/decimal"

	"github.com/tellerline/teller/internal/model"
)

// Operation names an engine call.
type Operation string

const (
	OpDeposit          Operation = "deposit"
	OpWithdraw         Operation = "withdraw"
	OpTransferInternal Operation = "transfer_internal"
	OpTransferExternal Operation = "transfer_external"
)

// Posting is the state of one account after an operation touched it.
type Posting struct {
	AccountID string
	Kind      model.AccountKind
	Account   model.Account
}

// Receipt describes a completed operation. Source is set for operations that
// debit, Destination for those that credit.
type Receipt struct {
	Operation   Operation
	Amount      decimal.Decimal
	Source      *Posting
	Destination *Posting

	// Penalized is set when the debit was charged the overdraft penalty.
	Penalized bool
	// Deactivated is set when the debit made the source account inactive.
	Deactivated bool
	// Reactivated is set when the credit brought the destination back.
	Reactivated bool
	// Canceled is set when an external transfer stopped after the debit
	// because the source account went inactive. The source keeps the debit
	// and penalty; the destination was not credited.
	Canceled bool
}

func posting(accountID string, kind model.AccountKind, a *model.Account) *Posting {
	return &Posting{AccountID: accountID, Kind: kind, Account: *a}
}
