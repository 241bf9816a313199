package model

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Overdraft policy shared by checking and savings.
var (
	// WithdrawalCeiling is the largest amount a single withdrawal may move.
	WithdrawalCeiling = decimal.NewFromInt(100)
	// OverdraftFloor is the lowest balance a withdrawal may leave before the penalty.
	OverdraftFloor = decimal.NewFromInt(-100)
	// OverdraftPenalty is charged whenever a withdrawal leaves the balance negative.
	OverdraftPenalty = decimal.NewFromInt(35)
)

// DeactivationThreshold is the overdraft count at which an account goes inactive.
const DeactivationThreshold = 2

// AmountPlaces is the number of decimal places balances are kept and stored to.
const AmountPlaces = 2

// CheckAmount rejects amounts that are not positive or that carry fractions
// of a cent.
func CheckAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return fmt.Errorf("%s: %w", amount, ErrInvalidAmount)
	}
	return CheckPrecision(amount)
}

// CheckPrecision rejects amounts with more than AmountPlaces decimal places.
func CheckPrecision(amount decimal.Decimal) error {
	if !amount.Equal(amount.Truncate(AmountPlaces)) {
		return fmt.Errorf("%s has more than %d decimal places: %w", amount, AmountPlaces, ErrInvalidAmount)
	}
	return nil
}

// Account is one sub-account (checking or savings) of a customer.
type Account struct {
	Balance        decimal.Decimal
	Active         bool
	OverdraftCount int
}

// NewAccount returns an active account holding the opening balance.
func NewAccount(opening decimal.Decimal) Account {
	return Account{Balance: opening, Active: true}
}

// DepositResult reports the side effects of a deposit.
type DepositResult struct {
	Reactivated bool
}

// WithdrawResult reports the side effects of a withdrawal.
type WithdrawResult struct {
	Penalized   bool
	Deactivated bool
}

// Deposit adds amount to the balance. A deposit that brings an inactive
// account back to a non-negative balance reactivates it and clears its
// overdraft count.
func (a *Account) Deposit(amount decimal.Decimal) (DepositResult, error) {
	if err := CheckAmount(amount); err != nil {
		return DepositResult{}, fmt.Errorf("deposit %w", err)
	}

	a.Balance = a.Balance.Add(amount)

	var res DepositResult
	if !a.Balance.IsNegative() && !a.Active {
		a.Active = true
		a.OverdraftCount = 0
		res.Reactivated = true
	}
	return res, nil
}

// Withdraw removes amount from the balance.
//
// The floor is checked before the penalty only: a withdrawal that lands
// between the floor and zero is charged OverdraftPenalty on top, which may
// leave the balance below OverdraftFloor.
func (a *Account) Withdraw(amount decimal.Decimal) (WithdrawResult, error) {
	if err := CheckAmount(amount); err != nil {
		return WithdrawResult{}, fmt.Errorf("withdraw %w", err)
	}
	if amount.GreaterThan(WithdrawalCeiling) {
		return WithdrawResult{}, fmt.Errorf("withdraw %s: %w", amount, ErrAmountTooLarge)
	}
	if a.Balance.Sub(amount).LessThan(OverdraftFloor) {
		return WithdrawResult{}, fmt.Errorf("withdraw %s from %s: %w", amount, a.Balance, ErrInsufficientOverdraftRoom)
	}

	a.Balance = a.Balance.Sub(amount)

	var res WithdrawResult
	if a.Balance.IsNegative() {
		a.Balance = a.Balance.Sub(OverdraftPenalty)
		a.OverdraftCount++
		res.Penalized = true
		if a.OverdraftCount >= DeactivationThreshold && a.Active {
			a.Active = false
			res.Deactivated = true
		}
	}
	return res, nil
}

// Headroom returns how far the balance sits above OverdraftFloor.
func (a Account) Headroom() decimal.Decimal {
	return a.Balance.Sub(OverdraftFloor)
}

func (a Account) String() string {
	return fmt.Sprintf("Balance: %s, Active: %t, Overdrafts: %d", a.Balance.StringFixed(2), a.Active, a.OverdraftCount)
}
