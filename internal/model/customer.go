package model

import (
	"fmt"
	"strings"
)

// AccountKind selects one of a customer's two sub-accounts.
type AccountKind string

const (
	Checking AccountKind = "checking"
	Savings  AccountKind = "savings"
)

// ParseAccountKind accepts "checking" or "savings" in any case.
func ParseAccountKind(s string) (AccountKind, error) {
	switch k := AccountKind(strings.ToLower(strings.TrimSpace(s))); k {
	case Checking, Savings:
		return k, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownAccountKind, s)
	}
}

// Customer owns exactly one checking and one savings account.
type Customer struct {
	AccountID string
	FirstName string
	LastName  string
	Password  string // plaintext or bcrypt hash
	Checking  Account
	Savings   Account
}

// Account returns a pointer to the sub-account of the given kind.
func (c *Customer) Account(kind AccountKind) *Account {
	if kind == Savings {
		return &c.Savings
	}
	return &c.Checking
}

// FullName returns "first last".
func (c Customer) FullName() string {
	return strings.TrimSpace(c.FirstName + " " + c.LastName)
}

func (c Customer) String() string {
	return fmt.Sprintf("%s - %s %s", c.AccountID, c.FirstName, c.LastName)
}
