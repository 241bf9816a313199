package model

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func assertBalance(t *testing.T, want string, a Account) {
	t.Helper()
	assert.True(t, a.Balance.Equal(dec(want)), "balance = %s, want %s", a.Balance, want)
}

func TestDeposit(t *testing.T) {
	a := NewAccount(dec("10"))
	res, err := a.Deposit(dec("15.50"))
	require.NoError(t, err)
	assert.False(t, res.Reactivated)
	assertBalance(t, "25.50", a)
	assert.True(t, a.Active)
}

func TestDeposit_NonPositiveIsNoop(t *testing.T) {
	for _, amt := range []string{"0", "-1", "-0.01"} {
		a := Account{Balance: dec("-85"), Active: false, OverdraftCount: 2}
		before := a
		_, err := a.Deposit(dec(amt))
		require.ErrorIs(t, err, ErrInvalidAmount, "amount %s", amt)
		assert.Equal(t, before, a, "amount %s must not change state", amt)
	}
}

func TestDeposit_Reactivates(t *testing.T) {
	a := Account{Balance: dec("-120"), Active: false, OverdraftCount: 2}

	res, err := a.Deposit(dec("20"))
	require.NoError(t, err)
	assert.False(t, res.Reactivated, "still negative")
	assert.False(t, a.Active)
	assert.Equal(t, 2, a.OverdraftCount)

	res, err = a.Deposit(dec("100"))
	require.NoError(t, err)
	assert.True(t, res.Reactivated)
	assert.True(t, a.Active)
	assert.Equal(t, 0, a.OverdraftCount)
	assertBalance(t, "0", a)
}

func TestDeposit_ActiveAccountKeepsOverdraftCount(t *testing.T) {
	a := Account{Balance: dec("-85"), Active: true, OverdraftCount: 1}
	res, err := a.Deposit(dec("90"))
	require.NoError(t, err)
	assert.False(t, res.Reactivated)
	assertBalance(t, "5", a)
	assert.Equal(t, 1, a.OverdraftCount)
	assert.True(t, a.Active)
}

func TestWithdraw(t *testing.T) {
	a := NewAccount(dec("100"))
	res, err := a.Withdraw(dec("40"))
	require.NoError(t, err)
	assert.False(t, res.Penalized)
	assertBalance(t, "60", a)
}

func TestWithdraw_CeilingIsNoop(t *testing.T) {
	a := NewAccount(dec("10000"))
	before := a
	_, err := a.Withdraw(dec("100.01"))
	require.ErrorIs(t, err, ErrAmountTooLarge)
	assert.Equal(t, before, a)

	_, err = a.Withdraw(dec("100"))
	require.NoError(t, err, "ceiling is inclusive")
}

func TestWithdraw_NonPositive(t *testing.T) {
	a := NewAccount(dec("10"))
	_, err := a.Withdraw(decimal.Zero)
	require.ErrorIs(t, err, ErrInvalidAmount)
	_, err = a.Withdraw(dec("-5"))
	require.ErrorIs(t, err, ErrInvalidAmount)
	assertBalance(t, "10", a)
}

func TestSubCentAmountsRejected(t *testing.T) {
	for _, amt := range []string{"0.004", "10.001", "0.0001"} {
		a := Account{Balance: dec("-85"), Active: false, OverdraftCount: 2}
		before := a

		_, err := a.Deposit(dec(amt))
		require.ErrorIs(t, err, ErrInvalidAmount, "deposit %s", amt)
		_, err = a.Withdraw(dec(amt))
		require.ErrorIs(t, err, ErrInvalidAmount, "withdraw %s", amt)
		assert.Equal(t, before, a, "amount %s must not change state", amt)
	}
}

func TestCheckAmount(t *testing.T) {
	assert.NoError(t, CheckAmount(dec("0.01")))
	assert.NoError(t, CheckAmount(dec("12.50")))
	assert.NoError(t, CheckAmount(dec("12.500")), "trailing zeros are whole cents")
	assert.ErrorIs(t, CheckAmount(dec("0.009")), ErrInvalidAmount)
	assert.ErrorIs(t, CheckAmount(decimal.Zero), ErrInvalidAmount)
	assert.NoError(t, CheckPrecision(dec("-3.25")))
}

func TestWithdraw_FirstOverdraftPenalized(t *testing.T) {
	a := NewAccount(decimal.Zero)
	res, err := a.Withdraw(dec("50"))
	require.NoError(t, err)
	assert.True(t, res.Penalized)
	assert.False(t, res.Deactivated)
	assertBalance(t, "-85", a)
	assert.Equal(t, 1, a.OverdraftCount)
	assert.True(t, a.Active)
}

func TestWithdraw_FloorRejected(t *testing.T) {
	a := Account{Balance: dec("-85"), Active: true, OverdraftCount: 1}
	before := a
	_, err := a.Withdraw(dec("20"))
	require.ErrorIs(t, err, ErrInsufficientOverdraftRoom)
	assert.Equal(t, before, a)
}

func TestWithdraw_PenaltyMayBreachFloor(t *testing.T) {
	// -100 is allowed before the penalty; the penalty itself is not floor-checked.
	a := NewAccount(decimal.Zero)
	_, err := a.Withdraw(dec("100"))
	require.NoError(t, err)
	assertBalance(t, "-135", a)
	assert.True(t, a.Balance.LessThan(OverdraftFloor))
}

func TestWithdraw_SecondOverdraftDeactivates(t *testing.T) {
	a := Account{Balance: dec("-10"), Active: true, OverdraftCount: 1}
	res, err := a.Withdraw(dec("5"))
	require.NoError(t, err)
	assert.True(t, res.Penalized)
	assert.True(t, res.Deactivated)
	assertBalance(t, "-50", a)
	assert.Equal(t, 2, a.OverdraftCount)
	assert.False(t, a.Active)

	// Inactive accounts still accept withdrawal attempts.
	res, err = a.Withdraw(dec("10"))
	require.NoError(t, err)
	assert.False(t, res.Deactivated, "already inactive")
	assert.Equal(t, 3, a.OverdraftCount)
	assertBalance(t, "-95", a)
}

func TestWithdraw_ToExactlyZeroNoPenalty(t *testing.T) {
	a := NewAccount(dec("30"))
	res, err := a.Withdraw(dec("30"))
	require.NoError(t, err)
	assert.False(t, res.Penalized)
	assertBalance(t, "0", a)
	assert.Equal(t, 0, a.OverdraftCount)
}

// Oracle for random-ish operation sequences: the floor holds except right
// after a penalized withdrawal, and inactive <=> overdraft count >= threshold.
func TestInvariantsOverSequence(t *testing.T) {
	ops := []struct {
		deposit bool
		amount  string
	}{
		{false, "60"}, {false, "100"}, {true, "0"}, {false, "30"}, {true, "50"},
		{false, "101"}, {false, "20"}, {true, "300"}, {false, "99.99"}, {false, "99.99"},
		{false, "1"}, {true, "500"}, {false, "100"}, {true, "-3"},
	}

	a := NewAccount(dec("20"))
	for i, op := range ops {
		before := a
		var penalized bool
		var err error
		if op.deposit {
			_, err = a.Deposit(dec(op.amount))
		} else {
			var res WithdrawResult
			res, err = a.Withdraw(dec(op.amount))
			penalized = res.Penalized
		}
		if err != nil {
			assert.Equal(t, before, a, "step %d: failed op must not mutate", i)
			continue
		}
		if !penalized {
			assert.False(t, a.Balance.LessThan(OverdraftFloor) && !before.Balance.LessThan(OverdraftFloor),
				"step %d: floor breached without penalty", i)
		}
		assert.Equal(t, a.OverdraftCount >= DeactivationThreshold, !a.Active,
			"step %d: active=%t count=%d", i, a.Active, a.OverdraftCount)
	}
}

func TestHeadroom(t *testing.T) {
	assert.True(t, NewAccount(dec("30")).Headroom().Equal(dec("130")))
	assert.True(t, Account{Balance: dec("-85")}.Headroom().Equal(dec("15")))
}
