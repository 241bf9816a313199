package engine

import (
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/tellerline/teller/internal/auth"
	"github.com/tellerline/teller/internal/directory"
	"github.com/tellerline/teller/internal/metrics"
	"github.com/tellerline/teller/internal/model"
)

// Options configures an Engine.
type Options struct {
	Logger  *zap.Logger
	Metrics metrics.Collector
	// StrictExternalTransfers rejects an external transfer up front when
	// its debit would deactivate the source account, instead of debiting
	// and then canceling the credit.
	StrictExternalTransfers bool
}

// Engine applies deposits, withdrawals and transfers to directory accounts
// and writes the directory after every change.
type Engine struct {
	dir     *directory.Service
	logger  *zap.Logger
	metrics metrics.Collector
	strict  bool
}

// New creates an Engine over dir.
func New(dir *directory.Service, opts Options) *Engine {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.NoOpCollector{}
	}
	return &Engine{
		dir:     dir,
		logger:  opts.Logger,
		metrics: opts.Metrics,
		strict:  opts.StrictExternalTransfers,
	}
}

// Customer returns the session's customer as currently recorded.
func (e *Engine) Customer(sess *auth.Session) (model.Customer, error) {
	if err := sess.Check(); err != nil {
		return model.Customer{}, err
	}
	c, ok := e.dir.Lookup(sess.AccountID())
	if !ok {
		return model.Customer{}, fmt.Errorf("%w: %s", directory.ErrNotFound, sess.AccountID())
	}
	return c, nil
}

// Deposit credits amount to the session customer's account of the given kind.
func (e *Engine) Deposit(sess *auth.Session, kind model.AccountKind, amount decimal.Decimal) (Receipt, error) {
	r := Receipt{Operation: OpDeposit, Amount: amount}
	if err := e.precheck(sess, kind); err != nil {
		return e.reject(r, err)
	}

	accountID := sess.AccountID()
	err := e.dir.Mutate([]string{accountID}, func(live map[string]*model.Customer) error {
		acct := live[accountID].Account(kind)
		res, err := acct.Deposit(amount)
		if err != nil {
			return err
		}
		r.Reactivated = res.Reactivated
		r.Destination = posting(accountID, kind, acct)
		return nil
	})
	if err != nil {
		return e.reject(r, err)
	}

	e.observe(r)
	return e.commit(r)
}

// Withdraw debits amount from the session customer's account of the given
// kind. A rejected withdrawal changes nothing and is not persisted.
func (e *Engine) Withdraw(sess *auth.Session, kind model.AccountKind, amount decimal.Decimal) (Receipt, error) {
	r := Receipt{Operation: OpWithdraw, Amount: amount}
	if err := e.precheck(sess, kind); err != nil {
		return e.reject(r, err)
	}

	accountID := sess.AccountID()
	err := e.dir.Mutate([]string{accountID}, func(live map[string]*model.Customer) error {
		acct := live[accountID].Account(kind)
		res, err := acct.Withdraw(amount)
		if err != nil {
			return err
		}
		r.Penalized = res.Penalized
		r.Deactivated = res.Deactivated
		r.Source = posting(accountID, kind, acct)
		return nil
	})
	if err != nil {
		return e.reject(r, err)
	}

	e.observe(r)
	return e.commit(r)
}

// TransferInternal moves amount between the session customer's own
// accounts. The source may go below zero as long as amount fits within its
// balance plus the overdraft allowance; the debit follows the normal
// withdrawal rules, and if it is rejected the destination is not touched.
func (e *Engine) TransferInternal(sess *auth.Session, from, to model.AccountKind, amount decimal.Decimal) (Receipt, error) {
	r := Receipt{Operation: OpTransferInternal, Amount: amount}
	if err := e.precheck(sess, from); err != nil {
		return e.reject(r, err)
	}
	if err := checkKind(to); err != nil {
		return e.reject(r, err)
	}
	if from == to {
		return e.reject(r, ErrSameAccount)
	}

	accountID := sess.AccountID()
	err := e.dir.Mutate([]string{accountID}, func(live map[string]*model.Customer) error {
		c := live[accountID]
		return e.move(&r, accountID, c.Account(from), from, accountID, c.Account(to), to, false)
	})
	if err != nil {
		return e.reject(r, err)
	}

	e.observe(r)
	return e.commit(r)
}

// TransferExternal moves amount from the session customer's account to an
// account of another customer.
//
// If the debit deactivates the source account the transfer stops there: the
// debit and its penalty stand, the destination is not credited, and the
// receipt is returned with Canceled set and a nil error. The new state is
// persisted either way. With StrictExternalTransfers such a transfer is
// rejected before anything changes.
func (e *Engine) TransferExternal(sess *auth.Session, toAccountID string, from, to model.AccountKind, amount decimal.Decimal) (Receipt, error) {
	r := Receipt{Operation: OpTransferExternal, Amount: amount}
	if err := e.precheck(sess, from); err != nil {
		return e.reject(r, err)
	}
	if err := checkKind(to); err != nil {
		return e.reject(r, err)
	}
	if !e.dir.Exists(toAccountID) {
		return e.reject(r, fmt.Errorf("%w: %s", ErrDestinationNotFound, toAccountID))
	}

	fromID := sess.AccountID()
	if fromID == toAccountID && from == to {
		return e.reject(r, ErrSameAccount)
	}

	err := e.dir.Mutate([]string{fromID, toAccountID}, func(live map[string]*model.Customer) error {
		src := live[fromID].Account(from)
		dst := live[toAccountID].Account(to)
		return e.move(&r, fromID, src, from, toAccountID, dst, to, true)
	})
	if err != nil {
		return e.reject(r, err)
	}

	e.observe(r)
	return e.commit(r)
}

// move debits src and credits dst. Every check runs before the first
// mutation; the only partial outcome is an external transfer canceled after
// its debit.
func (e *Engine) move(r *Receipt,
	srcID string, src *model.Account, srcKind model.AccountKind,
	dstID string, dst *model.Account, dstKind model.AccountKind,
	external bool,
) error {
	if err := model.CheckAmount(r.Amount); err != nil {
		return fmt.Errorf("transfer %w", err)
	}
	if r.Amount.GreaterThan(src.Headroom()) {
		return fmt.Errorf("transfer %s from %s balance %s: %w", r.Amount, srcKind, src.Balance, ErrInsufficientFunds)
	}

	if external && e.strict {
		trial := *src
		res, err := trial.Withdraw(r.Amount)
		if err != nil {
			return err
		}
		if res.Deactivated {
			return ErrTransferWouldDeactivate
		}
	}

	wres, err := src.Withdraw(r.Amount)
	if err != nil {
		return err
	}
	r.Penalized = wres.Penalized
	r.Deactivated = wres.Deactivated
	r.Source = posting(srcID, srcKind, src)

	if external && wres.Deactivated {
		r.Canceled = true
		return nil
	}

	dres, err := dst.Deposit(r.Amount)
	if err != nil {
		// Unreachable: the withdrawal already validated the amount.
		return err
	}
	r.Reactivated = dres.Reactivated
	r.Destination = posting(dstID, dstKind, dst)
	return nil
}

func (e *Engine) precheck(sess *auth.Session, kind model.AccountKind) error {
	if err := sess.Check(); err != nil {
		return err
	}
	return checkKind(kind)
}

func checkKind(kind model.AccountKind) error {
	if kind != model.Checking && kind != model.Savings {
		return fmt.Errorf("%w: %q", model.ErrUnknownAccountKind, kind)
	}
	return nil
}

func (e *Engine) reject(r Receipt, err error) (Receipt, error) {
	e.metrics.RecordOperation(string(r.Operation), "rejected")
	e.logger.Debug("operation rejected",
		zap.String("operation", string(r.Operation)),
		zap.Stringer("amount", r.Amount),
		zap.Error(err))
	return Receipt{Operation: r.Operation, Amount: r.Amount}, err
}

// commit persists the directory after a successful mutation. A write
// failure is returned with the receipt; the mutation is not undone.
func (e *Engine) commit(r Receipt) (Receipt, error) {
	if err := e.dir.PersistAll(); err != nil {
		e.metrics.RecordOperation(string(r.Operation), "persist_failed")
		return r, err
	}

	outcome := "ok"
	if r.Canceled {
		outcome = "canceled"
	}
	e.metrics.RecordOperation(string(r.Operation), outcome)
	return r, nil
}

func (e *Engine) observe(r Receipt) {
	if r.Source != nil && r.Penalized {
		kind := string(r.Source.Kind)
		e.metrics.RecordOverdraft(kind)
		e.logger.Info("overdraft penalty charged",
			zap.String("account_id", r.Source.AccountID),
			zap.String("kind", kind),
			zap.Stringer("balance", r.Source.Account.Balance),
			zap.Int("overdraft_count", r.Source.Account.OverdraftCount))
	}
	if r.Source != nil && r.Deactivated {
		kind := string(r.Source.Kind)
		e.metrics.RecordDeactivation(kind)
		e.logger.Warn("account deactivated",
			zap.String("account_id", r.Source.AccountID),
			zap.String("kind", kind))
	}
	if r.Destination != nil && r.Reactivated {
		kind := string(r.Destination.Kind)
		e.metrics.RecordReactivation(kind)
		e.logger.Info("account reactivated",
			zap.String("account_id", r.Destination.AccountID),
			zap.String("kind", kind))
	}
	if r.Canceled {
		e.logger.Warn("external transfer canceled after debit",
			zap.String("account_id", r.Source.AccountID),
			zap.Stringer("amount", r.Amount))
	}
}
