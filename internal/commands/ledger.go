package commands

import (
	"fmt"
	"io"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/tellerline/teller/internal/auth"
	"github.com/tellerline/teller/internal/engine"
	"github.com/tellerline/teller/internal/model"
)

func newBalanceCommand(configPath *string) *cobra.Command {
	var creds credentials

	cmd := &cobra.Command{
		Use:   "balance",
		Short: "Show a customer's accounts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(*configPath, creds, func(a *app, sess *auth.Session) error {
				c, err := a.engine.Customer(sess)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "%s\n", c)
				fmt.Fprintf(out, "  checking: %s\n", c.Checking)
				fmt.Fprintf(out, "  savings:  %s\n", c.Savings)
				return nil
			})
		},
	}
	creds.bind(cmd)
	return cmd
}

func newDepositCommand(configPath *string) *cobra.Command {
	return newSingleAccountCommand(configPath, "deposit <checking|savings> <amount>", "Deposit into an account",
		func(e *engine.Engine) singleOp { return e.Deposit })
}

func newWithdrawCommand(configPath *string) *cobra.Command {
	return newSingleAccountCommand(configPath, "withdraw <checking|savings> <amount>", "Withdraw from an account",
		func(e *engine.Engine) singleOp { return e.Withdraw })
}

type singleOp func(*auth.Session, model.AccountKind, decimal.Decimal) (engine.Receipt, error)

func newSingleAccountCommand(configPath *string, use, short string, pick func(*engine.Engine) singleOp) *cobra.Command {
	var creds credentials

	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := model.ParseAccountKind(args[0])
			if err != nil {
				return err
			}
			amount, err := parseAmount(args[1])
			if err != nil {
				return err
			}
			return withSession(*configPath, creds, func(a *app, sess *auth.Session) error {
				r, err := pick(a.engine)(sess, kind, amount)
				return report(cmd.OutOrStdout(), r, err)
			})
		},
	}
	creds.bind(cmd)
	return cmd
}

func newTransferCommand(configPath *string) *cobra.Command {
	var creds credentials

	cmd := &cobra.Command{
		Use:   "transfer <from> <to> <amount>",
		Short: "Move money between your checking and savings",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			from, to, amount, err := parseTransferArgs(args)
			if err != nil {
				return err
			}
			return withSession(*configPath, creds, func(a *app, sess *auth.Session) error {
				r, err := a.engine.TransferInternal(sess, from, to, amount)
				return report(cmd.OutOrStdout(), r, err)
			})
		},
	}
	creds.bind(cmd)
	return cmd
}

func newTransferExternalCommand(configPath *string) *cobra.Command {
	var creds credentials

	cmd := &cobra.Command{
		Use:   "transfer-external <to-account-id> <from> <to> <amount>",
		Short: "Send money to another customer",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			from, to, amount, err := parseTransferArgs(args[1:])
			if err != nil {
				return err
			}
			return withSession(*configPath, creds, func(a *app, sess *auth.Session) error {
				r, err := a.engine.TransferExternal(sess, args[0], from, to, amount)
				return report(cmd.OutOrStdout(), r, err)
			})
		},
	}
	creds.bind(cmd)
	return cmd
}

func parseTransferArgs(args []string) (model.AccountKind, model.AccountKind, decimal.Decimal, error) {
	from, err := model.ParseAccountKind(args[0])
	if err != nil {
		return "", "", decimal.Zero, err
	}
	to, err := model.ParseAccountKind(args[1])
	if err != nil {
		return "", "", decimal.Zero, err
	}
	amount, err := parseAmount(args[2])
	if err != nil {
		return "", "", decimal.Zero, err
	}
	return from, to, amount, nil
}

// report prints what happened. A receipt that comes back with a persistence
// error still describes a change that took effect in memory, so it is
// printed before the error is returned.
func report(out io.Writer, r engine.Receipt, err error) error {
	if r.Source == nil && r.Destination == nil {
		return err
	}

	amount := r.Amount.StringFixed(2)
	switch r.Operation {
	case engine.OpDeposit:
		fmt.Fprintf(out, "Deposited %s to %s.\n", amount, r.Destination.Kind)
	case engine.OpWithdraw:
		fmt.Fprintf(out, "Withdrew %s from %s.\n", amount, r.Source.Kind)
	case engine.OpTransferInternal:
		fmt.Fprintf(out, "Transferred %s from %s to %s.\n", amount, r.Source.Kind, r.Destination.Kind)
	case engine.OpTransferExternal:
		if r.Canceled {
			fmt.Fprintf(out, "Transfer canceled: your %s account was deactivated by this withdrawal. "+
				"The %s debit stands and nothing was sent.\n", r.Source.Kind, amount)
		} else {
			fmt.Fprintf(out, "Sent %s from %s to account %s (%s).\n",
				amount, r.Source.Kind, r.Destination.AccountID, r.Destination.Kind)
		}
	}

	if r.Penalized {
		fmt.Fprintf(out, "Overdraft fee of %s charged.\n", model.OverdraftPenalty.StringFixed(2))
	}
	if r.Deactivated {
		fmt.Fprintf(out, "Your %s account is now inactive.\n", r.Source.Kind)
	}
	if r.Reactivated && r.Operation != engine.OpTransferExternal {
		fmt.Fprintf(out, "Your %s account is active again.\n", r.Destination.Kind)
	}
	if r.Source != nil {
		fmt.Fprintf(out, "%s balance: %s\n", r.Source.Kind, r.Source.Account.Balance.StringFixed(2))
	}
	if r.Destination != nil && r.Operation != engine.OpTransferExternal {
		fmt.Fprintf(out, "%s balance: %s\n", r.Destination.Kind, r.Destination.Account.Balance.StringFixed(2))
	}
	return err
}
