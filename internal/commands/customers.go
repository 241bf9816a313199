package commands

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/tellerline/teller/internal/auth"
	"github.com/tellerline/teller/internal/directory"
)

func newCustomersCommand(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "customers",
		Short: "List customers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(*configPath, nil)
			if err != nil {
				return err
			}
			defer a.Close()

			out := cmd.OutOrStdout()
			customers := a.dir.List()
			if len(customers) == 0 {
				fmt.Fprintln(out, "No customers.")
				return nil
			}
			for _, c := range customers {
				fmt.Fprintln(out, c.String())
			}
			return nil
		},
	}
}

func newOnboardCommand(configPath *string) *cobra.Command {
	var p directory.OnboardParams
	var checking, savings string

	cmd := &cobra.Command{
		Use:   "onboard",
		Short: "Add a customer with a checking and a savings account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var err error
			if p.Checking, err = parseAmount(checking); err != nil {
				return err
			}
			if p.Savings, err = parseAmount(savings); err != nil {
				return err
			}

			a, err := openApp(*configPath, nil)
			if err != nil {
				return err
			}
			defer a.Close()

			if p.AccountID == "" {
				p.AccountID = a.dir.NextID(a.cfg.Bank.FirstAccountID)
			}
			if a.cfg.Auth.HashPasswords {
				if p.Password, err = auth.HashPassword(p.Password); err != nil {
					return err
				}
			}

			c, err := a.dir.Onboard(p)
			if err != nil && !errors.Is(err, directory.ErrPersistence) {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Onboarded %s\n", c)
			return err
		},
	}

	cmd.Flags().StringVar(&p.AccountID, "id", "", "account ID (default: next free number)")
	cmd.Flags().StringVar(&p.FirstName, "first", "", "first name (required)")
	cmd.Flags().StringVar(&p.LastName, "last", "", "last name (required)")
	cmd.Flags().StringVar(&p.Password, "password", "", "password (required)")
	cmd.Flags().StringVar(&checking, "checking", "0", "opening checking balance")
	cmd.Flags().StringVar(&savings, "savings", "0", "opening savings balance")
	_ = cmd.MarkFlagRequired("first")
	_ = cmd.MarkFlagRequired("last")
	_ = cmd.MarkFlagRequired("password")

	return cmd
}

func parseAmount(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q", s)
	}
	return d, nil
}
