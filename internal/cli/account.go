package cli

import (
	"fmt"
	"strings"

	"ledger/internal/bank"

	"github.com/spf13/cobra"
)

func newAccountCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "account",
		Short: "Open, list and inspect accounts",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:     "create SURNAME INITIAL",
			Short:   "Open an account with a generated 9-digit number",
			Example: "  ledger account create Ivanov I",
			Args:    cobra.MinimumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return e.withBank(cmd.Context(), true, func(b *bank.Bank) error {
					a, err := b.CreateAccount(strings.Join(args, " "))
					if err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "created account %d (%s)\n", a.Number(), a.HolderName())
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "list",
			Short: "List accounts in opening order",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return e.withBank(cmd.Context(), false, func(b *bank.Bank) error {
					for _, a := range b.Accounts() {
						printAccount(cmd, a)
					}
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "show NUMBER",
			Short: "Show one account",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				n, err := bank.ParseAccountNumber(args[0])
				if err != nil {
					return err
				}
				return e.withBank(cmd.Context(), false, func(b *bank.Bank) error {
					a, err := b.Account(n)
					if err != nil {
						return err
					}
					printAccount(cmd, a)
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "rename NUMBER SURNAME INITIAL",
			Short: "Change the holder name",
			Args:  cobra.MinimumNArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				n, err := bank.ParseAccountNumber(args[0])
				if err != nil {
					return err
				}
				return e.withBank(cmd.Context(), true, func(b *bank.Bank) error {
					a, err := b.Account(n)
					if err != nil {
						return err
					}
					if err := a.SetHolderName(strings.Join(args[1:], " ")); err != nil {
						return err
					}
					printAccount(cmd, a)
					return nil
				})
			},
		},
	)
	return cmd
}

func printAccount(cmd *cobra.Command, a *bank.Account) {
	fmt.Fprintf(cmd.OutOrStdout(), "%d\t%s\t%s\t%d transactions\n",
		a.Number(), a.HolderName(), a.Balance().StringFixed(2), len(a.Transactions()))
}
