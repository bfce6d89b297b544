package cli

import (
	"fmt"
	"strings"

	"ledger/internal/bank"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

// parseAmount 解析金額字串；正負由 Ledger 驗證。
func parseAmount(s string) (decimal.Decimal, error) {
	amt, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero, &bank.FormatError{Field: "amount", Value: s, Err: bank.ErrBadAmount}
	}
	return amt, nil
}

// newTransactionCmd 建立 deposit / withdraw / credit 指令。
func newTransactionCmd(e *env, t bank.TransactionType) *cobra.Command {
	name := strings.ToLower(t.String())
	var to int64
	cmd := &cobra.Command{
		Use:   name + " NUMBER AMOUNT",
		Short: fmt.Sprintf("Record a %s on an account", t),
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			from, err := bank.ParseAccountNumber(args[0])
			if err != nil {
				return err
			}
			amt, err := parseAmount(args[1])
			if err != nil {
				return err
			}
			return perform(cmd, e, bank.Request{Type: t, From: from, Amount: amt, To: to})
		},
	}
	if t.HasToAccount() {
		cmd.Flags().Int64Var(&to, "to", 0, "counterparty account number")
		_ = cmd.MarkFlagRequired("to")
	}
	return cmd
}

func newTransferCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "transfer FROM TO AMOUNT",
		Short: "Move money between two accounts",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			from, err := bank.ParseAccountNumber(args[0])
			if err != nil {
				return err
			}
			to, err := bank.ParseAccountNumber(args[1])
			if err != nil {
				return err
			}
			amt, err := parseAmount(args[2])
			if err != nil {
				return err
			}
			return perform(cmd, e, bank.Request{Type: bank.Transfer, From: from, Amount: amt, To: to})
		},
	}
}

// perform 執行交易並輸出結果；CANCELED 只是結果，不是錯誤。
func perform(cmd *cobra.Command, e *env, req bank.Request) error {
	return e.withBank(cmd.Context(), true, func(b *bank.Bank) error {
		r, err := b.Apply(req)
		if err != nil {
			return err
		}
		tx := r.Transaction
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s %s -> %s (balance %s)\n",
			tx.ID(), tx.Type(), tx.Amount(), tx.Status(), r.Balance.StringFixed(2))
		return nil
	})
}

func newBalanceCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "balance NUMBER",
		Short: "Print the balance of an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := bank.ParseAccountNumber(args[0])
			if err != nil {
				return err
			}
			return e.withBank(cmd.Context(), false, func(b *bank.Bank) error {
				bal, err := b.Balance(n)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), bal.StringFixed(2))
				return nil
			})
		},
	}
}

func newHistoryCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "history NUMBER",
		Short: "Print the transaction history of an account, oldest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := bank.ParseAccountNumber(args[0])
			if err != nil {
				return err
			}
			return e.withBank(cmd.Context(), false, func(b *bank.Bank) error {
				txs, err := b.Transactions(n)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				for _, tx := range txs {
					counterparty := "-"
					if tx.To() != nil {
						counterparty = fmt.Sprint(tx.To().Number())
					}
					fmt.Fprintf(out, "%s\t%s\t%-8s\t%s\t%s\t%s\n",
						tx.CreatedAt().Format("2006-01-02T15:04:05Z07:00"), tx.ID(), tx.Type(),
						tx.Amount().StringFixed(2), counterparty, tx.Status())
				}
				return nil
			})
		},
	}
}
