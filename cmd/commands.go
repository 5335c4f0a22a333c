package cmd

import (
	"context"
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"ticket-marketplace/internal/services"
)

// NewHashPasswordCommand prints a bcrypt hash suitable for ADMIN_PASSWORD_HASH.
func NewHashPasswordCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "hash-password [password]",
		Short: "Print the bcrypt hash of a password for ADMIN_PASSWORD_HASH",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args[0]) < 8 {
				return errors.New("password must be at least 8 characters")
			}

			hash, err := services.HashPassword(args[0])
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), hash)
			return nil
		},
	}
}

// NewReconcileCommand lists events whose remaining passes and recorded
// orders do not add up to their total. It never changes data.
func NewReconcileCommand(reconcile *services.ReconcileService) *cobra.Command {
	var failOnDrift bool

	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Report events whose pass counts disagree with the order ledger",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			drifts, err := reconcile.Report(ctx)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(drifts) == 0 {
				fmt.Fprintln(out, "All events reconcile.")
				return nil
			}

			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "EVENT\tNAME\tTOTAL\tREMAINING\tLEDGER SOLD\tDRIFT")
			for _, d := range drifts {
				fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%d\t%d\n", d.EventID, d.EventName, d.TotalPasses, d.RemainingPasses, d.LedgerSold, d.Drift)
			}
			if err := w.Flush(); err != nil {
				return err
			}

			if failOnDrift {
				cmd.SilenceUsage = true
				return fmt.Errorf("%d events need reconciliation", len(drifts))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&failOnDrift, "fail", false, "exit non-zero when drift is found")
	return cmd
}
