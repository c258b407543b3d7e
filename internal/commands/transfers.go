package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cashcheck-dev/cashcheck/internal/period"
)

func newTransfersCommand(configPath *string) *cobra.Command {
	var month string

	cmd := &cobra.Command{
		Use:   "transfers",
		Short: "Detect transfers between Chase and Venmo for a month",
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := period.ParseMonth(month)
			if err != nil {
				return err
			}
			return withApp(*configPath, func(ctx context.Context, a *app) error {
				res, err := a.svc.DetectTransfers(ctx, a.sessionID(), m)
				if err != nil {
					return err
				}
				fmt.Printf("%s: %d open candidates, %d pairs matched\n", m, res.Candidates, res.Matched)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&month, "month", "", "month to process (YYYY-MM)")
	_ = cmd.MarkFlagRequired("month")

	return cmd
}

func newReapplyCommand(configPath *string) *cobra.Command {
	var month string

	cmd := &cobra.Command{
		Use:   "reapply",
		Short: "Re-run categorization rules over a month",
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := period.ParseMonth(month)
			if err != nil {
				return err
			}
			return withApp(*configPath, func(ctx context.Context, a *app) error {
				res, err := a.svc.Reapply(ctx, a.sessionID(), m)
				if err != nil {
					return err
				}
				fmt.Printf("%s: %d of %d transactions recategorized\n", m, res.Updated, res.Total)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&month, "month", "", "month to process (YYYY-MM)")
	_ = cmd.MarkFlagRequired("month")

	return cmd
}
