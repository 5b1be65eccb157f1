// Package ledger implements the "ledger" administration command.
package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"photopick/internal/domain/quota"
	"photopick/internal/interfaces/cli/bootstrap"
	"photopick/internal/shared/biztime"
)

func NewCommand(opts *bootstrap.Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ledger",
		Short: "Inspect and administer owner quota ledgers",
	}

	cmd.AddCommand(
		newProvisionCommand(opts),
		newStatusCommand(opts),
		newChangePlanCommand(opts),
		newSyncPlanCommand(opts),
		newReconcileCommand(opts),
	)
	return cmd
}

func newProvisionCommand(opts *bootstrap.Options) *cobra.Command {
	var plan string
	cmd := &cobra.Command{
		Use:   "provision <owner-id>",
		Short: "Create the ledger of a new owner",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var p quota.Plan
			if plan != "" {
				parsed, err := quota.ParsePlan(strings.ToUpper(plan))
				if err != nil {
					return err
				}
				p = parsed
			}
			return withApp(cmd, opts, func(ctx context.Context, app *bootstrap.App) error {
				l, err := app.Ledger.Provision(ctx, args[0], p)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), l.Snapshot(app.Ledger.Now()))
			})
		},
	}
	cmd.Flags().StringVar(&plan, "plan", "", "Plan to start on (default: ask billing)")
	return cmd
}

func newStatusCommand(opts *bootstrap.Options) *cobra.Command {
	return &cobra.Command{
		Use:   "status <owner-id>",
		Short: "Show plan, usage and remaining capacity",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(ctx context.Context, app *bootstrap.App) error {
				status, err := app.Ledger.Status(ctx, args[0])
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), status)
			})
		},
	}
}

func newChangePlanCommand(opts *bootstrap.Options) *cobra.Command {
	var (
		plan, status, periodEnd string
		clearPeriodEnd          bool
	)
	cmd := &cobra.Command{
		Use:   "change-plan <owner-id>",
		Short: "Apply a billing change to an owner's ledger",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			change, err := buildPlanChange(cmd, plan, status, periodEnd, clearPeriodEnd)
			if err != nil {
				return err
			}
			return withApp(cmd, opts, func(ctx context.Context, app *bootstrap.App) error {
				l, err := app.Ledger.ChangePlan(ctx, args[0], change)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), l.Snapshot(app.Ledger.Now()))
			})
		},
	}
	cmd.Flags().StringVar(&plan, "plan", "", "New plan (FREE, BASIC, PRO)")
	cmd.Flags().StringVar(&status, "status", "", "New subscription status (active, past_due, canceled, incomplete)")
	cmd.Flags().StringVar(&periodEnd, "period-end", "", "Current billing period end, RFC3339")
	cmd.Flags().BoolVar(&clearPeriodEnd, "clear-period-end", false, "Remove the billing period end")
	return cmd
}

func newSyncPlanCommand(opts *bootstrap.Options) *cobra.Command {
	return &cobra.Command{
		Use:   "sync-plan <owner-id>",
		Short: "Re-read the owner's plan from billing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(ctx context.Context, app *bootstrap.App) error {
				l, err := app.Ledger.SyncPlan(ctx, args[0])
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), l.Snapshot(app.Ledger.Now()))
			})
		},
	}
}

type driftLine struct {
	OwnerID   string `json:"owner_id"`
	UsedCount int    `json:"used_count"`
	Records   int64  `json:"records"`
	Delta     int64  `json:"delta"`
}

func newReconcileCommand(opts *bootstrap.Options) *cobra.Command {
	return &cobra.Command{
		Use:   "reconcile [owner-id]",
		Short: "Compare counters with the stored upload records",
		Long:  `Report owners whose used count differs from their upload records. Without an owner every ledger is checked. Nothing is corrected.`,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(ctx context.Context, app *bootstrap.App) error {
				var drifts []*quota.Drift
				if len(args) == 1 {
					d, err := app.Ledger.Reconcile(ctx, args[0])
					if err != nil {
						return err
					}
					drifts = append(drifts, d)
				} else {
					all, err := app.Ledger.ReconcileAll(ctx)
					if err != nil {
						return err
					}
					drifts = all
				}

				lines := make([]driftLine, 0, len(drifts))
				for _, d := range drifts {
					lines = append(lines, driftLine{
						OwnerID:   d.OwnerID,
						UsedCount: d.UsedCount,
						Records:   d.Actual,
						Delta:     d.Delta(),
					})
				}
				return printJSON(cmd.OutOrStdout(), lines)
			})
		},
	}
}

func buildPlanChange(cmd *cobra.Command, plan, status, periodEnd string, clearPeriodEnd bool) (quota.PlanChange, error) {
	var change quota.PlanChange
	if cmd.Flags().Changed("plan") {
		p, err := quota.ParsePlan(strings.ToUpper(plan))
		if err != nil {
			return change, err
		}
		change.Plan = &p
	}
	if cmd.Flags().Changed("status") {
		s, err := quota.ParseStatus(strings.ToLower(status))
		if err != nil {
			return change, err
		}
		change.Status = &s
	}
	if cmd.Flags().Changed("period-end") {
		end, err := biztime.ParseRFC3339(periodEnd)
		if err != nil {
			return change, fmt.Errorf("--period-end: %w", err)
		}
		change.CurrentPeriodEnd = end
	}
	change.ClearPeriodEnd = clearPeriodEnd
	if change.IsEmpty() {
		return change, quota.ErrEmptyPlanChange
	}
	return change, nil
}

func withApp(cmd *cobra.Command, opts *bootstrap.Options, fn func(context.Context, *bootstrap.App) error) error {
	cfg, log, err := bootstrap.LoadConfig(opts)
	if err != nil {
		return err
	}
	app, err := bootstrap.New(cmd.Context(), cfg, log)
	if err != nil {
		return err
	}
	defer app.Close()

	ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
	defer cancel()
	return fn(ctx, app)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
