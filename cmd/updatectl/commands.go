package main

import (
	"context"
	"encoding/json"

	"update-tracker/internal/app"
	updateDelivery "update-tracker/internal/update/delivery"

	"github.com/spf13/cobra"
)

var logLevel string

// opener builds the application for one command run
type opener func(ctx context.Context) (*app.App, error)

func newRootCmd(open opener) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "updatectl",
		Short:        "Operator commands for the update tracker",
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level (debug, info, warn, error)")

	rootCmd.AddCommand(
		newScanCmd(open),
		newDispatchCmd(open),
		newDeliverCmd(open),
		newForceUpdateCmd(open),
		newPurgeCmd(open),
	)
	return rootCmd
}

// run opens the application, runs fn and prints its result as JSON
func run(cmd *cobra.Command, open opener, fn func(ctx context.Context, a *app.App) (interface{}, error)) error {
	ctx := cmd.Context()
	a, err := open(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	result, err := fn(ctx, a)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

func newScanCmd(open opener) *cobra.Command {
	var urgency string
	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Evaluate every device, optionally keeping one urgency",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, open, func(ctx context.Context, a *app.App) (interface{}, error) {
				if urgency == "" {
					report, err := a.Updates.ScanAll(ctx)
					if err != nil {
						return nil, err
					}
					return updateDelivery.NewScanResponse(report), nil
				}
				report, err := a.Updates.ScanByUrgency(ctx, urgency)
				if err != nil {
					return nil, err
				}
				return updateDelivery.NewScanResponse(report), nil
			})
		},
	}
	cmd.Flags().StringVar(&urgency, "urgency", "", "keep only verdicts with this urgency (UNAVAILABLE, OPTIONAL, MANDATORY, DEPRECATED)")
	return cmd
}

func newDispatchCmd(open opener) *cobra.Command {
	return &cobra.Command{
		Use:   "dispatch",
		Short: "Notify every device with a MANDATORY or DEPRECATED update",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, open, func(ctx context.Context, a *app.App) (interface{}, error) {
				created, err := a.Notifications.DispatchToOutdated(ctx)
				if err != nil {
					return nil, err
				}
				return map[string]int{"created": created}, nil
			})
		},
	}
}

func newDeliverCmd(open opener) *cobra.Command {
	return &cobra.Command{
		Use:   "deliver",
		Short: "Push pending notifications again",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, open, func(ctx context.Context, a *app.App) (interface{}, error) {
				sent, err := a.Notifications.DeliverPending(ctx)
				if err != nil {
					return nil, err
				}
				return map[string]int{"sent": sent}, nil
			})
		},
	}
}

func newForceUpdateCmd(open opener) *cobra.Command {
	return &cobra.Command{
		Use:   "force-update",
		Short: "Move every MANDATORY and DEPRECATED device to its target version",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, open, func(ctx context.Context, a *app.App) (interface{}, error) {
				verdicts, err := a.Updates.ForceUpdateAllOutdated(ctx)
				if err != nil {
					return nil, err
				}
				return map[string]interface{}{"updated": verdicts, "total": len(verdicts)}, nil
			})
		},
	}
}

func newPurgeCmd(open opener) *cobra.Command {
	var days int
	cmd := &cobra.Command{
		Use:   "purge",
		Short: "Delete READ and DISMISSED notifications older than --days",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, open, func(ctx context.Context, a *app.App) (interface{}, error) {
				if !cmd.Flags().Changed("days") {
					days = a.Config.NotificationRetentionDays
				}
				removed, err := a.Notifications.PurgeExpired(ctx, days)
				if err != nil {
					return nil, err
				}
				return map[string]int{"removed": removed}, nil
			})
		},
	}
	cmd.Flags().IntVar(&days, "days", 0, "retention in days (defaults to NOTIFICATION_RETENTION_DAYS)")
	return cmd
}
