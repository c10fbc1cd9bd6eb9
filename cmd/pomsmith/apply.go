package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/szaher/pomsmith/internal/events"
	"github.com/szaher/pomsmith/internal/pipeline"
	"github.com/szaher/pomsmith/internal/plan"
	"github.com/szaher/pomsmith/internal/recipe"
	"github.com/szaher/pomsmith/internal/state"
	"github.com/szaher/pomsmith/internal/telemetry"
)

func newApplyCmd() *cobra.Command {
	var (
		root        string
		autoApprove bool
		dryRun      bool
		eventLog    string
		metricsFile string
		lockTimeout time.Duration
	)

	cmd := &cobra.Command{
		Use:   "apply [recipe.yaml]",
		Short: "Apply a transformation recipe to a project tree",
		RunE: func(cmd *cobra.Command, args []string) error {
			recipePath, err := resolveRecipe(args)
			if err != nil {
				return err
			}

			rec, err := recipe.Load(recipePath)
			if err != nil {
				return err
			}

			backend := state.NewLocalBackend(stateFile).WithLockConfig(state.LockConfig{
				LockTimeout: lockTimeout,
			})
			if err := backend.Lock(); err != nil {
				return err
			}
			defer func() { _ = backend.Unlock() }()

			current, err := backend.Load()
			if err != nil {
				return fmt.Errorf("loading state: %w", err)
			}

			p, err := plan.Compute(root, rec, current)
			if err != nil {
				return err
			}
			if !p.HasChanges && !p.HasErrors {
				fmt.Println("No changes. POM files are up-to-date.")
				return nil
			}

			if !autoApprove && !dryRun {
				fmt.Print(plan.FormatText(p))
				fmt.Print("\nDo you want to apply these changes? (yes/no): ")
				var response string
				_, _ = fmt.Scanln(&response)
				if response != "yes" {
					fmt.Println("Apply cancelled.")
					return nil
				}
			}

			ctx := telemetry.WithCorrelationID(cmd.Context(), correlationID)
			logger := telemetry.RunLogger(newLogger(), ctx, recipePath)

			collector := &events.CollectorEmitter{}
			metrics := telemetry.NewMetrics()
			runner := &pipeline.Runner{
				Root:    root,
				Backend: backend,
				Emitter: collector,
				Logger:  logger,
				Metrics: metrics,
				DryRun:  dryRun,
			}

			res, err := runner.Run(ctx, rec, telemetry.CorrelationID(ctx))
			if eventLog != "" && res != nil {
				if exportErr := events.ExportLog(collector.Events, eventLog); exportErr != nil {
					logger.Error("exporting event log failed", "error", exportErr)
				}
			}
			if metricsFile != "" && res != nil {
				if writeErr := os.WriteFile(metricsFile, []byte(metrics.Render()), 0644); writeErr != nil {
					logger.Error("writing metrics file failed", "error", writeErr)
				}
			}
			if err != nil {
				return err
			}

			fmt.Printf("Apply complete: %d changed, %d warnings, %d no-ops, %d skipped, %d errors\n",
				res.Changed, res.Warnings, res.NoOps, res.Skipped, res.Errors)

			if res.Status == "failed" {
				return fmt.Errorf("apply failed with %d operation error(s)", res.Errors)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&root, "root", ".", "Project root to scan for pom.xml files")
	cmd.Flags().BoolVar(&autoApprove, "auto-approve", false, "Skip interactive approval")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Apply in memory without writing files or state")
	cmd.Flags().StringVar(&eventLog, "event-log", "", "Write run events to a JSON file")
	cmd.Flags().StringVar(&metricsFile, "metrics-file", "", "Write run metrics in Prometheus text format")
	cmd.Flags().DurationVar(&lockTimeout, "lock-timeout", 30*time.Second, "How long to wait for the state lock")

	return cmd
}
