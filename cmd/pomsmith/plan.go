package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/szaher/pomsmith/internal/plan"
	"github.com/szaher/pomsmith/internal/recipe"
	"github.com/szaher/pomsmith/internal/state"
)

func newPlanCmd() *cobra.Command {
	var (
		root   string
		format string
		drift  bool
	)

	cmd := &cobra.Command{
		Use:   "plan [recipe.yaml]",
		Short: "Show what apply would change without touching any file",
		RunE: func(cmd *cobra.Command, args []string) error {
			recipePath, err := resolveRecipe(args)
			if err != nil {
				return err
			}

			rec, err := recipe.Load(recipePath)
			if err != nil {
				return err
			}

			backend := state.NewLocalBackend(stateFile)
			current, err := backend.Load()
			if err != nil {
				return fmt.Errorf("loading state: %w", err)
			}

			if drift {
				dr, err := plan.DetectDrift(root, current)
				if err != nil {
					return err
				}
				for _, d := range dr.Drifted {
					if d.Type == "missing" {
						fmt.Printf("Drift: %s was removed outside pomsmith\n", d.Path)
						continue
					}
					fmt.Printf("Drift: %s was modified outside pomsmith\n", d.Path)
				}
				if dr.HasDrift {
					fmt.Println()
				}
			}

			p, err := plan.Compute(root, rec, current)
			if err != nil {
				return err
			}

			switch format {
			case "json":
				out, err := plan.FormatJSON(p)
				if err != nil {
					return err
				}
				fmt.Print(out)
			case "text":
				fmt.Print(plan.FormatText(p))
			default:
				return fmt.Errorf("unknown format %q (want text or json)", format)
			}

			if p.HasErrors {
				return fmt.Errorf("plan contains errors")
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&root, "root", ".", "Project root to scan for pom.xml files")
	cmd.Flags().StringVar(&format, "format", "text", "Output format (text or json)")
	cmd.Flags().BoolVar(&drift, "drift", false, "Report files changed outside pomsmith")

	return cmd
}
