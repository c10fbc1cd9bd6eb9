// Package main is the entry point for the pomsmith CLI tool.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/szaher/pomsmith/internal/telemetry"
)

// Version information set at build time.
var version = "0.2.0"

// Global flags.
var (
	stateFile     string
	verbose       bool
	correlationID string
)

const (
	defaultStateFile  = ".pomsmith.state.json"
	defaultRecipeFile = "pomsmith.yaml"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "pomsmith",
		Short: "Scripted Maven POM transformation tool",
		Long: `PomSmith applies scripted, idempotent edits to Maven POM files.
A YAML recipe lists the operations to perform (change or remove
plugins, edit properties and dependencies); pomsmith plans and applies
them across every module of a project tree, tracking applied state so
re-runs skip files that are already up to date.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&stateFile, "state-file", defaultStateFile, "Path to state file")
	root.PersistentFlags().BoolVar(&verbose, "verbose", false, "Enable verbose output")
	root.PersistentFlags().StringVar(&correlationID, "correlation-id", "", "Set explicit correlation ID")

	root.AddCommand(newVersionCmd())
	root.AddCommand(newValidateCmd())
	root.AddCommand(newPlanCmd())
	root.AddCommand(newApplyCmd())
	root.AddCommand(newDevCmd())

	return root
}

func main() {
	root := newRootCmd()
	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

// newLogger builds the CLI logger honoring the --verbose flag.
func newLogger() *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return telemetry.NewLogger(os.Stderr, level)
}

// resolveRecipe picks the recipe path from the arguments, falling back
// to pomsmith.yaml in the working directory.
func resolveRecipe(args []string) (string, error) {
	path := defaultRecipeFile
	if len(args) > 0 {
		path = args[0]
	}
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("recipe %s: %w", path, err)
	}
	return path, nil
}
