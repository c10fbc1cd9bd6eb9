package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/szaher/pomsmith/internal/recipe"
)

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate [recipe.yaml]",
		Short: "Validate a recipe without applying it",
		RunE: func(cmd *cobra.Command, args []string) error {
			recipePath, err := resolveRecipe(args)
			if err != nil {
				return err
			}

			rec, err := recipe.Load(recipePath)
			if err != nil {
				return err
			}

			fmt.Printf("Recipe %s is valid: %d operation(s)\n", recipePath, len(rec.Steps))
			return nil
		},
	}
}
