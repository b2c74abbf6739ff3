package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/yanizio/plubo/internal/scaffold"
)

func newEntityCmd() *cobra.Command {
	var dir, pkg string
	cmd := &cobra.Command{
		Use:   "entity <name>",
		Short: "Generate a Record entity source file",
		Long: `Writes <dir>/<snake_name>.go declaring a struct and its TableName.

Example:
  plubo entity gift-card --dir components/shop --package shop`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := scaffold.Entity(dir, pkg, strings.Join(args, " "))
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "created", path)
			return nil
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "entities", "output directory")
	cmd.Flags().StringVar(&pkg, "package", "entities", "Go package name")
	return cmd
}
