package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/yanizio/plubo/internal/scaffold"
)

func newFunctionalityCmd() *cobra.Command {
	var dir, pkg string
	cmd := &cobra.Command{
		Use:   "functionality <kind> [name]",
		Short: "Generate a hook registration shim",
		Long: `Writes <dir>/<snake_name>.go declaring a struct with Register(*hook.Bus).

Kinds: ` + strings.Join(scaffold.Kinds(), ", ") + `.  A first word that is not a
kind is taken as the name of a custom shim.  admin-menus shims go to <dir>/admin.

Examples:
  plubo functionality crons --dir components/shop --package shop
  plubo functionality custom price sync
  plubo functionality price sync`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, name := "custom", strings.Join(args, " ")
			k, err := scaffold.ResolveKind(args[0])
			switch {
			case err == nil:
				kind, name = k, strings.Join(args[1:], " ")
			case !errors.Is(err, scaffold.ErrUnknownKind):
				return err
			}

			path, err := scaffold.Functionality(dir, pkg, kind, name)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "created", path)
			return nil
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "functionality", "output directory")
	cmd.Flags().StringVar(&pkg, "package", "functionality", "Go package name")
	return cmd
}

func newComponentCmd() *cobra.Command {
	var dir string
	cmd := &cobra.Command{
		Use:   "component <name>",
		Short: "Generate a component skeleton",
		Long: `Writes <dir>/<pkg>/<pkg>.go implementing component.Component.  Add it to
the registry in internal/app to mount it.

Example:
  plubo component gift-card`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := scaffold.Component(dir, strings.Join(args, " "))
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "created", path)
			return nil
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "components", "components directory")
	return cmd
}
