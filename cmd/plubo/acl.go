package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yanizio/plubo/internal/acl"
	"github.com/yanizio/plubo/internal/app"
)

func newACLCmd(g *globals) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "acl",
		Short: "Manage admin capabilities",
	}

	grant := &cobra.Command{
		Use:   "grant <role> <capability>",
		Short: "Give a role a capability, creating the role when needed",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return g.withACL(cmd, func(ctx context.Context, s *acl.Store) error {
				if err := s.Grant(ctx, args[0], args[1]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "granted %s to %s\n", args[1], args[0])
				return nil
			})
		},
	}

	assign := &cobra.Command{
		Use:   "assign <user-id> <role>",
		Short: "Give a user a role",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			uid, err := parseID(args[0])
			if err != nil {
				return err
			}
			return g.withACL(cmd, func(ctx context.Context, s *acl.Store) error {
				if err := s.Assign(ctx, uid, args[1]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "assigned %s to user %d\n", args[1], uid)
				return nil
			})
		},
	}

	cmd.AddCommand(grant, assign)
	return cmd
}

func (g *globals) withACL(cmd *cobra.Command, fn func(ctx context.Context, s *acl.Store) error) error {
	return g.withApp(cmd, func(ctx context.Context, a *app.App) error {
		s, err := acl.NewStore(a.DB, a.Store.Prefix())
		if err != nil {
			return err
		}
		return fn(ctx, s)
	})
}
