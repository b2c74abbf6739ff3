package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/yanizio/plubo/components/widgets"
	"github.com/yanizio/plubo/internal/app"
	"github.com/yanizio/plubo/internal/record"
)

// widgetOut is the printed shape of one widget.
type widgetOut struct {
	ID int64 `json:"id"`
	widgets.Widget
}

func newWidgetCmd(g *globals) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "widget",
		Short: "Read and write widget rows",
	}
	cmd.AddCommand(
		newWidgetGetCmd(g),
		newWidgetCreateCmd(g),
		newWidgetSetCmd(g),
		newWidgetDeleteCmd(g),
	)
	return cmd
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return id, nil
}

func widgetOpts(a *app.App) []record.Option {
	return []record.Option{
		record.WithLegacySilent(a.Config.Record.LegacySilent),
		record.WithVersion(widgets.VersionColumn),
	}
}

func newWidgetGetCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Print one widget",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return g.withApp(cmd, func(ctx context.Context, a *app.App) error {
				rec, err := record.Get[widgets.Widget](ctx, a.Store, id, widgetOpts(a)...)
				if err != nil {
					return err
				}
				return printJSON(cmd, widgetOut{ID: id, Widget: rec.Fields()})
			})
		},
	}
}

func newWidgetCreateCmd(g *globals) *cobra.Command {
	var name, color string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Insert a widget and print it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			fields := map[string]any{"name": name}
			if cmd.Flags().Changed("color") {
				fields["color"] = color
			}
			return g.withApp(cmd, func(ctx context.Context, a *app.App) error {
				rec := record.New[widgets.Widget](a.Store, widgetOpts(a)...)
				id, err := rec.Create(ctx, fields)
				if err != nil {
					return err
				}
				return printJSON(cmd, widgetOut{ID: id, Widget: rec.Fields()})
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "widget name (unique)")
	cmd.Flags().StringVar(&color, "color", "", "widget color")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func newWidgetSetCmd(g *globals) *cobra.Command {
	var null bool
	cmd := &cobra.Command{
		Use:   "set <id> <field> [value]",
		Short: "Write one column of a widget",
		Args:  cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			var value any
			switch {
			case null:
			case len(args) == 3:
				value = args[2]
			default:
				return fmt.Errorf("value required (or --null)")
			}
			return g.withApp(cmd, func(ctx context.Context, a *app.App) error {
				rec, err := record.Get[widgets.Widget](ctx, a.Store, id, widgetOpts(a)...)
				if err != nil {
					return err
				}
				if _, err := rec.SetField(ctx, args[1], value); err != nil {
					return err
				}
				return printJSON(cmd, widgetOut{ID: id, Widget: rec.Fields()})
			})
		},
	}
	cmd.Flags().BoolVar(&null, "null", false, "store NULL instead of a value")
	return cmd
}

func newWidgetDeleteCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete one widget",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return g.withApp(cmd, func(ctx context.Context, a *app.App) error {
				rec, err := record.Get[widgets.Widget](ctx, a.Store, id, widgetOpts(a)...)
				if err == nil {
					err = rec.Delete(ctx)
				}
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "deleted", id)
				return nil
			})
		},
	}
}
