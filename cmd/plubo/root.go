package main

import (
	"context"
	"encoding/json"

	"github.com/spf13/cobra"
	"go.uber.org/zap/zapcore"

	"github.com/yanizio/plubo/internal/app"
	"github.com/yanizio/plubo/internal/config"
	"github.com/yanizio/plubo/internal/logger"
)

// globals holds the persistent flags.
type globals struct {
	root    string
	verbose bool
}

func newRootCmd() *cobra.Command {
	g := &globals{}
	cmd := &cobra.Command{
		Use:           "plubo",
		Short:         "Scaffold and administer a plubo plugin",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(*cobra.Command, []string) {
			level := zapcore.WarnLevel
			if g.verbose {
				level = zapcore.DebugLevel
			}
			logger.NewConsole(level)
		},
	}
	cmd.PersistentFlags().StringVar(&g.root, "root", "", "project root holding conf/global.yaml (default: discovered)")
	cmd.PersistentFlags().BoolVarP(&g.verbose, "verbose", "v", false, "debug logging")

	cmd.AddCommand(
		newEntityCmd(),
		newFunctionalityCmd(),
		newComponentCmd(),
		newMigrateCmd(g),
		newWidgetCmd(g),
		newACLCmd(g),
	)
	return cmd
}

// open loads configuration and wires the host without starting it.
func (g *globals) open(ctx context.Context) (*app.App, error) {
	var (
		cfg *config.Config
		err error
	)
	if g.root != "" {
		cfg, err = config.LoadFrom(g.root)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}
	return app.Open(ctx, cfg, nil)
}

// withApp runs fn against an opened App and closes it afterwards.
func (g *globals) withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app.App) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	a, err := g.open(ctx)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(ctx, a)
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
