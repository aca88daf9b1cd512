package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dkroeger/fcached/internal/config"
	"github.com/dkroeger/fcached/internal/server"
)

func main() {
	if err := run(); err != nil {
		os.Exit(1)
	}
}

func run() error {
	var configPath string

	root := cobra.Command{
		Use:   "fcached",
		Short: "A multi-client in-memory file-storage cache server",

		SilenceUsage:  true,
		SilenceErrors: true,

		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context(), configPath)
		},
	}

	root.Flags().StringVarP(&configPath, "config", "c", "", "path to the server configuration file (spec §6.3)")
	root.MarkFlagRequired("config")

	ctx := context.Background()

	if err := root.ExecuteContext(ctx); err != nil {
		root.PrintErrln(root.ErrPrefix(), err.Error())
		return err
	}

	return nil
}

func serve(ctx context.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("fcached: %w", err)
	}

	srv, err := server.New(cfg)
	if err != nil {
		return fmt.Errorf("fcached: %w", err)
	}

	return srv.Serve(ctx)
}
