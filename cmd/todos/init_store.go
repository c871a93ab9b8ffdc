package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func newInitStoreCommand(configPath *string) *cobra.Command {
	var skipSchemaValidation bool

	cmd := &cobra.Command{
		Use:   "init-store",
		Short: "Create or validate the item store schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return initStore(cmd.Context(), *configPath, skipSchemaValidation)
		},
	}

	cmd.Flags().BoolVar(&skipSchemaValidation, "skip-schema-validation", false, "skip verifying the existing schema")

	return cmd
}

func initStore(ctx context.Context, configPath string, skipSchemaValidation bool) error {
	rt, err := newRuntime(ctx, configPath)
	if err != nil {
		return err
	}
	defer rt.close(context.Background())

	store, closeStore, err := rt.openStore(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	if err := store.Init(ctx, skipSchemaValidation); err != nil {
		return fmt.Errorf("failed to initialize %s store: %w", rt.cfg.Store.Backend, err)
	}

	rt.logger.Info("Item store ready", "store", rt.cfg.Store.Backend)

	return nil
}
