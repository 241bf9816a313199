package commands

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/tellerline/teller/internal/config"
	"github.com/tellerline/teller/internal/store/csvstore"
)

func newInitCommand() *cobra.Command {
	var name string
	var schema string
	var backend string
	var dsn string

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Initialize a new bank",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}

			absDir, err := filepath.Abs(dir)
			if err != nil {
				return fmt.Errorf("resolving path: %w", err)
			}

			cfg := config.Default(name)
			cfg.Store.Backend = backend
			cfg.Store.Schema = schema
			cfg.Store.Postgres.DSN = dsn
			if err := cfg.Validate(); err != nil {
				return err
			}

			if err := runInit(absDir, cfg); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Initialized %s at %s\n", name, absDir)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "bank name (required)")
	_ = cmd.MarkFlagRequired("name")
	cmd.Flags().StringVar(&schema, "schema", string(csvstore.SchemaLegacy), "CSV status columns: legacy or split")
	cmd.Flags().StringVar(&backend, "backend", config.BackendCSV, "record store: csv or postgres")
	cmd.Flags().StringVar(&dsn, "dsn", "", "PostgreSQL connection string for the postgres backend")

	return cmd
}

func runInit(dir string, cfg *config.Config) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating directory: %w", err)
	}

	cfgPath := filepath.Join(dir, config.FileName)
	if _, err := os.Stat(cfgPath); err == nil {
		return fmt.Errorf("%s already exists", cfgPath)
	}

	// Write an empty store with just the header, keeping any existing data.
	if cfg.Store.Backend == config.BackendCSV {
		storePath := cfg.StorePath(dir)
		_, err := os.Stat(storePath)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			schema, _ := csvstore.ParseSchema(cfg.Store.Schema)
			if err := csvstore.New(storePath, schema).Save(nil); err != nil {
				return fmt.Errorf("writing record store: %w", err)
			}
		case err != nil:
			return fmt.Errorf("checking record store: %w", err)
		}
	}

	if err := config.Save(cfgPath, cfg); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}
