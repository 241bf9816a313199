package commands

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/tellerline/teller/internal/auth"
	"github.com/tellerline/teller/internal/config"
	"github.com/tellerline/teller/internal/directory"
	"github.com/tellerline/teller/internal/engine"
	"github.com/tellerline/teller/internal/logging"
	"github.com/tellerline/teller/internal/metrics"
	"github.com/tellerline/teller/internal/store/csvstore"
	"github.com/tellerline/teller/internal/store/pgstore"
)

// app is the wired ledger behind every command that touches customers.
type app struct {
	cfg     *config.Config
	logger  *zap.Logger
	dir     *directory.Service
	engine  *engine.Engine
	gateway *auth.Gateway
}

func openApp(configPath string, collector metrics.Collector) (*app, error) {
	cfg, configDir, err := loadConfig(configPath)
	if err != nil {
		return nil, err
	}
	return newApp(cfg, configDir, collector)
}

// loadConfig reads teller.yaml and returns it with the directory it lives in.
func loadConfig(configPath string) (*config.Config, string, error) {
	absPath, err := filepath.Abs(configPath)
	if err != nil {
		return nil, "", fmt.Errorf("resolving path: %w", err)
	}
	cfg, err := config.Load(absPath)
	if err != nil {
		return nil, "", err
	}
	cfg.ApplyEnv()
	return cfg, filepath.Dir(absPath), nil
}

func newApp(cfg *config.Config, configDir string, collector metrics.Collector) (*app, error) {
	logger, err := logging.New(cfg.Log)
	if err != nil {
		return nil, err
	}

	store, err := openStore(cfg, configDir)
	if err != nil {
		_ = logger.Sync()
		return nil, err
	}

	dir, err := directory.Load(store, directory.Options{Logger: logger, Metrics: collector})
	if err != nil {
		if c, ok := store.(io.Closer); ok {
			_ = c.Close()
		}
		_ = logger.Sync()
		return nil, err
	}

	return &app{
		cfg:    cfg,
		logger: logger,
		dir:    dir,
		engine: engine.New(dir, engine.Options{
			Logger:                  logger,
			Metrics:                 collector,
			StrictExternalTransfers: cfg.Ledger.StrictExternalTransfers,
		}),
		gateway: auth.NewGateway(dir, logger),
	}, nil
}

func openStore(cfg *config.Config, configDir string) (directory.Store, error) {
	switch cfg.Store.Backend {
	case config.BackendPostgres:
		return pgstore.Open(cfg.Store.Postgres)
	default:
		schema, err := csvstore.ParseSchema(cfg.Store.Schema)
		if err != nil {
			return nil, err
		}
		return csvstore.New(cfg.StorePath(configDir), schema), nil
	}
}

func (a *app) Close() error {
	err := a.dir.Close()
	_ = a.logger.Sync()
	return err
}

// credentials are the login flags shared by commands acting for a customer.
type credentials struct {
	accountID string
	password  string
}

func (c *credentials) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&c.accountID, "id", "", "account ID (required)")
	cmd.Flags().StringVar(&c.password, "password", "", "password (default $TELLER_PASSWORD)")
	_ = cmd.MarkFlagRequired("id")
}

// withSession opens the ledger, logs the customer in, runs fn and logs out.
func withSession(configPath string, creds credentials, fn func(a *app, sess *auth.Session) error) error {
	password := creds.password
	if password == "" {
		password = os.Getenv("TELLER_PASSWORD")
	}
	if password == "" {
		return errors.New("a password is required (--password or TELLER_PASSWORD)")
	}

	a, err := openApp(configPath, nil)
	if err != nil {
		return err
	}
	defer a.Close()

	sess, err := a.gateway.Authenticate(creds.accountID, password)
	if err != nil {
		return err
	}
	defer a.gateway.Logout(sess)

	return fn(a, sess)
}
