// Package wire provides dependency injection for the harvest application.
// It creates singleton services with lazy initialization.
package wire

import (
	"database/sql"
	"fmt"
	"io"
	"os"
	"sync"

	"go.uber.org/zap"

	"github.com/example/harvest/internal/adapters/browser"
	cliadapter "github.com/example/harvest/internal/adapters/cli"
	"github.com/example/harvest/internal/adapters/filesystem"
	"github.com/example/harvest/internal/adapters/jsonstore"
	"github.com/example/harvest/internal/adapters/remote"
	"github.com/example/harvest/internal/adapters/signer"
	"github.com/example/harvest/internal/adapters/sqlite"
	"github.com/example/harvest/internal/app"
	"github.com/example/harvest/internal/config"
	"github.com/example/harvest/internal/core/errs"
	"github.com/example/harvest/internal/core/pacing"
	"github.com/example/harvest/internal/db"
	"github.com/example/harvest/internal/logging"
	"github.com/example/harvest/internal/metrics"
	"github.com/example/harvest/internal/ports/primary"
)

// PassphraseEnv names the variable holding the accounts file passphrase.
const PassphraseEnv = "HARVEST_STATE_PASSPHRASE"

// Options are the process-level settings taken from global flags.
type Options struct {
	ConfigPath string // empty: .harvest/config.yaml in the working directory
	DBPath     string // empty: ~/.harvest/harvest.db
	LogLevel   string
	LogJSON    bool
}

var (
	opts Options

	cfg            *config.Config
	logger         *zap.Logger
	database       *sql.DB
	recorder       *metrics.Recorder
	batchService   primary.BatchService
	statsService   primary.StatsService
	historyService primary.HistoryService
	accountService primary.AccountService

	once    sync.Once
	initErr error
)

// Configure sets the options used by the first service access.
// It has no effect once services are initialized.
func Configure(o Options) {
	opts = o
}

// initServices initializes all services and their dependencies.
// This is called once via sync.Once.
func initServices() {
	initErr = buildServices()
}

func buildServices() error {
	var err error

	logger, err = logging.New(defaultString(opts.LogLevel, "info"), opts.LogJSON)
	if err != nil {
		return errs.Configf(err, "logging")
	}

	configPath := opts.ConfigPath
	if configPath == "" {
		wd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("failed to get working directory: %w", err)
		}
		configPath = config.Path(wd)
	}
	cfg, err = config.LoadConfig(configPath)
	if err != nil {
		return errs.Configf(err, "config %s", configPath)
	}

	dbPath := opts.DBPath
	if dbPath == "" {
		dbPath, err = config.DefaultDBPath()
		if err != nil {
			return err
		}
	}
	database, err = db.Open(dbPath)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}

	// Create repository adapters (secondary ports)
	accountStore := jsonstore.NewAccountStore(cfg.Files.Accounts, os.Getenv(PassphraseEnv))
	ledgerStore := jsonstore.NewLedgerStore(cfg.Files.Progress)
	pools := filesystem.NewPoolFiles(cfg.Files.Proxies, cfg.Files.UserAgents)
	runRepo := sqlite.NewRunRepository(database)
	recorder = metrics.NewRecorder()

	// Create services (primary ports implementation)
	batchService = app.NewBatchService(app.BatchDeps{
		Accounts: accountStore,
		Ledger:   ledgerStore,
		Pools:    pools,
		Sessions: browser.NewProvider(cfg.Browser, logger),
		Remotes:  remote.NewFactory(cfg.BaseURL, cfg.Remote),
		Signer:   signer.New(),
		Runs:     runRepo,
		Metrics:  recorder,
		Logger:   logger,
	}, app.BatchSettings{
		BaseURL: cfg.BaseURL,
		Pacing: pacing.Policy{
			Account: cfg.Pacing.Account,
			Skip:    cfg.Pacing.Skip,
			Item:    cfg.Pacing.Item,
			Jitter:  cfg.Pacing.Jitter,
		},
		Collect: cfg.Collect,
	})
	statsService = app.NewStatsService(ledgerStore)
	historyService = app.NewHistoryService(runRepo)
	accountService = app.NewAccountService(accountStore, ledgerStore, pools)
	return nil
}

func defaultString(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

// Config returns the loaded configuration.
func Config() (*config.Config, error) {
	once.Do(initServices)
	return cfg, initErr
}

// Metrics returns the recorder the batch service reports to.
func Metrics() (*metrics.Recorder, error) {
	once.Do(initServices)
	return recorder, initErr
}

// RunAdapter returns a new RunAdapter writing to out.
// Each call creates a new adapter (adapters are stateless translators).
func RunAdapter(out io.Writer) (*cliadapter.RunAdapter, error) {
	once.Do(initServices)
	if initErr != nil {
		return nil, initErr
	}
	return cliadapter.NewRunAdapter(batchService, out), nil
}

// StatsAdapter returns a new StatsAdapter writing to out.
func StatsAdapter(out io.Writer) (*cliadapter.StatsAdapter, error) {
	once.Do(initServices)
	if initErr != nil {
		return nil, initErr
	}
	return cliadapter.NewStatsAdapter(statsService, out), nil
}

// HistoryAdapter returns a new HistoryAdapter writing to out.
func HistoryAdapter(out io.Writer) (*cliadapter.HistoryAdapter, error) {
	once.Do(initServices)
	if initErr != nil {
		return nil, initErr
	}
	return cliadapter.NewHistoryAdapter(historyService, out), nil
}

// AccountAdapter returns a new AccountAdapter writing to out.
func AccountAdapter(out io.Writer) (*cliadapter.AccountAdapter, error) {
	once.Do(initServices)
	if initErr != nil {
		return nil, initErr
	}
	return cliadapter.NewAccountAdapter(accountService, out), nil
}

// Close releases the database and flushes the logger. Safe to call when nothing was initialized.
func Close() {
	if database != nil {
		_ = database.Close()
	}
	if logger != nil {
		_ = logger.Sync()
	}
}
