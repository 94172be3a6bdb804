package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"sentinel/internal/ban"
	"sentinel/internal/config"
	"sentinel/internal/logger"
	"sentinel/internal/player"
	"sentinel/internal/reason"
	"sentinel/internal/storage"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	// Import storage backends to register factories
	_ "sentinel/internal/storage/postgres"
	_ "sentinel/internal/storage/sqlite"
)

var (
	// cfgFile is the path to the config file (set via --config flag)
	cfgFile string

	// cfg holds the loaded configuration
	cfg *config.SentinelctlConfig

	// log is the logger instance
	log *logger.Logger

	// cmdCtx is the command context with logger attached
	cmdCtx context.Context

	// cmdStartTime tracks when command execution started
	cmdStartTime time.Time

	// Global output flags
	outputFormat string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "sentinelctl",
	Short: "sentinelctl administers bans and ban reasons",
	Long: `sentinelctl is the administration CLI for the sentinel ban system.
It manages the reason catalog, creates and lifts bans, inspects ban
history, and can trigger an expiration sweep on demand.`,
	TraverseChildren: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := loadConfig(cmd); err != nil {
			return err
		}

		var err error
		log, err = logger.New(cfg.Log)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}

		cmdCtx = logger.WithLogger(context.Background(), log)
		cmdStartTime = time.Now()

		log.Debug("command started", "command", cmd.Name(), "args", args)
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if log == nil {
			return nil
		}

		log.Debug("command completed",
			"command", cmd.Name(),
			"duration_ms", time.Since(cmdStartTime).Milliseconds(),
		)
		log.Close()
		return nil
	},
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(onInitialize)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.config/sentinelctl/config.yaml)")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "text", "output format (text, json)")

	viper.BindPFlag("output.format", rootCmd.PersistentFlags().Lookup("output"))
}

// onInitialize is called before any command runs
func onInitialize() {
	// Auto-generate config on first run
	if cfgFile == "" {
		path, created, err := config.GenerateConfigIfNotExists(config.AppSentinelctl)
		if err == nil && created {
			fmt.Fprintf(os.Stderr, "Created default config at: %s\n", path)
		}
	}
}

// loadConfig loads the configuration
func loadConfig(cmd *cobra.Command) error {
	var err error
	cfg, err = config.LoadSentinelctl(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if cmd.Flags().Changed("output") {
		cfg.Output.Format = viper.GetString("output.format")
	}

	return nil
}

// openEngine opens the configured storage backend and wires the ban engine
// and player directory on top of it. The returned close function must be
// called when done.
func openEngine(ctx context.Context) (*ban.Engine, *player.Directory, func(), error) {
	storage.SetLogger(log)

	store, err := storage.Open(ctx, convertStorageConfig(), dataDir())
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to open storage: %w", err)
	}

	catalog := reason.NewCatalog(store.Reasons())
	directory := player.NewDirectory(store.Players())
	engine := ban.NewEngine(store, catalog, directory, cfg.Database.QueryTimeout)

	return engine, directory, func() { _ = store.Close() }, nil
}

// openCatalog opens storage and returns just the reason catalog.
func openCatalog(ctx context.Context) (*reason.Catalog, func(), error) {
	storage.SetLogger(log)

	store, err := storage.Open(ctx, convertStorageConfig(), dataDir())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open storage: %w", err)
	}

	return reason.NewCatalog(store.Reasons()), func() { _ = store.Close() }, nil
}

// openDirectory opens storage and returns just the player directory.
func openDirectory(ctx context.Context) (*player.Directory, func(), error) {
	storage.SetLogger(log)

	store, err := storage.Open(ctx, convertStorageConfig(), dataDir())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open storage: %w", err)
	}

	return player.NewDirectory(store.Players()), func() { _ = store.Close() }, nil
}

// dataDir is where the SQLite backend keeps its database when no explicit
// path is configured. It matches the daemon's default so both binaries see
// the same data.
func dataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home + "/.local/share/sentineld"
}

// convertStorageConfig maps the config package types onto the storage ones.
func convertStorageConfig() storage.Config {
	db := cfg.Database
	return storage.Config{
		Backend:      storage.BackendType(db.Backend),
		QueryTimeout: db.QueryTimeout,
		SQLite: storage.SQLiteConfig{
			Path:         db.SQLite.Path,
			MaxOpenConns: db.SQLite.MaxOpenConns,
			BusyTimeout:  5 * time.Second,
		},
		Postgres: storage.PostgresConfig{
			Host:           db.Postgres.Host,
			Port:           db.Postgres.Port,
			Database:       db.Postgres.Database,
			User:           db.Postgres.User,
			Password:       db.Postgres.Password,
			SSLMode:        db.Postgres.SSLMode,
			MaxConnections: db.Postgres.MaxConnections,
		},
	}
}

// Config returns the current configuration (for use by subcommands)
func Config() *config.SentinelctlConfig {
	return cfg
}

// Log returns the logger instance (for use by subcommands)
func Log() *logger.Logger {
	return log
}

// Context returns the command context (for use by subcommands)
func Context() context.Context {
	return cmdCtx
}
