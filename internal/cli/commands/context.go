package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"slices"
	"strconv"

	_ "github.com/go-sql-driver/mysql" // mysql driver
	"github.com/spf13/cobra"
	_ "modernc.org/sqlite" // sqlite driver

	"github.com/syssam/userdb"
	"github.com/syssam/userdb/config"
	"github.com/syssam/userdb/dialect"
	"github.com/syssam/userdb/dialect/sql"
)

// configKey is used to store config in context.
type configKey struct{}

// LoadConfig loads the configuration for cmd, with the root persistent flags
// taking precedence, and stores it in the command context.
func LoadConfig(cmd *cobra.Command, path string) error {
	cfg, err := config.Load(path, cmd.Root().PersistentFlags())
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	cmd.SetContext(context.WithValue(ctx, configKey{}, cfg))
	return nil
}

// GetConfig retrieves the config from the command context, or loads the
// defaults when none was stored.
func GetConfig(cmd *cobra.Command) (*config.Config, error) {
	if ctx := cmd.Context(); ctx != nil {
		if c, ok := ctx.Value(configKey{}).(*config.Config); ok {
			return c, nil
		}
	}
	return config.Load("", nil)
}

// Session is an opened database with its statement statistics.
type Session struct {
	Config *config.Config
	DB     *userdb.Database
	Stats  *sql.StatsDriver
	Logger *slog.Logger

	drv dialect.Driver
}

// Context returns ctx carrying the configured session variables. The driver
// sets them on the connection before every statement issued with it.
func (s *Session) Context(ctx context.Context) context.Context {
	for _, name := range slices.Sorted(maps.Keys(s.Config.SessionVars)) {
		ctx = sql.WithVar(ctx, name, s.Config.SessionVars[name])
	}
	return ctx
}

// Close closes the database connection and logs the statement statistics.
func (s *Session) Close() error {
	s.Logger.Debug("statement stats", "stats", s.Stats.QueryStats().Stats().String())
	return s.drv.Close()
}

// NewLogger returns the text logger used by all commands.
func NewLogger(w io.Writer, debug bool) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// OpenSession opens the configured database.
func OpenSession(cmd *cobra.Command) (*Session, error) {
	cfg, err := GetConfig(cmd)
	if err != nil {
		return nil, err
	}
	logger := NewLogger(cmd.ErrOrStderr(), cfg.Debug)
	if len(cfg.SessionVars) > 0 && cfg.Dialect != dialect.MySQL {
		return nil, fmt.Errorf("session_vars require the %s dialect, got %q", dialect.MySQL, cfg.Dialect)
	}
	for name := range cfg.SessionVars {
		if !sql.ValidIdentifier(name) {
			return nil, fmt.Errorf("invalid session variable name %q", name)
		}
	}

	base, err := sql.Open(cfg.Dialect, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	var drv dialect.Driver = base
	if cfg.Debug {
		drv = sql.NewDebugDriver(drv, logger)
	}
	stats := sql.NewStatsDriver(drv,
		sql.WithSlowThreshold(cfg.SlowThreshold),
		sql.WithSlowQueryLog(logger),
	)

	tables, err := cfg.BuildTables()
	if err != nil {
		_ = base.Close()
		return nil, err
	}
	opts := []userdb.Option{userdb.WithLogger(logger)}
	if cfg.CacheTTL > 0 {
		opts = append(opts, userdb.WithCache(userdb.NewMemoryCache(), cfg.CacheTTL))
	}
	db, err := userdb.New(stats, tables, opts...)
	if err != nil {
		_ = base.Close()
		return nil, err
	}
	return &Session{Config: cfg, DB: db, Stats: stats, Logger: logger, drv: base}, nil
}

// parseID parses a positive row id argument.
func parseID(name, s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s %q: expected a positive integer", name, s)
	}
	return id, nil
}

// writeJSON writes v as indented JSON followed by a newline.
func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
