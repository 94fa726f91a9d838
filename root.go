package main

import (
	"context"
	"log/slog"
	"os"
	"strings"

	"formulagrid/internal/calc"
	"formulagrid/internal/config"
	"formulagrid/internal/grid"
	"formulagrid/internal/logging"
	"formulagrid/internal/sheet"
	"formulagrid/internal/storage"

	"github.com/spf13/cobra"
)

// rootOptions is shared by all commands; PersistentPreRunE fills in the
// fields below the flags.
type rootOptions struct {
	configPath string
	logLevel   string

	cfg    config.Config
	logger *slog.Logger
	funcs  calc.Registry
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:   "formulagrid",
		Short: "formulagrid evaluates spreadsheet formulas",
		Long: `formulagrid parses cell formulas such as =SUM(A1, B2*2), evaluates them
against the other cells of a sheet and reports circular references.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.setup()
		},
	}
	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "formulagrid.yaml", "Configuration file (YAML or JSON)")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Log level: debug, info, warn or error (overrides config)")

	cmd.AddCommand(
		newEvalCmd(opts),
		newEditCmd(opts),
		newServeCmd(opts),
		newConvertCmd(opts),
		newVersionCmd(),
	)
	return cmd
}

// Execute runs the command line and exits non-zero on failure.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func (o *rootOptions) setup() error {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return err
	}
	if o.logLevel != "" {
		cfg.Log.Level = o.logLevel
	}
	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		return err
	}
	funcs, err := cfg.Registry()
	if err != nil {
		return err
	}
	o.cfg = cfg
	o.logger = logging.New(level)
	o.funcs = funcs
	return nil
}

func (o *rootOptions) newSheet(extra ...sheet.Option) *sheet.Sheet {
	opts := append([]sheet.Option{
		sheet.WithLogger(o.logger),
		sheet.WithPrecision(o.cfg.Display.Precision),
	}, extra...)
	return sheet.New(o.funcs, opts...)
}

func isRedis(path string) bool {
	return strings.HasPrefix(path, "redis://") || strings.HasPrefix(path, "rediss://")
}

// redisStore connects to the URL, or to the configured server when the
// URL names no host.
func (o *rootOptions) redisStore(url string) (*storage.RedisStore, error) {
	key := storage.WithKey(o.cfg.Redis.Key)
	if url == "redis://" {
		r := o.cfg.Redis
		return storage.NewRedis(r.Addr, r.Password, r.DB, key), nil
	}
	return storage.NewRedisFromURL(url, key)
}

// load reads cells from a file or a redis:// URL.
func (o *rootOptions) load(ctx context.Context, path string) (grid.Cells, error) {
	if !isRedis(path) {
		return storage.Open(path)
	}
	store, err := o.redisStore(path)
	if err != nil {
		return nil, err
	}
	defer store.Close()
	return store.Load(ctx)
}

// save writes the sheet to a file or a redis:// URL.
func (o *rootOptions) save(ctx context.Context, path string, s *sheet.Sheet) error {
	if !isRedis(path) {
		return storage.Save(path, s)
	}
	store, err := o.redisStore(path)
	if err != nil {
		return err
	}
	defer store.Close()
	return store.Save(ctx, s.Cells())
}
