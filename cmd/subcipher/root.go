package main

import (
	"io"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/vdparikh/subcipher/internal/config"
)

type globalFlags struct {
	configPath string
	variant    string
	redisAddr  string
	logLevel   string
}

func newRootCmd() *cobra.Command {
	g := &globalFlags{}

	cmd := &cobra.Command{
		Use:   "subcipher",
		Short: "Keyed letter substitution cipher.",
		Long: `subcipher encodes and decodes text with a substitution alphabet derived from a
26-digit key. Letter case is kept and every non-letter passes through unchanged.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&g.configPath, "config", "", "YAML config file")
	pf.StringVar(&g.variant, "variant", "", "permutation variant: sequential or direct")
	pf.StringVar(&g.redisAddr, "redis-addr", "", "Redis address for the shared permutation cache")
	pf.StringVar(&g.logLevel, "log-level", "", "log level: debug, info, warn or error")

	cmd.AddCommand(newTransformCmd(g, transformEncode))
	cmd.AddCommand(newTransformCmd(g, transformDecode))
	cmd.AddCommand(newKeygenCmd(g))
	return cmd
}

// resolve loads the config file and environment, then applies explicitly set flags.
func (g *globalFlags) resolve(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(g.configPath)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("variant") {
		cfg.Variant = g.variant
	}
	if flags.Changed("redis-addr") {
		cfg.Redis.Addr = g.redisAddr
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = g.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newLogger(w io.Writer, cfg *config.Config) *slog.Logger {
	level, err := config.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}
