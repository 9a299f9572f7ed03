package main

import (
	"fmt"
	"os"

	"github.com/google/tink/go/keyset"
	"github.com/google/tink/go/proto/tink_go_proto"
	"github.com/spf13/cobra"
	"github.com/vdparikh/subcipher"
	"github.com/vdparikh/subcipher/internal/config"
	"github.com/vdparikh/subcipher/tinksubst"
)

type keygenFlags struct {
	strategy   string
	keysetPath string
}

func newKeygenCmd(g *globalFlags) *cobra.Command {
	f := &keygenFlags{}

	cmd := &cobra.Command{
		Use:   "keygen",
		Short: "Generate a new 26-digit key.",
		Example: `  subcipher keygen
  subcipher keygen --strategy repeated
  subcipher keygen --keyset key.json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := g.resolve(cmd)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("strategy") {
				cfg.Strategy = f.strategy
			}
			return runKeygen(cmd, cfg, f)
		},
	}

	cmd.Flags().StringVarP(&f.strategy, "strategy", "s", "", "key strategy: random or repeated")
	cmd.Flags().StringVar(&f.keysetPath, "keyset", "", "also write the key as a cleartext Tink keyset to this file")
	return cmd
}

func runKeygen(cmd *cobra.Command, cfg *config.Config, f *keygenFlags) error {
	logger := newLogger(cmd.ErrOrStderr(), cfg)

	var (
		key subcipher.Key
		err error
	)
	if f.keysetPath != "" {
		key, err = writeKeyset(f.keysetPath, cfg.Strategy)
	} else {
		key, err = generate(cfg.Strategy)
	}
	if err != nil {
		return err
	}
	logger.Debug("key generated", "strategy", cfg.Strategy, "keyset", f.keysetPath != "")

	if cfg.VariantValue() == subcipher.VariantDirectShift {
		if _, err := subcipher.DeriveFromKey(key, subcipher.VariantDirectShift); err != nil {
			logger.Warn("generated key is not usable with the direct variant", "err", err)
		}
	}

	_, err = fmt.Fprintln(cmd.OutOrStdout(), key.String())
	return err
}

func generate(strategy string) (subcipher.Key, error) {
	next, err := subcipher.StrategyByName(strategy, nil)
	if err != nil {
		return subcipher.Key{}, err
	}
	return next()
}

func writeKeyset(path, strategy string) (subcipher.Key, error) {
	var template *tink_go_proto.KeyTemplate
	switch strategy {
	case "", "random":
		template = tinksubst.KeyTemplate()
	case "repeated":
		template = tinksubst.KeyTemplateRepeatedDigit()
	default:
		return subcipher.Key{}, fmt.Errorf("unknown key strategy %q (want random or repeated)", strategy)
	}

	if err := tinksubst.Register(); err != nil {
		return subcipher.Key{}, fmt.Errorf("failed to register key manager: %w", err)
	}
	handle, err := keyset.NewHandle(template)
	if err != nil {
		return subcipher.Key{}, fmt.Errorf("failed to create keyset: %w", err)
	}

	key, err := tinksubst.PrimaryKey(handle)
	if err != nil {
		return subcipher.Key{}, err
	}
	if err := saveKeyset(path, handle); err != nil {
		return subcipher.Key{}, err
	}
	return key, nil
}

// saveKeyset writes handle to path. A failed write leaves no file behind.
func saveKeyset(path string, handle *keyset.Handle) (err error) {
	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("failed to create keyset file: %w", err)
	}
	defer func() {
		if cerr := file.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close keyset file: %w", cerr)
		}
		if err != nil {
			os.Remove(path)
		}
	}()

	return tinksubst.WriteKeyset(handle, file)
}
