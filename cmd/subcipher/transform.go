package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"github.com/vdparikh/subcipher"
	"github.com/vdparikh/subcipher/internal/config"
	"github.com/vdparikh/subcipher/rediscache"
	"github.com/vdparikh/subcipher/tinksubst"
)

type transformKind struct {
	name  string
	short string
	long  string
	mode  subcipher.Mode
}

var (
	transformEncode = transformKind{
		name:  "encode",
		short: "Encode text with a key.",
		long: `Encode text with a 26-digit key. Without --key or --keyset a key is generated
with the configured strategy and printed to stderr; keep it to decode later.`,
		mode: subcipher.Encode,
	}
	transformDecode = transformKind{
		name:  "decode",
		short: "Decode text encoded with the same key.",
		long:  "Decode text with the 26-digit key it was encoded with. A key is required.",
		mode:  subcipher.Decode,
	}
)

var errNoInput = errors.New("no input text provided. Use --text, --file, or pipe to stdin")

// maxKeyAttempts bounds the search for a generated key the direct variant accepts.
const maxKeyAttempts = 100

type transformFlags struct {
	key        string
	keysetPath string
	text       string
	file       string
	output     string
}

func newTransformCmd(g *globalFlags, kind transformKind) *cobra.Command {
	f := &transformFlags{}

	cmd := &cobra.Command{
		Use:   kind.name,
		Short: kind.short,
		Long:  kind.long,
		Example: fmt.Sprintf(`  subcipher %[1]s --key 12345678901234567890123456 --text "Hello, World!"
  subcipher %[1]s --keyset key.json --file message.txt --output out.txt
  echo "Hello" | subcipher %[1]s --key 12345678901234567890123456`, kind.name),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := g.resolve(cmd)
			if err != nil {
				return err
			}
			return runTransform(cmd, cfg, f, kind.mode)
		},
	}

	cmd.Flags().StringVarP(&f.key, "key", "k", "", "26-digit key")
	cmd.Flags().StringVar(&f.keysetPath, "keyset", "", "cleartext Tink keyset file holding the key")
	cmd.Flags().StringVarP(&f.text, "text", "t", "", "text to process")
	cmd.Flags().StringVarP(&f.file, "file", "f", "", "file to process")
	cmd.Flags().StringVarP(&f.output, "output", "o", "", "output file (default: stdout)")
	cmd.MarkFlagsMutuallyExclusive("key", "keyset")
	if kind.mode == subcipher.Decode {
		cmd.MarkFlagsOneRequired("key", "keyset")
	}
	cmd.MarkFlagsMutuallyExclusive("text", "file")
	return cmd
}

func runTransform(cmd *cobra.Command, cfg *config.Config, f *transformFlags, mode subcipher.Mode) error {
	logger := newLogger(cmd.ErrOrStderr(), cfg)
	ctx := cmd.Context()

	key, err := f.resolveKey()
	if err != nil {
		return err
	}
	generated := false
	if key == "" && !cmd.Flags().Changed("key") && mode == subcipher.Encode {
		k, err := generateUsableKey(cfg)
		if err != nil {
			return err
		}
		key, generated = k.String(), true
		logger.Debug("no key given, generated one", "strategy", cfg.Strategy)
	}

	input, err := readInput(cmd, f)
	if err != nil {
		return err
	}

	cache, closeCache := newCache(cfg, logger)
	defer closeCache()

	deriver := subcipher.NewDeriver(cache,
		subcipher.WithVariant(cfg.VariantValue()),
		subcipher.WithErrorHandler(func(op string, err error) {
			logger.Warn("permutation cache unavailable", "op", op, "err", err)
		}),
	)

	perm, hit, err := deriver.Derive(ctx, key)
	if err != nil {
		return err
	}
	logger.Debug("permutation ready", "variant", cfg.Variant, "cache_hit", hit)

	out, err := subcipher.Transform(input, perm, mode)
	if err != nil {
		return err
	}
	logger.Debug("message transformed", "mode", mode, "bytes", len(out))

	if err := writeOutput(cmd, f.output, out); err != nil {
		return err
	}
	if generated {
		// Stdout carries only the message, so the key goes to stderr.
		fmt.Fprintf(cmd.ErrOrStderr(), "generated key: %s\n", key)
	}
	return nil
}

// generateUsableKey draws keys with the configured strategy until one derives a
// permutation under the configured variant.
func generateUsableKey(cfg *config.Config) (subcipher.Key, error) {
	next, err := subcipher.StrategyByName(cfg.Strategy, nil)
	if err != nil {
		return subcipher.Key{}, err
	}
	for i := 0; i < maxKeyAttempts; i++ {
		k, err := next()
		if err != nil {
			return subcipher.Key{}, err
		}
		if _, err := subcipher.DeriveFromKey(k, cfg.VariantValue()); err == nil {
			return k, nil
		}
	}
	return subcipher.Key{}, fmt.Errorf("no %s key usable with the %s variant after %d attempts; try strategy repeated",
		cfg.Strategy, cfg.Variant, maxKeyAttempts)
}

func (f *transformFlags) resolveKey() (string, error) {
	if f.keysetPath == "" {
		return f.key, nil
	}

	file, err := os.Open(f.keysetPath)
	if err != nil {
		return "", fmt.Errorf("failed to open keyset: %w", err)
	}
	defer file.Close()

	handle, err := tinksubst.ReadKeyset(file)
	if err != nil {
		return "", err
	}
	key, err := tinksubst.PrimaryKey(handle)
	if err != nil {
		return "", err
	}
	return key.String(), nil
}

// newCache returns the Redis cache when an address is configured and an
// in-process cache otherwise.
func newCache(cfg *config.Config, logger *slog.Logger) (subcipher.PermutationCache, func()) {
	if cfg.Redis.Addr == "" {
		return subcipher.NewMemoryCache(), func() {}
	}

	// Variants derive different permutations for the same key.
	prefix := cfg.Redis.Prefix + ":" + cfg.VariantValue().String()

	client := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr})
	logger.Debug("using redis permutation cache", "addr", cfg.Redis.Addr, "prefix", prefix)

	cache := rediscache.New(client,
		rediscache.WithPrefix(prefix),
		rediscache.WithTTL(cfg.Redis.TTL),
	)
	return cache, func() {
		if err := client.Close(); err != nil {
			logger.Warn("failed to close redis client", "err", err)
		}
	}
}

func readInput(cmd *cobra.Command, f *transformFlags) (string, error) {
	if cmd.Flags().Changed("text") {
		return f.text, nil
	}

	if f.file != "" {
		data, err := os.ReadFile(f.file)
		if err != nil {
			return "", fmt.Errorf("failed to read file: %w", err)
		}
		return string(data), nil
	}

	in := cmd.InOrStdin()
	if file, ok := in.(*os.File); ok {
		if stat, err := file.Stat(); err != nil || stat.Mode()&os.ModeCharDevice != 0 {
			return "", errNoInput
		}
	}
	data, err := io.ReadAll(in)
	if err != nil {
		return "", fmt.Errorf("failed to read stdin: %w", err)
	}
	return string(data), nil
}

func writeOutput(cmd *cobra.Command, path, out string) error {
	if path != "" {
		if err := os.WriteFile(path, []byte(out), 0o644); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
		return nil
	}
	_, err := io.WriteString(cmd.OutOrStdout(), out)
	return err
}
