// Package cli provides the pastq command-line browser.
package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/culpastquestions-arch/caleb-university-resource-bank-project/internal/crypto"
	"github.com/culpastquestions-arch/caleb-university-resource-bank-project/internal/logging"
	"github.com/culpastquestions-arch/caleb-university-resource-bank-project/internal/pathcache"
	"github.com/culpastquestions-arch/caleb-university-resource-bank-project/internal/policy"
)

// Version is set at build time.
var Version = "dev"

// defaultCacheBytes caps the local cache database.
const defaultCacheBytes = 5 << 20

type rootOptions struct {
	apiURL     string
	cacheDB    string
	cacheBytes int64
	policyFile string
	verbose    bool

	// newEncryptor builds the sealing backend for the secret commands.
	newEncryptor func(ctx context.Context, keyID string) (crypto.Encryptor, error)
}

// NewRootCmd creates the pastq root command.
func NewRootCmd() *cobra.Command {
	return newRootCmd(&rootOptions{newEncryptor: newKMSEncryptor})
}

func newRootCmd(opts *rootOptions) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "pastq",
		Short: "Browse the past-questions archive from the terminal",
		Long: `pastq lists departments, levels, semesters, sessions and documents
through the browse gateway, keeping a local cache of every listing.

Examples:
  pastq ls /
  pastq ls "/Computer Science/100 Level"
  pastq ls "/Computer Science/100 Level/First Semester/2024~25 Session"
  pastq cache clear`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level := "warn"
			if opts.verbose {
				level = "debug"
			}
			return logging.Init(logging.Config{Level: level, Format: "console"})
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = logging.Sync()
		},
	}

	rootCmd.PersistentFlags().StringVar(&opts.apiURL, "api-url", envOr("PASTQ_API_URL", "http://localhost:8080/api"), "Browse gateway base URL")
	rootCmd.PersistentFlags().StringVar(&opts.cacheDB, "cache-db", envOr("PASTQ_CACHE_DB", defaultCachePath()), "Local cache database path")
	rootCmd.PersistentFlags().Int64Var(&opts.cacheBytes, "cache-max-bytes", defaultCacheBytes, "Size cap of the local cache database")
	rootCmd.PersistentFlags().StringVar(&opts.policyFile, "policy", os.Getenv("DEPARTMENT_POLICY_FILE"), "Department policy file used to tell folder pages from document pages")
	rootCmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Verbose output (shows debug messages)")

	rootCmd.AddCommand(newLsCmd(opts))
	rootCmd.AddCommand(newCacheCmd(opts))
	rootCmd.AddCommand(newSecretCmd(opts))

	return rootCmd
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func defaultCachePath() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		return "pastq-cache.db"
	}
	return filepath.Join(dir, "pastq", "cache.db")
}

// openCache opens the local listing cache and drops entries written by an
// older cache format.
func (o *rootOptions) openCache(ctx context.Context) (*pathcache.Cache, func() error, error) {
	if dir := filepath.Dir(o.cacheDB); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, nil, fmt.Errorf("create cache directory: %w", err)
		}
	}
	store, err := pathcache.OpenSQLite(o.cacheDB, pathcache.WithMaxBytes(o.cacheBytes))
	if err != nil {
		return nil, nil, err
	}
	cache := pathcache.New(store)
	cache.EnsureVersion(ctx)
	return cache, store.Close, nil
}

func (o *rootOptions) policy() (*policy.Policy, error) {
	if o.policyFile == "" {
		return policy.Default(), nil
	}
	return policy.Load(o.policyFile)
}

// Execute runs the root command and exits non-zero on failure.
func Execute(ctx context.Context) {
	if err := NewRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
