package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"

	"instapi/pkg/config"
	"instapi/pkg/logger"
	"instapi/pkg/paginate"
	"instapi/pkg/ui"
)

var (
	// Version information
	version   = "0.1.0"
	gitCommit = "unknown"
	buildDate = "unknown"

	// Global flags
	configFile     string
	logLevel       string
	username       string
	cacheDir       string
	sessionBackend string
	noColor        bool
	quiet          bool
	verbose        bool

	// cfg is resolved before any subcommand runs
	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "instapi",
	Short: "Browse and download from Instagram through the private API",
	Long: `instapi logs into Instagram with a username and password and exposes
users, posts, stories and direct threads from the command line.

Sessions are cached per account so repeated runs skip the login handshake.
Configuration is read from flags, INSTAPI_* environment variables, a .env file
and .instapi.yaml, in that order of precedence.`,
	Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, gitCommit, buildDate),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if noColor {
			ui.SetNoColor()
		}
		ui.SetQuietMode(quiet)

		loaded, err := config.Load(configFile, collectFlags())
		if err != nil {
			return err
		}
		if verbose {
			loaded.Logging.Level = "debug"
		}
		if err := logger.Initialize(&loaded.Logging); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		cfg = loaded
		return nil
	},
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		ui.PrintError("Error", err)
		os.Exit(1)
	}
}

func collectFlags() map[string]interface{} {
	return map[string]interface{}{
		"username":        username,
		"cache-dir":       cacheDir,
		"session-backend": sessionBackend,
		"log-level":       logLevel,
		"output":          outputDir,
		"concurrent":      concurrent,
	}
}

// limitFrom maps the --limit flag onto a pagination bound; zero means all.
func limitFrom(n int) paginate.Limit {
	if n == 0 {
		return paginate.NoLimit
	}
	return paginate.Max(n)
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (default is ./.instapi.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVarP(&username, "username", "u", "", "account to log in as")
	rootCmd.PersistentFlags().StringVar(&cacheDir, "cache-dir", "", "session cache directory")
	rootCmd.PersistentFlags().StringVar(&sessionBackend, "session-backend", "", "session cache backend (file, keyring, none)")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "print only results and errors")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.SetVersionTemplate(`instapi {{.Version}}
Go Version: ` + runtime.Version() + `
OS/Arch: ` + runtime.GOOS + `/` + runtime.GOARCH + `
`)
	rootCmd.CompletionOptions.DisableDefaultCmd = true
}
