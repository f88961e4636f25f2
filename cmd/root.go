package cmd

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/coal/deauthwatch/internal/backend"
	"github.com/coal/deauthwatch/internal/config"
)

// Version is set at build time.
var Version = "0.1.0"

var (
	configFile string
	backendURL string
	logLevel   string
)

var rootCmd = &cobra.Command{
	Use:   "deauthwatch",
	Short: "deauthwatch: live dashboard for wireless intrusion detection",
	Long: `deauthwatch is an operator dashboard for a wireless intrusion-detection
backend. It polls the backend for detected attacks (such as deauthentication
floods), blockchain-anchored log counts and the MAC blocklist, and lets an
operator block or unblock devices.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Path to YAML config file")
	rootCmd.PersistentFlags().StringVar(&backendURL, "backend", "", "Backend API base URL (default "+backend.DefaultBaseURL+")")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(blockCmd)
	rootCmd.AddCommand(unblockCmd)
	rootCmd.AddCommand(blocklistCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Printf("deauthwatch v%s\n", Version)
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// loadConfig reads the config file, if any, and applies flag overrides.
func loadConfig() (config.Config, error) {
	cfg := config.Default()
	if configFile != "" {
		var err error
		cfg, err = config.LoadFromFile(configFile)
		if err != nil {
			return config.Config{}, fmt.Errorf("loading config: %w", err)
		}
	}
	if backendURL != "" {
		cfg.BaseURL = backendURL
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

func newLogger(cfg config.Config, component string) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || cfg.LogLevel == "" {
		level = zerolog.InfoLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(level).
		With().Timestamp().Str("component", component).Logger()
}

func newClient(cfg config.Config, logger zerolog.Logger) (*backend.Client, error) {
	client, err := backend.New(cfg.BaseURL, backend.WithLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("creating backend client: %w", err)
	}
	return client, nil
}
