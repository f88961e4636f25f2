package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/coal/deauthwatch/internal/audit"
	"github.com/coal/deauthwatch/internal/dashboard"
	"github.com/coal/deauthwatch/internal/metrics"
)

var (
	listenAddr   string
	auditFile    string
	pollInterval time.Duration
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the live dashboard",
	Long:  "Poll the backend on a fixed interval and serve the operator dashboard over HTTP.",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&listenAddr, "listen", "", "Address to listen on (default :8088)")
	serveCmd.Flags().StringVar(&auditFile, "audit-log", "", "Path to audit log file (default: stderr)")
	serveCmd.Flags().DurationVar(&pollInterval, "interval", 0, "Poll interval (default 5s)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if listenAddr != "" {
		cfg.Listen = listenAddr
	}
	if auditFile != "" {
		cfg.AuditLog = auditFile
	}
	if pollInterval > 0 {
		cfg.PollInterval = pollInterval
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := newLogger(cfg, "deauthwatch")

	client, err := newClient(cfg, logger.With().Str("component", "backend").Logger())
	if err != nil {
		return err
	}

	// Set up audit logger
	var auditLogger *audit.Logger
	if cfg.AuditLog != "" {
		auditLogger, err = audit.NewFileLogger(cfg.AuditLog)
		if err != nil {
			return fmt.Errorf("creating audit logger: %w", err)
		}
		defer auditLogger.Close()
		logger.Info().Str("path", cfg.AuditLog).Msg("audit log enabled")
	} else {
		auditLogger = audit.NewStderrLogger()
	}

	dash := dashboard.New(client, dashboard.Options{
		PollInterval: cfg.PollInterval,
		ClearDelay:   cfg.FeedbackClearDelay,
		Logger:       logger,
		Metrics:      metrics.New(),
		Audit:        auditLogger,
	})
	dash.Start(context.Background())

	logger.Info().
		Str("listen", cfg.Listen).
		Str("backend", client.BaseURL()).
		Dur("interval", cfg.PollInterval).
		Msg("starting dashboard")

	dashAddr := cfg.Listen
	if strings.HasPrefix(dashAddr, ":") {
		dashAddr = "localhost" + dashAddr
	}
	fmt.Fprintf(os.Stderr, "\n  deauthwatch v%s\n", Version)
	fmt.Fprintf(os.Stderr, "  Backend:   %s\n", client.BaseURL())
	fmt.Fprintf(os.Stderr, "  Dashboard: http://%s/\n", dashAddr)
	fmt.Fprintf(os.Stderr, "  Metrics:   http://%s/metrics\n\n", dashAddr)

	return http.ListenAndServe(cfg.Listen, dashboard.Handler(dash))
}
