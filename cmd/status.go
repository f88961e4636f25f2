package cmd

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/coal/deauthwatch/internal/poller"
	"github.com/coal/deauthwatch/internal/render"
	"github.com/coal/deauthwatch/internal/state"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Poll the backend once and print the dashboard",
	Long:  "Run a single poll cycle against the backend and print the attack table and summaries as text.",
	RunE:  runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger(cfg, "status")

	client, err := newClient(cfg, logger)
	if err != nil {
		return err
	}

	store := state.New()
	p := poller.New(client, store, poller.Config{Logger: logger})
	tickErr := p.Tick(context.Background())

	if err := render.Text(os.Stdout, render.Build(store.Snapshot())); err != nil {
		return err
	}
	return tickErr
}
