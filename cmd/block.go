package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/coal/deauthwatch/internal/audit"
	"github.com/coal/deauthwatch/internal/blocklist"
	"github.com/coal/deauthwatch/internal/render"
	"github.com/coal/deauthwatch/internal/state"
)

var blockCmd = &cobra.Command{
	Use:   "block [mac]",
	Short: "Block a MAC address",
	Long:  "Validate a MAC address and ask the backend to block it. With no argument the address is read from stdin.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runBlock,
}

var unblockCmd = &cobra.Command{
	Use:   "unblock <mac>",
	Short: "Unblock a MAC address",
	Args:  cobra.ExactArgs(1),
	RunE:  runUnblock,
}

var blocklistCmd = &cobra.Command{
	Use:   "blocklist",
	Short: "List blocked MAC addresses",
	RunE:  runBlocklist,
}

// newWorkflow builds a one-shot workflow whose store starts with the panel
// open, so successful actions print the refreshed blocklist.
func newWorkflow(component string) (*blocklist.Workflow, *state.Store, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	logger := newLogger(cfg, component)

	client, err := newClient(cfg, logger)
	if err != nil {
		return nil, nil, err
	}

	store := state.New()
	store.SetPanelOpen(true)
	wf := blocklist.New(client, store, blocklist.Config{
		Logger:    logger,
		Audit:     audit.NopLogger(),
		AfterFunc: func(time.Duration, func()) {},
	})
	return wf, store, nil
}

func runBlock(cmd *cobra.Command, args []string) error {
	wf, store, err := newWorkflow("block")
	if err != nil {
		return err
	}

	req := blocklist.FromField()
	if len(args) == 1 {
		req = blocklist.FromArgument(args[0])
	} else {
		line, err := readInput(os.Stdin)
		if err != nil {
			return err
		}
		store.SetInput(line)
	}

	return report(wf.Block(context.Background(), req), store)
}

// readInput reads one line for the input field. A final line without a
// newline is accepted.
func readInput(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("reading MAC from stdin: %w", err)
	}
	return line, nil
}

func runUnblock(cmd *cobra.Command, args []string) error {
	wf, store, err := newWorkflow("unblock")
	if err != nil {
		return err
	}
	return report(wf.Unblock(context.Background(), args[0]), store)
}

func runBlocklist(cmd *cobra.Command, args []string) error {
	wf, store, err := newWorkflow("blocklist")
	if err != nil {
		return err
	}
	err = wf.RefreshPanel(context.Background())
	render.WriteBlocklist(os.Stdout, render.Build(store.Snapshot()).Panel)
	return err
}

func report(out blocklist.Outcome, store *state.Store) error {
	fmt.Fprintln(os.Stderr, out.Feedback.Text)
	if !out.OK() {
		return out.Err
	}
	if store.Snapshot().Blocklist != nil {
		render.WriteBlocklist(os.Stdout, render.Build(store.Snapshot()).Panel)
	}
	return nil
}
