package render

import (
	"fmt"
	"io"
	"text/tabwriter"
)

// Text writes v as a plain-text report for terminals.
func Text(w io.Writer, v View) error {
	fmt.Fprintf(w, "Local logs:      %s\n", v.LocalLogs)
	fmt.Fprintf(w, "Blockchain logs: %s\n", v.BlockchainLogs)
	fmt.Fprintf(w, "%s\n", v.AppID)
	if v.ExplorerURL != "" {
		fmt.Fprintf(w, "Explorer:        %s\n", v.ExplorerURL)
	}
	fmt.Fprintln(w)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "TIME\tMAC\tSIGNAL\tCHANNEL\tMESSAGE\t")
	if v.Attacks.Message != "" {
		fmt.Fprintf(tw, "%s\t\t\t\t\t\n", v.Attacks.Message)
	}
	for _, r := range v.Attacks.Rows {
		sig := r.Signal
		if r.Strength == StrengthStrong {
			sig += " (strong)"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t\n", r.Timestamp, r.MAC, sig, r.Channel, r.Message)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if v.Panel.Visible {
		fmt.Fprintln(w)
		WriteBlocklist(w, v.Panel)
	}
	if v.Result.Text != "" {
		fmt.Fprintf(w, "\n[%s] %s\n", v.Result.Kind, v.Result.Text)
	}
	return nil
}

// WriteBlocklist writes the blocklist panel contents.
func WriteBlocklist(w io.Writer, p BlocklistPanel) {
	if p.Message != "" {
		fmt.Fprintln(w, p.Message)
		return
	}
	fmt.Fprintln(w, p.Header)
	for _, e := range p.Entries {
		fmt.Fprintf(w, "  %s\n", e.MAC)
	}
}
