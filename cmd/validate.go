package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/coal/deauthwatch/internal/mac"
)

var validateCmd = &cobra.Command{
	Use:   "validate <mac>...",
	Short: "Check MAC address syntax without contacting the backend",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runValidate,
}

func runValidate(cmd *cobra.Command, args []string) error {
	invalid := 0
	for _, a := range args {
		status := "VALID"
		if !mac.IsValid(a) {
			status = "INVALID"
			invalid++
		}
		fmt.Fprintf(os.Stdout, "  [%-7s] %q\n", status, a)
	}

	if invalid > 0 {
		return fmt.Errorf("%d of %d address(es) invalid", invalid, len(args))
	}
	return nil
}
