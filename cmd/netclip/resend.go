package main

import (
	"github.com/spf13/cobra"

	"go.klb.dev/netclip/internal/control"
)

func newResendCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "resend [index]",
		Short: "Re-broadcast a clip from the outgoing history",
		Long: `Tells the running daemon to broadcast the outgoing history entry at the
given index again (0 = most recent, the default). Use "netclip history" to
list indices.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			i, err := parseIndex(args)
			if err != nil {
				return err
			}
			_, err = daemonRequest(&control.Message{Type: control.TypeResend, Index: i})
			return err
		},
	}
}
