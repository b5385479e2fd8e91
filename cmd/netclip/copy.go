package main

import (
	"github.com/spf13/cobra"

	"go.klb.dev/netclip/internal/control"
)

func newCopyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "copy [index]",
		Short: "Copy a received clip to the system clipboard",
		Long: `Tells the running daemon to copy the incoming history entry at the given
index to the system clipboard (0 = most recent, the default). Use
"netclip history --received" to list indices.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			i, err := parseIndex(args)
			if err != nil {
				return err
			}
			_, err = daemonRequest(&control.Message{Type: control.TypeCopy, Index: i})
			return err
		},
	}
}
