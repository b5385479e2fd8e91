package main

import (
	"github.com/spf13/cobra"

	"go.klb.dev/netclip/internal/control"
)

func newToggleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "toggle <autosend|autoreceive> <on|off>",
		Short: "Flip a feature toggle in the running daemon",
		Long: `Enables or disables automatic behaviour at runtime:

  autosend     broadcast new clipboard content as soon as it appears
  autoreceive  copy received clips straight to the system clipboard`,
		Args: cobra.ExactArgs(2),
		RunE: func(_ *cobra.Command, args []string) error {
			toggle, err := control.ParseToggle(args[0])
			if err != nil {
				return err
			}
			enabled, err := parseOnOff(args[1])
			if err != nil {
				return err
			}
			_, err = daemonRequest(&control.Message{
				Type:    control.TypeToggle,
				Toggle:  toggle,
				Enabled: enabled,
			})
			return err
		},
	}
}
