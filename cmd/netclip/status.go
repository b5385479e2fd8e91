package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"go.klb.dev/netclip/internal/control"
)

func newStatusCmd() *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the running daemon's state",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			resp, err := daemonRequest(&control.Message{Type: control.TypeStatus})
			if err != nil {
				return err
			}
			if resp.Status == nil {
				return fmt.Errorf("malformed status response")
			}

			if jsonOut {
				enc, _ := json.MarshalIndent(resp.Status, "", "  ")
				fmt.Println(string(enc))
				return nil
			}

			s := resp.Status
			w := tabwriter.NewWriter(os.Stdout, 1, 0, 2, ' ', 0)
			fmt.Fprintf(w, "Version:\t%s\n", s.Version)
			fmt.Fprintf(w, "Group:\t%s:%d\n", s.Group, s.Port)
			fmt.Fprintf(w, "Auto-send:\t%s\n", onOff(s.AutoSend))
			fmt.Fprintf(w, "Auto-receive:\t%s\n", onOff(s.AutoReceive))
			fmt.Fprintf(w, "Outgoing:\t%d clip(s)\n", s.Outgoing)
			fmt.Fprintf(w, "Incoming:\t%d clip(s)\n", s.Incoming)
			return w.Flush()
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "output raw JSON")
	return cmd
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}
