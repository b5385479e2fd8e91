package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"go.klb.dev/netclip/internal/control"
)

func newHistoryCmd() *cobra.Command {
	var (
		received bool
		jsonOut  bool
		full     bool
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List the daemon's clip history",
		Long: `Lists the outgoing clip history of the running daemon, most recent first.
Pass --received for the incoming history instead. Labels are shortened;
--full prints the complete clip text, --json the raw entries.`,
		Args: cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			resp, err := daemonRequest(&control.Message{Type: control.TypeHistory, Received: received})
			if err != nil {
				return err
			}

			if jsonOut {
				enc, _ := json.MarshalIndent(resp.Clips, "", "  ")
				fmt.Println(string(enc))
				return nil
			}

			if len(resp.Clips) == 0 {
				if received {
					fmt.Println("(no items received yet)")
				} else {
					fmt.Println("(no items to send yet)")
				}
				return nil
			}

			tw := tabwriter.NewWriter(os.Stdout, 1, 0, 2, ' ', 0)
			for i, c := range resp.Clips {
				text := c.Label
				if full {
					text = c.Text
				}
				fmt.Fprintf(tw, "%d\t%s\n", i, text)
			}
			return tw.Flush()
		},
	}

	f := cmd.Flags()
	f.BoolVar(&received, "received", false, "list the incoming history instead of the outgoing one")
	f.BoolVar(&full, "full", false, "print full clip text instead of shortened labels")
	f.BoolVar(&jsonOut, "json", false, "output raw JSON")

	return cmd
}
