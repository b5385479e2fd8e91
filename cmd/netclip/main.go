// netclip: clipboard mirroring between machines over UDP multicast.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"go.klb.dev/netclip/internal/logging"
)

// Version is set at build time via -ldflags "-X main.Version=x.y.z".
var Version = "dev"

func main() {
	root := &cobra.Command{
		Use:   "netclip",
		Short: "Mirror the clipboard across the local network",
		Long: `netclip broadcasts clipboard text to a UDP multicast group and keeps a
bounded history of clips sent and received. Every machine on the group running
"netclip run" sees every other machine's clips.

The protocol is plain UTF-8 text, one clip per datagram, TTL 1: it never
leaves the local network segment, and any host on the segment can inject
clips. Run it on trusted networks only.

Config file search order (first found wins):
  /etc/netclip/netclip.toml
  $HOME/.config/netclip/netclip.toml
  path supplied via --config

All flags can be set via NETCLIP_<FLAG> env vars or config-file keys.`,
		SilenceUsage: true,
	}

	root.AddCommand(
		newRunCmd(),
		newSendCmd(),
		newResendCmd(),
		newCopyCmd(),
		newHistoryCmd(),
		newToggleCmd(),
		newStatusCmd(),
		newVersionCmd(),
	)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Printf("netclip %s\n", Version)
		},
	}
}

// resolveLogging sets up the global slog logger after flags are parsed.
func resolveLogging(interactive bool, formatStr, levelStr string) {
	format := logging.ParseFormat(formatStr)
	level := logging.ParseLevel(levelStr, interactive)
	logging.Setup(format, level)
}
