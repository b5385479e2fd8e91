package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"go.klb.dev/netclip/internal/clipstore"
	"go.klb.dev/netclip/internal/control"
	"go.klb.dev/netclip/internal/ipc"
	"go.klb.dev/netclip/internal/transport"
)

func newSendCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "send",
		Short: "Broadcast stdin to the multicast group",
		Long: `Reads stdin and broadcasts it as one clip.

If a netclip daemon is running, the clip goes through it and lands in the
daemon's outgoing history. Otherwise a one-shot multicast send is performed
directly. Clips longer than a single datagram (1472 bytes) are truncated.`,
		Args:    cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error { return bindViper(cmd, v) },
		RunE:    func(_ *cobra.Command, _ []string) error { return runSend(v) },
	}

	addGroupFlags(cmd)
	cmd.Flags().IntP("width", "w", 30, "display width of shortened clip labels")
	addConfigFlag(cmd)

	return cmd
}

func runSend(v *viper.Viper) error {
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return fmt.Errorf("read stdin: %w", err)
	}
	text := string(data)
	if strings.TrimSpace(text) == "" {
		return nil
	}

	// Prefer the running daemon so the clip is recorded in its history.
	if ipc.IsRunning() {
		_, err := daemonRequest(&control.Message{Type: control.TypeSend, Text: text})
		return err
	}

	// One-shot direct send.
	tr, err := transport.Open(v.GetString("address"), v.GetInt("port"), v.GetInt("ttl"))
	if err != nil {
		return fmt.Errorf("open multicast socket: %w", err)
	}
	defer tr.Close()

	clip := clipstore.NewClip(text, v.GetInt("width"))
	if _, err := tr.Send(clip.WirePayload()); err != nil {
		return err
	}
	return nil
}
