package main

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"go.klb.dev/netclip/internal/clip"
	"go.klb.dev/netclip/internal/control"
	"go.klb.dev/netclip/internal/engine"
	"go.klb.dev/netclip/internal/ipc"
	"go.klb.dev/netclip/internal/transport"
	"go.klb.dev/netclip/internal/wire"
)

func newRunCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the clipboard mirroring daemon",
		Long: `Joins the multicast group and mirrors the clipboard until interrupted.

Local clipboard changes are recorded into the outgoing history (and
broadcast immediately with --autosend). Clips received from the group are
recorded into the incoming history (and copied to the clipboard immediately
with --autoreceive). Both toggles can be flipped at runtime with
"netclip toggle".

The send/copy/history/toggle/status sub-commands talk to the running daemon
over a local socket.`,
		Args:    cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error { return bindViper(cmd, v) },
		RunE:    func(_ *cobra.Command, _ []string) error { return runDaemon(v) },
	}

	addGroupFlags(cmd)
	f := cmd.Flags()
	f.IntP("count", "c", 15, "maximum clips kept per history")
	f.IntP("width", "w", 30, "display width of shortened clip labels")
	f.BoolP("autosend", "s", false, "broadcast new clipboard content automatically")
	f.BoolP("autoreceive", "r", false, "copy received clips to the clipboard automatically")
	addLoggingFlags(cmd)
	addConfigFlag(cmd)

	return cmd
}

func runDaemon(v *viper.Viper) error {
	setupLogging(v)

	group := v.GetString("address")
	port := v.GetInt("port")

	tr, err := transport.Open(group, port, v.GetInt("ttl"))
	if err != nil {
		return fmt.Errorf("open multicast socket: %w", err)
	}

	slog.Info("netclip starting",
		"version", Version,
		"group", group,
		"port", port,
		"autosend", v.GetBool("autosend"),
		"autoreceive", v.GetBool("autoreceive"),
	)

	eng := engine.New(tr, engine.Options{
		HistorySize: v.GetInt("count"),
		LabelWidth:  v.GetInt("width"),
		AutoSend:    v.GetBool("autosend"),
		AutoReceive: v.GetBool("autoreceive"),
	})

	backend := clip.New()
	defer backend.Close()
	slog.Info("clipboard backend ready", "backend", backend.Name())
	eng.SetCopier(backend)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Watcher: feed local clipboard changes into the engine.
	go func() {
		for range backend.Watch() {
			text, err := backend.ReadText()
			if err != nil {
				slog.Error("clipboard read failed", "err", err)
				continue
			}
			eng.ClipboardChanged(text)
		}
	}()

	// IPC socket for the CLI sub-commands.
	if ipcLn, err := ipc.Listen(); err != nil {
		slog.Warn("IPC socket unavailable", "err", err)
	} else {
		slog.Info("IPC socket listening", "path", ipc.SocketPath())
		defer ipcLn.Close()
		go serveIPC(ipcLn, eng, group, port)
	}

	err = eng.Run(ctx)
	slog.Info("netclip stopped")
	return err
}

func serveIPC(ln net.Listener, eng *engine.Engine, group string, port int) {
	for {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		go handleIPCConn(conn, eng, group, port)
	}
}

func handleIPCConn(conn net.Conn, eng *engine.Engine, group string, port int) {
	defer conn.Close()
	wc := wire.New(conn)

	msg, err := wc.ReadMsg()
	if err != nil {
		return
	}
	if err := wc.WriteMsg(dispatch(msg, eng, group, port)); err != nil {
		slog.Warn("ipc write failed", "err", err)
	}
}

// dispatch handles one control request against the running engine.
func dispatch(msg *control.Message, eng *engine.Engine, group string, port int) *control.Message {
	switch msg.Type {
	case control.TypeSend:
		c, err := eng.Share(msg.Text)
		if err != nil {
			return errorMsg(err)
		}
		slog.Debug("ipc: clip shared", "label", c.Label())
		return &control.Message{Type: control.TypeOK}

	case control.TypeResend:
		if err := eng.SendIndex(msg.Index); err != nil {
			return errorMsg(err)
		}
		return &control.Message{Type: control.TypeOK}

	case control.TypeCopy:
		if err := eng.CopyIndex(msg.Index); err != nil {
			return errorMsg(err)
		}
		return &control.Message{Type: control.TypeOK}

	case control.TypeToggle:
		switch msg.Toggle {
		case control.ToggleAutoSend:
			eng.SetAutoSend(msg.Enabled)
		case control.ToggleAutoReceive:
			eng.SetAutoReceive(msg.Enabled)
		default:
			return errorMsg(fmt.Errorf("unknown toggle %q", msg.Toggle))
		}
		slog.Info("toggle changed", "toggle", msg.Toggle, "enabled", msg.Enabled)
		return &control.Message{Type: control.TypeOK}

	case control.TypeHistory:
		clips := eng.Outgoing()
		if msg.Received {
			clips = eng.Incoming()
		}
		infos := make([]control.ClipInfo, 0, len(clips))
		for _, c := range clips {
			infos = append(infos, control.ClipInfo{Label: c.Label(), Text: c.Text()})
		}
		return &control.Message{Type: control.TypeHistoryResponse, Received: msg.Received, Clips: infos}

	case control.TypeStatus:
		return &control.Message{
			Type: control.TypeStatusResponse,
			Status: &control.Status{
				Version:     Version,
				Group:       group,
				Port:        port,
				AutoSend:    eng.AutoSend(),
				AutoReceive: eng.AutoReceive(),
				Outgoing:    len(eng.Outgoing()),
				Incoming:    len(eng.Incoming()),
			},
		}

	default:
		return errorMsg(fmt.Errorf("unexpected message type %q", msg.Type))
	}
}

func errorMsg(err error) *control.Message {
	return &control.Message{Type: control.TypeError, Error: err.Error()}
}
