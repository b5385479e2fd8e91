package main

import (
	"errors"
	"fmt"

	"go.klb.dev/netclip/internal/control"
	"go.klb.dev/netclip/internal/ipc"
	"go.klb.dev/netclip/internal/wire"
)

// daemonRequest sends one control message to the running daemon and returns
// its response, turning ERROR responses into errors.
func daemonRequest(msg *control.Message) (*control.Message, error) {
	conn, err := ipc.Dial()
	if err != nil {
		return nil, fmt.Errorf("no running netclip daemon on %s (start one with \"netclip run\"): %w",
			ipc.SocketPath(), err)
	}
	defer conn.Close()

	wc := wire.New(conn)
	if err := wc.WriteMsg(msg); err != nil {
		return nil, fmt.Errorf("ipc write: %w", err)
	}
	resp, err := wc.ReadMsg()
	if err != nil {
		return nil, fmt.Errorf("ipc read: %w", err)
	}
	if resp.Type == control.TypeError {
		return nil, errors.New(resp.Error)
	}
	return resp, nil
}

// parseIndex reads the optional history index argument, defaulting to 0
// (the most recent clip).
func parseIndex(args []string) (int, error) {
	if len(args) == 0 {
		return 0, nil
	}
	var i int
	if _, err := fmt.Sscanf(args[0], "%d", &i); err != nil || i < 0 {
		return 0, fmt.Errorf("invalid history index %q", args[0])
	}
	return i, nil
}

// parseOnOff converts an on/off argument to a bool.
func parseOnOff(s string) (bool, error) {
	switch s {
	case "on", "true", "1":
		return true, nil
	case "off", "false", "0":
		return false, nil
	}
	return false, fmt.Errorf("invalid state %q (want on or off)", s)
}
