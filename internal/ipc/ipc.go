// Package ipc provides the local socket the netclip CLI uses to talk to a
// running daemon (send/resend/copy/toggle/history/status) instead of
// opening its own multicast membership.
package ipc

import (
	"net"
	"os"
	"path/filepath"
	"runtime"
)

// SocketPath returns the platform-appropriate path for the IPC socket.
//
//   - Linux:          $XDG_RUNTIME_DIR/netclip.sock, else $TMPDIR/netclip.sock
//   - macOS:          $TMPDIR/netclip.sock
//   - Windows:        \\.\pipe\netclip
//
// Override with $NETCLIP_SOCKET.
func SocketPath() string {
	if s := os.Getenv("NETCLIP_SOCKET"); s != "" {
		return s
	}
	if runtime.GOOS == "windows" {
		return `\\.\pipe\netclip`
	}
	if dir := os.Getenv("XDG_RUNTIME_DIR"); dir != "" {
		return filepath.Join(dir, "netclip.sock")
	}
	return filepath.Join(os.TempDir(), "netclip.sock")
}

// IsRunning reports whether a netclip daemon appears to be listening on the
// IPC socket. It does a cheap dial-and-close; no data is exchanged.
func IsRunning() bool {
	c, err := Dial()
	if err != nil {
		return false
	}
	_ = c.Close()
	return true
}

// Listen creates a net.Listener on the IPC socket path, removing any stale
// socket file from a previous (crashed) run first.
func Listen() (net.Listener, error) {
	path := SocketPath()
	_ = os.Remove(path)
	return net.Listen("unix", path)
}

// Dial connects to the IPC socket of a running daemon.
func Dial() (net.Conn, error) {
	return net.Dial("unix", SocketPath())
}
