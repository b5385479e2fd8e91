// Package transport wraps the UDP multicast socket netclip exchanges clips
// over. One Conn both sends to and receives from the group; outbound TTL
// defaults to 1 so clips never leave the local network segment.
//
// The wire format is the clip text itself: one UTF-8 payload per datagram,
// no framing, no header, at most clipstore.MaxPayload bytes. Anyone on the
// group can inject clips; the protocol is deliberately unauthenticated and
// relies on the local network being trusted.
package transport

import (
	"errors"
	"fmt"
	"net"
	"time"

	"golang.org/x/net/ipv4"

	"go.klb.dev/netclip/internal/clipstore"
)

const (
	// DefaultGroup is the multicast group clips are exchanged on.
	DefaultGroup = "226.38.254.7"

	// DefaultPort is the UDP port clips are exchanged on.
	DefaultPort = 10000

	// DefaultTTL keeps multicast traffic on the local segment.
	DefaultTTL = 1
)

// ErrTimeout is returned by Receive when no datagram arrived within the
// poll window. It is the expected steady-state result, not a failure.
var ErrTimeout = errors.New("receive timed out")

// Conn is an open membership in the clip multicast group.
type Conn struct {
	pc    *net.UDPConn
	dst   *net.UDPAddr
	group net.IP
	buf   []byte
}

// Open joins the IPv4 multicast group on the given port, listening on all
// interfaces so several netclip processes on one network (or one host) all
// receive each other's clips. The outbound multicast TTL is set to ttl.
func Open(group string, port, ttl int) (*Conn, error) {
	ip := net.ParseIP(group)
	if ip == nil || ip.To4() == nil {
		return nil, fmt.Errorf("transport: %q is not an IPv4 address", group)
	}
	if !ip.IsMulticast() {
		return nil, fmt.Errorf("transport: %s is not a multicast address", ip)
	}

	gaddr := &net.UDPAddr{IP: ip, Port: port}
	pc, err := net.ListenMulticastUDP("udp4", nil, gaddr)
	if err != nil {
		return nil, fmt.Errorf("transport: join %s: %w", gaddr, err)
	}

	p := ipv4.NewPacketConn(pc)
	if err := p.SetMulticastTTL(ttl); err != nil {
		pc.Close()
		return nil, fmt.Errorf("transport: set TTL: %w", err)
	}
	// The sender receives its own datagrams; the engine filters the echo.
	if err := p.SetMulticastLoopback(true); err != nil {
		pc.Close()
		return nil, fmt.Errorf("transport: set loopback: %w", err)
	}

	return &Conn{
		pc:    pc,
		dst:   gaddr,
		group: ip,
		buf:   make([]byte, 4096),
	}, nil
}

// Send transmits one datagram to the group. The payload must fit a single
// unfragmented datagram; callers truncate via Clip.WirePayload. Failures
// are reported, never retried.
func (c *Conn) Send(payload []byte) (int, error) {
	if len(payload) > clipstore.MaxPayload {
		return 0, fmt.Errorf("transport: payload %d bytes exceeds %d", len(payload), clipstore.MaxPayload)
	}
	n, err := c.pc.WriteToUDP(payload, c.dst)
	if err != nil {
		return n, fmt.Errorf("transport: send: %w", err)
	}
	return n, nil
}

// Receive blocks up to timeout for one datagram and returns its payload and
// sender address. ErrTimeout signals an empty poll window so callers can
// loop without burning CPU.
func (c *Conn) Receive(timeout time.Duration) ([]byte, net.Addr, error) {
	if err := c.pc.SetReadDeadline(time.Now().Add(timeout)); err != nil {
		return nil, nil, fmt.Errorf("transport: set deadline: %w", err)
	}
	n, addr, err := c.pc.ReadFromUDP(c.buf)
	if err != nil {
		var nerr net.Error
		if errors.As(err, &nerr) && nerr.Timeout() {
			return nil, nil, ErrTimeout
		}
		return nil, nil, fmt.Errorf("transport: receive: %w", err)
	}
	payload := make([]byte, n)
	copy(payload, c.buf[:n])
	return payload, addr, nil
}

// LocalAddr returns the bound address.
func (c *Conn) LocalAddr() net.Addr { return c.pc.LocalAddr() }

// Close leaves the multicast group and releases the socket.
func (c *Conn) Close() error { return c.pc.Close() }
