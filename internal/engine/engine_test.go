package engine

import (
	"context"
	"net"
	"sync"
	"testing"
	"time"

	"go.klb.dev/netclip/internal/clipstore"
	"go.klb.dev/netclip/internal/transport"
)

type datagram struct {
	payload []byte
	sender  net.Addr
}

// fakeTransport emulates the multicast group in memory. Send delivers to
// every member of the group, the sender included, mirroring multicast
// loopback delivery.
type fakeTransport struct {
	addr   *net.UDPAddr
	in     chan datagram
	closed chan struct{}
	once   sync.Once

	mu    sync.Mutex
	sent  [][]byte
	group []*fakeTransport
}

func newFakeTransport(port int) *fakeTransport {
	return &fakeTransport{
		addr:   &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: port},
		in:     make(chan datagram, 16),
		closed: make(chan struct{}),
	}
}

// newFakeGroup returns n transports joined to one in-memory group.
func newFakeGroup(n int) []*fakeTransport {
	members := make([]*fakeTransport, n)
	for i := range members {
		members[i] = newFakeTransport(10000 + i)
	}
	for _, m := range members {
		m.group = members
	}
	return members
}

func (f *fakeTransport) Send(payload []byte) (int, error) {
	f.mu.Lock()
	f.sent = append(f.sent, append([]byte(nil), payload...))
	f.mu.Unlock()

	targets := f.group
	if targets == nil {
		targets = []*fakeTransport{f}
	}
	for _, m := range targets {
		m.deliver(payload, f.addr)
	}
	return len(payload), nil
}

func (f *fakeTransport) deliver(payload []byte, sender net.Addr) {
	select {
	case f.in <- datagram{append([]byte(nil), payload...), sender}:
	case <-f.closed:
	}
}

func (f *fakeTransport) Receive(timeout time.Duration) ([]byte, net.Addr, error) {
	select {
	case d := <-f.in:
		return d.payload, d.sender, nil
	case <-f.closed:
		return nil, nil, net.ErrClosed
	case <-time.After(timeout):
		return nil, nil, transport.ErrTimeout
	}
}

func (f *fakeTransport) Close() error {
	f.once.Do(func() { close(f.closed) })
	return nil
}

func (f *fakeTransport) sentPayloads() [][]byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([][]byte, len(f.sent))
	copy(out, f.sent)
	return out
}

type fakeCopier struct {
	mu    sync.Mutex
	texts []string
}

func (c *fakeCopier) CopyText(text string) error {
	c.mu.Lock()
	c.texts = append(c.texts, text)
	c.mu.Unlock()
	return nil
}

func (c *fakeCopier) copied() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.texts...)
}

func defaultOptions() Options {
	return Options{HistorySize: 15, LabelWidth: 30, PollTimeout: 10 * time.Millisecond}
}

// start runs the engine until the test ends.
func start(t *testing.T, e *Engine) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = e.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
}

func waitReceive(t *testing.T, ch <-chan clipstore.Clip) clipstore.Clip {
	t.Helper()
	select {
	case c := <-ch:
		return c
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for received clip")
		return clipstore.Clip{}
	}
}

func TestLoopSuppression(t *testing.T) {
	tr := newFakeTransport(10000)
	e := New(tr, defaultOptions())

	received := make(chan clipstore.Clip, 4)
	e.SetOnReceive(func(c clipstore.Clip, _ net.Addr) { received <- c })
	start(t, e)

	// Send "X"; the fake loops it straight back.
	if err := e.Send(clipstore.NewClip("X", 30)); err != nil {
		t.Fatalf("Send: %v", err)
	}
	// "Y" arrives from elsewhere.
	tr.deliver([]byte("Y"), &net.UDPAddr{IP: net.IPv4(10, 0, 0, 2), Port: 10000})

	got := waitReceive(t, received)
	if got.Text() != "Y" {
		t.Fatalf("received %q, want %q (echo of own send not suppressed?)", got.Text(), "Y")
	}

	in := e.Incoming()
	if len(in) != 1 || in[0].Text() != "Y" {
		t.Errorf("incoming = %v, want exactly [Y]", in)
	}
}

func TestEndToEnd(t *testing.T) {
	group := newFakeGroup(2)

	optsA := defaultOptions()
	optsA.AutoSend = true
	a := New(group[0], optsA)
	b := New(group[1], defaultOptions())

	received := make(chan clipstore.Clip, 4)
	b.SetOnReceive(func(c clipstore.Clip, _ net.Addr) { received <- c })
	start(t, a)
	start(t, b)

	a.ClipboardChanged("hello")

	sent := group[0].sentPayloads()
	if len(sent) != 1 || string(sent[0]) != "hello" {
		t.Fatalf("A sent %q, want exactly [hello]", sent)
	}

	got := waitReceive(t, received)
	if got.Text() != "hello" {
		t.Fatalf("B received %q, want %q", got.Text(), "hello")
	}
	if in := b.Incoming(); len(in) != 1 || in[0].Text() != "hello" {
		t.Errorf("B incoming = %v, want [hello]", in)
	}

	// A's own echo must not land in A's incoming history.
	time.Sleep(50 * time.Millisecond)
	if in := a.Incoming(); len(in) != 0 {
		t.Errorf("A incoming = %v, want empty (echo accepted)", in)
	}
}

func TestClipboardChangedWithoutAutoSend(t *testing.T) {
	tr := newFakeTransport(10000)
	e := New(tr, defaultOptions())

	e.ClipboardChanged("kept local")

	if sent := tr.sentPayloads(); len(sent) != 0 {
		t.Errorf("sent %d payloads with auto-send off, want none", len(sent))
	}
	if out := e.Outgoing(); len(out) != 1 || out[0].Text() != "kept local" {
		t.Errorf("outgoing = %v, want [kept local]", out)
	}
}

func TestAutoReceiveCopies(t *testing.T) {
	tr := newFakeTransport(10000)
	opts := defaultOptions()
	opts.AutoReceive = true
	e := New(tr, opts)

	copier := &fakeCopier{}
	e.SetCopier(copier)

	received := make(chan clipstore.Clip, 1)
	e.SetOnReceive(func(c clipstore.Clip, _ net.Addr) { received <- c })
	start(t, e)

	tr.deliver([]byte("auto me"), &net.UDPAddr{IP: net.IPv4(10, 0, 0, 3), Port: 10000})
	waitReceive(t, received)

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if got := copier.copied(); len(got) == 1 {
			if got[0] != "auto me" {
				t.Fatalf("copied %q, want %q", got[0], "auto me")
			}
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("clip was never copied to the clipboard")
}

func TestToggleFlipsAtRuntime(t *testing.T) {
	tr := newFakeTransport(10000)
	e := New(tr, defaultOptions())

	if e.AutoSend() || e.AutoReceive() {
		t.Fatal("toggles on by default")
	}
	e.SetAutoSend(true)
	e.ClipboardChanged("now broadcast")
	if sent := tr.sentPayloads(); len(sent) != 1 || string(sent[0]) != "now broadcast" {
		t.Fatalf("sent = %q, want [now broadcast]", sent)
	}

	e.SetAutoSend(false)
	e.ClipboardChanged("back to manual")
	if sent := tr.sentPayloads(); len(sent) != 1 {
		t.Errorf("sent %d payloads after disabling auto-send, want 1", len(sent))
	}
}

func TestDuplicateHeadReceiveFiresNoEvent(t *testing.T) {
	tr := newFakeTransport(10000)
	e := New(tr, defaultOptions())

	received := make(chan clipstore.Clip, 4)
	e.SetOnReceive(func(c clipstore.Clip, _ net.Addr) { received <- c })
	start(t, e)

	from := &net.UDPAddr{IP: net.IPv4(10, 0, 0, 4), Port: 10000}
	tr.deliver([]byte("twice"), from)
	waitReceive(t, received)
	tr.deliver([]byte("twice"), from)

	select {
	case c := <-received:
		t.Fatalf("duplicate head fired receive event for %q", c.Text())
	case <-time.After(100 * time.Millisecond):
	}
	if in := e.Incoming(); len(in) != 1 {
		t.Errorf("incoming len = %d, want 1", len(in))
	}
}

func TestNonUTF8DatagramDropped(t *testing.T) {
	tr := newFakeTransport(10000)
	e := New(tr, defaultOptions())
	start(t, e)

	tr.deliver([]byte{0xff, 0xfe, 0xfd}, &net.UDPAddr{IP: net.IPv4(10, 0, 0, 5), Port: 10000})
	tr.deliver([]byte{}, &net.UDPAddr{IP: net.IPv4(10, 0, 0, 5), Port: 10000})

	time.Sleep(50 * time.Millisecond)
	if in := e.Incoming(); len(in) != 0 {
		t.Errorf("incoming = %v, want empty", in)
	}
}

func TestSendIndexAndCopyIndex(t *testing.T) {
	tr := newFakeTransport(10000)
	e := New(tr, defaultOptions())
	copier := &fakeCopier{}
	e.SetCopier(copier)

	e.ClipboardChanged("older")
	e.ClipboardChanged("newer")

	if err := e.SendIndex(1); err != nil {
		t.Fatalf("SendIndex(1): %v", err)
	}
	if sent := tr.sentPayloads(); len(sent) != 1 || string(sent[0]) != "older" {
		t.Fatalf("sent = %q, want [older]", sent)
	}
	if err := e.SendIndex(5); err == nil {
		t.Error("SendIndex(5) succeeded on 2-entry history")
	}

	received := make(chan clipstore.Clip, 1)
	e.SetOnReceive(func(c clipstore.Clip, _ net.Addr) { received <- c })
	start(t, e)
	tr.deliver([]byte("from the wire"), &net.UDPAddr{IP: net.IPv4(10, 0, 0, 6), Port: 10000})
	waitReceive(t, received)

	if err := e.CopyIndex(0); err != nil {
		t.Fatalf("CopyIndex(0): %v", err)
	}
	if got := copier.copied(); len(got) != 1 || got[0] != "from the wire" {
		t.Errorf("copied = %q, want [from the wire]", got)
	}
	if err := e.CopyIndex(3); err == nil {
		t.Error("CopyIndex(3) succeeded on 1-entry history")
	}
}

func TestShare(t *testing.T) {
	tr := newFakeTransport(10000)
	e := New(tr, defaultOptions())

	if _, err := e.Share("pasted via cli"); err != nil {
		t.Fatalf("Share: %v", err)
	}
	if out := e.Outgoing(); len(out) != 1 || out[0].Text() != "pasted via cli" {
		t.Fatalf("outgoing = %v, want [pasted via cli]", out)
	}

	// Sharing the head again re-broadcasts without growing the history.
	if _, err := e.Share("pasted via cli"); err != nil {
		t.Fatalf("Share(repeat): %v", err)
	}
	if sent := tr.sentPayloads(); len(sent) != 2 {
		t.Errorf("sent %d payloads, want 2", len(sent))
	}
	if out := e.Outgoing(); len(out) != 1 {
		t.Errorf("outgoing len = %d, want 1", len(out))
	}

	if _, err := e.Share("   "); err == nil {
		t.Error("Share of blank text succeeded, want error")
	}
}

func TestOnChangeFires(t *testing.T) {
	tr := newFakeTransport(10000)
	e := New(tr, defaultOptions())

	var mu sync.Mutex
	changes := 0
	e.SetOnChange(func() { mu.Lock(); changes++; mu.Unlock() })

	e.ClipboardChanged("a")
	e.ClipboardChanged("a") // head repeat: no change, no event
	e.ClipboardChanged("b")

	mu.Lock()
	defer mu.Unlock()
	if changes != 2 {
		t.Errorf("onChange fired %d times, want 2", changes)
	}
}
