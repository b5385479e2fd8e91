// Package engine implements the clip exchange protocol: it decides what to
// broadcast, what to accept from the network, and keeps the two bounded
// histories (clips copied here, clips received from peers) consistent.
//
// All state mutation is serialized through one mutex because clipboard
// change notifications and the receive loop arrive on different goroutines.
// The auto-send and auto-receive toggles are plain booleans, externally
// mutable at any time.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"
	"time"
	"unicode/utf8"

	"go.klb.dev/netclip/internal/clipstore"
	"go.klb.dev/netclip/internal/transport"
)

// DefaultPollTimeout bounds receive-loop wake-up latency.
const DefaultPollTimeout = 200 * time.Millisecond

// Transport is the multicast socket the engine exchanges clips over.
// *transport.Conn satisfies it; tests substitute in-memory fakes.
type Transport interface {
	Send(payload []byte) (int, error)
	Receive(timeout time.Duration) ([]byte, net.Addr, error)
	Close() error
}

// Copier writes clip text to the active system clipboard.
type Copier interface {
	CopyText(text string) error
}

// Options configures a new Engine.
type Options struct {
	HistorySize int           // max clips per store
	LabelWidth  int           // display width for shortened labels
	AutoSend    bool          // broadcast local clipboard changes immediately
	AutoReceive bool          // copy received clips to the clipboard immediately
	PollTimeout time.Duration // receive poll window (DefaultPollTimeout if zero)
}

// Engine ties local clipboard events, the multicast transport, and the two
// clip stores together.
type Engine struct {
	tr          Transport
	pollTimeout time.Duration

	autoSend    atomic.Bool
	autoReceive atomic.Bool

	mu       sync.Mutex
	outgoing *clipstore.Store
	incoming *clipstore.Store
	lastSent string // wire payload of the most recent send, for echo suppression
	copier   Copier

	onChange  func()
	onReceive func(clip clipstore.Clip, sender net.Addr)
}

// New creates an Engine on top of tr. The engine owns tr and closes it when
// Run returns.
func New(tr Transport, opts Options) *Engine {
	if opts.PollTimeout <= 0 {
		opts.PollTimeout = DefaultPollTimeout
	}
	e := &Engine{
		tr:          tr,
		pollTimeout: opts.PollTimeout,
		outgoing:    clipstore.New(opts.HistorySize, opts.LabelWidth),
		incoming:    clipstore.New(opts.HistorySize, opts.LabelWidth),
	}
	e.autoSend.Store(opts.AutoSend)
	e.autoReceive.Store(opts.AutoReceive)
	return e
}

// SetCopier installs the system clipboard collaborator used for copy
// actions. Call before Run.
func (e *Engine) SetCopier(c Copier) {
	e.mu.Lock()
	e.copier = c
	e.mu.Unlock()
}

// SetOnChange registers a callback invoked whenever either history mutates,
// so a front end can re-render. Call before Run.
func (e *Engine) SetOnChange(fn func()) { e.onChange = fn }

// SetOnReceive registers a callback invoked with every newly accepted
// network clip and its sender address. Call before Run.
func (e *Engine) SetOnReceive(fn func(clip clipstore.Clip, sender net.Addr)) {
	e.onReceive = fn
}

// AutoSend reports the auto-send toggle.
func (e *Engine) AutoSend() bool { return e.autoSend.Load() }

// SetAutoSend flips the auto-send toggle.
func (e *Engine) SetAutoSend(on bool) { e.autoSend.Store(on) }

// AutoReceive reports the auto-receive toggle.
func (e *Engine) AutoReceive() bool { return e.autoReceive.Load() }

// SetAutoReceive flips the auto-receive toggle.
func (e *Engine) SetAutoReceive(on bool) { e.autoReceive.Store(on) }

// Outgoing returns a snapshot of the local clip history, most recent first.
func (e *Engine) Outgoing() []clipstore.Clip {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.outgoing.Snapshot()
}

// Incoming returns a snapshot of the received clip history, most recent first.
func (e *Engine) Incoming() []clipstore.Clip {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.incoming.Snapshot()
}

// ClipboardChanged records a local clipboard change. Blank text and repeats
// of the current head are ignored. With auto-send enabled the new clip is
// broadcast immediately; the send failure, if any, is logged and dropped.
func (e *Engine) ClipboardChanged(text string) {
	e.mu.Lock()
	clip, ok := e.outgoing.Record(text)
	if ok && e.autoSend.Load() {
		if err := e.sendLocked(clip); err != nil {
			slog.Error("auto-send failed", "err", err)
		}
	}
	e.mu.Unlock()

	if ok {
		e.notifyChange()
	}
}

// Share records text into the outgoing history and broadcasts it,
// regardless of the auto-send toggle. An exact repeat of the current head
// is re-broadcast without mutating the history; blank text is refused.
func (e *Engine) Share(text string) (clipstore.Clip, error) {
	e.mu.Lock()
	clip, ok := e.outgoing.Record(text)
	if !ok {
		head, exists := e.outgoing.At(0)
		if !exists || head.Text() != text {
			e.mu.Unlock()
			return clipstore.Clip{}, errors.New("refusing to share blank text")
		}
		clip = head
	}
	err := e.sendLocked(clip)
	e.mu.Unlock()

	if ok {
		e.notifyChange()
	}
	return clip, err
}

// Send broadcasts clip to the group and remembers its payload so the
// multicast echo of our own datagram is ignored on receipt. Best effort:
// the error is returned, never retried.
func (e *Engine) Send(clip clipstore.Clip) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sendLocked(clip)
}

func (e *Engine) sendLocked(clip clipstore.Clip) error {
	payload := clip.WirePayload()
	e.lastSent = string(payload)
	n, err := e.tr.Send(payload)
	if err != nil {
		return err
	}
	slog.Debug("clip sent", "bytes", n, "label", clip.Label())
	return nil
}

// SendIndex broadcasts the outgoing history entry at position i
// (0 = most recent). The manual "click to send" action.
func (e *Engine) SendIndex(i int) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	clip, ok := e.outgoing.At(i)
	if !ok {
		return fmt.Errorf("no outgoing clip at index %d", i)
	}
	return e.sendLocked(clip)
}

// Copy writes clip's full text to the system clipboard.
func (e *Engine) Copy(clip clipstore.Clip) error {
	e.mu.Lock()
	copier := e.copier
	e.mu.Unlock()
	if copier == nil {
		return errors.New("no clipboard available")
	}
	return copier.CopyText(clip.Text())
}

// CopyIndex copies the received history entry at position i to the system
// clipboard. The manual "click to copy" action.
func (e *Engine) CopyIndex(i int) error {
	e.mu.Lock()
	clip, ok := e.incoming.At(i)
	e.mu.Unlock()
	if !ok {
		return fmt.Errorf("no received clip at index %d", i)
	}
	return e.Copy(clip)
}

// Run polls the transport until ctx is cancelled, feeding each datagram
// through the accept pipeline. Per-datagram failures are logged and never
// stop the loop. The transport is closed on every exit path.
func (e *Engine) Run(ctx context.Context) error {
	defer e.tr.Close()

	for {
		payload, sender, err := e.tr.Receive(e.pollTimeout)
		switch {
		case err == nil:
			e.handleDatagram(payload, sender)
		case errors.Is(err, transport.ErrTimeout):
			// idle poll window
		case errors.Is(err, net.ErrClosed):
			return nil
		default:
			if ctx.Err() != nil {
				return nil
			}
			slog.Error("receive failed", "err", err)
		}

		select {
		case <-ctx.Done():
			return nil
		default:
		}
	}
}

// handleDatagram runs one received payload through decode, echo
// suppression, and dedup before exposing it as a new clip.
func (e *Engine) handleDatagram(payload []byte, sender net.Addr) {
	if !utf8.Valid(payload) {
		slog.Debug("dropping non-UTF-8 datagram", "bytes", len(payload), "sender", sender)
		return
	}
	text := string(payload)
	if text == "" {
		return
	}

	e.mu.Lock()
	if text == e.lastSent {
		// Our own broadcast, looped back by multicast delivery.
		e.mu.Unlock()
		slog.Debug("own echo suppressed")
		return
	}
	clip, ok := e.incoming.Record(text)
	copier := e.copier
	e.mu.Unlock()

	if !ok {
		return
	}

	slog.Info("clip received", "sender", sender, "label", clip.Label())
	e.notifyChange()
	if e.onReceive != nil {
		e.onReceive(clip, sender)
	}

	if e.autoReceive.Load() && copier != nil {
		if err := copier.CopyText(clip.Text()); err != nil {
			slog.Error("auto-copy failed", "err", err)
		}
	}
}

func (e *Engine) notifyChange() {
	if e.onChange != nil {
		e.onChange()
	}
}
