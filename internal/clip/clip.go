// Package clip provides access to the system clipboard. netclip exchanges
// text only, so the backend surface is a text read, a text write, and a
// change signal. On hosts without a display server (containers, headless
// servers) a no-op backend is returned instead.
package clip

// Backend is the system clipboard as the engine sees it.
type Backend interface {
	// Name returns a human-readable name for the backend.
	Name() string

	// ReadText returns the current clipboard text, or "" if the clipboard
	// is empty or holds a non-text type.
	ReadText() (string, error)

	// CopyText replaces the clipboard contents with text.
	CopyText(text string) error

	// Watch returns a channel that receives a signal whenever the
	// clipboard changes. The channel is never closed; the caller reads
	// the new contents via ReadText.
	Watch() <-chan struct{}

	// Close releases any resources held by the backend.
	Close()
}

// headlessBackend discards writes and never signals changes.
type headlessBackend struct {
	watchCh chan struct{}
}

func (b *headlessBackend) Name() string              { return "headless (no-op)" }
func (b *headlessBackend) ReadText() (string, error) { return "", nil }
func (b *headlessBackend) CopyText(_ string) error   { return nil }
func (b *headlessBackend) Watch() <-chan struct{}    { return b.watchCh }
func (b *headlessBackend) Close()                    {}
