//go:build linux || darwin || windows

package clip

import (
	"context"
	"log/slog"
	"unicode/utf8"

	"golang.design/x/clipboard"
)

type systemBackend struct {
	watchCh chan struct{}
	cancel  context.CancelFunc
}

// New returns the system clipboard backend, or a headless no-op backend if
// the display environment is unavailable. clipboard.Init is called here
// rather than in init() so that CLI sub-commands never touch the display.
func New() Backend {
	if err := clipboard.Init(); err != nil {
		slog.Warn("clipboard unavailable, running headless", "err", err)
		return &headlessBackend{watchCh: make(chan struct{})}
	}

	ctx, cancel := context.WithCancel(context.Background())
	b := &systemBackend{
		watchCh: make(chan struct{}, 1),
		cancel:  cancel,
	}
	go b.watch(ctx)
	return b
}

func (b *systemBackend) Name() string { return "system clipboard" }

func (b *systemBackend) watch(ctx context.Context) {
	for range clipboard.Watch(ctx, clipboard.FmtText) {
		select {
		case b.watchCh <- struct{}{}:
		default:
		}
	}
}

func (b *systemBackend) ReadText() (string, error) {
	data := clipboard.Read(clipboard.FmtText)
	if !utf8.Valid(data) {
		return "", nil
	}
	return string(data), nil
}

func (b *systemBackend) CopyText(text string) error {
	clipboard.Write(clipboard.FmtText, []byte(text))
	return nil
}

func (b *systemBackend) Watch() <-chan struct{} { return b.watchCh }

func (b *systemBackend) Close() { b.cancel() }
