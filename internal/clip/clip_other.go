//go:build !linux && !darwin && !windows

package clip

// New returns the headless no-op backend on platforms without a supported
// system clipboard.
func New() Backend {
	return &headlessBackend{watchCh: make(chan struct{})}
}
