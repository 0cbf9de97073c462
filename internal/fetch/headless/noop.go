package headless

import (
	"context"
	"errors"
	"time"
)

// ErrUnavailable signals that no render surface is configured. Callers fall
// back to the plain transport.
var ErrUnavailable = errors.New("headless rendering unavailable")

// Noop is the stand-in Renderer used when rendering is disabled or Chrome
// is not installed.
type Noop struct{}

// Render always fails with ErrUnavailable.
func (Noop) Render(_ context.Context, _, _ string, _ time.Duration) (string, error) {
	return "", ErrUnavailable
}
