//go:build unix

package control

import (
	"context"
	"os"
	"testing"

	"github.com/Dicklesworthstone/gunicorn_console/internal/model"
)

func TestNativeUnknownSignal(t *testing.T) {
	t.Parallel()

	if err := (Native{}).Signal(context.Background(), model.Signal("NOPE"), os.Getpid()); err == nil {
		t.Error("expected error for unknown signal")
	}
}

func TestNativeMissingProcess(t *testing.T) {
	t.Parallel()

	// pid values above the kernel's maximum never exist.
	if err := (Native{}).Signal(context.Background(), model.SignalReload, 1<<30); err == nil {
		t.Error("expected error signalling a missing process")
	}
}
