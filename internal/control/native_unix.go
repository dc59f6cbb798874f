//go:build unix

package control

import (
	"context"
	"fmt"

	"github.com/Dicklesworthstone/gunicorn_console/internal/model"
	"golang.org/x/sys/unix"
)

// Native sends signals with the kill(2) system call.
type Native struct{}

// Check is a no-op: no helper command is involved.
func (Native) Check() error { return nil }

func (Native) Signal(_ context.Context, sig model.Signal, pid int) error {
	num := unix.SignalNum("SIG" + string(sig))
	if num == 0 {
		return fmt.Errorf("unknown signal %s", sig)
	}
	if err := unix.Kill(pid, num); err != nil {
		return fmt.Errorf("kill(%d, %s): %w", pid, unix.SignalName(num), err)
	}
	return nil
}
