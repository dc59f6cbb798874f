// Package control sends process-control signals to gunicorn masters.
//
// Sends are fire-and-forget: a nil error means the request was handed to the
// operating system, never that the target acted on it.
package control

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"time"

	"github.com/Dicklesworthstone/gunicorn_console/internal/model"
)

// Kill sends signals by running kill(1), the way an operator would.
type Kill struct {
	Timeout time.Duration
	run     func(ctx context.Context, name string, args ...string) error
}

func NewKill(timeout time.Duration) *Kill {
	return &Kill{Timeout: timeout, run: runQuiet}
}

// Check verifies that kill(1) is installed.
func (k *Kill) Check() error {
	if _, err := exec.LookPath("kill"); err != nil {
		return fmt.Errorf("kill is required to signal processes: %w", err)
	}
	return nil
}

// Signal runs `kill -<sig> <pid>` and waits for it to exit.
func (k *Kill) Signal(ctx context.Context, sig model.Signal, pid int) error {
	ctx, cancel := context.WithTimeout(ctx, k.Timeout)
	defer cancel()
	if err := k.run(ctx, "kill", "-"+string(sig), strconv.Itoa(pid)); err != nil {
		return fmt.Errorf("kill -%s %d: %w", sig, pid, err)
	}
	return nil
}

func runQuiet(ctx context.Context, name string, args ...string) error {
	return exec.CommandContext(ctx, name, args...).Run()
}
