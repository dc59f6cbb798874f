package sampler

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"os/exec"
	"time"

	"github.com/Dicklesworthstone/gunicorn_console/internal/model"
)

// ErrUnavailable is returned when no helper command for a table is installed.
var ErrUnavailable = errors.New("helper command not installed")

// Sampler reads the process and socket tables by running the platform's
// helper commands and parsing their output.
type Sampler struct {
	Timeout time.Duration
	Marker  string

	procSchema    ProcessSchema
	socketSchemas []SocketSchema
	run           runFunc
	log           *slog.Logger
}

type runFunc func(ctx context.Context, timeout time.Duration, argv []string) (string, error)

// New returns a Sampler for the running platform.
func New(marker string, timeout time.Duration, log *slog.Logger) *Sampler {
	return &Sampler{
		Timeout:       timeout,
		Marker:        marker,
		procSchema:    HostProcessSchema(),
		socketSchemas: HostSocketSchemas(),
		run:           runCmd,
		log:           log,
	}
}

// Check verifies that the process table command is installed.
func (s *Sampler) Check() error {
	if _, err := exec.LookPath(s.procSchema.Command[0]); err != nil {
		return fmt.Errorf("%s is required to list processes: %w", s.procSchema.Command[0], err)
	}
	return nil
}

// Processes lists the gunicorn masters and workers currently running.
func (s *Sampler) Processes(ctx context.Context) ([]model.Process, error) {
	out, err := s.run(ctx, s.Timeout, s.procSchema.Command)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", s.procSchema.Command[0], err)
	}
	return ParseProcessTable(out, s.procSchema, s.Marker)
}

// Ports returns the listening ports owned by the given pids. It tries each
// socket schema in order, skipping commands that are not installed, and
// returns ErrUnavailable when none is.
func (s *Sampler) Ports(ctx context.Context, pids map[int]bool) (iter.Seq2[int, int], error) {
	for _, schema := range s.socketSchemas {
		out, err := s.run(ctx, s.Timeout, schema.Command)
		if errors.Is(err, exec.ErrNotFound) {
			s.log.Debug("socket command not installed", "command", schema.Name)
			continue
		}
		if err != nil && out == "" {
			return nil, fmt.Errorf("%s: %w", schema.Name, err)
		}
		return ParseSocketTable(out, schema, pids)
	}
	return nil, ErrUnavailable
}

// runCmd runs argv and returns its standard output. A non-zero exit that
// still produced output returns the output along with the error.
func runCmd(ctx context.Context, timeout time.Duration, argv []string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	out, err := exec.CommandContext(ctx, argv[0], argv[1:]...).Output()
	if ctx.Err() == context.DeadlineExceeded {
		return "", ctx.Err()
	}
	return string(out), err
}
