package sampler

import (
	"context"
	"fmt"
	"iter"
	"log/slog"

	"github.com/Dicklesworthstone/gunicorn_console/internal/model"
	"github.com/shirou/gopsutil/v3/net"
	"github.com/shirou/gopsutil/v3/process"
)

// Native reads the process and socket tables through gopsutil instead of
// helper commands.
type Native struct {
	Marker string
	log    *slog.Logger
}

func NewNative(marker string, log *slog.Logger) *Native {
	return &Native{Marker: marker, log: log}
}

// Check is a no-op: gopsutil needs no helper command.
func (n *Native) Check() error { return nil }

// Processes lists the gunicorn masters and workers currently running.
func (n *Native) Processes(ctx context.Context) ([]model.Process, error) {
	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("list processes: %w", err)
	}
	var out []model.Process
	for _, p := range procs {
		// Processes can exit between listing and inspection; skip them.
		cmd, err := p.CmdlineWithContext(ctx)
		if err != nil || cmd == "" {
			continue
		}
		role, name, ok := ClassifyCommand(cmd, n.Marker)
		if !ok {
			continue
		}
		ppid, err := p.PpidWithContext(ctx)
		if err != nil {
			continue
		}
		var rssKB int64
		if mi, err := p.MemoryInfoWithContext(ctx); err == nil && mi != nil {
			rssKB = int64(mi.RSS / 1024)
		}
		out = append(out, model.Process{
			PID:     int(p.Pid),
			PPID:    int(ppid),
			RSSKB:   rssKB,
			Command: cmd,
			Role:    role,
			Name:    name,
		})
	}
	return out, nil
}

// Ports returns the TCP listening ports owned by the given pids.
func (n *Native) Ports(ctx context.Context, pids map[int]bool) (iter.Seq2[int, int], error) {
	conns, err := net.ConnectionsWithContext(ctx, "tcp")
	if err != nil {
		return nil, fmt.Errorf("list connections: %w", err)
	}
	n.log.Debug("connections listed", "count", len(conns))
	return func(yield func(int, int) bool) {
		for _, c := range conns {
			if c.Status != "LISTEN" || !pids[int(c.Pid)] || c.Laddr.Port == 0 {
				continue
			}
			if !yield(int(c.Pid), int(c.Laddr.Port)) {
				return
			}
		}
	}, nil
}
