package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/Dicklesworthstone/gunicorn_console/internal/model"
	"github.com/Dicklesworthstone/gunicorn_console/internal/sampler"
)

// Poll samples the process table, reconciles it into the group table and
// resolves missing ports. A failed sample leaves the table untouched.
func (e *Engine) Poll(ctx context.Context) error {
	procs, err := e.procs.Processes(ctx)
	if err != nil {
		return fmt.Errorf("sample process table: %w", err)
	}
	e.Reconcile(procs)
	e.resolvePorts(ctx)
	e.log.Debug("poll", "records", len(procs), "groups", len(e.groups))
	return nil
}

// Reconcile merges one process table sample into the group table.
//
// Counts and memory are recomputed from scratch; names, ports and the
// selection carry over. A worker whose master was not seen still creates or
// feeds the group keyed by its parent pid. Groups left without workers are
// dropped, a master with zero workers included.
func (e *Engine) Reconcile(procs []model.Process) {
	for _, g := range e.groups {
		g.Workers = model.Count(0)
		g.MemoryKB = 0
	}

	for _, p := range procs {
		id := p.GroupID()
		g, ok := e.groups[id]
		if !ok {
			g = &model.ServerGroup{ID: id, Name: p.Name}
			e.groups[id] = g
		}
		if g.Name == "" {
			g.Name = p.Name
		}
		g.MemoryKB += p.RSSKB
		if p.Role == model.RoleWorker {
			g.Workers = model.Count(g.Workers.N() + 1)
		}
	}

	for id, g := range e.groups {
		if g.Workers.N() == 0 {
			e.log.Debug("group gone", "pid", id, "name", g.Name)
			e.remove(id)
		}
	}
}

// resolvePorts looks up listening ports for groups that have none yet. A
// resolved port is never overwritten. When no socket command is installed,
// port resolution is turned off for the rest of the session.
func (e *Engine) resolvePorts(ctx context.Context) {
	if e.portsOff {
		return
	}
	want := make(map[int]bool)
	for id, g := range e.groups {
		if !g.HasPort() {
			want[id] = true
		}
	}
	if len(want) == 0 {
		return
	}

	seq, err := e.socks.Ports(ctx, want)
	if errors.Is(err, sampler.ErrUnavailable) {
		e.log.Info("port resolution disabled", "err", err)
		e.portsOff = true
		return
	}
	if err != nil {
		e.log.Warn("port lookup skipped", "err", err)
		return
	}
	for pid, port := range seq {
		if g, ok := e.groups[pid]; ok && !g.HasPort() {
			g.Port = port
		}
	}
}
