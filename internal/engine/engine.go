// Package engine owns the dashboard's state: the table of gunicorn server
// groups, the selected group, and the tick counter that schedules polls and
// animation frames. Everything runs on the caller's goroutine; an Engine is
// not safe for concurrent use.
package engine

import (
	"context"
	"iter"
	"log/slog"
	"sort"

	"github.com/Dicklesworthstone/gunicorn_console/internal/model"
)

// ProcessSource lists the gunicorn masters and workers currently running.
type ProcessSource interface {
	Processes(ctx context.Context) ([]model.Process, error)
}

// SocketSource yields (pid, port) pairs for listening sockets owned by pids.
type SocketSource interface {
	Ports(ctx context.Context, pids map[int]bool) (iter.Seq2[int, int], error)
}

// Signaller delivers a control signal to a process. It reports only whether
// the request could be issued.
type Signaller interface {
	Signal(ctx context.Context, sig model.Signal, pid int) error
}

// DefaultFrames is the length of the pending-worker animation cycle.
const DefaultFrames = 4

// Options configures an Engine.
type Options struct {
	Processes ProcessSource
	Sockets   SocketSource // nil disables port resolution
	Signaller Signaller

	TicksPerPoll int // ticks between polls, at least 1
	FrameEvery   int // ticks per animation frame, at least 1
	Frames       int // animation cycle length, DefaultFrames when 0

	Log *slog.Logger
}

// Engine is one dashboard session.
type Engine struct {
	procs ProcessSource
	socks SocketSource
	sig   Signaller
	log   *slog.Logger

	ticksPerPoll int
	frameEvery   int
	frames       int

	groups   map[int]*model.ServerGroup
	selected int // master pid, 0 when nothing is selected
	tick     int
	portsOff bool
}

func New(opts Options) *Engine {
	e := &Engine{
		procs:        opts.Processes,
		socks:        opts.Sockets,
		sig:          opts.Signaller,
		log:          opts.Log,
		ticksPerPoll: max(opts.TicksPerPoll, 1),
		frameEvery:   max(opts.FrameEvery, 1),
		frames:       opts.Frames,
		groups:       make(map[int]*model.ServerGroup),
	}
	if e.frames <= 0 {
		e.frames = DefaultFrames
	}
	if e.log == nil {
		e.log = slog.Default()
	}
	if e.socks == nil {
		e.portsOff = true
	}
	return e
}

// Tick runs the per-tick engine phase: a poll when one is due, then one
// animation step for pending groups when a frame is due. The first tick
// always polls.
func (e *Engine) Tick(ctx context.Context) {
	if e.tick%e.ticksPerPoll == 0 {
		if err := e.Poll(ctx); err != nil {
			e.log.Warn("poll skipped", "err", err)
		}
	}
	e.tick++
	if e.tick%e.frameEvery == 0 {
		e.animate()
	}
}

// Groups returns a copy of the tracked groups ordered by master pid.
func (e *Engine) Groups() []model.ServerGroup {
	out := make([]model.ServerGroup, 0, len(e.groups))
	for _, g := range e.groups {
		out = append(out, *g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Group returns the tracked group with the given master pid.
func (e *Engine) Group(id int) (model.ServerGroup, bool) {
	g, ok := e.groups[id]
	if !ok {
		return model.ServerGroup{}, false
	}
	return *g, true
}

// Selected returns the selected master pid, if any.
func (e *Engine) Selected() (int, bool) {
	if _, ok := e.groups[e.selected]; !ok {
		return 0, false
	}
	return e.selected, true
}

// Frames returns the animation cycle length.
func (e *Engine) Frames() int { return e.frames }

// remove drops a group and clears the selection if it pointed there.
func (e *Engine) remove(id int) {
	delete(e.groups, id)
	if e.selected == id {
		e.selected = 0
	}
}

// ids returns the tracked master pids in ascending or descending order.
func (e *Engine) ids(reverse bool) []int {
	ids := make([]int, 0, len(e.groups))
	for id := range e.groups {
		ids = append(ids, id)
	}
	if reverse {
		sort.Sort(sort.Reverse(sort.IntSlice(ids)))
	} else {
		sort.Ints(ids)
	}
	return ids
}
