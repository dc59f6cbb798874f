package model

import "fmt"

// Role classifies a gunicorn process row.
type Role int

const (
	RoleMaster Role = iota
	RoleWorker
)

func (r Role) String() string {
	switch r {
	case RoleMaster:
		return "master"
	case RoleWorker:
		return "worker"
	}
	return fmt.Sprintf("role(%d)", int(r))
}

// Process is one retained row of the process table.
type Process struct {
	PID     int
	PPID    int
	RSSKB   int64
	Command string
	Role    Role
	Name    string // bracketed config name, "" when absent
}

// GroupID returns the id of the server group the process belongs to: its own
// pid for a master, its parent's pid for a worker.
func (p Process) GroupID() int {
	if p.Role == RoleWorker {
		return p.PPID
	}
	return p.PID
}

// Workers is the worker count of a group. It is either a confirmed count from
// the last poll or a pending state entered after a scaling signal, carrying
// the animation frame reached so far.
type Workers struct {
	pending bool
	n       int
}

// Count returns a confirmed worker count.
func Count(n int) Workers { return Workers{n: n} }

// Pending returns an unconfirmed count at the given animation frame.
func Pending(frame int) Workers { return Workers{pending: true, n: frame} }

// IsPending reports whether the count awaits confirmation by a poll.
func (w Workers) IsPending() bool { return w.pending }

// N returns the confirmed count, or 0 while pending.
func (w Workers) N() int {
	if w.pending {
		return 0
	}
	return w.n
}

// Frame returns the animation frame while pending, or 0.
func (w Workers) Frame() int {
	if !w.pending {
		return 0
	}
	return w.n
}

func (w Workers) String() string {
	if w.pending {
		return fmt.Sprintf("pending(%d)", w.n)
	}
	return fmt.Sprintf("%d", w.n)
}

// MarshalJSON renders a confirmed count as a number and a pending one as null.
func (w Workers) MarshalJSON() ([]byte, error) {
	if w.pending {
		return []byte("null"), nil
	}
	return []byte(fmt.Sprintf("%d", w.n)), nil
}

// ServerGroup is one gunicorn master and its workers.
type ServerGroup struct {
	ID       int     `json:"pid"`
	Name     string  `json:"name"`
	Workers  Workers `json:"workers"`
	MemoryKB int64   `json:"memory_kb"`
	Port     int     `json:"port,omitempty"` // 0 until resolved
}

// HasPort reports whether a listening port has been resolved.
func (g ServerGroup) HasPort() bool { return g.Port > 0 }

// MemoryMB converts the resident total to the megabytes shown in the table.
func (g ServerGroup) MemoryMB() float64 { return float64(g.MemoryKB) / 1000 }

// Signal is a process-control signal name as understood by kill(1).
type Signal string

const (
	SignalAddWorker    Signal = "TTIN"
	SignalRemoveWorker Signal = "TTOU"
	SignalReload       Signal = "HUP"
	SignalTerminate    Signal = "QUIT"
)
