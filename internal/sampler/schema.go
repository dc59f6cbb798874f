package sampler

import (
	"runtime"
	"strings"
)

// ProcessSchema declares how to list processes on a platform and which
// header names identify the needed columns. Each column accepts any of its
// listed names; the command column must be the last one.
type ProcessSchema struct {
	Command []string
	PID     []string
	PPID    []string
	RSS     []string
	Args    []string
}

// OwnerFormat describes how a socket table names the owning process.
type OwnerFormat int

const (
	// OwnerSlash is netstat's "pid/program" form.
	OwnerSlash OwnerFormat = iota
	// OwnerUsers is ss's users:(("name",pid=N,fd=M),...) form.
	OwnerUsers
	// OwnerPlain is a bare pid column, as printed by lsof.
	OwnerPlain
)

// SocketSchema declares a listening-socket command and its columns.
type SocketSchema struct {
	Name        string
	Command     []string
	Addr        string
	Owner       string
	OwnerFormat OwnerFormat
	// Multiword lists header names containing spaces, so they can be kept
	// as a single column when the header is tokenized.
	Multiword []string
	// Positional tables are read by field position instead of by heading:
	// the local address is field AddrField, the peer address follows it and
	// the owner is the rest of the row. Header lines are skipped because
	// their address field holds no port.
	Positional bool
	AddrField  int
}

var (
	psLinux = ProcessSchema{
		Command: []string{"ps", "-eo", "pid,ppid,rss,args"},
		PID:     []string{"PID"},
		PPID:    []string{"PPID"},
		RSS:     []string{"RSS", "RSZ"},
		Args:    []string{"COMMAND", "CMD", "ARGS"},
	}
	psBSD = ProcessSchema{
		Command: []string{"ps", "-axo", "pid,ppid,rss,command"},
		PID:     []string{"PID"},
		PPID:    []string{"PPID"},
		RSS:     []string{"RSS", "RSZ"},
		Args:    []string{"COMMAND", "CMD", "ARGS"},
	}

	netstatLinux = SocketSchema{
		Name:        "netstat",
		Command:     []string{"netstat", "-lntp"},
		Addr:        "Local Address",
		Owner:       "PID/Program name",
		OwnerFormat: OwnerSlash,
		Multiword:   []string{"Local Address", "Foreign Address", "PID/Program name"},
	}
	// ss glues "Peer Address:Port" to "Process" in its header and older
	// releases print no "Process" heading at all.
	ssLinux = SocketSchema{
		Name:        "ss",
		Command:     []string{"ss", "-ltnp"},
		OwnerFormat: OwnerUsers,
		Positional:  true,
		AddrField:   3,
	}
	lsofBSD = SocketSchema{
		Name:        "lsof",
		Command:     []string{"lsof", "-nP", "-iTCP", "-sTCP:LISTEN"},
		Addr:        "NAME",
		Owner:       "PID",
		OwnerFormat: OwnerPlain,
	}
)

// ProcessSchemaFor returns the process table schema for goos.
func ProcessSchemaFor(goos string) ProcessSchema {
	if goos == "linux" {
		return psLinux
	}
	return psBSD
}

// SocketSchemasFor returns the socket table schemas for goos, in the order
// they should be tried.
func SocketSchemasFor(goos string) []SocketSchema {
	if goos == "linux" {
		return []SocketSchema{netstatLinux, ssLinux}
	}
	return []SocketSchema{lsofBSD}
}

// HostProcessSchema is ProcessSchemaFor the running platform.
func HostProcessSchema() ProcessSchema { return ProcessSchemaFor(runtime.GOOS) }

// HostSocketSchemas is SocketSchemasFor the running platform.
func HostSocketSchemas() []SocketSchema { return SocketSchemasFor(runtime.GOOS) }

// joinMultiword replaces the spaces inside each multiword header name so the
// header line can be split on whitespace.
func joinMultiword(line string, names []string) string {
	for _, name := range names {
		line = strings.ReplaceAll(line, name, strings.ReplaceAll(name, " ", "_"))
	}
	return line
}

// indexOf returns the position of the first heading matching any of names.
func indexOf(headings []string, names ...string) int {
	for i, h := range headings {
		for _, n := range names {
			if h == n {
				return i
			}
		}
	}
	return -1
}

// splitFields splits s on runs of whitespace into at most n fields; the last
// field keeps the remainder of the line, inner spaces included.
func splitFields(s string, n int) []string {
	var out []string
	s = strings.TrimSpace(s)
	for s != "" && len(out) < n-1 {
		i := strings.IndexAny(s, " \t")
		if i < 0 {
			break
		}
		out = append(out, s[:i])
		s = strings.TrimLeft(s[i:], " \t")
	}
	if s != "" {
		out = append(out, s)
	}
	return out
}
