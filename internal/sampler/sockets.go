package sampler

import (
	"fmt"
	"iter"
	"strconv"
	"strings"
)

// ParseSocketTable finds the header of a listening-socket listing and
// returns a sequence of (pid, port) pairs for rows owned by a pid in want.
// Rows are parsed as the sequence is consumed. Positional schemas need no
// header.
func ParseSocketTable(text string, schema SocketSchema, want map[int]bool) (iter.Seq2[int, int], error) {
	lines := strings.Split(text, "\n")
	if schema.Positional {
		return socketRows(lines, schema.AddrField+3, schema.AddrField, schema.AddrField+2, schema.OwnerFormat, want), nil
	}

	addrName := joinMultiword(schema.Addr, schema.Multiword)
	ownerName := joinMultiword(schema.Owner, schema.Multiword)

	headerAt := -1
	var headings []string
	for i, line := range lines {
		fields := strings.Fields(joinMultiword(line, schema.Multiword))
		if indexOf(fields, addrName) >= 0 && indexOf(fields, ownerName) >= 0 {
			headerAt, headings = i, fields
			break
		}
	}
	if headerAt < 0 {
		return nil, fmt.Errorf("%s: %w", schema.Name, ErrNoHeader)
	}
	addrIdx := indexOf(headings, addrName)
	ownerIdx := indexOf(headings, ownerName)
	return socketRows(lines[headerAt+1:], len(headings), addrIdx, ownerIdx, schema.OwnerFormat, want), nil
}

// socketRows splits each line into at most n fields and yields the pairs
// found in the address and owner columns.
func socketRows(lines []string, n, addrIdx, ownerIdx int, format OwnerFormat, want map[int]bool) iter.Seq2[int, int] {
	return func(yield func(int, int) bool) {
		for _, line := range lines {
			fields := splitFields(line, n)
			if len(fields) <= addrIdx || len(fields) <= ownerIdx {
				continue
			}
			port := addrPort(fields[addrIdx])
			if port <= 0 {
				continue
			}
			for _, pid := range ownerPIDs(fields[ownerIdx], format) {
				if !want[pid] {
					continue
				}
				if !yield(pid, port) {
					return
				}
			}
		}
	}
}

// addrPort extracts the port from a local address such as "0.0.0.0:8000",
// "[::]:8000", "*:8000 (LISTEN)" or BSD netstat's "127.0.0.1.8000".
func addrPort(addr string) int {
	if f := strings.Fields(addr); len(f) > 0 {
		addr = f[0]
	}
	i := strings.LastIndexAny(addr, ":.")
	if i < 0 {
		return 0
	}
	port, err := strconv.Atoi(addr[i+1:])
	if err != nil {
		return 0
	}
	return port
}

// ownerPIDs extracts the owning pids from an owner column value.
func ownerPIDs(owner string, format OwnerFormat) []int {
	switch format {
	case OwnerSlash:
		pidStr, _, ok := strings.Cut(owner, "/")
		if !ok {
			return nil
		}
		if pid, err := strconv.Atoi(pidStr); err == nil {
			return []int{pid}
		}
	case OwnerUsers:
		var pids []int
		for rest := owner; ; {
			_, after, ok := strings.Cut(rest, "pid=")
			if !ok {
				break
			}
			end := strings.IndexFunc(after, func(r rune) bool { return r < '0' || r > '9' })
			if end < 0 {
				end = len(after)
			}
			if pid, err := strconv.Atoi(after[:end]); err == nil {
				pids = append(pids, pid)
			}
			rest = after[end:]
		}
		return pids
	case OwnerPlain:
		if pid, err := strconv.Atoi(strings.TrimSpace(owner)); err == nil {
			return []int{pid}
		}
	}
	return nil
}
