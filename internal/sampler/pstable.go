package sampler

import (
	"bufio"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/Dicklesworthstone/gunicorn_console/internal/model"
)

var (
	// ErrNoHeader is returned when a table has no recognizable header row.
	ErrNoHeader = errors.New("no header row")
	// ErrMissingColumn is returned when the header row lacks a needed column.
	ErrMissingColumn = errors.New("missing column")
)

// Role markers following the program marker on a gunicorn command line.
const (
	masterMarker = "master"
	workerMarker = "worker"
)

// ParseProcessTable turns process listing text into the records whose command
// line carries marker followed by a master or worker role. Every other row is
// dropped.
func ParseProcessTable(text string, schema ProcessSchema, marker string) ([]model.Process, error) {
	sc := bufio.NewScanner(strings.NewReader(text))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var headings []string
	for sc.Scan() {
		if line := strings.TrimSpace(sc.Text()); line != "" {
			headings = strings.Fields(line)
			break
		}
	}
	if headings == nil {
		return nil, ErrNoHeader
	}

	cols, err := resolveProcessColumns(headings, schema)
	if err != nil {
		return nil, err
	}

	var procs []model.Process
	for sc.Scan() {
		fields := splitFields(sc.Text(), len(headings))
		if len(fields) < len(headings) {
			continue
		}
		p, ok := parseProcessRow(fields, cols, marker)
		if ok {
			procs = append(procs, p)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read process table: %w", err)
	}
	return procs, nil
}

type processColumns struct {
	pid, ppid, rss, args int
}

func resolveProcessColumns(headings []string, schema ProcessSchema) (processColumns, error) {
	cols := processColumns{
		pid:  indexOf(headings, schema.PID...),
		ppid: indexOf(headings, schema.PPID...),
		rss:  indexOf(headings, schema.RSS...),
		args: indexOf(headings, schema.Args...),
	}
	for _, c := range []struct {
		idx   int
		names []string
	}{
		{cols.pid, schema.PID},
		{cols.ppid, schema.PPID},
		{cols.rss, schema.RSS},
		{cols.args, schema.Args},
	} {
		if c.idx < 0 {
			return cols, fmt.Errorf("%w: %s", ErrMissingColumn, strings.Join(c.names, "|"))
		}
	}
	if cols.args != len(headings)-1 {
		return cols, fmt.Errorf("%w: %s must be the last column", ErrMissingColumn, headings[cols.args])
	}
	return cols, nil
}

func parseProcessRow(fields []string, cols processColumns, marker string) (model.Process, bool) {
	cmd := strings.TrimSpace(fields[cols.args])
	role, name, ok := ClassifyCommand(cmd, marker)
	if !ok {
		return model.Process{}, false
	}
	pid, err := strconv.Atoi(fields[cols.pid])
	if err != nil {
		return model.Process{}, false
	}
	ppid, err := strconv.Atoi(fields[cols.ppid])
	if err != nil {
		return model.Process{}, false
	}
	rss, err := strconv.ParseInt(fields[cols.rss], 10, 64)
	if err != nil {
		return model.Process{}, false
	}
	return model.Process{
		PID:     pid,
		PPID:    ppid,
		RSSKB:   rss,
		Command: cmd,
		Role:    role,
		Name:    name,
	}, true
}

// ClassifyCommand reports the role of a command line and its bracketed name.
// ok is false unless marker is immediately followed by a role marker.
func ClassifyCommand(cmd, marker string) (role model.Role, name string, ok bool) {
	i := strings.Index(cmd, marker)
	if i < 0 {
		return 0, "", false
	}
	rest := cmd[i+len(marker):]
	switch {
	case strings.HasPrefix(rest, masterMarker):
		role = model.RoleMaster
	case strings.HasPrefix(rest, workerMarker):
		role = model.RoleWorker
	default:
		return 0, "", false
	}
	return role, bracketName(rest), true
}

// bracketName returns the text between the first '[' and the last ']'.
func bracketName(s string) string {
	open := strings.Index(s, "[")
	if open < 0 {
		return ""
	}
	end := strings.LastIndex(s, "]")
	if end <= open {
		return strings.TrimSpace(s[open+1:])
	}
	return s[open+1 : end]
}
