package sampler

import (
	"errors"
	"testing"

	"github.com/Dicklesworthstone/gunicorn_console/internal/model"
	"github.com/google/go-cmp/cmp"
)

const linuxPS = `    PID    PPID   RSS COMMAND
      1       0 12000 /sbin/init splash
    100       1 50000 gunicorn: master [app]
    101     100 20000 gunicorn: worker [app]
    102     100 20000 gunicorn: worker [app]
    200       1  4000 gunicorn: arbiter [odd]
    300       1  9000 /usr/bin/python3 manage.py runserver
`

func TestParseProcessTable(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		text    string
		schema  ProcessSchema
		want    []model.Process
		wantErr error
	}{
		{
			name:   "linux master and workers",
			text:   linuxPS,
			schema: psLinux,
			want: []model.Process{
				{PID: 100, PPID: 1, RSSKB: 50000, Command: "gunicorn: master [app]", Role: model.RoleMaster, Name: "app"},
				{PID: 101, PPID: 100, RSSKB: 20000, Command: "gunicorn: worker [app]", Role: model.RoleWorker, Name: "app"},
				{PID: 102, PPID: 100, RSSKB: 20000, Command: "gunicorn: worker [app]", Role: model.RoleWorker, Name: "app"},
			},
		},
		{
			name: "bsd layout with spaces in name",
			text: `  PID  PPID    RSS COMMAND
  512     1  30500 gunicorn: master [my app:create_app()]
  513   512  10100 gunicorn: worker [my app:create_app()]
`,
			schema: psBSD,
			want: []model.Process{
				{PID: 512, PPID: 1, RSSKB: 30500, Command: "gunicorn: master [my app:create_app()]", Role: model.RoleMaster, Name: "my app:create_app()"},
				{PID: 513, PPID: 512, RSSKB: 10100, Command: "gunicorn: worker [my app:create_app()]", Role: model.RoleWorker, Name: "my app:create_app()"},
			},
		},
		{
			name: "columns in a different order",
			text: `  RSS   PPID   PID CMD
 8000      1    40 gunicorn: master [api]
`,
			schema: psLinux,
			want: []model.Process{
				{PID: 40, PPID: 1, RSSKB: 8000, Command: "gunicorn: master [api]", Role: model.RoleMaster, Name: "api"},
			},
		},
		{
			name: "marker inside a longer command line",
			text: `PID PPID RSS COMMAND
7 1 100 python gunicorn: worker [w]
`,
			schema: psLinux,
			want: []model.Process{
				{PID: 7, PPID: 1, RSSKB: 100, Command: "python gunicorn: worker [w]", Role: model.RoleWorker, Name: "w"},
			},
		},
		{
			name: "malformed rows are skipped",
			text: `PID PPID RSS COMMAND
abc 1 100 gunicorn: master [x]
9 1
10 1 100 gunicorn: master [y]
`,
			schema: psLinux,
			want: []model.Process{
				{PID: 10, PPID: 1, RSSKB: 100, Command: "gunicorn: master [y]", Role: model.RoleMaster, Name: "y"},
			},
		},
		{
			name:   "header only",
			text:   "PID PPID RSS COMMAND\n",
			schema: psLinux,
			want:   nil,
		},
		{
			name:    "empty input",
			text:    "\n\n",
			schema:  psLinux,
			wantErr: ErrNoHeader,
		},
		{
			name:    "missing rss column",
			text:    "PID PPID COMMAND\n1 0 gunicorn: master [a]\n",
			schema:  psLinux,
			wantErr: ErrMissingColumn,
		},
		{
			name:    "command column not last",
			text:    "PID COMMAND PPID RSS\n",
			schema:  psLinux,
			wantErr: ErrMissingColumn,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := ParseProcessTable(tt.text, tt.schema, "gunicorn: ")
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("err = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("records mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestClassifyCommand(t *testing.T) {
	t.Parallel()

	tests := []struct {
		cmd      string
		wantRole model.Role
		wantName string
		wantOK   bool
	}{
		{"gunicorn: master [app]", model.RoleMaster, "app", true},
		{"gunicorn: worker [app]", model.RoleWorker, "app", true},
		{"gunicorn: master", model.RoleMaster, "", true},
		{"gunicorn: master [unterminated", model.RoleMaster, "unterminated", true},
		{"gunicorn: arbiter [app]", 0, "", false},
		{"gunicorn app:wsgi", 0, "", false},
		{"nginx: master process", 0, "", false},
	}
	for _, tt := range tests {
		role, name, ok := ClassifyCommand(tt.cmd, "gunicorn: ")
		if ok != tt.wantOK || role != tt.wantRole || name != tt.wantName {
			t.Errorf("ClassifyCommand(%q) = (%v, %q, %v), want (%v, %q, %v)",
				tt.cmd, role, name, ok, tt.wantRole, tt.wantName, tt.wantOK)
		}
	}
}

func TestSplitFields(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		n    int
		want []string
	}{
		{"  1   2  a b  c ", 3, []string{"1", "2", "a b  c"}},
		{"1 2", 3, []string{"1", "2"}},
		{"", 3, nil},
		{"only", 1, []string{"only"}},
		{"a\tb\tc", 2, []string{"a", "b\tc"}},
	}
	for _, tt := range tests {
		if diff := cmp.Diff(tt.want, splitFields(tt.in, tt.n)); diff != "" {
			t.Errorf("splitFields(%q, %d) (-want +got):\n%s", tt.in, tt.n, diff)
		}
	}
}
