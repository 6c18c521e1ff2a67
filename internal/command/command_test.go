package command

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Uses sh, so POSIX only.
func TestRun(t *testing.T) {
	tests := []struct {
		name   string
		script string
		stdout string
		stderr string
		status int
	}{
		{"success", "echo out", "out\n", "", 0},
		{"stderr", "echo err >&2", "", "err\n", 0},
		{"nonzero status", "echo out; exit 3", "out\n", "", 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := Cmd("sh", "-c", tt.script).Run(context.Background())
			require.NoError(t, err)
			assert.Equal(t, tt.stdout, out.Stdout)
			assert.Equal(t, tt.stderr, out.Stderr)
			assert.Equal(t, tt.status, out.Status)
			assert.Equal(t, len(tt.stdout)+len(tt.stderr), out.Size())

			if tt.status == 0 {
				assert.NoError(t, out.Check())
			} else {
				assert.EqualError(t, out.Check(), "command failed with status 3")
			}
		})
	}
}

func TestRunMissingBinary(t *testing.T) {
	_, err := Cmd("/nonexistent/tool").Run(context.Background())
	assert.ErrorContains(t, err, "process '/nonexistent/tool' failed")
}

func TestFromArgv(t *testing.T) {
	c, err := FromArgv([]string{"python3", "-m", "ansible"}, "playbook", "site.yml")
	require.NoError(t, err)
	assert.Equal(t, "python3 -m ansible playbook site.yml", c.String())

	_, err = FromArgv(nil)
	assert.Error(t, err)
	_, err = FromArgv([]string{""}, "x")
	assert.Error(t, err)
}

func TestDirEnvAndTee(t *testing.T) {
	dir := t.TempDir()
	var stdout, stderr bytes.Buffer

	out, err := Cmd("sh", "-c", `pwd; echo "$GREETING" >&2`).
		Dir(dir).
		Env("GREETING=hello").
		Tee(&stdout, &stderr).
		Run(context.Background())
	require.NoError(t, err)

	assert.Contains(t, out.Stdout, dir)
	assert.Equal(t, out.Stdout, stdout.String())
	assert.Equal(t, "hello\n", out.Stderr)
	assert.Equal(t, "hello\n", stderr.String())
}

func TestReport(t *testing.T) {
	assert.Equal(t, "<nil>", (*Output)(nil).Report())
	assert.Equal(t, "status: 1; stdout: <empty>; stderr: <empty>", (&Output{Status: 1}).Report())
	assert.Equal(t, "status: 2; stdout:\nout\nstderr:\nerr", (&Output{Stdout: "out", Stderr: "err", Status: 2}).Report())
}
