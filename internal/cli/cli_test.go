package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"ansiblefixture/internal/ansibletest"
	"ansiblefixture/pkg/ansiblefixture"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	ansibletest.RunIfHelper()
	color.NoColor = true
	os.Exit(m.Run())
}

type result struct {
	code   int
	stdout string
	stderr string
}

func runCli(t *testing.T, dir string, args ...string) result {
	t.Helper()

	var stdout, stderr bytes.Buffer
	global := []string{
		"--ansible-playbook-directory=" + dir,
		"--ansible-playbook-inventory=inventory.ini",
	}

	code := Main("ansible-fixture", append(global, args...), &stdout, &stderr,
		ansiblefixture.WithCommand(ansibletest.Command(), ansibletest.PlaybookEnv()...),
		ansiblefixture.WithInventoryCommand(ansibletest.Command(), ansibletest.InventoryEnv()...),
	)

	return result{code: code, stdout: stdout.String(), stderr: stderr.String()}
}

func newGenerator(t *testing.T) *ansibletest.PlaybookGenerator {
	t.Helper()
	gen := ansibletest.NewPlaybookGenerator(t.TempDir())
	gen.Inventory()
	return gen
}

func TestRun(t *testing.T) {
	gen := newGenerator(t)
	setup, setupFile, _ := gen.Get()
	teardown, teardownFile, _ := gen.Get()
	marker := filepath.Join(gen.Dir(), "body.txt")

	res := runCli(t, gen.Dir(),
		"run", "-s", setup, "-t", teardown,
		"--", "sh", "-c", `echo "$ANSIBLE_FIXTURE_SCOPE" > `+marker+` && echo body ran`)

	require.Equal(t, 0, res.code, res.stderr)
	assert.FileExists(t, setupFile)
	assert.FileExists(t, teardownFile)
	assert.Contains(t, res.stdout, "body ran")
	assert.Contains(t, res.stdout, "TEST RESULT: OK. passed: 1; total: 1")

	data, err := os.ReadFile(marker)
	require.NoError(t, err)
	assert.Equal(t, "run\n", string(data))
}

func TestRunBodyExitCode(t *testing.T) {
	gen := newGenerator(t)
	teardown, teardownFile, _ := gen.Get()

	res := runCli(t, gen.Dir(), "run", "-t", teardown, "--skip-teardown", "--", "sh", "-c", "exit 3")

	assert.Equal(t, 3, res.code)
	assert.NoFileExists(t, teardownFile)
	assert.Contains(t, res.stdout, "TEST RESULT: FAILED. failed: 1; passed: 0; total: 1")
}

func TestRunSetupFailure(t *testing.T) {
	gen := newGenerator(t)
	broken := gen.Broken()
	marker := filepath.Join(gen.Dir(), "body.txt")

	res := runCli(t, gen.Dir(), "run", "-s", broken, "--", "touch", marker)

	assert.Equal(t, 1, res.code)
	assert.NoFileExists(t, marker)
	assert.Contains(t, res.stdout, "TEST RESULT: ERROR")
}

func TestRunWithoutPlaybooks(t *testing.T) {
	gen := newGenerator(t)

	res := runCli(t, gen.Dir(), "run", "--", "true")
	assert.Equal(t, ansiblefixture.ExitUsage, res.code)
	assert.Contains(t, res.stderr, "no setup or teardown playbook marker")
}

func TestInvalidDirectory(t *testing.T) {
	res := runCli(t, filepath.Join(t.TempDir(), "none"), "run", "-s", "a.yml", "--", "true")
	assert.Equal(t, ansiblefixture.ExitUsage, res.code)
	assert.Contains(t, res.stderr, "is not a directory")
}

func TestUnknownFlag(t *testing.T) {
	res := runCli(t, t.TempDir(), "check", "--no-such-flag")
	assert.Equal(t, ansiblefixture.ExitUsage, res.code)
}

func TestInventory(t *testing.T) {
	gen := newGenerator(t)

	res := runCli(t, gen.Dir(), "inventory", "--hosts")
	require.Equal(t, 0, res.code, res.stderr)
	assert.Equal(t, "localhost\n", res.stdout)

	res = runCli(t, gen.Dir(), "inventory")
	require.Equal(t, 0, res.code, res.stderr)
	assert.Contains(t, res.stdout, `"hostvars"`)
}

func TestCheck(t *testing.T) {
	gen := newGenerator(t)
	setup, _, _ := gen.Get()

	declarations := filepath.Join(gen.Dir(), "declarations.yaml")
	require.NoError(t, os.WriteFile(declarations, []byte(strings.Join([]string{
		"session:",
		"  setup: [" + setup + "]",
		"tests:",
		"  TestGood:",
		"    setup: [" + setup + "]",
		"    skip_teardown: true",
		"  TestMissing:",
		"    teardown: [missing.yml]",
		"  TestEmpty:",
		"    setup: []",
	}, "\n")), 0o644))

	res := runCli(t, gen.Dir(), "--ansible-playbook-declarations="+declarations, "check")

	assert.Equal(t, 1, res.code)
	assert.Contains(t, res.stdout, "Options: OK")
	assert.Contains(t, res.stdout, "session:\n  setup: "+setup+" (found)")
	assert.Contains(t, res.stdout, "TestGood:\n  setup: "+setup+" (found)\n  teardown skipped on failure")
	assert.Contains(t, res.stdout, "TestMissing:\n  teardown: missing.yml (missing)")
	assert.Contains(t, res.stdout, "TestEmpty: invalid playbook declaration for 'TestEmpty'")
	assert.Contains(t, res.stderr, "found 2 problem(s)")
}

func TestCheckWithoutDeclarations(t *testing.T) {
	gen := newGenerator(t)

	res := runCli(t, gen.Dir(), "check")
	assert.Equal(t, 0, res.code, res.stderr)
	assert.Equal(t, "Options: OK\n", res.stdout)
}
