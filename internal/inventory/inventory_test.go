package inventory

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"ansiblefixture/internal/ansibletest"

	"github.com/Jeffail/gabs/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	ansibletest.RunIfHelper()
	os.Exit(m.Run())
}

func newFakeQuerier(t *testing.T, inventory string) (*Querier, string) {
	t.Helper()
	dir := t.TempDir()
	calls := filepath.Join(dir, "calls.log")

	q := NewQuerier(inventory, dir, nil)
	q.Command = ansibletest.Command()
	q.Env = append(ansibletest.InventoryEnv(), ansibletest.CallsFileEnv+"="+calls)
	return q, calls
}

func countCalls(t *testing.T, path string) int {
	t.Helper()
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return 0
	}
	require.NoError(t, err)
	return strings.Count(string(data), "\n")
}

func TestGetIsCached(t *testing.T) {
	inv := filepath.Join(t.TempDir(), "hosts.ini")
	require.NoError(t, os.WriteFile(inv, []byte("localhost\n[web]\nweb1 ansible_host=10.0.0.1\nweb2\n[web:vars]\nx=1\n"), 0o644))

	q, calls := newFakeQuerier(t, inv)

	first, err := q.Get(context.Background())
	require.NoError(t, err)
	second, err := q.Get(context.Background())
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, 1, countCalls(t, calls))

	hosts, err := q.Hosts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"localhost", "web1", "web2"}, hosts)
	assert.Equal(t, 1, countCalls(t, calls))

	assert.True(t, first.Exists("_meta", "hostvars", "web1"))
}

func TestFailedQueryIsNotCached(t *testing.T) {
	dir := t.TempDir()
	inv := filepath.Join(dir, "later.ini")
	q, calls := newFakeQuerier(t, inv)

	_, err := q.Get(context.Background())
	require.Error(t, err)

	require.NoError(t, os.WriteFile(inv, []byte("localhost\n"), 0o644))
	hosts, err := q.Hosts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"localhost"}, hosts)
	assert.Equal(t, 2, countCalls(t, calls))
}

func TestHostsOf(t *testing.T) {
	inv, err := gabs.ParseJSON([]byte(`{
		"_meta": {"hostvars": {"a": {}, "b": {}}},
		"all": {"children": ["ungrouped", "db"]},
		"db": {"hosts": ["c", "a"]},
		"ungrouped": {"hosts": ["b"]}
	}`))
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "b", "c"}, HostsOf(inv))
}
