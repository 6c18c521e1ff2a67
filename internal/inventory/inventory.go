// Package inventory queries the resolved ansible inventory.
package inventory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"ansiblefixture/internal/command"
	"ansiblefixture/pkg/ansiblefixture/utils"

	"github.com/Jeffail/gabs/v2"
	"github.com/sirupsen/logrus"
)

const DefaultCommand = "ansible-inventory"

// Querier runs `ansible-inventory --list` and caches the first successful
// result for its own lifetime. Failed queries are not cached.
type Querier struct {
	// Command prefix, e.g. ["ansible-inventory"].
	Command   []string
	Inventory string
	// Working directory of the query.
	Dir string
	Env []string
	Log logrus.FieldLogger

	mu     sync.Mutex
	cached *gabs.Container
}

func NewQuerier(inventory, dir string, log logrus.FieldLogger) *Querier {
	return &Querier{
		Command:   []string{DefaultCommand},
		Inventory: inventory,
		Dir:       dir,
		Log:       log,
	}
}

// Get returns the parsed inventory.
func (q *Querier) Get(ctx context.Context) (*gabs.Container, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.cached != nil {
		return q.cached, nil
	}

	args := []string{"--list"}
	if q.Inventory != "" {
		args = append(args, "-i", q.Inventory)
	}

	cmd, err := command.FromArgv(q.Command, args...)
	if err != nil {
		return nil, fmt.Errorf("invalid ansible-inventory command: %w", err)
	}
	cmd.Dir(q.Dir).Env("ANSIBLE_NOCOLOR=1").Env(q.Env...)

	q.logger().Debugf("Querying inventory: %s", cmd)
	out, err := cmd.Run(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to query inventory: %w", err)
	}

	if err := out.Check(); err != nil {
		return nil, fmt.Errorf("inventory query failed: %w\n%s", err, utils.StripAnsi(out.Report()))
	}

	parsed, err := gabs.ParseJSON([]byte(out.Stdout))
	if err != nil {
		return nil, fmt.Errorf("failed to parse inventory: %w", err)
	}

	q.cached = parsed
	return parsed, nil
}

// Hosts returns the names of all hosts in the inventory, sorted.
func (q *Querier) Hosts(ctx context.Context) ([]string, error) {
	inv, err := q.Get(ctx)
	if err != nil {
		return nil, err
	}

	return HostsOf(inv), nil
}

// HostsOf collects the host names of a parsed `--list` document from
// `_meta.hostvars` and from the `hosts` list of every group.
func HostsOf(inv *gabs.Container) []string {
	seen := make(map[string]bool)
	for host := range inv.S("_meta", "hostvars").ChildrenMap() {
		seen[host] = true
	}

	for name, group := range inv.ChildrenMap() {
		if name == "_meta" {
			continue
		}

		for _, host := range group.S("hosts").Children() {
			if h, ok := host.Data().(string); ok {
				seen[h] = true
			}
		}
	}

	hosts := make([]string, 0, len(seen))
	for h := range seen {
		hosts = append(hosts, h)
	}
	sort.Strings(hosts)
	return hosts
}

func (q *Querier) logger() logrus.FieldLogger {
	if q.Log == nil {
		return logrus.StandardLogger()
	}
	return q.Log
}
