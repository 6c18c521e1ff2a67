package ansible

import (
	"fmt"

	"ansiblefixture/pkg/ansiblefixture/core"

	"github.com/Jeffail/gabs/v2"
)

// ParseJsonCallback parses the output of ansible's json stdout callback into
// a RunResult. Tasks are appended per host in play order.
//
// Expected shape:
//
//	{"plays": [{"tasks": [{"task": {"name": ...}, "hosts": {"h1": {...}}}]}], "stats": {...}}
func ParseJsonCallback(data []byte) (core.RunResult, error) {
	parsed, err := gabs.ParseJSON(data)
	if err != nil {
		return nil, err
	}

	if !parsed.Exists("plays") {
		return nil, fmt.Errorf("missing 'plays' in playbook output")
	}

	result := make(core.RunResult)
	for _, play := range parsed.S("plays").Children() {
		for _, task := range play.S("tasks").Children() {
			name := stringAt(task, "task", "name")
			for host, hostResult := range task.S("hosts").ChildrenMap() {
				result[host] = append(result[host], core.TaskOutcome{
					Task:        name,
					Module:      stringAt(hostResult, "action"),
					Changed:     boolAt(hostResult, "changed"),
					Failed:      boolAt(hostResult, "failed"),
					Skipped:     boolAt(hostResult, "skipped"),
					Unreachable: boolAt(hostResult, "unreachable"),
					Msg:         stringAt(hostResult, "msg"),
				})
			}
		}
	}

	// Hosts that only show up in the stats, e.g. when every task was
	// skipped, still get an (empty) entry.
	for host := range parsed.S("stats").ChildrenMap() {
		if _, ok := result[host]; !ok {
			result[host] = []core.TaskOutcome{}
		}
	}

	return result, nil
}

func stringAt(c *gabs.Container, path ...string) string {
	data := c.S(path...).Data()
	switch v := data.(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}

func boolAt(c *gabs.Container, path ...string) bool {
	v, ok := c.S(path...).Data().(bool)
	return ok && v
}
