package ansibletest

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// Exit codes of the real ansible-playbook.
const (
	exitOk          = 0
	exitError       = 1
	exitHostFailed  = 2
	exitParserError = 4
	exitBadOptions  = 5
)

var templateVar = regexp.MustCompile(`\{\{\s*([A-Za-z_][A-Za-z0-9_]*)\s*\}\}`)

type playbookArgs struct {
	inventory string
	playbook  string
	extraVars map[string]any
}

func parsePlaybookArgs(args []string) (playbookArgs, error) {
	var parsed playbookArgs
	for i := 0; i < len(args); i++ {
		arg := args[i]
		switch {
		case arg == "-i" || arg == "--inventory":
			i++
			if i >= len(args) {
				return parsed, fmt.Errorf("missing value for %s", arg)
			}
			parsed.inventory = args[i]
		case arg == "-e" || arg == "--extra-vars":
			i++
			if i >= len(args) {
				return parsed, fmt.Errorf("missing value for %s", arg)
			}
			if err := json.Unmarshal([]byte(args[i]), &parsed.extraVars); err != nil {
				return parsed, fmt.Errorf("invalid extra vars: %w", err)
			}
		case strings.HasPrefix(arg, "-"):
			// Verbosity and other flags are ignored.
		default:
			parsed.playbook = arg
		}
	}

	if parsed.playbook == "" {
		return parsed, fmt.Errorf("no playbook given")
	}

	return parsed, nil
}

type hostResult struct {
	Action  string `json:"action"`
	Changed bool   `json:"changed"`
	Failed  bool   `json:"failed,omitempty"`
	Msg     string `json:"msg,omitempty"`
}

type taskEntry struct {
	Task  map[string]string     `json:"task"`
	Hosts map[string]hostResult `json:"hosts"`
}

type playEntry struct {
	Play  map[string]string `json:"play"`
	Tasks []taskEntry       `json:"tasks"`
}

type hostStats struct {
	Ok          int `json:"ok"`
	Changed     int `json:"changed"`
	Failures    int `json:"failures"`
	Skipped     int `json:"skipped"`
	Unreachable int `json:"unreachable"`
}

type callbackOutput struct {
	Plays []playEntry            `json:"plays"`
	Stats map[string]*hostStats `json:"stats"`
}

// Runs a tiny subset of ansible-playbook: plays of tasks using the ping,
// debug, copy, lineinfile, file and fail modules, with {{ var }}
// substitution from extra vars. Output mimics the json stdout callback.
func runPlaybook(args []string, stdout, stderr io.Writer) int {
	parsed, err := parsePlaybookArgs(args)
	if err != nil {
		fmt.Fprintf(stderr, "ERROR! %v\n", err)
		return exitBadOptions
	}

	hosts := []string{"localhost"}
	if parsed.inventory != "" {
		hosts, err = readInventory(parsed.inventory)
		if err != nil {
			fmt.Fprintf(stderr, "ERROR! %v\n", err)
			return exitError
		}
	}

	data, err := os.ReadFile(parsed.playbook)
	if err != nil {
		fmt.Fprintf(stderr, "ERROR! the playbook: %s could not be found\n", parsed.playbook)
		return exitError
	}

	var plays []map[string]any
	if err := yaml.Unmarshal(data, &plays); err != nil {
		fmt.Fprintf(stderr, "ERROR! failed to parse playbook: %v\n", err)
		return exitParserError
	}

	tasksPerPlay := make([][]map[string]any, len(plays))
	for i, play := range plays {
		tasks, err := playTasks(play)
		if err != nil {
			fmt.Fprintf(stderr, "ERROR! %v\n", err)
			return exitParserError
		}
		tasksPerPlay[i] = tasks
	}

	output := callbackOutput{Stats: make(map[string]*hostStats)}
	for _, h := range hosts {
		output.Stats[h] = &hostStats{}
	}

	failed := false
	for i, play := range plays {
		entry := playEntry{
			Play:  map[string]string{"name": fmt.Sprint(play["name"])},
			Tasks: make([]taskEntry, 0),
		}

		for _, task := range tasksPerPlay[i] {
			name, module, params := splitTask(task)
			te := taskEntry{
				Task:  map[string]string{"name": name},
				Hosts: make(map[string]hostResult),
			}

			for _, h := range hosts {
				res := runModule(module, params, parsed.extraVars)
				te.Hosts[h] = res
				stats := output.Stats[h]
				stats.Ok++
				if res.Changed {
					stats.Changed++
				}
				if res.Failed {
					stats.Failures++
					failed = true
				}
			}

			entry.Tasks = append(entry.Tasks, te)
			if failed {
				break
			}
		}

		output.Plays = append(output.Plays, entry)
		if failed {
			break
		}
	}

	encoded, err := json.MarshalIndent(output, "", "    ")
	if err != nil {
		fmt.Fprintf(stderr, "ERROR! %v\n", err)
		return exitError
	}
	fmt.Fprintln(stdout, string(encoded))

	if failed {
		return exitHostFailed
	}
	return exitOk
}

func playTasks(play map[string]any) ([]map[string]any, error) {
	rawTasks, ok := play["tasks"].([]any)
	if !ok {
		if play["tasks"] == nil {
			return nil, nil
		}
		return nil, fmt.Errorf("'tasks' must be a list")
	}

	tasks := make([]map[string]any, 0, len(rawTasks))
	for _, raw := range rawTasks {
		task, ok := raw.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("a task must be a mapping, got: %v", raw)
		}

		_, module, _ := splitTask(task)
		if !knownModule(module) {
			return nil, fmt.Errorf("couldn't resolve module/action '%s'", module)
		}

		tasks = append(tasks, task)
	}

	return tasks, nil
}

func knownModule(module string) bool {
	switch module {
	case "ping", "debug", "copy", "lineinfile", "file", "fail":
		return true
	}
	return false
}

// Splits a task into its name, module and module parameters. The `action:`
// form (`action: ping`) is accepted too.
func splitTask(task map[string]any) (string, string, map[string]any) {
	name, _ := task["name"].(string)
	for key, value := range task {
		if key == "name" {
			continue
		}

		if key == "action" {
			if s, ok := value.(string); ok {
				fields := strings.Fields(s)
				if len(fields) == 0 {
					return name, "", nil
				}
				return name, fields[0], parseKeyValues(strings.Join(fields[1:], " "))
			}
		}

		switch v := value.(type) {
		case map[string]any:
			return name, key, v
		case string:
			return name, key, parseKeyValues(v)
		default:
			return name, key, map[string]any{}
		}
	}

	return name, "", nil
}

// Parses the `k1=v1 k2=v2` short form of module parameters.
func parseKeyValues(s string) map[string]any {
	params := make(map[string]any)
	for _, field := range strings.Fields(s) {
		k, v, found := strings.Cut(field, "=")
		if found {
			params[k] = v
		}
	}
	return params
}

func runModule(module string, params map[string]any, vars map[string]any) hostResult {
	res := hostResult{Action: module}

	get := func(key string) (string, error) {
		raw, ok := params[key]
		if !ok {
			return "", nil
		}
		return render(fmt.Sprint(raw), vars)
	}

	fail := func(err error) hostResult {
		res.Failed = true
		res.Msg = err.Error()
		return res
	}

	switch module {
	case "ping":
		res.Msg = "pong"
	case "debug":
		msg, err := get("msg")
		if err != nil {
			return fail(err)
		}
		res.Msg = msg
	case "fail":
		msg, err := get("msg")
		if err != nil {
			return fail(err)
		}
		if msg == "" {
			msg = "Failed as requested from task"
		}
		res.Failed = true
		res.Msg = msg
	case "copy":
		dest, err := get("dest")
		if err != nil {
			return fail(err)
		}
		content, err := get("content")
		if err != nil {
			return fail(err)
		}
		if err := os.WriteFile(dest, []byte(content), 0o644); err != nil {
			return fail(err)
		}
		res.Changed = true
	case "lineinfile":
		dest, err := get("dest")
		if err != nil {
			return fail(err)
		}
		if dest == "" {
			if dest, err = get("path"); err != nil {
				return fail(err)
			}
		}
		line, err := get("line")
		if err != nil {
			return fail(err)
		}
		changed, err := lineInFile(dest, line)
		if err != nil {
			return fail(err)
		}
		res.Changed = changed
	case "file":
		path, err := get("path")
		if err != nil {
			return fail(err)
		}
		state, err := get("state")
		if err != nil {
			return fail(err)
		}
		if state != "absent" {
			return fail(fmt.Errorf("only state=absent is supported"))
		}
		err = os.Remove(path)
		if err != nil && !os.IsNotExist(err) {
			return fail(err)
		}
		res.Changed = err == nil
	}

	return res
}

func render(s string, vars map[string]any) (string, error) {
	var missing string
	out := templateVar.ReplaceAllStringFunc(s, func(m string) string {
		name := templateVar.FindStringSubmatch(m)[1]
		v, ok := vars[name]
		if !ok {
			missing = name
			return m
		}
		return fmt.Sprint(v)
	})

	if missing != "" {
		return "", fmt.Errorf("'%s' is undefined", missing)
	}

	return out, nil
}

func lineInFile(path, line string) (bool, error) {
	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return false, err
	}

	for _, existing := range strings.Split(string(data), "\n") {
		if existing == line {
			return false, nil
		}
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return false, err
	}
	defer f.Close()

	if len(data) > 0 && !strings.HasSuffix(string(data), "\n") {
		line = "\n" + line
	}

	_, err = fmt.Fprintln(f, line)
	return err == nil, err
}

// Reads the host names of an INI inventory, in order of appearance. Group
// headers, comments and `:vars`/`:children` sections are skipped.
func readInventory(path string) ([]string, error) {
	groups, err := readInventoryGroups(path)
	if err != nil {
		return nil, err
	}

	hosts := make([]string, 0)
	seen := make(map[string]bool)
	for _, g := range groups {
		for _, h := range g.hosts {
			if !seen[h] {
				seen[h] = true
				hosts = append(hosts, h)
			}
		}
	}

	return hosts, nil
}

type inventoryGroup struct {
	name  string
	hosts []string
}

func readInventoryGroups(path string) ([]inventoryGroup, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("unable to parse inventory '%s': %w", path, err)
	}
	defer f.Close()

	groups := []inventoryGroup{{name: "ungrouped"}}
	current := 0
	skipSection := false

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, ";") {
			continue
		}

		if strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]") {
			name := strings.Trim(line, "[]")
			skipSection = strings.Contains(name, ":")
			if !skipSection {
				groups = append(groups, inventoryGroup{name: name})
				current = len(groups) - 1
			}
			continue
		}

		if skipSection {
			continue
		}

		groups[current].hosts = append(groups[current].hosts, strings.Fields(line)[0])
	}

	return groups, scanner.Err()
}
