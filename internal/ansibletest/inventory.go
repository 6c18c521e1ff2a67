package ansibletest

import (
	"encoding/json"
	"fmt"
	"io"
	"slices"
)

// Mimics `ansible-inventory -i <file> --list` for INI inventories.
func runInventory(args []string, stdout, stderr io.Writer) int {
	inventory := ""
	list := false
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "-i", "--inventory":
			i++
			if i < len(args) {
				inventory = args[i]
			}
		case "--list":
			list = true
		}
	}

	if !list {
		fmt.Fprintln(stderr, "ERROR! No action selected, at least one of --host, --graph or --list needs to be specified.")
		return exitBadOptions
	}

	groups := []inventoryGroup{{name: "ungrouped", hosts: []string{"localhost"}}}
	if inventory != "" {
		var err error
		groups, err = readInventoryGroups(inventory)
		if err != nil {
			fmt.Fprintf(stderr, "ERROR! %v\n", err)
			return exitError
		}
	}

	hostvars := make(map[string]any)
	children := make([]string, 0, len(groups))
	doc := map[string]any{}
	for _, g := range groups {
		if len(g.hosts) == 0 {
			continue
		}
		children = append(children, g.name)
		doc[g.name] = map[string]any{"hosts": g.hosts}
		for _, h := range g.hosts {
			hostvars[h] = map[string]any{}
		}
	}
	slices.Sort(children)

	doc["_meta"] = map[string]any{"hostvars": hostvars}
	doc["all"] = map[string]any{"children": children}

	encoded, err := json.MarshalIndent(doc, "", "    ")
	if err != nil {
		fmt.Fprintf(stderr, "ERROR! %v\n", err)
		return exitError
	}

	fmt.Fprintln(stdout, string(encoded))
	return exitOk
}
