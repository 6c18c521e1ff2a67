// Package ansibletest provides stand-ins for the ansible command line tools
// so that the playbook machinery can be tested without ansible installed.
//
// The fake tools are the test binary itself, re-executed with an environment
// variable telling it which tool to impersonate. Test packages using them
// must call RunIfHelper from TestMain before m.Run:
//
//	func TestMain(m *testing.M) {
//		ansibletest.RunIfHelper()
//		os.Exit(m.Run())
//	}
package ansibletest

import (
	"fmt"
	"os"
)

const (
	helperEnv = "ANSIBLETEST_HELPER_TOOL"

	// When set, every fake tool invocation appends one line to this file.
	CallsFileEnv = "ANSIBLETEST_CALLS_FILE"

	toolPlaybook  = "ansible-playbook"
	toolInventory = "ansible-inventory"
)

// Command returns the command prefix that runs the fake tools.
func Command() []string {
	exe, err := os.Executable()
	if err != nil {
		exe = os.Args[0]
	}
	return []string{exe}
}

// PlaybookEnv returns the environment making Command behave like
// ansible-playbook.
func PlaybookEnv() []string {
	return []string{helperEnv + "=" + toolPlaybook}
}

// InventoryEnv returns the environment making Command behave like
// ansible-inventory.
func InventoryEnv() []string {
	return []string{helperEnv + "=" + toolInventory}
}

// RunIfHelper turns the current process into a fake ansible tool and exits
// when it was started as one. It returns immediately otherwise.
func RunIfHelper() {
	tool := os.Getenv(helperEnv)
	if tool == "" {
		return
	}

	recordCall(tool, os.Args[1:])

	switch tool {
	case toolPlaybook:
		os.Exit(runPlaybook(os.Args[1:], os.Stdout, os.Stderr))
	case toolInventory:
		os.Exit(runInventory(os.Args[1:], os.Stdout, os.Stderr))
	default:
		fmt.Fprintf(os.Stderr, "unknown fake tool '%s'\n", tool)
		os.Exit(5)
	}
}

func recordCall(tool string, args []string) {
	path := os.Getenv(CallsFileEnv)
	if path == "" {
		return
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return
	}
	defer f.Close()

	fmt.Fprintf(f, "%s %v\n", tool, args)
}
