package ansibletest

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// PlaybookGenerator writes playbooks with easy to check side effects into a
// directory. Every generated playbook gets a fresh number from the
// generator's own counter.
type PlaybookGenerator struct {
	dir  string
	next int
}

func NewPlaybookGenerator(dir string) *PlaybookGenerator {
	return &PlaybookGenerator{dir: dir, next: 1}
}

func (g *PlaybookGenerator) Dir() string {
	return g.dir
}

// Get writes a playbook that creates a test file with random content. It
// returns the playbook file name (relative to Dir), the path of the test
// file it will create and the expected content of that file.
func (g *PlaybookGenerator) Get() (playbook, testFilePath, content string) {
	id := g.next
	g.next++

	testFilePath = filepath.Join(g.dir, fmt.Sprintf("test_file.%d", id))
	content = strings.ReplaceAll(uuid.NewString(), "-", "")
	playbook = fmt.Sprintf("playbook.%d.yml", id)

	g.write(playbook,
		"---",
		"- hosts: all",
		"  connection: local",
		"  tasks:",
		"   - name: Create test file",
		"     lineinfile:",
		"       dest="+testFilePath,
		"       create=yes",
		"       line="+content,
		"       state=present",
	)

	return playbook, testFilePath, content
}

// Templated writes a playbook creating the file at dest with the given
// content; both may reference extra vars with {{ name }}.
func (g *PlaybookGenerator) Templated(dest, content string) string {
	playbook := g.nextName("templated")
	g.write(playbook,
		"---",
		"- hosts: all",
		"  connection: local",
		"  tasks:",
		"   - name: Write templated file",
		"     copy:",
		fmt.Sprintf("       dest: %q", dest),
		fmt.Sprintf("       content: %q", content),
	)
	return playbook
}

// Minimal writes a playbook without side effects.
func (g *PlaybookGenerator) Minimal() string {
	playbook := g.nextName("minimal")
	g.write(playbook,
		"---",
		"- hosts: all",
		"  connection: local",
		"  tasks:",
		"   - action: ping",
	)
	return playbook
}

// Broken writes a playbook ansible refuses to parse.
func (g *PlaybookGenerator) Broken() string {
	playbook := g.nextName("broken")
	g.write(playbook,
		"---",
		"- hosts: all",
		"  connection: local",
		"  tasks:",
		"   - nothing",
	)
	return playbook
}

// Failing writes a playbook whose only task fails.
func (g *PlaybookGenerator) Failing(msg string) string {
	playbook := g.nextName("failing")
	g.write(playbook,
		"---",
		"- hosts: all",
		"  connection: local",
		"  tasks:",
		"   - name: Fail on purpose",
		"     fail:",
		fmt.Sprintf("       msg: %q", msg),
	)
	return playbook
}

// Inventory writes a minimal inventory containing only localhost.
func (g *PlaybookGenerator) Inventory() string {
	name := "inventory.ini"
	g.write(name, "localhost")
	return name
}

func (g *PlaybookGenerator) nextName(kind string) string {
	id := g.next
	g.next++
	return fmt.Sprintf("%s.%d.yml", kind, id)
}

func (g *PlaybookGenerator) write(name string, lines ...string) {
	content := strings.Join(lines, "\n") + "\n"
	err := os.WriteFile(filepath.Join(g.dir, name), []byte(content), 0o644)
	if err != nil {
		panic(fmt.Sprintf("failed to write '%s': %v", name, err))
	}
}
