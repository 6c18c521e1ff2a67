package devops

import (
	"fmt"
	"io"
	"os"
	"sync"
)

// Printer writes Azure DevOps logging commands. DevOps groups do not nest,
// so every group is closed on its own; parallel scopes never close each
// other's groups.
type Printer struct {
	out io.Writer

	mu     sync.Mutex
	groups map[*Group]struct{}
	open   map[string]*Group
}

// NewPrinter creates a printer writing to out, stdout when out is nil.
func NewPrinter(out io.Writer) *Printer {
	if out == nil {
		out = os.Stdout
	}

	return &Printer{
		out:    out,
		groups: make(map[*Group]struct{}),
		open:   make(map[string]*Group),
	}
}

type Group struct {
	printer *Printer
}

// OpenGroup opens a new group.
func (p *Printer) OpenGroup(name string) *Group {
	p.mu.Lock()
	defer p.mu.Unlock()

	g := &Group{printer: p}
	p.groups[g] = struct{}{}
	fmt.Fprintf(p.out, "##[group]%s\n", name)
	return g
}

// Close closes the group. Closing a group that is no longer open does
// nothing.
func (g *Group) Close() {
	p := g.printer
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, ok := p.groups[g]; !ok {
		return
	}

	delete(p.groups, g)
	fmt.Fprintln(p.out, "##[endgroup]")
}

// Depth returns the number of open groups.
func (p *Printer) Depth() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.groups)
}
