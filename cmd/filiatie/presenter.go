package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/goudatijdmachine/filiatie/internal/explorer"
	"github.com/goudatijdmachine/filiatie/pkg/common"
	"github.com/goudatijdmachine/filiatie/pkg/geo"
)

// terminalPresenter prints a visualization cycle as plain text.
type terminalPresenter struct {
	out io.Writer
	// relations limits which trees are printed. Empty prints both.
	relations map[common.Relation]bool
}

func newTerminalPresenter(out io.Writer, relations ...common.Relation) *terminalPresenter {
	p := &terminalPresenter{out: out, relations: map[common.Relation]bool{}}
	for _, r := range relations {
		p.relations[r] = true
	}
	return p
}

func (p *terminalPresenter) wants(rel common.Relation) bool {
	return len(p.relations) == 0 || p.relations[rel]
}

func (p *terminalPresenter) SetTriggerEnabled(bool) {}

func (p *terminalPresenter) SetLoading(loading bool) {
	if loading {
		fmt.Fprintln(p.out, "Loading...")
	}
}

func (p *terminalPresenter) ClearGraph() {}

func (p *terminalPresenter) RenderGraph(nodes []common.ClassifiedNode, links []common.Link) {
	fmt.Fprintf(p.out, "Graph: %d parcels, %d links\n", len(nodes), len(links))
	for _, n := range nodes {
		geoMark := ""
		if n.HasGeo != "" {
			geoMark = " [" + n.HasGeo + "]"
		}
		fmt.Fprintf(p.out, "  %-5s %s%s\n", n.Type, n.Label, geoMark)
	}
	for _, l := range links {
		fmt.Fprintf(p.out, "  %s -> %s\n", l.Source.Label(), l.Target.Label())
	}
}

func (p *terminalPresenter) ShowInfo(message string) {
	fmt.Fprintln(p.out, message)
}

func (p *terminalPresenter) ShowError(message string) {
	fmt.Fprintln(p.out, "Error: "+message)
}

func (p *terminalPresenter) SetFragment(fragment string) {
	fmt.Fprintln(p.out, "#"+fragment)
}

func (p *terminalPresenter) ShowTree(relation common.Relation, root *common.TreeNode) {
	if !p.wants(relation) {
		return
	}
	fmt.Fprintf(p.out, "\n%s:\n", relation)
	writeTree(p.out, root)
}

func (p *terminalPresenter) HideTree(relation common.Relation) {
	if !p.wants(relation) {
		return
	}
	fmt.Fprintf(p.out, "\n%s: none\n", relation)
}

func (p *terminalPresenter) OpenMap(view *geo.View) (explorer.MapLayer, error) {
	fmt.Fprintf(p.out, "Map: %s (%s), bounds %v\n", view.Provider.Name, view.Provider.Kind, view.Bounds)
	return terminalLayer{}, nil
}

type terminalLayer struct{}

func (terminalLayer) Close() error { return nil }

// writeTree prints root and its descendants with box-drawing guides.
func writeTree(w io.Writer, root *common.TreeNode) {
	if root == nil {
		return
	}
	fmt.Fprintln(w, nodeLine(root))
	writeChildren(w, root.Children, "")
}

func writeChildren(w io.Writer, children []*common.TreeNode, prefix string) {
	for i, c := range children {
		branch, indent := "├── ", "│   "
		if i == len(children)-1 {
			branch, indent = "└── ", "    "
		}
		fmt.Fprintln(w, prefix+branch+nodeLine(c))
		writeChildren(w, c.Children, prefix+indent)
	}
}

func nodeLine(n *common.TreeNode) string {
	var b strings.Builder
	b.WriteString(n.Label)
	if n.Cycle {
		b.WriteString(" (cycle)")
	}
	return b.String()
}
