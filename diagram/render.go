package diagram

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

type boxChars struct {
	tl, tr, bl, br, h, v string
}

var shapeChars = map[Shape]boxChars{
	ShapeBox:      {"┌", "┐", "└", "┘", "─", "│"},
	ShapeRound:    {"╭", "╮", "╰", "╯", "─", "│"},
	ShapeCircle:   {"╭", "╮", "╰", "╯", "─", "│"},
	ShapeDecision: {"◇", "◇", "◇", "◇", "─", "│"},
}

// Render draws the graph as a top-down tree. Every direction is drawn
// top-down; a terminal has no room for wide left-to-right layouts.
func Render(g *Graph) (string, error) {
	if g == nil || len(g.Nodes) == 0 {
		return "", ErrEmpty
	}
	roots := g.Roots()
	if len(roots) == 0 {
		return "", ErrCycle
	}

	r := &treeRenderer{g: g, seen: make(map[string]bool)}
	for i, root := range roots {
		if i > 0 {
			r.lines = append(r.lines, "")
		}
		r.renderRoot(root)
	}

	// Nodes stranded in a cycle that no root reaches still get drawn
	for _, n := range g.Nodes {
		if !r.seen[n.ID] {
			r.lines = append(r.lines, "")
			r.renderRoot(n)
		}
	}

	return strings.Join(r.lines, "\n"), nil
}

type treeRenderer struct {
	g     *Graph
	seen  map[string]bool
	lines []string
}

func (r *treeRenderer) renderRoot(n *Node) {
	r.seen[n.ID] = true
	r.lines = append(r.lines, box(n)...)
	r.renderChildren(n.ID, "")
}

func (r *treeRenderer) renderChildren(id, prefix string) {
	edges := r.g.Children(id)
	for i, e := range edges {
		last := i == len(edges)-1
		branch, cont := "├── ", "│   "
		if last {
			branch, cont = "└── ", "    "
		}

		if e.Label != "" {
			r.lines = append(r.lines, prefix+"│ ("+e.Label+")")
		}

		child, ok := r.g.Node(e.To)
		if !ok {
			continue
		}

		if r.seen[child.ID] {
			r.lines = append(r.lines, prefix+branch+"↺ "+firstLine(child.Label))
			continue
		}
		r.seen[child.ID] = true

		for j, line := range box(child) {
			if j == 0 {
				r.lines = append(r.lines, prefix+branch+line)
			} else {
				r.lines = append(r.lines, prefix+cont+line)
			}
		}
		r.renderChildren(child.ID, prefix+cont)
	}
}

func box(n *Node) []string {
	c := shapeChars[n.Shape]
	labelLines := strings.Split(n.Label, "\n")

	inner := 0
	for _, l := range labelLines {
		if w := runewidth.StringWidth(l); w > inner {
			inner = w
		}
	}

	out := make([]string, 0, len(labelLines)+2)
	out = append(out, c.tl+strings.Repeat(c.h, inner+2)+c.tr)
	for _, l := range labelLines {
		out = append(out, c.v+" "+runewidth.FillRight(l, inner)+" "+c.v)
	}
	out = append(out, c.bl+strings.Repeat(c.h, inner+2)+c.br)
	return out
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

// Fit normalizes rendered output to a container: every line padded to the
// same width, centered horizontally and vertically when there is spare room.
// Content larger than the container is left whole for the viewport to scroll.
func Fit(output string, width, height int) string {
	lines := strings.Split(output, "\n")

	contentWidth := 0
	for _, l := range lines {
		if w := runewidth.StringWidth(l); w > contentWidth {
			contentWidth = w
		}
	}

	leftPad := 0
	if width > contentWidth {
		leftPad = (width - contentWidth) / 2
	}
	pad := strings.Repeat(" ", leftPad)

	fitted := make([]string, 0, len(lines))
	for _, l := range lines {
		fitted = append(fitted, pad+runewidth.FillRight(l, contentWidth))
	}

	if height > len(fitted) {
		top := (height - len(fitted)) / 2
		bottom := height - len(fitted) - top
		blank := strings.Repeat(" ", leftPad+contentWidth)
		framed := make([]string, 0, height)
		for i := 0; i < top; i++ {
			framed = append(framed, blank)
		}
		framed = append(framed, fitted...)
		for i := 0; i < bottom; i++ {
			framed = append(framed, blank)
		}
		fitted = framed
	}

	return strings.Join(fitted, "\n")
}
