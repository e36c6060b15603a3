// Package diagram parses flowchart source (a Mermaid subset) and draws it as
// a boxed tree for the terminal.
package diagram

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var (
	ErrNoHeader = errors.New("diagram: missing flowchart header")
	ErrEmpty    = errors.New("diagram: no nodes")
	ErrCycle    = errors.New("diagram: every node has an incoming edge")
)

type Direction string

const (
	TopBottom Direction = "TB"
	BottomTop Direction = "BT"
	LeftRight Direction = "LR"
	RightLeft Direction = "RL"
)

type Shape int

const (
	ShapeBox Shape = iota
	ShapeRound
	ShapeCircle
	ShapeDecision
)

type Node struct {
	ID    string
	Label string
	Shape Shape
}

type Edge struct {
	From  string
	To    string
	Label string
}

type Graph struct {
	Direction Direction
	Nodes     []*Node
	Edges     []Edge

	byID map[string]*Node
}

var (
	headerRegex   = regexp.MustCompile(`^(?:flowchart|graph)\s+(TB|TD|BT|LR|RL)\s*;?$`)
	nodeRegex     = regexp.MustCompile(`^([A-Za-z0-9_]+)\s*(?:\[([^\]]*)\]|\(\(([^)]*)\)\)|\(([^)]*)\)|\{([^}]*)\})?`)
	edgeRegex     = regexp.MustCompile(`^(-->|---|-\.->|==>)\s*(?:\|([^|]*)\|)?`)
	textEdgeRegex = regexp.MustCompile(`^(?:--|==|-\.)\s*([^-=.>|][^|]*?)\s*(?:-->|---|==>|\.->)`) // A -- text --> B
	classRegex    = regexp.MustCompile(`^:::[A-Za-z0-9_-]+`)
	styleRegex    = regexp.MustCompile(`^(?:style|classDef|class|linkStyle|click)\s`)
	subgraphRegex = regexp.MustCompile(`^subgraph(?:\s|$)`)
	breakRegex    = regexp.MustCompile(`(?i)<br\s*/?>`)
)

// Parse reads flowchart source. Only the statements needed for org charts and
// simple process flows are understood; anything else is reported with its line number.
// Styling statements are skipped and subgraphs are flattened into the parent graph.
func Parse(source string) (*Graph, error) {
	g := &Graph{byID: make(map[string]*Node)}
	headerSeen := false
	depth := 0

	for i, raw := range strings.Split(source, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, "%%") {
			continue
		}

		if !headerSeen {
			m := headerRegex.FindStringSubmatch(line)
			if m == nil {
				return nil, fmt.Errorf("%w (line %d: %q)", ErrNoHeader, i+1, line)
			}
			dir := Direction(m[1])
			if dir == "TD" {
				dir = TopBottom
			}
			g.Direction = dir
			headerSeen = true
			continue
		}

		switch {
		case styleRegex.MatchString(line):
			continue
		case subgraphRegex.MatchString(line):
			depth++
			continue
		case strings.TrimSuffix(line, ";") == "end":
			if depth == 0 {
				return nil, fmt.Errorf("diagram: line %d: end without subgraph", i+1)
			}
			depth--
			continue
		}

		if err := g.parseStatement(strings.TrimSuffix(line, ";")); err != nil {
			return nil, fmt.Errorf("diagram: line %d: %w", i+1, err)
		}
	}

	if !headerSeen {
		return nil, ErrNoHeader
	}
	if depth != 0 {
		return nil, fmt.Errorf("diagram: %d unclosed subgraph(s)", depth)
	}
	if len(g.Nodes) == 0 {
		return nil, ErrEmpty
	}
	return g, nil
}

// parseStatement handles "A", "A[label]" and chains like "A --> B -->|x| C".
func (g *Graph) parseStatement(stmt string) error {
	rest := strings.TrimSpace(stmt)

	from, rest, err := g.parseNode(rest)
	if err != nil {
		return err
	}

	for rest != "" {
		var label string
		if m := edgeRegex.FindStringSubmatch(rest); m != nil {
			label = strings.TrimSpace(m[2])
			rest = strings.TrimSpace(rest[len(m[0]):])
		} else if m := textEdgeRegex.FindStringSubmatch(rest); m != nil {
			label = strings.TrimSpace(m[1])
			rest = strings.TrimSpace(rest[len(m[0]):])
		} else {
			return fmt.Errorf("unexpected %q", rest)
		}

		var to string
		to, rest, err = g.parseNode(rest)
		if err != nil {
			return err
		}
		g.Edges = append(g.Edges, Edge{From: from, To: to, Label: label})
		from = to
	}
	return nil
}

func (g *Graph) parseNode(s string) (string, string, error) {
	m := nodeRegex.FindStringSubmatch(s)
	if m == nil {
		return "", "", fmt.Errorf("expected node at %q", s)
	}
	id := m[1]

	label, shape, hasLabel := "", ShapeBox, false
	switch {
	case m[2] != "":
		label, shape, hasLabel = m[2], ShapeBox, true
	case m[3] != "":
		label, shape, hasLabel = m[3], ShapeCircle, true
	case m[4] != "":
		label, shape, hasLabel = m[4], ShapeRound, true
	case m[5] != "":
		label, shape, hasLabel = m[5], ShapeDecision, true
	}

	n, ok := g.byID[id]
	if !ok {
		n = &Node{ID: id, Label: id}
		g.byID[id] = n
		g.Nodes = append(g.Nodes, n)
	}
	if hasLabel {
		n.Label = cleanLabel(label)
		n.Shape = shape
	}

	rest := strings.TrimSpace(s[len(m[0]):])
	rest = strings.TrimSpace(classRegex.ReplaceAllString(rest, ""))
	return id, rest, nil
}

func cleanLabel(label string) string {
	label = strings.TrimSpace(label)
	label = strings.Trim(label, `"`)
	return breakRegex.ReplaceAllString(label, "\n")
}

// Node looks up a node by id.
func (g *Graph) Node(id string) (*Node, bool) {
	n, ok := g.byID[id]
	return n, ok
}

// Roots returns nodes without incoming edges, in declaration order.
func (g *Graph) Roots() []*Node {
	incoming := make(map[string]bool, len(g.Edges))
	for _, e := range g.Edges {
		incoming[e.To] = true
	}
	var roots []*Node
	for _, n := range g.Nodes {
		if !incoming[n.ID] {
			roots = append(roots, n)
		}
	}
	return roots
}

// Children returns outgoing edges of id in declaration order.
func (g *Graph) Children(id string) []Edge {
	var out []Edge
	for _, e := range g.Edges {
		if e.From == id {
			out = append(out, e)
		}
	}
	return out
}
