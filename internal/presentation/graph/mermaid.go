package graph

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/aretw0/panelstate/pkg/domain"
)

// Overlay marks paths of the tree to highlight.
type Overlay struct {
	// Changed holds dotted paths, as produced by domain.Flatten over a patch.
	Changed []string
}

// GenerateMermaid produces a Mermaid flowchart of a tree.
// It applies semantic styling:
// - Map: [Rectangle]
// - List: [[Subroutine]]
// - Scalar leaf: ([Stadium]) labelled key: value
// Edges carry the key or index. Paths in the overlay, and the branches that
// lead to them, get the "changed" class.
func GenerateMermaid(root *domain.Tree, label string, overlay *Overlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")
	if root == nil {
		return sb.String()
	}

	g := &generator{sb: &sb, changed: map[string]bool{}}
	if overlay != nil {
		for _, p := range overlay.Changed {
			g.markChanged(p)
		}
	}
	if label == "" {
		label = "state"
	}
	g.node(root, "", label)

	if len(g.styled) > 0 {
		sb.WriteString("\n    %% Overlay Styles\n")
		sb.WriteString("    classDef changed fill:#ffeb3b,stroke:#fbc02d,stroke-width:2px,color:#000;\n")
		fmt.Fprintf(&sb, "    class %s changed;\n", strings.Join(g.styled, ","))
	}
	return sb.String()
}

type generator struct {
	sb      *strings.Builder
	next    int
	changed map[string]bool
	styled  []string
}

// markChanged flags p and every ancestor of p.
func (g *generator) markChanged(p string) {
	g.changed[p] = true
	for i := len(p) - 1; i >= 0; i-- {
		if p[i] == '.' {
			g.changed[p[:i]] = true
		}
	}
	g.changed[""] = true
}

// node writes t and its subtree, returning the mermaid id of t.
func (g *generator) node(t *domain.Tree, path, label string) string {
	id := "n" + strconv.Itoa(g.next)
	g.next++

	switch t.Kind {
	case domain.MapKind:
		fmt.Fprintf(g.sb, "    %s[\"%s\"]\n", id, escape(label))
		for i, k := range t.Keys {
			g.edge(id, t.Values[i], join(path, k), k)
		}
	case domain.ListKind:
		fmt.Fprintf(g.sb, "    %s[[\"%s\"]]\n", id, escape(label))
		for i, v := range t.Values {
			k := strconv.Itoa(i)
			g.edge(id, v, join(path, k), k)
		}
	default:
		value, _ := json.Marshal(t)
		fmt.Fprintf(g.sb, "    %s([\"%s: %s\"])\n", id, escape(label), escape(string(value)))
	}

	if g.changed[path] {
		g.styled = append(g.styled, id)
	}
	return id
}

func (g *generator) edge(from string, child *domain.Tree, path, key string) {
	to := g.node(child, path, key)
	fmt.Fprintf(g.sb, "    %s --> %s\n", from, to)
}

func join(path, key string) string {
	if path == "" {
		return key
	}
	return path + "." + key
}

// escape makes s safe inside a quoted Mermaid label.
func escape(s string) string {
	return strings.ReplaceAll(s, "\"", "#quot;")
}
