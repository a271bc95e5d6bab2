package graph

import (
	"fmt"
)

// Graph is the ephemeral output of one build.
type Graph struct {
	Nodes []Node `json:"nodes"`
	Links []Link `json:"links"`
	Title string `json:"title"`

	// PreserveRole keeps the central node coloured like the tag it was
	// entered from.
	PreserveRole bool `json:"preserveRole"`
}

// Node returns the node with the given id.
func (g Graph) Node(id string) (Node, bool) {
	for _, n := range g.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return Node{}, false
}

// Central returns the focal node.
func (g Graph) Central() (Node, bool) {
	for _, n := range g.Nodes {
		if n.IsCentral {
			return n, true
		}
	}
	return Node{}, false
}

// Context returns the provenance node, if any.
func (g Graph) Context() (Node, bool) {
	for _, n := range g.Nodes {
		if n.IsContext {
			return n, true
		}
	}
	return Node{}, false
}

// IsEmpty reports whether nothing has been built yet.
func (g Graph) IsEmpty() bool {
	return len(g.Nodes) == 0
}

// NodeIDs returns ids in node order.
func (g Graph) NodeIDs() []string {
	ids := make([]string, 0, len(g.Nodes))
	for _, n := range g.Nodes {
		ids = append(ids, n.ID)
	}
	return ids
}

// Validate checks the structural invariants every built graph must hold:
// unique node ids, exactly one central node, at most one context node, and
// no link endpoint outside the node set.
func (g Graph) Validate() error {
	seen := make(map[string]struct{}, len(g.Nodes))
	central, context := 0, 0
	for _, n := range g.Nodes {
		if n.ID == "" {
			return fmt.Errorf("node with label %q has no id", n.Label)
		}
		if _, dup := seen[n.ID]; dup {
			return fmt.Errorf("duplicate node id %q", n.ID)
		}
		seen[n.ID] = struct{}{}
		if !n.Kind.Valid() {
			return fmt.Errorf("node %q has unknown kind %q", n.ID, n.Kind)
		}
		if n.IsCentral {
			central++
		}
		if n.IsContext {
			context++
		}
	}
	if central != 1 {
		return fmt.Errorf("graph has %d central nodes, want exactly 1", central)
	}
	if context > 1 {
		return fmt.Errorf("graph has %d context nodes, want at most 1", context)
	}
	for _, l := range g.Links {
		if _, ok := seen[l.Source]; !ok {
			return fmt.Errorf("link source %q is not in the node set", l.Source)
		}
		if _, ok := seen[l.Target]; !ok {
			return fmt.Errorf("link target %q is not in the node set", l.Target)
		}
	}
	return nil
}
