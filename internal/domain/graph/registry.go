package graph

// Registry enforces one node per logical id within a single build. A fresh
// Registry is used for every build; nothing carries across builds except the
// determinism of the ids themselves.
type Registry struct {
	index map[string]int
	nodes []Node
	links []Link
	seen  map[Link]struct{}
}

// NewRegistry creates an empty identity map.
func NewRegistry() *Registry {
	return &Registry{
		index: make(map[string]int),
		seen:  make(map[Link]struct{}),
	}
}

// Add inserts n unless a node with the same id already exists, in which case
// the first instance is returned untouched. The boolean reports whether n was
// inserted.
func (r *Registry) Add(n Node) (Node, bool) {
	if i, ok := r.index[n.ID]; ok {
		return r.nodes[i], false
	}
	r.index[n.ID] = len(r.nodes)
	r.nodes = append(r.nodes, n)
	return n, true
}

// Has reports whether id is registered.
func (r *Registry) Has(id string) bool {
	_, ok := r.index[id]
	return ok
}

// Link records source -> target. Links with an unknown endpoint, self links
// and repeats are dropped, so a registry can never emit a dangling link.
func (r *Registry) Link(source, target string) bool {
	if source == target || !r.Has(source) || !r.Has(target) {
		return false
	}
	l := Link{Source: source, Target: target}
	if _, dup := r.seen[l]; dup {
		return false
	}
	r.seen[l] = struct{}{}
	r.links = append(r.links, l)
	return true
}

// Len returns the number of registered nodes.
func (r *Registry) Len() int {
	return len(r.nodes)
}

// Graph snapshots the registry into a Graph in insertion order.
func (r *Registry) Graph(title string) Graph {
	nodes := make([]Node, len(r.nodes))
	copy(nodes, r.nodes)
	links := make([]Link, len(r.links))
	copy(links, r.links)
	return Graph{Nodes: nodes, Links: links, Title: title}
}
