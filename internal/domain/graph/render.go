package graph

// Semantic colour roles consumed by the render surface. Concrete colours are
// the renderer's business.
const (
	ColorCentralTrack = "central-track"
	ColorCentralGenre = "central-genre"
	ColorCentralTag   = "central-tag"
	ColorContext      = "context"
	ColorTag          = "tag"
	ColorGenre        = "genre"
	ColorPlaceholder  = "placeholder"
)

// RenderNode is a node plus the hints a force-layout renderer needs.
type RenderNode struct {
	Node
	Size  int    `json:"size"`
	Color string `json:"color"`
}

// RenderGraph is the payload handed to the render surface.
type RenderGraph struct {
	Nodes []RenderNode `json:"nodes"`
	Links []Link       `json:"links"`
	Title string       `json:"title"`
}

// SizeHint derives a radius hint from centrality, provenance and kind.
func SizeHint(n Node) int {
	switch {
	case n.IsCentral && n.Kind == KindTrack:
		return 28
	case n.IsCentral:
		return 24
	case n.IsContext:
		return 14
	case n.Kind == KindTrack:
		return 18
	default:
		return 10
	}
}

// ColorHint derives the colour role of n. preserveRole keeps a focused tag
// coloured as a tag.
func ColorHint(n Node, preserveRole bool) string {
	switch {
	case n.IsContext:
		return ColorContext
	case n.IsCentral && n.Kind == KindTrack:
		return ColorCentralTrack
	case n.IsCentral && preserveRole:
		return ColorCentralTag
	case n.IsPlaceholder:
		return ColorPlaceholder
	case n.IsCentral:
		return ColorCentralGenre
	case n.Kind == KindTag:
		return ColorTag
	default:
		return ColorGenre
	}
}

// Render attaches size and colour hints to every node.
func (g Graph) Render() RenderGraph {
	nodes := make([]RenderNode, 0, len(g.Nodes))
	for _, n := range g.Nodes {
		nodes = append(nodes, RenderNode{
			Node:  n,
			Size:  SizeHint(n),
			Color: ColorHint(n, g.PreserveRole),
		})
	}
	links := g.Links
	if links == nil {
		links = []Link{}
	}
	return RenderGraph{Nodes: nodes, Links: links, Title: g.Title}
}
