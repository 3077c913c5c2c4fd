package domain

// GraphNode is a single company vertex in the forum graph.
type GraphNode struct {
	ID      string   `json:"id"`
	Label   string   `json:"label"`
	Domains []string `json:"domains"`
}

// GraphEdge links two agents that share at least one domain tag.
type GraphEdge struct {
	Source string `json:"source"`
	Target string `json:"target"`
	Label  string `json:"label"`
}

// GraphData is the node/edge view of the stored agents, one node per agent.
type GraphData struct {
	Nodes []GraphNode `json:"nodes"`
	Edges []GraphEdge `json:"edges"`
}
