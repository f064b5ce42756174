package research

import (
	"fmt"
	"strings"

	"github.com/OFFIS-RIT/dossier/backend/pkg/common"
)

type relationshipKey struct {
	source, target, typ string
}

// BuildGraph deduplicates entities by ID and relationships by
// (source, target, type), first occurrence wins, and projects them into a
// display graph. The graph always contains a company node whose label
// mentions company; if extraction produced none a synthetic node with ID
// "company-main" is added. The inputs are not modified.
func BuildGraph(company string, entities []common.Entity, relationships []common.Relationship) common.KnowledgeGraph {
	graph := common.KnowledgeGraph{
		Nodes: make([]common.GraphNode, 0, len(entities)+1),
		Edges: make([]common.GraphEdge, 0, len(relationships)),
	}

	seenNodes := make(map[string]struct{}, len(entities))
	for _, e := range entities {
		if _, ok := seenNodes[e.ID]; ok {
			continue
		}
		seenNodes[e.ID] = struct{}{}
		graph.Nodes = append(graph.Nodes, common.GraphNode{
			ID:          e.ID,
			Label:       e.Name,
			Type:        strings.ToLower(string(e.Type)),
			Description: e.Description,
			URL:         e.URL,
		})
	}

	seenEdges := make(map[relationshipKey]struct{}, len(relationships))
	for _, r := range relationships {
		k := relationshipKey{r.Source, r.Target, r.Type}
		if _, ok := seenEdges[k]; ok {
			continue
		}
		seenEdges[k] = struct{}{}
		graph.Edges = append(graph.Edges, common.GraphEdge{
			Source: r.Source,
			Target: r.Target,
			Type:   r.Type,
			Label:  strings.ReplaceAll(r.Type, "_", " "),
		})
	}

	if hasCompanyNode(graph.Nodes, company) {
		return graph
	}

	main := common.GraphNode{
		ID:          mainCompanyID,
		Label:       company,
		Type:        "company",
		Description: fmt.Sprintf("Main company: %s", company),
	}
	for i := range graph.Nodes {
		if graph.Nodes[i].ID == mainCompanyID {
			graph.Nodes[i] = main
			return graph
		}
	}
	graph.Nodes = append(graph.Nodes, main)
	return graph
}

func hasCompanyNode(nodes []common.GraphNode, company string) bool {
	name := strings.ToLower(company)
	for _, n := range nodes {
		if n.Type == "company" && strings.Contains(strings.ToLower(n.Label), name) {
			return true
		}
	}
	return false
}
