package research

import (
	"encoding/json"
	"testing"

	"github.com/OFFIS-RIT/dossier/backend/pkg/common"

	"github.com/stretchr/testify/require"
)

func TestBuildGraph_Idempotent(t *testing.T) {
	entities := []common.Entity{
		{ID: "company-1", Name: "Acme Corp", Type: common.EntityTypeCompany},
		{ID: "person-1", Name: "Jane Doe", Type: common.EntityTypePerson, Description: "CEO"},
		{ID: "company-1", Name: "Acme Corporation", Type: common.EntityTypeCompany},
	}
	relationships := []common.Relationship{
		{Source: "company-1", Target: "person-1", Type: "employs"},
		{Source: "person-1", Target: "company-1", Type: "founded_by"},
	}

	first, err := json.Marshal(BuildGraph("Acme Corp", entities, relationships))
	require.NoError(t, err)
	second, err := json.Marshal(BuildGraph("Acme Corp", entities, relationships))
	require.NoError(t, err)

	require.Equal(t, string(first), string(second))
}

func TestBuildGraph_FirstEntityWins(t *testing.T) {
	graph := BuildGraph("Acme Corp", []common.Entity{
		{ID: "company-1", Name: "Acme Corp", Type: common.EntityTypeCompany, Description: "first"},
		{ID: "company-1", Name: "Acme Holding", Type: common.EntityTypeCompany, Description: "second"},
	}, nil)

	require.Len(t, graph.Nodes, 1)
	require.Equal(t, "first", graph.Nodes[0].Description)
	require.Equal(t, "company", graph.Nodes[0].Type)
}

func TestBuildGraph_RelationshipDedup(t *testing.T) {
	graph := BuildGraph("Acme Corp", nil, []common.Relationship{
		{Source: "a", Target: "b", Type: "employs"},
		{Source: "a", Target: "b", Type: "employs"},
		{Source: "a", Target: "b", Type: "founded_by"},
	})

	require.Len(t, graph.Edges, 2)
	require.Equal(t, "employs", graph.Edges[0].Label)
	require.Equal(t, "founded by", graph.Edges[1].Label)
}

func TestBuildGraph_SyntheticCompanyNode(t *testing.T) {
	tests := []struct {
		name     string
		entities []common.Entity
	}{
		{"no entities", nil},
		{"only people", []common.Entity{{ID: "person-1", Name: "Jane Doe", Type: common.EntityTypePerson}}},
		{"other company", []common.Entity{{ID: "company-1", Name: "Globex", Type: common.EntityTypeCompany}}},
		{"name on non company", []common.Entity{{ID: "product-1", Name: "Acme Corp Rocket", Type: common.EntityTypeProduct}}},
		{"id collision", []common.Entity{{ID: "company-main", Name: "Globex", Type: common.EntityTypeCompany}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			graph := BuildGraph("Acme Corp", tt.entities, nil)

			count := 0
			for _, n := range graph.Nodes {
				if n.ID == "company-main" {
					count++
					require.Equal(t, "Acme Corp", n.Label)
					require.Equal(t, "company", n.Type)
					require.Equal(t, "Main company: Acme Corp", n.Description)
				}
			}
			require.Equal(t, 1, count)
		})
	}
}

func TestBuildGraph_ExistingCompanyNodeIsKept(t *testing.T) {
	graph := BuildGraph("acme corp", []common.Entity{
		{ID: "company-1", Name: "ACME Corp Inc.", Type: common.EntityTypeCompany},
	}, nil)

	require.Len(t, graph.Nodes, 1)
	require.Equal(t, "company-1", graph.Nodes[0].ID)
}

func TestBuildGraph_DoesNotMutateInput(t *testing.T) {
	entities := []common.Entity{
		{ID: "person-1", Name: "Jane Doe", Type: common.EntityTypePerson},
		{ID: "person-1", Name: "Jane Doe", Type: common.EntityTypePerson},
	}
	relationships := []common.Relationship{
		{Source: "a", Target: "b", Type: "employs"},
		{Source: "a", Target: "b", Type: "employs"},
	}

	BuildGraph("Acme Corp", entities, relationships)

	require.Len(t, entities, 2)
	require.Equal(t, common.EntityTypePerson, entities[0].Type)
	require.Len(t, relationships, 2)
}

func TestBuildGraph_EmptySlicesNotNil(t *testing.T) {
	graph := BuildGraph("Acme Corp", nil, nil)
	require.NotNil(t, graph.Edges)

	out, err := json.Marshal(graph)
	require.NoError(t, err)
	require.Contains(t, string(out), `"edges":[]`)
}
