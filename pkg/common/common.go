package common

// EntityType classifies an extracted entity. The vocabulary is closed: anything
// a model returns outside of it is coerced to EntityTypeOther.
type EntityType string

const (
	EntityTypeCompany  EntityType = "Company"
	EntityTypePerson   EntityType = "Person"
	EntityTypeProduct  EntityType = "Product"
	EntityTypeLocation EntityType = "Location"
	EntityTypeEvent    EntityType = "Event"
	EntityTypeOther    EntityType = "Other"
)

// EntityTypes lists the allowed entity types in prompt order.
var EntityTypes = []EntityType{
	EntityTypeCompany,
	EntityTypePerson,
	EntityTypeProduct,
	EntityTypeLocation,
	EntityTypeEvent,
	EntityTypeOther,
}

// Entity represents a fact-bearing node extracted from search findings, such
// as a company, an executive or a product.
//
// IDs are assigned by the extraction model. They are stable within a single
// extraction call but are not guaranteed to be unique across calls.
type Entity struct {
	ID          string         `json:"id" validate:"required" jsonschema_description:"Unique ID within this response, e.g. company-1 or person-2"`
	Name        string         `json:"name" validate:"required" jsonschema_description:"Entity name"`
	Type        EntityType     `json:"type" jsonschema_description:"One of Company, Person, Product, Location, Event, Other"`
	Description string         `json:"description,omitempty" jsonschema_description:"Brief description"`
	URL         string         `json:"url,omitempty" jsonschema_description:"URL if available"`
	Properties  map[string]any `json:"properties,omitempty" jsonschema_description:"Additional properties if any"`
}

// Relationship is a directed edge between two entities, referenced by ID.
type Relationship struct {
	Source     string         `json:"source" validate:"required" jsonschema_description:"ID of the source entity"`
	Target     string         `json:"target" validate:"required" jsonschema_description:"ID of the target entity"`
	Type       string         `json:"type" validate:"required" jsonschema_description:"Relationship type, e.g. employs, subsidiary_of, founded_by, offers, located_in, competitor_of"`
	Properties map[string]any `json:"properties,omitempty" jsonschema_description:"Additional properties if any"`
}

// Extraction is the structured result of one extraction call.
type Extraction struct {
	Entities      []Entity       `json:"entities" jsonschema_description:"Entities identified in the search results"`
	Relationships []Relationship `json:"relationships" jsonschema_description:"Relationships between the identified entities"`
}

// Citation is a grounding reference attached by the generation backend.
type Citation struct {
	URI   string `json:"uri"`
	Title string `json:"title"`
}

// SearchFinding is the raw result of a single search query: free text plus the
// citations and the rendered search entry point the backend attached to it.
type SearchFinding struct {
	Query      string     `json:"query"`
	Text       string     `json:"text"`
	Citations  []Citation `json:"citations"`
	EntryPoint string     `json:"searchEntryPoint,omitempty"`
}

// GraphNode is the display projection of an Entity.
type GraphNode struct {
	ID          string `json:"id"`
	Label       string `json:"label"`
	Type        string `json:"type"`
	Description string `json:"description,omitempty"`
	URL         string `json:"url,omitempty"`
}

// GraphEdge is the display projection of a Relationship. Label is the
// relationship type with underscores replaced by spaces.
type GraphEdge struct {
	Source string `json:"source"`
	Target string `json:"target"`
	Type   string `json:"type"`
	Label  string `json:"label"`
}

// KnowledgeGraph is the deduplicated, display-ready graph of a research run.
// Nodes are unique by ID and edges are unique by (Source, Target, Type).
type KnowledgeGraph struct {
	Nodes []GraphNode `json:"nodes"`
	Edges []GraphEdge `json:"edges"`
}

// EntityItem is a categorized display item produced by the summary stage.
type EntityItem struct {
	ID          string `json:"id,omitempty"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	URL         string `json:"url,omitempty"`
	Type        string `json:"type,omitempty"`
}

// CompanyData is the final result of a research run. Every field has a
// defined value, even when the pipeline degraded.
type CompanyData struct {
	CompanyName       string                  `json:"companyName"`
	Summary           string                  `json:"summary"`
	Entities          map[string][]EntityItem `json:"entities"`
	RedFlags          []string                `json:"redFlags"`
	Sources           []Citation              `json:"sources"`
	SearchEntryPoints []string                `json:"searchEntryPoints"`
	KnowledgeGraph    KnowledgeGraph          `json:"knowledgeGraph"`
}
