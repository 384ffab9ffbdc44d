package client

// Ref is a {name, id} pair for a concept or a field of study.
type Ref struct {
	Name string `json:"name"`
	ID   int64  `json:"id"`
}

// Article is an article record with its flattened graph.
type Article struct {
	ArticleID     string `json:"articleID"`
	Title         string `json:"title"`
	Content       string `json:"content"`
	SourceLink    string `json:"sourceLink"`
	Concepts      []Ref  `json:"concepts"`
	FieldsOfStudy []Ref  `json:"fieldsOfStudy"`
}

// ConceptMap carries an article's diagram source.
type ConceptMap struct {
	DiagramSource string `json:"diagramSource"`
}

// SearchMode selects exact or case-insensitive substring matching.
type SearchMode string

// Search modes.
const (
	SearchExact   SearchMode = "exact"
	SearchSimilar SearchMode = "similar"
)

// HealthResponse is returned by GET /api/v1/health.
type HealthResponse struct {
	Status        string  `json:"status"`
	Version       string  `json:"version"`
	Database      string  `json:"database"`
	UptimeSeconds float64 `json:"uptime_seconds"`
}

// ReadinessResponse is returned by GET /api/v1/ready.
type ReadinessResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// StatsResponse is returned by GET /api/v1/stats.
type StatsResponse struct {
	Articles      int64 `json:"articles"`
	Concepts      int64 `json:"concepts"`
	Fields        int64 `json:"fields"`
	Relationships int64 `json:"relationships"`
}
