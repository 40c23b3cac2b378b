package domain

// Chapter is a self-contained bundle of variable declarations and a node
// graph, loadable into a running session.
type Chapter struct {
	Info      ChapterInfo            `json:"chapter" yaml:"chapter"`
	Variables map[string]VariableDef `json:"variables" yaml:"variables"`
	Nodes     []Node                 `json:"nodes" yaml:"nodes"`

	// Metadata is informational only; the engine never consults it.
	Metadata *ChapterMetadata `json:"metadata,omitempty" yaml:"metadata,omitempty"`
}

// EntryNodeID returns the id of the chapter's first node, the node a
// session (or a chapter extension) starts at.
func (c *Chapter) EntryNodeID() string {
	if len(c.Nodes) == 0 {
		return ""
	}
	return c.Nodes[0].ID
}

// ChapterInfo describes the chapter to the presentation boundary.
type ChapterInfo struct {
	ID               string `json:"id" yaml:"id"`
	Title            string `json:"title" yaml:"title"`
	Subtitle         string `json:"subtitle,omitempty" yaml:"subtitle,omitempty"`
	EstimatedMinutes int    `json:"estimatedMinutes" yaml:"estimatedMinutes"`
	Description      string `json:"description,omitempty" yaml:"description,omitempty"`
}

// VariableDef declares a variable: its value kind, optional enumeration of
// allowed values, and a default. A nil Default means "no default" and the
// variable is absent until collected or derived.
type VariableDef struct {
	Type        string   `json:"type" yaml:"type"`
	Default     any      `json:"default" yaml:"default"`
	Enum        []string `json:"enum,omitempty" yaml:"enum,omitempty"`
	Description string   `json:"description,omitempty" yaml:"description,omitempty"`
}

// ChapterMetadata carries authoring bookkeeping.
type ChapterMetadata struct {
	Version           string   `json:"version" yaml:"version"`
	Created           string   `json:"created" yaml:"created"`
	Author            string   `json:"author" yaml:"author"`
	TotalNodes        int      `json:"totalNodes" yaml:"totalNodes"`
	EstimatedBranches int      `json:"estimatedBranches" yaml:"estimatedBranches"`
	RequiredVariables []string `json:"requiredVariables,omitempty" yaml:"requiredVariables,omitempty"`
}
