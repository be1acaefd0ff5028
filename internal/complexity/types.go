package complexity

// ResourceKind classifies a URL or path found in goal text
type ResourceKind string

const (
	ResourceAPI     ResourceKind = "api"
	ResourceWeb     ResourceKind = "web"
	ResourceFile    ResourceKind = "file"
	ResourceUnknown ResourceKind = "unknown"
)

// ActionCategory is the semantic class of a detected action verb
type ActionCategory string

const (
	ActionRetrieval     ActionCategory = "retrieval"
	ActionCreation      ActionCategory = "creation"
	ActionCommunication ActionCategory = "communication"
	ActionAnalysis      ActionCategory = "analysis"
	ActionModification  ActionCategory = "modification"
	ActionDeletion      ActionCategory = "deletion"
	ActionExecution     ActionCategory = "execution"
)

// ToolIndicator is one inferred tool category with its accumulated confidence
type ToolIndicator struct {
	Category       string   `json:"category" yaml:"category"`
	Confidence     float64  `json:"confidence" yaml:"confidence"`
	SuggestedTools []string `json:"suggested_tools" yaml:"suggested_tools"`
	Keywords       []string `json:"keywords" yaml:"keywords"`
}

// ResourceReference is a URL, file path or API path found in the goal
type ResourceReference struct {
	Reference            string       `json:"reference" yaml:"reference"`
	Kind                 ResourceKind `json:"kind" yaml:"kind"`
	RequiresExternalTool bool         `json:"requires_external_tool" yaml:"requires_external_tool"`
	SuggestedAction      string       `json:"suggested_action" yaml:"suggested_action"`
}

// ActionPattern is a detected action verb. Patterns are keyed by (Verb, Category).
type ActionPattern struct {
	Verb        string         `json:"verb" yaml:"verb"`
	Occurrences int            `json:"occurrences" yaml:"occurrences"`
	Category    ActionCategory `json:"category" yaml:"category"`
	Priority    int            `json:"priority" yaml:"priority"`
}

// ComplexityFactors are the raw counts feeding the score and the sub-task estimate
type ComplexityFactors struct {
	Questions         int `json:"questions" yaml:"questions"`
	SequentialTasks   int `json:"sequential_tasks" yaml:"sequential_tasks"`
	Actions           int `json:"actions" yaml:"actions"`
	Tools             int `json:"tools" yaml:"tools"`
	DataProcessing    int `json:"data_processing" yaml:"data_processing"`
	ExternalResources int `json:"external_resources" yaml:"external_resources"`
}

// ComplexityResult is the assessment returned for a single goal
type ComplexityResult struct {
	IsComplex             bool                `json:"is_complex" yaml:"is_complex"`
	EstimatedSubTasks     int                 `json:"estimated_subtasks" yaml:"estimated_subtasks"`
	RequiresDecomposition bool                `json:"requires_decomposition" yaml:"requires_decomposition"`
	Confidence            float64             `json:"confidence" yaml:"confidence"`
	Tools                 []ToolIndicator     `json:"tools" yaml:"tools"`
	Resources             []ResourceReference `json:"resources" yaml:"resources"`
	Actions               []ActionPattern     `json:"actions" yaml:"actions"`
	Factors               ComplexityFactors   `json:"factors" yaml:"factors"`
}

// Analyzer is implemented by every goal analyzer. Implementations must be safe
// for concurrent use and must return a result for any input string.
type Analyzer interface {
	// Name identifies the implementation in logs and metrics
	Name() string

	// Analyze assesses the goal text
	Analyze(goal string) *ComplexityResult
}
