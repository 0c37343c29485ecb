package slo

// Definition is a normalized SLO declaration. Expr is a query-language
// expression encoding the failure condition (any sample > 0 means the
// objective was violated); Severity controls the weight the SLO carries
// when scored.
type Definition struct {
	Name     string `json:"name" yaml:"name"`
	Expr     string `json:"expr" yaml:"expr"`
	Severity string `json:"severity" yaml:"severity"`
}

// rawDefinition is the wire form of a single entry in a definitions source.
type rawDefinition struct {
	Expr        string `yaml:"expr"`
	Severity    string `yaml:"severity"`
	Description string `yaml:"description,omitempty"`
}

// Source identifies where definitions come from. Inline Content takes
// precedence over Path when both are set.
type Source struct {
	Content string
	Path    string
}

// ValidationError represents a validation error for a definitions source
type ValidationError struct {
	Source  string
	Path    string
	Message string
}

// Error implements the error interface
func (e ValidationError) Error() string {
	if e.Path != "" {
		return e.Source + ": " + e.Path + ": " + e.Message
	}
	return e.Source + ": " + e.Message
}

// SeveritiesByName returns the severity lookup used by the score
// calculator, keyed by normalized definition name.
func SeveritiesByName(defs []Definition) map[string]string {
	out := make(map[string]string, len(defs))
	for _, d := range defs {
		out[d.Name] = d.Severity
	}
	return out
}
