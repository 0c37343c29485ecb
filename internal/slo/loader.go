package slo

import (
	"fmt"
	"log"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// wrappedDefinitions is the alternate top-level shape: the definitions
// list nested under a recognized key, kept for forward compatibility
// with newer definitions files.
type wrappedDefinitions struct {
	Signals []yaml.Node `yaml:"signals"`
}

// ReadSource resolves a Source to raw bytes. Inline content wins over a
// file path; a Source with neither is a configuration error.
func ReadSource(source Source) ([]byte, string, error) {
	if source.Content != "" {
		return []byte(source.Content), "<inline>", nil
	}
	if source.Path == "" {
		return nil, "", fmt.Errorf("definitions source is empty: no inline content and no path")
	}
	data, err := os.ReadFile(source.Path)
	if err != nil {
		return nil, "", fmt.Errorf("read definitions file: %w", err)
	}
	return data, source.Path, nil
}

// Load parses and normalizes SLO definitions from a source.
//
// Both a bare top-level list of entries and an object wrapping the list
// under a "signals" key are accepted. Entries that are malformed or
// missing expr or severity are dropped with a warning. A top-level
// shape that is neither form is a fatal configuration error.
func Load(source Source) ([]Definition, error) {
	data, origin, err := ReadSource(source)
	if err != nil {
		return nil, err
	}

	entries, err := parseEntries(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", origin, err)
	}

	return normalize(entries, origin), nil
}

// parseEntries decodes the two accepted top-level shapes, leaving the
// list entries undecoded so one bad entry cannot fail the whole file.
func parseEntries(data []byte) ([]yaml.Node, error) {
	var list []yaml.Node
	listErr := yaml.Unmarshal(data, &list)
	if listErr == nil {
		return list, nil
	}

	var wrapped wrappedDefinitions
	if err := yaml.Unmarshal(data, &wrapped); err == nil && wrapped.Signals != nil {
		return wrapped.Signals, nil
	}

	return nil, fmt.Errorf("definitions must be a list of {expr, severity} objects or an object with a signals list: %w", listErr)
}

// normalize decodes entries, assigns stable names and drops invalid
// ones. Names come from the description when present, otherwise a
// positional fallback keyed on the raw index so names stay stable when
// invalid entries are dropped around them.
func normalize(entries []yaml.Node, origin string) []Definition {
	defs := make([]Definition, 0, len(entries))
	for i, node := range entries {
		var entry rawDefinition
		if err := node.Decode(&entry); err != nil {
			log.Printf("slo: skipping malformed definition at index %d in %s: %v", i, origin, err)
			continue
		}
		if entry.Expr == "" || entry.Severity == "" {
			log.Printf("slo: skipping invalid definition at index %d in %s (expr and severity are required)", i, origin)
			continue
		}
		name := entry.Description
		if name == "" {
			name = fmt.Sprintf("slo_%d", i)
		}
		defs = append(defs, Definition{
			Name:     name,
			Expr:     entry.Expr,
			Severity: strings.ToLower(entry.Severity),
		})
	}
	return defs
}
