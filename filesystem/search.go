package filesystem

import (
	"fmt"
	"regexp"
	"strings"
)

// SearchMode selects how a query is matched against node names
type SearchMode string

const (
	// SearchRegex matches names that the query regexp matches in full
	SearchRegex SearchMode = "regex"
	// SearchContains matches names containing the query
	SearchContains SearchMode = "contains"
	// SearchContainsFold is SearchContains ignoring case
	SearchContainsFold SearchMode = "contains-fold"
)

// Search returns every node beneath root whose name matches query, in
// traversal order. root itself is never part of the result.
func Search(root *Directory, query string, mode SearchMode) ([]Node, error) {
	var match func(string) bool
	switch mode {
	case SearchRegex:
		re, err := regexp.Compile(`^(?:` + query + `)$`)
		if err != nil {
			return nil, fmt.Errorf("invalid search pattern: %w", err)
		}
		match = re.MatchString
	case SearchContains:
		match = func(name string) bool { return strings.Contains(name, query) }
	case SearchContainsFold:
		q := strings.ToLower(query)
		match = func(name string) bool { return strings.Contains(strings.ToLower(name), q) }
	default:
		return nil, fmt.Errorf("unknown search mode %q", mode)
	}

	var found []Node
	Walk(root, func(n Node) {
		if n != Node(root) && match(n.Name()) {
			found = append(found, n)
		}
	})
	return found, nil
}
