// Package resolve maps loosely typed names to identifiers: endpoint keys for
// "lark call" and group names to chat IDs.
package resolve

import (
	"errors"
	"fmt"
	"strings"

	"github.com/sahilm/fuzzy"
)

// ambiguityCap bounds the candidates an AmbiguousError carries.
const ambiguityCap = 5

var (
	ErrEmptyQuery = errors.New("empty search query")
	ErrEmptyItems = errors.New("no items to match against")
)

// Named is a candidate: what the user types against and what it stands for.
type Named struct {
	ID   string
	Name string
}

// Match is a ranked candidate.
type Match struct {
	ID    string
	Name  string
	Score int
}

// AmbiguousError lists the best candidates when no single one wins.
type AmbiguousError struct {
	Query   string
	Matches []Match
}

func (e *AmbiguousError) Error() string {
	lines := []string{fmt.Sprintf("ambiguous match for %q", e.Query)}
	if len(e.Matches) > 0 {
		lines[0] += ", candidates:"
	}
	for _, m := range e.Matches {
		if m.ID == m.Name {
			lines = append(lines, "  "+m.ID)
		} else {
			lines = append(lines, "  "+m.ID+": "+m.Name)
		}
	}
	return strings.Join(lines, "\n")
}

// lowered lets fuzzy match case-insensitively.
type lowered []Named

func (l lowered) String(i int) string { return strings.ToLower(l[i].Name) }
func (l lowered) Len() int            { return len(l) }

// Best returns the ID of the item query names. A case-insensitive exact
// name wins outright; otherwise the top fuzzy match wins unless the runner
// up ties it, which is an *AmbiguousError.
func Best(query string, items []Named) (string, error) {
	query = strings.TrimSpace(query)
	switch {
	case query == "":
		return "", ErrEmptyQuery
	case len(items) == 0:
		return "", ErrEmptyItems
	}
	for _, it := range items {
		if strings.EqualFold(it.Name, query) {
			return it.ID, nil
		}
	}

	found := fuzzy.FindFrom(strings.ToLower(query), lowered(items))
	switch {
	case len(found) == 0:
		return "", fmt.Errorf("no match found for %q", query)
	case len(found) > 1 && found[0].Score == found[1].Score:
		return "", &AmbiguousError{Query: query, Matches: toMatches(items, found, ambiguityCap)}
	}
	return items[found[0].Index].ID, nil
}

// Rank returns up to limit fuzzy matches, best first.
func Rank(query string, items []Named, limit int) []Match {
	query = strings.TrimSpace(query)
	if query == "" || limit <= 0 {
		return nil
	}
	return toMatches(items, fuzzy.FindFrom(strings.ToLower(query), lowered(items)), limit)
}

func toMatches(items []Named, found fuzzy.Matches, limit int) []Match {
	if len(found) > limit {
		found = found[:limit]
	}
	var out []Match
	for _, f := range found {
		it := items[f.Index]
		out = append(out, Match{ID: it.ID, Name: it.Name, Score: f.Score})
	}
	return out
}
