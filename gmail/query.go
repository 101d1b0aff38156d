package gmail

import (
	"fmt"
	"strings"
)

const (
	DefaultMaxResults int64 = 10
	MaxResultsLimit   int64 = 500
)

// Query selects the messages to retrieve. Empty fields are not constrained.
type Query struct {
	From       string
	Label      string
	Subject    string
	Body       string // free text, passed through verbatim
	MaxResults int64
}

// String renders the query in Gmail search syntax, or "" when nothing is set.
func (q Query) String() string {
	var terms []string
	if q.From != "" {
		terms = append(terms, fmt.Sprintf(`from:"%s"`, q.From))
	}
	if q.Label != "" {
		terms = append(terms, fmt.Sprintf(`label:"%s"`, q.Label))
	}
	if q.Subject != "" {
		terms = append(terms, fmt.Sprintf(`subject:"%s"`, q.Subject))
	}
	if b := strings.TrimSpace(q.Body); b != "" {
		terms = append(terms, b)
	}
	return strings.Join(terms, " ")
}

// Display is String with "All mail" standing in for the empty query.
func (q Query) Display() string {
	if s := q.String(); s != "" {
		return s
	}
	return "All mail"
}

// Limit clamps MaxResults to what the API accepts.
func (q Query) Limit() int64 {
	switch {
	case q.MaxResults <= 0:
		return DefaultMaxResults
	case q.MaxResults > MaxResultsLimit:
		return MaxResultsLimit
	default:
		return q.MaxResults
	}
}
