package github

import (
	"fmt"
	"strings"
)

// DefaultQuery is searched when the user typed nothing.
const DefaultQuery = "stars:>1000"

// QueryBuilder composes a repository search string from free text and qualifiers.
type QueryBuilder struct {
	terms []string
}

// NewQueryBuilder creates an empty builder.
func NewQueryBuilder() *QueryBuilder {
	return &QueryBuilder{}
}

// AddTerm appends free text. Blank terms are ignored.
func (qb *QueryBuilder) AddTerm(term string) *QueryBuilder {
	if t := strings.TrimSpace(term); t != "" {
		qb.terms = append(qb.terms, t)
	}
	return qb
}

// Language adds a language:<name> qualifier unless name is empty.
func (qb *QueryBuilder) Language(name string) *QueryBuilder {
	name = strings.TrimSpace(name)
	if name == "" {
		return qb
	}
	if strings.ContainsAny(name, " \t") {
		name = `"` + name + `"`
	}
	qb.terms = append(qb.terms, "language:"+name)
	return qb
}

// MinStars adds a stars:>=<n> qualifier when n > 0.
func (qb *QueryBuilder) MinStars(n int) *QueryBuilder {
	if n > 0 {
		qb.terms = append(qb.terms, fmt.Sprintf("stars:>=%d", n))
	}
	return qb
}

// Build joins the terms with single spaces.
func (qb *QueryBuilder) Build() string {
	return strings.Join(qb.terms, " ")
}

// BuildSearchQuery is the explorer's query: base (or DefaultQuery) plus qualifiers.
func BuildSearchQuery(base, language string, minStars int) string {
	if strings.TrimSpace(base) == "" {
		base = DefaultQuery
	}
	return NewQueryBuilder().
		AddTerm(base).
		Language(language).
		MinStars(minStars).
		Build()
}
