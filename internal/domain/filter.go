package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// SortKey is the ordering requested from the search API.
// Sorting is always done upstream, never locally.
type SortKey string

const (
	SortStars   SortKey = "stars"
	SortForks   SortKey = "forks"
	SortUpdated SortKey = "updated"
)

// LanguageAll is the UI value meaning "no language filter".
const LanguageAll = "All"

// DefaultMinStars is the star threshold a fresh explorer session starts with.
const DefaultMinStars = 1000

// ParseSortKey accepts the three supported keys (case-insensitive).
// An empty string yields SortStars.
func ParseSortKey(s string) (SortKey, error) {
	switch SortKey(strings.ToLower(strings.TrimSpace(s))) {
	case "", SortStars:
		return SortStars, nil
	case SortForks:
		return SortForks, nil
	case SortUpdated:
		return SortUpdated, nil
	default:
		return "", fmt.Errorf("unsupported sort key %q", s)
	}
}

// FilterCriteria controls which repositories the explorer displays.
// Transient: owned by a view session and never persisted.
type FilterCriteria struct {
	SortBy   SortKey `json:"sort_by"`
	Language string  `json:"language"`
	MinStars int     `json:"min_stars"`
}

// DefaultFilterCriteria mirrors the explorer's initial state.
func DefaultFilterCriteria() FilterCriteria {
	return FilterCriteria{
		SortBy:   SortStars,
		Language: "",
		MinStars: DefaultMinStars,
	}
}

// Normalize clears "All", trims the language and clamps MinStars to >= 0.
func (c FilterCriteria) Normalize() FilterCriteria {
	c.Language = strings.TrimSpace(c.Language)
	if strings.EqualFold(c.Language, LanguageAll) {
		c.Language = ""
	}
	if c.MinStars < 0 {
		c.MinStars = 0
	}
	if c.SortBy == "" {
		c.SortBy = SortStars
	}
	return c
}

// Matches reports whether repo passes the language and star filters.
// Language is an exact comparison; MinStars is inclusive.
func (c FilterCriteria) Matches(repo Repository) bool {
	if c.Language != "" && repo.Language != c.Language {
		return false
	}
	return repo.StargazersCount >= c.MinStars
}

// ParseMinStars converts user input to a threshold; anything unparsable is 0.
func ParseMinStars(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 0 {
		return 0
	}
	return n
}
