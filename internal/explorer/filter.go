package explorer

import (
	"github.com/MrSnakeDoc/shelf/internal/domain"
	"github.com/MrSnakeDoc/shelf/internal/github"
)

// Apply returns the repositories that pass criteria, in their original order.
// Results arrive already sorted by the search API, so nothing is re-sorted here.
func Apply(repos []domain.Repository, criteria domain.FilterCriteria) []domain.Repository {
	c := criteria.Normalize()
	out := make([]domain.Repository, 0, len(repos))
	for _, r := range repos {
		if c.Matches(r) {
			out = append(out, r)
		}
	}
	return out
}

// Query is the search string sent upstream for base and criteria.
func Query(base string, criteria domain.FilterCriteria) string {
	c := criteria.Normalize()
	return github.BuildSearchQuery(base, c.Language, c.MinStars)
}
