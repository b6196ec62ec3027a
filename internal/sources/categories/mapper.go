package categories

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/MrSnakeDoc/shelf/internal/domain"
)

// Mapper converts categories.yaml entries to domain.Category
type Mapper struct{}

// NewMapper creates a new mapper instance
func NewMapper() *Mapper {
	return &Mapper{}
}

// MapCategories converts the config to categories.
// Entries without a name are skipped; a missing slug is derived from the name;
// the first entry wins when two share a slug.
func (m *Mapper) MapCategories(config Config) ([]domain.Category, error) {
	var out []domain.Category
	seen := make(map[string]bool)

	for _, props := range config.Categories {
		name := strings.TrimSpace(props.Name)
		if name == "" {
			continue
		}

		slug := strings.TrimSpace(props.Slug)
		if slug == "" {
			slug = domain.Slugify(name)
		}
		if slug == "" || seen[slug] {
			continue
		}
		seen[slug] = true

		out = append(out, domain.Category{
			ID:          CategoryID(slug),
			Name:        name,
			Slug:        slug,
			Description: strings.TrimSpace(props.Description),
		})
	}

	if len(out) == 0 {
		return nil, fmt.Errorf("no valid categories found in config")
	}

	return out, nil
}

// CategoryID is stable for a slug so reloads update rows in place
func CategoryID(slug string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte("shelf:category:"+slug)).String()
}
