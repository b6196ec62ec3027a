package bookmarks

import (
	"encoding/json"
	"fmt"

	"github.com/MrSnakeDoc/shelf/internal/domain"
)

// Encode serializes the collection as a JSON array, preserving order.
// An empty collection encodes as "[]".
func Encode(items []domain.Bookmark) ([]byte, error) {
	if items == nil {
		items = []domain.Bookmark{}
	}
	data, err := json.Marshal(items)
	if err != nil {
		return nil, fmt.Errorf("failed to encode bookmarks: %w", err)
	}
	return data, nil
}

// Decode parses a value produced by Encode.
// Duplicate ids keep their first occurrence.
func Decode(data []byte) ([]domain.Bookmark, error) {
	if len(data) == 0 {
		return []domain.Bookmark{}, nil
	}

	var raw []domain.Bookmark
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to decode bookmarks: %w", err)
	}

	seen := make(map[int64]bool, len(raw))
	items := make([]domain.Bookmark, 0, len(raw))
	for _, b := range raw {
		if seen[b.ID] {
			continue
		}
		seen[b.ID] = true
		items = append(items, b)
	}
	return items, nil
}
