package domain

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestRepositoryCloneTopics(t *testing.T) {
	tests := []struct {
		name   string
		topics []string
		want   string
	}{
		{name: "nil", topics: nil, want: `"topics":[]`},
		{name: "empty", topics: []string{}, want: `"topics":[]`},
		{name: "values", topics: []string{"cli"}, want: `"topics":["cli"]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Repository{ID: 1, Topics: tt.topics}.Clone()
			if c.Topics == nil {
				t.Fatal("Clone() returned nil topics")
			}
			raw, err := json.Marshal(c)
			if err != nil {
				t.Fatalf("Marshal: %v", err)
			}
			if !strings.Contains(string(raw), tt.want) {
				t.Errorf("json = %s, want it to contain %s", raw, tt.want)
			}
		})
	}
}

func TestRepositoryCloneDoesNotAlias(t *testing.T) {
	r := Repository{Topics: []string{"a", "b"}}
	c := r.Clone()
	c.Topics[0] = "mutated"
	if r.Topics[0] != "a" {
		t.Errorf("original topics changed to %q", r.Topics[0])
	}
}
