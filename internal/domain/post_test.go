package domain

import (
	"strings"
	"testing"
)

func validDraft() PostDraft {
	return PostDraft{
		Title:   "Hello",
		Slug:    "hello",
		Content: "Body",
	}
}

func TestPostDraftValidate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(d *PostDraft)
		wantField string
		wantMsg   string
	}{
		{"valid", func(d *PostDraft) {}, "", ""},
		{"blank title", func(d *PostDraft) { d.Title = "   " }, "title", "Title is required"},
		{"long title", func(d *PostDraft) { d.Title = strings.Repeat("a", 201) }, "title", "Title must be at most 200 characters"},
		{"missing slug", func(d *PostDraft) { d.Slug = "" }, "slug", "Slug is required"},
		{"uppercase slug", func(d *PostDraft) { d.Slug = "Hello" }, "slug", "Slug must be lowercase with hyphens only"},
		{"long excerpt", func(d *PostDraft) { d.Excerpt = strings.Repeat("x", 301) }, "excerpt", "Excerpt must be at most 300 characters"},
		{"missing content", func(d *PostDraft) { d.Content = "\n" }, "content", "Content is required"},
		{"relative cover", func(d *PostDraft) { d.CoverImage = "/img.png" }, "cover_image", "Cover image must be a valid URL"},
		{"absolute cover", func(d *PostDraft) { d.CoverImage = "https://example.com/a.jpg" }, "", ""},
		{
			name:      "first violation wins",
			mutate:    func(d *PostDraft) { d.Title = ""; d.Slug = ""; d.Content = "" },
			wantField: "title",
			wantMsg:   "Title is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := validDraft()
			tt.mutate(&d)
			err := d.Validate()
			if tt.wantMsg == "" {
				if err != nil {
					t.Fatalf("Validate() = %v, want nil", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Validate() = nil, want %q", tt.wantMsg)
			}
			if err.Field != tt.wantField || err.Message != tt.wantMsg {
				t.Errorf("Validate() = %s/%q, want %s/%q", err.Field, err.Message, tt.wantField, tt.wantMsg)
			}
		})
	}
}

func TestSlugify(t *testing.T) {
	tests := map[string]string{
		"Hello World":          "hello-world",
		"Go 1.25: What's new?": "go-125-whats-new",
		"  spaced   out  ":     "spaced-out",
		"already-a--slug":      "already-a-slug",
		"Ünïcode only":         "ncode-only",
	}

	for in, want := range tests {
		if got := Slugify(in); got != want {
			t.Errorf("Slugify(%q) = %q, want %q", in, got, want)
		}
	}
}
