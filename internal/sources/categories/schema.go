package categories

// Config represents the top-level structure of categories.yaml
//
//	categories:
//	  - name: Go
//	    slug: go
//	    description: Posts about Go
type Config struct {
	Categories []CategoryProps `yaml:"categories"`
}

// CategoryProps contains one category entry
type CategoryProps struct {
	Name        string `yaml:"name"`
	Slug        string `yaml:"slug,omitempty"`
	Description string `yaml:"description,omitempty"`
}
