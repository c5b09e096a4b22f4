package catalog

// Catalog is a curated list of topics a user can import in one step.
type Catalog struct {
	ID          string      `yaml:"id" json:"id"`
	Name        string      `yaml:"name" json:"name"`
	Description string      `yaml:"description" json:"description"`
	Topics      []TopicSeed `yaml:"topics" json:"topics"`
}

// TopicSeed describes one topic of a catalog.
type TopicSeed struct {
	Name        string   `yaml:"name" json:"name"`
	Category    string   `yaml:"category" json:"category"`
	Priority    string   `yaml:"priority" json:"priority"`
	Description string   `yaml:"description" json:"description"`
	Tags        []string `yaml:"tags" json:"tags"`
	Subtopics   []string `yaml:"subtopics" json:"subtopics"`
}
