package seedfile

// SeedEntry is a single bookmark entry in the seed YAML file.
type SeedEntry struct {
	Title string `yaml:"title"`
	URL   string `yaml:"url"`
	Tag   string `yaml:"tag"`
}

// SeedConfig is the root structure of the seed file.
type SeedConfig struct {
	Bookmarks []SeedEntry `yaml:"bookmarks"`
}
