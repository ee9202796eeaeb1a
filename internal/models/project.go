package models

// ProjectSummary identifies a project on disk.
type ProjectSummary struct {
	Name string `json:"name" yaml:"name"`
	Path string `json:"path" yaml:"path"`
}

// Settings are the application-level preferences kept in the data directory.
type Settings struct {
	RootDirectory string `json:"rootDirectory"`
}
