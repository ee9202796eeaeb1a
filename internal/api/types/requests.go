package types

import "encoding/json"

type SettingsRequest struct {
	RootDirectory string `json:"rootDirectory"`
}

type ProjectCreateRequest struct {
	Name string `json:"name" validate:"required"`
	// ParentDir defaults to the configured root directory.
	ParentDir string `json:"parentDir"`
}

type ProjectOpenRequest struct {
	Path string `json:"path" validate:"required"`
}

type RemoteRequest struct {
	URL string `json:"url"`
}

type SyncRequest struct {
	// BaseURL overrides the project's stagingUrl for this pass.
	BaseURL string `json:"baseUrl" validate:"omitempty,url"`
	// Async queues the pass on the worker instead of running it in the request.
	Async bool `json:"async"`
}

type ImportRequest struct {
	Records []json.RawMessage `json:"records" validate:"required,min=1"`
}
