package types

type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *APIError   `json:"error,omitempty"`
	Meta    *Meta       `json:"meta,omitempty"`
}

type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

type Meta struct {
	RequestID string `json:"request_id,omitempty"`
	// Version is the document version the response reflects.
	Version string `json:"version,omitempty"`
	Total   int64  `json:"total,omitempty"`
}

// ProjectView is an opened project: its summary and full document.
type ProjectView struct {
	Name     string `json:"name"`
	Path     string `json:"path"`
	Document any    `json:"document"`
}

// QueuedSync answers an asynchronous sync request.
type QueuedSync struct {
	TaskID string `json:"taskId"`
	Queue  string `json:"queue"`
}
