package repository

import (
	"encoding/json"

	appErr "github.com/govbuilder/engine/pkg/errors"
)

// Collection is an EntityRepository with JSON in and out, used by transports
// that pick the collection by name at runtime.
type Collection interface {
	Kind() string
	List() any
	New() any
	Get(id string) (any, error)
	Save(raw json.RawMessage) (any, error)
	Remove(id string) error
	Import(records []json.RawMessage) ImportResult
}

// ImportResult reports a bulk import; rejected rows do not stop the import.
type ImportResult struct {
	Collection string     `json:"collection"`
	Saved      int        `json:"saved"`
	Failed     []RowError `json:"failed"`
}

// RowError describes why one imported record was rejected.
type RowError struct {
	Row   int    `json:"row"`
	Code  string `json:"code"`
	Error string `json:"error"`
}

type collection[T any] struct {
	repo EntityRepository[T]
}

// AsCollection adapts a typed repository to Collection.
func AsCollection[T any](repo EntityRepository[T]) Collection {
	return &collection[T]{repo: repo}
}

func (c *collection[T]) Kind() string { return c.repo.Kind() }

func (c *collection[T]) List() any { return c.repo.List() }

func (c *collection[T]) New() any { return c.repo.New() }

func (c *collection[T]) Get(id string) (any, error) { return c.repo.Get(id) }

func (c *collection[T]) Save(raw json.RawMessage) (any, error) {
	var entity T
	if err := json.Unmarshal(raw, &entity); err != nil {
		return nil, appErr.Wrap(err, appErr.CodeInvalid, "invalid "+c.repo.Kind()+" payload")
	}
	return c.repo.Save(entity)
}

func (c *collection[T]) Remove(id string) error { return c.repo.Remove(id) }

// Import saves each record as a new entity. Record ids are discarded so the
// repository assigns fresh ones.
func (c *collection[T]) Import(records []json.RawMessage) ImportResult {
	res := ImportResult{Collection: c.repo.Kind(), Failed: []RowError{}}
	for i, raw := range records {
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(raw, &fields); err != nil {
			res.Failed = append(res.Failed, RowError{Row: i, Code: string(appErr.CodeInvalid), Error: err.Error()})
			continue
		}
		delete(fields, "id")
		stripped, err := json.Marshal(fields)
		if err != nil {
			res.Failed = append(res.Failed, RowError{Row: i, Code: string(appErr.CodeInvalid), Error: err.Error()})
			continue
		}
		if _, err := c.Save(stripped); err != nil {
			res.Failed = append(res.Failed, RowError{Row: i, Code: string(appErr.CodeOf(err)), Error: err.Error()})
			continue
		}
		res.Saved++
	}
	return res
}
