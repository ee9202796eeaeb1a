package govbuilt

import (
	"context"
	"encoding/json"
	"os"

	"gopkg.in/yaml.v3"

	appErr "github.com/govbuilder/engine/pkg/errors"
)

// FileSource serves content items from a fixture keyed by content type:
//
//	CaseStatus:
//	  - ContentItemId: abc
//	    DisplayText: Draft
//
// JSON fixtures work too. Content types missing from the fixture return no items.
type FileSource struct {
	bodies map[ContentType][]byte
}

var _ Source = (*FileSource)(nil)

// LoadFileSource reads a YAML or JSON fixture from path.
func LoadFileSource(path string) (*FileSource, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, appErr.Wrap(err, appErr.CodeNotFound, "failed to read fixture").WithMeta("path", path)
	}
	return NewFileSource(data)
}

// NewFileSource parses fixture bytes.
func NewFileSource(data []byte) (*FileSource, error) {
	var doc map[string]any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, appErr.Wrap(err, appErr.CodeInvalid, "fixture is not valid YAML or JSON")
	}
	s := &FileSource{bodies: map[ContentType][]byte{}}
	for key, v := range doc {
		ct, ok := ParseContentType(key)
		if !ok {
			return nil, appErr.Newf(appErr.CodeInvalid, "fixture has unknown content type %q", key)
		}
		body, err := json.Marshal(v)
		if err != nil {
			return nil, appErr.Wrap(err, appErr.CodeInvalid, "fixture entry for "+key+" is not JSON-compatible")
		}
		s.bodies[ct] = body
	}
	return s, nil
}

func (s *FileSource) Fetch(ctx context.Context, contentType ContentType) ([]ContentItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	body, ok := s.bodies[contentType]
	if !ok {
		return []ContentItem{}, nil
	}
	return ParseItems(contentType, body)
}
