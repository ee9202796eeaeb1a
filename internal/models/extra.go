package models

import (
	"bytes"
	"encoding/json"
	"reflect"
	"slices"
	"sort"
	"strings"
	"sync"
)

// unknownKeys returns the members of the JSON object b whose names are not in known.
func unknownKeys(b []byte, known []string) (map[string]json.RawMessage, error) {
	var all map[string]json.RawMessage
	if err := json.Unmarshal(b, &all); err != nil {
		return nil, err
	}
	var extra map[string]json.RawMessage
	for k, v := range all {
		if slices.Contains(known, k) {
			continue
		}
		if extra == nil {
			extra = map[string]json.RawMessage{}
		}
		extra[k] = v
	}
	return extra, nil
}

// appendExtra splices extra members (sorted by name) into the encoded object b.
// Keys colliding with modeled fields are skipped.
func appendExtra(b []byte, extra map[string]json.RawMessage, known []string) ([]byte, error) {
	if len(extra) == 0 {
		return b, nil
	}
	names := make([]string, 0, len(extra))
	for k := range extra {
		if !slices.Contains(known, k) {
			names = append(names, k)
		}
	}
	if len(names) == 0 {
		return b, nil
	}
	sort.Strings(names)

	var buf bytes.Buffer
	trimmed := bytes.TrimRight(b, " \n")
	buf.Write(trimmed[:len(trimmed)-1])
	empty := bytes.Equal(bytes.TrimSpace(trimmed), []byte("{}"))
	for i, name := range names {
		if !empty || i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(name)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		raw := extra[name]
		if len(raw) == 0 {
			raw = json.RawMessage("null")
		}
		buf.Write(raw)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

var fieldNames sync.Map // reflect.Type -> []string

// jsonFieldNames lists the json member names of struct type t, including
// members promoted from embedded structs.
func jsonFieldNames(t reflect.Type) []string {
	if cached, ok := fieldNames.Load(t); ok {
		return cached.([]string)
	}
	var names []string
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if f.Anonymous && f.Type.Kind() == reflect.Struct {
			names = append(names, jsonFieldNames(f.Type)...)
			continue
		}
		tag := f.Tag.Get("json")
		if tag == "-" || !f.IsExported() {
			continue
		}
		name, _, _ := strings.Cut(tag, ",")
		if name == "" {
			name = f.Name
		}
		names = append(names, name)
	}
	fieldNames.Store(t, names)
	return names
}

// decodeWithExtra decodes b into p and returns the members p does not model.
func decodeWithExtra[T any](b []byte, p *T) (map[string]json.RawMessage, error) {
	if err := json.Unmarshal(b, p); err != nil {
		return nil, err
	}
	return unknownKeys(b, jsonFieldNames(reflect.TypeFor[T]()))
}

// encodeWithExtra encodes v followed by the preserved extra members.
func encodeWithExtra[T any](v T, extra map[string]json.RawMessage) ([]byte, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return appendExtra(b, extra, jsonFieldNames(reflect.TypeFor[T]()))
}
