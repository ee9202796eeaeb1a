// Package govbuilt reads content items from a GovBuilt (Orchard Core) instance.
package govbuilt

import (
	"context"
	"strconv"
	"strings"
)

// ContentType names a remote content type.
type ContentType string

const (
	CaseStatus        ContentType = "CaseStatus"
	CaseSubType       ContentType = "CaseSubType"
	InspectionType    ContentType = "InspectionType"
	LicenseType       ContentType = "LicenseType"
	LicenseSubType    ContentType = "LicenseSubType"
	LicenseStatus     ContentType = "LicenseStatus"
	CaseType          ContentType = "CaseType"
	AccountingDetails ContentType = "AccountingDetails"
)

// SyncOrder is the fixed order content types are synchronized in.
var SyncOrder = []ContentType{
	CaseStatus,
	CaseSubType,
	InspectionType,
	LicenseType,
	LicenseSubType,
	LicenseStatus,
	CaseType,
	AccountingDetails,
}

// ParseContentType accepts a content type name case-insensitively.
func ParseContentType(s string) (ContentType, bool) {
	for _, ct := range SyncOrder {
		if strings.EqualFold(string(ct), strings.TrimSpace(s)) {
			return ct, true
		}
	}
	return "", false
}

// Source fetches the content items of one content type.
type Source interface {
	Fetch(ctx context.Context, contentType ContentType) ([]ContentItem, error)
}

// ContentItem is a remote record reduced to what the sync needs.
type ContentItem struct {
	ContentItemID string `json:"ContentItemId"`
	DisplayText   string `json:"DisplayText"`
	// Fields is the content-type part of the item, nil when the item carried none.
	Fields Fields `json:"Fields,omitempty"`
}

// Fields is an Orchard Core part: each field is an object such as {"Text": ...},
// {"Value": ...} or {"ContentItemIds": [...]}.
type Fields map[string]any

func (f Fields) field(name string) map[string]any {
	if f == nil {
		return nil
	}
	m, _ := f[name].(map[string]any)
	return m
}

// Text returns field.Text, or "" when absent or null.
func (f Fields) Text(name string) string {
	s, _ := f.field(name)["Text"].(string)
	return s
}

// Bool returns field.Value when it is a boolean.
func (f Fields) Bool(name string) (bool, bool) {
	b, ok := f.field(name)["Value"].(bool)
	return b, ok
}

// BoolOr returns field.Value or def.
func (f Fields) BoolOr(name string, def bool) bool {
	if b, ok := f.Bool(name); ok {
		return b
	}
	return def
}

// Number returns field.Value, falling back to a numeric field.Text.
func (f Fields) Number(name string) (float64, bool) {
	m := f.field(name)
	switch v := m["Value"].(type) {
	case float64:
		return v, true
	case string:
		if n, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
			return n, true
		}
	}
	if s, ok := m["Text"].(string); ok {
		if n, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
			return n, true
		}
	}
	return 0, false
}

// ContentItemIDs returns field.ContentItemIds, skipping non-string entries.
func (f Fields) ContentItemIDs(name string) []string {
	raw, _ := f.field(name)["ContentItemIds"].([]any)
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok && s != "" {
			out = append(out, s)
		}
	}
	return out
}

// SplitIDs splits a comma-separated id list, trimming blanks.
func SplitIDs(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
