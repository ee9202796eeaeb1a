package store

import (
	"maps"
	"math"
	"reflect"
	"slices"
	"strconv"
	"strings"
	"time"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/google/uuid"

	"github.com/govbuilder/engine/internal/models"
)

const (
	keyGovData      = "govData"
	keyProjectBuild = "projectBuild"
	keyAccounting   = "accounting"
	keyDetails      = "details"
	keyRemoteID     = "govbuiltContentItemId"
)

// collectionOrder is the order collections are migrated in; it only affects report ordering.
var collectionOrder = []string{
	"statuses", "licenseStatuses", "caseTypes", "licenseTypes", "subtypes", "licenseSubTypes",
	"workflows", "inspectionWorkflows", "licenseWorkflows", "inspectionTypes", keyAccounting,
}

var (
	arrayCollections = mapset.NewSet(
		"statuses", "licenseStatuses", "caseTypes", "licenseTypes",
		"subtypes", "licenseSubTypes", "inspectionTypes",
	)
	mapCollections = mapset.NewSet("workflows", "inspectionWorkflows", "licenseWorkflows")

	elementTypes = map[string]reflect.Type{
		"statuses":            reflect.TypeOf(models.Status{}),
		"licenseStatuses":     reflect.TypeOf(models.Status{}),
		"caseTypes":           reflect.TypeOf(models.CaseType{}),
		"licenseTypes":        reflect.TypeOf(models.LicenseType{}),
		"subtypes":            reflect.TypeOf(models.Subtype{}),
		"licenseSubTypes":     reflect.TypeOf(models.Subtype{}),
		"inspectionTypes":     reflect.TypeOf(models.InspectionType{}),
		"workflows":           reflect.TypeOf(models.Workflow{}),
		"inspectionWorkflows": reflect.TypeOf(models.InspectionWorkflow{}),
		"licenseWorkflows":    reflect.TypeOf(models.LicenseWorkflow{}),
		keyAccounting:         reflect.TypeOf(models.AccountingDetail{}),
	}

	documentType = reflect.TypeOf(documentHeader{})
	timeType     = reflect.TypeOf(time.Time{})
)

// documentHeader lists the scalar members of the document root.
type documentHeader struct {
	Name          string    `json:"name"`
	Created       time.Time `json:"created"`
	StagingURL    string    `json:"stagingUrl"`
	APIConfigured bool      `json:"apiConfigured"`
}

// MigrationReport describes what Migrate changed.
type MigrationReport struct {
	// Legacy is true when collections were found directly under govData.
	Legacy bool
	// Moved lists collections relocated from govData into projectBuild.
	Moved []string
	// Reset lists containers that had the wrong type and were reinitialized.
	Reset []string
	// Dropped counts collection members discarded because they were not objects.
	Dropped int
	// Coerced counts scalar fields converted or removed to match their declared type.
	Coerced int
	// AssignedIDs counts members that received a generated id.
	AssignedIDs int
}

// Changed reports whether the migration modified anything beyond adding missing remote-id keys.
func (r MigrationReport) Changed() bool {
	return r.Legacy || len(r.Reset) > 0 || r.Dropped > 0 || r.Coerced > 0 || r.AssignedIDs > 0
}

// Migrate upgrades a raw decoded document in place to the nested projectBuild
// layout. It is idempotent and never fails: containers of the wrong type are
// treated as absent and reinitialized.
func Migrate(root map[string]any) MigrationReport {
	var r MigrationReport
	r.Coerced += conform(root, documentType)

	gov, ok := root[keyGovData].(map[string]any)
	if !ok {
		if _, present := root[keyGovData]; present {
			r.Reset = append(r.Reset, keyGovData)
		}
		gov = map[string]any{}
		root[keyGovData] = gov
	}
	if title, present := gov["title"]; present {
		if s, ok := coerceString(title); ok {
			if s != title {
				gov["title"] = s
				r.Coerced++
			}
		} else {
			delete(gov, "title")
			r.Coerced++
		}
	}

	build, ok := gov[keyProjectBuild].(map[string]any)
	if !ok {
		if _, present := gov[keyProjectBuild]; present {
			r.Reset = append(r.Reset, keyProjectBuild)
		}
		build = map[string]any{}
		gov[keyProjectBuild] = build
	}

	for _, name := range collectionOrder {
		if flat, present := gov[name]; present {
			r.Legacy = true
			r.Moved = append(r.Moved, name)
			delete(gov, name)
			if nested, ok := build[name]; ok && isContainer(name, nested) {
				build[name] = combine(name, nested, flat)
			} else {
				build[name] = flat
			}
		}
		build[name] = normalizeCollection(name, build[name], &r)
	}
	return r
}

func isContainer(name string, v any) bool {
	switch {
	case arrayCollections.Contains(name):
		_, ok := v.([]any)
		return ok
	case mapCollections.Contains(name):
		switch v.(type) {
		case map[string]any, []any:
			return true
		}
		return false
	default:
		acc, ok := v.(map[string]any)
		if !ok {
			return false
		}
		_, ok = acc[keyDetails].([]any)
		return ok
	}
}

// combine merges a flat legacy collection into an existing nested one. Nested
// members win; flat members are appended only when their id is not present.
func combine(name string, nested, flat any) any {
	if !isContainer(name, flat) {
		return nested
	}
	switch {
	case arrayCollections.Contains(name):
		return combineArrays(nested.([]any), flat.([]any))
	case mapCollections.Contains(name):
		n, nOK := nested.(map[string]any)
		f, fOK := flat.(map[string]any)
		if !nOK || !fOK {
			// one side is still an array; append and let normalization key it
			return combineArrays(asArray(nested), asArray(flat))
		}
		for k, v := range f {
			if _, exists := n[k]; !exists {
				n[k] = v
			}
		}
		return n
	default:
		n := nested.(map[string]any)
		n[keyDetails] = combineArrays(n[keyDetails].([]any), flat.(map[string]any)[keyDetails].([]any))
		return n
	}
}

func asArray(v any) []any {
	switch c := v.(type) {
	case []any:
		return c
	case map[string]any:
		out := make([]any, 0, len(c))
		for _, k := range sortedKeys(c) {
			out = append(out, c[k])
		}
		return out
	}
	return nil
}

func combineArrays(nested, flat []any) []any {
	seen := mapset.NewThreadUnsafeSet[string]()
	for _, item := range nested {
		if id := idOf(item); id != "" {
			seen.Add(id)
		}
	}
	out := append([]any{}, nested...)
	for _, item := range flat {
		if id := idOf(item); id != "" && seen.Contains(id) {
			continue
		}
		out = append(out, item)
	}
	return out
}

func idOf(v any) string {
	obj, ok := v.(map[string]any)
	if !ok {
		return ""
	}
	id, _ := obj["id"].(string)
	return id
}

func normalizeCollection(name string, v any, r *MigrationReport) any {
	elem := elementTypes[name]
	switch {
	case arrayCollections.Contains(name):
		arr, ok := v.([]any)
		if !ok {
			if v != nil {
				r.Reset = append(r.Reset, name)
			}
			return []any{}
		}
		return normalizeArray(arr, elem, r)

	case mapCollections.Contains(name):
		switch c := v.(type) {
		case map[string]any:
			for key, item := range c {
				obj, ok := item.(map[string]any)
				if !ok {
					delete(c, key)
					r.Dropped++
					continue
				}
				normalizeEntity(obj, elem, r)
				if idOf(obj) == "" {
					obj["id"] = key
				}
			}
			return c
		case []any:
			out := map[string]any{}
			for _, item := range normalizeArray(c, elem, r) {
				obj := item.(map[string]any)
				out[idOf(obj)] = obj
			}
			return out
		default:
			if v != nil {
				r.Reset = append(r.Reset, name)
			}
			return map[string]any{}
		}

	default:
		acc, ok := v.(map[string]any)
		if !ok {
			if v != nil {
				r.Reset = append(r.Reset, name)
			}
			return map[string]any{keyDetails: []any{}}
		}
		details, ok := acc[keyDetails].([]any)
		if !ok {
			if acc[keyDetails] != nil {
				r.Reset = append(r.Reset, name+"."+keyDetails)
			}
			details = []any{}
		}
		acc[keyDetails] = normalizeArray(details, elem, r)
		return acc
	}
}

func normalizeArray(arr []any, elem reflect.Type, r *MigrationReport) []any {
	out := make([]any, 0, len(arr))
	for _, item := range arr {
		obj, ok := item.(map[string]any)
		if !ok {
			r.Dropped++
			continue
		}
		normalizeEntity(obj, elem, r)
		if idOf(obj) == "" {
			obj["id"] = uuid.NewString()
			r.AssignedIDs++
		}
		out = append(out, obj)
	}
	return out
}

func normalizeEntity(obj map[string]any, elem reflect.Type, r *MigrationReport) {
	if _, present := obj[keyRemoteID]; !present {
		obj[keyRemoteID] = nil
	}
	r.Coerced += conform(obj, elem)
}

// conform makes the scalar members of obj decodable into t. Values that can be
// converted (numbers to strings, "true" to true, numeric strings to numbers)
// are converted; anything else is removed. It returns the number of members touched.
func conform(obj map[string]any, t reflect.Type) int {
	touched := 0
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if f.Anonymous && f.Type.Kind() == reflect.Struct {
			touched += conform(obj, f.Type)
			continue
		}
		name := jsonName(f)
		if name == "" {
			continue
		}
		v, present := obj[name]
		if !present || v == nil {
			continue
		}
		nv, ok := conformValue(v, f.Type)
		if !ok {
			delete(obj, name)
			touched++
			continue
		}
		if !sameValue(v, nv) {
			touched++
		}
		obj[name] = nv
	}
	return touched
}

// conformValue returns v converted to fit t. Nested structs other than
// timestamps are left for their own decoders.
func conformValue(v any, t reflect.Type) (any, bool) {
	if t == timeType {
		s, ok := v.(string)
		if !ok {
			return nil, false
		}
		if _, err := time.Parse(time.RFC3339Nano, s); err != nil {
			return nil, false
		}
		return s, true
	}
	switch t.Kind() {
	case reflect.String:
		return coerceString(v)
	case reflect.Bool:
		switch b := v.(type) {
		case bool:
			return b, true
		case string:
			parsed, err := strconv.ParseBool(strings.TrimSpace(b))
			return parsed, err == nil
		}
		return nil, false
	case reflect.Int, reflect.Int64, reflect.Int32:
		n, ok := coerceNumber(v)
		if !ok {
			return nil, false
		}
		return math.Trunc(n), true
	case reflect.Float64, reflect.Float32:
		return coerceNumber(v)
	case reflect.Pointer:
		return conformValue(v, t.Elem())
	case reflect.Slice:
		arr, ok := v.([]any)
		if !ok {
			return nil, false
		}
		switch t.Elem().Kind() {
		case reflect.String:
			out := make([]any, 0, len(arr))
			for _, item := range arr {
				if s, ok := coerceString(item); ok {
					out = append(out, s)
				}
			}
			return out, true
		case reflect.Struct:
			out := make([]any, 0, len(arr))
			for _, item := range arr {
				if obj, ok := item.(map[string]any); ok {
					conform(obj, t.Elem())
					out = append(out, obj)
				}
			}
			return out, true
		}
		return v, true
	case reflect.Struct:
		obj, ok := v.(map[string]any)
		if !ok {
			return nil, false
		}
		conform(obj, t)
		return obj, true
	case reflect.Map:
		_, ok := v.(map[string]any)
		return v, ok
	}
	return v, true
}

func coerceString(v any) (any, bool) {
	switch s := v.(type) {
	case string:
		return s, true
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64), true
	case bool:
		return strconv.FormatBool(s), true
	}
	return nil, false
}

func coerceNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	}
	return 0, false
}

// sameValue reports whether a conversion left the value unchanged. Objects
// are conformed in place and compare equal to themselves.
func sameValue(a, b any) bool {
	switch av := a.(type) {
	case string, bool, float64:
		return a == b
	case []any:
		bv := b.([]any)
		if len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !sameValue(av[i], bv[i]) {
				return false
			}
		}
	}
	return true
}

func jsonName(f reflect.StructField) string {
	tag := f.Tag.Get("json")
	if tag == "-" || !f.IsExported() {
		return ""
	}
	name, _, _ := strings.Cut(tag, ",")
	if name == "" {
		return f.Name
	}
	return name
}

func sortedKeys(m map[string]any) []string {
	return slices.Sorted(maps.Keys(m))
}
