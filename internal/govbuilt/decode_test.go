package govbuilt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErr "github.com/govbuilder/engine/pkg/errors"
)

func TestDecodeContent(t *testing.T) {
	tests := []struct {
		name  string
		input string
		check func(t *testing.T, out map[string]any)
	}{
		{
			name:  "unicode quotes",
			input: `{\u0022CaseType\u0022:{\u0022Prefix\u0022:{\u0022Text\u0022:\u0022TEST-{{yy}}\u0022}}}`,
			check: func(t *testing.T, out map[string]any) {
				prefix := out["CaseType"].(map[string]any)["Prefix"].(map[string]any)["Text"]
				assert.Equal(t, "TEST-{{yy}}", prefix)
			},
		},
		{
			name:  "octal escapes",
			input: `{\042Title\042:\042A\046B\042}`,
			check: func(t *testing.T, out map[string]any) {
				assert.Equal(t, "A&B", out["Title"])
			},
		},
		{
			name:  "lowercase hex and html escapes",
			input: `{\u0022Body\u0022:\u0022\u003cp\u003e1 \u0026 2\u003c/p\u003e\u0022}`,
			check: func(t *testing.T, out map[string]any) {
				assert.Equal(t, "<p>1 & 2</p>", out["Body"])
			},
		},
		{
			name:  "escaped newline stays valid inside a string",
			input: `{\u0022Notes\u0022:\u0022line1\u000Aline2\u0022}`,
			check: func(t *testing.T, out map[string]any) {
				assert.Equal(t, "line1\nline2", out["Notes"])
			},
		},
		{
			name:  "surrogate pair becomes one rune",
			input: `{"CaseType":{"Prefix":{"Text":"\ud83d\ude00"}}}`,
			check: func(t *testing.T, out map[string]any) {
				prefix := out["CaseType"].(map[string]any)["Prefix"].(map[string]any)["Text"]
				assert.Equal(t, "\U0001F600", prefix)
			},
		},
		{
			name:  "escaped quotes around an emoji subject",
			input: `{\u0022Subject\u0022:\u0022Approved \uD83C\uDF89\u0022}`,
			check: func(t *testing.T, out map[string]any) {
				assert.Equal(t, "Approved \U0001F389", out["Subject"])
			},
		},
		{
			name:  "lone surrogate stays valid JSON",
			input: `{"Text":"a\ud83db"}`,
			check: func(t *testing.T, out map[string]any) {
				assert.Equal(t, "a\uFFFDb", out["Text"])
			},
		},
		{
			name:  "plain JSON passes through",
			input: `{"Title":{"Text":"Plain"}}`,
			check: func(t *testing.T, out map[string]any) {
				assert.Equal(t, "Plain", out["Title"].(map[string]any)["Text"])
			},
		},
		{
			name:  "raw fallback when unescaping breaks valid JSON",
			input: `{"Path":"C:\\dir"}`,
			check: func(t *testing.T, out map[string]any) {
				assert.Equal(t, `C:\dir`, out["Path"])
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := DecodeContent(tt.input)
			require.NoError(t, err)
			tt.check(t, out)
		})
	}
}

func TestDecodeContent_Failure(t *testing.T) {
	_, err := DecodeContent(`{\u0022broken`)
	require.Error(t, err)
	assert.True(t, appErr.IsCode(err, appErr.CodeDecode))
}

func TestParseItems_Shapes(t *testing.T) {
	for _, body := range []string{
		`[{"ContentItemId":"a","DisplayText":"A"}]`,
		`{"data":[{"ContentItemId":"a","DisplayText":"A"}]}`,
		`{"items":[{"ContentItemId":"a","DisplayText":"A"}]}`,
	} {
		items, err := ParseItems(CaseStatus, []byte(body))
		require.NoError(t, err, body)
		require.Len(t, items, 1)
		assert.Equal(t, "a", items[0].ContentItemID)
		assert.Nil(t, items[0].Fields)
	}

	_, err := ParseItems(CaseStatus, []byte(`{"result":[]}`))
	assert.True(t, appErr.IsCode(err, appErr.CodeDecode))

	_, err = ParseItems(CaseStatus, []byte(`<html>`))
	assert.True(t, appErr.IsCode(err, appErr.CodeDecode))
}

func TestParseItems_FiltersInvalidElements(t *testing.T) {
	body := `[
		{"ContentItemId":"a","DisplayText":"A"},
		{"ContentItemId":5,"DisplayText":"bad id"},
		{"ContentItemId":"c"},
		null,
		"text"
	]`
	items, err := ParseItems(CaseStatus, []byte(body))
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "A", items[0].DisplayText)
}

func TestParseItems_ExtractsFields(t *testing.T) {
	body := `[
		{"ContentItemId":"direct","DisplayText":"D","CaseType":{"Prefix":{"Text":"D-"}},"Content":"garbage"},
		{"ContentItemId":"encoded","DisplayText":"E","Content":"{\\u0022CaseType\\u0022:{\\u0022Prefix\\u0022:{\\u0022Text\\u0022:\\u0022E-\\u0022}}}"},
		{"ContentItemId":"other","DisplayText":"O","Content":"{\\u0022LicenseType\\u0022:{}}"}
	]`
	items, err := ParseItems(CaseType, []byte(body))
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, "D-", items[0].Fields.Text("Prefix"))
	assert.Equal(t, "E-", items[1].Fields.Text("Prefix"))
	assert.Nil(t, items[2].Fields)
}

func TestParseItems_DecodeFailureFailsType(t *testing.T) {
	body := `[{"ContentItemId":"x","DisplayText":"X","Content":"{\\u0022CaseType"}]`
	_, err := ParseItems(CaseType, []byte(body))
	require.Error(t, err)
	assert.True(t, appErr.IsCode(err, appErr.CodeDecode))
}

func TestFields(t *testing.T) {
	f := Fields{
		"Title":          map[string]any{"Text": "T"},
		"Suffix":         map[string]any{"Text": nil},
		"UseAutoNumber":  map[string]any{"Value": false},
		"DurationHours":  map[string]any{"Value": 1.5},
		"NumberOfDigits": map[string]any{"Text": "4"},
		"WorkflowId":     map[string]any{"ContentItemIds": []any{"w1", 3, ""}},
	}
	assert.Equal(t, "T", f.Text("Title"))
	assert.Equal(t, "", f.Text("Suffix"))
	assert.Equal(t, "", f.Text("Missing"))
	assert.False(t, f.BoolOr("UseAutoNumber", true))
	assert.True(t, f.BoolOr("AutoLicense", true))

	n, ok := f.Number("DurationHours")
	assert.True(t, ok)
	assert.Equal(t, 1.5, n)
	n, ok = f.Number("NumberOfDigits")
	assert.True(t, ok)
	assert.Equal(t, float64(4), n)
	_, ok = f.Number("Title")
	assert.False(t, ok)

	assert.Equal(t, []string{"w1"}, f.ContentItemIDs("WorkflowId"))

	var empty Fields
	assert.Equal(t, "", empty.Text("Title"))
	assert.Empty(t, empty.ContentItemIDs("WorkflowId"))
}

func TestSplitIDs(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, SplitIDs(" a, ,b,"))
	assert.Nil(t, SplitIDs(""))
}

func TestParseContentType(t *testing.T) {
	ct, ok := ParseContentType("casesubtype")
	assert.True(t, ok)
	assert.Equal(t, CaseSubType, ct)
	_, ok = ParseContentType("Widget")
	assert.False(t, ok)
}
