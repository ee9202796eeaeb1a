package govbuilt

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErr "github.com/govbuilder/engine/pkg/errors"
)

func TestNormalizeBaseURL(t *testing.T) {
	u, err := NormalizeBaseURL("  https://staging.example.gov/// ")
	require.NoError(t, err)
	assert.Equal(t, "https://staging.example.gov", u)

	_, err = NormalizeBaseURL("   ")
	assert.True(t, appErr.IsCode(err, appErr.CodeConfiguration))

	_, err = NormalizeBaseURL("ftp://x")
	assert.True(t, appErr.IsCode(err, appErr.CodeInvalid))
	_, err = NormalizeBaseURL("staging.example.gov")
	assert.True(t, appErr.IsCode(err, appErr.CodeInvalid))
}

func TestEndpointURL(t *testing.T) {
	got := EndpointURL("https://x.test/", CaseType)
	assert.Equal(t, "https://x.test/api/queries/GetAllContentItemsByContentType?parameters=%7B%22contentType%22%3A%22CaseType%22%7D", got)
}

func TestHTTPSource_Fetch(t *testing.T) {
	var gotParams string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/queries/GetAllContentItemsByContentType", r.URL.Path)
		gotParams = r.URL.Query().Get("parameters")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":[{"ContentItemId":"s1","DisplayText":"Draft","CaseStatus":{"IsApplicantNotified":{"Value":true}}}]}`))
	}))
	defer srv.Close()

	src, err := NewHTTPSource(srv.URL+"/", WithRateLimit(100))
	require.NoError(t, err)
	items, err := src.Fetch(context.Background(), CaseStatus)
	require.NoError(t, err)

	assert.Equal(t, `{"contentType":"CaseStatus"}`, gotParams)
	require.Len(t, items, 1)
	assert.True(t, items[0].Fields.BoolOr("IsApplicantNotified", false))
}

func TestHTTPSource_Errors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q, _ := url.QueryUnescape(r.URL.RawQuery)
		switch {
		case strings.Contains(q, "CaseStatus"):
			http.Error(w, "boom", http.StatusInternalServerError)
		case strings.Contains(q, "CaseType"):
			_, _ = w.Write([]byte(""))
		default:
			_, _ = w.Write([]byte(`not json`))
		}
	}))
	defer srv.Close()

	src, err := NewHTTPSource(srv.URL, WithRateLimit(0))
	require.NoError(t, err)

	_, err = src.Fetch(context.Background(), CaseStatus)
	assert.True(t, appErr.IsCode(err, appErr.CodeUnavailable))
	_, err = src.Fetch(context.Background(), CaseType)
	assert.True(t, appErr.IsCode(err, appErr.CodeUnavailable))
	_, err = src.Fetch(context.Background(), LicenseType)
	assert.True(t, appErr.IsCode(err, appErr.CodeDecode))
}

func TestHTTPSource_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	addr := srv.URL
	srv.Close()

	src, err := NewHTTPSource(addr)
	require.NoError(t, err)
	_, err = src.Fetch(context.Background(), CaseStatus)
	assert.True(t, appErr.IsCode(err, appErr.CodeUnavailable))
}

func TestFileSource(t *testing.T) {
	src, err := LoadFileSource(filepath.Join("testdata", "mock.yaml"))
	require.NoError(t, err)

	statuses, err := src.Fetch(context.Background(), CaseStatus)
	require.NoError(t, err)
	require.Len(t, statuses, 3)
	assert.Equal(t, "#ffaa00", statuses[1].Fields.Text("Color"))

	caseTypes, err := src.Fetch(context.Background(), CaseType)
	require.NoError(t, err)
	require.Len(t, caseTypes, 2)
	assert.Equal(t, "PA-", caseTypes[0].Fields.Text("Prefix"))
	assert.Equal(t, "mock-case-subtype-1,retired-subtype", caseTypes[0].Fields.Text("CaseSubTypes"))

	fees, err := src.Fetch(context.Background(), AccountingDetails)
	require.NoError(t, err)
	assert.Equal(t, "1002", fees[1].Fields.Text("GLKey"))
}

func TestFileSource_JSONAndUnknownTypes(t *testing.T) {
	src, err := NewFileSource([]byte(`{"CaseSubType":[{"ContentItemId":"p1","DisplayText":"Electrical"}]}`))
	require.NoError(t, err)
	items, err := src.Fetch(context.Background(), CaseSubType)
	require.NoError(t, err)
	assert.Len(t, items, 1)

	empty, err := src.Fetch(context.Background(), CaseType)
	require.NoError(t, err)
	assert.Empty(t, empty)

	_, err = NewFileSource([]byte(`Widget: []`))
	assert.True(t, appErr.IsCode(err, appErr.CodeInvalid))
}
