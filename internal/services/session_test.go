package services

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/govbuilder/engine/internal/repository"
	"github.com/govbuilder/engine/internal/store"
	appErr "github.com/govbuilder/engine/pkg/errors"
)

func TestSession_ConfigureRemote(t *testing.T) {
	sess := newTestSession(t)

	got, err := sess.ConfigureRemote("  https://staging.example.gov/  ")
	require.NoError(t, err)
	assert.Equal(t, "https://staging.example.gov", got)
	assert.Equal(t, got, sess.Document().Current().StagingURL)
	assert.True(t, sess.Document().Current().APIConfigured)

	_, err = sess.ConfigureRemote("not a url")
	assert.True(t, appErr.IsCode(err, appErr.CodeInvalid))
	assert.Equal(t, "https://staging.example.gov", sess.Document().Current().StagingURL)

	got, err = sess.ConfigureRemote("")
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.False(t, sess.Document().Current().APIConfigured)
}

func TestSession_Import(t *testing.T) {
	sess := newTestSession(t)
	rows := []json.RawMessage{
		json.RawMessage(`{"title":"Application Fee","glKey":"1001"}`),
		json.RawMessage(`{"title":"","glKey":"1002"}`),
		json.RawMessage(`{"id":"ignored","title":"Permit Fee","glKey":"1003"}`),
	}

	res, err := sess.Import(repository.CollectionAccountingDetails, rows)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Saved)
	require.Len(t, res.Failed, 1)
	assert.Equal(t, 1, res.Failed[0].Row)
	assert.Equal(t, string(appErr.CodeValidation), res.Failed[0].Code)

	details := sess.Repos.AccountingDetails.List()
	require.Len(t, details, 2)
	assert.NotEqual(t, "ignored", details[1].ID)

	reopened, err := OpenSession(store.OSFileSystem{}, sess.Dir())
	require.NoError(t, err)
	assert.Len(t, reopened.Repos.AccountingDetails.List(), 2)

	_, err = sess.Import("nope", rows)
	assert.True(t, appErr.IsCode(err, appErr.CodeNotFound))
}
