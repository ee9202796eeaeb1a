package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/govbuilder/engine/internal/govbuilt"
	"github.com/govbuilder/engine/internal/models"
	"github.com/govbuilder/engine/internal/repository"
	"github.com/govbuilder/engine/internal/store"
	appErr "github.com/govbuilder/engine/pkg/errors"
)

type mockSource struct {
	mock.Mock
}

func (m *mockSource) Fetch(ctx context.Context, contentType govbuilt.ContentType) ([]govbuilt.ContentItem, error) {
	args := m.Called(ctx, contentType)
	items, _ := args.Get(0).([]govbuilt.ContentItem)
	return items, args.Error(1)
}

func newTestSession(t *testing.T) *Session {
	t.Helper()
	doc, err := store.Create(store.OSFileSystem{}, t.TempDir(), models.NewProjectDocument("Test", time.Now()))
	require.NoError(t, err)
	return NewSession(doc)
}

func item(id, title string, fields govbuilt.Fields) govbuilt.ContentItem {
	return govbuilt.ContentItem{ContentItemID: id, DisplayText: title, Fields: fields}
}

func text(s string) map[string]any { return map[string]any{"Text": s} }

// fixtures returns a source answering every content type with items; types
// missing from items answer with an empty list.
func fixtures(items map[govbuilt.ContentType][]govbuilt.ContentItem) *mockSource {
	src := &mockSource{}
	for _, ct := range govbuilt.SyncOrder {
		list := items[ct]
		if list == nil {
			list = []govbuilt.ContentItem{}
		}
		src.On("Fetch", mock.Anything, ct).Return(list, nil)
	}
	return src
}

func resultFor(t *testing.T, report *SyncReport, ct govbuilt.ContentType) SyncResult {
	t.Helper()
	for _, r := range report.Results {
		if r.ContentType == string(ct) {
			return r
		}
	}
	t.Fatalf("no result for %s", ct)
	return SyncResult{}
}

func TestSync_RequiresRemote(t *testing.T) {
	svc := NewSyncService(HTTPSourceFactory(time.Second, 0), nil)
	_, err := svc.Sync(context.Background(), newTestSession(t), SyncOptions{})
	require.Error(t, err)
	assert.True(t, appErr.IsCode(err, appErr.CodeConfiguration))
}

func TestSync_TranslatesSubtypeReferences(t *testing.T) {
	sess := newTestSession(t)
	src := fixtures(map[govbuilt.ContentType][]govbuilt.ContentItem{
		govbuilt.CaseSubType: {item("sub-a", "Residential", nil), item("sub-b", "Commercial", nil)},
		govbuilt.CaseType: {item("type-1", "Permit", govbuilt.Fields{
			"CaseSubTypes": text("sub-b, sub-a,sub-gone"),
			"Prefix":       text("P-"),
		})},
	})

	report, err := NewSyncService(nil, nil).Sync(context.Background(), sess, SyncOptions{Source: src})
	require.NoError(t, err)
	assert.Zero(t, report.Failed)
	assert.Equal(t, "fixture", report.BaseURL)

	subtypes := sess.Repos.Subtypes.List()
	require.Len(t, subtypes, 2)
	localOf := map[string]string{}
	for _, st := range subtypes {
		localOf[st.RemoteID()] = st.ID
		assert.NotEqual(t, st.RemoteID(), st.ID)
	}

	caseTypes := sess.Repos.CaseTypes.List()
	require.Len(t, caseTypes, 1)
	assert.Equal(t, []string{localOf["sub-b"], localOf["sub-a"]}, caseTypes[0].Subtypes)
	assert.Equal(t, "P-", caseTypes[0].Prefix)
	assert.True(t, caseTypes[0].AutoNumber)

	res := resultFor(t, report, govbuilt.CaseType)
	assert.True(t, res.Success)
	assert.Equal(t, []string{"sub-gone"}, res.Unresolved)
	assert.Empty(t, res.DependencyFetched)
	src.AssertNumberOfCalls(t, "Fetch", len(govbuilt.SyncOrder))
}

func TestSync_IsIdempotent(t *testing.T) {
	sess := newTestSession(t)
	src := fixtures(map[govbuilt.ContentType][]govbuilt.ContentItem{
		govbuilt.CaseStatus:  {item("st-1", "Draft", nil), item("st-2", "Issued", nil)},
		govbuilt.CaseSubType: {item("sub-a", "Residential", nil)},
		govbuilt.CaseType:    {item("type-1", "Permit", govbuilt.Fields{"CaseSubTypes": text("sub-a")})},
	})
	svc := NewSyncService(nil, nil)

	_, err := svc.Sync(context.Background(), sess, SyncOptions{Source: src})
	require.NoError(t, err)
	first := sess.Repos.Statuses.List()
	firstTypes := sess.Repos.CaseTypes.List()

	report, err := svc.Sync(context.Background(), sess, SyncOptions{Source: src})
	require.NoError(t, err)

	assert.Equal(t, first, sess.Repos.Statuses.List())
	assert.Equal(t, firstTypes, sess.Repos.CaseTypes.List())
	res := resultFor(t, report, govbuilt.CaseStatus)
	assert.Equal(t, 0, res.Added)
	assert.Equal(t, 2, res.Updated)
}

func TestSync_KeepsLocalEditsToUnsyncedFields(t *testing.T) {
	sess := newTestSession(t)
	src := fixtures(map[govbuilt.ContentType][]govbuilt.ContentItem{
		govbuilt.CaseType: {item("type-1", "Permit", nil)},
	})
	svc := NewSyncService(nil, nil)
	_, err := svc.Sync(context.Background(), sess, SyncOptions{Source: src})
	require.NoError(t, err)

	ct := sess.Repos.CaseTypes.List()[0]
	ct.WorkflowID = "wf-local"
	_, err = sess.Repos.CaseTypes.Save(ct)
	require.NoError(t, err)

	_, err = svc.Sync(context.Background(), sess, SyncOptions{Source: src})
	require.NoError(t, err)
	got := sess.Repos.CaseTypes.List()
	require.Len(t, got, 1)
	assert.Equal(t, "wf-local", got[0].WorkflowID)
	assert.Equal(t, ct.ID, got[0].ID)
}

func TestSync_IsolatesFailures(t *testing.T) {
	sess := newTestSession(t)
	src := &mockSource{}
	for _, ct := range govbuilt.SyncOrder {
		switch ct {
		case govbuilt.CaseStatus:
			src.On("Fetch", mock.Anything, ct).Return(nil, appErr.New(appErr.CodeUnavailable, "remote returned 503"))
		case govbuilt.LicenseStatus:
			src.On("Fetch", mock.Anything, ct).Return([]govbuilt.ContentItem{item("ls-1", "Applied", nil)}, nil)
		default:
			src.On("Fetch", mock.Anything, ct).Return([]govbuilt.ContentItem{}, nil)
		}
	}

	report, err := NewSyncService(nil, nil).Sync(context.Background(), sess, SyncOptions{Source: src})
	require.NoError(t, err)
	require.Len(t, report.Results, len(govbuilt.SyncOrder))
	assert.Equal(t, 1, report.Failed)

	failed := resultFor(t, report, govbuilt.CaseStatus)
	assert.False(t, failed.Success)
	assert.Equal(t, string(appErr.CodeUnavailable), failed.ErrorCode)
	assert.Contains(t, failed.Error, "503")

	assert.True(t, resultFor(t, report, govbuilt.LicenseStatus).Success)
	assert.Len(t, sess.Repos.LicenseStatuses.List(), 1)
	assert.Empty(t, sess.Repos.Statuses.List())
}

func TestSync_FetchesDependencyNotYetSynced(t *testing.T) {
	sess := newTestSession(t)
	src := fixtures(map[govbuilt.ContentType][]govbuilt.ContentItem{
		govbuilt.LicenseType:    {item("lt-1", "Business", govbuilt.Fields{"CaseSubTypes": text("lsub-1")})},
		govbuilt.LicenseSubType: {item("lsub-1", "General", nil)},
	})

	report, err := NewSyncService(nil, nil).Sync(context.Background(), sess, SyncOptions{Source: src})
	require.NoError(t, err)

	lt := resultFor(t, report, govbuilt.LicenseType)
	assert.Equal(t, string(govbuilt.LicenseSubType), lt.DependencyFetched)
	assert.Empty(t, lt.Unresolved)

	subs := sess.Repos.LicenseSubTypes.List()
	require.Len(t, subs, 1)
	licenseTypes := sess.Repos.LicenseTypes.List()
	require.Len(t, licenseTypes, 1)
	assert.Equal(t, []string{subs[0].ID}, licenseTypes[0].Subtypes)

	// The dependency's own turn reuses the earlier fetch.
	ls := resultFor(t, report, govbuilt.LicenseSubType)
	assert.True(t, ls.Success)
	assert.Equal(t, 0, ls.Added)
	assert.Equal(t, 1, ls.Updated)
	src.AssertNumberOfCalls(t, "Fetch", len(govbuilt.SyncOrder))
}

func TestSync_RetriesFailedDependency(t *testing.T) {
	sess := newTestSession(t)
	src := &mockSource{}
	src.On("Fetch", mock.Anything, govbuilt.CaseSubType).Return(nil, errors.New("connection reset")).Once()
	src.On("Fetch", mock.Anything, govbuilt.CaseSubType).Return([]govbuilt.ContentItem{item("sub-a", "Residential", nil)}, nil).Once()
	src.On("Fetch", mock.Anything, govbuilt.CaseType).
		Return([]govbuilt.ContentItem{item("type-1", "Permit", govbuilt.Fields{"CaseSubTypes": text("sub-a")})}, nil)
	src.On("Fetch", mock.Anything, mock.Anything).Return([]govbuilt.ContentItem{}, nil)

	report, err := NewSyncService(nil, nil).Sync(context.Background(), sess, SyncOptions{Source: src})
	require.NoError(t, err)

	assert.False(t, resultFor(t, report, govbuilt.CaseSubType).Success)
	ct := resultFor(t, report, govbuilt.CaseType)
	assert.True(t, ct.Success)
	assert.Equal(t, string(govbuilt.CaseSubType), ct.DependencyFetched)

	subs := sess.Repos.Subtypes.List()
	require.Len(t, subs, 1)
	assert.Equal(t, []string{subs[0].ID}, sess.Repos.CaseTypes.List()[0].Subtypes)
	src.AssertExpectations(t)
}

func TestSync_ResolvesInspectionWorkflows(t *testing.T) {
	sess := newTestSession(t)
	wf := models.InspectionWorkflow{Base: models.Base{ID: "wf-local"}, Name: "Standard"}
	wf.Link("wf-remote")
	_, err := sess.Repos.InspectionWorkflows.Save(wf)
	require.NoError(t, err)

	src := fixtures(map[govbuilt.ContentType][]govbuilt.ContentItem{
		govbuilt.InspectionType: {
			item("it-1", "Footing", govbuilt.Fields{
				"WorkflowId":    map[string]any{"ContentItemIds": []any{"wf-remote"}},
				"DurationHours": map[string]any{"Value": 2.5},
			}),
			item("it-2", "Final", govbuilt.Fields{
				"WorkflowId": map[string]any{"ContentItemIds": []any{"wf-missing"}},
			}),
		},
	})

	report, err := NewSyncService(nil, nil).Sync(context.Background(), sess, SyncOptions{Source: src})
	require.NoError(t, err)

	got := sess.Repos.InspectionTypes.List()
	require.Len(t, got, 2)
	assert.Equal(t, "wf-local", got[0].WorkflowID)
	assert.Equal(t, 2.5, got[0].DurationHours)
	assert.Empty(t, got[1].WorkflowID)
	assert.Equal(t, 1.0, got[1].DurationHours)
	assert.Equal(t, []string{"wf-missing"}, resultFor(t, report, govbuilt.InspectionType).Unresolved)
}

func TestSync_ReportsProgress(t *testing.T) {
	sess := newTestSession(t)
	src := fixtures(nil)

	var events []SyncProgress
	_, err := NewSyncService(nil, nil).Sync(context.Background(), sess, SyncOptions{
		Source: src,
		Progress: func(p SyncProgress) {
			events = append(events, p)
			if p.Index == 2 {
				panic("subscriber bug")
			}
		},
	})
	require.NoError(t, err)

	require.Len(t, events, len(govbuilt.SyncOrder)+1)
	assert.Equal(t, string(govbuilt.CaseStatus), events[0].ContentType)
	assert.Equal(t, 1, events[0].Index)
	last := events[len(events)-1]
	assert.True(t, last.Done)
	assert.Equal(t, "Complete", last.ContentType)
	assert.Equal(t, len(govbuilt.SyncOrder), last.Total)
}

func TestSync_WritesDocumentOnce(t *testing.T) {
	sess := newTestSession(t)
	before := sess.Document().Version()
	src := fixtures(map[govbuilt.ContentType][]govbuilt.ContentItem{
		govbuilt.CaseStatus: {item("st-1", "Draft", nil)},
	})
	_, err := NewSyncService(nil, nil).Sync(context.Background(), sess, SyncOptions{Source: src})
	require.NoError(t, err)
	assert.NotEqual(t, before, sess.Document().Version())

	reopened, err := OpenSession(store.OSFileSystem{}, sess.Dir())
	require.NoError(t, err)
	require.Len(t, reopened.Repos.Statuses.List(), 1)
	assert.Equal(t, "st-1", reopened.Repos.Statuses.List()[0].RemoteID())
}

func TestSync_FromFixtureFile(t *testing.T) {
	sess := newTestSession(t)
	src, err := govbuilt.LoadFileSource("../govbuilt/testdata/mock.yaml")
	require.NoError(t, err)

	report, err := NewSyncService(nil, nil).Sync(context.Background(), sess, SyncOptions{Source: src})
	require.NoError(t, err)
	assert.Zero(t, report.Failed)

	b := sess.Document().Build()
	assert.Len(t, b.Statuses, 3)
	assert.Len(t, b.LicenseStatuses, 2)
	assert.Len(t, b.Subtypes, 2)
	assert.Len(t, b.LicenseSubTypes, 2)
	assert.Len(t, *b.AccountingDetails(), 2)
	require.Len(t, b.CaseTypes, 2)

	permit := b.CaseTypes[0]
	assert.Equal(t, "Permit Application", permit.Title)
	assert.Equal(t, "PA-", permit.Prefix)
	require.Len(t, permit.Subtypes, 1)
	st, err := sess.Repos.Subtypes.Get(permit.Subtypes[0])
	require.NoError(t, err)
	assert.Equal(t, "Building Permit", st.Name)
	assert.Equal(t, []string{"retired-subtype"}, resultFor(t, report, govbuilt.CaseType).Unresolved)

	assert.False(t, b.CaseTypes[1].AutoNumber)
	assert.True(t, b.CaseTypes[1].AutoLicense)
	assert.Equal(t, "1001", (*b.AccountingDetails())[0].GLKey)
	assert.Equal(t, string(govbuilt.LicenseSubType), resultFor(t, report, govbuilt.LicenseType).DependencyFetched)
}

func TestSync_RecordsHistory(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.SyncRun{}))
	svc := NewSyncService(nil, repository.NewSyncRunRepository(db))

	sess := newTestSession(t)
	report, err := svc.Sync(context.Background(), sess, SyncOptions{Source: fixtures(nil), Trigger: "cli"})
	require.NoError(t, err)
	assert.NotEmpty(t, report.RunID)

	runs, err := svc.History(context.Background(), sess.Dir(), 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "cli", runs[0].Trigger)
	assert.Equal(t, len(govbuilt.SyncOrder), runs[0].Succeeded)
	assert.Equal(t, report.RunID, runs[0].ID.String())
}

func TestHistory_WithoutStore(t *testing.T) {
	runs, err := NewSyncService(nil, nil).History(context.Background(), "/x", 5)
	require.NoError(t, err)
	assert.Empty(t, runs)
}

func TestProgressHub(t *testing.T) {
	hub := NewProgressHub()
	ch, cancel := hub.Subscribe()

	hub.Publish(SyncProgress{ContentType: "CaseStatus", Index: 1, Total: 8})
	got := <-ch
	assert.Equal(t, "CaseStatus", got.ContentType)

	// A full buffer drops updates instead of blocking.
	for i := 0; i < 64; i++ {
		hub.Publish(SyncProgress{Index: i})
	}
	cancel()
	cancel()
	n := 0
	for range ch {
		n++
	}
	assert.LessOrEqual(t, n, 16)
}
