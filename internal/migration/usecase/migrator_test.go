package usecase

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"url-migrator/internal/migration/config"
	"url-migrator/internal/migration/domain/model"
	apperrors "url-migrator/internal/shared/errors"
	"url-migrator/internal/shared/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
)

const (
	oldURL = "http://OLD"
	newURL = "https://NEW"
)

type updateCall struct {
	collection string
	id         interface{}
	set        bson.M
}

// mockStore implements repository.DocumentStore in memory. Updates are
// applied to the stored documents so consecutive cycles behave like a real
// store: once rewritten, a document no longer matches the candidate query.
type mockStore struct {
	mu              sync.Mutex
	docs            map[string][]bson.M
	findErr         map[string]error
	updateErr       map[string]error
	failUpdateAfter int // fail the update after this many successes, -1 to disable
	noModify        bool
	findCalls       map[string]int
	updates         []updateCall
}

func newMockStore() *mockStore {
	return &mockStore{
		docs:            make(map[string][]bson.M),
		findErr:         make(map[string]error),
		updateErr:       make(map[string]error),
		failUpdateAfter: -1,
		findCalls:       make(map[string]int),
	}
}

func copyDoc(doc bson.M) bson.M {
	out := make(bson.M, len(doc))
	for k, v := range doc {
		out[k] = v
	}
	return out
}

func (s *mockStore) findCallCount(collection string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.findCalls[collection]
}

func (s *mockStore) FindCandidates(ctx context.Context, collection string, fields []string, oldPrefix string) ([]bson.M, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.findCalls[collection]++
	if err := s.findErr[collection]; err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var out []bson.M
	for _, doc := range s.docs[collection] {
		for _, field := range fields {
			if v, ok := doc[field].(string); ok && strings.Contains(strings.ToLower(v), strings.ToLower(oldPrefix)) {
				out = append(out, copyDoc(doc))
				break
			}
		}
	}
	return out, nil
}

func (s *mockStore) UpdateDocument(ctx context.Context, collection string, id interface{}, set bson.M) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.updateErr[collection]; err != nil {
		return false, err
	}
	if s.failUpdateAfter >= 0 && len(s.updates) >= s.failUpdateAfter {
		return false, apperrors.NewUpdateError("update document")
	}

	s.updates = append(s.updates, updateCall{collection: collection, id: id, set: copyDoc(set)})
	if s.noModify {
		return false, nil
	}

	modified := false
	for _, doc := range s.docs[collection] {
		if doc["_id"] != id {
			continue
		}
		for k, v := range set {
			if current, ok := doc[k]; !ok || current != v {
				doc[k] = v
				modified = true
			}
		}
	}
	return modified, nil
}

func (s *mockStore) Ping(ctx context.Context) error { return nil }

func (s *mockStore) Close(ctx context.Context) error { return nil }

func testConfig() *config.Config {
	return &config.Config{
		OldURL:              oldURL,
		NewURL:              newURL,
		PollIntervalSeconds: 1,
		QueryTimeout:        time.Second,
		UpdateTimeout:       time.Second,
	}
}

func newTestMigrator(store *mockStore) *Migrator {
	targets := model.DefaultTargets("imageUrl", "userUploadedClothes")
	m := NewMigrator(store, testConfig(), targets, logger.NewLogger())
	m.now = func() time.Time {
		return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	}
	return m
}

func TestRewriteFields_ReplacesAllOccurrences(t *testing.T) {
	m := newTestMigrator(newMockStore())

	doc := bson.M{"minioUrl": "http://OLD/a.png http://OLD/b.png"}
	set, changed := m.RewriteFields(doc, []string{"minioUrl"})

	assert.True(t, changed)
	assert.Equal(t, "https://NEW/a.png https://NEW/b.png", set["minioUrl"])
	assert.Equal(t, "https://NEW/a.png https://NEW/b.png", doc["minioUrl"])
}

func TestRewriteFields_IdempotentOnMigratedDocument(t *testing.T) {
	m := newTestMigrator(newMockStore())

	doc := bson.M{"minioUrl": "https://NEW/a.png", "s3Url": "https://NEW/b.png"}
	set, changed := m.RewriteFields(doc, []string{"minioUrl", "s3Url"})

	assert.False(t, changed)
	assert.Empty(t, set)
}

func TestRewriteFields_SkipsMissingNilAndNonString(t *testing.T) {
	m := newTestMigrator(newMockStore())

	doc := bson.M{
		"minioUrl":       nil,
		"s3Url":          42,
		"minioUrlOracle": "http://OLD/c.png",
		"unrelated":      "http://OLD/d.png",
	}
	set, changed := m.RewriteFields(doc, []string{"minioUrl", "s3Url", "minioUrlOracle", "minioUrlThinker"})

	assert.True(t, changed)
	require.Len(t, set, 1)
	assert.Equal(t, "https://NEW/c.png", set["minioUrlOracle"])
	assert.Nil(t, doc["minioUrl"])
	assert.Equal(t, 42, doc["s3Url"])
	assert.Equal(t, "http://OLD/d.png", doc["unrelated"])
}

func TestProcessTarget_RewritesMatchingDocument(t *testing.T) {
	store := newMockStore()
	store.docs["imageUrl"] = []bson.M{
		{"_id": 1, "minioUrl": "http://OLD/x.png", "s3Url": "http://OLD/y.png"},
	}
	m := newTestMigrator(store)

	n := m.processTarget(context.Background(), m.targets[0])

	assert.Equal(t, int64(1), n)
	require.Len(t, store.updates, 1)
	assert.Equal(t, "https://NEW/x.png", store.updates[0].set["minioUrl"])
	assert.Equal(t, "https://NEW/y.png", store.updates[0].set["s3Url"])
	assert.Equal(t, int64(1), m.Stats().Updated[model.TargetGroundTruth])
}

func TestProcessTarget_PayloadHasOnlyChangedFieldsAndNoIdentifier(t *testing.T) {
	store := newMockStore()
	store.docs["imageUrl"] = []bson.M{
		{"_id": 1, "minioUrl": "http://OLD/x.png", "s3Url": "https://NEW/y.png", "label": "shirt"},
	}
	m := newTestMigrator(store)

	m.processTarget(context.Background(), m.targets[0])

	require.Len(t, store.updates, 1)
	set := store.updates[0].set
	assert.NotContains(t, set, "_id")
	assert.NotContains(t, set, "label")
	assert.NotContains(t, set, "s3Url")
	require.Len(t, set, 1)
	assert.Equal(t, "https://NEW/x.png", set["minioUrl"])
}

func TestProcessTarget_StampsUpdatedAtForUserClothesOnly(t *testing.T) {
	store := newMockStore()
	store.docs["imageUrl"] = []bson.M{
		{"_id": "gt1", "minioUrl": "http://OLD/x.png"},
	}
	store.docs["userUploadedClothes"] = []bson.M{
		{"_id": "uc1", "imageUrl": "http://OLD/y.png"},
	}
	m := newTestMigrator(store)

	m.RunCycle(context.Background())

	require.Len(t, store.updates, 2)
	for _, call := range store.updates {
		switch call.collection {
		case "imageUrl":
			assert.NotContains(t, call.set, model.UpdatedAtField)
		case "userUploadedClothes":
			assert.Equal(t, time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC), call.set[model.UpdatedAtField])
		default:
			t.Fatalf("unexpected collection %q", call.collection)
		}
	}
}

func TestProcessTarget_NonMatchingDocumentNeverUpdated(t *testing.T) {
	store := newMockStore()
	store.docs["imageUrl"] = []bson.M{
		{"_id": 1, "minioUrl": "https://NEW/x.png"},
		{"_id": 2, "note": "no urls here"},
	}
	m := newTestMigrator(store)

	n := m.processTarget(context.Background(), m.targets[0])

	assert.Equal(t, int64(0), n)
	assert.Empty(t, store.updates)
	assert.Equal(t, int64(0), m.Stats().Updated[model.TargetGroundTruth])
}

func TestProcessTarget_UnmodifiedUpdateNotCounted(t *testing.T) {
	store := newMockStore()
	store.docs["imageUrl"] = []bson.M{
		{"_id": 1, "minioUrl": "http://OLD/x.png"},
	}
	store.noModify = true
	m := newTestMigrator(store)

	n := m.processTarget(context.Background(), m.targets[0])

	assert.Equal(t, int64(0), n)
	assert.Equal(t, int64(0), m.Stats().Updated[model.TargetGroundTruth])
	assert.Equal(t, int64(0), m.Stats().Errors)
}

func TestProcessTarget_QueryFailure(t *testing.T) {
	store := newMockStore()
	store.findErr["imageUrl"] = apperrors.NewQueryError("query candidates")
	m := newTestMigrator(store)

	n := m.processTarget(context.Background(), m.targets[0])

	assert.Equal(t, int64(0), n)
	assert.Equal(t, int64(1), m.Stats().Errors)
}

func TestProcessTarget_UpdateFailureAbandonsRemainder(t *testing.T) {
	store := newMockStore()
	store.docs["imageUrl"] = []bson.M{
		{"_id": 1, "minioUrl": "http://OLD/a.png"},
		{"_id": 2, "minioUrl": "http://OLD/b.png"},
		{"_id": 3, "minioUrl": "http://OLD/c.png"},
	}
	store.failUpdateAfter = 1
	m := newTestMigrator(store)

	n := m.processTarget(context.Background(), m.targets[0])

	assert.Equal(t, int64(0), n)
	require.Len(t, store.updates, 1)
	assert.Equal(t, int64(1), m.Stats().Errors)
	assert.Equal(t, int64(0), m.Stats().Updated[model.TargetGroundTruth])
}

func TestRunCycle_TargetFailureDomainsAreIndependent(t *testing.T) {
	store := newMockStore()
	store.findErr["imageUrl"] = apperrors.NewQueryError("query candidates")
	store.docs["userUploadedClothes"] = []bson.M{
		{"_id": "uc1", "imageUrl": "http://OLD/y.png"},
	}
	m := newTestMigrator(store)

	m.RunCycle(context.Background())

	stats := m.Stats()
	assert.Equal(t, int64(1), stats.Errors)
	assert.Equal(t, int64(1), stats.Updated[model.TargetUserClothes])
	assert.Equal(t, 1, store.findCalls["userUploadedClothes"])
}

func TestRunCycle_SecondCycleFindsNothing(t *testing.T) {
	store := newMockStore()
	store.docs["imageUrl"] = []bson.M{
		{"_id": 1, "minioUrl": "http://OLD/x.png"},
	}
	store.docs["userUploadedClothes"] = []bson.M{
		{"_id": "uc1", "imageUrl": "http://OLD/y.png"},
	}
	m := newTestMigrator(store)

	m.RunCycle(context.Background())
	first := m.Stats()
	m.RunCycle(context.Background())
	second := m.Stats()

	assert.Equal(t, int64(1), first.Updated[model.TargetGroundTruth])
	assert.Equal(t, int64(1), first.Updated[model.TargetUserClothes])
	// No double counting once all matches are resolved.
	assert.Equal(t, first.Updated, second.Updated)
	assert.Len(t, store.updates, 2)
}

func TestRunCycle_MarksLastCheck(t *testing.T) {
	m := newTestMigrator(newMockStore())

	m.RunCycle(context.Background())

	assert.Equal(t, time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC), m.Stats().LastCheck)
}

func TestRunCycleSafe_RecoversPanic(t *testing.T) {
	store := newMockStore()
	m := newTestMigrator(store)
	m.now = func() time.Time { panic("clock exploded") }

	assert.NotPanics(t, func() {
		m.runCycleSafe(context.Background())
	})
	assert.Equal(t, int64(1), m.stats.Errors)
}

func TestRun_StopsOnCancelDuringSleep(t *testing.T) {
	store := newMockStore()
	m := newTestMigrator(store)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- m.Run(ctx)
	}()

	// Let the first cycle complete, then interrupt at the sleep point.
	require.Eventually(t, func() bool {
		return store.findCallCount("imageUrl") >= 1
	}, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Run did not stop after cancellation")
	}

	// No further queries after shutdown.
	calls := store.findCallCount("imageUrl")
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, calls, store.findCallCount("imageUrl"))
}
