package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/avelichko/shelfdrive/internal/common"
	"github.com/avelichko/shelfdrive/internal/server/models"
	"github.com/avelichko/shelfdrive/internal/server/repositories/records"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testClock hands out strictly increasing timestamps so recency ordering
// is deterministic.
type testClock struct {
	t time.Time
}

func (c *testClock) next() time.Time {
	c.t = c.t.Add(time.Second)
	return c.t
}

func newTestService() (*RecordService, *records.MemoryRepository, *testClock) {
	repo := records.NewMemoryRepository()
	svc := NewRecordService(repo)
	clock := &testClock{t: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	svc.now = clock.next
	return svc, repo, clock
}

func mustCreate(t *testing.T, svc *RecordService, owner, title string, p CreateParams) *models.FileRecord {
	t.Helper()
	if p.Title == "" {
		p.Title = title
	}
	if p.Author == "" {
		p.Author = "Alice"
	}
	rec, err := svc.Create(context.Background(), owner, p)
	require.NoError(t, err)
	return rec
}

// requireInvariant checks that the trashed state and the deletion
// timestamp can never drift apart.
func requireInvariant(t *testing.T, rec *models.FileRecord) {
	t.Helper()
	if rec.State() == models.StateTrashed {
		require.NotNil(t, rec.DeletedAt)
	} else {
		require.Nil(t, rec.DeletedAt)
	}
}

func viewIDs(t *testing.T, svc *RecordService, caller string, view View) []string {
	t.Helper()
	recs, err := svc.ListView(context.Background(), caller, view)
	require.NoError(t, err)
	ids := make([]string, 0, len(recs))
	for _, r := range recs {
		ids = append(ids, r.ID)
	}
	return ids
}

func TestCreate_Defaults(t *testing.T) {
	svc, _, _ := newTestService()

	rec := mustCreate(t, svc, "u1", "Report", CreateParams{})

	assert.Equal(t, "u1", rec.OwnerID)
	assert.Equal(t, models.StateActive, rec.State())
	assert.Equal(t, models.VisibilityPrivate, rec.Visibility)
	assert.False(t, rec.Starred)
	assert.Nil(t, rec.Blob)
	requireInvariant(t, rec)
}

func TestCreate_Validation(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	_, err := svc.Create(ctx, "u1", CreateParams{Title: "", Author: "Alice"})
	require.ErrorIs(t, err, common.ErrorValidation)

	_, err = svc.Create(ctx, "u1", CreateParams{Title: "Report", Author: "   "})
	require.ErrorIs(t, err, common.ErrorValidation)

	_, err = svc.Create(ctx, "", CreateParams{Title: "Report", Author: "Alice"})
	require.ErrorIs(t, err, common.ErrorForbidden)
}

func TestMalformedID_RejectedBeforeLookup(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	_, err := svc.Get(ctx, "u1", "not-a-uuid")
	require.ErrorIs(t, err, common.ErrorValidation)

	require.ErrorIs(t, svc.Trash(ctx, "u1", "42"), common.ErrorValidation)
	require.ErrorIs(t, svc.Purge(ctx, "u1", ""), common.ErrorValidation)
}

func TestTrashRestore_Scenario(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	rec := mustCreate(t, svc, "u1", "Report", CreateParams{})
	require.Contains(t, viewIDs(t, svc, "u1", ViewMyFiles), rec.ID)

	require.NoError(t, svc.Trash(ctx, "u1", rec.ID))
	assert.NotContains(t, viewIDs(t, svc, "u1", ViewMyFiles), rec.ID)
	assert.Contains(t, viewIDs(t, svc, "u1", ViewTrash), rec.ID)

	trashed, err := svc.ListView(ctx, "u1", ViewTrash)
	require.NoError(t, err)
	require.NotNil(t, trashed[0].DeletedAt)
	requireInvariant(t, trashed[0])

	restored, err := svc.Restore(ctx, "u1", rec.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StateActive, restored.State())
	assert.Nil(t, restored.DeletedAt)
	requireInvariant(t, restored)

	assert.Contains(t, viewIDs(t, svc, "u1", ViewMyFiles), rec.ID)
	assert.Empty(t, viewIDs(t, svc, "u1", ViewTrash))
}

func TestTrashRestore_Idempotent(t *testing.T) {
	svc, repo, _ := newTestService()
	ctx := context.Background()

	rec := mustCreate(t, svc, "u1", "Report", CreateParams{})

	require.NoError(t, svc.Trash(ctx, "u1", rec.ID))
	require.NoError(t, svc.Trash(ctx, "u1", rec.ID), "trashing twice must not error")

	got, err := repo.GetByID(ctx, rec.ID)
	require.NoError(t, err)
	require.Equal(t, models.StateTrashed, got.State())

	_, err = svc.Restore(ctx, "u1", rec.ID)
	require.NoError(t, err)
	_, err = svc.Restore(ctx, "u1", rec.ID)
	require.NoError(t, err, "restoring twice must not error")

	got, err = repo.GetByID(ctx, rec.ID)
	require.NoError(t, err)
	require.Equal(t, models.StateActive, got.State())
	requireInvariant(t, got)
}

func TestPurge_RemovesFromEveryView(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	rec := mustCreate(t, svc, "u1", "Report", CreateParams{Public: true})
	_, err := svc.ToggleStar(ctx, "u1", rec.ID)
	require.NoError(t, err)
	_, err = svc.Get(ctx, "u1", rec.ID)
	require.NoError(t, err)

	require.NoError(t, svc.Purge(ctx, "u1", rec.ID))

	for _, view := range []View{ViewMyFiles, ViewStarred, ViewRecent, ViewTrash} {
		assert.NotContains(t, viewIDs(t, svc, "u1", view), rec.ID, "view %s", view)
	}
	assert.NotContains(t, viewIDs(t, svc, "", ViewPublic), rec.ID)
	assert.NotContains(t, viewIDs(t, svc, "u2", ViewPublic), rec.ID)
}

func TestPurge_IsTerminal(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	rec := mustCreate(t, svc, "u1", "Report", CreateParams{})
	require.NoError(t, svc.Purge(ctx, "u1", rec.ID))

	_, err := svc.Restore(ctx, "u1", rec.ID)
	require.ErrorIs(t, err, common.ErrorNotFound)

	require.ErrorIs(t, svc.Purge(ctx, "u1", rec.ID), common.ErrorNotFound,
		"second purge has nothing to act on")

	_, err = svc.Get(ctx, "u1", rec.ID)
	require.ErrorIs(t, err, common.ErrorNotFound)
}

func TestPurge_AllowedFromActiveState(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	rec := mustCreate(t, svc, "u1", "Report", CreateParams{})
	// no trash first; permanent delete straight from Active is permitted
	require.NoError(t, svc.Purge(ctx, "u1", rec.ID))
}

func TestToggleStar_FlipsExactlyOnce(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	rec := mustCreate(t, svc, "u1", "Report", CreateParams{})

	starred, err := svc.ToggleStar(ctx, "u1", rec.ID)
	require.NoError(t, err)
	assert.True(t, starred)
	assert.Contains(t, viewIDs(t, svc, "u1", ViewStarred), rec.ID)

	starred, err = svc.ToggleStar(ctx, "u1", rec.ID)
	require.NoError(t, err)
	assert.False(t, starred, "two toggles return to the original value")
	assert.NotContains(t, viewIDs(t, svc, "u1", ViewStarred), rec.ID)
}

func TestToggleStar_IndependentOfLifecycle(t *testing.T) {
	svc, repo, _ := newTestService()
	ctx := context.Background()

	rec := mustCreate(t, svc, "u1", "Report", CreateParams{})
	require.NoError(t, svc.Trash(ctx, "u1", rec.ID))

	starred, err := svc.ToggleStar(ctx, "u1", rec.ID)
	require.NoError(t, err)
	assert.True(t, starred, "starring works while trashed")

	got, err := repo.GetByID(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StateTrashed, got.State(), "starring must not change lifecycle")
}

func TestForeignCaller_AlwaysForbidden(t *testing.T) {
	svc, repo, _ := newTestService()
	ctx := context.Background()

	rec := mustCreate(t, svc, "u1", "Report", CreateParams{})

	title := "Stolen"
	require.ErrorIs(t, svc.Trash(ctx, "u2", rec.ID), common.ErrorForbidden)
	_, err := svc.Restore(ctx, "u2", rec.ID)
	require.ErrorIs(t, err, common.ErrorForbidden)
	require.ErrorIs(t, svc.Purge(ctx, "u2", rec.ID), common.ErrorForbidden)
	_, err = svc.ToggleStar(ctx, "u2", rec.ID)
	require.ErrorIs(t, err, common.ErrorForbidden)
	_, err = svc.Update(ctx, "u2", rec.ID, UpdateParams{Title: &title})
	require.ErrorIs(t, err, common.ErrorForbidden)

	// nothing partially applied
	got, err := repo.GetByID(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, "Report", got.Title)
	assert.Equal(t, models.StateActive, got.State())
	assert.False(t, got.Starred)
}

func TestGet_PublicOrOwnerRule(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	private := mustCreate(t, svc, "u1", "Private", CreateParams{})
	public := mustCreate(t, svc, "u1", "Public", CreateParams{Public: true})

	_, err := svc.Get(ctx, "u1", private.ID)
	require.NoError(t, err)

	_, err = svc.Get(ctx, "u2", private.ID)
	require.ErrorIs(t, err, common.ErrorForbidden)

	_, err = svc.Get(ctx, "u2", public.ID)
	require.NoError(t, err)

	// anonymous read of a public record is allowed
	_, err = svc.Get(ctx, "", public.ID)
	require.NoError(t, err)
}

func TestGet_TrashedResolvesAsNotFound(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	rec := mustCreate(t, svc, "u1", "Report", CreateParams{})
	require.NoError(t, svc.Trash(ctx, "u1", rec.ID))

	_, err := svc.Get(ctx, "u1", rec.ID)
	require.ErrorIs(t, err, common.ErrorNotFound, "trashed records stay hidden until restored")
}

func TestGet_RecordsAccessForAuthenticatedCallers(t *testing.T) {
	svc, repo, _ := newTestService()
	ctx := context.Background()

	rec := mustCreate(t, svc, "u1", "Report", CreateParams{Public: true})
	before, err := repo.GetByID(ctx, rec.ID)
	require.NoError(t, err)

	// anonymous read leaves recency alone
	_, err = svc.Get(ctx, "", rec.ID)
	require.NoError(t, err)
	after, err := repo.GetByID(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, before.LastAccessedAt, after.LastAccessedAt)

	// authenticated read stamps it
	got, err := svc.Get(ctx, "u2", rec.ID)
	require.NoError(t, err)
	assert.True(t, got.LastAccessedAt.After(before.LastAccessedAt))

	after, err = repo.GetByID(ctx, rec.ID)
	require.NoError(t, err)
	assert.True(t, after.LastAccessedAt.After(before.LastAccessedAt))
	assert.Equal(t, before.UpdatedAt, after.UpdatedAt, "reading is not editing")
}

func TestPublicView_NeverLeaksPrivateOrTrashed(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	mustCreate(t, svc, "u1", "Private", CreateParams{})
	trashedPublic := mustCreate(t, svc, "u1", "Trashed public", CreateParams{Public: true})
	visible := mustCreate(t, svc, "u1", "Visible", CreateParams{Public: true})
	require.NoError(t, svc.Trash(ctx, "u1", trashedPublic.ID))

	ids := viewIDs(t, svc, "u2", ViewPublic)
	assert.Equal(t, []string{visible.ID}, ids)
}

func TestRecentView_LimitAndOrder(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	var ids []string
	for i := 0; i < 25; i++ {
		rec := mustCreate(t, svc, "u1", fmt.Sprintf("File %02d", i), CreateParams{})
		ids = append(ids, rec.ID)
	}
	// access them in order; later accesses are more recent
	for _, id := range ids {
		_, err := svc.Get(ctx, "u1", id)
		require.NoError(t, err)
	}

	recent, err := svc.ListView(ctx, "u1", ViewRecent)
	require.NoError(t, err)
	require.Len(t, recent, 20, "recent view never exceeds 20 entries")

	for i := 1; i < len(recent); i++ {
		assert.False(t, recent[i-1].LastAccessedAt.Before(recent[i].LastAccessedAt),
			"recent view must be sorted by last access, newest first")
	}
	assert.Equal(t, ids[len(ids)-1], recent[0].ID)
}

func TestStarredView_SortedByUpdateDesc(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	first := mustCreate(t, svc, "u1", "First", CreateParams{})
	second := mustCreate(t, svc, "u1", "Second", CreateParams{})

	_, err := svc.ToggleStar(ctx, "u1", first.ID)
	require.NoError(t, err)
	time.Sleep(2 * time.Millisecond)
	_, err = svc.ToggleStar(ctx, "u1", second.ID)
	require.NoError(t, err)

	ids := viewIDs(t, svc, "u1", ViewStarred)
	require.Equal(t, []string{second.ID, first.ID}, ids)
}

func TestListView_GuardsAndUnknownViews(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	_, err := svc.ListView(ctx, "", ViewMyFiles)
	require.ErrorIs(t, err, common.ErrorForbidden)

	_, err = svc.ListView(ctx, "u1", View("everything"))
	require.ErrorIs(t, err, common.ErrorValidation)

	_, err = svc.ListView(ctx, "", ViewPublic)
	require.NoError(t, err, "public view works for anonymous callers")
}

func TestUpdate_RenameValidation(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	rec := mustCreate(t, svc, "u1", "Report", CreateParams{})

	empty := "  "
	_, err := svc.Update(ctx, "u1", rec.ID, UpdateParams{Title: &empty})
	require.ErrorIs(t, err, common.ErrorValidation)

	newTitle := "Annual Report"
	updated, err := svc.Update(ctx, "u1", rec.ID, UpdateParams{Title: &newTitle})
	require.NoError(t, err)
	assert.Equal(t, "Annual Report", updated.Title)
}

func TestAttachBlob_LeavesLifecycleAndStarAlone(t *testing.T) {
	svc, repo, _ := newTestService()
	ctx := context.Background()

	rec := mustCreate(t, svc, "u1", "Report", CreateParams{})
	_, err := svc.ToggleStar(ctx, "u1", rec.ID)
	require.NoError(t, err)

	updated, err := svc.AttachBlob(ctx, "u1", rec.ID, models.BlobRef{
		URL:          "https://storage/objects/abc",
		OriginalName: "report.pdf",
	})
	require.NoError(t, err)
	require.NotNil(t, updated.Blob)
	assert.Equal(t, "report.pdf", updated.Blob.OriginalName)

	got, err := repo.GetByID(ctx, rec.ID)
	require.NoError(t, err)
	assert.True(t, got.Starred)
	assert.Equal(t, models.StateActive, got.State())
}
