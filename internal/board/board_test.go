package board

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/sujalbistaa/pinboard/internal/models"
)

func mounted(t *testing.T, api *fakeAPI) *Board {
	t.Helper()
	b := New()
	if err := b.Mount(context.Background(), api); err != nil {
		t.Fatalf("mount: %v", err)
	}
	return b
}

func TestMountFetchesWithDefaults(t *testing.T) {
	api := newFakeAPI(samplePost(1, "first", "a", 1), samplePost(2, "second", "b", 2))
	b := mounted(t, api)

	if diff := cmp.Diff([]models.ListQuery{models.DefaultListQuery()}, api.lists); diff != "" {
		t.Fatalf("list calls mismatch (-want +got):\n%s", diff)
	}
	if b.Shell.Loading {
		t.Fatalf("loading not cleared")
	}
	items := b.Items()
	if len(items) != 2 || items[0].Post.ID != 2 {
		t.Fatalf("expected newest first, got %+v", items)
	}

	if err := b.Mount(context.Background(), api); err != nil {
		t.Fatalf("second mount: %v", err)
	}
	if len(api.lists) != 1 {
		t.Fatalf("mount fetched twice")
	}
}

func TestInitialFetchFailureShowsBannerOnly(t *testing.T) {
	api := newFakeAPI(samplePost(1, "first", "a", 1))
	api.failList = true
	b := New()
	if err := b.Mount(context.Background(), api); err == nil {
		t.Fatalf("expected fetch error")
	}

	if b.Shell.Error != MsgLoadFailed {
		t.Fatalf("error = %q", b.Shell.Error)
	}
	if b.Shell.Loading {
		t.Fatalf("loading not cleared after failure")
	}
	if len(b.Items()) != 0 {
		t.Fatalf("cards rendered after failure")
	}
	if b.Shell.ShowEmpty() {
		t.Fatalf("empty state shown together with the error banner")
	}
}

func TestEmptyStateOnlyWithoutError(t *testing.T) {
	b := mounted(t, newFakeAPI())
	if !b.Shell.ShowEmpty() {
		t.Fatalf("expected empty state")
	}
}

func TestLoadingSuppressesList(t *testing.T) {
	b := mounted(t, newFakeAPI(samplePost(1, "a", "b", 1)))
	b.BeginFetch()
	if !b.Shell.ShowLoading() || b.Shell.ShowEmpty() {
		t.Fatalf("expected loading state only")
	}
}

func TestStaleFetchIsDropped(t *testing.T) {
	b := New()
	first, _ := b.BeginFetch()
	second, _ := b.BeginFetch()

	b.FinishFetch(second, []models.Post{samplePost(2, "new", "x", 2)}, nil)
	b.FinishFetch(first, []models.Post{samplePost(1, "old", "x", 1)}, nil)

	if len(b.Shell.Posts) != 1 || b.Shell.Posts[0].ID != 2 {
		t.Fatalf("stale result applied: %+v", b.Shell.Posts)
	}
}

func TestSearchTrimsAndRejectsLongTerms(t *testing.T) {
	api := newFakeAPI(samplePost(1, "golang tips", "a", 1), samplePost(2, "cooking", "b", 2))
	b := mounted(t, api)
	ctx := context.Background()

	if err := b.Search(ctx, api, "  golang "); err != nil {
		t.Fatalf("search: %v", err)
	}
	if got := api.lists[len(api.lists)-1].Search; got != "golang" {
		t.Fatalf("search sent %q", got)
	}
	if len(b.Shell.Posts) != 1 {
		t.Fatalf("expected one match, got %d", len(b.Shell.Posts))
	}

	calls := api.calls()
	if err := b.Search(ctx, api, strings.Repeat("x", 101)); err != nil {
		t.Fatalf("search: %v", err)
	}
	if api.calls() != calls {
		t.Fatalf("rejected search issued a request")
	}
	if b.Shell.SearchError != MsgSearchTooLong {
		t.Fatalf("search error = %q", b.Shell.SearchError)
	}
	if len(b.Shell.Posts) != 1 || b.Shell.Posts[0].ID != 1 {
		t.Fatalf("previous results not kept: %+v", b.Shell.Posts)
	}

	if err := b.Search(ctx, api, ""); err != nil {
		t.Fatalf("search: %v", err)
	}
	if b.Shell.SearchError != "" {
		t.Fatalf("search error not cleared")
	}
	if len(b.Shell.Posts) != 2 {
		t.Fatalf("expected all posts after clearing search")
	}
}

func TestMutationRefetchUsesActiveSearchNotRejectedInput(t *testing.T) {
	api := newFakeAPI(samplePost(1, "golang", "a", 1))
	b := mounted(t, api)
	ctx := context.Background()

	_ = b.Search(ctx, api, "golang")
	_ = b.Search(ctx, api, strings.Repeat("x", 150))
	b.Create.Expand()
	if err := b.CreatePost(ctx, api, "golang news", "body"); err != nil {
		t.Fatalf("create: %v", err)
	}

	last := api.lists[len(api.lists)-1]
	if last.Search != "golang" {
		t.Fatalf("re-fetch used %q", last.Search)
	}
}

func TestSortChangeRefetchesEachTime(t *testing.T) {
	api := newFakeAPI(samplePost(1, "b", "x", 1), samplePost(2, "a", "y", 2))
	b := mounted(t, api)
	ctx := context.Background()

	_ = b.Sort(ctx, api, "sortOrder", "asc")
	_ = b.Sort(ctx, api, "sortBy", "title")
	_ = b.Sort(ctx, api, "bogus", "x")

	want := []models.ListQuery{
		{SortBy: "created_at", SortOrder: "desc"},
		{SortBy: "created_at", SortOrder: "asc"},
		{SortBy: "title", SortOrder: "asc"},
	}
	if diff := cmp.Diff(want, api.lists); diff != "" {
		t.Fatalf("list calls mismatch (-want +got):\n%s", diff)
	}
	if b.Shell.Posts[0].Title != "a" {
		t.Fatalf("expected title order, got %+v", b.Shell.Posts)
	}
}

func TestCreateHelloWorld(t *testing.T) {
	api := newFakeAPI()
	b := mounted(t, api)
	b.Create.Expand()

	if err := b.CreatePost(context.Background(), api, "Hello", "World"); err != nil {
		t.Fatalf("create: %v", err)
	}

	if diff := cmp.Diff(CreateForm{}, b.Create); diff != "" {
		t.Fatalf("form not reset (-want +got):\n%s", diff)
	}
	if len(api.lists) != 2 {
		t.Fatalf("expected re-fetch after create, got %d list calls", len(api.lists))
	}
	items := b.Items()
	if len(items) != 1 || items[0].Post.Title != "Hello" {
		t.Fatalf("new post not listed: %+v", items)
	}
	if items[0].Post.Edited() {
		t.Fatalf("new post reports an update")
	}
}

func TestCreateValidationMakesNoRequest(t *testing.T) {
	api := newFakeAPI()
	b := mounted(t, api)
	b.Create.Expand()
	calls := api.calls()

	_ = b.CreatePost(context.Background(), api, "  ", "")

	if api.calls() != calls {
		t.Fatalf("invalid create issued a request")
	}
	want := FieldErrors{Title: MsgTitleRequired, Content: MsgContentRequired}
	if diff := cmp.Diff(want, b.Create.Errors); diff != "" {
		t.Fatalf("errors mismatch (-want +got):\n%s", diff)
	}
	if !b.Create.Open || b.Create.Submitting {
		t.Fatalf("form state after validation failure: %+v", b.Create)
	}
}

func TestCreateFailureKeepsValues(t *testing.T) {
	api := newFakeAPI()
	api.failCreate = true
	b := mounted(t, api)
	b.Create.Expand()

	if err := b.CreatePost(context.Background(), api, "Hello", "World"); err == nil {
		t.Fatalf("expected create error")
	}
	want := CreateForm{Open: true, Title: "Hello", Content: "World"}
	if diff := cmp.Diff(want, b.Create); diff != "" {
		t.Fatalf("form mismatch (-want +got):\n%s", diff)
	}
	if got := b.TakeNotice(); got != MsgCreateFailed {
		t.Fatalf("notice = %q", got)
	}
	if b.Notice != "" {
		t.Fatalf("notice not cleared by TakeNotice")
	}
	if len(api.lists) != 1 {
		t.Fatalf("failed create triggered a re-fetch")
	}
}

func TestCreateWhileSubmittingIsIgnored(t *testing.T) {
	b := New()
	b.Create.Expand()
	if _, ok := b.BeginCreate("a", "b"); !ok {
		t.Fatalf("first submit rejected")
	}
	if _, ok := b.BeginCreate("a", "b"); ok {
		t.Fatalf("duplicate submit accepted")
	}
	b.Create.Cancel()
	if !b.Create.Open {
		t.Fatalf("cancel applied while submitting")
	}
}

func TestCreateCancelDiscards(t *testing.T) {
	b := New()
	b.Create.Expand()
	b.BeginCreate("", "draft")
	b.Create.Cancel()
	if diff := cmp.Diff(CreateForm{}, b.Create); diff != "" {
		t.Fatalf("cancel left state (-want +got):\n%s", diff)
	}
}

func TestEditContentOnly(t *testing.T) {
	api := newFakeAPI(samplePost(1, "Title", "old", 1))
	b := mounted(t, api)
	card, _ := b.Card(1)
	card.Edit()

	if err := b.SavePost(context.Background(), api, 1, card.Title, "new content"); err != nil {
		t.Fatalf("save: %v", err)
	}

	if diff := cmp.Diff(models.PostInput{Title: "Title", Content: "new content"}, api.updates[1]); diff != "" {
		t.Fatalf("update body mismatch (-want +got):\n%s", diff)
	}
	card, _ = b.Card(1)
	if card.Editing {
		t.Fatalf("still editing after save")
	}
	if card.Post.Title != "Title" || card.Post.Content != "new content" {
		t.Fatalf("card not refreshed: %+v", card.Post)
	}
	if !card.Post.Edited() {
		t.Fatalf("expected updated_at to differ from created_at")
	}
}

func TestEditValidationMakesNoRequest(t *testing.T) {
	api := newFakeAPI(samplePost(1, "Title", "body", 1))
	b := mounted(t, api)
	card, _ := b.Card(1)
	card.Edit()
	calls := api.calls()

	_ = b.SavePost(context.Background(), api, 1, " ", strings.Repeat("c", 3))
	if card.Errors.Title != MsgTitleEmpty {
		t.Fatalf("title error = %q", card.Errors.Title)
	}
	_ = b.SavePost(context.Background(), api, 1, strings.Repeat("t", 201), "")
	want := FieldErrors{Title: MsgTitleTooLong, Content: MsgContentEmpty}
	if diff := cmp.Diff(want, card.Errors); diff != "" {
		t.Fatalf("errors mismatch (-want +got):\n%s", diff)
	}
	if api.calls() != calls {
		t.Fatalf("invalid edit issued a request")
	}
	if !card.Editing {
		t.Fatalf("left edit state on validation failure")
	}
}

func TestEditFailureStaysEditing(t *testing.T) {
	api := newFakeAPI(samplePost(1, "Title", "body", 1))
	api.failUpdate = true
	b := mounted(t, api)
	card, _ := b.Card(1)
	card.Edit()

	if err := b.SavePost(context.Background(), api, 1, "Changed", "body"); err == nil {
		t.Fatalf("expected update error")
	}
	if !card.Editing || card.Saving || card.Title != "Changed" {
		t.Fatalf("card state after failure: %+v", card)
	}
	if b.TakeNotice() != MsgUpdateFailed {
		t.Fatalf("missing update notice")
	}
}

func TestCancelEditRestoresExactly(t *testing.T) {
	post := samplePost(1, "  Spaced title ", "line one\n  line two\n", 1)
	card := NewPostView(post)

	for i := 0; i < 2; i++ {
		card.Edit()
		card.BeginSave("", "")
		card.Title, card.Content = "scratch", "scratch"
		card.CancelEdit()

		if card.Editing {
			t.Fatalf("still editing after cancel")
		}
		if card.Title != post.Title || card.Content != post.Content {
			t.Fatalf("fields not restored: %q %q", card.Title, card.Content)
		}
		if card.Errors.Any() {
			t.Fatalf("errors kept after cancel")
		}
	}
}

func TestCardStateSurvivesRefetch(t *testing.T) {
	api := newFakeAPI(samplePost(1, "one", "a", 1), samplePost(2, "two", "b", 2))
	b := mounted(t, api)
	card, _ := b.Card(1)
	card.Edit()
	card.Title = "typing"

	b.Create.Expand()
	if err := b.CreatePost(context.Background(), api, "three", "c"); err != nil {
		t.Fatalf("create: %v", err)
	}

	card, ok := b.Card(1)
	if !ok || !card.Editing || card.Title != "typing" {
		t.Fatalf("card state lost: %+v", card)
	}
	if len(b.Cards) != 3 {
		t.Fatalf("expected 3 cards, got %d", len(b.Cards))
	}

	api.posts = api.posts[1:]
	_ = b.Refresh(context.Background(), api)
	if _, ok := b.Card(1); ok {
		t.Fatalf("card of removed post kept")
	}
}

func TestDeleteWithoutConfirmationSendsNothing(t *testing.T) {
	api := newFakeAPI(samplePost(1, "one", "a", 1))
	b := mounted(t, api)
	calls := api.calls()

	if err := b.DeletePost(context.Background(), api, answer(false), 1); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if api.calls() != calls {
		t.Fatalf("unconfirmed delete issued a request")
	}
	card, _ := b.Card(1)
	if card.Confirming || card.Deleting {
		t.Fatalf("card state after declining: %+v", card)
	}
	if len(b.Items()) != 1 {
		t.Fatalf("post removed")
	}
}

func TestDeleteConfirmed(t *testing.T) {
	api := newFakeAPI(samplePost(1, "one", "a", 1), samplePost(2, "two", "b", 2))
	b := mounted(t, api)

	if err := b.DeletePost(context.Background(), api, answer(true), 1); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if diff := cmp.Diff([]int64{1}, api.deletes); diff != "" {
		t.Fatalf("deletes mismatch (-want +got):\n%s", diff)
	}
	items := b.Items()
	if len(items) != 1 || items[0].Post.ID != 2 {
		t.Fatalf("list not re-fetched: %+v", items)
	}
}

func TestDeleteFailureReenablesControl(t *testing.T) {
	api := newFakeAPI(samplePost(1, "one", "a", 1))
	api.failDelete = true
	b := mounted(t, api)

	if err := b.DeletePost(context.Background(), api, answer(true), 1); err == nil {
		t.Fatalf("expected delete error")
	}
	card, _ := b.Card(1)
	if card.Deleting {
		t.Fatalf("delete control still disabled")
	}
	if b.TakeNotice() != MsgDeleteFailed {
		t.Fatalf("missing delete notice")
	}
	if len(b.Items()) != 1 || len(api.lists) != 1 {
		t.Fatalf("post removed or list re-fetched")
	}
}

func TestDeleteInFlightCannotBeRequestedAgain(t *testing.T) {
	b := New()
	ticket, _ := b.BeginFetch()
	b.FinishFetch(ticket, []models.Post{samplePost(1, "one", "a", 1)}, nil)

	if !b.RequestDelete(1) || !b.AnswerDelete(1, true) {
		t.Fatalf("delete not started")
	}
	if b.RequestDelete(1) {
		t.Fatalf("second delete requested while pending")
	}
	if b.Confirming() != nil {
		t.Fatalf("confirmation open while deleting")
	}
}

func TestUnknownCardIsIgnored(t *testing.T) {
	b := New()
	if _, ok := b.BeginSave(42, "a", "b"); ok {
		t.Fatalf("save of unknown post accepted")
	}
	if b.RequestDelete(42) {
		t.Fatalf("delete of unknown post accepted")
	}
}

func TestFormatTime(t *testing.T) {
	ts := time.Date(2024, 5, 1, 14, 5, 0, 0, time.UTC)
	if got := FormatTime(ts, time.UTC); got != "May 1, 2024, 02:05 PM" {
		t.Fatalf("FormatTime = %q", got)
	}
	loc := time.FixedZone("UTC+2", 2*60*60)
	if got := FormatTime(ts, loc); got != "May 1, 2024, 04:05 PM" {
		t.Fatalf("FormatTime in zone = %q", got)
	}
}

func TestSortRejectsUnknownValues(t *testing.T) {
	api := newFakeAPI()
	b := mounted(t, api)
	ctx := context.Background()

	for _, tc := range []struct{ field, value string }{
		{"sortBy", "foo"},
		{"sortOrder", "sideways"},
		{"color", "red"},
	} {
		if err := b.Sort(ctx, api, tc.field, tc.value); err != nil {
			t.Fatalf("sort %s=%s: %v", tc.field, tc.value, err)
		}
	}
	if len(api.lists) != 1 {
		t.Fatalf("rejected sort issued a request")
	}
	if diff := cmp.Diff(models.DefaultListQuery(), b.Shell.Query()); diff != "" {
		t.Fatalf("query changed (-want +got):\n%s", diff)
	}
}

func TestOnlyOneConfirmationOpen(t *testing.T) {
	b := New()
	ticket, _ := b.BeginFetch()
	b.FinishFetch(ticket, []models.Post{samplePost(1, "one", "a", 1), samplePost(2, "two", "b", 2)}, nil)

	b.RequestDelete(1)
	b.RequestDelete(2)

	if got := b.Confirming(); got == nil || got.Post.ID != 2 {
		t.Fatalf("confirming = %+v, want post 2", got)
	}
	if v, _ := b.Card(1); v.Confirming || v.Deleting {
		t.Fatalf("first confirmation still open")
	}
}

func TestRecoverClearsStaleMarkers(t *testing.T) {
	b := New()
	ticket, _ := b.BeginFetch()
	b.FinishFetch(ticket, []models.Post{samplePost(1, "one", "a", 1)}, nil)
	b.Create.Expand()
	b.BeginCreate("t", "c")
	v, _ := b.Card(1)
	v.Edit()
	v.BeginSave("t", "c")

	if b.Recover() {
		t.Fatalf("list reported loading")
	}
	if b.Create.Submitting || v.Saving {
		t.Fatalf("in-flight markers kept")
	}
	if !b.Create.Open || !v.Editing || v.Title != "t" {
		t.Fatalf("entered values lost")
	}

	b.BeginFetch()
	if !b.Recover() {
		t.Fatalf("loading list not reported")
	}
}
