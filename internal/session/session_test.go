package session_test

import (
	"slices"
	"sync"
	"testing"
	"time"

	pderr "github.com/amterp/postdeck/internal/errors"
	"github.com/amterp/postdeck/internal/model"
	"github.com/amterp/postdeck/internal/session"
	"github.com/amterp/postdeck/internal/store"
	"github.com/amterp/postdeck/testutil"
)

type eventLog struct {
	mu     sync.Mutex
	events []session.Event
}

func (l *eventLog) listen(ev session.Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, ev)
}

func (l *eventLog) count(ev session.Event) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, e := range l.events {
		if e == ev {
			n++
		}
	}
	return n
}

func setupTestSession(t *testing.T, posts ...model.Post) (*session.Session, *testutil.ManualClock, *eventLog) {
	t.Helper()

	clock := testutil.NewManualClock()
	log := &eventLog{}
	s := session.New("test", testutil.NewTestStore(posts...), session.Options{
		Delay:    time.Second,
		Clock:    clock,
		Listener: log.listen,
	})
	t.Cleanup(s.Close)
	return s, clock, log
}

func TestSession_EndToEnd(t *testing.T) {
	s, clock, _ := setupTestSession(t, testutil.TestPosts()...)

	added, err := s.Submit(model.Draft{Title: "C"})
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if added.ID != 3 {
		t.Errorf("expected new ID 3, got %d", added.ID)
	}
	if got := testutil.PostIDs(s.Filtered()); !slices.Equal(got, []int{3, 1, 2}) {
		t.Fatalf("expected [3 1 2], got %v", got)
	}

	s.Type("B")
	if s.Typed() != "B" {
		t.Errorf("typed must update immediately, got %q", s.Typed())
	}
	if got := testutil.PostIDs(s.Filtered()); len(got) != 3 {
		t.Errorf("filter must not apply before the quiet period, got %v", got)
	}

	clock.Advance(time.Second + time.Millisecond)

	filtered := s.Filtered()
	if len(filtered) != 1 || filtered[0].ID != 2 || filtered[0].Title != "B" {
		t.Errorf("expected [{2 B}], got %+v", filtered)
	}
}

func TestSession_DebouncedQuery(t *testing.T) {
	s, clock, log := setupTestSession(t,
		testutil.TestPost(1, "remove me"),
		testutil.TestPost(2, "read this"),
		testutil.TestPost(3, "other"),
	)

	s.Type("r")
	clock.Advance(100 * time.Millisecond)
	s.Type("re")
	clock.Advance(100 * time.Millisecond)
	s.Type("rem")

	clock.Advance(999 * time.Millisecond)
	if s.Applied() != "" {
		t.Fatalf("expected nothing applied yet, got %q", s.Applied())
	}
	if !s.Pending() {
		t.Error("expected pending query")
	}

	clock.Advance(time.Millisecond)
	if s.Applied() != "rem" {
		t.Errorf("expected %q applied at 1200ms, got %q", "rem", s.Applied())
	}
	if got := log.count(session.EventQueryApplied); got != 1 {
		t.Errorf("expected exactly one query_applied event, got %d", got)
	}
	if got := testutil.PostIDs(s.Filtered()); !slices.Equal(got, []int{1}) {
		t.Errorf("expected [1], got %v", got)
	}
}

func TestSession_ApplyNow(t *testing.T) {
	s, clock, _ := setupTestSession(t, testutil.TestPosts()...)

	if s.ApplyNow() {
		t.Error("expected ApplyNow with nothing typed to return false")
	}

	s.Type("A")
	if !s.ApplyNow() {
		t.Fatal("expected ApplyNow to apply the typed query")
	}
	if s.Applied() != "A" || s.Pending() {
		t.Errorf("expected applied %q and idle, got %q pending=%v", "A", s.Applied(), s.Pending())
	}

	clock.Advance(2 * time.Second)
	if s.Applied() != "A" {
		t.Errorf("applied changed after flush: %q", s.Applied())
	}
}

func TestSession_TypeSeqDropsStale(t *testing.T) {
	s, clock, _ := setupTestSession(t, testutil.TestPosts()...)

	if !s.TypeSeq("AB", 5) {
		t.Fatal("expected first numbered keystroke accepted")
	}
	for _, seq := range []uint64{4, 5} {
		if s.TypeSeq("A", seq) {
			t.Errorf("expected seq %d dropped after 5", seq)
		}
	}
	if s.Typed() != "AB" {
		t.Errorf("expected typed AB, got %q", s.Typed())
	}

	clock.Advance(time.Second)
	if s.Applied() != "AB" {
		t.Errorf("expected AB applied, got %q", s.Applied())
	}

	if !s.TypeSeq("B", 0) {
		t.Error("expected unnumbered keystroke accepted")
	}
	if !s.TypeSeq("BC", 6) {
		t.Error("expected seq 6 accepted")
	}
}

func TestSession_FilterIsCaseSensitive(t *testing.T) {
	s, _, _ := setupTestSession(t, testutil.TestPost(1, "Alpha"), testutil.TestPost(2, "alpha"))

	s.Type("alpha")
	s.ApplyNow()

	if got := testutil.PostIDs(s.Filtered()); !slices.Equal(got, []int{2}) {
		t.Errorf("expected [2], got %v", got)
	}
}

func TestSession_FilteredReturnsCopy(t *testing.T) {
	s, _, _ := setupTestSession(t, testutil.TestPosts()...)

	first := s.Filtered()
	first[0].Title = "mutated"

	if got := s.Filtered()[0].Title; got != "A" {
		t.Errorf("memoized result leaked to caller: %q", got)
	}
}

func TestSession_SelectSeedsEditForm(t *testing.T) {
	s, _, log := setupTestSession(t, testutil.TestPosts()...)

	if err := s.Select(2); err != nil {
		t.Fatalf("Select failed: %v", err)
	}

	form := s.Form()
	if form.Mode != session.ModeEdit || form.PostID != 2 {
		t.Errorf("expected edit form for 2, got %+v", form)
	}
	if form.Draft.Title != "B" || form.Draft.Body != "body of B" || form.Draft.UserID != 1 {
		t.Errorf("form not seeded from post: %+v", form.Draft)
	}
	if log.count(session.EventSelectionChanged) != 1 {
		t.Error("expected selection_changed event")
	}

	// Selecting another post replaces the selection.
	if err := s.Select(1); err != nil {
		t.Fatal(err)
	}
	if id, ok := s.Selected(); !ok || id != 1 {
		t.Errorf("expected selection 1, got %d %v", id, ok)
	}
}

func TestSession_SelectUnknown(t *testing.T) {
	s, _, _ := setupTestSession(t, testutil.TestPosts()...)

	err := s.Select(99)
	if !pderr.IsNotFound(err) {
		t.Fatalf("expected not found error, got %v", err)
	}
	if _, ok := s.Selected(); ok {
		t.Error("failed select must not change selection")
	}
}

func TestSession_SubmitEditUpdatesInPlace(t *testing.T) {
	s, _, _ := setupTestSession(t, testutil.TestPosts()...)

	if err := s.Select(1); err != nil {
		t.Fatal(err)
	}
	updated, err := s.Submit(model.Draft{UserID: 2, Title: "A2", Body: "changed"})
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	if updated.ID != 1 || updated.Title != "A2" || updated.Username() != "Antonette" {
		t.Errorf("unexpected updated post: %+v", updated)
	}
	if got := testutil.PostIDs(s.Posts()); !slices.Equal(got, []int{1, 2}) {
		t.Errorf("update changed order: %v", got)
	}
	if id, ok := s.Selected(); !ok || id != 1 {
		t.Error("selection must survive an edit submit")
	}
	if s.Form().Draft.Title != "A2" {
		t.Errorf("form should show submitted values, got %+v", s.Form().Draft)
	}
}

func TestSession_SubmitCreateClearsForm(t *testing.T) {
	s, _, log := setupTestSession(t, testutil.TestPosts()...)

	added, err := s.Submit(model.Draft{UserID: 1, Title: "new", Body: "b"})
	if err != nil {
		t.Fatal(err)
	}
	if added.ID != 3 {
		t.Errorf("expected ID 3, got %d", added.ID)
	}

	form := s.Form()
	if form.Mode != session.ModeCreate || form.Draft != (model.Draft{}) {
		t.Errorf("expected empty create form, got %+v", form)
	}
	if log.count(session.EventPostsChanged) != 1 {
		t.Error("expected posts_changed event")
	}
}

func TestSession_ResetSelection(t *testing.T) {
	s, _, _ := setupTestSession(t, testutil.TestPosts()...)

	s.Select(2)
	s.ResetSelection()

	if _, ok := s.Selected(); ok {
		t.Error("expected no selection")
	}
	if s.Form().Mode != session.ModeCreate {
		t.Error("expected create mode")
	}

	added, _ := s.Submit(model.Draft{Title: "C"})
	if added.ID != 3 {
		t.Errorf("submit after reset must create, got %+v", added)
	}
}

func TestSession_DeleteSelectedClearsSelection(t *testing.T) {
	s, _, log := setupTestSession(t, testutil.TestPosts()...)

	s.Select(2)
	if !s.Delete(2) {
		t.Fatal("expected delete to succeed")
	}

	if _, ok := s.Selected(); ok {
		t.Error("deleting the selected post must clear the selection")
	}
	if s.Form().Mode != session.ModeCreate {
		t.Error("expected create mode after deleting selected post")
	}
	if log.count(session.EventSelectionChanged) != 2 {
		t.Errorf("expected select + clear events, got %d", log.count(session.EventSelectionChanged))
	}
}

func TestSession_DeleteOtherKeepsSelection(t *testing.T) {
	s, _, _ := setupTestSession(t, testutil.TestPosts()...)

	s.Select(2)
	s.Delete(1)

	if id, ok := s.Selected(); !ok || id != 2 {
		t.Errorf("expected selection 2 kept, got %d %v", id, ok)
	}
}

func TestSession_DeleteMissingIsNoop(t *testing.T) {
	s, _, log := setupTestSession(t, testutil.TestPosts()...)

	if s.Delete(42) {
		t.Error("expected false for missing post")
	}
	if len(s.Posts()) != 2 {
		t.Error("store changed")
	}
	if log.count(session.EventPostsChanged) != 0 {
		t.Error("no event expected for a no-op delete")
	}
}

func TestSession_Update(t *testing.T) {
	s, _, _ := setupTestSession(t, testutil.TestPosts()...)

	p, err := s.Update(2, model.Draft{UserID: 1, Title: "B2"})
	if err != nil {
		t.Fatal(err)
	}
	if p.Title != "B2" {
		t.Errorf("expected B2, got %q", p.Title)
	}

	if _, err := s.Update(99, model.Draft{Title: "x"}); !pderr.IsNotFound(err) {
		t.Errorf("expected not found, got %v", err)
	}
}

func TestSession_Snapshot(t *testing.T) {
	s, _, _ := setupTestSession(t, testutil.TestPosts()...)

	s.Select(1)
	s.Type("zzz")

	snap := s.Snapshot()
	if snap.Typed != "zzz" || snap.Applied != "" || !snap.Pending {
		t.Errorf("unexpected query state: %+v", snap)
	}
	if snap.Total != 2 || len(snap.Rows) != 2 {
		t.Fatalf("expected 2 rows, got %d (total %d)", len(snap.Rows), snap.Total)
	}
	if !snap.Rows[0].Selected || snap.Rows[1].Selected {
		t.Errorf("expected only row 1 highlighted: %+v", snap.Rows)
	}
	if snap.Form.Mode != session.ModeEdit {
		t.Errorf("expected edit form, got %s", snap.Form.Mode)
	}
}

func TestSession_Reset(t *testing.T) {
	s, _, _ := setupTestSession(t, testutil.TestPosts()...)

	s.Type("X")
	s.ApplyNow()
	s.Select(1)
	s.Reset(store.NewUserDirectory(testutil.TestUsers()), []model.Post{testutil.TestPost(10, "X ray")})

	if _, ok := s.Selected(); ok {
		t.Error("reset must clear selection")
	}
	if s.Applied() != "X" {
		t.Error("reset must keep the query")
	}
	if got := testutil.PostIDs(s.Filtered()); !slices.Equal(got, []int{10}) {
		t.Errorf("expected [10], got %v", got)
	}
}

func TestSession_CloseDropsPendingQuery(t *testing.T) {
	s, clock, log := setupTestSession(t, testutil.TestPosts()...)

	s.Type("A")
	s.Close()
	clock.Advance(2 * time.Second)

	if s.Applied() != "" {
		t.Errorf("closed session applied %q", s.Applied())
	}
	if log.count(session.EventQueryApplied) != 0 {
		t.Error("closed session emitted query_applied")
	}

	s.Type("B")
	if s.Typed() != "" {
		t.Error("closed session must ignore typing")
	}
}
