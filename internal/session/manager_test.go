package session

import (
	"fmt"
	"sync"
	"testing"
	"time"

	pderr "github.com/amterp/postdeck/internal/errors"
	"github.com/amterp/postdeck/internal/model"
	"github.com/amterp/postdeck/internal/seed"
	"github.com/amterp/postdeck/testutil"
)

type fakeNow struct {
	mu sync.Mutex
	t  time.Time
}

func (f *fakeNow) now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.t
}

func (f *fakeNow) advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.t = f.t.Add(d)
}

func testDataset() *seed.Dataset {
	return &seed.Dataset{Users: testutil.TestUsers(), Posts: testutil.TestPosts()}
}

func setupTestManager(t *testing.T, opts ManagerOptions) (*Manager, *fakeNow) {
	t.Helper()

	clock := &fakeNow{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	n := 0
	opts.now = clock.now
	opts.newID = func() string {
		n++
		return fmt.Sprintf("s%d", n)
	}
	if opts.Clock == nil {
		opts.Clock = testutil.NewManualClock()
	}

	m := NewManager(testDataset(), opts)
	t.Cleanup(m.Close)
	return m, clock
}

func TestManager_GetOrCreate(t *testing.T) {
	m, _ := setupTestManager(t, ManagerOptions{})

	s, created := m.GetOrCreate("")
	if !created || s.ID() != "s1" {
		t.Fatalf("expected new session s1, got %q created=%v", s.ID(), created)
	}

	again, created := m.GetOrCreate("s1")
	if created || again != s {
		t.Error("expected the existing session back")
	}

	other, created := m.GetOrCreate("unknown")
	if !created || other.ID() != "s2" {
		t.Errorf("expected unknown id to get a fresh session, got %q", other.ID())
	}

	if m.Len() != 2 {
		t.Errorf("expected 2 sessions, got %d", m.Len())
	}
}

func TestManager_SessionsAreIsolated(t *testing.T) {
	m, _ := setupTestManager(t, ManagerOptions{})

	a, _ := m.GetOrCreate("")
	b, _ := m.GetOrCreate("")

	a.Submit(model.Draft{Title: "only in a"})
	a.Delete(1)

	if len(b.Posts()) != 2 {
		t.Errorf("session b saw session a's edits: %+v", b.Posts())
	}
}

func TestManager_Get(t *testing.T) {
	m, _ := setupTestManager(t, ManagerOptions{})

	if _, err := m.Get("nope"); !pderr.IsNotFound(err) {
		t.Errorf("expected not found, got %v", err)
	}

	s, _ := m.GetOrCreate("")
	got, err := m.Get(s.ID())
	if err != nil || got != s {
		t.Errorf("Get returned %v, %v", got, err)
	}
}

func TestManager_Sweep(t *testing.T) {
	m, now := setupTestManager(t, ManagerOptions{TTL: time.Hour})

	old, _ := m.GetOrCreate("")
	now.advance(45 * time.Minute)
	fresh, _ := m.GetOrCreate("")
	now.advance(30 * time.Minute)

	if removed := m.Sweep(); removed != 1 {
		t.Fatalf("expected 1 session swept, got %d", removed)
	}
	if _, err := m.Get(old.ID()); err == nil {
		t.Error("expired session still present")
	}
	if _, err := m.Get(fresh.ID()); err != nil {
		t.Error("fresh session was swept")
	}
}

func TestManager_GetKeepsSessionAlive(t *testing.T) {
	m, now := setupTestManager(t, ManagerOptions{TTL: time.Hour})

	s, _ := m.GetOrCreate("")
	now.advance(50 * time.Minute)
	m.Get(s.ID())
	now.advance(50 * time.Minute)

	if removed := m.Sweep(); removed != 0 {
		t.Errorf("recently used session swept")
	}
}

func TestManager_Reseed(t *testing.T) {
	m, _ := setupTestManager(t, ManagerOptions{})

	s, _ := m.GetOrCreate("")
	s.Select(1)

	m.Reseed(&seed.Dataset{
		Users: []model.User{{ID: 99, Name: "Clementine Bauch", Username: "Samantha"}},
		Posts: []model.Post{{ID: 7, UserID: 99, Title: "seven"}},
	})

	posts := s.Posts()
	if len(posts) != 1 || posts[0].ID != 7 {
		t.Errorf("live session not reseeded: %+v", posts)
	}
	if _, ok := s.Selected(); ok {
		t.Error("reseed must clear selection")
	}

	added := s.Add(model.Draft{UserID: 99, Title: "after reseed"})
	if added.Username() != "Samantha" {
		t.Errorf("expected post added after reseed to resolve the new user, got %+v", added.User)
	}

	next, _ := m.GetOrCreate("")
	if p := next.Posts(); len(p) != 1 || p[0].ID != 7 {
		t.Errorf("new session not built from new dataset: %+v", p)
	}
}

func TestManager_NotifyTagsSessionID(t *testing.T) {
	var mu sync.Mutex
	var got []string
	m, _ := setupTestManager(t, ManagerOptions{
		Notify: func(sessionID string, ev Event) {
			mu.Lock()
			defer mu.Unlock()
			got = append(got, sessionID+":"+string(ev))
		},
	})

	s, _ := m.GetOrCreate("")
	s.Delete(1)

	mu.Lock()
	defer mu.Unlock()
	if len(got) != 1 || got[0] != "s1:posts_changed" {
		t.Errorf("unexpected notifications: %v", got)
	}
}

func TestManager_Users(t *testing.T) {
	m, _ := setupTestManager(t, ManagerOptions{})

	users := m.Users()
	if len(users) != 2 || users[0].Username != "Bret" {
		t.Errorf("unexpected users: %+v", users)
	}
}
