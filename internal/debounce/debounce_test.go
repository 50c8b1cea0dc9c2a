package debounce_test

import (
	"sync"
	"testing"
	"time"

	"github.com/amterp/postdeck/internal/debounce"
	"github.com/amterp/postdeck/testutil"
)

type recorder struct {
	mu      sync.Mutex
	commits []string
	at      []time.Duration
	clock   *testutil.ManualClock
}

func (r *recorder) commit(v string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.commits = append(r.commits, v)
	if r.clock != nil {
		r.at = append(r.at, r.clock.Now())
	}
}

func newDebouncer(delay time.Duration) (*debounce.Debouncer[string], *recorder, *testutil.ManualClock) {
	clock := testutil.NewManualClock()
	rec := &recorder{clock: clock}
	d := debounce.New(delay, rec.commit, debounce.WithClock(clock))
	return d, rec, clock
}

func TestDebouncer_BurstCommitsOnceAfterLastTrigger(t *testing.T) {
	d, rec, clock := newDebouncer(time.Second)

	d.Trigger("r")
	clock.Advance(100 * time.Millisecond)
	d.Trigger("re")
	clock.Advance(100 * time.Millisecond)
	d.Trigger("rem")

	clock.Advance(999 * time.Millisecond)
	if len(rec.commits) != 0 {
		t.Fatalf("expected no commit before quiet period ends, got %v", rec.commits)
	}
	if !d.Pending() {
		t.Error("expected debouncer to be pending")
	}

	clock.Advance(time.Millisecond)
	if len(rec.commits) != 1 || rec.commits[0] != "rem" {
		t.Fatalf("expected single commit of %q, got %v", "rem", rec.commits)
	}
	if rec.at[0] != 1200*time.Millisecond {
		t.Errorf("expected commit at 1200ms, got %v", rec.at[0])
	}
	if d.Pending() {
		t.Error("expected debouncer to be idle after commit")
	}

	clock.Advance(5 * time.Second)
	if len(rec.commits) != 1 {
		t.Errorf("expected no further commits, got %v", rec.commits)
	}
}

func TestDebouncer_SeparateBurstsCommitSeparately(t *testing.T) {
	d, rec, clock := newDebouncer(time.Second)

	d.Trigger("a")
	clock.Advance(time.Second)
	d.Trigger("b")
	clock.Advance(time.Second)

	if len(rec.commits) != 2 || rec.commits[0] != "a" || rec.commits[1] != "b" {
		t.Errorf("expected [a b], got %v", rec.commits)
	}
}

func TestDebouncer_SupersededTimersAreStopped(t *testing.T) {
	d, _, clock := newDebouncer(time.Second)

	for _, q := range []string{"a", "ab", "abc", "abcd"} {
		d.Trigger(q)
	}

	if got := clock.Pending(); got != 1 {
		t.Errorf("expected exactly 1 live timer, got %d", got)
	}
}

func TestDebouncer_Flush(t *testing.T) {
	d, rec, clock := newDebouncer(time.Second)

	if d.Flush() {
		t.Error("expected Flush with nothing pending to return false")
	}

	d.Trigger("now")
	if !d.Flush() {
		t.Fatal("expected Flush to commit pending value")
	}
	if len(rec.commits) != 1 || rec.commits[0] != "now" {
		t.Fatalf("expected [now], got %v", rec.commits)
	}
	if rec.at[0] != 0 {
		t.Errorf("expected immediate commit, got %v", rec.at[0])
	}

	clock.Advance(2 * time.Second)
	if len(rec.commits) != 1 {
		t.Errorf("flushed timer must not commit again, got %v", rec.commits)
	}
}

func TestDebouncer_Cancel(t *testing.T) {
	d, rec, clock := newDebouncer(time.Second)

	d.Trigger("dropped")
	if !d.Cancel() {
		t.Fatal("expected Cancel to report a pending value")
	}
	if d.Cancel() {
		t.Error("expected second Cancel to be a no-op")
	}

	clock.Advance(2 * time.Second)
	if len(rec.commits) != 0 {
		t.Errorf("expected no commits after cancel, got %v", rec.commits)
	}
}

func TestDebouncer_Stop(t *testing.T) {
	d, rec, clock := newDebouncer(time.Second)

	d.Trigger("x")
	d.Stop()
	d.Trigger("y")

	clock.Advance(2 * time.Second)
	if len(rec.commits) != 0 {
		t.Errorf("expected no commits after Stop, got %v", rec.commits)
	}
	if d.Pending() {
		t.Error("stopped debouncer must not be pending")
	}
	if d.Flush() {
		t.Error("stopped debouncer must not flush")
	}
}

// A timer whose callback was already dispatched when Trigger ran must not
// commit the old value.
func TestDebouncer_StaleCallbackIgnored(t *testing.T) {
	clock := &capturingClock{}
	var commits []string
	d := debounce.New(time.Second, func(v string) { commits = append(commits, v) }, debounce.WithClock(clock))

	d.Trigger("old")
	stale := clock.fns[0]
	d.Trigger("new")

	stale()
	if len(commits) != 0 {
		t.Fatalf("stale callback committed: %v", commits)
	}

	clock.fns[1]()
	if len(commits) != 1 || commits[0] != "new" {
		t.Errorf("expected [new], got %v", commits)
	}
}

func TestDebouncer_WallClock(t *testing.T) {
	done := make(chan string, 1)
	d := debounce.New(10*time.Millisecond, func(v string) { done <- v })

	d.Trigger("a")
	d.Trigger("b")

	select {
	case v := <-done:
		if v != "b" {
			t.Errorf("expected b, got %q", v)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for commit")
	}
}

func TestDebouncer_SlowCommitDoesNotOverwriteFlush(t *testing.T) {
	clock := &capturingClock{}

	var mu sync.Mutex
	var commits []string
	entered := make(chan struct{})
	release := make(chan struct{})

	d := debounce.New(time.Second, func(v string) {
		if v == "a" {
			close(entered)
			<-release
		}
		mu.Lock()
		commits = append(commits, v)
		mu.Unlock()
	}, debounce.WithClock(clock))

	d.Trigger("a")
	fireA := clock.fns[0]
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		fireA()
	}()
	<-entered

	d.Trigger("b")
	go func() {
		defer wg.Done()
		d.Flush()
	}()

	// Give Flush the chance to run ahead of the blocked commit.
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	if len(commits) != 2 || commits[0] != "a" || commits[1] != "b" {
		t.Errorf("expected commits [a b], got %v", commits)
	}
	if d.Pending() {
		t.Error("expected nothing pending")
	}
}

// capturingClock never fires on its own; tests call the captured callbacks.
type capturingClock struct {
	fns []func()
}

func (c *capturingClock) AfterFunc(_ time.Duration, f func()) debounce.Timer {
	c.fns = append(c.fns, f)
	return noopTimer{}
}

type noopTimer struct{}

func (noopTimer) Stop() bool { return false }
