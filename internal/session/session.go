// Package session holds the per-browser view state: the post store, the
// search query, the selection and the form.
package session

import (
	"sync"
	"time"

	"github.com/amterp/postdeck/internal/debounce"
	pderr "github.com/amterp/postdeck/internal/errors"
	"github.com/amterp/postdeck/internal/model"
	"github.com/amterp/postdeck/internal/store"
)

// DefaultDelay is how long the search box must be quiet before the typed
// query is applied to the list.
const DefaultDelay = time.Duration(model.DefaultDebounceMillis) * time.Millisecond

// Mode is the form's mode.
type Mode string

const (
	ModeCreate Mode = "create"
	ModeEdit   Mode = "edit"
)

// Event names a change pushed to listeners.
type Event string

const (
	EventQueryApplied     Event = "query_applied"
	EventPostsChanged     Event = "posts_changed"
	EventSelectionChanged Event = "selection_changed"
)

// Listener receives session events. It is called without the session lock
// held and must not block.
type Listener func(Event)

// Form is the create/edit form.
type Form struct {
	Mode   Mode        `json:"mode"`
	PostID int         `json:"postId,omitempty"`
	Draft  model.Draft `json:"draft"`
}

// Row is one line of the post table.
type Row struct {
	Post     model.Post `json:"post"`
	Selected bool       `json:"selected"`
}

// Snapshot is a consistent read of everything the page renders.
type Snapshot struct {
	Typed   string `json:"typed"`
	Applied string `json:"applied"`
	Pending bool   `json:"pending"`
	Rows    []Row  `json:"rows"`
	Total   int    `json:"total"`
	Form    Form   `json:"form"`
}

// Options configures a Session.
type Options struct {
	Delay    time.Duration
	Clock    debounce.Clock
	Listener Listener
}

// Session is the state container of one browser session. All methods are
// safe for concurrent use.
type Session struct {
	id       string
	listener Listener

	mu        sync.Mutex
	posts     store.PostStore
	typed     string
	typedSeq  uint64
	applied   string
	selected  int
	hasSel    bool
	form      Form
	debouncer *debounce.Debouncer[string]
	memo      filterMemo
	closed    bool
}

type filterMemo struct {
	valid   bool
	query   string
	version uint64
	posts   []model.Post
}

// New creates a session over posts.
func New(id string, posts store.PostStore, opts Options) *Session {
	if opts.Delay <= 0 {
		opts.Delay = DefaultDelay
	}

	s := &Session{
		id:       id,
		posts:    posts,
		listener: opts.Listener,
		form:     Form{Mode: ModeCreate},
	}

	var dopts []debounce.Option
	if opts.Clock != nil {
		dopts = append(dopts, debounce.WithClock(opts.Clock))
	}
	s.debouncer = debounce.New(opts.Delay, s.applyQuery, dopts...)
	return s
}

func (s *Session) ID() string {
	return s.id
}

// Type records q as the typed query and schedules it to be applied once
// typing goes quiet.
func (s *Session) Type(q string) {
	s.TypeSeq(q, 0)
}

// TypeSeq is Type for clients that number their keystrokes. A keystroke
// whose seq is not above the last one seen arrived out of order and is
// dropped; seq 0 is unnumbered and always accepted. Returns false when
// the keystroke was dropped.
func (s *Session) TypeSeq(q string, seq uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return false
	}
	if seq != 0 {
		if seq <= s.typedSeq {
			return false
		}
		s.typedSeq = seq
	}
	s.typed = q
	s.debouncer.Trigger(q)
	return true
}

// ApplyNow applies the pending typed query without waiting.
// Returns false when nothing was pending.
func (s *Session) ApplyNow() bool {
	return s.debouncer.Flush()
}

func (s *Session) applyQuery(q string) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.applied = q
	s.mu.Unlock()

	s.emit(EventQueryApplied)
}

// Typed returns what is currently in the search box.
func (s *Session) Typed() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.typed
}

// Applied returns the query the list is currently filtered by.
func (s *Session) Applied() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.applied
}

// Pending reports whether a typed query is waiting to be applied.
func (s *Session) Pending() bool {
	return s.debouncer.Pending()
}

// Filtered returns the posts whose title contains the applied query.
// The result is recomputed only when the query or the posts change.
func (s *Session) Filtered() []model.Post {
	s.mu.Lock()
	defer s.mu.Unlock()
	return clonePosts(s.filteredLocked())
}

func (s *Session) filteredLocked() []model.Post {
	v := s.posts.Version()
	if s.memo.valid && s.memo.query == s.applied && s.memo.version == v {
		return s.memo.posts
	}
	s.memo = filterMemo{
		valid:   true,
		query:   s.applied,
		version: v,
		posts:   s.posts.Filter(store.ByTitle(s.applied)),
	}
	return s.memo.posts
}

// Posts returns every post, ignoring the query.
func (s *Session) Posts() []model.Post {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.posts.List()
}

// Post returns a single post.
func (s *Session) Post(id int) (model.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.posts.Get(id)
	if !ok {
		return model.Post{}, pderr.PostNotFound(id)
	}
	return p, nil
}

// Selected returns the selected post ID, if any.
func (s *Session) Selected() (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selected, s.hasSel
}

// Select puts the form in edit mode for post id, seeded with its current values.
func (s *Session) Select(id int) error {
	s.mu.Lock()
	p, ok := s.posts.Get(id)
	if !ok {
		s.mu.Unlock()
		return pderr.PostNotFound(id)
	}
	s.selected, s.hasSel = id, true
	s.form = Form{Mode: ModeEdit, PostID: id, Draft: model.DraftOf(p)}
	s.mu.Unlock()

	s.emit(EventSelectionChanged)
	return nil
}

// ResetSelection returns the form to create mode.
func (s *Session) ResetSelection() {
	s.mu.Lock()
	changed := s.hasSel
	s.clearSelectionLocked()
	s.mu.Unlock()

	if changed {
		s.emit(EventSelectionChanged)
	}
}

// Form returns the current form.
func (s *Session) Form() Form {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.form
}

// Submit saves the form. In edit mode the selected post is updated and stays
// selected; in create mode a new post is added and the form is cleared.
func (s *Session) Submit(draft model.Draft) (model.Post, error) {
	s.mu.Lock()

	if s.hasSel {
		current, ok := s.posts.Get(s.selected)
		if !ok {
			s.mu.Unlock()
			return model.Post{}, pderr.PostNotFound(s.selected)
		}
		updated := draft.Apply(current)
		s.posts.Update(updated)
		updated, _ = s.posts.Get(updated.ID)
		s.form.Draft = draft
		s.mu.Unlock()

		s.emit(EventPostsChanged)
		return updated, nil
	}

	added := s.posts.Add(draft)
	s.form = Form{Mode: ModeCreate}
	s.mu.Unlock()

	s.emit(EventPostsChanged)
	return added, nil
}

// Add inserts a new post regardless of the form mode.
func (s *Session) Add(draft model.Draft) model.Post {
	s.mu.Lock()
	p := s.posts.Add(draft)
	s.mu.Unlock()

	s.emit(EventPostsChanged)
	return p
}

// Update replaces the editable fields of post id.
// Returns NotFoundError when id is not in the store.
func (s *Session) Update(id int, draft model.Draft) (model.Post, error) {
	s.mu.Lock()
	current, ok := s.posts.Get(id)
	if !ok {
		s.mu.Unlock()
		return model.Post{}, pderr.PostNotFound(id)
	}
	s.posts.Update(draft.Apply(current))
	updated, _ := s.posts.Get(id)
	if s.hasSel && s.selected == id {
		s.form.Draft = draft
	}
	s.mu.Unlock()

	s.emit(EventPostsChanged)
	return updated, nil
}

// Delete removes post id. Deleting the selected post clears the selection.
// Deleting a missing post does nothing and returns false.
func (s *Session) Delete(id int) bool {
	s.mu.Lock()
	if !s.posts.Delete(id) {
		s.mu.Unlock()
		return false
	}
	cleared := s.hasSel && s.selected == id
	if cleared {
		s.clearSelectionLocked()
	}
	s.mu.Unlock()

	s.emit(EventPostsChanged)
	if cleared {
		s.emit(EventSelectionChanged)
	}
	return true
}

// Reset replaces the user directory and all posts, e.g. after the seed file
// changed. The selection is cleared; the query is kept.
func (s *Session) Reset(users store.UserDirectory, posts []model.Post) {
	s.mu.Lock()
	s.posts.Reset(users, posts)
	s.clearSelectionLocked()
	s.mu.Unlock()

	s.emit(EventPostsChanged)
	s.emit(EventSelectionChanged)
}

// Snapshot returns everything the page needs in one consistent read.
func (s *Session) Snapshot() Snapshot {
	pending := s.debouncer.Pending()

	s.mu.Lock()
	defer s.mu.Unlock()

	filtered := s.filteredLocked()
	rows := make([]Row, len(filtered))
	for i, p := range filtered {
		rows[i] = Row{Post: p, Selected: s.hasSel && p.ID == s.selected}
	}

	return Snapshot{
		Typed:   s.typed,
		Applied: s.applied,
		Pending: pending,
		Rows:    rows,
		Total:   s.posts.Len(),
		Form:    s.form,
	}
}

// Close stops the debouncer. A pending query is dropped.
func (s *Session) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()

	s.debouncer.Stop()
}

func (s *Session) clearSelectionLocked() {
	s.selected, s.hasSel = 0, false
	s.form = Form{Mode: ModeCreate}
}

func (s *Session) emit(ev Event) {
	if s.listener != nil {
		s.listener(ev)
	}
}

func clonePosts(posts []model.Post) []model.Post {
	out := make([]model.Post, len(posts))
	copy(out, posts)
	return out
}
