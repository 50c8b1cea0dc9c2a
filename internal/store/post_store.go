package store

import (
	"slices"
	"strings"

	"github.com/amterp/postdeck/internal/model"
	"github.com/amterp/postdeck/internal/util"
)

// MemoryPostStore implements PostStore over an in-memory slice.
// New posts go to the front; updates keep their position. Titles and bodies
// are kept NFC-normalized so they compare equal to normalized queries.
type MemoryPostStore struct {
	posts   []model.Post
	users   UserDirectory
	version uint64
}

// NewMemoryPostStore creates a store holding a copy of posts.
// users may be nil, in which case no user references are attached.
func NewMemoryPostStore(users UserDirectory, posts []model.Post) *MemoryPostStore {
	s := &MemoryPostStore{users: users}
	s.posts = s.prepare(posts)
	return s
}

// Add assigns the next ID and inserts the post at the front.
func (s *MemoryPostStore) Add(draft model.Draft) model.Post {
	post := normalize(draft.Apply(model.Post{ID: s.MaxID() + 1}))
	post.User = s.lookupUser(post.UserID)

	s.posts = append([]model.Post{post}, s.posts...)
	s.version++
	return post
}

// Update replaces the post with a matching ID in place.
// Returns false and leaves the store untouched when no post matches.
func (s *MemoryPostStore) Update(post model.Post) bool {
	i := s.indexOf(post.ID)
	if i < 0 {
		return false
	}

	post = normalize(post)
	post.User = s.lookupUser(post.UserID)
	s.posts[i] = post
	s.version++
	return true
}

// Delete removes the post with the given ID. Returns false if absent.
func (s *MemoryPostStore) Delete(id int) bool {
	i := s.indexOf(id)
	if i < 0 {
		return false
	}

	s.posts = slices.Delete(s.posts, i, i+1)
	s.version++
	return true
}

// Get returns the post with the given ID.
func (s *MemoryPostStore) Get(id int) (model.Post, bool) {
	i := s.indexOf(id)
	if i < 0 {
		return model.Post{}, false
	}
	return s.posts[i], true
}

// List returns a copy of the current sequence.
func (s *MemoryPostStore) List() []model.Post {
	out := make([]model.Post, len(s.posts))
	copy(out, s.posts)
	return out
}

// Filter returns the posts matching pred, in store order.
// Always returns an empty slice (not nil) when nothing matches.
func (s *MemoryPostStore) Filter(pred Predicate) []model.Post {
	out := make([]model.Post, 0, len(s.posts))
	for i := range s.posts {
		if pred == nil || pred(&s.posts[i]) {
			out = append(out, s.posts[i])
		}
	}
	return out
}

// MaxID returns the largest post ID, or 0 for an empty store.
func (s *MemoryPostStore) MaxID() int {
	return MaxID(s.posts)
}

// Len returns the number of posts.
func (s *MemoryPostStore) Len() int {
	return len(s.posts)
}

// Version increases on every mutation that changed the sequence.
func (s *MemoryPostStore) Version() uint64 {
	return s.version
}

// Reset replaces the user directory and the whole sequence, e.g. after the
// seed file changed. Later adds and updates resolve users against users.
func (s *MemoryPostStore) Reset(users UserDirectory, posts []model.Post) {
	s.users = users
	s.posts = s.prepare(posts)
	s.version++
}

func (s *MemoryPostStore) prepare(posts []model.Post) []model.Post {
	out := make([]model.Post, len(posts))
	for i, p := range posts {
		p = normalize(p)
		if p.User == nil {
			p.User = s.lookupUser(p.UserID)
		}
		out[i] = p
	}
	return out
}

func (s *MemoryPostStore) indexOf(id int) int {
	for i := range s.posts {
		if s.posts[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *MemoryPostStore) lookupUser(id int) *model.User {
	if s.users == nil {
		return nil
	}
	user, ok := s.users.Get(id)
	if !ok {
		return nil
	}
	return user
}

func normalize(p model.Post) model.Post {
	p.Title = util.NormalizeInput(p.Title)
	p.Body = util.NormalizeInput(p.Body)
	return p
}

// MaxID returns the largest ID in posts, or 0 when posts is empty.
func MaxID(posts []model.Post) int {
	maxID := 0
	for _, p := range posts {
		if p.ID > maxID {
			maxID = p.ID
		}
	}
	return maxID
}

// ByTitle matches posts whose title contains query.
// Matching is case-sensitive; an empty query matches everything.
func ByTitle(query string) Predicate {
	return func(post *model.Post) bool {
		return strings.Contains(post.Title, query)
	}
}
