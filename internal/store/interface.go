package store

import "github.com/amterp/postdeck/internal/model"

// Predicate selects posts in Filter.
type Predicate func(post *model.Post) bool

// PostStore holds the ordered post sequence of a single session.
// Implementations are not safe for concurrent use; the owning session
// serializes access.
type PostStore interface {
	Add(draft model.Draft) model.Post
	Update(post model.Post) bool
	Delete(id int) bool
	Get(id int) (model.Post, bool)
	List() []model.Post
	Filter(pred Predicate) []model.Post
	MaxID() int
	Len() int
	Version() uint64
	Reset(users UserDirectory, posts []model.Post)
}

// UserDirectory resolves user references for posts.
type UserDirectory interface {
	Get(id int) (*model.User, bool)
	List() []model.User
}

// ConfigStore handles config file persistence.
type ConfigStore interface {
	Load() (*model.Config, error)
	Save(config *model.Config) error
	Exists() bool
	Path() string
}
