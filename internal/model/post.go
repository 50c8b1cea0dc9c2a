package model

// User is the author attached to a post for display.
// Users come from the seed dataset and are never mutated.
type User struct {
	ID       int    `json:"id" yaml:"id"`
	Name     string `json:"name" yaml:"name"`
	Username string `json:"username" yaml:"username"`
	Email    string `json:"email,omitempty" yaml:"email,omitempty"`
}

// Post is a single post record.
// ID is assigned by the store; callers creating posts leave it zero.
type Post struct {
	ID     int    `json:"id" yaml:"id"`
	UserID int    `json:"userId" yaml:"userId"`
	Title  string `json:"title" yaml:"title"`
	Body   string `json:"body" yaml:"body"`

	// User is resolved from UserID when the post enters a store.
	// It is not part of the seed file format.
	User *User `json:"user,omitempty" yaml:"-"`
}

// Username returns the attached user's username, or "" when no user is attached.
func (p Post) Username() string {
	if p.User == nil {
		return ""
	}
	return p.User.Username
}

// Draft holds the editable fields of a post, as submitted from a form.
type Draft struct {
	UserID int    `json:"userId"`
	Title  string `json:"title"`
	Body   string `json:"body"`
}

// DraftOf returns the editable fields of an existing post.
func DraftOf(p Post) Draft {
	return Draft{UserID: p.UserID, Title: p.Title, Body: p.Body}
}

// Apply returns a copy of p with the draft's fields written over it.
// ID and User are left untouched.
func (d Draft) Apply(p Post) Post {
	p.UserID = d.UserID
	p.Title = d.Title
	p.Body = d.Body
	return p
}
