package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/amterp/postdeck/internal/config"
	"github.com/amterp/postdeck/internal/model"
	"github.com/amterp/postdeck/internal/store"
)

// TestUsers returns a small fixed user list.
func TestUsers() []model.User {
	return []model.User{
		{ID: 1, Name: "Leanne Graham", Username: "Bret", Email: "leanne@example.com"},
		{ID: 2, Name: "Ervin Howell", Username: "Antonette", Email: "ervin@example.com"},
	}
}

// TestPost returns a post with sensible test defaults.
func TestPost(id int, title string) model.Post {
	return model.Post{
		ID:     id,
		UserID: 1,
		Title:  title,
		Body:   "body of " + title,
	}
}

// TestPosts returns posts [{1,"A"}, {2,"B"}].
func TestPosts() []model.Post {
	return []model.Post{
		TestPost(1, "A"),
		TestPost(2, "B"),
	}
}

// NewTestStore returns a post store over TestUsers holding posts.
func NewTestStore(posts ...model.Post) *store.MemoryPostStore {
	return store.NewMemoryPostStore(store.NewUserDirectory(TestUsers()), posts)
}

// PostIDs returns the IDs of posts in order.
func PostIDs(posts []model.Post) []int {
	ids := make([]int, len(posts))
	for i, p := range posts {
		ids[i] = p.ID
	}
	return ids
}

// TempDir creates a temporary directory for testing.
// Returns the temp dir path and a cleanup function.
func TempDir(t *testing.T) (string, func()) {
	t.Helper()

	dir, err := os.MkdirTemp("", "postdeck-test-*")
	if err != nil {
		t.Fatalf("failed to create temp dir: %v", err)
	}

	cleanup := func() {
		os.RemoveAll(dir)
	}

	return dir, cleanup
}

// WriteFile writes content to name inside dir and returns the full path.
func WriteFile(t *testing.T, dir, name, content string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
	return path
}

// NewTestPaths creates a Paths for testing with the given temp directory
// and no global config location.
func NewTestPaths(baseDir string) *config.Paths {
	return config.NewPaths(baseDir, "")
}
