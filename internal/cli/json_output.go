package cli

import (
	"encoding/json"
	"fmt"

	"github.com/amterp/postdeck/internal/model"
)

// postJson is the CLI's JSON shape of a post, in snake_case like the rest
// of the CLI output. The web API uses model.Post's own tags.
//
// SYNC WARNING: This struct must stay in sync with model.Post fields.
// If you add fields to model.Post, add them here too. See TestPostJsonFieldSync.
type postJson struct {
	ID     int       `json:"id"`
	UserID int       `json:"user_id"`
	Title  string    `json:"title"`
	Body   string    `json:"body"`
	User   *userJson `json:"user,omitempty"`
}

type userJson struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	Username string `json:"username"`
	Email    string `json:"email,omitempty"`
}

func postToJson(p model.Post) postJson {
	out := postJson{
		ID:     p.ID,
		UserID: p.UserID,
		Title:  p.Title,
		Body:   p.Body,
	}
	if p.User != nil {
		out.User = &userJson{
			ID:       p.User.ID,
			Name:     p.User.Name,
			Username: p.User.Username,
			Email:    p.User.Email,
		}
	}
	return out
}

// PostOutput wraps a single post for JSON output.
type PostOutput struct {
	Post postJson `json:"post"`
}

// NewPostOutput creates a PostOutput from a model.Post.
func NewPostOutput(post model.Post) PostOutput {
	return PostOutput{Post: postToJson(post)}
}

// ListOutput wraps a list of posts for JSON output.
type ListOutput struct {
	Query string     `json:"query,omitempty"`
	Posts []postJson `json:"posts"`
}

// NewListOutput creates a ListOutput from a slice of model.Post.
// Always returns an empty array (not null) when there are no posts.
func NewListOutput(posts []model.Post, query string) ListOutput {
	result := make([]postJson, 0, len(posts))
	for _, p := range posts {
		result = append(result, postToJson(p))
	}
	return ListOutput{Query: query, Posts: result}
}

// printJson marshals the value as indented JSON and prints it to stdout.
func printJson(v any) error {
	output, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(output))
	return nil
}

// warnJsonNotSupported prints a warning to stderr when --json is used on an unsupported command.
func warnJsonNotSupported(command string) {
	PrintWarning("--json is not supported for '%s' (flag ignored)", command)
}
