package cli

import (
	"fmt"
	"strconv"
	"strings"

	pderr "github.com/amterp/postdeck/internal/errors"
	"github.com/amterp/postdeck/internal/model"
	"github.com/amterp/ra"
)

func registerShow(parent *ra.Cmd, ctx *CommandContext) {
	cmd := ra.NewCmd("show")
	cmd.SetDescription("Display a post")

	ctx.ShowPost, _ = ra.NewString("id").
		SetUsage("Post ID").
		SetCompletionFunc(completePosts).
		Register(cmd)

	ctx.ShowUsed, _ = parent.RegisterCmd(cmd)
}

func runShow(seedFlag, idArg string, jsonOutput bool) {
	id, err := parsePostID(idArg)
	if err != nil {
		Fatal(err)
	}

	app, err := NewApp()
	if err != nil {
		Fatal(err)
	}

	ds, err := app.LoadSeed(seedFlag)
	if err != nil {
		Fatal(err)
	}

	post, ok := ds.NewStore().Get(id)
	if !ok {
		Fatal(pderr.PostNotFound(id))
	}

	if jsonOutput {
		if err := printJson(NewPostOutput(post)); err != nil {
			Fatal(err)
		}
		return
	}
	printPost(post)
}

func printPost(post model.Post) {
	const labelWidth = 8

	fmt.Println(TitleBox(post.Title))
	fmt.Println()

	fmt.Println(LabelValue("ID", RenderID(strconv.Itoa(post.ID)), labelWidth))
	if post.User != nil {
		fmt.Println(LabelValue("User", fmt.Sprintf("%s %s", RenderBold(post.User.Username), RenderMuted("("+post.User.Name+")")), labelWidth))
	} else {
		fmt.Println(LabelValue("User", RenderMuted(fmt.Sprintf("unknown (#%d)", post.UserID)), labelWidth))
	}

	if post.Body != "" {
		fmt.Println()
		fmt.Println(RenderMuted("Body:"))
		fmt.Printf("  %s\n", strings.ReplaceAll(post.Body, "\n", "\n  "))
	}
}

// parsePostID parses a post ID given on the command line.
func parsePostID(s string) (int, error) {
	id, err := strconv.Atoi(strings.TrimPrefix(strings.TrimSpace(s), "#"))
	if err != nil || id <= 0 {
		return 0, pderr.InvalidField("id", fmt.Sprintf("%q is not a post ID", s))
	}
	return id, nil
}
