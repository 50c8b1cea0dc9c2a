package cli

import (
	"fmt"
	"strconv"

	"github.com/amterp/postdeck/internal/model"
	"github.com/amterp/postdeck/internal/store"
	"github.com/amterp/postdeck/internal/util"
	"github.com/amterp/ra"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

const listTitleWidth = 60

func registerList(parent *ra.Cmd, ctx *CommandContext) {
	cmd := ra.NewCmd("list")
	cmd.SetDescription("List posts of the seed dataset")

	ctx.ListQuery, _ = ra.NewString("query").
		SetShort("q").
		SetOptional(true).
		SetFlagOnly(true).
		SetUsage("Only posts whose title contains this text (case-sensitive)").
		Register(cmd)

	ctx.ListLimit, _ = ra.NewInt("limit").
		SetShort("n").
		SetOptional(true).
		SetDefault(0).
		SetFlagOnly(true).
		SetUsage("Show at most this many posts (0 for all)").
		Register(cmd)

	ctx.ListUsed, _ = parent.RegisterCmd(cmd)
}

func runList(seedFlag, query string, limit int, jsonOutput bool) {
	app, err := NewApp()
	if err != nil {
		Fatal(err)
	}

	ds, err := app.LoadSeed(seedFlag)
	if err != nil {
		Fatal(err)
	}

	query = util.NormalizeQuery(query)
	posts := filterPosts(ds.NewStore(), query, limit)

	if jsonOutput {
		if err := printJson(NewListOutput(posts, query)); err != nil {
			Fatal(err)
		}
		return
	}

	if len(posts) == 0 {
		if query != "" {
			PrintInfo("No posts match %q", query)
		} else {
			PrintInfo("No posts found")
		}
		return
	}

	fmt.Println(renderPostTable(posts))
	fmt.Println(RenderMuted(fmt.Sprintf("%d post(s)", len(posts))))
}

// filterPosts applies the title filter then the limit. A non-positive limit means all.
func filterPosts(posts store.PostStore, query string, limit int) []model.Post {
	result := posts.Filter(store.ByTitle(query))
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result
}

func renderPostTable(posts []model.Post) string {
	header := lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cell := lipgloss.NewStyle().Padding(0, 1)

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(ColorMuted)).
		Headers("#", "Title", "User").
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return header
			case col == 0:
				return cell.Foreground(ColorAccent)
			case col == 2:
				return cell.Foreground(ColorMuted)
			default:
				return cell
			}
		})

	for _, p := range posts {
		t.Row(strconv.Itoa(p.ID), util.Truncate(p.Title, listTitleWidth), p.Username())
	}
	return t.String()
}
