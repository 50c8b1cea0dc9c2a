package cli

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/amterp/postdeck/internal/config"
	"github.com/amterp/postdeck/internal/model"
	"github.com/amterp/postdeck/internal/seed"
	"github.com/amterp/postdeck/internal/store"
	"github.com/amterp/ra"
)

// completionCtx provides lightweight seed access for shell completion.
// Completion functions run during ParseOrExit, before NewApp() is called,
// so the seed is resolved from the raw arguments and the config file.
type completionCtx struct {
	once  sync.Once
	posts []model.Post
	err   error
}

var compCtx completionCtx

func initCompletionCtx() {
	compCtx.once.Do(func() {
		paths := config.DefaultPaths()

		seedPath := seedFromArgs(os.Args)
		if seedPath == "" {
			cfg, err := store.NewConfigStore(paths.ConfigPath()).Load()
			if err == nil {
				seedPath = cfg.Seed.Path
			}
		}

		ds, err := seed.LoadOrDefault(paths.ResolveSeedPath(seedPath))
		if err != nil {
			compCtx.err = fmt.Errorf("no seed: %w", err)
			return
		}
		compCtx.posts = ds.PreparedPosts()
	})
}

// completePosts returns post IDs matching the given prefix.
func completePosts(toComplete string) ([]string, ra.CompletionDirective) {
	initCompletionCtx()
	if compCtx.err != nil {
		return nil, ra.CompletionDirectiveNoFileComp
	}
	return matchPostIDs(compCtx.posts, toComplete), ra.CompletionDirectiveNoFileComp
}

func matchPostIDs(posts []model.Post, prefix string) []string {
	var result []string
	for _, p := range posts {
		id := strconv.Itoa(p.ID)
		if strings.HasPrefix(id, prefix) {
			result = append(result, id)
		}
	}
	return result
}

// seedFromArgs scans the argument list for an explicit --seed flag value.
func seedFromArgs(args []string) string {
	for i, arg := range args {
		// --seed=value (skip empty values so fallback logic runs)
		if strings.HasPrefix(arg, "--seed=") {
			if v := strings.TrimPrefix(arg, "--seed="); v != "" {
				return v
			}
		}
		if arg == "--seed" && i+1 < len(args) {
			return args[i+1]
		}
	}
	return ""
}

// registerCompletion adds the "postdeck completion <shell>" command.
func registerCompletion(parent *ra.Cmd, ctx *CommandContext) {
	cmd := ra.NewCmd("completion")
	cmd.SetDescription("Output shell completion script")

	ctx.CompletionShell, _ = ra.NewString("shell").
		SetUsage("Shell type").
		SetEnumConstraint([]string{"bash", "zsh"}).
		Register(cmd)

	ctx.CompletionUsed, _ = parent.RegisterCmd(cmd)
}

// runCompletion outputs the shell completion script to stdout.
func runCompletion(shell string, rootCmd *ra.Cmd) {
	var err error
	switch shell {
	case "bash":
		err = rootCmd.GenBashCompletion(os.Stdout)
	case "zsh":
		err = rootCmd.GenZshCompletion(os.Stdout)
	default:
		Fatal(fmt.Errorf("unsupported shell: %s (supported: bash, zsh)", shell))
	}
	if err != nil {
		Fatal(fmt.Errorf("failed to generate completion script: %w", err))
	}
}
