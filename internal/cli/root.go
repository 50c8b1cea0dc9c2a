package cli

import (
	"os"

	"github.com/amterp/ra"
)

// CommandContext holds parsed values and used flags for all commands.
type CommandContext struct {
	// Global flags
	NonInteractive *bool
	Json           *bool
	Seed           *string

	// init command
	InitUsed   *bool
	InitForce  *bool
	InitGlobal *bool

	// serve command
	ServeUsed   *bool
	ServePort   *int
	ServeNoOpen *bool
	ServeWatch  *bool

	// list command
	ListUsed  *bool
	ListQuery *string
	ListLimit *int

	// show command
	ShowUsed *bool
	ShowPost *string

	// completion command
	CompletionUsed  *bool
	CompletionShell *string
}

// Run is the main entry point for the CLI.
func Run() {
	ctx := &CommandContext{}

	cmd := ra.NewCmd("postdeck")
	cmd.SetDescription("List, filter and edit posts in a local web interface")

	ctx.NonInteractive, _ = ra.NewBool("non-interactive").
		SetShort("I").
		SetOptional(true).
		SetFlagOnly(true).
		SetUsage("Fail instead of prompting for missing input").
		Register(cmd, ra.WithGlobal(true))

	ctx.Json, _ = ra.NewBool("json").
		SetOptional(true).
		SetFlagOnly(true).
		SetUsage("Print machine-readable JSON").
		Register(cmd, ra.WithGlobal(true))

	ctx.Seed, _ = ra.NewString("seed").
		SetOptional(true).
		SetFlagOnly(true).
		SetUsage("Seed dataset (.json, .yaml or .yml) instead of the built-in one").
		Register(cmd, ra.WithGlobal(true))

	registerInit(cmd, ctx)
	registerServe(cmd, ctx)
	registerList(cmd, ctx)
	registerShow(cmd, ctx)
	registerCompletion(cmd, ctx)

	cmd.ParseOrExit(os.Args[1:])

	executeCommand(ctx, cmd)
}

func executeCommand(ctx *CommandContext, rootCmd *ra.Cmd) {
	switch {
	case *ctx.InitUsed:
		if *ctx.Json {
			warnJsonNotSupported("init")
		}
		runInit(*ctx.InitForce, *ctx.InitGlobal, *ctx.NonInteractive)

	case *ctx.ServeUsed:
		if *ctx.Json {
			warnJsonNotSupported("serve")
		}
		runServe(*ctx.Seed, *ctx.ServePort, *ctx.ServeNoOpen, *ctx.ServeWatch)

	case *ctx.ListUsed:
		runList(*ctx.Seed, *ctx.ListQuery, *ctx.ListLimit, *ctx.Json)

	case *ctx.ShowUsed:
		runShow(*ctx.Seed, *ctx.ShowPost, *ctx.Json)

	case *ctx.CompletionUsed:
		runCompletion(*ctx.CompletionShell, rootCmd)
	}
}
