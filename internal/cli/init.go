package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/amterp/postdeck/internal/config"
	pderr "github.com/amterp/postdeck/internal/errors"
	"github.com/amterp/postdeck/internal/model"
	"github.com/amterp/postdeck/internal/prompt"
	"github.com/amterp/postdeck/internal/seed"
	"github.com/amterp/postdeck/internal/store"
	"github.com/amterp/ra"
)

var logLevels = []string{"debug", "info", "warn", "error"}

func registerInit(parent *ra.Cmd, ctx *CommandContext) {
	cmd := ra.NewCmd("init")
	cmd.SetDescription("Create a postdeck config file")

	ctx.InitForce, _ = ra.NewBool("force").
		SetShort("f").
		SetOptional(true).
		SetFlagOnly(true).
		SetUsage("Overwrite an existing config file").
		Register(cmd)

	ctx.InitGlobal, _ = ra.NewBool("global").
		SetShort("g").
		SetOptional(true).
		SetFlagOnly(true).
		SetUsage("Write ~/.config/postdeck/config.toml instead of ./postdeck.toml").
		Register(cmd)

	ctx.InitUsed, _ = parent.RegisterCmd(cmd)
}

func runInit(force, global, nonInteractive bool) {
	paths := config.DefaultPaths()
	path := paths.LocalConfigPath()
	if global {
		path = paths.GlobalConfigPath()
		if path == "" {
			Fatal(fmt.Errorf("cannot determine home directory for the global config"))
		}
	}

	configStore := store.NewConfigStore(path)
	if configStore.Exists() && !force {
		Fatal(fmt.Errorf("%s already exists (use --force to overwrite)", path))
	}

	var prompter prompt.Prompter = prompt.NewHuhPrompter()
	if nonInteractive {
		prompter = nil
	}

	cfg, err := buildInitConfig(prompter, model.DefaultConfig())
	if err != nil {
		Fatal(err)
	}

	if err := configStore.Save(cfg); err != nil {
		Fatal(fmt.Errorf("failed to write config: %w", err))
	}
	PrintSuccess("Wrote %s", path)
}

// buildInitConfig asks for each setting, using cfg's values as defaults.
// A nil prompter keeps every default.
func buildInitConfig(p prompt.Prompter, cfg *model.Config) (*model.Config, error) {
	if p == nil {
		return cfg, nil
	}

	port, err := promptInt(p, "Port", cfg.Server.Port)
	if err != nil {
		return nil, err
	}
	cfg.Server.Port = port

	debounce, err := promptInt(p, "Search debounce (ms)", cfg.Search.DebounceMillis)
	if err != nil {
		return nil, err
	}
	cfg.Search.DebounceMillis = debounce

	seedPath, err := p.Input("Seed file (.json/.yaml, empty for the built-in posts)", cfg.Seed.Path)
	if err != nil {
		return nil, err
	}
	cfg.Seed.Path = strings.TrimSpace(seedPath)
	if cfg.Seed.Path != "" {
		if _, err := seed.Load(cfg.Seed.Path); err != nil {
			PrintWarning("Seed file can't be loaded yet: %v", err)
		}
		if cfg.Seed.Watch, err = p.Confirm("Reload the seed file when it changes?", cfg.Seed.Watch); err != nil {
			return nil, err
		}
	}

	if cfg.Server.OpenBrowser, err = p.Confirm("Open the browser on serve?", cfg.Server.OpenBrowser); err != nil {
		return nil, err
	}

	level, err := p.Select("Log level", logLevels, cfg.Log.Level)
	if err != nil {
		return nil, err
	}
	cfg.Log.Level = level

	return cfg, nil
}

func promptInt(p prompt.Prompter, title string, def int) (int, error) {
	raw, err := p.Input(title, strconv.Itoa(def))
	if err != nil {
		return 0, err
	}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, pderr.InvalidField(strings.ToLower(title), fmt.Sprintf("%q is not a positive number", raw))
	}
	return n, nil
}
