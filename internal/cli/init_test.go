package cli

import (
	"errors"
	"testing"

	pderr "github.com/amterp/postdeck/internal/errors"
	"github.com/amterp/postdeck/internal/model"
	"github.com/amterp/postdeck/testutil"
)

// scriptedPrompter answers prompts in order and records the titles it saw.
type scriptedPrompter struct {
	inputs   []string
	confirms []bool
	selects  []string
	titles   []string
}

func (p *scriptedPrompter) Input(title, defaultValue string) (string, error) {
	p.titles = append(p.titles, title)
	if len(p.inputs) == 0 {
		return defaultValue, nil
	}
	v := p.inputs[0]
	p.inputs = p.inputs[1:]
	return v, nil
}

func (p *scriptedPrompter) Confirm(title string, defaultValue bool) (bool, error) {
	p.titles = append(p.titles, title)
	if len(p.confirms) == 0 {
		return defaultValue, nil
	}
	v := p.confirms[0]
	p.confirms = p.confirms[1:]
	return v, nil
}

func (p *scriptedPrompter) Select(title string, options []string, defaultValue string) (string, error) {
	p.titles = append(p.titles, title)
	if len(p.selects) == 0 {
		return defaultValue, nil
	}
	v := p.selects[0]
	p.selects = p.selects[1:]
	return v, nil
}

type failingPrompter struct{ err error }

func (p failingPrompter) Input(string, string) (string, error)            { return "", p.err }
func (p failingPrompter) Confirm(string, bool) (bool, error)              { return false, p.err }
func (p failingPrompter) Select(string, []string, string) (string, error) { return "", p.err }

func TestBuildInitConfig_NilPrompterKeepsDefaults(t *testing.T) {
	cfg, err := buildInitConfig(nil, model.DefaultConfig())
	if err != nil {
		t.Fatalf("buildInitConfig failed: %v", err)
	}
	if *cfg != *model.DefaultConfig() {
		t.Errorf("Expected defaults, got %+v", cfg)
	}
}

func TestBuildInitConfig_Answers(t *testing.T) {
	dir, cleanup := testutil.TempDir(t)
	defer cleanup()
	seedPath := testutil.WriteFile(t, dir, "posts.yaml", "users: []\nposts: []\n")

	p := &scriptedPrompter{
		inputs:   []string{"8081", "300", seedPath},
		confirms: []bool{true, false},
		selects:  []string{"debug"},
	}

	cfg, err := buildInitConfig(p, model.DefaultConfig())
	if err != nil {
		t.Fatalf("buildInitConfig failed: %v", err)
	}

	if cfg.Server.Port != 8081 {
		t.Errorf("Expected port 8081, got %d", cfg.Server.Port)
	}
	if cfg.Search.DebounceMillis != 300 {
		t.Errorf("Expected debounce 300, got %d", cfg.Search.DebounceMillis)
	}
	if cfg.Seed.Path != seedPath || !cfg.Seed.Watch {
		t.Errorf("Expected watched seed %q, got %+v", seedPath, cfg.Seed)
	}
	if cfg.Server.OpenBrowser {
		t.Error("Expected open_browser false")
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Expected log level debug, got %q", cfg.Log.Level)
	}
}

func TestBuildInitConfig_NoSeedSkipsWatch(t *testing.T) {
	p := &scriptedPrompter{inputs: []string{"", "", ""}}

	cfg, err := buildInitConfig(p, model.DefaultConfig())
	if err != nil {
		t.Fatalf("buildInitConfig failed: %v", err)
	}
	if cfg.Server.Port != model.DefaultPort {
		t.Errorf("Expected blank port to keep default, got %d", cfg.Server.Port)
	}
	for _, title := range p.titles {
		if title == "Reload the seed file when it changes?" {
			t.Error("Expected no watch prompt without a seed file")
		}
	}
}

func TestBuildInitConfig_InvalidNumber(t *testing.T) {
	p := &scriptedPrompter{inputs: []string{"not-a-port"}}

	_, err := buildInitConfig(p, model.DefaultConfig())
	if !pderr.IsValidationError(err) {
		t.Errorf("Expected validation error, got %v", err)
	}
}

func TestBuildInitConfig_PromptError(t *testing.T) {
	want := errors.New("user aborted")

	_, err := buildInitConfig(failingPrompter{err: want}, model.DefaultConfig())
	if !errors.Is(err, want) {
		t.Errorf("Expected prompt error, got %v", err)
	}
}
