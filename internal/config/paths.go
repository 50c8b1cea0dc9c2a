package config

import (
	"os"
	"path/filepath"
)

const (
	LocalConfigFile  = "postdeck.toml"
	GlobalConfigDir  = ".config/postdeck"
	GlobalConfigFile = "config.toml"
)

// Paths resolves where the config file lives.
type Paths struct {
	workDir string
	homeDir string
}

// NewPaths creates a Paths resolver rooted at workDir.
// homeDir may be empty, which disables the global config location.
func NewPaths(workDir, homeDir string) *Paths {
	return &Paths{
		workDir: workDir,
		homeDir: homeDir,
	}
}

// DefaultPaths resolves against the current directory and the user's home.
func DefaultPaths() *Paths {
	wd, err := os.Getwd()
	if err != nil {
		wd = "."
	}
	home, _ := os.UserHomeDir()
	return NewPaths(wd, home)
}

// LocalConfigPath returns ./postdeck.toml relative to the working directory.
func (p *Paths) LocalConfigPath() string {
	return filepath.Join(p.workDir, LocalConfigFile)
}

// GlobalConfigPath returns ~/.config/postdeck/config.toml, or "" if no home is known.
func (p *Paths) GlobalConfigPath() string {
	if p.homeDir == "" {
		return ""
	}
	return filepath.Join(p.homeDir, GlobalConfigDir, GlobalConfigFile)
}

// ConfigPath returns the config file to use: the local one when it exists,
// otherwise the global one. Falls back to the local path if neither exists.
func (p *Paths) ConfigPath() string {
	local := p.LocalConfigPath()
	if fileExists(local) {
		return local
	}
	if global := p.GlobalConfigPath(); global != "" && fileExists(global) {
		return global
	}
	return local
}

// ResolveSeedPath makes a relative seed path relative to the working directory.
func (p *Paths) ResolveSeedPath(seedPath string) string {
	if seedPath == "" || filepath.IsAbs(seedPath) {
		return seedPath
	}
	return filepath.Join(p.workDir, seedPath)
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
