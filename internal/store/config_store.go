package store

import (
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/amterp/postdeck/internal/model"
	"github.com/amterp/postdeck/internal/version"
)

// FileConfigStore implements ConfigStore using a TOML file.
type FileConfigStore struct {
	path string
}

// NewConfigStore creates a config store reading and writing path.
func NewConfigStore(path string) *FileConfigStore {
	return &FileConfigStore{path: path}
}

func (s *FileConfigStore) Path() string {
	return s.path
}

// Load reads the config from disk.
// Returns the default config if the file doesn't exist.
func (s *FileConfigStore) Load() (*model.Config, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return model.DefaultConfig(), nil
		}
		return nil, err
	}

	// Start from defaults so booleans missing from the file keep their default.
	cfg := model.DefaultConfig()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	// Strict version validation (only if file exists)
	if cfg.Schema == "" {
		return nil, version.MissingConfigSchema(s.path)
	}
	if cfg.Schema != version.CurrentConfigSchema() {
		return nil, version.InvalidConfigSchema(s.path, cfg.Schema)
	}

	cfg.ApplyDefaults()
	return cfg, nil
}

// Save writes the config to disk.
func (s *FileConfigStore) Save(cfg *model.Config) error {
	// Stamp current schema version
	cfg.Schema = version.CurrentConfigSchema()

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	f, err := os.Create(s.path)
	if err != nil {
		return err
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(cfg)
}

// Exists reports whether the config file is present.
func (s *FileConfigStore) Exists() bool {
	_, err := os.Stat(s.path)
	return err == nil
}
