// Package seed loads the initial post and user dataset every session starts from.
package seed

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/amterp/postdeck/internal/model"
	"github.com/amterp/postdeck/internal/store"
	"github.com/amterp/postdeck/internal/version"
	"gopkg.in/yaml.v3"
)

//go:embed data/default.json
var defaultData []byte

// Dataset is the on-disk seed format.
type Dataset struct {
	// Version is optional; zero means the current version.
	Version int          `json:"version,omitempty" yaml:"version,omitempty"`
	Users   []model.User `json:"users" yaml:"users"`
	Posts   []model.Post `json:"posts" yaml:"posts"`
}

// Default returns the embedded dataset.
func Default() *Dataset {
	ds, err := decode(defaultData, ".json")
	if err != nil {
		// The embedded file is part of the build.
		panic(fmt.Sprintf("seed: embedded dataset is invalid: %v", err))
	}
	return ds
}

// Load reads a dataset from a .json, .yaml or .yml file.
func Load(path string) (*Dataset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file: %w", err)
	}

	ds, err := decode(data, filepath.Ext(path))
	if err != nil {
		return nil, fmt.Errorf("failed to parse seed file %s: %w", path, err)
	}

	if ds.Version != 0 && ds.Version != version.CurrentSeedVersion {
		return nil, version.InvalidSeedVersion(path, ds.Version)
	}
	return ds, nil
}

// LoadOrDefault loads path, or the embedded dataset when path is empty.
func LoadOrDefault(path string) (*Dataset, error) {
	if path == "" {
		return Default(), nil
	}
	return Load(path)
}

func decode(data []byte, ext string) (*Dataset, error) {
	var ds Dataset
	switch strings.ToLower(ext) {
	case ".json":
		if err := json.Unmarshal(data, &ds); err != nil {
			return nil, err
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &ds); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unsupported seed format %q (want .json, .yaml or .yml)", ext)
	}
	return &ds, nil
}

// Directory returns the dataset's users as a lookup.
func (ds *Dataset) Directory() *store.MemoryUserDirectory {
	return store.NewUserDirectory(ds.Users)
}

// PreparedPosts returns a copy of the posts with each post's user attached.
// Posts whose user is unknown keep a nil User.
func (ds *Dataset) PreparedPosts() []model.Post {
	dir := ds.Directory()
	out := make([]model.Post, len(ds.Posts))
	for i, p := range ds.Posts {
		p.User = nil
		if u, ok := dir.Get(p.UserID); ok {
			p.User = u
		}
		out[i] = p
	}
	return out
}

// NewStore builds a fresh post store over the dataset.
func (ds *Dataset) NewStore() *store.MemoryPostStore {
	return store.NewMemoryPostStore(ds.Directory(), ds.PreparedPosts())
}
