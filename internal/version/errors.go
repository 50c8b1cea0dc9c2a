package version

import (
	"fmt"
)

// SchemaVersionError indicates a schema version problem during file read.
type SchemaVersionError struct {
	FileType    string // "config", "seed"
	FilePath    string // Path to the problematic file
	Found       string // What was found (e.g., "missing", "2", "config/2")
	Expected    string // What was expected (e.g., "1", "config/1")
	MinRequired string // Minimum postdeck version required (if upgrade needed)
}

func (e *SchemaVersionError) Error() string {
	if e.MinRequired != "" {
		return fmt.Sprintf(
			"%s schema version %s requires postdeck >= %s (file: %s, supports up to: %s)",
			e.FileType, e.Found, e.MinRequired, e.FilePath, e.Expected,
		)
	}
	if e.Found == "missing" {
		return fmt.Sprintf(
			"%s has no schema version (file: %s). Run 'postdeck init' to recreate it.",
			e.FileType, e.FilePath,
		)
	}
	return fmt.Sprintf(
		"%s has invalid schema version: found %s, expected %s (file: %s)",
		e.FileType, e.Found, e.Expected, e.FilePath,
	)
}

// MissingConfigSchema creates an error for a config file missing postdeck_schema.
func MissingConfigSchema(path string) error {
	return &SchemaVersionError{
		FileType: "config",
		FilePath: path,
		Found:    "missing",
		Expected: CurrentConfigSchema(),
	}
}

// InvalidConfigSchema creates an error for a config file with an unsupported schema.
func InvalidConfigSchema(path, found string) error {
	e := &SchemaVersionError{
		FileType: "config",
		FilePath: path,
		Found:    found,
		Expected: CurrentConfigSchema(),
	}
	if v, err := ParseConfigVersion(found); err == nil && v > CurrentConfigVersion {
		e.MinRequired = minRequired(found)
	}
	return e
}

// InvalidSeedVersion creates an error for a seed file with an unsupported version.
// A seed file without a version is treated as the current version.
func InvalidSeedVersion(path string, found int) error {
	e := &SchemaVersionError{
		FileType: "seed",
		FilePath: path,
		Found:    fmt.Sprintf("%d", found),
		Expected: fmt.Sprintf("%d", CurrentSeedVersion),
	}
	if found > CurrentSeedVersion {
		e.MinRequired = minRequired(fmt.Sprintf("seed/%d", found))
	}
	return e
}

func minRequired(key string) string {
	if v, ok := MinPostdeckVersion[key]; ok {
		return v
	}
	return "a newer version"
}
