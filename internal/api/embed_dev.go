//go:build dev

package api

import (
	"io/fs"
	"os"
	"path/filepath"
)

// liveAssets makes the handler re-read templates on every request so
// template and script edits show up without a rebuild. Run from the repo root.
const liveAssets = true

func assetFS() fs.FS {
	return os.DirFS(filepath.Join("internal", "api"))
}
