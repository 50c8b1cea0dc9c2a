//go:build !dev

package api

import (
	"embed"
	"io/fs"
)

//go:embed templates/*.html static/*
var embedded embed.FS

// liveAssets makes the handler re-read templates on every request.
const liveAssets = false

func assetFS() fs.FS {
	return embedded
}
