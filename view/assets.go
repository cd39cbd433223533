package view

import (
	"embed"
	"io/fs"
)

//go:embed assets
var assetsFS embed.FS

// Assets is the static content served under /assets/.
var Assets, _ = fs.Sub(assetsFS, "assets")
