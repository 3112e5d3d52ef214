package appfs

import "embed"

//go:embed migrations all:templates static
var FS embed.FS
