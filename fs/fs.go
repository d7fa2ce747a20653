package appfs

import "embed"

// FS holds the application's embedded assets: database migrations and email
// templates.
//
//go:embed migrations templates
var FS embed.FS
