package migrations

import "embed"

// FS contains the run history schema.
//
//go:embed *.sql
var FS embed.FS
