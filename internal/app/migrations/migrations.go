package migrations

import "embed"

// FS holds goose sql migrations
//go:embed *.sql
var FS embed.FS
