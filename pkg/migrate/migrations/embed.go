// Package migrations embeds the goose SQL migrations. Every file must run
// unchanged on SQLite and Postgres.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
