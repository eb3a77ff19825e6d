// Package migrations embeds the PostgreSQL schema applied by "dentx-server migrate up".
package migrations

import "embed"

//go:embed *.sql
var Files embed.FS
