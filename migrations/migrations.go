// Package migrations embeds the PostgreSQL schema files.
package migrations

import "embed"

// FS holds every *.sql file in this directory, applied in lexical order.
//
//go:embed *.sql
var FS embed.FS
