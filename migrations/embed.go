// Package migrations embeds the SQL schema applied at startup when a database is configured.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
