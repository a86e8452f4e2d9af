// Package migrations embeds the SQL schema of the appointment service.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
