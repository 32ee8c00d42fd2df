// Package migrations embeds the graph schema.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
