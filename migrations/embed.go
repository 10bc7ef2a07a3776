// Package migrations carries the ledger schema as embedded golang-migrate files.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
