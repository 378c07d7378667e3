package ledger

import _ "embed"

// Schema is the DDL PostgresStore expects.
//
//go:embed schema.sql
var Schema string
