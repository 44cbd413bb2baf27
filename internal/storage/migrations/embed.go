package migrations

import "embed"

// PostgresFS embeds the launch and trade record schema migrations.
//
//go:embed postgres/*.sql
var PostgresFS embed.FS

// ClickhouseFS embeds the mention archive schema migrations.
//
//go:embed clickhouse/*.sql
var ClickhouseFS embed.FS
