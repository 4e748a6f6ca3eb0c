package sqlite

import "strings"

// pragmas run once per Attach.
var pragmas = []string{
	`PRAGMA journal_mode = WAL;`,
	`PRAGMA synchronous = NORMAL;`,
	`PRAGMA busy_timeout = 5000;`,
}

const (
	selectTableSQL = `SELECT sql FROM sqlite_master WHERE type = 'table' AND name = ?`
	listTablesSQL  = `SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name`
)

// Table names come back from sqlite_master, so they are quoted.
func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func countRowsSQL(table string) string {
	return `SELECT COUNT(*) FROM ` + quoteIdent(table)
}

func selectRowsSQL(table string) string {
	return `SELECT * FROM ` + quoteIdent(table) + ` ORDER BY rowid`
}
