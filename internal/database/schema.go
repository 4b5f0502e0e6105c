package database

import (
	"context"
	"database/sql"
	"fmt"
)

// Statement is one named schema statement.
type Statement struct {
	Name string
	SQL  string
}

// TraceTables creates the position and speed tables of a trace store and
// clears any rows left from an earlier run. An earlier anchor is dropped with
// them, so a rewritten store is matched again. The unique indexes on time
// make INSERT OR REPLACE overwrite samples instead of accumulating duplicates.
var TraceTables = []Statement{
	{"drop_firstnode", `DROP TABLE IF EXISTS firstnode`},
	{"create_gpstrace", `CREATE TABLE IF NOT EXISTS gpstrace (latitude NUMBER, longitude NUMBER, time NUMBER)`},
	{"index_gpstrace_time", `CREATE UNIQUE INDEX IF NOT EXISTS gpstrace_time ON gpstrace (time)`},
	{"clear_gpstrace", `DELETE FROM gpstrace`},
	{"create_speeds", `CREATE TABLE IF NOT EXISTS speeds (speed NUMBER, time NUMBER)`},
	{"index_speeds_time", `CREATE UNIQUE INDEX IF NOT EXISTS speeds_time ON speeds (time)`},
	{"clear_speeds", `DELETE FROM speeds`},
}

// AnchorTable creates the single-row anchor table and clears it.
var AnchorTable = []Statement{
	{"create_firstnode", `CREATE TABLE IF NOT EXISTS firstnode (time NUMBER, "node id" NUMBER)`},
	{"clear_firstnode", `DELETE FROM firstnode`},
}

// AnchorTableName is the table whose presence marks a store as anchored.
const AnchorTableName = "firstnode"

// ApplyStatements executes statements in order inside tx.
func ApplyStatements(ctx context.Context, tx *sql.Tx, stmts []Statement) error {
	for _, s := range stmts {
		if _, err := tx.ExecContext(ctx, s.SQL); err != nil {
			return fmt.Errorf("failed to execute %s: %w", s.Name, err)
		}
	}
	return nil
}

// ApplySchema executes statements in order within a single transaction.
func ApplySchema(ctx context.Context, db *sql.DB, stmts []Statement) error {
	return Transaction(ctx, db, func(tx *sql.Tx) error {
		return ApplyStatements(ctx, tx, stmts)
	})
}
