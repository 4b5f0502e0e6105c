// Package testutil builds SQLite fixtures shared by package tests.
package testutil

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/elasticpathing/traceprep/internal/database"
	"github.com/elasticpathing/traceprep/internal/models"
)

// Way links a map node to a road name.
type Way struct {
	WID  int64
	Name string
	NID  int64
}

// CreateMapDB writes a map dataset with the given nodes and ways into dir and
// returns its path.
func CreateMapDB(t *testing.T, dir string, nodes []models.MapNode, ways []Way) string {
	t.Helper()
	path := filepath.Join(dir, "map.sq3")
	ctx := context.Background()

	db, err := database.Open(ctx, database.Config{Path: path})
	if err != nil {
		t.Fatalf("Failed to open map fixture: %v", err)
	}
	defer db.Close()

	err = database.Transaction(ctx, db, func(tx *sql.Tx) error {
		stmts := []string{
			`CREATE TABLE nodes (id NUMBER PRIMARY KEY, latitude NUMBER, longitude NUMBER)`,
			`CREATE TABLE ways (wid NUMBER, name VARCHAR(50), type VARCHAR(50), nid NUMBER)`,
			`CREATE INDEX wid_nid ON ways (wid, nid)`,
		}
		for _, s := range stmts {
			if _, err := tx.Exec(s); err != nil {
				return err
			}
		}
		for _, n := range nodes {
			if _, err := tx.Exec(`INSERT INTO nodes (id, latitude, longitude) VALUES (?, ?, ?)`, n.ID, n.Lat, n.Lon); err != nil {
				return err
			}
		}
		for _, w := range ways {
			if _, err := tx.Exec(`INSERT INTO ways (wid, name, type, nid) VALUES (?, ?, 'residential', ?)`, w.WID, w.Name, w.NID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Failed to populate map fixture: %v", err)
	}

	return path
}

// CreateTraceStore writes a trace store holding samples at path.
func CreateTraceStore(t *testing.T, path string, samples []models.TraceSample) {
	t.Helper()
	ctx := context.Background()

	db, err := database.Open(ctx, database.Config{Path: path})
	if err != nil {
		t.Fatalf("Failed to open trace fixture: %v", err)
	}
	defer db.Close()

	err = database.Transaction(ctx, db, func(tx *sql.Tx) error {
		if err := database.ApplyStatements(ctx, tx, database.TraceTables); err != nil {
			return err
		}
		for _, s := range samples {
			if _, err := tx.Exec(`INSERT INTO gpstrace (latitude, longitude, time) VALUES (?, ?, ?)`, s.Lat, s.Lon, s.Time); err != nil {
				return err
			}
			if _, err := tx.Exec(`INSERT INTO speeds (speed, time) VALUES (?, ?)`, s.Speed, s.Time); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Failed to populate trace fixture: %v", err)
	}
}
