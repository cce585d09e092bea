package sqlitemigrate

import (
	"context"
	"database/sql"
	"testing"
	"testing/fstest"

	_ "modernc.org/sqlite"
)

func openMemoryDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", "file::memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func countRows(t *testing.T, db *sql.DB, query string) int {
	t.Helper()
	var n int
	if err := db.QueryRow(query).Scan(&n); err != nil {
		t.Fatalf("query %q: %v", query, err)
	}
	return n
}

func hasTable(t *testing.T, db *sql.DB, name string) bool {
	t.Helper()
	return countRows(t, db, "SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='"+name+"'") == 1
}

func TestApplyRecordsEachFileOnce(t *testing.T) {
	db := openMemoryDB(t)
	files := fstest.MapFS{
		"001_items.sql": {Data: []byte("-- +migrate Up\nCREATE TABLE items(id TEXT PRIMARY KEY);\n-- +migrate Down\nDROP TABLE items;")},
		"002_tags.sql":  {Data: []byte("CREATE TABLE tags(id TEXT PRIMARY KEY);")},
		"README.md":     {Data: []byte("ignored")},
	}

	for i := 0; i < 2; i++ {
		if err := Apply(context.Background(), db, files, "."); err != nil {
			t.Fatalf("apply pass %d: %v", i, err)
		}
	}

	if got := countRows(t, db, "SELECT COUNT(*) FROM schema_migrations"); got != 2 {
		t.Fatalf("expected 2 recorded migrations, got %d", got)
	}
	if !hasTable(t, db, "items") || !hasTable(t, db, "tags") {
		t.Fatal("expected both tables to exist")
	}
}

func TestApplyUsesRootInMigrationKey(t *testing.T) {
	db := openMemoryDB(t)
	files := fstest.MapFS{
		"sql/001_items.sql": {Data: []byte("CREATE TABLE items(id TEXT PRIMARY KEY);")},
	}
	if err := Apply(context.Background(), db, files, "sql"); err != nil {
		t.Fatalf("apply: %v", err)
	}
	var name string
	if err := db.QueryRow("SELECT name FROM schema_migrations").Scan(&name); err != nil {
		t.Fatalf("read migration key: %v", err)
	}
	if name != "sql/001_items.sql" {
		t.Fatalf("unexpected migration key %q", name)
	}
}

func TestApplyLeavesFailedMigrationUnrecorded(t *testing.T) {
	db := openMemoryDB(t)
	bad := fstest.MapFS{"001_bad.sql": {Data: []byte("CREAT TABLE nope(id INT);")}}
	if err := Apply(context.Background(), db, bad, ""); err == nil {
		t.Fatal("expected malformed migration to fail")
	}
	if got := countRows(t, db, "SELECT COUNT(*) FROM schema_migrations"); got != 0 {
		t.Fatalf("expected no recorded migrations, got %d", got)
	}
}

func TestApplyToleratesExistingObjects(t *testing.T) {
	db := openMemoryDB(t)
	if _, err := db.Exec("CREATE TABLE items(id TEXT PRIMARY KEY)"); err != nil {
		t.Fatalf("seed table: %v", err)
	}
	files := fstest.MapFS{"001_items.sql": {Data: []byte("CREATE TABLE items(id TEXT PRIMARY KEY);")}}
	if err := Apply(context.Background(), db, files, "."); err != nil {
		t.Fatalf("expected existing table to be tolerated: %v", err)
	}
}

func TestUpSection(t *testing.T) {
	cases := map[string]string{
		"CREATE TABLE a(x);":                                     "CREATE TABLE a(x);",
		"-- +migrate Up\nCREATE TABLE a(x);":                     "\nCREATE TABLE a(x);",
		"-- +migrate Up\nCREATE TABLE a(x);\n-- +migrate Down\n": "\nCREATE TABLE a(x);\n",
	}
	for in, want := range cases {
		if got := UpSection(in); got != want {
			t.Fatalf("UpSection(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestApplyRequiresDB(t *testing.T) {
	if err := Apply(context.Background(), nil, fstest.MapFS{}, "."); err == nil {
		t.Fatal("expected nil db to fail")
	}
}
