package migrations

import (
	"io/fs"
	"strings"
	"testing"
)

func TestRenderFiles(t *testing.T) {
	rendered, err := renderFiles("dev_")
	if err != nil {
		t.Fatalf("renderFiles() error = %v", err)
	}

	entries, err := fs.ReadDir(rendered, ".")
	if err != nil {
		t.Fatalf("ReadDir() error = %v", err)
	}
	if len(entries) == 0 {
		t.Fatal("no migration files rendered")
	}

	for _, entry := range entries {
		data, err := fs.ReadFile(rendered, entry.Name())
		if err != nil {
			t.Fatalf("ReadFile(%s) error = %v", entry.Name(), err)
		}
		sql := string(data)

		if strings.Contains(sql, prefixToken) {
			t.Errorf("%s: prefix token left unrendered", entry.Name())
		}
		if strings.Contains(sql, "TABLE") && !strings.Contains(sql, "dev_") {
			t.Errorf("%s: rendered SQL carries no table prefix", entry.Name())
		}
	}
}

func TestRenderFiles_EmptyPrefix(t *testing.T) {
	rendered, err := renderFiles("")
	if err != nil {
		t.Fatalf("renderFiles() error = %v", err)
	}

	data, err := fs.ReadFile(rendered, "000001_init.up.sql")
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}

	sql := string(data)
	if strings.Contains(sql, prefixToken) {
		t.Error("prefix token left unrendered")
	}
	if !strings.Contains(sql, "CREATE TABLE IF NOT EXISTS folders") {
		t.Error("empty prefix must yield bare table names")
	}
}

func TestMigrationPairsComplete(t *testing.T) {
	entries, err := fs.ReadDir(migrationFiles, "files")
	if err != nil {
		t.Fatalf("ReadDir(embedded) error = %v", err)
	}

	ups := map[string]bool{}
	downs := map[string]bool{}
	for _, entry := range entries {
		name := entry.Name()
		switch {
		case strings.HasSuffix(name, ".up.sql"):
			ups[strings.TrimSuffix(name, ".up.sql")] = true
		case strings.HasSuffix(name, ".down.sql"):
			downs[strings.TrimSuffix(name, ".down.sql")] = true
		default:
			t.Errorf("unexpected migration file %s", name)
		}
	}

	for base := range ups {
		if !downs[base] {
			t.Errorf("migration %s has no down file", base)
		}
	}
	for base := range downs {
		if !ups[base] {
			t.Errorf("migration %s has no up file", base)
		}
	}
}
