package shared

import (
	"testing"
)

func TestMigrationRunner(t *testing.T) {
	t.Run("loadMigrations", func(t *testing.T) {
		migrations, err := loadMigrations()
		if err != nil {
			t.Fatalf("failed to load migrations: %v", err)
		}

		if len(migrations) == 0 {
			t.Fatal("expected at least one migration")
		}

		for i := 1; i < len(migrations); i++ {
			if migrations[i].Version <= migrations[i-1].Version {
				t.Errorf("migrations not sorted: version %d comes after %d", migrations[i].Version, migrations[i-1].Version)
			}
		}

		for _, m := range migrations {
			if m.Up == "" {
				t.Errorf("migration version %d missing up SQL", m.Version)
			}
			if m.Down == "" {
				t.Errorf("migration version %d missing down SQL", m.Version)
			}
		}
	})

	t.Run("RunMigrations And Rollback", func(t *testing.T) {
		db, err := NewDatabase(":memory:")
		if err != nil {
			t.Fatalf("failed to create database: %v", err)
		}
		defer db.Close()

		if err := RunMigrations(db); err != nil {
			t.Fatalf("failed to run migrations: %v", err)
		}

		var count int
		err = db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&count)
		if err != nil {
			t.Fatalf("failed to query schema_migrations: %v", err)
		}
		if count == 0 {
			t.Error("expected at least one migration to be applied")
		}

		_, err = db.Exec("SELECT 1 FROM runs LIMIT 1")
		if err != nil {
			t.Errorf("runs table should exist after migrations: %v", err)
		}

		if err := RollbackMigration(db); err != nil {
			t.Fatalf("failed to rollback migration: %v", err)
		}

		var newCount int
		err = db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&newCount)
		if err != nil {
			t.Fatalf("failed to query schema_migrations after rollback: %v", err)
		}
		if newCount >= count {
			t.Errorf("expected migration count to decrease after rollback, got %d (was %d)", newCount, count)
		}
	})

	t.Run("Idempotent Migrations", func(t *testing.T) {
		db, err := NewDatabase(":memory:")
		if err != nil {
			t.Fatalf("failed to create database: %v", err)
		}
		defer db.Close()

		if err := RunMigrations(db); err != nil {
			t.Fatalf("failed to run migrations first time: %v", err)
		}

		if err := RunMigrations(db); err != nil {
			t.Fatalf("failed to run migrations second time: %v", err)
		}

		var count int
		err = db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&count)
		if err != nil {
			t.Fatalf("failed to query schema_migrations: %v", err)
		}

		migrations, _ := loadMigrations()
		if count != len(migrations) {
			t.Errorf("expected %d migrations to be applied, got %d", len(migrations), count)
		}
	})
}

func TestAppliedVersions(t *testing.T) {
	db, err := NewDatabase(MemoryDSN)
	if err != nil {
		t.Fatalf("failed to create database: %v", err)
	}
	defer db.Close()

	versions, err := AppliedVersions(db)
	if err != nil {
		t.Fatalf("failed to read versions: %v", err)
	}
	if len(versions) != 0 {
		t.Errorf("expected no versions on a fresh database, got %v", versions)
	}

	if err := RunMigrations(db); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	versions, err = AppliedVersions(db)
	if err != nil {
		t.Fatalf("failed to read versions: %v", err)
	}
	migrations, _ := loadMigrations()
	if len(versions) != len(migrations) {
		t.Fatalf("expected %d versions, got %v", len(migrations), versions)
	}
	for i, m := range migrations {
		if versions[i] != m.Version {
			t.Errorf("expected version %d at %d, got %d", m.Version, i, versions[i])
		}
	}
}

func TestOpenDatabase(t *testing.T) {
	db, err := OpenDatabase(DatabaseConfig{Path: MemoryDSN})
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	if _, err := db.Exec("SELECT user_id FROM runs LIMIT 1"); err != nil {
		t.Errorf("expected all migrations applied: %v", err)
	}
}

func TestSplitStatements(t *testing.T) {
	tests := []struct {
		name   string
		script string
		want   []string
	}{
		{"empty", "", nil},
		{"comments only", "-- nothing\n  -- here", nil},
		{"single", "CREATE TABLE a (id INTEGER);", []string{"CREATE TABLE a (id INTEGER)"}},
		{
			"multiple with trailing comments",
			"CREATE TABLE a (id INTEGER); -- first\nCREATE INDEX i ON a (id);\n",
			[]string{"CREATE TABLE a (id INTEGER)", "CREATE INDEX i ON a (id)"},
		},
		{
			"statement spanning lines",
			"CREATE TABLE b (\n  id INTEGER, -- key\n  name TEXT\n);",
			[]string{"CREATE TABLE b (\nid INTEGER,\nname TEXT\n)"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := splitStatements(tt.script)
			if len(got) != len(tt.want) {
				t.Fatalf("expected %d statements, got %d: %q", len(tt.want), len(got), got)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("statement %d: expected %q, got %q", i, tt.want[i], got[i])
				}
			}
		})
	}
}

func TestMigrationNames(t *testing.T) {
	migrations, err := loadMigrations()
	if err != nil {
		t.Fatalf("failed to load migrations: %v", err)
	}

	want := map[int]string{0: "create_runs", 1: "add_runs_user"}
	for _, m := range migrations {
		if name, ok := want[m.Version]; ok && m.Name != name {
			t.Errorf("version %d: expected name %q, got %q", m.Version, name, m.Name)
		}
	}
}

func TestRollbackEmpty(t *testing.T) {
	db, err := NewDatabase(MemoryDSN)
	if err != nil {
		t.Fatalf("failed to create database: %v", err)
	}
	defer db.Close()

	if err := RollbackMigration(db); err == nil {
		t.Error("expected error rolling back a fresh database")
	}
}
