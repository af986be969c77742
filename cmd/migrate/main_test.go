package main

import (
	"errors"
	"io/fs"
	"strings"
	"testing"

	"github.com/golang-migrate/migrate/v4"

	appmigrations "github.com/wolfman30/studio-leads/migrations"
)

type fakeMigrator struct {
	calls   []string
	upErr   error
	forced  int
	version uint
	verErr  error
}

func (f *fakeMigrator) Up() error   { f.calls = append(f.calls, "up"); return f.upErr }
func (f *fakeMigrator) Down() error { f.calls = append(f.calls, "down"); return nil }
func (f *fakeMigrator) Force(v int) error {
	f.calls = append(f.calls, "force")
	f.forced = v
	return nil
}
func (f *fakeMigrator) Version() (uint, bool, error) {
	f.calls = append(f.calls, "version")
	return f.version, false, f.verErr
}

func TestRunDefaultsToUp(t *testing.T) {
	m := &fakeMigrator{upErr: migrate.ErrNoChange}
	if err := run(m, nil); err != nil {
		t.Fatalf("expected no change to succeed, got %v", err)
	}
	if len(m.calls) != 1 || m.calls[0] != "up" {
		t.Fatalf("expected a single up call, got %v", m.calls)
	}
}

func TestRunUpFailure(t *testing.T) {
	m := &fakeMigrator{upErr: errors.New("boom")}
	if err := run(m, []string{"up"}); err == nil {
		t.Fatalf("expected error")
	}
}

func TestRunForce(t *testing.T) {
	m := &fakeMigrator{}
	if err := run(m, []string{"force", "1"}); err != nil {
		t.Fatalf("force: %v", err)
	}
	if m.forced != 1 {
		t.Fatalf("expected version 1 forced, got %d", m.forced)
	}
	if err := run(m, []string{"force"}); err == nil {
		t.Fatalf("expected error without version")
	}
	if err := run(m, []string{"force", "x"}); err == nil {
		t.Fatalf("expected error for non-numeric version")
	}
}

func TestRunVersionWithoutMigrations(t *testing.T) {
	m := &fakeMigrator{verErr: migrate.ErrNilVersion}
	if err := run(m, []string{"version"}); err != nil {
		t.Fatalf("expected nil version to be reported, got %v", err)
	}
}

func TestRunUnknownCommand(t *testing.T) {
	if err := run(&fakeMigrator{}, []string{"sideways"}); err == nil {
		t.Fatalf("expected error for unknown command")
	}
}

func TestEmbeddedMigrationsArePaired(t *testing.T) {
	entries, err := fs.ReadDir(appmigrations.FS, ".")
	if err != nil {
		t.Fatalf("read embedded migrations: %v", err)
	}

	ups, downs := 0, 0
	for _, e := range entries {
		switch {
		case strings.HasSuffix(e.Name(), ".up.sql"):
			ups++
		case strings.HasSuffix(e.Name(), ".down.sql"):
			downs++
		}
	}
	if ups == 0 || ups != downs {
		t.Fatalf("expected paired migrations, got %d up and %d down", ups, downs)
	}

	schema, err := fs.ReadFile(appmigrations.FS, "000001_create_leads.up.sql")
	if err != nil {
		t.Fatalf("read schema: %v", err)
	}
	if !strings.Contains(string(schema), "lead_references") {
		t.Fatalf("expected lead_references column in schema")
	}
}
