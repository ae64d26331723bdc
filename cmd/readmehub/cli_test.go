package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/MrSnakeDoc/readmehub/internal/docstore"
	"github.com/MrSnakeDoc/readmehub/internal/domain"
	"github.com/MrSnakeDoc/readmehub/internal/logger"
	"github.com/MrSnakeDoc/readmehub/internal/syncer"
)

func seededStore() *docstore.MemoryStore {
	return docstore.NewMemoryStore(&domain.Document{
		Categories: []domain.Category{{ID: "c1", Name: "Tech", Slug: "tech"}},
		Articles: []domain.Article{{
			ID: "a1", Title: "Hello", Slug: "hello", Content: "<p>Hi</p>",
			Category: domain.CategoryRef{ID: "c1"}, Comments: []domain.Comment{},
		}},
	})
}

func newTestCLI(store *docstore.MemoryStore, served *bool) (*bytes.Buffer, func(args ...string) error) {
	var out bytes.Buffer
	build := func() (*syncer.Synchronizer, error) {
		return syncer.New(store, nil, domain.Author{Name: "Admin User"}, logger.Nop()), nil
	}
	serve := func() error {
		*served = true
		return nil
	}
	app := newCLIApp(serve, build, &out)
	return &out, func(args ...string) error {
		return app.Run(append([]string{"readmehub"}, args...))
	}
}

func TestDefaultActionServes(t *testing.T) {
	served := false
	_, run := newTestCLI(seededStore(), &served)
	if err := run(); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !served {
		t.Error("no subcommand should serve")
	}
}

func TestExport(t *testing.T) {
	store := seededStore()
	served := false

	out, run := newTestCLI(store, &served)
	if err := run("export"); err != nil {
		t.Fatalf("export to stdout: %v", err)
	}
	if !bytes.Equal(out.Bytes(), store.Raw()) {
		t.Errorf("stdout export differs from stored document")
	}

	path := filepath.Join(t.TempDir(), "db.json")
	out.Reset()
	if err := run("export", "--out", path); err != nil {
		t.Fatalf("export to file: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(data, store.Raw()) {
		t.Errorf("file export differs from stored document")
	}
	if !strings.Contains(out.String(), path) {
		t.Errorf("summary = %s", out.String())
	}
}

func TestImport(t *testing.T) {
	store := seededStore()
	served := false
	out, run := newTestCLI(store, &served)

	path := filepath.Join(t.TempDir(), "upload.json")
	upload := `{"articles":[{"id":"a2","title":"Second","content":"x","category":"c1"}],"categories":[]}`
	if err := os.WriteFile(path, []byte(upload), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := run("import", path); err != nil {
		t.Fatalf("import: %v (output %s)", err, out.String())
	}
	snap, err := store.Load(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(snap.Document.Articles) != 2 {
		t.Errorf("articles = %d, want 2", len(snap.Document.Articles))
	}

	tests := []struct {
		name string
		args []string
	}{
		{"no file argument", []string{"import"}},
		{"missing file", []string{"import", filepath.Join(t.TempDir(), "nope.json")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := run(tt.args...); err == nil {
				t.Error("expected an error")
			}
		})
	}

	bad := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(bad, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := run("import", bad); err == nil || !strings.Contains(err.Error(), "Invalid JSON file.") {
		t.Errorf("bad JSON: err = %v", err)
	}
}

func TestBuildFailure(t *testing.T) {
	var out bytes.Buffer
	app := newCLIApp(func() error { return nil },
		func() (*syncer.Synchronizer, error) { return nil, errors.New("no store") }, &out)
	if err := app.Run([]string{"readmehub", "export"}); err == nil {
		t.Error("export should surface the build error")
	}
}
