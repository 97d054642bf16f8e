package capture

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/Fato07/knowledge-base/internal/model"
)

func writeMarker(t *testing.T, dir, name string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o600); err != nil {
		t.Fatal(err)
	}
}

func TestDetectProjectFromMarker(t *testing.T) {
	root := t.TempDir()
	writeMarker(t, root, "go.mod")

	got := NewProjectDetector().Detect(root)
	if got == nil {
		t.Fatal("no project detected")
	}
	if got.Type != "go" {
		t.Errorf("type = %q, want go", got.Type)
	}
	if got.Name != filepath.Base(root) {
		t.Errorf("name = %q, want %q", got.Name, filepath.Base(root))
	}
	if got.Root != root {
		t.Errorf("root = %q, want %q", got.Root, root)
	}
}

func TestDetectWalksUpToRoot(t *testing.T) {
	root := t.TempDir()
	writeMarker(t, root, "Cargo.toml")
	nested := filepath.Join(root, "src", "parser")
	if err := os.MkdirAll(nested, 0o700); err != nil {
		t.Fatal(err)
	}

	got := NewProjectDetector().Detect(nested)
	if got == nil || got.Root != root || got.Type != "rust" {
		t.Fatalf("got %+v, want root %s type rust", got, root)
	}
}

func TestDetectMarkerPrecedence(t *testing.T) {
	// A repo with both a Makefile and a go.mod is a go project.
	root := t.TempDir()
	writeMarker(t, root, "Makefile")
	writeMarker(t, root, "go.mod")

	got := NewProjectDetector().Detect(root)
	if got == nil || got.Type != "go" {
		t.Fatalf("got %+v, want type go", got)
	}
}

func TestDetectRepositoryBeatsNestedModule(t *testing.T) {
	repo := t.TempDir()
	if err := os.MkdirAll(filepath.Join(repo, ".git"), 0o700); err != nil {
		t.Fatal(err)
	}
	writeMarker(t, repo, "package.json")
	module := filepath.Join(repo, "services", "api")
	if err := os.MkdirAll(module, 0o700); err != nil {
		t.Fatal(err)
	}
	writeMarker(t, module, "go.mod")

	got := NewProjectDetector().Detect(module)
	if got == nil {
		t.Fatal("no project detected")
	}
	// The nested module has its own marker, so it is its own root; only
	// unmarked directories walk up to the repository.
	if got.Root != module || got.Type != "go" {
		t.Errorf("got root %q type %q", got.Root, got.Type)
	}

	unmarked := filepath.Join(repo, "docs")
	if err := os.MkdirAll(unmarked, 0o700); err != nil {
		t.Fatal(err)
	}
	got = NewProjectDetector().Detect(unmarked)
	if got == nil || got.Root != repo || got.Type != "node" {
		t.Errorf("got %+v, want repo root %s type node", got, repo)
	}
}

func TestDetectCachesResult(t *testing.T) {
	root := t.TempDir()
	writeMarker(t, root, "pyproject.toml")

	d := NewProjectDetector()
	first := d.Detect(root)
	if first == nil || first.Type != "python" {
		t.Fatalf("got %+v", first)
	}

	// Removing the marker does not change the cached answer.
	if err := os.Remove(filepath.Join(root, "pyproject.toml")); err != nil {
		t.Fatal(err)
	}
	if second := d.Detect(root); second != first {
		t.Errorf("cache miss: %+v vs %+v", second, first)
	}
}

func TestRepoNameFromURL(t *testing.T) {
	tests := map[string]string{
		"https://github.com/acme/widgets.git": "widgets",
		"git@github.com:acme/widgets.git":     "widgets",
		"https://gitlab.com/acme/widgets/":    "widgets",
		"widgets":                             "widgets",
	}
	for url, want := range tests {
		if got := repoNameFromURL(url); got != want {
			t.Errorf("repoNameFromURL(%q) = %q, want %q", url, got, want)
		}
	}
}

func TestShellAdapterTagsProject(t *testing.T) {
	root := t.TempDir()
	writeMarker(t, root, "go.mod")

	a := NewShellAdapter()
	raw, err := a.Observe(Invocation{
		Command: &CommandInvocation{Command: "go test ./...", Dir: root},
	})
	if err != nil {
		t.Fatalf("Observe: %v", err)
	}
	if raw.Project == nil || raw.Project.Type != "go" {
		t.Fatalf("project = %+v, want go project", raw.Project)
	}

	// Project context is advisory: the id is payload-derived only.
	bare, _ := a.Observe(Invocation{
		At:      raw.ObservedAt,
		Command: &CommandInvocation{Command: "go test ./...", Dir: root},
	})
	if bare.ID != raw.ID {
		t.Errorf("id changed with detection: %s vs %s", bare.ID, raw.ID)
	}
}

func TestFSAdapterTagsProject(t *testing.T) {
	root := t.TempDir()
	writeMarker(t, root, "Gemfile")

	a := NewFSAdapter()
	raw, err := a.Observe(Invocation{
		File: &FileChange{Path: filepath.Join(root, "app.rb"), Change: model.ChangeModified},
	})
	if err != nil {
		t.Fatalf("Observe: %v", err)
	}
	if raw.Project == nil || raw.Project.Type != "ruby" {
		t.Errorf("project = %+v, want ruby project", raw.Project)
	}
}
