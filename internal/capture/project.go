package capture

import (
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/Fato07/knowledge-base/internal/model"
)

// projectMarkers maps build marker files to a project type, most specific
// first. The first marker present at the project root wins.
var projectMarkers = []struct {
	file string
	kind string
}{
	{"go.mod", "go"},
	{"package.json", "node"},
	{"Cargo.toml", "rust"},
	{"pyproject.toml", "python"},
	{"setup.py", "python"},
	{"requirements.txt", "python"},
	{"Gemfile", "ruby"},
	{"pom.xml", "java"},
	{"build.gradle", "java"},
	{"CMakeLists.txt", "cpp"},
	{"Makefile", "c"},
	{"Dockerfile", "docker"},
}

// ProjectDetector resolves the project a directory belongs to by walking up
// to the nearest ancestor holding a .git directory or a build marker.
// Detection runs on every captured event, so results are cached per input
// directory. Safe for concurrent use.
type ProjectDetector struct {
	mu    sync.Mutex
	cache map[string]*model.ProjectContext
}

// NewProjectDetector returns an empty detector.
func NewProjectDetector() *ProjectDetector {
	return &ProjectDetector{cache: map[string]*model.ProjectContext{}}
}

// Detect returns the project context for a directory, or nil when no
// project can be determined. A cached nil is remembered too, so repeated
// events from unmarked directories stay cheap.
func (d *ProjectDetector) Detect(dir string) *model.ProjectContext {
	if dir == "" {
		return nil
	}
	dir = filepath.Clean(dir)

	d.mu.Lock()
	if cached, ok := d.cache[dir]; ok {
		d.mu.Unlock()
		return cached
	}
	d.mu.Unlock()

	project := detectProject(dir)

	d.mu.Lock()
	d.cache[dir] = project
	d.mu.Unlock()
	return project
}

func detectProject(dir string) *model.ProjectContext {
	root, kind := findRoot(dir)
	if root == "" {
		return nil
	}
	return &model.ProjectContext{
		Name: projectName(root),
		Type: kind,
		Root: root,
	}
}

// findRoot walks up from dir to the nearest directory that looks like a
// project root. A .git directory wins over build markers so the root of a
// multi-module repository is the repository, not a nested module.
func findRoot(dir string) (root, kind string) {
	for {
		if info, err := os.Stat(filepath.Join(dir, ".git")); err == nil && info.IsDir() {
			return dir, markerKind(dir)
		}
		if k := markerKind(dir); k != "" {
			return dir, k
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", ""
		}
		dir = parent
	}
}

func markerKind(dir string) string {
	for _, m := range projectMarkers {
		if _, err := os.Stat(filepath.Join(dir, m.file)); err == nil {
			return m.kind
		}
	}
	return ""
}

// projectName prefers the repository name from the origin remote URL, which
// survives local directory renames, and falls back to the root's base name.
func projectName(root string) string {
	if url, err := gitOutput(root, "config", "--get", "remote.origin.url"); err == nil && url != "" {
		if name := repoNameFromURL(url); name != "" {
			return name
		}
	}
	return filepath.Base(root)
}

func repoNameFromURL(url string) string {
	url = strings.TrimSuffix(strings.TrimSpace(url), "/")
	url = strings.TrimSuffix(url, ".git")
	// Handles both https://host/org/repo and git@host:org/repo.
	if i := strings.LastIndexAny(url, "/:"); i >= 0 {
		url = url[i+1:]
	}
	return url
}
