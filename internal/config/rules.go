package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/gobwas/glob"
)

// RulesFile is the on-disk shape of rules.toml. All sections are optional;
// an absent file yields conservative defaults: nothing is allow-listed, so
// unrecognized commands score 0.
type RulesFile struct {
	MinImportance int `toml:"min_importance"`

	Commands struct {
		Allow   []string `toml:"allow"`
		Trivial []string `toml:"trivial"`
	} `toml:"commands"`

	Paths struct {
		Source    []string `toml:"source"`
		Generated []string `toml:"generated"`
	} `toml:"paths"`

	Patterns struct {
		Error []string `toml:"error"`
		File  []string `toml:"file"`
	} `toml:"patterns"`

	// Rolling duration baselines, seconds keyed by command head.
	Baseline map[string]float64 `toml:"baseline"`
}

// Rules is the compiled form consumed by the classifier.
type Rules struct {
	MinImportance int

	allow   map[string]bool
	trivial map[string]bool

	sourceGlobs    []glob.Glob
	generatedGlobs []glob.Glob
	fileGlobs      []glob.Glob

	errorPatterns []string

	baseline map[string]float64
}

// DefaultRules returns the conservative built-in rule set used when no
// rules file exists.
func DefaultRules() *Rules {
	return &Rules{
		MinImportance: 1,
		allow:         map[string]bool{},
		trivial:       map[string]bool{},
		baseline:      map[string]float64{},
	}
}

// LoadRules reads and compiles rules.toml from path. A missing file is not
// an error; defaults apply.
func LoadRules(path string) (*Rules, error) {
	var file RulesFile
	if _, err := toml.DecodeFile(path, &file); err != nil {
		if os.IsNotExist(err) {
			return DefaultRules(), nil
		}
		return nil, fmt.Errorf("decode rules %s: %w", path, err)
	}
	return CompileRules(&file)
}

// CompileRules validates and compiles a parsed rules file.
func CompileRules(file *RulesFile) (*Rules, error) {
	r := DefaultRules()
	if file.MinImportance > 0 {
		r.MinImportance = file.MinImportance
	}
	for _, cmd := range file.Commands.Allow {
		r.allow[strings.ToLower(cmd)] = true
	}
	for _, cmd := range file.Commands.Trivial {
		r.trivial[strings.ToLower(cmd)] = true
	}

	var err error
	if r.sourceGlobs, err = compileGlobs(file.Paths.Source); err != nil {
		return nil, fmt.Errorf("paths.source: %w", err)
	}
	if r.generatedGlobs, err = compileGlobs(file.Paths.Generated); err != nil {
		return nil, fmt.Errorf("paths.generated: %w", err)
	}
	if r.fileGlobs, err = compileGlobs(file.Patterns.File); err != nil {
		return nil, fmt.Errorf("patterns.file: %w", err)
	}

	r.errorPatterns = append(r.errorPatterns, file.Patterns.Error...)
	for cmd, secs := range file.Baseline {
		r.baseline[strings.ToLower(cmd)] = secs
	}
	return r, nil
}

func compileGlobs(patterns []string) ([]glob.Glob, error) {
	globs := make([]glob.Glob, 0, len(patterns))
	for _, p := range patterns {
		g, err := glob.Compile(p, '/')
		if err != nil {
			return nil, fmt.Errorf("compile glob %q: %w", p, err)
		}
		globs = append(globs, g)
	}
	return globs, nil
}

// CommandHead returns the first word of a command line, lower-cased.
func CommandHead(command string) string {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return ""
	}
	return strings.ToLower(fields[0])
}

// Allowed reports whether the command's head is on the allow list.
func (r *Rules) Allowed(command string) bool {
	return r.allow[CommandHead(command)]
}

// Trivial reports whether the command's head is on the trivial denylist.
func (r *Rules) Trivial(command string) bool {
	return r.trivial[CommandHead(command)]
}

// SourcePath reports whether path matches a recognized source-code glob.
func (r *Rules) SourcePath(path string) bool {
	return matchAny(r.sourceGlobs, path)
}

// GeneratedPath reports whether path matches a generated/build glob.
func (r *Rules) GeneratedPath(path string) bool {
	return matchAny(r.generatedGlobs, path)
}

// PatternPath reports whether path matches a file pattern rule, promoting
// the event to pattern_detected.
func (r *Rules) PatternPath(path string) bool {
	return matchAny(r.fileGlobs, path)
}

// ErrorOutput reports whether output contains a configured error indicator.
func (r *Rules) ErrorOutput(output string) bool {
	if output == "" {
		return false
	}
	lower := strings.ToLower(output)
	for _, p := range r.errorPatterns {
		if strings.Contains(lower, strings.ToLower(p)) {
			return true
		}
	}
	return false
}

// Baseline returns the known duration baseline for a command head and
// whether one is recorded.
func (r *Rules) Baseline(command string) (float64, bool) {
	secs, ok := r.baseline[CommandHead(command)]
	return secs, ok
}

func matchAny(globs []glob.Glob, s string) bool {
	for _, g := range globs {
		if g.Match(s) {
			return true
		}
	}
	return false
}
