package curate

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Fato07/knowledge-base/internal/model"
)

// MarkdownSink writes knowledge entries as markdown files with YAML front
// matter into a flat directory, one file per entry. This is the default
// local knowledge store; the same Sink interface covers remote stores.
type MarkdownSink struct {
	dir string
}

var _ Sink = (*MarkdownSink)(nil)

// NewMarkdownSink creates the target directory if needed.
func NewMarkdownSink(dir string) (*MarkdownSink, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create knowledge dir: %w", err)
	}
	return &MarkdownSink{dir: dir}, nil
}

// Deliver writes the entry to <dir>/<id>.md via a temp file and rename, so
// a crash never leaves a half-written entry. Redelivering the same entry
// overwrites the same file, which keeps retries idempotent.
func (s *MarkdownSink) Deliver(ctx context.Context, entry *model.KnowledgeEntry) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	final := filepath.Join(s.dir, entry.ID+".md")
	tmp, err := os.CreateTemp(s.dir, "."+entry.ID+"-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp entry: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.WriteString(renderMarkdown(entry)); err != nil {
		tmp.Close()
		return fmt.Errorf("write entry: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync entry: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmp.Name(), final); err != nil {
		return fmt.Errorf("place entry: %w", err)
	}
	return nil
}

// Path returns where an entry lands when delivered.
func (s *MarkdownSink) Path(entry *model.KnowledgeEntry) string {
	return filepath.Join(s.dir, entry.ID+".md")
}

func renderMarkdown(entry *model.KnowledgeEntry) string {
	var b strings.Builder
	b.WriteString("---\n")
	fmt.Fprintf(&b, "title: %q\n", entry.Title)
	fmt.Fprintf(&b, "tags: [%s]\n", strings.Join(entry.Tags, ", "))
	fmt.Fprintf(&b, "created: %s\n", entry.CreatedAt.UTC().Format(time.RFC3339))
	fmt.Fprintf(&b, "source_decision: %s\n", entry.SourceDecisionID)
	b.WriteString("---\n\n")
	b.WriteString("# " + entry.Title + "\n\n")
	b.WriteString(strings.TrimRight(entry.Body, "\n"))
	b.WriteString("\n")
	return b.String()
}
