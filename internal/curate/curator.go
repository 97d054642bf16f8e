// Package curate converts approved review decisions into knowledge entries
// and hands them to the external knowledge store. Entries are queued in the
// event store in the same transaction that commits the decision, so a
// decision and its entry exist together or not at all; a failed delivery
// leaves the entry queued for retry, never dropped, since it represents an
// explicit human decision.
package curate

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/Fato07/knowledge-base/internal/events"
	"github.com/Fato07/knowledge-base/internal/idgen"
	"github.com/Fato07/knowledge-base/internal/model"
	"github.com/Fato07/knowledge-base/internal/review"
	"github.com/Fato07/knowledge-base/internal/store"
)

var _ review.Curator = (*Curator)(nil)

// Sink is the external knowledge-store interface. The markdown format and
// its graph semantics are owned by the external store, not this pipeline.
type Sink interface {
	Deliver(ctx context.Context, entry *model.KnowledgeEntry) error
}

// Curator materializes decisions into knowledge entries and delivers them.
type Curator struct {
	store  store.Store
	sink   Sink
	bus    events.Publisher
	logger *slog.Logger
}

// New wires a curator. bus may be a NoopPublisher.
func New(s store.Store, sink Sink, bus events.Publisher, logger *slog.Logger) *Curator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Curator{store: s, sink: sink, bus: bus, logger: logger}
}

// Materialize builds the knowledge entry for a decision, or nil for a
// skipped decision. For approved decisions the body is a deterministic
// template expansion of the event's key facts; for edited decisions the
// operator text replaces the body while tags and links are still derived.
func Materialize(decision *model.Decision, event *model.CategorizedEvent) (*model.KnowledgeEntry, error) {
	if decision == nil || !decision.Curates() {
		return nil, nil
	}
	if event == nil {
		return nil, fmt.Errorf("curate: decision %s has no event", decision.ID)
	}

	id, err := idgen.Entry()
	if err != nil {
		return nil, err
	}

	body := renderBody(event)
	if decision.Outcome == model.OutcomeEdited && decision.EditedText != "" {
		body = decision.EditedText
	}

	tags := []string{event.Category.String(), event.Source.String()}
	if project := event.Fact("project"); project != "" {
		tags = append(tags, project)
	}

	return &model.KnowledgeEntry{
		ID:               id,
		SourceDecisionID: decision.ID,
		Title:            renderTitle(event),
		Body:             body,
		Tags:             tags,
		CreatedAt:        decision.DecidedAt,
	}, nil
}

// Materialize implements the review engine's curator contract. It has no
// side effects; the caller inserts the returned entry in the same
// transaction that commits the decision.
func (c *Curator) Materialize(decision *model.Decision, event *model.CategorizedEvent) (*model.KnowledgeEntry, error) {
	return Materialize(decision, event)
}

// Deliver announces a freshly queued entry and attempts one delivery.
// Delivery failure is not surfaced: the entry stays queued and the next
// retry cycle picks it up.
func (c *Curator) Deliver(ctx context.Context, entry *model.KnowledgeEntry) {
	if entry == nil {
		return
	}
	if err := c.bus.Publish(ctx, events.TopicEntryCurated, events.EntryCurated{
		EntryID: entry.ID, DecisionID: entry.SourceDecisionID, Title: entry.Title,
	}); err != nil {
		c.logger.Debug("curate: bus publish failed", "entry", entry.ID, "err", err)
	}
	c.deliver(ctx, entry)
}

// Retry reattempts delivery of every queued entry. It returns how many
// entries were delivered and how many remain queued.
func (c *Curator) Retry(ctx context.Context) (delivered, remaining int, err error) {
	queued, err := c.store.ListUndeliveredEntries(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("list queued entries: %w", err)
	}
	for _, entry := range queued {
		if c.deliver(ctx, entry) {
			delivered++
		} else {
			remaining++
		}
	}
	return delivered, remaining, nil
}

func (c *Curator) deliver(ctx context.Context, entry *model.KnowledgeEntry) bool {
	if err := c.store.RecordDeliveryAttempt(ctx, entry.ID); err != nil {
		c.logger.Warn("curate: record attempt failed", "entry", entry.ID, "err", err)
	}
	if err := c.sink.Deliver(ctx, entry); err != nil {
		c.logger.Warn("curate: delivery failed, entry stays queued",
			"entry", entry.ID, "err", err)
		return false
	}

	now := time.Now().UTC()
	if err := c.store.MarkEntryDelivered(ctx, entry.ID, now); err != nil {
		// The sink has the entry; a redelivery on the next retry is
		// harmless (same entry id), so only log.
		c.logger.Warn("curate: mark delivered failed", "entry", entry.ID, "err", err)
	}
	entry.DeliveredAt = &now

	if err := c.bus.Publish(ctx, events.TopicEntryDelivered, events.EntryDelivered{
		EntryID: entry.ID,
	}); err != nil {
		c.logger.Debug("curate: bus publish failed", "entry", entry.ID, "err", err)
	}
	return true
}

// factOrder fixes the rendering order of key facts per category; facts not
// listed render afterwards in name order, so output is deterministic.
var factOrder = map[model.Category][]string{
	model.CategoryCommandRun:      {"command", "exit_code", "duration", "dir"},
	model.CategoryGitCommit:       {"hash", "branch", "message", "repo"},
	model.CategoryGitBranch:       {"branch", "repo"},
	model.CategoryFileCreated:     {"path", "change"},
	model.CategoryFileModified:    {"path", "change"},
	model.CategoryFileDeleted:     {"path", "change"},
	model.CategoryPatternDetected: {"path", "change"},
}

func renderTitle(event *model.CategorizedEvent) string {
	switch event.Category {
	case model.CategoryGitCommit:
		hash := event.Fact("hash")
		if len(hash) > 7 {
			hash = hash[:7]
		}
		if msg := event.Fact("message"); msg != "" {
			return fmt.Sprintf("Commit %s: %s", hash, msg)
		}
		return fmt.Sprintf("Commit %s", hash)
	case model.CategoryGitBranch:
		return fmt.Sprintf("Branch %s", event.Fact("branch"))
	case model.CategoryCommandRun:
		return fmt.Sprintf("Command: %s", event.Fact("command"))
	case model.CategoryPatternDetected:
		return fmt.Sprintf("Pattern: %s", event.Fact("path"))
	default:
		return fmt.Sprintf("File %s: %s", event.Fact("change"), event.Fact("path"))
	}
}

func renderBody(event *model.CategorizedEvent) string {
	var b strings.Builder
	b.WriteString(renderLead(event))
	b.WriteString("\n")

	listed := map[string]bool{}
	for _, key := range factOrder[event.Category] {
		if v := event.Fact(key); v != "" {
			fmt.Fprintf(&b, "\n- %s: %s", key, v)
			listed[key] = true
		}
	}
	var rest []string
	for key := range event.KeyFacts {
		if !listed[key] {
			rest = append(rest, key)
		}
	}
	sort.Strings(rest)
	for _, key := range rest {
		fmt.Fprintf(&b, "\n- %s: %s", key, event.KeyFacts[key])
	}
	b.WriteString("\n")
	return b.String()
}

func renderLead(event *model.CategorizedEvent) string {
	switch event.Category {
	case model.CategoryGitCommit:
		return fmt.Sprintf("Commit `%s` on `%s`: %s",
			event.Fact("hash"), event.Fact("branch"), event.Fact("message"))
	case model.CategoryGitBranch:
		return fmt.Sprintf("Switched to branch `%s`.", event.Fact("branch"))
	case model.CategoryCommandRun:
		if event.Fact("exit_code") != "0" {
			return fmt.Sprintf("Command `%s` failed (exit %s) after %s.",
				event.Fact("command"), event.Fact("exit_code"), event.Fact("duration"))
		}
		return fmt.Sprintf("Command `%s` completed in %s.",
			event.Fact("command"), event.Fact("duration"))
	case model.CategoryPatternDetected:
		return fmt.Sprintf("Notable file `%s` was %s.", event.Fact("path"), event.Fact("change"))
	default:
		return fmt.Sprintf("File `%s` was %s.", event.Fact("path"), event.Fact("change"))
	}
}
