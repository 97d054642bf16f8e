package idgen

import (
	"strings"
	"testing"
)

func TestDecisionIDFormat(t *testing.T) {
	id, err := Decision()
	if err != nil {
		t.Fatalf("Decision: %v", err)
	}
	if !strings.HasPrefix(id, PrefixDecision) {
		t.Errorf("id %q missing prefix %q", id, PrefixDecision)
	}
	if len(id) != len(PrefixDecision)+Length {
		t.Errorf("id length = %d, want %d", len(id), len(PrefixDecision)+Length)
	}
}

func TestEntryIDsUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id, err := Entry()
		if err != nil {
			t.Fatalf("Entry: %v", err)
		}
		if seen[id] {
			t.Fatalf("duplicate id %q", id)
		}
		seen[id] = true
	}
}
