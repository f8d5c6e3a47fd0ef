package registry

import (
	"testing"

	"github.com/vovakirdan/retrodesk/internal/core"
)

func TestRegisterAndLookup(t *testing.T) {
	Register(Entry{ID: "zz-test-lookup", Title: "Lookup", Competitive: true})

	e, err := Lookup("zz-test-lookup")
	if err != nil {
		t.Fatalf("Lookup() failed: %v", err)
	}
	if e.Title != "Lookup" {
		t.Errorf("Title = %q, expected Lookup", e.Title)
	}
	if e.Runtime != core.DefaultConfig() {
		t.Errorf("Runtime = %+v, expected defaults", e.Runtime)
	}
	if !Exists("zz-test-lookup") {
		t.Error("Exists() = false after Register")
	}
}

func TestLookupUnknown(t *testing.T) {
	if _, err := Lookup("zz-test-missing"); err == nil {
		t.Error("expected error for unknown game")
	}
}

func TestRegisterDuplicatePanics(t *testing.T) {
	Register(Entry{ID: "zz-test-dup"})

	defer func() {
		if recover() == nil {
			t.Error("expected panic on duplicate registration")
		}
	}()
	Register(Entry{ID: "zz-test-dup"})
}

func TestIsCompetitive(t *testing.T) {
	Register(Entry{ID: "zz-test-casual", Competitive: false})
	Register(Entry{ID: "zz-test-ranked", Competitive: true})

	if IsCompetitive("zz-test-casual") {
		t.Error("casual game reported as competitive")
	}
	if !IsCompetitive("zz-test-ranked") {
		t.Error("ranked game reported as non-competitive")
	}
	if !IsCompetitive("zz-test-unregistered") {
		t.Error("unknown games should default to competitive")
	}
}

func TestListSorted(t *testing.T) {
	Register(Entry{ID: "zz-test-b", Title: "B"})
	Register(Entry{ID: "zz-test-a", Title: "A"})

	list := List()
	for i := 1; i < len(list); i++ {
		if list[i-1].ID > list[i].ID {
			t.Fatalf("List() not sorted: %q before %q", list[i-1].ID, list[i].ID)
		}
	}
}
