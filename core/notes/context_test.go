package notes

import (
	"testing"

	"github.com/FocuswithJustin/Scriptorium/core/entry"
)

func TestContextScopePerBook(t *testing.T) {
	ctx := NewContext(ScopePerBook)
	ctx.EnterBook("GEN")
	if ctx.Next(entry.KindFootnote) != 1 || ctx.Next(entry.KindFootnote) != 2 {
		t.Error("Expected counters to start at 1 and increment")
	}

	ctx.EnterBook("EXO")
	if ctx.Next(entry.KindFootnote) != 1 {
		t.Error("Expected per-book scope to reset counters at book boundary")
	}
}

func TestContextScopePerFile(t *testing.T) {
	ctx := NewContext(ScopePerFile)
	ctx.EnterBook("GEN")
	ctx.Next(entry.KindFootnote)
	ctx.Next(entry.KindCrossRef)

	ctx.EnterBook("EXO")
	if ctx.Next(entry.KindFootnote) != 2 {
		t.Error("Expected per-file scope to keep counters across books")
	}
	if ctx.Next(entry.KindCrossRef) != 2 {
		t.Error("Expected cross-reference counter to be independent")
	}
}

func TestContextDrain(t *testing.T) {
	ctx := NewContext(ScopePerBook)
	ctx.Add(EndNote{Kind: entry.KindFootnote, ID: 1, Body: "a"})
	ctx.Add(EndNote{Kind: entry.KindCrossRef, ID: 1, Body: "b"})

	drained := ctx.Drain()
	if len(drained) != 2 {
		t.Fatalf("Drain returned %d entries, want 2", len(drained))
	}
	if drained[0].Label() != "fn1" || drained[1].Label() != "xr1" {
		t.Errorf("Labels = %q, %q", drained[0].Label(), drained[1].Label())
	}
	if len(ctx.EndNotes()) != 0 {
		t.Error("Expected accumulator to be empty after Drain")
	}
}
