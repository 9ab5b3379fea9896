package notes

import (
	"io"
	"log/slog"
	"testing"

	"github.com/FocuswithJustin/Scriptorium/core/entry"
	"github.com/FocuswithJustin/Scriptorium/core/ref"
	"github.com/FocuswithJustin/Scriptorium/core/report"
)

func testSetup(book, chapter, verse string) (*Renderer, *Context, *report.Report) {
	rn := &Renderer{Resolver: &ref.TableResolver{}}
	ctx := NewContext(ScopePerBook)
	ctx.EnterBook(book)
	ctx.SetPosition(chapter, verse)
	rep := report.New(book, slog.New(slog.NewTextHandler(io.Discard, nil)))
	return rn, ctx, rep
}

func TestRender_Footnote(t *testing.T) {
	rn, ctx, rep := testSetup("GEN", "1", "1")

	r := rn.Render(entry.KindFootnote, `+ \fr 1:1 \ft lit. beginnings`, ctx, rep)

	if r.ID != 1 {
		t.Errorf("ID = %d, want 1", r.ID)
	}
	if r.Caller != "+" {
		t.Errorf("Caller = %q, want +", r.Caller)
	}
	if r.Anchor != "Gen 1:1" {
		t.Errorf("Anchor = %q, want \"Gen 1:1\"", r.Anchor)
	}
	if r.OriginRef == nil || r.OriginRef.OSISID() != "Gen.1.1" {
		t.Errorf("OriginRef = %v, want Gen.1.1", r.OriginRef)
	}
	if r.Body() != "lit. beginnings" {
		t.Errorf("Body = %q, want \"lit. beginnings\"", r.Body())
	}
	if r.Label() != "fn1" {
		t.Errorf("Label = %q, want fn1", r.Label())
	}

	ends := ctx.EndNotes()
	if len(ends) != 1 {
		t.Fatalf("Expected 1 end-note, got %d", len(ends))
	}
	if ends[0].Body != "lit. beginnings" || ends[0].Anchor != "Gen 1:1" {
		t.Errorf("EndNote = %+v", ends[0])
	}
	if len(rep.Warnings) != 0 {
		t.Errorf("Unexpected warnings: %v", rep.Warnings)
	}
}

func TestRender_CrossReference(t *testing.T) {
	rn, ctx, rep := testSetup("EST", "9", "16")

	r := rn.Render(entry.KindCrossRef, `- \xo 9:16: \xt Num 16.5`, ctx, rep)

	if r.ID != 1 {
		t.Errorf("ID = %d, want 1", r.ID)
	}
	if r.Anchor != "Esth 9:16" {
		t.Errorf("Anchor = %q, want \"Esth 9:16\"", r.Anchor)
	}
	if r.OriginRef == nil || r.OriginRef.OSISID() != "Esth.9.16" {
		t.Errorf("OriginRef = %v, want Esth.9.16", r.OriginRef)
	}
	if r.Body() != "Num 16.5" {
		t.Errorf("Body = %q", r.Body())
	}
	if len(rep.Warnings) != 0 {
		t.Errorf("Unexpected warnings: %v", rep.Warnings)
	}
}

func TestRender_QuotedCatchPhrase(t *testing.T) {
	rn, ctx, rep := testSetup("GEN", "2", "3")

	r := rn.Render(entry.KindFootnote, `+ \fr 2:3 \fq rested \ft ceased from labor`, ctx, rep)

	if len(r.Segments) != 2 {
		t.Fatalf("Expected 2 segments, got %d: %+v", len(r.Segments), r.Segments)
	}
	if r.Segments[0].Kind != SegQuote || r.Segments[0].Text != "rested" {
		t.Errorf("Segment 0 = %+v, want quote \"rested\"", r.Segments[0])
	}
	if r.Segments[1].Kind != SegText {
		t.Errorf("Segment 1 = %+v, want text", r.Segments[1])
	}
}

func TestRender_IDMonotonicity(t *testing.T) {
	rn, ctx, rep := testSetup("GEN", "1", "1")

	// Mix of clean, unresolvable, and malformed notes; footnote and
	// cross-reference streams count independently.
	inputs := []struct {
		kind entry.ExtraKind
		raw  string
	}{
		{entry.KindFootnote, `+ \fr 1:1 \ft one`},
		{entry.KindCrossRef, `- \xo 1:1: \xt Exod 3.1`},
		{entry.KindFootnote, `+ \fr nonsense origin \ft two`},
		{entry.KindFootnote, `garbage with no tokens`},
		{entry.KindCrossRef, `- \xo 1:1: \xt Lev 1.1`},
	}
	var fnIDs, xrIDs []int
	for _, in := range inputs {
		r := rn.Render(in.kind, in.raw, ctx, rep)
		if in.kind == entry.KindFootnote {
			fnIDs = append(fnIDs, r.ID)
		} else {
			xrIDs = append(xrIDs, r.ID)
		}
	}

	for i, id := range fnIDs {
		if id != i+1 {
			t.Errorf("Footnote IDs = %v, want 1..%d", fnIDs, len(fnIDs))
			break
		}
	}
	for i, id := range xrIDs {
		if id != i+1 {
			t.Errorf("CrossRef IDs = %v, want 1..%d", xrIDs, len(xrIDs))
			break
		}
	}
}

func TestRender_UnresolvedOriginKeepsText(t *testing.T) {
	rn, ctx, rep := testSetup("GEN", "1", "1")

	r := rn.Render(entry.KindFootnote, `+ \fr see below \ft note text`, ctx, rep)

	if r.Anchor == "" {
		t.Error("Expected literal anchor to be kept for unresolved origin")
	}
	if r.OriginRef != nil {
		t.Errorf("OriginRef = %v, want nil", r.OriginRef)
	}
	if r.Body() != "note text" {
		t.Errorf("Body = %q", r.Body())
	}
	if rep.Count(report.UnresolvedReference) != 1 {
		t.Errorf("UnresolvedReference count = %d, want 1", rep.Count(report.UnresolvedReference))
	}
}

func TestRender_SelfReferenceMismatch(t *testing.T) {
	rn, ctx, rep := testSetup("GEN", "1", "1")

	r := rn.Render(entry.KindFootnote, `+ \fr 2:7 \ft wrong verse`, ctx, rep)

	// Output is kept despite the mismatch.
	if r.OriginRef == nil || r.OriginRef.OSISID() != "Gen.2.7" {
		t.Errorf("OriginRef = %v, want Gen.2.7", r.OriginRef)
	}
	if rep.Count(report.SelfReferenceMismatch) != 1 {
		t.Errorf("SelfReferenceMismatch count = %d, want 1", rep.Count(report.SelfReferenceMismatch))
	}
}

func TestRender_UnknownTagKeptVerbatim(t *testing.T) {
	rn, ctx, rep := testSetup("GEN", "1", "1")

	r := rn.Render(entry.KindFootnote, `+ \fr 1:1 \zz mystery field \ft body`, ctx, rep)

	found := false
	for _, s := range r.Segments {
		if s.Kind == SegVerbatim && s.Text == "zz mystery field" {
			found = true
		}
	}
	if !found {
		t.Errorf("Expected verbatim segment for unknown tag, got %+v", r.Segments)
	}
	if rep.Count(report.UnhandledNoteField) != 1 {
		t.Errorf("UnhandledNoteField count = %d, want 1", rep.Count(report.UnhandledNoteField))
	}
}

func TestRender_MalformedProducesBestEffort(t *testing.T) {
	rn, ctx, _ := testSetup("GEN", "1", "1")
	rep := report.New("GEN", slog.New(slog.NewTextHandler(io.Discard, nil)))

	r := rn.Render(entry.KindFootnote, "no tags at all", ctx, rep)

	if r.ID != 1 {
		t.Errorf("ID = %d, want 1", r.ID)
	}
	if r.Body() != "no tags at all" {
		t.Errorf("Body = %q, want literal text", r.Body())
	}
	if len(ctx.EndNotes()) != 1 {
		t.Errorf("Expected end-note for malformed markup")
	}
}

func TestRender_TerminatorTokensSkipped(t *testing.T) {
	rn, ctx, rep := testSetup("GEN", "1", "1")

	r := rn.Render(entry.KindFootnote, `+ \fr 1:1 \ft body text\ft*`, ctx, rep)

	if r.Body() != "body text" {
		t.Errorf("Body = %q, want \"body text\"", r.Body())
	}
	if rep.Count(report.UnhandledNoteField) != 0 {
		t.Errorf("Terminator token reported as unhandled: %v", rep.Warnings)
	}
}
