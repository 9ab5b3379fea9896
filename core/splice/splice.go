// Package splice re-inserts rendered annotations into verse text at the
// character offsets recorded by upstream parsers. Offsets were recorded
// against the original, pre-splice text, so each inserted annotation
// pushes every subsequent raw offset forward by its own rendered length.
package splice

import (
	"fmt"

	"github.com/FocuswithJustin/Scriptorium/core/entry"
	"github.com/FocuswithJustin/Scriptorium/core/report"
)

// RenderFunc turns one extra into its rendered inline string. The splicer
// is agnostic about what the string contains; it only needs the length.
type RenderFunc func(extra entry.Extra) string

// State threads the cumulative drift across the ordered extras of one
// entry: the sum of rendered lengths of all previously spliced
// annotations. Never negative.
type State struct {
	Drift int
}

// Insert splices every extra into text in order and returns the result.
// Extras must arrive in ascending offset order (guaranteed by upstream);
// the splicer does not reorder them. Offsets that do not fit are clamped
// so no annotation is ever silently dropped:
//
//   - one past the end (a trailing space stripped upstream) clamps to
//     end-of-string and records a trailing-space-lost warning;
//   - anything else out of range records a misaligned-annotation warning
//     and clamps to the nearest valid position.
//
// The report's location fields are supplied by the caller because the
// splicer has no notion of chapter or verse. A nil report drops warnings.
func Insert(text string, extras []entry.Extra, render RenderFunc, rep *report.Report, chapter, verse string) string {
	st := State{}
	out := text
	for _, extra := range extras {
		rendered := render(extra)
		if rendered == "" {
			continue
		}

		at := extra.Offset + st.Drift
		switch {
		case extra.Offset == len(text)+1:
			// The annotation followed a trailing space that upstream
			// stripping removed.
			at = len(out)
			record(rep, report.TrailingSpaceLost, chapter, verse,
				fmt.Sprintf("offset %d one past text of length %d", extra.Offset, len(text)))
		case extra.Offset < 0 || extra.Offset > len(text):
			record(rep, report.OffsetMisalignment, chapter, verse,
				fmt.Sprintf("offset %d outside text of length %d", extra.Offset, len(text)))
			at = clamp(at, 0, len(out))
		}
		if at > len(out) {
			at = len(out)
		}

		out = out[:at] + rendered + out[at:]
		st.Drift += len(rendered)
	}
	return out
}

func clamp(n, lo, hi int) int {
	if n < lo {
		return lo
	}
	if n > hi {
		return hi
	}
	return n
}

func record(rep *report.Report, d report.Defect, chapter, verse, detail string) {
	if rep != nil {
		rep.Record(d, chapter, verse, detail)
	}
}
