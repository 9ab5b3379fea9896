// Package verse turns verse-number text into paired start/end milestone
// identifiers for targets that delimit verses with milestones instead of
// nested containers.
package verse

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/FocuswithJustin/Scriptorium/core/report"
)

// Milestone is the identifier pair derived from one verse-number token.
// One unmatched start may stay pending (the previous verse's end) until
// the next verse or chapter boundary closes it.
type Milestone struct {
	// Number is the original verse-number text ("12", "16-17", "16,17").
	Number string

	// StartID is the start-milestone identifier. For bridges it is the
	// composite form ("Esth.9.16-Esth.9.17").
	StartID string

	// IDs lists one identifier per covered verse.
	IDs []string
}

// EndID returns the identifier used on the matching end milestone.
func (m Milestone) EndID() string {
	return m.StartID
}

var (
	plainRe  = regexp.MustCompile(`^(\d+)$`)
	bridgeRe = regexp.MustCompile(`^(\d+)[-–](\d+)$`)
	listRe   = regexp.MustCompile(`^\d+(,\d+)+$`)
)

// Parse interprets verse-number text against a chapter reference like
// "Gen.1". Three shapes are recognized: plain ("12"), bridge ("16-17"),
// and list ("16,17,18"). Anything else is logged as malformed and a
// best-effort identifier is synthesized from the literal text so
// downstream emission never receives an empty identifier.
func Parse(number, chapterRef string, rep *report.Report) Milestone {
	number = strings.TrimSpace(number)
	m := Milestone{Number: number}

	switch {
	case plainRe.MatchString(number):
		id := chapterRef + "." + number
		m.StartID = id
		m.IDs = []string{id}

	case bridgeRe.MatchString(number):
		parts := bridgeRe.FindStringSubmatch(number)
		first := chapterRef + "." + parts[1]
		last := chapterRef + "." + parts[2]
		m.StartID = first + "-" + last
		m.IDs = []string{first, last}

	case listRe.MatchString(number):
		listed := strings.Split(number, ",")
		m.StartID = chapterRef + "." + listed[0]
		for _, n := range listed {
			m.IDs = append(m.IDs, chapterRef+"."+n)
		}

	default:
		// Critical: a synthesized identifier may collide downstream.
		if rep != nil {
			rep.Record(report.MalformedVerseNumber, chapterTail(chapterRef), number,
				fmt.Sprintf("verse number %q", number))
		}
		id := chapterRef + "." + sanitize(number)
		m.StartID = id
		m.IDs = []string{id}
	}
	return m
}

// sanitize strips characters unsafe for target identifier syntax,
// keeping letters and digits. An empty result falls back to "0".
func sanitize(s string) string {
	var sb strings.Builder
	for _, c := range s {
		switch {
		case c >= '0' && c <= '9', c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z':
			sb.WriteRune(c)
		}
	}
	if sb.Len() == 0 {
		return "0"
	}
	return sb.String()
}

// chapterTail returns the chapter part of a "Book.N" chapter reference
// for warning locations.
func chapterTail(chapterRef string) string {
	if i := strings.LastIndexByte(chapterRef, '.'); i >= 0 {
		return chapterRef[i+1:]
	}
	return chapterRef
}
