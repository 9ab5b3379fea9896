package emit

import (
	"fmt"
	"strings"

	"github.com/FocuswithJustin/Scriptorium/core/report"
)

// Pair maps one inline character-markup span to its target spelling.
type Pair struct {
	Open     string
	NewOpen  string
	Close    string
	NewClose string
}

// CharPairs builds the standard inline span table for a target dialect.
// The source side is the residual character markup that survives in
// normalized text: added words, the divine name, and words of Jesus.
func CharPairs(addOpen, addClose, ndOpen, ndClose, wjOpen, wjClose string) []Pair {
	return []Pair{
		{`\add `, addOpen, `\add*`, addClose},
		{`\nd `, ndOpen, `\nd*`, ndClose},
		{`\wj `, wjOpen, `\wj*`, wjClose},
	}
}

// RepairPairs rewrites each inline span to its target spelling and
// repairs unbalanced pairs: a missing close is appended at the end of
// the line, an orphan close gets an open prepended. Hand-edited texts
// contain both defects; output is always produced.
func RepairPairs(line string, pairs []Pair, rep *report.Report, chapter, verse string) string {
	for _, p := range pairs {
		ix := strings.Index(line, p.Open)
		for ix != -1 {
			line = strings.Replace(line, p.Open, p.NewOpen, 1)
			if strings.Index(line[ix:], p.Close) == -1 {
				rep.Record(report.StructuralAnomaly, chapter, verse,
					fmt.Sprintf("missing %q close to match %q", p.Close, strings.TrimSpace(p.Open)))
				line += p.NewClose
			} else {
				line = strings.Replace(line, p.Close, p.NewClose, 1)
			}
			ix = strings.Index(line, p.Open)
		}
		if strings.Contains(line, p.Close) {
			rep.Record(report.StructuralAnomaly, chapter, verse,
				fmt.Sprintf("close %q without a previous %q", p.Close, strings.TrimSpace(p.Open)))
			line = p.NewOpen + strings.Replace(line, p.Close, p.NewClose, 1)
		}
	}
	return line
}
