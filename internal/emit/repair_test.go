package emit

import (
	"io"
	"log/slog"
	"testing"

	"github.com/FocuswithJustin/Scriptorium/core/report"
)

func osisPairs() []Pair {
	return CharPairs(
		`<transChange type="added">`, `</transChange>`,
		`<divineName>`, `</divineName>`,
		`<q who="Jesus">`, `</q>`,
	)
}

func TestRepairPairs(t *testing.T) {
	tests := []struct {
		name      string
		in        string
		want      string
		anomalies int
	}{
		{
			name: "balanced span",
			in:   `the \nd Lord\nd* God`,
			want: `the <divineName>Lord</divineName> God`,
		},
		{
			name: "two spans",
			in:   `\add he\add* said to the \nd Lord\nd*`,
			want: `<transChange type="added">he</transChange> said to the <divineName>Lord</divineName>`,
		},
		{
			name:      "missing close appended",
			in:        `the \nd Lord God`,
			want:      `the <divineName>Lord God</divineName>`,
			anomalies: 1,
		},
		{
			name:      "orphan close gets an open",
			in:        `Lord\nd* God`,
			want:      `<divineName>Lord</divineName> God`,
			anomalies: 1,
		},
		{
			name: "no markup passes through",
			in:   "In the beginning",
			want: "In the beginning",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rep := report.New("GEN", slog.New(slog.NewTextHandler(io.Discard, nil)))
			got := RepairPairs(tt.in, osisPairs(), rep, "1", "1")
			if got != tt.want {
				t.Errorf("RepairPairs(%q) = %q, want %q", tt.in, got, tt.want)
			}
			if n := rep.Count(report.StructuralAnomaly); n != tt.anomalies {
				t.Errorf("anomalies = %d, want %d", n, tt.anomalies)
			}
		})
	}
}

func TestRegistry(t *testing.T) {
	f := Factory{
		Name: "test-format",
		New:  func(Options) (Writer, error) { return nil, nil },
	}
	Register(f)

	got, ok := Lookup("test-format")
	if !ok || got.Name != "test-format" {
		t.Fatalf("Lookup after Register failed: %v %v", got, ok)
	}
	if _, ok := Lookup("no-such-format"); ok {
		t.Error("Lookup of unregistered format succeeded")
	}

	found := false
	for _, name := range Names() {
		if name == "test-format" {
			found = true
		}
	}
	if !found {
		t.Errorf("Names() = %v, missing test-format", Names())
	}

	defer func() {
		if recover() == nil {
			t.Error("duplicate Register did not panic")
		}
	}()
	Register(f)
}
