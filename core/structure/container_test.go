package structure

import (
	"reflect"
	"testing"
)

func frames(types ...ContainerType) []Frame {
	fs := make([]Frame, len(types))
	for i, t := range types {
		fs[i] = Frame{Type: t}
	}
	return fs
}

func TestTransition(t *testing.T) {
	tests := []struct {
		name  string
		stack []Frame
		next  ContainerType
		want  []ContainerType
	}{
		{
			name:  "empty stack opens anything",
			stack: nil,
			next:  Paragraph,
			want:  nil,
		},
		{
			name:  "paragraph under section stays open for line group",
			stack: frames(Section, Paragraph),
			next:  LineGroup,
			want:  nil,
		},
		{
			name:  "new paragraph closes poetry innermost first",
			stack: frames(Section, Paragraph, LineGroup, Line),
			next:  Paragraph,
			want:  []ContainerType{Line, LineGroup, Paragraph},
		},
		{
			name:  "new line closes only the open line",
			stack: frames(Paragraph, LineGroup, Line),
			next:  Line,
			want:  []ContainerType{Line},
		},
		{
			name:  "section closes sibling section but not major section",
			stack: frames(MajorSection, Section, Paragraph),
			next:  Section,
			want:  []ContainerType{Paragraph, Section},
		},
		{
			name:  "major section closes introduction",
			stack: frames(Introduction, Paragraph),
			next:  MajorSection,
			want:  []ContainerType{Paragraph, Introduction},
		},
		{
			name:  "outline opens inside introduction",
			stack: frames(Introduction),
			next:  Outline,
			want:  nil,
		},
		{
			name:  "list opens inside outline",
			stack: frames(Introduction, Outline),
			next:  List,
			want:  nil,
		},
		{
			name:  "subsection tolerated directly under major section",
			stack: frames(MajorSection),
			next:  Subsection,
			want:  nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Transition(tt.stack, tt.next)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Transition(%v, %v) = %v, want %v", tt.stack, tt.next, got, tt.want)
			}
		})
	}
}

func TestCloseAll(t *testing.T) {
	got := CloseAll(frames(Section, Paragraph, LineGroup, Line))
	want := []ContainerType{Line, LineGroup, Paragraph, Section}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("CloseAll = %v, want %v", got, want)
	}
}

func TestMarkerLevel(t *testing.T) {
	tests := []struct {
		marker string
		base   string
		level  int
	}{
		{"q", "q", 1},
		{"q2", "q", 2},
		{"s1", "s", 1},
		{"toc3", "toc", 3},
		{"io2", "io", 2},
		{"p", "p", 1},
	}
	for _, tt := range tests {
		if got := baseMarker(tt.marker); got != tt.base {
			t.Errorf("baseMarker(%q) = %q, want %q", tt.marker, got, tt.base)
		}
		if got := markerLevel(tt.marker); got != tt.level {
			t.Errorf("markerLevel(%q) = %d, want %d", tt.marker, got, tt.level)
		}
	}
}
