// Package structure tracks which block-level containers are open as a
// linear marker stream is consumed, auto-closing and opening them in
// precedence order, and drives a DocumentEmitter with the resulting
// event stream.
package structure

// ContainerType identifies a block-level container.
type ContainerType string

// Container types, outermost to innermost.
const (
	Introduction ContainerType = "introduction"
	Outline      ContainerType = "outline"
	MajorSection ContainerType = "major_section"
	Section      ContainerType = "section"
	Subsection   ContainerType = "subsection"
	Paragraph    ContainerType = "paragraph"
	LineGroup    ContainerType = "line_group"
	Line         ContainerType = "line"
	List         ContainerType = "list"
)

// legalParents defines which container types may directly enclose each
// type. A container with no listed parents (or when the stack is empty)
// opens at the top level. List is legal only inside Introduction or
// Outline; the machine tolerates it elsewhere and logs the anomaly.
var legalParents = map[ContainerType]map[ContainerType]bool{
	Introduction: {},
	Outline:      {Introduction: true},
	MajorSection: {},
	Section:      {MajorSection: true},
	Subsection:   {Section: true, MajorSection: true},
	Paragraph: {
		Introduction: true, Outline: true,
		MajorSection: true, Section: true, Subsection: true,
	},
	LineGroup: {
		Paragraph: true, Subsection: true, Section: true, MajorSection: true,
	},
	Line: {LineGroup: true},
	List: {
		Introduction: true, Outline: true,
		MajorSection: true, Section: true, Subsection: true,
	},
}

// canEnclose reports whether parent may directly enclose child.
func canEnclose(parent, child ContainerType) bool {
	return legalParents[child][parent]
}

// PreferredInIntro reports whether the container is at home inside
// introduction or outline material.
func (t ContainerType) PreferredInIntro() bool {
	return t == List || t == Outline
}

// Frame is one entry on the explicit container stack.
type Frame struct {
	Type ContainerType
	ID   string
}

// Transition computes the closes required before opening next on the
// given stack: every open container that is not a legal ancestor of
// next, innermost first. It is a pure function over the current stack;
// the machine applies the closes, then pushes next.
func Transition(stack []Frame, next ContainerType) (closes []ContainerType) {
	depth := len(stack)
	for depth > 0 {
		top := stack[depth-1].Type
		if canEnclose(top, next) {
			break
		}
		closes = append(closes, top)
		depth--
	}
	return closes
}

// CloseAll returns every open container innermost-first, for the
// end-of-book flush.
func CloseAll(stack []Frame) (closes []ContainerType) {
	for i := len(stack) - 1; i >= 0; i-- {
		closes = append(closes, stack[i].Type)
	}
	return closes
}
