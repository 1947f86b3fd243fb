package template

import (
	"fmt"

	"github.com/arthur-debert/forge/pkg/types"
)

// Position locates a construct in the template source, 1-based
type Position struct {
	Line   int
	Column int
}

func (p Position) String() string {
	return fmt.Sprintf("line %d, column %d", p.Line, p.Column)
}

// Node is a node of the parsed template tree
type Node interface {
	node()
}

// BlockNode is an ordered sequence of child nodes. Every for/if body is a
// BlockNode.
type BlockNode struct {
	Nodes []Node
}

// TextNode is a run of literal text emitted verbatim
type TextNode struct {
	Text string
	Pos  Position
}

// InterpNode is a {{ path | filters }} interpolation
type InterpNode struct {
	Path    Path
	Filters []FilterCall
	Raw     string
	Pos     Position
}

// ForNode is a {% for var in path %} loop; a missing or non-sequence
// collection renders as zero iterations
type ForNode struct {
	Var        string
	Collection Path
	Body       *BlockNode
	Pos        Position
}

// IfNode is a {% if %}/{% elif %}/{% else %} chain; branches are evaluated
// in source order and the first match renders
type IfNode struct {
	Branches []IfBranch
	Else     *BlockNode
	Pos      Position
}

// IfBranch is one condition/body pair of an if chain
type IfBranch struct {
	Cond Condition
	Body *BlockNode
}

func (*BlockNode) node()  {}
func (*TextNode) node()   {}
func (*InterpNode) node() {}
func (*ForNode) node()    {}
func (*IfNode) node()     {}

// Path is a dotted/indexed accessor such as a.b.c or items.0.name
type Path struct {
	Segments []Segment
	Raw      string
}

// Segment is one step of a path: either a mapping key or a sequence index
type Segment struct {
	Key     string
	Index   int
	IsIndex bool
}

// FilterCall is one filter application with its literal arguments
type FilterCall struct {
	Name string
	Args []types.Value
}

// Test names the type predicates usable after "is" in conditions
type Test string

const (
	TestDefined  Test = "defined"
	TestIterable Test = "iterable"
	TestString   Test = "string"
)

// Condition is the predicate tree of an if/elif tag
type Condition interface {
	condition()
}

// CondTruthy is a bare path condition, true when the value is truthy
type CondTruthy struct {
	Path Path
}

// CondTest is a "path is <test>" condition
type CondTest struct {
	Path Path
	Test Test
}

// CondNot negates a condition
type CondNot struct {
	Inner Condition
}

// CondAnd is the conjunction of two conditions
type CondAnd struct {
	Left, Right Condition
}

// CondOr is the disjunction of two conditions
type CondOr struct {
	Left, Right Condition
}

func (CondTruthy) condition() {}
func (CondTest) condition()   {}
func (CondNot) condition()    {}
func (CondAnd) condition()    {}
func (CondOr) condition()     {}
