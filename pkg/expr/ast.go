package expr

// node is an expression tree node. The tree is immutable after parsing;
// evaluation never mutates it, which is what makes compiled programs safe
// for concurrent use.
type node interface {
	pos() int
}

// literalNode holds an int64, float64, string, bool, or nil value.
type literalNode struct {
	value  any
	offset int
}

// identNode is a name resolved from the bindings at evaluation time.
type identNode struct {
	name   string
	offset int
}

// listNode is a list literal.
type listNode struct {
	elements []node
	offset   int
}

// dictNode is a dict literal. Keys and values are parallel slices so the
// written order is preserved for evaluation.
type dictNode struct {
	keys   []node
	values []node
	offset int
}

// unaryNode is "-x" or "not x".
type unaryNode struct {
	op      string
	operand node
	offset  int
}

// binaryNode covers arithmetic, comparison, membership, and boolean
// operators. "and"/"or" short-circuit during evaluation.
type binaryNode struct {
	op    string
	left  node
	right node
}

// indexNode is "target[index]".
type indexNode struct {
	target node
	index  node
	offset int
}

// attrNode is "target.name", restricted to data containers at evaluation
// time.
type attrNode struct {
	target node
	name   string
	offset int
}

// callNode is a call to an allow-listed builtin ("len(x)") or safe
// accessor method ("fact.get('income', 0)"). The parser only constructs
// callNode with an identNode or attrNode callee; anything else is a
// security violation.
type callNode struct {
	callee node
	args   []node
	offset int
}

func (n *literalNode) pos() int { return n.offset }
func (n *identNode) pos() int   { return n.offset }
func (n *listNode) pos() int    { return n.offset }
func (n *dictNode) pos() int    { return n.offset }
func (n *unaryNode) pos() int   { return n.offset }
func (n *binaryNode) pos() int  { return n.left.pos() }
func (n *indexNode) pos() int   { return n.offset }
func (n *attrNode) pos() int    { return n.offset }
func (n *callNode) pos() int    { return n.offset }
