package main

import (
	"io"
	"log"
	"path"
	"strings"
)

// Options controls a compilation.
type Options struct {
	// RuntimeDir prefixes every support-library include. Empty means the
	// includes are emitted relative.
	RuntimeDir string
	// IndentWidth is the number of spaces per nesting level.
	IndentWidth int
	// ReraiseUnmatched makes an exception that matches no except clause
	// propagate to the enclosing handler instead of being swallowed.
	ReraiseUnmatched bool
	// Builtins resolves calls to names that are not compiled functions.
	// Nil selects DefaultBuiltins.
	Builtins *BuiltinTable
	// Logger receives one trace line per visited node. Nil discards.
	Logger *log.Logger
}

func DefaultOptions() Options {
	return Options{
		IndentWidth:      4,
		ReraiseUnmatched: true,
	}
}

// FunctionRecord describes a compiled (or about to be compiled) source
// function. Records are shared by every generation context of a compilation.
type FunctionRecord struct {
	Name     string // source name
	CName    string // emitted symbol
	Params   []string
	Defaults map[string]Fragment
	VarArg   string
	KwArg    string
	Body     string

	def *FunctionDef
	// aliases maps parameter names that clash with reserved symbols to
	// their emitted names.
	aliases map[string]string
}

// includeSet is an insertion-ordered set of support-library files.
type includeSet struct {
	order []string
	seen  map[string]bool
}

func (s *includeSet) add(lib string) {
	if s.seen == nil {
		s.seen = make(map[string]bool)
	}
	if s.seen[lib] {
		return
	}
	s.seen[lib] = true
	s.order = append(s.order, lib)
}

// compilation holds the state shared by the entry point and every function.
type compilation struct {
	opts      Options
	log       *log.Logger
	builtins  *BuiltinTable
	names     *nameAllocator
	functions map[string]*FunctionRecord
	compiled  []*FunctionRecord
	includes  includeSet
	// exceptions is set once a try or raise is translated.
	exceptions bool
}

// generator translates the statements of one function or of the entry
// point. Nested functions get their own generator over the same compilation.
type generator struct {
	c      *compilation
	scope  *Scope
	temps  *hoister
	fn     *FunctionRecord // nil for the entry point
	indent string

	// nested counts enclosing loop and handler bodies; temporaries inside
	// them are always placed before their statement.
	nested int
	loops  int
	// tries holds the context expressions of enclosing try bodies.
	tries []string
	// handlers holds the caught-exception handles of enclosing except
	// clauses.
	handlers []string
	depth    int

	// declared lists top-level entry-point variables in declaration order.
	declared []string
	// aliases maps source variables to generated C names.
	aliases map[string]string
}

func newCompilation(opts Options) *compilation {
	if opts.IndentWidth <= 0 {
		opts.IndentWidth = 4
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	builtins := opts.Builtins
	if builtins == nil {
		builtins = DefaultBuiltins()
	}
	return &compilation{
		opts:      opts,
		log:       logger,
		builtins:  builtins,
		names:     newNameAllocator(),
		functions: make(map[string]*FunctionRecord),
	}
}

func (c *compilation) newGenerator(fn *FunctionRecord) *generator {
	return &generator{
		c:      c,
		scope:  NewScope(),
		temps:  newHoister(c.names),
		fn:     fn,
		indent: strings.Repeat(" ", c.opts.IndentWidth),
	}
}

// Compile translates mod into C source text. On error the returned text is
// empty.
func Compile(mod *Module, opts Options) (string, error) {
	c := newCompilation(opts)
	c.includes.add("_global.c")
	c.includes.add("runtime.c")

	g := c.newGenerator(nil)
	g.trace("Module", "Visiting module")
	decls := g.declareBlockAssigned(mod.Body)
	body, err := g.compileBlock(mod.Body)
	if err != nil {
		return "", err
	}
	body = append(decls, body...)
	return c.assemble(g.temps.takeDeferred(), body, g.declared), nil
}

func (g *generator) trace(kind, msg string) {
	g.c.log.Printf("%s[%s] %s", strings.Repeat("  ", g.depth), kind, msg)
}

// generate translates one node. The switch is closed over the node set.
func (g *generator) generate(node Node) (Fragment, error) {
	g.depth++
	defer func() { g.depth-- }()

	switch n := node.(type) {
	case *Assign:
		return g.genAssign(n)
	case *AugAssign:
		return g.genAugAssign(n)
	case *ExprStmt:
		return g.genExprStmt(n)
	case *FunctionDef:
		return g.genFunctionDef(n)
	case *Return:
		return g.genReturn(n)
	case *For:
		return g.genFor(n)
	case *While:
		return g.genWhile(n)
	case *If:
		return g.genIf(n)
	case *Break:
		return g.genBreak(n)
	case *Continue:
		return g.genContinue(n)
	case *Pass:
		g.trace("Pass", "Visiting pass")
		return stmtFrag(""), nil
	case *Try:
		return g.genTry(n)
	case *Raise:
		return g.genRaise(n)
	case *Assert:
		return g.genAssert(n)
	case *Name:
		return g.genName(n)
	case *Constant:
		return g.genConstant(n)
	case *List:
		return g.genList(n)
	case *Tuple:
		return g.genTuple(n)
	case *Dict:
		return g.genDict(n)
	case *BinOp:
		return g.genBinOp(n)
	case *UnaryOp:
		return g.genUnaryOp(n)
	case *Compare:
		return g.genCompare(n)
	case *Call:
		return g.genCall(n)
	case *JoinedStr:
		return g.genJoinedStr(n)
	case *FormattedValue:
		return g.genFormattedValue(n)
	case nil:
		return Fragment{}, compileErrorf(UnsupportedConstruct, "missing node")
	default:
		return Fragment{}, compileErrorf(UnsupportedConstruct, "unsupported node kind %s", node.Kind())
	}
}

// expr generates e and requires an expression fragment.
func (g *generator) expr(e Expr) (string, error) {
	frag, err := g.generate(e)
	if err != nil {
		return "", err
	}
	if frag.Stmt {
		return "", compileErrorf(UnsupportedFeature, "%s produces no value but is used as one", e.Kind())
	}
	return frag.Code, nil
}

// exprs generates each expression left to right.
func (g *generator) exprs(es []Expr) ([]string, error) {
	codes := make([]string, 0, len(es))
	for _, e := range es {
		code, err := g.expr(e)
		if err != nil {
			return nil, err
		}
		codes = append(codes, code)
	}
	return codes, nil
}

// emit translates a statement and returns its lines, preceded by the
// inline temporaries it requested. Expression fragments are never emitted.
func (g *generator) emit(s Stmt) ([]string, error) {
	g.temps.beginStatement()
	frag, err := g.generate(s)
	pending := g.temps.endStatement()
	if err != nil {
		return nil, err
	}
	if !frag.Stmt || frag.Code == "" {
		return nil, nil
	}
	lines := make([]string, 0, len(pending)+1)
	for _, t := range pending {
		lines = append(lines, t.Decl)
	}
	return append(lines, strings.Split(frag.Code, "\n")...), nil
}

// compileBlock translates a statement list at the current nesting.
// Functions defined in the list are registered first so that calls
// resolve regardless of definition order.
func (g *generator) compileBlock(stmts []Stmt) ([]string, error) {
	if err := g.registerFunctions(stmts); err != nil {
		return nil, err
	}
	var lines []string
	for _, s := range stmts {
		out, err := g.emit(s)
		if err != nil {
			return nil, err
		}
		lines = append(lines, out...)
	}
	return lines, nil
}

// compileNested translates the body of a C block. A scope frame is open
// for the duration; prologue runs inside it before the statements.
func (g *generator) compileNested(stmts []Stmt, inline bool, prologue func() []string) ([]string, error) {
	g.scope.Enter()
	defer g.scope.Leave()
	if inline {
		g.nested++
		defer func() { g.nested-- }()
	}
	var lines []string
	if prologue != nil {
		lines = append(lines, prologue()...)
	}
	body, err := g.compileBlock(stmts)
	if err != nil {
		return nil, err
	}
	return indentLines(append(lines, body...), g.indent), nil
}

// placement picks where the backing storage for elts goes. Storage built
// only from literals can be deferred; anything that reads names or calls
// functions is placed before its statement so it sees current values.
func (g *generator) placement(elts ...Expr) Placement {
	if g.nested > 0 {
		return BeforeStatement
	}
	for _, e := range elts {
		if !isLiteral(e) {
			return BeforeStatement
		}
	}
	return TopOfBlock
}

func isLiteral(e Expr) bool {
	switch n := e.(type) {
	case *Constant:
		return true
	case *UnaryOp:
		return isLiteral(n.Operand)
	case *List:
		return allLiteral(n.Elts)
	case *Tuple:
		return allLiteral(n.Elts)
	case *Dict:
		return allLiteral(n.Keys) && allLiteral(n.Values)
	default:
		return false
	}
}

func allLiteral(es []Expr) bool {
	for _, e := range es {
		if !isLiteral(e) {
			return false
		}
	}
	return true
}

// assemble concatenates includes, function definitions and the entry point.
func (c *compilation) assemble(temps []Temp, body []string, declared []string) string {
	indent := strings.Repeat(" ", c.opts.IndentWidth)
	var sb strings.Builder

	for _, lib := range c.includes.order {
		sb.WriteString("#include \"" + c.includePath(lib) + "\"\n")
	}
	sb.WriteString("\n")

	if c.exceptions {
		sb.WriteString("static TryCatchContext " + rootContext + ";\n\n")
	}

	if len(c.compiled) > 0 {
		for _, fn := range c.compiled {
			sb.WriteString(fn.prototype() + ";\n")
		}
		sb.WriteString("\n")
		for _, fn := range c.compiled {
			sb.WriteString(fn.Body + "\n\n")
		}
	}

	sb.WriteString("int main() {\n")
	for _, t := range temps {
		sb.WriteString(indent + t.Decl + "\n")
	}
	if len(temps) > 0 && len(body) > 0 {
		sb.WriteString("\n")
	}
	if c.exceptions {
		sb.WriteString(indent + "init_exc();\n")
	}
	for _, line := range indentLines(body, indent) {
		sb.WriteString(line + "\n")
	}
	for _, name := range declared {
		sb.WriteString(indent + call("free_value", name).String() + ";\n")
	}
	sb.WriteString(indent + "return 0;\n")
	sb.WriteString("}\n")
	return sb.String()
}

func (c *compilation) includePath(lib string) string {
	if c.opts.RuntimeDir == "" {
		return lib
	}
	return path.Join(c.opts.RuntimeDir, lib)
}
