package grammar

import "strconv"

// parser is a recursive-descent parser over the lexed rule body.
//
// Operator precedence follows the surface language the rule authors
// write: '+' (sequence) binds tightest, then '^' (longest
// alternative), then '|' (first alternative).
//
//	orExpr  := xorExpr ('|' xorExpr)*
//	xorExpr := seqExpr ('^' seqExpr)*
//	seqExpr := postfix ('+' postfix)*
//	postfix := primary ('.' suppress '(' ')')*
//	primary := '(' orExpr ')' | Ctor '(' args ')' | lineEnd | string
//
// The namespace is closed: the only identifiers admitted anywhere are
// the class constants (inside Word), the constructors, lineEnd, and
// the postfix suppress. Everything else is rejected as unsafe before
// any evaluation happens — there is no evaluator to escape from.
type parser struct {
	toks []token
	pos  int
}

func (p *parser) peek() token { return p.toks[p.pos] }

func (p *parser) next() token {
	t := p.toks[p.pos]
	if t.kind != tokEOF {
		p.pos++
	}
	return t
}

func (p *parser) expect(kind tokenKind, what string) (token, *CompileError) {
	t := p.next()
	if t.kind != kind {
		return token{}, syntaxErr("expected %s at offset %d, got %q", what, t.pos, t.text)
	}
	return t, nil
}

func (p *parser) parseOr() (node, *CompileError) {
	first, err := p.parseXor()
	if err != nil {
		return nil, err
	}
	alts := []node{first}
	for p.peek().kind == tokPipe {
		p.next()
		n, err := p.parseXor()
		if err != nil {
			return nil, err
		}
		alts = append(alts, n)
	}
	if len(alts) == 1 {
		return first, nil
	}
	return &firstAltNode{alts: alts}, nil
}

func (p *parser) parseXor() (node, *CompileError) {
	first, err := p.parseSeq()
	if err != nil {
		return nil, err
	}
	alts := []node{first}
	for p.peek().kind == tokCaret {
		p.next()
		n, err := p.parseSeq()
		if err != nil {
			return nil, err
		}
		alts = append(alts, n)
	}
	if len(alts) == 1 {
		return first, nil
	}
	return &longestAltNode{alts: alts}, nil
}

func (p *parser) parseSeq() (node, *CompileError) {
	first, err := p.parsePostfix()
	if err != nil {
		return nil, err
	}
	elems := []node{first}
	for p.peek().kind == tokPlus {
		p.next()
		n, err := p.parsePostfix()
		if err != nil {
			return nil, err
		}
		elems = append(elems, n)
	}
	if len(elems) == 1 {
		return first, nil
	}
	return &seqNode{elems: elems}, nil
}

func (p *parser) parsePostfix() (node, *CompileError) {
	n, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for p.peek().kind == tokDot {
		p.next()
		name, perr := p.expect(tokIdent, "method name after '.'")
		if perr != nil {
			return nil, perr
		}
		// The one admitted attribute access. Anything else on the far
		// side of a dot is treated as an escape attempt.
		if name.text != "suppress" {
			return nil, unsafeErr("attribute access %q is not allowed (only .suppress())", name.text)
		}
		if _, perr := p.expect(tokLParen, "'(' after .suppress"); perr != nil {
			return nil, perr
		}
		if _, perr := p.expect(tokRParen, "')' closing .suppress("); perr != nil {
			return nil, perr
		}
		n = &suppressNode{inner: n}
	}
	return n, nil
}

func (p *parser) parsePrimary() (node, *CompileError) {
	t := p.next()
	switch t.kind {
	case tokLParen:
		inner, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if _, perr := p.expect(tokRParen, "closing ')'"); perr != nil {
			return nil, perr
		}
		return inner, nil

	case tokString:
		// A bare string element is shorthand for Literal(s).
		return &literalNode{text: t.text}, nil

	case tokIdent:
		return p.parseIdent(t)

	case tokEOF:
		return nil, syntaxErr("unexpected end of expression")

	default:
		return nil, syntaxErr("unexpected token %q at offset %d", t.text, t.pos)
	}
}

// parseIdent handles an identifier in element position: either the
// lineEnd constant or one of the constructors.
func (p *parser) parseIdent(t token) (node, *CompileError) {
	if p.peek().kind != tokLParen {
		switch t.text {
		case "lineEnd":
			return lineEndNode{}, nil
		}
		if _, ok := classConstants[t.text]; ok {
			return nil, syntaxErr("class constant %q used outside Word(...)", t.text)
		}
		return nil, unsafeErr("unknown identifier %q", t.text)
	}
	p.next() // consume '('

	switch t.text {
	case "Word":
		return p.parseWordArgs()
	case "Literal", "CaselessLiteral":
		arg, err := p.expect(tokString, "string argument")
		if err != nil {
			return nil, err
		}
		if arg.text == "" {
			return nil, syntaxErr("%s requires a non-empty string", t.text)
		}
		if _, err := p.expect(tokRParen, "closing ')'"); err != nil {
			return nil, err
		}
		return &literalNode{text: arg.text, caseless: t.text == "CaselessLiteral"}, nil
	case "Optional", "Suppress":
		inner, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if _, perr := p.expect(tokRParen, "closing ')'"); perr != nil {
			return nil, perr
		}
		if t.text == "Optional" {
			return &optionalNode{inner: inner}, nil
		}
		return &suppressNode{inner: inner}, nil
	default:
		if _, ok := classConstants[t.text]; ok {
			return nil, unsafeErr("class constant %q is not callable", t.text)
		}
		return nil, unsafeErr("unknown constructor %q", t.text)
	}
}

// parseWordArgs parses the argument list of Word: a class (constant
// name or inline character-set string) followed by optional keyword
// bounds exact=, min=, max=.
func (p *parser) parseWordArgs() (node, *CompileError) {
	var class charClass
	arg := p.next()
	switch arg.kind {
	case tokIdent:
		c, ok := classConstants[arg.text]
		if !ok {
			return nil, unsafeErr("unknown character class %q", arg.text)
		}
		class = c
	case tokString:
		if arg.text == "" {
			return nil, syntaxErr("Word requires a non-empty character set")
		}
		class = classFromString(arg.text)
	default:
		return nil, syntaxErr("Word expects a character class, got %q", arg.text)
	}

	w := &wordNode{class: class, min: 1}
	for p.peek().kind == tokComma {
		p.next()
		key, err := p.expect(tokIdent, "keyword argument")
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(tokEquals, "'=' after keyword"); err != nil {
			return nil, err
		}
		val, err := p.expect(tokInt, "integer value")
		if err != nil {
			return nil, err
		}
		n, convErr := strconv.Atoi(val.text)
		if convErr != nil || n < 0 {
			return nil, syntaxErr("invalid integer %q for %s", val.text, key.text)
		}
		switch key.text {
		case "exact":
			if n < 1 {
				return nil, syntaxErr("Word exact= must be >= 1")
			}
			w.min, w.max = n, n
		case "min":
			w.min = n
		case "max":
			w.max = n
		default:
			return nil, unsupportedErr("unknown Word keyword %q", key.text)
		}
	}
	if _, err := p.expect(tokRParen, "closing ')'"); err != nil {
		return nil, err
	}
	if w.max > 0 && w.min > w.max {
		return nil, syntaxErr("Word min=%d exceeds max=%d", w.min, w.max)
	}
	return w, nil
}

// compileExpr lexes and parses a rule body into a matcher tree.
func compileExpr(expr string) (*Matcher, *CompileError) {
	toks, err := lex(expr)
	if err != nil {
		return nil, err
	}
	if len(toks) == 1 { // EOF only
		return nil, syntaxErr("empty expression")
	}
	p := &parser{toks: toks}
	root, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if tail := p.peek(); tail.kind != tokEOF {
		return nil, syntaxErr("trailing input %q at offset %d", tail.text, tail.pos)
	}
	return &Matcher{root: root, expr: expr}, nil
}
