package forms

import (
	"fmt"
	"strconv"
	"strings"
)

// The expression interpreter evaluates tenant-authored rule text against a
// flat field-id→value context. It is deliberately far weaker than a
// scripting language: no calls, no assignment, no statements, no object
// construction. Safety holds by construction — the tokenizer only accepts
// an allow-listed character set and the grammar has no production that
// could reach an execution facility.
//
// Grammar, lowest to highest precedence:
//
//	or      → and ('||' and)*
//	and     → not ('&&' not)*
//	not     → '!' not | compare
//	compare → add (('===' | '!==' | '==' | '!=' | '<=' | '>=' | '<' | '>') add)?
//	add     → atom (('+' | '-') atom)*
//	atom    → number | string | true | false | null | undefined
//	        | dotted-identifier | '(' or ')'

// disallowedKeywords are rejected as whole tokens. Matching per token, not
// per substring, so an identifier merely containing one ("info") is legal.
var disallowedKeywords = map[string]struct{}{
	"function": {}, "class": {}, "eval": {}, "new": {}, "import": {},
	"require": {}, "return": {}, "this": {}, "constructor": {},
	"prototype": {}, "__proto__": {}, "if": {}, "else": {}, "for": {},
	"while": {}, "do": {}, "switch": {}, "case": {}, "break": {},
	"continue": {}, "throw": {}, "try": {}, "catch": {}, "finally": {},
	"var": {}, "let": {}, "const": {}, "delete": {}, "typeof": {},
	"instanceof": {}, "void": {}, "yield": {}, "async": {}, "await": {},
	"in": {}, "of": {}, "with": {}, "super": {}, "globalThis": {},
}

// dangerousSegments fail property resolution outright when they appear
// anywhere in a dotted chain. Structural, not substring-based.
var dangerousSegments = map[string]struct{}{
	"__proto__":   {},
	"constructor": {},
	"prototype":   {},
}

// EvaluateBool evaluates a tenant-authored expression and coerces the
// result to a boolean. Any gate rejection, parse error or evaluation error
// yields false: the expressions gate access to enrollment steps, so a
// broken rule must fail closed rather than fault the process.
func EvaluateBool(expression string, context map[string]any) bool {
	v, err := Evaluate(expression, context)
	if err != nil {
		return false
	}
	return truthy(v)
}

// Evaluate parses and evaluates an expression, returning the raw value.
// Used directly for calculated fields, where the result may be a number or
// string rather than a boolean.
func Evaluate(expression string, context map[string]any) (any, error) {
	expression = strings.TrimSpace(expression)
	if expression == "" {
		return nil, fmt.Errorf("empty expression")
	}
	if err := gate(expression); err != nil {
		return nil, err
	}
	tokens, err := tokenize(expression)
	if err != nil {
		return nil, err
	}
	p := &exprParser{tokens: tokens, ctx: context}
	v, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if !p.done() {
		return nil, fmt.Errorf("unexpected token %q", p.peek().text)
	}
	return v, nil
}

// gate rejects everything outside the allow-listed character set before
// the tokenizer ever runs. Brackets, braces, backticks, semicolons and
// consecutive dots have no grammar production, so their presence is always
// hostile or mistaken input.
func gate(expression string) error {
	if strings.Contains(expression, "..") {
		return fmt.Errorf("consecutive dots not allowed")
	}
	for _, r := range expression {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '_' || r == '.':
		case r == '\'' || r == '"':
		case r == '!' || r == '<' || r == '>' || r == '=':
		case r == '&' || r == '|':
		case r == '+' || r == '-':
		case r == '(' || r == ')':
		case r == ' ' || r == '\t' || r == '\n' || r == '\r':
		default:
			return fmt.Errorf("character %q not allowed", r)
		}
	}
	return nil
}

type tokenKind int

const (
	tokNumber tokenKind = iota
	tokString
	tokIdent
	tokOp
	tokLParen
	tokRParen
)

type token struct {
	kind tokenKind
	text string
	num  float64
}

func tokenize(expression string) ([]token, error) {
	var tokens []token
	runes := []rune(expression)
	i := 0
	for i < len(runes) {
		r := runes[i]
		switch {
		case r == ' ' || r == '\t' || r == '\n' || r == '\r':
			i++
		case r == '(':
			tokens = append(tokens, token{kind: tokLParen, text: "("})
			i++
		case r == ')':
			tokens = append(tokens, token{kind: tokRParen, text: ")"})
			i++
		case r == '\'' || r == '"':
			quote := r
			j := i + 1
			for j < len(runes) && runes[j] != quote {
				j++
			}
			if j >= len(runes) {
				return nil, fmt.Errorf("unterminated string")
			}
			tokens = append(tokens, token{kind: tokString, text: string(runes[i+1 : j])})
			i = j + 1
		case r >= '0' && r <= '9':
			j := i
			for j < len(runes) && (runes[j] >= '0' && runes[j] <= '9' || runes[j] == '.') {
				j++
			}
			text := string(runes[i:j])
			n, err := strconv.ParseFloat(text, 64)
			if err != nil {
				return nil, fmt.Errorf("bad number %q", text)
			}
			tokens = append(tokens, token{kind: tokNumber, text: text, num: n})
			i = j
		case isIdentStart(r):
			j := i
			for j < len(runes) && (isIdentRune(runes[j]) || runes[j] == '.') {
				j++
			}
			text := string(runes[i:j])
			if strings.HasSuffix(text, ".") {
				return nil, fmt.Errorf("identifier %q ends with a dot", text)
			}
			for _, segment := range strings.Split(text, ".") {
				if segment == "" {
					return nil, fmt.Errorf("empty path segment in %q", text)
				}
				if _, bad := disallowedKeywords[segment]; bad {
					return nil, fmt.Errorf("keyword %q not allowed", segment)
				}
			}
			tokens = append(tokens, token{kind: tokIdent, text: text})
			i = j
		default:
			op, ok := matchOperator(runes[i:])
			if !ok {
				return nil, fmt.Errorf("unexpected character %q", r)
			}
			tokens = append(tokens, token{kind: tokOp, text: op})
			i += len(op)
		}
	}
	if len(tokens) == 0 {
		return nil, fmt.Errorf("empty expression")
	}
	return tokens, nil
}

// exprOperators is ordered longest first so three-character operators win
// over their prefixes.
var exprOperators = []string{"===", "!==", "==", "!=", "<=", ">=", "&&", "||", "<", ">", "!", "+", "-"}

func matchOperator(rest []rune) (string, bool) {
	s := string(rest)
	for _, op := range exprOperators {
		if strings.HasPrefix(s, op) {
			return op, true
		}
	}
	return "", false
}

func isIdentStart(r rune) bool {
	return r == '_' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z'
}

func isIdentRune(r rune) bool {
	return isIdentStart(r) || r >= '0' && r <= '9'
}

type exprParser struct {
	tokens []token
	pos    int
	ctx    map[string]any
}

func (p *exprParser) done() bool { return p.pos >= len(p.tokens) }

func (p *exprParser) peek() token {
	if p.done() {
		return token{}
	}
	return p.tokens[p.pos]
}

func (p *exprParser) acceptOp(ops ...string) (string, bool) {
	if p.done() {
		return "", false
	}
	t := p.tokens[p.pos]
	if t.kind != tokOp {
		return "", false
	}
	for _, op := range ops {
		if t.text == op {
			p.pos++
			return op, true
		}
	}
	return "", false
}

func (p *exprParser) parseOr() (any, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for {
		if _, ok := p.acceptOp("||"); !ok {
			return left, nil
		}
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = truthy(left) || truthy(right)
	}
}

func (p *exprParser) parseAnd() (any, error) {
	left, err := p.parseNot()
	if err != nil {
		return nil, err
	}
	for {
		if _, ok := p.acceptOp("&&"); !ok {
			return left, nil
		}
		right, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		left = truthy(left) && truthy(right)
	}
}

func (p *exprParser) parseNot() (any, error) {
	if _, ok := p.acceptOp("!"); ok {
		v, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		return !truthy(v), nil
	}
	return p.parseCompare()
}

func (p *exprParser) parseCompare() (any, error) {
	left, err := p.parseAdd()
	if err != nil {
		return nil, err
	}
	op, ok := p.acceptOp("===", "!==", "==", "!=", "<=", ">=", "<", ">")
	if !ok {
		return left, nil
	}
	right, err := p.parseAdd()
	if err != nil {
		return nil, err
	}
	return compareValues(op, left, right)
}

func (p *exprParser) parseAdd() (any, error) {
	left, err := p.parseAtom()
	if err != nil {
		return nil, err
	}
	for {
		op, ok := p.acceptOp("+", "-")
		if !ok {
			return left, nil
		}
		right, err := p.parseAtom()
		if err != nil {
			return nil, err
		}
		left, err = arithmetic(op, left, right)
		if err != nil {
			return nil, err
		}
	}
}

func (p *exprParser) parseAtom() (any, error) {
	if p.done() {
		return nil, fmt.Errorf("unexpected end of expression")
	}
	t := p.tokens[p.pos]
	switch t.kind {
	case tokNumber:
		p.pos++
		return t.num, nil
	case tokString:
		p.pos++
		return t.text, nil
	case tokIdent:
		p.pos++
		switch t.text {
		case "true":
			return true, nil
		case "false":
			return false, nil
		case "null", "undefined":
			return nil, nil
		}
		return resolvePath(t.text, p.ctx)
	case tokLParen:
		p.pos++
		v, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if p.done() || p.tokens[p.pos].kind != tokRParen {
			return nil, fmt.Errorf("missing closing parenthesis")
		}
		p.pos++
		return v, nil
	case tokOp:
		// unary minus on a number literal
		if t.text == "-" && p.pos+1 < len(p.tokens) && p.tokens[p.pos+1].kind == tokNumber {
			p.pos += 2
			return -p.tokens[p.pos-1].num, nil
		}
	}
	return nil, fmt.Errorf("unexpected token %q", t.text)
}

// resolvePath walks a dotted identifier chain through the context. A
// dangerous segment anywhere in the chain is a hard failure, not a silent
// nil — the fail-closed wrapper turns it into false. Missing keys resolve
// to nil, matching how an absent field reads.
func resolvePath(path string, ctx map[string]any) (any, error) {
	segments := strings.Split(path, ".")
	for _, segment := range segments {
		if _, bad := dangerousSegments[segment]; bad {
			return nil, fmt.Errorf("path segment %q not allowed", segment)
		}
	}
	var current any = ctx
	for _, segment := range segments {
		m, ok := current.(map[string]any)
		if !ok {
			return nil, nil
		}
		current = m[segment]
	}
	return current, nil
}

func truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case float64:
		return x != 0
	case int:
		return x != 0
	case string:
		return x != ""
	default:
		return true
	}
}

// asNumber coerces a value to float64 where a numeric reading exists.
func asNumber(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	case bool:
		if x {
			return 1, true
		}
		return 0, true
	case string:
		n, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return 0, false
		}
		return n, true
	default:
		return 0, false
	}
}

func asString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case int:
		return strconv.Itoa(x)
	case bool:
		return strconv.FormatBool(x)
	default:
		return fmt.Sprintf("%v", x)
	}
}

func compareValues(op string, left, right any) (any, error) {
	switch op {
	case "===":
		return strictEqual(left, right), nil
	case "!==":
		return !strictEqual(left, right), nil
	case "==":
		return looseEqual(left, right), nil
	case "!=":
		return !looseEqual(left, right), nil
	}
	// relational: numeric when both sides read as numbers, else lexical
	ln, lok := asNumber(left)
	rn, rok := asNumber(right)
	if lok && rok {
		switch op {
		case "<":
			return ln < rn, nil
		case ">":
			return ln > rn, nil
		case "<=":
			return ln <= rn, nil
		case ">=":
			return ln >= rn, nil
		}
	}
	ls, rs := asString(left), asString(right)
	switch op {
	case "<":
		return ls < rs, nil
	case ">":
		return ls > rs, nil
	case "<=":
		return ls <= rs, nil
	case ">=":
		return ls >= rs, nil
	}
	return nil, fmt.Errorf("unknown comparison %q", op)
}

func strictEqual(left, right any) bool {
	if left == nil || right == nil {
		return left == nil && right == nil
	}
	switch l := left.(type) {
	case bool:
		r, ok := right.(bool)
		return ok && l == r
	case string:
		r, ok := right.(string)
		return ok && l == r
	default:
		ln, lok := asNumber(left)
		if !lok {
			return false
		}
		switch right.(type) {
		case float64, int, int64:
			rn, _ := asNumber(right)
			return ln == rn
		}
		return false
	}
}

func looseEqual(left, right any) bool {
	if left == nil || right == nil {
		return left == nil && right == nil
	}
	ln, lok := asNumber(left)
	rn, rok := asNumber(right)
	if lok && rok {
		return ln == rn
	}
	return asString(left) == asString(right)
}

func arithmetic(op string, left, right any) (any, error) {
	ln, lok := asNumber(left)
	rn, rok := asNumber(right)
	if op == "-" {
		if !lok || !rok {
			return nil, fmt.Errorf("cannot subtract non-numeric values")
		}
		return ln - rn, nil
	}
	if lok && rok {
		return ln + rn, nil
	}
	return asString(left) + asString(right), nil
}
