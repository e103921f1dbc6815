package expr

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/goliatone/go-formwizard/pkg/visibility"
)

// Evaluator is a small, dependency-free rule evaluator used for step
// inclusion.
//
// Grammar:
//
//	expr    := and ( "||" and )*
//	and     := unary ( "&&" unary )*
//	unary   := "!" unary | primary
//	primary := "(" expr ")" | ident [ ("==" | "!=") literal ]
//
// Identifiers are read from visibility.Context.Values, or from Extras when
// prefixed with `extras.`. A bare identifier is tested for truthiness.
// Compiled programs are cached per rule string.
type Evaluator struct {
	mu       sync.RWMutex
	programs map[string]*Program
}

// New returns an Evaluator with an empty program cache.
func New() *Evaluator {
	return &Evaluator{programs: make(map[string]*Program)}
}

// Eval compiles rule (once) and evaluates it. An empty rule is always true.
func (e *Evaluator) Eval(_ string, rule string, ctx visibility.Context) (bool, error) {
	program, err := e.program(rule)
	if err != nil {
		return false, err
	}
	return program.Eval(ctx)
}

func (e *Evaluator) program(rule string) (*Program, error) {
	key := strings.TrimSpace(rule)

	e.mu.RLock()
	program, ok := e.programs[key]
	e.mu.RUnlock()
	if ok {
		return program, nil
	}

	program, err := Compile(key)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	if e.programs == nil {
		e.programs = make(map[string]*Program)
	}
	e.programs[key] = program
	e.mu.Unlock()
	return program, nil
}

// Program is a compiled rule.
type Program struct {
	source string
	root   node
}

// Compile parses rule into a Program.
func Compile(rule string) (*Program, error) {
	source := strings.TrimSpace(rule)
	if source == "" {
		return &Program{}, nil
	}

	tokens, err := scan(source)
	if err != nil {
		return nil, err
	}
	p := &parser{tokens: tokens}
	root, err := p.or()
	if err != nil {
		return nil, err
	}
	if p.pos < len(p.tokens) {
		return nil, fmt.Errorf("visibility/expr: unexpected token %q in %q", p.tokens[p.pos].text, source)
	}
	return &Program{source: source, root: root}, nil
}

// MustCompile panics when rule does not parse. Intended for package-level
// rule tables.
func MustCompile(rule string) *Program {
	program, err := Compile(rule)
	if err != nil {
		panic(err)
	}
	return program
}

// String returns the rule the program was compiled from.
func (p *Program) String() string {
	if p == nil {
		return ""
	}
	return p.source
}

// Eval evaluates the program against ctx.
func (p *Program) Eval(ctx visibility.Context) (bool, error) {
	if p == nil || p.root == nil {
		return true, nil
	}
	return p.root.eval(ctx)
}

type kind int

const (
	kindIdent kind = iota
	kindString
	kindNumber
	kindBool
	kindNull
	kindEq
	kindNeq
	kindAnd
	kindOr
	kindNot
	kindLParen
	kindRParen
)

type tok struct {
	kind kind
	text string
}

func scan(input string) ([]tok, error) {
	var out []tok
	for i := 0; i < len(input); {
		ch := input[i]
		switch {
		case ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r':
			i++
		case ch == '(':
			out = append(out, tok{kindLParen, "("})
			i++
		case ch == ')':
			out = append(out, tok{kindRParen, ")"})
			i++
		case ch == '!' && i+1 < len(input) && input[i+1] == '=':
			out = append(out, tok{kindNeq, "!="})
			i += 2
		case ch == '!':
			out = append(out, tok{kindNot, "!"})
			i++
		case ch == '=' || ch == '&' || ch == '|':
			if i+1 >= len(input) || input[i+1] != ch {
				return nil, fmt.Errorf("visibility/expr: unexpected %q at offset %d", ch, i)
			}
			op := map[byte]tok{'=': {kindEq, "=="}, '&': {kindAnd, "&&"}, '|': {kindOr, "||"}}[ch]
			out = append(out, op)
			i += 2
		case ch == '"' || ch == '\'':
			end := closingQuote(input, i)
			if end < 0 {
				return nil, errors.New("visibility/expr: unterminated string literal")
			}
			raw := input[i+1 : end]
			if ch == '\'' {
				raw = strings.ReplaceAll(raw, `\'`, `'`)
				raw = strings.ReplaceAll(raw, `"`, `\"`)
			}
			value, err := strconv.Unquote(`"` + raw + `"`)
			if err != nil {
				return nil, fmt.Errorf("visibility/expr: invalid string literal: %w", err)
			}
			out = append(out, tok{kindString, value})
			i = end + 1
		default:
			start := i
			for i < len(input) && !strings.ContainsRune(" \t\n\r()!=&|\"'", rune(input[i])) {
				i++
			}
			out = append(out, word(input[start:i]))
		}
	}
	return out, nil
}

func closingQuote(input string, open int) int {
	quote := input[open]
	for i := open + 1; i < len(input); i++ {
		switch input[i] {
		case '\\':
			i++
		case quote:
			return i
		}
	}
	return -1
}

func word(raw string) tok {
	switch strings.ToLower(raw) {
	case "true", "false":
		return tok{kindBool, strings.ToLower(raw)}
	case "null", "nil":
		return tok{kindNull, "null"}
	}
	if c := raw[0]; (c >= '0' && c <= '9') || c == '-' || c == '+' {
		return tok{kindNumber, raw}
	}
	return tok{kindIdent, raw}
}

type parser struct {
	tokens []tok
	pos    int
}

func (p *parser) accept(k kind) (tok, bool) {
	if p.pos < len(p.tokens) && p.tokens[p.pos].kind == k {
		t := p.tokens[p.pos]
		p.pos++
		return t, true
	}
	return tok{}, false
}

func (p *parser) or() (node, error) {
	left, err := p.and()
	if err != nil {
		return nil, err
	}
	for {
		if _, ok := p.accept(kindOr); !ok {
			return left, nil
		}
		right, err := p.and()
		if err != nil {
			return nil, err
		}
		left = orNode{left, right}
	}
}

func (p *parser) and() (node, error) {
	left, err := p.unary()
	if err != nil {
		return nil, err
	}
	for {
		if _, ok := p.accept(kindAnd); !ok {
			return left, nil
		}
		right, err := p.unary()
		if err != nil {
			return nil, err
		}
		left = andNode{left, right}
	}
}

func (p *parser) unary() (node, error) {
	if _, ok := p.accept(kindNot); ok {
		inner, err := p.unary()
		if err != nil {
			return nil, err
		}
		return notNode{inner}, nil
	}
	return p.primary()
}

func (p *parser) primary() (node, error) {
	if _, ok := p.accept(kindLParen); ok {
		inner, err := p.or()
		if err != nil {
			return nil, err
		}
		if _, ok := p.accept(kindRParen); !ok {
			return nil, errors.New("visibility/expr: missing closing ')'")
		}
		return inner, nil
	}

	ident, ok := p.accept(kindIdent)
	if !ok {
		if p.pos >= len(p.tokens) {
			return nil, errors.New("visibility/expr: empty expression")
		}
		return nil, fmt.Errorf("visibility/expr: expected identifier, got %q", p.tokens[p.pos].text)
	}

	negate := false
	if _, ok := p.accept(kindEq); !ok {
		if _, ok := p.accept(kindNeq); !ok {
			return truthyNode{ident.text}, nil
		}
		negate = true
	}

	if p.pos >= len(p.tokens) {
		return nil, errors.New("visibility/expr: missing literal")
	}
	lit := p.tokens[p.pos]
	p.pos++
	switch lit.kind {
	case kindString, kindNumber, kindBool, kindNull:
	case kindIdent:
		// bare words compare as strings: tier == free
		lit.kind = kindString
	default:
		return nil, fmt.Errorf("visibility/expr: expected literal, got %q", lit.text)
	}
	return compareNode{ident: ident.text, lit: lit, negate: negate}, nil
}

type node interface {
	eval(ctx visibility.Context) (bool, error)
}

type orNode struct{ left, right node }

func (n orNode) eval(ctx visibility.Context) (bool, error) {
	ok, err := n.left.eval(ctx)
	if err != nil || ok {
		return ok, err
	}
	return n.right.eval(ctx)
}

type andNode struct{ left, right node }

func (n andNode) eval(ctx visibility.Context) (bool, error) {
	ok, err := n.left.eval(ctx)
	if err != nil || !ok {
		return false, err
	}
	return n.right.eval(ctx)
}

type notNode struct{ inner node }

func (n notNode) eval(ctx visibility.Context) (bool, error) {
	ok, err := n.inner.eval(ctx)
	return !ok && err == nil, err
}

type truthyNode struct{ ident string }

func (n truthyNode) eval(ctx visibility.Context) (bool, error) {
	value, ok := lookup(ctx, n.ident)
	return ok && truthy(value), nil
}

type compareNode struct {
	ident  string
	lit    tok
	negate bool
}

func (n compareNode) eval(ctx visibility.Context) (bool, error) {
	value, _ := lookup(ctx, n.ident)

	var equal bool
	switch n.lit.kind {
	case kindNull:
		equal = value == nil
	case kindBool:
		equal = truthy(value) == (n.lit.text == "true")
	case kindNumber:
		want, err := strconv.ParseFloat(n.lit.text, 64)
		if err != nil {
			return false, fmt.Errorf("visibility/expr: invalid number literal %q", n.lit.text)
		}
		got, ok := number(value)
		equal = ok && got == want
	default:
		equal = text(value) == n.lit.text
	}
	return equal != n.negate, nil
}

func lookup(ctx visibility.Context, key string) (any, bool) {
	if rest, ok := strings.CutPrefix(key, "extras."); ok {
		return lookupPath(ctx.Extras, rest)
	}
	return lookupPath(ctx.Values, key)
}

func lookupPath(values map[string]any, path string) (any, bool) {
	if len(values) == 0 || path == "" {
		return nil, false
	}
	if v, ok := values[path]; ok {
		return v, true
	}

	var current any = values
	for _, part := range strings.Split(path, ".") {
		m, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		if current, ok = m[part]; !ok {
			return nil, false
		}
	}
	return current, true
}

func truthy(value any) bool {
	switch v := value.(type) {
	case nil:
		return false
	case bool:
		return v
	case string:
		parsed, err := strconv.ParseBool(strings.TrimSpace(v))
		if err == nil {
			return parsed
		}
		return strings.TrimSpace(v) != ""
	case fmt.Stringer:
		return strings.TrimSpace(v.String()) != ""
	case int:
		return v != 0
	case int64:
		return v != 0
	case float64:
		return v != 0
	case []any:
		return len(v) > 0
	case map[string]any:
		return len(v) > 0
	default:
		return true
	}
}

func number(value any) (float64, bool) {
	switch v := value.(type) {
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case float64:
		return v, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

func text(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}
