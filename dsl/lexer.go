package dsl

import (
	"fmt"
	"strconv"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// 长度单位与角度单位跟在数字后面，负数也是一个 Number 记号，例如 -4pt、-15deg。
var dslLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Whitespace", Pattern: `[ \t\r]+`},
	{Name: "Newline", Pattern: `\n+`},
	{Name: "BlockComment", Pattern: `/\*[^*]*\*+(?:[^/*][^*]*\*+)*/`},
	{Name: "LineComment", Pattern: `//[^\n]*`},
	{Name: "Color", Pattern: `#(?:[0-9A-Fa-f]{8}|[0-9A-Fa-f]{6}|[0-9A-Fa-f]{3})\b`},
	{Name: "HashComment", Pattern: `#[^\n]*`},
	{Name: "Number", Pattern: `-?(?:\d+\.\d+|\d+)(?:pt|mm|cm|in|px|deg|rad|%|x)?`},
	{Name: "String", Pattern: `"(?:\\.|[^"])*"`},
	{Name: "Ident", Pattern: `[A-Za-z_][A-Za-z0-9_-]*`},
	{Name: "Symbol", Pattern: `[][(),.=+\-*/%<>!?;:]`},
	{Name: "LBrace", Pattern: `{`},
	{Name: "RBrace", Pattern: `}`},
})

var (
	kindNames   = map[lexer.TokenType]string{}
	kindNewline = tokenKind("Newline")
	kindLBrace  = tokenKind("LBrace")
	kindRBrace  = tokenKind("RBrace")
	kindSymbol  = tokenKind("Symbol")
	kindString  = tokenKind("String")
)

func init() {
	for name, tt := range dslLexer.Symbols() {
		kindNames[tt] = name
	}
}

func tokenKind(name string) lexer.TokenType {
	tt, ok := dslLexer.Symbols()[name]
	if !ok {
		panic(fmt.Sprintf("dsl: 未定义的记号 %s", name))
	}
	return tt
}

// Lexeme 是命令参数或表达式中的一个记号。Value 为去掉引号后的文本，Raw 为原文。
type Lexeme struct {
	Type  string         `json:"type"`
	Value string         `json:"value"`
	Raw   string         `json:"raw"`
	Pos   lexer.Position `json:"-"`
}

// Parse 实现 participle.Parseable：换行、花括号与分号结束参数列表。
func (l *Lexeme) Parse(lex *lexer.PeekingLexer) error {
	if endsArgs(lex.Peek()) {
		return participle.NextMatch
	}
	next, err := takeLexeme(lex)
	if err != nil {
		return err
	}
	*l = next
	return nil
}

func endsArgs(tok *lexer.Token) bool {
	if tok == nil || tok.EOF() {
		return true
	}
	switch tok.Type {
	case kindNewline, kindLBrace, kindRBrace:
		return true
	case kindSymbol:
		return tok.Value == ";"
	}
	return false
}

// Expression 保存赋值右侧未加引号的记号，例如 `halo: true` 或 `priority: POP`。
type Expression struct {
	Parts []*Lexeme
}

// Parse 实现 participle.Parseable。表达式在最外层遇到换行、花括号、分号或逗号时结束，
// 数组内的 ']' 也会结束它。
func (e *Expression) Parse(lex *lexer.PeekingLexer) error {
	var depth nesting
	var parts []*Lexeme
	for !depth.ends(lex.Peek()) {
		next, err := takeLexeme(lex)
		if err != nil {
			return err
		}
		depth.track(next.Raw)
		parts = append(parts, &next)
	}
	if len(parts) == 0 {
		return participle.NextMatch
	}
	e.Parts = parts
	return nil
}

// nesting 记录表达式中尚未闭合的圆括号与方括号。
type nesting struct{ paren, bracket int }

func (n *nesting) track(raw string) {
	switch raw {
	case "(":
		n.paren++
	case ")":
		n.paren = max(n.paren-1, 0)
	case "[":
		n.bracket++
	case "]":
		n.bracket = max(n.bracket-1, 0)
	}
}

func (n nesting) flat() bool { return n.paren == 0 && n.bracket == 0 }

func (n nesting) ends(tok *lexer.Token) bool {
	if tok == nil || tok.EOF() {
		return true
	}
	switch tok.Type {
	case kindNewline, kindLBrace, kindRBrace:
		return n.flat()
	case kindSymbol:
		switch tok.Value {
		case ";", ",":
			return n.flat()
		case "]":
			return n.bracket == 0
		}
	}
	return false
}

func takeLexeme(lex *lexer.PeekingLexer) (Lexeme, error) {
	tok := lex.Next()
	if tok.EOF() {
		return Lexeme{}, participle.NextMatch
	}
	val := tok.Value
	if tok.Type == kindString {
		s, err := strconv.Unquote(tok.Value)
		if err != nil {
			return Lexeme{}, fmt.Errorf("%s: 字符串无效: %w", tok.Pos, err)
		}
		val = s
	}
	name, ok := kindNames[tok.Type]
	if !ok {
		name = fmt.Sprintf("#%d", tok.Type)
	}
	return Lexeme{Type: name, Value: val, Raw: tok.Value, Pos: tok.Pos}, nil
}

// StringLiteral 在捕获时按 Go 规则去掉引号与转义。
type StringLiteral string

// Capture implements participle.Capture.
func (s *StringLiteral) Capture(values []string) error {
	if len(values) == 0 {
		return fmt.Errorf("dsl: 字符串字面量缺少内容")
	}
	val, err := strconv.Unquote(values[0])
	if err != nil {
		return err
	}
	*s = StringLiteral(val)
	return nil
}
