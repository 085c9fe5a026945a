// Package filter 实现标注分类使用的过滤表达式，例如
//
//	[POP] >= 10000 AND ([TYPE] = 'city' OR [NAME] LIKE 'Saint%')
//
// 字段以方括号引用，关键字大小写不敏感，空表达式匹配所有要素。
package filter

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

var (
	filterLexer = lexer.MustSimple([]lexer.SimpleRule{
		{Name: "Whitespace", Pattern: `\s+`},
		{Name: "Field", Pattern: `\[[^\]]*\]`},
		{Name: "String", Pattern: `'(?:''|[^'])*'|"(?:\\.|[^"])*"`},
		{Name: "Number", Pattern: `-?(?:\d+\.\d*|\.\d+|\d+)(?:[eE][-+]?\d+)?`},
		{Name: "Keyword", Pattern: `(?i)\b(?:AND|OR|NOT|LIKE|IS|NULL|TRUE|FALSE)\b`},
		{Name: "Ident", Pattern: `[A-Za-z_][A-Za-z0-9_]*`},
		{Name: "Operator", Pattern: `<>|!=|<=|>=|==|=|<|>`},
		{Name: "Punct", Pattern: `[()]`},
	})

	filterParser = participle.MustBuild[Expr](
		participle.Lexer(filterLexer),
		participle.Elide("Whitespace"),
		participle.CaseInsensitive("Keyword"),
		participle.UseLookahead(2),
	)
)

// ErrUnknownField 表示表达式引用了要素中不存在的字段。
var ErrUnknownField = errors.New("filter: unknown field")

// ErrAmbiguousField 表示字段名只在忽略大小写时匹配，且匹配到不止一列。
var ErrAmbiguousField = errors.New("filter: ambiguous field")

// Expr is a disjunction of conjunctions.
type Expr struct {
	Or []*AndExpr `parser:"@@ ( 'OR' @@ )*"`
}

// AndExpr is a conjunction.
type AndExpr struct {
	And []*Unary `parser:"@@ ( 'AND' @@ )*"`
}

// Unary is an optionally negated comparison.
type Unary struct {
	Not        *Unary      `parser:"  'NOT' @@"`
	Comparison *Comparison `parser:"| @@"`
}

// Comparison compares two operands, tests for null, or stands alone as a
// truth value.
type Comparison struct {
	Left   *Operand  `parser:"@@"`
	Op     string    `parser:"( @( Operator | 'LIKE' )"`
	Right  *Operand  `parser:"  @@"`
	IsNull *NullTest `parser:"| @@ )?"`
}

// NullTest is `IS NULL` or `IS NOT NULL`.
type NullTest struct {
	Not bool `parser:"'IS' @'NOT'? 'NULL'"`
}

// Operand is a field reference, a literal or a parenthesised expression.
type Operand struct {
	Field  *FieldRef `parser:"  @Field"`
	Ident  *string   `parser:"| @Ident"`
	Number *float64  `parser:"| @Number"`
	String *Literal  `parser:"| @String"`
	Bool   *string   `parser:"| @( 'TRUE' | 'FALSE' )"`
	Null   bool      `parser:"| @'NULL'"`
	Sub    *Expr     `parser:"| '(' @@ ')'"`
}

// FieldRef is a bracketed field name with the brackets removed.
type FieldRef string

// Capture implements participle.Capture.
func (f *FieldRef) Capture(values []string) error {
	raw := strings.Join(values, "")
	*f = FieldRef(strings.TrimSuffix(strings.TrimPrefix(raw, "["), "]"))
	return nil
}

// Literal is a quoted string: 'it''s' SQL style or "Go \"style\"".
type Literal string

// Capture implements participle.Capture.
func (l *Literal) Capture(values []string) error {
	raw := strings.Join(values, "")
	if strings.HasPrefix(raw, "'") {
		*l = Literal(strings.ReplaceAll(raw[1:len(raw)-1], "''", "'"))
		return nil
	}
	s, err := strconv.Unquote(raw)
	if err != nil {
		return fmt.Errorf("filter: 字符串 %s 无法解析: %w", raw, err)
	}
	*l = Literal(s)
	return nil
}

// Filter is a compiled filter expression.
type Filter struct {
	src  string
	expr *Expr
}

// Compile 解析过滤表达式。空白表达式得到匹配所有要素的 Filter。
func Compile(src string) (*Filter, error) {
	f := &Filter{src: src}
	if strings.TrimSpace(src) == "" {
		return f, nil
	}
	expr, err := filterParser.ParseString("", src)
	if err != nil {
		return nil, fmt.Errorf("filter: 解析 %q 失败: %w", src, err)
	}
	f.expr = expr
	return f, nil
}

// MustCompile is Compile that panics on error.
func MustCompile(src string) *Filter {
	f, err := Compile(src)
	if err != nil {
		panic(err)
	}
	return f
}

func (f *Filter) String() string { return f.src }

// MatchAll reports whether the filter is empty.
func (f *Filter) MatchAll() bool { return f == nil || f.expr == nil }

// Match evaluates the filter against one row.
func (f *Filter) Match(row map[string]any) (bool, error) {
	if f.MatchAll() {
		return true, nil
	}
	v, err := f.expr.eval(row)
	if err != nil {
		return false, err
	}
	return truthy(v), nil
}

// Fields 返回表达式引用的字段名（去重，按首次出现排序）。
func (f *Filter) Fields() []string {
	if f.MatchAll() {
		return nil
	}
	var out []string
	seen := map[string]bool{}
	f.expr.walk(func(o *Operand) {
		name := ""
		switch {
		case o.Field != nil:
			name = string(*o.Field)
		case o.Ident != nil:
			name = *o.Ident
		default:
			return
		}
		if !seen[name] {
			seen[name] = true
			out = append(out, name)
		}
	})
	return out
}
