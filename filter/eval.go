package filter

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

func (e *Expr) eval(row map[string]any) (any, error) {
	if len(e.Or) == 1 {
		return e.Or[0].eval(row)
	}
	for _, and := range e.Or {
		v, err := and.eval(row)
		if err != nil {
			return nil, err
		}
		if truthy(v) {
			return true, nil
		}
	}
	return false, nil
}

func (e *AndExpr) eval(row map[string]any) (any, error) {
	if len(e.And) == 1 {
		return e.And[0].eval(row)
	}
	for _, u := range e.And {
		v, err := u.eval(row)
		if err != nil {
			return nil, err
		}
		if !truthy(v) {
			return false, nil
		}
	}
	return true, nil
}

func (u *Unary) eval(row map[string]any) (any, error) {
	if u.Not != nil {
		v, err := u.Not.eval(row)
		if err != nil {
			return nil, err
		}
		return !truthy(v), nil
	}
	return u.Comparison.eval(row)
}

func (c *Comparison) eval(row map[string]any) (any, error) {
	left, err := c.Left.eval(row)
	if err != nil {
		return nil, err
	}
	switch {
	case c.IsNull != nil:
		return (left == nil) != c.IsNull.Not, nil
	case c.Op == "":
		return left, nil
	}
	right, err := c.Right.eval(row)
	if err != nil {
		return nil, err
	}
	if left == nil || right == nil {
		// 与 NULL 比较总是不成立。
		return false, nil
	}
	op := strings.ToUpper(c.Op)
	if op == "LIKE" {
		return like(fmt.Sprint(left), fmt.Sprint(right)), nil
	}
	cmp, ok := compare(left, right)
	if !ok {
		return false, nil
	}
	switch op {
	case "=", "==":
		return cmp == 0, nil
	case "<>", "!=":
		return cmp != 0, nil
	case "<":
		return cmp < 0, nil
	case "<=":
		return cmp <= 0, nil
	case ">":
		return cmp > 0, nil
	case ">=":
		return cmp >= 0, nil
	}
	return nil, fmt.Errorf("filter: 未知运算符 %s", c.Op)
}

func (o *Operand) eval(row map[string]any) (any, error) {
	switch {
	case o.Field != nil:
		return field(row, string(*o.Field))
	case o.Ident != nil:
		return field(row, *o.Ident)
	case o.Number != nil:
		return *o.Number, nil
	case o.String != nil:
		return string(*o.String), nil
	case o.Bool != nil:
		return strings.EqualFold(*o.Bool, "true"), nil
	case o.Null:
		return nil, nil
	case o.Sub != nil:
		return o.Sub.eval(row)
	}
	return nil, fmt.Errorf("filter: 空操作数")
}

func field(row map[string]any, name string) (any, error) {
	if v, ok := row[name]; ok {
		return normalize(v), nil
	}
	var match string
	found := 0
	for k := range row {
		if strings.EqualFold(k, name) {
			match = k
			found++
		}
	}
	switch found {
	case 0:
		return nil, fmt.Errorf("%w: %s", ErrUnknownField, name)
	case 1:
		return normalize(row[match]), nil
	}
	return nil, fmt.Errorf("%w: %s", ErrAmbiguousField, name)
}

// normalize folds the numeric types a data row may carry into float64.
func normalize(v any) any {
	switch n := v.(type) {
	case int:
		return float64(n)
	case int32:
		return float64(n)
	case int64:
		return float64(n)
	case uint:
		return float64(n)
	case uint32:
		return float64(n)
	case uint64:
		return float64(n)
	case float32:
		return float64(n)
	}
	return v
}

// compare returns -1, 0 or 1. Numbers compare numerically, a string compared
// with a number is parsed first, everything else compares as text.
func compare(a, b any) (int, bool) {
	af, aNum := asNumber(a)
	bf, bNum := asNumber(b)
	if aNum && bNum {
		switch {
		case af < bf:
			return -1, true
		case af > bf:
			return 1, true
		}
		return 0, true
	}
	ab, aBool := a.(bool)
	bb, bBool := b.(bool)
	if aBool && bBool {
		if ab == bb {
			return 0, true
		}
		if !ab {
			return -1, true
		}
		return 1, true
	}
	return strings.Compare(strings.ToLower(fmt.Sprint(a)), strings.ToLower(fmt.Sprint(b))), true
}

func asNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, !math.IsNaN(n)
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	}
	return 0, false
}

// like 实现 SQL LIKE：% 匹配任意串，_ 匹配单个字符，不区分大小写。
func like(s, pattern string) bool {
	var b strings.Builder
	b.WriteString("(?is)^")
	for _, r := range pattern {
		switch r {
		case '%':
			b.WriteString(".*")
		case '_':
			b.WriteString(".")
		default:
			b.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	b.WriteString("$")
	re, err := regexp.Compile(b.String())
	if err != nil {
		return false
	}
	return re.MatchString(s)
}

func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case float64:
		return t != 0
	case string:
		return t != ""
	}
	return true
}

func (e *Expr) walk(fn func(*Operand)) {
	for _, and := range e.Or {
		for _, u := range and.And {
			u.walk(fn)
		}
	}
}

func (u *Unary) walk(fn func(*Operand)) {
	if u.Not != nil {
		u.Not.walk(fn)
		return
	}
	c := u.Comparison
	c.Left.walk(fn)
	if c.Right != nil {
		c.Right.walk(fn)
	}
}

func (o *Operand) walk(fn func(*Operand)) {
	if o.Sub != nil {
		o.Sub.walk(fn)
		return
	}
	fn(o)
}
