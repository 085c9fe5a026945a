// Package binding 负责把 [FIELD] 形式的字段占位符替换为要素属性值，
// 并提供标注表达式编辑器所需的字段扫描与预览逻辑。
package binding

import (
	"fmt"
	"strconv"
	"strings"
)

// Fields 按出现顺序返回表达式中所有方括号内的字段名，允许重复。
// 扫描规则：从当前位置分别找下一个 '[' 与 ']'，两者都存在时取其间内容，
// 然后从 ']' 之后继续；']' 先于 '[' 出现时跳过这个孤立的 ']'。
func Fields(expr string) []string {
	var fields []string
	i := 0
	for i < len(expr) {
		start := strings.IndexByte(expr[i:], '[')
		end := strings.IndexByte(expr[i:], ']')
		if start == -1 || end == -1 {
			break
		}
		start += i
		end += i
		if end < start {
			i = end + 1
			continue
		}
		fields = append(fields, expr[start+1:end])
		i = end + 1
	}
	return fields
}

// Substitute 将 expr 中的 [name] 替换为 data 中对应的值。
// data 通常是 map[string]any；name 也可以是 a.b 或 items(0).name 这样的路径。
// 找不到或值为 nil 的占位符保持原样。
func Substitute(expr string, data any) string {
	return replace(expr, data, func(v any) string { return Format(v, false) })
}

// SubstituteQuoted 与 Substitute 相同，但字符串值会加上双引号，
// 用于把属性值写进脚本表达式。
func SubstituteQuoted(expr string, data any) string {
	return replace(expr, data, func(v any) string { return Format(v, true) })
}

func replace(expr string, data any, format func(any) string) string {
	if data == nil {
		return expr
	}
	seen := map[string]bool{}
	for _, field := range Fields(expr) {
		if seen[field] {
			continue
		}
		seen[field] = true
		val, ok := Lookup(data, field)
		if !ok || val == nil {
			continue
		}
		expr = strings.ReplaceAll(expr, "["+field+"]", format(val))
	}
	return expr
}

// Format 把属性值转换为文本。quote 为 true 时字符串值带双引号。
func Format(v any, quote bool) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		if quote {
			return strconv.Quote(val)
		}
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(val), 'f', -1, 32)
	case bool:
		return strconv.FormatBool(val)
	case fmt.Stringer:
		if quote {
			return strconv.Quote(val.String())
		}
		return val.String()
	default:
		return fmt.Sprint(val)
	}
}

// Lookup 先按完整字段名查找，再按 a.b 或 items(0) 路径逐级查找。
func Lookup(data any, name string) (any, bool) {
	if m, ok := data.(map[string]any); ok {
		if v, ok := m[name]; ok {
			return v, true
		}
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, false
	}
	return resolvePath(data, name)
}

func resolvePath(data any, path string) (any, bool) {
	current := data
	segments := strings.Split(path, ".")
	for _, segment := range segments {
		name, indexes := parseSegment(segment)
		if name != "" {
			var ok bool
			current, ok = descendMap(current, name)
			if !ok {
				return nil, false
			}
		}
		for _, idxStr := range indexes {
			idx, err := strconv.Atoi(idxStr)
			if err != nil {
				return nil, false
			}
			var ok bool
			current, ok = descendArray(current, idx)
			if !ok {
				return nil, false
			}
		}
	}
	return current, true
}

func parseSegment(segment string) (string, []string) {
	name := segment
	indexes := []string{}
	if i := strings.Index(segment, "("); i != -1 && strings.HasSuffix(segment, ")") {
		// 字段名里已经用掉了方括号，数组下标写作 items(0)。
		name = segment[:i]
		for _, idx := range strings.Split(segment[i+1:len(segment)-1], ")(") {
			indexes = append(indexes, idx)
		}
	}
	return name, indexes
}

func descendMap(current any, key string) (any, bool) {
	switch c := current.(type) {
	case map[string]interface{}:
		val, ok := c[key]
		return val, ok
	default:
		return nil, false
	}
}

func descendArray(current any, idx int) (any, bool) {
	switch c := current.(type) {
	case []interface{}:
		if idx < 0 || idx >= len(c) {
			return nil, false
		}
		return c[idx], true
	default:
		return nil, false
	}
}
