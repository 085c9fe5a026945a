package binding

import (
	"fmt"
	"io"
	"strings"
)

// ComplexPrefix marks an expression as a script rather than a template.
const ComplexPrefix = "def Main():"

// ComplexTemplate is the script an empty advanced expression starts from.
const ComplexTemplate = "def Main():\n   \n \n  return \"no value\""

// NoFeatureMessage is shown by Preview when the source has no rows.
const NoFeatureMessage = "Unabled to verify the script, no feature found"

// IsComplex 判断表达式是否为脚本形式（以 def Main(): 开头）。
func IsComplex(expr string) bool {
	return strings.HasPrefix(expr, ComplexPrefix)
}

// Mode 是编辑器当前所在的页签。
type Mode int

const (
	Simple Mode = iota
	Advanced
)

func (m Mode) String() string {
	if m == Advanced {
		return "advanced"
	}
	return "simple"
}

// Source 提供字段列表与要素属性，通常由图层的属性表实现。
type Source interface {
	FieldNames() []string
	Len() int
	Row(i int) map[string]any
}

// Editor 保存简单与高级两个页签的文本，按当前页签给出表达式并生成预览。
type Editor struct {
	source   Source
	mode     Mode
	simple   string
	advanced string

	// OnChange 在任一页签的文本变化后调用，参数为当前表达式。
	OnChange func(expr string)
}

// NewEditor 创建绑定到 source 的编辑器，source 可以为 nil。
func NewEditor(source Source) *Editor {
	return &Editor{source: source}
}

// SetSource 切换数据源。
func (e *Editor) SetSource(source Source) { e.source = source }

// SetExpression 载入已有表达式：脚本进入高级页签，其余进入简单页签。
func (e *Editor) SetExpression(expr string) {
	if IsComplex(expr) {
		e.advanced = expr
		e.mode = Advanced
	} else {
		e.simple = expr
		e.mode = Simple
	}
}

// Expression 返回当前页签中的文本。
func (e *Editor) Expression() string {
	if e.mode == Advanced {
		return e.advanced
	}
	return e.simple
}

func (e *Editor) Mode() Mode { return e.mode }

// SetMode 切换页签；首次进入高级页签时填入脚本模板。
func (e *Editor) SetMode(m Mode) {
	e.mode = m
	if m == Advanced && e.advanced == "" {
		e.advanced = ComplexTemplate
	}
}

// SetText 替换当前页签的文本。
func (e *Editor) SetText(text string) {
	if e.mode == Advanced {
		e.advanced = text
	} else {
		e.simple = text
	}
	e.changed()
}

// FieldList 返回可插入的字段，形如 [NAME]。
func (e *Editor) FieldList() []string {
	if e.source == nil {
		return nil
	}
	names := e.source.FieldNames()
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = "[" + n + "]"
	}
	return out
}

// InsertField 在当前页签文本的 at 处（字节偏移，越界时追加到末尾）插入 [name]。
func (e *Editor) InsertField(name string, at int) {
	token := "[" + strings.Trim(name, "[]") + "]"
	text := e.Expression()
	if at < 0 || at > len(text) {
		at = len(text)
	}
	e.SetText(text[:at] + token + text[at:])
}

// Compute 用第一条要素替换当前表达式中的字段。
// 简单页签直接写入值，高级页签中的字符串值带引号。
func (e *Editor) Compute() string {
	if e.source == nil || e.source.Len() == 0 {
		return ""
	}
	row := e.source.Row(0)
	if e.mode == Advanced {
		return SubstituteQuoted(e.advanced, row)
	}
	return Substitute(e.simple, row)
}

// Preview 返回预览文本；没有要素时返回 NoFeatureMessage。
// 高级页签只做字段替换，不执行脚本。
func (e *Editor) Preview() string {
	if e.source == nil || e.source.Len() == 0 {
		return NoFeatureMessage
	}
	return e.Compute()
}

// Import 用 r 的内容替换高级页签的脚本并切换到高级页签。
func (e *Editor) Import(r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("binding: 读取脚本失败: %w", err)
	}
	e.mode = Advanced
	e.advanced = string(data)
	e.changed()
	return nil
}

// Export 把高级页签的脚本写入 w。
func (e *Editor) Export(w io.Writer) error {
	if _, err := io.WriteString(w, e.advanced); err != nil {
		return fmt.Errorf("binding: 写出脚本失败: %w", err)
	}
	return nil
}

func (e *Editor) changed() {
	if e.OnChange != nil {
		e.OnChange(e.Expression())
	}
}
