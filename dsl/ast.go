package dsl

import "strings"

// Pages returns the page sections in document order.
func (d *Document) Pages() []*PageSection {
	var out []*PageSection
	for _, s := range d.Sections {
		if s.Page != nil {
			out = append(out, s.Page)
		}
	}
	return out
}

// LabelSections returns the labels sections in document order.
func (d *Document) LabelSections() []*LabelsSection {
	var out []*LabelsSection
	for _, s := range d.Sections {
		if s.Labels != nil {
			out = append(out, s.Labels)
		}
	}
	return out
}

// MetaBlocks 返回所有 meta 段落的块；后出现的赋值覆盖先出现的。
func (d *Document) MetaBlocks() []*Block {
	var out []*Block
	for _, s := range d.Sections {
		if s.Meta != nil && s.Meta.Block != nil {
			out = append(out, s.Meta.Block)
		}
	}
	return out
}

// ResourceBlocks returns the blocks of every resources section.
func (d *Document) ResourceBlocks() []*Block {
	var out []*Block
	for _, s := range d.Sections {
		if s.Resources != nil && s.Resources.Block != nil {
			out = append(out, s.Resources.Block)
		}
	}
	return out
}

// Assignments returns the key: value statements of b. A nil block has none.
func (b *Block) Assignments() []*Assignment {
	if b == nil {
		return nil
	}
	var out []*Assignment
	for _, stmt := range b.Statements {
		if stmt.Assignment != nil {
			out = append(out, stmt.Assignment)
		}
	}
	return out
}

// Commands returns the commands of b. A nil block has none.
func (b *Block) Commands() []*Command {
	if b == nil {
		return nil
	}
	var out []*Command
	for _, stmt := range b.Statements {
		if stmt.Command != nil {
			out = append(out, stmt.Command)
		}
	}
	return out
}

// Text 拼接块中的全部字符串语句。
func (b *Block) Text() string {
	if b == nil {
		return ""
	}
	var sb strings.Builder
	for _, stmt := range b.Statements {
		if stmt.Text != nil {
			sb.WriteString(string(stmt.Text.Value))
		}
	}
	return sb.String()
}

// Text 返回值的文本：字符串不带引号，数字保留单位，颜色保留 #，
// 裸表达式按记号原样拼接。数组与对象返回空串。
func (v *Value) Text() string {
	if v == nil {
		return ""
	}
	switch {
	case v.String != nil:
		return string(*v.String)
	case v.Number != nil:
		return *v.Number
	case v.Color != nil:
		return *v.Color
	case v.Expr != nil:
		var sb strings.Builder
		for _, part := range v.Expr.Parts {
			sb.WriteString(part.Value)
		}
		return sb.String()
	}
	return ""
}

// Texts 返回数组各项的文本并跳过空项；单个值视为只有一项的数组。
func (v *Value) Texts() []string {
	if v == nil {
		return nil
	}
	if v.Array == nil {
		if s := v.Text(); s != "" {
			return []string{s}
		}
		return nil
	}
	out := make([]string, 0, len(v.Array.Values))
	for _, item := range v.Array.Values {
		if s := item.Text(); s != "" {
			out = append(out, s)
		}
	}
	return out
}
