// Package dsl 解析 cartotext 的版面描述语言：
//
//	layout CityMap v1 {
//	  meta { title: "Cities" }
//	  resources { font Title { family: "Go" size: 18pt }  color Accent = #0F62FE }
//	  labels cities "cities.geojson" { category Big { expression: "[NAME]" } }
//	  page A4 landscape { text Title at 20mm 20mm { "Map" }  labels cities }
//	}
package dsl

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

var documentParser = participle.MustBuild[Document](
	participle.Lexer(dslLexer),
	participle.Elide("Whitespace", "LineComment", "BlockComment", "HashComment"),
)

// Document 是一个版面文件：名称、版本与若干段落。
type Document struct {
	Pos      lexer.Position `parser:"" json:"-"`
	Name     string         `parser:"Newline* 'layout' @Ident"`
	Version  string         `parser:"@Ident"`
	Sections []*Section     `parser:"'{' Newline* ( @@ Newline* )* '}' Newline*"`
}

// Section 是顶层段落之一：meta、resources、labels 或 page。
type Section struct {
	Meta      *MetaSection      `parser:"  @@"`
	Resources *ResourcesSection `parser:"| @@"`
	Labels    *LabelsSection    `parser:"| @@"`
	Page      *PageSection      `parser:"| @@"`
}

// Kind returns the section keyword.
func (s *Section) Kind() string {
	switch {
	case s == nil:
		return "unknown"
	case s.Meta != nil:
		return "meta"
	case s.Resources != nil:
		return "resources"
	case s.Labels != nil:
		return "labels"
	case s.Page != nil:
		return "page"
	}
	return "unknown"
}

// MetaSection 保存输出文件的元信息（title、author、subject、creator、keywords）。
type MetaSection struct {
	Block *Block `parser:"'meta' @@"`
}

// ResourcesSection 声明字体（font）与颜色（color）资源。
type ResourcesSection struct {
	Block *Block `parser:"'resources' @@"`
}

// LabelsSection 定义一个标注图层：可选的名称、数据文件，以及按优先级从低到高排列的分类。
type LabelsSection struct {
	Name   string         `parser:"'labels' @Ident?"`
	Source *StringLiteral `parser:"@String?"`
	Block  *Block         `parser:"@@"`
}

// PageSection 是一页地图版面，例如 `page A4 landscape { ... }`。
type PageSection struct {
	Spec  PageSpec `parser:"'page' @@"`
	Block *Block   `parser:"@@"`
}

// PageSpec 是纸张名称加上方向等参数。
type PageSpec struct {
	Size   string    `parser:"@Ident"`
	Params []*Lexeme `parser:"@@*"`
}

// Block 是花括号内以换行或分号分隔的语句。
type Block struct {
	Statements []*Statement `parser:"'{' Newline* ( @@ ( ';' | Newline )* )* '}'"`
}

// Statement 是赋值、命令或一段文本之一。
type Statement struct {
	Assignment *Assignment  `parser:"  @@"`
	Command    *Command     `parser:"| @@"`
	Text       *TextLiteral `parser:"| @@"`
}

// Assignment 形如 `key: value`。
type Assignment struct {
	Key   string `parser:"@Ident"`
	Value *Value `parser:"':' Newline* @@"`
}

// Command 是一条指令：名称、参数记号与可选的块，
// 例如 `text Title at 20mm 20mm angle -15deg { "..." }` 或 `category Big { ... }`。
type Command struct {
	Pos   lexer.Position `parser:"" json:"-"`
	Name  string         `parser:"@Ident"`
	Args  []*Lexeme      `parser:"@@*"`
	Block *Block         `parser:"( Newline* @@ )?"`
}

// TextLiteral 是块中单独出现的字符串，即元素的文本内容。
type TextLiteral struct {
	Value StringLiteral `parser:"@String"`
}

// Value 是赋值右侧的值。
type Value struct {
	String *StringLiteral `parser:"  @String"`
	Number *string        `parser:"| @Number"`
	Color  *string        `parser:"| @Color"`
	Array  *ArrayValue    `parser:"| @@"`
	Object *InlineObject  `parser:"| @@"`
	Expr   *Expression    `parser:"| @@"`
}

// ArrayValue 形如 `[0, -4pt]`，元素之间可用逗号、分号或换行分隔。
type ArrayValue struct {
	Values []*Value `parser:"'[' Newline* ( @@ ( (',' | ';' | Newline+) Newline* @@ )* )? Newline* ']'"`
}

// InlineObject 形如 `{ key: value }`。
type InlineObject struct {
	Entries []*Assignment `parser:"'{' Newline* ( @@ Newline* ( (';' | Newline+) Newline* @@ Newline* )* )? Newline* '}'"`
}

// ParseError 是带位置的语法错误。
type ParseError struct {
	Pos lexer.Position
	Msg string
}

func (e *ParseError) Error() string {
	if e.Pos.Filename != "" {
		return fmt.Sprintf("%s 第 %d 行第 %d 列: %s", e.Pos.Filename, e.Pos.Line, e.Pos.Column, e.Msg)
	}
	return fmt.Sprintf("第 %d 行第 %d 列: %s", e.Pos.Line, e.Pos.Column, e.Msg)
}

func wrapError(err error) error {
	var perr participle.Error
	if errors.As(err, &perr) {
		return &ParseError{Pos: perr.Position(), Msg: perr.Message()}
	}
	return err
}

// Parse parses a layout document from r.
func Parse(r io.Reader) (*Document, error) {
	doc, err := documentParser.Parse("", r)
	return doc, wrapError(err)
}

// ParseString parses a layout document held in input.
func ParseString(input string) (*Document, error) {
	doc, err := documentParser.ParseString("", input)
	return doc, wrapError(err)
}

// ParseFile 读取并解析 path，错误位置中带文件名。
func ParseFile(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("无法打开 DSL 文件 %s: %w", path, err)
	}
	defer f.Close()
	doc, err := documentParser.Parse(path, f)
	return doc, wrapError(err)
}
