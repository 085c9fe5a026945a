package main

import (
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"

	"github.com/chzyer/readline"
	"github.com/pterm/pterm"

	"github.com/ByLCY/cartotext/binding"
	"github.com/ByLCY/cartotext/filter"
	"github.com/ByLCY/cartotext/labelsetup"
	"github.com/ByLCY/cartotext/layout"
	"github.com/ByLCY/cartotext/symbology"
)

const maxListedRows = 10

// console 是表达式控制台：预览标注表达式、测试过滤条件、调整标注分类。
type console struct {
	data   *symbology.FeatureLayer
	result *layout.Result
	fonts  labelsetup.FontCatalog
	editor *binding.Editor
	setup  *labelsetup.Setup
	layer  string // 当前打开的标注图层
	out    io.Writer
}

func newConsole(data *symbology.FeatureLayer, result *layout.Result, catalog labelsetup.FontCatalog, out io.Writer) *console {
	c := &console{data: data, result: result, fonts: catalog, editor: binding.NewEditor(nil), out: out}
	if data != nil && data.Table != nil {
		c.editor.SetSource(data.Table)
	}
	return c
}

func initDisplay() {
	pterm.Info.Prefix = pterm.Prefix{
		Text:  " !  ",
		Style: pterm.NewStyle(pterm.BgCyan, pterm.FgBlack),
	}
	pterm.Error.Prefix = pterm.Prefix{
		Text:  " Error",
		Style: pterm.NewStyle(pterm.BgRed, pterm.FgBlack),
	}
}

// runConsole 进入交互模式，直到 EOF 或 quit。
func runConsole(data *symbology.FeatureLayer, result *layout.Result, catalog labelsetup.FontCatalog) error {
	initDisplay()
	rl, err := readline.New("carto > ")
	if err != nil {
		return err
	}
	defer rl.Close()

	c := newConsole(data, result, catalog, rl.Stdout())
	pterm.Info.Println("Quit with <ctrl>D, type help for commands")
	for {
		line, err := rl.Readline()
		if err != nil { // io.EOF or interrupt
			break
		}
		if line = strings.TrimSpace(line); line == "" {
			continue
		}
		quit, err := c.exec(line)
		if err != nil {
			pterm.Error.Println(err)
			continue
		}
		if quit {
			break
		}
	}
	pterm.Info.Println("Good bye!")
	return nil
}

var consoleHelp = [][]string{
	{"command", "description"},
	{"fields", "列出数据字段与类型"},
	{"expr <text>", "设置标注表达式并预览"},
	{"mode simple|advanced", "切换表达式页签"},
	{"insert <field> [pos]", "在表达式中插入字段"},
	{"preview", "用第一条要素预览表达式"},
	{"filter <expr>", "统计满足过滤条件的要素"},
	{"layers", "列出文档中的标注图层"},
	{"setup <layer>", "打开标注图层的分类设置"},
	{"categories", "列出分类（高优先级在前）"},
	{"select <n>", "选中分类"},
	{"add <name> | rename <name> | remove", "编辑分类"},
	{"up | down", "调整分类优先级"},
	{"where <expr>", "设置当前分类的过滤条件"},
	{"apply | cancel", "应用或放弃分类修改"},
	{"quit", "退出"},
}

// exec 执行一行命令。
func (c *console) exec(line string) (bool, error) {
	cmd, arg, _ := strings.Cut(strings.TrimSpace(line), " ")
	arg = strings.TrimSpace(arg)
	switch strings.ToLower(cmd) {
	case "quit", "exit":
		return true, nil
	case "help":
		return false, pterm.DefaultTable.WithHasHeader().WithData(consoleHelp).WithWriter(c.out).Render()
	case "fields":
		return false, c.fields()
	case "expr":
		c.activeEditor().SetText(arg)
		return false, c.preview()
	case "mode":
		return false, c.mode(arg)
	case "insert":
		return false, c.insert(arg)
	case "preview":
		return false, c.preview()
	case "filter":
		return false, c.filter(arg)
	case "layers":
		return false, c.layers()
	case "setup":
		return false, c.open(arg)
	}
	return false, c.setupCommand(cmd, arg)
}

func (c *console) activeEditor() *binding.Editor {
	if c.setup != nil {
		return c.setup.Editor()
	}
	return c.editor
}

func (c *console) printf(format string, args ...any) {
	fmt.Fprintf(c.out, format, args...)
}

func (c *console) fields() error {
	if c.data == nil || c.data.Table == nil {
		return fmt.Errorf("没有加载数据，使用 -data 指定")
	}
	data := [][]string{{"field", "kind"}}
	for _, col := range c.data.Table.Columns {
		data = append(data, []string{col.Name, col.Kind.String()})
	}
	return pterm.DefaultTable.WithHasHeader().WithData(data).WithWriter(c.out).Render()
}

func (c *console) preview() error {
	e := c.activeEditor()
	c.printf("[%s] %s\n", e.Mode(), e.Expression())
	c.printf("=> %s\n", e.Preview())
	return nil
}

func (c *console) mode(arg string) error {
	switch strings.ToLower(arg) {
	case "simple":
		c.activeEditor().SetMode(binding.Simple)
	case "advanced":
		c.activeEditor().SetMode(binding.Advanced)
	default:
		return fmt.Errorf("未知的页签：%s", arg)
	}
	return c.preview()
}

func (c *console) insert(arg string) error {
	fields := strings.Fields(arg)
	if len(fields) == 0 {
		return fmt.Errorf("insert 需要字段名")
	}
	e := c.activeEditor()
	at := len(e.Expression())
	if len(fields) > 1 {
		n, err := strconv.Atoi(fields[1])
		if err != nil {
			return fmt.Errorf("插入位置无效：%s", fields[1])
		}
		at = n
	}
	e.InsertField(fields[0], at)
	return c.preview()
}

func (c *console) filter(expr string) error {
	if c.data == nil || c.data.Table == nil {
		return fmt.Errorf("没有加载数据，使用 -data 指定")
	}
	f, err := filter.Compile(expr)
	if err != nil {
		return err
	}
	var matched []map[string]any
	for i := range c.data.Len() {
		ok, err := f.Match(c.data.Table.Row(i))
		if err != nil {
			return err
		}
		if ok {
			matched = append(matched, c.data.Table.Row(i))
		}
	}
	c.printf("%d / %d features match\n", len(matched), c.data.Len())
	if len(matched) == 0 {
		return nil
	}

	names := c.data.Table.FieldNames()
	rows := [][]string{names}
	for _, row := range matched[:min(len(matched), maxListedRows)] {
		cells := make([]string, len(names))
		for i, name := range names {
			cells[i] = binding.Format(row[name], false)
		}
		rows = append(rows, cells)
	}
	return pterm.DefaultTable.WithHasHeader().WithData(rows).WithWriter(c.out).Render()
}

func (c *console) layers() error {
	if c.result == nil || len(c.result.Layers) == 0 {
		return fmt.Errorf("文档中没有标注图层，使用 -in 指定")
	}
	names := make([]string, 0, len(c.result.Layers))
	for name := range c.result.Layers {
		names = append(names, name)
	}
	slices.Sort(names)
	rows := [][]string{{"layer", "features", "labels", "categories"}}
	for _, name := range names {
		l := c.result.Layers[name]
		rows = append(rows, []string{
			name,
			strconv.Itoa(l.FeatureLayer.Len()),
			strconv.Itoa(len(l.Labels)),
			strconv.Itoa(len(l.Symbology.Categories)),
		})
	}
	return pterm.DefaultTable.WithHasHeader().WithData(rows).WithWriter(c.out).Render()
}

func (c *console) open(name string) error {
	if c.result == nil {
		return fmt.Errorf("文档中没有标注图层，使用 -in 指定")
	}
	layer, ok := c.result.Layers[name]
	if !ok {
		return fmt.Errorf("未定义的标注图层 %s", name)
	}
	c.setup = labelsetup.New(layer, c.fonts)
	c.layer = name
	return c.categories()
}

func (c *console) categories() error {
	rows := [][]string{{"#", "category", "expression", "filter"}}
	for i, cat := range c.setup.Categories() {
		marker := strconv.Itoa(i)
		if cat == c.setup.Active() {
			marker = "*" + marker
		}
		rows = append(rows, []string{marker, cat.Name, cat.Expression, cat.FilterExpression})
	}
	return pterm.DefaultTable.WithHasHeader().WithData(rows).WithWriter(c.out).Render()
}

// setupCommand 处理需要已打开标注设置的命令。
func (c *console) setupCommand(cmd, arg string) error {
	cmd = strings.ToLower(cmd)
	if !slices.Contains([]string{"categories", "select", "add", "rename", "remove", "up", "down", "where", "apply", "cancel"}, cmd) {
		return fmt.Errorf("未知命令：%s", cmd)
	}
	if c.setup == nil {
		return fmt.Errorf("先用 setup <layer> 打开标注图层")
	}
	s := c.setup
	switch cmd {
	case "categories":
		return c.categories()
	case "select":
		i, err := strconv.Atoi(arg)
		if err != nil || i < 0 || i >= len(s.Categories()) {
			return fmt.Errorf("分类序号无效：%s", arg)
		}
		s.Select(i)
	case "add":
		if _, err := s.AddCategory(arg); err != nil {
			return err
		}
	case "rename":
		if err := s.RenameActive(arg); err != nil {
			return err
		}
	case "remove":
		if err := s.RemoveActive(); err != nil {
			return err
		}
	case "up":
		s.MoveUp()
	case "down":
		s.MoveDown()
	case "where":
		if err := s.SetFilterExpression(arg); err != nil {
			return err
		}
	case "apply":
		if err := s.Apply(); err != nil {
			return err
		}
		c.printf("%s: %d labels\n", c.layer, len(c.result.Layers[c.layer].Labels))
		return nil
	case "cancel":
		s.Cancel()
		c.setup = nil
		return nil
	}
	return c.categories()
}
