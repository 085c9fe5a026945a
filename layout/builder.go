package layout

import (
	"cmp"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/ByLCY/cartotext/binding"
	"github.com/ByLCY/cartotext/dsl"
	"github.com/ByLCY/cartotext/style"
	"github.com/ByLCY/cartotext/symbology"
	"honnef.co/go/curve"
)

const (
	defaultFrameWidth = 0.5
	debugStrokeWidth  = 0.25
)

var debugColor = style.RGB(0xe5, 0x39, 0x35)

// Build 根据 DSL AST 生成页面：文本元素、标注预览、边框与标注图层。
// data 为可选的要素图层：文本内容中的 [FIELD] 绑定到它的第一行，
// 没有指定数据文件的 labels 段落也使用它。
func Build(doc *dsl.Document, data *symbology.FeatureLayer, opts BuildOptions) (*Result, error) {
	if doc == nil {
		return nil, fmt.Errorf("文档为空")
	}
	if opts.Typesetter == nil {
		return nil, fmt.Errorf("layout: 缺少排版后端 Typesetter")
	}

	res, err := collectResources(doc, opts)
	if err != nil {
		return nil, err
	}
	layers, err := collectLabelLayers(doc, data, res, opts)
	if err != nil {
		return nil, err
	}

	b := &pageBuilder{res: res, layers: layers, opts: opts, row: firstRow(data)}
	var pages []Page
	for _, section := range doc.Pages() {
		page, err := b.build(section)
		if err != nil {
			return nil, err
		}
		pages = append(pages, page)
	}
	if len(pages) == 0 {
		return nil, fmt.Errorf("文档中缺少 page 段落")
	}

	return &Result{
		Pages:     pages,
		Resources: res,
		Meta:      collectMeta(doc),
		Layers:    layers,
	}, nil
}

func firstRow(data *symbology.FeatureLayer) map[string]any {
	if data.Len() == 0 {
		return nil
	}
	return data.Table.Row(0)
}

// pageBuilder 把 page 段落中的命令逐条绘制到记录器中。
type pageBuilder struct {
	res    ResourceSet
	layers map[string]*symbology.LabelLayer
	opts   BuildOptions
	row    map[string]any
}

func (b *pageBuilder) build(section *dsl.PageSection) (Page, error) {
	width, height, err := resolvePageSize(section.Spec)
	if err != nil {
		return Page{}, err
	}
	page := Page{Width: width, Height: height}
	if section.Block == nil {
		return page, fmt.Errorf("page 段落缺少内容")
	}

	rec := &Recorder{}
	for _, cmd := range section.Block.Commands() {
		var err error
		switch strings.ToLower(cmd.Name) {
		case "text":
			err = b.text(cmd, rec, &page)
		case "label":
			err = b.label(cmd, rec, &page)
		case "frame":
			err = b.frame(cmd, rec, &page)
		case "labels":
			err = b.labels(cmd, rec, &page)
		default:
			// 其余命令暂未实现，忽略即可
			Logger().Debug("layout: 忽略未知命令", slog.String("command", cmd.Name), slog.String("pos", cmd.Pos.String()))
		}
		if err != nil {
			return page, fmt.Errorf("%s: %s: %w", cmd.Pos, cmd.Name, err)
		}
	}
	page.Shapes = rec.Shapes
	return page, nil
}

// text 处理 `text <Font> at x y [size w h] [color C] [angle A] [radius R] [start S] [align A] [name N] { "..." }`。
// 没有 size 时元素自动按文本计算尺寸。
func (b *pageBuilder) text(cmd *dsl.Command, rec *Recorder, page *Page) error {
	args := parseArgs(cmd.Args, true)
	font, err := b.font(args.name)
	if err != nil {
		return err
	}
	at, err := args.point("at")
	if err != nil {
		return err
	}

	el := NewTextElement(b.opts.Typesetter)
	el.Name = cmp.Or(args.str("name"), args.name, el.Name)
	el.Text = b.bind(cmd.Block.Text())
	el.Font = font.Effective()
	if c := args.str("color"); c != "" {
		if el.Color, err = resolveColor(c, b.res); err != nil {
			return err
		}
	}
	if a := args.str("align"); a != "" {
		el.Alignment = style.ParseContentAlignment(a)
	}
	if el.Angle, err = args.angle("angle"); err != nil {
		return err
	}
	if el.Radius, err = args.length("radius", 0); err != nil {
		return err
	}
	if args.has("start") {
		if el.StartAngle, err = args.angle("start"); err != nil {
			return err
		}
	}
	el.Location = at
	el.Rect = curve.NewRectFromOrigin(at, curve.Sz(0, 0))
	if args.has("size") {
		size, err := args.point("size")
		if err != nil {
			return err
		}
		el.AutoSize = false
		el.Rect = curve.NewRectFromOrigin(at, curve.Sz(size.X, size.Y))
	}
	el.UpdateSize()

	lr := el.Draw(rec)
	b.debugBounds(rec, lr.Bounds)
	page.Elements = append(page.Elements, ElementRecord{
		Kind:   "text",
		Name:   el.Name,
		Text:   el.Text,
		Bounds: lr.Bounds,
		Layout: lr,
	})
	return nil
}

// label 处理 `label [<Font>] at x y [angle A] { key: value ... "text" }`，
// 按块内的符号器属性预览一个标注。
func (b *pageBuilder) label(cmd *dsl.Command, rec *Recorder, page *Page) error {
	args := parseArgs(cmd.Args, true)
	at, err := args.point("at")
	if err != nil {
		return err
	}
	angle, err := args.angle("angle")
	if err != nil {
		return err
	}

	symb := symbology.NewLabelSymbolizer()
	if args.name != "" {
		font, err := b.font(args.name)
		if err != nil {
			return err
		}
		symb.SetFont(font.Effective())
	}
	for _, a := range cmd.Block.Assignments() {
		if err := applySymbolizer(symb, a, b.res); err != nil {
			return err
		}
	}

	text := b.bind(cmd.Block.Text())
	placed := DrawLabel(b.opts.Typesetter, text, at, angle, symb, rec)
	b.debugBounds(rec, placed.Bounds)
	page.Elements = append(page.Elements, ElementRecord{
		Kind:   "label",
		Name:   args.str("name"),
		Text:   text,
		Bounds: placed.Bounds,
	})
	return nil
}

// frame 处理 `frame at x y size w h [width W] [color C]`。
func (b *pageBuilder) frame(cmd *dsl.Command, rec *Recorder, page *Page) error {
	args := parseArgs(cmd.Args, false)
	at, err := args.point("at")
	if err != nil {
		return err
	}
	size, err := args.point("size")
	if err != nil {
		return err
	}
	width, err := args.length("width", defaultFrameWidth)
	if err != nil {
		return err
	}
	c := style.Black
	if v := args.str("color"); v != "" {
		if c, err = resolveColor(v, b.res); err != nil {
			return err
		}
	}

	r := curve.NewRectFromOrigin(at, curve.Sz(size.X, size.Y))
	rec.StrokeRect(r, c, width)
	page.Elements = append(page.Elements, ElementRecord{Kind: "frame", Name: args.str("name"), Bounds: r})
	return nil
}

// labels 处理 `labels <layer> [at x y]`：绘制标注图层，at 平移全部标注点。
func (b *pageBuilder) labels(cmd *dsl.Command, rec *Recorder, page *Page) error {
	args := parseArgs(cmd.Args, true)
	name := cmp.Or(args.name, defaultLayerName)
	layer, ok := b.layers[name]
	if !ok {
		return fmt.Errorf("未定义的标注图层 %s", name)
	}

	labels := layer.Labels
	if args.has("at") {
		at, err := args.point("at")
		if err != nil {
			return err
		}
		shift := curve.Vec(at.X, at.Y)
		labels = slices.Clone(labels)
		for i := range labels {
			labels[i].Anchor = labels[i].Anchor.Translate(shift)
		}
	}

	placed := DrawLabels(b.opts.Typesetter, labels, rec)
	for _, p := range placed {
		if !p.Hidden {
			b.debugBounds(rec, p.Bounds)
		}
	}
	page.Labels = append(page.Labels, placed...)
	return nil
}

func (b *pageBuilder) font(name string) (FontResource, error) {
	name = cmp.Or(name, defaultFontName)
	f, ok := b.res.Fonts[name]
	if !ok {
		return FontResource{}, fmt.Errorf("未定义的字体资源 %s", name)
	}
	return f, nil
}

// bind 把文本中的 [FIELD] 替换为第一行数据的值。
func (b *pageBuilder) bind(content string) string {
	if b.row == nil {
		return content
	}
	return binding.Substitute(content, b.row)
}

func (b *pageBuilder) debugBounds(rec *Recorder, r curve.Rect) {
	if b.opts.Debug.ShowBounds {
		rec.StrokeRect(r, debugColor, debugStrokeWidth)
	}
}

// commandArgs 是命令参数：可选的资源名，加上 key → values。
type commandArgs struct {
	name   string
	values map[string][]string
}

// argArity 记录需要多个值的关键字，其余关键字只取一个值。
var argArity = map[string]int{"at": 2, "size": 2}

var argKeywords = map[string]bool{
	"at": true, "size": true, "color": true, "angle": true, "radius": true,
	"start": true, "align": true, "name": true, "width": true,
}

func parseArgs(args []*dsl.Lexeme, named bool) commandArgs {
	out := commandArgs{values: map[string][]string{}}
	cursor := 0
	if named && len(args) > 0 && args[0].Type == "Ident" && !argKeywords[strings.ToLower(args[0].Value)] {
		out.name = args[0].Value
		cursor = 1
	}
	for cursor < len(args) {
		key := strings.ToLower(args[cursor].Value)
		n := max(argArity[key], 1)
		end := min(cursor+1+n, len(args))
		for _, tok := range args[cursor+1 : end] {
			out.values[key] = append(out.values[key], tok.Value)
		}
		cursor = end
	}
	return out
}

func (a commandArgs) has(key string) bool {
	_, ok := a.values[key]
	return ok
}

func (a commandArgs) str(key string) string {
	if v := a.values[key]; len(v) > 0 {
		return v[0]
	}
	return ""
}

// point 读取 key 之后的两个长度并换算为 pt。
func (a commandArgs) point(key string) (curve.Point, error) {
	v := a.values[key]
	if len(v) != 2 {
		return curve.Point{}, fmt.Errorf("%s 需要两个长度值", key)
	}
	x, okX := ParseLength(v[0])
	y, okY := ParseLength(v[1])
	if !okX || !okY {
		return curve.Point{}, fmt.Errorf("%s 的长度值无效：%s %s", key, v[0], v[1])
	}
	return curve.Pt(x.ToPT(), y.ToPT()), nil
}

func (a commandArgs) length(key string, def float64) (float64, error) {
	v := a.str(key)
	if v == "" {
		return def, nil
	}
	l, ok := ParseLength(v)
	if !ok {
		return 0, fmt.Errorf("%s 的长度值无效：%s", key, v)
	}
	return l.ToPT(), nil
}

func (a commandArgs) angle(key string) (float64, error) {
	v := a.str(key)
	if v == "" {
		return 0, nil
	}
	deg, ok := ParseAngle(v)
	if !ok {
		return 0, fmt.Errorf("%s 的角度值无效：%s", key, v)
	}
	return deg, nil
}
