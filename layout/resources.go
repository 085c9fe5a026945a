package layout

import (
	"cmp"
	"fmt"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/ByLCY/cartotext/dsl"
	"github.com/ByLCY/cartotext/style"
	"github.com/ByLCY/cartotext/symbology"
	"honnef.co/go/curve"
)

const (
	defaultFontName  = "Body"
	defaultLayerName = "labels"
	builtinPrefix    = "builtin:"
)

var pagePresets = map[string][2]float64{
	"A3":     {297, 420},
	"A4":     {210, 297},
	"A5":     {148, 210},
	"LETTER": {215.9, 279.4},
}

func collectResources(doc *dsl.Document, opts BuildOptions) (ResourceSet, error) {
	res := ResourceSet{
		Fonts:  map[string]FontResource{},
		Colors: map[string]style.Color{},
	}

	for _, block := range doc.ResourceBlocks() {
		for _, cmd := range block.Commands() {
			switch cmd.Name {
			case "font":
				font, err := parseFontResource(cmd)
				if err != nil {
					return res, err
				}
				if font.Name == "" {
					continue
				}
				if err := loadFont(&font, opts); err != nil {
					return res, err
				}
				res.Fonts[font.Name] = font
			case "color":
				name, value := parseColorResource(cmd)
				if name == "" || value == "" {
					continue
				}
				c, err := style.ParseColor(value)
				if err != nil {
					return res, fmt.Errorf("颜色资源 %s: %w", name, err)
				}
				res.Colors[name] = c
			}
		}
	}

	if _, ok := res.Fonts[defaultFontName]; !ok {
		res.Fonts[defaultFontName] = FontResource{
			Name:      defaultFontName,
			Src:       builtinPrefix + "goregular",
			Spec:      style.DefaultFont,
			IsBuiltin: true,
		}
	}
	return res, nil
}

func collectMeta(doc *dsl.Document) DocumentMeta {
	meta := DocumentMeta{
		Creator: "cartotext",
	}
	for _, block := range doc.MetaBlocks() {
		for _, a := range block.Assignments() {
			switch strings.ToLower(a.Key) {
			case "title":
				meta.Title = a.Value.Text()
			case "author":
				meta.Author = a.Value.Text()
			case "subject":
				meta.Subject = a.Value.Text()
			case "creator":
				meta.Creator = a.Value.Text()
			case "keywords":
				meta.Keywords = a.Value.Texts()
			}
		}
	}
	return meta
}

// parseFontResource 解析 `font <Name> { family: "Go" style: "bold" size: 12pt src: "..." }`。
// 给出字体文件却没有 family 时，以资源名作为字体族名。
func parseFontResource(cmd *dsl.Command) (FontResource, error) {
	if len(cmd.Args) == 0 {
		return FontResource{}, nil
	}
	font := FontResource{
		Name: cmd.Args[0].Value,
		Spec: style.DefaultFont,
	}
	familySet := false
	for _, a := range cmd.Block.Assignments() {
		val := a.Value.Text()
		switch strings.ToLower(a.Key) {
		case "family":
			font.Spec.Family = val
			familySet = true
		case "style":
			font.Spec.Style = style.ParseFontStyle(val)
		case "size":
			l, ok := ParseLength(val)
			if !ok || l.ToPT() <= 0 {
				return font, fmt.Errorf("字体 %s 的字号无效：%s", font.Name, val)
			}
			font.Spec.Size = l.ToPT()
		case "src":
			font.Src = val
			font.IsBuiltin = strings.HasPrefix(val, builtinPrefix)
		}
	}
	if !familySet && font.Src != "" && !font.IsBuiltin {
		font.Spec.Family = font.Name
	}
	return font, nil
}

// loadFont 注册字体文件并记录实际使用的字体。内置字体已经注册，不再重复加载。
func loadFont(font *FontResource, opts BuildOptions) error {
	if opts.Fonts == nil {
		return nil
	}
	if font.Src != "" && !font.IsBuiltin {
		src := resolvePath(opts.BaseDir, font.Src)
		if err := opts.Fonts.RegisterFile(font.Spec.Family, font.Spec.Style.Base(), src); err != nil {
			return fmt.Errorf("字体 %s: %w", font.Name, err)
		}
	}
	if fb := opts.Fonts.Fallback(font.Spec); fb != font.Spec {
		font.Fallback = &fb
	}
	return nil
}

func parseColorResource(cmd *dsl.Command) (string, string) {
	if len(cmd.Args) == 0 {
		return "", ""
	}
	name := cmd.Args[0].Value
	value := ""
	if len(cmd.Args) > 1 {
		value = cmd.Args[len(cmd.Args)-1].Value
	}
	return name, value
}

// resolveColor 先查颜色资源，再按十六进制解析。
func resolveColor(value string, res ResourceSet) (style.Color, error) {
	if c, ok := res.Colors[value]; ok {
		return c, nil
	}
	return style.ParseColor(value)
}

func resolvePageSize(spec dsl.PageSpec) (float64, float64, error) {
	base, ok := pagePresets[strings.ToUpper(spec.Size)]
	if !ok {
		return 0, 0, fmt.Errorf("暂不支持的纸张尺寸：%s", spec.Size)
	}

	width := base[0]
	height := base[1]
	for _, token := range spec.Params {
		switch strings.ToLower(token.Value) {
		case "landscape":
			width, height = max(width, height), min(width, height)
		case "portrait":
			width, height = min(width, height), max(width, height)
		}
	}
	return width, height, nil
}

func resolvePath(base, path string) string {
	if base == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(base, path)
}

// collectLabelLayers 为每个 labels 段落构建标注图层并生成标注。
func collectLabelLayers(doc *dsl.Document, data *symbology.FeatureLayer, res ResourceSet, opts BuildOptions) (map[string]*symbology.LabelLayer, error) {
	layers := map[string]*symbology.LabelLayer{}
	for _, ls := range doc.LabelSections() {
		name := cmp.Or(ls.Name, defaultLayerName)
		if _, dup := layers[name]; dup {
			return nil, fmt.Errorf("标注图层 %s 重复定义", name)
		}

		features := data
		if ls.Source != nil && *ls.Source != "" {
			fl, err := symbology.LoadFeatureFile(resolvePath(opts.BaseDir, string(*ls.Source)))
			if err != nil {
				return nil, fmt.Errorf("标注图层 %s: %w", name, err)
			}
			features = fl
		}

		layer := symbology.NewLabelLayer(features)
		if err := buildScheme(layer.Symbology, ls.Block, res); err != nil {
			return nil, fmt.Errorf("标注图层 %s: %w", name, err)
		}
		if err := layer.CreateLabels(); err != nil {
			return nil, fmt.Errorf("标注图层 %s: %w", name, err)
		}
		if len(layer.ScriptCategories) > 0 {
			Logger().Warn("layout: 脚本表达式暂不支持，这些分类没有生成标注",
				slog.String("layer", name), slog.Any("categories", layer.ScriptCategories))
		}
		layers[name] = layer
	}
	return layers, nil
}

// buildScheme 按声明顺序添加分类，越靠后优先级越高。
// 段落顶层的赋值是所有分类共用的默认值；没有声明分类时它们作用于默认分类。
func buildScheme(scheme *symbology.LabelScheme, block *dsl.Block, res ResourceSet) error {
	if block == nil {
		return nil
	}
	shared := block.Assignments()
	var defs []*dsl.Command
	for _, cmd := range block.Commands() {
		if strings.EqualFold(cmd.Name, "category") {
			defs = append(defs, cmd)
		}
	}

	if len(defs) == 0 {
		for _, c := range scheme.Categories {
			if err := applyCategory(c, shared, res); err != nil {
				return err
			}
		}
		return nil
	}

	scheme.Categories = nil
	for _, def := range defs {
		name := fmt.Sprintf("Category %d", len(scheme.Categories))
		if len(def.Args) > 0 {
			name = def.Args[0].Value
		}
		c := symbology.NewLabelCategory(name)
		own := def.Block.Assignments()
		if err := applyCategory(c, append(shared[:len(shared):len(shared)], own...), res); err != nil {
			return fmt.Errorf("分类 %s: %w", name, err)
		}
		if err := scheme.Add(c); err != nil {
			return err
		}
	}
	return nil
}

func applyCategory(c *symbology.LabelCategory, assignments []*dsl.Assignment, res ResourceSet) error {
	for _, a := range assignments {
		var err error
		switch strings.ToLower(a.Key) {
		case "expression":
			c.Expression = a.Value.Text()
		case "filter":
			c.FilterExpression = a.Value.Text()
		case "mask":
			c.UseMask, err = valueBool(a.Value)
		case "masked-layers":
			c.MaskedLayers = a.Value.Texts()
		case "mask-margin":
			c.MaskMargin, err = valueMargins(a.Value)
		default:
			err = applySymbolizer(c.Symbolizer, a, res)
		}
		if err != nil {
			return err
		}
	}
	_, err := c.Filter()
	return err
}

// applySymbolizer 把一条 key: value 写入符号器。未知的属性被忽略。
func applySymbolizer(s *symbology.LabelSymbolizer, a *dsl.Assignment, res ResourceSet) error {
	val := a.Value.Text()
	var err error
	switch key := strings.ToLower(a.Key); key {
	case "font":
		f, ok := res.Fonts[val]
		if !ok {
			return fmt.Errorf("未定义的字体资源 %s", val)
		}
		s.SetFont(f.Effective())
	case "font-family":
		s.FontFamily = val
	case "font-size":
		s.FontSize, err = valueLength(a.Value)
	case "font-style":
		s.FontStyle = style.ParseFontStyle(val)
	case "color", "font-color":
		s.FontColor, err = resolveColor(val, res)
	case "background":
		s.BackColorEnabled, s.BackColor, err = toggleColor(val, s.BackColor, res)
	case "border":
		s.BorderVisible, s.BorderColor, err = toggleColor(val, s.BorderColor, res)
	case "halo":
		s.HaloEnabled, s.HaloColor, err = toggleColor(val, s.HaloColor, res)
	case "shadow":
		s.DropShadowEnabled, s.DropShadowColor, err = toggleColor(val, s.DropShadowColor, res)
	case "shadow-opacity":
		var f float64
		if f, err = strconv.ParseFloat(val, 64); err == nil {
			s.DropShadowColor = s.DropShadowColor.WithOpacity(f)
		}
	case "shadow-offset":
		s.DropShadowPixelOffset, err = valueVec(a.Value)
	case "offset":
		var v curve.Vec2
		if v, err = valueVec(a.Value); err == nil {
			s.OffsetX, s.OffsetY = v.X, v.Y
		}
	case "orientation":
		s.Orientation = style.ParseContentAlignment(val)
	case "alignment", "align":
		s.Alignment = style.ParseStringAlignment(val)
	case "placement":
		m, ok := symbology.ParsePlacementMethod(val)
		if !ok {
			return fmt.Errorf("未知的标注方法 %s", val)
		}
		s.LabelPlacementMethod = m
	case "line-placement":
		m, ok := symbology.ParseLinePlacementMethod(val)
		if !ok {
			return fmt.Errorf("未知的线标注方法 %s", val)
		}
		s.LineLabelPlacementMethod = m
	case "parts":
		m, ok := symbology.ParsePartMethod(val)
		if !ok {
			return fmt.Errorf("未知的多部件标注方法 %s", val)
		}
		s.PartsLabelingMethod = m
	case "angle":
		deg, ok := ParseAngle(val)
		if !ok {
			return fmt.Errorf("angle 的角度值无效：%s", val)
		}
		s.UseAngle, s.Angle = true, deg
	case "angle-field":
		s.UseLabelAngleField, s.LabelAngleField = true, val
	case "line-orientation":
		o, ok := symbology.ParseLineOrientation(val)
		if !ok {
			return fmt.Errorf("未知的线方向 %s", val)
		}
		s.UseLineOrientation, s.LineOrientation = true, o
	case "follow-line":
		s.FollowLineGeometry, err = valueBool(a.Value)
	case "format":
		s.FloatingFormat = val
	case "priority":
		s.PriorityField = val
	case "prioritize-low":
		s.PrioritizeLowValues, err = valueBool(a.Value)
	case "collisions", "prevent-collisions":
		s.PreventCollisions, err = valueBool(a.Value)
	case "margin":
		s.Margin, err = valueMargins(a.Value)
	default:
		Logger().Debug("layout: 忽略未知的标注属性", slog.String("key", key))
	}
	if err != nil {
		return fmt.Errorf("%s: %w", a.Key, err)
	}
	return nil
}

// toggleColor 接受 true/false 或颜色；给出颜色时同时启用。
func toggleColor(val string, cur style.Color, res ResourceSet) (bool, style.Color, error) {
	switch strings.ToLower(val) {
	case "true", "on", "yes":
		return true, cur, nil
	case "false", "off", "no", "none":
		return false, cur, nil
	}
	c, err := resolveColor(val, res)
	if err != nil {
		return false, cur, err
	}
	return true, c, nil
}

func valueBool(val *dsl.Value) (bool, error) {
	switch v := strings.ToLower(val.Text()); v {
	case "on", "yes":
		return true, nil
	case "off", "no":
		return false, nil
	default:
		return strconv.ParseBool(v)
	}
}

func valueLength(val *dsl.Value) (float64, error) {
	raw := val.Text()
	l, ok := ParseLength(raw)
	if !ok {
		return 0, fmt.Errorf("长度值无效：%s", raw)
	}
	return l.ToPT(), nil
}

func valueLengths(val *dsl.Value) ([]float64, error) {
	if val == nil || val.Array == nil {
		v, err := valueLength(val)
		if err != nil {
			return nil, err
		}
		return []float64{v}, nil
	}
	out := make([]float64, 0, len(val.Array.Values))
	for _, item := range val.Array.Values {
		v, err := valueLength(item)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// valueVec 读取 [x, y] 两个长度。
func valueVec(val *dsl.Value) (curve.Vec2, error) {
	vals, err := valueLengths(val)
	if err != nil {
		return curve.Vec2{}, err
	}
	if len(vals) != 2 {
		return curve.Vec2{}, fmt.Errorf("需要 [x, y] 两个长度值")
	}
	return curve.Vec(vals[0], vals[1]), nil
}

// valueMargins 按 CSS 的顺序（上、右、下、左）解析 1 到 4 个长度。
func valueMargins(val *dsl.Value) (symbology.Margins, error) {
	vals, err := valueLengths(val)
	if err != nil {
		return symbology.Margins{}, err
	}
	switch len(vals) {
	case 1:
		v := vals[0]
		return symbology.Margins{Top: v, Right: v, Bottom: v, Left: v}, nil
	case 2:
		return symbology.Margins{Top: vals[0], Right: vals[1], Bottom: vals[0], Left: vals[1]}, nil
	case 3:
		return symbology.Margins{Top: vals[0], Right: vals[1], Bottom: vals[2], Left: vals[1]}, nil
	case 4:
		return symbology.Margins{Top: vals[0], Right: vals[1], Bottom: vals[2], Left: vals[3]}, nil
	}
	return symbology.Margins{}, fmt.Errorf("边距需要 1 到 4 个长度值")
}
