package symbology

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"

	"github.com/ByLCY/cartotext/binding"
	"github.com/ByLCY/cartotext/filter"
	"github.com/paulmach/orb/geojson"
	"honnef.co/go/curve"
)

// FeatureLayer 是带属性表的要素集合，Geometries 与 Table.Rows 一一对应。
type FeatureLayer struct {
	Name       string       `json:"name"`
	Kind       GeometryKind `json:"kind"`
	Table      *DataTable   `json:"table"`
	Geometries []Geometry   `json:"geometries"`
}

// IsLine reports whether the layer holds line features.
func (l *FeatureLayer) IsLine() bool { return l != nil && l.Kind == LineGeometry }

// Len returns the number of features.
func (l *FeatureLayer) Len() int {
	if l == nil || l.Table == nil {
		return 0
	}
	return l.Table.Len()
}

// LoadFeatureLayer 读取 JSON 数据：既可以是对象数组（属性表，若含 x/y 字段则视为点），
// 也可以是 GeoJSON FeatureCollection。
func LoadFeatureLayer(name string, r io.Reader) (*FeatureLayer, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("读取要素数据失败: %w", err)
	}
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '[' {
		var raw []json.RawMessage
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("解析要素数据失败: %w", err)
		}
		return layerFromRows(name, raw)
	}
	// 属性按原文顺序读取以保留列顺序，几何交给 orb/geojson。
	var head struct {
		Type     string `json:"type"`
		Features []struct {
			Properties json.RawMessage `json:"properties"`
		} `json:"features"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, fmt.Errorf("解析要素数据失败: %w", err)
	}
	if head.Type != "FeatureCollection" {
		return nil, fmt.Errorf("不支持的 JSON 类型 %q，需要数组或 FeatureCollection", head.Type)
	}
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("解析 GeoJSON 失败: %w", err)
	}
	if len(fc.Features) != len(head.Features) {
		return nil, fmt.Errorf("GeoJSON 要素数量不一致：%d / %d", len(fc.Features), len(head.Features))
	}
	props := make([]json.RawMessage, len(fc.Features))
	geoms := make([]Geometry, len(fc.Features))
	layer := &FeatureLayer{Name: name}
	for i, f := range fc.Features {
		props[i] = head.Features[i].Properties
		g, err := geometryFromOrb(f.Geometry)
		if err != nil {
			return nil, fmt.Errorf("第 %d 个要素: %w", i+1, err)
		}
		geoms[i] = g
		if layer.Kind == NoGeometry {
			layer.Kind = g.Kind
		}
	}
	rows, order, err := decodeRows(props)
	if err != nil {
		return nil, err
	}
	layer.Table = NewDataTable(rows, order)
	layer.Geometries = geoms
	return layer, nil
}

// LoadFeatureFile is LoadFeatureLayer on a file; the layer is named after it.
func LoadFeatureFile(path string) (*FeatureLayer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return LoadFeatureLayer(path, f)
}

func layerFromRows(name string, raw []json.RawMessage) (*FeatureLayer, error) {
	rows, order, err := decodeRows(raw)
	if err != nil {
		return nil, err
	}
	layer := &FeatureLayer{Name: name, Table: NewDataTable(rows, order)}
	layer.Geometries = make([]Geometry, len(rows))
	for i, row := range rows {
		x, okX := toFloat(row["x"])
		y, okY := toFloat(row["y"])
		if okX && okY {
			layer.Geometries[i] = Geometry{Kind: PointGeometry, Parts: [][]curve.Point{{curve.Pt(x, y)}}}
			layer.Kind = PointGeometry
		}
	}
	return layer, nil
}

// Label 是为一个要素部件生成的标注。
type Label struct {
	FID      int            `json:"fid"`
	Category *LabelCategory `json:"-"`
	Text     string         `json:"text"`
	Anchor   curve.Point    `json:"anchor"`
	Angle    float64        `json:"angle"` // degrees, clockwise
	Priority float64        `json:"priority"`
}

// LabelLayer 把标注方案应用到要素图层上。
type LabelLayer struct {
	FeatureLayer *FeatureLayer `json:"featureLayer"`
	Symbology    *LabelScheme  `json:"symbology"`
	Labels       []Label       `json:"labels,omitempty"`
	// ScriptCategories 记录因使用脚本表达式而未生成标注的分类名称。
	ScriptCategories []string `json:"scriptCategories,omitempty"`
}

// NewLabelLayer returns a label layer with a one-category scheme.
func NewLabelLayer(fl *FeatureLayer) *LabelLayer {
	return &LabelLayer{FeatureLayer: fl, Symbology: NewLabelScheme()}
}

// Clone 深拷贝标注方案；要素图层只读，按引用共享。
func (l *LabelLayer) Clone() *LabelLayer {
	out := &LabelLayer{FeatureLayer: l.FeatureLayer, Symbology: l.Symbology.Clone()}
	out.Labels = slices.Clone(l.Labels)
	out.ScriptCategories = slices.Clone(l.ScriptCategories)
	return out
}

// CopyProperties 用 other 的标注方案替换本图层的方案。
func (l *LabelLayer) CopyProperties(other *LabelLayer) {
	l.Symbology = other.Symbology.Clone()
}

// CreateLabels 为每个要素选出优先级最高的匹配分类，计算标注文本与位置。
// 结果按绘制优先级排序：高优先级分类在前，分类内按优先级字段排序。
func (l *LabelLayer) CreateLabels() error {
	l.Labels = nil
	l.ScriptCategories = nil
	if l.FeatureLayer == nil || l.Symbology == nil || l.FeatureLayer.Len() == 0 {
		return nil
	}
	cats := l.Symbology.Categories
	filters := make([]*filter.Filter, len(cats))
	for i, c := range cats {
		f, err := c.Filter()
		if err != nil {
			return err
		}
		filters[i] = f
		if binding.IsComplex(c.Expression) {
			l.ScriptCategories = append(l.ScriptCategories, c.Name)
		}
	}

	groups := make([][]Label, len(cats))
	table := l.FeatureLayer.Table
	for fid := 0; fid < table.Len(); fid++ {
		row := table.Row(fid)
		ci := -1
		for i := len(cats) - 1; i >= 0; i-- {
			ok, err := filters[i].Match(row)
			if err != nil {
				return fmt.Errorf("分类 %s: %w", cats[i].Name, err)
			}
			if ok {
				ci = i
				break
			}
		}
		if ci < 0 {
			continue
		}
		cat := cats[ci]
		if cat.Expression == "" || binding.IsComplex(cat.Expression) {
			continue
		}
		symb := cat.Symbolizer
		text := binding.Substitute(cat.Expression, formatRow(row, symb.FloatingFormat))
		priority, _ := toFloat(row[symb.PriorityField])
		var geom Geometry
		if fid < len(l.FeatureLayer.Geometries) {
			geom = l.FeatureLayer.Geometries[fid]
		}
		for _, a := range geom.Anchors(symb) {
			groups[ci] = append(groups[ci], Label{
				FID:      fid,
				Category: cat,
				Text:     text,
				Anchor:   a.Point,
				Angle:    labelAngle(symb, row, a, geom.Kind),
				Priority: priority,
			})
		}
	}

	for i := len(groups) - 1; i >= 0; i-- {
		g := groups[i]
		low := cats[i].Symbolizer.PrioritizeLowValues
		slices.SortStableFunc(g, func(a, b Label) int {
			switch {
			case a.Priority == b.Priority:
				return 0
			case (a.Priority < b.Priority) == low:
				return -1
			default:
				return 1
			}
		})
		l.Labels = append(l.Labels, g...)
	}
	return nil
}

func labelAngle(s *LabelSymbolizer, row map[string]any, a Anchor, kind GeometryKind) float64 {
	switch {
	case s.UseAngle:
		return s.Angle
	case s.UseLabelAngleField:
		v, _ := toFloat(row[s.LabelAngleField])
		return v
	case (s.UseLineOrientation || s.FollowLineGeometry) && kind == LineGeometry:
		return a.Angle
	}
	return 0
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(n, 64)
		return f, err == nil
	}
	return 0, false
}
