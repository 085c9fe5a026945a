package layout

import (
	"encoding/json"
	"io"
	"maps"
	"os"
	"slices"

	"github.com/ByLCY/cartotext/symbology"
)

// debugDocument 是调试 JSON 的顶层结构：布局结果加上各标注图层的摘要。
type debugDocument struct {
	*Result
	Layers []debugLayer `json:"layers,omitempty"`
}

type debugLayer struct {
	Name             string                     `json:"name"`
	Features         int                        `json:"features"`
	Categories       []*symbology.LabelCategory `json:"categories"`
	Labels           []symbology.Label          `json:"labels,omitempty"`
	ScriptCategories []string                   `json:"scriptCategories,omitempty"`
}

// EncodeDebugJSON 把布局结果编码为缩进的 JSON 写入 w。
func EncodeDebugJSON(w io.Writer, res *Result) error {
	if res == nil {
		return nil
	}
	doc := debugDocument{Result: res}
	for _, name := range slices.Sorted(maps.Keys(res.Layers)) {
		l := res.Layers[name]
		dl := debugLayer{
			Name:             name,
			Features:         l.FeatureLayer.Len(),
			Labels:           l.Labels,
			ScriptCategories: l.ScriptCategories,
		}
		if l.Symbology != nil {
			dl.Categories = l.Symbology.Categories
		}
		doc.Layers = append(doc.Layers, dl)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}

// WriteDebugJSON 将布局结果输出为 JSON 文件，便于调试或可视化。
func WriteDebugJSON(res *Result, path string) error {
	if res == nil {
		return nil
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := EncodeDebugJSON(f, res); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
