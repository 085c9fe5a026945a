// Package renderer 定义把记录下来的页面图形输出为文件的后端接口。
package renderer

import "github.com/ByLCY/cartotext/layout"

// Renderer 将布局结果编码为一个输出文件。
type Renderer interface {
	// Render 返回文件内容，例如 PDF 或 SVG 字节。
	Render(result *layout.Result) ([]byte, error)
	// Extension 返回输出文件的扩展名，含前导点。
	Extension() string
}
