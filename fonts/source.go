package fonts

import (
	"fmt"
	"os"
	"strings"

	"github.com/ByLCY/cartotext/style"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gobolditalic"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/gomedium"
	"golang.org/x/image/font/gofont/gomediumitalic"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/gomonobold"
	"golang.org/x/image/font/gofont/gomonobolditalic"
	"golang.org/x/image/font/gofont/gomonoitalic"
	"golang.org/x/image/font/gofont/goregular"
)

// BuiltinPrefix marks a font source that is compiled into the binary.
const BuiltinPrefix = "builtin:"

type builtinFace struct {
	key    string
	family string
	style  style.FontStyle
	data   []byte
}

var builtins = []builtinFace{
	{"goregular", "Go", style.Regular, goregular.TTF},
	{"gobold", "Go", style.Bold, gobold.TTF},
	{"goitalic", "Go", style.Italic, goitalic.TTF},
	{"gobolditalic", "Go", style.Bold | style.Italic, gobolditalic.TTF},
	{"gomedium", "Go Medium", style.Regular, gomedium.TTF},
	{"gomediumitalic", "Go Medium", style.Italic, gomediumitalic.TTF},
	{"gomono", "Go Mono", style.Regular, gomono.TTF},
	{"gomonobold", "Go Mono", style.Bold, gomonobold.TTF},
	{"gomonoitalic", "Go Mono", style.Italic, gomonoitalic.TTF},
	{"gomonobolditalic", "Go Mono", style.Bold | style.Italic, gomonobolditalic.TTF},
}

// Load 返回字体数据。src 可写为 "builtin:gobold" 这样的内置字体名，否则按文件路径读取。
func Load(src string) ([]byte, error) {
	if key, ok := strings.CutPrefix(src, BuiltinPrefix); ok {
		key = strings.ToLower(strings.TrimSuffix(strings.TrimSpace(key), ".ttf"))
		for _, b := range builtins {
			if b.key == key {
				return b.data, nil
			}
		}
		return nil, fmt.Errorf("未知的内置字体 %s", src)
	}
	data, err := os.ReadFile(src)
	if err != nil {
		return nil, fmt.Errorf("读取字体 %s 失败: %w", src, err)
	}
	return data, nil
}

// IsBuiltin reports whether src names a compiled-in font.
func IsBuiltin(src string) bool { return strings.HasPrefix(src, BuiltinPrefix) }
