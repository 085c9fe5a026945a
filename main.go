package main

import (
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/ByLCY/cartotext/dsl"
	"github.com/ByLCY/cartotext/fonts"
	"github.com/ByLCY/cartotext/layout"
	"github.com/ByLCY/cartotext/renderer"
	canvasrenderer "github.com/ByLCY/cartotext/renderer/canvas"
	"github.com/ByLCY/cartotext/style"
	"github.com/ByLCY/cartotext/symbology"
)

func main() {
	input := flag.String("in", "examples/demo.carto", "DSL 文件路径")
	output := flag.String("out", "output/demo.pdf", "输出路径")
	format := flag.String("format", "pdf", "输出格式 pdf|svg")
	page := flag.Int("page", 0, "SVG 输出的页码（从 0 开始）")
	debug := flag.String("debug", "", "布局调试 JSON 输出路径")
	dataPath := flag.String("data", "", "要素数据文件（JSON 属性表或 GeoJSON）")
	fontList := flag.String("fonts", "", "额外字体，形如 Family[:style]=path，多个用逗号分隔")
	repl := flag.Bool("repl", false, "进入表达式控制台")
	verbose := flag.Bool("verbose", false, "输出排版日志")
	flag.Parse()

	if *verbose {
		layout.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
	}

	reg := fonts.NewRegistry()
	if err := registerFonts(reg, *fontList); err != nil {
		log.Fatalf("加载字体失败: %v", err)
	}

	var data *symbology.FeatureLayer
	if *dataPath != "" {
		var err error
		if data, err = symbology.LoadFeatureFile(*dataPath); err != nil {
			log.Fatalf("读取数据文件失败: %v", err)
		}
	}

	if *repl {
		var result *layout.Result
		if *input != "" {
			if _, err := os.Stat(*input); err == nil {
				if result, err = build(*input, data, reg); err != nil {
					log.Fatalf("布局计算失败: %v", err)
				}
			}
		}
		if err := runConsole(data, result, reg); err != nil {
			log.Fatalf("控制台异常退出: %v", err)
		}
		return
	}

	f, err := canvasrenderer.ParseFormat(*format)
	if err != nil {
		log.Fatalf("%v", err)
	}
	var r renderer.Renderer = canvasrenderer.NewRendererWithOptions(canvasrenderer.Options{Format: f, Page: *page})
	path, err := run(*input, *output, *debug, data, reg, r)
	if err != nil {
		log.Fatalf("生成文件失败: %v", err)
	}
	fmt.Printf("已生成 %s：%s\n", strings.ToUpper(string(f)), path)
}

// run 串联解析、布局与渲染，返回实际写入的输出路径。
// outputPath 没有扩展名时按输出格式补上。
func run(inputPath, outputPath, debugPath string, data *symbology.FeatureLayer, reg *fonts.Registry, r renderer.Renderer) (string, error) {
	if r == nil {
		return "", fmt.Errorf("renderer 不能为空")
	}
	result, err := build(inputPath, data, reg)
	if err != nil {
		return "", err
	}

	if debugPath != "" {
		if err := writeDebug(result, debugPath); err != nil {
			return "", err
		}
	}

	if filepath.Ext(outputPath) == "" {
		outputPath += r.Extension()
	}
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return "", fmt.Errorf("创建输出目录失败: %w", err)
	}

	out, err := r.Render(result)
	if err != nil {
		return "", fmt.Errorf("渲染失败: %w", err)
	}
	if err := os.WriteFile(outputPath, out, 0o644); err != nil {
		return "", fmt.Errorf("写入输出文件失败: %w", err)
	}

	return outputPath, nil
}

func build(inputPath string, data *symbology.FeatureLayer, reg *fonts.Registry) (*layout.Result, error) {
	doc, err := dsl.ParseFile(inputPath)
	if err != nil {
		return nil, fmt.Errorf("解析 DSL 失败: %w", err)
	}

	result, err := layout.Build(doc, data, layout.BuildOptions{
		Typesetter: fonts.Substituting(reg),
		Fonts:      reg,
		BaseDir:    filepath.Dir(inputPath),
	})
	if err != nil {
		return nil, fmt.Errorf("布局计算失败: %w", err)
	}
	return result, nil
}

// registerFonts 解析 -fonts 参数并登记字体文件。
func registerFonts(reg *fonts.Registry, list string) error {
	for _, item := range strings.Split(list, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		name, path, ok := strings.Cut(item, "=")
		if !ok || strings.TrimSpace(path) == "" {
			return fmt.Errorf("字体参数格式错误：%s", item)
		}
		family, st, _ := strings.Cut(name, ":")
		if err := reg.RegisterFile(strings.TrimSpace(family), style.ParseFontStyle(st), strings.TrimSpace(path)); err != nil {
			return err
		}
	}
	return nil
}

func writeDebug(result *layout.Result, debugPath string) error {
	if err := os.MkdirAll(filepath.Dir(debugPath), 0o755); err != nil {
		return fmt.Errorf("创建调试目录失败: %w", err)
	}
	if err := layout.WriteDebugJSON(result, debugPath); err != nil {
		return fmt.Errorf("输出调试 JSON 失败: %w", err)
	}
	return nil
}
