// Package fonts 管理可用的字体族，并基于 sfnt 提供 layout.Typesetter 实现。
package fonts

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"github.com/ByLCY/cartotext/layout"
	"github.com/ByLCY/cartotext/style"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/text/cases"
)

var (
	// ErrUnknownFamily 表示注册表中没有该字体族。
	ErrUnknownFamily = errors.New("fonts: unknown font family")
	// ErrStyleUnavailable 表示字体族存在，但没有请求的字形样式。
	ErrStyleUnavailable = errors.New("fonts: style not available for family")
)

var fold = cases.Fold()

type family struct {
	name  string
	faces map[style.FontStyle]*sfnt.Font
}

// Registry 保存按族名和基础样式（粗体/斜体）索引的字体。可并发使用。
type Registry struct {
	mu       sync.RWMutex
	families map[string]*family
	order    []string
}

var _ layout.Typesetter = (*Registry)(nil)

// NewRegistry returns a registry holding the Go font families.
func NewRegistry() *Registry {
	r := &Registry{families: map[string]*family{}}
	for _, b := range builtins {
		if err := r.Register(b.family, b.style, b.data); err != nil {
			// 内置字体随 x/image 发布，解析失败只能是依赖损坏。
			panic(fmt.Sprintf("fonts: 内置字体 %s 无法解析: %v", b.key, err))
		}
	}
	return r
}

// Register 解析 data 并登记为 family 的 st 样式。family 为空时取字体名称表中的族名。
func (r *Registry) Register(familyName string, st style.FontStyle, data []byte) error {
	f, err := opentype.Parse(data)
	if err != nil {
		return fmt.Errorf("fonts: 解析字体失败: %w", err)
	}
	if strings.TrimSpace(familyName) == "" {
		familyName, err = f.Name(nil, sfnt.NameIDFamily)
		if err != nil || familyName == "" {
			return fmt.Errorf("fonts: 字体没有族名，需要显式指定")
		}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	key := fold.String(familyName)
	fam, ok := r.families[key]
	if !ok {
		fam = &family{name: familyName, faces: map[style.FontStyle]*sfnt.Font{}}
		r.families[key] = fam
		r.order = append(r.order, familyName)
	}
	fam.faces[st.Base()] = f
	return nil
}

// RegisterFile loads src with Load and registers it.
func (r *Registry) RegisterFile(familyName string, st style.FontStyle, src string) error {
	data, err := Load(src)
	if err != nil {
		return err
	}
	return r.Register(familyName, st, data)
}

// Families returns the registered family names in registration order.
func (r *Registry) Families() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.order)
}

func (r *Registry) lookup(name string) (*family, bool) {
	fam, ok := r.families[fold.String(strings.TrimSpace(name))]
	return fam, ok
}

// Available reports whether family has a face for the base of st.
// Underline and strikeout are drawn, so they never need a face of their own.
func (r *Registry) Available(familyName string, st style.FontStyle) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fam, ok := r.lookup(familyName)
	if !ok {
		return false
	}
	_, ok = fam.faces[st.Base()]
	return ok
}

// Styles 返回 0..14 中该字体族可用的样式。
func (r *Registry) Styles(familyName string) []style.FontStyle {
	var out []style.FontStyle
	for st := style.FontStyle(0); st <= 14; st++ {
		if r.Available(familyName, st) {
			out = append(out, st)
		}
	}
	return out
}

// Resolve 校验 spec，返回使用注册名的规范化 spec。
func (r *Registry) Resolve(spec style.FontSpec) (style.FontSpec, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fam, ok := r.lookup(spec.Family)
	if !ok {
		return spec, fmt.Errorf("%w: %s", ErrUnknownFamily, spec.Family)
	}
	if _, ok := fam.faces[spec.Style.Base()]; !ok {
		return spec, fmt.Errorf("%w: %s %s", ErrStyleUnavailable, fam.name, spec.Style)
	}
	spec.Family = fam.name
	return spec, nil
}

// Fallback resolves spec, substituting the family's regular face and then
// the default font when needed. The size is always kept.
func (r *Registry) Fallback(spec style.FontSpec) style.FontSpec {
	resolved, err := r.Resolve(spec)
	if err == nil {
		return resolved
	}
	alt := spec
	if errors.Is(err, ErrStyleUnavailable) {
		alt.Style = spec.Style &^ (style.Bold | style.Italic)
	} else {
		alt.Family = style.DefaultFont.Family
	}
	if resolved, err2 := r.Resolve(alt); err2 == nil {
		layout.Logger().Warn("fonts: 字体不可用，已替换", slog.String("want", spec.String()), slog.String("use", resolved.String()), slog.Any("error", err))
		return resolved
	}
	alt = style.FontSpec{Family: style.DefaultFont.Family, Size: spec.Size, Style: spec.Style}
	layout.Logger().Warn("fonts: 字体不可用，使用默认字体", slog.String("want", spec.String()), slog.Any("error", err))
	return alt
}

// Surface opens a measurement surface for spec; the family and style must
// be registered.
func (r *Registry) Surface(spec style.FontSpec) (layout.Surface, error) {
	if spec.Size <= 0 {
		return nil, fmt.Errorf("fonts: 字号必须大于 0，当前为 %g", spec.Size)
	}
	resolved, err := r.Resolve(spec)
	if err != nil {
		return nil, err
	}
	r.mu.RLock()
	fam, _ := r.lookup(resolved.Family)
	f := fam.faces[resolved.Style.Base()]
	r.mu.RUnlock()
	return newSurface(f, resolved), nil
}

// Substituting wraps r so that unknown families and styles fall back
// instead of failing.
func Substituting(r *Registry) layout.Typesetter { return substituting{r} }

type substituting struct{ r *Registry }

func (s substituting) Surface(spec style.FontSpec) (layout.Surface, error) {
	return s.r.Surface(s.r.Fallback(spec))
}
