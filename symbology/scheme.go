package symbology

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/ByLCY/cartotext/filter"
)

var (
	// ErrLastCategory 在试图删除方案中唯一的分类时返回。
	ErrLastCategory = errors.New("symbology: a label scheme needs at least one category")
	// ErrDuplicateCategory 在分类重名时返回。
	ErrDuplicateCategory = errors.New("symbology: category name already used")
	// ErrNoCategory 表示分类不属于该方案。
	ErrNoCategory = errors.New("symbology: category not in scheme")
)

// LabelCategory 将一组要素（由过滤表达式选出）与一个符号器和标注表达式关联。
type LabelCategory struct {
	Name             string           `json:"name"`
	Expression       string           `json:"expression"`
	FilterExpression string           `json:"filterExpression"`
	Symbolizer       *LabelSymbolizer `json:"symbolizer"`

	UseMask      bool     `json:"useMask"`
	MaskedLayers []string `json:"maskedLayers,omitempty"`
	MaskMargin   Margins  `json:"maskMargin"`
}

// NewLabelCategory returns a category with a default symbolizer.
func NewLabelCategory(name string) *LabelCategory {
	return &LabelCategory{Name: name, Symbolizer: NewLabelSymbolizer()}
}

func (c *LabelCategory) String() string { return c.Name }

// Clone returns a deep copy.
func (c *LabelCategory) Clone() *LabelCategory {
	if c == nil {
		return nil
	}
	out := *c
	out.Symbolizer = c.Symbolizer.Clone()
	out.MaskedLayers = slices.Clone(c.MaskedLayers)
	return &out
}

// Filter compiles the category's filter expression.
func (c *LabelCategory) Filter() (*filter.Filter, error) {
	f, err := filter.Compile(c.FilterExpression)
	if err != nil {
		return nil, fmt.Errorf("分类 %s 的过滤表达式无效: %w", c.Name, err)
	}
	return f, nil
}

// LabelScheme 是有序的分类列表。列表越靠后的分类优先级越高。
type LabelScheme struct {
	Categories []*LabelCategory `json:"categories"`
}

// NewLabelScheme returns a scheme holding one default category.
func NewLabelScheme() *LabelScheme {
	return &LabelScheme{Categories: []*LabelCategory{NewLabelCategory("Category 0")}}
}

// Clone returns a deep copy.
func (s *LabelScheme) Clone() *LabelScheme {
	out := &LabelScheme{Categories: make([]*LabelCategory, len(s.Categories))}
	for i, c := range s.Categories {
		out.Categories[i] = c.Clone()
	}
	return out
}

// IndexOf returns the position of c, or -1.
func (s *LabelScheme) IndexOf(c *LabelCategory) int {
	return slices.Index(s.Categories, c)
}

// Find returns the category with the given name (case-insensitive).
func (s *LabelScheme) Find(name string) *LabelCategory {
	for _, c := range s.Categories {
		if strings.EqualFold(c.Name, name) {
			return c
		}
	}
	return nil
}

// AddCategory 追加一个使用默认符号器、名称不重复的新分类。
func (s *LabelScheme) AddCategory() *LabelCategory {
	name := ""
	for i := len(s.Categories); ; i++ {
		name = fmt.Sprintf("Category %d", i)
		if s.Find(name) == nil {
			break
		}
	}
	c := NewLabelCategory(name)
	s.Categories = append(s.Categories, c)
	return c
}

// Add appends c; its name must be unique in the scheme.
func (s *LabelScheme) Add(c *LabelCategory) error {
	if strings.TrimSpace(c.Name) == "" {
		return fmt.Errorf("symbology: 分类名称不能为空")
	}
	if s.Find(c.Name) != nil {
		return fmt.Errorf("%w: %s", ErrDuplicateCategory, c.Name)
	}
	if c.Symbolizer == nil {
		c.Symbolizer = NewLabelSymbolizer()
	}
	s.Categories = append(s.Categories, c)
	return nil
}

// Remove deletes c. The last remaining category cannot be removed.
func (s *LabelScheme) Remove(c *LabelCategory) error {
	i := s.IndexOf(c)
	if i < 0 {
		return ErrNoCategory
	}
	return s.RemoveAt(i)
}

// RemoveAt deletes the category at index i.
func (s *LabelScheme) RemoveAt(i int) error {
	if i < 0 || i >= len(s.Categories) {
		return ErrNoCategory
	}
	if len(s.Categories) == 1 {
		return ErrLastCategory
	}
	s.Categories = slices.Delete(s.Categories, i, i+1)
	return nil
}

// Promote 将分类后移一位（提高优先级），已在末尾时返回 false。
func (s *LabelScheme) Promote(c *LabelCategory) bool {
	i := s.IndexOf(c)
	if i < 0 || i == len(s.Categories)-1 {
		return false
	}
	s.Categories[i], s.Categories[i+1] = s.Categories[i+1], s.Categories[i]
	return true
}

// Demote 将分类前移一位（降低优先级），已在开头时返回 false。
func (s *LabelScheme) Demote(c *LabelCategory) bool {
	i := s.IndexOf(c)
	if i <= 0 {
		return false
	}
	s.Categories[i], s.Categories[i-1] = s.Categories[i-1], s.Categories[i]
	return true
}

// Rename 修改分类名称，新名称不能与其他分类重复。
func (s *LabelScheme) Rename(c *LabelCategory, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("symbology: 分类名称不能为空")
	}
	if other := s.Find(name); other != nil && other != c {
		return fmt.Errorf("%w: %s", ErrDuplicateCategory, name)
	}
	c.Name = name
	return nil
}
