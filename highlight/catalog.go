// Package highlight wraps the chroma lexer and style registries behind a
// read-only catalog and turns source text into styled layout lines.
package highlight

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"

	"github.com/ByLCY/silicate/layout"
)

// DefaultThemeAlias 是 "default" 主题实际指向的样式。
const DefaultThemeAlias = "dracula"

var (
	ErrUnknownLanguage = errors.New("unknown language")
	ErrUnknownTheme    = errors.New("unknown theme")
	ErrEmptyRegistry   = errors.New("highlight registry is not initialised")
)

// Language 是目录中的一种语言。
type Language struct {
	Name       string
	Aliases    []string
	Extensions []string
}

// Theme 是目录中的一个主题。
type Theme struct {
	Name       string
	Background layout.Color
	Dark       bool
}

// Catalog 是构建后只读的语言与主题目录，可并发使用。
type Catalog struct {
	registry  *chroma.LexerRegistry
	languages []Language
	themes    []Theme
	styles    map[string]*chroma.Style // key 为小写名称
}

// NewCatalog 基于 chroma 的全局注册表构建目录。
func NewCatalog() (*Catalog, error) {
	return NewCatalogFrom(lexers.GlobalLexerRegistry, styles.Registry)
}

// NewCatalogFrom 基于给定注册表构建目录，主要用于测试。
func NewCatalogFrom(registry *chroma.LexerRegistry, styleSet map[string]*chroma.Style) (*Catalog, error) {
	if registry == nil || styleSet == nil {
		return nil, ErrEmptyRegistry
	}
	c := &Catalog{
		registry: registry,
		styles:   make(map[string]*chroma.Style, len(styleSet)+1),
	}

	seen := map[string]bool{}
	for _, lexer := range registry.Lexers {
		cfg := lexer.Config()
		if cfg == nil || cfg.Name == "" || seen[cfg.Name] {
			continue
		}
		seen[cfg.Name] = true
		c.languages = append(c.languages, Language{
			Name:       cfg.Name,
			Aliases:    append([]string(nil), cfg.Aliases...),
			Extensions: extensions(cfg.Filenames),
		})
	}
	sort.SliceStable(c.languages, func(i, j int) bool {
		return lessFold(c.languages[i].Name, c.languages[j].Name)
	})

	for name, style := range styleSet {
		if style == nil {
			continue
		}
		c.styles[strings.ToLower(name)] = style
		c.themes = append(c.themes, describeTheme(name, style))
	}
	if style, ok := c.styles[DefaultThemeAlias]; ok {
		if _, taken := c.styles["default"]; !taken {
			c.styles["default"] = style
			c.themes = append(c.themes, describeTheme("default", style))
		}
	}
	sort.SliceStable(c.themes, func(i, j int) bool {
		return lessFold(c.themes[i].Name, c.themes[j].Name)
	})
	return c, nil
}

// Languages 返回按名称（大小写不敏感）排序的语言列表副本。
func (c *Catalog) Languages() []Language {
	out := make([]Language, len(c.languages))
	for i, l := range c.languages {
		out[i] = Language{
			Name:       l.Name,
			Aliases:    append([]string(nil), l.Aliases...),
			Extensions: append([]string(nil), l.Extensions...),
		}
	}
	return out
}

// Themes 返回按名称排序的主题列表副本。
func (c *Catalog) Themes() []Theme {
	return append([]Theme(nil), c.themes...)
}

// Lexer 依次按名称、别名、小写名称与文件扩展名查找语言。
func (c *Catalog) Lexer(name string) (chroma.Lexer, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: 未指定语言", ErrUnknownLanguage)
	}
	lexer := c.registry.Get(strings.TrimPrefix(name, "."))
	if lexer == nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownLanguage, name)
	}
	return lexer, nil
}

// Detect 根据文件名推断语言，文件名无法识别时再分析内容。找不到时返回空字符串。
func (c *Catalog) Detect(filename, source string) string {
	var lexer chroma.Lexer
	if filename != "" {
		lexer = c.registry.Match(filename)
	}
	if lexer == nil && source != "" {
		lexer = c.registry.Analyse(source)
	}
	if lexer == nil {
		return ""
	}
	return lexer.Config().Name
}

// Theme 按名称（大小写不敏感）查找主题。
func (c *Catalog) Theme(name string) (*chroma.Style, error) {
	style, ok := c.styles[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTheme, name)
	}
	return style, nil
}

func describeTheme(name string, style *chroma.Style) Theme {
	bg := style.Get(chroma.Background).Background
	t := Theme{Name: name, Background: layout.RGB(255, 255, 255)}
	if bg.IsSet() {
		t.Background = fromColour(bg)
		t.Dark = bg.Brightness() < 0.5
	}
	return t
}

// extensions 从文件名通配中提取扩展名，例如 "*.py" → "py"；非扩展名形式原样保留。
func extensions(globs []string) []string {
	out := make([]string, 0, len(globs))
	for _, g := range globs {
		if strings.HasPrefix(g, "*.") {
			g = strings.TrimPrefix(g, "*.")
		}
		out = append(out, g)
	}
	return out
}

func lessFold(a, b string) bool {
	la, lb := strings.ToLower(a), strings.ToLower(b)
	if la != lb {
		return la < lb
	}
	return a < b
}
