package fonts

import (
	"fmt"
	"sort"
	"strings"

	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gobolditalic"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/gomonobold"
	"golang.org/x/image/font/gofont/gomonobolditalic"
	"golang.org/x/image/font/gofont/gomonoitalic"
	"golang.org/x/image/font/gofont/goregular"
)

// DefaultFamily 是未指定字体时使用的内置等宽字体。
const DefaultFamily = "Go Mono"

// Style 对应字体文件的粗细/斜体变体。
type Style int

const (
	Regular Style = iota
	Bold
	Italic
	BoldItalic
)

func (s Style) String() string {
	switch s {
	case Bold:
		return "bold"
	case Italic:
		return "italic"
	case BoldItalic:
		return "bold-italic"
	default:
		return "regular"
	}
}

// StyleOf 根据粗体/斜体标记选择变体。
func StyleOf(bold, italic bool) Style {
	switch {
	case bold && italic:
		return BoldItalic
	case bold:
		return Bold
	case italic:
		return Italic
	default:
		return Regular
	}
}

var builtin = map[string][4][]byte{
	"go mono": {gomono.TTF, gomonobold.TTF, gomonoitalic.TTF, gomonobolditalic.TTF},
	"go":      {goregular.TTF, gobold.TTF, goitalic.TTF, gobolditalic.TTF},
}

// IsBuiltin 判断名称是否指向内置字体，名称大小写不敏感，可带 "embed:" 前缀。
func IsBuiltin(name string) bool {
	_, ok := builtin[normalize(name)]
	return ok
}

// Names 返回内置字体名称（已排序）。
func Names() []string {
	out := make([]string, 0, len(builtin))
	for name := range builtin {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Load 返回内置字体指定变体的字节数据，name 可写为 "embed:Go Mono" 或直接 "Go Mono"。
func Load(name string, style Style) ([]byte, error) {
	set, ok := builtin[normalize(name)]
	if !ok {
		return nil, fmt.Errorf("读取内置字体 %s 失败: 不存在", name)
	}
	if style < Regular || style > BoldItalic {
		style = Regular
	}
	return set[style], nil
}

func normalize(name string) string {
	name = strings.TrimPrefix(strings.TrimSpace(name), "embed:")
	return strings.ToLower(strings.TrimSpace(name))
}
