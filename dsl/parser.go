package dsl

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"

	"github.com/ByLCY/silicate/layout"
)

const (
	// DefaultFontSize 是字体列表中第一个字体未写字号时使用的像素值。
	DefaultFontSize = 26.0

	maxRangeLines = 1 << 16
)

var (
	optionLexer = lexer.MustSimple([]lexer.SimpleRule{
		{Name: "Whitespace", Pattern: `[ \t\r\n]+`},
		{Name: "String", Pattern: `"(?:\\.|[^"])*"`},
		{Name: "Number", Pattern: `\d+(?:\.\d+)?(?:px|pt)?`},
		{Name: "Symbol", Pattern: `[;,=-]`},
		{Name: "Word", Pattern: `[^\s;,="]+`},
	})

	fontListParser = participle.MustBuild[FontList](
		participle.Lexer(optionLexer),
		participle.Elide("Whitespace"),
	)

	lineRangeParser = participle.MustBuild[LineRanges](
		participle.Lexer(optionLexer),
		participle.Elide("Whitespace"),
	)
)

// FontList is the root node of a font list such as `Hack=26; Noto Sans CJK SC`.
type FontList struct {
	Fonts []*FontEntry `parser:"@@ ( ';' @@ )*"`
}

// FontEntry is one font name with an optional size.
type FontEntry struct {
	Pos   lexer.Position `parser:""`
	Parts []*NamePart    `parser:"@@+"`
	Size  *string        `parser:"( '=' @Number )?"`
}

// NamePart is one token of a font name.
type NamePart struct {
	Pos   lexer.Position `parser:""`
	Value string         `parser:"@String | @Word | @Number | @'-'"`
}

// Name rebuilds the font name: parts that touch in the input are joined
// directly (`3270-Regular.ttf`), separated parts get a single space.
// String literals are unquoted.
func (e *FontEntry) Name() string {
	var b strings.Builder
	end := -1
	for _, p := range e.Parts {
		if end >= 0 && p.Pos.Offset != end {
			b.WriteByte(' ')
		}
		end = p.Pos.Offset + len(p.Value)
		v := p.Value
		if strings.HasPrefix(v, `"`) {
			if unquoted, err := strconv.Unquote(v); err == nil {
				v = unquoted
			}
		}
		b.WriteString(v)
	}
	return b.String()
}

// LineRanges is the root node of a line selection such as `1;3-4`.
type LineRanges struct {
	Ranges []*LineRange `parser:"@@ ( ( ';' | ',' ) @@ )*"`
}

// LineRange is a single line or an inclusive range of lines.
type LineRange struct {
	Pos  lexer.Position `parser:""`
	From int            `parser:"@Number"`
	To   *int           `parser:"( '-' @Number )?"`
}

// FontSpec 是解析后的单个字体：名称（或路径）与像素字号。
type FontSpec struct {
	Name string
	Size float64
}

// ParseFonts 解析字体列表。未写字号的字体沿用前一个字体的字号，第一个默认为 DefaultFontSize。
// 空字符串返回 nil。
func ParseFonts(input string) ([]FontSpec, error) {
	input = trimSeparators(input)
	if input == "" {
		return nil, nil
	}
	list, err := fontListParser.ParseString("", input)
	if err != nil {
		return nil, fmt.Errorf("解析字体列表失败: %w", err)
	}
	size := DefaultFontSize
	out := make([]FontSpec, 0, len(list.Fonts))
	for _, entry := range list.Fonts {
		if entry.Size != nil {
			l, ok := layout.ParseRawLengthStr(*entry.Size)
			if !ok || l.ToPX() <= 0 {
				return nil, fmt.Errorf("字体 %s 的字号无效: %s（%s）", entry.Name(), *entry.Size, entry.Pos)
			}
			size = l.ToPX()
		}
		out = append(out, FontSpec{Name: entry.Name(), Size: size})
	}
	return out, nil
}

// ParseLineRanges 解析行号选择，返回排序去重后的行号。空字符串返回 nil。
func ParseLineRanges(input string) ([]int, error) {
	input = trimSeparators(input)
	if input == "" {
		return nil, nil
	}
	ranges, err := lineRangeParser.ParseString("", input)
	if err != nil {
		return nil, fmt.Errorf("解析行号范围失败: %w", err)
	}
	var lines []int
	for _, r := range ranges.Ranges {
		to := r.From
		if r.To != nil {
			to = *r.To
		}
		if r.From <= 0 || to < r.From || to-r.From >= maxRangeLines {
			return nil, fmt.Errorf("无效的行号范围 %d-%d（%s）", r.From, to, r.Pos)
		}
		for n := r.From; n <= to; n++ {
			lines = append(lines, n)
		}
	}
	return layout.NormalizeLines(lines), nil
}

// trimSeparators 去掉首尾空白与多余的分隔符，允许写成 "1;3-4;"。
func trimSeparators(input string) string {
	return strings.Trim(input, " \t\r\n;,")
}
