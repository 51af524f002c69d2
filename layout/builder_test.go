package layout

import (
	"bytes"
	"encoding/json"
	"errors"
	"math"
	"testing"
	"unicode/utf8"
)

// stubTypesetter 是一个最小实现，仅用于测试，避免引入 renderer 造成循环依赖。
// 每个字符宽度固定为字号的 0.6 倍，粗体额外加宽 1px。
type stubTypesetter struct {
	err error
}

func (s *stubTypesetter) Metrics(fonts []FontResource) (FontMetrics, error) {
	if s.err != nil {
		return FontMetrics{}, s.err
	}
	size := fonts[0].Size
	return FontMetrics{Ascent: size * 0.8, Descent: size * 0.2, LineHeight: size * 1.2}, nil
}

func (s *stubTypesetter) TextWidth(text string, fonts []FontResource, bold, italic bool) (float64, error) {
	if s.err != nil {
		return 0, s.err
	}
	w := float64(utf8.RuneCountInString(text)) * fonts[0].Size * 0.6
	if bold {
		w++
	}
	return w, nil
}

var testPalette = Palette{
	Background: RGB(40, 42, 54),
	Foreground: RGB(248, 248, 242),
	LineNumber: RGB(98, 114, 164),
	Highlight:  RGB(68, 71, 90),
}

func testLines(texts ...string) []SourceLine {
	out := make([]SourceLine, 0, len(texts))
	for _, t := range texts {
		out = append(out, SourceLine{Spans: []Span{{Text: t, Color: testPalette.Foreground}}})
	}
	return out
}

func buildWith(t *testing.T, lines []SourceLine, mutate func(*BuildOptions)) *Result {
	t.Helper()
	opts := BuildOptions{
		Typesetter:         &stubTypesetter{},
		Fonts:              []FontResource{{Name: "Go Mono", Size: 20}},
		ShowLineNumbers:    true,
		ShowWindowControls: true,
		RoundCorner:        true,
		LineOffset:         1,
		LinePad:            2,
	}
	if mutate != nil {
		mutate(&opts)
	}
	res, err := Build(lines, testPalette, opts)
	if err != nil {
		t.Fatalf("布局计算失败: %v", err)
	}
	return res
}

// TestLineSpacingInvariant 断言：相邻行的纵向间距恒等于 LineHeight + LinePad。
func TestLineSpacingInvariant(t *testing.T) {
	res := buildWith(t, testLines("a", "bb", "ccc", "dddd"), nil)
	if len(res.Lines) != 4 {
		t.Fatalf("行数错误: %d", len(res.Lines))
	}
	want := 20*1.2 + 2
	for i := 1; i < len(res.Lines); i++ {
		gap := res.Lines[i].Y - res.Lines[i-1].Y
		if math.Abs(gap-want) > 1e-9 {
			t.Fatalf("第 %d 行间距错误: got=%g want=%g", i, gap, want)
		}
		if res.Lines[i].Baseline <= res.Lines[i].Y {
			t.Fatalf("基线应位于行顶之下")
		}
	}
}

// TestSpansArePlacedLeftToRight 验证同一行的 span 首尾相接。
func TestSpansArePlacedLeftToRight(t *testing.T) {
	line := SourceLine{Spans: []Span{{Text: "def"}, {Text: " "}, {Text: "main", Bold: true}, {Text: ""}}}
	res := buildWith(t, []SourceLine{line}, nil)
	spans := res.Lines[0].Spans
	if len(spans) != 3 {
		t.Fatalf("空 span 应被跳过，got %d", len(spans))
	}
	for i := 1; i < len(spans); i++ {
		if math.Abs(spans[i].X-(spans[i-1].X+spans[i-1].Width)) > 1e-9 {
			t.Fatalf("span %d 未与前一个相接", i)
		}
	}
	if spans[2].Width != 4*20*0.6+1 {
		t.Fatalf("粗体宽度未经排版后端测量: %g", spans[2].Width)
	}
	last := spans[2].X + spans[2].Width
	if res.Width < last+codePad-1e-9 {
		t.Fatalf("窗口宽度不足以容纳代码: width=%g need=%g", res.Width, last+codePad)
	}
}

// TestGutterFollowsLineOffset 验证行号从 LineOffset 开始，并按最宽行号预留宽度。
func TestGutterFollowsLineOffset(t *testing.T) {
	res := buildWith(t, testLines("x", "y", "z"), func(o *BuildOptions) { o.LineOffset = 98 })
	if !res.Gutter.Visible {
		t.Fatalf("行号区域应可见")
	}
	if got := res.Lines[2].Label.Content; got != "100" {
		t.Fatalf("行号错误: %s", got)
	}
	if want := 3 * 20 * 0.6; math.Abs(res.Gutter.Width-want) > 1e-9 {
		t.Fatalf("行号宽度错误: got=%g want=%g", res.Gutter.Width, want)
	}
	if res.Lines[0].Spans[0].X <= res.Gutter.X+res.Gutter.Width {
		t.Fatalf("代码不应与行号重叠")
	}

	hidden := buildWith(t, testLines("x"), func(o *BuildOptions) { o.ShowLineNumbers = false })
	if hidden.Gutter.Visible || hidden.Lines[0].Label != nil {
		t.Fatalf("关闭行号后不应生成行号")
	}
	if hidden.Lines[0].Spans[0].X != codePad {
		t.Fatalf("无行号时代码应从左侧留白处开始")
	}
}

// TestHighlightLinesSpanFullWidth 验证高亮行覆盖整个窗口宽度，越界行号被忽略。
func TestHighlightLinesSpanFullWidth(t *testing.T) {
	res := buildWith(t, testLines("one", "two", "three"), func(o *BuildOptions) {
		o.HighlightLines = []int{2, 7}
	})
	for i, ln := range res.Lines {
		if (i == 1) != (ln.Highlight != nil) {
			t.Fatalf("第 %d 行高亮状态错误", i+1)
		}
	}
	hl := res.Lines[1].Highlight
	if hl.Width != res.Width || hl.Height != res.Lines[1].Height {
		t.Fatalf("高亮矩形尺寸错误: %+v", hl)
	}
	if hl.FillColor != testPalette.Highlight {
		t.Fatalf("高亮颜色应来自主题")
	}
}

// TestTitleBar 覆盖窗口按钮与标题的组合。
func TestTitleBar(t *testing.T) {
	bare := buildWith(t, testLines("x"), func(o *BuildOptions) { o.ShowWindowControls = false })
	if bare.TitleBar != nil {
		t.Fatalf("无按钮无标题时不应有标题栏")
	}

	withControls := buildWith(t, testLines("x"), nil)
	if withControls.TitleBar == nil || len(withControls.TitleBar.Controls) != 3 {
		t.Fatalf("应有三个窗口按钮")
	}
	if withControls.Lines[0].Y <= bare.Lines[0].Y {
		t.Fatalf("标题栏应把代码向下推")
	}

	titled := buildWith(t, testLines("x"), func(o *BuildOptions) { o.WindowTitle = "main.py - a rather long window title" })
	title := titled.TitleBar.Title
	if title == nil || title.Align != "center" || title.Width != titled.Width {
		t.Fatalf("标题应居中并占满窗口宽度: %+v", title)
	}
	if titled.Width <= withControls.Width {
		t.Fatalf("长标题应撑宽窗口")
	}
}

// TestCornerAndSize 验证圆角开关与尺寸取整。
func TestCornerAndSize(t *testing.T) {
	res := buildWith(t, testLines("hello"), nil)
	if res.Corner != cornerRadius {
		t.Fatalf("圆角半径错误: %g", res.Corner)
	}
	if res.Width != math.Ceil(res.Width) || res.Height != math.Ceil(res.Height) {
		t.Fatalf("窗口尺寸应为整数像素")
	}
	square := buildWith(t, testLines("hello"), func(o *BuildOptions) { o.RoundCorner = false })
	if square.Corner != 0 {
		t.Fatalf("关闭圆角后半径应为 0")
	}
}

func TestBuildErrors(t *testing.T) {
	if _, err := Build(testLines("x"), testPalette, BuildOptions{Fonts: []FontResource{{Size: 10}}}); err == nil {
		t.Fatalf("缺少 Typesetter 应报错")
	}
	if _, err := Build(testLines("x"), testPalette, BuildOptions{Typesetter: &stubTypesetter{}}); err == nil {
		t.Fatalf("缺少字体应报错")
	}
	boom := errors.New("font missing")
	_, err := Build(testLines("x"), testPalette, BuildOptions{
		Typesetter: &stubTypesetter{err: boom},
		Fonts:      []FontResource{{Size: 10}},
	})
	if !errors.Is(err, boom) {
		t.Fatalf("排版后端错误应原样返回, got %v", err)
	}
}

func TestEmptySourceYieldsOneLine(t *testing.T) {
	res := buildWith(t, nil, nil)
	if len(res.Lines) != 1 || len(res.Lines[0].Spans) != 0 {
		t.Fatalf("空输入应得到一行空行: %+v", res.Lines)
	}
}

func TestNormalizeLines(t *testing.T) {
	got := NormalizeLines([]int{4, 1, 0, 4, -2, 3})
	want := []int{1, 3, 4}
	if len(got) != len(want) {
		t.Fatalf("got %v want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v want %v", got, want)
		}
	}
}

func TestParseHexColor(t *testing.T) {
	cases := map[string]Color{
		"#abb8c3":   RGB(0xab, 0xb8, 0xc3),
		"#fff":      RGB(255, 255, 255),
		"#70707080": {R: 0x70, G: 0x70, B: 0x70, A: 0x80},
		"000000":    RGB(0, 0, 0),
	}
	for in, want := range cases {
		got, err := ParseHexColor(in)
		if err != nil {
			t.Fatalf("%s: %v", in, err)
		}
		if got != want {
			t.Fatalf("%s: got %+v want %+v", in, got, want)
		}
	}
	for _, bad := range []string{"", "#12", "#ggg", "#12345", "blue"} {
		if _, err := ParseHexColor(bad); err == nil {
			t.Fatalf("%q 应当解析失败", bad)
		}
	}
}

func TestEncodeDebugJSON(t *testing.T) {
	res := buildWith(t, testLines("x"), nil)
	var buf bytes.Buffer
	if err := EncodeDebugJSON(&buf, res); err != nil {
		t.Fatalf("输出调试 JSON 失败: %v", err)
	}
	var back Result
	if err := json.Unmarshal(buf.Bytes(), &back); err != nil {
		t.Fatalf("调试 JSON 无法解析: %v", err)
	}
	if back.Width != res.Width || len(back.Lines) != 1 {
		t.Fatalf("调试 JSON 内容不完整")
	}
}
