package layout

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

const (
	codePad        = 25.0
	gutterGap      = 20.0
	titleBarHeight = 50.0
	controlRadius  = 6.0
	controlSpacing = 20.0
	controlStartX  = 20.0
	cornerRadius   = 12.0
	titleFontScale = 0.8
	minTitleMargin = 10.0
)

var controlColors = [3]Color{
	RGB(0xff, 0x5f, 0x56),
	RGB(0xff, 0xbd, 0x2e),
	RGB(0x27, 0xc9, 0x3f),
}

// Build 根据高亮后的源码行计算代码窗口内所有元素的位置。
func Build(lines []SourceLine, palette Palette, opts BuildOptions) (*Result, error) {
	if opts.Typesetter == nil {
		return nil, fmt.Errorf("layout: 缺少排版后端 Typesetter")
	}
	if len(opts.Fonts) == 0 {
		return nil, fmt.Errorf("layout: 缺少字体")
	}
	if len(lines) == 0 {
		lines = []SourceLine{{}}
	}
	ts := opts.Typesetter

	metrics, err := ts.Metrics(opts.Fonts)
	if err != nil {
		return nil, err
	}
	lineHeight := metrics.LineHeight
	if lineHeight <= 0 {
		lineHeight = metrics.Ascent + metrics.Descent
	}
	lineHeight += math.Max(opts.LinePad, 0)

	// 标题栏：显示窗口按钮或标题时才占用高度。
	var bar *TitleBar
	top := codePad
	if opts.ShowWindowControls || opts.WindowTitle != "" {
		bar = &TitleBar{Height: titleBarHeight}
		top += titleBarHeight - codePad/2
	}

	// 行号区域宽度以最大行号为准。
	codeX := codePad
	gutter := Gutter{}
	if opts.ShowLineNumbers {
		last := opts.LineOffset + len(lines) - 1
		widest := strconv.Itoa(last)
		if first := strconv.Itoa(opts.LineOffset); len(first) > len(widest) {
			widest = first
		}
		numberWidth, err := ts.TextWidth(widest, opts.Fonts, false, false)
		if err != nil {
			return nil, err
		}
		gutter = Gutter{Visible: true, X: codePad, Width: numberWidth}
		codeX = codePad + numberWidth + gutterGap
	}

	highlighted := map[int]bool{}
	for _, n := range opts.HighlightLines {
		highlighted[n] = true
	}

	placed := make([]CodeLine, 0, len(lines))
	maxWidth := 0.0
	for i, src := range lines {
		y := top + float64(i)*lineHeight
		cl := CodeLine{
			Number:   opts.LineOffset + i,
			Y:        y,
			Height:   lineHeight,
			Baseline: y + metrics.Ascent + math.Max(opts.LinePad, 0)/2,
		}
		x := codeX
		for _, span := range src.Spans {
			if span.Text == "" {
				continue
			}
			w, err := ts.TextWidth(span.Text, opts.Fonts, span.Bold, span.Italic)
			if err != nil {
				return nil, err
			}
			cl.Spans = append(cl.Spans, PlacedSpan{Span: span, X: x, Width: w})
			x += w
		}
		maxWidth = math.Max(maxWidth, x-codeX)
		if gutter.Visible {
			cl.Label = &TextBox{
				Content:  strconv.Itoa(cl.Number),
				X:        gutter.X,
				Baseline: cl.Baseline,
				Width:    gutter.Width,
				FontSize: opts.Fonts[0].Size,
				Color:    palette.LineNumber,
				Align:    "right",
			}
		}
		if highlighted[i+1] {
			cl.Highlight = &Rect{Y: y, Height: lineHeight, FillColor: palette.Highlight}
		}
		placed = append(placed, cl)
	}

	width := codeX + maxWidth + codePad
	height := top + float64(len(lines))*lineHeight + codePad

	if bar != nil {
		minWidth := codePad * 2
		if opts.ShowWindowControls {
			for i := range controlColors {
				bar.Controls = append(bar.Controls, Circle{
					CX:        controlStartX + controlRadius + float64(i)*controlSpacing,
					CY:        titleBarHeight / 2,
					R:         controlRadius,
					FillColor: controlColors[i],
				})
			}
			minWidth = controlStartX + 3*controlSpacing + codePad
		}
		if opts.WindowTitle != "" {
			size := opts.Fonts[0].Size * titleFontScale
			titleWidth, err := ts.TextWidth(opts.WindowTitle, scaleFonts(opts.Fonts, titleFontScale), false, false)
			if err != nil {
				return nil, err
			}
			// 标题居中，左右都要避开窗口按钮。
			minWidth = math.Max(minWidth, titleWidth+2*(controlStartX+3*controlSpacing+minTitleMargin))
			bar.Title = &TextBox{
				Content:  opts.WindowTitle,
				Baseline: titleBarHeight/2 + (metrics.Ascent-metrics.Descent)*titleFontScale/2,
				FontSize: size,
				Color:    palette.Foreground,
				Align:    "center",
			}
		}
		width = math.Max(width, minWidth)
	}
	width = math.Ceil(width)
	if bar != nil && bar.Title != nil {
		bar.Title.Width = width
	}

	for i := range placed {
		if placed[i].Highlight != nil {
			placed[i].Highlight.Width = width
		}
	}

	corner := 0.0
	if opts.RoundCorner {
		corner = cornerRadius
	}

	return &Result{
		Width:    width,
		Height:   math.Ceil(height),
		Corner:   corner,
		Palette:  palette,
		Fonts:    opts.Fonts,
		TitleBar: bar,
		Gutter:   gutter,
		Lines:    placed,
		Padding:  opts.Padding,
		Meta:     opts.Meta,
	}, nil
}

// NormalizeLines 将行号排序去重，并剔除非正数。
func NormalizeLines(lines []int) []int {
	seen := map[int]bool{}
	out := make([]int, 0, len(lines))
	for _, n := range lines {
		if n <= 0 || seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	sort.Ints(out)
	return out
}

// ParseHexColor 解析 #rgb、#rrggbb 与 #rrggbbaa 三种写法。
func ParseHexColor(s string) (Color, error) {
	hex := strings.TrimPrefix(strings.TrimSpace(s), "#")
	switch len(hex) {
	case 3:
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]}) + "ff"
	case 6:
		hex += "ff"
	case 8:
	default:
		return Color{}, fmt.Errorf("无效的颜色 %q", s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return Color{}, fmt.Errorf("无效的颜色 %q", s)
	}
	return Color{
		R: int(v>>24&0xff),
		G: int(v>>16&0xff),
		B: int(v>>8&0xff),
		A: int(v&0xff),
	}, nil
}

func scaleFonts(fonts []FontResource, factor float64) []FontResource {
	out := make([]FontResource, len(fonts))
	for i, f := range fonts {
		f.Size *= factor
		out[i] = f
	}
	return out
}
