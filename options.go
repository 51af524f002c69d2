package silicate

import (
	"math"
	"strings"

	"github.com/ByLCY/silicate/encode"
	"github.com/ByLCY/silicate/fonts"
	"github.com/ByLCY/silicate/layout"
)

// 默认外观参数。
const (
	DefaultLanguage         = "python"
	DefaultTheme            = "Dracula"
	DefaultFontSize         = 26.0
	DefaultBackground       = "#abb8c3"
	DefaultShadowColor      = "#707070"
	DefaultShadowBlurRadius = 50.0
	DefaultPadHoriz         = 80
	DefaultPadVert          = 100
	DefaultTabWidth         = 4
	DefaultLineOffset       = 1
	DefaultLinePad          = 2.0
)

// 参数上限，超出时返回 ErrInvalidInput。MaxImageSide 与 MaxImagePixels
// 约束排版后加上留白的最终画布。
const (
	MaxFontSize         = 512.0
	MaxShadowBlurRadius = 1024.0
	MaxPadding          = 4096
	MaxTabWidth         = 64
	MaxLinePad          = 512.0
	MaxImageSide        = 16384
	MaxImagePixels      = 64 << 20
)

// FontSpec 是字体列表中的一项：名称（内置字体、文件路径或系统字体名）与像素字号。
type FontSpec struct {
	Name string  `json:"name" yaml:"name"`
	Size float64 `json:"size" yaml:"size"`
}

// Options 控制一次渲染。零值字段在渲染前替换为默认值；
// 零值有意义的字段使用指针，nil 表示取默认值。
type Options struct {
	Language string
	Theme    string
	Fonts    []FontSpec

	ShowLineNumbers    *bool
	ShowWindowControls *bool
	RoundCorner        *bool
	WindowTitle        string

	Background       string
	ShadowColor      string
	ShadowBlurRadius *float64
	ShadowOffsetX    int
	ShadowOffsetY    int
	PadHoriz         *int
	PadVert          *int

	HighlightLines []int // 1 起始的源码行号，超出范围的行号被忽略
	TabWidth       int
	LineOffset     int
	LinePad        *float64

	// Format 是 Generate 的输出编码，例如 "png"、"jpeg"、"svg"，空字符串为 PNG。
	Format string
	// Grayscale 为 1/2/4/8 时把结果抖动为对应位深的灰度图，0 表示保留彩色。
	Grayscale int
}

// Bool 返回 v 的指针，便于填写 Options。
func Bool(v bool) *bool { return &v }

// Int 返回 v 的指针。
func Int(v int) *int { return &v }

// Float 返回 v 的指针。
func Float(v float64) *float64 { return &v }

// DefaultOptions 返回所有字段均已填写的默认选项。
func DefaultOptions() Options {
	return Options{
		Language:           DefaultLanguage,
		Theme:              DefaultTheme,
		Fonts:              []FontSpec{{Name: fonts.DefaultFamily, Size: DefaultFontSize}},
		ShowLineNumbers:    Bool(true),
		ShowWindowControls: Bool(true),
		RoundCorner:        Bool(true),
		Background:         DefaultBackground,
		ShadowColor:        DefaultShadowColor,
		ShadowBlurRadius:   Float(DefaultShadowBlurRadius),
		PadHoriz:           Int(DefaultPadHoriz),
		PadVert:            Int(DefaultPadVert),
		TabWidth:           DefaultTabWidth,
		LineOffset:         DefaultLineOffset,
		LinePad:            Float(DefaultLinePad),
		Format:             encode.PNG.String(),
	}
}

// withDefaults 逐字段用默认值补齐零值，返回副本。
func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if strings.TrimSpace(o.Language) == "" {
		o.Language = d.Language
	}
	if strings.TrimSpace(o.Theme) == "" {
		o.Theme = d.Theme
	}
	if len(o.Fonts) == 0 {
		o.Fonts = d.Fonts
	} else {
		o.Fonts = append([]FontSpec(nil), o.Fonts...)
	}
	if o.ShowLineNumbers == nil {
		o.ShowLineNumbers = d.ShowLineNumbers
	}
	if o.ShowWindowControls == nil {
		o.ShowWindowControls = d.ShowWindowControls
	}
	if o.RoundCorner == nil {
		o.RoundCorner = d.RoundCorner
	}
	if o.Background == "" {
		o.Background = d.Background
	}
	if o.ShadowColor == "" {
		o.ShadowColor = d.ShadowColor
	}
	if o.ShadowBlurRadius == nil {
		o.ShadowBlurRadius = d.ShadowBlurRadius
	}
	if o.PadHoriz == nil {
		o.PadHoriz = d.PadHoriz
	}
	if o.PadVert == nil {
		o.PadVert = d.PadVert
	}
	if o.TabWidth == 0 {
		o.TabWidth = d.TabWidth
	}
	if o.LineOffset == 0 {
		o.LineOffset = d.LineOffset
	}
	if o.LinePad == nil {
		o.LinePad = d.LinePad
	}
	if o.Format == "" {
		o.Format = d.Format
	}
	o.HighlightLines = layout.NormalizeLines(o.HighlightLines)
	return o
}

// validate 检查补齐默认值后的选项，错误均为 ErrInvalidInput。
func (o Options) validate() error {
	for i, f := range o.Fonts {
		if strings.TrimSpace(f.Name) == "" {
			return invalidInput("第 %d 个字体缺少名称", i+1)
		}
		if !finite(f.Size) || f.Size <= 0 || f.Size > MaxFontSize {
			return invalidInput("字体 %s 的字号必须在 (0, %g] 内: %g", f.Name, MaxFontSize, f.Size)
		}
	}
	if _, err := layout.ParseHexColor(o.Background); err != nil {
		return invalidInput("背景色: %v", err)
	}
	if _, err := layout.ParseHexColor(o.ShadowColor); err != nil {
		return invalidInput("投影颜色: %v", err)
	}
	if r := *o.ShadowBlurRadius; !finite(r) || r < 0 || r > MaxShadowBlurRadius {
		return invalidInput("投影模糊半径必须在 [0, %g] 内: %g", MaxShadowBlurRadius, r)
	}
	if h, v := *o.PadHoriz, *o.PadVert; h < 0 || v < 0 || h > MaxPadding || v > MaxPadding {
		return invalidInput("留白必须在 [0, %d] 内: %d/%d", MaxPadding, h, v)
	}
	if o.TabWidth < 0 || o.TabWidth > MaxTabWidth {
		return invalidInput("制表符宽度必须在 [0, %d] 内: %d", MaxTabWidth, o.TabWidth)
	}
	if p := *o.LinePad; !finite(p) || p < 0 || p > MaxLinePad {
		return invalidInput("行间距必须在 [0, %g] 内: %g", MaxLinePad, p)
	}
	switch o.Grayscale {
	case 0, 1, 2, 4, 8:
	default:
		return invalidInput("灰度位深只能是 1/2/4/8: %d", o.Grayscale)
	}
	if _, err := encode.ParseFormat(o.Format); err != nil {
		return invalidInput("%v", err)
	}
	return nil
}

// checkCanvas 检查窗口加上留白后的画布尺寸，在分配像素之前拒绝过大的结果。
func (o Options) checkCanvas(width, height float64) error {
	w := math.Ceil(width) + 2*float64(*o.PadHoriz)
	h := math.Ceil(height) + 2*float64(*o.PadVert)
	if w > MaxImageSide || h > MaxImageSide || w*h > MaxImagePixels {
		return invalidInput("画布过大: %.0fx%.0f（单边上限 %d，像素上限 %d）", w, h, MaxImageSide, MaxImagePixels)
	}
	return nil
}

func finite(f float64) bool { return !math.IsNaN(f) && !math.IsInf(f, 0) }

func (o Options) fontResources() []layout.FontResource {
	out := make([]layout.FontResource, len(o.Fonts))
	for i, f := range o.Fonts {
		name := strings.TrimSpace(f.Name)
		out[i] = layout.FontResource{Name: name, Src: name, Size: f.Size}
	}
	return out
}
