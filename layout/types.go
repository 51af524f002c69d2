package layout

// 该文件定义布局结果与资源描述，供布局计算、渲染与调试 JSON 共用。
// 所有坐标与尺寸均以像素为单位，原点位于代码窗口左上角。

// Result 保存一段代码排好版的窗口。
type Result struct {
	Width    float64        `json:"width"`
	Height   float64        `json:"height"`
	Corner   float64        `json:"corner"` // 圆角半径，0 表示直角
	Palette  Palette        `json:"palette"`
	Fonts    []FontResource `json:"fonts"`
	TitleBar *TitleBar      `json:"titleBar,omitempty"`
	Gutter   Gutter         `json:"gutter"`
	Lines    []CodeLine     `json:"lines"`
	Padding  Padding        `json:"padding"`
	Meta     DocumentMeta   `json:"meta"`
}

// FontResource 描述字体资源，Src 可以是文件路径、内置 embed 名称或系统字体名。
// 列表中第一个字体为主字体，其余仅在主字体缺字时回退使用。
type FontResource struct {
	Name string  `json:"name"`
	Src  string  `json:"src"`
	Size float64 `json:"size"` // px
}

// Color 采用 0-255 的 RGBA 数值。
type Color struct {
	R int `json:"r"`
	G int `json:"g"`
	B int `json:"b"`
	A int `json:"a"`
}

// RGB 返回不透明颜色。
func RGB(r, g, b int) Color { return Color{R: r, G: g, B: b, A: 255} }

// Palette 是主题提供的基础配色。
type Palette struct {
	Background Color `json:"background"`
	Foreground Color `json:"foreground"`
	LineNumber Color `json:"lineNumber"`
	Highlight  Color `json:"highlight"`
}

// Span 是一段带样式的源码文本，不包含换行符。
type Span struct {
	Text       string `json:"text"`
	Color      Color  `json:"color"`
	Background *Color `json:"background,omitempty"`
	Bold       bool   `json:"bold,omitempty"`
	Italic     bool   `json:"italic,omitempty"`
	Underline  bool   `json:"underline,omitempty"`
}

// SourceLine 是高亮后的一行源码。
type SourceLine struct {
	Spans []Span `json:"spans"`
}

// Text 返回整行纯文本。
func (l SourceLine) Text() string {
	n := 0
	for _, s := range l.Spans {
		n += len(s.Text)
	}
	buf := make([]byte, 0, n)
	for _, s := range l.Spans {
		buf = append(buf, s.Text...)
	}
	return string(buf)
}

// TitleBar 描述窗口顶部的标题栏。
type TitleBar struct {
	Height   float64  `json:"height"`
	Controls []Circle `json:"controls,omitempty"`
	Title    *TextBox `json:"title,omitempty"`
}

// Gutter 是行号区域。
type Gutter struct {
	Visible bool    `json:"visible"`
	X       float64 `json:"x"`
	Width   float64 `json:"width"`
}

// Padding 是窗口外的背景留白，矢量输出时由渲染器直接绘制。
type Padding struct {
	Horiz      float64 `json:"horiz"`
	Vert       float64 `json:"vert"`
	Background Color   `json:"background"`
}

// CodeLine 是排好坐标的一行代码。
type CodeLine struct {
	Number    int          `json:"number"`
	Y         float64      `json:"y"`
	Height    float64      `json:"height"`
	Baseline  float64      `json:"baseline"`
	Label     *TextBox     `json:"label,omitempty"`
	Highlight *Rect        `json:"highlight,omitempty"`
	Spans     []PlacedSpan `json:"spans"`
}

// PlacedSpan 是已确定横坐标的 Span。
type PlacedSpan struct {
	Span
	X     float64 `json:"x"`
	Width float64 `json:"width"`
}

// TextBox 表示一个已经排好坐标的单行文本。
type TextBox struct {
	Content  string  `json:"content"`
	X        float64 `json:"x"`
	Baseline float64 `json:"baseline"`
	Width    float64 `json:"width"`
	FontSize float64 `json:"fontSize"`
	Color    Color   `json:"color"`
	Align    string  `json:"align,omitempty"` // left（默认）/center/right
}

// Rect 表示一个矩形（不包含圆角）。
type Rect struct {
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Width     float64 `json:"width"`
	Height    float64 `json:"height"`
	FillColor Color   `json:"fillColor"`
}

// Circle 表示一个实心圆。
type Circle struct {
	CX        float64 `json:"cx"`
	CY        float64 `json:"cy"`
	R         float64 `json:"r"`
	FillColor Color   `json:"fillColor"`
}

// FontMetrics 为主字体的纵向度量（px）。
type FontMetrics struct {
	Ascent     float64 `json:"ascent"`
	Descent    float64 `json:"descent"`
	LineHeight float64 `json:"lineHeight"`
}

// DocumentMeta 保存矢量输出（PDF）的元信息。
type DocumentMeta struct {
	Title   string `json:"title"`
	Creator string `json:"creator"`
}
