package layout

// BuildOptions 配置布局阶段所需的依赖与外观参数。
type BuildOptions struct {
	Typesetter Typesetter
	Fonts      []FontResource

	ShowLineNumbers    bool
	ShowWindowControls bool
	RoundCorner        bool
	WindowTitle        string
	HighlightLines     []int // 1 起始的源码行号
	LineOffset         int
	LinePad            float64

	Padding Padding
	Meta    DocumentMeta
}

// Typesetter 负责测量文本，由渲染后端实现。
type Typesetter interface {
	Metrics(fonts []FontResource) (FontMetrics, error)
	TextWidth(text string, fonts []FontResource, bold, italic bool) (float64, error)
}
