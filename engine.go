package silicate

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/ByLCY/silicate/effects"
	"github.com/ByLCY/silicate/encode"
	"github.com/ByLCY/silicate/highlight"
	"github.com/ByLCY/silicate/layout"
	"github.com/ByLCY/silicate/logging"
	canvasrenderer "github.com/ByLCY/silicate/renderer/canvas"
)

// DefaultCreator 写入 PDF 元信息的生成者名称。
const DefaultCreator = "silicate"

// EngineOptions 配置一个渲染引擎实例。
type EngineOptions struct {
	// FontDir 用于解析字体列表中的相对路径，空字符串表示当前目录。
	FontDir string
	// Fonts 注册额外的字体数据，之后可以在字体列表中直接按名称引用。
	Fonts map[string][]byte
	// Creator 写入矢量输出的元信息，默认为 DefaultCreator。
	Creator string
}

// Engine 把源码渲染成图像。构建完成后只读，可并发使用。
type Engine struct {
	catalog    *highlight.Catalog
	catalogErr error
	renderer   *canvasrenderer.Renderer
	creator    string
	log        *slog.Logger
}

// NewEngine 创建引擎。语言与主题目录构建失败不会在这里报错，
// 而是在之后每次调用时以 ErrEngine 返回。
func NewEngine(opts EngineOptions) *Engine {
	resources := make(map[string]canvasrenderer.Resource, len(opts.Fonts))
	for name, data := range opts.Fonts {
		resources[name] = canvasrenderer.Resource{Bytes: data}
	}
	e := &Engine{
		renderer: canvasrenderer.NewRendererWithOptions(canvasrenderer.Options{
			BaseDir: opts.FontDir,
			Fonts:   resources,
		}),
		creator: opts.Creator,
		log:     logging.Component(logging.ComponentEngine),
	}
	if e.creator == "" {
		e.creator = DefaultCreator
	}
	e.catalog, e.catalogErr = highlight.NewCatalog()
	if e.catalogErr == nil {
		logging.Component(logging.ComponentCatalog).Debug("语言与主题目录已加载",
			"languages", len(e.catalog.Languages()), "themes", len(e.catalog.Themes()))
	}
	return e
}

// ListLanguages 返回所有可高亮的语言，按名称排序（大小写不敏感）。
func (e *Engine) ListLanguages() ([]LanguageDescriptor, error) {
	cat, err := e.getCatalog()
	if err != nil {
		return nil, err
	}
	langs := cat.Languages()
	out := make([]LanguageDescriptor, len(langs))
	for i, l := range langs {
		out[i] = LanguageDescriptor{Name: l.Name, Aliases: l.Aliases, Extensions: l.Extensions}
	}
	return out, nil
}

// ListThemes 返回所有主题，按名称排序（大小写不敏感），包含 default 别名。
func (e *Engine) ListThemes() ([]ThemeDescriptor, error) {
	cat, err := e.getCatalog()
	if err != nil {
		return nil, err
	}
	themes := cat.Themes()
	out := make([]ThemeDescriptor, len(themes))
	for i, t := range themes {
		out[i] = ThemeDescriptor{Name: t.Name, Background: hexColor(t.Background), Dark: t.Dark}
	}
	return out, nil
}

// DetectLanguage 根据文件名（必要时结合内容）推断语言名称，无法推断时返回空字符串。
func (e *Engine) DetectLanguage(filename, source string) string {
	cat, err := e.getCatalog()
	if err != nil {
		return ""
	}
	return cat.Detect(filename, source)
}

// Layout 完成高亮与排版但不绘制，返回的结果可用于调试输出。
func (e *Engine) Layout(source string, opts Options) (*layout.Result, error) {
	res, _, err := e.prepare(source, opts)
	return res, err
}

// Render 返回最终位图：带留白与投影；Grayscale 非零时为灰度调色板图像。
func (e *Engine) Render(source string, opts Options) (image.Image, error) {
	res, o, err := e.prepare(source, opts)
	if err != nil {
		return nil, err
	}
	return e.compose(res, o)
}

// Generate 渲染源码并按 Options.Format 编码（默认 PNG），不产生任何副作用。
func (e *Engine) Generate(source string, opts Options) ([]byte, error) {
	format, err := encode.ParseFormat(opts.Format)
	if err != nil {
		return nil, invalidInput("%v", err)
	}
	return e.generate(source, opts, format)
}

// ToFile 渲染源码并按 path 的扩展名选择格式写入文件。
// 写入通过同目录临时文件加 rename 完成，失败时目标文件保持不变。
func (e *Engine) ToFile(source string, opts Options, path string) error {
	format, err := encode.FormatFromPath(path)
	if err != nil {
		return invalidInput("%v", err)
	}
	// 渲染前先确认目录可用，避免无谓的渲染
	dir := filepath.Dir(path)
	if info, err := os.Stat(dir); err != nil {
		return wrapIO("stat", dir, err)
	} else if !info.IsDir() {
		return wrapIO("stat", dir, fmt.Errorf("不是目录"))
	}

	data, err := e.generate(source, opts, format)
	if err != nil {
		return err
	}
	err = encode.WriteFileAtomic(path, func(w io.Writer) error {
		_, err := w.Write(data)
		return err
	})
	if err != nil {
		return wrapIO("write", path, err)
	}
	logging.Component(logging.ComponentOutput).Debug("图像已写入", "path", path, "format", format.String(), "bytes", len(data))
	return nil
}

func (e *Engine) generate(source string, opts Options, format encode.Format) ([]byte, error) {
	res, o, err := e.prepare(source, opts)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if format.IsVector() {
		if err := e.renderer.RenderVector(res, &buf, format); err != nil {
			return nil, wrapEngine("vector", err)
		}
		return buf.Bytes(), nil
	}
	img, err := e.compose(res, o)
	if err != nil {
		return nil, err
	}
	if err := encode.Encode(&buf, img, format); err != nil {
		return nil, wrapEngine("encode", err)
	}
	return buf.Bytes(), nil
}

// prepare 校验输入、解析语言与主题并完成排版，返回排版结果与补齐默认值后的选项。
func (e *Engine) prepare(source string, opts Options) (*layout.Result, Options, error) {
	o := opts.withDefaults()
	if err := o.validate(); err != nil {
		return nil, o, err
	}
	if err := validateSource(source); err != nil {
		return nil, o, err
	}
	cat, err := e.getCatalog()
	if err != nil {
		return nil, o, err
	}

	lexer, err := cat.Lexer(o.Language)
	if err != nil {
		return nil, o, wrapUnknownLanguage(o.Language)
	}
	style, err := cat.Theme(o.Theme)
	if err != nil {
		return nil, o, wrapUnknownTheme(o.Theme)
	}

	lines, err := highlight.Highlight(lexer, style, source, o.TabWidth)
	if err != nil {
		return nil, o, wrapEngine("highlight", err)
	}

	background, _ := layout.ParseHexColor(o.Background)
	res, err := layout.Build(lines, highlight.Palette(style), layout.BuildOptions{
		Typesetter:         e.renderer,
		Fonts:              o.fontResources(),
		ShowLineNumbers:    *o.ShowLineNumbers,
		ShowWindowControls: *o.ShowWindowControls,
		RoundCorner:        *o.RoundCorner,
		WindowTitle:        o.WindowTitle,
		HighlightLines:     o.HighlightLines,
		LineOffset:         o.LineOffset,
		LinePad:            *o.LinePad,
		Padding: layout.Padding{
			Horiz:      float64(*o.PadHoriz),
			Vert:       float64(*o.PadVert),
			Background: background,
		},
		Meta: layout.DocumentMeta{Title: o.WindowTitle, Creator: e.creator},
	})
	if err != nil {
		return nil, o, wrapEngine("layout", err)
	}
	if err := o.checkCanvas(res.Width, res.Height); err != nil {
		return nil, o, err
	}
	e.log.Debug("排版完成", "language", o.Language, "theme", o.Theme,
		"lines", len(res.Lines), "width", res.Width, "height", res.Height)
	return res, o, nil
}

// compose 栅格化窗口并叠加留白与投影，按需做灰度抖动。
func (e *Engine) compose(res *layout.Result, o Options) (image.Image, error) {
	window, err := e.renderer.Render(res)
	if err != nil {
		return nil, wrapEngine("render", err)
	}
	background, _ := layout.ParseHexColor(o.Background)
	shadow, _ := layout.ParseHexColor(o.ShadowColor)
	img := effects.AddShadow(window, effects.ShadowOptions{
		Background: toNRGBA(background),
		Color:      toNRGBA(shadow),
		BlurRadius: *o.ShadowBlurRadius,
		OffsetX:    o.ShadowOffsetX,
		OffsetY:    o.ShadowOffsetY,
		PadHoriz:   *o.PadHoriz,
		PadVert:    *o.PadVert,
	})
	if o.Grayscale == 0 {
		return img, nil
	}
	gray, err := effects.Dither(img, o.Grayscale)
	if err != nil {
		return nil, wrapEngine("dither", err)
	}
	return gray, nil
}

func (e *Engine) getCatalog() (*highlight.Catalog, error) {
	if e.catalogErr != nil {
		return nil, wrapEngine("catalog", e.catalogErr)
	}
	if e.catalog == nil {
		return nil, wrapEngine("catalog", errors.New("目录未初始化"))
	}
	return e.catalog, nil
}

func validateSource(source string) error {
	if !utf8.ValidString(source) {
		return invalidInput("源码不是合法的 UTF-8")
	}
	if strings.TrimSuffix(strings.TrimSuffix(source, "\n"), "\r") == "" {
		return invalidInput("源码为空")
	}
	return nil
}

func toNRGBA(c layout.Color) color.NRGBA {
	return color.NRGBA{R: uint8(c.R), G: uint8(c.G), B: uint8(c.B), A: uint8(c.A)}
}

func hexColor(c layout.Color) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}
