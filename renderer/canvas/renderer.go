package canvasrenderer

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/tdewolff/canvas"
	"github.com/tdewolff/canvas/renderers/pdf"
	"github.com/tdewolff/canvas/renderers/rasterizer"
	"github.com/tdewolff/canvas/renderers/svg"

	"github.com/ByLCY/silicate/encode"
	"github.com/ByLCY/silicate/fonts"
	"github.com/ByLCY/silicate/layout"
	"github.com/ByLCY/silicate/logging"
	"github.com/ByLCY/silicate/renderer"
)

// ErrFontUnavailable 表示字体既不是内置字体、注入资源，也找不到对应的文件或系统字体。
var ErrFontUnavailable = errors.New("font unavailable")

const (
	// 画布以 1 单位 = 1 像素栅格化。
	pixelsPerUnit = 1.0

	underlineOffset = 0.12
	underlineWidth  = 0.06
)

var fontFileExts = map[string]bool{".ttf": true, ".otf": true, ".ttc": true, ".woff": true, ".woff2": true}

// Renderer draws layout results via github.com/tdewolff/canvas.
type Renderer struct {
	baseDir string

	// injected resources
	fontBlobs map[string][]byte // by unique name

	// drawMu 串行化测量与绘制，字体面不在多个 goroutine 间共享
	drawMu sync.Mutex

	fontMu       sync.Mutex
	fontFamilies map[string]*fontFamilyEntry
}

var (
	_ renderer.Renderer       = (*Renderer)(nil)
	_ renderer.VectorRenderer = (*Renderer)(nil)
	_ layout.Typesetter       = (*Renderer)(nil)
)

// fontFamilyEntry 记录一个字体来源已加载与加载失败的变体。
type fontFamilyEntry struct {
	family *canvas.FontFamily
	loaded map[canvas.FontStyle]bool
	failed map[canvas.FontStyle]error
}

// Options configures the canvas renderer.
type Options struct {
	BaseDir string
	Fonts   map[string]Resource // extra fonts addressable by name, e.g. "built-in:Hack" or "Hack"
}

// Resource can be provided either by Bytes or by Path.
type Resource struct {
	Bytes []byte
	Path  string
}

// NewRenderer creates a canvas-based renderer rooted at baseDir for resolving font paths.
func NewRenderer(baseDir string) *Renderer { return NewRendererWithOptions(Options{BaseDir: baseDir}) }

// NewRendererWithOptions creates a renderer with injected fonts and optional baseDir.
func NewRendererWithOptions(opts Options) *Renderer {
	r := &Renderer{
		baseDir:      opts.BaseDir,
		fontBlobs:    map[string][]byte{},
		fontFamilies: map[string]*fontFamilyEntry{},
	}
	log := logging.Component(logging.ComponentFonts)
	for name, res := range opts.Fonts {
		if name == "" {
			continue
		}
		if len(res.Bytes) > 0 {
			r.fontBlobs[name] = res.Bytes
			continue
		}
		if res.Path != "" {
			data, err := os.ReadFile(res.Path)
			if err != nil {
				// 使用时会报 ErrFontUnavailable
				log.Debug("注入字体读取失败", "name", name, logging.Err(err))
				continue
			}
			r.fontBlobs[name] = data
		}
	}
	return r
}

// Metrics 实现 layout.Typesetter，返回主字体常规体的纵向度量（px）。
func (r *Renderer) Metrics(fonts []layout.FontResource) (layout.FontMetrics, error) {
	r.drawMu.Lock()
	defer r.drawMu.Unlock()

	faces, err := r.faces(fonts, 1, layout.Color{A: 255}, false, false)
	if err != nil {
		return layout.FontMetrics{}, err
	}
	m := faces[0].Metrics()
	return layout.FontMetrics{Ascent: m.Ascent, Descent: m.Descent, LineHeight: m.LineHeight}, nil
}

// TextWidth 实现 layout.Typesetter。主字体缺字的字符按字体列表顺序回退。
func (r *Renderer) TextWidth(text string, fonts []layout.FontResource, bold, italic bool) (float64, error) {
	r.drawMu.Lock()
	defer r.drawMu.Unlock()

	faces, err := r.faces(fonts, 1, layout.Color{A: 255}, bold, italic)
	if err != nil {
		return 0, err
	}
	w := 0.0
	for _, run := range splitRuns(text, faces) {
		w += faces[run.face].TextWidth(run.text)
	}
	return w, nil
}

// Render 把代码窗口栅格化为 RGBA 图像，窗口以外（圆角外侧）保持透明。
func (r *Renderer) Render(result *layout.Result) (*image.RGBA, error) {
	if result == nil {
		return nil, fmt.Errorf("渲染结果为空")
	}
	if result.Width <= 0 || result.Height <= 0 {
		return nil, fmt.Errorf("窗口尺寸无效: %gx%g", result.Width, result.Height)
	}
	r.drawMu.Lock()
	defer r.drawMu.Unlock()

	c := canvas.New(result.Width, result.Height)
	ctx := canvas.NewContext(c)
	ctx.SetCoordSystem(canvas.CartesianIV) // 使坐标与布局保持左上角为原点
	if err := r.drawWindow(ctx, result, 0, 0); err != nil {
		return nil, err
	}
	img := rasterizer.Draw(c, canvas.DPMM(pixelsPerUnit), canvas.DefaultColorSpace)

	logging.Component(logging.ComponentRenderer).Debug("窗口栅格化完成",
		"width", img.Bounds().Dx(), "height", img.Bounds().Dy(), "lines", len(result.Lines))
	return img, nil
}

// RenderVector 输出带外围留白的矢量文档。矢量输出不绘制模糊投影。
func (r *Renderer) RenderVector(result *layout.Result, w io.Writer, format encode.Format) error {
	if result == nil {
		return fmt.Errorf("渲染结果为空")
	}
	if !format.IsVector() {
		return fmt.Errorf("%w: %s 不是矢量格式", encode.ErrUnsupportedFormat, format)
	}
	r.drawMu.Lock()
	defer r.drawMu.Unlock()

	padH, padV := result.Padding.Horiz, result.Padding.Vert
	width := result.Width + 2*padH
	height := result.Height + 2*padV

	c := canvas.New(width, height)
	ctx := canvas.NewContext(c)
	ctx.SetCoordSystem(canvas.CartesianIV)
	if padH > 0 || padV > 0 {
		ctx.SetStrokeColor(color.RGBA{0, 0, 0, 0})
		ctx.SetFillColor(colorFromLayout(result.Padding.Background))
		ctx.DrawPath(0, 0, canvas.Rectangle(width, height))
	}
	if err := r.drawWindow(ctx, result, padH, padV); err != nil {
		return err
	}

	switch format {
	case encode.PDF:
		writer := pdf.New(w, width, height, nil)
		r.applyMeta(writer, result.Meta)
		c.RenderTo(writer)
		if err := writer.Close(); err != nil {
			return fmt.Errorf("写入 PDF 失败: %w", err)
		}
	case encode.SVG:
		writer := svg.New(w, width, height, nil)
		c.RenderTo(writer)
		if err := writer.Close(); err != nil {
			return fmt.Errorf("写入 SVG 失败: %w", err)
		}
	}
	return nil
}

func (r *Renderer) applyMeta(writer *pdf.PDF, meta layout.DocumentMeta) {
	if writer == nil {
		return
	}
	writer.SetInfo(meta.Title, "", "", "", meta.Creator)
}

// drawWindow 以 (ox, oy) 为窗口左上角绘制整个代码窗口。
func (r *Renderer) drawWindow(ctx *canvas.Context, res *layout.Result, ox, oy float64) error {
	ctx.SetStrokeColor(color.RGBA{0, 0, 0, 0})
	ctx.SetFillColor(colorFromLayout(res.Palette.Background))
	if res.Corner > 0 {
		ctx.DrawPath(ox, oy, canvas.RoundedRectangle(res.Width, res.Height, res.Corner))
	} else {
		ctx.DrawPath(ox, oy, canvas.Rectangle(res.Width, res.Height))
	}

	// 高亮行在文字之前绘制
	for _, ln := range res.Lines {
		if ln.Highlight == nil {
			continue
		}
		r.drawRect(ctx, *ln.Highlight, ox, oy)
	}

	if bar := res.TitleBar; bar != nil {
		for _, c := range bar.Controls {
			ctx.SetFillColor(colorFromLayout(c.FillColor))
			ctx.DrawPath(ox+c.CX, oy+c.CY, canvas.Circle(c.R))
		}
		if bar.Title != nil {
			if err := r.drawTextBox(ctx, *bar.Title, res.Fonts, ox, oy); err != nil {
				return err
			}
		}
	}

	for _, ln := range res.Lines {
		if ln.Label != nil {
			if err := r.drawTextBox(ctx, *ln.Label, res.Fonts, ox, oy); err != nil {
				return err
			}
		}
		for _, span := range ln.Spans {
			if err := r.drawSpan(ctx, span, ln, res.Fonts, ox, oy); err != nil {
				return err
			}
		}
	}
	return nil
}

func (r *Renderer) drawRect(ctx *canvas.Context, rc layout.Rect, ox, oy float64) {
	ctx.SetStrokeColor(color.RGBA{0, 0, 0, 0})
	ctx.SetFillColor(colorFromLayout(rc.FillColor))
	ctx.DrawPath(ox+rc.X, oy+rc.Y, canvas.Rectangle(rc.Width, rc.Height))
}

func (r *Renderer) drawSpan(ctx *canvas.Context, span layout.PlacedSpan, line layout.CodeLine, fonts []layout.FontResource, ox, oy float64) error {
	if span.Background != nil {
		r.drawRect(ctx, layout.Rect{X: span.X, Y: line.Y, Width: span.Width, Height: line.Height, FillColor: *span.Background}, ox, oy)
	}
	faces, err := r.faces(fonts, 1, span.Color, span.Bold, span.Italic)
	if err != nil {
		return err
	}
	r.drawRuns(ctx, ox+span.X, oy+line.Baseline, span.Text, faces)

	if span.Underline && len(fonts) > 0 {
		size := fonts[0].Size
		r.drawRect(ctx, layout.Rect{
			X:         span.X,
			Y:         line.Baseline + size*underlineOffset,
			Width:     span.Width,
			Height:    size * underlineWidth,
			FillColor: span.Color,
		}, ox, oy)
	}
	return nil
}

// drawTextBox 按对齐方式绘制单行文本，字号相对主字体等比缩放。
func (r *Renderer) drawTextBox(ctx *canvas.Context, tb layout.TextBox, fonts []layout.FontResource, ox, oy float64) error {
	scale := 1.0
	if len(fonts) > 0 && fonts[0].Size > 0 && tb.FontSize > 0 {
		scale = tb.FontSize / fonts[0].Size
	}
	faces, err := r.faces(fonts, scale, tb.Color, false, false)
	if err != nil {
		return err
	}

	width := 0.0
	runs := splitRuns(tb.Content, faces)
	for _, run := range runs {
		width += faces[run.face].TextWidth(run.text)
	}

	// 处理水平对齐：left（默认）/center/right。
	x := tb.X
	switch strings.ToLower(tb.Align) {
	case "center":
		x = tb.X + (tb.Width-width)/2
	case "right", "end":
		x = tb.X + tb.Width - width
	}
	r.drawRuns(ctx, ox+x, oy+tb.Baseline, tb.Content, faces)
	return nil
}

// drawRuns 从 (x, baseline) 起左对齐绘制文本，缺字部分使用回退字体。
func (r *Renderer) drawRuns(ctx *canvas.Context, x, baseline float64, text string, faces []*canvas.FontFace) {
	for _, run := range splitRuns(text, faces) {
		face := faces[run.face]
		ctx.DrawText(x, baseline, canvas.NewTextLine(face, run.text, canvas.Left))
		x += face.TextWidth(run.text)
	}
}

// faces 为字体列表中的每个字体创建字体面。主字体不可用时报错，回退字体不可用时跳过。
func (r *Renderer) faces(fonts []layout.FontResource, scale float64, col layout.Color, bold, italic bool) ([]*canvas.FontFace, error) {
	if len(fonts) == 0 {
		return nil, fmt.Errorf("%w: 字体列表为空", ErrFontUnavailable)
	}
	out := make([]*canvas.FontFace, 0, len(fonts))
	for i, font := range fonts {
		face, err := r.fontFace(font, font.Size*scale, col, bold, italic)
		if err != nil {
			if i == 0 {
				return nil, err
			}
			logging.Component(logging.ComponentFonts).Debug("回退字体不可用，已跳过", "font", font.Name, logging.Err(err))
			continue
		}
		out = append(out, face)
	}
	return out, nil
}

func (r *Renderer) fontFace(font layout.FontResource, sizePx float64, col layout.Color, bold, italic bool) (*canvas.FontFace, error) {
	r.fontMu.Lock()
	defer r.fontMu.Unlock()

	entry := r.ensureFontFamily(font)
	style := fontStyle(bold, italic)
	if err := r.loadStyle(entry, font, style); err != nil {
		if style == canvas.FontRegular {
			return nil, err
		}
		// 缺少粗体/斜体变体时退回常规体
		style = canvas.FontRegular
		if err := r.loadStyle(entry, font, style); err != nil {
			return nil, err
		}
	}
	// 字号：px 与画布单位一致，创建字体面需要 pt
	return entry.family.Face(toPt(sizePx), colorFromLayout(col), style, canvas.FontNormal), nil
}

func (r *Renderer) ensureFontFamily(font layout.FontResource) *fontFamilyEntry {
	key := fontCacheKey(font)
	if entry, ok := r.fontFamilies[key]; ok {
		return entry
	}
	name := font.Name
	if name == "" {
		name = font.Src
	}
	entry := &fontFamilyEntry{
		family: canvas.NewFontFamily(name),
		loaded: map[canvas.FontStyle]bool{},
		failed: map[canvas.FontStyle]error{},
	}
	r.fontFamilies[key] = entry
	return entry
}

func (r *Renderer) loadStyle(entry *fontFamilyEntry, font layout.FontResource, style canvas.FontStyle) error {
	if entry.loaded[style] {
		return nil
	}
	if err, ok := entry.failed[style]; ok {
		return err
	}
	err := r.loadFontIntoFamily(entry.family, font, style)
	if err != nil {
		err = fmt.Errorf("%w: %s (%s): %w", ErrFontUnavailable, fontSource(font), styleName(style), err)
		entry.failed[style] = err
		return err
	}
	entry.loaded[style] = true
	logging.Component(logging.ComponentFonts).Debug("字体已加载", "font", fontSource(font), "style", styleName(style))
	return nil
}

// loadFontIntoFamily 依次尝试注入资源、内置字体、字体文件与系统字体。
func (r *Renderer) loadFontIntoFamily(family *canvas.FontFamily, font layout.FontResource, style canvas.FontStyle) error {
	src := fontSource(font)
	name := strings.TrimPrefix(strings.TrimPrefix(src, "built-in:"), "builtin:")
	if blob, ok := r.fontBlobs[name]; ok {
		if style != canvas.FontRegular {
			return fmt.Errorf("注入字体 %s 只有常规体", name)
		}
		return family.LoadFont(blob, 0, style)
	}
	if name != src {
		return fmt.Errorf("找不到内置字体资源 built-in:%s", name)
	}
	if fonts.IsBuiltin(src) {
		data, err := fonts.Load(src, builtinStyle(style))
		if err != nil {
			return err
		}
		return family.LoadFont(data, 0, style)
	}
	if looksLikeFontFile(src) {
		if style != canvas.FontRegular {
			return fmt.Errorf("字体文件 %s 只提供常规体", src)
		}
		path := src
		if !filepath.IsAbs(path) && r.baseDir != "" {
			path = filepath.Join(r.baseDir, path)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		return family.LoadFont(data, 0, style)
	}
	return family.LoadSystemFont(src, style)
}

type textRun struct {
	text string
	face int // faces 中的下标
}

// splitRuns 把文本切成连续的片段，每段使用第一个包含其字形的字体。
func splitRuns(text string, faces []*canvas.FontFace) []textRun {
	if text == "" {
		return nil
	}
	if len(faces) == 1 {
		return []textRun{{text: text}}
	}
	var runs []textRun
	var b strings.Builder
	current := -1
	for _, ch := range text {
		idx := 0
		for i, face := range faces {
			if hasGlyph(face, ch) {
				idx = i
				break
			}
		}
		if idx != current && b.Len() > 0 {
			runs = append(runs, textRun{text: b.String(), face: current})
			b.Reset()
		}
		current = idx
		b.WriteRune(ch)
	}
	if b.Len() > 0 {
		runs = append(runs, textRun{text: b.String(), face: current})
	}
	return runs
}

func hasGlyph(face *canvas.FontFace, ch rune) bool {
	if face == nil || face.Font == nil || face.Font.SFNT == nil {
		return false
	}
	return face.Font.SFNT.GlyphIndex(ch) != 0
}

func looksLikeFontFile(src string) bool {
	if fontFileExts[strings.ToLower(filepath.Ext(src))] {
		return true
	}
	return strings.ContainsRune(src, filepath.Separator) || strings.ContainsRune(src, '/')
}

func fontSource(font layout.FontResource) string {
	if font.Src != "" {
		return font.Src
	}
	return font.Name
}

func fontStyle(bold, italic bool) canvas.FontStyle {
	style := canvas.FontRegular
	if bold {
		style = canvas.FontBold
	}
	if italic {
		style |= canvas.FontItalic
	}
	return style
}

func builtinStyle(style canvas.FontStyle) fonts.Style {
	return fonts.StyleOf(style&^canvas.FontItalic == canvas.FontBold, style&canvas.FontItalic != 0)
}

func styleName(style canvas.FontStyle) string {
	return builtinStyle(style).String()
}

func fontCacheKey(font layout.FontResource) string {
	return strings.ToLower(fmt.Sprintf("%s|%s", font.Name, font.Src))
}

func colorFromLayout(c layout.Color) color.Color {
	return canvas.RGBA(float64(c.R)/255.0, float64(c.G)/255.0, float64(c.B)/255.0, float64(c.A)/255.0)
}

// toPt 将像素（画布单位）转换为点(pt)。
func toPt(px float64) float64 { return px * layout.MmToPt }
