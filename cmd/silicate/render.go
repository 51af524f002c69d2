package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"github.com/ByLCY/silicate"
	"github.com/ByLCY/silicate/binding"
	"github.com/ByLCY/silicate/dsl"
	"github.com/ByLCY/silicate/encode"
	"github.com/ByLCY/silicate/layout"
	"github.com/ByLCY/silicate/logging"
)

// renderFlags 对应 render 子命令的参数，只有显式设置的参数才会覆盖配置。
type renderFlags struct {
	output  string
	outDir  string
	fontDir string
	debug   bool
	jobs    int

	language         string
	theme            string
	font             string
	noLineNumber     bool
	noWindowControls bool
	noRoundCorner    bool
	windowTitle      string
	background       string
	shadowColor      string
	shadowBlurRadius float64
	shadowOffsetX    int
	shadowOffsetY    int
	padHoriz         int
	padVert          int
	highlightLines   string
	tabWidth         int
	lineOffset       int
	linePad          float64
	format           string
	grayscale        int
}

// job 是一个待渲染的输入。path 为空表示标准输入。
type job struct {
	path   string
	source string
	output string
}

func newRenderCmd(root *rootFlags) *cobra.Command {
	return renderCommand(root, &renderFlags{})
}

func renderCommand(root *rootFlags, f *renderFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "render [files...]",
		Short: "Render source files (or stdin) into images",
		Long: `Render one or more source files into images. Without file arguments the
source is read from stdin and --output is required.

The output format follows the output file extension: png, jpg/jpeg, gif,
bmp, tif/tiff, pdf or svg. When --output is omitted each file is written to
<stem>.<format> in --out-dir (default: the current directory).

The window title may reference ${file.name}, ${file.stem}, ${file.ext},
${file.dir}, ${file.path}, ${language} and ${theme}; use ${name|default}
to supply a fallback.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRender(cmd, root, f, args)
		},
	}

	fs := cmd.Flags()
	fs.StringVarP(&f.output, "output", "o", "", "输出文件路径，仅限单个输入")
	fs.StringVar(&f.outDir, "out-dir", "", "多个输入时的输出目录")
	fs.StringVar(&f.fontDir, "font-dir", "", "解析字体相对路径的目录")
	fs.BoolVar(&f.debug, "debug", false, "同时输出 <output>.layout.json 布局调试文件")
	fs.IntVarP(&f.jobs, "jobs", "j", runtime.NumCPU(), "并发渲染数")

	fs.StringVarP(&f.language, "language", "l", "", "语言名称、别名或扩展名（默认按文件名推断）")
	fs.StringVar(&f.theme, "theme", "", "主题名称")
	fs.StringVarP(&f.font, "font", "f", "", `字体列表，例如 "Hack=26; Noto Sans CJK SC"`)
	fs.BoolVar(&f.noLineNumber, "no-line-number", false, "不显示行号")
	fs.BoolVar(&f.noWindowControls, "no-window-controls", false, "不显示窗口按钮")
	fs.BoolVar(&f.noRoundCorner, "no-round-corner", false, "窗口不使用圆角")
	fs.StringVar(&f.windowTitle, "window-title", "", "窗口标题，支持 ${file.name} 等占位符")
	fs.StringVarP(&f.background, "background", "b", "", "留白背景色 #rrggbb[aa]")
	fs.StringVar(&f.shadowColor, "shadow-color", "", "投影颜色 #rrggbb[aa]")
	fs.Float64Var(&f.shadowBlurRadius, "shadow-blur-radius", 0, "投影模糊半径")
	fs.IntVar(&f.shadowOffsetX, "shadow-offset-x", 0, "投影水平偏移")
	fs.IntVar(&f.shadowOffsetY, "shadow-offset-y", 0, "投影垂直偏移")
	fs.IntVar(&f.padHoriz, "pad-horiz", 0, "水平留白")
	fs.IntVar(&f.padVert, "pad-vert", 0, "垂直留白")
	fs.StringVar(&f.highlightLines, "highlight-lines", "", `高亮行，例如 "1;3-4"`)
	fs.IntVar(&f.tabWidth, "tab-width", 0, "制表符宽度")
	fs.IntVar(&f.lineOffset, "line-offset", 0, "首行行号")
	fs.Float64Var(&f.linePad, "line-pad", 0, "行间距")
	fs.StringVar(&f.format, "format", "", "未指定 --output 时的输出格式（默认 png）")
	fs.IntVar(&f.grayscale, "grayscale", 0, "抖动为 1/2/4/8 位灰度")
	return cmd
}

func runRender(cmd *cobra.Command, root *rootFlags, f *renderFlags, args []string) error {
	base, err := root.file.Options()
	if err != nil {
		return fmt.Errorf("%w: 配置: %w", errUsage, err)
	}
	if err := f.apply(cmd.Flags(), &base); err != nil {
		return fmt.Errorf("%w: %w", errUsage, err)
	}
	// 语言是否由用户指定，未指定时逐个文件推断
	explicitLanguage := base.Language != ""

	jobs, err := f.collect(cmd.InOrStdin(), args, base.Format)
	if err != nil {
		return err
	}

	engine := silicate.NewEngine(silicate.EngineOptions{FontDir: f.fontDir})
	log := logging.Component(logging.ComponentCLI)
	out := cmd.OutOrStdout()

	g, ctx := errgroup.WithContext(cmd.Context())
	g.SetLimit(max(f.jobs, 1))
	for _, j := range jobs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			opts := base
			opts.HighlightLines = append([]int(nil), base.HighlightLines...)
			if !explicitLanguage {
				opts.Language = engine.DetectLanguage(j.path, j.source)
			}
			opts.WindowTitle = renderTitle(base.WindowTitle, j.path, opts)

			if err := renderJob(ctx, engine, j, opts, f.debug); err != nil {
				log.Error("渲染失败", "input", displayName(j.path), logging.Err(err))
				return fmt.Errorf("%s: %w", displayName(j.path), err)
			}
			color.New(color.FgGreen).Fprintf(out, "已生成 %s\n", j.output)
			return nil
		})
	}
	return g.Wait()
}

func renderJob(ctx context.Context, engine *silicate.Engine, j job, opts silicate.Options, debug bool) error {
	if debug {
		res, err := engine.Layout(j.source, opts)
		if err != nil {
			return err
		}
		if err := layout.WriteDebugJSON(res, j.output+".layout.json"); err != nil {
			return fmt.Errorf("%w: 输出调试 JSON 失败: %w", silicate.ErrIO, err)
		}
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return engine.ToFile(j.source, opts, j.output)
}

// collect 读取输入并确定每个输入的输出路径。
func (f *renderFlags) collect(stdin io.Reader, args []string, format string) ([]job, error) {
	if len(args) == 0 {
		if f.output == "" {
			return nil, fmt.Errorf("%w: 从标准输入读取时必须指定 --output", errUsage)
		}
		data, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("%w: 读取标准输入失败: %w", silicate.ErrIO, err)
		}
		return []job{{source: string(data), output: f.output}}, nil
	}
	if f.output != "" && len(args) > 1 {
		return nil, fmt.Errorf("%w: --output 只能用于单个输入，多个输入请使用 --out-dir", errUsage)
	}

	jobs := make([]job, 0, len(args))
	seen := make(map[string]string, len(args))
	for _, path := range args {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("%w: 读取 %s 失败: %w", silicate.ErrIO, path, err)
		}
		output := f.output
		if output == "" {
			if output, err = outputPath(path, f.outDir, format); err != nil {
				return nil, err
			}
		}
		if prev, ok := seen[output]; ok {
			return nil, fmt.Errorf("%w: %s 与 %s 的输出路径相同: %s", errUsage, prev, path, output)
		}
		seen[output] = path
		jobs = append(jobs, job{path: path, source: string(data), output: output})
	}
	return jobs, nil
}

// outputPath 返回 <outDir>/<stem>.<format>。
func outputPath(input, outDir, format string) (string, error) {
	ft, err := encode.ParseFormat(format)
	if err != nil {
		return "", fmt.Errorf("%w: %w", errUsage, err)
	}
	name := filepath.Base(input)
	stem := strings.TrimSuffix(name, filepath.Ext(name))
	return filepath.Join(outDir, stem+"."+ft.String()), nil
}

// apply 把显式设置的命令行参数写入 opts。
func (f *renderFlags) apply(fs *pflag.FlagSet, opts *silicate.Options) error {
	changed := fs.Changed
	if changed("language") {
		opts.Language = f.language
	}
	if changed("theme") {
		opts.Theme = f.theme
	}
	if changed("font") {
		specs, err := dsl.ParseFonts(f.font)
		if err != nil {
			return err
		}
		opts.Fonts = opts.Fonts[:0:0]
		for _, s := range specs {
			opts.Fonts = append(opts.Fonts, silicate.FontSpec{Name: s.Name, Size: s.Size})
		}
	}
	if changed("no-line-number") {
		opts.ShowLineNumbers = silicate.Bool(!f.noLineNumber)
	}
	if changed("no-window-controls") {
		opts.ShowWindowControls = silicate.Bool(!f.noWindowControls)
	}
	if changed("no-round-corner") {
		opts.RoundCorner = silicate.Bool(!f.noRoundCorner)
	}
	if changed("window-title") {
		opts.WindowTitle = f.windowTitle
	}
	if changed("background") {
		opts.Background = f.background
	}
	if changed("shadow-color") {
		opts.ShadowColor = f.shadowColor
	}
	if changed("shadow-blur-radius") {
		opts.ShadowBlurRadius = silicate.Float(f.shadowBlurRadius)
	}
	if changed("shadow-offset-x") {
		opts.ShadowOffsetX = f.shadowOffsetX
	}
	if changed("shadow-offset-y") {
		opts.ShadowOffsetY = f.shadowOffsetY
	}
	if changed("pad-horiz") {
		opts.PadHoriz = silicate.Int(f.padHoriz)
	}
	if changed("pad-vert") {
		opts.PadVert = silicate.Int(f.padVert)
	}
	if changed("highlight-lines") {
		lines, err := dsl.ParseLineRanges(f.highlightLines)
		if err != nil {
			return err
		}
		opts.HighlightLines = lines
	}
	if changed("tab-width") {
		opts.TabWidth = f.tabWidth
	}
	if changed("line-offset") {
		opts.LineOffset = f.lineOffset
	}
	if changed("line-pad") {
		opts.LinePad = silicate.Float(f.linePad)
	}
	if changed("format") {
		opts.Format = f.format
	}
	if changed("grayscale") {
		opts.Grayscale = f.grayscale
	}
	return nil
}

// renderTitle 展开标题模板，找不到的占位符原样保留。
func renderTitle(tmpl, path string, opts silicate.Options) string {
	if tmpl == "" {
		return ""
	}
	language := opts.Language
	if language == "" {
		language = silicate.DefaultLanguage
	}
	theme := opts.Theme
	if theme == "" {
		theme = silicate.DefaultTheme
	}
	data := binding.TitleData(path, language, theme)
	if missing := binding.Unresolved(tmpl, data); len(missing) > 0 {
		logging.Component(logging.ComponentCLI).Warn("标题中有无法解析的占位符", "title", tmpl, "missing", missing)
	}
	return binding.Interpolate(tmpl, data)
}

func displayName(path string) string {
	if path == "" {
		return "<stdin>"
	}
	return path
}
