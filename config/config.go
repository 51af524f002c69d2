// Package config loads default render options for the command line from a
// YAML file, a .env file and SILICATE_* environment variables.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/ByLCY/silicate"
	"github.com/ByLCY/silicate/dsl"
	"github.com/ByLCY/silicate/logging"
)

// File 是配置文件与环境变量共同的结构。nil 字段表示未设置。
type File struct {
	Language         *string  `yaml:"language"`
	Theme            *string  `yaml:"theme"`
	Font             *string  `yaml:"font"` // 字体列表，例如 "Hack=26; Noto Sans CJK SC"
	LineNumbers      *bool    `yaml:"line_numbers"`
	WindowControls   *bool    `yaml:"window_controls"`
	RoundCorner      *bool    `yaml:"round_corner"`
	WindowTitle      *string  `yaml:"window_title"`
	Background       *string  `yaml:"background"`
	ShadowColor      *string  `yaml:"shadow_color"`
	ShadowBlurRadius *float64 `yaml:"shadow_blur_radius"`
	ShadowOffsetX    *int     `yaml:"shadow_offset_x"`
	ShadowOffsetY    *int     `yaml:"shadow_offset_y"`
	PadHoriz         *int     `yaml:"pad_horiz"`
	PadVert          *int     `yaml:"pad_vert"`
	HighlightLines   *string  `yaml:"highlight_lines"` // 例如 "1;3-4"
	TabWidth         *int     `yaml:"tab_width"`
	LineOffset       *int     `yaml:"line_offset"`
	LinePad          *float64 `yaml:"line_pad"`
	Grayscale        *int     `yaml:"grayscale"`
	LogLevel         *string  `yaml:"log_level"`
}

// DefaultPath 返回默认配置文件路径：$XDG_CONFIG_HOME/silicate/config.yaml，
// 未设置 XDG_CONFIG_HOME 时使用系统的用户配置目录。
func DefaultPath() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		var err error
		if dir, err = os.UserConfigDir(); err != nil {
			return ""
		}
	}
	return filepath.Join(dir, "silicate", "config.yaml")
}

// Load 读取 YAML 配置文件。path 为空时读取 DefaultPath()，且默认文件不存在不算错误。
// 文件内容中的 ${VAR} 会按环境变量展开，未知字段视为错误。
func Load(path string) (File, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultPath()
		if path == "" {
			return File{}, nil
		}
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if !explicit && errors.Is(err, os.ErrNotExist) {
			return File{}, nil
		}
		return File{}, fmt.Errorf("读取配置文件 %s 失败: %w", path, err)
	}
	data = []byte(os.ExpandEnv(string(data)))

	var f File
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return File{}, fmt.Errorf("解析配置文件 %s 失败: %w", path, err)
	}
	logging.Component(logging.ComponentConfig).Debug("配置文件已加载", "path", path)
	return f, nil
}

// FromEnv 从 SILICATE_* 环境变量读取配置，支持 _FILE 间接引用。
func FromEnv() (File, error) {
	var f File
	var errs []error
	str := func(name string) *string { return lookupString(EnvPrefix + name) }
	integer := func(name string) *int {
		v, err := lookupInt(EnvPrefix + name)
		errs = append(errs, err)
		return v
	}
	float := func(name string) *float64 {
		v, err := lookupFloat(EnvPrefix + name)
		errs = append(errs, err)
		return v
	}
	boolean := func(name string) *bool {
		v, err := lookupBool(EnvPrefix + name)
		errs = append(errs, err)
		return v
	}

	f.Language = str("LANGUAGE")
	f.Theme = str("THEME")
	f.Font = str("FONT")
	f.LineNumbers = boolean("LINE_NUMBERS")
	f.WindowControls = boolean("WINDOW_CONTROLS")
	f.RoundCorner = boolean("ROUND_CORNER")
	f.WindowTitle = str("WINDOW_TITLE")
	f.Background = str("BACKGROUND")
	f.ShadowColor = str("SHADOW_COLOR")
	f.ShadowBlurRadius = float("SHADOW_BLUR_RADIUS")
	f.ShadowOffsetX = integer("SHADOW_OFFSET_X")
	f.ShadowOffsetY = integer("SHADOW_OFFSET_Y")
	f.PadHoriz = integer("PAD_HORIZ")
	f.PadVert = integer("PAD_VERT")
	f.HighlightLines = str("HIGHLIGHT_LINES")
	f.TabWidth = integer("TAB_WIDTH")
	f.LineOffset = integer("LINE_OFFSET")
	f.LinePad = float("LINE_PAD")
	f.Grayscale = integer("GRAYSCALE")
	f.LogLevel = str("LOG_LEVEL")
	return f, errors.Join(errs...)
}

// Merge 返回以 base 为底、over 中已设置字段覆盖后的配置。
func Merge(base, over File) File {
	pick(&base.Language, over.Language)
	pick(&base.Theme, over.Theme)
	pick(&base.Font, over.Font)
	pick(&base.LineNumbers, over.LineNumbers)
	pick(&base.WindowControls, over.WindowControls)
	pick(&base.RoundCorner, over.RoundCorner)
	pick(&base.WindowTitle, over.WindowTitle)
	pick(&base.Background, over.Background)
	pick(&base.ShadowColor, over.ShadowColor)
	pick(&base.ShadowBlurRadius, over.ShadowBlurRadius)
	pick(&base.ShadowOffsetX, over.ShadowOffsetX)
	pick(&base.ShadowOffsetY, over.ShadowOffsetY)
	pick(&base.PadHoriz, over.PadHoriz)
	pick(&base.PadVert, over.PadVert)
	pick(&base.HighlightLines, over.HighlightLines)
	pick(&base.TabWidth, over.TabWidth)
	pick(&base.LineOffset, over.LineOffset)
	pick(&base.LinePad, over.LinePad)
	pick(&base.Grayscale, over.Grayscale)
	pick(&base.LogLevel, over.LogLevel)
	return base
}

func pick[T any](dst **T, v *T) {
	if v != nil {
		*dst = v
	}
}

// Resolve 依次加载 .env、YAML 配置文件与环境变量，环境变量优先于配置文件。
func Resolve(path string) (File, error) {
	// .env 不存在是常态，格式错误则报错
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return File{}, fmt.Errorf("加载 .env 失败: %w", err)
	}

	file, err := Load(path)
	if err != nil {
		return File{}, err
	}
	env, err := FromEnv()
	if err != nil {
		return File{}, err
	}
	return Merge(file, env), nil
}

// Options 把配置转换为渲染选项，未设置的字段保持零值（渲染时取默认值）。
func (f File) Options() (silicate.Options, error) {
	var o silicate.Options
	if f.Language != nil {
		o.Language = *f.Language
	}
	if f.Theme != nil {
		o.Theme = *f.Theme
	}
	if f.Font != nil {
		specs, err := dsl.ParseFonts(*f.Font)
		if err != nil {
			return o, err
		}
		for _, s := range specs {
			o.Fonts = append(o.Fonts, silicate.FontSpec{Name: s.Name, Size: s.Size})
		}
	}
	o.ShowLineNumbers = f.LineNumbers
	o.ShowWindowControls = f.WindowControls
	o.RoundCorner = f.RoundCorner
	if f.WindowTitle != nil {
		o.WindowTitle = *f.WindowTitle
	}
	if f.Background != nil {
		o.Background = *f.Background
	}
	if f.ShadowColor != nil {
		o.ShadowColor = *f.ShadowColor
	}
	o.ShadowBlurRadius = f.ShadowBlurRadius
	if f.ShadowOffsetX != nil {
		o.ShadowOffsetX = *f.ShadowOffsetX
	}
	if f.ShadowOffsetY != nil {
		o.ShadowOffsetY = *f.ShadowOffsetY
	}
	o.PadHoriz = f.PadHoriz
	o.PadVert = f.PadVert
	if f.HighlightLines != nil {
		lines, err := dsl.ParseLineRanges(*f.HighlightLines)
		if err != nil {
			return o, err
		}
		o.HighlightLines = lines
	}
	if f.TabWidth != nil {
		o.TabWidth = *f.TabWidth
	}
	if f.LineOffset != nil {
		o.LineOffset = *f.LineOffset
	}
	o.LinePad = f.LinePad
	if f.Grayscale != nil {
		o.Grayscale = *f.Grayscale
	}
	return o, nil
}
