// Package silicate renders source code into images of a code window:
// syntax highlighting, line numbers, window controls, padding and a drop
// shadow, encoded as PNG, JPEG, GIF, BMP, TIFF, PDF or SVG.
//
// The package-level functions use a shared default Engine and are safe for
// concurrent use.
package silicate

import "sync"

// LanguageDescriptor 描述一种可高亮的语言。
type LanguageDescriptor struct {
	Name       string   `json:"name"`
	Aliases    []string `json:"aliases,omitempty"`
	Extensions []string `json:"extensions,omitempty"`
}

// ThemeDescriptor 描述一个主题。Background 为 #rrggbb 形式。
type ThemeDescriptor struct {
	Name       string `json:"name"`
	Background string `json:"background"`
	Dark       bool   `json:"dark"`
}

var defaultEngine = sync.OnceValue(func() *Engine {
	return NewEngine(EngineOptions{})
})

// Default 返回进程内共享的默认引擎。
func Default() *Engine { return defaultEngine() }

// Generate 把源码渲染为图像字节，编码格式由 opts.Format 决定（默认 PNG）。
func Generate(source string, opts Options) ([]byte, error) {
	return defaultEngine().Generate(source, opts)
}

// ToFile 把源码渲染后写入 path，格式由扩展名决定。
func ToFile(source string, opts Options, path string) error {
	return defaultEngine().ToFile(source, opts, path)
}

// ListLanguages 返回所有可高亮的语言。
func ListLanguages() ([]LanguageDescriptor, error) {
	return defaultEngine().ListLanguages()
}

// ListThemes 返回所有可用主题。
func ListThemes() ([]ThemeDescriptor, error) {
	return defaultEngine().ListThemes()
}
