// Package binding expands ${path} placeholders in window titles.
package binding

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
)

// ${path} 或 ${path|默认值}
var exprPattern = regexp.MustCompile(`\$\{([^}|]+)(?:\|([^}]*))?\}`)

// Interpolate 将文本中的 ${path.to.value} 替换为 data 中的值。
// 路径不存在时使用 | 之后的默认值；没有默认值则保留原占位符。
func Interpolate(text string, data any) string {
	return exprPattern.ReplaceAllStringFunc(text, func(match string) string {
		groups := exprPattern.FindStringSubmatch(match)
		path := strings.TrimSpace(groups[1])
		if path != "" && data != nil {
			if val, ok := resolvePath(data, path); ok {
				return fmt.Sprint(val)
			}
		}
		if strings.Contains(match, "|") {
			return groups[2]
		}
		return match
	})
}

// Unresolved 返回文本中在 data 里找不到、也没有默认值的占位符路径。
func Unresolved(text string, data any) []string {
	var out []string
	for _, groups := range exprPattern.FindAllStringSubmatch(text, -1) {
		if strings.Contains(groups[0], "|") {
			continue
		}
		path := strings.TrimSpace(groups[1])
		if data != nil {
			if _, ok := resolvePath(data, path); ok {
				continue
			}
		}
		out = append(out, path)
	}
	return out
}

// TitleData 为一个待渲染的文件构造标题模板可用的数据：
// file.name、file.stem、file.ext、file.dir、file.path、language、theme。
// path 为空表示标准输入，此时 file.* 均不存在。
func TitleData(path, language, theme string) map[string]any {
	data := map[string]any{
		"language": language,
		"theme":    theme,
	}
	if path == "" {
		return data
	}
	base := filepath.Base(path)
	ext := filepath.Ext(base)
	data["file"] = map[string]any{
		"name": base,
		"stem": strings.TrimSuffix(base, ext),
		"ext":  strings.TrimPrefix(ext, "."),
		"dir":  filepath.Base(filepath.Dir(path)),
		"path": path,
	}
	return data
}

// resolvePath 按 "." 逐级查找嵌套的 map，任一段为空或缺失时返回 false。
func resolvePath(data any, path string) (any, bool) {
	current := data
	for _, key := range strings.Split(path, ".") {
		key = strings.TrimSpace(key)
		if key == "" {
			return nil, false
		}
		var ok bool
		switch c := current.(type) {
		case map[string]any:
			current, ok = c[key]
		case map[string]string:
			current, ok = c[key]
		}
		if !ok {
			return nil, false
		}
	}
	return current, true
}
