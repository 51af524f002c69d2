// Package encode turns rendered images into file formats and writes them to disk.
package encode

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

var ErrUnsupportedFormat = errors.New("unsupported output format")

// Format 是输出编码格式。
type Format int

const (
	PNG Format = iota
	JPEG
	GIF
	BMP
	TIFF
	PDF
	SVG
)

var formatNames = [...]string{
	PNG:  "png",
	JPEG: "jpeg",
	GIF:  "gif",
	BMP:  "bmp",
	TIFF: "tiff",
	PDF:  "pdf",
	SVG:  "svg",
}

// 扩展名（不含点）到格式的映射。
var extensionFormats = map[string]Format{
	"png":  PNG,
	"jpg":  JPEG,
	"jpeg": JPEG,
	"gif":  GIF,
	"bmp":  BMP,
	"tif":  TIFF,
	"tiff": TIFF,
	"pdf":  PDF,
	"svg":  SVG,
}

func (f Format) String() string {
	if f < 0 || int(f) >= len(formatNames) {
		return fmt.Sprintf("Format(%d)", int(f))
	}
	return formatNames[f]
}

// IsVector 报告该格式是否由矢量后端直接输出。
func (f Format) IsVector() bool { return f == PDF || f == SVG }

// MIMEType 返回格式对应的媒体类型。
func (f Format) MIMEType() string {
	switch f {
	case JPEG:
		return "image/jpeg"
	case GIF:
		return "image/gif"
	case BMP:
		return "image/bmp"
	case TIFF:
		return "image/tiff"
	case PDF:
		return "application/pdf"
	case SVG:
		return "image/svg+xml"
	default:
		return "image/png"
	}
}

// ParseFormat 按名称（或扩展名）解析格式，大小写不敏感，可带前导点。空字符串视为 PNG。
func ParseFormat(name string) (Format, error) {
	name = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(name), "."))
	if name == "" {
		return PNG, nil
	}
	if f, ok := extensionFormats[name]; ok {
		return f, nil
	}
	return PNG, fmt.Errorf("%w: %q", ErrUnsupportedFormat, name)
}

// FormatFromPath 根据文件扩展名推断格式。没有扩展名或扩展名未知时返回错误。
func FormatFromPath(path string) (Format, error) {
	ext := filepath.Ext(path)
	if ext == "" || ext == "." {
		return PNG, fmt.Errorf("%w: %s 没有扩展名", ErrUnsupportedFormat, filepath.Base(path))
	}
	return ParseFormat(ext)
}
