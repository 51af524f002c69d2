package renderer

import (
	"image"
	"io"

	"github.com/ByLCY/silicate/encode"
	"github.com/ByLCY/silicate/layout"
)

// Renderer 将布局结果栅格化为代码窗口图像（不含外围留白与投影）。
type Renderer interface {
	Render(result *layout.Result) (*image.RGBA, error)
}

// VectorRenderer 将布局结果连同外围留白直接输出为矢量格式，例如 PDF 或 SVG。
type VectorRenderer interface {
	RenderVector(result *layout.Result, w io.Writer, format encode.Format) error
}
