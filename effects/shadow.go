// Package effects composes the rendered code window onto its final canvas.
package effects

import (
	"image"
	"image/color"
	"image/draw"
	"math"

	xdraw "golang.org/x/image/draw"
)

// blurPasses 次盒式模糊近似一次高斯模糊。
const blurPasses = 3

// ShadowOptions 描述窗口四周的留白与投影。
type ShadowOptions struct {
	Background color.Color
	Color      color.Color
	BlurRadius float64
	OffsetX    int
	OffsetY    int
	PadHoriz   int
	PadVert    int
}

// AddShadow 在背景上先画模糊投影，再把窗口叠在正中，返回新的图像。
// 投影形状取自窗口图像的 alpha 通道，因此圆角会被保留。
func AddShadow(window image.Image, opts ShadowOptions) *image.RGBA {
	wb := window.Bounds()
	padH, padV := max(opts.PadHoriz, 0), max(opts.PadVert, 0)
	bounds := image.Rect(0, 0, wb.Dx()+2*padH, wb.Dy()+2*padV)
	out := image.NewRGBA(bounds)

	if opts.Background != nil {
		draw.Draw(out, bounds, image.NewUniform(opts.Background), image.Point{}, draw.Src)
	}

	target := image.Rect(padH, padV, padH+wb.Dx(), padV+wb.Dy())
	if opts.Color != nil && !isTransparent(opts.Color) {
		mask := shadowMask(window, bounds, target.Add(image.Pt(opts.OffsetX, opts.OffsetY)), opts.BlurRadius)
		draw.DrawMask(out, bounds, image.NewUniform(opts.Color), image.Point{}, mask, image.Point{}, draw.Over)
	}

	draw.Draw(out, target, window, wb.Min, draw.Over)
	return out
}

// shadowMask 在半分辨率上模糊窗口轮廓，再放大回原尺寸。
func shadowMask(window image.Image, bounds, at image.Rectangle, radius float64) *image.Alpha {
	full := image.NewAlpha(bounds)
	draw.Draw(full, at, window, window.Bounds().Min, draw.Src)
	if radius < 1 {
		return full
	}

	small := image.NewAlpha(image.Rect(0, 0, (bounds.Dx()+1)/2, (bounds.Dy()+1)/2))
	xdraw.ApproxBiLinear.Scale(small, small.Bounds(), full, bounds, xdraw.Src, nil)
	BoxBlur(small, int(math.Round(radius/2)))

	mask := image.NewAlpha(bounds)
	xdraw.BiLinear.Scale(mask, bounds, small, small.Bounds(), xdraw.Src, nil)
	return mask
}

// BoxBlur 对 alpha 图像做 blurPasses 次水平加垂直的盒式模糊，原地修改。
func BoxBlur(a *image.Alpha, radius int) {
	if radius < 1 {
		return
	}
	w, h := a.Rect.Dx(), a.Rect.Dy()
	if w == 0 || h == 0 {
		return
	}
	tmp := make([]uint8, len(a.Pix))
	for pass := 0; pass < blurPasses; pass++ {
		blur1D(a.Pix, tmp, h, w, a.Stride, 1, radius)
		blur1D(tmp, a.Pix, w, h, 1, a.Stride, radius)
	}
}

// blur1D 用滑动窗口求和，对 lines 条长度为 length 的线做一维平均。窗口外按 0 计。
func blur1D(src, dst []uint8, lines, length, lineStep, pixStep, radius int) {
	div := 2*radius + 1
	for i := 0; i < lines; i++ {
		base := i * lineStep
		sum := 0
		for k := 0; k <= radius && k < length; k++ {
			sum += int(src[base+k*pixStep])
		}
		for j := 0; j < length; j++ {
			dst[base+j*pixStep] = uint8(sum / div)
			if in := j + radius + 1; in < length {
				sum += int(src[base+in*pixStep])
			}
			if out := j - radius; out >= 0 {
				sum -= int(src[base+out*pixStep])
			}
		}
	}
}

func isTransparent(c color.Color) bool {
	_, _, _, a := c.RGBA()
	return a == 0
}
