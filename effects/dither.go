package effects

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"github.com/makeworld-the-better-one/dither/v2"
)

// GrayPalette 返回 bits 位（1/2/4/8）均匀分布的灰阶调色板。
func GrayPalette(bits int) (color.Palette, error) {
	switch bits {
	case 1, 2, 4, 8:
	default:
		return nil, fmt.Errorf("不支持的灰度位深: %d", bits)
	}
	levels := 1 << bits
	palette := make(color.Palette, levels)
	for i := range palette {
		palette[i] = color.Gray{Y: uint8(i * 255 / (levels - 1))}
	}
	return palette, nil
}

// Dither 用 Floyd-Steinberg 抖动把图像转换为 bits 位灰度的调色板图像。
func Dither(img image.Image, bits int) (*image.Paletted, error) {
	palette, err := GrayPalette(bits)
	if err != nil {
		return nil, err
	}
	d := dither.NewDitherer(palette)
	d.Matrix = dither.FloydSteinberg

	out := d.Dither(img)
	if out == nil {
		return nil, fmt.Errorf("灰度抖动失败")
	}
	if p, ok := out.(*image.Paletted); ok {
		return p, nil
	}
	p := image.NewPaletted(out.Bounds(), palette)
	draw.Draw(p, p.Bounds(), out, out.Bounds().Min, draw.Src)
	return p, nil
}
