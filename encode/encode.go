package encode

import (
	"bufio"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
)

const jpegQuality = 95

// Encode 把位图按指定格式写入 w。矢量格式由渲染器直接输出，这里返回 ErrUnsupportedFormat。
// 灰度调色板图像（抖动后的结果）写 PNG 时使用对应位深的灰度 PNG。
func Encode(w io.Writer, img image.Image, f Format) error {
	if img == nil {
		return fmt.Errorf("encode: 图像为空")
	}
	bw := bufio.NewWriter(w)
	var err error
	switch f {
	case PNG:
		if p, ok := img.(*image.Paletted); ok {
			if depth, gray := GrayBitDepth(p.Palette); gray {
				err = EncodeGrayPNG(bw, p, depth)
				break
			}
		}
		enc := png.Encoder{CompressionLevel: png.DefaultCompression}
		err = enc.Encode(bw, img)
	case JPEG:
		err = jpeg.Encode(bw, img, &jpeg.Options{Quality: jpegQuality})
	case GIF:
		err = gif.Encode(bw, img, &gif.Options{NumColors: 256})
	case BMP:
		err = bmp.Encode(bw, img)
	case TIFF:
		err = tiff.Encode(bw, img, &tiff.Options{Compression: tiff.Deflate, Predictor: true})
	default:
		return fmt.Errorf("%w: 无法以位图方式编码 %s", ErrUnsupportedFormat, f)
	}
	if err != nil {
		return fmt.Errorf("编码 %s 失败: %w", f, err)
	}
	return bw.Flush()
}
