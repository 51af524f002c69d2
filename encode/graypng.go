package encode

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"image"
	"image/color"
	"io"
)

var pngSignature = []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}

// GrayBitDepth 判断调色板是否为 1/2/4/8 位均匀灰阶，并返回对应位深。
func GrayBitDepth(palette color.Palette) (int, bool) {
	depth := 0
	switch len(palette) {
	case 2:
		depth = 1
	case 4:
		depth = 2
	case 16:
		depth = 4
	case 256:
		depth = 8
	default:
		return 0, false
	}
	for _, c := range palette {
		r, g, b, a := c.RGBA()
		if r != g || g != b || a != 0xffff {
			return 0, false
		}
	}
	return depth, true
}

// EncodeGrayPNG 以 PNG 灰度类型（color type 0）和给定位深写出调色板图像。
// 每个像素取其调色板颜色的亮度并量化到该位深的灰阶上。
func EncodeGrayPNG(w io.Writer, img *image.Paletted, bitDepth int) error {
	if bitDepth != 1 && bitDepth != 2 && bitDepth != 4 && bitDepth != 8 {
		return fmt.Errorf("不支持的灰度位深: %d", bitDepth)
	}
	bounds := img.Bounds()

	var buf bytes.Buffer
	buf.Write(pngSignature)

	var ihdr bytes.Buffer
	_ = binary.Write(&ihdr, binary.BigEndian, uint32(bounds.Dx()))
	_ = binary.Write(&ihdr, binary.BigEndian, uint32(bounds.Dy()))
	ihdr.Write([]byte{byte(bitDepth), 0, 0, 0, 0})
	writeChunk(&buf, "IHDR", ihdr.Bytes())

	compressed, err := zlibCompress(packGray(img, bitDepth))
	if err != nil {
		return err
	}
	writeChunk(&buf, "IDAT", compressed)
	writeChunk(&buf, "IEND", nil)

	_, err = w.Write(buf.Bytes())
	return err
}

// packGray 按行打包像素，每行前置一个 None 过滤字节。
func packGray(img *image.Paletted, bitDepth int) []byte {
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	maxLevel := 1<<bitDepth - 1

	levels := make([]byte, len(img.Palette))
	for i, c := range img.Palette {
		y := color.GrayModel.Convert(c).(color.Gray).Y
		levels[i] = byte((int(y)*maxLevel + 127) / 255)
	}

	perByte := 8 / bitDepth
	stride := (width + perByte - 1) / perByte
	data := make([]byte, height*(stride+1))
	for y := 0; y < height; y++ {
		row := y * (stride + 1)
		for x := 0; x < width; x++ {
			level := levels[img.ColorIndexAt(bounds.Min.X+x, bounds.Min.Y+y)]
			shift := (perByte - 1 - x%perByte) * bitDepth
			data[row+1+x/perByte] |= level << shift
		}
	}
	return data
}

func writeChunk(buf *bytes.Buffer, chunkType string, data []byte) {
	_ = binary.Write(buf, binary.BigEndian, uint32(len(data)))
	buf.WriteString(chunkType)
	buf.Write(data)

	crc := crc32.NewIEEE()
	crc.Write([]byte(chunkType))
	crc.Write(data)
	_ = binary.Write(buf, binary.BigEndian, crc.Sum32())
}

func zlibCompress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	zw, err := zlib.NewWriterLevel(&buf, zlib.BestCompression)
	if err != nil {
		return nil, fmt.Errorf("创建 zlib 压缩器失败: %w", err)
	}
	if _, err := zw.Write(data); err != nil {
		zw.Close()
		return nil, fmt.Errorf("压缩图像数据失败: %w", err)
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("压缩图像数据失败: %w", err)
	}
	return buf.Bytes(), nil
}
