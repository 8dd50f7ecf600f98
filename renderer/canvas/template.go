package canvasrenderer

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/draw"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// ErrDecodeTemplate is returned when the template image cannot be read or decoded.
var ErrDecodeTemplate = errors.New("无法解码模板图片")

// DecodeTemplate decodes PNG/JPEG (also GIF, BMP, TIFF, WebP) bytes into an RGBA buffer.
func DecodeTemplate(r io.Reader) (*image.RGBA, error) {
	img, format, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecodeTemplate, err)
	}
	b := img.Bounds()
	if b.Empty() {
		return nil, fmt.Errorf("%w: %s 图片尺寸为 0", ErrDecodeTemplate, format)
	}
	return CloneTemplate(img), nil
}

// DecodeTemplateBytes is DecodeTemplate over an in-memory blob.
func DecodeTemplateBytes(data []byte) (*image.RGBA, error) {
	return DecodeTemplate(bytes.NewReader(data))
}

// LoadTemplate reads and decodes a template image from disk.
func LoadTemplate(path string) (*image.RGBA, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: 读取 %s 失败: %v", ErrDecodeTemplate, path, err)
	}
	defer file.Close()
	img, err := DecodeTemplate(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return img, nil
}

// CloneTemplate copies src into a new RGBA buffer whose bounds start at the origin.
// The shared template is never drawn on directly.
func CloneTemplate(src image.Image) *image.RGBA {
	b := src.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Src)
	return dst
}
