package canvasrenderer

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"

	"github.com/tdewolff/canvas"
	"github.com/tdewolff/canvas/renderers/pdf"

	"github.com/ByLCY/certgen/layout"
	"github.com/ByLCY/certgen/renderer"
)

// ErrEncode wraps failures while encoding a rendered certificate.
var ErrEncode = errors.New("编码证书失败")

// Encoder writes one rendered certificate in a specific output format.
type Encoder func(w io.Writer, img image.Image, title string) error

// EncoderFor returns the encoder of the given format.
func EncoderFor(format renderer.Format) (Encoder, error) {
	switch format {
	case renderer.FormatPNG:
		return EncodePNG, nil
	case renderer.FormatPDF:
		return EncodePDF, nil
	default:
		return nil, fmt.Errorf("%w: %q", renderer.ErrUnknownFormat, format)
	}
}

// Flatten drops the alpha channel and keeps the stored color of every pixel.
func Flatten(img image.Image) *image.RGBA {
	b := img.Bounds()
	out := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	if src, ok := img.(*image.RGBA); ok {
		flattenRGBA(out, src)
		return out
	}
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
			i := out.PixOffset(x-b.Min.X, y-b.Min.Y)
			out.Pix[i+0] = c.R
			out.Pix[i+1] = c.G
			out.Pix[i+2] = c.B
			out.Pix[i+3] = 0xff
		}
	}
	return out
}

// flattenRGBA 直接遍历 Pix，结果与 NRGBAModel 转换一致。
func flattenRGBA(dst, src *image.RGBA) {
	b := src.Bounds()
	w := b.Dx() * 4
	for y := 0; y < b.Dy(); y++ {
		s := src.Pix[src.PixOffset(b.Min.X, b.Min.Y+y):][:w]
		d := dst.Pix[y*dst.Stride:][:w]
		for i := 0; i < w; i += 4 {
			a := s[i+3]
			switch a {
			case 0xff:
				copy(d[i:i+3], s[i:i+3])
			case 0:
				d[i], d[i+1], d[i+2] = 0, 0, 0
			default:
				a16 := uint32(a) * 0x101
				for k := 0; k < 3; k++ {
					d[i+k] = uint8(((uint32(s[i+k]) * 0x101 * 0xffff) / a16) >> 8)
				}
			}
			d[i+3] = 0xff
		}
	}
}

// EncodePNG writes an opaque PNG with the best compression level.
func EncodePNG(w io.Writer, img image.Image, _ string) error {
	enc := png.Encoder{CompressionLevel: png.BestCompression}
	if err := enc.Encode(w, Flatten(img)); err != nil {
		return fmt.Errorf("%w: png: %v", ErrEncode, err)
	}
	return nil
}

// EncodePDF writes a single-page PDF whose page wraps the flattened image at 72 dpi,
// so the page size in points equals the image size in pixels.
func EncodePDF(w io.Writer, img image.Image, title string) error {
	flat := Flatten(img)
	b := flat.Bounds()
	width := layout.PageSizeMM(float64(b.Dx()))
	height := layout.PageSizeMM(float64(b.Dy()))

	writer := pdf.New(w, width, height, nil)
	writer.SetInfo(title, "", "", "", "certgen")

	c := canvas.New(width, height)
	ctx := canvas.NewContext(c)
	ctx.DrawImage(0, 0, flat, canvas.DPMM(float64(b.Dx())/width))
	c.RenderTo(writer)

	if err := writer.Close(); err != nil {
		return fmt.Errorf("%w: pdf: %v", ErrEncode, err)
	}
	return nil
}
