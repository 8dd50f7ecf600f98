package export

import (
	"image"

	xdraw "golang.org/x/image/draw"

	"github.com/ByLCY/certgen/binding"
	"github.com/ByLCY/certgen/renderer"
)

// SampleRow 在尚未加载数据时用于预览。
var SampleRow = binding.Row{
	"Name":   "Sample Name",
	"Course": "Sample Course",
	"Date":   "2025-08-12",
}

// Preview 渲染单行证书，row 为空时使用 SampleRow。
// maxWidth > 0 且结果更宽时按比例缩小。
func (e *Exporter) Preview(job Job, row binding.Row, maxWidth int) (*image.RGBA, error) {
	if job.Template == nil {
		return nil, ErrNoTemplate
	}
	if row == nil {
		row = SampleRow
	}
	fields, err := renderer.Prepare(job.Fields)
	if err != nil {
		return nil, err
	}
	img, err := e.renderer.Render(job.Template, fields, row, job.Font)
	if err != nil {
		return nil, err
	}
	return Downscale(img, maxWidth), nil
}

// Downscale 用 Catmull-Rom 插值把 img 缩小到 maxWidth；
// 宽度已满足或 maxWidth 非正时原样返回。
func Downscale(img *image.RGBA, maxWidth int) *image.RGBA {
	b := img.Bounds()
	if maxWidth <= 0 || b.Dx() <= maxWidth {
		return img
	}
	height := b.Dy() * maxWidth / b.Dx()
	if height < 1 {
		height = 1
	}
	dst := image.NewRGBA(image.Rect(0, 0, maxWidth, height))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), img, b, xdraw.Src, nil)
	return dst
}
