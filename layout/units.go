package layout

// 渲染器把画布的 1 个单位（canvas 内部为 mm）当作 1 个像素使用，
// 字号与 PDF 页面尺寸需要在 pt 与该单位之间换算。

// Conversion constants between pt and mm.
const (
	PtToMm = 25.4 / 72
	MmToPt = 1.0 / PtToMm
)

// FontSizePt 返回使 em 高度等于 px 个画布单位的字号（pt）。
func FontSizePt(px float64) float64 { return px * MmToPt }

// PageSizeMM 将像素尺寸换算为 72 dpi 下的页面尺寸（mm），即 1px = 1pt。
func PageSizeMM(px float64) float64 { return px * PtToMm }
