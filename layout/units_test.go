package layout

import (
	"math"
	"testing"
)

// TestPtMmRoundTrip 验证 pt↔mm 换算的往返精度（允许极小的浮点误差）。
func TestPtMmRoundTrip(t *testing.T) {
	samples := []float64{0, 0.001, 1, 12, 14.4, 72, 96, 144, 1000}
	for _, pt := range samples {
		mm := pt * PtToMm
		back := mm * MmToPt
		if diff := math.Abs(back - pt); diff > 1e-9 {
			t.Fatalf("pt→mm→pt 往返误差过大: in=%gpt mm=%g back=%g diff=%g", pt, mm, back, diff)
		}
	}
}

// TestFontSizeAndPageSize 验证像素字号与页面尺寸的换算互为逆运算。
func TestFontSizeAndPageSize(t *testing.T) {
	for _, px := range []float64{7, 32, 64, 1650} {
		if diff := math.Abs(PageSizeMM(FontSizePt(px)) - px); diff > 1e-9 {
			t.Fatalf("px=%g: PageSizeMM(FontSizePt(px)) = %g", px, PageSizeMM(FontSizePt(px)))
		}
	}
}

// TestFontSizeMatchesCanvasPoint 验证 1pt 与 canvas 内部的 25.4/72 mm 完全一致。
func TestFontSizeMatchesCanvasPoint(t *testing.T) {
	if got := FontSizePt(64) * 25.4 / 72; math.Abs(got-64) > 1e-12 {
		t.Fatalf("64px 字号换算后为 %g 个画布单位", got)
	}
	if math.Abs(PageSizeMM(72)-25.4) > 1e-12 {
		t.Fatalf("72px 应为 25.4mm，实际 %g", PageSizeMM(72))
	}
}
