package layout

import "strings"

// LineGap 是居中模式下相邻两行之间的固定间距（像素）。
const LineGap = 6.0

// Layout 计算字段文本的绘制位置。
//
// 非居中模式：在 anchor 处单行绘制（左上对齐），不折行，允许超出 maxWidth。
// 居中模式：按单词贪心折行，整体以 anchor 为中心水平、垂直居中。
// 空文本不产生任何行。
func Layout(text string, anchor Point, m Measurer, maxWidth float64, centered bool) []Placement {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	if !centered {
		w, h := m.Measure(text)
		return []Placement{{Content: text, X: anchor.X, Y: anchor.Y, Width: w, Height: h}}
	}
	return CenterLines(WrapWords(text, m, maxWidth), anchor, m)
}

// WrapWords 使用贪心算法按空白拆词折行：单词从不被拆开，
// 单个超宽的单词独占一行。
func WrapWords(text string, m Measurer, maxWidth float64) []string {
	var lines []string
	line := ""
	for _, word := range strings.Fields(text) {
		candidate := word
		if line != "" {
			candidate = line + " " + word
		}
		if w, _ := m.Measure(candidate); w <= maxWidth {
			line = candidate
			continue
		}
		if line != "" {
			lines = append(lines, line)
		}
		line = word
	}
	if line != "" {
		lines = append(lines, line)
	}
	return lines
}

// CenterLines 将已折好的行围绕 anchor 堆叠：
// 总高度 = Σ行高 + LineGap*(n-1)，首行顶部位于 anchor.Y - 总高度/2。
func CenterLines(lines []string, anchor Point, m Measurer) []Placement {
	if len(lines) == 0 {
		return nil
	}
	out := make([]Placement, 0, len(lines))
	total := 0.0
	for _, line := range lines {
		w, h := m.Measure(line)
		out = append(out, Placement{Content: line, Width: w, Height: h})
		total += h
	}
	total += LineGap * float64(len(lines)-1)

	cursorY := anchor.Y - total/2
	for i := range out {
		out[i].X = anchor.X - out[i].Width/2
		out[i].Y = cursorY
		cursorY += out[i].Height + LineGap
	}
	return out
}
