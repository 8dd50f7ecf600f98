package layout

import (
	"errors"
	"fmt"
	"strings"
)

// 该文件定义字段配置与排版结果，供渲染与调试 JSON 共用。

// ErrInvalidField 表示字段配置不满足约束（字号、换行宽度、颜色）。
var ErrInvalidField = errors.New("字段配置无效")

// FieldConfig 描述证书上的一个文本字段。
// Text 中可以用 {ColumnName} 引用数据列；坐标与尺寸单位均为像素。
type FieldConfig struct {
	Label    string `json:"label" yaml:"label"`       // 仅用于展示
	Text     string `json:"text" yaml:"text"`         // 例如 "Awarded to {Name}"
	X        int    `json:"x" yaml:"x"`               // 居中模式下为中心点，否则为左上角
	Y        int    `json:"y" yaml:"y"`
	Size     int    `json:"size" yaml:"size"`         // 字号（em 高度，像素）
	Color    string `json:"color" yaml:"color"`       // #rgb / #rrggbb / #rrggbbaa 或颜色名
	MaxWidth int    `json:"maxWidth" yaml:"maxWidth"` // 居中模式下的换行宽度
	Centered bool   `json:"centered" yaml:"centered"`
	Bold     bool   `json:"bold" yaml:"bold"`
}

// Name 返回用于日志与错误信息的字段名称。
func (f FieldConfig) Name() string {
	if strings.TrimSpace(f.Label) != "" {
		return f.Label
	}
	return f.Text
}

// Validate 检查 size > 0、maxWidth > 0 以及颜色可解析。
func (f FieldConfig) Validate() error {
	if f.Size <= 0 {
		return fmt.Errorf("%w: 字段 %q 的字号必须大于 0，实际 %d", ErrInvalidField, f.Name(), f.Size)
	}
	if f.MaxWidth <= 0 {
		return fmt.Errorf("%w: 字段 %q 的 maxWidth 必须大于 0，实际 %d", ErrInvalidField, f.Name(), f.MaxWidth)
	}
	if _, err := ParseColor(f.Color); err != nil {
		return fmt.Errorf("%w: 字段 %q: %v", ErrInvalidField, f.Name(), err)
	}
	return nil
}

// Anchor 返回字段的锚点。
func (f FieldConfig) Anchor() Point {
	return Point{X: float64(f.X), Y: float64(f.Y)}
}

// Point 是像素坐标，原点位于模板左上角。
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Placement 表示一行文本的绘制位置（左上角）与测量尺寸。
type Placement struct {
	Content string  `json:"content"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Width   float64 `json:"width"`
	Height  float64 `json:"height"`
}

// FieldLayout 记录一个字段在某一数据行下的排版结果。
type FieldLayout struct {
	Label    string      `json:"label"`
	Text     string      `json:"text"`
	Centered bool        `json:"centered"`
	Size     int         `json:"size"`
	Color    Color       `json:"color"`
	Lines    []Placement `json:"lines"`
}
