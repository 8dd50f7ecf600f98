package renderer

import (
	"errors"
	"fmt"
	"image"
	"strings"

	"github.com/ByLCY/certgen/binding"
	"github.com/ByLCY/certgen/layout"
)

// Renderer 将字段配置与一行数据合成到模板副本上，输出最终的证书图像。
// Plan 只计算排版结果而不绘制，供调试输出使用。
type Renderer interface {
	Render(template image.Image, fields []Field, row binding.Row, font []byte) (*image.RGBA, error)
	Plan(fields []Field, row binding.Row, font []byte) ([]layout.FieldLayout, error)
}

// Field 是预处理后的字段：配置、解析后的模板与颜色。
// 同一次生成中只预处理一次，逐行复用。
type Field struct {
	Config   layout.FieldConfig
	Template *binding.Template
	Color    layout.Color
}

// Prepare 校验字段配置并解析文本模板。
func Prepare(configs []layout.FieldConfig) ([]Field, error) {
	fields := make([]Field, 0, len(configs))
	for i, cfg := range configs {
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("第 %d 个字段: %w", i+1, err)
		}
		tpl, err := binding.Parse(cfg.Text)
		if err != nil {
			return nil, fmt.Errorf("第 %d 个字段 %q: %w", i+1, cfg.Name(), err)
		}
		col, _ := layout.ParseColor(cfg.Color)
		fields = append(fields, Field{Config: cfg, Template: tpl, Color: col})
	}
	return fields, nil
}

// Columns 返回全部字段引用的列名（按出现顺序去重）。
func Columns(fields []Field) []string {
	var cols []string
	seen := map[string]bool{}
	for _, f := range fields {
		for _, c := range f.Template.Columns() {
			if !seen[c] {
				seen[c] = true
				cols = append(cols, c)
			}
		}
	}
	return cols
}

// FieldError 标识替换或绘制失败的字段。
type FieldError struct {
	Field string
	Err   error
}

func (e *FieldError) Error() string { return fmt.Sprintf("字段 %q: %v", e.Field, e.Err) }

func (e *FieldError) Unwrap() error { return e.Err }

// ErrUnknownFormat 表示不支持的输出格式。
var ErrUnknownFormat = errors.New("不支持的输出格式")

// Format 是证书的输出编码。
type Format string

const (
	FormatPNG Format = "png"
	FormatPDF Format = "pdf"
)

// ParseFormat 接受 "png"/"pdf"（不区分大小写，可带前导点）。
func ParseFormat(s string) (Format, error) {
	switch strings.TrimPrefix(strings.ToLower(strings.TrimSpace(s)), ".") {
	case "png", "":
		return FormatPNG, nil
	case "pdf":
		return FormatPDF, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
	}
}

// Ext 返回带点的文件扩展名。
func (f Format) Ext() string { return "." + string(f) }
