package canvasrenderer

import (
	"fmt"
	"image"

	"go.uber.org/zap"

	"github.com/ByLCY/certgen/binding"
	"github.com/ByLCY/certgen/layout"
	"github.com/ByLCY/certgen/renderer"
)

// Renderer composes certificates via github.com/tdewolff/canvas.
type Renderer struct {
	fonts  *FontResolver
	logger *zap.Logger
}

var _ renderer.Renderer = (*Renderer)(nil)

// Options configures the canvas renderer.
type Options struct {
	Logger *zap.Logger
	// SystemFont overrides DefaultSystemFont.
	SystemFont string
	// NoSystemFont skips the system font step of the fallback chain.
	NoSystemFont bool
}

// NewRenderer creates a renderer with default options.
func NewRenderer() *Renderer { return NewRendererWithOptions(Options{}) }

// NewRendererWithOptions creates a renderer with the given logger and font settings.
func NewRendererWithOptions(opts Options) *Renderer {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	systemFont := opts.SystemFont
	if systemFont == "" {
		systemFont = DefaultSystemFont
	}
	if opts.NoSystemFont {
		systemFont = ""
	}
	return &Renderer{
		fonts:  NewFontResolver(systemFont, logger),
		logger: logger,
	}
}

// Fonts exposes the renderer's font resolver.
func (r *Renderer) Fonts() *FontResolver { return r.fonts }

// Render draws every field onto a private copy of template. Fields are applied in order,
// so later fields paint over earlier ones. The first substitution failure aborts the row.
func (r *Renderer) Render(template image.Image, fields []renderer.Field, row binding.Row, font []byte) (*image.RGBA, error) {
	if template == nil {
		return nil, fmt.Errorf("模板为空")
	}
	img := CloneTemplate(template)
	for _, field := range fields {
		fl, face, err := r.layoutField(field, row, font)
		if err != nil {
			return nil, err
		}
		col := field.Color.NRGBA()
		for _, line := range fl.Lines {
			face.Draw(img, line.X, line.Y, line.Content, col)
		}
	}
	return img, nil
}

// Plan returns the placements Render would draw, without drawing.
func (r *Renderer) Plan(fields []renderer.Field, row binding.Row, font []byte) ([]layout.FieldLayout, error) {
	out := make([]layout.FieldLayout, 0, len(fields))
	for _, field := range fields {
		fl, _, err := r.layoutField(field, row, font)
		if err != nil {
			return nil, err
		}
		out = append(out, fl)
	}
	return out, nil
}

func (r *Renderer) layoutField(field renderer.Field, row binding.Row, font []byte) (layout.FieldLayout, FontHandle, error) {
	cfg := field.Config
	text, err := field.Template.Execute(row)
	if err != nil {
		return layout.FieldLayout{}, nil, &renderer.FieldError{Field: cfg.Name(), Err: err}
	}
	face := r.fonts.Resolve(font, cfg.Size, cfg.Bold)
	lines := layout.Layout(text, cfg.Anchor(), face, float64(cfg.MaxWidth), cfg.Centered)
	r.logger.Debug("字段排版完成",
		zap.String("field", cfg.Name()),
		zap.String("font", face.Source()),
		zap.Int("lines", len(lines)))
	return layout.FieldLayout{
		Label:    cfg.Label,
		Text:     text,
		Centered: cfg.Centered,
		Size:     cfg.Size,
		Color:    field.Color,
		Lines:    lines,
	}, face, nil
}
