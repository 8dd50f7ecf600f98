package canvasrenderer

import (
	"crypto/sha256"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"
	"sync"

	"github.com/tdewolff/canvas"
	"github.com/tdewolff/canvas/renderers/rasterizer"
	"go.uber.org/zap"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/ByLCY/certgen/fonts"
	"github.com/ByLCY/certgen/layout"
)

// DefaultSystemFont is the well-known system font tried when no font resource is supplied.
const DefaultSystemFont = "DejaVu Sans"

// Font sources reported by FontHandle.Source.
const (
	SourceResource = "resource"
	SourceSystem   = "system"
	SourceEmbedded = "embedded"
	SourceBitmap   = "bitmap"
)

// FontHandle is a font at one size that can measure and draw a single line.
type FontHandle interface {
	layout.Measurer
	// Draw paints text with its top-left corner at (x, y).
	Draw(dst draw.Image, x, y float64, text string, col color.Color)
	Size() int
	Source() string
}

// FontLoadError records one failed step of the fallback chain.
type FontLoadError struct {
	Source string
	Size   int
	Bold   bool
	Err    error
}

func (e *FontLoadError) Error() string {
	return fmt.Sprintf("加载字体失败 (source=%s size=%d bold=%v): %v", e.Source, e.Size, e.Bold, e.Err)
}

func (e *FontLoadError) Unwrap() error { return e.Err }

// fontStrategy is one candidate of the ordered fallback chain.
type fontStrategy struct {
	source string
	key    string
	load   func(family *canvas.FontFamily, style canvas.FontStyle) error
}

type familyEntry struct {
	family *canvas.FontFamily
	err    error
}

// FontResolver turns an optional font resource into a FontHandle, walking the chain
// resource → system font → embedded Go font → 7x13 bitmap face. It never fails.
type FontResolver struct {
	systemFont string
	logger     *zap.Logger

	mu       sync.Mutex
	families map[string]*familyEntry
}

// NewFontResolver creates a resolver. An empty systemFont disables the system step.
func NewFontResolver(systemFont string, logger *zap.Logger) *FontResolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FontResolver{
		systemFont: systemFont,
		logger:     logger,
		families:   map[string]*familyEntry{},
	}
}

// Resolve returns a usable font handle for the requested size and weight.
func (r *FontResolver) Resolve(resource []byte, size int, bold bool) FontHandle {
	style := canvas.FontRegular
	if bold {
		style = canvas.FontBold
	}
	if size > 0 {
		for _, s := range r.chain(resource, bold) {
			family, err := r.family(s, style)
			if err != nil {
				r.logger.Debug("字体不可用，尝试下一个候选",
					zap.Error(&FontLoadError{Source: s.source, Size: size, Bold: bold, Err: err}))
				continue
			}
			return newOutlineFace(family, style, size, s.source)
		}
	}
	r.logger.Debug("使用内置点阵字体", zap.Int("size", size), zap.Bool("bold", bold))
	return bitmapFace{}
}

func (r *FontResolver) chain(resource []byte, bold bool) []fontStrategy {
	var chain []fontStrategy
	if len(resource) > 0 {
		digest := sha256.Sum256(resource)
		chain = append(chain, fontStrategy{
			source: SourceResource,
			key:    fmt.Sprintf("resource:%x", digest[:8]),
			load: func(family *canvas.FontFamily, style canvas.FontStyle) error {
				return family.LoadFont(resource, 0, style)
			},
		})
	}
	if r.systemFont != "" {
		name := r.systemFont
		chain = append(chain, fontStrategy{
			source: SourceSystem,
			key:    "system:" + name,
			load: func(family *canvas.FontFamily, style canvas.FontStyle) error {
				return family.LoadSystemFont(name, style)
			},
		})
	}
	path := fonts.ForWeight(bold)
	chain = append(chain, fontStrategy{
		source: SourceEmbedded,
		key:    "embed:" + path,
		load: func(family *canvas.FontFamily, style canvas.FontStyle) error {
			data, err := fonts.Load(path)
			if err != nil {
				return err
			}
			return family.LoadFont(data, 0, style)
		},
	})
	return chain
}

// family returns the cached font family for a strategy, loading it on first use.
// Failures are cached too so a corrupt resource is parsed once per run.
func (r *FontResolver) family(s fontStrategy, style canvas.FontStyle) (fam *canvas.FontFamily, err error) {
	key := fmt.Sprintf("%s|%d", s.key, style)
	r.mu.Lock()
	defer r.mu.Unlock()

	if entry, ok := r.families[key]; ok {
		return entry.family, entry.err
	}

	family := canvas.NewFontFamily(s.key)
	func() {
		// canvas may panic on malformed font tables
		defer func() {
			if p := recover(); p != nil {
				err = fmt.Errorf("解析字体时发生 panic: %v", p)
			}
		}()
		err = s.load(family, style)
	}()
	if err != nil {
		r.families[key] = &familyEntry{err: err}
		return nil, err
	}
	r.families[key] = &familyEntry{family: family}
	return family, nil
}

// outlineFace draws through tdewolff/canvas. One canvas unit is one pixel.
type outlineFace struct {
	family  *canvas.FontFamily
	style   canvas.FontStyle
	size    int
	source  string
	measure *canvas.FontFace
}

func newOutlineFace(family *canvas.FontFamily, style canvas.FontStyle, size int, source string) *outlineFace {
	return &outlineFace{
		family:  family,
		style:   style,
		size:    size,
		source:  source,
		measure: family.Face(layout.FontSizePt(float64(size)), canvas.Black, style, canvas.FontNormal),
	}
}

func (f *outlineFace) Size() int      { return f.size }
func (f *outlineFace) Source() string { return f.source }

// Measure returns the advance width and the ascent+descent height of text.
func (f *outlineFace) Measure(text string) (float64, float64) {
	m := f.measure.Metrics()
	return f.measure.TextWidth(text), m.Ascent + math.Abs(m.Descent)
}

// Draw rasterizes the line on a canvas sized to the line and composites it onto dst.
func (f *outlineFace) Draw(dst draw.Image, x, y float64, text string, col color.Color) {
	if text == "" {
		return
	}
	face := f.family.Face(layout.FontSizePt(float64(f.size)), col, f.style, canvas.FontNormal)
	metrics := face.Metrics()
	width := face.TextWidth(text)

	// 字形可能超出前进宽度（斜体、字偶），四周留出余量
	pad := math.Ceil(float64(f.size) / 4)
	ix, iy := math.Floor(x), math.Floor(y)
	fx, fy := x-ix, y-iy

	c := canvas.New(math.Ceil(width+fx+2*pad), math.Ceil(metrics.Ascent+math.Abs(metrics.Descent)+fy+2*pad))
	ctx := canvas.NewContext(c)
	ctx.SetCoordSystem(canvas.CartesianIV) // 使坐标与排版保持左上角为原点
	ctx.DrawText(pad+fx, pad+fy+metrics.Ascent, canvas.NewTextLine(face, text, canvas.Left))

	img := rasterizer.Draw(c, canvas.DPMM(1.0), canvas.DefaultColorSpace)
	offset := image.Pt(int(ix-pad), int(iy-pad))
	draw.Draw(dst, img.Bounds().Add(offset), img, img.Bounds().Min, draw.Over)
}

// bitmapFace is the last resort: a fixed 7x13 face that needs no font parsing.
type bitmapFace struct{}

func (bitmapFace) Size() int      { return basicfont.Face7x13.Height }
func (bitmapFace) Source() string { return SourceBitmap }

func (bitmapFace) Measure(text string) (float64, float64) {
	face := basicfont.Face7x13
	w := font.MeasureString(face, text)
	return float64(w) / 64, float64(face.Ascent + face.Descent)
}

func (bitmapFace) Draw(dst draw.Image, x, y float64, text string, col color.Color) {
	face := basicfont.Face7x13
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(col),
		Face: face,
		Dot:  fixed.P(int(math.Round(x)), int(math.Round(y))+face.Ascent),
	}
	d.DrawString(text)
}
