package layout

// Measurer 提供单行文本的渲染宽高（像素），由字体后端实现。
type Measurer interface {
	Measure(text string) (width, height float64)
}

// MeasurerFunc 允许用普通函数实现 Measurer。
type MeasurerFunc func(text string) (float64, float64)

// Measure implements Measurer.
func (f MeasurerFunc) Measure(text string) (float64, float64) { return f(text) }
