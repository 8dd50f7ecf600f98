// Package export 为每一行数据生成一份证书，并打包成一个 ZIP 文件。
package export

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"io"

	"go.uber.org/zap"

	"github.com/ByLCY/certgen/binding"
	"github.com/ByLCY/certgen/layout"
	"github.com/ByLCY/certgen/renderer"
	canvasrenderer "github.com/ByLCY/certgen/renderer/canvas"
)

// DefaultDir 是压缩包内所有条目的目录前缀。
const DefaultDir = "certificates/"

// ErrNoTemplate 表示任务缺少模板图片。
var ErrNoTemplate = errors.New("缺少模板图片")

// RowError 报告的处理阶段。
const (
	StageRender  = "render"
	StageEncode  = "encode"
	StageArchive = "archive"
)

// RowError 标识失败的数据行（从 1 开始）以及失败阶段。
type RowError struct {
	Index int
	Name  string
	Stage string
	Err   error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("第 %d 行 (%s) %s 阶段失败: %v", e.Index, e.Name, e.Stage, e.Err)
}

func (e *RowError) Unwrap() error { return e.Err }

// Job 是一次生成中所有数据行共用的输入，Template 与 Font 在生成期间只读。
type Job struct {
	Template image.Image
	Fields   []layout.FieldConfig
	Font     []byte
	Format   renderer.Format
}

// Options 配置 Exporter。
type Options struct {
	Renderer renderer.Renderer
	Logger   *zap.Logger
	// Encoder 替代按 Job.Format 选择的编码器。
	Encoder canvasrenderer.Encoder
	// Dir 替代 DefaultDir。
	Dir string
}

// Exporter 严格按顺序渲染并编码每一行。
type Exporter struct {
	renderer renderer.Renderer
	encoder  canvasrenderer.Encoder
	logger   *zap.Logger
	dir      string
}

// New 创建 Exporter，Renderer 为空时使用 canvas 渲染器。
func New(opts Options) *Exporter {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	r := opts.Renderer
	if r == nil {
		r = canvasrenderer.NewRendererWithOptions(canvasrenderer.Options{Logger: logger})
	}
	dir := opts.Dir
	if dir == "" {
		dir = DefaultDir
	}
	return &Exporter{renderer: r, encoder: opts.Encoder, logger: logger, dir: dir}
}

// ExportAll 在内存中构建压缩包。失败或取消时返回的压缩包已完成，
// 包含出错前处理完的所有行。
func (e *Exporter) ExportAll(ctx context.Context, job Job, rows []binding.Row) (*Archive, error) {
	archive := NewMemoryArchive()
	err := e.export(ctx, archive, job, rows)
	if cerr := archive.Close(); err == nil && cerr != nil {
		err = fmt.Errorf("完成压缩包失败: %w", cerr)
	}
	return archive, err
}

// Export 将压缩包流式写入 w。
func (e *Exporter) Export(ctx context.Context, w io.Writer, job Job, rows []binding.Row) (*Archive, error) {
	archive := NewArchive(w)
	err := e.export(ctx, archive, job, rows)
	if cerr := archive.Close(); err == nil && cerr != nil {
		err = fmt.Errorf("完成压缩包失败: %w", cerr)
	}
	return archive, err
}

func (e *Exporter) export(ctx context.Context, archive *Archive, job Job, rows []binding.Row) error {
	if job.Template == nil {
		return ErrNoTemplate
	}
	format, err := renderer.ParseFormat(string(job.Format))
	if err != nil {
		return err
	}
	encode := e.encoder
	if encode == nil {
		if encode, err = canvasrenderer.EncoderFor(format); err != nil {
			return err
		}
	}
	fields, err := renderer.Prepare(job.Fields)
	if err != nil {
		return err
	}

	names := newNamer()
	for i, row := range rows {
		if err := ctx.Err(); err != nil {
			e.logger.Warn("导出已取消", zap.Int("completed", archive.Len()), zap.Error(err))
			return err
		}
		n := i + 1
		stem := names.unique(EntryName(row, n))

		img, err := e.renderer.Render(job.Template, fields, row, job.Font)
		if err != nil {
			return &RowError{Index: n, Name: stem, Stage: StageRender, Err: err}
		}
		var buf bytes.Buffer
		if err := encode(&buf, img, stem); err != nil {
			return &RowError{Index: n, Name: stem, Stage: StageEncode, Err: err}
		}
		entry := e.dir + stem + format.Ext()
		if err := archive.Add(entry, buf.Bytes()); err != nil {
			return &RowError{Index: n, Name: stem, Stage: StageArchive, Err: err}
		}
		e.logger.Debug("证书已导出",
			zap.Int("row", n),
			zap.String("entry", entry),
			zap.Int("bytes", buf.Len()))
	}
	e.logger.Info("导出完成", zap.Int("certificates", archive.Len()), zap.String("format", string(format)))
	return nil
}
