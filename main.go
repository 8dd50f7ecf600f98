package main

import (
	"context"
	"errors"
	"fmt"
	"image/png"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	flag "github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/ByLCY/certgen/binding"
	"github.com/ByLCY/certgen/config"
	"github.com/ByLCY/certgen/dataset"
	"github.com/ByLCY/certgen/export"
	"github.com/ByLCY/certgen/fonts"
	"github.com/ByLCY/certgen/layout"
	"github.com/ByLCY/certgen/renderer"
	canvasrenderer "github.com/ByLCY/certgen/renderer/canvas"
)

// cliFlags 保存命令行参数；未显式设置的值不会覆盖配置文件。
type cliFlags struct {
	config       string
	template     string
	data         string
	sheet        string
	font         string
	format       string
	out          string
	preview      string
	previewRow   int
	previewWidth int
	debug        string
	verbose      bool

	set *flag.FlagSet
}

func parseFlags(args []string) (*cliFlags, error) {
	f := &cliFlags{}
	fs := flag.NewFlagSet("certgen", flag.ContinueOnError)
	fs.StringVarP(&f.config, "config", "c", "", "任务配置 YAML 路径")
	fs.StringVarP(&f.template, "template", "t", "", "证书模板图片路径 (PNG/JPEG)")
	fs.StringVarP(&f.data, "data", "d", "", "接收者数据路径 (.csv/.xlsx)")
	fs.StringVar(&f.sheet, "sheet", "", "XLSX 工作表名称，默认第一个")
	fs.StringVar(&f.font, "font", "", "TTF/OTF 字体路径，可用 embed: 前缀引用内置字体")
	fs.StringVarP(&f.format, "format", "f", "", "输出格式 png|pdf")
	fs.StringVarP(&f.out, "out", "o", "", "ZIP 输出路径")
	fs.StringVar(&f.preview, "preview", "", "预览 PNG 输出路径")
	fs.IntVar(&f.previewRow, "preview-row", 0, "预览使用的数据行（从 1 开始，0 表示示例数据）")
	fs.IntVar(&f.previewWidth, "preview-width", 0, "预览最大宽度（像素，0 表示原尺寸）")
	fs.StringVar(&f.debug, "debug", "", "布局调试 JSON 输出路径")
	fs.BoolVarP(&f.verbose, "verbose", "v", false, "输出调试日志")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	f.set = fs
	return f, nil
}

// resolveConfig 读取配置文件（若有），再用显式设置的参数覆盖。
func resolveConfig(f *cliFlags) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if f.config != "" {
		loaded, err := config.Load(f.config)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	overrides := map[string]*string{
		"template": &cfg.Template,
		"data":     &cfg.Data,
		"sheet":    &cfg.Sheet,
		"font":     &cfg.Font,
		"format":   &cfg.Format,
		"out":      &cfg.Output,
	}
	for name, dst := range overrides {
		if f.set.Changed(name) {
			*dst, _ = f.set.GetString(name)
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func main() {
	f, err := parseFlags(os.Args[1:])
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	logger, err := newLogger(f.verbose)
	if err != nil {
		fmt.Fprintf(os.Stderr, "初始化日志失败: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, f, logger); err != nil {
		fmt.Fprintf(os.Stderr, "生成证书失败: %v\n", err)
		logger.Sync() //nolint:errcheck
		os.Exit(1)
	}
}

// run 串联配置、数据加载、预览与批量导出。
func run(ctx context.Context, f *cliFlags, logger *zap.Logger) error {
	cfg, err := resolveConfig(f)
	if err != nil {
		return fmt.Errorf("配置无效: %w", err)
	}
	format, err := renderer.ParseFormat(cfg.Format)
	if err != nil {
		return err
	}

	tpl, err := canvasrenderer.LoadTemplate(cfg.Template)
	if err != nil {
		return err
	}
	ds, err := dataset.Load(cfg.Data, cfg.Sheet)
	if err != nil {
		return err
	}
	font, err := loadFont(cfg.Font)
	if err != nil {
		return err
	}
	logger.Info("输入已加载",
		zap.String("template", cfg.Template),
		zap.Int("width", tpl.Bounds().Dx()),
		zap.Int("height", tpl.Bounds().Dy()),
		zap.Int("rows", ds.Len()),
		zap.Int("fields", len(cfg.Fields)))

	fields, err := renderer.Prepare(cfg.Fields)
	if err != nil {
		return err
	}
	for _, col := range renderer.Columns(fields) {
		if !ds.HasColumn(col) {
			logger.Warn("字段引用的列不在数据中", zap.String("column", col))
		}
	}

	r := canvasrenderer.NewRendererWithOptions(canvasrenderer.Options{Logger: logger})
	exporter := export.New(export.Options{Renderer: r, Logger: logger})
	job := export.Job{Template: tpl, Fields: cfg.Fields, Font: font, Format: format}

	var sample binding.Row
	if f.previewRow > 0 {
		if sample, err = ds.Row(f.previewRow); err != nil {
			return err
		}
	}
	if f.debug != "" {
		if err := writeDebug(r, fields, sample, font, f.debug); err != nil {
			return err
		}
	}
	if f.preview != "" {
		if err := writePreview(exporter, job, sample, f.previewWidth, f.preview); err != nil {
			return err
		}
		logger.Info("已生成预览", zap.String("path", f.preview))
	}

	archive, err := writeArchive(ctx, exporter, job, ds.Rows, cfg.Output)
	if err != nil {
		if archive != nil && archive.Len() > 0 {
			logger.Warn("导出中断，已保存完成的证书",
				zap.Int("completed", archive.Len()),
				zap.String("path", cfg.Output))
		}
		return err
	}
	fmt.Printf("已生成 %d 份证书：%s\n", archive.Len(), cfg.Output)
	return nil
}

// loadFont 读取字体文件；空路径表示使用回退链。
func loadFont(path string) ([]byte, error) {
	switch {
	case path == "":
		return nil, nil
	case strings.HasPrefix(path, "embed:"):
		return fonts.Load(path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("读取字体文件失败: %w", err)
	}
	return data, nil
}

func ensureDir(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("创建输出目录失败: %w", err)
	}
	return nil
}

func writeArchive(ctx context.Context, e *export.Exporter, job export.Job, rows []binding.Row, path string) (*export.Archive, error) {
	if err := ensureDir(path); err != nil {
		return nil, err
	}
	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("创建 ZIP 文件失败: %w", err)
	}
	archive, err := e.Export(ctx, file, job, rows)
	if cerr := file.Close(); err == nil && cerr != nil {
		err = fmt.Errorf("写入 ZIP 文件失败: %w", cerr)
	}
	return archive, err
}

func writePreview(e *export.Exporter, job export.Job, row binding.Row, maxWidth int, path string) error {
	img, err := e.Preview(job, row, maxWidth)
	if err != nil {
		return fmt.Errorf("生成预览失败: %w", err)
	}
	if err := ensureDir(path); err != nil {
		return err
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("创建预览文件失败: %w", err)
	}
	defer file.Close()
	if err := png.Encode(file, img); err != nil {
		return fmt.Errorf("写入预览失败: %w", err)
	}
	return nil
}

func writeDebug(r renderer.Renderer, fields []renderer.Field, row binding.Row, font []byte, path string) error {
	if row == nil {
		row = export.SampleRow
	}
	plan, err := r.Plan(fields, row, font)
	if err != nil {
		return fmt.Errorf("布局计算失败: %w", err)
	}
	if err := ensureDir(path); err != nil {
		return err
	}
	if err := layout.WriteDebugJSON(plan, path); err != nil {
		return fmt.Errorf("输出调试 JSON 失败: %w", err)
	}
	return nil
}
