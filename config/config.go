// Package config 加载证书生成任务配置。
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-yaml"

	"github.com/ByLCY/certgen/layout"
	"github.com/ByLCY/certgen/renderer"
)

// MaxInputSize 限制配置文件大小（1MB）。
var MaxInputSize = 1 << 20

// 配置相关的哨兵错误。
var (
	ErrConfigNotFound = errors.New("找不到配置文件")
	ErrConfigParse    = errors.New("解析配置失败")
	ErrInputTooLarge  = errors.New("配置文件过大")
	ErrMissingInput   = errors.New("缺少必需的输入")
)

// 配置项为空时使用的默认值。
const (
	DefaultOutput = "certificates.zip"
	DefaultFormat = string(renderer.FormatPNG)
)

// Config 描述一次批量生成任务。
type Config struct {
	Template string               `yaml:"template"` // 模板图片路径
	Data     string               `yaml:"data"`     // .csv 或 .xlsx 数据路径
	Sheet    string               `yaml:"sheet"`    // 为空时取第一个工作表
	Font     string               `yaml:"font"`     // 可选 TTF/OTF，"embed:" 前缀表示内置字体
	Format   string               `yaml:"format"`   // "png" or "pdf"
	Output   string               `yaml:"output"`   // ZIP 输出路径
	Fields   []layout.FieldConfig `yaml:"fields"`
}

// DefaultFields 返回按 1650x1275 模板排布的四个标准字段。
func DefaultFields() []layout.FieldConfig {
	return []layout.FieldConfig{
		{Label: "Name", Text: "{Name}", X: 827, Y: 470, Size: 64, Color: "#333333", MaxWidth: 900, Centered: true, Bold: true},
		{Label: "Course", Text: "{Course}", X: 827, Y: 660, Size: 44, Color: "#444444", MaxWidth: 900, Centered: true},
		{Label: "Date", Text: "Date: {Date}", X: 500, Y: 930, Size: 32, Color: "#444444", MaxWidth: 600},
		{Label: "Custom", Text: "", X: 827, Y: 820, Size: 36, Color: "#444444", MaxWidth: 900, Centered: true},
	}
}

// DefaultConfig 返回默认字段、PNG 输出的配置。
func DefaultConfig() *Config {
	return &Config{
		Format: DefaultFormat,
		Output: DefaultOutput,
		Fields: DefaultFields(),
	}
}

// Parse 解析配置内容并拒绝未知字段，空值回退到 DefaultConfig。
func Parse(data []byte) (*Config, error) {
	if len(data) > MaxInputSize {
		return nil, fmt.Errorf("%w: %d 字节（上限 %d）", ErrInputTooLarge, len(data), MaxInputSize)
	}
	var cfg Config
	if len(data) > 0 {
		if err := yaml.UnmarshalWithOptions(data, &cfg, yaml.Strict()); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrConfigParse, err)
		}
	}
	cfg.applyDefaults()
	return &cfg, nil
}

// Load 读取并校验配置文件，其中的相对路径以配置文件所在目录为基准。
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- job path is user-provided
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return nil, fmt.Errorf("读取配置文件失败: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, err
	}
	cfg.resolvePaths(filepath.Dir(path))
	if err := cfg.validateFields(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Marshal 将配置编码为 YAML。
func Marshal(cfg *Config) ([]byte, error) {
	out, err := yaml.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("编码配置失败: %w", err)
	}
	return out, nil
}

func (c *Config) applyDefaults() {
	if c.Format == "" {
		c.Format = DefaultFormat
	}
	if c.Output == "" {
		c.Output = DefaultOutput
	}
	if len(c.Fields) == 0 {
		c.Fields = DefaultFields()
	}
}

func (c *Config) resolvePaths(dir string) {
	for _, p := range []*string{&c.Template, &c.Data, &c.Font, &c.Output} {
		if *p == "" || filepath.IsAbs(*p) || isEmbedded(*p) {
			continue
		}
		*p = filepath.Join(dir, *p)
	}
}

func isEmbedded(path string) bool { return strings.HasPrefix(path, "embed:") }

// Validate 检查任务能否开始：模板与数据已指定、格式受支持且每个字段有效。
// 在命令行参数覆盖之后调用。
func (c *Config) Validate() error {
	if c.Template == "" {
		return fmt.Errorf("%w: template", ErrMissingInput)
	}
	if c.Data == "" {
		return fmt.Errorf("%w: data", ErrMissingInput)
	}
	return c.validateFields()
}

func (c *Config) validateFields() error {
	if _, err := renderer.ParseFormat(c.Format); err != nil {
		return fmt.Errorf("输出格式: %w", err)
	}
	for i, f := range c.Fields {
		if err := f.Validate(); err != nil {
			return fmt.Errorf("第 %d 个字段: %w", i+1, err)
		}
	}
	return nil
}
