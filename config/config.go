package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	canvasrenderer "github.com/ByLCY/gradeview/renderer/canvas"

	"github.com/ByLCY/gradeview/fonts"
	"github.com/ByLCY/gradeview/layout"
	"github.com/ByLCY/gradeview/profile"
	"github.com/ByLCY/gradeview/renderer"
	"github.com/ByLCY/gradeview/source"
)

//go:embed config.yaml
var defaultConfig []byte

type LayoutConfig struct {
	ProfileFile string  `yaml:"profile_file" validate:"omitempty,filepath"`
	Profile     string  `yaml:"profile" validate:"required"`
	OriginX     float64 `yaml:"origin_x" validate:"gte=0"`
	OriginY     float64 `yaml:"origin_y" validate:"gte=0"`
	Seed        uint64  `yaml:"seed"`
	FontMetrics bool    `yaml:"font_metrics"`
}

type RenderConfig struct {
	Format     string  `yaml:"format" validate:"required,oneof=pdf svg png"`
	Font       string  `yaml:"font" validate:"required"`
	Margin     float64 `yaml:"margin" validate:"gte=0"`
	Background string  `yaml:"background" validate:"required"`
	Resolution float64 `yaml:"resolution" validate:"gt=0,lte=16"`
}

type SourceConfig struct {
	BaseDir  string        `yaml:"base_dir"`
	MaxBytes int64         `yaml:"max_bytes" validate:"gte=0"`
	Timeout  time.Duration `yaml:"timeout" validate:"gte=0"`
	SVGSize  int           `yaml:"svg_size" validate:"gte=0,lte=8192"`
}

// Config 是程序的全部配置。
type Config struct {
	Layout  LayoutConfig  `yaml:"layout"`
	Render  RenderConfig  `yaml:"render"`
	Source  SourceConfig  `yaml:"source"`
	Logging LoggingConfig `yaml:"logging"`
}

// Default 返回内置默认配置文本。
func Default() []byte { return defaultConfig }

func unmarshalConfig(data []byte, cfg *Config) error {
	// 只接受已定义的字段，拼写错误直接报错
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return fmt.Errorf("解析配置失败: %w", err)
	}
	return nil
}

// Load 先加载内置默认值，再用 path 指定的文件覆盖（path 为空时跳过），最后校验。
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := unmarshalConfig(defaultConfig, cfg); err != nil {
		return nil, fmt.Errorf("内置配置错误: %w", err)
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("读取配置文件失败: %w", err)
		}
		if err := unmarshalConfig(data, cfg); err != nil {
			return nil, fmt.Errorf("配置文件 %s: %w", path, err)
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate 检查字段约束以及颜色、字体等需要解析才能判断的取值，一次报告全部问题。
func (c *Config) Validate() error {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.Struct(c); err != nil {
		return fmt.Errorf("配置校验失败: %w", err)
	}
	var errs error
	if _, err := layout.ParseColor(c.Render.Background); err != nil {
		errs = multierr.Append(errs, fmt.Errorf("render.background: %w", err))
	}
	if c.Render.Font != fonts.BuiltinName {
		if _, err := os.Stat(strings.TrimPrefix(c.Render.Font, "file:")); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("render.font: %w", err))
		}
	}
	if c.Layout.ProfileFile == "" && c.Layout.Profile != profile.BuiltinName {
		errs = multierr.Append(errs, fmt.Errorf("layout.profile: 未指定 profile_file 时只能使用 %q", profile.BuiltinName))
	}
	if c.Logging.FileLogger.Level != "none" && c.Logging.FileLogger.Destination == "" {
		errs = multierr.Append(errs, fmt.Errorf("logging.file.destination: 启用文件日志时必须指定"))
	}
	if errs != nil {
		return fmt.Errorf("配置校验失败: %w", errs)
	}
	return nil
}

// Dump 以 YAML 输出配置。
func Dump(cfg *Config) ([]byte, error) {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("序列化配置失败: %w", err)
	}
	return data, nil
}

// LoadProfile 加载配置中指定的版式。
func (c LayoutConfig) LoadProfile() (layout.Profile, error) {
	if c.ProfileFile == "" {
		return layout.DefaultProfile(), nil
	}
	return profile.Load(c.ProfileFile, c.Profile)
}

// BuildOptions 组装布局参数；metrics 为空时使用估算字宽。
func (c LayoutConfig) BuildOptions(metrics layout.Metrics, log *zap.Logger) (layout.BuildOptions, error) {
	p, err := c.LoadProfile()
	if err != nil {
		return layout.BuildOptions{}, err
	}
	if err := p.Palette.Validate(); err != nil {
		return layout.BuildOptions{}, err
	}
	opts := layout.BuildOptions{
		Profile: p,
		Origin:  &layout.Point{X: c.OriginX, Y: c.OriginY},
		Seed:    c.Seed,
		Log:     log,
	}
	if c.FontMetrics {
		opts.Metrics = metrics
	}
	return opts, nil
}

// RendererOptions 组装渲染参数。
func (c RenderConfig) RendererOptions(log *zap.Logger) canvasrenderer.Options {
	return canvasrenderer.Options{
		Format:     renderer.Format(c.Format),
		Font:       c.Font,
		Margin:     c.Margin,
		Background: c.Background,
		Resolution: c.Resolution,
		Log:        log,
	}
}

// LoaderOptions 组装图片读取参数。
func (c SourceConfig) LoaderOptions(log *zap.Logger) source.Options {
	return source.Options{
		BaseDir:  c.BaseDir,
		MaxBytes: c.MaxBytes,
		Timeout:  c.Timeout,
		SVGSize:  c.SVGSize,
		Log:      log,
	}
}
