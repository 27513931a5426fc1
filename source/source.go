// Package source retrieves page images by URL and decodes them.
package source

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/h2non/filetype"
	"go.uber.org/zap"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

var (
	// ErrUnsupported 表示数据不是可解码的图片。
	ErrUnsupported = errors.New("不支持的图片格式")
	// ErrTooLarge 表示图片数据超过大小限制。
	ErrTooLarge = errors.New("图片超过大小限制")
)

// Loader 根据 URL 取回并解码页面图片。
type Loader interface {
	Load(ctx context.Context, url string) (image.Image, error)
}

// LoaderFunc 允许用普通函数实现 Loader。
type LoaderFunc func(ctx context.Context, url string) (image.Image, error)

func (f LoaderFunc) Load(ctx context.Context, url string) (image.Image, error) { return f(ctx, url) }

// Options 配置图片读取。
type Options struct {
	BaseDir  string        // 相对路径的根目录
	MaxBytes int64         // 单张图片的最大字节数，<=0 表示不限制
	Timeout  time.Duration // HTTP 请求超时
	SVGSize  int           // SVG 缺少 viewBox 时的栅格化边长
	Client   *http.Client
	Log      *zap.Logger
}

func (o Options) logger() *zap.Logger {
	if o.Log == nil {
		return zap.NewNop()
	}
	return o.Log
}

// FileLoader 从本地文件读取图片，支持 file:// 前缀。
type FileLoader struct {
	opts Options
}

func NewFileLoader(opts Options) *FileLoader { return &FileLoader{opts: opts} }

func (l *FileLoader) Load(ctx context.Context, url string) (image.Image, error) {
	path := strings.TrimPrefix(url, "file://")
	if path == "" {
		return nil, fmt.Errorf("图片路径为空")
	}
	if !filepath.IsAbs(path) && l.opts.BaseDir != "" {
		path = filepath.Join(l.opts.BaseDir, path)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("读取图片 %s 失败: %w", url, err)
	}
	defer f.Close()
	data, err := readLimited(f, l.opts.MaxBytes)
	if err != nil {
		return nil, fmt.Errorf("读取图片 %s 失败: %w", url, err)
	}
	l.opts.logger().Debug("读取本地图片", zap.String("path", path), zap.Int("bytes", len(data)))
	return Decode(data, l.opts.SVGSize)
}

// HTTPLoader 通过 HTTP(S) 下载图片，请求随 ctx 取消。
type HTTPLoader struct {
	opts   Options
	client *http.Client
}

func NewHTTPLoader(opts Options) *HTTPLoader {
	client := opts.Client
	if client == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 60 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}
	return &HTTPLoader{opts: opts, client: client}
}

func (l *HTTPLoader) Load(ctx context.Context, url string) (image.Image, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("构造请求失败: %w", err)
	}
	resp, err := l.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("下载图片 %s 失败: %w", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("下载图片 %s 失败: HTTP %d", url, resp.StatusCode)
	}
	if resp.ContentLength > 0 && l.opts.MaxBytes > 0 && resp.ContentLength > l.opts.MaxBytes {
		return nil, fmt.Errorf("%s: %w", url, ErrTooLarge)
	}
	data, err := readLimited(resp.Body, l.opts.MaxBytes)
	if err != nil {
		return nil, fmt.Errorf("下载图片 %s 失败: %w", url, err)
	}
	l.opts.logger().Debug("下载图片完成", zap.String("url", url), zap.Int("bytes", len(data)))
	return Decode(data, l.opts.SVGSize)
}

// MultiLoader 按 URL scheme 分发：http/https 走 HTTPLoader，其余按本地文件处理。
type MultiLoader struct {
	HTTP Loader
	File Loader
}

// New 创建同时支持本地文件与 HTTP 的 Loader。
func New(opts Options) *MultiLoader {
	return &MultiLoader{HTTP: NewHTTPLoader(opts), File: NewFileLoader(opts)}
}

func (m *MultiLoader) Load(ctx context.Context, url string) (image.Image, error) {
	lower := strings.ToLower(url)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		if m.HTTP == nil {
			return nil, fmt.Errorf("未配置 HTTP 读取: %s", url)
		}
		return m.HTTP.Load(ctx, url)
	}
	if m.File == nil {
		return nil, fmt.Errorf("未配置本地文件读取: %s", url)
	}
	return m.File.Load(ctx, url)
}

func readLimited(r io.Reader, limit int64) ([]byte, error) {
	if limit <= 0 {
		return io.ReadAll(r)
	}
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, ErrTooLarge
	}
	return data, nil
}

// Decode 根据文件头识别格式并解码；位图交给 image.Decode，SVG 栅格化为 RGBA。
func Decode(data []byte, svgSize int) (image.Image, error) {
	if filetype.IsImage(data) {
		img, _, err := image.Decode(bytes.NewReader(data))
		if err != nil {
			kind, _ := filetype.Match(data)
			return nil, fmt.Errorf("解码 %s 图片失败: %w", kind.Extension, err)
		}
		return img, nil
	}
	if looksLikeSVG(data) {
		return RasterizeSVG(data, svgSize)
	}
	kind, _ := filetype.Match(data)
	if kind == filetype.Unknown {
		return nil, ErrUnsupported
	}
	return nil, fmt.Errorf("%s: %w", kind.MIME.Value, ErrUnsupported)
}

func looksLikeSVG(data []byte) bool {
	head := data
	if len(head) > 1024 {
		head = head[:1024]
	}
	return bytes.Contains(bytes.ToLower(head), []byte("<svg"))
}
