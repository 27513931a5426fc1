package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/ByLCY/gradeview/config"
	"github.com/ByLCY/gradeview/grading"
	"github.com/ByLCY/gradeview/layout"
	"github.com/ByLCY/gradeview/renderer"
	canvasrenderer "github.com/ByLCY/gradeview/renderer/canvas"
	"github.com/ByLCY/gradeview/source"
	"github.com/ByLCY/gradeview/viewer"
)

func readPages(path string) ([]grading.Page, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("无法打开批改结果 %s: %w", path, err)
	}
	defer f.Close()
	return grading.ReadPages(f)
}

// prepare 读取批改结果并组装会话与渲染器。图片相对路径默认以结果文件所在目录为基准。
func prepare(e *env, cmd *cli.Command, format renderer.Format) (*viewer.Session, *canvasrenderer.Renderer, error) {
	if cmd.Args().Len() == 0 {
		return nil, nil, fmt.Errorf("缺少批改结果文件")
	}
	input := cmd.Args().Get(0)
	pages, err := readPages(input)
	if err != nil {
		return nil, nil, err
	}

	ropts := e.cfg.Render.RendererOptions(e.log)
	if format != "" {
		ropts.Format = format
	}
	r, err := canvasrenderer.New(ropts)
	if err != nil {
		return nil, nil, err
	}
	lopts, err := e.cfg.Layout.BuildOptions(r, e.log)
	if err != nil {
		return nil, nil, err
	}
	sopts := e.cfg.Source.LoaderOptions(e.log)
	if sopts.BaseDir == "" {
		sopts.BaseDir = filepath.Dir(input)
	}
	s, err := viewer.NewSession(pages, viewer.Options{Loader: source.New(sopts), Layout: lopts, Log: e.log})
	if err != nil {
		return nil, nil, err
	}
	return s, r, nil
}

// selectedPages 返回 --page 指定的页，未指定时返回全部图片页。
func selectedPages(cmd *cli.Command, s *viewer.Session) []int {
	if p := int(cmd.Int("page")); p >= 0 {
		return []int{p}
	}
	return s.ImagePages()
}

func loadScene(ctx context.Context, s *viewer.Session, index int) (*viewer.Scene, error) {
	if err := s.Goto(index); err != nil {
		return nil, err
	}
	return s.Load(ctx)
}

func openOutput(name string) (io.WriteCloser, error) {
	if name == "" {
		return nopCloser{os.Stdout}, nil
	}
	if err := os.MkdirAll(filepath.Dir(name), 0o755); err != nil {
		return nil, fmt.Errorf("创建输出目录失败: %w", err)
	}
	f, err := os.Create(name)
	if err != nil {
		return nil, fmt.Errorf("无法创建输出文件 %s: %w", name, err)
	}
	return f, nil
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }

type pageLayout struct {
	Page     int            `json:"page"`
	Position string         `json:"position"`
	Layout   *layout.Result `json:"layout"`
}

func runLayout(ctx context.Context, cmd *cli.Command) (err error) {
	e := envFromContext(ctx)
	s, _, err := prepare(e, cmd, "")
	if err != nil {
		return err
	}

	var out []pageLayout
	for _, idx := range selectedPages(cmd, s) {
		scene, err := loadScene(ctx, s, idx)
		if err != nil {
			return fmt.Errorf("第 %d 页: %w", idx, err)
		}
		out = append(out, pageLayout{Page: idx, Position: scene.Position.String(), Layout: scene.Layout})
	}

	w, err := openOutput(cmd.Args().Get(1))
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, w.Close()) }()

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("输出布局 JSON 失败: %w", err)
	}
	return nil
}

func runRender(ctx context.Context, cmd *cli.Command) error {
	e := envFromContext(ctx)
	format := renderer.Format(cmd.String("to"))
	s, r, err := prepare(e, cmd, format)
	if err != nil {
		return err
	}
	if format == "" {
		format = renderer.Format(e.cfg.Render.Format)
	}

	dir := cmd.Args().Get(1)
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("创建输出目录失败: %w", err)
	}
	debugDir := cmd.String("debug-json")

	// 单页失败不影响其余页面，最后一并报告
	var errs error
	for _, idx := range selectedPages(cmd, s) {
		if ctx.Err() != nil {
			return multierr.Append(errs, ctx.Err())
		}
		name := filepath.Join(dir, fmt.Sprintf("page-%03d%s", idx, format.Extension()))
		if err := renderPage(ctx, s, r, idx, name, debugDir); err != nil {
			if errors.Is(err, context.Canceled) {
				return multierr.Append(errs, err)
			}
			e.log.Warn("页面渲染失败", zap.Int("page", idx), zap.Error(err))
			errs = multierr.Append(errs, fmt.Errorf("第 %d 页: %w", idx, err))
			continue
		}
		e.log.Info("页面已渲染", zap.Int("page", idx), zap.String("file", name))
	}
	return errs
}

func renderPage(ctx context.Context, s *viewer.Session, r *canvasrenderer.Renderer, idx int, name, debugDir string) error {
	scene, err := loadScene(ctx, s, idx)
	if err != nil {
		return err
	}
	if debugDir != "" {
		if err := os.MkdirAll(debugDir, 0o755); err != nil {
			return fmt.Errorf("创建调试目录失败: %w", err)
		}
		if err := layout.WriteDebugJSON(scene.Layout, filepath.Join(debugDir, fmt.Sprintf("page-%03d.json", idx))); err != nil {
			return fmt.Errorf("输出调试 JSON 失败: %w", err)
		}
	}
	data, err := r.Render(scene.Layout, scene.Image)
	if err != nil {
		return fmt.Errorf("渲染失败: %w", err)
	}
	if err := os.WriteFile(name, data, 0o644); err != nil {
		return fmt.Errorf("写入 %s 失败: %w", name, err)
	}
	return nil
}

func runPages(ctx context.Context, cmd *cli.Command) error {
	if cmd.Args().Len() == 0 {
		return fmt.Errorf("缺少批改结果文件")
	}
	pages, err := readPages(cmd.Args().Get(0))
	if err != nil {
		return err
	}
	images := grading.ImagePageIndices(pages)
	if len(images) == 0 {
		return viewer.ErrNoImagePages
	}
	for i, idx := range images {
		st := pages[idx].Stats()
		fmt.Printf("%d / %d\tpage %d\t%s\tsteps=%d correct=%d wrong=%d\n",
			i+1, len(images), idx, pages[idx].ImageURL, st.Total, st.Correct, st.Wrong)
	}
	return nil
}

func runDumpConfig(ctx context.Context, cmd *cli.Command) (err error) {
	e := envFromContext(ctx)

	var data []byte
	if cmd.Bool("default") {
		data = config.Default()
	} else if data, err = config.Dump(e.cfg); err != nil {
		return err
	}

	w, err := openOutput(cmd.Args().Get(0))
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, w.Close()) }()
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("写入配置失败: %w", err)
	}
	return nil
}
