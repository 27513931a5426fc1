package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/ByLCY/gradeview/config"
	"github.com/ByLCY/gradeview/renderer"
)

type envKey struct{}

// env 保存一次运行需要的配置与日志。
type env struct {
	cfg      *config.Config
	log      *zap.Logger
	closeLog func() error
}

func envFromContext(ctx context.Context) *env {
	if e, ok := ctx.Value(envKey{}).(*env); ok {
		return e
	}
	panic("env not found in context")
}

// initializeApp 在解析命令行之后、执行子命令之前加载配置并准备日志。
func initializeApp(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	e := envFromContext(ctx)

	var err error
	if e.cfg, err = config.Load(cmd.String("config")); err != nil {
		return ctx, fmt.Errorf("加载配置失败: %w", err)
	}
	if cmd.Bool("debug") {
		e.cfg.Logging.ConsoleLogger.Level = "debug"
	}
	if e.log, e.closeLog, err = e.cfg.Logging.Prepare(); err != nil {
		return ctx, fmt.Errorf("准备日志失败: %w", err)
	}
	e.log.Debug("程序启动", zap.Strings("args", os.Args), zap.String("runtime", runtime.Version()))
	return ctx, nil
}

func destroyApp(ctx context.Context, _ *cli.Command) (err error) {
	e := envFromContext(ctx)
	if e.log != nil {
		e.log.Debug("程序结束")
		_ = e.log.Sync()
	}
	if e.closeLog != nil {
		if er := e.closeLog(); er != nil {
			err = multierr.Append(err, fmt.Errorf("关闭日志文件失败: %w", er))
		}
	}
	return err
}

var errWasHandled bool

func exitErrHandler(ctx context.Context, _ *cli.Command, err error) {
	if e := envFromContext(ctx); e.log != nil {
		e.log.Error("程序出错", zap.Error(err))
		errWasHandled = true
	}
}

func usageErrorHandler(_ context.Context, _ *cli.Command, err error, _ bool) error {
	return err
}

func contextWithEnv(ctx context.Context) context.Context {
	return context.WithValue(ctx, envKey{}, &env{})
}

func newApp() *cli.Command {
	pageFlags := []cli.Flag{
		&cli.IntFlag{Name: "page", Aliases: []string{"p"}, Value: -1, Usage: "只处理下标为 `N` 的页面（默认全部图片页）"},
	}

	return &cli.Command{
		Name:            config.AppName,
		Usage:           "在批改图片旁排布批注并输出",
		HideHelpCommand: true,
		Before:          initializeApp,
		After:           destroyApp,
		OnUsageError:    usageErrorHandler,
		ExitErrHandler:  exitErrHandler,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "从 `FILE` 读取配置（YAML）"},
			&cli.BoolFlag{Name: "debug", Aliases: []string{"d"}, Usage: "控制台输出调试日志"},
		},
		Commands: []*cli.Command{
			{
				Name:         "layout",
				Usage:        "计算批注布局并输出 JSON",
				ArgsUsage:    "RESULT.json [DESTINATION]",
				OnUsageError: usageErrorHandler,
				Action:       runLayout,
				Flags:        pageFlags,
			},
			{
				Name:         "render",
				Usage:        "渲染批注后的页面（" + formatNames() + "）",
				ArgsUsage:    "RESULT.json [DIRECTORY]",
				OnUsageError: usageErrorHandler,
				Action:       runRender,
				Flags: append([]cli.Flag{
					&cli.StringFlag{Name: "to", Usage: "输出格式 `TYPE`，覆盖配置中的 render.format"},
					&cli.StringFlag{Name: "debug-json", Usage: "同时把布局写入 `DIR` 下的 JSON 文件"},
				}, pageFlags...),
			},
			{
				Name:         "pages",
				Usage:        "列出图片页及对错统计",
				ArgsUsage:    "RESULT.json",
				OnUsageError: usageErrorHandler,
				Action:       runPages,
			},
			{
				Name:         "dumpconfig",
				Usage:        "输出默认或当前配置（YAML）",
				ArgsUsage:    "[DESTINATION]",
				OnUsageError: usageErrorHandler,
				Action:       runDumpConfig,
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "default", Usage: "输出内置默认配置"},
				},
			},
		},
	}
}

func main() {
	ctx, stop := signal.NotifyContext(contextWithEnv(context.Background()), os.Interrupt, syscall.SIGTERM)

	var err error
	defer func() {
		stop()
		if err != nil {
			if !errWasHandled {
				fmt.Fprintf(os.Stderr, "程序出错: %v\n", err)
			}
			os.Exit(1)
		}
	}()
	err = newApp().Run(ctx, os.Args)
}

func formatNames() string {
	s := ""
	for i, f := range renderer.Formats {
		if i > 0 {
			s += ", "
		}
		s += string(f)
	}
	return s
}
