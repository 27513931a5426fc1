// Package viewer keeps the current page of a grading result and turns it into a drawable scene.
package viewer

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sync"

	"go.uber.org/zap"

	"github.com/ByLCY/gradeview/grading"
	"github.com/ByLCY/gradeview/layout"
	"github.com/ByLCY/gradeview/source"
)

var (
	// ErrNoImagePages 表示结果中没有可显示的图片页。
	ErrNoImagePages = errors.New("没有可显示的图片页")
	// ErrStale 表示读取完成时当前页已切换，结果被丢弃。
	ErrStale = errors.New("页面已切换，丢弃过期结果")
	// ErrNotImagePage 表示目标页不是图片页。
	ErrNotImagePage = errors.New("目标页不是图片页")
)

// Options 配置会话依赖。
type Options struct {
	Loader source.Loader
	Layout layout.BuildOptions
	Log    *zap.Logger
}

// Scene 是一次成功读取的结果：页面图片与其布局。
type Scene struct {
	PageIndex int
	Position  Position
	Stats     grading.PageStats
	Image     image.Image
	Layout    *layout.Result
}

// Position 是当前页在所有图片页中的序号（从 1 开始）。
type Position struct {
	Index int
	Total int
}

func (p Position) String() string { return fmt.Sprintf("%d / %d", p.Index, p.Total) }

// Session 维护当前页。翻页会取消正在进行的读取，旧读取的结果以 ErrStale 丢弃。
type Session struct {
	opts  Options
	pages []grading.Page
	image []int

	mu      sync.Mutex
	current int
	gen     uint64
	cancel  context.CancelFunc
}

// NewSession 创建会话并定位到第一张图片页。
func NewSession(pages []grading.Page, opts Options) (*Session, error) {
	if opts.Loader == nil {
		return nil, fmt.Errorf("缺少图片读取器")
	}
	if opts.Log == nil {
		opts.Log = zap.NewNop()
	}
	images := grading.ImagePageIndices(pages)
	if len(images) == 0 {
		return nil, ErrNoImagePages
	}
	return &Session{
		opts:    opts,
		pages:   pages,
		image:   images,
		current: images[0],
	}, nil
}

// Current 返回当前页下标。
func (s *Session) Current() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Page 返回当前页数据。
func (s *Session) Page() grading.Page {
	return s.pages[s.Current()]
}

// Len 返回总页数（包括非图片页）。
func (s *Session) Len() int { return len(s.pages) }

// ImagePages 返回所有图片页下标。
func (s *Session) ImagePages() []int { return append([]int(nil), s.image...) }

// Next 切换到下一张图片页，没有时返回 false。
func (s *Session) Next() bool { return s.step(grading.Next) }

// Prev 切换到上一张图片页，没有时返回 false。
func (s *Session) Prev() bool { return s.step(grading.Prev) }

func (s *Session) step(dir grading.Direction) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx, ok := grading.FindAdjacentImagePage(s.pages, s.current, dir)
	if !ok {
		return false
	}
	s.switchLocked(idx)
	return true
}

// Goto 切换到指定图片页。
func (s *Session) Goto(index int) error {
	if index < 0 || index >= len(s.pages) {
		return fmt.Errorf("页码越界: %d（共 %d 页）", index, len(s.pages))
	}
	if !s.pages[index].IsImage() {
		return fmt.Errorf("第 %d 页: %w", index, ErrNotImagePage)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if index != s.current {
		s.switchLocked(index)
	}
	return nil
}

// switchLocked 更新当前页并使正在进行的读取失效。
func (s *Session) switchLocked(index int) {
	s.opts.Log.Debug("切换页面", zap.Int("from", s.current), zap.Int("to", index))
	s.current = index
	s.gen++
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}

// Position 返回当前页在图片页中的位置。
func (s *Session) Position() Position {
	cur := s.Current()
	for i, idx := range s.image {
		if idx == cur {
			return Position{Index: i + 1, Total: len(s.image)}
		}
	}
	return Position{Total: len(s.image)}
}

// Stats 返回当前页的对错统计。
func (s *Session) Stats() grading.PageStats {
	return s.Page().Stats()
}

// Load 读取当前页图片并计算布局。
// 读取期间若页面切换（或有新的 Load），返回 ErrStale。
func (s *Session) Load(ctx context.Context) (*Scene, error) {
	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	s.gen++
	gen, index := s.gen, s.current
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.mu.Unlock()
	defer cancel()

	page := s.pages[index]
	img, err := s.opts.Loader.Load(ctx, page.ImageURL)
	if s.stale(gen, index) {
		s.opts.Log.Debug("丢弃过期的图片读取结果", zap.Int("page", index))
		return nil, ErrStale
	}
	if err != nil {
		return nil, fmt.Errorf("读取第 %d 页图片失败: %w", index, err)
	}

	b := img.Bounds()
	res, err := layout.Build(&page, float64(b.Dx()), float64(b.Dy()), s.opts.Layout)
	if err != nil {
		return nil, fmt.Errorf("第 %d 页布局失败: %w", index, err)
	}
	if s.stale(gen, index) {
		return nil, ErrStale
	}
	return &Scene{
		PageIndex: index,
		Position:  s.Position(),
		Stats:     page.Stats(),
		Image:     img,
		Layout:    res,
	}, nil
}

func (s *Session) stale(gen uint64, index int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return gen != s.gen || index != s.current
}
