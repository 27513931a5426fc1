package viewer

import (
	"context"
	"errors"
	"image"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ByLCY/gradeview/grading"
	"github.com/ByLCY/gradeview/layout"
	"github.com/ByLCY/gradeview/source"
)

func testPages() []grading.Page {
	return []grading.Page{
		{ImageURL: "https://x.com/cover.pdf"},
		{ImageURL: "https://x.com/p1.png", Questions: []grading.Question{{
			Number: "1",
			Steps: []grading.AnswerStep{
				{StepID: "1", Location: grading.Box(10, 10, 50, 30), IsCorrect: true},
				{StepID: "2", Location: grading.Box(10, 40, 50, 60), Analysis: "符号错误"},
			},
		}}},
		{ImageURL: "https://x.com/notes.txt"},
		{ImageURL: "https://x.com/p2.jpg?sig=abc"},
	}
}

func staticLoader() source.Loader {
	return source.LoaderFunc(func(ctx context.Context, url string) (image.Image, error) {
		return image.NewGray(image.Rect(0, 0, 400, 300)), nil
	})
}

func TestSessionStartsOnFirstImagePage(t *testing.T) {
	s, err := NewSession(testPages(), Options{Loader: staticLoader()})
	require.NoError(t, err)
	require.Equal(t, 1, s.Current())
	require.Equal(t, Position{Index: 1, Total: 2}, s.Position())
	require.Equal(t, "1 / 2", s.Position().String())
	require.Equal(t, grading.PageStats{Total: 2, Correct: 1, Wrong: 1}, s.Stats())
}

func TestSessionNavigation(t *testing.T) {
	s, err := NewSession(testPages(), Options{Loader: staticLoader()})
	require.NoError(t, err)

	require.False(t, s.Prev())
	require.True(t, s.Next())
	require.Equal(t, 3, s.Current())
	require.Equal(t, "2 / 2", s.Position().String())
	require.False(t, s.Next())
	require.True(t, s.Prev())
	require.Equal(t, 1, s.Current())

	require.NoError(t, s.Goto(3))
	require.ErrorIs(t, s.Goto(2), ErrNotImagePage)
	require.Error(t, s.Goto(9))
	require.Equal(t, 3, s.Current())
}

func TestSessionWithoutImagePages(t *testing.T) {
	_, err := NewSession([]grading.Page{{ImageURL: "a.pdf"}}, Options{Loader: staticLoader()})
	require.ErrorIs(t, err, ErrNoImagePages)
	_, err = NewSession(testPages(), Options{})
	require.Error(t, err)
}

func TestSessionLoadBuildsScene(t *testing.T) {
	s, err := NewSession(testPages(), Options{Loader: staticLoader(), Layout: layout.BuildOptions{Seed: 1}})
	require.NoError(t, err)

	scene, err := s.Load(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, scene.PageIndex)
	require.Equal(t, 400, scene.Image.Bounds().Dx())
	require.Equal(t, layout.KindImage, scene.Layout.Elements[0].Type)
	require.Equal(t, 400.0, scene.Layout.Image.Width)
	require.Len(t, scene.Layout.Markers(), 2)
	require.Equal(t, Position{Index: 1, Total: 2}, scene.Position)
}

func TestSessionLoadDiscardsStaleResult(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	canceled := make(chan bool, 1)
	loader := source.LoaderFunc(func(ctx context.Context, url string) (image.Image, error) {
		close(started)
		select {
		case <-ctx.Done():
			canceled <- true
			<-release
			return nil, ctx.Err()
		case <-release:
			canceled <- false
			return image.NewGray(image.Rect(0, 0, 10, 10)), nil
		}
	})
	s, err := NewSession(testPages(), Options{Loader: loader})
	require.NoError(t, err)

	type result struct {
		scene *Scene
		err   error
	}
	done := make(chan result, 1)
	go func() {
		scene, err := s.Load(context.Background())
		done <- result{scene, err}
	}()

	<-started
	require.True(t, s.Next())
	select {
	case c := <-canceled:
		require.True(t, c, "翻页应取消进行中的读取")
	case <-time.After(5 * time.Second):
		t.Fatal("读取未被取消")
	}
	close(release)

	select {
	case r := <-done:
		require.Nil(t, r.scene)
		require.True(t, errors.Is(r.err, ErrStale))
	case <-time.After(5 * time.Second):
		t.Fatal("Load 未返回")
	}
}

func TestSessionLoadPropagatesLoaderError(t *testing.T) {
	boom := errors.New("boom")
	s, err := NewSession(testPages(), Options{Loader: source.LoaderFunc(func(context.Context, string) (image.Image, error) {
		return nil, boom
	})})
	require.NoError(t, err)
	_, err = s.Load(context.Background())
	require.ErrorIs(t, err, boom)
}
