package canvasrenderer

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"math"
	"math/rand/v2"
	"strings"
	"sync"

	"github.com/disintegration/imaging"
	"github.com/tdewolff/canvas"
	"github.com/tdewolff/canvas/renderers/pdf"
	"github.com/tdewolff/canvas/renderers/rasterizer"
	"github.com/tdewolff/canvas/renderers/svg"
	"go.uber.org/zap"

	"github.com/ByLCY/gradeview/fonts"
	"github.com/ByLCY/gradeview/layout"
	"github.com/ByLCY/gradeview/renderer"
)

// 画布单位与布局像素一一对应；canvas 内部以毫米为单位，字体以 pt 为单位。
const ptPerUnit = 72 / 25.4

// Renderer draws layout results via github.com/tdewolff/canvas.
// It also measures glyphs, so it can serve as layout.Metrics.
type Renderer struct {
	opts Options

	fontMu sync.Mutex
	family *canvas.FontFamily
	faces  map[faceKey]*canvas.FontFace
}

var (
	_ renderer.Renderer = (*Renderer)(nil)
	_ layout.Metrics    = (*Renderer)(nil)
)

type faceKey struct {
	size float64
	col  color.NRGBA
}

// Options configures the canvas renderer.
type Options struct {
	Format renderer.Format
	// Font is a font file path or fonts.BuiltinName.
	Font string
	// Margin around the drawing, in canvas units.
	Margin float64
	// Background color; empty means white.
	Background string
	// Resolution is the PNG pixel density per canvas unit.
	Resolution float64
	Log        *zap.Logger
}

// New creates a renderer and loads its font.
func New(opts Options) (*Renderer, error) {
	if opts.Format == "" {
		opts.Format = renderer.FormatPDF
	}
	if !opts.Format.Valid() {
		return nil, fmt.Errorf("不支持的输出格式: %s", opts.Format)
	}
	if opts.Resolution <= 0 {
		opts.Resolution = 1
	}
	if opts.Background == "" {
		opts.Background = "white"
	}
	if _, err := layout.ParseColor(opts.Background); err != nil {
		return nil, fmt.Errorf("背景色: %w", err)
	}
	if opts.Log == nil {
		opts.Log = zap.NewNop()
	}
	data, err := fonts.Load(opts.Font)
	if err != nil {
		return nil, err
	}
	family := canvas.NewFontFamily("gradeview")
	if err := family.LoadFont(data, 0, canvas.FontRegular); err != nil {
		return nil, fmt.Errorf("加载字体失败: %w", err)
	}
	return &Renderer{
		opts:   opts,
		family: family,
		faces:  map[faceKey]*canvas.FontFace{},
	}, nil
}

// CharWidth implements layout.Metrics using real glyph advances.
// Runes without a glyph in the font (e.g. CJK in Go Regular) fall back to
// the heuristic widths instead of the .notdef advance.
func (r *Renderer) CharWidth(ch rune, fontSize float64) float64 {
	if fontSize <= 0 {
		return 0
	}
	face := r.face(fontSize, color.NRGBA{A: 255})
	if face.Font.GlyphIndex(ch) == 0 {
		return layout.HeuristicMetrics{}.CharWidth(ch, fontSize)
	}
	w := face.TextWidth(string(ch))
	if w <= 0 || math.IsNaN(w) {
		return layout.HeuristicMetrics{}.CharWidth(ch, fontSize)
	}
	return w
}

// Bounds returns the canvas size needed to show every element plus the margin.
func (r *Renderer) Bounds(result *layout.Result) (float64, float64) {
	w, h := result.Image.X+result.Image.Width, math.Max(result.Image.Y+result.Image.Height, result.Cursor)
	for _, e := range result.Elements {
		w = math.Max(w, e.X+e.Width)
		h = math.Max(h, e.Y+e.Height)
	}
	return math.Max(w+r.opts.Margin, 1), math.Max(h+r.opts.Margin, 1)
}

// Render draws result over img and encodes it in the configured format.
func (r *Renderer) Render(result *layout.Result, img image.Image) ([]byte, error) {
	if result == nil {
		return nil, fmt.Errorf("渲染结果为空")
	}
	width, height := r.Bounds(result)
	c := canvas.New(width, height)
	ctx := canvas.NewContext(c)
	ctx.SetCoordSystem(canvas.CartesianIV) // 使坐标与布局保持左上角为原点

	bg, _ := layout.ParseColor(r.opts.Background)
	ctx.SetFillColor(toColor(bg))
	ctx.SetStrokeColor(color.RGBA{})
	ctx.DrawPath(0, 0, canvas.Rectangle(width, height))

	for _, e := range result.Elements {
		if err := r.drawElement(ctx, e, img, result.Config); err != nil {
			return nil, fmt.Errorf("绘制元素 %s 失败: %w", e.ID, err)
		}
	}

	data, err := r.encode(c, width, height)
	if err != nil {
		return nil, err
	}
	r.opts.Log.Debug("渲染完成",
		zap.String("format", string(r.opts.Format)),
		zap.Int("elements", len(result.Elements)),
		zap.Int("bytes", len(data)))
	return data, nil
}

func (r *Renderer) encode(c *canvas.Canvas, width, height float64) ([]byte, error) {
	var buf bytes.Buffer
	switch r.opts.Format {
	case renderer.FormatSVG:
		writer := svg.New(&buf, width, height, nil)
		c.RenderTo(writer)
		if err := writer.Close(); err != nil {
			return nil, fmt.Errorf("写入 SVG 失败: %w", err)
		}
	case renderer.FormatPNG:
		img := rasterizer.Draw(c, canvas.DPMM(r.opts.Resolution), canvas.DefaultColorSpace)
		if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
			return nil, fmt.Errorf("写入 PNG 失败: %w", err)
		}
	default:
		writer := pdf.New(&buf, width, height, nil)
		c.RenderTo(writer)
		if err := writer.Close(); err != nil {
			return nil, fmt.Errorf("写入 PDF 失败: %w", err)
		}
	}
	return buf.Bytes(), nil
}

func (r *Renderer) drawElement(ctx *canvas.Context, e layout.Element, img image.Image, cfg layout.TextConfig) error {
	switch e.Type {
	case layout.KindImage:
		if img == nil {
			r.opts.Log.Debug("缺少页面图片，跳过图片元素", zap.String("id", e.ID))
			return nil
		}
		return drawImage(ctx, e, img)
	case layout.KindCheckmark:
		return r.drawCheckmark(ctx, e)
	case layout.KindEllipse:
		return r.drawEllipse(ctx, e)
	case layout.KindText:
		return r.drawText(ctx, e)
	case layout.KindRectangle:
		return r.drawBlock(ctx, e, cfg)
	default:
		return fmt.Errorf("未知元素类型 %q", e.Type)
	}
}

func drawImage(ctx *canvas.Context, e layout.Element, img image.Image) error {
	if e.Width <= 0 {
		return fmt.Errorf("图片宽度无效: %g", e.Width)
	}
	dpmm := float64(img.Bounds().Dx()) / e.Width
	if dpmm <= 0 {
		dpmm = 1
	}
	ctx.DrawImage(e.X, e.Y, img, canvas.DPMM(dpmm))
	return nil
}

// jitter 为手绘风格提供确定性的随机偏移，幅度与 roughness 成正比。
type jitter struct {
	rng *rand.Rand
	amp float64
}

func newJitter(e layout.Element) jitter {
	return jitter{
		rng: rand.New(rand.NewPCG(e.Seed, uint64(len(e.ID)))),
		amp: e.Roughness * 0.6,
	}
}

func (j jitter) next() float64 {
	if j.amp == 0 {
		return 0
	}
	return (j.rng.Float64()*2 - 1) * j.amp
}

func (r *Renderer) stroke(ctx *canvas.Context, e layout.Element) error {
	col, err := layout.ParseColor(e.StrokeColor)
	if err != nil {
		return err
	}
	ctx.SetFillColor(color.RGBA{})
	ctx.SetStrokeColor(toColor(col))
	ctx.SetStrokeWidth(math.Max(e.StrokeWidth, 1))
	ctx.SetStrokeCapper(canvas.RoundCap)
	ctx.SetStrokeJoiner(canvas.RoundJoin)
	return nil
}

func (r *Renderer) drawCheckmark(ctx *canvas.Context, e layout.Element) error {
	if len(e.Points) < 2 {
		return nil
	}
	if err := r.stroke(ctx, e); err != nil {
		return err
	}
	j := newJitter(e)
	p := &canvas.Path{}
	for i, pt := range e.Points {
		x, y := pt.X+j.next(), pt.Y+j.next()
		if i == 0 {
			p.MoveTo(x, y)
		} else {
			p.LineTo(x, y)
		}
	}
	ctx.DrawPath(e.X, e.Y, p)
	return nil
}

// drawEllipse 画两遍略有偏差的椭圆，模拟手绘的圈。
func (r *Renderer) drawEllipse(ctx *canvas.Context, e layout.Element) error {
	if e.Width <= 0 || e.Height <= 0 {
		return nil
	}
	if err := r.stroke(ctx, e); err != nil {
		return err
	}
	j := newJitter(e)
	passes := 1
	if e.Roughness > 0 {
		passes = 2
	}
	for range passes {
		rx, ry := e.Width/2+j.next(), e.Height/2+j.next()
		ctx.DrawPath(e.X+e.Width/2+j.next(), e.Y+e.Height/2+j.next(), canvas.Ellipse(rx, ry))
	}
	return nil
}

func (r *Renderer) drawText(ctx *canvas.Context, e layout.Element) error {
	col, err := layout.ParseColor(e.StrokeColor)
	if err != nil {
		return err
	}
	face := r.face(e.FontSize, nrgba(col))
	baseline := e.Y + face.Metrics().Ascent
	ctx.DrawText(e.X, baseline, canvas.NewTextLine(face, e.Text, canvas.Left))
	return nil
}

// drawBlock 绘制批注块外框和折行后的文本；折行中的显式换行各占一行。
func (r *Renderer) drawBlock(ctx *canvas.Context, e layout.Element, cfg layout.TextConfig) error {
	if err := r.stroke(ctx, layout.Element{StrokeColor: e.StrokeColor, StrokeWidth: 1}); err != nil {
		return err
	}
	ctx.DrawPath(e.X, e.Y, canvas.Rectangle(e.Width, e.Height))
	if e.Label == nil {
		return nil
	}
	col, err := layout.ParseColor(e.Label.StrokeColor)
	if err != nil {
		return err
	}
	fs := e.Label.FontSize
	face := r.face(fs, nrgba(col))
	lineHeight := fs * math.Max(cfg.LineHeight, 1)
	pad := cfg.BlockPadding() / 2
	y := e.Y + pad + face.Metrics().Ascent
	for _, line := range e.Label.Lines {
		for _, row := range strings.Split(line, "\n") {
			if row = strings.TrimRight(row, " \t\r"); row != "" {
				ctx.DrawText(e.X, y, canvas.NewTextLine(face, row, canvas.Left))
			}
			y += lineHeight
		}
	}
	return nil
}

func (r *Renderer) face(size float64, col color.NRGBA) *canvas.FontFace {
	key := faceKey{size: size, col: col}
	r.fontMu.Lock()
	defer r.fontMu.Unlock()
	if f, ok := r.faces[key]; ok {
		return f
	}
	f := r.family.Face(size*ptPerUnit, col, canvas.FontRegular, canvas.FontNormal)
	r.faces[key] = f
	return f
}

func nrgba(c layout.Color) color.NRGBA {
	return color.NRGBA{R: uint8(c.R), G: uint8(c.G), B: uint8(c.B), A: uint8(c.A)}
}

func toColor(c layout.Color) color.Color { return nrgba(c) }
