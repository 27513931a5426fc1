package layout

import (
	"fmt"
	"math/rand/v2"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ByLCY/gradeview/binding"
	"github.com/ByLCY/gradeview/grading"
)

// markerIDBase 是元素编号的起点。
const markerIDBase = 2000

// layoutContext 承载单页布局的可变状态：批注栏游标、已输出的题号以及元素列表。
// 每次 Build 新建一个，互不共享。
type layoutContext struct {
	opts     BuildOptions
	cfg      TextConfig
	image    ImageInfo
	columnX  float64
	nextY    float64
	titled   map[string]bool
	seq      int
	rng      *rand.Rand
	title    binding.Template
	prefix   binding.Template
	elements []Element
}

// Build 将一页批改结果转换为有序的可视元素列表。
// imageWidth、imageHeight 为解码后图片的像素尺寸。
func Build(page *grading.Page, imageWidth, imageHeight float64, opts BuildOptions) (*Result, error) {
	if page == nil {
		return nil, fmt.Errorf("页面为空")
	}
	if imageWidth <= 0 || imageHeight < 0 {
		return nil, fmt.Errorf("图片尺寸无效: %gx%g", imageWidth, imageHeight)
	}
	opts = opts.withDefaults()

	title, err := binding.Parse(opts.Profile.TitleTemplate)
	if err != nil {
		return nil, fmt.Errorf("题号模板错误: %w", err)
	}
	prefix, err := binding.Parse(opts.Profile.StepPrefix)
	if err != nil {
		return nil, fmt.Errorf("步骤前缀模板错误: %w", err)
	}

	img := ImageInfo{
		Source: page.ImageURL,
		X:      opts.Origin.X,
		Y:      opts.Origin.Y,
		Width:  imageWidth,
		Height: imageHeight,
	}
	ctx := &layoutContext{
		opts:    opts,
		cfg:     NewTextConfig(imageWidth, opts.Profile),
		image:   img,
		columnX: img.X + imageWidth + opts.Profile.ColumnGap,
		nextY:   img.Y + opts.Profile.CursorOffset,
		titled:  make(map[string]bool),
		seq:     markerIDBase,
		rng:     rand.New(rand.NewPCG(opts.Seed, opts.Seed^0x9e3779b97f4a7c15)),
		title:   title,
		prefix:  prefix,
	}

	if page.IsImage() {
		ctx.image.FileID = ImageFileID(page.ImageURL)
		ctx.push(Element{
			ID:              "img-" + ctx.image.FileID,
			Type:            KindImage,
			X:               img.X,
			Y:               img.Y,
			Width:           imageWidth,
			Height:          imageHeight,
			StrokeColor:     "transparent",
			BackgroundColor: "transparent",
			FileID:          ctx.image.FileID,
			Source:          page.ImageURL,
		})
	} else {
		opts.Log.Warn("页面不是图片，省略图片元素", zap.String("url", page.ImageURL))
	}

	for _, q := range page.Questions {
		ctx.layoutQuestion(q)
	}

	return &Result{
		Image:    ctx.image,
		Config:   ctx.cfg,
		Elements: ctx.elements,
		Cursor:   ctx.nextY,
	}, nil
}

// ImageFileID 由图片 URL 派生稳定的文件标识。
func ImageFileID(url string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(url)).String()
}

// layoutQuestion 按顺序处理题目的各步骤；有批注时在题目末尾追加一个间距。
func (c *layoutContext) layoutQuestion(q grading.Question) {
	annotated := false
	for _, step := range q.Steps {
		if !step.Location.Valid {
			c.opts.Log.Debug("跳过坐标无效的步骤",
				zap.String("question", q.Number.String()),
				zap.String("step", step.StepID.String()))
			continue
		}
		p := ClassifyStep(step)
		marker := NewMarker(p, step.Location, Point{X: c.image.X, Y: c.image.Y}, c.image.Width, c.opts.Profile.Palette)
		prefix := "circle"
		if marker.Type == KindCheckmark {
			prefix = "check"
		}
		marker.ID = c.nextID(prefix)
		marker.Seed = c.rng.Uint64N(100000)
		marker.Question = q.Number.String()
		marker.Step = step.StepID.String()
		c.push(marker)

		if !p.Annotates() {
			continue
		}
		c.emitTitle(q)
		if c.emitBlock(q, step, p) {
			annotated = true
		}
	}
	if annotated {
		c.advance(c.cfg.AnalysisSpacing)
	}
}

func (c *layoutContext) push(e Element) {
	c.elements = append(c.elements, e)
}

func (c *layoutContext) nextID(prefix string) string {
	id := fmt.Sprintf("%s-%d", prefix, c.seq)
	c.seq++
	return id
}

// advance 只会让游标向下移动。
func (c *layoutContext) advance(dy float64) {
	if dy > 0 {
		c.nextY += dy
	}
}
