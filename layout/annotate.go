package layout

import (
	"strings"

	"github.com/ByLCY/gradeview/grading"
)

// BlockHeight 计算批注块高度：(折行数 + 显式换行数) × 字号 × 行高 + 上下留白。
func BlockHeight(lines []string, text string, cfg TextConfig) float64 {
	n := float64(len(lines) + strings.Count(text, "\n"))
	return n*cfg.AnalysisFontSize*cfg.LineHeight + cfg.BlockPadding()
}

// emitTitle 为题目输出一次题号文本，之后同一题号不再输出。
func (c *layoutContext) emitTitle(q grading.Question) {
	number := q.Number.String()
	if number == "" || c.titled[number] {
		return
	}
	c.titled[number] = true
	c.push(Element{
		ID:          c.nextID("title"),
		Type:        KindText,
		X:           c.columnX,
		Y:           c.nextY,
		Width:       c.cfg.AnalysisMaxWidth,
		Height:      c.cfg.QuestionFontSize * 2,
		StrokeColor: c.opts.Profile.Palette.Title,
		Text:        c.title.Render(map[string]any{"number": number}),
		FontSize:    c.cfg.QuestionFontSize,
		Question:    number,
	})
	c.advance(c.cfg.QuestionSpacing)
}

// annotationText 在多步骤题目中为批注加上步骤前缀。
func (c *layoutContext) annotationText(q grading.Question, step grading.AnswerStep, text string) string {
	if len(q.Steps) > 1 {
		return c.prefix.Render(map[string]any{"step": step.StepID.String()}) + text
	}
	return text
}

// emitBlock 在游标下方放置批注块并推进游标。返回是否输出了批注块。
func (c *layoutContext) emitBlock(q grading.Question, step grading.AnswerStep, p Policy) bool {
	raw := p.AnnotationText(step)
	if raw == "" {
		return false
	}
	text := c.annotationText(q, step, raw)
	fs := c.cfg.AnalysisFontSize
	lines := WrapText(text, c.cfg.AnalysisMaxWidth, fs, c.opts.Metrics)
	height := BlockHeight(lines, text, c.cfg)
	c.push(Element{
		ID:              c.nextID("note"),
		Type:            KindRectangle,
		X:               c.columnX,
		Y:               c.nextY + c.cfg.AnalysisSpacing,
		Width:           c.cfg.AnalysisMaxWidth,
		Height:          height,
		StrokeColor:     c.opts.Profile.Palette.Block,
		BackgroundColor: "transparent",
		Label: &Label{
			Text:        text,
			StrokeColor: p.Color(c.opts.Profile.Palette),
			FontSize:    fs,
			Lines:       lines,
		},
		Question: q.Number.String(),
		Step:     step.StepID.String(),
		Policy:   p.String(),
	})
	c.advance(height + c.cfg.AnalysisSpacing)
	return true
}
