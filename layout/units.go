package layout

import "math"

// This file defines the proportional sizing profile and the per-page text config derived from it.

// Profile holds ratios relative to the image width plus fixed offsets and styling.
// It is normally produced by the profile DSL; DefaultProfile is used otherwise.
type Profile struct {
	Name string `json:"name"`

	QuestionFontRatio    float64 `json:"questionFontRatio"`
	AnalysisFontRatio    float64 `json:"analysisFontRatio"`
	AnalysisWidthRatio   float64 `json:"analysisWidthRatio"`
	LineHeightRatio      float64 `json:"lineHeightRatio"` // unit-less, not scaled by width
	QuestionSpacingRatio float64 `json:"questionSpacingRatio"`
	AnalysisSpacingRatio float64 `json:"analysisSpacingRatio"`

	ColumnGap    float64 `json:"columnGap"`    // px between image right edge and annotation column
	CursorOffset float64 `json:"cursorOffset"` // px from image top to the first annotation

	TitleTemplate string  `json:"titleTemplate"`
	StepPrefix    string  `json:"stepPrefix"`
	Palette       Palette `json:"palette"`
}

// Palette names the colors of each role. Values are CSS names or hex strings.
type Palette struct {
	Mark    string `json:"mark"`    // correct checkmark, wrong-but-agreed circle
	Review  string `json:"review"`  // correct but models disagree
	Dispute string `json:"dispute"` // wrong and models disagree
	Title   string `json:"title"`
	Block   string `json:"block"` // annotation rectangle outline
}

// DefaultProfile returns the stock ratios.
func DefaultProfile() Profile {
	return Profile{
		Name:                 "default",
		QuestionFontRatio:    0.024,
		AnalysisFontRatio:    0.020,
		AnalysisWidthRatio:   0.5,
		LineHeightRatio:      1.5,
		QuestionSpacingRatio: 0.015,
		AnalysisSpacingRatio: 0.02,
		ColumnGap:            20,
		CursorOffset:         20,
		TitleTemplate:        "Question: ${number}",
		StepPrefix:           "(${step})",
		Palette: Palette{
			Mark:    "red",
			Review:  "purple",
			Dispute: "orange",
			Title:   "#333",
			Block:   "white",
		},
	}
}

// TextConfig is computed once per page from the image width. All values are rounded to whole pixels.
type TextConfig struct {
	QuestionFontSize float64 `json:"questionFontSize"`
	AnalysisFontSize float64 `json:"analysisFontSize"`
	AnalysisMaxWidth float64 `json:"analysisMaxWidth"`
	LineHeight       float64 `json:"lineHeight"`
	QuestionSpacing  float64 `json:"questionSpacing"`
	AnalysisSpacing  float64 `json:"analysisSpacing"`
}

// NewTextConfig derives the text config. The line-height multiplier is rounded like the rest,
// so the stock 1.5 becomes 2.
func NewTextConfig(imageWidth float64, p Profile) TextConfig {
	return TextConfig{
		QuestionFontSize: math.Round(imageWidth * p.QuestionFontRatio),
		AnalysisFontSize: math.Round(imageWidth * p.AnalysisFontRatio),
		AnalysisMaxWidth: math.Round(imageWidth * p.AnalysisWidthRatio),
		LineHeight:       math.Round(p.LineHeightRatio),
		QuestionSpacing:  math.Round(imageWidth * p.QuestionSpacingRatio),
		AnalysisSpacing:  math.Round(imageWidth * p.AnalysisSpacingRatio),
	}
}

// BlockPadding is the vertical padding added to every annotation block.
func (c TextConfig) BlockPadding() float64 {
	return math.Max(c.AnalysisFontSize*0.5, 10)
}
