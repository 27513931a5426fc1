package profile_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ByLCY/gradeview/layout"
	"github.com/ByLCY/gradeview/profile"
)

const sampleProfiles = `
// 批注栏版式
profile compact {
  question-font: 2%
  analysis-font: 0.018
  analysis-width: 0.4; line-height: 1.2
  column-gap: 32px
  title: "题号: ${number}"
  color-title: #222
  color-review: "#800080"
}

/* 继承 compact，仅改颜色 */
profile print extends compact {
  color-mark: black
  color-block: transparent # 不画外框
}
`

func TestParseProfiles(t *testing.T) {
	f, err := profile.ParseString(sampleProfiles)
	require.NoError(t, err)
	require.Equal(t, []string{"compact", "print"}, f.Names())

	d, ok := f.Lookup("print")
	require.True(t, ok)
	require.Equal(t, "compact", d.Base)
	require.Len(t, d.Settings, 2)
	require.Equal(t, "color-block", d.Settings[1].Key)
	require.Equal(t, "transparent", d.Settings[1].Value.Raw())
}

func TestCompileAppliesSettingsOverDefault(t *testing.T) {
	f, err := profile.ParseString(sampleProfiles)
	require.NoError(t, err)

	p, err := profile.Compile(f, "compact")
	require.NoError(t, err)
	require.Equal(t, "compact", p.Name)
	require.InDelta(t, 0.02, p.QuestionFontRatio, 1e-12)
	require.Equal(t, 0.018, p.AnalysisFontRatio)
	require.Equal(t, 0.4, p.AnalysisWidthRatio)
	require.Equal(t, 1.2, p.LineHeightRatio)
	require.Equal(t, 32.0, p.ColumnGap)
	require.Equal(t, "题号: ${number}", p.TitleTemplate)
	require.Equal(t, "#222", p.Palette.Title)
	require.Equal(t, "#800080", p.Palette.Review)

	def := layout.DefaultProfile()
	require.Equal(t, def.QuestionSpacingRatio, p.QuestionSpacingRatio)
	require.Equal(t, def.CursorOffset, p.CursorOffset)
	require.Equal(t, def.StepPrefix, p.StepPrefix)
	require.Equal(t, def.Palette.Mark, p.Palette.Mark)
}

func TestCompileExtends(t *testing.T) {
	f, err := profile.ParseString(sampleProfiles)
	require.NoError(t, err)

	p, err := profile.Compile(f, "print")
	require.NoError(t, err)
	require.Equal(t, "print", p.Name)
	require.Equal(t, "black", p.Palette.Mark)
	require.Equal(t, "transparent", p.Palette.Block)
	require.Equal(t, 32.0, p.ColumnGap)

	builtin, err := profile.Compile(f, profile.BuiltinName)
	require.NoError(t, err)
	require.Equal(t, layout.DefaultProfile(), builtin)
}

func TestCompileErrorsCarryPosition(t *testing.T) {
	cases := map[string]string{
		"unknown key":     "profile a {\n  font-size: 12\n}",
		"bad color":       "profile a {\n  color-mark: 12px\n}",
		"px on ratio":     "profile a {\n  analysis-font: 12px\n}",
		"zero ratio":      "profile a {\n  line-height: 0\n}",
		"bad template":    "profile a {\n  title: \"${step}\"\n}",
		"template number": "profile a {\n  step-prefix: 3\n}",
		"duplicate":       "profile a {\n  column-gap: 1\n  column-gap: 2\n}",
	}
	for name, src := range cases {
		f, err := profile.ParseString(src)
		require.NoError(t, err, name)
		_, err = profile.Compile(f, "a")
		require.Error(t, err, name)
		var perr *profile.Error
		require.True(t, errors.As(err, &perr), name)
		require.Equal(t, 2+boolInt(name == "duplicate"), perr.Pos.Line, name)
	}
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func TestCompileCycleAndMissing(t *testing.T) {
	f, err := profile.ParseString("profile a extends b {}\nprofile b extends a {}")
	require.NoError(t, err)
	_, err = profile.Compile(f, "a")
	require.ErrorContains(t, err, "循环继承")

	_, err = profile.Compile(f, "nope")
	require.Error(t, err)
}

func TestParseSyntaxError(t *testing.T) {
	_, err := profile.ParseString("profile {")
	require.Error(t, err)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "layout.profile")
	require.NoError(t, os.WriteFile(path, []byte(sampleProfiles), 0o644))
	p, err := profile.Load(path, "print")
	require.NoError(t, err)
	require.Equal(t, "black", p.Palette.Mark)

	_, err = profile.Load(filepath.Join(t.TempDir(), "missing"), "print")
	require.Error(t, err)
}
