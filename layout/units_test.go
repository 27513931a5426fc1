package layout

import "testing"

// TestNewTextConfigRounds 验证各项尺寸按图片宽度等比计算并取整，行高倍数同样取整。
func TestNewTextConfigRounds(t *testing.T) {
	cfg := NewTextConfig(1000, DefaultProfile())
	want := TextConfig{
		QuestionFontSize: 24,
		AnalysisFontSize: 20,
		AnalysisMaxWidth: 500,
		LineHeight:       2,
		QuestionSpacing:  15,
		AnalysisSpacing:  20,
	}
	if cfg != want {
		t.Fatalf("文本配置不符: got=%+v want=%+v", cfg, want)
	}

	small := NewTextConfig(333, DefaultProfile())
	if small.QuestionFontSize != 8 || small.AnalysisFontSize != 7 || small.AnalysisMaxWidth != 167 {
		t.Fatalf("小图尺寸取整错误: %+v", small)
	}
}

func TestBlockPaddingHasFloor(t *testing.T) {
	if got := (TextConfig{AnalysisFontSize: 8}).BlockPadding(); got != 10 {
		t.Fatalf("留白下限应为 10, got=%g", got)
	}
	if got := (TextConfig{AnalysisFontSize: 40}).BlockPadding(); got != 20 {
		t.Fatalf("留白应为字号一半, got=%g", got)
	}
}

func TestParseColor(t *testing.T) {
	cases := map[string]Color{
		"red":       {255, 0, 0, 255},
		"#333":      {0x33, 0x33, 0x33, 255},
		"#FFA500":   {255, 165, 0, 255},
		"#00000080": {0, 0, 0, 0x80},
		"Purple":    {128, 0, 128, 255},
	}
	for in, want := range cases {
		got, err := ParseColor(in)
		if err != nil {
			t.Fatalf("解析 %q 失败: %v", in, err)
		}
		if got != want {
			t.Fatalf("解析 %q: got=%+v want=%+v", in, got, want)
		}
	}
	for _, bad := range []string{"", "#12", "magenta-ish", "#gggggg"} {
		if _, err := ParseColor(bad); err == nil {
			t.Fatalf("期望 %q 解析失败", bad)
		}
	}
	if err := DefaultProfile().Palette.Validate(); err != nil {
		t.Fatalf("默认调色板应合法: %v", err)
	}
}
