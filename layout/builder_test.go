package layout

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/ByLCY/gradeview/grading"
)

const samplePage = `{
  "image_url": "https://x.com/scan.png",
  "questions_info": [
    {
      "question_number": "1",
      "answer_steps": [
        {"step_id": 1, "answer_location": [10, 10, 110, 60], "is_correct": false, "analysis": "漏写单位"},
        {"step_id": 2, "answer_location": [10, 80, 110, 130], "is_correct": true, "models_consistent": false,
         "qwen_result": {"analysis": "第二模型"}},
        {"step_id": 3, "answer_location": [10, 80, 110], "is_correct": false, "analysis": "坐标无效"}
      ]
    },
    {
      "question_number": "2",
      "answer_steps": [
        {"step_id": 1, "answer_location": [200, 200, 300, 250], "is_correct": true}
      ]
    },
    {
      "question_number": "3",
      "answer_steps": [
        {"step_id": 1, "answer_location": [400, 400, 500, 450], "is_correct": false, "models_consistent": false}
      ]
    }
  ]
}`

func buildSample(t *testing.T, opts BuildOptions) *Result {
	t.Helper()
	var page grading.Page
	require.NoError(t, json.Unmarshal([]byte(samplePage), &page))
	res, err := Build(&page, 1000, 800, opts)
	require.NoError(t, err)
	return res
}

func kinds(res *Result) []string {
	var ids []string
	for _, e := range res.Elements {
		ids = append(ids, string(e.Type)+":"+e.ID)
	}
	return ids
}

func TestBuildEmissionOrder(t *testing.T) {
	res := buildSample(t, BuildOptions{})
	fileID := ImageFileID("https://x.com/scan.png")
	require.Equal(t, []string{
		"image:img-" + fileID,
		"ellipse:circle-2000",
		"text:title-2001",
		"rectangle:note-2002",
		"ellipse:circle-2003",
		"rectangle:note-2004",
		"checkmark:check-2005",
		"ellipse:circle-2006",
		"text:title-2007",
	}, kinds(res))
	require.Equal(t, fileID, res.Image.FileID)
}

func TestBuildColumnAndCursor(t *testing.T) {
	res := buildSample(t, BuildOptions{})
	els := res.Elements

	title1 := els[2]
	require.Equal(t, "Question: 1", title1.Text)
	require.Equal(t, 1120.0, title1.X)
	require.Equal(t, 120.0, title1.Y)
	require.Equal(t, 48.0, title1.Height)
	require.Equal(t, "#333", title1.StrokeColor)

	note1 := els[3]
	require.Equal(t, "(1)漏写单位", note1.Label.Text)
	require.Equal(t, []string{"(1)漏写单位"}, note1.Label.Lines)
	require.Equal(t, "red", note1.Label.StrokeColor)
	require.Equal(t, "white", note1.StrokeColor)
	require.Equal(t, 155.0, note1.Y)
	require.Equal(t, 50.0, note1.Height)
	require.Equal(t, 500.0, note1.Width)

	note2 := els[5]
	require.Equal(t, "(2)第二模型", note2.Label.Text)
	require.Equal(t, "purple", note2.Label.StrokeColor)
	require.Equal(t, 225.0, note2.Y)

	// 第 3 题没有批注文本：仍输出圈与题号，但不追加题间距。
	title3 := els[8]
	require.Equal(t, "Question: 3", title3.Text)
	require.Equal(t, 295.0, title3.Y)
	require.Equal(t, 310.0, res.Cursor)
}

func TestBuildSingleTitlePerQuestion(t *testing.T) {
	res := buildSample(t, BuildOptions{})
	titles := map[string]int{}
	for _, e := range res.Elements {
		if e.Type == KindText {
			titles[e.Question]++
		}
	}
	require.Equal(t, map[string]int{"1": 1, "3": 1}, titles)
}

func TestBuildCursorIsMonotonic(t *testing.T) {
	res := buildSample(t, BuildOptions{})
	last := 0.0
	for _, e := range res.Annotations() {
		require.GreaterOrEqual(t, e.Y, last)
		last = e.Y + e.Height
		if e.Type == KindText {
			last = e.Y
		}
	}
	require.GreaterOrEqual(t, res.Cursor, last)
}

func TestBuildSkipsMalformedBox(t *testing.T) {
	res := buildSample(t, BuildOptions{})
	for _, e := range res.Elements {
		require.False(t, e.Question == "1" && e.Step == "3", "坐标无效的步骤不应产生元素: %+v", e)
	}
	require.Len(t, res.Markers(), 4)
}

func TestBuildLogsSkippedStepsAndNonImagePages(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	res := buildSample(t, BuildOptions{Log: zap.New(core)})
	require.NotEmpty(t, res.Elements)

	skipped := logs.FilterMessage("跳过坐标无效的步骤").All()
	require.Len(t, skipped, 1)
	require.Equal(t, "1", skipped[0].ContextMap()["question"])
	require.Equal(t, "3", skipped[0].ContextMap()["step"])

	page := grading.Page{ImageURL: "notes.txt"}
	_, err := Build(&page, 300, 300, BuildOptions{Log: zap.New(core)})
	require.NoError(t, err)
	require.Equal(t, 1, logs.FilterLevelExact(zapcore.WarnLevel).Len())
}

func TestBuildDeterministicWithSeed(t *testing.T) {
	a := buildSample(t, BuildOptions{Seed: 42})
	b := buildSample(t, BuildOptions{Seed: 42})
	require.Equal(t, a, b)
	for _, m := range a.Markers() {
		require.Less(t, m.Seed, uint64(100000))
		require.Equal(t, 1.4, m.Roughness)
	}
}

func TestBuildNonImagePageHasNoImageElement(t *testing.T) {
	page := grading.Page{
		ImageURL: "https://x.com/doc.pdf",
		Questions: []grading.Question{{
			Number: "1",
			Steps:  []grading.AnswerStep{{Location: grading.Box(0, 0, 10, 10), IsCorrect: true}},
		}},
	}
	res, err := Build(&page, 500, 500, BuildOptions{})
	require.NoError(t, err)
	require.Len(t, res.Elements, 1)
	require.Equal(t, KindCheckmark, res.Elements[0].Type)
}

func TestBuildSingleStepHasNoPrefix(t *testing.T) {
	page := grading.Page{
		ImageURL: "a.jpg",
		Questions: []grading.Question{{
			Number: "5",
			Steps: []grading.AnswerStep{{
				StepID:   "1",
				Location: grading.Box(0, 0, 10, 10),
				Analysis: "第一行\n第二行",
			}},
		}},
	}
	res, err := Build(&page, 1000, 1000, BuildOptions{})
	require.NoError(t, err)
	notes := res.Annotations()
	require.Len(t, notes, 2)
	block := notes[1]
	require.Equal(t, "第一行\n第二行", block.Label.Text)
	// 一个显式换行：折行 1 行 + 换行 1 个。
	require.Len(t, block.Label.Lines, 1)
	require.Equal(t, 2*20*2+10.0, block.Height)
}

func TestBuildCustomProfile(t *testing.T) {
	p := DefaultProfile()
	p.Name = "zh"
	p.TitleTemplate = "题号: ${number}"
	p.StepPrefix = "[${step}] "
	p.ColumnGap = 40
	res := buildSample(t, BuildOptions{Profile: p, Origin: &Point{X: 10, Y: 10}})
	require.Equal(t, "题号: 1", res.Elements[2].Text)
	require.Equal(t, 10.0+1000+40, res.Elements[2].X)
	require.Equal(t, 30.0, res.Elements[2].Y)
	require.True(t, strings.HasPrefix(res.Elements[3].Label.Text, "[1] "))
}

func TestBuildHonorsZeroOrigin(t *testing.T) {
	res := buildSample(t, BuildOptions{Origin: &Point{}})
	img := res.Elements[0]
	require.Equal(t, KindImage, img.Type)
	require.Equal(t, 0.0, img.X)
	require.Equal(t, 0.0, img.Y)
	// 批注栏与游标随图片位置移动
	require.Equal(t, 1000.0+20, res.Elements[2].X)
	require.Equal(t, 20.0, res.Elements[2].Y)

	res = buildSample(t, BuildOptions{})
	require.Equal(t, DefaultOrigin.X, res.Elements[0].X)
	require.Equal(t, DefaultOrigin.Y, res.Elements[0].Y)
}

func TestBuildRejectsBadInput(t *testing.T) {
	_, err := Build(nil, 100, 100, BuildOptions{})
	require.Error(t, err)
	_, err = Build(&grading.Page{}, 0, 100, BuildOptions{})
	require.Error(t, err)

	p := DefaultProfile()
	p.TitleTemplate = "${}"
	_, err = Build(&grading.Page{}, 100, 100, BuildOptions{Profile: p})
	require.Error(t, err)
}

func TestWriteJSON(t *testing.T) {
	res := buildSample(t, BuildOptions{})
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, res))

	var decoded Result
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	require.Equal(t, len(res.Elements), len(decoded.Elements))
	require.Equal(t, res.Elements[6].Points, decoded.Elements[6].Points)
	require.Contains(t, buf.String(), `"type": "checkmark"`)
}
