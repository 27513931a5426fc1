package layout

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ByLCY/gradeview/grading"
)

func TestClassifyTable(t *testing.T) {
	pal := DefaultProfile().Palette
	cases := []struct {
		correct, consistent bool
		policy              Policy
		marker              ElementKind
		color               string
		source              AnnotationSource
	}{
		{true, true, PolicyConfirmed, KindCheckmark, "red", SourceNone},
		{true, false, PolicyReview, KindEllipse, "purple", SourceAlternate},
		{false, false, PolicyDisputed, KindEllipse, "orange", SourcePrimary},
		{false, true, PolicyWrong, KindEllipse, "red", SourcePrimary},
	}
	for _, c := range cases {
		p := Classify(c.correct, c.consistent)
		require.Equal(t, c.policy, p)
		require.Equal(t, c.marker, p.Marker())
		require.Equal(t, c.color, p.Color(pal))
		require.Equal(t, c.source, p.Source())
		require.Equal(t, c.source != SourceNone, p.Annotates())
	}
}

func TestClassifyStepMissingConsistencyIsConsistent(t *testing.T) {
	var absent, explicit grading.AnswerStep
	require.NoError(t, json.Unmarshal([]byte(`{"is_correct": true}`), &absent))
	require.NoError(t, json.Unmarshal([]byte(`{"is_correct": true, "models_consistent": true}`), &explicit))
	require.Equal(t, ClassifyStep(explicit), ClassifyStep(absent))
	require.Equal(t, PolicyConfirmed, ClassifyStep(absent))
	require.False(t, ClassifyStep(absent).Annotates())
}

func TestAnnotationTextSource(t *testing.T) {
	var step grading.AnswerStep
	require.NoError(t, json.Unmarshal([]byte(`{
		"analysis": "主模型分析",
		"qwen_result": {"analysis": "第二模型分析"}
	}`), &step))
	require.Equal(t, "第二模型分析", PolicyReview.AnnotationText(step))
	require.Equal(t, "主模型分析", PolicyWrong.AnnotationText(step))
	require.Equal(t, "主模型分析", PolicyDisputed.AnnotationText(step))
	require.Empty(t, PolicyConfirmed.AnnotationText(step))
}

func TestMarkerGeometry(t *testing.T) {
	pal := DefaultProfile().Palette
	origin := Point{X: 100, Y: 100}

	check := NewMarker(PolicyConfirmed, grading.Box(200, 200, 300, 250), origin, 1000, pal)
	require.Equal(t, KindCheckmark, check.Type)
	require.InDelta(t, 30.0, CheckSize(grading.Box(200, 200, 300, 250), 1000), 1e-9)
	require.InDelta(t, 320.0, check.X, 1e-9)
	require.InDelta(t, 295.0, check.Y, 1e-9)
	require.InDelta(t, 96.0, check.Width, 1e-9)
	require.Len(t, check.Points, 11)
	require.Equal(t, Point{}, check.Points[0])
	require.InDelta(t, 96.0, check.Points[10].X, 1e-9)
	require.InDelta(t, -72.0, check.Points[10].Y, 1e-9)
	require.Equal(t, "red", check.StrokeColor)

	// 大框受 0.12 × 图片宽度上限约束。
	require.InDelta(t, 0.75*120, CheckSize(grading.Box(0, 0, 900, 900), 1000), 1e-9)

	box := grading.Box(10, 10, 110, 60)
	k := EllipseScale(100, 1000)
	require.InDelta(t, 1+600.0/700.0, k, 1e-9)
	ring := NewMarker(PolicyDisputed, box, origin, 1000, pal)
	require.Equal(t, KindEllipse, ring.Type)
	require.InDelta(t, 110-100*k*0.2, ring.X, 1e-9)
	require.InDelta(t, 110-50*k*0.2, ring.Y, 1e-9)
	require.InDelta(t, 100*k, ring.Width, 1e-9)
	require.InDelta(t, 50*k, ring.Height, 1e-9)
	require.Equal(t, "orange", ring.StrokeColor)

	require.Equal(t, 1.0, EllipseScale(900, 1000))
	require.Equal(t, 2.0, EllipseScale(0, 1000))
}
