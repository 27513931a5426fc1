package layout

import "go.uber.org/zap"

// BuildOptions 配置布局阶段所需的依赖。零值可用。
type BuildOptions struct {
	// Metrics 估算字符宽度，为空时使用 HeuristicMetrics。
	Metrics Metrics
	// Profile 为空（Name 为空）时使用 DefaultProfile。
	Profile Profile
	// Origin 是图片左上角在画布上的位置，为 nil 时使用 DefaultOrigin。
	Origin *Point
	// Seed 决定手绘抖动的随机种子；同一 Seed 产生完全相同的输出。
	Seed uint64
	Log  *zap.Logger
}

// DefaultOrigin 是图片在画布中的默认位置。
var DefaultOrigin = Point{X: 100, Y: 100}

func (o BuildOptions) withDefaults() BuildOptions {
	if o.Metrics == nil {
		o.Metrics = HeuristicMetrics{}
	}
	if o.Profile.Name == "" {
		o.Profile = DefaultProfile()
	}
	if o.Origin == nil {
		origin := DefaultOrigin
		o.Origin = &origin
	}
	if o.Log == nil {
		o.Log = zap.NewNop()
	}
	return o
}
