package grading

// PageStats 汇总一页的步骤对错数量。
type PageStats struct {
	Total   int `json:"total"`
	Correct int `json:"correct"`
	Wrong   int `json:"wrong"`
}

// Stats 统计所有步骤（包括坐标无效、不会被绘制的步骤）。
func (p Page) Stats() PageStats {
	var st PageStats
	for _, q := range p.Questions {
		for _, s := range q.Steps {
			if s.Correct() {
				st.Correct++
			} else {
				st.Wrong++
			}
		}
	}
	st.Total = st.Correct + st.Wrong
	return st
}
