package report

// RowStats 日报中单个区域（或单摄像头）的统计行
type RowStats struct {
	Name          string
	TotalIn       int
	TotalOut      int
	Males         int
	Females       int
	Children      int
	Unknowns      int
	HighestPeriod string
	LowestPeriod  string
}
