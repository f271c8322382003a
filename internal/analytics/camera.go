package analytics

import (
	"context"
	"fmt"
	"time"

	"footfall-data/internal/domain"
)

// Window 查询时间窗 [Start, End]
type Window struct {
	Start time.Time
	End   time.Time
}

// ReadingFilter 读数查询条件，Cameras 为空表示不过滤摄像头
type ReadingFilter struct {
	Cameras []string
	Start   time.Time
	End     time.Time
}

// ReadingSource 原始读数来源（repository 实现；单元测试用假数据源替换）
type ReadingSource interface {
	Query(ctx context.Context, filter ReadingFilter) ([]domain.SensorReading, error)
}

// CameraSummary 单摄像头（或全站）在一个时间窗内的汇总
// 百分比以 TotalCount 为基数，不是 InCount——进出客流的人群构成可能与
// 总计数不同，这是源数据的既定口径，按原样向下游传递
type CameraSummary struct {
	TotalIn  int `json:"total_in"`
	TotalOut int `json:"total_out"`

	MalePct    Percent `json:"male_percent"`
	FemalePct  Percent `json:"female_percent"`
	MinorPct   Percent `json:"minor_percent"`
	UnknownPct Percent `json:"unknown_percent"`

	// "YYYY/MM/DD HH:MM:SS~HH:MM:SS, n pax"，窗口内无读数时为 "N/A"
	PeakPeriod string `json:"peak_period"`
	LowPeriod  string `json:"low_period"`
}

// NoPeriod 窗口内没有任何读数时的峰谷时段占位
const NoPeriod = "N/A"

// GenderShares 性别轴的分配输入（male/female/unknown，儿童走独立百分比）
func (s CameraSummary) GenderShares() []Share {
	return []Share{
		{Category: "male", Pct: s.MalePct},
		{Category: "female", Pct: s.FemalePct},
		{Category: "unknown", Pct: s.UnknownPct},
	}
}

// Aggregator 摄像头级汇总器，逐请求无状态
type Aggregator struct {
	source ReadingSource
}

func NewAggregator(source ReadingSource) *Aggregator {
	return &Aggregator{source: source}
}

// Summarize 汇总一个摄像头在时间窗内的读数；cameraID 为空串表示全部摄像头
func (a *Aggregator) Summarize(ctx context.Context, cameraID string, w Window) (CameraSummary, error) {
	filter := ReadingFilter{Start: w.Start, End: w.End}
	if cameraID != "" {
		filter.Cameras = []string{cameraID}
	}
	readings, err := a.source.Query(ctx, filter)
	if err != nil {
		return CameraSummary{}, fmt.Errorf("failed to query readings: %w", err)
	}
	return Summarize(readings), nil
}

// Summarize 纯函数形式的摄像头汇总（空集返回零值和 "N/A" 峰谷）
func Summarize(readings []domain.SensorReading) CameraSummary {
	summary := CameraSummary{PeakPeriod: NoPeriod, LowPeriod: NoPeriod}

	var total, male, female, minor, unknown int
	var peak, low *domain.SensorReading
	for i := range readings {
		r := &readings[i]
		total += r.TotalCount
		summary.TotalIn += r.InCount
		summary.TotalOut += r.OutCount
		male += r.MaleCount
		female += r.FemaleCount
		minor += r.MinorCount
		unknown += r.UnknownGenderCount

		// 严格大于/小于：并列时保留先遇到的行
		if peak == nil || r.InCount > peak.InCount {
			peak = r
		}
		if low == nil || r.InCount < low.InCount {
			low = r
		}
	}

	summary.MalePct = PercentOf(male, total)
	summary.FemalePct = PercentOf(female, total)
	summary.MinorPct = PercentOf(minor, total)
	summary.UnknownPct = PercentOf(unknown, total)

	if peak != nil {
		summary.PeakPeriod = FormatPeriod(peak.StartTime, peak.EndTime, peak.InCount)
		summary.LowPeriod = FormatPeriod(low.StartTime, low.EndTime, low.InCount)
	}
	return summary
}

// FormatPeriod 峰谷时段的展示格式，与前端约定一致
func FormatPeriod(start, end time.Time, count int) string {
	return fmt.Sprintf("%s~%s, %d pax",
		start.Format("2006/01/02 15:04:05"),
		end.Format("15:04:05"),
		count)
}
