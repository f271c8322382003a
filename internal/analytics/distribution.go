package analytics

import (
	"context"
	"fmt"
	"time"
)

// Granularity 趋势序列的时间粒度
type Granularity string

const (
	GranularityWeekly    Granularity = "weekly"    // 7 个日桶
	GranularityMonthly   Granularity = "monthly"   // 4 个自然周桶（周一~周日）
	GranularityQuarterly Granularity = "quarterly" // 3 个自然月桶
	GranularityYearly    Granularity = "yearly"    // 4 个自然季度桶
)

// SeriesSet 各人群类目的分桶序列，最旧的桶在前
type SeriesSet struct {
	Male     []int `json:"male"`
	Female   []int `json:"female"`
	Children []int `json:"children"`
	Unknown  []int `json:"unknown"`
}

// DistributionBuilder 趋势图分布序列构建器
//
// 每个桶独立计算 floor(in_sum * category_sum / total_sum)，不做余数回填：
// 这些是各自独立的趋势线，不是一份必须对账的人群分解，各类目之和
// 不保证等于 in_sum（与汇总分配的守恒契约刻意不同）
type DistributionBuilder struct {
	source ReadingSource
}

func NewDistributionBuilder(source ReadingSource) *DistributionBuilder {
	return &DistributionBuilder{source: source}
}

// Build 构建一条分布序列
// includeCurrent 为 true 时（current 口径）序列截止到包含今天的桶，
// 为 false 时（historical 口径）截止到上一个完整的桶
func (b *DistributionBuilder) Build(ctx context.Context, g Granularity, includeCurrent bool, today time.Time) (SeriesSet, error) {
	windows, err := bucketWindows(g, includeCurrent, today)
	if err != nil {
		return SeriesSet{}, err
	}

	set := SeriesSet{
		Male:     make([]int, 0, len(windows)),
		Female:   make([]int, 0, len(windows)),
		Children: make([]int, 0, len(windows)),
		Unknown:  make([]int, 0, len(windows)),
	}
	for _, w := range windows {
		readings, err := b.source.Query(ctx, ReadingFilter{Start: w.Start, End: w.End})
		if err != nil {
			return SeriesSet{}, fmt.Errorf("failed to query bucket readings: %w", err)
		}

		var total, in, male, female, minor, unknown int
		for _, r := range readings {
			total += r.TotalCount
			in += r.InCount
			male += r.MaleCount
			female += r.FemaleCount
			minor += r.MinorCount
			unknown += r.UnknownGenderCount
		}

		set.Male = append(set.Male, bucketCount(in, male, total))
		set.Female = append(set.Female, bucketCount(in, female, total))
		set.Children = append(set.Children, bucketCount(in, minor, total))
		set.Unknown = append(set.Unknown, bucketCount(in, unknown, total))
	}
	return set, nil
}

// bucketCount floor(in * category/total)，total 为 0 时取 0
func bucketCount(in, category, total int) int {
	if total <= 0 {
		return 0
	}
	return in * category / total
}

// bucketWindows 计算粒度对应的桶窗口序列，最旧的在前
func bucketWindows(g Granularity, includeCurrent bool, today time.Time) ([]Window, error) {
	day := startOfDay(today)
	switch g {
	case GranularityWeekly:
		if includeCurrent {
			// 含今天在内的最近 7 天
			return dayWindows(day.AddDate(0, 0, -6), 7), nil
		}
		// 上一个自然周，周一到周日
		return dayWindows(mondayOf(day).AddDate(0, 0, -7), 7), nil
	case GranularityMonthly:
		monday := mondayOf(day)
		first := 3 // 含本周在内的前 4 周
		if !includeCurrent {
			first = 4 // 不含本周的前 4 周
		}
		windows := make([]Window, 0, 4)
		for i := first; i > first-4; i-- {
			start := monday.AddDate(0, 0, -7*i)
			windows = append(windows, Window{Start: start, End: start.AddDate(0, 0, 7)})
		}
		return windows, nil
	case GranularityQuarterly:
		month := time.Date(day.Year(), day.Month(), 1, 0, 0, 0, 0, day.Location())
		first := 2 // 含本月在内的前 3 个月
		if !includeCurrent {
			first = 3
		}
		windows := make([]Window, 0, 3)
		for i := first; i > first-3; i-- {
			start := month.AddDate(0, -i, 0)
			windows = append(windows, Window{Start: start, End: start.AddDate(0, 1, 0)})
		}
		return windows, nil
	case GranularityYearly:
		quarterMonth := time.Month((int(day.Month())-1)/3*3 + 1)
		quarter := time.Date(day.Year(), quarterMonth, 1, 0, 0, 0, 0, day.Location())
		first := 3 // 含本季度在内的前 4 个季度
		if !includeCurrent {
			first = 4
		}
		windows := make([]Window, 0, 4)
		for i := first; i > first-4; i-- {
			start := quarter.AddDate(0, -3*i, 0)
			windows = append(windows, Window{Start: start, End: start.AddDate(0, 3, 0)})
		}
		return windows, nil
	}
	return nil, fmt.Errorf("unknown granularity %q", g)
}

func dayWindows(start time.Time, n int) []Window {
	windows := make([]Window, 0, n)
	for i := 0; i < n; i++ {
		s := start.AddDate(0, 0, i)
		windows = append(windows, Window{Start: s, End: s.AddDate(0, 0, 1)})
	}
	return windows
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// mondayOf 所在自然周的周一（周一为一周之始）
func mondayOf(t time.Time) time.Time {
	offset := (int(t.Weekday()) + 6) % 7
	return startOfDay(t).AddDate(0, 0, -offset)
}
