package analytics

import (
	"context"
	"fmt"
	"sort"
	"time"
)

// Topology 区域的客流拓扑，决定多个摄像头如何合成一个区域
type Topology string

const (
	// TopologySum 简单求和：区域进出 = 各摄像头进出之和
	TopologySum Topology = "sum"
	// TopologyCrossBoundary 跨界：两台摄像头隔一个出入口对望，
	// Inward 的"进"与 Outward 的"出"都对应进入该区域
	TopologyCrossBoundary Topology = "cross_boundary"
	// TopologySingle 单摄像头直通
	TopologySingle Topology = "single"
)

// AreaSpec 一个命名区域的拓扑定义（来自配置）
type AreaSpec struct {
	Name     string   `yaml:"name"`
	Topology Topology `yaml:"topology"`
	Cameras  []string `yaml:"cameras,omitempty"` // sum / single
	Inward   string   `yaml:"inward,omitempty"`  // cross_boundary
	Outward  string   `yaml:"outward,omitempty"` // cross_boundary
	Within   string   `yaml:"within,omitempty"`  // 所属父区域，子区域客流不得超过父区域
}

// CameraList 该区域涉及的全部摄像头
func (s AreaSpec) CameraList() []string {
	if s.Topology == TopologyCrossBoundary {
		return []string{s.Inward, s.Outward}
	}
	return s.Cameras
}

// AreaSummary 区域级汇总，逐请求计算、不落库
type AreaSummary struct {
	Name     string
	ValueIn  int
	ValueOut int

	// 人群整数计数：按贡献摄像头各自分配后再求和（先分配后求和），
	// 绝不从区域总量反推百分比
	Male    int
	Female  int
	Unknown int
	Minor   int
}

// ComposeArea 按区域拓扑合成各摄像头汇总
// summaries 的 key 是摄像头 ID；缺失的摄像头按零值处理
func ComposeArea(spec AreaSpec, summaries map[string]CameraSummary) AreaSummary {
	area := AreaSummary{Name: spec.Name}

	switch spec.Topology {
	case TopologyCrossBoundary:
		inward := summaries[spec.Inward]
		outward := summaries[spec.Outward]
		// 加法口径：一台的"进"加另一台的"出"，绝不是两台进数之差
		area.ValueIn = inward.TotalIn + outward.TotalOut
		area.ValueOut = inward.TotalOut + outward.TotalIn
		area.addAllocation(inward, inward.TotalIn)
		area.addAllocation(outward, outward.TotalOut)
	default: // sum 与 single 共用求和路径
		for _, cam := range spec.Cameras {
			cs := summaries[cam]
			area.ValueIn += cs.TotalIn
			area.ValueOut += cs.TotalOut
			area.addAllocation(cs, cs.TotalIn)
		}
	}

	// 加法口径下不可能为负，但历史版本混用过净流量口径，防御性钳制保留
	if area.ValueIn < 0 {
		area.ValueIn = 0
	}
	return area
}

// addAllocation 把一台摄像头在给定基数上的人群分配累加进区域
func (a *AreaSummary) addAllocation(cs CameraSummary, base int) {
	gender := Allocate(base, cs.GenderShares())
	a.Male += gender["male"]
	a.Female += gender["female"]
	a.Unknown += gender["unknown"]
	// 儿童是年龄轴，独立按百分比取整，不参与性别余数分配
	a.Minor += cs.MinorPct.Floor(base)
}

// ClampWithin 子区域客流不得超过父区域（数据或时钟偏差时向下钳制）
func (a *AreaSummary) ClampWithin(super AreaSummary) {
	if a.ValueIn > super.ValueIn {
		a.ValueIn = super.ValueIn
	}
}

type slotKey struct{ start, end time.Time }

// AreaPeakLow 多摄像头区域的峰谷时段：按时段分组、对组内 InCount 求和后选取
func (g *Aggregator) AreaPeakLow(ctx context.Context, cameras []string, w Window) (peak, low string, err error) {
	readings, err := g.source.Query(ctx, ReadingFilter{Cameras: cameras, Start: w.Start, End: w.End})
	if err != nil {
		return "", "", fmt.Errorf("failed to query readings: %w", err)
	}

	sums := make(map[slotKey]int)
	for _, r := range readings {
		sums[slotKey{r.StartTime, r.EndTime}] += r.InCount
	}
	return pickPeakLow(sums)
}

// CrossBoundaryPeakLow 跨界区域的峰谷时段：每个时段取 inward.in + outward.out
// 只统计两台摄像头同时有读数的时段
func (g *Aggregator) CrossBoundaryPeakLow(ctx context.Context, inward, outward string, w Window) (peak, low string, err error) {
	readings, err := g.source.Query(ctx, ReadingFilter{Cameras: []string{inward, outward}, Start: w.Start, End: w.End})
	if err != nil {
		return "", "", fmt.Errorf("failed to query readings: %w", err)
	}

	inCounts := make(map[slotKey]int)
	outCounts := make(map[slotKey]int)
	seenIn := make(map[slotKey]bool)
	seenOut := make(map[slotKey]bool)
	for _, r := range readings {
		key := slotKey{r.StartTime, r.EndTime}
		switch r.CameraID {
		case inward:
			inCounts[key] += r.InCount
			seenIn[key] = true
		case outward:
			outCounts[key] += r.OutCount
			seenOut[key] = true
		}
	}

	sums := make(map[slotKey]int)
	for key := range seenIn {
		if seenOut[key] {
			sums[key] = inCounts[key] + outCounts[key]
		}
	}
	return pickPeakLow(sums)
}

func pickPeakLow(sums map[slotKey]int) (peak, low string, err error) {
	if len(sums) == 0 {
		return NoPeriod, NoPeriod, nil
	}
	type slot struct {
		start, end time.Time
		count      int
	}
	slots := make([]slot, 0, len(sums))
	for key, count := range sums {
		slots = append(slots, slot{start: key.start, end: key.end, count: count})
	}
	// map 遍历无序，按时段起点排序保证并列时选取稳定
	sort.Slice(slots, func(i, j int) bool { return slots[i].start.Before(slots[j].start) })

	peakSlot, lowSlot := slots[0], slots[0]
	for _, s := range slots[1:] {
		if s.count > peakSlot.count {
			peakSlot = s
		}
		if s.count < lowSlot.count {
			lowSlot = s
		}
	}
	return FormatPeriod(peakSlot.start, peakSlot.end, peakSlot.count),
		FormatPeriod(lowSlot.start, lowSlot.end, lowSlot.count), nil
}
