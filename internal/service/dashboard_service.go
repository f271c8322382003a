package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"footfall-data/internal/analytics"
)

// ErrInvalidDateRange 日期范围缺失或格式不合法（在任何聚合查询之前拒绝）
var ErrInvalidDateRange = errors.New("invalid date range")

// 仪表盘 part3~part6 固定展示的四个摄像头
var dashboardCameras = [4]string{"A6", "A2", "A3", "A4"}

// DashboardRequest 仪表盘查询请求，日期为 "YYYY-MM-DD" 或 "YYYY-MM-DD HH:MM:SS"
type DashboardRequest struct {
	DateStart    string `json:"date_start"`
	DateEnd      string `json:"date_end"`
	RefDateStart string `json:"ref_date_start"`
	RefDateEnd   string `json:"ref_date_end"`
}

// Part1 全站访客量与参考时段对比
type Part1 struct {
	TotalIn       int    `json:"total_in"`
	TotalOut      int    `json:"total_out"`
	Compare       int    `json:"compare"`
	PercentChange string `json:"percent_change"`
}

// Part2 全站峰谷时段
type Part2 struct {
	PeakPeriod string `json:"peak_period"`
	LowPeriod  string `json:"low_period"`
}

// AreaPart 区域类 part（part7~part10）的线上结构
type AreaPart struct {
	ValueIn       int    `json:"value_in"`
	ValueOut      int    `json:"value_out"`
	Comparison    int    `json:"comparison"`
	PercentChange string `json:"percent_change"`
	Male          int    `json:"male"`
	Female        int    `json:"female"`
	Unknown       int    `json:"unknown"`
}

// CategoryComparison part11 中单个人群类目的对比
type CategoryComparison struct {
	Current       int    `json:"current"`
	Ref           int    `json:"ref"`
	PercentChange string `json:"percent_change"`
}

// Part11 全站人群分解对比
type Part11 struct {
	Male     CategoryComparison `json:"male"`
	Female   CategoryComparison `json:"female"`
	Children CategoryComparison `json:"children"`
	Unknown  CategoryComparison `json:"unknown"`
}

// DashboardResponse part1~part11（part12 由独立的分布接口返回）
type DashboardResponse struct {
	Part1  Part1                   `json:"part1"`
	Part2  Part2                   `json:"part2"`
	Part3  analytics.CameraSummary `json:"part3"` // A6
	Part4  analytics.CameraSummary `json:"part4"` // A2
	Part5  analytics.CameraSummary `json:"part5"` // A3
	Part6  analytics.CameraSummary `json:"part6"` // A4
	Part7  AreaPart                `json:"part7"` // Cold Storage
	Part8  AreaPart                `json:"part8"` // A8
	Part9  AreaPart                `json:"part9"` // Canteen
	Part10 AreaPart                `json:"part10"` // 2nd Floor
	Part11 Part11                  `json:"part11"`
}

// DashboardService 组装仪表盘数据，逐请求无状态
type DashboardService struct {
	aggregator *analytics.Aggregator
	areas      []analytics.AreaSpec
	logger     *zap.Logger
}

// NewDashboardService areas 决定 part7~part10 的区域，按声明顺序对应
func NewDashboardService(source analytics.ReadingSource, areas []analytics.AreaSpec, logger *zap.Logger) (*DashboardService, error) {
	if len(areas) != 4 {
		return nil, fmt.Errorf("dashboard requires exactly 4 areas (part7..part10), got %d", len(areas))
	}
	return &DashboardService{
		aggregator: analytics.NewAggregator(source),
		areas:      areas,
		logger:     logger,
	}, nil
}

// Dashboard 组装 part1~part11
func (s *DashboardService) Dashboard(ctx context.Context, req DashboardRequest) (*DashboardResponse, error) {
	window, err := ParseWindow(req.DateStart, req.DateEnd)
	if err != nil {
		return nil, err
	}
	refWindow, err := ParseWindow(req.RefDateStart, req.RefDateEnd)
	if err != nil {
		return nil, err
	}

	// 全站汇总
	site, err := s.aggregator.Summarize(ctx, "", window)
	if err != nil {
		return nil, err
	}
	refSite, err := s.aggregator.Summarize(ctx, "", refWindow)
	if err != nil {
		return nil, err
	}

	totalIn := clampNonNegative(site.TotalIn)
	refIn := clampNonNegative(refSite.TotalIn)

	resp := &DashboardResponse{
		Part1: Part1{
			TotalIn:       totalIn,
			TotalOut:      site.TotalOut,
			Compare:       refIn,
			PercentChange: analytics.PercentChangeOf(totalIn, refIn),
		},
		Part2: Part2{PeakPeriod: site.PeakPeriod, LowPeriod: site.LowPeriod},
	}

	// 逐摄像头汇总（当前与参考窗各一份，区域合成共用）
	current, err := s.summarizeCameras(ctx, window)
	if err != nil {
		return nil, err
	}
	reference, err := s.summarizeCameras(ctx, refWindow)
	if err != nil {
		return nil, err
	}

	resp.Part3 = current[dashboardCameras[0]]
	resp.Part4 = current[dashboardCameras[1]]
	resp.Part5 = current[dashboardCameras[2]]
	resp.Part6 = current[dashboardCameras[3]]

	areaParts, err := s.composeAreaParts(current, reference)
	if err != nil {
		return nil, err
	}
	resp.Part7 = areaParts[0]
	resp.Part8 = areaParts[1]
	resp.Part9 = areaParts[2]
	resp.Part10 = areaParts[3]

	resp.Part11 = buildPart11(site, refSite, totalIn, refIn)
	return resp, nil
}

// summarizeCameras 汇总所有配置涉及的摄像头和固定展示摄像头
func (s *DashboardService) summarizeCameras(ctx context.Context, w analytics.Window) (map[string]analytics.CameraSummary, error) {
	needed := make(map[string]bool)
	for _, cam := range dashboardCameras {
		needed[cam] = true
	}
	for _, area := range s.areas {
		for _, cam := range area.CameraList() {
			needed[cam] = true
		}
	}

	summaries := make(map[string]analytics.CameraSummary, len(needed))
	for cam := range needed {
		summary, err := s.aggregator.Summarize(ctx, cam, w)
		if err != nil {
			return nil, err
		}
		summaries[cam] = summary
	}
	return summaries, nil
}

// composeAreaParts 合成 part7~part10 的四个区域（当前与参考窗各合成一次，
// 子区域按父区域钳制后再算对比）
func (s *DashboardService) composeAreaParts(current, reference map[string]analytics.CameraSummary) ([]AreaPart, error) {
	currentAreas := make(map[string]analytics.AreaSummary, len(s.areas))
	referenceAreas := make(map[string]analytics.AreaSummary, len(s.areas))
	for _, spec := range s.areas {
		currentAreas[spec.Name] = analytics.ComposeArea(spec, current)
		referenceAreas[spec.Name] = analytics.ComposeArea(spec, reference)
	}

	// 第二遍应用子区域钳制（父区域必须已合成完毕）
	for _, spec := range s.areas {
		if spec.Within == "" {
			continue
		}
		super, ok := currentAreas[spec.Within]
		if !ok {
			return nil, fmt.Errorf("area %q references unknown super-area %q", spec.Name, spec.Within)
		}
		sub := currentAreas[spec.Name]
		sub.ClampWithin(super)
		currentAreas[spec.Name] = sub

		refSub := referenceAreas[spec.Name]
		refSub.ClampWithin(referenceAreas[spec.Within])
		referenceAreas[spec.Name] = refSub
	}

	parts := make([]AreaPart, 0, len(s.areas))
	for _, spec := range s.areas {
		area := currentAreas[spec.Name]
		refIn := clampNonNegative(referenceAreas[spec.Name].ValueIn)
		parts = append(parts, AreaPart{
			ValueIn:       area.ValueIn,
			ValueOut:      area.ValueOut,
			Comparison:    refIn,
			PercentChange: analytics.PercentChangeOf(area.ValueIn, refIn),
			Male:          area.Male,
			Female:        area.Female,
			Unknown:       area.Unknown,
		})
	}
	return parts, nil
}

func buildPart11(site, refSite analytics.CameraSummary, totalIn, refIn int) Part11 {
	gender := analytics.Allocate(totalIn, site.GenderShares())
	refGender := analytics.Allocate(refIn, refSite.GenderShares())
	// 儿童按独立百分比取整
	minor := site.MinorPct.Floor(totalIn)
	refMinor := refSite.MinorPct.Floor(refIn)

	return Part11{
		Male: CategoryComparison{
			Current:       gender["male"],
			Ref:           refGender["male"],
			PercentChange: analytics.PercentChangeOf(gender["male"], refGender["male"]),
		},
		Female: CategoryComparison{
			Current:       gender["female"],
			Ref:           refGender["female"],
			PercentChange: analytics.PercentChangeOf(gender["female"], refGender["female"]),
		},
		Children: CategoryComparison{
			Current:       minor,
			Ref:           refMinor,
			PercentChange: analytics.PercentChangeOf(minor, refMinor),
		},
		Unknown: CategoryComparison{
			Current:       gender["unknown"],
			Ref:           refGender["unknown"],
			PercentChange: analytics.PercentChangeOf(gender["unknown"], refGender["unknown"]),
		},
	}
}

func clampNonNegative(v int) int {
	if v < 0 {
		return 0
	}
	return v
}

// ParseWindow 解析请求里的时间窗，接受日期或日期时间两种形式
func ParseWindow(start, end string) (analytics.Window, error) {
	s, err := parseDateTime(start)
	if err != nil {
		return analytics.Window{}, err
	}
	e, err := parseDateTime(end)
	if err != nil {
		return analytics.Window{}, err
	}
	if e.Before(s) {
		return analytics.Window{}, fmt.Errorf("%w: end %q before start %q", ErrInvalidDateRange, end, start)
	}
	return analytics.Window{Start: s, End: e}, nil
}

func parseDateTime(v string) (time.Time, error) {
	if v == "" {
		return time.Time{}, fmt.Errorf("%w: missing date", ErrInvalidDateRange)
	}
	for _, layout := range []string{"2006-01-02 15:04:05", "2006-01-02"} {
		if t, err := time.ParseInLocation(layout, v, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: malformed date %q", ErrInvalidDateRange, v)
}
