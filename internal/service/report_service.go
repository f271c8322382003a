package service

import (
	"context"

	"go.uber.org/zap"

	"footfall-data/internal/analytics"
	"footfall-data/internal/report"
)

// 日报的固定版面：冷库、二楼、食堂三个区域加三个单摄像头
var reportLayout = []analytics.AreaSpec{
	{Name: "Cold Storage", Topology: analytics.TopologyCrossBoundary, Inward: "A7", Outward: "A6"},
	{Name: "2nd Floor", Topology: analytics.TopologySum, Cameras: []string{"A1", "A2", "A3", "A6"}},
	{Name: "Canteen Area", Topology: analytics.TopologySum, Cameras: []string{"A4", "A5"}},
	{Name: "Camera A1", Topology: analytics.TopologySingle, Cameras: []string{"A1"}},
	{Name: "Camera A3", Topology: analytics.TopologySingle, Cameras: []string{"A3"}},
	{Name: "Camera A2", Topology: analytics.TopologySingle, Cameras: []string{"A2"}},
}

// ReportService 计算日报的区域统计
type ReportService struct {
	aggregator *analytics.Aggregator
	logger     *zap.Logger
}

func NewReportService(source analytics.ReadingSource, logger *zap.Logger) *ReportService {
	return &ReportService{aggregator: analytics.NewAggregator(source), logger: logger}
}

// DailyStats 统计一个自然日内各区域的客流，行序即报表版面顺序
func (s *ReportService) DailyStats(ctx context.Context, day analytics.Window) ([]report.RowStats, error) {
	summaries := make(map[string]analytics.CameraSummary)
	for _, spec := range reportLayout {
		for _, cam := range spec.CameraList() {
			if _, ok := summaries[cam]; ok {
				continue
			}
			summary, err := s.aggregator.Summarize(ctx, cam, day)
			if err != nil {
				return nil, err
			}
			summaries[cam] = summary
		}
	}

	rows := make([]report.RowStats, 0, len(reportLayout))
	for _, spec := range reportLayout {
		area := analytics.ComposeArea(spec, summaries)

		var peak, low string
		var err error
		if spec.Topology == analytics.TopologyCrossBoundary {
			peak, low, err = s.aggregator.CrossBoundaryPeakLow(ctx, spec.Inward, spec.Outward, day)
		} else {
			peak, low, err = s.aggregator.AreaPeakLow(ctx, spec.CameraList(), day)
		}
		if err != nil {
			return nil, err
		}

		rows = append(rows, report.RowStats{
			Name:          spec.Name,
			TotalIn:       area.ValueIn,
			TotalOut:      area.ValueOut,
			Males:         area.Male,
			Females:       area.Female,
			Children:      area.Minor,
			Unknowns:      area.Unknown,
			HighestPeriod: peak,
			LowestPeriod:  low,
		})
		s.logger.Debug("report row computed",
			zap.String("area", spec.Name),
			zap.Int("total_in", area.ValueIn),
			zap.Int("total_out", area.ValueOut))
	}
	return rows, nil
}
