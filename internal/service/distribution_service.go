package service

import (
	"context"
	"time"

	"footfall-data/internal/analytics"
)

// DistributionResponse part12 的八组曲线
type DistributionResponse struct {
	WeeklyCurrent       analytics.SeriesSet `json:"weekly_current"`
	WeeklyHistorical    analytics.SeriesSet `json:"weekly_historical"`
	MonthlyCurrent      analytics.SeriesSet `json:"monthly_current"`
	MonthlyHistorical   analytics.SeriesSet `json:"monthly_historical"`
	QuarterlyCurrent    analytics.SeriesSet `json:"quarterly_current"`
	QuarterlyHistorical analytics.SeriesSet `json:"quarterly_historical"`
	YearlyCurrent       analytics.SeriesSet `json:"yearly_current"`
	YearlyHistorical    analytics.SeriesSet `json:"yearly_historical"`
}

// DistributionService 组装趋势图的分布数据
type DistributionService struct {
	builder *analytics.DistributionBuilder
	now     func() time.Time
}

func NewDistributionService(source analytics.ReadingSource) *DistributionService {
	return &DistributionService{
		builder: analytics.NewDistributionBuilder(source),
		now:     time.Now,
	}
}

// Distribution 以当天为基准构建全部八组序列
func (s *DistributionService) Distribution(ctx context.Context) (*DistributionResponse, error) {
	today := s.now()
	resp := &DistributionResponse{}

	series := []struct {
		granularity analytics.Granularity
		current     bool
		target      *analytics.SeriesSet
	}{
		{analytics.GranularityWeekly, true, &resp.WeeklyCurrent},
		{analytics.GranularityWeekly, false, &resp.WeeklyHistorical},
		{analytics.GranularityMonthly, true, &resp.MonthlyCurrent},
		{analytics.GranularityMonthly, false, &resp.MonthlyHistorical},
		{analytics.GranularityQuarterly, true, &resp.QuarterlyCurrent},
		{analytics.GranularityQuarterly, false, &resp.QuarterlyHistorical},
		{analytics.GranularityYearly, true, &resp.YearlyCurrent},
		{analytics.GranularityYearly, false, &resp.YearlyHistorical},
	}
	for _, item := range series {
		set, err := s.builder.Build(ctx, item.granularity, item.current, today)
		if err != nil {
			return nil, err
		}
		*item.target = set
	}
	return resp, nil
}
