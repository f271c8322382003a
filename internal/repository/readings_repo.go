package repository

import (
	"context"

	"footfall-data/internal/analytics"
)

// TimeSlot 一个去重后的采集时段（时分秒字符串，前端时段下拉用）
type TimeSlot struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// ReadingsRepository 客流读数只读仓库
type ReadingsRepository interface {
	analytics.ReadingSource

	// DistinctTimeSlots 列出出现过的采集时段；start/end 为 YYYY-MM-DD，可为空
	DistinctTimeSlots(ctx context.Context, start, end string) ([]TimeSlot, error)
}
