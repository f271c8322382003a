package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"
	"go.uber.org/zap"

	"footfall-data/internal/analytics"
	"footfall-data/internal/domain"
)

// PostgresReadingsRepository 基于 video_analysis 表的读数仓库实现
type PostgresReadingsRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

func NewPostgresReadingsRepository(db *sql.DB, logger *zap.Logger) *PostgresReadingsRepository {
	return &PostgresReadingsRepository{db: db, logger: logger}
}

// 确保实现了接口
var _ ReadingsRepository = (*PostgresReadingsRepository)(nil)

// Query 按时间窗（和可选的摄像头集合）取原始读数
// 摄像头列表用 ANY($n) 参数化传入，不做字符串拼接；
// 按 start_time、camera_name 排序，作为峰谷并列时的行遇到顺序
func (r *PostgresReadingsRepository) Query(ctx context.Context, filter analytics.ReadingFilter) ([]domain.SensorReading, error) {
	query := `
		SELECT
			id,
			camera_name,
			start_time,
			end_time,
			total_people,
			in_count,
			out_count,
			male_count,
			female_count,
			minor_count,
			unknown_gender_count
		FROM video_analysis
		WHERE start_time >= $1 AND end_time <= $2`
	args := []interface{}{filter.Start, filter.End}

	if len(filter.Cameras) > 0 {
		query += fmt.Sprintf(" AND camera_name = ANY($%d)", len(args)+1)
		args = append(args, pq.Array(filter.Cameras))
	}
	query += " ORDER BY start_time, camera_name"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query readings: %w", err)
	}
	defer rows.Close()

	var readings []domain.SensorReading
	for rows.Next() {
		var reading domain.SensorReading
		if err := rows.Scan(
			&reading.ID,
			&reading.CameraID,
			&reading.StartTime,
			&reading.EndTime,
			&reading.TotalCount,
			&reading.InCount,
			&reading.OutCount,
			&reading.MaleCount,
			&reading.FemaleCount,
			&reading.MinorCount,
			&reading.UnknownGenderCount,
		); err != nil {
			return nil, fmt.Errorf("failed to scan reading: %w", err)
		}
		readings = append(readings, reading)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate readings: %w", err)
	}
	return readings, nil
}

// DistinctTimeSlots 去重的采集时段列表
func (r *PostgresReadingsRepository) DistinctTimeSlots(ctx context.Context, start, end string) ([]TimeSlot, error) {
	query := `
		SELECT DISTINCT
			TO_CHAR(start_time, 'HH24:MI:SS') AS start_time_str,
			TO_CHAR(end_time, 'HH24:MI:SS') AS end_time_str
		FROM video_analysis`
	var args []interface{}

	if start != "" && end != "" {
		query += " WHERE start_time::date BETWEEN $1 AND $2"
		args = append(args, start, end)
	}
	query += " ORDER BY start_time_str, end_time_str"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query time slots: %w", err)
	}
	defer rows.Close()

	var slots []TimeSlot
	for rows.Next() {
		var slot TimeSlot
		if err := rows.Scan(&slot.Start, &slot.End); err != nil {
			return nil, fmt.Errorf("failed to scan time slot: %w", err)
		}
		slots = append(slots, slot)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate time slots: %w", err)
	}
	return slots, nil
}
